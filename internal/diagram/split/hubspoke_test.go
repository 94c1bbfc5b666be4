package split

import (
	"testing"

	"github.com/olehluchkiv/manualchunks/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildGraph creates three entrypoints a, b and c sharing manifest and
// vendor, plus a lazy chunk under a and one chunk nothing loads.
//
//	#0 manifest -> #1 vendor -> #2 a -> #5 a.split
//	                         -> #3 b
//	                         -> #4 c
//	#6 orphan
func buildGraph(t *testing.T) *graph.Compilation {
	t.Helper()
	g := graph.New()
	manifest := g.AddChunk("manifest", graph.Initial)
	vendor := g.AddChunk("vendor", graph.Initial)
	a := g.AddChunk("a", graph.Initial)
	b := g.AddChunk("b", graph.Initial)
	c := g.AddChunk("c", graph.Initial)
	lazy := g.AddChunk("a.split", graph.Async)
	g.AddChunk("orphan", graph.Initial)

	for _, e := range [][2]graph.ChunkID{
		{manifest.ID, vendor.ID},
		{vendor.ID, a.ID},
		{vendor.ID, b.ID},
		{vendor.ID, c.ID},
		{a.ID, lazy.ID},
	} {
		require.NoError(t, g.Connect(e[0], e[1]))
	}
	// Added out of order: groups follow entrypoint names.
	for _, ep := range []struct {
		name string
		head *graph.Chunk
	}{{"c", c}, {"a", a}, {"b", b}} {
		_, err := g.AddEntrypoint(ep.name, manifest.ID, vendor.ID, ep.head.ID)
		require.NoError(t, err)
	}
	return g
}

func TestHubSpoke_SharedChunksAreHubs(t *testing.T) {
	groups := NewHubAndSpoke(Options{HubThreshold: 2, ChunkSize: 2}).Split(buildGraph(t))
	require.Len(t, groups, 3)

	assert.Equal(t, Group{
		Title:  "a, b",
		Hubs:   []graph.ChunkID{0, 1},
		Spokes: []graph.ChunkID{2, 3, 5},
	}, groups[0])
	assert.Equal(t, Group{
		Title:  "c",
		Hubs:   []graph.ChunkID{0, 1},
		Spokes: []graph.ChunkID{4},
	}, groups[1])
	assert.Equal(t, Group{
		Title:  "Unreachable",
		Spokes: []graph.ChunkID{6},
	}, groups[2])
}

func TestHubSpoke_HighThresholdMakesEverythingSpokes(t *testing.T) {
	groups := NewHubAndSpoke(Options{HubThreshold: 4, ChunkSize: 3}).Split(buildGraph(t))
	require.Len(t, groups, 2)
	assert.Equal(t, "a, b, c", groups[0].Title)
	assert.Empty(t, groups[0].Hubs)
	assert.Equal(t, []graph.ChunkID{0, 1, 2, 3, 4, 5}, groups[0].Spokes)
}

func TestHubSpoke_Defaults(t *testing.T) {
	h := NewHubAndSpoke(Options{})
	assert.Equal(t, DefaultOptions(), h.opts)
}

func TestHubSpoke_EmptyGraph(t *testing.T) {
	assert.Empty(t, NewHubAndSpoke(DefaultOptions()).Split(graph.New()))
}

func TestChunkSlice(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunkSlice([]int{1, 2, 3, 4, 5}, 2))
	assert.Nil(t, chunkSlice([]int{}, 2))
}
