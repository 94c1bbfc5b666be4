package diagram

import (
	"testing"

	"github.com/olehluchkiv/manualchunks/internal/diagram/split"
	"github.com/olehluchkiv/manualchunks/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoEntries builds pages a and b sharing a vendor chunk.
func twoEntries(t *testing.T) *graph.Compilation {
	t.Helper()
	g := graph.New()
	vendor := g.AddChunk("vendor", graph.Initial)
	a := g.AddChunk("a", graph.Initial)
	b := g.AddChunk("b", graph.Initial)
	require.NoError(t, g.Connect(vendor.ID, a.ID))
	require.NoError(t, g.Connect(vendor.ID, b.ID))
	_, err := g.AddEntrypoint("a", vendor.ID, a.ID)
	require.NoError(t, err)
	_, err = g.AddEntrypoint("b", vendor.ID, b.ID)
	require.NoError(t, err)
	return g
}

func TestBuildViews_BelowThreshold(t *testing.T) {
	g := twoEntries(t)
	views := BuildViews(g, "After", DefaultOptions(), split.NewHubAndSpoke(split.DefaultOptions()), DefaultSlideOptions())
	require.Len(t, views, 1)
	assert.Equal(t, "After", views[0].Title)
	assert.Equal(t, GenerateMermaid(g, DefaultOptions()), views[0].Mermaid)
}

func TestBuildViews_Split(t *testing.T) {
	g := twoEntries(t)
	splitter := split.NewHubAndSpoke(split.Options{HubThreshold: 2, ChunkSize: 1})
	views := BuildViews(g, "Before", DefaultOptions(), splitter, SlideOptions{Threshold: 3})
	require.Len(t, views, 3)

	assert.Equal(t, "Before: overview", views[0].Title)
	assert.Contains(t, views[0].Mermaid, "0 modules")

	assert.Equal(t, "Before: a", views[1].Title)
	assert.Contains(t, views[1].Mermaid, "chunk0 --> chunk1")
	assert.NotContains(t, views[1].Mermaid, "chunk2")
	assert.NotContains(t, views[1].Mermaid, "entry_b")

	assert.Equal(t, "Before: b", views[2].Title)
	assert.Contains(t, views[2].Mermaid, "chunk0 --> chunk2")
	assert.NotContains(t, views[2].Mermaid, "chunk1")
}
