package diagram

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/olehluchkiv/manualchunks/internal/classify"
	"github.com/olehluchkiv/manualchunks/internal/config"
	"github.com/olehluchkiv/manualchunks/internal/diagram/split"
	"github.com/olehluchkiv/manualchunks/internal/graph"
	"github.com/olehluchkiv/manualchunks/internal/partition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

// partitioned runs the partitioner over one of its own scenario fixtures, so
// every entrypoint starts with the shared manifest and vendor chunks.
func partitioned(t *testing.T, name string) *graph.Compilation {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("..", "partition", "testdata", name+".txtar"))
	require.NoError(t, err)
	files := make(map[string][]byte, len(ar.Files))
	for _, f := range ar.Files {
		files[f.Name] = f.Data
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg, err := config.Parse(files["rules.hcl"], name+"/rules.hcl")
	require.NoError(t, err)
	g, err := graph.Decode(bytes.NewReader(files["graph.json"]))
	require.NoError(t, err)

	opts := classify.Options{Manifest: cfg.Manifest, DefaultChunkName: cfg.DefaultChunk, Context: "/p"}
	classify.NewRuleSet(cfg, logger).Apply(&opts)
	a, err := classify.New(opts, logger)
	require.NoError(t, err)
	_, err = partition.New(g, a, logger).Run()
	require.NoError(t, err)
	return g
}

// After shared_vendor: #0 app and #1 page-admin both hang off #2 vendor,
// which hangs off #3 manifest.
func TestFilterByEntrypoints_Partitioned(t *testing.T) {
	g := partitioned(t, "shared_vendor")
	assert.Equal(t, []graph.ChunkID{0, 2, 3}, FilterByEntrypoints(g, "main"))
	assert.Equal(t, []graph.ChunkID{1, 2, 3}, FilterByEntrypoints(g, "admin"))
	assert.Equal(t, []graph.ChunkID{0, 1, 2, 3}, FilterByEntrypoints(g, "main", "admin"))

	opts := DefaultOptions()
	opts.Chunks = FilterByEntrypoints(g, "main")
	got := GenerateMermaid(g, opts)
	assert.Contains(t, got, "entry_main ==> chunk3")
	assert.NotContains(t, got, "chunk1", "admin's page chunk is not drawn")
	assert.NotContains(t, got, "entry_admin")
}

func TestFilterByEntrypoints_FollowsAsyncChildren(t *testing.T) {
	g := partitioned(t, "empty_chunk")
	// #0 vendor lazily loads #2 app.split.
	assert.Equal(t, []graph.ChunkID{0, 2, 3}, FilterByEntrypoints(g, "main"))
}

func TestHubSpoke_Partitioned(t *testing.T) {
	g := partitioned(t, "shared_vendor")
	groups := split.NewHubAndSpoke(split.Options{HubThreshold: 2, ChunkSize: 1}).Split(g)

	assert.Equal(t, []split.Group{
		{Title: "admin", Hubs: []graph.ChunkID{2, 3}, Spokes: []graph.ChunkID{1}},
		{Title: "main", Hubs: []graph.ChunkID{2, 3}, Spokes: []graph.ChunkID{0}},
	}, groups)
}
