package host

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/olehluchkiv/manualchunks/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestRun_HookOrder(t *testing.T) {
	g := graph.New()
	g.AddChunk("main", graph.Initial)

	var events []string
	c := NewCompiler(testLogger())
	c.OnCompilation(func(comp *Compilation) {
		events = append(events, "compilation:"+comp.Name)
		comp.OnOptimizeChunks(func(stage string, chunks []*graph.Chunk) error {
			assert.Len(t, chunks, 1)
			events = append(events, stage)
			return nil
		})
	})
	c.OnEmit(func(comp *Compilation) error {
		assert.Same(t, g, comp.Graph)
		events = append(events, "emit")
		return nil
	})

	require.NoError(t, c.Run(g, RunOptions{Name: "web"}))
	assert.Equal(t, []string{
		"compilation:web",
		StageOptimizeChunks,
		StageOptimizeExtractedChunks,
		"emit",
	}, events)
}

func TestRun_ChildFlag(t *testing.T) {
	var child bool
	c := NewCompiler(testLogger())
	c.OnCompilation(func(comp *Compilation) { child = comp.Child })

	require.NoError(t, c.Run(graph.New(), RunOptions{Child: true}))
	assert.True(t, child)
}

func TestRun_OptimizeErrorStops(t *testing.T) {
	boom := errors.New("boom")
	emitted := false
	c := NewCompiler(testLogger())
	c.OnCompilation(func(comp *Compilation) {
		comp.OnOptimizeChunks(func(string, []*graph.Chunk) error { return boom })
	})
	c.OnEmit(func(*Compilation) error {
		emitted = true
		return nil
	})

	err := c.Run(graph.New(), RunOptions{})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), StageOptimizeChunks)
	assert.False(t, emitted)
}

func TestRun_EmitError(t *testing.T) {
	c := NewCompiler(testLogger())
	c.OnEmit(func(*Compilation) error { return errors.New("disk full") })

	err := c.Run(graph.New(), RunOptions{})
	require.Error(t, err)
	assert.Equal(t, "emit: disk full", err.Error())
}
