// Package host drives a chunk graph through a bundler-style compilation
// lifecycle so plugins can hook into it.
package host

import (
	"fmt"
	"log/slog"

	"github.com/olehluchkiv/manualchunks/internal/graph"
)

// Optimize stages, fired in this order on every compilation.
const (
	StageOptimizeChunks          = "optimize-chunks"
	StageOptimizeExtractedChunks = "optimize-extracted-chunks"
)

var stages = []string{StageOptimizeChunks, StageOptimizeExtractedChunks}

// OptimizeFunc runs at an optimize stage with the current chunk list.
type OptimizeFunc func(stage string, chunks []*graph.Chunk) error

// Compilation is one build of a chunk graph.
type Compilation struct {
	Name  string
	Graph *graph.Compilation
	// Child marks compilations spawned by another compilation, such as the
	// ones extraction plugins create.
	Child bool

	optimize []OptimizeFunc
}

// OnOptimizeChunks registers fn for both optimize stages.
func (c *Compilation) OnOptimizeChunks(fn OptimizeFunc) {
	c.optimize = append(c.optimize, fn)
}

// RunOptions describes the compilation Run creates.
type RunOptions struct {
	Name  string
	Child bool
}

// Compiler owns the hooks plugins attach to.
type Compiler struct {
	compilation []func(*Compilation)
	emit        []func(*Compilation) error
	logger      *slog.Logger
}

func NewCompiler(logger *slog.Logger) *Compiler {
	return &Compiler{logger: logger.With("component", "host")}
}

// OnCompilation registers fn to run when a compilation is created.
func (c *Compiler) OnCompilation(fn func(*Compilation)) {
	c.compilation = append(c.compilation, fn)
}

// OnEmit registers fn to run after optimization.
func (c *Compiler) OnEmit(fn func(*Compilation) error) {
	c.emit = append(c.emit, fn)
}

// Run builds a compilation over g, fires the compilation hooks, both
// optimize stages and then the emit hooks. The first hook error stops the
// run.
func (c *Compiler) Run(g *graph.Compilation, opts RunOptions) error {
	comp := &Compilation{Name: opts.Name, Graph: g, Child: opts.Child}
	logger := c.logger.With("compilation", comp.Name)
	for _, fn := range c.compilation {
		fn(comp)
	}
	for _, stage := range stages {
		logger.Debug("optimize", "stage", stage, "chunks", len(g.Chunks()))
		for _, fn := range comp.optimize {
			if err := fn(stage, g.Chunks()); err != nil {
				return fmt.Errorf("%s: %w", stage, err)
			}
		}
	}
	logger.Debug("emit")
	for _, fn := range c.emit {
		if err := fn(comp); err != nil {
			return fmt.Errorf("emit: %w", err)
		}
	}
	return nil
}
