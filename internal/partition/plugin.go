package partition

import (
	"context"
	"log/slog"

	"github.com/olehluchkiv/manualchunks/internal/classify"
	"github.com/olehluchkiv/manualchunks/internal/graph"
	"github.com/olehluchkiv/manualchunks/internal/host"
)

// Plugin runs the partitioner from a compiler's optimize hooks.
type Plugin struct {
	classifier *classify.Adapter
	logger     *slog.Logger
}

// NewPlugin validates opts. Missing classifier options fail here, before any
// compilation is touched.
func NewPlugin(opts classify.Options, logger *slog.Logger) (*Plugin, error) {
	a, err := classify.New(opts, logger)
	if err != nil {
		return nil, err
	}
	return &Plugin{classifier: a, logger: logger.With("component", "partition.plugin")}, nil
}

// state belongs to one compilation.
type state struct {
	partitioned bool
}

// Apply attaches the plugin to c. Child compilations are left alone, and each
// top-level compilation is partitioned once however many optimize stages fire.
func (p *Plugin) Apply(c *host.Compiler) {
	c.OnCompilation(func(comp *host.Compilation) {
		if comp.Child {
			p.logger.Debug("skip child compilation", "compilation", comp.Name)
			return
		}
		st := &state{}
		comp.OnOptimizeChunks(func(stage string, _ []*graph.Chunk) error {
			return p.optimize(comp, st, stage)
		})
	})
	c.OnEmit(func(comp *host.Compilation) error {
		p.dump(comp.Graph)
		return nil
	})
}

func (p *Plugin) optimize(comp *host.Compilation, st *state, stage string) error {
	if st.partitioned {
		return nil
	}
	st.partitioned = true
	stats, err := New(comp.Graph, p.classifier, p.logger).Run()
	if err != nil {
		return err
	}
	p.logger.Info("chunks partitioned", "compilation", comp.Name, "stage", stage, "stats", stats)
	return nil
}

// dump logs the final chunk graph: every chunk at debug, every entrypoint's
// load order at info.
func (p *Plugin) dump(g *graph.Compilation) {
	if p.logger.Enabled(context.Background(), slog.LevelDebug) {
		for _, ch := range g.Chunks() {
			files := make([]string, 0, len(ch.Modules()))
			for _, id := range ch.Modules() {
				m := g.Module(id)
				if f := m.File(); f != "" {
					files = append(files, p.classifier.Rel(f))
				} else {
					files = append(files, m.Identifier)
				}
			}
			p.logger.Debug("chunk",
				"chunk", ch.String(),
				"kind", ch.Kind.String(),
				"runtime", ch.Runtime,
				"parents", labels(g, ch.Parents()),
				"children", labels(g, ch.Children()),
				"modules", files,
			)
		}
	}
	for _, ep := range g.Entrypoints() {
		p.logger.Info("entrypoint", "name", ep.Name, "chunks", labels(g, ep.Chunks()))
	}
}

func labels(g *graph.Compilation, ids []graph.ChunkID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if ch := g.Chunk(id); ch != nil {
			out = append(out, ch.String())
		}
	}
	return out
}
