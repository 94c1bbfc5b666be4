// Package partition regroups the modules of a chunk graph into the bundles a
// classifier names, keeping load order and lazy-load targets intact.
package partition

import (
	"fmt"
	"log/slog"

	"github.com/olehluchkiv/manualchunks/internal/classify"
	"github.com/olehluchkiv/manualchunks/internal/graph"
)

// Stats counts what one pass did.
type Stats struct {
	Claimed int // unnamed chunks that took the name of their first module
	Moved   int // module memberships moved to another chunk
	Created int // chunks created for bundles that had none
	Skipped int // modules without a file identity
	Removed int // empty chunks dropped during cleanup
}

func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("claimed", s.Claimed),
		slog.Int("moved", s.Moved),
		slog.Int("created", s.Created),
		slog.Int("skipped", s.Skipped),
		slog.Int("removed", s.Removed),
	)
}

// Partitioner runs one repartitioning pass over a compilation.
type Partitioner struct {
	g          *graph.Compilation
	classifier *classify.Adapter
	registry   *Registry
	logger     *slog.Logger
	stats      Stats
}

// New prepares a pass over g.
func New(g *graph.Compilation, classifier *classify.Adapter, logger *slog.Logger) *Partitioner {
	return &Partitioner{
		g:          g,
		classifier: classifier,
		registry:   NewRegistry(),
		logger:     logger.With("component", "partition"),
	}
}

// Run classifies every module, splits chunks to match, removes the chunks
// left empty and puts the manifest chunk at the head of every entrypoint.
// The chunk list and each chunk's module list are snapshotted before they
// are walked; everything else is read live.
func (p *Partitioner) Run() (Stats, error) {
	chunks := p.g.Chunks()
	p.registry.Seed(chunks, p.logger)
	p.logger.Debug("dividing chunks", "chunks", len(chunks), "named", p.registry.Len())

	for _, ch := range chunks {
		if err := p.divide(ch); err != nil {
			return p.stats, err
		}
	}
	if err := p.removeEmpty(); err != nil {
		return p.stats, err
	}
	if err := p.injectManifest(); err != nil {
		return p.stats, err
	}
	if err := p.g.Validate(); err != nil {
		return p.stats, fmt.Errorf("partitioned graph is invalid: %w", err)
	}
	return p.stats, nil
}

// divide places every module of ch. divided holds the targets ch has already
// been rewired to.
func (p *Partitioner) divide(ch *graph.Chunk) error {
	divided := make(map[graph.ChunkID]bool)
	p.logger.Debug("scan chunk", "chunk", ch.String(), "kind", ch.Kind.String())
	for _, id := range ch.Modules() {
		if err := p.place(ch, p.g.Module(id), divided); err != nil {
			return fmt.Errorf("dividing chunk %s: %w", ch, err)
		}
	}
	return nil
}

func (p *Partitioner) place(ch *graph.Chunk, m *graph.Module, divided map[graph.ChunkID]bool) error {
	file := m.File()
	if file == "" {
		p.logger.Debug("skip module without file", "module", m.Identifier, "chunk", ch.String())
		p.stats.Skipped++
		return nil
	}
	bundle := p.classifier.Classify(file, ch)

	if ch.Name() == "" {
		if _, taken := p.registry.Lookup(bundle, ch.Kind, ch.ID); !taken {
			if err := ch.SetName(bundle); err != nil {
				return err
			}
			p.registry.Register(bundle, ch, ch.ID)
			p.stats.Claimed++
			p.logger.Debug("chunk claimed", "chunk", ch.String(), "module", p.classifier.Rel(file))
			return nil
		}
	}
	if bundle == ch.Name() {
		p.registry.Register(bundle, ch, ch.ID)
		return nil
	}
	return p.move(ch, m, file, bundle, divided)
}

func (p *Partitioner) move(source *graph.Chunk, m *graph.Module, file, bundle string, divided map[graph.ChunkID]bool) error {
	target := p.target(source, bundle)
	if err := p.g.MoveModule(m.ID, source.ID, target.ID); err != nil {
		return err
	}
	p.stats.Moved++
	p.logger.Debug("module moved", "module", p.classifier.Rel(file), "from", source.String(), "to", target.String())

	if divided[target.ID] {
		return nil
	}
	divided[target.ID] = true
	p.logger.Debug("chunk split", "chunk", source.String(), "into", target.String())
	return rewire(source.Kind)(p.g, source, target)
}

// target returns the chunk registered for bundle, creating it when missing.
func (p *Partitioner) target(source *graph.Chunk, bundle string) *graph.Chunk {
	if id, ok := p.registry.Lookup(bundle, source.Kind, source.ID); ok {
		if t := p.g.Chunk(id); t != nil {
			return t
		}
	}
	t := p.g.AddChunk(bundle, source.Kind)
	p.registry.Register(bundle, t, source.ID)
	p.stats.Created++
	p.logger.Debug("chunk created", "chunk", t.String(), "kind", t.Kind.String())
	return t
}
