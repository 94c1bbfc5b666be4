package partition

import (
	"fmt"

	"github.com/olehluchkiv/manualchunks/internal/graph"
)

// removeEmpty drops chunks that lost all their modules and carry no runtime.
// Their parents adopt their children.
func (p *Partitioner) removeEmpty() error {
	for _, ch := range p.g.Chunks() {
		if !ch.IsEmpty() || ch.Runtime {
			continue
		}
		p.logger.Info("removing empty chunk", "chunk", ch.String())
		p.registry.Forget(ch.ID)
		if err := p.g.RemoveChunk(ch.ID); err != nil {
			return err
		}
		p.stats.Removed++
	}
	return nil
}

// injectManifest puts the manifest chunk first in every entrypoint. The old
// head becomes its child, and so does any listed chunk the manifest would
// not otherwise reach. Entrypoints already headed by the manifest are left
// alone.
func (p *Partitioner) injectManifest() error {
	var manifest *graph.Chunk
	for _, ep := range p.g.Entrypoints() {
		head, ok := ep.Head()
		if !ok {
			continue
		}
		if manifest == nil {
			manifest = p.manifestChunk()
		}
		if head == manifest.ID {
			continue
		}
		p.g.RemoveFromEntrypoint(ep, manifest.ID)
		if err := p.g.Unshift(ep, manifest.ID); err != nil {
			return err
		}
		for _, id := range ep.Chunks()[1:] {
			if p.g.Reaches(manifest.ID, id) {
				continue
			}
			if err := p.g.Connect(manifest.ID, id); err != nil {
				return fmt.Errorf("linking manifest in %q: %w", ep.Name, err)
			}
		}
		p.logger.Debug("manifest injected", "entrypoint", ep.Name, "head", manifest.String())
	}
	return nil
}

// manifestChunk reuses the initial chunk already named after the manifest or
// creates it.
func (p *Partitioner) manifestChunk() *graph.Chunk {
	name := p.classifier.Manifest()
	if id, ok := p.registry.Lookup(name, graph.Initial, 0); ok {
		if ch := p.g.Chunk(id); ch != nil {
			ch.Runtime = true
			return ch
		}
	}
	ch := p.g.AddChunk(name, graph.Initial)
	ch.Runtime = true
	p.registry.Register(name, ch, ch.ID)
	return ch
}
