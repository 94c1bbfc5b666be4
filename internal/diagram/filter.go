package diagram

import (
	"slices"

	"github.com/olehluchkiv/manualchunks/internal/diagram/split"
	"github.com/olehluchkiv/manualchunks/internal/graph"
)

// chunkFilter decides which chunks and entrypoints a diagram draws. A nil
// filter keeps everything.
type chunkFilter map[graph.ChunkID]bool

func newChunkFilter(ids []graph.ChunkID) chunkFilter {
	if ids == nil {
		return nil
	}
	f := make(chunkFilter, len(ids))
	for _, id := range ids {
		f[id] = true
	}
	return f
}

func (f chunkFilter) keep(id graph.ChunkID) bool {
	return f == nil || f[id]
}

// chunks returns the kept chunks in creation order.
func (f chunkFilter) chunks(g *graph.Compilation) []*graph.Chunk {
	all := g.Chunks()
	if f == nil {
		return all
	}
	kept := all[:0]
	for _, ch := range all {
		if f[ch.ID] {
			kept = append(kept, ch)
		}
	}
	return kept
}

// entrypoints returns the entrypoints whose chunks are all kept.
func (f chunkFilter) entrypoints(g *graph.Compilation) []*graph.Entrypoint {
	all := g.Entrypoints()
	if f == nil {
		return all
	}
	kept := all[:0]
	for _, ep := range all {
		if slices.ContainsFunc(ep.Chunks(), func(id graph.ChunkID) bool { return !f[id] }) {
			continue
		}
		kept = append(kept, ep)
	}
	return kept
}

// FilterByEntrypoints returns the chunks the named entrypoints load, in
// creation order. Unknown names are ignored. See split.Loads.
func FilterByEntrypoints(g *graph.Compilation, names ...string) []graph.ChunkID {
	seen := make(map[graph.ChunkID]bool)
	for _, name := range names {
		if ep := g.Entrypoint(name); ep != nil {
			for _, id := range split.Loads(g, ep) {
				seen[id] = true
			}
		}
	}

	out := make([]graph.ChunkID, 0, len(seen))
	for _, ch := range g.Chunks() {
		if seen[ch.ID] {
			out = append(out, ch.ID)
		}
	}
	return out
}
