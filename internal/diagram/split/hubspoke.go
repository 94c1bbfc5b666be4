package split

import (
	"slices"
	"strings"

	"github.com/olehluchkiv/manualchunks/internal/graph"
)

// HubAndSpoke implements the hub-and-spoke splitting strategy.
// Chunks loaded by many entrypoints (hubs) repeat on every view that reaches
// them, while entrypoints are chunked into views of ChunkSize.
type HubAndSpoke struct {
	opts Options
}

// NewHubAndSpoke creates a hub-and-spoke splitter with the given options.
func NewHubAndSpoke(opts Options) *HubAndSpoke {
	if opts.HubThreshold <= 0 {
		opts.HubThreshold = DefaultOptions().HubThreshold
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultOptions().ChunkSize
	}
	return &HubAndSpoke{opts: opts}
}

// Split implements Splitter. Entrypoints are sorted by name and chunked into
// groups of ChunkSize. Each group holds the chunks its entrypoints reach:
// hubs when at least HubThreshold entrypoints reach them, spokes otherwise.
// Chunks no entrypoint loads end up as spokes of a final "Unreachable" group.
func (h *HubAndSpoke) Split(g *graph.Compilation) []Group {
	eps := g.Entrypoints()
	slices.SortFunc(eps, func(a, b *graph.Entrypoint) int { return strings.Compare(a.Name, b.Name) })

	reach := make(map[string][]graph.ChunkID, len(eps))
	count := make(map[graph.ChunkID]int)
	for _, ep := range eps {
		ids := Loads(g, ep)
		reach[ep.Name] = ids
		for _, id := range ids {
			count[id]++
		}
	}

	var groups []Group
	for _, batch := range chunkSlice(eps, h.opts.ChunkSize) {
		seen := make(map[graph.ChunkID]bool)
		var grp Group
		names := make([]string, len(batch))
		for i, ep := range batch {
			names[i] = ep.Name
			for _, id := range reach[ep.Name] {
				if seen[id] {
					continue
				}
				seen[id] = true
				if count[id] >= h.opts.HubThreshold {
					grp.Hubs = append(grp.Hubs, id)
				} else {
					grp.Spokes = append(grp.Spokes, id)
				}
			}
		}
		slices.Sort(grp.Hubs)
		slices.Sort(grp.Spokes)
		grp.Title = strings.Join(names, ", ")
		groups = append(groups, grp)
	}

	var orphans []graph.ChunkID
	for _, ch := range g.Chunks() {
		if count[ch.ID] == 0 {
			orphans = append(orphans, ch.ID)
		}
	}
	if len(orphans) > 0 {
		groups = append(groups, Group{Title: "Unreachable", Spokes: orphans})
	}
	return groups
}

// Loads lists the chunks ep loads: the chunks it names plus the async chunks
// below them. Child links into initial chunks ep does not name belong to
// other entrypoints and are not followed.
func Loads(g *graph.Compilation, ep *graph.Entrypoint) []graph.ChunkID {
	seen := make(map[graph.ChunkID]bool)
	var out []graph.ChunkID
	stack := ep.Chunks()
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		ch := g.Chunk(id)
		if ch == nil {
			continue
		}
		seen[id] = true
		out = append(out, id)
		for _, child := range ch.Children() {
			if c := g.Chunk(child); c != nil && (!c.IsInitial() || ep.Contains(child)) {
				stack = append(stack, child)
			}
		}
	}
	return out
}

// chunkSlice splits a slice into chunks of at most size n.
func chunkSlice[T any](items []T, n int) [][]T {
	var chunks [][]T
	for i := 0; i < len(items); i += n {
		end := min(i+n, len(items))
		chunks = append(chunks, items[i:end])
	}
	return chunks
}
