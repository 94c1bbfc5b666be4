package diagram

import (
	"fmt"
	"io"
	"strings"

	"github.com/olehluchkiv/manualchunks/internal/graph"
)

// WriteTree prints every entrypoint's load order followed by each chunk with
// its links and modules.
func WriteTree(w io.Writer, g *graph.Compilation, rel func(string) string) error {
	var b strings.Builder
	for _, ep := range g.Entrypoints() {
		fmt.Fprintf(&b, "entrypoint %s: %s\n", ep.Name, strings.Join(chunkLabels(g, ep.Chunks()), " -> "))
	}
	for _, ch := range g.Chunks() {
		flags := ch.Kind.String()
		if ch.Runtime {
			flags += ", runtime"
		}
		fmt.Fprintf(&b, "%s (%s)\n", ch, flags)
		if parents := ch.Parents(); len(parents) > 0 {
			fmt.Fprintf(&b, "├─ parents: %s\n", strings.Join(chunkLabels(g, parents), ", "))
		}
		if children := ch.Children(); len(children) > 0 {
			fmt.Fprintf(&b, "├─ children: %s\n", strings.Join(chunkLabels(g, children), ", "))
		}
		modules := ch.Modules()
		fmt.Fprintf(&b, "└─ modules: %d\n", len(modules))
		for _, id := range modules {
			fmt.Fprintf(&b, "   ├─ %s\n", moduleLabel(g.Module(id), rel))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func chunkLabels(g *graph.Compilation, ids []graph.ChunkID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if ch := g.Chunk(id); ch != nil {
			out = append(out, ch.String())
		}
	}
	return out
}
