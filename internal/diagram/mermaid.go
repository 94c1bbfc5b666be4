// Package diagram renders chunk graphs as Mermaid flowcharts and text trees.
package diagram

import (
	"fmt"
	"strings"

	"github.com/olehluchkiv/manualchunks/internal/graph"
)

// Options controls Mermaid diagram generation.
type Options struct {
	MaxModulesPerBox int  // default 5, 0 means unlimited
	IncludeInit      bool // include %%{init:}%% directive (for standalone .mmd files)
	// Rel shortens module paths in labels. Nil keeps them as they are.
	Rel func(string) string
	// Chunks restricts the diagram to these chunks. Nil draws all of them.
	Chunks []graph.ChunkID
	// Compact replaces module lists with a module count.
	Compact bool
}

// DefaultOptions returns sensible defaults for diagram generation.
func DefaultOptions() Options {
	return Options{MaxModulesPerBox: 5}
}

// View is one titled diagram.
type View struct {
	Title   string
	Mermaid string
}

// GenerateMermaid produces a Mermaid flowchart of the chunk graph. Solid
// arrows lead to initial chunks, dotted ones to async chunks, and every
// entrypoint points at the chunk it loads first.
func GenerateMermaid(g *graph.Compilation, opts Options) string {
	var b strings.Builder

	if opts.IncludeInit {
		b.WriteString("%%{init: {'theme': 'base', 'themeVariables': {'primaryColor': '#ffffff', 'primaryBorderColor': '#cccccc', 'primaryTextColor': '#000000', 'lineColor': '#555555'}}}%%\n")
	}
	b.WriteString("flowchart TD")

	filter := newChunkFilter(opts.Chunks)
	chunks := filter.chunks(g)
	entrypoints := filter.entrypoints(g)
	if len(chunks) == 0 {
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString("    classDef initialStyle fill:#2374ab,stroke:#1a5a8a,color:#fff,stroke-width:2px\n")
	b.WriteString("    classDef asyncStyle fill:#4a9c6d,stroke:#357a50,color:#fff,stroke-width:2px,stroke-dasharray:4\n")
	b.WriteString("    classDef runtimeStyle fill:#d9822b,stroke:#a8641f,color:#fff,stroke-width:2px,font-weight:bold\n")
	b.WriteString("    classDef entryStyle fill:#ffffff,stroke:#555555,color:#000")

	for _, ch := range chunks {
		b.WriteString("\n")
		writeChunkNode(&b, g, ch, opts)
	}

	for _, ep := range entrypoints {
		b.WriteString("\n")
		fmt.Fprintf(&b, "    %s([\"%s\"])", entryID(ep.Name), sanitizeLabel(ep.Name))
	}

	for _, ch := range chunks {
		for _, id := range ch.Children() {
			child := g.Chunk(id)
			if child == nil || !filter.keep(id) {
				continue
			}
			arrow := "-->"
			if !child.IsInitial() {
				arrow = "-.->"
			}
			fmt.Fprintf(&b, "\n    %s %s %s", NodeID(ch.ID), arrow, NodeID(id))
		}
	}
	for _, ep := range entrypoints {
		if head, ok := ep.Head(); ok {
			fmt.Fprintf(&b, "\n    %s ==> %s", entryID(ep.Name), NodeID(head))
		}
	}

	b.WriteString("\n")
	for _, ch := range chunks {
		fmt.Fprintf(&b, "\n    class %s %s", NodeID(ch.ID), styleOf(ch))
	}
	for _, ep := range entrypoints {
		fmt.Fprintf(&b, "\n    class %s entryStyle", entryID(ep.Name))
	}

	return b.String()
}

// NodeID is the Mermaid node identifier of a chunk.
func NodeID(id graph.ChunkID) string {
	return fmt.Sprintf("chunk%d", id)
}

func entryID(name string) string {
	return "entry_" + sanitizeID(name)
}

// sanitizeID replaces characters Mermaid does not accept in identifiers.
func sanitizeID(s string) string {
	r := strings.NewReplacer("/", "_", ".", "_", "-", "_", " ", "_", "@", "_")
	return r.Replace(s)
}

// sanitizeLabel escapes characters that end or confuse a quoted label.
func sanitizeLabel(s string) string {
	r := strings.NewReplacer(`"`, "#quot;", "<", "#lt;", ">", "#gt;")
	return r.Replace(s)
}

func styleOf(ch *graph.Chunk) string {
	switch {
	case ch.Runtime:
		return "runtimeStyle"
	case ch.IsInitial():
		return "initialStyle"
	default:
		return "asyncStyle"
	}
}

// writeChunkNode writes one chunk box: its label, kind and module list with
// optional truncation.
func writeChunkNode(b *strings.Builder, g *graph.Compilation, ch *graph.Chunk, opts Options) {
	lines := []string{sanitizeLabel(ch.String()), ch.Kind.String()}
	modules := ch.Modules()
	if opts.Compact {
		lines = append(lines, fmt.Sprintf("%d modules", len(modules)))
		fmt.Fprintf(b, "    %s[\"%s\"]", NodeID(ch.ID), strings.Join(lines, "<br/>"))
		return
	}
	limit := len(modules)
	if opts.MaxModulesPerBox > 0 && limit > opts.MaxModulesPerBox {
		limit = opts.MaxModulesPerBox
	}
	for _, id := range modules[:limit] {
		lines = append(lines, sanitizeLabel(moduleLabel(g.Module(id), opts.Rel)))
	}
	if limit < len(modules) {
		lines = append(lines, fmt.Sprintf("... %d more", len(modules)-limit))
	}
	fmt.Fprintf(b, "    %s[\"%s\"]", NodeID(ch.ID), strings.Join(lines, "<br/>"))
}

func moduleLabel(m *graph.Module, rel func(string) string) string {
	f := m.File()
	if f == "" {
		return m.Identifier
	}
	if rel != nil {
		return rel(f)
	}
	return f
}
