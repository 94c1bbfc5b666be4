package diagram

import (
	"github.com/olehluchkiv/manualchunks/internal/diagram/split"
	"github.com/olehluchkiv/manualchunks/internal/graph"
)

// SlideOptions controls view deck generation.
type SlideOptions struct {
	Threshold int // chunk count above which the graph is split; 0 = always single
}

// DefaultSlideOptions returns sensible defaults.
func DefaultSlideOptions() SlideOptions {
	return SlideOptions{Threshold: 20}
}

// BuildViews renders g as one view titled title, or, once it has at least
// Threshold chunks, as a compact overview followed by one view per splitter
// group. Detail titles are prefixed with title.
func BuildViews(g *graph.Compilation, title string, diagOpts Options, splitter split.Splitter, opts SlideOptions) []View {
	if opts.Threshold <= 0 || len(g.Chunks()) < opts.Threshold {
		return []View{{Title: title, Mermaid: GenerateMermaid(g, diagOpts)}}
	}

	overview := diagOpts
	overview.Compact = true
	views := []View{{Title: title + ": overview", Mermaid: GenerateMermaid(g, overview)}}

	for _, grp := range splitter.Split(g) {
		detail := diagOpts
		detail.Chunks = make([]graph.ChunkID, 0, len(grp.Hubs)+len(grp.Spokes))
		detail.Chunks = append(append(detail.Chunks, grp.Hubs...), grp.Spokes...)
		views = append(views, View{
			Title:   title + ": " + grp.Title,
			Mermaid: GenerateMermaid(g, detail),
		})
	}
	return views
}
