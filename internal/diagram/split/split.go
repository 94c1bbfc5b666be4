// Package split divides a large chunk graph into smaller views.
package split

import "github.com/olehluchkiv/manualchunks/internal/graph"

// Group represents one view's content: hub chunks (repeated on every view
// that reaches them) plus spoke chunks (unique to this view).
type Group struct {
	Title  string
	Hubs   []graph.ChunkID
	Spokes []graph.ChunkID
}

// Splitter splits a chunk graph into groups for view generation.
type Splitter interface {
	Split(g *graph.Compilation) []Group
}

// Options controls splitting behavior.
type Options struct {
	HubThreshold int // min entrypoints reaching a chunk to make it a hub; default 2
	ChunkSize    int // max entrypoints per view; default 3
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{HubThreshold: 2, ChunkSize: 3}
}
