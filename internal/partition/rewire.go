package partition

import (
	"fmt"

	"github.com/olehluchkiv/manualchunks/internal/graph"
)

// rewireFunc links a freshly split target to the chunk it was split from.
type rewireFunc func(g *graph.Compilation, source, target *graph.Chunk) error

func rewire(kind graph.Kind) rewireFunc {
	if kind == graph.Initial {
		return rewireInitial
	}
	return rewireAsync
}

// rewireInitial makes target load right before source: target takes over
// source's parents, becomes source's only parent and is listed ahead of
// source in every entrypoint that lists source.
func rewireInitial(g *graph.Compilation, source, target *graph.Chunk) error {
	if g.Reaches(target.ID, source.ID) {
		// Already loads ahead of source; only make sure it is listed.
		for _, ep := range g.EntrypointsOf(source.ID) {
			if ep.Contains(target.ID) {
				continue
			}
			if err := g.InsertBefore(ep, target.ID, source.ID); err != nil {
				return err
			}
		}
		return nil
	}

	for _, parent := range source.Parents() {
		if parent == target.ID {
			continue
		}
		g.Disconnect(parent, source.ID)
		if err := g.Connect(parent, target.ID); err != nil {
			return fmt.Errorf("moving parent of %s to %s: %w", source, target, err)
		}
	}
	if err := g.Connect(target.ID, source.ID); err != nil {
		return fmt.Errorf("placing %s ahead of %s: %w", target, source, err)
	}
	for _, ep := range g.EntrypointsOf(source.ID) {
		g.RemoveFromEntrypoint(ep, target.ID)
		if err := g.InsertBefore(ep, target.ID, source.ID); err != nil {
			return err
		}
	}
	return nil
}

// rewireAsync makes target a sibling of source: it shares source's parents
// and every split-point that loads source also loads target.
func rewireAsync(g *graph.Compilation, source, target *graph.Chunk) error {
	for _, parent := range source.Parents() {
		if parent == target.ID {
			continue
		}
		if err := g.Connect(parent, target.ID); err != nil {
			return fmt.Errorf("sharing parent of %s with %s: %w", source, target, err)
		}
	}
	for _, b := range source.Blocks() {
		if err := g.AddBlockTarget(b, target.ID); err != nil {
			return err
		}
	}
	return nil
}
