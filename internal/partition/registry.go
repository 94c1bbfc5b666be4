package partition

import (
	"log/slog"

	"github.com/olehluchkiv/manualchunks/internal/graph"
)

// asyncKey scopes an async bundle name to the chunk it was split from, so the
// same lazy bundle name at two load sites yields two chunks.
type asyncKey struct {
	name string
	site graph.ChunkID
}

// Registry remembers which chunk owns each bundle name. Initial bundles are
// unique per compilation; async bundles are unique per load site.
type Registry struct {
	initialByName map[string]graph.ChunkID
	asyncByName   map[asyncKey]graph.ChunkID
}

func NewRegistry() *Registry {
	return &Registry{
		initialByName: make(map[string]graph.ChunkID),
		asyncByName:   make(map[asyncKey]graph.ChunkID),
	}
}

// Seed registers every chunk that already carries a name. When two upstream
// chunks share an initial name the first one keeps it.
func (r *Registry) Seed(chunks []*graph.Chunk, logger *slog.Logger) {
	for _, ch := range chunks {
		name := ch.Name()
		if name == "" {
			continue
		}
		if ch.IsInitial() {
			if owner, ok := r.initialByName[name]; ok && owner != ch.ID {
				logger.Debug("initial bundle name already taken upstream", "bundle", name, "owner", owner, "chunk", ch.String())
				continue
			}
		}
		r.Register(name, ch, ch.ID)
	}
}

// Lookup returns the chunk registered for bundle. site is the chunk the
// module currently sits in and only matters for async bundles.
func (r *Registry) Lookup(bundle string, kind graph.Kind, site graph.ChunkID) (graph.ChunkID, bool) {
	var (
		id graph.ChunkID
		ok bool
	)
	if kind == graph.Initial {
		id, ok = r.initialByName[bundle]
	} else {
		id, ok = r.asyncByName[asyncKey{bundle, site}]
	}
	return id, ok
}

// Register records ch as the owner of bundle. For async chunks site is the
// load site the bundle was created for.
func (r *Registry) Register(bundle string, ch *graph.Chunk, site graph.ChunkID) {
	if ch.IsInitial() {
		r.initialByName[bundle] = ch.ID
		return
	}
	r.asyncByName[asyncKey{bundle, site}] = ch.ID
}

// Forget drops every entry pointing at id.
func (r *Registry) Forget(id graph.ChunkID) {
	for name, owner := range r.initialByName {
		if owner == id {
			delete(r.initialByName, name)
		}
	}
	for key, owner := range r.asyncByName {
		if owner == id {
			delete(r.asyncByName, key)
		}
	}
}

// Len reports how many bundles are registered.
func (r *Registry) Len() int { return len(r.initialByName) + len(r.asyncByName) }
