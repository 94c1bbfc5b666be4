package classify

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/olehluchkiv/manualchunks/internal/graph"
)

// DefaultCacheSize bounds Memoize caches when the caller passes size <= 0.
const DefaultCacheSize = 4096

// Memoize caches fn's answers per (file, chunk kind, chunk name). Naming
// functions are expected to be pure over those inputs; rule expressions and
// LLM plans are, and the same file shows up in many chunks of a large build.
func Memoize(fn NameFunc, size int) (NameFunc, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("creating name cache: %w", err)
	}
	return func(file string, chunk *graph.Chunk) string {
		key := file + "\x00" + chunk.Kind.String() + "\x00" + chunk.Name()
		if name, ok := cache.Get(key); ok {
			return name
		}
		name := fn(file, chunk)
		cache.Add(key, name)
		return name
	}, nil
}
