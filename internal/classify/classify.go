// Package classify maps modules to bundle names.
//
// The Adapter wraps the caller's naming functions and applies the fallback
// policy: async chunks default to the initial name plus AsyncSuffix, and a
// module no function can name goes to DefaultChunkName.
package classify

import (
	"log/slog"
	"path/filepath"

	"github.com/olehluchkiv/manualchunks/internal/graph"
)

const (
	// DefaultManifest names the chunk injected ahead of every entrypoint when
	// Options.Manifest is empty.
	DefaultManifest = "manifest"
	// AsyncSuffix marks the lazy-load counterpart of an initial bundle.
	AsyncSuffix = ".split"
)

// NameFunc returns the bundle a file belongs to when it sits in chunk, or ""
// when it cannot tell.
type NameFunc func(file string, chunk *graph.Chunk) string

// Options configures an Adapter.
type Options struct {
	Manifest          string
	DefaultChunkName  string
	GetChunkName      NameFunc
	GetAsyncChunkName NameFunc // optional
	// Context is the directory diagnostics report module paths relative to.
	Context string
}

// Adapter classifies modules against the caller's options.
type Adapter struct {
	opts   Options
	logger *slog.Logger
}

// New validates opts and fills in defaults. It fails before any graph is
// touched when the required options are missing.
func New(opts Options, logger *slog.Logger) (*Adapter, error) {
	if opts.GetChunkName == nil {
		return nil, missing("GetChunkName")
	}
	if opts.DefaultChunkName == "" {
		return nil, missing("DefaultChunkName")
	}
	if opts.Manifest == "" {
		opts.Manifest = DefaultManifest
	}
	a := &Adapter{opts: opts, logger: logger.With("component", "classify")}
	if a.opts.GetAsyncChunkName == nil {
		a.opts.GetAsyncChunkName = a.defaultAsyncName
	}
	return a, nil
}

func (a *Adapter) defaultAsyncName(file string, chunk *graph.Chunk) string {
	name := a.opts.GetChunkName(file, chunk)
	if name == "" {
		name = a.opts.DefaultChunkName
	}
	return name + AsyncSuffix
}

// Manifest returns the manifest chunk name.
func (a *Adapter) Manifest() string { return a.opts.Manifest }

// DefaultChunkName returns the fallback bundle.
func (a *Adapter) DefaultChunkName() string { return a.opts.DefaultChunkName }

// Classify returns the bundle for file in chunk. The initial naming function
// serves initial chunks and the async one serves the rest.
func (a *Adapter) Classify(file string, chunk *graph.Chunk) string {
	var bundle string
	if chunk.IsInitial() {
		bundle = a.opts.GetChunkName(file, chunk)
	} else {
		bundle = a.opts.GetAsyncChunkName(file, chunk)
	}
	if bundle == "" {
		bundle = a.opts.DefaultChunkName
		a.logger.Warn("module not classified, using default bundle",
			"bundle", bundle, "module", a.Rel(file), "chunk", chunk.String())
	}
	return bundle
}

// Rel renders file relative to the configured context directory.
func (a *Adapter) Rel(file string) string {
	if a.opts.Context == "" || !filepath.IsAbs(file) {
		return file
	}
	rel, err := filepath.Rel(a.opts.Context, file)
	if err != nil {
		return file
	}
	return rel
}
