package graph

import (
	"encoding/json"
	"fmt"
	"io"
)

// File is the on-disk form of a chunk graph. Chunk IDs inside a file are
// local references; Decode assigns fresh arena IDs in file order.
type File struct {
	Modules     []FileModule     `json:"modules"`
	Chunks      []FileChunk      `json:"chunks"`
	Blocks      []FileBlock      `json:"blocks,omitempty"`
	Entrypoints []FileEntrypoint `json:"entrypoints"`
}

type FileModule struct {
	ID               string   `json:"id"`
	Resource         string   `json:"resource,omitempty"`
	FileDependencies []string `json:"fileDependencies,omitempty"`
}

type FileChunk struct {
	ID       int      `json:"id"`
	Name     string   `json:"name,omitempty"`
	Initial  bool     `json:"initial"`
	Runtime  bool     `json:"runtime,omitempty"`
	Modules  []string `json:"modules"`
	Parents  []int    `json:"parents,omitempty"`
	Children []int    `json:"children,omitempty"`
}

type FileBlock struct {
	Module string `json:"module"`
	Chunks []int  `json:"chunks"`
}

type FileEntrypoint struct {
	Name   string `json:"name"`
	Chunks []int  `json:"chunks"`
}

// Decode reads a graph file and builds a validated compilation.
func Decode(r io.Reader) (*Compilation, error) {
	var f File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding graph: %w", err)
	}
	return FromFile(&f)
}

// FromFile builds a compilation from its file form.
func FromFile(f *File) (*Compilation, error) {
	c := New()

	modByName := make(map[string]ModuleID, len(f.Modules))
	for _, fm := range f.Modules {
		if fm.ID == "" {
			return nil, invalidf("module without id")
		}
		if _, dup := modByName[fm.ID]; dup {
			return nil, invalidf("duplicate module %q", fm.ID)
		}
		modByName[fm.ID] = c.AddModule(fm.ID, fm.Resource, fm.FileDependencies...).ID
	}

	chunkByRef := make(map[int]ChunkID, len(f.Chunks))
	for _, fc := range f.Chunks {
		if _, dup := chunkByRef[fc.ID]; dup {
			return nil, invalidf("duplicate chunk id %d", fc.ID)
		}
		kind := Async
		if fc.Initial {
			kind = Initial
		}
		ch := c.AddChunk(fc.Name, kind)
		ch.Runtime = fc.Runtime
		chunkByRef[fc.ID] = ch.ID
	}
	ref := func(n int) (ChunkID, error) {
		id, ok := chunkByRef[n]
		if !ok {
			return 0, invalidf("reference to undeclared chunk %d", n)
		}
		return id, nil
	}

	for _, fc := range f.Chunks {
		id := chunkByRef[fc.ID]
		for _, name := range fc.Modules {
			m, ok := modByName[name]
			if !ok {
				return nil, invalidf("chunk %d references undeclared module %q", fc.ID, name)
			}
			if _, err := c.AddModuleToChunk(m, id); err != nil {
				return nil, err
			}
		}
		for _, n := range fc.Children {
			k, err := ref(n)
			if err != nil {
				return nil, err
			}
			if err := c.Connect(id, k); err != nil {
				return nil, err
			}
		}
		for _, n := range fc.Parents {
			p, err := ref(n)
			if err != nil {
				return nil, err
			}
			if err := c.Connect(p, id); err != nil {
				return nil, err
			}
		}
	}

	for _, fb := range f.Blocks {
		m, ok := modByName[fb.Module]
		if !ok {
			return nil, invalidf("block owned by undeclared module %q", fb.Module)
		}
		targets := make([]ChunkID, 0, len(fb.Chunks))
		for _, n := range fb.Chunks {
			id, err := ref(n)
			if err != nil {
				return nil, err
			}
			targets = append(targets, id)
		}
		if _, err := c.AddBlock(m, targets...); err != nil {
			return nil, err
		}
	}

	for _, fe := range f.Entrypoints {
		ids := make([]ChunkID, 0, len(fe.Chunks))
		for _, n := range fe.Chunks {
			id, err := ref(n)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		if _, err := c.AddEntrypoint(fe.Name, ids...); err != nil {
			return nil, err
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ToFile converts the compilation to its file form using arena IDs as chunk
// references.
func (c *Compilation) ToFile() *File {
	f := &File{
		Modules:     make([]FileModule, 0, len(c.modules)),
		Chunks:      make([]FileChunk, 0, len(c.order)),
		Entrypoints: make([]FileEntrypoint, 0, len(c.entrypoints)),
	}
	for _, m := range c.modules {
		f.Modules = append(f.Modules, FileModule{
			ID:               m.Identifier,
			Resource:         m.Resource,
			FileDependencies: m.FileDependencies,
		})
	}
	for _, ch := range c.Chunks() {
		fc := FileChunk{
			ID:       int(ch.ID),
			Name:     ch.name,
			Initial:  ch.IsInitial(),
			Runtime:  ch.Runtime,
			Modules:  make([]string, 0, len(ch.modules)),
			Children: toInts(ch.children),
		}
		for _, m := range ch.modules {
			fc.Modules = append(fc.Modules, c.modules[m].Identifier)
		}
		f.Chunks = append(f.Chunks, fc)
	}
	for _, b := range c.blocks {
		if len(b.chunks) == 0 {
			continue
		}
		f.Blocks = append(f.Blocks, FileBlock{
			Module: c.modules[b.Module].Identifier,
			Chunks: toInts(b.chunks),
		})
	}
	for _, ep := range c.entrypoints {
		f.Entrypoints = append(f.Entrypoints, FileEntrypoint{Name: ep.Name, Chunks: toInts(ep.chunks)})
	}
	return f
}

// Encode writes the compilation as indented JSON.
func (c *Compilation) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c.ToFile()); err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}
	return nil
}

func toInts[T ~int](ids []T) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
