package graph

import (
	"fmt"
	"slices"
)

// ChunkID is a chunk's debug identity. It is the chunk's arena index and is
// never reused, even after the chunk is removed.
type ChunkID int

// ModuleID indexes the module arena.
type ModuleID int

// BlockID indexes the block arena.
type BlockID int

// Kind tells whether a chunk is loaded at program start or through a
// split-point.
type Kind int

const (
	Initial Kind = iota
	Async
)

func (k Kind) String() string {
	switch k {
	case Initial:
		return "initial"
	case Async:
		return "async"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// idSet is an insertion-ordered set of arena IDs. The graphs it serves are
// small per node, so linear scans beat a map here.
type idSet[T ~int] []T

func (s idSet[T]) has(id T) bool { return slices.Contains(s, id) }

func (s *idSet[T]) add(id T) bool {
	if s.has(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

func (s *idSet[T]) remove(id T) bool {
	i := slices.Index(*s, id)
	if i < 0 {
		return false
	}
	*s = slices.Delete(*s, i, i+1)
	return true
}

func (s idSet[T]) clone() []T { return slices.Clone(s) }

// Module is a unit of source content produced upstream. Its content never
// changes here; only its chunk membership does.
type Module struct {
	ID ModuleID
	// Identifier is opaque and always set, even for synthetic modules.
	Identifier       string
	Resource         string
	FileDependencies []string

	chunks idSet[ChunkID]
}

// File returns the module's classifiable identity: the resolved resource,
// else its first file dependency, else "" for context/synthetic modules.
func (m *Module) File() string {
	if m.Resource != "" {
		return m.Resource
	}
	if len(m.FileDependencies) > 0 {
		return m.FileDependencies[0]
	}
	return ""
}

// Chunks returns the IDs of the chunks the module belongs to.
func (m *Module) Chunks() []ChunkID { return m.chunks.clone() }

// Chunk is a loadable group of modules.
type Chunk struct {
	ID      ChunkID
	Kind    Kind
	Runtime bool

	name     string
	modules  idSet[ModuleID]
	parents  idSet[ChunkID]
	children idSet[ChunkID]
	blocks   idSet[BlockID]
}

func (c *Chunk) Name() string { return c.name }

// SetName names an unnamed chunk. Setting the same name again is a no-op;
// replacing a name is refused.
func (c *Chunk) SetName(name string) error {
	if c.name == name {
		return nil
	}
	if c.name != "" {
		return &GraphError{Kind: ErrRename, Msg: fmt.Sprintf("%s cannot become %q", c, name)}
	}
	c.name = name
	return nil
}

func (c *Chunk) IsInitial() bool { return c.Kind == Initial }

func (c *Chunk) IsEmpty() bool { return len(c.modules) == 0 }

func (c *Chunk) HasModule(id ModuleID) bool { return c.modules.has(id) }

// Modules returns a snapshot of the chunk's modules in insertion order.
func (c *Chunk) Modules() []ModuleID { return c.modules.clone() }

func (c *Chunk) Parents() []ChunkID { return c.parents.clone() }

func (c *Chunk) Children() []ChunkID { return c.children.clone() }

// Blocks returns the split-points that may resolve to this chunk.
func (c *Chunk) Blocks() []BlockID { return c.blocks.clone() }

func (c *Chunk) String() string {
	if c.name == "" {
		return fmt.Sprintf("#%d", c.ID)
	}
	return fmt.Sprintf("#%d %s", c.ID, c.name)
}

// Block is a lazy-load call site inside a module.
type Block struct {
	ID     BlockID
	Module ModuleID

	chunks idSet[ChunkID]
}

// Chunks returns the chunks that satisfy the lazy load.
func (b *Block) Chunks() []ChunkID { return b.chunks.clone() }

// Entrypoint is the load order of one program entry.
type Entrypoint struct {
	Name string

	chunks []ChunkID
}

// Chunks returns a snapshot of the load order.
func (e *Entrypoint) Chunks() []ChunkID { return slices.Clone(e.chunks) }

// Head returns the first chunk of the load order.
func (e *Entrypoint) Head() (ChunkID, bool) {
	if len(e.chunks) == 0 {
		return 0, false
	}
	return e.chunks[0], true
}

func (e *Entrypoint) Index(id ChunkID) int { return slices.Index(e.chunks, id) }

func (e *Entrypoint) Contains(id ChunkID) bool { return e.Index(id) >= 0 }
