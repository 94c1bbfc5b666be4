package graph

import (
	"fmt"
	"slices"
)

// Compilation is the chunk graph of one build. It is not safe for concurrent
// mutation.
type Compilation struct {
	chunks      []*Chunk // arena, nil once removed
	order       []ChunkID
	modules     []*Module
	blocks      []*Block
	entrypoints []*Entrypoint
}

// New returns an empty compilation.
func New() *Compilation {
	return &Compilation{}
}

// AddModule registers a module. identifier must be non-empty; resource and
// file dependencies may be empty for synthetic modules.
func (c *Compilation) AddModule(identifier, resource string, fileDeps ...string) *Module {
	m := &Module{
		ID:               ModuleID(len(c.modules)),
		Identifier:       identifier,
		Resource:         resource,
		FileDependencies: slices.Clone(fileDeps),
	}
	c.modules = append(c.modules, m)
	return m
}

// AddChunk creates a chunk with a fresh debug identity and appends it to the
// chunk list.
func (c *Compilation) AddChunk(name string, kind Kind) *Chunk {
	ch := &Chunk{ID: ChunkID(len(c.chunks)), Kind: kind, name: name}
	c.chunks = append(c.chunks, ch)
	c.order = append(c.order, ch.ID)
	return ch
}

// AddBlock registers a split-point owned by module that resolves to chunks.
func (c *Compilation) AddBlock(module ModuleID, chunks ...ChunkID) (*Block, error) {
	if c.Module(module) == nil {
		return nil, invalidf("block owner module %d does not exist", module)
	}
	b := &Block{ID: BlockID(len(c.blocks)), Module: module}
	c.blocks = append(c.blocks, b)
	for _, id := range chunks {
		if err := c.AddBlockTarget(b.ID, id); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// AddEntrypoint registers a named load order.
func (c *Compilation) AddEntrypoint(name string, chunks ...ChunkID) (*Entrypoint, error) {
	if c.Entrypoint(name) != nil {
		return nil, invalidf("duplicate entrypoint %q", name)
	}
	ep := &Entrypoint{Name: name}
	for _, id := range chunks {
		if c.Chunk(id) == nil {
			return nil, unknownChunk(id)
		}
		if ep.Contains(id) {
			return nil, &GraphError{Kind: ErrDuplicateEntry, Msg: fmt.Sprintf("%s listed twice in %q", c.label(id), name)}
		}
		ep.chunks = append(ep.chunks, id)
	}
	c.entrypoints = append(c.entrypoints, ep)
	return ep, nil
}

// Chunk returns the live chunk with the given ID, or nil.
func (c *Compilation) Chunk(id ChunkID) *Chunk {
	if id < 0 || int(id) >= len(c.chunks) {
		return nil
	}
	return c.chunks[id]
}

func (c *Compilation) Module(id ModuleID) *Module {
	if id < 0 || int(id) >= len(c.modules) {
		return nil
	}
	return c.modules[id]
}

func (c *Compilation) Block(id BlockID) *Block {
	if id < 0 || int(id) >= len(c.blocks) {
		return nil
	}
	return c.blocks[id]
}

// Chunks returns a snapshot of the live chunk list in creation order.
func (c *Compilation) Chunks() []*Chunk {
	out := make([]*Chunk, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.chunks[id])
	}
	return out
}

func (c *Compilation) Modules() []*Module { return slices.Clone(c.modules) }

func (c *Compilation) Blocks() []*Block { return slices.Clone(c.blocks) }

func (c *Compilation) Entrypoints() []*Entrypoint { return slices.Clone(c.entrypoints) }

func (c *Compilation) Entrypoint(name string) *Entrypoint {
	for _, ep := range c.entrypoints {
		if ep.Name == name {
			return ep
		}
	}
	return nil
}

// EntrypointsOf returns the entrypoints whose load order contains id.
func (c *Compilation) EntrypointsOf(id ChunkID) []*Entrypoint {
	var out []*Entrypoint
	for _, ep := range c.entrypoints {
		if ep.Contains(id) {
			out = append(out, ep)
		}
	}
	return out
}

// AddModuleToChunk records membership on both sides. It reports whether the
// module was newly added.
func (c *Compilation) AddModuleToChunk(m ModuleID, id ChunkID) (bool, error) {
	mod, ch := c.Module(m), c.Chunk(id)
	if mod == nil {
		return false, invalidf("module %d does not exist", m)
	}
	if ch == nil {
		return false, unknownChunk(id)
	}
	added := ch.modules.add(m)
	mod.chunks.add(id)
	return added, nil
}

// MoveModule moves membership of m from one chunk to another. If the target
// already holds the module, only the source membership is dropped.
func (c *Compilation) MoveModule(m ModuleID, from, to ChunkID) error {
	src := c.Chunk(from)
	if src == nil {
		return unknownChunk(from)
	}
	if !src.modules.has(m) {
		return invalidf("module %d is not in chunk %s", m, src)
	}
	if _, err := c.AddModuleToChunk(m, to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	src.modules.remove(m)
	c.modules[m].chunks.remove(from)
	return nil
}

// Connect adds a parent -> child edge. Self edges and edges that would close
// a cycle are refused.
func (c *Compilation) Connect(parent, child ChunkID) error {
	p, ch := c.Chunk(parent), c.Chunk(child)
	if p == nil {
		return unknownChunk(parent)
	}
	if ch == nil {
		return unknownChunk(child)
	}
	if parent == child {
		return cycleError([]string{p.String(), p.String()})
	}
	if p.children.has(child) {
		return nil
	}
	if path := c.descendantPath(child, parent); path != nil {
		names := make([]string, 0, len(path)+1)
		for _, id := range path {
			names = append(names, c.label(id))
		}
		names = append(names, c.label(child))
		return cycleError(names)
	}
	p.children.add(child)
	ch.parents.add(parent)
	return nil
}

// Disconnect removes a parent -> child edge if present.
func (c *Compilation) Disconnect(parent, child ChunkID) {
	if p := c.Chunk(parent); p != nil {
		p.children.remove(child)
	}
	if ch := c.Chunk(child); ch != nil {
		ch.parents.remove(parent)
	}
}

// AddBlockTarget makes block b also resolve to chunk id.
func (c *Compilation) AddBlockTarget(b BlockID, id ChunkID) error {
	blk, ch := c.Block(b), c.Chunk(id)
	if blk == nil {
		return invalidf("block %d does not exist", b)
	}
	if ch == nil {
		return unknownChunk(id)
	}
	blk.chunks.add(id)
	ch.blocks.add(b)
	return nil
}

// InsertBefore places id immediately ahead of before in ep. id must not
// already be listed.
func (c *Compilation) InsertBefore(ep *Entrypoint, id, before ChunkID) error {
	if c.Chunk(id) == nil {
		return unknownChunk(id)
	}
	if ep.Contains(id) {
		return &GraphError{Kind: ErrDuplicateEntry, Msg: fmt.Sprintf("%s already in %q", c.label(id), ep.Name)}
	}
	i := ep.Index(before)
	if i < 0 {
		return invalidf("%s is not in entrypoint %q", c.label(before), ep.Name)
	}
	ep.chunks = slices.Insert(ep.chunks, i, id)
	return nil
}

// Unshift places id at the head of ep.
func (c *Compilation) Unshift(ep *Entrypoint, id ChunkID) error {
	if c.Chunk(id) == nil {
		return unknownChunk(id)
	}
	if ep.Contains(id) {
		return &GraphError{Kind: ErrDuplicateEntry, Msg: fmt.Sprintf("%s already in %q", c.label(id), ep.Name)}
	}
	ep.chunks = slices.Insert(ep.chunks, 0, id)
	return nil
}

// RemoveFromEntrypoint drops id from ep and reports whether it was present.
func (c *Compilation) RemoveFromEntrypoint(ep *Entrypoint, id ChunkID) bool {
	i := ep.Index(id)
	if i < 0 {
		return false
	}
	ep.chunks = slices.Delete(ep.chunks, i, i+1)
	return true
}

// RemoveChunk deletes a chunk from the graph. Its parents adopt its children
// so everything that was reachable through it stays reachable. Module
// memberships, block targets and entrypoint entries pointing at it are
// dropped.
func (c *Compilation) RemoveChunk(id ChunkID) error {
	ch := c.Chunk(id)
	if ch == nil {
		return unknownChunk(id)
	}
	for _, m := range ch.modules {
		c.modules[m].chunks.remove(id)
	}
	for _, b := range ch.blocks {
		c.blocks[b].chunks.remove(id)
	}
	parents, children := ch.parents.clone(), ch.children.clone()
	for _, p := range parents {
		c.Disconnect(p, id)
	}
	for _, k := range children {
		c.Disconnect(id, k)
	}
	for _, p := range parents {
		for _, k := range children {
			// Cannot cycle: p reached k through id already.
			if err := c.Connect(p, k); err != nil {
				return fmt.Errorf("removing %s: %w", ch, err)
			}
		}
	}
	for _, ep := range c.entrypoints {
		c.RemoveFromEntrypoint(ep, id)
	}
	c.order = slices.DeleteFunc(c.order, func(x ChunkID) bool { return x == id })
	c.chunks[id] = nil
	return nil
}

// descendantPath returns the chain from..to following child edges, or nil if
// to is not reachable from from.
func (c *Compilation) descendantPath(from, to ChunkID) []ChunkID {
	prev := map[ChunkID]ChunkID{from: from}
	queue := []ChunkID{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			var path []ChunkID
			for n := to; ; n = prev[n] {
				path = append(path, n)
				if n == from {
					break
				}
			}
			slices.Reverse(path)
			return path
		}
		ch := c.Chunk(cur)
		if ch == nil {
			continue
		}
		for _, k := range ch.children {
			if _, seen := prev[k]; !seen {
				prev[k] = cur
				queue = append(queue, k)
			}
		}
	}
	return nil
}

// Reaches reports whether to can be reached from from by following
// parent -> child edges. A chunk reaches itself.
func (c *Compilation) Reaches(from, to ChunkID) bool {
	return c.descendantPath(from, to) != nil
}

func (c *Compilation) label(id ChunkID) string {
	if ch := c.Chunk(id); ch != nil {
		return ch.String()
	}
	return fmt.Sprintf("#%d", id)
}
