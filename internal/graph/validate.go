package graph

import "fmt"

// Validate checks the structural invariants of the graph:
//   - every edge, membership and block target points at a live node and is
//     recorded on both ends
//   - parent/child edges are acyclic
//   - no entrypoint lists a chunk twice
//   - every chunk of an entrypoint is reachable from its head chunk
func (c *Compilation) Validate() error {
	if err := c.validateLinks(); err != nil {
		return err
	}
	if err := c.validateAcyclic(); err != nil {
		return err
	}
	return c.validateEntrypoints()
}

func (c *Compilation) validateLinks() error {
	for _, ch := range c.Chunks() {
		for _, p := range ch.parents {
			pc := c.Chunk(p)
			if pc == nil {
				return invalidf("%s has removed parent #%d", ch, p)
			}
			if !pc.children.has(ch.ID) {
				return invalidf("%s lists parent %s which does not list it as child", ch, pc)
			}
		}
		for _, k := range ch.children {
			kc := c.Chunk(k)
			if kc == nil {
				return invalidf("%s has removed child #%d", ch, k)
			}
			if !kc.parents.has(ch.ID) {
				return invalidf("%s lists child %s which does not list it as parent", ch, kc)
			}
		}
		for _, m := range ch.modules {
			if !c.modules[m].chunks.has(ch.ID) {
				return invalidf("module %q does not record membership of %s", c.modules[m].Identifier, ch)
			}
		}
		for _, b := range ch.blocks {
			if !c.blocks[b].chunks.has(ch.ID) {
				return invalidf("block %d does not resolve to %s", b, ch)
			}
		}
	}
	for _, m := range c.modules {
		for _, id := range m.chunks {
			ch := c.Chunk(id)
			if ch == nil || !ch.modules.has(m.ID) {
				return invalidf("module %q records membership of %s it does not have", m.Identifier, c.label(id))
			}
		}
	}
	for _, b := range c.blocks {
		for _, id := range b.chunks {
			if c.Chunk(id) == nil {
				return invalidf("block %d resolves to removed chunk #%d", b.ID, id)
			}
		}
	}
	return nil
}

// validateAcyclic runs a DFS in chunk order and returns the first back edge
// it finds as a cycle witness.
func (c *Compilation) validateAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[ChunkID]int, len(c.order))
	parent := make(map[ChunkID]ChunkID, len(c.order))
	var cycle []ChunkID

	var dfs func(u ChunkID) bool
	dfs = func(u ChunkID) bool {
		color[u] = gray
		for _, v := range c.chunks[u].children {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				cycle = append(cycle, v)
				for cur := u; cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for _, id := range c.order {
		if color[id] == white && dfs(id) {
			break
		}
	}
	if len(cycle) == 0 {
		return nil
	}

	names := make([]string, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		names = append(names, c.label(cycle[i]))
	}
	return cycleError(names)
}

func (c *Compilation) validateEntrypoints() error {
	for _, ep := range c.entrypoints {
		seen := make(map[ChunkID]bool, len(ep.chunks))
		for _, id := range ep.chunks {
			if c.Chunk(id) == nil {
				return invalidf("entrypoint %q lists removed chunk #%d", ep.Name, id)
			}
			if seen[id] {
				return &GraphError{Kind: ErrDuplicateEntry, Msg: fmt.Sprintf("%s listed twice in %q", c.label(id), ep.Name)}
			}
			seen[id] = true
		}
		head, ok := ep.Head()
		if !ok {
			continue
		}
		for _, id := range ep.chunks[1:] {
			if !c.Reaches(head, id) {
				return &GraphError{
					Kind: ErrUnreachable,
					Msg:  fmt.Sprintf("%s not reachable from %s in %q", c.label(id), c.label(head), ep.Name),
				}
			}
		}
	}
	return nil
}
