// Package graph holds the mutable chunk graph of one compilation.
//
// Chunks, modules and blocks live in index-addressed arenas. Edges between
// them (parent/child, module membership, block targets, entrypoint order) are
// stored as ID sets rather than pointers, so a chunk can be detached by
// rewriting a handful of sets and its ID is never handed out again.
//
// Every mutation that could break the graph's shape (a cycle, a duplicate
// entrypoint entry, a rename) is refused with a *GraphError before anything
// is written.
package graph
