package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidGraph   = errors.New("invalid chunk graph")
	ErrCycle          = errors.New("cycle detected")
	ErrDuplicateEntry = errors.New("duplicate entrypoint entry")
	ErrUnreachable    = errors.New("entrypoint chunk unreachable")
	ErrRename         = errors.New("chunk already named")
	ErrUnknownChunk   = errors.New("unknown chunk")
)

// GraphError reports a refused mutation or a failed validation.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)}
}

func unknownChunk(id ChunkID) error {
	return &GraphError{Kind: ErrUnknownChunk, Msg: fmt.Sprintf("#%d", id)}
}

func cycleError(path []string) error {
	msg := "cycle"
	if len(path) > 0 {
		msg = "cycle: " + strings.Join(path, " -> ")
	}
	return &GraphError{Kind: ErrCycle, Msg: msg}
}
