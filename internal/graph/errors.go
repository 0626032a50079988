package graph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidGraph = errors.New("invalid dependency graph")
	ErrCycle        = errors.New("dependency cycle")
)

// Error wraps graph validation failures. Path is set for cycles and lists
// task ids in depends-on order, closing on the first id.
type Error struct {
	Kind error
	Msg  string
	Path []int
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &Error{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(path []int) error {
	return &Error{Kind: ErrCycle, Msg: FormatPath(path), Path: path}
}

// FormatPath renders a cycle witness as "#1 -> #3 -> #1".
func FormatPath(path []int) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = "#" + strconv.Itoa(id)
	}
	return strings.Join(parts, " -> ")
}
