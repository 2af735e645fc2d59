package cpg

import (
	"fmt"
	"strconv"
	"strings"
)

// GranularityKind tells how much of a value flows along a dataflow edge.
type GranularityKind uint8

const (
	// GranularityFull means the entire value flows.
	GranularityFull GranularityKind = iota
	// GranularityField means only one named field of a composite flows.
	GranularityField
	// GranularityIndex means only one positional element of a composite flows.
	GranularityIndex
)

// Granularity tags a [Dataflow] edge with the part of the value it carries.
// It is comparable, so two granularities match exactly when they are equal.
// The zero value is [Full].
type Granularity struct {
	Kind  GranularityKind
	Field string // Set for GranularityField
	Index int    // Set for GranularityIndex
}

// Full returns the granularity of an edge carrying the whole value.
func Full() Granularity { return Granularity{Kind: GranularityFull} }

// Field returns the granularity of an edge carrying the named field.
func Field(name string) Granularity { return Granularity{Kind: GranularityField, Field: name} }

// Index returns the granularity of an edge carrying element i of a composite.
func Index(i int) Granularity { return Granularity{Kind: GranularityIndex, Index: i} }

// IsFull reports whether the whole value flows.
func (g Granularity) IsFull() bool { return g.Kind == GranularityFull }

// IsPartial reports whether only a field or an element flows.
func (g Granularity) IsPartial() bool { return g.Kind != GranularityFull }

// String renders the granularity as "full", "field:<name>" or "index:<i>".
func (g Granularity) String() string {
	switch g.Kind {
	case GranularityField:
		return "field:" + g.Field
	case GranularityIndex:
		return "index:" + strconv.Itoa(g.Index)
	default:
		return "full"
	}
}

// ParseGranularity parses the format produced by [Granularity.String].
// The empty string parses as [Full].
func ParseGranularity(s string) (Granularity, error) {
	if s == "" || s == "full" {
		return Full(), nil
	}
	kind, arg, ok := strings.Cut(s, ":")
	if !ok || arg == "" {
		return Granularity{}, fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
	switch kind {
	case "field":
		return Field(arg), nil
	case "index":
		i, err := strconv.Atoi(arg)
		if err != nil {
			return Granularity{}, fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
		}
		return Index(i), nil
	}
	return Granularity{}, fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
}

// ContextDirection says whether a dataflow edge enters or leaves a callee.
type ContextDirection uint8

const (
	// ContextIn marks an edge entering a callee (argument to parameter).
	ContextIn ContextDirection = iota + 1
	// ContextOut marks an edge leaving a callee (return value to call site).
	ContextOut
)

func (d ContextDirection) String() string {
	switch d {
	case ContextIn:
		return "in"
	case ContextOut:
		return "out"
	}
	return "none"
}

// CallingContext tags a dataflow edge that crosses a call boundary with the
// call site responsible for it. An In context and the Out context closing it
// must reference the same call node.
type CallingContext struct {
	Direction ContextDirection
	Call      *Node
}

// In returns the calling context of an edge entering the callee of call.
func In(call *Node) *CallingContext {
	return &CallingContext{Direction: ContextIn, Call: call}
}

// Out returns the calling context of an edge returning to call.
func Out(call *Node) *CallingContext {
	return &CallingContext{Direction: ContextOut, Call: call}
}

func (c *CallingContext) String() string {
	if c == nil {
		return "none"
	}
	id := "<nil>"
	if c.Call != nil {
		id = c.Call.ID()
	}
	return c.Direction.String() + "(" + id + ")"
}
