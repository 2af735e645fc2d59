package walk

import (
	"strconv"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
)

// Context is the traversal state owned by one partial path: the number of
// steps taken, the call sites entered but not yet left, and the composite
// elements written but not yet read back.
//
// Context is a value. Copying it is cheap and the copies are independent
// because both stacks are persistent.
type Context struct {
	Steps      int
	CallStack  Stack[*cpg.Node]
	IndexStack Stack[cpg.Granularity]
}

// Bound is an optional upper limit. The zero value is unbounded.
type Bound struct {
	limit int
	set   bool
}

// Unbounded is the zero Bound.
var Unbounded = Bound{}

// Max returns a bound of n. Negative values are treated as zero.
func Max(n int) Bound {
	if n < 0 {
		n = 0
	}
	return Bound{limit: n, set: true}
}

// Allows reports whether v is below the bound.
func (b Bound) Allows(v int) bool { return !b.set || v < b.limit }

// Limit returns the limit and whether one is set.
func (b Bound) Limit() (int, bool) { return b.limit, b.set }

func (b Bound) String() string {
	if !b.set {
		return "unbounded"
	}
	return strconv.Itoa(b.limit)
}
