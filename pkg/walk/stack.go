package walk

// Stack is an immutable persistent stack. Push and Pop return new stacks and
// leave the receiver untouched, so two paths that branch from a common prefix
// share the frames they had in common and can never disturb each other.
//
// The zero value is an empty stack.
type Stack[T comparable] struct {
	top *frame[T]
}

type frame[T comparable] struct {
	value T
	next  *frame[T]
	depth int
}

// Push returns a stack with v on top of s.
func (s Stack[T]) Push(v T) Stack[T] {
	return Stack[T]{top: &frame[T]{value: v, next: s.top, depth: s.Depth() + 1}}
}

// Top returns the top element.
func (s Stack[T]) Top() (T, bool) {
	if s.top == nil {
		var zero T
		return zero, false
	}
	return s.top.value, true
}

// Pop returns the top element and the stack below it.
func (s Stack[T]) Pop() (T, Stack[T], bool) {
	if s.top == nil {
		var zero T
		return zero, s, false
	}
	return s.top.value, Stack[T]{top: s.top.next}, true
}

// PopIfOnTop pops v if it is the top element. Otherwise it returns s
// unchanged and false.
func (s Stack[T]) PopIfOnTop(v T) (Stack[T], bool) {
	if s.top == nil || s.top.value != v {
		return s, false
	}
	return Stack[T]{top: s.top.next}, true
}

// Depth returns the number of elements.
func (s Stack[T]) Depth() int {
	if s.top == nil {
		return 0
	}
	return s.top.depth
}

// Empty reports whether the stack has no elements.
func (s Stack[T]) Empty() bool { return s.top == nil }

// Contains reports whether v is anywhere on the stack.
func (s Stack[T]) Contains(v T) bool {
	for f := s.top; f != nil; f = f.next {
		if f.value == v {
			return true
		}
	}
	return false
}

// Equal reports whether both stacks hold the same elements in the same order.
func (s Stack[T]) Equal(o Stack[T]) bool {
	if s.Depth() != o.Depth() {
		return false
	}
	for a, b := s.top, o.top; a != nil; a, b = a.next, b.next {
		if a == b {
			return true
		}
		if a.value != b.value {
			return false
		}
	}
	return true
}

// Slice returns the elements from top to bottom.
func (s Stack[T]) Slice() []T {
	out := make([]T, 0, s.Depth())
	for f := s.top; f != nil; f = f.next {
		out = append(out, f.value)
	}
	return out
}
