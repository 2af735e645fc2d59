package cpg

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDAllocator hands out node identifiers. Implementations must be safe for
// concurrent use when shared between graphs built in parallel.
type IDAllocator interface {
	NextID() string
}

// SequentialIDs allocates "<prefix><n>" identifiers from an atomic counter.
// The zero value is ready to use and starts at 1 with an empty prefix.
type SequentialIDs struct {
	Prefix string
	n      atomic.Uint64
}

// NewSequentialIDs returns an allocator producing prefix1, prefix2, ...
func NewSequentialIDs(prefix string) *SequentialIDs {
	return &SequentialIDs{Prefix: prefix}
}

// NextID returns the next identifier.
func (s *SequentialIDs) NextID() string {
	return s.Prefix + strconv.FormatUint(s.n.Add(1), 10)
}

// UUIDs allocates random version 4 UUIDs.
type UUIDs struct{}

// NextID returns a new UUID string.
func (UUIDs) NextID() string { return uuid.NewString() }

var (
	_ IDAllocator = (*SequentialIDs)(nil)
	_ IDAllocator = UUIDs{}
)
