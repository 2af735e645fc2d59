package cache

// ScopedKeyer wraps a Keyer with a prefix so that several users or
// projects can share one Redis instance without seeing each other's
// reports.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "project:payments:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// QueryKey generates a prefixed query key.
func (k *ScopedKeyer) QueryKey(graphHash string, opts QueryKeyOpts) string {
	return k.prefix + k.inner.QueryKey(graphHash, opts)
}
