package cpg

import "strings"

// DefaultDelimiter separates namespace segments when no delimiter is given.
const DefaultDelimiter = "."

// Name is a hierarchical, namespace-aware node name such as "pkg.Type.method".
type Name struct {
	Local     string // Last segment
	Namespace string // Fully qualified parent, empty at top level
	Delimiter string // Segment separator, DefaultDelimiter if empty
}

// ParseName splits a fully qualified name at the last delimiter.
// An empty delimiter means [DefaultDelimiter].
func ParseName(fqn, delimiter string) Name {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	if i := strings.LastIndex(fqn, delimiter); i > 0 {
		return Name{Local: fqn[i+len(delimiter):], Namespace: fqn[:i], Delimiter: delimiter}
	}
	return Name{Local: fqn, Delimiter: delimiter}
}

// String returns the fully qualified name.
func (n Name) String() string {
	if n.Namespace == "" {
		return n.Local
	}
	return n.Namespace + n.delimiter() + n.Local
}

// Parent returns the enclosing namespace as a Name.
// The parent of a top-level name is the zero Name.
func (n Name) Parent() Name {
	if n.Namespace == "" {
		return Name{}
	}
	return ParseName(n.Namespace, n.delimiter())
}

// Segments returns every namespace segment followed by the local name.
func (n Name) Segments() []string {
	if n.Namespace == "" {
		if n.Local == "" {
			return nil
		}
		return []string{n.Local}
	}
	return append(strings.Split(n.Namespace, n.delimiter()), n.Local)
}

// IsZero reports whether the name is empty.
func (n Name) IsZero() bool { return n.Local == "" && n.Namespace == "" }

func (n Name) delimiter() string {
	if n.Delimiter == "" {
		return DefaultDelimiter
	}
	return n.Delimiter
}
