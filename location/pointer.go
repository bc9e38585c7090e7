package location

import (
	"strings"

	schemaerrors "github.com/speakeasy-api/schemac/errors"
)

// Pointer is a parsed RFC 6901 JSON pointer. The empty pointer is the root.
type Pointer []string

var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// ParsePointer parses a JSON pointer string.
func ParsePointer(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return nil, schemaerrors.New(schemaerrors.InvalidLocation, s, "json pointer must start with '/'")
	}
	parts := strings.Split(s[1:], "/")
	p := make(Pointer, len(parts))
	for i, part := range parts {
		p[i] = pointerUnescaper.Replace(part)
	}
	return p, nil
}

// String returns the escaped pointer text.
func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('/')
		b.WriteString(pointerEscaper.Replace(seg))
	}
	return b.String()
}

// Push returns a new pointer with segments appended. p is not modified.
func (p Pointer) Push(segments ...string) Pointer {
	out := make(Pointer, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// Parent returns p without its last segment. The root is its own parent.
func (p Pointer) Parent() Pointer {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1:len(p)-1]
}

// HasPrefix reports whether prefix is an ancestor of (or equal to) p.
func (p Pointer) HasPrefix(prefix Pointer) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Last returns the final segment, or "" for the root.
func (p Pointer) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}
