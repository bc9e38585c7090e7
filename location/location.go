// Package location implements the joinable, comparable addresses used to
// identify, cache and resolve schema nodes.
package location

import (
	"net/url"
	"path/filepath"
	"strings"

	schemaerrors "github.com/speakeasy-api/schemac/errors"
)

// Location is origin + path + query + fragment. It is comparable and is used
// directly as a map key. The zero value is the empty relative reference.
type Location struct {
	origin   string // "scheme://authority", "scheme:" for opaque URIs, "//authority", or ""
	path     string // normalized; keeps a trailing slash
	query    string // includes the leading '?', empty when absent
	fragment string // decoded, without '#'
}

// Parse parses an absolute URL, a URN, a rooted path, a relative reference,
// or a query-only or hash-only string.
func Parse(s string) (Location, error) {
	u, err := url.Parse(s)
	if err != nil {
		return Location{}, schemaerrors.Wrap(schemaerrors.InvalidLocation, s, err)
	}
	var l Location
	switch {
	case u.Scheme != "" && u.Opaque != "":
		l.origin = u.Scheme + ":"
		l.path = u.Opaque
	case u.Scheme != "":
		l.origin = u.Scheme + "://" + authority(u)
		l.path = normalize(u.Path)
	case u.Host != "":
		l.origin = "//" + authority(u)
		l.path = normalize(u.Path)
	default:
		l.path = normalize(u.Path)
	}
	if u.ForceQuery || u.RawQuery != "" {
		l.query = "?" + u.RawQuery
	}
	l.fragment = u.Fragment
	return l, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) Location {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// FromFilePath returns the absolute file: location of a local path.
func FromFilePath(path string) (Location, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Location{}, schemaerrors.Wrap(schemaerrors.InvalidLocation, path, err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return Location{origin: "file://", path: normalize(p)}, nil
}

func authority(u *url.URL) string {
	if u.User != nil {
		return u.User.String() + "@" + u.Host
	}
	return u.Host
}

// Join resolves other against l using URL reference-resolution rules.
// An empty other returns l unchanged.
func (l Location) Join(other Location) Location {
	switch {
	case other.IsAbsolute():
		return other
	case strings.HasPrefix(other.origin, "//"):
		other.origin = l.scheme() + ":" + other.origin
		return other
	case other.path != "" && strings.HasPrefix(other.path, "/"):
		return Location{origin: l.origin, path: other.path, query: other.query, fragment: other.fragment}
	case other.path != "":
		return Location{origin: l.origin, path: l.merge(other.path), query: other.query, fragment: other.fragment}
	case other.query != "":
		return Location{origin: l.origin, path: l.path, query: other.query, fragment: other.fragment}
	case other.fragment != "":
		l.fragment = other.fragment
		return l
	default:
		return l
	}
}

// JoinString parses ref and joins it against l.
func (l Location) JoinString(ref string) (Location, error) {
	r, err := Parse(ref)
	if err != nil {
		return Location{}, err
	}
	return l.Join(r), nil
}

func (l Location) merge(ref string) string {
	if l.isOpaque() {
		return ref
	}
	if l.origin != "" && l.path == "" {
		return normalize("/" + ref)
	}
	dir := ""
	if i := strings.LastIndexByte(l.path, '/'); i >= 0 {
		dir = l.path[:i+1]
	}
	return normalize(dir + ref)
}

func (l Location) scheme() string {
	if i := strings.IndexByte(l.origin, ':'); i > 0 {
		return l.origin[:i]
	}
	return ""
}

func (l Location) isOpaque() bool {
	return strings.HasSuffix(l.origin, ":")
}

// IsAbsolute reports whether l carries a scheme.
func (l Location) IsAbsolute() bool {
	return l.scheme() != ""
}

// IsZero reports whether l is the empty reference.
func (l Location) IsZero() bool {
	return l == Location{}
}

// Origin returns the scheme and authority part.
func (l Location) Origin() string {
	return l.origin
}

// Path returns the normalized path segments. A leading "" denotes a rooted path.
func (l Location) Path() []string {
	p := strings.TrimSuffix(l.path, "/")
	if p == "" {
		if l.path == "/" {
			return []string{""}
		}
		return nil
	}
	return strings.Split(p, "/")
}

// Query returns the query without its leading '?'.
func (l Location) Query() string {
	return strings.TrimPrefix(l.query, "?")
}

// Fragment returns the decoded fragment.
func (l Location) Fragment() string {
	return l.fragment
}

// Hash returns the fragment as a sequence: empty when absent, a single anchor
// name, or "" followed by JSON pointer segments.
func (l Location) Hash() []string {
	if l.fragment == "" {
		return nil
	}
	if p, ok := l.Pointer(); ok {
		return append([]string{""}, p...)
	}
	return []string{l.fragment}
}

// Anchor returns the plain-name fragment, if l has one.
func (l Location) Anchor() (string, bool) {
	if l.fragment == "" || strings.HasPrefix(l.fragment, "/") {
		return "", false
	}
	return l.fragment, true
}

// Pointer returns the JSON pointer fragment. An absent fragment is the root pointer.
func (l Location) Pointer() (Pointer, bool) {
	if _, ok := l.Anchor(); ok {
		return nil, false
	}
	p, err := ParsePointer(l.fragment)
	if err != nil {
		return nil, false
	}
	return p, true
}

// WithPointer returns l with its fragment replaced by p.
func (l Location) WithPointer(p Pointer) Location {
	l.fragment = p.String()
	return l
}

// PushPointer appends segments to l's pointer. An anchor fragment is treated as the root.
func (l Location) PushPointer(segments ...string) Location {
	p, _ := l.Pointer()
	return l.WithPointer(p.Push(segments...))
}

// WithAnchor returns l with its fragment replaced by an anchor name.
func (l Location) WithAnchor(anchor string) Location {
	l.fragment = anchor
	return l
}

// FetchForm returns l without its fragment.
func (l Location) FetchForm() Location {
	l.fragment = ""
	return l
}

// String returns the canonical text of l.
func (l Location) String() string {
	var b strings.Builder
	b.WriteString(l.origin)
	if l.isOpaque() {
		b.WriteString(l.path)
	} else {
		b.WriteString((&url.URL{Path: l.path}).EscapedPath())
	}
	b.WriteString(l.query)
	if l.fragment != "" {
		b.WriteByte('#')
		b.WriteString((&url.URL{Fragment: l.fragment}).EscapedFragment())
	}
	return b.String()
}

// MarshalText encodes l as its canonical text.
func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText parses canonical text produced by MarshalText.
func (l *Location) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// normalize removes empty, "." and resolvable ".." segments. A relative path
// keeps leading ".." segments; a trailing slash is preserved.
func normalize(p string) string {
	if p == "" {
		return ""
	}
	rooted := strings.HasPrefix(p, "/")
	segs := strings.Split(p, "/")
	last := segs[len(segs)-1]
	dir := last == "" || last == "." || last == ".."

	out := make([]string, 0, len(segs))
	for _, s := range segs {
		switch s {
		case "", ".":
		case "..":
			if len(out) > 0 && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
			} else if !rooted {
				out = append(out, "..")
			}
		default:
			out = append(out, s)
		}
	}

	var b strings.Builder
	if rooted {
		b.WriteByte('/')
	}
	b.WriteString(strings.Join(out, "/"))
	if dir && len(out) > 0 {
		b.WriteByte('/')
	}
	if b.Len() == 0 && !rooted {
		return "."
	}
	return b.String()
}
