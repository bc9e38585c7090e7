package arena

import (
	"crypto/sha256"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/speakeasy-api/schemac/internal/jsonvalue"
)

// Fingerprint returns a deterministic hex digest of the schema graph rooted
// at k. Naming fields are ignored, so two keys with the same shape share a
// fingerprint even when they came from different places.
func (a *Arena) Fingerprint(k Key) string {
	ctx := newCanonCtx(a)
	w := newCanonWriter()
	ctx.encodeKey(k, w)
	sum := sha256.Sum256(w.Bytes())
	return fmt.Sprintf("%x", sum[:])
}

// FingerprintItem fingerprints an item that is not stored in the arena. Its
// children are read from the arena.
func (a *Arena) FingerprintItem(it Item) string {
	ctx := newCanonCtx(a)
	w := newCanonWriter()
	ctx.encodeItem(it, w)
	sum := sha256.Sum256(w.Bytes())
	return fmt.Sprintf("%x", sum[:])
}

// canonCtx holds state for a single canonicalization traversal.
type canonCtx struct {
	arena *Arena
	// stack maps keys being encoded to their depth; back edges encode as
	// that depth so isomorphic cycles encode identically.
	stack map[Key]int
	depth int
	// memo only holds encodings that do not refer to an enclosing key.
	memo map[Key][]byte
}

func newCanonCtx(a *Arena) *canonCtx {
	return &canonCtx{arena: a, stack: map[Key]int{}, memo: map[Key][]byte{}}
}

// encodeKey writes k and returns the smallest enclosing depth its encoding
// referred to, or math.MaxInt when it is self-contained.
func (ctx *canonCtx) encodeKey(k Key, w *canonWriter) int {
	if cached, ok := ctx.memo[k]; ok {
		w.Write(cached)
		return math.MaxInt
	}
	if d, ok := ctx.stack[k]; ok {
		w.WriteString(fmt.Sprintf("{\"$cycle\":%d}", ctx.depth-d))
		return d
	}
	d := ctx.depth
	ctx.stack[k] = d
	ctx.depth++
	start := w.Len()
	low := ctx.encodeItem(ctx.arena.Get(k), w)
	ctx.depth--
	delete(ctx.stack, k)
	if low >= d {
		ctx.memo[k] = append([]byte(nil), w.BytesFrom(start)...)
		return math.MaxInt
	}
	return low
}

func (ctx *canonCtx) encodeItem(it Item, w *canonWriter) int {
	low := math.MaxInt
	track := func(d int) {
		if d < low {
			low = d
		}
	}

	w.WriteByte('{')
	first := true
	writeField := func(key string, fn func()) {
		if !first {
			w.WriteByte(',')
		}
		first = false
		w.WriteString(strconv.Quote(key) + ":")
		fn()
	}
	child := func(key string, p *Key) {
		if p != nil {
			writeField(key, func() { track(ctx.encodeKey(*p, w)) })
		}
	}
	set := func(key string, keys []Key) {
		if len(keys) == 0 {
			return
		}
		writeField(key, func() {
			branches := make([]string, 0, len(keys))
			for _, k := range keys {
				bw := newCanonWriter()
				track(ctx.encodeKey(k, bw))
				branches = append(branches, string(bw.Bytes()))
			}
			sort.Strings(branches)
			w.WriteByte('[')
			for i, b := range branches {
				if i > 0 {
					w.WriteByte(',')
				}
				w.WriteString(b)
			}
			w.WriteByte(']')
		})
	}
	dict := func(key string, m map[string]Key) {
		if len(m) == 0 {
			return
		}
		writeField(key, func() {
			w.WriteByte('{')
			for i, name := range sortedNames(m) {
				if i > 0 {
					w.WriteByte(',')
				}
				w.WriteString(strconv.Quote(name) + ":")
				track(ctx.encodeKey(m[name], w))
			}
			w.WriteByte('}')
		})
	}
	float := func(key string, p *float64) {
		if p != nil {
			writeField(key, func() { w.WriteString(strconv.FormatFloat(*p, 'g', -1, 64)) })
		}
	}
	count := func(key string, p *uint64) {
		if p != nil {
			writeField(key, func() { w.WriteString(strconv.FormatUint(*p, 10)) })
		}
	}
	str := func(key string, p *string) {
		if p != nil {
			writeField(key, func() { w.WriteString(strconv.Quote(*p)) })
		}
	}
	flag := func(key string, p *bool) {
		if p != nil {
			writeField(key, func() { w.WriteString(strconv.FormatBool(*p)) })
		}
	}
	strings := func(key string, values []string) {
		if len(values) > 0 {
			writeField(key, func() { encodeStrings(values, w) })
		}
	}

	// Type first for consistency
	if !it.Types.IsZero() {
		writeField("types", func() { w.WriteString(strconv.Quote(it.Types.String())) })
	}
	str("title", it.Title)
	str("description", it.Description)
	flag("deprecated", it.Deprecated)
	flag("exact", it.Exact)
	if it.Examples != nil {
		writeField("examples", func() { encodeValues(it.Examples, false, w) })
	}
	if it.Options != nil {
		writeField("options", func() { encodeValues(it.Options, true, w) })
	}

	child("reference", it.Reference)
	set("allOf", it.AllOf)
	set("anyOf", it.AnyOf)
	set("oneOf", it.OneOf)
	child("if", it.If)
	child("then", it.Then)
	child("else", it.Else)
	child("not", it.Not)

	child("propertyNames", it.PropertyNames)
	child("mapProperties", it.MapProperties)
	child("arrayItems", it.ArrayItems)
	child("contains", it.Contains)
	if len(it.TupleItems) > 0 {
		writeField("tupleItems", func() {
			w.WriteByte('[')
			for i, k := range it.TupleItems {
				if i > 0 {
					w.WriteByte(',')
				}
				track(ctx.encodeKey(k, w))
			}
			w.WriteByte(']')
		})
	}
	dict("objectProperties", it.ObjectProperties)
	dict("patternProperties", it.PatternProperties)
	dict("dependentSchemas", it.DependentSchemas)

	float("minimum", it.Minimum)
	float("maximum", it.Maximum)
	float("exclusiveMinimum", it.ExclusiveMinimum)
	float("exclusiveMaximum", it.ExclusiveMaximum)
	float("multipleOf", it.MultipleOf)
	count("minLength", it.MinLength)
	count("maxLength", it.MaxLength)
	count("minItems", it.MinItems)
	count("maxItems", it.MaxItems)
	count("minProperties", it.MinProperties)
	count("maxProperties", it.MaxProperties)
	strings("patterns", it.Patterns)
	strings("formats", it.Formats)
	flag("uniqueItems", it.UniqueItems)
	strings("required", it.Required)

	w.WriteByte('}')
	return low
}

func encodeStrings(values []string, w *canonWriter) {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	w.WriteByte('[')
	for i, v := range sorted {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteString(strconv.Quote(v))
	}
	w.WriteByte(']')
}

// encodeValues writes raw values, sorted when they form a set.
func encodeValues(values []any, asSet bool, w *canonWriter) {
	canonical := make([]string, 0, len(values))
	for _, v := range values {
		canonical = append(canonical, jsonvalue.Key(v))
	}
	if asSet {
		sort.Strings(canonical)
	}
	w.WriteByte('[')
	for i, v := range canonical {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteString(v)
	}
	w.WriteByte(']')
}

// canonWriter is a simple buffer for building canonical representations.
type canonWriter struct {
	buf []byte
}

func newCanonWriter() *canonWriter {
	return &canonWriter{buf: make([]byte, 0, 256)}
}

func (w *canonWriter) Write(p []byte) {
	w.buf = append(w.buf, p...)
}

func (w *canonWriter) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *canonWriter) WriteString(s string) {
	w.buf = append(w.buf, s...)
}

func (w *canonWriter) Bytes() []byte {
	return w.buf
}

func (w *canonWriter) BytesFrom(start int) []byte {
	return w.buf[start:]
}

func (w *canonWriter) Len() int {
	return len(w.buf)
}
