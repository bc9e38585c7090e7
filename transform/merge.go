package transform

import (
	"math"
	"regexp"
	"slices"

	"github.com/speakeasy-api/schemac/arena"
	"github.com/speakeasy-api/schemac/internal/jsonvalue"
)

// Merge structurally intersects leaf items. Bounds tighten, required names
// and patterns accumulate, types meet in the lattice, and children both sides
// constrain differently become memoized allOf items, or are reused as-is when
// their fingerprints match. Naming and metadata are not merged.
func Merge(a *arena.Arena, items ...arena.Item) arena.Item {
	if len(items) == 0 {
		return arena.Item{}
	}
	out := items[0].Bare()
	out.Exact = items[0].Exact
	for _, it := range items[1:] {
		out = mergePair(a, out, it)
	}
	return out
}

func mergePair(a *arena.Arena, x, y arena.Item) arena.Item {
	var out arena.Item
	out.Exact = andExact(x.Exact, y.Exact)
	out.Types = intersectTypes(x.Types, y.Types)

	out.Minimum = tighter(x.Minimum, y.Minimum, math.Max)
	out.Maximum = tighter(x.Maximum, y.Maximum, math.Min)
	out.ExclusiveMinimum = tighter(x.ExclusiveMinimum, y.ExclusiveMinimum, math.Max)
	out.ExclusiveMaximum = tighter(x.ExclusiveMaximum, y.ExclusiveMaximum, math.Min)
	var inexact bool
	out.MultipleOf, inexact = combineMultiples(x.MultipleOf, y.MultipleOf)
	if inexact {
		out.Exact = ptr(false)
	}
	out.MinLength = tighter(x.MinLength, y.MinLength, maxOf)
	out.MaxLength = tighter(x.MaxLength, y.MaxLength, minOf)
	out.MinItems = tighter(x.MinItems, y.MinItems, maxOf)
	out.MaxItems = tighter(x.MaxItems, y.MaxItems, minOf)
	out.MinProperties = tighter(x.MinProperties, y.MinProperties, maxOf)
	out.MaxProperties = tighter(x.MaxProperties, y.MaxProperties, minOf)

	out.Patterns = arena.StringSet(append(slices.Clone(x.Patterns), y.Patterns...)...)
	out.Formats = arena.StringSet(append(slices.Clone(x.Formats), y.Formats...)...)
	out.Required = arena.StringSet(append(slices.Clone(x.Required), y.Required...)...)
	if x.UniqueItems != nil || y.UniqueItems != nil {
		out.UniqueItems = ptr(isTrue(x.UniqueItems) || isTrue(y.UniqueItems))
	}

	switch {
	case x.Options == nil:
		out.Options = slices.Clone(y.Options)
	case y.Options == nil:
		out.Options = slices.Clone(x.Options)
	default:
		for _, v := range x.Options {
			if jsonvalue.Contains(y.Options, v) {
				out.Options = append(out.Options, v)
			}
		}
		if out.Options == nil {
			out.Types = arena.TypeSetOf(arena.Never)
		}
	}

	conj := func(p, q *arena.Key) *arena.Key { return conjoin(a, p, q) }
	out.PropertyNames = conj(x.PropertyNames, y.PropertyNames)
	out.MapProperties = conj(x.MapProperties, y.MapProperties)
	out.ArrayItems = conj(x.ArrayItems, y.ArrayItems)
	switch {
	case x.Contains == nil:
		out.Contains = y.Contains
	case y.Contains == nil || *x.Contains == *y.Contains:
		out.Contains = x.Contains
	default:
		// Two contains cannot be expressed as one; keep the first.
		out.Contains = x.Contains
		out.Exact = ptr(false)
	}
	switch {
	case x.Not == nil:
		out.Not = y.Not
	case y.Not == nil || same(a, *x.Not, *y.Not):
		out.Not = x.Not
	default:
		either := memo(a, anyOf.only(*x.Not, *y.Not))
		out.Not = arena.Ref(either)
	}

	out.TupleItems = mergeTuples(a, x, y)
	out.ObjectProperties = mergeProperties(a, x, y)
	out.PatternProperties = mergeMaps(a, x.PatternProperties, y.PatternProperties)
	out.DependentSchemas = mergeMaps(a, x.DependentSchemas, y.DependentSchemas)
	return out
}

func intersectTypes(x, y arena.TypeSet) arena.TypeSet {
	switch {
	case x.IsZero():
		return y
	case y.IsZero():
		return x
	}
	var out arena.TypeSet
	for _, p := range x.Slice() {
		for _, q := range y.Slice() {
			out = out.Add(arena.Intersect(p, q))
		}
	}
	if out == arena.TypeSetOf(arena.Any) {
		return 0
	}
	return out
}

// conjoin returns a key accepting what both p and q accept.
func conjoin(a *arena.Arena, p, q *arena.Key) *arena.Key {
	switch {
	case p == nil:
		return q
	case q == nil || same(a, *p, *q):
		return p
	default:
		return arena.Ref(memo(a, allOf.only(*p, *q)))
	}
}

func same(a *arena.Arena, p, q arena.Key) bool {
	return p == q || a.Fingerprint(p) == a.Fingerprint(q)
}

func mergeTuples(a *arena.Arena, x, y arena.Item) []arena.Key {
	n := max(len(x.TupleItems), len(y.TupleItems))
	if n == 0 {
		return nil
	}
	// Positions past the end of a tuple are constrained by that side's items.
	at := func(it arena.Item, i int) *arena.Key {
		if i < len(it.TupleItems) {
			return arena.Ref(it.TupleItems[i])
		}
		return it.ArrayItems
	}
	out := make([]arena.Key, 0, n)
	for i := 0; i < n; i++ {
		k := conjoin(a, at(x, i), at(y, i))
		if k == nil {
			k = arena.Ref(memo(a, arena.Item{}))
		}
		out = append(out, *k)
	}
	return out
}

// mergeProperties merges named properties. A name declared on one side only
// is still constrained by the other side's matching patterns, or by its
// additional properties schema when no pattern matches.
func mergeProperties(a *arena.Arena, x, y arena.Item) map[string]arena.Key {
	if x.ObjectProperties == nil && y.ObjectProperties == nil {
		return nil
	}
	out := map[string]arena.Key{}
	for name, k := range x.ObjectProperties {
		out[name] = k
	}
	for name, k := range y.ObjectProperties {
		if prev, ok := out[name]; ok {
			out[name] = *conjoin(a, &prev, &k)
		} else {
			out[name] = *conjoin(a, &k, implied(a, x, name))
		}
	}
	for name, k := range x.ObjectProperties {
		if _, ok := y.ObjectProperties[name]; !ok {
			out[name] = *conjoin(a, &k, implied(a, y, name))
		}
	}
	return out
}

// implied returns what it requires of a property it does not declare.
func implied(a *arena.Arena, it arena.Item, name string) *arena.Key {
	var matched *arena.Key
	for _, pattern := range sortedKeys(it.PatternProperties) {
		re, err := regexp.Compile(pattern)
		if err != nil || !re.MatchString(name) {
			continue
		}
		k := it.PatternProperties[pattern]
		matched = conjoin(a, matched, &k)
	}
	if matched != nil {
		return matched
	}
	return it.MapProperties
}

func mergeMaps(a *arena.Arena, x, y map[string]arena.Key) map[string]arena.Key {
	if x == nil && y == nil {
		return nil
	}
	out := map[string]arena.Key{}
	for name, k := range x {
		out[name] = k
	}
	for name, k := range y {
		if prev, ok := out[name]; ok {
			out[name] = *conjoin(a, &prev, &k)
		} else {
			out[name] = k
		}
	}
	return out
}

type ordered interface{ ~float64 | ~uint64 }

func tighter[T ordered](x, y *T, pick func(T, T) T) *T {
	switch {
	case x == nil:
		return clone(y)
	case y == nil:
		return clone(x)
	default:
		return ptr(pick(*x, *y))
	}
}

// combineMultiples returns a multipleOf implied by both. The second result
// reports that no single value expresses both exactly.
func combineMultiples(x, y *float64) (*float64, bool) {
	switch {
	case x == nil:
		return clone(y), false
	case y == nil:
		return clone(x), false
	}
	p, q := *x, *y
	if p < q {
		p, q = q, p
	}
	if r := math.Mod(p, q); r == 0 {
		return ptr(p), false
	}
	if p == math.Trunc(p) && q == math.Trunc(q) {
		return ptr(p / gcd(p, q) * q), false
	}
	return ptr(p), true
}

func gcd(p, q float64) float64 {
	for q != 0 {
		p, q = q, math.Mod(p, q)
	}
	return p
}

func andExact(x, y *bool) *bool {
	if x == nil && y == nil {
		return nil
	}
	return ptr(!(x != nil && !*x) && !(y != nil && !*y))
}

func isTrue(b *bool) bool { return b != nil && *b }

func maxOf(x, y uint64) uint64 { return max(x, y) }
func minOf(x, y uint64) uint64 { return min(x, y) }

func ptr[T any](v T) *T { return &v }

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sortedKeys(m map[string]arena.Key) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
