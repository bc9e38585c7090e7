package naming

import (
	"cmp"
	"slices"
	"strconv"
)

// fallback names a key that has no fragments at all.
var fallback = Sentence{"schema"}

// Builder collects candidate fragments per key and assigns each key a
// unique name built from its least ambiguous fragments.
type Builder[K cmp.Ordered] struct {
	fragments map[K][]Sentence
}

// NewBuilder returns an empty builder.
func NewBuilder[K cmp.Ordered]() *Builder[K] {
	return &Builder[K]{fragments: map[K][]Sentence{}}
}

// Add registers fragments for key in reading order, outermost first.
// Empty fragments are ignored; a key may be added more than once.
func (b *Builder[K]) Add(key K, fragments ...Sentence) {
	list := b.fragments[key]
	for _, f := range fragments {
		if len(f) > 0 {
			list = append(list, f)
		}
	}
	b.fragments[key] = list
}

type candidate struct {
	fragments []Sentence
	// chosen holds indexes into fragments, ascending.
	chosen []int
}

func (c *candidate) name() Sentence {
	var out Sentence
	for _, i := range c.chosen {
		out = append(out, c.fragments[i]...)
	}
	return out
}

// Build assigns every key a name. A key starts with its lowest-cardinality
// fragment, the count of keys sharing it, preferring the innermost on ties.
// Keys that collide take their next unused fragment until names are unique
// or fragments run out; remaining collisions are settled with numeric
// suffixes, the lowest key keeping the bare name.
func (b *Builder[K]) Build() map[K]Sentence {
	keys := make([]K, 0, len(b.fragments))
	for k := range b.fragments {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	cardinality := map[string]int{}
	for _, k := range keys {
		b.fragments[k] = dedupe(b.fragments[k])
		for _, f := range b.fragments[k] {
			cardinality[f.String()]++
		}
	}

	cands := make(map[K]*candidate, len(keys))
	for _, k := range keys {
		list := b.fragments[k]
		var informative []Sentence
		for _, f := range list {
			if cardinality[f.String()] < len(keys) {
				informative = append(informative, f)
			}
		}
		if len(informative) > 0 {
			list = informative
		}
		if len(list) == 0 {
			list = []Sentence{fallback}
		}
		cands[k] = &candidate{fragments: list}
	}

	next := func(c *candidate) bool {
		best := -1
		for i, f := range c.fragments {
			if slices.Contains(c.chosen, i) {
				continue
			}
			if best < 0 || cardinality[f.String()] <= cardinality[c.fragments[best].String()] {
				best = i
			}
		}
		if best < 0 {
			return false
		}
		c.chosen = append(c.chosen, best)
		slices.Sort(c.chosen)
		return true
	}
	for _, k := range keys {
		next(cands[k])
	}

	for {
		progress := false
		for _, group := range collisions(keys, cands) {
			for _, k := range group {
				if next(cands[k]) {
					progress = true
				}
			}
		}
		if !progress {
			break
		}
	}

	out := make(map[K]Sentence, len(keys))
	used := map[string]bool{}
	for _, k := range keys {
		name := cands[k].name()
		out[k] = name
		used[name.String()] = true
	}
	for _, group := range collisions(keys, cands) {
		base := out[group[0]]
		n := 1
		for _, k := range group[1:] {
			for {
				name := Join(base, Sentence{strconv.Itoa(n)})
				n++
				if !used[name.String()] {
					used[name.String()] = true
					out[k] = name
					break
				}
			}
		}
	}
	return out
}

// collisions returns groups of keys sharing a name, each sorted, ordered by
// the shared name.
func collisions[K cmp.Ordered](keys []K, cands map[K]*candidate) [][]K {
	byName := map[string][]K{}
	var names []string
	for _, k := range keys {
		n := cands[k].name().String()
		if _, ok := byName[n]; !ok {
			names = append(names, n)
		}
		byName[n] = append(byName[n], k)
	}
	slices.Sort(names)
	var out [][]K
	for _, n := range names {
		if len(byName[n]) > 1 {
			out = append(out, byName[n])
		}
	}
	return out
}

func dedupe(list []Sentence) []Sentence {
	seen := map[string]bool{}
	var out []Sentence
	for _, f := range list {
		if !seen[f.String()] {
			seen[f.String()] = true
			out = append(out, f)
		}
	}
	return out
}
