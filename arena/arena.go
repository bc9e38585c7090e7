// Package arena is the append-only, key-addressed store of schema items that
// the transform rules rewrite to a fixed point.
package arena

// Rule rewrites the item at one key. A rule may read any key, add new items
// and replace the item at the key it was given. Rules never fail; when their
// precondition does not hold they do nothing.
type Rule func(a *Arena, k Key)

// Arena holds items addressed by stable keys. Items can be replaced in place
// and appended, never removed.
type Arena struct {
	items   []Item
	memo    map[string]Key
	touched map[Key]struct{}
}

// New returns an arena holding items at keys 0..len(items)-1.
func New(items ...Item) *Arena {
	a := &Arena{memo: map[string]Key{}, touched: map[Key]struct{}{}}
	for _, it := range items {
		a.Add(it)
	}
	return a
}

// Add appends an item and returns its key.
func (a *Arena) Add(it Item) Key {
	a.items = append(a.items, it.Clone())
	return Key(len(a.items) - 1)
}

// AddMemo returns the key previously built for signature, or reserves a new
// key and fills it with build. The key is reserved before build runs, so a
// build that recursively asks for the same signature gets the reserved key
// back instead of looping.
func (a *Arena) AddMemo(signature string, build func() Item) Key {
	if k, ok := a.memo[signature]; ok {
		return k
	}
	k := a.Add(Item{})
	a.memo[signature] = k
	a.items[k] = build().Clone()
	return k
}

// Has reports whether k addresses an item.
func (a *Arena) Has(k Key) bool {
	return k >= 0 && int(k) < len(a.items)
}

// Get returns a copy of the item at k. Unknown keys read as the empty item.
func (a *Arena) Get(k Key) Item {
	if !a.Has(k) {
		return Item{}
	}
	return a.items[k].Clone()
}

// Replace overwrites the item at k and reports whether it changed.
func (a *Arena) Replace(k Key, it Item) bool {
	if !a.Has(k) || a.items[k].Equal(it) {
		return false
	}
	a.items[k] = it.Clone()
	a.touched[k] = struct{}{}
	return true
}

// Len returns the number of items.
func (a *Arena) Len() int { return len(a.items) }

// Items returns a copy of every item in key order.
func (a *Arena) Items() []Item {
	out := make([]Item, len(a.items))
	for i, it := range a.items {
		out[i] = it.Clone()
	}
	return out
}

// ApplyTransform runs rule once over every key, including keys the rule adds
// during the pass, and returns how many keys changed.
func (a *Arena) ApplyTransform(rule Rule) int {
	a.touched = map[Key]struct{}{}
	for k := 0; k < len(a.items); k++ {
		rule(a, Key(k))
	}
	return len(a.touched)
}
