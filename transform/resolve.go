package transform

import (
	"github.com/speakeasy-api/schemac/arena"
)

// leaves returns the members as items when every one is a mergeable leaf
// without a reference of its own.
func leaves(a *arena.Arena, k arena.Key, members []arena.Key) ([]arena.Item, bool) {
	items := make([]arena.Item, 0, len(members))
	for _, m := range members {
		if m == k {
			return nil, false
		}
		it := a.Get(m)
		if !it.IsLeaf() || it.Reference != nil {
			return nil, false
		}
		items = append(items, it)
	}
	return items, true
}

// ResolveAllOf replaces an allOf of leaves with their structural
// intersection. The item keeps its own naming and metadata.
func ResolveAllOf(a *arena.Arena, k arena.Key) {
	it := a.Get(k)
	if len(it.AllOf) < 2 || !allOf.pure(it) {
		return
	}
	items, ok := leaves(a, k, it.AllOf)
	if !ok {
		return
	}
	merged := Merge(a, items...)
	out := it.Annotations()
	exact := out.Exact
	merged.Name, merged.Parent, merged.Primary = out.Name, out.Parent, out.Primary
	merged.Location, merged.Identity = out.Location, out.Identity
	merged.Title, merged.Description = out.Title, out.Description
	merged.Examples, merged.Deprecated = out.Examples, out.Deprecated
	merged.Exact = andExact(exact, merged.Exact)
	a.Replace(k, merged)
}

// ResolveAnyOf compiles an anyOf of leaves down to a oneOf over one item per
// type. Members that are a oneOf of leaves are spliced in first. Members
// sharing a type are intersected into a single inexact item; a member alone
// in its group is used as-is.
func ResolveAnyOf(a *arena.Arena, k arena.Key) {
	it := a.Get(k)
	if len(it.AnyOf) < 2 || !anyOf.pure(it) {
		return
	}
	keys, spliced := anyOfMembers(a, k, it.AnyOf)
	items, ok := leaves(a, k, keys)
	if !ok {
		return
	}

	hasNumber := false
	for _, m := range items {
		t, _ := m.Types.Single()
		hasNumber = hasNumber || t == arena.Number
	}
	groups := map[arena.Type][]int{}
	for i, m := range items {
		t, _ := m.Types.Single()
		if t == arena.Integer && hasNumber {
			t = arena.Number
		}
		groups[t] = append(groups[t], i)
	}

	var branches []arena.Key
	for t := arena.Never; t <= arena.Object; t++ {
		members, ok := groups[t]
		if !ok {
			continue
		}
		if len(members) == 1 {
			branches = append(branches, keys[members[0]])
			continue
		}
		group := make([]arena.Item, len(members))
		for i, idx := range members {
			group[i] = items[idx]
		}
		merged := Merge(a, group...)
		merged.Exact = ptr(false)
		branches = append(branches, memo(a, merged))
	}

	out := it.Annotations()
	out.OneOf = arena.Set(branches...)
	if spliced {
		out.Exact = ptr(false)
	}
	a.Replace(k, out)
}

// anyOfMembers returns members with every oneOf of leaves replaced by its
// own members, and whether any was replaced.
func anyOfMembers(a *arena.Arena, k arena.Key, members []arena.Key) ([]arena.Key, bool) {
	out := make([]arena.Key, 0, len(members))
	spliced := false
	for _, m := range members {
		child := a.Get(m)
		if m != k && oneOf.pure(child) {
			if _, ok := leaves(a, m, child.OneOf); ok {
				out = append(out, child.OneOf...)
				spliced = true
				continue
			}
		}
		out = append(out, m)
	}
	return arena.Set(out...), spliced
}
