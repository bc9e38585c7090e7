package transform

import (
	"slices"

	"github.com/speakeasy-api/schemac/arena"
	"github.com/speakeasy-api/schemac/internal/jsonvalue"
)

type compound int

const (
	allOf compound = iota
	anyOf
	oneOf
)

func (c compound) get(it arena.Item) []arena.Key {
	switch c {
	case allOf:
		return it.AllOf
	case anyOf:
		return it.AnyOf
	default:
		return it.OneOf
	}
}

func (c compound) set(it *arena.Item, members []arena.Key) {
	switch c {
	case allOf:
		it.AllOf = arena.Set(members...)
	case anyOf:
		it.AnyOf = arena.Set(members...)
	default:
		it.OneOf = arena.Set(members...)
	}
}

// only builds an item holding nothing but the compound.
func (c compound) only(members ...arena.Key) arena.Item {
	var it arena.Item
	c.set(&it, members)
	return it
}

// pure reports whether it, ignoring naming and metadata, is nothing but a
// non-empty c compound.
func (c compound) pure(it arena.Item) bool {
	members := c.get(it)
	return len(members) > 0 && it.Bare().Equal(c.only(members...))
}

// SingleType splits an item declaring several types into a oneOf of one item
// per type, each keeping only the assertions relevant to its type.
func SingleType(a *arena.Arena, k arena.Key) {
	it := a.Get(k)
	if it.Types.Len() < 2 || it.Reference != nil || len(it.AllOf)+len(it.AnyOf)+len(it.OneOf) > 0 || it.If != nil {
		return
	}
	base := it.Bare()
	var children []arena.Key
	for _, t := range it.Types.Slice() {
		children = append(children, memo(a, typed(base, t)))
	}
	out := it.Annotations()
	out.OneOf = arena.Set(children...)
	a.Replace(k, out)
}

// typed narrows it to a single type, dropping assertions that cannot apply.
func typed(it arena.Item, t arena.Type) arena.Item {
	out := arena.Item{Types: arena.TypeSetOf(t), Not: it.Not}
	switch t {
	case arena.Integer, arena.Number:
		out.Minimum, out.Maximum = it.Minimum, it.Maximum
		out.ExclusiveMinimum, out.ExclusiveMaximum = it.ExclusiveMinimum, it.ExclusiveMaximum
		out.MultipleOf = it.MultipleOf
		out.Formats = it.Formats
	case arena.String:
		out.MinLength, out.MaxLength = it.MinLength, it.MaxLength
		out.Patterns, out.Formats = it.Patterns, it.Formats
	case arena.Array:
		out.ArrayItems, out.TupleItems, out.Contains = it.ArrayItems, it.TupleItems, it.Contains
		out.MinItems, out.MaxItems, out.UniqueItems = it.MinItems, it.MaxItems, it.UniqueItems
	case arena.Object:
		out.ObjectProperties, out.PatternProperties = it.ObjectProperties, it.PatternProperties
		out.MapProperties, out.PropertyNames = it.MapProperties, it.PropertyNames
		out.DependentSchemas = it.DependentSchemas
		out.MinProperties, out.MaxProperties = it.MinProperties, it.MaxProperties
		out.Required = it.Required
	}
	if it.Options != nil {
		for _, v := range it.Options {
			if optionHasType(v, t) {
				out.Options = append(out.Options, v)
			}
		}
		if out.Options == nil {
			return arena.Item{Types: arena.TypeSetOf(arena.Never)}
		}
	}
	return out
}

func optionHasType(v any, t arena.Type) bool {
	name := jsonvalue.TypeName(v)
	switch t {
	case arena.Any:
		return true
	case arena.Number:
		return name == "number" || name == "integer"
	default:
		return name == t.String()
	}
}

// Explode splits an item that mixes several concerns into an allOf with one
// member per concern.
func Explode(a *arena.Arena, k arena.Key) {
	it := a.Get(k)
	concerns := 0
	for _, has := range []bool{
		!it.Types.IsZero(), it.Reference != nil,
		len(it.AllOf) > 0, len(it.AnyOf) > 0, len(it.OneOf) > 0, it.If != nil,
	} {
		if has {
			concerns++
		}
	}
	if concerns < 2 {
		return
	}

	members := slices.Clone(it.AllOf)
	base := it.Inheritable()
	base.Types = it.Types
	if !base.IsEmpty() {
		members = append(members, memo(a, base))
	}
	if it.Reference != nil {
		members = append(members, memo(a, arena.Item{Reference: it.Reference}))
	}
	if len(it.AnyOf) > 0 {
		members = append(members, memo(a, anyOf.only(it.AnyOf...)))
	}
	if len(it.OneOf) > 0 {
		members = append(members, memo(a, oneOf.only(it.OneOf...)))
	}
	if it.If != nil {
		members = append(members, memo(a, arena.Item{If: it.If, Then: it.Then, Else: it.Else}))
	}
	out := it.Annotations()
	out.AllOf = arena.Set(members...)
	a.Replace(k, out)
}

func flatten(c compound) Rule {
	return func(a *arena.Arena, k arena.Key) {
		it := a.Get(k)
		members := c.get(it)
		if len(members) == 0 {
			return
		}
		var out []arena.Key
		spliced := false
		for _, m := range members {
			child := a.Get(m)
			if m != k && c.pure(child) {
				out = append(out, c.get(child)...)
				spliced = true
				continue
			}
			out = append(out, m)
		}
		if !spliced {
			return
		}
		c.set(&it, out)
		a.Replace(k, it)
	}
}

// Flatten rules splice a member that is itself the same compound.
var (
	FlattenAllOf = flatten(allOf)
	FlattenAnyOf = flatten(anyOf)
	FlattenOneOf = flatten(oneOf)
)

// flip distributes an outer compound over the inner compound of its members:
// outer(a, inner(b, c)) becomes inner(outer(a, b), outer(a, c)).
func flip(outer, inner compound) Rule {
	return func(a *arena.Arena, k arena.Key) {
		it := a.Get(k)
		if !outer.pure(it) {
			return
		}
		members := outer.get(it)
		if len(members) < 2 {
			return
		}
		choices := make([][]arena.Key, 0, len(members))
		distributes := false
		size := 1
		for _, m := range members {
			child := a.Get(m)
			if m != k && inner.pure(child) {
				choices = append(choices, inner.get(child))
				distributes = true
			} else {
				choices = append(choices, []arena.Key{m})
			}
			size *= len(choices[len(choices)-1])
			if size > MaxProduct {
				return
			}
		}
		if !distributes {
			return
		}

		var branches []arena.Key
		for _, combo := range product(choices) {
			set := arena.Set(combo...)
			if len(set) == 1 {
				branches = append(branches, set[0])
				continue
			}
			branches = append(branches, memo(a, outer.only(set...)))
		}
		out := it.Annotations()
		inner.set(&out, branches)
		a.Replace(k, out)
	}
}

func product(choices [][]arena.Key) [][]arena.Key {
	combos := [][]arena.Key{nil}
	for _, options := range choices {
		var next [][]arena.Key
		for _, combo := range combos {
			for _, o := range options {
				next = append(next, append(slices.Clone(combo), o))
			}
		}
		combos = next
	}
	return combos
}

// Flip rules distribute one compound over another. FlipAllOfOneOf and
// FlipAllOfAnyOf preserve meaning exactly; the other four are only sound for
// restricted inputs and are not part of DefaultRules.
var (
	FlipAllOfOneOf = flip(allOf, oneOf)
	FlipAllOfAnyOf = flip(allOf, anyOf)
	FlipAnyOfAllOf = flip(anyOf, allOf)
	FlipAnyOfOneOf = flip(anyOf, oneOf)
	FlipOneOfAllOf = flip(oneOf, allOf)
	FlipOneOfAnyOf = flip(oneOf, anyOf)
)

// inherit moves the assertions of an item into each member of its compound,
// so that every branch carries them once the compound is resolved.
func inherit(c compound) Rule {
	return func(a *arena.Arena, k arena.Key) {
		it := a.Get(k)
		members := c.get(it)
		if len(members) == 0 || !it.HasInheritable() {
			return
		}
		base := memo(a, it.Inheritable())
		wrapped := make([]arena.Key, len(members))
		for i, m := range members {
			wrapped[i] = memo(a, allOf.only(m, base))
		}
		out := it.WithoutInheritable()
		c.set(&out, wrapped)
		a.Replace(k, out)
	}
}

// Inherit rules push sibling assertions into compound members.
var (
	InheritAllOf = inherit(allOf)
	InheritAnyOf = inherit(anyOf)
	InheritOneOf = inherit(oneOf)
)

// InheritReference pushes sibling assertions of a reference into an allOf
// with the reference target.
func InheritReference(a *arena.Arena, k arena.Key) {
	it := a.Get(k)
	if it.Reference == nil || !it.HasInheritable() {
		return
	}
	base := memo(a, it.Inheritable())
	out := it.WithoutInheritable()
	out.Reference = arena.Ref(memo(a, allOf.only(*it.Reference, base)))
	a.Replace(k, out)
}

// ResolveIfThenElse rewrites if/then/else as
// oneOf(allOf(if, then), allOf(not(if), else)) joined to the item's allOf.
func ResolveIfThenElse(a *arena.Arena, k arena.Key) {
	it := a.Get(k)
	if it.If == nil {
		if it.Then != nil || it.Else != nil {
			it.Then, it.Else = nil, nil
			a.Replace(k, it)
		}
		return
	}
	cond := *it.If
	if it.Then == nil && it.Else == nil {
		it.If = nil
		a.Replace(k, it)
		return
	}

	negated := memo(a, arena.Item{Not: arena.Ref(cond)})
	accept, reject := cond, negated
	if it.Then != nil {
		accept = memo(a, allOf.only(cond, *it.Then))
	}
	if it.Else != nil {
		reject = memo(a, allOf.only(negated, *it.Else))
	}
	choice := memo(a, oneOf.only(accept, reject))

	it.If, it.Then, it.Else = nil, nil, nil
	it.AllOf = arena.Set(append(it.AllOf, choice)...)
	a.Replace(k, it)
}

// ResolveNot subtracts the required names of a negated item from the item's
// own required names. A negation holding nothing but required is dropped.
func ResolveNot(a *arena.Arena, k arena.Key) {
	it := a.Get(k)
	if it.Not == nil || len(it.Required) == 0 {
		return
	}
	target := a.Get(*it.Not)
	if len(target.Required) == 0 {
		return
	}
	var kept []string
	for _, name := range it.Required {
		if !slices.Contains(target.Required, name) {
			kept = append(kept, name)
		}
	}
	it.Required = arena.StringSet(kept...)
	if target.Bare().Equal(arena.Item{Required: target.Required}) {
		it.Not = nil
	}
	a.Replace(k, it)
}

func resolveSingle(c compound) Rule {
	return func(a *arena.Arena, k arena.Key) {
		it := a.Get(k)
		members := c.get(it)
		if len(members) != 1 || it.Reference != nil || members[0] == k {
			return
		}
		it.Reference = arena.Ref(members[0])
		c.set(&it, nil)
		a.Replace(k, it)
	}
}

// ResolveSingle rules turn a one-member compound into a reference.
var (
	ResolveSingleAllOf = resolveSingle(allOf)
	ResolveSingleAnyOf = resolveSingle(anyOf)
	ResolveSingleOneOf = resolveSingle(oneOf)
)

// Unalias points every key field past items that are nothing but a
// reference, directly at the final target.
func Unalias(a *arena.Arena, k arena.Key) {
	it := a.Get(k)
	a.Replace(k, it.MapKeys(func(c arena.Key) arena.Key { return follow(a, c) }))
}

func follow(a *arena.Arena, k arena.Key) arena.Key {
	seen := map[arena.Key]bool{}
	cur := k
	for {
		it := a.Get(cur)
		if !it.IsAlias() {
			return cur
		}
		if seen[cur] {
			return k
		}
		seen[cur] = true
		cur = *it.Reference
	}
}

// Primary marks every structural child of a primary item as primary.
func Primary(a *arena.Arena, k arena.Key) {
	it := a.Get(k)
	if !it.Primary {
		return
	}
	for _, c := range it.Children() {
		child := a.Get(c.Key)
		if !child.Primary {
			child.Primary = true
			a.Replace(c.Key, child)
		}
	}
}

// Name hands a derived name, and a parent, to unnamed children.
func Name(a *arena.Arena, k arena.Key) {
	it := a.Get(k)
	if it.Name == nil {
		return
	}
	for _, c := range it.Children() {
		if c.Key == k {
			continue
		}
		child := a.Get(c.Key)
		if child.Name != nil {
			continue
		}
		child.Name = append(slices.Clone(it.Name), c.Segment...)
		if child.Parent == nil {
			child.Parent = arena.Ref(k)
		}
		a.Replace(c.Key, child)
	}
}
