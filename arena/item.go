package arena

import (
	"maps"
	"reflect"
	"slices"
	"sort"
	"strconv"

	"github.com/speakeasy-api/schemac/location"
)

// Key addresses an item in an Arena. Keys are stable for the arena's lifetime.
type Key int

func (k Key) String() string { return strconv.Itoa(int(k)) }

// Item is one canonical schema fact. Every field is optional; the zero Item
// accepts any instance.
type Item struct {
	// Naming. None of these constrain instances.
	Name     []string
	Parent   *Key
	Primary  bool
	Location *location.Location
	Identity *location.Location
	// Exact is false on items widened from an anyOf group.
	Exact *bool

	Title       *string
	Description *string
	Examples    []any
	Deprecated  *bool

	Types     TypeSet
	Reference *Key

	// Compound members are sorted sets.
	AllOf []Key
	AnyOf []Key
	OneOf []Key
	If    *Key
	Then  *Key
	Else  *Key
	Not   *Key

	PropertyNames     *Key
	MapProperties     *Key
	ArrayItems        *Key
	Contains          *Key
	TupleItems        []Key
	ObjectProperties  map[string]Key
	PatternProperties map[string]Key
	DependentSchemas  map[string]Key

	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64
	MultipleOf       *float64
	MinLength        *uint64
	MaxLength        *uint64
	MinItems         *uint64
	MaxItems         *uint64
	MinProperties    *uint64
	MaxProperties    *uint64
	// Patterns and Formats are sorted sets; all must hold.
	Patterns    []string
	Formats     []string
	UniqueItems *bool
	Required    []string
	// Options is nil when any value is allowed.
	Options []any
}

// Child is a structural edge of an item.
type Child struct {
	Key     Key
	Segment []string
}

// Set returns keys as a sorted set, or nil when empty.
func Set(keys ...Key) []Key {
	if len(keys) == 0 {
		return nil
	}
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

// StringSet returns values as a sorted set, or nil when empty.
func StringSet(values ...string) []string {
	if len(values) == 0 {
		return nil
	}
	out := slices.Clone(values)
	sort.Strings(out)
	return slices.Compact(out)
}

// Ref returns a pointer to k.
func Ref(k Key) *Key { return &k }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a deep copy. Raw option and example values are shared.
func (it Item) Clone() Item {
	out := it
	out.Name = slices.Clone(it.Name)
	out.Parent = clonePtr(it.Parent)
	out.Location = clonePtr(it.Location)
	out.Identity = clonePtr(it.Identity)
	out.Exact = clonePtr(it.Exact)
	out.Title = clonePtr(it.Title)
	out.Description = clonePtr(it.Description)
	out.Examples = slices.Clone(it.Examples)
	out.Deprecated = clonePtr(it.Deprecated)
	out.Reference = clonePtr(it.Reference)
	out.AllOf = slices.Clone(it.AllOf)
	out.AnyOf = slices.Clone(it.AnyOf)
	out.OneOf = slices.Clone(it.OneOf)
	out.If = clonePtr(it.If)
	out.Then = clonePtr(it.Then)
	out.Else = clonePtr(it.Else)
	out.Not = clonePtr(it.Not)
	out.PropertyNames = clonePtr(it.PropertyNames)
	out.MapProperties = clonePtr(it.MapProperties)
	out.ArrayItems = clonePtr(it.ArrayItems)
	out.Contains = clonePtr(it.Contains)
	out.TupleItems = slices.Clone(it.TupleItems)
	out.ObjectProperties = maps.Clone(it.ObjectProperties)
	out.PatternProperties = maps.Clone(it.PatternProperties)
	out.DependentSchemas = maps.Clone(it.DependentSchemas)
	out.Minimum = clonePtr(it.Minimum)
	out.Maximum = clonePtr(it.Maximum)
	out.ExclusiveMinimum = clonePtr(it.ExclusiveMinimum)
	out.ExclusiveMaximum = clonePtr(it.ExclusiveMaximum)
	out.MultipleOf = clonePtr(it.MultipleOf)
	out.MinLength = clonePtr(it.MinLength)
	out.MaxLength = clonePtr(it.MaxLength)
	out.MinItems = clonePtr(it.MinItems)
	out.MaxItems = clonePtr(it.MaxItems)
	out.MinProperties = clonePtr(it.MinProperties)
	out.MaxProperties = clonePtr(it.MaxProperties)
	out.Patterns = slices.Clone(it.Patterns)
	out.Formats = slices.Clone(it.Formats)
	out.UniqueItems = clonePtr(it.UniqueItems)
	out.Required = slices.Clone(it.Required)
	out.Options = slices.Clone(it.Options)
	return out
}

// Equal reports deep equality, naming included.
func (it Item) Equal(other Item) bool {
	return reflect.DeepEqual(it, other)
}

// Bare returns the item without naming and metadata, leaving only the fields
// that constrain instances.
func (it Item) Bare() Item {
	out := it.Clone()
	out.Name, out.Parent, out.Primary = nil, nil, false
	out.Location, out.Identity, out.Exact = nil, nil, nil
	out.Title, out.Description, out.Examples, out.Deprecated = nil, nil, nil, nil
	return out
}

// Annotations returns only the naming and metadata of the item.
func (it Item) Annotations() Item {
	return Item{
		Name:        slices.Clone(it.Name),
		Parent:      clonePtr(it.Parent),
		Primary:     it.Primary,
		Location:    clonePtr(it.Location),
		Identity:    clonePtr(it.Identity),
		Exact:       clonePtr(it.Exact),
		Title:       clonePtr(it.Title),
		Description: clonePtr(it.Description),
		Examples:    slices.Clone(it.Examples),
		Deprecated:  clonePtr(it.Deprecated),
	}
}

// IsEmpty reports whether the item constrains nothing.
func (it Item) IsEmpty() bool {
	return it.Bare().Equal(Item{})
}

// IsLeaf reports whether the item can be merged structurally: at most one
// type and no compound or conditional applicators.
func (it Item) IsLeaf() bool {
	return it.Types.Len() <= 1 &&
		len(it.AllOf) == 0 && len(it.AnyOf) == 0 && len(it.OneOf) == 0 &&
		it.If == nil && it.Then == nil && it.Else == nil
}

// IsAlias reports whether the item is nothing but a reference.
func (it Item) IsAlias() bool {
	return it.Reference != nil && it.Bare().Equal(Item{Reference: clonePtr(it.Reference)})
}

// IsNever reports whether the item accepts no instance.
func (it Item) IsNever() bool {
	return it.Types == TypeSetOf(Never)
}

// Inheritable returns the assertion and shape fields of the item. These are
// the fields a compound or reference sibling must carry into every branch.
func (it Item) Inheritable() Item {
	c := it.Clone()
	return Item{
		Not:               c.Not,
		PropertyNames:     c.PropertyNames,
		MapProperties:     c.MapProperties,
		ArrayItems:        c.ArrayItems,
		Contains:          c.Contains,
		TupleItems:        c.TupleItems,
		ObjectProperties:  c.ObjectProperties,
		PatternProperties: c.PatternProperties,
		DependentSchemas:  c.DependentSchemas,
		Minimum:           c.Minimum,
		Maximum:           c.Maximum,
		ExclusiveMinimum:  c.ExclusiveMinimum,
		ExclusiveMaximum:  c.ExclusiveMaximum,
		MultipleOf:        c.MultipleOf,
		MinLength:         c.MinLength,
		MaxLength:         c.MaxLength,
		MinItems:          c.MinItems,
		MaxItems:          c.MaxItems,
		MinProperties:     c.MinProperties,
		MaxProperties:     c.MaxProperties,
		Patterns:          c.Patterns,
		Formats:           c.Formats,
		UniqueItems:       c.UniqueItems,
		Required:          c.Required,
		Options:           c.Options,
	}
}

// HasInheritable reports whether any inheritable field is set.
func (it Item) HasInheritable() bool {
	return !it.Inheritable().Equal(Item{})
}

// WithoutInheritable returns the item with every inheritable field cleared.
func (it Item) WithoutInheritable() Item {
	c := it.Clone()
	out := c.Annotations()
	out.Types = c.Types
	out.Reference = c.Reference
	out.AllOf, out.AnyOf, out.OneOf = c.AllOf, c.AnyOf, c.OneOf
	out.If, out.Then, out.Else = c.If, c.Then, c.Else
	return out
}

// Children lists the structural edges of the item in a fixed order, each
// with the name segment it contributes.
func (it Item) Children() []Child {
	var out []Child
	single := func(p *Key, seg string) {
		if p != nil {
			out = append(out, Child{Key: *p, Segment: []string{seg}})
		}
	}
	list := func(keys []Key, seg string) {
		for i, k := range keys {
			out = append(out, Child{Key: k, Segment: []string{seg, strconv.Itoa(i)}})
		}
	}
	dict := func(m map[string]Key, seg string) {
		for _, name := range sortedNames(m) {
			out = append(out, Child{Key: m[name], Segment: []string{seg, name}})
		}
	}

	single(it.Reference, "ref")
	list(it.AllOf, "allOf")
	list(it.AnyOf, "anyOf")
	list(it.OneOf, "oneOf")
	single(it.If, "if")
	single(it.Then, "then")
	single(it.Else, "else")
	single(it.Not, "not")
	single(it.PropertyNames, "propertyNames")
	single(it.MapProperties, "mapProperties")
	single(it.ArrayItems, "arrayItems")
	single(it.Contains, "contains")
	list(it.TupleItems, "tupleItems")
	dict(it.ObjectProperties, "objectProperties")
	dict(it.PatternProperties, "patternProperties")
	dict(it.DependentSchemas, "dependentSchemas")
	return out
}

// MapKeys returns a copy of the item with every key field rewritten by f.
// Parent is not a structural edge and is left alone.
func (it Item) MapKeys(f func(Key) Key) Item {
	out := it.Clone()
	one := func(p *Key) *Key {
		if p == nil {
			return nil
		}
		return Ref(f(*p))
	}
	set := func(keys []Key) []Key {
		if keys == nil {
			return nil
		}
		mapped := make([]Key, len(keys))
		for i, k := range keys {
			mapped[i] = f(k)
		}
		return Set(mapped...)
	}
	dict := func(m map[string]Key) map[string]Key {
		if m == nil {
			return nil
		}
		mapped := make(map[string]Key, len(m))
		for name, k := range m {
			mapped[name] = f(k)
		}
		return mapped
	}

	out.Reference = one(it.Reference)
	out.AllOf, out.AnyOf, out.OneOf = set(it.AllOf), set(it.AnyOf), set(it.OneOf)
	out.If, out.Then, out.Else, out.Not = one(it.If), one(it.Then), one(it.Else), one(it.Not)
	out.PropertyNames = one(it.PropertyNames)
	out.MapProperties = one(it.MapProperties)
	out.ArrayItems = one(it.ArrayItems)
	out.Contains = one(it.Contains)
	if it.TupleItems != nil {
		out.TupleItems = make([]Key, len(it.TupleItems))
		for i, k := range it.TupleItems {
			out.TupleItems[i] = f(k)
		}
	}
	out.ObjectProperties = dict(it.ObjectProperties)
	out.PatternProperties = dict(it.PatternProperties)
	out.DependentSchemas = dict(it.DependentSchemas)
	return out
}

func sortedNames(m map[string]Key) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
