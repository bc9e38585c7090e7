package compiler

import (
	"slices"

	"github.com/speakeasy-api/schemac/arena"
	"github.com/speakeasy-api/schemac/document"
	schemaerrors "github.com/speakeasy-api/schemac/errors"
	"github.com/speakeasy-api/schemac/location"
)

// populator turns the cached schema nodes of a context into arena items,
// one per retrieval-space location.
type populator struct {
	c     *document.Context
	arena *arena.Arena
	keys  map[location.Location]arena.Key
	queue []location.Location
}

func newPopulator(c *document.Context) *populator {
	return &populator{
		c:     c,
		arena: arena.New(),
		keys:  map[location.Location]arena.Key{},
	}
}

// key returns the item for loc, reserving a placeholder and queueing the
// node the first time loc is seen.
func (p *populator) key(loc location.Location) (arena.Key, error) {
	if k, ok := p.keys[loc]; ok {
		return k, nil
	}
	if _, ok := p.c.Node(loc); !ok {
		return 0, schemaerrors.New(schemaerrors.ReferenceNotFound, loc.String(), "no cached schema node")
	}
	k := p.arena.Add(arena.Item{})
	p.keys[loc] = k
	p.queue = append(p.queue, loc)
	return k, nil
}

func (p *populator) populate() error {
	for _, loc := range p.c.SchemaLocations() {
		if _, err := p.key(loc); err != nil {
			return err
		}
	}
	return p.drain()
}

// drain converts every queued location, keying the locations it refers to.
func (p *populator) drain() error {
	for len(p.queue) > 0 {
		loc := p.queue[0]
		p.queue = p.queue[1:]

		f, err := p.c.Facts(loc)
		if err != nil {
			return err
		}
		it, err := p.item(f)
		if err != nil {
			return err
		}
		k := p.keys[loc]
		it.Primary = p.arena.Get(k).Primary
		p.arena.Replace(k, it)
	}

	// Structural children inherit their owner as parent; references do not.
	for i := 0; i < p.arena.Len(); i++ {
		k := arena.Key(i)
		for _, ch := range p.arena.Get(k).Children() {
			if len(ch.Segment) == 1 && ch.Segment[0] == "ref" {
				continue
			}
			child := p.arena.Get(ch.Key)
			if child.Parent != nil || ch.Key == k {
				continue
			}
			child.Parent = arena.Ref(k)
			p.arena.Replace(ch.Key, child)
		}
	}
	return nil
}

func (p *populator) item(f *document.Facts) (arena.Item, error) {
	loc := f.Location
	it := arena.Item{
		Name:     p.name(loc),
		Location: &loc,
		Identity: f.Identity,

		Title:       f.Title,
		Description: f.Description,
		Examples:    f.Examples,
		Deprecated:  f.Deprecated,

		Minimum:          f.Minimum,
		Maximum:          f.Maximum,
		ExclusiveMinimum: f.ExclusiveMinimum,
		ExclusiveMaximum: f.ExclusiveMaximum,
		MultipleOf:       f.MultipleOf,
		MinLength:        f.MinLength,
		MaxLength:        f.MaxLength,
		MinItems:         f.MinItems,
		MaxItems:         f.MaxItems,
		MinProperties:    f.MinProperties,
		MaxProperties:    f.MaxProperties,
		UniqueItems:      f.UniqueItems,
		Required:         arena.StringSet(f.Required...),
		Options:          slices.Clone(f.Options),
	}
	if f.Pattern != nil {
		it.Patterns = []string{*f.Pattern}
	}
	if f.Format != nil {
		it.Formats = []string{*f.Format}
	}

	for _, name := range f.Types {
		if name == "never" {
			it.Types = arena.TypeSetOf(arena.Never)
			break
		}
		t, ok := arena.ParseType(name)
		if !ok {
			return arena.Item{}, schemaerrors.New(schemaerrors.InvalidDocument, loc.String(), "unknown type %q", name)
		}
		it.Types = it.Types.Add(t)
	}

	var err error
	one := func(l *location.Location) *arena.Key {
		if l == nil || err != nil {
			return nil
		}
		var k arena.Key
		if k, err = p.key(*l); err != nil {
			return nil
		}
		return arena.Ref(k)
	}
	many := func(ls []location.Location, set bool) []arena.Key {
		var out []arena.Key
		for i := range ls {
			if k := one(&ls[i]); k != nil {
				out = append(out, *k)
			}
		}
		if set {
			return arena.Set(out...)
		}
		return out
	}
	byName := func(m map[string]location.Location) map[string]arena.Key {
		if len(m) == 0 {
			return nil
		}
		out := make(map[string]arena.Key, len(m))
		for name, l := range m {
			if k := one(&l); k != nil {
				out[name] = *k
			}
		}
		return out
	}

	it.Reference = one(f.Reference)
	it.AllOf = many(f.AllOf, true)
	it.AnyOf = many(f.AnyOf, true)
	it.OneOf = many(f.OneOf, true)
	it.If = one(f.If)
	it.Then = one(f.Then)
	it.Else = one(f.Else)
	it.Not = one(f.Not)
	it.PropertyNames = one(f.PropertyNames)
	it.MapProperties = one(f.MapProperties)
	it.ArrayItems = one(f.ArrayItems)
	it.Contains = one(f.Contains)
	it.TupleItems = many(f.TupleItems, false)
	it.ObjectProperties = byName(f.ObjectProperties)
	it.PatternProperties = byName(f.PatternProperties)
	it.DependentSchemas = byName(f.DependentSchemas)
	return it, err
}

// name is the owning document's base name followed by the pointer segments
// below the document root.
func (p *populator) name(loc location.Location) []string {
	doc, ok := p.c.Owner(loc)
	if !ok {
		return nil
	}
	out := []string{documentName(doc)}
	ptr, _ := loc.Pointer()
	base, _ := doc.Retrieval().Pointer()
	if ptr.HasPrefix(base) {
		out = append(out, ptr[len(base):]...)
	}
	return out
}
