package document

import (
	"sort"
	"strconv"

	schemaerrors "github.com/speakeasy-api/schemac/errors"
	"github.com/speakeasy-api/schemac/location"
)

// Document is one schema resource: a root node and the schema nodes it owns,
// with the identity, anchors and outgoing references declared inside it.
// A Document is immutable once built.
type Document struct {
	dialect       Dialect
	schemaDialect Dialect
	rules         rules

	identity   location.Location
	explicitID bool
	retrieval  location.Location
	antecedent location.Location

	root           any
	nodes          map[string]any
	references     []location.Location
	embedded       []Embedded
	anchors        map[string]location.Pointer
	dynamicAnchors map[string]location.Pointer
}

// Embedded is a sub-node that declares its own identity. It is loaded as a
// separate Document.
type Embedded struct {
	Pointer location.Pointer
	Node    any
}

// newDocument dispatches on the dialect to build the document for node.
// retrieval is where node physically lives; given is the base that a
// declared identity resolves against.
func newDocument(dialect Dialect, retrieval, given, antecedent location.Location, node any) (*Document, error) {
	d := &Document{
		dialect:        dialect,
		retrieval:      retrieval,
		identity:       given.FetchForm(),
		antecedent:     antecedent,
		root:           node,
		nodes:          map[string]any{},
		anchors:        map[string]location.Pointer{},
		dynamicAnchors: map[string]location.Pointer{},
	}

	var err error
	switch dialect {
	case Draft04, Draft06, Draft07, Draft201909, Draft202012:
		d.schemaDialect = dialect
		d.rules = schemaRules(dialect)
		if err = d.identify(given); err == nil {
			err = d.walkSchema(node, nil, true)
		}
	case OpenAPI30, Swagger20:
		d.schemaDialect = dialect
		d.rules = schemaRules(dialect)
		if isDescription(node) {
			err = d.walkAPI(node)
			break
		}
		// A plain schema file referenced from a description.
		if err = d.identify(given); err == nil {
			err = d.walkSchema(node, nil, true)
		}
	case OpenAPI31:
		d.schemaDialect = Draft202012
		if m, ok := node.(map[string]any); ok {
			if s, ok := m["jsonSchemaDialect"].(string); ok {
				if sd, ok := ParseDialect(s); ok && sd.IsSchemaDraft() {
					d.schemaDialect = sd
				}
			}
		}
		d.rules = schemaRules(d.schemaDialect)
		err = d.walkAPI(node)
	default:
		return nil, schemaerrors.New(schemaerrors.UnknownDialect, retrieval.String(), "no document type for dialect %s", dialect)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// isDescription reports whether node is an API description rather than a
// schema.
func isDescription(node any) bool {
	m, ok := node.(map[string]any)
	if !ok {
		return false
	}
	_, openapi := m["openapi"]
	_, swagger := m["swagger"]
	return openapi || swagger
}

// identify resolves a declared root identity and the anchor it may carry.
func (d *Document) identify(given location.Location) error {
	m, ok := d.root.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := m[d.rules.identity].(string)
	if !ok || d.rules.identity == "" {
		return nil
	}
	id, err := location.Parse(raw)
	if err != nil {
		return schemaerrors.Wrap(schemaerrors.InvalidLocation, d.retrieval.String(), err)
	}
	if !fragmentOnly(id) {
		d.identity = given.Join(id).FetchForm()
		d.explicitID = true
	}
	return nil
}

func fragmentOnly(l location.Location) bool {
	return l.FetchForm().IsZero()
}

// declaresIdentity reports whether a schema object starts a new resource.
func (d *Document) declaresIdentity(m map[string]any) bool {
	if d.rules.identity == "" {
		return false
	}
	raw, ok := m[d.rules.identity].(string)
	if !ok {
		return false
	}
	id, err := location.Parse(raw)
	return err == nil && !fragmentOnly(id)
}

func (d *Document) walkSchema(node any, ptr location.Pointer, isRoot bool) error {
	switch n := node.(type) {
	case bool:
		d.nodes[ptr.String()] = n
		return nil
	case map[string]any:
		if !isRoot && d.declaresIdentity(n) {
			d.embedded = append(d.embedded, Embedded{Pointer: ptr, Node: n})
			return nil
		}
		d.nodes[ptr.String()] = n
		d.collectAnchors(n, ptr, isRoot)
		if err := d.collectReferences(n); err != nil {
			return err
		}
		for _, c := range schemaChildren(d.rules, n) {
			if err := d.walkSchema(c.node, ptr.Push(c.path...), false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Document) collectAnchors(m map[string]any, ptr location.Pointer, isRoot bool) {
	if raw, ok := m[d.rules.identity].(string); ok && d.rules.identity != "" {
		// id and $id fragments are plain-name anchors before 2019-09.
		if id, err := location.Parse(raw); err == nil && (isRoot || fragmentOnly(id)) {
			if a, ok := id.Anchor(); ok && !d.rules.anchors {
				d.anchors[a] = ptr
			}
		}
	}
	if d.rules.anchors {
		if a, ok := m["$anchor"].(string); ok {
			d.anchors[a] = ptr
		}
	}
	if d.rules.dynamic {
		if a, ok := m["$dynamicAnchor"].(string); ok {
			d.dynamicAnchors[a] = ptr
			if _, taken := d.anchors[a]; !taken {
				d.anchors[a] = ptr
			}
		}
	}
	if d.rules.recursive {
		if b, ok := m["$recursiveAnchor"].(bool); ok && b {
			d.dynamicAnchors[""] = ptr
		}
	}
}

func (d *Document) collectReferences(m map[string]any) error {
	keys := []string{"$ref"}
	if d.rules.dynamic {
		keys = append(keys, "$dynamicRef")
	}
	if d.rules.recursive {
		keys = append(keys, "$recursiveRef")
	}
	for _, k := range keys {
		raw, ok := m[k].(string)
		if !ok {
			continue
		}
		target, err := d.identity.JoinString(raw)
		if err != nil {
			return schemaerrors.Wrap(schemaerrors.InvalidLocation, d.retrieval.String(), err)
		}
		d.addReference(target)
	}
	return nil
}

func (d *Document) addReference(target location.Location) {
	for _, r := range d.references {
		if r == target {
			return
		}
	}
	d.references = append(d.references, target)
}

type child struct {
	path []string
	node any
}

// schemaChildren lists the sub-schemas of a schema object in a fixed order.
func schemaChildren(r rules, m map[string]any) []child {
	var out []child
	for _, k := range r.singles {
		v, ok := m[k]
		if !ok {
			continue
		}
		if _, isArray := v.([]any); isArray {
			continue
		}
		out = append(out, child{path: []string{k}, node: v})
	}
	for _, k := range r.arrays {
		arr, ok := m[k].([]any)
		if !ok {
			continue
		}
		if k == "items" && !r.tupleItems {
			continue
		}
		for i, v := range arr {
			out = append(out, child{path: []string{k, strconv.Itoa(i)}, node: v})
		}
	}
	for _, k := range r.maps {
		obj, ok := m[k].(map[string]any)
		if !ok {
			continue
		}
		for _, name := range sortedKeys(obj) {
			v := obj[name]
			if k == "dependencies" {
				if _, isArray := v.([]any); isArray {
					continue
				}
			}
			out = append(out, child{path: []string{k, name}, node: v})
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dialect returns the document's dialect.
func (d *Document) Dialect() Dialect { return d.dialect }

// SchemaDialect returns the dialect governing the document's schema objects.
// It differs from Dialect only for API descriptions.
func (d *Document) SchemaDialect() Dialect { return d.schemaDialect }

// Identity returns the location the document is known by.
func (d *Document) Identity() location.Location { return d.identity }

// HasExplicitIdentity reports whether the root declared its own identity.
func (d *Document) HasExplicitIdentity() bool { return d.explicitID }

// Retrieval returns where the document's root physically lives.
func (d *Document) Retrieval() location.Location { return d.retrieval }

// Antecedent returns the identity of the document that referenced or embedded this one.
func (d *Document) Antecedent() (location.Location, bool) {
	return d.antecedent, !d.antecedent.IsZero()
}

// Root returns the raw root node.
func (d *Document) Root() any { return d.root }

// Nodes returns the schema nodes owned by this document keyed by pointer string.
func (d *Document) Nodes() map[string]any { return d.nodes }

// Pointers returns the owned node pointers, sorted.
func (d *Document) Pointers() []string {
	out := make([]string, 0, len(d.nodes))
	for p := range d.nodes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Owns reports whether the node at pointer belongs to this document.
func (d *Document) Owns(ptr location.Pointer) bool {
	_, ok := d.nodes[ptr.String()]
	return ok
}

// References returns the absolute targets of every reference keyword.
func (d *Document) References() []location.Location { return d.references }

// Embedded returns the sub-documents found while walking.
func (d *Document) Embedded() []Embedded { return d.embedded }

// Anchor returns the pointer registered for a plain-name anchor.
func (d *Document) Anchor(name string) (location.Pointer, bool) {
	p, ok := d.anchors[name]
	return p, ok
}

// DynamicAnchor returns the pointer registered for a dynamic anchor.
// A 2019-09 $recursiveAnchor is registered under "".
func (d *Document) DynamicAnchor(name string) (location.Pointer, bool) {
	p, ok := d.dynamicAnchors[name]
	return p, ok
}

// NodeLocation returns the retrieval-space location of an owned pointer.
func (d *Document) NodeLocation(ptr location.Pointer) location.Location {
	return d.retrieval.PushPointer(ptr...)
}
