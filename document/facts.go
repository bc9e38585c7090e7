package document

import (
	"math"
	"strconv"

	schemaerrors "github.com/speakeasy-api/schemac/errors"
	"github.com/speakeasy-api/schemac/internal/jsonvalue"
	"github.com/speakeasy-api/schemac/location"
)

// Facts is the dialect-independent reading of one schema node. Every
// sub-schema and reference is a canonical retrieval-space location.
type Facts struct {
	Location location.Location
	Dialect  Dialect
	Identity *location.Location

	Title       *string
	Description *string
	Examples    []any
	Deprecated  *bool

	// Types is nil when unconstrained. "never" marks an unsatisfiable node.
	Types     []string
	Reference *location.Location

	AllOf []location.Location
	AnyOf []location.Location
	OneOf []location.Location
	If    *location.Location
	Then  *location.Location
	Else  *location.Location
	Not   *location.Location

	PropertyNames     *location.Location
	MapProperties     *location.Location
	ArrayItems        *location.Location
	Contains          *location.Location
	TupleItems        []location.Location
	ObjectProperties  map[string]location.Location
	PatternProperties map[string]location.Location
	DependentSchemas  map[string]location.Location

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
	Pattern          *string
	Format           *string
	UniqueItems      *bool
	Required         []string
	Options          []any
}

// Facts reads the schema node at a retrieval-space location through the
// rules of the document that owns it.
func (c *Context) Facts(loc location.Location) (*Facts, error) {
	node, ok := c.nodes[loc]
	if !ok {
		return nil, schemaerrors.New(schemaerrors.ReferenceNotFound, loc.String(), "no cached node")
	}
	doc, ok := c.Owner(loc)
	if !ok {
		return nil, schemaerrors.New(schemaerrors.DocumentNotFound, loc.String(), "node is not part of any loaded document")
	}
	f := &Facts{Location: loc, Dialect: doc.schemaDialect}

	var m map[string]any
	switch n := node.(type) {
	case bool:
		if !n {
			f.Types = []string{"never"}
		}
		return f, nil
	case map[string]any:
		m = n
	default:
		return nil, schemaerrors.New(schemaerrors.InvalidDocument, loc.String(), "expected a schema, found %T", node)
	}

	r := doc.rules
	if doc.explicitID && loc == doc.retrieval {
		id := doc.identity
		f.Identity = &id
	}

	if raw, ok := m["$ref"].(string); ok {
		target, err := c.ResolveReference(doc, raw)
		if err != nil {
			return nil, err
		}
		f.Reference = &target
		if r.refOverrides {
			return f, nil
		}
	}
	if raw, ok := m["$dynamicRef"].(string); ok && r.dynamic {
		target, err := c.ResolveDynamicReference(doc, raw)
		if err != nil {
			return nil, err
		}
		f.addReference(target)
	}
	if raw, ok := m["$recursiveRef"].(string); ok && r.recursive {
		target, err := c.resolveRecursiveReference(doc, raw)
		if err != nil {
			return nil, err
		}
		f.addReference(target)
	}

	f.readMetadata(m)
	f.readTypes(m, r)
	f.readApplicators(m, r, loc)
	f.readAssertions(m, r)
	return f, nil
}

func (f *Facts) addReference(target location.Location) {
	if f.Reference == nil {
		f.Reference = &target
		return
	}
	f.AllOf = append(f.AllOf, target)
}

func (f *Facts) readMetadata(m map[string]any) {
	f.Title = stringPtr(m["title"])
	f.Description = stringPtr(m["description"])
	if ex, ok := m["examples"].([]any); ok {
		f.Examples = ex
	} else if ex, ok := m["example"]; ok {
		f.Examples = []any{ex}
	}
	if b, ok := m["deprecated"].(bool); ok {
		f.Deprecated = &b
	}
}

func (f *Facts) readTypes(m map[string]any, r rules) {
	switch t := m["type"].(type) {
	case string:
		f.Types = []string{t}
	case []any:
		f.Types = []string{}
		for _, v := range t {
			if s, ok := v.(string); ok {
				f.Types = append(f.Types, s)
			}
		}
	}

	if enum, ok := m["enum"].([]any); ok {
		f.Options = append([]any{}, enum...)
	}
	if cv, ok := m["const"]; ok {
		if f.Options != nil && !jsonvalue.Contains(f.Options, cv) {
			f.Options = nil
			f.Types = []string{"never"}
		} else {
			f.Options = []any{cv}
		}
	}
	if f.Options != nil && len(f.Options) == 0 {
		f.Options = nil
		f.Types = []string{"never"}
	}

	if r.nullable != "" {
		if b, ok := m[r.nullable].(bool); ok && b {
			if f.Types != nil {
				f.Types = append(f.Types, "null")
			}
			if f.Options != nil && !jsonvalue.Contains(f.Options, nil) {
				f.Options = append(f.Options, nil)
			}
		}
	}
}

func (f *Facts) readApplicators(m map[string]any, r rules, loc location.Location) {
	has := func(kw string, list []string) bool {
		for _, k := range list {
			if k == kw {
				return true
			}
		}
		return false
	}
	single := func(kw string) *location.Location {
		if !has(kw, r.singles) {
			return nil
		}
		v, ok := m[kw]
		if !ok {
			return nil
		}
		if _, isArray := v.([]any); isArray {
			return nil
		}
		l := loc.PushPointer(kw)
		return &l
	}
	list := func(kw string) []location.Location {
		arr, ok := m[kw].([]any)
		if !ok || !has(kw, r.arrays) {
			return nil
		}
		out := make([]location.Location, len(arr))
		for i := range arr {
			out[i] = loc.PushPointer(kw, strconv.Itoa(i))
		}
		return out
	}
	dict := func(kw string) map[string]location.Location {
		obj, ok := m[kw].(map[string]any)
		if !ok || !has(kw, r.maps) {
			return nil
		}
		out := make(map[string]location.Location, len(obj))
		for k, v := range obj {
			if _, isArray := v.([]any); isArray {
				continue
			}
			out[k] = loc.PushPointer(kw, k)
		}
		return out
	}

	f.AllOf = append(f.AllOf, list("allOf")...)
	f.AnyOf = list("anyOf")
	f.OneOf = list("oneOf")
	f.Not = single("not")
	if f.If = single("if"); f.If != nil {
		f.Then = single("then")
		f.Else = single("else")
	}

	f.PropertyNames = single("propertyNames")
	f.Contains = single("contains")
	f.MapProperties = single("additionalProperties")
	if r.prefixItems {
		f.TupleItems = list("prefixItems")
		f.ArrayItems = single("items")
	} else if r.tupleItems && isArray(m["items"]) {
		f.TupleItems = list("items")
		f.ArrayItems = single("additionalItems")
	} else {
		f.ArrayItems = single("items")
	}

	f.ObjectProperties = dict("properties")
	f.PatternProperties = dict("patternProperties")
	if r.dependencies != "" {
		f.DependentSchemas = dict(r.dependencies)
		if len(f.DependentSchemas) == 0 {
			f.DependentSchemas = nil
		}
	}
}

func isArray(v any) bool {
	_, ok := v.([]any)
	return ok
}

func (f *Facts) readAssertions(m map[string]any, r rules) {
	f.Minimum = floatPtr(m["minimum"])
	f.Maximum = floatPtr(m["maximum"])
	f.MultipleOf = floatPtr(m["multipleOf"])
	if r.boolExclusive {
		if b, ok := m["exclusiveMinimum"].(bool); ok && b {
			f.ExclusiveMinimum, f.Minimum = f.Minimum, nil
		}
		if b, ok := m["exclusiveMaximum"].(bool); ok && b {
			f.ExclusiveMaximum, f.Maximum = f.Maximum, nil
		}
	} else {
		f.ExclusiveMinimum = floatPtr(m["exclusiveMinimum"])
		f.ExclusiveMaximum = floatPtr(m["exclusiveMaximum"])
	}

	f.MinLength = uintPtr(m["minLength"])
	f.MaxLength = uintPtr(m["maxLength"])
	f.MinItems = uintPtr(m["minItems"])
	f.MaxItems = uintPtr(m["maxItems"])
	f.MinProperties = uintPtr(m["minProperties"])
	f.MaxProperties = uintPtr(m["maxProperties"])
	f.Pattern = stringPtr(m["pattern"])
	f.Format = stringPtr(m["format"])
	if b, ok := m["uniqueItems"].(bool); ok {
		f.UniqueItems = &b
	}
	if req, ok := m["required"].([]any); ok {
		for _, v := range req {
			if s, ok := v.(string); ok {
				f.Required = append(f.Required, s)
			}
		}
	}
}

func stringPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func floatPtr(v any) *float64 {
	f, ok := jsonvalue.Number(v)
	if !ok {
		return nil
	}
	return &f
}

func uintPtr(v any) *uint64 {
	f, ok := jsonvalue.Number(v)
	if !ok || f < 0 || f != math.Trunc(f) {
		return nil
	}
	u := uint64(f)
	return &u
}
