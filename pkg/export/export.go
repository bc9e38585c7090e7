// Package export hands a compiled arena to code generators as an OpenAPI 3.1
// document whose components are the named, normalized schemas.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/speakeasy-api/openapi/extensions"
	"github.com/speakeasy-api/openapi/jsonschema/oas3"
	"github.com/speakeasy-api/openapi/openapi"
	"github.com/speakeasy-api/openapi/references"
	"github.com/speakeasy-api/openapi/sequencedmap"
	"gopkg.in/yaml.v3"

	"github.com/speakeasy-api/schemac/arena"
	"github.com/speakeasy-api/schemac/compiler"
	schemaerrors "github.com/speakeasy-api/schemac/errors"
)

const (
	componentsPrefix = "#/components/schemas/"

	// ExtensionInexact marks a schema widened from overlapping alternatives;
	// it may accept more than its source did.
	ExtensionInexact = "x-schemac-inexact"
	// ExtensionLocation carries the source location of a schema.
	ExtensionLocation = "x-schemac-location"
)

// Options configures the exported document.
type Options struct {
	Title   string // Info title (default: "schemac")
	Version string // Info version (default: "0.0.0")

	// Locations adds the source location of each schema as an extension.
	Locations bool
}

// DefaultOptions returns the default configuration for export.
func DefaultOptions() Options {
	return Options{
		Title:   "schemac",
		Version: "0.0.0",
	}
}

type schemaMap = sequencedmap.Map[string, *oas3.JSONSchema[oas3.Referenceable]]

func newSchemaMap() *schemaMap {
	return sequencedmap.New[string, *oas3.JSONSchema[oas3.Referenceable]]()
}

// Document builds an OpenAPI 3.1 document holding every reachable schema of
// res under components/schemas, keyed by its PascalCase name. References
// between schemas become $ref to those components.
func Document(ctx context.Context, res *compiler.Result, opts ...Options) (*openapi.OpenAPI, error) {
	opt := DefaultOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	doc, err := skeleton(ctx, opt)
	if err != nil {
		return nil, err
	}

	c := converter{res: res, opt: opt}
	schemas := newSchemaMap()
	for _, k := range res.Reachable() {
		name := res.Name(k)
		if name == "" {
			return nil, schemaerrors.New(schemaerrors.InvalidDocument, k.String(), "reachable schema has no name")
		}
		s, err := c.schema(k)
		if err != nil {
			return nil, err
		}
		schemas.Set(name, oas3.NewJSONSchemaFromSchema[oas3.Referenceable](s))
	}
	doc.Components.Schemas = schemas
	return doc, nil
}

// skeleton parses a minimal document so that the model is fully initialized
// before schemas are attached.
func skeleton(ctx context.Context, opt Options) (*openapi.OpenAPI, error) {
	if opt.Title == "" {
		opt.Title = DefaultOptions().Title
	}
	if opt.Version == "" {
		opt.Version = DefaultOptions().Version
	}
	src, err := yaml.Marshal(map[string]any{
		"openapi":    "3.1.0",
		"info":       map[string]any{"title": opt.Title, "version": opt.Version},
		"paths":      map[string]any{},
		"components": map[string]any{"schemas": map[string]any{}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode document skeleton: %w", err)
	}
	doc, validationErrs, err := openapi.Unmarshal(ctx, strings.NewReader(string(src)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document skeleton: %w", err)
	}
	if len(validationErrs) > 0 {
		return nil, fmt.Errorf("document skeleton failed validation: %v", validationErrs[0])
	}
	if doc.Components == nil {
		doc.Components = &openapi.Components{}
	}
	return doc, nil
}

// Write marshals doc as YAML.
func Write(ctx context.Context, w io.Writer, doc *openapi.OpenAPI) error {
	if err := openapi.Marshal(ctx, doc, w); err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	return nil
}

// Schema converts the item at k, with its children as component references.
func Schema(res *compiler.Result, k arena.Key) (*oas3.Schema, error) {
	c := converter{res: res, opt: DefaultOptions()}
	return c.schema(k)
}

type converter struct {
	res *compiler.Result
	opt Options
}

func (c converter) target(k arena.Key) (*references.Reference, error) {
	name := c.res.Name(k)
	if name == "" {
		return nil, schemaerrors.New(schemaerrors.ReferenceNotFound, k.String(), "schema has no component name")
	}
	ref := references.Reference(componentsPrefix + name)
	return &ref, nil
}

func (c converter) ref(k arena.Key) (*oas3.JSONSchema[oas3.Referenceable], error) {
	ref, err := c.target(k)
	if err != nil {
		return nil, err
	}
	return oas3.NewJSONSchemaFromSchema[oas3.Referenceable](&oas3.Schema{Ref: ref}), nil
}

func (c converter) refPtr(k *arena.Key) (*oas3.JSONSchema[oas3.Referenceable], error) {
	if k == nil {
		return nil, nil
	}
	return c.ref(*k)
}

func (c converter) refs(keys []arena.Key) ([]*oas3.JSONSchema[oas3.Referenceable], error) {
	if len(keys) == 0 {
		return nil, nil
	}
	out := make([]*oas3.JSONSchema[oas3.Referenceable], 0, len(keys))
	for _, k := range keys {
		r, err := c.ref(k)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (c converter) refMap(m map[string]arena.Key) (*schemaMap, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := newSchemaMap()
	for _, name := range sortedNames(m) {
		r, err := c.ref(m[name])
		if err != nil {
			return nil, err
		}
		out.Set(name, r)
	}
	return out, nil
}

func (c converter) schema(k arena.Key) (*oas3.Schema, error) {
	if !c.res.Arena.Has(k) {
		return nil, schemaerrors.New(schemaerrors.ReferenceNotFound, k.String(), "no such item")
	}
	it := c.res.Arena.Get(k)
	s := &oas3.Schema{
		Title:         it.Title,
		Description:   it.Description,
		Deprecated:    it.Deprecated,
		Minimum:       it.Minimum,
		Maximum:       it.Maximum,
		MultipleOf:    it.MultipleOf,
		MinLength:     int64Ptr(it.MinLength),
		MaxLength:     int64Ptr(it.MaxLength),
		MinItems:      int64Ptr(it.MinItems),
		MaxItems:      int64Ptr(it.MaxItems),
		MinProperties: int64Ptr(it.MinProperties),
		MaxProperties: int64Ptr(it.MaxProperties),
		UniqueItems:   it.UniqueItems,
		Required:      it.Required,
	}
	if it.IsNever() {
		// false has no typed form; not {} rejects every instance.
		s.Not = oas3.NewJSONSchemaFromSchema[oas3.Referenceable](&oas3.Schema{})
		return s, nil
	}

	if types := schemaTypes(it.Types); len(types) == 1 {
		s.Type = oas3.NewTypeFromString(types[0])
	} else if len(types) > 1 {
		s.Type = oas3.NewTypeFromArray(types)
	}
	if it.ExclusiveMinimum != nil {
		s.ExclusiveMinimum = oas3.NewExclusiveMinimumFromFloat64(*it.ExclusiveMinimum)
	}
	if it.ExclusiveMaximum != nil {
		s.ExclusiveMaximum = oas3.NewExclusiveMaximumFromFloat64(*it.ExclusiveMaximum)
	}

	var extra []*oas3.JSONSchema[oas3.Referenceable]
	for i, p := range it.Patterns {
		if i == 0 {
			s.Pattern = &p
			continue
		}
		extra = append(extra, oas3.NewJSONSchemaFromSchema[oas3.Referenceable](&oas3.Schema{Pattern: &p}))
	}
	for i, f := range it.Formats {
		if i == 0 {
			s.Format = &f
			continue
		}
		extra = append(extra, oas3.NewJSONSchemaFromSchema[oas3.Referenceable](&oas3.Schema{Format: &f}))
	}

	var err error
	if it.Options != nil {
		s.Enum = make([]*yaml.Node, 0, len(it.Options))
		for _, v := range it.Options {
			s.Enum = append(s.Enum, Node(v))
		}
	}
	for _, v := range it.Examples {
		s.Examples = append(s.Examples, Node(v))
	}

	if it.Reference != nil {
		if s.Ref, err = c.target(*it.Reference); err != nil {
			return nil, err
		}
	}
	if s.AllOf, err = c.refs(it.AllOf); err != nil {
		return nil, err
	}
	s.AllOf = append(s.AllOf, extra...)
	if s.AnyOf, err = c.refs(it.AnyOf); err != nil {
		return nil, err
	}
	if s.OneOf, err = c.refs(it.OneOf); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		dst **oas3.JSONSchema[oas3.Referenceable]
		src *arena.Key
	}{
		{&s.If, it.If},
		{&s.Then, it.Then},
		{&s.Else, it.Else},
		{&s.Not, it.Not},
		{&s.PropertyNames, it.PropertyNames},
		{&s.AdditionalProperties, it.MapProperties},
		{&s.Items, it.ArrayItems},
		{&s.Contains, it.Contains},
	} {
		if *f.dst, err = c.refPtr(f.src); err != nil {
			return nil, err
		}
	}
	if s.PrefixItems, err = c.refs(it.TupleItems); err != nil {
		return nil, err
	}
	if s.Properties, err = c.refMap(it.ObjectProperties); err != nil {
		return nil, err
	}
	if s.PatternProperties, err = c.refMap(it.PatternProperties); err != nil {
		return nil, err
	}
	if s.DependentSchemas, err = c.refMap(it.DependentSchemas); err != nil {
		return nil, err
	}

	inexact := it.Exact != nil && !*it.Exact
	if inexact || (c.opt.Locations && it.Location != nil) {
		s.Extensions = extensions.New()
		if inexact {
			s.Extensions.Set(ExtensionInexact, Node(true))
		}
		if c.opt.Locations && it.Location != nil {
			s.Extensions.Set(ExtensionLocation, Node(it.Location.String()))
		}
	}
	return s, nil
}

func schemaTypes(ts arena.TypeSet) []oas3.SchemaType {
	var out []oas3.SchemaType
	for _, t := range ts.Slice() {
		switch t {
		case arena.Null:
			out = append(out, oas3.SchemaTypeNull)
		case arena.Boolean:
			out = append(out, oas3.SchemaTypeBoolean)
		case arena.Integer:
			out = append(out, oas3.SchemaTypeInteger)
		case arena.Number:
			out = append(out, oas3.SchemaTypeNumber)
		case arena.String:
			out = append(out, oas3.SchemaTypeString)
		case arena.Array:
			out = append(out, oas3.SchemaTypeArray)
		case arena.Object:
			out = append(out, oas3.SchemaTypeObject)
		}
	}
	return out
}

func int64Ptr(v *uint64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}
