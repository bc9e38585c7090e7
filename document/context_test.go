package document

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/google/go-cmp/cmp"
	schemaerrors "github.com/speakeasy-api/schemac/errors"
	"github.com/speakeasy-api/schemac/location"
)

// countingFetcher serves in-memory documents and records each fetch.
type countingFetcher struct {
	docs  MapFetcher
	calls map[string]int
}

func newCountingFetcher(docs map[string]string) *countingFetcher {
	return &countingFetcher{docs: docs, calls: map[string]int{}}
}

func (f *countingFetcher) Fetch(ctx context.Context, loc location.Location) ([]byte, error) {
	f.calls[loc.String()]++
	return f.docs.Fetch(ctx, loc)
}

func TestLoadDiamondBuildsOneDocument(t *testing.T) {
	f := newCountingFetcher(map[string]string{
		"http://x/a.json": `{"$schema":"https://json-schema.org/draft/2020-12/schema",
			"properties":{"left":{"$ref":"b.json"},"right":{"$ref":"c.json"}}}`,
		"http://x/b.json": `{"properties":{"shared":{"$ref":"d.json#/$defs/s"}}}`,
		"http://x/c.json": `{"properties":{"shared":{"$ref":"d.json#/$defs/s"}}}`,
		"http://x/d.json": `{"$defs":{"s":{"type":"string"}}}`,
	})
	c := NewContext(WithFetcher(f))

	if err := c.LoadRoot(context.Background(), location.MustParse("http://x/a.json")); err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}

	if got := len(c.Documents()); got != 4 {
		t.Fatalf("expected 4 documents, got %d", got)
	}
	for loc, n := range f.calls {
		if n != 1 {
			t.Errorf("%s fetched %d times", loc, n)
		}
	}
	d, err := c.Document(location.MustParse("http://x/d.json#/$defs/s"))
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if d.Dialect() != Draft202012 {
		t.Errorf("referenced document should inherit the referrer's dialect, got %s", d.Dialect())
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	f := newCountingFetcher(map[string]string{
		"http://x/a.json": `{"type":"object"}`,
	})
	c := NewContext(WithFetcher(f))
	ctx := context.Background()
	root := location.MustParse("http://x/a.json")

	for i := 0; i < 2; i++ {
		if err := c.LoadFromLocation(ctx, root, location.Location{}, location.Location{}, Draft07); err != nil {
			t.Fatalf("LoadFromLocation #%d: %v", i, err)
		}
		if err := c.Load(ctx); err != nil {
			t.Fatalf("Load #%d: %v", i, err)
		}
	}
	if f.calls["http://x/a.json"] != 1 {
		t.Errorf("expected a single fetch, got %d", f.calls["http://x/a.json"])
	}
	if len(c.Documents()) != 1 {
		t.Errorf("expected a single document, got %d", len(c.Documents()))
	}
}

func TestEmbeddedDocumentSatisfiesReferenceWithoutFetch(t *testing.T) {
	f := newCountingFetcher(map[string]string{
		"http://x/root.json": `{
			"$id": "http://x/root.json",
			"properties": {"b": {"$ref": "http://x/b"}},
			"$defs": {"b": {"$id": "http://x/b", "type": "object", "properties": {"c": {"$ref": "#/$defs/c"}},
				"$defs": {"c": {"type": "integer"}}}}
		}`,
	})
	c := NewContext(WithFetcher(f))
	if err := c.LoadRoot(context.Background(), location.MustParse("http://x/root.json")); err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}
	if len(f.calls) != 1 {
		t.Fatalf("expected only the root to be fetched, got %v", f.calls)
	}

	root, err := c.Document(location.MustParse("http://x/root.json"))
	if err != nil {
		t.Fatal(err)
	}
	if root.Owns(location.Pointer{"$defs", "b"}) {
		t.Errorf("embedded document root must not be owned by its parent")
	}
	if diff := cmp.Diff([]string{"", "/properties/b"}, root.Pointers()); diff != "" {
		t.Errorf("root pointers (-want +got):\n%s", diff)
	}

	b, err := c.Document(location.MustParse("http://x/b"))
	if err != nil {
		t.Fatal(err)
	}
	if ante, ok := b.Antecedent(); !ok || ante != root.Identity() {
		t.Errorf("embedded antecedent = %v, %v", ante, ok)
	}

	got, err := c.ResolveReference(b, "#/$defs/c")
	if err != nil {
		t.Fatalf("ResolveReference: %v", err)
	}
	if want := "http://x/root.json#/$defs/b/$defs/c"; got.String() != want {
		t.Errorf("resolved to %s, want %s", got, want)
	}
}

func TestAnchors(t *testing.T) {
	docs := map[string]string{
		"http://x/07.json": `{"$schema":"http://json-schema.org/draft-07/schema#",
			"definitions":{"a":{"$id":"#named","type":"string"}}}`,
		"http://x/12.json": `{"$defs":{"a":{"$anchor":"named","type":"string"},"d":{"$dynamicAnchor":"dyn"}}}`,
	}
	c := NewContext(WithFetcher(MapFetcher(docs)))
	ctx := context.Background()
	for loc := range docs {
		if err := c.LoadRoot(ctx, location.MustParse(loc)); err != nil {
			t.Fatalf("LoadRoot(%s): %v", loc, err)
		}
	}

	tests := []struct {
		ref, want string
	}{
		{"http://x/07.json#named", "http://x/07.json#/definitions/a"},
		{"http://x/12.json#named", "http://x/12.json#/$defs/a"},
		{"http://x/12.json#dyn", "http://x/12.json#/$defs/d"},
	}
	for _, tt := range tests {
		got, err := c.Resolve(location.MustParse(tt.ref))
		if err != nil {
			t.Errorf("Resolve(%s): %v", tt.ref, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("Resolve(%s) = %s, want %s", tt.ref, got, tt.want)
		}
	}
}

func TestResolveDynamicReference(t *testing.T) {
	docs := MapFetcher{
		"https://example.com/tree": `{"$id":"https://example.com/tree","$dynamicAnchor":"node","type":"object",
			"properties":{"children":{"type":"array","items":{"$dynamicRef":"#node"}}}}`,
		"https://example.com/strict-tree": `{"$id":"https://example.com/strict-tree","$dynamicAnchor":"node",
			"$ref":"tree","unevaluatedProperties":false}`,
	}
	ctx := context.Background()

	c := NewContext(WithFetcher(docs))
	if err := c.LoadRoot(ctx, location.MustParse("https://example.com/strict-tree")); err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}
	tree, err := c.Document(location.MustParse("https://example.com/tree"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.ResolveDynamicReference(tree, "#node")
	if err != nil {
		t.Fatalf("ResolveDynamicReference: %v", err)
	}
	if got.String() != "https://example.com/strict-tree" {
		t.Errorf("dynamic scope should pick the outermost anchor, got %s", got)
	}

	alone := NewContext(WithFetcher(docs))
	if err := alone.LoadRoot(ctx, location.MustParse("https://example.com/tree")); err != nil {
		t.Fatal(err)
	}
	tree, _ = alone.Document(location.MustParse("https://example.com/tree"))
	got, err = alone.ResolveDynamicReference(tree, "#node")
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "https://example.com/tree" {
		t.Errorf("without an outer scope the anchor resolves locally, got %s", got)
	}
}

func TestRecursiveReference(t *testing.T) {
	docs := MapFetcher{
		"https://example.com/base": `{"$schema":"https://json-schema.org/draft/2019-09/schema","$recursiveAnchor":true,
			"properties":{"next":{"$recursiveRef":"#"}}}`,
		"https://example.com/ext": `{"$schema":"https://json-schema.org/draft/2019-09/schema","$recursiveAnchor":true,
			"$ref":"base"}`,
	}
	c := NewContext(WithFetcher(docs))
	if err := c.LoadRoot(context.Background(), location.MustParse("https://example.com/ext")); err != nil {
		t.Fatal(err)
	}
	f, err := c.Facts(location.MustParse("https://example.com/base#/properties/next"))
	if err != nil {
		t.Fatal(err)
	}
	if f.Reference == nil || f.Reference.String() != "https://example.com/ext" {
		t.Errorf("$recursiveRef should resolve to the outermost recursive anchor, got %v", f.Reference)
	}
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		docs MapFetcher
		kind schemaerrors.Kind
	}{
		{"fetch", MapFetcher{"http://x/a.json": `{"$ref":"missing.json"}`}, schemaerrors.FetchFailed},
		{"parse", MapFetcher{"http://x/a.json": `{"type": }`}, schemaerrors.ParseFailed},
		{"dialect", MapFetcher{"http://x/a.json": `{"openapi":"4.0.0"}`}, schemaerrors.UnknownDialect},
		{"duplicate identity", MapFetcher{
			"http://x/a.json": `{"$id":"http://x/same","properties":{"b":{"$ref":"b.json"}}}`,
			"http://x/b.json": `{"$id":"http://x/same","type":"string"}`,
		}, schemaerrors.DuplicateRoot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContext(WithFetcher(tt.docs))
			err := c.LoadRoot(ctx, location.MustParse("http://x/a.json"))
			if !schemaerrors.IsKind(err, tt.kind) {
				t.Fatalf("expected %s, got %v", tt.kind, err)
			}
			if tt.kind == schemaerrors.FetchFailed && !errors.Is(err, fs.ErrNotExist) {
				t.Errorf("fetch error should wrap the fetcher's cause: %v", err)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	c := NewContext(WithFetcher(MapFetcher{"http://x/a.json": `{"$defs":{"a":{"type":"string"}}}`}))
	if err := c.LoadRoot(context.Background(), location.MustParse("http://x/a.json")); err != nil {
		t.Fatal(err)
	}
	doc, _ := c.Document(location.MustParse("http://x/a.json"))

	if _, err := c.ResolveReference(doc, "#nope"); !schemaerrors.IsKind(err, schemaerrors.AnchorNotFound) {
		t.Errorf("expected AnchorNotFound, got %v", err)
	}
	if _, err := c.ResolveReference(doc, "#/$defs/b"); !schemaerrors.IsKind(err, schemaerrors.ReferenceNotFound) {
		t.Errorf("expected ReferenceNotFound, got %v", err)
	}
	if _, err := c.ResolveReference(doc, "other.json"); !schemaerrors.IsKind(err, schemaerrors.DocumentNotFound) {
		t.Errorf("expected DocumentNotFound, got %v", err)
	}
}

func TestLoadFromNodeConflict(t *testing.T) {
	c := NewContext()
	loc := location.MustParse("mem://a")
	if err := c.LoadFromNode(loc, location.Location{}, location.Location{}, map[string]any{"type": "string"}, Draft202012); err != nil {
		t.Fatal(err)
	}
	if err := c.LoadFromNode(loc, location.Location{}, location.Location{}, map[string]any{"type": "string"}, Draft202012); err != nil {
		t.Errorf("identical content must be accepted: %v", err)
	}
	err := c.LoadFromNode(loc, location.Location{}, location.Location{}, map[string]any{"type": "number"}, Draft202012)
	if !schemaerrors.IsKind(err, schemaerrors.DuplicateRoot) {
		t.Errorf("expected DuplicateRoot, got %v", err)
	}
}

func TestOpenAPISchemaPositions(t *testing.T) {
	api := `
openapi: 3.0.3
info: {title: pets, version: "1"}
paths:
  /pets:
    get:
      parameters:
        - name: limit
          in: query
          schema: {type: integer}
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: array
                items: {$ref: '#/components/schemas/Pet'}
components:
  schemas:
    Pet:
      type: object
      nullable: true
      properties:
        name: {type: string}
`
	c := NewContext(WithFetcher(MapFetcher{"file:///api/pets.yaml": api}))
	if err := c.LoadRoot(context.Background(), location.MustParse("file:///api/pets.yaml")); err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}
	doc, _ := c.Document(location.MustParse("file:///api/pets.yaml"))
	if doc.Dialect() != OpenAPI30 {
		t.Fatalf("dialect = %s", doc.Dialect())
	}
	want := []string{
		"/components/schemas/Pet",
		"/components/schemas/Pet/properties/name",
		"/paths/~1pets/get/parameters/0/schema",
		"/paths/~1pets/get/responses/200/content/application~1json/schema",
		"/paths/~1pets/get/responses/200/content/application~1json/schema/items",
	}
	if diff := cmp.Diff(want, doc.Pointers()); diff != "" {
		t.Errorf("schema positions (-want +got):\n%s", diff)
	}

	f, err := c.Facts(location.MustParse("file:///api/pets.yaml#/components/schemas/Pet"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"object", "null"}, f.Types); diff != "" {
		t.Errorf("nullable types (-want +got):\n%s", diff)
	}
}

func TestDetectDialect(t *testing.T) {
	tests := []struct {
		node any
		want Dialect
	}{
		{map[string]any{"$schema": "http://json-schema.org/draft-04/schema#"}, Draft04},
		{map[string]any{"$schema": "https://json-schema.org/draft/2019-09/schema"}, Draft201909},
		{map[string]any{"openapi": "3.1.0"}, OpenAPI31},
		{map[string]any{"swagger": "2.0"}, Swagger20},
		{map[string]any{"type": "string"}, Draft06},
		{true, Draft06},
	}
	for _, tt := range tests {
		got, err := DetectDialect(tt.node, Draft06)
		if err != nil || got != tt.want {
			t.Errorf("DetectDialect(%v) = %s, %v; want %s", tt.node, got, err, tt.want)
		}
	}
	if _, err := DetectDialect(map[string]any{"$schema": "urn:unknown"}, DialectUnknown); !schemaerrors.IsKind(err, schemaerrors.UnknownDialect) {
		t.Errorf("expected UnknownDialect, got %v", err)
	}
	if d, ok := ParseDialect("2020-12"); !ok || d != Draft202012 {
		t.Errorf("ParseDialect(2020-12) = %s, %v", d, ok)
	}
}

func TestOpenAPI30FollowsReferencesIntoSchemaFiles(t *testing.T) {
	c := NewContext(WithFetcher(MapFetcher{
		"http://x/api.json": `{"openapi": "3.0.3", "info": {"title": "t", "version": "1"},
			"components": {"schemas": {"Pet": {"$ref": "pet.json"}}}}`,
		"http://x/pet.json": `{"type": "object", "properties": {"tag": {"$ref": "tag.json"}}}`,
		"http://x/tag.json": `{"type": "string", "nullable": true}`,
	}))
	if err := c.LoadRoot(context.Background(), location.MustParse("http://x/api.json")); err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}

	pet, err := c.Document(location.MustParse("http://x/pet.json"))
	if err != nil {
		t.Fatalf("pet.json: %v", err)
	}
	if pet.Dialect() != OpenAPI30 {
		t.Errorf("pet.json dialect = %s", pet.Dialect())
	}
	if diff := cmp.Diff([]string{"", "/properties/tag"}, pet.Pointers()); diff != "" {
		t.Errorf("pet.json nodes (-want +got):\n%s", diff)
	}
	if _, err := c.Document(location.MustParse("http://x/tag.json")); err != nil {
		t.Errorf("tag.json should be loaded: %v", err)
	}
	f, err := c.Facts(location.MustParse("http://x/tag.json"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"string", "null"}, f.Types); diff != "" {
		t.Errorf("tag types follow the OpenAPI 3.0 rules (-want +got):\n%s", diff)
	}
}

func TestSwaggerSchemaPositions(t *testing.T) {
	api := `
swagger: "2.0"
info: {title: pets, version: "1"}
definitions:
  Pet:
    type: object
    properties:
      tag: {type: string}
parameters:
  body: {name: body, in: body, schema: {$ref: '#/definitions/Pet'}}
  ids: {name: ids, in: query, type: array, items: {type: integer}}
responses:
  NotFound: {description: missing, schema: {type: string}}
paths:
  /pets:
    get:
      responses:
        "200":
          description: ok
          schema:
            type: array
            items: {$ref: '#/definitions/Pet'}
`
	c := NewContext(WithFetcher(MapFetcher{"file:///api/swagger.yaml": api}))
	if err := c.LoadRoot(context.Background(), location.MustParse("file:///api/swagger.yaml")); err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}
	doc, _ := c.Document(location.MustParse("file:///api/swagger.yaml"))
	if doc.Dialect() != Swagger20 {
		t.Fatalf("dialect = %s", doc.Dialect())
	}
	want := []string{
		"/definitions/Pet",
		"/definitions/Pet/properties/tag",
		"/parameters/body/schema",
		"/parameters/ids/items",
		"/paths/~1pets/get/responses/200/schema",
		"/paths/~1pets/get/responses/200/schema/items",
		"/responses/NotFound/schema",
	}
	if diff := cmp.Diff(want, doc.Pointers()); diff != "" {
		t.Errorf("schema positions (-want +got):\n%s", diff)
	}
}
