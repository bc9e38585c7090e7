package export

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/speakeasy-api/openapi/jsonschema/oas3"
	"github.com/speakeasy-api/schemac/compiler"
	"github.com/speakeasy-api/schemac/document"
	"github.com/speakeasy-api/schemac/location"
	"gopkg.in/yaml.v3"
)

const petstore = `{
	"openapi": "3.1.0",
	"info": {"title": "Petstore", "version": "1"},
	"components": {"schemas": {
		"Pet": {
			"type": "object",
			"required": ["name"],
			"properties": {
				"name": {"type": "string", "minLength": 1},
				"kind": {"enum": ["cat", "dog"]}
			}
		},
		"Pets": {"type": "array", "items": {"$ref": "#/components/schemas/Pet"}}
	}}
}`

func compilePetstore(t *testing.T) *compiler.Result {
	t.Helper()
	opt := compiler.DefaultOptions()
	opt.LogLevel = "error"
	opt.Fetcher = document.MapFetcher{"http://x/petstore.json": petstore}
	res, err := compiler.Compile(context.Background(), []location.Location{location.MustParse("http://x/petstore.json")}, opt)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return res
}

func keyOf(t *testing.T, res *compiler.Result, raw string) *oas3.Schema {
	t.Helper()
	k, ok := res.Key(location.MustParse(raw))
	if !ok {
		t.Fatalf("%s was not populated", raw)
	}
	s, err := Schema(res, k)
	if err != nil {
		t.Fatalf("Schema(%s): %v", raw, err)
	}
	return s
}

func TestSchemaReferencesComponents(t *testing.T) {
	res := compilePetstore(t)

	pet := keyOf(t, res, "http://x/petstore.json#/components/schemas/Pet")
	if typ := pet.Type.GetRight(); typ == nil || *typ != oas3.SchemaTypeObject {
		t.Errorf("Pet should be an object, got %v", pet.Type)
	}
	if diff := cmp.Diff([]string{"name"}, pet.Required); diff != "" {
		t.Errorf("required (-want +got):\n%s", diff)
	}
	name, ok := pet.Properties.Get("name")
	if !ok || name.Left == nil || name.Left.Ref == nil {
		t.Fatalf("name should be a component reference, got %v", name)
	}
	if got := string(*name.Left.Ref); got != "#/components/schemas/Name" {
		t.Errorf("name ref = %q", got)
	}

	pets := keyOf(t, res, "http://x/petstore.json#/components/schemas/Pets")
	if pets.Items == nil || pets.Items.Left == nil || pets.Items.Left.Ref == nil {
		t.Fatal("Pets items should be a reference")
	}
	if got := string(*pets.Items.Left.Ref); got != "#/components/schemas/Pet" {
		t.Errorf("items ref = %q", got)
	}

	nameSchema := keyOf(t, res, "http://x/petstore.json#/components/schemas/Pet/properties/name")
	if nameSchema.MinLength == nil || *nameSchema.MinLength != 1 {
		t.Errorf("minLength = %v", nameSchema.MinLength)
	}
	kind := keyOf(t, res, "http://x/petstore.json#/components/schemas/Pet/properties/kind")
	var values []string
	for _, n := range kind.Enum {
		values = append(values, n.Value)
	}
	if diff := cmp.Diff([]string{"cat", "dog"}, values); diff != "" {
		t.Errorf("enum (-want +got):\n%s", diff)
	}
}

func TestDocumentWrite(t *testing.T) {
	res := compilePetstore(t)
	doc, err := Document(context.Background(), res, Options{Title: "Pets API", Version: "2"})
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	var got []string
	for name := range doc.Components.Schemas.All() {
		got = append(got, name)
	}
	if diff := cmp.Diff([]string{"Kind", "Name", "Pet", "Pets"}, sorted(got)); diff != "" {
		t.Errorf("components (-want +got):\n%s", diff)
	}

	var sb strings.Builder
	if err := Write(context.Background(), &sb, doc); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := sb.String()
	for _, want := range []string{"openapi: 3.1.0", "title: Pets API", "Pet:", "#/components/schemas/Pet"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestNode(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "null\n"},
		{true, "true\n"},
		{json.Number("3"), "3\n"},
		{json.Number("2.5"), "2.5\n"},
		{"x", "x\n"},
		{[]any{json.Number("1"), "a"}, "- 1\n- a\n"},
		{map[string]any{"b": false, "a": nil}, "a: null\nb: false\n"},
	}
	for _, tt := range tests {
		b, err := yaml.Marshal(Node(tt.in))
		if err != nil {
			t.Fatalf("Marshal(%v): %v", tt.in, err)
		}
		if got := string(b); got != tt.want {
			t.Errorf("Node(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func sorted(s []string) []string {
	out := slices.Clone(s)
	slices.Sort(out)
	return out
}
