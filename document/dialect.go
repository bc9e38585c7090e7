package document

import (
	"strings"

	schemaerrors "github.com/speakeasy-api/schemac/errors"
)

// Dialect identifies a JSON Schema draft or a schema-carrying API description format.
type Dialect uint8

const (
	DialectUnknown Dialect = iota
	Draft04
	Draft06
	Draft07
	Draft201909
	Draft202012
	OpenAPI30
	OpenAPI31
	Swagger20
)

var dialectNames = map[Dialect]string{
	DialectUnknown: "unknown",
	Draft04:        "draft-04",
	Draft06:        "draft-06",
	Draft07:        "draft-07",
	Draft201909:    "2019-09",
	Draft202012:    "2020-12",
	OpenAPI30:      "openapi-3.0",
	OpenAPI31:      "openapi-3.1",
	Swagger20:      "swagger-2.0",
}

func (d Dialect) String() string {
	if s, ok := dialectNames[d]; ok {
		return s
	}
	return "unknown"
}

// IsSchemaDraft reports whether d is a plain JSON Schema draft.
func (d Dialect) IsSchemaDraft() bool {
	return d >= Draft04 && d <= Draft202012
}

// $schema URIs with the scheme and any trailing '#' removed.
var schemaURIs = map[string]Dialect{
	"json-schema.org/draft-04/schema":                Draft04,
	"json-schema.org/draft-06/schema":                Draft06,
	"json-schema.org/draft-07/schema":                Draft07,
	"json-schema.org/draft/2019-09/schema":           Draft201909,
	"json-schema.org/draft/2020-12/schema":           Draft202012,
	"spec.openapis.org/oas/3.1/dialect/base":         Draft202012,
	"spec.openapis.org/oas/3.1/dialect/2024-10-25":   Draft202012,
	"spec.openapis.org/oas/3.0/schema/2021-09-28":    OpenAPI30,
	"swagger.io/v2/schema.json":                      Swagger20,
	"json-schema.org/draft-04/hyper-schema":          Draft04,
	"json-schema.org/draft-07/hyper-schema":          Draft07,
	"json-schema.org/draft/2019-09/hyper-schema":     Draft201909,
	"json-schema.org/draft/2020-12/hyper-schema":     Draft202012,
}

// ParseDialect accepts a $schema URI or a short name such as "2020-12" or "draft-07".
func ParseDialect(s string) (Dialect, bool) {
	key := strings.TrimSuffix(strings.TrimSpace(s), "#")
	key = strings.TrimPrefix(strings.TrimPrefix(key, "https://"), "http://")
	if d, ok := schemaURIs[key]; ok {
		return d, true
	}
	short := strings.ToLower(key)
	for d, name := range dialectNames {
		if d != DialectUnknown && short == name {
			return d, true
		}
	}
	switch short {
	case "draft4", "draft-4":
		return Draft04, true
	case "draft6", "draft-6":
		return Draft06, true
	case "draft7", "draft-7":
		return Draft07, true
	case "draft2019-09", "draft-2019-09":
		return Draft201909, true
	case "draft2020-12", "draft-2020-12":
		return Draft202012, true
	}
	return DialectUnknown, false
}

// DetectDialect reads the dialect tag of a root node: $schema for schema
// documents, the openapi or swagger version for API descriptions. Untagged
// nodes get fallback. An unrecognized $schema with no fallback is an error.
func DetectDialect(node any, fallback Dialect) (Dialect, error) {
	m, ok := node.(map[string]any)
	if !ok {
		return orFallback(fallback, "")
	}
	if v, ok := m["openapi"].(string); ok {
		if strings.HasPrefix(v, "3.0") {
			return OpenAPI30, nil
		}
		if strings.HasPrefix(v, "3.") {
			return OpenAPI31, nil
		}
		return DialectUnknown, schemaerrors.New(schemaerrors.UnknownDialect, "", "unsupported openapi version %q", v)
	}
	if v, ok := m["swagger"].(string); ok {
		if v == "2.0" {
			return Swagger20, nil
		}
		return DialectUnknown, schemaerrors.New(schemaerrors.UnknownDialect, "", "unsupported swagger version %q", v)
	}
	if s, ok := m["$schema"].(string); ok {
		if d, ok := ParseDialect(s); ok {
			return d, nil
		}
		return orFallback(fallback, s)
	}
	return orFallback(fallback, "")
}

func orFallback(fallback Dialect, tag string) (Dialect, error) {
	if fallback != DialectUnknown {
		return fallback, nil
	}
	if tag != "" {
		return DialectUnknown, schemaerrors.New(schemaerrors.UnknownDialect, "", "unrecognized $schema %q", tag)
	}
	return DialectUnknown, schemaerrors.New(schemaerrors.UnknownDialect, "", "document has no dialect tag and no default dialect was given")
}

// rules describes how one dialect lays out schema objects.
type rules struct {
	identity       string // "id", "$id", or "" when schema objects cannot declare one
	anchors        bool   // $anchor
	dynamic        bool   // $dynamicAnchor / $dynamicRef
	recursive      bool   // $recursiveAnchor / $recursiveRef
	refOverrides   bool   // siblings of $ref are ignored
	tupleItems     bool   // items may be an array of schemas
	prefixItems    bool
	boolExclusive  bool   // exclusiveMinimum/Maximum are booleans modifying minimum/maximum
	dependencies   string // "dependencies" or "dependentSchemas"
	nullable       string // "nullable", "x-nullable" or ""
	definitions    []string
	singles        []string
	arrays         []string
	maps           []string
}

var (
	draft04Rules = rules{
		identity:      "id",
		refOverrides:  true,
		tupleItems:    true,
		boolExclusive: true,
		dependencies:  "dependencies",
		definitions:   []string{"definitions"},
		singles:       []string{"not", "items", "additionalItems", "additionalProperties"},
		arrays:        []string{"allOf", "anyOf", "oneOf", "items"},
		maps:          []string{"properties", "patternProperties", "dependencies", "definitions"},
	}
	draft06Rules = rules{
		identity:     "$id",
		refOverrides: true,
		tupleItems:   true,
		dependencies: "dependencies",
		definitions:  []string{"definitions"},
		singles:      []string{"not", "items", "additionalItems", "additionalProperties", "propertyNames", "contains"},
		arrays:       []string{"allOf", "anyOf", "oneOf", "items"},
		maps:         []string{"properties", "patternProperties", "dependencies", "definitions"},
	}
	draft07Rules = rules{
		identity:     "$id",
		refOverrides: true,
		tupleItems:   true,
		dependencies: "dependencies",
		definitions:  []string{"definitions"},
		singles:      []string{"not", "items", "additionalItems", "additionalProperties", "propertyNames", "contains", "if", "then", "else"},
		arrays:       []string{"allOf", "anyOf", "oneOf", "items"},
		maps:         []string{"properties", "patternProperties", "dependencies", "definitions"},
	}
	draft201909Rules = rules{
		identity:     "$id",
		anchors:      true,
		recursive:    true,
		tupleItems:   true,
		dependencies: "dependentSchemas",
		definitions:  []string{"$defs", "definitions"},
		singles: []string{"not", "items", "additionalItems", "additionalProperties", "propertyNames", "contains",
			"if", "then", "else", "unevaluatedItems", "unevaluatedProperties", "contentSchema"},
		arrays: []string{"allOf", "anyOf", "oneOf", "items"},
		maps:   []string{"properties", "patternProperties", "dependentSchemas", "$defs", "definitions"},
	}
	draft202012Rules = rules{
		identity:     "$id",
		anchors:      true,
		dynamic:      true,
		prefixItems:  true,
		dependencies: "dependentSchemas",
		definitions:  []string{"$defs", "definitions"},
		singles: []string{"not", "items", "additionalProperties", "propertyNames", "contains",
			"if", "then", "else", "unevaluatedItems", "unevaluatedProperties", "contentSchema"},
		arrays: []string{"allOf", "anyOf", "oneOf", "prefixItems"},
		maps:   []string{"properties", "patternProperties", "dependentSchemas", "$defs", "definitions"},
	}
	openAPI30Rules = rules{
		refOverrides:  true,
		boolExclusive: true,
		nullable:      "nullable",
		singles:       []string{"not", "items", "additionalProperties"},
		arrays:        []string{"allOf", "anyOf", "oneOf"},
		maps:          []string{"properties"},
	}
	swagger20Rules = rules{
		refOverrides:  true,
		boolExclusive: true,
		nullable:      "x-nullable",
		singles:       []string{"items", "additionalProperties"},
		arrays:        []string{"allOf"},
		maps:          []string{"properties"},
	}
)

// schemaRules returns the schema-object rules for d. OpenAPI 3.1 schema
// objects follow 2020-12.
func schemaRules(d Dialect) rules {
	switch d {
	case Draft04:
		return draft04Rules
	case Draft06:
		return draft06Rules
	case Draft07:
		return draft07Rules
	case Draft201909:
		return draft201909Rules
	case Draft202012, OpenAPI31:
		return draft202012Rules
	case OpenAPI30:
		return openAPI30Rules
	case Swagger20:
		return swagger20Rules
	default:
		return draft202012Rules
	}
}
