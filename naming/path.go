package naming

import "strconv"

// containers are path segments that group schemas without naming them.
var containers = map[string]bool{
	"$defs":             true,
	"definitions":       true,
	"properties":        true,
	"objectProperties":  true,
	"patternProperties": true,
	"dependentSchemas":  true,
	"dependencies":      true,
	"components":        true,
	"schemas":           true,
	"paths":             true,
	"content":           true,
	"allOf":             true,
	"anyOf":             true,
	"oneOf":             true,
	"prefixItems":       true,
	"tupleItems":        true,
	"ref":               true,
}

// renames give positional keywords a readable word.
var renames = map[string]string{
	"items":                "item",
	"arrayItems":           "item",
	"additionalItems":      "item",
	"additionalProperties": "value",
	"mapProperties":        "value",
	"propertyNames":        "key",
	"requestBody":          "request",
	"requestBodies":        "request",
	"responses":            "response",
	"parameters":           "parameter",
}

// FromPath turns a structural path, such as a document name followed by
// pointer segments, into candidate fragments in reading order. Container
// keywords are dropped and numeric segments attach to the fragment before
// them.
func FromPath(segments []string) []Sentence {
	var out []Sentence
	for _, seg := range segments {
		if containers[seg] || seg == "" {
			continue
		}
		if _, err := strconv.Atoi(seg); err == nil {
			if len(out) > 0 {
				out[len(out)-1] = Join(out[len(out)-1], Sentence{seg})
				continue
			}
		}
		if r, ok := renames[seg]; ok {
			seg = r
		}
		if s := NewSentence(seg); len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}
