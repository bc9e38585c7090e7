package arena

import (
	"fmt"
	"strings"

	"github.com/speakeasy-api/schemac/internal/jsonvalue"
	"github.com/speakeasy-api/schemac/internal/logging"
)

// Summary returns a compact, shallow description of an item for debug logs,
// e.g. "object{id,name}", "string(enum:(a,b))" or "oneOf(3,4)".
func Summary(it Item) string {
	var parts []string
	if it.Reference != nil {
		parts = append(parts, "ref("+it.Reference.String()+")")
	}
	compound := func(name string, keys []Key) {
		if len(keys) == 0 {
			return
		}
		ids := make([]string, len(keys))
		for i, k := range keys {
			ids[i] = k.String()
		}
		parts = append(parts, name+"("+logging.TruncateList(ids, 4)+")")
	}
	compound("allOf", it.AllOf)
	compound("anyOf", it.AnyOf)
	compound("oneOf", it.OneOf)
	if it.If != nil {
		parts = append(parts, "if")
	}
	if it.Not != nil {
		parts = append(parts, "not("+it.Not.String()+")")
	}
	if shape := shapeSummary(it); shape != "" {
		parts = append(parts, shape)
	}
	if len(parts) == 0 {
		return "Top"
	}
	return strings.Join(parts, "&")
}

func shapeSummary(it Item) string {
	if it.IsNever() {
		return "Never"
	}
	typ := it.Types.String()
	if it.Types.IsZero() {
		switch {
		case it.ObjectProperties != nil:
			typ = "object"
		case it.ArrayItems != nil || it.TupleItems != nil:
			typ = "array"
		case it.Options == nil && !it.HasInheritable():
			return ""
		default:
			typ = "any"
		}
	}

	switch {
	case it.Options != nil:
		return fmt.Sprintf("%s(enum:%s)", typ, previewOptions(it.Options, 5))
	case typ == "object" && len(it.ObjectProperties) > 0:
		return "object{" + logging.TruncateList(sortedNames(it.ObjectProperties), 5) + "}"
	case typ == "array" && len(it.TupleItems) > 0:
		return fmt.Sprintf("tuple[len=%d]", len(it.TupleItems))
	case typ == "array" && it.ArrayItems != nil:
		return "array[" + it.ArrayItems.String() + "]"
	case typ == "string" && len(it.Formats) > 0:
		return "string(" + strings.Join(it.Formats, ",") + ")"
	default:
		return typ
	}
}

func previewOptions(values []any, limit int) string {
	vals := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && !needsQuote(s) {
			vals = append(vals, s)
			continue
		}
		vals = append(vals, jsonvalue.Key(v))
	}
	return "(" + logging.TruncateList(vals, limit) + ")"
}

func needsQuote(s string) bool {
	for _, r := range s {
		if r <= ' ' || r == ',' || r == '"' || r == '\'' || r == '\\' {
			return true
		}
	}
	return s == ""
}
