package document

import (
	"strconv"

	schemaerrors "github.com/speakeasy-api/schemac/errors"
	"github.com/speakeasy-api/schemac/location"
)

var httpMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// walkAPI visits every schema position of an OpenAPI or Swagger description.
// The description itself is not a schema, so only those positions are owned.
func (d *Document) walkAPI(node any) error {
	root, ok := node.(map[string]any)
	if !ok {
		return schemaerrors.New(schemaerrors.InvalidDocument, d.retrieval.String(), "api description root must be an object")
	}
	w := apiWalker{doc: d}

	if d.dialect == Swagger20 {
		w.schemaMap(root["definitions"], location.Pointer{"definitions"})
		w.each(root["parameters"], location.Pointer{"parameters"}, w.parameter)
		w.each(root["responses"], location.Pointer{"responses"}, w.response)
	} else if comps, ok := root["components"].(map[string]any); ok {
		base := location.Pointer{"components"}
		w.schemaMap(comps["schemas"], base.Push("schemas"))
		w.each(comps["parameters"], base.Push("parameters"), w.parameter)
		w.each(comps["headers"], base.Push("headers"), w.parameter)
		w.each(comps["requestBodies"], base.Push("requestBodies"), w.content)
		w.each(comps["responses"], base.Push("responses"), w.response)
		w.each(comps["pathItems"], base.Push("pathItems"), w.pathItem)
		w.each(comps["callbacks"], base.Push("callbacks"), w.callback)
	}
	w.each(root["paths"], location.Pointer{"paths"}, w.pathItem)
	w.each(root["webhooks"], location.Pointer{"webhooks"}, w.pathItem)
	return w.err
}

type apiWalker struct {
	doc *Document
	err error
}

func (w *apiWalker) schema(node any, ptr location.Pointer) {
	if node == nil || w.err != nil {
		return
	}
	w.err = w.doc.walkSchema(node, ptr, false)
}

func (w *apiWalker) schemaMap(node any, ptr location.Pointer) {
	m, ok := node.(map[string]any)
	if !ok {
		return
	}
	for _, k := range sortedKeys(m) {
		w.schema(m[k], ptr.Push(k))
	}
}

// each calls fn for every non-reference object value of a map.
func (w *apiWalker) each(node any, ptr location.Pointer, fn func(map[string]any, location.Pointer)) {
	m, ok := node.(map[string]any)
	if !ok {
		return
	}
	for _, k := range sortedKeys(m) {
		if obj, ok := m[k].(map[string]any); ok && !isReference(obj) {
			fn(obj, ptr.Push(k))
		}
	}
}

func (w *apiWalker) list(node any, ptr location.Pointer, fn func(map[string]any, location.Pointer)) {
	arr, ok := node.([]any)
	if !ok {
		return
	}
	for i, v := range arr {
		if obj, ok := v.(map[string]any); ok && !isReference(obj) {
			fn(obj, ptr.Push(strconv.Itoa(i)))
		}
	}
}

func isReference(m map[string]any) bool {
	_, ok := m["$ref"].(string)
	return ok
}

func (w *apiWalker) parameter(p map[string]any, ptr location.Pointer) {
	w.schema(p["schema"], ptr.Push("schema"))
	w.content(p, ptr)
	if w.doc.dialect == Swagger20 {
		if items, ok := p["items"]; ok {
			w.schema(items, ptr.Push("items"))
		}
	}
}

func (w *apiWalker) content(obj map[string]any, ptr location.Pointer) {
	content, ok := obj["content"].(map[string]any)
	if !ok {
		return
	}
	for _, mt := range sortedKeys(content) {
		if media, ok := content[mt].(map[string]any); ok {
			w.schema(media["schema"], ptr.Push("content", mt, "schema"))
		}
	}
}

func (w *apiWalker) response(r map[string]any, ptr location.Pointer) {
	if w.doc.dialect == Swagger20 {
		w.schema(r["schema"], ptr.Push("schema"))
	}
	w.content(r, ptr)
	w.each(r["headers"], ptr.Push("headers"), w.parameter)
}

func (w *apiWalker) operation(op map[string]any, ptr location.Pointer) {
	w.list(op["parameters"], ptr.Push("parameters"), w.parameter)
	if body, ok := op["requestBody"].(map[string]any); ok && !isReference(body) {
		w.content(body, ptr.Push("requestBody"))
	}
	w.each(op["responses"], ptr.Push("responses"), w.response)
	w.each(op["callbacks"], ptr.Push("callbacks"), w.callback)
}

func (w *apiWalker) pathItem(item map[string]any, ptr location.Pointer) {
	w.list(item["parameters"], ptr.Push("parameters"), w.parameter)
	for _, m := range httpMethods {
		if op, ok := item[m].(map[string]any); ok {
			w.operation(op, ptr.Push(m))
		}
	}
}

func (w *apiWalker) callback(cb map[string]any, ptr location.Pointer) {
	w.each(cb, ptr, w.pathItem)
}
