// Package lint checks loaded documents against the rules of their dialect:
// schema drafts against their meta-schema, OpenAPI 3.x descriptions against
// the OpenAPI model.
package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/speakeasy-api/openapi/openapi"

	"github.com/speakeasy-api/schemac/document"
	schemaerrors "github.com/speakeasy-api/schemac/errors"
	"github.com/speakeasy-api/schemac/internal/logging"
	"github.com/speakeasy-api/schemac/location"
)

// Options configures a check.
type Options struct {
	// Logging configuration
	LogLevel string         // Log level: "error", "warn", "info", "debug" (default: "warn")
	Logger   logging.Logger // Overrides LogLevel when set
}

// DefaultOptions returns the default configuration for checks.
func DefaultOptions() Options {
	return Options{LogLevel: "warn"}
}

var drafts = map[document.Dialect]*jsonschema.Draft{
	document.Draft04:     jsonschema.Draft4,
	document.Draft06:     jsonschema.Draft6,
	document.Draft07:     jsonschema.Draft7,
	document.Draft201909: jsonschema.Draft2019,
	document.Draft202012: jsonschema.Draft2020,
}

// Check validates every top-level document of c. It returns nil or an
// errors.List of LintFailed errors, one per finding. The context is only read.
func Check(ctx context.Context, c *document.Context, opts ...Options) error {
	opt := DefaultOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	log := opt.Logger
	if log == nil {
		log = logging.New(logging.ParseLevel(opt.LogLevel), nil)
	}

	var roots []*document.Document
	for _, doc := range c.Documents() {
		// Embedded documents are checked as part of their container.
		if doc.Retrieval().Fragment() == "" {
			roots = append(roots, doc)
		}
	}

	var errs schemaerrors.List
	comp := jsonschema.NewCompiler()
	comp.UseLoader(cacheLoader{c})
	var schemas []*document.Document
	for _, doc := range roots {
		if _, ok := drafts[doc.Dialect()]; !ok {
			continue
		}
		if err := comp.AddResource(doc.Retrieval().String(), doc.Root()); err != nil {
			errs = append(errs, schemaerrors.Wrap(schemaerrors.LintFailed, doc.Retrieval().String(), err))
			continue
		}
		schemas = append(schemas, doc)
	}
	for _, doc := range schemas {
		draft, ok := drafts[doc.SchemaDialect()]
		if !ok {
			draft = drafts[doc.Dialect()]
		}
		comp.DefaultDraft(draft)
		log.Debugf("checking %s as %s", doc.Retrieval(), doc.Dialect())
		if _, err := comp.Compile(doc.Retrieval().String()); err != nil {
			errs = append(errs, schemaerrors.Wrap(schemaerrors.LintFailed, doc.Retrieval().String(), err))
		}
	}

	for _, doc := range roots {
		switch doc.Dialect() {
		case document.OpenAPI30, document.OpenAPI31:
			errs = append(errs, checkOpenAPI(ctx, doc)...)
		case document.Swagger20:
			log.Infof("skipping %s: Swagger 2.0 has no structural checks", doc.Retrieval())
		}
	}
	return errs.ErrOrNil()
}

func checkOpenAPI(ctx context.Context, doc *document.Document) []error {
	loc := doc.Retrieval().String()
	data, err := json.Marshal(doc.Root())
	if err != nil {
		return []error{schemaerrors.Wrap(schemaerrors.LintFailed, loc, err)}
	}
	_, validationErrs, err := openapi.Unmarshal(ctx, bytes.NewReader(data))
	if err != nil {
		return []error{schemaerrors.Wrap(schemaerrors.LintFailed, loc, err)}
	}
	out := make([]error, 0, len(validationErrs))
	for _, v := range validationErrs {
		out = append(out, schemaerrors.Wrap(schemaerrors.LintFailed, loc, v))
	}
	return out
}

// cacheLoader serves the compiler from the node cache so that checking never
// fetches.
type cacheLoader struct {
	c *document.Context
}

func (l cacheLoader) Load(url string) (any, error) {
	loc, err := location.Parse(url)
	if err != nil {
		return nil, err
	}
	node, ok := l.c.Node(loc.FetchForm())
	if !ok {
		return nil, fmt.Errorf("%s is not loaded", url)
	}
	return node, nil
}
