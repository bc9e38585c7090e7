package document

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strconv"

	schemaerrors "github.com/speakeasy-api/schemac/errors"
	"github.com/speakeasy-api/schemac/internal/logging"
	"github.com/speakeasy-api/schemac/location"
)

// Context loads schema documents, builds one Document per retrieval
// location and resolves references across everything it has loaded.
// It is not safe for concurrent use.
type Context struct {
	fetcher        Fetcher
	parser         Parser
	log            logging.Logger
	defaultDialect Dialect

	nodes      map[location.Location]any
	documents  map[location.Location]*Document          // identity -> document
	retrievals map[location.Location]location.Location  // retrieval -> identity
	owners     map[location.Location]location.Location  // node location -> identity

	queue    workQueue
	deferred workQueue
	fetches  int
}

// Option configures a Context.
type Option func(*Context)

// WithFetcher sets the fetch collaborator.
func WithFetcher(f Fetcher) Option {
	return func(c *Context) { c.fetcher = f }
}

// WithParser sets the parse collaborator.
func WithParser(p Parser) Option {
	return func(c *Context) { c.parser = p }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Context) { c.log = logging.OrNop(l) }
}

// WithDefaultDialect sets the dialect used for untagged root documents.
func WithDefaultDialect(d Dialect) Option {
	return func(c *Context) { c.defaultDialect = d }
}

// NewContext creates an empty Context. By default it reads files and
// http(s) URLs, parses JSON or YAML, and treats untagged documents as 2020-12.
func NewContext(opts ...Option) *Context {
	c := &Context{
		fetcher:        DefaultFetcher(),
		parser:         DefaultParser,
		log:            logging.Nop(),
		defaultDialect: Draft202012,
		nodes:          map[location.Location]any{},
		documents:      map[location.Location]*Document{},
		retrievals:     map[location.Location]location.Location{},
		owners:         map[location.Location]location.Location{},
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With(map[string]any{"stage": "load"})
	return c
}

// DefaultDialect returns the dialect used for untagged root documents.
func (c *Context) DefaultDialect() Dialect { return c.defaultDialect }

// Fetches returns how many times the fetch collaborator has been called.
func (c *Context) Fetches() int { return c.fetches }

// LoadFromLocation fetches and caches the document at retrieval (unless it
// is cached already) and queues it for construction. A zero given defaults
// to retrieval; a zero antecedent means none.
func (c *Context) LoadFromLocation(ctx context.Context, retrieval, given, antecedent location.Location, dialect Dialect) error {
	retrieval = retrieval.FetchForm()
	if given.IsZero() {
		given = retrieval
	}
	if _, ok := c.nodes[retrieval]; !ok {
		c.fetches++
		data, err := fetch(ctx, c.fetcher, retrieval)
		if err != nil {
			return err
		}
		node, err := c.parser(retrieval, data)
		if err != nil {
			var se *schemaerrors.Error
			if !errors.As(err, &se) {
				err = schemaerrors.Wrap(schemaerrors.ParseFailed, retrieval.String(), err)
			}
			return err
		}
		c.cache(retrieval, node)
		c.log.Infof("fetched %s (%d bytes)", retrieval, len(data))
	}
	c.queue.push(loadRequest{retrieval: retrieval, given: given, antecedent: antecedent, dialect: dialect})
	return nil
}

// LoadFromNode queues an already-parsed node for construction. Loading a
// retrieval location that is cached with different content is a
// DuplicateRoot error.
func (c *Context) LoadFromNode(retrieval, given, antecedent location.Location, node any, dialect Dialect) error {
	if given.IsZero() {
		given = retrieval
	}
	if cached, ok := c.nodes[retrieval]; ok {
		if !reflect.DeepEqual(cached, node) {
			return schemaerrors.New(schemaerrors.DuplicateRoot, retrieval.String(), "location already loaded with different content")
		}
	} else {
		c.cache(retrieval, node)
	}
	c.queue.push(loadRequest{retrieval: retrieval, given: given, antecedent: antecedent, dialect: dialect})
	return nil
}

// LoadRoot loads loc and everything it reaches.
func (c *Context) LoadRoot(ctx context.Context, loc location.Location) error {
	if err := c.LoadFromLocation(ctx, loc, location.Location{}, location.Location{}, c.defaultDialect); err != nil {
		return err
	}
	return c.Load(ctx)
}

// LoadRootNode loads an in-memory root document and everything it reaches.
func (c *Context) LoadRootNode(ctx context.Context, loc location.Location, node any) error {
	if err := c.LoadFromNode(loc.FetchForm(), location.Location{}, location.Location{}, node, c.defaultDialect); err != nil {
		return err
	}
	return c.Load(ctx)
}

// Load drains the work queue. Referenced documents that are not already
// known are fetched only once no in-memory work remains, so identities
// declared by embedded documents are registered before anything is fetched.
func (c *Context) Load(ctx context.Context) error {
	for {
		if r, ok := c.queue.pop(); ok {
			if err := c.build(r); err != nil {
				return err
			}
			continue
		}
		r, ok := c.deferred.pop()
		if !ok {
			return nil
		}
		if _, err := c.Document(r.retrieval); err == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.LoadFromLocation(ctx, r.retrieval, r.given, r.antecedent, r.dialect); err != nil {
			return err
		}
	}
}

func (c *Context) build(r loadRequest) error {
	if _, done := c.retrievals[r.retrieval]; done {
		return nil
	}
	node, ok := c.nodes[r.retrieval]
	if !ok {
		return schemaerrors.New(schemaerrors.DocumentNotFound, r.retrieval.String(), "no cached node")
	}
	dialect, err := DetectDialect(node, r.dialect)
	if err != nil {
		return withLocation(err, r.retrieval)
	}
	doc, err := newDocument(dialect, r.retrieval, r.given, r.antecedent, node)
	if err != nil {
		return withLocation(err, r.retrieval)
	}

	if existing, ok := c.documents[doc.identity]; ok {
		if !reflect.DeepEqual(existing.root, doc.root) {
			return schemaerrors.New(schemaerrors.DuplicateRoot, r.retrieval.String(),
				"identity %s already loaded from %s", doc.identity, existing.retrieval)
		}
		c.retrievals[r.retrieval] = existing.identity
		return nil
	}

	c.retrievals[r.retrieval] = doc.identity
	c.documents[doc.identity] = doc
	for p := range doc.nodes {
		ptr, _ := location.ParsePointer(p)
		c.owners[doc.NodeLocation(ptr)] = doc.identity
	}

	for _, e := range doc.embedded {
		if err := c.LoadFromNode(doc.NodeLocation(e.Pointer), doc.identity, doc.identity, e.Node, doc.schemaDialect); err != nil {
			return err
		}
	}
	for _, ref := range doc.references {
		target := ref.FetchForm()
		c.deferred.push(loadRequest{retrieval: target, given: target, antecedent: doc.identity, dialect: doc.schemaDialect})
	}

	c.log.With(map[string]any{
		"identity": doc.identity,
		"dialect":  doc.dialect,
	}).Debugf("built document: %d nodes, %d references, %d embedded", len(doc.nodes), len(doc.references), len(doc.embedded))
	return nil
}

func withLocation(err error, loc location.Location) error {
	var se *schemaerrors.Error
	if errors.As(err, &se) && se.Location == "" {
		se.Location = loc.String()
	}
	return err
}

// cache records node and every value beneath it under root.
func (c *Context) cache(root location.Location, node any) {
	var walk func(v any, ptr location.Pointer)
	walk = func(v any, ptr location.Pointer) {
		c.nodes[root.PushPointer(ptr...)] = v
		switch t := v.(type) {
		case map[string]any:
			for k, child := range t {
				walk(child, ptr.Push(k))
			}
		case []any:
			for i, child := range t {
				walk(child, ptr.Push(strconv.Itoa(i)))
			}
		}
	}
	walk(node, nil)
}

// Node returns the raw node cached at a retrieval-space location.
func (c *Context) Node(loc location.Location) (any, bool) {
	n, ok := c.nodes[loc]
	return n, ok
}

// Document returns the document whose identity or retrieval location is loc
// (without its fragment).
func (c *Context) Document(loc location.Location) (*Document, error) {
	key := loc.FetchForm()
	if d, ok := c.documents[key]; ok {
		return d, nil
	}
	if id, ok := c.retrievals[key]; ok {
		return c.documents[id], nil
	}
	if id, ok := c.retrievals[loc]; ok {
		return c.documents[id], nil
	}
	return nil, schemaerrors.New(schemaerrors.DocumentNotFound, loc.String(), "no document loaded for this location")
}

// Documents returns every loaded document ordered by identity.
func (c *Context) Documents() []*Document {
	out := make([]*Document, 0, len(c.documents))
	for _, d := range c.documents {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].identity.String() < out[j].identity.String()
	})
	return out
}

// Owner returns the document that owns the node at a retrieval-space
// location. Nodes outside any owned position belong to the nearest owning ancestor.
func (c *Context) Owner(loc location.Location) (*Document, bool) {
	ptr, ok := loc.Pointer()
	if !ok {
		return nil, false
	}
	for {
		l := loc.WithPointer(ptr)
		if id, ok := c.owners[l]; ok {
			return c.documents[id], true
		}
		if id, ok := c.retrievals[l]; ok {
			return c.documents[id], true
		}
		if len(ptr) == 0 {
			return nil, false
		}
		ptr = ptr.Parent()
	}
}

// SchemaLocations lists the retrieval-space location of every owned schema
// node of every document, sorted.
func (c *Context) SchemaLocations() []location.Location {
	out := make([]location.Location, 0, len(c.owners))
	for l := range c.owners {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
