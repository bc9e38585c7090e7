// Package compiler runs the whole pipeline: load documents, populate an
// arena with one item per schema node, normalize it and name the result.
package compiler

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/speakeasy-api/schemac/arena"
	"github.com/speakeasy-api/schemac/document"
	"github.com/speakeasy-api/schemac/internal/logging"
	"github.com/speakeasy-api/schemac/location"
	"github.com/speakeasy-api/schemac/naming"
	"github.com/speakeasy-api/schemac/transform"
)

// Compile loads every root, and every document the roots reach, then
// normalizes and names the schemas.
//
// Example:
//
//	res, err := compiler.Compile(ctx, []location.Location{location.MustParse("file:///tmp/pet.json")})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, k := range res.Reachable() {
//	    fmt.Println(res.Names[k].Pascal())
//	}
func Compile(ctx context.Context, roots []location.Location, opts ...Options) (*Result, error) {
	opt := DefaultOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	log := opt.logger()
	c := document.NewContext(opt.contextOptions(log)...)
	for _, root := range roots {
		if err := c.LoadFromLocation(ctx, root, location.Location{}, location.Location{}, c.DefaultDialect()); err != nil {
			return nil, err
		}
	}
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	return compile(c, roots, opt, log)
}

// CompileNode compiles an in-memory root document addressed as root.
func CompileNode(ctx context.Context, root location.Location, node any, opts ...Options) (*Result, error) {
	opt := DefaultOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	log := opt.logger()
	c := document.NewContext(opt.contextOptions(log)...)
	if err := c.LoadRootNode(ctx, root, node); err != nil {
		return nil, err
	}
	return compile(c, []location.Location{root}, opt, log)
}

func compile(c *document.Context, roots []location.Location, opt Options, log logging.Logger) (*Result, error) {
	p := newPopulator(c)
	if err := p.populate(); err != nil {
		return nil, err
	}
	res := &Result{Context: c, Arena: p.arena, Keys: p.keys}

	for _, root := range roots {
		locs, err := rootLocations(c, root)
		if err != nil {
			return nil, err
		}
		for _, loc := range locs {
			k, err := p.key(loc)
			if err != nil {
				return nil, err
			}
			it := p.arena.Get(k)
			it.Primary = true
			p.arena.Replace(k, it)
			res.Roots = append(res.Roots, k)
		}
	}
	if err := p.drain(); err != nil {
		return nil, err
	}
	res.Roots = arena.Set(res.Roots...)
	log.Infof("populated %d items from %d documents", p.arena.Len(), len(c.Documents()))

	limit := opt.MaxIterations
	if limit <= 0 {
		limit = DefaultOptions().MaxIterations
	}
	passes, ok := transform.Normalize(p.arena, opt.rules(), limit)
	res.Passes = passes
	if !ok {
		w := fmt.Sprintf("no fixed point after %d passes", passes)
		res.Warnings = append(res.Warnings, w)
		log.Warnf("%s; continuing with the partially normalized arena", w)
	}
	log.Debugf("normalized in %d passes, %d items", passes, p.arena.Len())

	res.Names = nameKeys(p.arena, res.Reachable())
	return res, nil
}

// rootLocations returns the retrieval-space locations of the schemas a root
// stands for: the node it points at for a schema document, or every
// top-level schema position for an API description.
func rootLocations(c *document.Context, root location.Location) ([]location.Location, error) {
	doc, err := c.Document(root)
	if err != nil {
		return nil, err
	}
	if doc.Dialect().IsSchemaDraft() || root.Fragment() != "" {
		target := root
		if root.Fragment() == "" {
			target = doc.Identity()
		}
		loc, err := c.Resolve(target)
		if err != nil {
			return nil, err
		}
		return []location.Location{loc}, nil
	}

	var out []location.Location
	for _, raw := range doc.Pointers() {
		ptr, err := location.ParsePointer(raw)
		if err != nil {
			return nil, err
		}
		if topLevel(doc, ptr) {
			out = append(out, doc.NodeLocation(ptr))
		}
	}
	return out, nil
}

// topLevel reports whether no ancestor of ptr is itself a schema.
func topLevel(doc *document.Document, ptr location.Pointer) bool {
	for p := ptr.Parent(); len(p) > 0; p = p.Parent() {
		if doc.Owns(p) {
			return false
		}
	}
	return len(ptr) > 0 || doc.Dialect().IsSchemaDraft()
}

// documentName is the base name a document lends to its schemas.
func documentName(doc *document.Document) string {
	id := doc.Identity()
	var last string
	if segs := id.Path(); len(segs) > 0 {
		last = segs[len(segs)-1]
	}
	if strings.HasSuffix(id.Origin(), ":") {
		parts := strings.Split(last, ":")
		last = parts[len(parts)-1]
	}
	last = strings.TrimSuffix(last, path.Ext(last))
	if last == "" {
		return "schema"
	}
	return last
}

func nameKeys(a *arena.Arena, keys []arena.Key) map[arena.Key]naming.Sentence {
	b := naming.NewBuilder[arena.Key]()
	for _, k := range keys {
		it := a.Get(k)
		var fragments []naming.Sentence
		if it.Identity != nil {
			if segs := it.Identity.Path(); len(segs) > 0 {
				base := segs[len(segs)-1]
				fragments = append(fragments, naming.NewSentence(strings.TrimSuffix(base, path.Ext(base))))
			}
		}
		fragments = append(fragments, naming.FromPath(it.Name)...)
		b.Add(k, fragments...)
	}
	return b.Build()
}
