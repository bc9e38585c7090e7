package document

import (
	schemaerrors "github.com/speakeasy-api/schemac/errors"
	"github.com/speakeasy-api/schemac/location"
)

// Resolve maps an absolute identity-space location to the retrieval-space
// location of the node it names. Every node therefore has exactly one
// canonical location, however it was reached.
func (c *Context) Resolve(target location.Location) (location.Location, error) {
	doc, err := c.Document(target)
	if err != nil {
		return location.Location{}, err
	}
	if a, ok := target.Anchor(); ok {
		ptr, ok := doc.Anchor(a)
		if !ok {
			return location.Location{}, schemaerrors.New(schemaerrors.AnchorNotFound, target.String(),
				"document %s has no anchor %q", doc.identity, a)
		}
		return doc.NodeLocation(ptr), nil
	}
	ptr, _ := target.Pointer()
	loc := doc.NodeLocation(ptr)
	if _, ok := c.nodes[loc]; !ok {
		return location.Location{}, schemaerrors.New(schemaerrors.ReferenceNotFound, target.String(), "no node at %s", loc)
	}
	return loc, nil
}

// ResolveReference resolves a $ref value written inside from.
func (c *Context) ResolveReference(from *Document, ref string) (location.Location, error) {
	target, err := from.identity.JoinString(ref)
	if err != nil {
		return location.Location{}, err
	}
	return c.Resolve(target)
}

// ResolveDynamicReference resolves a $dynamicRef value written inside from.
// The antecedent chain of from is searched outermost document first; the
// first document registering the anchor as dynamic wins. With no match the
// reference resolves statically.
func (c *Context) ResolveDynamicReference(from *Document, ref string) (location.Location, error) {
	chain := c.antecedents(from)
	for i := len(chain) - 1; i >= 0; i-- {
		target, err := chain[i].identity.JoinString(ref)
		if err != nil {
			return location.Location{}, err
		}
		a, ok := target.Anchor()
		if !ok {
			continue
		}
		doc, err := c.Document(target)
		if err != nil {
			continue
		}
		if ptr, ok := doc.DynamicAnchor(a); ok {
			return doc.NodeLocation(ptr), nil
		}
	}
	return c.ResolveReference(from, ref)
}

// resolveRecursiveReference resolves a 2019-09 $recursiveRef. When the static
// target's resource sets $recursiveAnchor, the outermost document along the
// antecedent chain that also sets it wins.
func (c *Context) resolveRecursiveReference(from *Document, ref string) (location.Location, error) {
	static, err := c.ResolveReference(from, ref)
	if err != nil {
		return location.Location{}, err
	}
	target, ok := c.Owner(static)
	if !ok {
		return static, nil
	}
	if ptr, ok := target.DynamicAnchor(""); !ok || len(ptr) != 0 {
		return static, nil
	}
	chain := c.antecedents(from)
	for i := len(chain) - 1; i >= 0; i-- {
		if ptr, ok := chain[i].DynamicAnchor(""); ok && len(ptr) == 0 {
			return chain[i].NodeLocation(ptr), nil
		}
	}
	return static, nil
}

// antecedents returns from followed by each antecedent up to the outermost.
func (c *Context) antecedents(from *Document) []*Document {
	chain := []*Document{from}
	seen := map[location.Location]bool{from.identity: true}
	for cur := from; ; {
		id, ok := cur.Antecedent()
		if !ok || seen[id] {
			return chain
		}
		next, ok := c.documents[id]
		if !ok {
			return chain
		}
		seen[id] = true
		chain = append(chain, next)
		cur = next
	}
}
