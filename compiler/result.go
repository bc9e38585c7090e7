package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/speakeasy-api/schemac/arena"
	"github.com/speakeasy-api/schemac/document"
	"github.com/speakeasy-api/schemac/location"
	"github.com/speakeasy-api/schemac/naming"
)

// Result is a compiled set of schemas.
type Result struct {
	Context *document.Context
	Arena   *arena.Arena

	// Roots are the items the requested roots stand for, sorted.
	Roots []arena.Key
	// Keys maps every populated schema location to its original item.
	Keys map[location.Location]arena.Key
	// Names holds a unique name for every reachable item.
	Names map[arena.Key]naming.Sentence

	Passes   int
	Warnings []string
}

// Reachable returns the keys reachable from the roots through structural
// and reference edges, sorted.
func (r *Result) Reachable() []arena.Key {
	if r == nil || r.Arena == nil {
		return nil
	}
	seen := map[arena.Key]bool{}
	queue := slices.Clone(r.Roots)
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		if seen[k] || !r.Arena.Has(k) {
			continue
		}
		seen[k] = true
		for _, ch := range r.Arena.Get(k).Children() {
			if !seen[ch.Key] {
				queue = append(queue, ch.Key)
			}
		}
	}
	out := make([]arena.Key, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Key returns the item a location was populated into.
func (r *Result) Key(loc location.Location) (arena.Key, bool) {
	k, ok := r.Keys[loc]
	return k, ok
}

// Name returns the name assigned to k in PascalCase, or "" when k is not
// reachable.
func (r *Result) Name(k arena.Key) string {
	s, ok := r.Names[k]
	if !ok {
		return ""
	}
	return s.Pascal()
}

// String returns one line per reachable item.
func (r *Result) String() string {
	if r == nil {
		return "<nil>"
	}
	var sb strings.Builder
	for _, k := range r.Reachable() {
		fmt.Fprintf(&sb, "%s %s: %s\n", k, r.Name(k), arena.Summary(r.Arena.Get(k)))
	}
	return sb.String()
}
