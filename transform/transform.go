// Package transform holds the rewrite rules that normalize an arena, and the
// driver that applies them until nothing changes.
package transform

import (
	"encoding/json"
	"fmt"

	"github.com/speakeasy-api/schemac/arena"
)

// Rule is a single-key rewrite. See arena.Rule.
type Rule = arena.Rule

// MaxProduct caps the number of branches a distribution may produce. Above
// the cap the flip does nothing.
const MaxProduct = 64

// Compose returns a rule applying each rule in order at the same key.
func Compose(rules ...Rule) Rule {
	return func(a *arena.Arena, k arena.Key) {
		for _, r := range rules {
			r(a, k)
		}
	}
}

// DefaultRules returns the rule set used by the compiler, in application
// order. Only the flips that move oneOf and anyOf outward over allOf are
// included, so no two flips undo each other.
func DefaultRules() []Rule {
	return []Rule{
		Unalias,
		SingleType,
		Explode,
		InheritReference,
		InheritAllOf,
		InheritAnyOf,
		InheritOneOf,
		ResolveIfThenElse,
		ResolveNot,
		FlattenAllOf,
		FlattenAnyOf,
		FlattenOneOf,
		FlipAllOfOneOf,
		FlipAllOfAnyOf,
		ResolveSingleAllOf,
		ResolveSingleAnyOf,
		ResolveSingleOneOf,
		ResolveAllOf,
		ResolveAnyOf,
		Primary,
		Name,
	}
}

// Normalize applies the composite of rules over the whole arena until a pass
// changes nothing. It returns the number of passes run and whether a fixed
// point was reached within maxIterations.
func Normalize(a *arena.Arena, rules []Rule, maxIterations int) (int, bool) {
	composite := Compose(rules...)
	for pass := 1; pass <= maxIterations; pass++ {
		if a.ApplyTransform(composite) == 0 {
			return pass, true
		}
	}
	return maxIterations, false
}

// memo hash-conses a synthesized item: an equal item built earlier is
// returned instead of a fresh key.
func memo(a *arena.Arena, it arena.Item) arena.Key {
	return a.AddMemo(signature(a, it), func() arena.Item { return it })
}

func signature(a *arena.Arena, it arena.Item) string {
	b, err := json.Marshal(it.Bare())
	if err != nil {
		return "fp:" + a.FingerprintItem(it)
	}
	exact := "?"
	if it.Exact != nil {
		exact = fmt.Sprint(*it.Exact)
	}
	return exact + string(b)
}

func keys(p *arena.Key) []arena.Key {
	if p == nil {
		return nil
	}
	return []arena.Key{*p}
}

func without(list []arena.Key, k arena.Key) []arena.Key {
	var out []arena.Key
	for _, m := range list {
		if m != k {
			out = append(out, m)
		}
	}
	return out
}
