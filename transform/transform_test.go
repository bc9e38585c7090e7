package transform

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/speakeasy-api/schemac/arena"
)

func req(names ...string) arena.Item { return arena.Item{Required: arena.StringSet(names...)} }

func typ(t arena.Type) arena.Item { return arena.Item{Types: arena.TypeSetOf(t)} }

func permutations(rules []Rule) [][]Rule {
	if len(rules) <= 1 {
		return [][]Rule{rules}
	}
	var out [][]Rule
	for i := range rules {
		rest := make([]Rule, 0, len(rules)-1)
		rest = append(rest, rules[:i]...)
		rest = append(rest, rules[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]Rule{rules[i]}, p...))
		}
	}
	return out
}

func TestConfluence(t *testing.T) {
	seed := func() *arena.Arena {
		return arena.New(
			req("a"),
			req("b"),
			arena.Item{AllOf: arena.Set(0, 1), Required: []string{"c"}},
		)
	}
	rules := []Rule{InheritAllOf, FlattenAllOf, ResolveAllOf, ResolveSingleAllOf, Unalias}

	want := []arena.Item{
		req("a"),
		req("b"),
		req("a", "b", "c"),
		req("c"),
		req("a", "c"),
		req("b", "c"),
	}
	for i, perm := range permutations(rules) {
		a := seed()
		if _, ok := Normalize(a, perm, 20); !ok {
			t.Fatalf("permutation %d did not reach a fixed point", i)
		}
		if diff := cmp.Diff(want, a.Items()); diff != "" {
			t.Fatalf("permutation %d (-want +got):\n%s", i, diff)
		}
	}
}

func TestSingleType(t *testing.T) {
	a := arena.New(arena.Item{
		Name:      []string{"nick"},
		Types:     arena.TypeSetOf(arena.String, arena.Null),
		MinLength: ptr(uint64(1)),
		Required:  []string{"ignored"},
		Options:   []any{"x", nil},
	})
	SingleType(a, 0)

	got := a.Get(0)
	if diff := cmp.Diff([]string{"nick"}, got.Name); diff != "" {
		t.Errorf("name (-want +got):\n%s", diff)
	}
	if len(got.OneOf) != 2 || got.Types != 0 {
		t.Fatalf("expected oneOf of two, got %s", arena.Summary(got))
	}
	want := []arena.Item{
		{Types: arena.TypeSetOf(arena.Null), Options: []any{nil}},
		{Types: arena.TypeSetOf(arena.String), MinLength: ptr(uint64(1)), Options: []any{"x"}},
	}
	if diff := cmp.Diff(want, []arena.Item{a.Get(got.OneOf[0]), a.Get(got.OneOf[1])}); diff != "" {
		t.Errorf("children (-want +got):\n%s", diff)
	}
}

func TestSingleTypeWithoutMatchingOptionIsNever(t *testing.T) {
	a := arena.New(arena.Item{Types: arena.TypeSetOf(arena.String, arena.Integer), Options: []any{"a"}})
	SingleType(a, 0)
	var never int
	for _, k := range a.Get(0).OneOf {
		if a.Get(k).IsNever() {
			never++
		}
	}
	if never != 1 {
		t.Errorf("integer branch should be never, got %d never branches", never)
	}
}

func TestResolveAnyOfIntersectsGroups(t *testing.T) {
	a := arena.New(
		arena.Item{Types: arena.TypeSetOf(arena.String), MinLength: ptr(uint64(1))},
		arena.Item{Types: arena.TypeSetOf(arena.String), MinLength: ptr(uint64(3)), MaxLength: ptr(uint64(5))},
		typ(arena.Boolean),
		arena.Item{AnyOf: arena.Set(0, 1, 2)},
	)
	ResolveAnyOf(a, 3)

	got := a.Get(3)
	if len(got.OneOf) != 2 || got.AnyOf != nil {
		t.Fatalf("expected oneOf of two groups, got %s", arena.Summary(got))
	}
	if got.OneOf[0] != 2 {
		t.Errorf("a member alone in its group is reused, got %v", got.OneOf)
	}
	merged := a.Get(got.OneOf[1])
	want := arena.Item{Types: arena.TypeSetOf(arena.String), MinLength: ptr(uint64(3)), MaxLength: ptr(uint64(5)), Exact: ptr(false)}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("merged group (-want +got):\n%s", diff)
	}
}

func TestResolveAnyOfGroupAccumulatesRequired(t *testing.T) {
	a := arena.New(
		arena.Item{Types: arena.TypeSetOf(arena.Object), Required: []string{"a"}},
		arena.Item{Types: arena.TypeSetOf(arena.Object), Required: []string{"b"}},
		arena.Item{AnyOf: arena.Set(0, 1)},
	)
	ResolveAnyOf(a, 2)

	got := a.Get(2)
	if len(got.OneOf) != 1 {
		t.Fatalf("expected a single object group, got %s", arena.Summary(got))
	}
	want := arena.Item{Types: arena.TypeSetOf(arena.Object), Required: []string{"a", "b"}, Exact: ptr(false)}
	if diff := cmp.Diff(want, a.Get(got.OneOf[0])); diff != "" {
		t.Errorf("object group (-want +got):\n%s", diff)
	}
}

func TestResolveAnyOfSplicesOneOfMembers(t *testing.T) {
	a := arena.New(
		typ(arena.Null),
		arena.Item{Types: arena.TypeSetOf(arena.String), MinLength: ptr(uint64(1))},
		arena.Item{Types: arena.TypeSetOf(arena.String), MaxLength: ptr(uint64(3))},
		arena.Item{OneOf: arena.Set(0, 1)},
		arena.Item{OneOf: arena.Set(0, 2)},
		arena.Item{AnyOf: arena.Set(3, 4)},
	)
	ResolveAnyOf(a, 5)

	got := a.Get(5)
	if got.AnyOf != nil || len(got.OneOf) != 2 {
		t.Fatalf("expected oneOf of null and string, got %s", arena.Summary(got))
	}
	if got.Exact == nil || *got.Exact {
		t.Errorf("splicing a oneOf loses exclusivity and must be inexact, got %v", got.Exact)
	}
	if got.OneOf[0] != 0 {
		t.Errorf("the shared null member is reused, got %v", got.OneOf)
	}
	want := arena.Item{Types: arena.TypeSetOf(arena.String), MinLength: ptr(uint64(1)), MaxLength: ptr(uint64(3)), Exact: ptr(false)}
	if diff := cmp.Diff(want, a.Get(got.OneOf[1])); diff != "" {
		t.Errorf("string group (-want +got):\n%s", diff)
	}
}

func TestNormalizeMultiTypeAnyOfReachesSingleTypes(t *testing.T) {
	a := arena.New(
		arena.Item{Types: arena.TypeSetOf(arena.String, arena.Null), AnyOf: arena.Set(1, 2)},
		arena.Item{MinLength: ptr(uint64(1))},
		arena.Item{MaxLength: ptr(uint64(3))},
	)
	if _, ok := Normalize(a, DefaultRules(), 100); !ok {
		t.Fatal("no fixed point")
	}
	seen := map[arena.Key]bool{}
	queue := []arena.Key{0}
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		if seen[k] {
			continue
		}
		seen[k] = true
		it := a.Get(k)
		if it.Types.Len() > 1 {
			t.Errorf("key %d has several types: %s", k, arena.Summary(it))
		}
		if len(it.AnyOf) > 0 || len(it.AllOf) > 0 {
			t.Errorf("key %d keeps an unresolved compound: %s", k, arena.Summary(it))
		}
		for _, c := range it.Children() {
			queue = append(queue, c.Key)
		}
	}
}

func TestResolveAnyOfDisjointTypes(t *testing.T) {
	a := arena.New(typ(arena.String), typ(arena.Number), arena.Item{AnyOf: arena.Set(0, 1)})
	ResolveAnyOf(a, 2)
	if diff := cmp.Diff(arena.Item{OneOf: []arena.Key{0, 1}}, a.Get(2)); diff != "" {
		t.Errorf("disjoint anyOf (-want +got):\n%s", diff)
	}
	if a.Len() != 3 {
		t.Errorf("no item should be synthesized, len = %d", a.Len())
	}
}

func TestFlipAllOfOneOf(t *testing.T) {
	a := arena.New(
		req("a"),
		req("b"),
		req("c"),
		arena.Item{OneOf: arena.Set(1, 2)},
		arena.Item{Name: []string{"pet"}, AllOf: arena.Set(0, 3)},
	)
	FlipAllOfOneOf(a, 4)

	got := a.Get(4)
	if got.AllOf != nil || len(got.OneOf) != 2 || got.Name[0] != "pet" {
		t.Fatalf("flip result %s", arena.Summary(got))
	}
	var members [][]arena.Key
	for _, k := range got.OneOf {
		members = append(members, a.Get(k).AllOf)
	}
	if diff := cmp.Diff([][]arena.Key{{0, 1}, {0, 2}}, members); diff != "" {
		t.Errorf("branches (-want +got):\n%s", diff)
	}
}

func TestFlipVariants(t *testing.T) {
	tests := []struct {
		name         string
		rule         Rule
		outer, inner compound
	}{
		{"anyOf over allOf", FlipAnyOfAllOf, anyOf, allOf},
		{"anyOf over oneOf", FlipAnyOfOneOf, anyOf, oneOf},
		{"oneOf over allOf", FlipOneOfAllOf, oneOf, allOf},
		{"oneOf over anyOf", FlipOneOfAnyOf, oneOf, anyOf},
		{"allOf over anyOf", FlipAllOfAnyOf, allOf, anyOf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := arena.New(
				req("a"),
				req("b"),
				req("c"),
				tt.inner.only(1, 2),
				tt.outer.only(0, 3),
			)
			tt.rule(a, 4)

			got := a.Get(4)
			if len(tt.outer.get(got)) != 0 || len(tt.inner.get(got)) != 2 {
				t.Fatalf("flip result %s", arena.Summary(got))
			}
			var members [][]arena.Key
			for _, k := range tt.inner.get(got) {
				members = append(members, tt.outer.get(a.Get(k)))
			}
			if diff := cmp.Diff([][]arena.Key{{0, 1}, {0, 2}}, members); diff != "" {
				t.Errorf("branches (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFlipIgnoresOtherCompounds(t *testing.T) {
	a := arena.New(
		req("a"),
		req("b"),
		arena.Item{AllOf: arena.Set(0, 1)},
		arena.Item{AnyOf: arena.Set(0, 2)},
	)
	FlipAnyOfOneOf(a, 3)
	if diff := cmp.Diff(arena.Item{AnyOf: []arena.Key{0, 2}}, a.Get(3)); diff != "" {
		t.Errorf("anyOf without a oneOf member must not change (-want +got):\n%s", diff)
	}
}

func TestFlipRespectsMaxProduct(t *testing.T) {
	a := arena.New()
	var members []arena.Key
	for i := 0; i < 7; i++ {
		x := a.Add(req(fmt.Sprintf("x%d", i)))
		y := a.Add(req(fmt.Sprintf("y%d", i)))
		members = append(members, a.Add(arena.Item{OneOf: arena.Set(x, y)}))
	}
	root := a.Add(arena.Item{AllOf: arena.Set(members...)})
	FlipAllOfOneOf(a, root)
	if got := a.Get(root); got.OneOf != nil {
		t.Errorf("2^7 branches exceed the cap, flip should not fire")
	}
}

func TestResolveIfThenElse(t *testing.T) {
	a := arena.New(
		req("kind"),
		req("then"),
		req("else"),
		arena.Item{If: arena.Ref(0), Then: arena.Ref(1), Else: arena.Ref(2)},
	)
	ResolveIfThenElse(a, 3)

	got := a.Get(3)
	if got.If != nil || got.Then != nil || got.Else != nil || len(got.AllOf) != 1 {
		t.Fatalf("if/then/else not desugared: %s", arena.Summary(got))
	}
	choice := a.Get(got.AllOf[0])
	if len(choice.OneOf) != 2 {
		t.Fatalf("expected oneOf of two branches, got %s", arena.Summary(choice))
	}
	var shapes []string
	for _, k := range choice.OneOf {
		br := a.Get(k)
		for _, m := range br.AllOf {
			shapes = append(shapes, arena.Summary(a.Get(m)))
		}
	}
	if diff := cmp.Diff([]string{"any", "any", "any", "not(0)&any"}, shapes); diff != "" {
		t.Errorf("branch members (-want +got):\n%s", diff)
	}
}

func TestResolveNot(t *testing.T) {
	a := arena.New(req("b"), arena.Item{Required: []string{"a", "b"}, Not: arena.Ref(0)})
	ResolveNot(a, 1)
	if diff := cmp.Diff(req("a"), a.Get(1)); diff != "" {
		t.Errorf("resolve_not (-want +got):\n%s", diff)
	}
}

func TestResolveSingle(t *testing.T) {
	a := arena.New(typ(arena.String), arena.Item{OneOf: []arena.Key{0}}, arena.Item{AllOf: []arena.Key{0}, Reference: arena.Ref(0)})
	ResolveSingleOneOf(a, 1)
	if diff := cmp.Diff(arena.Item{Reference: arena.Ref(0)}, a.Get(1)); diff != "" {
		t.Errorf("single oneOf (-want +got):\n%s", diff)
	}
	ResolveSingleAllOf(a, 2)
	if a.Get(2).AllOf == nil {
		t.Error("an item with a reference keeps its single allOf")
	}
}

func TestUnalias(t *testing.T) {
	a := arena.New(
		arena.Item{Reference: arena.Ref(1), Name: []string{"alias"}},
		arena.Item{Reference: arena.Ref(2)},
		typ(arena.String),
		arena.Item{ObjectProperties: map[string]arena.Key{"x": 0}, AllOf: arena.Set(1, 2)},
		arena.Item{Reference: arena.Ref(5)},
		arena.Item{Reference: arena.Ref(4)},
	)
	Unalias(a, 3)
	got := a.Get(3)
	if got.ObjectProperties["x"] != 2 {
		t.Errorf("property should point at the final target, got %d", got.ObjectProperties["x"])
	}
	if diff := cmp.Diff([]arena.Key{2}, got.AllOf); diff != "" {
		t.Errorf("allOf (-want +got):\n%s", diff)
	}

	Unalias(a, 4)
	if *a.Get(4).Reference != 5 {
		t.Error("alias cycles are left alone")
	}
}

func TestPrimaryAndName(t *testing.T) {
	a := arena.New(
		arena.Item{Name: []string{"pet"}, Primary: true, ObjectProperties: map[string]arena.Key{"tag": 1}, TupleItems: []arena.Key{2}},
		typ(arena.String),
		arena.Item{Name: []string{"kept"}},
	)
	Normalize(a, []Rule{Primary, Name}, 5)

	tag := a.Get(1)
	if !tag.Primary || tag.Parent == nil || *tag.Parent != 0 {
		t.Errorf("child should be primary with parent 0: %+v", tag)
	}
	if diff := cmp.Diff([]string{"pet", "objectProperties", "tag"}, tag.Name); diff != "" {
		t.Errorf("derived name (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"kept"}, a.Get(2).Name); diff != "" {
		t.Errorf("existing names are kept (-want +got):\n%s", diff)
	}
}

func TestNormalizeExplodesTypedCompound(t *testing.T) {
	a := arena.New(
		arena.Item{Name: []string{"user"}, Types: arena.TypeSetOf(arena.Object), Required: []string{"id"}, AllOf: []arena.Key{1}},
		arena.Item{Types: arena.TypeSetOf(arena.Object), ObjectProperties: map[string]arena.Key{"name": 2}},
		typ(arena.String),
	)
	if _, ok := Normalize(a, DefaultRules(), 50); !ok {
		t.Fatal("no fixed point")
	}
	got := a.Get(0)
	want := arena.Item{
		Name:             []string{"user"},
		Types:            arena.TypeSetOf(arena.Object),
		Required:         []string{"id"},
		ObjectProperties: map[string]arena.Key{"name": 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("normalized root (-want +got):\n%s", diff)
	}
}

func TestMerge(t *testing.T) {
	a := arena.New(typ(arena.String), typ(arena.String))
	got := Merge(a,
		arena.Item{Types: arena.TypeSetOf(arena.Number), Minimum: ptr(1.0), MultipleOf: ptr(4.0), Options: []any{1.0, 2.0, 8.0}, ObjectProperties: map[string]arena.Key{"a": 0}},
		arena.Item{Types: arena.TypeSetOf(arena.Integer), Minimum: ptr(3.0), Maximum: ptr(9.0), MultipleOf: ptr(6.0), Options: []any{8.0, 2.0}, ObjectProperties: map[string]arena.Key{"a": 1}},
	)
	want := arena.Item{
		Types:            arena.TypeSetOf(arena.Integer),
		Minimum:          ptr(3.0),
		Maximum:          ptr(9.0),
		MultipleOf:       ptr(12.0),
		Options:          []any{2.0, 8.0},
		ObjectProperties: map[string]arena.Key{"a": 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merge (-want +got):\n%s", diff)
	}

	if never := Merge(a, typ(arena.String), typ(arena.Number)); !never.IsNever() {
		t.Errorf("string and number merge to never, got %s", arena.Summary(never))
	}
	disjoint := Merge(a, arena.Item{Options: []any{"a"}}, arena.Item{Options: []any{"b"}})
	if !disjoint.IsNever() {
		t.Errorf("disjoint options merge to never, got %s", arena.Summary(disjoint))
	}
}

func TestFlattenAnyOf(t *testing.T) {
	a := arena.New(
		typ(arena.String),
		arena.Item{AnyOf: arena.Set(2, 3)},
		typ(arena.Number),
		typ(arena.Boolean),
		arena.Item{AnyOf: arena.Set(0, 1)},
	)
	a.ApplyTransform(FlattenAnyOf)
	if diff := cmp.Diff([]arena.Key{0, 2, 3}, a.Get(4).AnyOf); diff != "" {
		t.Errorf("flattened anyOf (-want +got):\n%s", diff)
	}
}

func TestInheritAnyOf(t *testing.T) {
	a := arena.New(
		typ(arena.String),
		typ(arena.Number),
		arena.Item{Required: []string{"x"}, AnyOf: arena.Set(0, 1)},
	)
	InheritAnyOf(a, 2)

	got := a.Get(2)
	if len(got.Required) != 0 {
		t.Errorf("required should move into the members, got %v", got.Required)
	}
	if len(got.AnyOf) != 2 {
		t.Fatalf("expected two wrapped members, got %v", got.AnyOf)
	}
	for i, m := range got.AnyOf {
		member := a.Get(m)
		if len(member.AllOf) != 2 || member.AllOf[0] != arena.Key(i) {
			t.Errorf("member %d = %v, want allOf of %d and the inherited base", i, member.AllOf, i)
			continue
		}
		if diff := cmp.Diff([]string{"x"}, a.Get(member.AllOf[1]).Required); diff != "" {
			t.Errorf("inherited base (-want +got):\n%s", diff)
		}
	}
}
