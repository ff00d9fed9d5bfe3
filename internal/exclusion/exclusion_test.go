package exclusion

import "testing"

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern("io.acme:acme-jdbc")
	if err != nil {
		t.Fatalf("ParsePattern: %v", err)
	}
	if p.Group != "io.acme" || p.Name != "acme-jdbc" {
		t.Fatalf("unexpected pattern %+v", p)
	}

	bare, err := ParsePattern("acme-jdbc")
	if err != nil {
		t.Fatalf("ParsePattern bare: %v", err)
	}
	if bare.Group != Wildcard {
		t.Fatalf("expected bare name to wildcard the group, got %+v", bare)
	}

	for _, raw := range []string{"", "a:b:c", ":b", "a:"} {
		if _, err := ParsePattern(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestPatternWildcards(t *testing.T) {
	if !(Pattern{Group: "io.acme", Name: Wildcard}).Matches("io.acme", "anything") {
		t.Fatal("expected group wildcard to match")
	}
	if (Pattern{Group: "io.acme", Name: Wildcard}).Matches("org.other", "anything") {
		t.Fatal("expected group mismatch")
	}
	if !(Pattern{Group: Wildcard, Name: "x"}).Matches("any.group", "x") {
		t.Fatal("expected name match under any group")
	}
}

func TestSetCanonicalAndSubset(t *testing.T) {
	a := NewSet(Pattern{"g", "b"}, Pattern{"g", "a"}, Pattern{"g", "b"})
	if a.Len() != 2 {
		t.Fatalf("expected dedup to 2 patterns, got %d", a.Len())
	}
	if got := a.String(); got != "[g:a g:b]" {
		t.Fatalf("unexpected canonical form %s", got)
	}

	b := a.Union(NewSet(Pattern{"h", "c"}))
	if !a.SubsetOf(b) {
		t.Fatal("expected a ⊆ a∪c")
	}
	if b.SubsetOf(a) {
		t.Fatal("did not expect a∪c ⊆ a")
	}
	if !(Set{}).SubsetOf(a) {
		t.Fatal("empty set must be a subset of everything")
	}
	if !a.Equal(NewSet(Pattern{"g", "a"}, Pattern{"g", "b"})) {
		t.Fatal("expected equal sets")
	}
}

func TestFilterMergesAndReportsUnknown(t *testing.T) {
	f := NewFilter([]Declaration{
		{FromGroup: "io.app", FromName: "web", Excluded: []Pattern{{"io.acme", "jdbc"}}},
		{FromGroup: "io.app", FromName: "web", Excluded: []Pattern{{"io.acme", "ghost"}}},
	})

	got := f.For("io.app", "web")
	if got.Len() != 2 {
		t.Fatalf("expected merged exclusions, got %s", got)
	}
	if !f.For("io.app", "other").Empty() {
		t.Fatal("expected no exclusions for undeclared edge")
	}

	known := func(p Pattern) bool { return p.Name == "jdbc" }
	unknown := f.Unknown(known)
	if len(unknown) != 1 || unknown[0].Pattern.Name != "ghost" {
		t.Fatalf("expected ghost to be unknown, got %+v", unknown)
	}

	var nilFilter *Filter
	if !nilFilter.For("a", "b").Empty() {
		t.Fatal("nil filter excludes nothing")
	}
}
