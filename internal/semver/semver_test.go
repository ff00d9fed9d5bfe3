package semver

import "testing"

func mustVersion(t *testing.T, raw string) Version {
	t.Helper()
	v, err := ParseVersion(raw)
	if err != nil {
		t.Fatalf("ParseVersion(%q): %v", raw, err)
	}
	return v
}

func TestSatisfies(t *testing.T) {
	c, err := ParseConstraint(" ^3.2.0 ")
	if err != nil {
		t.Fatalf("ParseConstraint: %v", err)
	}
	if c.String() != "^3.2.0" {
		t.Fatalf("expected trimmed constraint, got %q", c.String())
	}

	if !Satisfies(mustVersion(t, "3.2.0"), c) {
		t.Fatalf("expected 3.2.0 to satisfy ^3.2.0")
	}
	if !Satisfies(mustVersion(t, "3.9.9"), c) {
		t.Fatalf("expected 3.9.9 to satisfy ^3.2.0")
	}
	if Satisfies(mustVersion(t, "4.0.0"), c) {
		t.Fatalf("expected 4.0.0 to NOT satisfy ^3.2.0")
	}
	if Satisfies(Version{}, c) {
		t.Fatalf("expected zero version to satisfy nothing")
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := ParseVersion("not.a.version"); err == nil {
		t.Fatalf("expected version parse error")
	}
	if _, err := ParseConstraint("banana"); err == nil {
		t.Fatalf("expected constraint parse error")
	}
}

func TestSameVersion(t *testing.T) {
	if !SameVersion("1.2", "1.2.0") {
		t.Fatalf("expected 1.2 and 1.2.0 to be the same release")
	}
	if !SameVersion("3.8.1.Final", " 3.8.1.Final ") {
		t.Fatalf("expected verbatim match for non-semver versions")
	}
	if SameVersion("3.8.1.Final", "3.8.2.Final") {
		t.Fatalf("expected different non-semver versions to differ")
	}
	if SameVersion("1.0.0", "1.0.1") {
		t.Fatalf("expected 1.0.0 and 1.0.1 to differ")
	}
}
