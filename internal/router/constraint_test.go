package router

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidate_Keywords(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		value   string
		want    bool
	}{
		{"int digits", ConstraintInt, "123", true},
		{"int empty", ConstraintInt, "", false},
		{"int letters", ConstraintInt, "abc", false},
		{"int negative", ConstraintInt, "-1", false},
		{"int non ascii digit", ConstraintInt, "١٢", false},
		{"integer alias", ConstraintInteger, "007", true},
		{"alpha", ConstraintAlpha, "Hello", true},
		{"alpha digit", ConstraintAlpha, "abc1", false},
		{"alnum", ConstraintAlnum, "abc123XYZ", true},
		{"alnum dash", ConstraintAlnum, "abc-123", false},
		{"slug", ConstraintSlug, "hello-world-2", true},
		{"slug uppercase", ConstraintSlug, "Hello-World", false},
		{"slug empty", ConstraintSlug, "", false},
		{"slug underscore", ConstraintSlug, "hello_world", false},
		{"uuid", ConstraintUUID, "123e4567-e89b-12d3-a456-426614174000", true},
		{"uuid uppercase", ConstraintUUID, "123E4567-E89B-12D3-A456-426614174000", true},
		{"uuid short", ConstraintUUID, "123e4567-e89b-12d3-a456-42661417400", false},
		{"uuid misplaced hyphen", ConstraintUUID, "123e4567e-89b-12d3-a456-426614174000", false},
		{"uuid non hex", ConstraintUUID, "123e4567-e89b-12d3-a456-42661417400g", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.value, Keyword(tt.keyword)); got != tt.want {
				t.Errorf("Validate(%q, %s) = %v, want %v", tt.value, tt.keyword, got, tt.want)
			}
		})
	}
}

func TestValidate_GeneratedUUIDs(t *testing.T) {
	for i := 0; i < 50; i++ {
		id := uuid.NewString()
		if !Validate(id, Keyword(ConstraintUUID)) {
			t.Fatalf("Validate(%q, uuid) = false, want true", id)
		}
		if Validate(strings.ReplaceAll(id, "-", ""), Keyword(ConstraintUUID)) {
			t.Fatalf("Validate(%q without hyphens, uuid) = true, want false", id)
		}
	}
}

// Unknown keywords accept every value. This is deliberate and covered here
// so that a change to the default is noticed.
func TestValidate_UnknownKeywordIsPermissive(t *testing.T) {
	for _, value := range []string{"", "abc", "123", "!@#"} {
		if !Validate(value, Keyword("hexcolor")) {
			t.Errorf("Validate(%q, hexcolor) = false, want true", value)
		}
	}
}

func TestValidate_Predicate(t *testing.T) {
	var seen []string
	c := Predicate(func(v string) bool {
		seen = append(seen, v)
		return v == "ok"
	})

	if !Validate("ok", c) {
		t.Error("Validate(ok) = false, want true")
	}
	if Validate(" ok ", c) {
		t.Error("Validate(\" ok \") = true, want false")
	}
	if len(seen) != 2 || seen[1] != " ok " {
		t.Errorf("predicate saw %q, want raw values", seen)
	}
	if !c.IsPredicate() || c.String() != "predicate" {
		t.Errorf("IsPredicate() = %v, String() = %q", c.IsPredicate(), c.String())
	}
}

func TestConstraint_IsZero(t *testing.T) {
	var c Constraint
	if !c.IsZero() {
		t.Error("zero Constraint IsZero() = false, want true")
	}
	if !Validate("anything", c) {
		t.Error("Validate with zero Constraint = false, want true")
	}
	if Keyword(ConstraintInt).IsZero() {
		t.Error("Keyword(int).IsZero() = true, want false")
	}
}
