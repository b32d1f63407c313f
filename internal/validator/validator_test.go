package validator

import (
	"fmt"
	"testing"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

func testSchema(t *testing.T) *dataset.Schema {
	t.Helper()
	s, err := dataset.ParseSchema([]byte(`
fields:
  - {name: ph, kind: numeric, hard_min: 0, hard_max: 14}
  - {name: fluid_type, kind: categorical, categories: [Water-Based, Oil-Based]}
`), "test")
	if err != nil {
		t.Fatalf("ParseSchema: %v", err)
	}
	return s
}

var columns = []dataset.Column{
	{Name: "ph", Kind: dataset.KindNumeric},
	{Name: "fluid_type", Kind: dataset.KindCategorical},
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestValidate_NilTable(t *testing.T) {
	result := Validate(nil, testSchema(t), ValidationOptions{})
	if result.Valid || len(result.Errors) == 0 {
		t.Error("expected validation to fail for nil table")
	}
}

func TestValidate_EmptyTable(t *testing.T) {
	result := Validate(dataset.NewTable("", columns, nil), testSchema(t), ValidationOptions{})
	if result.Valid {
		t.Error("expected validation to fail for a table without records")
	}
}

func TestValidate_ValidTable(t *testing.T) {
	tbl := dataset.NewTable("", columns, []dataset.Record{
		dataset.NewRecord("a", map[string]float64{"ph": 7}, map[string]string{"fluid_type": "Oil-Based"}),
	})
	result := Validate(tbl, testSchema(t), ValidationOptions{StrictMode: true, MinCompletenessScore: 1})
	if !result.Valid {
		t.Errorf("expected validation to pass, got errors: %v", result.Errors)
	}
	if result.CompletenessScore != 1 {
		t.Errorf("CompletenessScore = %v, want 1", result.CompletenessScore)
	}
}

func TestValidate_BoundsAreWarningsUnlessStrict(t *testing.T) {
	tbl := dataset.NewTable("", columns, []dataset.Record{
		dataset.NewRecord("a", map[string]float64{"ph": 15}, map[string]string{"fluid_type": "Mayonnaise"}),
	})
	lax := Validate(tbl, testSchema(t), ValidationOptions{})
	if !lax.Valid || len(lax.Warnings) != 2 {
		t.Fatalf("lax: valid=%v warnings=%v errors=%v", lax.Valid, lax.Warnings, lax.Errors)
	}

	strict := Validate(tbl, testSchema(t), ValidationOptions{StrictMode: true})
	if strict.Valid {
		t.Fatal("expected strict validation to fail")
	}
	want := "record a: ph=15 outside physical bounds [0, 14]"
	if !containsString(strict.Errors, want) {
		t.Fatalf("expected %q in %v", want, strict.Errors)
	}
}

func TestValidate_DuplicatesAndScore(t *testing.T) {
	tbl := dataset.NewTable("", columns, []dataset.Record{
		dataset.NewRecord("a", map[string]float64{"ph": 7}, nil),
		dataset.NewRecord("a", map[string]float64{"ph": 8}, nil),
	})
	opts := ValidationOptions{StrictMode: true, MinCompletenessScore: 0.9}
	result := Validate(tbl, testSchema(t), opts)
	if result.Valid {
		t.Fatal("expected validation to fail")
	}
	if !containsString(result.Errors, `duplicate record_id "a" (rows 1 and 2)`) {
		t.Fatalf("expected duplicate error, got %v", result.Errors)
	}
	scoreMsg := fmt.Sprintf("completeness score %.2f below minimum %.2f", result.CompletenessScore, opts.MinCompletenessScore)
	if !containsString(result.Errors, scoreMsg) {
		t.Fatalf("expected score threshold error, got %v", result.Errors)
	}
}

func TestValidate_ColumnKindMismatch(t *testing.T) {
	tbl := dataset.NewTable("", []dataset.Column{{Name: "ph", Kind: dataset.KindCategorical}, {Name: "extra", Kind: dataset.KindNumeric}}, []dataset.Record{
		dataset.NewRecord("a", nil, map[string]string{"ph": "neutral"}),
	})
	result := Validate(tbl, testSchema(t), ValidationOptions{})
	if !containsString(result.Errors, "column ph: expected numeric values, found categorical") {
		t.Fatalf("errors = %v", result.Errors)
	}
	if !containsString(result.Warnings, "column extra is not declared in the schema") {
		t.Fatalf("warnings = %v", result.Warnings)
	}
}
