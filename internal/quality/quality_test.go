package quality

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

func testSchema(t *testing.T) *dataset.Schema {
	t.Helper()
	s, err := dataset.ParseSchema([]byte(`
fields:
  - {name: ph, kind: numeric, hard_min: 0, hard_max: 14}
  - {name: permeability, kind: numeric, hard_min: 0}
  - {name: fluid_type, kind: categorical, categories: [Water-Based, Oil-Based]}
  - {name: torque, kind: numeric}
`), "test")
	if err != nil {
		t.Fatalf("ParseSchema: %v", err)
	}
	return s
}

func TestCheck(t *testing.T) {
	s := testSchema(t)
	cols := []dataset.Column{
		{Name: "ph", Kind: dataset.KindNumeric},
		{Name: "permeability", Kind: dataset.KindNumeric},
		{Name: "fluid_type", Kind: dataset.KindCategorical},
	}
	tbl := dataset.NewTable("", cols, []dataset.Record{
		dataset.NewRecord("a", map[string]float64{"ph": 7, "permeability": 100}, map[string]string{"fluid_type": "Oil-Based"}),
		dataset.NewRecord("b", map[string]float64{"ph": 15, "permeability": -3}, map[string]string{"fluid_type": "Mud"}),
		dataset.NewRecord("c", map[string]float64{"ph": -1}, nil),
	})

	rep := Check(tbl, s)
	if rep.Total != 12 || rep.Passed != 7 {
		t.Fatalf("Passed/Total = %d/%d, want 7/12", rep.Passed, rep.Total)
	}
	if diff := cmp.Diff([]string{"torque"}, rep.MissingColumns); diff != "" {
		t.Fatalf("MissingColumns mismatch (-want +got):\n%s", diff)
	}
	ph, _ := rep.Column("ph")
	if ph.BelowHard != 1 || ph.AboveHard != 1 || ph.Missing != 0 {
		t.Fatalf("ph = %+v", ph)
	}
	perm, _ := rep.Column("permeability")
	if perm.BelowHard != 1 || perm.Missing != 1 {
		t.Fatalf("permeability = %+v", perm)
	}
	ft, _ := rep.Column("fluid_type")
	if ft.UnknownCategories != 1 || ft.Missing != 1 {
		t.Fatalf("fluid_type = %+v", ft)
	}
	if got := len(rep.Incomplete()); got != 3 {
		t.Fatalf("Incomplete() = %d columns, want 3", got)
	}
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(&buf)
	defer SetLogger(nil)

	PrintReport(Report{Score: 0.5, Passed: 1, Total: 2, Rows: 1, MissingColumns: []string{"ph"},
		Columns: []ColumnReport{{Name: "rop", Missing: 1}, {Name: "wob"}}})

	out := buf.String()
	if !strings.Contains(out, "score=50.0%") || !strings.Contains(out, "missing columns: ph") {
		t.Fatalf("output = %q", out)
	}
	if !strings.Contains(out, "rop: missing=1") || strings.Contains(out, "wob:") {
		t.Fatalf("column lines = %q", out)
	}
}
