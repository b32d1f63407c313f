package fdm

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/generator"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/tableio"
)

func sample(t *testing.T, c *Classifier) *Table {
	t.Helper()
	tbl, err := generator.Generate(context.Background(), generator.Options{
		Wells:          []string{"w1", "w2"},
		RecordsPerWell: 40,
		Seed:           3,
		Schema:         c.Schema(),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return tbl
}

func TestClassifyTableDeterministic(t *testing.T) {
	ctx := context.Background()
	one, err := New(Options{Seed: 11, Workers: 1, Severity: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	many, err := New(Options{Seed: 11, Workers: 8, Severity: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tbl := sample(t, one)

	_, a, err := one.ClassifyTable(ctx, tbl)
	if err != nil {
		t.Fatalf("ClassifyTable: %v", err)
	}
	_, b, err := many.ClassifyTable(ctx, tbl)
	if err != nil {
		t.Fatalf("ClassifyTable: %v", err)
	}
	if a.Rows != 80 {
		t.Errorf("Rows = %d, want 80", a.Rows)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("summary depends on worker count (-1 worker +8 workers):\n%s", diff)
	}
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	if _, err := New(Options{BoundsPolicy: "ignore"}); !apperr.IsUser(err) {
		t.Errorf("bad policy: err = %v, want a user error", err)
	}

	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("sentinel: Missing\ndamage_types: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Options{RulesPath: path}); !apperr.IsConfiguration(err) {
		t.Errorf("bad rule table: err = %v, want a configuration error", err)
	}
}

func TestClassifyFile(t *testing.T) {
	c, err := New(Options{Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dir := t.TempDir()
	in := filepath.Join(dir, "wells.csv")
	out := filepath.Join(dir, "out.xlsx")
	if err := tableio.Write(sample(t, c), in, ""); err != nil {
		t.Fatalf("write input: %v", err)
	}

	sum, err := c.ClassifyFile(context.Background(), in, out)
	if err != nil {
		t.Fatalf("ClassifyFile: %v", err)
	}
	total := sum.Rejected
	for _, n := range sum.Counts {
		total += n
	}
	if total != sum.Rows {
		t.Errorf("counts cover %d of %d rows", total, sum.Rows)
	}

	got, err := tableio.Read(out, "", c.Schema())
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !got.HasColumn("damage_type") {
		t.Error("output lacks damage_type")
	}
	if len(c.DamageTypes()) == 0 {
		t.Error("DamageTypes is empty")
	}
}
