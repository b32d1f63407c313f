package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/classifier"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveRunAndDistribution(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	rows := []Row{
		{RecordID: "r1", DamageType: "Drilling_Damage", Severity: 2, HasSeverity: true},
		{RecordID: "r2", DamageType: "Drilling_Damage", Severity: 4, HasSeverity: true},
		{RecordID: "r3", DamageType: "No_Damage", Severity: 0, HasSeverity: true},
		{RecordID: "r4", DamageType: "Scale_Formation", Anomaly: "ph=15 clamped to 14"},
	}
	run, err := s.SaveRun(ctx, Run{RuleTable: "embedded rules", Seed: 1<<63 + 5, Input: "wells.csv"}, rows)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if run.ID == "" || run.Rows != 4 {
		t.Fatalf("run = %+v, want generated id and 4 rows", run)
	}

	got, err := s.Distribution(ctx, run.ID)
	if err != nil {
		t.Fatalf("Distribution: %v", err)
	}
	want := []Count{
		{DamageType: "Drilling_Damage", Rows: 2, MeanSeverity: 3, HasSeverity: true},
		{DamageType: "No_Damage", Rows: 1, MeanSeverity: 0, HasSeverity: true},
		{DamageType: "Scale_Formation", Rows: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("distribution mismatch (-want +got):\n%s", diff)
	}

	stored, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if stored.Seed != 1<<63+5 || stored.Input != "wells.csv" || !stored.StartedAt.Equal(run.StartedAt) {
		t.Fatalf("stored run = %+v, want %+v", stored, run)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if _, err := s.SaveRun(ctx, Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Hour)}, nil); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"c", "b"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestListRuns_SubsecondOrder(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	whole := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for id, at := range map[string]time.Time{
		"older": whole,
		"newer": whole.Add(500 * time.Millisecond),
	} {
		if _, err := s.SaveRun(ctx, Run{ID: id, StartedAt: at}, nil); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != "newer" {
		t.Fatalf("ListRuns(1) = %+v, want the run started at 12:00:00.5", runs)
	}
	if !runs[0].StartedAt.Equal(whole.Add(500 * time.Millisecond)) {
		t.Errorf("StartedAt = %v", runs[0].StartedAt)
	}
}

func TestDistribution_UnknownRun(t *testing.T) {
	s := openTemp(t)
	if _, err := s.Distribution(context.Background(), "nope"); !apperr.IsUser(err) {
		t.Fatalf("error = %v, want user error", err)
	}
	if _, err := s.GetRun(context.Background(), "nope"); !apperr.IsUser(err) {
		t.Fatalf("error = %v, want user error", err)
	}
}

func TestSaveRun_DuplicateID(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if _, err := s.SaveRun(ctx, Run{ID: "x"}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveRun(ctx, Run{ID: "x"}, nil); err == nil {
		t.Fatal("expected error for duplicate run id")
	}
}

func TestRowsFromResults(t *testing.T) {
	results := []classifier.Result{
		{Index: 0, Assessment: dataset.Assessment{RecordID: "a", DamageType: "No_Damage", HasSeverity: true}},
		{Index: 1, Assessment: dataset.Assessment{RecordID: "b", DamageType: "Clay_Swelling", Anomalies: []string{"x", "y"}}},
		{Index: 2, Assessment: dataset.Assessment{RecordID: "c"}, Err: errors.New("ph out of range")},
	}
	want := []Row{
		{RecordID: "a", DamageType: "No_Damage", HasSeverity: true},
		{RecordID: "b", DamageType: "Clay_Swelling", Anomaly: "x; y"},
		{RecordID: "c", Anomaly: "rejected: ph out of range"},
	}
	if diff := cmp.Diff(want, RowsFromResults(results)); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}
