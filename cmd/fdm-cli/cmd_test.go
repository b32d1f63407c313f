package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/classifier"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/outlier"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/practicality"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/preprocess"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/store"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/tableio"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

func TestResolveLogLevel(t *testing.T) {
	tests := []struct {
		value   string
		want    string
		wantErr bool
	}{
		{"", levelStandard, false},
		{"QUIET", levelQuiet, false},
		{" debug ", levelDebug, false},
		{"verbose", "", true},
	}
	for _, tt := range tests {
		viper.Set("testcmd.log-level", tt.value)
		got, err := resolveLogLevel("testcmd")
		if (err != nil) != tt.wantErr {
			t.Fatalf("resolveLogLevel(%q) err = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("resolveLogLevel(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
	viper.Set("testcmd.log-level", nil)
}

func TestSplitList(t *testing.T) {
	got := splitList([]string{"ph, permeability", "", " viscosity ", ","})
	want := []string{"ph", "permeability", "viscosity"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("splitList mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultOutputPath(t *testing.T) {
	tests := map[string]string{
		"data/wells.csv": "data/wells_classified.csv",
		"wells.xlsx":     "wells_classified.xlsx",
		"wells":          "wells_classified",
	}
	for in, want := range tests {
		if got := defaultOutputPath(in, "classified"); got != want {
			t.Errorf("defaultOutputPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHistoryPath(t *testing.T) {
	if got := historyPath("runs.db"); got != "runs.db" {
		t.Errorf("historyPath(explicit) = %q", got)
	}
	if got := historyPath(""); !strings.HasSuffix(got, filepath.Join(".fdm-cli", "history.db")) {
		t.Errorf("historyPath(\"\") = %q", got)
	}
}

func TestImputeOptions(t *testing.T) {
	viper.Set("clean.impute", "mean")
	viper.Set("clean.impute-column", []string{"ph=median,viscosity=mean"})
	viper.Set("clean.categorical", false)
	defer func() {
		viper.Set("clean.impute", nil)
		viper.Set("clean.impute-column", nil)
		viper.Set("clean.categorical", nil)
	}()

	got, err := imputeOptions()
	if err != nil {
		t.Fatalf("imputeOptions: %v", err)
	}
	want := preprocess.ImputeOptions{
		Default: preprocess.StrategyMean,
		PerColumn: map[string]preprocess.Strategy{
			"ph":        preprocess.StrategyMedian,
			"viscosity": preprocess.StrategyMean,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("imputeOptions mismatch (-want +got):\n%s", diff)
	}

	viper.Set("clean.impute-column", []string{"ph"})
	if _, err := imputeOptions(); err == nil {
		t.Error("expected an error for an entry without '='")
	}
}

func TestOutlierReport(t *testing.T) {
	rep := outlier.Report{
		Rows:    10,
		Flagged: []int{2, 7},
		Bounds: map[string]outlier.Bounds{
			"ph":  {Lower: 4, Upper: 9},
			"api": {Lower: 10, Upper: 50},
		},
		Detections: []outlier.Detection{
			{Column: "ph", Method: outlier.MethodIQR, Flagged: []int{2, 7}},
			{Column: "api", Method: outlier.MethodIQR},
		},
	}
	got := outlierReport(rep, outlier.MethodIQR)
	want := ui.OutlierReport{
		Method:  "iqr",
		Rows:    10,
		Flagged: 2,
		Columns: []ui.OutlierColumn{
			{Name: "api", Lower: 10, Upper: 50},
			{Name: "ph", Lower: 4, Upper: 9, Flagged: 2},
		},
		Diagnostics: []string{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("outlierReport mismatch (-want +got):\n%s", diff)
	}
}

func TestPracticalityReportOrder(t *testing.T) {
	got := practicalityReport(practicality.Summary{
		Rows:      9,
		Practical: 6,
		ByType:    map[string]int{"Scaling": 2, "Clay_Swelling": 2, "Sand_Production": 2},
	})
	want := []ui.LabelCount{{Label: "Clay_Swelling", Count: 2}, {Label: "Sand_Production", Count: 2}, {Label: "Scaling", Count: 2}}
	if diff := cmp.Diff(want, got.ByType); diff != "" {
		t.Errorf("ByType order mismatch (-want +got):\n%s", diff)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := GetRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGenerateClassifyHistory(t *testing.T) {
	dir := t.TempDir()
	wells := filepath.Join(dir, "wells.csv")
	classified := filepath.Join(dir, "classified.json")
	db := filepath.Join(dir, "history.db")

	if _, err := execute(t, "generate", "--output", wells, "--wells", "w1,w2",
		"--records-per-well", "25", "--seed", "7", "--log-level", "quiet", "--yes"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := execute(t, "classify", "--input", wells, "--output", classified,
		"--history-db", db, "--seed", "7", "--severity", "--log-level", "quiet", "--yes"); err != nil {
		t.Fatalf("classify: %v", err)
	}

	got, err := tableio.Read(classified, "", nil)
	if err != nil {
		t.Fatalf("read classified output: %v", err)
	}
	if got.Len() != 50 {
		t.Errorf("classified rows = %d, want 50", got.Len())
	}
	for _, col := range []string{classifier.ColumnDamageType, classifier.ColumnSeverity, classifier.ColumnAnomaly} {
		if !got.HasColumn(col) {
			t.Errorf("classified output lacks column %q", col)
		}
	}

	st, err := store.Open(db)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer st.Close()
	runs, err := st.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Rows != 50 || runs[0].Seed != 7 {
		t.Fatalf("runs = %+v, want one run of 50 rows with seed 7", runs)
	}
}

func TestRulesShowPrintsEmbeddedTable(t *testing.T) {
	out, err := execute(t, "rules", "show")
	if err != nil {
		t.Fatalf("rules show: %v", err)
	}
	for _, want := range []string{"sentinel:", "damage_types:"} {
		if !strings.Contains(out, want) {
			t.Errorf("rules show output lacks %q", want)
		}
	}
}

func TestClassifyRequiresInput(t *testing.T) {
	_, err := execute(t, "classify", "--input", "", "--log-level", "quiet")
	if err == nil || !strings.Contains(err.Error(), "--input is required") {
		t.Fatalf("err = %v, want --input is required", err)
	}
}
