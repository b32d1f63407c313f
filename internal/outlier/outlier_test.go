package outlier

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

func TestDetectIQR_FlagsOnlyTheExtremeValue(t *testing.T) {
	d := DetectIQR([]float64{1, 2, 3, 4, 5, 100}, 1.5)
	if diff := cmp.Diff([]int{5}, d.Flagged); diff != "" {
		t.Fatalf("Flagged mismatch (-want +got):\n%s", diff)
	}
	if d.Bounds.Lower != -1.5 || d.Bounds.Upper != 8.5 {
		t.Fatalf("Bounds = %+v, want [-1.5, 8.5]", d.Bounds)
	}
}

func TestDetectIQR_IgnoresMissing(t *testing.T) {
	nan := math.NaN()
	d := DetectIQR([]float64{nan, 1, 2, nan, 3, 4, 5, 100}, 1.5)
	if diff := cmp.Diff([]int{7}, d.Flagged); diff != "" {
		t.Fatalf("Flagged mismatch (-want +got):\n%s", diff)
	}

	empty := DetectIQR([]float64{nan, nan}, 1.5)
	if len(empty.Flagged) != 0 || !apperr.IsComputation(empty.Diagnostic) {
		t.Fatalf("all-missing column: flagged=%v diag=%v", empty.Flagged, empty.Diagnostic)
	}
}

func TestDetectIQR_InfiniteValues(t *testing.T) {
	inf := math.Inf(1)
	d := DetectIQR([]float64{-inf, 1, 2, inf}, 1.5)
	if d.Diagnostic != nil {
		t.Fatalf("Diagnostic = %v, want nil", d.Diagnostic)
	}
	if d.Bounds.Lower != 0.5 || d.Bounds.Upper != 2.5 {
		t.Fatalf("Bounds = %+v, want [0.5, 2.5]", d.Bounds)
	}
	if diff := cmp.Diff([]int{0, 3}, d.Flagged); diff != "" {
		t.Fatalf("Flagged mismatch (-want +got):\n%s", diff)
	}

	only := DetectIQR([]float64{-inf, inf}, 1.5)
	if len(only.Flagged) != 0 || !apperr.IsComputation(only.Diagnostic) {
		t.Fatalf("infinite-only column: flagged=%v diag=%v", only.Flagged, only.Diagnostic)
	}
	if only.Bounds != Unbounded {
		t.Fatalf("infinite-only column: Bounds = %+v, want Unbounded", only.Bounds)
	}
}

func TestDetectZScore_InfiniteValues(t *testing.T) {
	values := make([]float64, 0, 22)
	for i := 0; i < 20; i++ {
		values = append(values, 10)
	}
	values = append(values, 11, math.Inf(1))
	d := DetectZScore(values, 3)
	if d.Diagnostic != nil {
		t.Fatalf("Diagnostic = %v, want nil", d.Diagnostic)
	}
	if diff := cmp.Diff([]int{20, 21}, d.Flagged); diff != "" {
		t.Fatalf("Flagged mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectZScore_ConstantColumn(t *testing.T) {
	d := DetectZScore([]float64{7, 7, 7, 7}, 3)
	if len(d.Flagged) != 0 {
		t.Fatalf("Flagged = %v, want none", d.Flagged)
	}
	if !apperr.IsComputation(d.Diagnostic) {
		t.Fatalf("Diagnostic = %v, want ComputationError", d.Diagnostic)
	}
}

func TestDetectZScore_Flags(t *testing.T) {
	values := make([]float64, 0, 21)
	for i := 0; i < 20; i++ {
		values = append(values, 10)
	}
	values = append(values, 1000)
	d := DetectZScore(values, 3)
	if diff := cmp.Diff([]int{20}, d.Flagged); diff != "" {
		t.Fatalf("Flagged mismatch (-want +got):\n%s", diff)
	}
}

func TestUnion(t *testing.T) {
	got := Union(Detection{Flagged: []int{5, 1}}, Detection{Flagged: []int{1, 3}})
	if diff := cmp.Diff([]int{1, 3, 5}, got); diff != "" {
		t.Fatalf("Union mismatch (-want +got):\n%s", diff)
	}
}

func table(values ...float64) *dataset.Table {
	recs := make([]dataset.Record, len(values))
	for i, v := range values {
		recs[i] = dataset.NewRecord(string(rune('a'+i)), map[string]float64{"rop": v}, nil)
	}
	return dataset.NewTable("", []dataset.Column{{Name: "rop", Kind: dataset.KindNumeric}}, recs)
}

func TestApply_ClipIsIdempotent(t *testing.T) {
	tbl := table(1, 2, 3, 4, 5, 100)
	rep := DetectTable(tbl, Options{Method: MethodIQR})

	once, st, err := Apply(tbl, rep.Bounds, PolicyClip)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if st.Clipped != 1 {
		t.Fatalf("Clipped = %d, want 1", st.Clipped)
	}
	if got := once.Floats("rop")[5]; got != 8.5 {
		t.Fatalf("clipped value = %v, want 8.5", got)
	}

	twice, st2, err := Apply(once, rep.Bounds, PolicyClip)
	if err != nil {
		t.Fatalf("Apply (second): %v", err)
	}
	if st2.Clipped != 0 {
		t.Fatalf("second clip changed %d values", st2.Clipped)
	}
	if diff := cmp.Diff(once.Floats("rop"), twice.Floats("rop")); diff != "" {
		t.Fatalf("second clip changed values (-once +twice):\n%s", diff)
	}
	if got := tbl.Floats("rop")[5]; got != 100 {
		t.Fatalf("input table was modified: %v", got)
	}
}

func TestApply_ClipWithInfiniteValues(t *testing.T) {
	inf := math.Inf(1)
	tbl := table(-inf, 1, 2, inf)
	rep := DetectTable(tbl, Options{Method: MethodIQR})

	out, st, err := Apply(tbl, rep.Bounds, PolicyClip)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if st.Clipped != 2 {
		t.Fatalf("Clipped = %d, want 2", st.Clipped)
	}
	if diff := cmp.Diff([]float64{0.5, 1, 2, 2.5}, out.Floats("rop")); diff != "" {
		t.Fatalf("clipped values mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_IgnoresUndefinedBounds(t *testing.T) {
	tbl := table(1, 2, 3)
	nan := math.NaN()
	bounds := map[string]Bounds{"rop": {Lower: nan, Upper: nan}}
	for _, p := range []Policy{PolicyClip, PolicyRemove} {
		out, st, err := Apply(tbl, bounds, p)
		if err != nil {
			t.Fatalf("Apply(%v): %v", p, err)
		}
		if st.Clipped != 0 || st.Removed != 0 {
			t.Fatalf("Apply(%v) stats = %+v, want no changes", p, st)
		}
		if diff := cmp.Diff([]float64{1, 2, 3}, out.Floats("rop")); diff != "" {
			t.Fatalf("Apply(%v) values mismatch (-want +got):\n%s", p, diff)
		}
	}
}

func TestApply_Remove(t *testing.T) {
	tbl := table(1, 2, 3, 4, 5, 100)
	rep := DetectTable(tbl, Options{Method: MethodIQR})
	out, st, err := Apply(tbl, rep.Bounds, PolicyRemove)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Len() != 5 || st.Removed != 1 {
		t.Fatalf("rows = %d removed = %d, want 5 and 1", out.Len(), st.Removed)
	}
}

func TestDetectTable_DiagnosticsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(&buf)
	defer SetLogger(nil)

	rep := DetectTable(table(4, 4, 4), Options{Method: MethodBoth})
	diags := rep.Diagnostics()
	if len(diags) != 1 || !strings.Contains(diags[0].Error(), "column rop") {
		t.Fatalf("Diagnostics = %v", diags)
	}
	if !strings.Contains(buf.String(), "zero standard deviation") {
		t.Fatalf("log = %q", buf.String())
	}
	if len(rep.Flagged) != 0 {
		t.Fatalf("Flagged = %v, want none", rep.Flagged)
	}
}

func TestParse(t *testing.T) {
	if m, err := ParseMethod("Z-SCORE"); err == nil {
		t.Fatalf("ParseMethod(Z-SCORE) = %q, want error", m)
	}
	if m, _ := ParseMethod(""); m != MethodIQR {
		t.Fatalf("ParseMethod(\"\") = %q", m)
	}
	if p, _ := ParsePolicy("Remove"); p != PolicyRemove {
		t.Fatalf("ParsePolicy(Remove) = %q", p)
	}
	if _, err := ParsePolicy("drop"); !apperr.IsUser(err) {
		t.Fatalf("ParsePolicy(drop) err = %v", err)
	}
}
