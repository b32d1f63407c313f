package classifier

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/rules"
)

type fixed float64

func (f fixed) Float64() float64 { return float64(f) }

func defaults(t *testing.T) (*rules.Compiled, *dataset.Schema) {
	t.Helper()
	s, err := dataset.DefaultSchema()
	if err != nil {
		t.Fatalf("DefaultSchema: %v", err)
	}
	tbl, err := rules.Default()
	if err != nil {
		t.Fatalf("rules.Default: %v", err)
	}
	c, err := rules.Compile(tbl, s, rules.DefaultSource)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return c, s
}

func compile(t *testing.T, doc string) *rules.Compiled {
	t.Helper()
	tbl, err := rules.Parse([]byte(doc), "test.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c, err := rules.Compile(tbl, nil, "test.yaml")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return c
}

// randomRecords draws records across (and slightly beyond) the schema ranges.
func randomRecords(s *dataset.Schema, n int, seed uint64) []dataset.Record {
	rng := rand.New(rand.NewPCG(seed, 0))
	out := make([]dataset.Record, n)
	for i := range out {
		num := map[string]float64{}
		cat := map[string]string{}
		for _, f := range s.Fields {
			if rng.Float64() < 0.1 {
				continue
			}
			switch {
			case f.Kind == dataset.KindNumeric && len(f.Range) == 2:
				span := f.Range[1] - f.Range[0]
				num[f.Name] = f.Range[0] - 0.2*span + rng.Float64()*1.4*span
			case f.Kind == dataset.KindCategorical && len(f.Categories) > 0:
				cat[f.Name] = f.Categories[rng.IntN(len(f.Categories))]
			}
		}
		out[i] = dataset.NewRecord(fmt.Sprintf("w-%03d", i), num, cat)
	}
	return out
}

func TestClassify_LabelIsAlwaysInEnumeration(t *testing.T) {
	c, s := defaults(t)
	names := map[string]bool{}
	for _, n := range c.Names() {
		names[n] = true
	}
	for i, rec := range randomRecords(s, 300, 7) {
		a, err := Classify(rec, c, RowSource(1, i), Options{Schema: s, Policy: PolicyClamp, Severity: true})
		if err != nil {
			t.Fatalf("Classify(%d): %v", i, err)
		}
		if !names[a.DamageType] {
			t.Fatalf("Classify(%d) = %q, not in enumeration", i, a.DamageType)
		}
		if a.HasSeverity && (a.Severity < 0 || a.Severity > c.SeverityBound) {
			t.Fatalf("severity %v outside [0, %v]", a.Severity, c.SeverityBound)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c, s := defaults(t)
	for i, rec := range randomRecords(s, 50, 3) {
		a1, err1 := Classify(rec, c, RowSource(42, i), Options{Severity: true})
		a2, err2 := Classify(rec, c, RowSource(42, i), Options{Severity: true})
		if err1 != nil || err2 != nil {
			t.Fatalf("unexpected errors: %v, %v", err1, err2)
		}
		if diff := cmp.Diff(a1, a2); diff != "" {
			t.Fatalf("Classify not deterministic (-first +second):\n%s", diff)
		}
	}
}

func TestWeigh_SumsToOne(t *testing.T) {
	c, s := defaults(t)
	recs := append(randomRecords(s, 200, 11), dataset.NewRecord("empty", nil, nil))
	for _, rec := range recs {
		d := Weigh(rec, c)
		sum := 0.0
		for _, p := range d.Probs {
			if p < 0 {
				t.Fatalf("negative probability %v", p)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("probabilities sum to %v, want 1", sum)
		}
	}
}

func TestWeigh_NoSignalFloor(t *testing.T) {
	c := compile(t, `
sentinel: No_Damage
no_signal_floor: 0.6
damage_types:
  - {name: No_Damage, base_weight: 0.3}
  - name: Fluid_Loss
    base_weight: 0.4
    adjustments: [{name: low_stress, when: {field: stress_ratio, op: lt, value: 3.2}, multiplier: 3}]
  - name: Drilling_Damage
    base_weight: 0.3
    adjustments: [{name: fast, when: {field: rop, op: gt, value: 200}, multiplier: 2}]
`)
	d := Weigh(dataset.NewRecord("quiet", map[string]float64{"stress_ratio": 3.3, "rop": 100}, nil), c)
	if d.Signal {
		t.Fatalf("Signal = true, want false")
	}
	if got := d.Prob("No_Damage"); got < 0.5 || math.Abs(got-0.6) > 1e-12 {
		t.Fatalf("sentinel probability = %v, want 0.6", got)
	}
	// The remainder keeps the relative base proportions.
	if r := d.Prob("Fluid_Loss") / d.Prob("Drilling_Damage"); math.Abs(r-4.0/3.0) > 1e-9 {
		t.Fatalf("Fluid_Loss/Drilling_Damage = %v, want 4/3", r)
	}
}

func TestClassify_NoSignalDefaultFloorForcesSentinel(t *testing.T) {
	c, _ := defaults(t)
	rec := dataset.NewRecord("blank", nil, nil)
	for _, u := range []float64{0, 0.25, 0.5, 0.999999} {
		a, err := Classify(rec, c, fixed(u), Options{Severity: true})
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if a.DamageType != c.Sentinel {
			t.Fatalf("Classify(u=%v) = %q, want %q", u, a.DamageType, c.Sentinel)
		}
		if !a.HasSeverity || a.Severity != 0 {
			t.Fatalf("sentinel severity = %v (has=%v), want 0", a.Severity, a.HasSeverity)
		}
	}
}

func TestWeigh_HighROPLowGelRaisesDrillingDamage(t *testing.T) {
	c, _ := defaults(t)
	rec := dataset.NewRecord("w-1", map[string]float64{"rop": 210, "gel_strength": 4}, map[string]string{"fluid_type": "Oil-Based"})

	d := Weigh(rec, c)
	base := BaseShares(c)[c.Index("Drilling_Damage")]
	if got := d.Prob("Drilling_Damage"); got <= base {
		t.Fatalf("Drilling_Damage share = %v, want > base share %v", got, base)
	}

	single := compile(t, `
sentinel: No_Damage
damage_types:
  - {name: No_Damage, base_weight: 0.5}
  - name: Drilling_Damage
    base_weight: 0.5
    adjustments:
      - name: high_rop_low_gel
        when: {all: [{field: rop, op: gt, value: 200}, {field: gel_strength, op: lt, value: 5}]}
        multiplier: 2
`)
	if got := Weigh(rec, single).Prob("Drilling_Damage"); math.Abs(got-2.0/3.0) > 1e-12 {
		t.Fatalf("Drilling_Damage share = %v, want 2/3", got)
	}
}

func TestClassify_SeverityFromFiredDrivers(t *testing.T) {
	c, _ := defaults(t)
	rec := dataset.NewRecord("w-1", map[string]float64{"rop": 210, "gel_strength": 4}, map[string]string{"fluid_type": "Oil-Based"})

	// Cumulative mass before Drilling_Damage is 0.35/1.05; Drilling_Damage ends at 0.45/1.05.
	a, err := Classify(rec, c, fixed(0.38), Options{Severity: true})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if a.DamageType != "Drilling_Damage" {
		t.Fatalf("DamageType = %q, want Drilling_Damage", a.DamageType)
	}
	if want := 5 * 0.3 * (210.0 / 250.0); !a.HasSeverity || math.Abs(a.Severity-want) > 1e-9 {
		t.Fatalf("Severity = %v (has=%v), want %v", a.Severity, a.HasSeverity, want)
	}
	if diff := cmp.Diff([]string{"Drilling_Damage/high_rop_low_gel"}, a.Matched); diff != "" {
		t.Fatalf("Matched mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify_SeverityClampedToBound(t *testing.T) {
	c := compile(t, `
sentinel: No_Damage
damage_types:
  - {name: No_Damage, base_weight: 0.1}
  - name: Fluid_Loss
    base_weight: 0.9
    adjustments:
      - {name: low_stress, when: {field: stress_ratio, op: lt, value: 3.2}, multiplier: 2, severity: {weight: 0.8}}
      - {name: fast, when: {field: rop, op: gt, value: 200}, multiplier: 2, severity: {weight: 0.8}}
`)
	tests := []struct {
		name string
		num  map[string]float64
		want float64
	}{
		{"one driver", map[string]float64{"stress_ratio": 3}, 0.8 * c.SeverityBound},
		{"drivers above bound", map[string]float64{"stress_ratio": 3, "rop": 250}, c.SeverityBound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Classify(dataset.NewRecord("w-1", tt.num, nil), c, fixed(0.5), Options{Severity: true})
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if a.DamageType != "Fluid_Loss" {
				t.Fatalf("DamageType = %q, want Fluid_Loss", a.DamageType)
			}
			if !a.HasSeverity || math.Abs(a.Severity-tt.want) > 1e-9 {
				t.Fatalf("Severity = %v (has=%v), want %v", a.Severity, a.HasSeverity, tt.want)
			}
		})
	}
}

func TestClassify_BoundsPolicy(t *testing.T) {
	c, s := defaults(t)
	rec := dataset.NewRecord("w-9", map[string]float64{"permeability": -2, "ph": 7}, nil)

	_, err := Classify(rec, c, fixed(0.1), Options{Schema: s, Policy: PolicyReject})
	if !apperr.IsValidation(err) {
		t.Fatalf("reject: err = %v, want ValidationError", err)
	}

	a, err := Classify(rec, c, fixed(0.1), Options{Schema: s, Policy: PolicyClamp})
	if err != nil {
		t.Fatalf("clamp: %v", err)
	}
	if len(a.Anomalies) != 1 || !strings.Contains(a.Anomalies[0], "clamped to 0") {
		t.Fatalf("clamp anomalies = %v", a.Anomalies)
	}

	a, err = Classify(rec, c, fixed(0.1), Options{Schema: s, Policy: PolicyPass})
	if err != nil || len(a.Anomalies) != 1 || !strings.Contains(a.Anomalies[0], "outside") {
		t.Fatalf("pass: anomalies = %v, err = %v", a.Anomalies, err)
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"": PolicyClamp, "Reject": PolicyReject, " pass ": PolicyPass} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParsePolicy(%q) = %q, %v, want %q", in, got, err, want)
		}
	}
	if _, err := ParsePolicy("ignore"); !apperr.IsUser(err) {
		t.Fatalf("ParsePolicy(ignore) err = %v, want UserError", err)
	}
}

func TestClassifyBatch_IndependentOfWorkerCount(t *testing.T) {
	c, s := defaults(t)
	recs := randomRecords(s, 257, 5)
	recs = append(recs, dataset.NewRecord("bad", map[string]float64{"ph": 20}, nil))
	tbl := dataset.NewTable("", s.Columns(), recs)

	opts := BatchOptions{Options: Options{Schema: s, Policy: PolicyReject, Severity: true}, Seed: 99}
	opts.Workers = 1
	serial, err := ClassifyBatch(context.Background(), tbl, c, opts)
	if err != nil {
		t.Fatalf("ClassifyBatch(1): %v", err)
	}
	opts.Workers = 8
	var calls atomic.Int64
	opts.OnProgress = func(done, total int) { calls.Add(1) }
	parallel, err := ClassifyBatch(context.Background(), tbl, c, opts)
	if err != nil {
		t.Fatalf("ClassifyBatch(8): %v", err)
	}

	if got := int(calls.Load()); got != len(recs) {
		t.Fatalf("progress calls = %d, want %d", got, len(recs))
	}
	if len(serial) != len(parallel) {
		t.Fatalf("len mismatch %d vs %d", len(serial), len(parallel))
	}
	for i := range serial {
		if diff := cmp.Diff(serial[i].Assessment, parallel[i].Assessment); diff != "" {
			t.Fatalf("row %d differs (-serial +parallel):\n%s", i, diff)
		}
		if (serial[i].Err == nil) != (parallel[i].Err == nil) {
			t.Fatalf("row %d error mismatch: %v vs %v", i, serial[i].Err, parallel[i].Err)
		}
	}
	last := serial[len(serial)-1]
	if !apperr.IsValidation(last.Err) {
		t.Fatalf("last row err = %v, want ValidationError", last.Err)
	}

	sum := Summarize(parallel)
	if sum.Rejected < 1 || sum.Rows != len(recs) {
		t.Fatalf("Summary = %+v", sum)
	}
}

func TestClassifyBatch_Cancelled(t *testing.T) {
	c, s := defaults(t)
	tbl := dataset.NewTable("", s.Columns(), randomRecords(s, 500, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ClassifyBatch(ctx, tbl, c, BatchOptions{Workers: 2}); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestAnnotate(t *testing.T) {
	c, s := defaults(t)
	tbl := dataset.NewTable("", s.Columns(), []dataset.Record{
		dataset.NewRecord("a", map[string]float64{"rop": 210, "gel_strength": 4}, nil),
		dataset.NewRecord("b", map[string]float64{"ph": -1}, nil),
	})
	res, err := ClassifyBatch(context.Background(), tbl, c, BatchOptions{Options: Options{Schema: s, Policy: PolicyReject, Severity: true}, Seed: 1})
	if err != nil {
		t.Fatalf("ClassifyBatch: %v", err)
	}
	out, err := Annotate(tbl, res)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	for _, col := range []string{ColumnDamageType, ColumnSeverity, ColumnAnomaly} {
		if !out.HasColumn(col) {
			t.Fatalf("missing column %s", col)
		}
	}
	types := out.Strings(ColumnDamageType)
	if !c.Contains(types[0]) || types[1] != "" {
		t.Fatalf("damage types = %v", types)
	}
	if a := out.Strings(ColumnAnomaly)[1]; !strings.HasPrefix(a, "rejected:") {
		t.Fatalf("anomaly = %q, want rejected", a)
	}
}
