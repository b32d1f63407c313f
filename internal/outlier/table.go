package outlier

import (
	"math"
	"strings"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

// Policy decides what happens to flagged values.
type Policy string

const (
	// PolicyClip replaces each out-of-bounds value by the nearest bound.
	PolicyClip Policy = "clip"
	// PolicyRemove drops every row holding an out-of-bounds value.
	PolicyRemove Policy = "remove"
)

// ParsePolicy validates a policy name. Empty means clip.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyClip, nil
	case PolicyClip, PolicyRemove:
		return p, nil
	default:
		return "", apperr.Userf("invalid outlier policy %q (expected clip|remove)", s)
	}
}

// Options configures DetectTable.
type Options struct {
	Method     Method
	Multiplier float64 // IQR k, default 1.5
	Threshold  float64 // z-score threshold, default 3

	// Columns restricts detection. Empty means every numeric column.
	Columns []string
}

// Report is the outcome of DetectTable.
type Report struct {
	Rows       int
	Detections []Detection

	// Bounds per column, the intersection of every method that ran.
	Bounds map[string]Bounds

	// Flagged is the union of flagged rows over all columns.
	Flagged []int
}

// ColumnCounts returns the number of flagged rows per column.
func (r Report) ColumnCounts() map[string]int {
	out := map[string]int{}
	for _, d := range r.Detections {
		out[d.Column] = len(Union(r.forColumn(d.Column)...))
	}
	return out
}

func (r Report) forColumn(col string) []Detection {
	var out []Detection
	for _, d := range r.Detections {
		if d.Column == col {
			out = append(out, d)
		}
	}
	return out
}

// Diagnostics lists the computation problems met during detection.
func (r Report) Diagnostics() []error {
	var out []error
	for _, d := range r.Detections {
		if d.Diagnostic != nil {
			out = append(out, d.Diagnostic)
		}
	}
	return out
}

// DetectTable runs the configured methods on each numeric column of t.
func DetectTable(t *dataset.Table, opts Options) Report {
	if opts.Method == "" {
		opts.Method = MethodIQR
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = DefaultMultiplier
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	cols := opts.Columns
	if len(cols) == 0 {
		cols = t.NumericColumns()
	}

	rep := Report{Rows: t.Len(), Bounds: map[string]Bounds{}}
	var all []Detection
	for _, col := range cols {
		values := t.Floats(col)
		b := Unbounded
		var dets []Detection
		if opts.Method == MethodIQR || opts.Method == MethodBoth {
			dets = append(dets, DetectIQR(values, opts.Multiplier))
		}
		if opts.Method == MethodZScore || opts.Method == MethodBoth {
			dets = append(dets, DetectZScore(values, opts.Threshold))
		}
		for i := range dets {
			dets[i].Column = col
			if ce, ok := dets[i].Diagnostic.(*apperr.ComputationError); ok {
				ce.Column = col
				logf("%s (%s): %v", col, dets[i].Method, ce)
			}
			b = b.Intersect(dets[i].Bounds)
		}
		rep.Bounds[col] = b
		all = append(all, dets...)
	}
	rep.Detections = all
	rep.Flagged = Union(all...)
	logf("%d columns scanned, %d of %d rows flagged (%s)", len(cols), len(rep.Flagged), rep.Rows, opts.Method)
	return rep
}

// ApplyStats counts what Apply changed.
type ApplyStats struct {
	Clipped int
	Removed int
}

// Apply enforces bounds on t. With PolicyClip every value outside its
// column bounds is replaced by the nearest bound, so applying the same
// bounds twice changes nothing the second time. With PolicyRemove rows
// holding any out-of-bounds value are dropped. Bounds with a NaN end are
// ignored.
func Apply(t *dataset.Table, bounds map[string]Bounds, p Policy) (*dataset.Table, ApplyStats, error) {
	var st ApplyStats
	switch p {
	case PolicyClip, "":
		out := t.MapRecords(func(_ int, r dataset.Record) dataset.Record {
			for col, b := range bounds {
				v, ok := r.Number(col)
				if !ok || !b.Defined() || b.Contains(v) {
					continue
				}
				r = r.WithNumber(col, math.Max(b.Lower, math.Min(b.Upper, v)))
				st.Clipped++
			}
			return r
		})
		return out, st, nil
	case PolicyRemove:
		drop := map[int]bool{}
		for i, r := range t.Records {
			for col, b := range bounds {
				if v, ok := r.Number(col); ok && b.Defined() && !b.Contains(v) {
					drop[i] = true
					break
				}
			}
		}
		st.Removed = len(drop)
		return t.Drop(drop), st, nil
	default:
		return nil, st, apperr.Userf("invalid outlier policy %q (expected clip|remove)", p)
	}
}
