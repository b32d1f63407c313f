// Package outlier flags numeric values outside IQR or z-score bounds and
// either clips them to the bounds or removes their rows.
package outlier

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
)

// Method selects the detection rule.
type Method string

const (
	MethodIQR    Method = "iqr"
	MethodZScore Method = "zscore"
	MethodBoth   Method = "both"
)

const (
	DefaultMultiplier = 1.5
	DefaultThreshold  = 3.0
)

// ParseMethod validates a method name. Empty means iqr.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MethodIQR, nil
	case MethodIQR, MethodZScore, MethodBoth:
		return m, nil
	default:
		return "", apperr.Userf("invalid outlier method %q (expected iqr|zscore|both)", s)
	}
}

// Bounds is an inclusive [Lower, Upper] interval. Values strictly outside
// are outliers.
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Unbounded accepts every value.
var Unbounded = Bounds{Lower: math.Inf(-1), Upper: math.Inf(1)}

func (b Bounds) Contains(v float64) bool { return v >= b.Lower && v <= b.Upper }

// Defined reports whether both ends are numbers.
func (b Bounds) Defined() bool { return !math.IsNaN(b.Lower) && !math.IsNaN(b.Upper) }

// Intersect returns the tighter of two bounds. When they do not overlap the
// receiver is kept.
func (b Bounds) Intersect(o Bounds) Bounds {
	out := Bounds{Lower: math.Max(b.Lower, o.Lower), Upper: math.Min(b.Upper, o.Upper)}
	if out.Lower > out.Upper {
		return b
	}
	return out
}

// Detection is the result of one method on one column.
type Detection struct {
	Column string
	Method Method
	Bounds Bounds

	// Flagged holds the sorted row indices of outliers.
	Flagged []int

	// Diagnostic is a *apperr.ComputationError when the statistic was
	// undefined and nothing was flagged.
	Diagnostic error
}

// Set returns the flagged indices as a set.
func (d Detection) Set() map[int]bool {
	out := make(map[int]bool, len(d.Flagged))
	for _, i := range d.Flagged {
		out[i] = true
	}
	return out
}

// DetectIQR flags values strictly outside [Q1 - k*IQR, Q3 + k*IQR].
// Quartiles are computed over the finite values; infinite values are
// always flagged.
func DetectIQR(values []float64, k float64) Detection {
	d := Detection{Method: MethodIQR, Bounds: Unbounded}
	xs := present(values)
	if len(xs) == 0 {
		d.Diagnostic = &apperr.ComputationError{Reason: "no finite values"}
		return d
	}
	sort.Float64s(xs)
	q1, q3 := Quantile(xs, 0.25), Quantile(xs, 0.75)
	iqr := q3 - q1
	b := Bounds{Lower: q1 - k*iqr, Upper: q3 + k*iqr}
	if !b.Defined() {
		d.Diagnostic = &apperr.ComputationError{Reason: "interquartile range is undefined"}
		return d
	}
	d.Bounds = b
	d.Flagged = flag(values, d.Bounds)
	return d
}

// DetectZScore flags values whose |v - mean| / std exceeds threshold, using
// the population standard deviation over non-missing values. A constant or
// empty column flags nothing and carries a diagnostic.
func DetectZScore(values []float64, threshold float64) Detection {
	d := Detection{Method: MethodZScore, Bounds: Unbounded}
	xs := present(values)
	if len(xs) == 0 {
		d.Diagnostic = &apperr.ComputationError{Reason: "no finite values"}
		return d
	}
	mean, std := stat.PopMeanStdDev(xs, nil)
	switch {
	case std == 0:
		d.Diagnostic = &apperr.ComputationError{Reason: "zero standard deviation"}
		return d
	case math.IsNaN(std) || math.IsInf(std, 0) || math.IsInf(mean, 0):
		d.Diagnostic = &apperr.ComputationError{Reason: "standard deviation is undefined"}
		return d
	}
	d.Bounds = Bounds{Lower: mean - threshold*std, Upper: mean + threshold*std}
	for i, v := range values {
		if !math.IsNaN(v) && math.Abs(v-mean)/std > threshold {
			d.Flagged = append(d.Flagged, i)
		}
	}
	return d
}

// Union merges flagged indices from several detections, sorted and unique.
func Union(dets ...Detection) []int {
	seen := map[int]bool{}
	var out []int
	for _, d := range dets {
		for _, i := range d.Flagged {
			if !seen[i] {
				seen[i] = true
				out = append(out, i)
			}
		}
	}
	sort.Ints(out)
	return out
}

// Quantile interpolates linearly between order statistics (the common
// "type 7" estimator). xs must be sorted and non-empty.
func Quantile(xs []float64, p float64) float64 {
	h := float64(len(xs)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(xs) {
		return xs[len(xs)-1]
	}
	return xs[i] + (h-lo)*(xs[i+1]-xs[i])
}

// present keeps the finite values. NaN marks a missing value.
func present(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func flag(values []float64, b Bounds) []int {
	var out []int
	for i, v := range values {
		if !math.IsNaN(v) && !b.Contains(v) {
			out = append(out, i)
		}
	}
	return out
}
