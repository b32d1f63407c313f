// Package preprocess implements the cleaning steps that run before
// classification: imputation, normalisation, invalid combination checks
// and de-duplication.
package preprocess

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/outlier"
)

// Strategy is a numeric imputation statistic.
type Strategy string

const (
	StrategyMean   Strategy = "mean"
	StrategyMedian Strategy = "median"
)

func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyMedian, nil
	case StrategyMean, StrategyMedian:
		return st, nil
	default:
		return "", apperr.Userf("invalid imputation strategy %q (expected mean|median)", s)
	}
}

// ImputeOptions configures Impute.
type ImputeOptions struct {
	// Default applies to numeric columns without a PerColumn entry.
	Default   Strategy
	PerColumn map[string]Strategy

	// Categorical fills categorical columns with their most frequent value.
	Categorical bool

	// Skip lists columns left untouched (identifiers, labels).
	Skip []string
}

// ImputeReport describes what Impute filled.
type ImputeReport struct {
	Filled      map[string]int
	FillValues  map[string]string
	History     []string
	Diagnostics []error
}

// Impute fills missing values column by column. Numeric columns use the
// mean or median of their present values; categorical columns use the mode
// when enabled. A column with no present values is left as is and reported.
func Impute(t *dataset.Table, opts ImputeOptions) (*dataset.Table, ImputeReport) {
	rep := ImputeReport{Filled: map[string]int{}, FillValues: map[string]string{}}
	if opts.Default == "" {
		opts.Default = StrategyMedian
	}
	skip := map[string]bool{t.IDField: true}
	for _, s := range opts.Skip {
		skip[s] = true
	}

	num := map[string]float64{}
	for _, col := range t.NumericColumns() {
		if skip[col] {
			continue
		}
		raw := t.Floats(col)
		values := present(raw)
		missing := countNaN(raw)
		if missing == 0 {
			continue
		}
		if len(values) == 0 {
			rep.Diagnostics = append(rep.Diagnostics, &apperr.ComputationError{Column: col, Reason: "no values to impute from"})
			continue
		}
		strat := opts.Default
		if s, ok := opts.PerColumn[col]; ok {
			strat = s
		}
		var fill float64
		switch strat {
		case StrategyMean:
			fill = stat.Mean(values, nil)
		default:
			sort.Float64s(values)
			fill = outlier.Quantile(values, 0.5)
		}
		num[col] = fill
		rep.FillValues[col] = fmt.Sprintf("%g", fill)
		rep.History = append(rep.History, fmt.Sprintf("%s: filled %d missing with %s %g", col, missing, strat, fill))
	}

	cat := map[string]string{}
	if opts.Categorical {
		for _, col := range t.CategoricalColumns() {
			if skip[col] {
				continue
			}
			m, missing := mode(t.Strings(col))
			if missing == 0 {
				continue
			}
			if m == "" {
				rep.Diagnostics = append(rep.Diagnostics, &apperr.ComputationError{Column: col, Reason: "no values to impute from"})
				continue
			}
			cat[col] = m
			rep.FillValues[col] = m
			rep.History = append(rep.History, fmt.Sprintf("%s: filled %d missing with mode %q", col, missing, m))
		}
	}

	out := t.MapRecords(func(_ int, r dataset.Record) dataset.Record {
		for col, v := range num {
			if _, ok := r.Number(col); !ok {
				r = r.WithNumber(col, v)
				rep.Filled[col]++
			}
		}
		for col, v := range cat {
			if _, ok := r.Category(col); !ok {
				r = r.WithCategory(col, v)
				rep.Filled[col]++
			}
		}
		return r
	})
	for _, h := range rep.History {
		logf("impute %s", h)
	}
	return out, rep
}

// mode returns the most frequent non-empty value (ties go to the smallest
// value) and the number of empty entries.
func mode(values []string) (string, int) {
	counts := map[string]int{}
	missing := 0
	for _, v := range values {
		if v == "" {
			missing++
			continue
		}
		counts[v]++
	}
	best, bestN := "", 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best, missing
}

// present keeps the finite values.
func present(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func countNaN(values []float64) int {
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}
