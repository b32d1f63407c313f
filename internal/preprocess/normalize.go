package preprocess

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

// Scaling is a normalisation method.
type Scaling string

const (
	ScalingMinMax Scaling = "minmax"
	ScalingZScore Scaling = "zscore"
)

func ParseScaling(s string) (Scaling, error) {
	switch m := Scaling(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ScalingMinMax, nil
	case ScalingMinMax, ScalingZScore:
		return m, nil
	default:
		return "", apperr.Userf("invalid scaling %q (expected minmax|zscore)", s)
	}
}

// ColumnParams holds the statistics used to scale one column.
type ColumnParams struct {
	Method Scaling `json:"method"`
	Min    float64 `json:"min,omitempty"`
	Max    float64 `json:"max,omitempty"`
	Mean   float64 `json:"mean,omitempty"`
	Std    float64 `json:"std,omitempty"`
}

// Params maps column names to their scaling parameters. It is saved next to
// the scaled data so the same transform can be replayed or inverted.
type Params map[string]ColumnParams

// Normalize scales the given numeric columns (all numeric columns when
// empty). Min-max maps to [0, 1]; z-score uses the population std. A column
// with zero range or zero std is left unchanged and reported.
func Normalize(t *dataset.Table, method Scaling, columns []string) (*dataset.Table, Params, []error) {
	if len(columns) == 0 {
		columns = t.NumericColumns()
	}
	params := Params{}
	var diags []error
	for _, col := range columns {
		xs := present(t.Floats(col))
		if len(xs) == 0 {
			diags = append(diags, &apperr.ComputationError{Column: col, Reason: "no values to scale"})
			continue
		}
		switch method {
		case ScalingZScore:
			mean, std := stat.PopMeanStdDev(xs, nil)
			if std == 0 {
				diags = append(diags, &apperr.ComputationError{Column: col, Reason: "zero standard deviation"})
				continue
			}
			params[col] = ColumnParams{Method: ScalingZScore, Mean: mean, Std: std}
		default:
			lo, hi := floats.Min(xs), floats.Max(xs)
			if hi == lo {
				diags = append(diags, &apperr.ComputationError{Column: col, Reason: "zero range"})
				continue
			}
			params[col] = ColumnParams{Method: ScalingMinMax, Min: lo, Max: hi}
		}
	}
	for _, d := range diags {
		logf("normalize: %v", d)
	}
	return params.Apply(t), params, diags
}

// Apply scales t with previously computed parameters.
func (p Params) Apply(t *dataset.Table) *dataset.Table {
	return t.MapRecords(func(_ int, r dataset.Record) dataset.Record {
		for col, cp := range p {
			v, ok := r.Number(col)
			if !ok {
				continue
			}
			r = r.WithNumber(col, cp.scale(v))
		}
		return r
	})
}

// Invert maps scaled values back to their original units.
func (p Params) Invert(t *dataset.Table) *dataset.Table {
	return t.MapRecords(func(_ int, r dataset.Record) dataset.Record {
		for col, cp := range p {
			v, ok := r.Number(col)
			if !ok {
				continue
			}
			r = r.WithNumber(col, cp.unscale(v))
		}
		return r
	})
}

func (cp ColumnParams) scale(v float64) float64 {
	if cp.Method == ScalingZScore {
		return (v - cp.Mean) / cp.Std
	}
	return (v - cp.Min) / (cp.Max - cp.Min)
}

func (cp ColumnParams) unscale(v float64) float64 {
	if cp.Method == ScalingZScore {
		return v*cp.Std + cp.Mean
	}
	return v*(cp.Max-cp.Min) + cp.Min
}

// SaveParams writes the parameters as indented JSON.
func SaveParams(path string, p Params) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode normalization params: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write normalization params: %w", err)
	}
	return nil
}

// LoadParams reads parameters written by SaveParams.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read normalization params: %w", err)
	}
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, apperr.Configf(path, "decode normalization params: %v", err)
	}
	for col, cp := range p {
		if (cp.Method == ScalingZScore && cp.Std == 0) || (cp.Method != ScalingZScore && cp.Max == cp.Min) || math.IsNaN(cp.Std) {
			return nil, apperr.Configf(path, "column %s: degenerate %s parameters", col, cp.Method)
		}
	}
	return p, nil
}
