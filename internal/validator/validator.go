package validator

import (
	"fmt"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/quality"
)

// ValidationOptions configures Validate.
type ValidationOptions struct {
	// StrictMode turns physical bound violations and unknown categories
	// into errors and enforces MinCompletenessScore.
	StrictMode           bool
	MinCompletenessScore float64

	// MaxIssues caps the per-row messages kept for each problem kind.
	// Zero means 20.
	MaxIssues int
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string

	CompletenessScore float64
	MissingColumns    []string
}

// Validate checks t against the schema: missing or untyped columns,
// duplicate ids, unknown categories and physical bound violations.
func Validate(t *dataset.Table, s *dataset.Schema, opts ValidationOptions) ValidationResult {
	res := ValidationResult{Valid: true}
	if t == nil {
		return ValidationResult{Valid: false, Errors: []string{"table is nil"}}
	}
	if s == nil {
		return ValidationResult{Valid: false, Errors: []string{"schema is nil"}}
	}
	limit := opts.MaxIssues
	if limit <= 0 {
		limit = 20
	}
	if t.Len() == 0 {
		res.Errors = append(res.Errors, "table has no records")
	}

	q := quality.Check(t, s)
	res.CompletenessScore = q.Score
	res.MissingColumns = q.MissingColumns
	for _, col := range q.MissingColumns {
		res.Warnings = append(res.Warnings, fmt.Sprintf("schema column missing: %s", col))
	}
	for _, c := range t.Columns {
		if c.Name == t.IDField {
			continue
		}
		f, ok := s.Field(c.Name)
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("column %s is not declared in the schema", c.Name))
			continue
		}
		if f.Kind != c.Kind {
			res.Errors = append(res.Errors, fmt.Sprintf("column %s: expected %s values, found %s", c.Name, f.Kind, c.Kind))
		}
	}

	seen := map[string]int{}
	dups := 0
	for i, r := range t.Records {
		id := r.ID()
		if id == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("row %d: missing %s", i+1, t.IDField))
			continue
		}
		if first, ok := seen[id]; ok {
			if dups < limit {
				res.Errors = append(res.Errors, fmt.Sprintf("duplicate %s %q (rows %d and %d)", t.IDField, id, first+1, i+1))
			}
			dups++
			continue
		}
		seen[id] = i
	}
	if dups > limit {
		res.Errors = append(res.Errors, fmt.Sprintf("... and %d more duplicate id(s)", dups-limit))
	}

	boundIssues := 0
	for _, f := range s.Fields {
		lo, hi, bounded := f.HardBounds()
		for _, r := range t.Records {
			var msg string
			switch f.Kind {
			case dataset.KindNumeric:
				v, ok := r.Number(f.Name)
				if !ok || !bounded || (v >= lo && v <= hi) {
					continue
				}
				msg = fmt.Sprintf("record %s: %s=%g outside physical bounds [%g, %g]", r.ID(), f.Name, v, lo, hi)
			default:
				v, ok := r.Category(f.Name)
				if !ok || f.AllowsCategory(v) {
					continue
				}
				msg = fmt.Sprintf("record %s: %s=%q is not a known category", r.ID(), f.Name, v)
			}
			boundIssues++
			if boundIssues > limit {
				continue
			}
			if opts.StrictMode {
				res.Errors = append(res.Errors, msg)
			} else {
				res.Warnings = append(res.Warnings, msg)
			}
		}
	}
	if boundIssues > limit {
		more := fmt.Sprintf("... and %d more value problem(s)", boundIssues-limit)
		if opts.StrictMode {
			res.Errors = append(res.Errors, more)
		} else {
			res.Warnings = append(res.Warnings, more)
		}
	}

	if opts.StrictMode && opts.MinCompletenessScore > 0 && res.CompletenessScore < opts.MinCompletenessScore {
		res.Errors = append(res.Errors, fmt.Sprintf("completeness score %.2f below minimum %.2f", res.CompletenessScore, opts.MinCompletenessScore))
	}

	res.Valid = len(res.Errors) == 0
	return res
}
