// Package quality measures how complete and physically plausible a table is.
package quality

import (
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

// Report summarises data quality over the schema columns of a table.
type Report struct {
	Score float64 // 0..1, non-missing cells / total cells

	Passed int // non-missing cells
	Total  int // checked cells

	Rows    int
	Columns []ColumnReport

	// MissingColumns lists schema fields absent from the table header.
	MissingColumns []string
}

// ColumnReport is the quality of one column.
type ColumnReport struct {
	Name    string
	Kind    dataset.Kind
	Missing int

	// BelowHard and AboveHard count values outside the physical bounds.
	BelowHard int
	AboveHard int

	// UnknownCategories counts values not in the declared categories.
	UnknownCategories int
}

// Score is the share of present values in the column.
func (c ColumnReport) Score(rows int) float64 {
	if rows == 0 {
		return 0
	}
	return float64(rows-c.Missing) / float64(rows)
}

// OutOfBounds is the number of values violating either hard bound.
func (c ColumnReport) OutOfBounds() int { return c.BelowHard + c.AboveHard }

// Check computes the report. Every schema field counts, including fields
// missing from the table entirely, which count as fully missing.
func Check(t *dataset.Table, s *dataset.Schema) Report {
	rep := Report{Rows: t.Len()}
	for _, f := range s.Fields {
		col := ColumnReport{Name: f.Name, Kind: f.Kind}
		if !t.HasColumn(f.Name) {
			rep.MissingColumns = append(rep.MissingColumns, f.Name)
		}
		lo, hi, bounded := f.HardBounds()
		for _, r := range t.Records {
			switch f.Kind {
			case dataset.KindNumeric:
				v, ok := r.Number(f.Name)
				if !ok {
					col.Missing++
					continue
				}
				if bounded && v < lo {
					col.BelowHard++
				}
				if bounded && v > hi {
					col.AboveHard++
				}
			default:
				v, ok := r.Category(f.Name)
				if !ok {
					col.Missing++
					continue
				}
				if !f.AllowsCategory(v) {
					col.UnknownCategories++
				}
			}
		}
		rep.Total += rep.Rows
		rep.Passed += rep.Rows - col.Missing
		rep.Columns = append(rep.Columns, col)
	}
	if rep.Total > 0 {
		rep.Score = float64(rep.Passed) / float64(rep.Total)
	}
	return rep
}

// Column returns the report of one column.
func (r Report) Column(name string) (ColumnReport, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnReport{}, false
}

// Incomplete lists columns with at least one missing value.
func (r Report) Incomplete() []ColumnReport {
	var out []ColumnReport
	for _, c := range r.Columns {
		if c.Missing > 0 {
			out = append(out, c)
		}
	}
	return out
}
