package dataset

import (
	"fmt"
	"math"
)

// Column is a named, typed table column.
type Column struct {
	Name string
	Kind Kind
}

// Table is an ordered set of columns plus records. Operations return new
// tables; records are shared because they are immutable.
type Table struct {
	IDField string
	Columns []Column
	Records []Record
}

// NewTable builds a table. An empty idField defaults to "record_id".
func NewTable(idField string, cols []Column, recs []Record) *Table {
	if idField == "" {
		idField = "record_id"
	}
	return &Table{
		IDField: idField,
		Columns: append([]Column(nil), cols...),
		Records: append([]Record(nil), recs...),
	}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// NumericColumns lists numeric column names in table order.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if c.Kind == KindNumeric {
			out = append(out, c.Name)
		}
	}
	return out
}

// CategoricalColumns lists categorical column names in table order.
func (t *Table) CategoricalColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if c.Kind == KindCategorical {
			out = append(out, c.Name)
		}
	}
	return out
}

// Floats extracts a numeric column with NaN for missing values.
func (t *Table) Floats(name string) []float64 {
	out := make([]float64, len(t.Records))
	for i, r := range t.Records {
		v, ok := r.Number(name)
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// Strings extracts a categorical column with "" for missing values.
func (t *Table) Strings(name string) []string {
	out := make([]string, len(t.Records))
	for i, r := range t.Records {
		out[i], _ = r.Category(name)
	}
	return out
}

// WithNumericColumn returns a table whose column name holds values.
// The column is appended when it does not exist yet.
func (t *Table) WithNumericColumn(name string, values []float64) (*Table, error) {
	if len(values) != len(t.Records) {
		return nil, fmt.Errorf("column %s: %d values for %d records", name, len(values), len(t.Records))
	}
	out := t.withColumn(Column{Name: name, Kind: KindNumeric})
	for i, r := range t.Records {
		out.Records[i] = r.WithNumber(name, values[i])
	}
	return out, nil
}

// WithCategoricalColumn is WithNumericColumn for text values.
func (t *Table) WithCategoricalColumn(name string, values []string) (*Table, error) {
	if len(values) != len(t.Records) {
		return nil, fmt.Errorf("column %s: %d values for %d records", name, len(values), len(t.Records))
	}
	out := t.withColumn(Column{Name: name, Kind: KindCategorical})
	for i, r := range t.Records {
		out.Records[i] = r.WithCategory(name, values[i])
	}
	return out, nil
}

func (t *Table) withColumn(c Column) *Table {
	cols := append([]Column(nil), t.Columns...)
	found := false
	for i := range cols {
		if cols[i].Name == c.Name {
			cols[i] = c
			found = true
		}
	}
	if !found {
		cols = append(cols, c)
	}
	return &Table{IDField: t.IDField, Columns: cols, Records: make([]Record, len(t.Records))}
}

// Select returns a table containing the records at the given indices, in order.
func (t *Table) Select(indices []int) *Table {
	recs := make([]Record, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(t.Records) {
			recs = append(recs, t.Records[i])
		}
	}
	return &Table{IDField: t.IDField, Columns: append([]Column(nil), t.Columns...), Records: recs}
}

// Drop returns a table without the records whose index is in drop.
func (t *Table) Drop(drop map[int]bool) *Table {
	keep := make([]int, 0, len(t.Records))
	for i := range t.Records {
		if !drop[i] {
			keep = append(keep, i)
		}
	}
	return t.Select(keep)
}

// MapRecords returns a table with fn applied to every record.
func (t *Table) MapRecords(fn func(i int, r Record) Record) *Table {
	out := &Table{IDField: t.IDField, Columns: append([]Column(nil), t.Columns...), Records: make([]Record, len(t.Records))}
	for i, r := range t.Records {
		out.Records[i] = fn(i, r)
	}
	return out
}

// Conform sets each column's kind from the schema when the schema declares it.
func (t *Table) Conform(s *Schema) *Table {
	cols := append([]Column(nil), t.Columns...)
	for i, c := range cols {
		if f, ok := s.Field(c.Name); ok {
			cols[i].Kind = f.Kind
		}
	}
	return &Table{IDField: t.IDField, Columns: cols, Records: t.Records}
}
