// Package tableio reads and writes well record tables as CSV, XLSX or JSON.
package tableio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

// Format is a table file format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ResolveFormat turns a requested format into a concrete one. Empty and
// "auto" are resolved from the file extension.
func ResolveFormat(path, format string) (Format, error) {
	actual := Format(strings.ToLower(strings.TrimSpace(format)))
	switch actual {
	case "", FormatAuto:
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".csv", ".txt":
			return FormatCSV, nil
		case ".xlsx", ".xlsm":
			return FormatXLSX, nil
		case ".json":
			return FormatJSON, nil
		case ".parquet":
			return "", apperr.Userf("parquet files are not supported; convert %s to csv or xlsx", filepath.Base(path))
		default:
			return "", apperr.Userf("cannot detect table format from extension %q (use --format csv|xlsx|json)", ext)
		}
	case FormatCSV, FormatXLSX, FormatJSON:
		return actual, nil
	default:
		return "", apperr.Userf("unsupported table format: %q", format)
	}
}

// Read loads a table from path. The schema, when given, fixes the kind of
// the columns it declares and names the id column; other columns are numeric
// when every present cell parses as a number.
func Read(path, format string, schema *dataset.Schema) (*dataset.Table, error) {
	actual, err := ResolveFormat(path, format)
	if err != nil {
		return nil, err
	}
	var g grid
	switch actual {
	case FormatCSV:
		g, err = readCSV(path)
	case FormatXLSX:
		g, err = readXLSX(path)
	case FormatJSON:
		g, err = readJSON(path, schema)
	}
	if err != nil {
		return nil, err
	}
	t, err := g.table(schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	logf("read %d record(s) and %d column(s) from %s (%s)", t.Len(), len(t.Columns), path, actual)
	return t, nil
}

// Write stores t at path. Missing values become empty cells (null in JSON).
// The file is written next to path under a temporary name and renamed into
// place, so a failed write leaves any previous file untouched.
func Write(t *dataset.Table, path, format string) error {
	actual, err := ResolveFormat(path, format)
	if err != nil {
		return err
	}
	if err := checkFinite(t); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	// The temporary name keeps the extension; excelize refuses unknown ones.
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	os.Chmod(tmpPath, 0o644)

	switch actual {
	case FormatCSV:
		err = writeCSV(t, tmpPath)
	case FormatXLSX:
		err = writeXLSX(t, tmpPath)
	case FormatJSON:
		err = writeJSON(t, tmpPath)
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	logf("wrote %d record(s) to %s (%s)", t.Len(), path, actual)
	return nil
}

// checkFinite rejects infinite values, which no output format can carry.
func checkFinite(t *dataset.Table) error {
	for _, col := range t.NumericColumns() {
		for i, v := range t.Floats(col) {
			if math.IsInf(v, 0) {
				return apperr.Userf("record %s column %s: value %v is not finite", t.Records[i].ID(), col, v)
			}
		}
	}
	return nil
}

// grid is a header plus string cells, the common form of every reader.
type grid struct {
	header []string
	rows   [][]string
}

func (g grid) cell(row []string, j int) string {
	if j >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[j])
}

func (g grid) table(schema *dataset.Schema) (*dataset.Table, error) {
	if len(g.header) == 0 {
		return nil, apperr.Userf("file has no header row")
	}
	idField := "record_id"
	if schema != nil {
		idField = schema.IDField
	}

	idCol := -1
	seen := map[string]bool{}
	var cols []dataset.Column
	var colIdx []int
	for j, name := range g.header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if seen[name] {
			return nil, apperr.Userf("column %q appears twice in the header", name)
		}
		seen[name] = true
		if name == idField {
			idCol = j
			continue
		}
		kind := g.inferKind(j)
		if f, ok := schema.Field(name); ok {
			kind = f.Kind
		}
		cols = append(cols, dataset.Column{Name: name, Kind: kind})
		colIdx = append(colIdx, j)
	}

	var problems []string
	records := make([]dataset.Record, 0, len(g.rows))
	for i, row := range g.rows {
		id := strconv.Itoa(i + 1)
		if idCol >= 0 {
			id = g.cell(row, idCol)
		}
		num := map[string]float64{}
		cat := map[string]string{}
		for k, c := range cols {
			raw := g.cell(row, colIdx[k])
			if isMissing(raw) {
				continue
			}
			if c.Kind == dataset.KindCategorical {
				cat[c.Name] = raw
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
				if len(problems) < 10 {
					what := "a number"
					if err == nil {
						what = "a finite number"
					}
					problems = append(problems, fmt.Sprintf("row %d column %s: %q is not %s", i+2, c.Name, raw, what))
				}
				continue
			}
			num[c.Name] = v
		}
		records = append(records, dataset.NewRecord(id, num, cat))
	}
	if len(problems) > 0 {
		return nil, apperr.Userf("%s", strings.Join(problems, "; "))
	}
	return dataset.NewTable(idField, cols, records), nil
}

func (g grid) inferKind(j int) dataset.Kind {
	present := 0
	for _, row := range g.rows {
		raw := g.cell(row, j)
		if isMissing(raw) {
			continue
		}
		present++
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return dataset.KindCategorical
		}
	}
	if present == 0 {
		return dataset.KindCategorical
	}
	return dataset.KindNumeric
}

func isMissing(raw string) bool {
	switch strings.ToLower(raw) {
	case "", "nan", "na", "n/a", "null", "none":
		return true
	}
	return false
}

// header returns the id column followed by the table columns.
func header(t *dataset.Table) []string {
	out := make([]string, 0, len(t.Columns)+1)
	out = append(out, t.IDField)
	for _, c := range t.Columns {
		out = append(out, c.Name)
	}
	return out
}

func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
