package tableio

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

func readCSV(path string) (grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return grid{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return grid{}, fmt.Errorf("parse csv %s: %w", path, err)
	}
	if len(rows) == 0 {
		return grid{}, nil
	}
	return grid{header: rows[0], rows: rows[1:]}, nil
}

func writeCSV(t *dataset.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header(t)); err != nil {
		return err
	}
	row := make([]string, len(t.Columns)+1)
	for _, rec := range t.Records {
		row[0] = rec.ID()
		for j, c := range t.Columns {
			row[j+1] = ""
			if c.Kind == dataset.KindNumeric {
				if v, ok := rec.Number(c.Name); ok {
					row[j+1] = formatNumber(v)
				}
				continue
			}
			if v, ok := rec.Category(c.Name); ok {
				row[j+1] = v
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
