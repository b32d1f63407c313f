package tableio

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

// sheetName is used for written workbooks. Reading takes the first sheet.
const sheetName = "records"

func readXLSX(path string) (grid, error) {
	x, err := excelize.OpenFile(path)
	if err != nil {
		return grid{}, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer x.Close()

	sheets := x.GetSheetList()
	if len(sheets) == 0 {
		return grid{}, nil
	}
	rows, err := x.GetRows(sheets[0])
	if err != nil {
		return grid{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return grid{}, nil
	}
	return grid{header: rows[0], rows: rows[1:]}, nil
}

func writeXLSX(t *dataset.Table, path string) error {
	x := excelize.NewFile()
	defer x.Close()

	if err := x.SetSheetName(x.GetSheetName(0), sheetName); err != nil {
		return err
	}
	sw, err := x.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}

	head := header(t)
	cells := make([]any, len(head))
	for j, h := range head {
		cells[j] = h
	}
	if err := sw.SetRow("A1", cells); err != nil {
		return err
	}
	for i, rec := range t.Records {
		row := make([]any, len(head))
		row[0] = rec.ID()
		for j, c := range t.Columns {
			if c.Kind == dataset.KindNumeric {
				if v, ok := rec.Number(c.Name); ok {
					row[j+1] = v
				}
				continue
			}
			if v, ok := rec.Category(c.Name); ok {
				row[j+1] = v
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return x.SaveAs(path)
}
