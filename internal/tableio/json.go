package tableio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

// readJSON decodes an array of flat objects. Column order follows the
// schema for declared fields, then the remaining keys sorted.
func readJSON(path string, schema *dataset.Schema) (grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return grid{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var objs []map[string]any
	if err := dec.Decode(&objs); err != nil {
		return grid{}, fmt.Errorf("parse json %s: %w", path, err)
	}

	keys := map[string]bool{}
	for _, o := range objs {
		for k := range o {
			keys[k] = true
		}
	}
	var head []string
	idField := "record_id"
	if schema != nil {
		idField = schema.IDField
	}
	if keys[idField] {
		head = append(head, idField)
		delete(keys, idField)
	}
	for _, name := range schema.Names("") {
		if keys[name] {
			head = append(head, name)
			delete(keys, name)
		}
	}
	rest := make([]string, 0, len(keys))
	for k := range keys {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	head = append(head, rest...)

	g := grid{header: head, rows: make([][]string, 0, len(objs))}
	for _, o := range objs {
		row := make([]string, len(head))
		for j, k := range head {
			switch v := o[k].(type) {
			case nil:
			case json.Number:
				row[j] = v.String()
			case string:
				row[j] = v
			case bool:
				row[j] = strconv.FormatBool(v)
			default:
				return grid{}, fmt.Errorf("parse json %s: field %q holds a nested value", path, k)
			}
		}
		g.rows = append(g.rows, row)
	}
	return g, nil
}

// writeJSON writes an indented array of objects with keys in column order.
func writeJSON(t *dataset.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	w.WriteString("[")
	head := header(t)
	keys := make([][]byte, len(head))
	for j, h := range head {
		keys[j], _ = json.Marshal(h)
	}
	for i, rec := range t.Records {
		if i > 0 {
			w.WriteString(",")
		}
		w.WriteString("\n  {")
		for j := range head {
			if j > 0 {
				w.WriteString(", ")
			}
			w.Write(keys[j])
			w.WriteString(": ")
			var v any
			if j == 0 {
				v = rec.ID()
			} else {
				c := t.Columns[j-1]
				if c.Kind == dataset.KindNumeric {
					if n, ok := rec.Number(c.Name); ok {
						v = n
					}
				} else if s, ok := rec.Category(c.Name); ok {
					v = s
				}
			}
			b, err := json.Marshal(v)
			if err != nil {
				return err
			}
			w.Write(b)
		}
		w.WriteString("}")
	}
	if t.Len() > 0 {
		w.WriteString("\n")
	}
	w.WriteString("]\n")
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
