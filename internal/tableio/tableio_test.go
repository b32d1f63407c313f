package tableio

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

func sampleTable() *dataset.Table {
	cols := []dataset.Column{
		{Name: "formation", Kind: dataset.KindCategorical},
		{Name: "permeability", Kind: dataset.KindNumeric},
		{Name: "ph", Kind: dataset.KindNumeric},
	}
	return dataset.NewTable("record_id", cols, []dataset.Record{
		dataset.NewRecord("w1-0000000", map[string]float64{"permeability": 120.5, "ph": 7}, map[string]string{"formation": "Shale"}),
		dataset.NewRecord("w1-0000001", map[string]float64{"ph": 9.25}, map[string]string{"formation": "Sandstone, tight"}),
	})
}

type flatRecord struct {
	ID  string
	Num map[string]float64
	Cat map[string]string
}

func flatten(t *dataset.Table) []flatRecord {
	out := make([]flatRecord, 0, t.Len())
	for _, r := range t.Records {
		out = append(out, flatRecord{ID: r.ID(), Num: r.Numbers(), Cat: r.Categories()})
	}
	return out
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		path, format string
		want         Format
		userErr      bool
	}{
		{"a.csv", "", FormatCSV, false},
		{"a.CSV", "auto", FormatCSV, false},
		{"a.xlsx", "", FormatXLSX, false},
		{"a.json", "", FormatJSON, false},
		{"a.out", "json", FormatJSON, false},
		{"a.parquet", "", "", true},
		{"a.dat", "", "", true},
		{"a.csv", "xml", "", true},
	}
	for _, tt := range tests {
		got, err := ResolveFormat(tt.path, tt.format)
		if tt.userErr {
			if !apperr.IsUser(err) {
				t.Errorf("ResolveFormat(%q, %q) error = %v, want user error", tt.path, tt.format, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ResolveFormat(%q, %q) = (%q, %v), want %q", tt.path, tt.format, got, err, tt.want)
		}
	}
}

func TestWriteRead_AllFormats(t *testing.T) {
	for _, ext := range []string{"csv", "xlsx", "json"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "records."+ext)
			in := sampleTable()
			if err := Write(in, path, "auto"); err != nil {
				t.Fatalf("Write: %v", err)
			}
			out, err := Read(path, "auto", nil)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if diff := cmp.Diff(in.Columns, out.Columns); diff != "" {
				t.Fatalf("columns mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(flatten(in), flatten(out)); diff != "" {
				t.Fatalf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRead_CSVWithSchemaAndMissingMarkers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.csv")
	data := "record_id,well_id,ph,extra\nr1,4010,7.5,x\nr2,4010,NaN,\nr3,4013,,y\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	schema, err := dataset.ParseSchema([]byte(`
fields:
  - {name: well_id, kind: categorical}
  - {name: ph, kind: numeric}
`), "test")
	if err != nil {
		t.Fatal(err)
	}

	tbl, err := Read(path, "", schema)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []dataset.Column{
		{Name: "well_id", Kind: dataset.KindCategorical},
		{Name: "ph", Kind: dataset.KindNumeric},
		{Name: "extra", Kind: dataset.KindCategorical},
	}
	if diff := cmp.Diff(want, tbl.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if w, _ := tbl.Records[0].Category("well_id"); w != "4010" {
		t.Fatalf("well_id = %q, want the declared categorical text", w)
	}
	if tbl.Records[1].Has("ph") || tbl.Records[2].Has("ph") {
		t.Fatal("NaN and empty cells must be missing")
	}
}

func TestRead_CSVWithoutIDColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	if err := os.WriteFile(path, []byte("ph\n7\n8\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	tbl, err := Read(path, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := []string{tbl.Records[0].ID(), tbl.Records[1].ID()}; !cmp.Equal(got, []string{"1", "2"}) {
		t.Fatalf("ids = %v, want row numbers", got)
	}
}

func TestRead_NonNumericInDeclaredColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	if err := os.WriteFile(path, []byte("record_id,ph\nr1,acidic\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	schema, err := dataset.ParseSchema([]byte(`fields: [{name: ph, kind: numeric}]`), "test")
	if err != nil {
		t.Fatal(err)
	}
	_, err = Read(path, "", schema)
	if !apperr.IsUser(err) || !strings.Contains(err.Error(), `row 2 column ph: "acidic" is not a number`) {
		t.Fatalf("error = %v, want user error naming the cell", err)
	}
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Read(filepath.Join(dir, "missing.csv"), "", nil); err == nil {
		t.Fatal("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"not": "an array"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(bad, "", nil); err == nil {
		t.Fatal("expected error for non-array json")
	}

	nested := filepath.Join(dir, "nested.json")
	if err := os.WriteFile(nested, []byte(`[{"a": {"b": 1}}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(nested, "", nil); err == nil {
		t.Fatal("expected error for nested json value")
	}

	dup := filepath.Join(dir, "dup.csv")
	if err := os.WriteFile(dup, []byte("a,a\n1,2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(dup, "", nil); !apperr.IsUser(err) {
		t.Fatalf("error = %v, want user error for duplicate header", err)
	}
}

func TestWriteJSON_NullForMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := Write(sampleTable(), path, ""); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"record_id": "w1-0000001", "formation": "Sandstone, tight", "permeability": null, "ph": 9.25}`
	if !strings.Contains(string(data), want) {
		t.Fatalf("json output missing %s:\n%s", want, data)
	}
}

func TestRead_NonFiniteCell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wells.csv")
	if err := os.WriteFile(path, []byte("record_id,porosity\na,inf\nb,-Infinity\nc,0.2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Read(path, "", nil)
	if !apperr.IsUser(err) {
		t.Fatalf("Read err = %v, want a user error", err)
	}
	for _, want := range []string{`row 2 column porosity: "inf" is not a finite number`, `row 3 column porosity: "-Infinity" is not a finite number`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q lacks %q", err, want)
		}
	}
}

func TestWrite_FailureKeepsExistingFile(t *testing.T) {
	for _, name := range []string{"out.json", "out.csv", "out.xlsx"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, name)
			if err := Write(sampleTable(), path, ""); err != nil {
				t.Fatalf("Write: %v", err)
			}
			before, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}

			bad := sampleTable().MapRecords(func(i int, r dataset.Record) dataset.Record {
				if i == 1 {
					return r.WithNumber("permeability", math.Inf(1))
				}
				return r
			})
			err = Write(bad, path, "")
			if !apperr.IsUser(err) || !strings.Contains(err.Error(), "w1-0000001 column permeability") {
				t.Fatalf("Write(+Inf) err = %v, want a user error naming the cell", err)
			}

			after, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(before, after) {
				t.Error("failed write changed the existing file")
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Errorf("directory holds %d entries after a failed write, want 1", len(entries))
			}
		})
	}
}
