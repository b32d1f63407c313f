package dataset

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
)

//go:embed defaults/schema.yaml
var defaultSchemaYAML []byte

// Kind is the semantic type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// FieldSpec describes one column of a well record.
type FieldSpec struct {
	Name string `yaml:"name" json:"name"`
	Kind Kind   `yaml:"kind" json:"kind"`
	Unit string `yaml:"unit,omitempty" json:"unit,omitempty"`

	// Range is the plausible [min, max] used by the generator.
	Range []float64 `yaml:"range,omitempty" json:"range,omitempty"`

	// HardMin and HardMax are physical bounds. A nil side is unbounded.
	HardMin *float64 `yaml:"hard_min,omitempty" json:"hard_min,omitempty"`
	HardMax *float64 `yaml:"hard_max,omitempty" json:"hard_max,omitempty"`

	// Categories enumerates the accepted values of a categorical field.
	// Empty means free text (identifiers, well names).
	Categories []string  `yaml:"categories,omitempty" json:"categories,omitempty"`
	Weights    []float64 `yaml:"weights,omitempty" json:"weights,omitempty"`
}

// HardBounds returns the physical bounds, using ±Inf for open sides.
func (f FieldSpec) HardBounds() (min, max float64, ok bool) {
	min, max = math.Inf(-1), math.Inf(1)
	if f.HardMin != nil {
		min = *f.HardMin
	}
	if f.HardMax != nil {
		max = *f.HardMax
	}
	return min, max, f.HardMin != nil || f.HardMax != nil
}

// AllowsCategory reports whether v is an accepted value for a categorical field.
func (f FieldSpec) AllowsCategory(v string) bool {
	if len(f.Categories) == 0 {
		return true
	}
	for _, c := range f.Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Schema is the ordered column catalog of a dataset.
type Schema struct {
	IDField string      `yaml:"id_field" json:"id_field"`
	Fields  []FieldSpec `yaml:"fields" json:"fields"`

	index map[string]int
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	if s == nil {
		return FieldSpec{}, false
	}
	if s.index == nil {
		s.buildIndex()
	}
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.Fields[i], true
}

// Has reports whether the schema declares the field.
func (s *Schema) Has(name string) bool {
	_, ok := s.Field(name)
	return ok
}

// Names returns field names of the given kind, in declaration order.
// An empty kind returns every field.
func (s *Schema) Names(kind Kind) []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, f := range s.Fields {
		if kind == "" || f.Kind == kind {
			out = append(out, f.Name)
		}
	}
	return out
}

// Columns returns the schema fields as table columns.
func (s *Schema) Columns() []Column {
	cols := make([]Column, 0, len(s.Fields))
	for _, f := range s.Fields {
		cols = append(cols, Column{Name: f.Name, Kind: f.Kind})
	}
	return cols
}

func (s *Schema) buildIndex() {
	s.index = make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		s.index[f.Name] = i
	}
}

// validate checks structural consistency and builds the lookup index.
func (s *Schema) validate(source string) error {
	var problems []string
	if strings.TrimSpace(s.IDField) == "" {
		s.IDField = "record_id"
	}
	if len(s.Fields) == 0 {
		problems = append(problems, "schema declares no fields")
	}
	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			problems = append(problems, fmt.Sprintf("field[%d]: name is required", i))
			continue
		}
		if seen[name] {
			problems = append(problems, fmt.Sprintf("field %q declared twice", name))
		}
		seen[name] = true
		if name == s.IDField {
			problems = append(problems, fmt.Sprintf("field %q collides with id_field", name))
		}

		switch f.Kind {
		case KindNumeric:
			if len(f.Range) != 0 && (len(f.Range) != 2 || f.Range[0] > f.Range[1]) {
				problems = append(problems, fmt.Sprintf("field %q: range must be [min, max]", name))
			}
			if f.HardMin != nil && f.HardMax != nil && *f.HardMin > *f.HardMax {
				problems = append(problems, fmt.Sprintf("field %q: hard_min %g > hard_max %g", name, *f.HardMin, *f.HardMax))
			}
		case KindCategorical:
			if len(f.Weights) != 0 && len(f.Weights) != len(f.Categories) {
				problems = append(problems, fmt.Sprintf("field %q: %d weights for %d categories", name, len(f.Weights), len(f.Categories)))
			}
		default:
			problems = append(problems, fmt.Sprintf("field %q: unknown kind %q (expected numeric|categorical)", name, f.Kind))
		}
	}
	if len(problems) > 0 {
		return &apperr.ConfigurationError{Source: source, Problems: problems}
	}
	s.buildIndex()
	return nil
}

// ParseSchema decodes and validates a YAML (or JSON) schema document.
func ParseSchema(data []byte, source string) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, apperr.Configf(source, "decode schema: %v", err)
	}
	if err := s.validate(source); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSchema reads a schema file. An empty path returns the embedded default.
func LoadSchema(path string) (*Schema, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSchema()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return ParseSchema(data, path)
}

// DefaultSchema returns the embedded Haynesville well schema.
func DefaultSchema() (*Schema, error) {
	return ParseSchema(defaultSchemaYAML, "embedded schema")
}
