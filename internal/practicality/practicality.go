// Package practicality labels classified records as Practical or
// Non-Practical by checking them against per damage type operating windows.
package practicality

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

//go:embed defaults/practicality.yaml
var defaultYAML []byte

// Label is the practicality verdict.
type Label string

const (
	Practical    Label = "Practical"
	NonPractical Label = "Non-Practical"
)

// Column is the name of the column LabelTable adds.
const Column = "damage_practicality"

// Window is an inclusive operating range.
type Window struct {
	Min, Max float64
}

// UnmarshalYAML accepts the [min, max] sequence form.
func (w *Window) UnmarshalYAML(node *yaml.Node) error {
	var pair []float64
	if err := node.Decode(&pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("line %d: window must be [min, max], got %d values", node.Line, len(pair))
	}
	w.Min, w.Max = pair[0], pair[1]
	return nil
}

func (w Window) MarshalYAML() (any, error) {
	return []float64{w.Min, w.Max}, nil
}

// Rules maps damage type to field to window.
type Rules struct {
	DamageTypes map[string]map[string]Window `yaml:"damage_types"`
}

// Parse decodes and validates a practicality document.
func Parse(data []byte, source string) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, apperr.Configf(source, "decode practicality rules: %v", err)
	}
	var problems []string
	if len(r.DamageTypes) == 0 {
		problems = append(problems, "no damage types declared")
	}
	for _, dt := range sortedKeys(r.DamageTypes) {
		for field, w := range r.DamageTypes[dt] {
			if w.Min > w.Max {
				problems = append(problems, fmt.Sprintf("%s.%s: min %g > max %g", dt, field, w.Min, w.Max))
			}
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, &apperr.ConfigurationError{Source: source, Problems: problems}
	}
	return &r, nil
}

// Load reads rules from path. An empty path returns the embedded default.
func Load(path string) (*Rules, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read practicality rules: %w", err)
	}
	return Parse(data, path)
}

func Default() (*Rules, error) {
	return Parse(defaultYAML, "embedded practicality rules")
}

// Label checks rec against the windows of damageType. Unknown damage types
// are Non-Practical. Only fields present on the record are checked.
func (r *Rules) Label(rec dataset.Record, damageType string) (Label, []string) {
	windows, ok := r.DamageTypes[damageType]
	if !ok {
		return NonPractical, nil
	}
	var violations []string
	for _, field := range sortedKeys(windows) {
		w := windows[field]
		v, ok := rec.Number(field)
		if !ok {
			continue
		}
		if v < w.Min || v > w.Max {
			violations = append(violations, fmt.Sprintf("%s=%g outside [%g, %g]", field, v, w.Min, w.Max))
		}
	}
	if len(violations) > 0 {
		return NonPractical, violations
	}
	return Practical, nil
}

// Summary counts labels overall and per damage type.
type Summary struct {
	Rows      int
	Practical int
	ByType    map[string]int // practical rows per damage type
}

func (s Summary) Percent() float64 {
	if s.Rows == 0 {
		return 0
	}
	return 100 * float64(s.Practical) / float64(s.Rows)
}

// LabelTable adds the damage_practicality column using the damage type
// stored in typeColumn. Rows without a damage type are Non-Practical.
func (r *Rules) LabelTable(t *dataset.Table, typeColumn string) (*dataset.Table, Summary, error) {
	if !t.HasColumn(typeColumn) {
		return nil, Summary{}, apperr.Userf("column %q not found; classify the data first", typeColumn)
	}
	sum := Summary{Rows: t.Len(), ByType: map[string]int{}}
	labels := make([]string, t.Len())
	for i, rec := range t.Records {
		dt, _ := rec.Category(typeColumn)
		l, violations := r.Label(rec, dt)
		labels[i] = string(l)
		if l == Practical {
			sum.Practical++
			sum.ByType[dt]++
		} else if len(violations) > 0 {
			logger.Logf(rec.ID(), "%s non-practical: %s", dt, strings.Join(violations, ", "))
		}
	}
	out, err := t.WithCategoricalColumn(Column, labels)
	if err != nil {
		return nil, Summary{}, err
	}
	return out, sum, nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
