// Package rules holds the declarative damage rule table: damage types with a
// base weight and a list of (predicate, multiplier) adjustments.
//
// A Table is the decoded YAML/JSON document. Compile validates it against a
// dataset schema once, at load time, and produces an immutable Compiled table
// that the classifier evaluates per record.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
)

//go:embed defaults/rules.yaml
var defaultRulesYAML []byte

// DefaultSource names the embedded rule table in logs and errors.
const DefaultSource = "embedded rules"

// Op is a leaf comparator.
type Op string

const (
	OpGT      Op = "gt"
	OpGE      Op = "ge"
	OpLT      Op = "lt"
	OpLE      Op = "le"
	OpEQ      Op = "eq"
	OpNE      Op = "ne"
	OpIn      Op = "in"
	OpNotIn   Op = "not_in"
	OpBetween Op = "between"
)

// Predicate is a tagged condition. Exactly one of the following shapes is set:
// a leaf (Field + Op + Value/Values/Min,Max) or one of All, Any, Not.
type Predicate struct {
	Field  string   `yaml:"field,omitempty" json:"field,omitempty"`
	Op     Op       `yaml:"op,omitempty" json:"op,omitempty"`
	Value  any      `yaml:"value,omitempty" json:"value,omitempty"`
	Values []any    `yaml:"values,omitempty" json:"values,omitempty"`
	Min    *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max    *float64 `yaml:"max,omitempty" json:"max,omitempty"`

	All []Predicate `yaml:"all,omitempty" json:"all,omitempty"`
	Any []Predicate `yaml:"any,omitempty" json:"any,omitempty"`
	Not *Predicate  `yaml:"not,omitempty" json:"not,omitempty"`
}

// Severity is one driver of the severity score. With no Field the driver
// contributes its bare Weight.
type Severity struct {
	Weight float64 `yaml:"weight" json:"weight"`
	Field  string  `yaml:"field,omitempty" json:"field,omitempty"`
	Scale  float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
}

type Adjustment struct {
	Name       string    `yaml:"name" json:"name"`
	When       Predicate `yaml:"when" json:"when"`
	Multiplier float64   `yaml:"multiplier" json:"multiplier"`
	Severity   *Severity `yaml:"severity,omitempty" json:"severity,omitempty"`
}

type DamageType struct {
	Name        string       `yaml:"name" json:"name"`
	BaseWeight  float64      `yaml:"base_weight" json:"base_weight"`
	Adjustments []Adjustment `yaml:"adjustments,omitempty" json:"adjustments,omitempty"`
}

// Table is the serializable rule table.
type Table struct {
	Sentinel string `yaml:"sentinel" json:"sentinel"`

	// NoSignalFloor is the minimum sentinel probability when no adjustment
	// fires for any damage type. Defaults to 1.0.
	NoSignalFloor *float64 `yaml:"no_signal_floor,omitempty" json:"no_signal_floor,omitempty"`

	// SeverityBound is the upper clamp of severity scores. Defaults to 5.
	SeverityBound *float64 `yaml:"severity_bound,omitempty" json:"severity_bound,omitempty"`

	DamageTypes []DamageType `yaml:"damage_types" json:"damage_types"`
}

// Parse decodes a YAML or JSON rule table. It does not validate; see Compile.
func Parse(data []byte, source string) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, apperr.Configf(source, "decode rule table: %v", err)
	}
	return &t, nil
}

// Load reads a rule table from path. An empty path returns the embedded default.
func Load(path string) (*Table, string, error) {
	if strings.TrimSpace(path) == "" {
		t, err := Default()
		return t, DefaultSource, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read rule table: %w", err)
	}
	t, err := Parse(data, path)
	return t, path, err
}

// Default returns the embedded Haynesville catalog.
func Default() (*Table, error) {
	return Parse(defaultRulesYAML, DefaultSource)
}

// Marshal encodes the table as YAML.
func Marshal(t *Table) ([]byte, error) {
	return yaml.Marshal(t)
}
