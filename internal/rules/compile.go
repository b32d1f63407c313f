package rules

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

const (
	defaultNoSignalFloor = 1.0
	defaultSeverityBound = 5.0
)

// Driver is a compiled severity driver.
type Driver struct {
	Weight float64
	Field  string
	Scale  float64
}

// Score returns the driver contribution for r: Weight times the field value
// normalised by Scale and clamped to [0, 1]. A missing field contributes 0.
func (d Driver) Score(r dataset.Record) float64 {
	if d.Field == "" {
		return d.Weight
	}
	v, ok := r.Number(d.Field)
	if !ok || d.Scale <= 0 {
		return 0
	}
	return d.Weight * math.Max(0, math.Min(1, v/d.Scale))
}

// Rule is a compiled adjustment.
type Rule struct {
	Name       string
	Multiplier float64
	Driver     *Driver

	cond condition
}

// Fires reports whether the rule's predicate holds for r. Predicates that
// depend on a missing field do not fire.
func (r Rule) Fires(rec dataset.Record) bool {
	return r.cond != nil && r.cond.eval(rec) == yes
}

// Candidate is a compiled damage type.
type Candidate struct {
	Name       string
	BaseWeight float64
	Rules      []Rule
}

// Compiled is a validated, read-only rule table. It is safe for concurrent use.
type Compiled struct {
	Source        string
	Sentinel      string
	NoSignalFloor float64
	SeverityBound float64
	Candidates    []Candidate

	// Warnings lists non-fatal problems found while compiling.
	Warnings []string

	index  map[string]int
	fields []string
}

// Names returns the damage type enumeration in table order.
func (c *Compiled) Names() []string {
	out := make([]string, len(c.Candidates))
	for i, cand := range c.Candidates {
		out[i] = cand.Name
	}
	return out
}

// Index returns the position of a damage type, or -1.
func (c *Compiled) Index(name string) int {
	if i, ok := c.index[name]; ok {
		return i
	}
	return -1
}

func (c *Compiled) Contains(name string) bool { return c.Index(name) >= 0 }

// SentinelIndex is the position of the "no damage" label.
func (c *Compiled) SentinelIndex() int { return c.index[c.Sentinel] }

// Fields lists the record fields referenced by any predicate or driver, sorted.
func (c *Compiled) Fields() []string { return append([]string(nil), c.fields...) }

// RuleCount is the total number of adjustments.
func (c *Compiled) RuleCount() int {
	n := 0
	for _, cand := range c.Candidates {
		n += len(cand.Rules)
	}
	return n
}

type compiler struct {
	schema   *dataset.Schema
	problems []string
	warnings []string
	warned   map[string]bool
	refs     map[string]bool
	known    map[string]bool
}

func (cc *compiler) problemf(format string, args ...any) {
	cc.problems = append(cc.problems, fmt.Sprintf(format, args...))
}

func (cc *compiler) warnUnknown(field string) {
	if cc.warned[field] {
		return
	}
	cc.warned[field] = true
	cc.warnings = append(cc.warnings, fmt.Sprintf("field %q is not declared in the schema; rules on it never fire", field))
}

// Compile validates t against schema and returns the compiled table.
// Every structural problem is reported in a single ConfigurationError.
// A nil schema infers field kinds from predicate values.
func Compile(t *Table, schema *dataset.Schema, source string) (*Compiled, error) {
	if t == nil {
		return nil, apperr.Configf(source, "rule table is empty")
	}
	cc := &compiler{
		schema: schema,
		warned: map[string]bool{},
		refs:   map[string]bool{},
		known:  map[string]bool{},
	}
	out := &Compiled{
		Source:        source,
		Sentinel:      strings.TrimSpace(t.Sentinel),
		NoSignalFloor: defaultNoSignalFloor,
		SeverityBound: defaultSeverityBound,
		index:         map[string]int{},
	}

	if t.NoSignalFloor != nil {
		out.NoSignalFloor = *t.NoSignalFloor
		if !(out.NoSignalFloor > 0 && out.NoSignalFloor <= 1) {
			cc.problemf("no_signal_floor %g must be in (0, 1]", out.NoSignalFloor)
		}
	}
	if t.SeverityBound != nil {
		out.SeverityBound = *t.SeverityBound
		if !(out.SeverityBound > 0) || math.IsInf(out.SeverityBound, 0) {
			cc.problemf("severity_bound %g must be a positive number", out.SeverityBound)
		}
	}

	if len(t.DamageTypes) == 0 {
		cc.problemf("rule table declares no damage types")
	}
	total := 0.0
	for i, dt := range t.DamageTypes {
		name := strings.TrimSpace(dt.Name)
		if name == "" {
			cc.problemf("damage_types[%d]: name is required", i)
			continue
		}
		if _, dup := out.index[name]; dup {
			cc.problemf("damage type %q declared twice", name)
			continue
		}
		if math.IsNaN(dt.BaseWeight) || math.IsInf(dt.BaseWeight, 0) || dt.BaseWeight < 0 {
			cc.problemf("damage type %q: base_weight %g must be a finite number >= 0", name, dt.BaseWeight)
		} else {
			total += dt.BaseWeight
		}
		out.index[name] = len(out.Candidates)
		out.Candidates = append(out.Candidates, cc.candidate(name, dt))
	}
	if len(t.DamageTypes) > 0 && total <= 0 {
		cc.problemf("base weights sum to %g; at least one must be positive", total)
	}

	switch {
	case out.Sentinel == "":
		cc.problemf("sentinel (the no-damage label) is required")
	case len(out.Candidates) > 0 && !out.Contains(out.Sentinel):
		cc.problemf("sentinel %q is not a declared damage type", out.Sentinel)
	}

	if len(cc.refs) == 0 {
		if len(t.DamageTypes) > 0 {
			cc.problemf("rule table declares no adjustments and can never produce a signal")
		}
	} else if len(cc.known) == 0 {
		cc.problemf("none of the referenced fields (%s) exist in the schema; the table can never produce a signal", strings.Join(sortedKeys(cc.refs), ", "))
	}

	if len(cc.problems) > 0 {
		return nil, &apperr.ConfigurationError{Source: source, Problems: cc.problems}
	}
	out.Warnings = cc.warnings
	out.fields = sortedKeys(cc.refs)
	for _, w := range out.Warnings {
		logf("%s: %s", source, w)
	}
	logf("compiled %s: %d damage types, %d adjustments, sentinel %s", source, len(out.Candidates), out.RuleCount(), out.Sentinel)
	return out, nil
}

func (cc *compiler) candidate(name string, dt DamageType) Candidate {
	cand := Candidate{Name: name, BaseWeight: dt.BaseWeight}
	seen := map[string]bool{}
	for j, adj := range dt.Adjustments {
		rname := strings.TrimSpace(adj.Name)
		if rname == "" {
			rname = fmt.Sprintf("rule_%d", j+1)
		}
		where := fmt.Sprintf("%s/%s", name, rname)
		if seen[rname] {
			cc.problemf("%s: adjustment declared twice", where)
		}
		seen[rname] = true

		if math.IsNaN(adj.Multiplier) || math.IsInf(adj.Multiplier, 0) || adj.Multiplier <= 0 {
			cc.problemf("%s: multiplier %g must be a finite number > 0", where, adj.Multiplier)
		}
		rule := Rule{Name: rname, Multiplier: adj.Multiplier}
		rule.cond = cc.predicate(where, adj.When)
		if adj.Severity != nil {
			rule.Driver = cc.driver(where, *adj.Severity)
		}
		cand.Rules = append(cand.Rules, rule)
	}
	return cand
}

func (cc *compiler) driver(where string, s Severity) *Driver {
	if math.IsNaN(s.Weight) || math.IsInf(s.Weight, 0) || s.Weight < 0 {
		cc.problemf("%s: severity weight %g must be a finite number >= 0", where, s.Weight)
	}
	field := strings.TrimSpace(s.Field)
	if field != "" {
		if !(s.Scale > 0) || math.IsInf(s.Scale, 0) {
			cc.problemf("%s: severity scale %g must be > 0 when a field is set", where, s.Scale)
		}
		if kind, ok := cc.kindOf(field, dataset.KindNumeric); !ok {
			cc.warnUnknown(field)
		} else if kind != dataset.KindNumeric {
			cc.problemf("%s: severity field %q is not numeric", where, field)
		}
	}
	return &Driver{Weight: s.Weight, Field: field, Scale: s.Scale}
}

// kindOf resolves the kind of a field. Without a schema the hint is used.
func (cc *compiler) kindOf(field string, hint dataset.Kind) (dataset.Kind, bool) {
	cc.refs[field] = true
	if cc.schema == nil {
		cc.known[field] = true
		return hint, true
	}
	f, ok := cc.schema.Field(field)
	if !ok {
		return "", false
	}
	cc.known[field] = true
	return f.Kind, true
}

func (cc *compiler) predicate(where string, p Predicate) condition {
	shapes := 0
	if p.Field != "" || p.Op != "" {
		shapes++
	}
	if len(p.All) > 0 {
		shapes++
	}
	if len(p.Any) > 0 {
		shapes++
	}
	if p.Not != nil {
		shapes++
	}
	switch {
	case shapes == 0:
		cc.problemf("%s: empty predicate", where)
		return nil
	case shapes > 1:
		cc.problemf("%s: predicate mixes field/all/any/not; use exactly one", where)
		return nil
	}

	switch {
	case len(p.All) > 0:
		out := make(allOf, 0, len(p.All))
		for i, sub := range p.All {
			out = append(out, cc.predicate(fmt.Sprintf("%s.all[%d]", where, i), sub))
		}
		return out
	case len(p.Any) > 0:
		out := make(anyOf, 0, len(p.Any))
		for i, sub := range p.Any {
			out = append(out, cc.predicate(fmt.Sprintf("%s.any[%d]", where, i), sub))
		}
		return out
	case p.Not != nil:
		return notOf{inner: cc.predicate(where+".not", *p.Not)}
	}
	return cc.leaf(where, p)
}

func (cc *compiler) leaf(where string, p Predicate) condition {
	field := strings.TrimSpace(p.Field)
	if field == "" {
		cc.problemf("%s: comparator %q has no field", where, p.Op)
		return nil
	}
	where = fmt.Sprintf("%s(%s)", where, field)

	switch p.Op {
	case OpGT, OpGE, OpLT, OpLE, OpEQ, OpNE, OpIn, OpNotIn, OpBetween:
	case "":
		cc.problemf("%s: comparator is required", where)
		return nil
	default:
		cc.problemf("%s: unknown comparator %q", where, p.Op)
		return nil
	}

	kind, known := cc.kindOf(field, inferKind(p))
	if !known {
		cc.warnUnknown(field)
		kind = inferKind(p)
	}

	var out condition
	if kind == dataset.KindCategorical {
		out = cc.catLeaf(where, field, p)
	} else {
		out = cc.numLeaf(where, field, p)
	}
	if !known {
		return undeclared{field: field}
	}
	return out
}

func (cc *compiler) numLeaf(where, field string, p Predicate) condition {
	l := numLeaf{field: field, op: p.Op}
	switch p.Op {
	case OpBetween:
		lo, hi := p.Min, p.Max
		if (lo == nil || hi == nil) && len(p.Values) == 2 {
			a, okA := toFloat(p.Values[0])
			b, okB := toFloat(p.Values[1])
			if okA && okB {
				lo, hi = &a, &b
			}
		}
		if lo == nil || hi == nil {
			cc.problemf("%s: between needs min and max", where)
			return nil
		}
		if *lo > *hi {
			cc.problemf("%s: between min %g > max %g", where, *lo, *hi)
		}
		l.a, l.b = *lo, *hi
	case OpIn, OpNotIn:
		if len(p.Values) == 0 {
			cc.problemf("%s: %s needs a non-empty values list", where, p.Op)
			return nil
		}
		for _, v := range p.Values {
			f, ok := toFloat(v)
			if !ok {
				cc.problemf("%s: value %v is not numeric", where, v)
				return nil
			}
			l.set = append(l.set, f)
		}
	default:
		f, ok := toFloat(p.Value)
		if !ok {
			if _, isText := p.Value.(string); isText {
				cc.problemf("%s: text value %q compared with numeric field", where, p.Value)
			} else {
				cc.problemf("%s: %s needs a numeric value", where, p.Op)
			}
			return nil
		}
		l.a = f
	}
	return l
}

func (cc *compiler) catLeaf(where, field string, p Predicate) condition {
	l := catLeaf{field: field, op: p.Op}
	switch p.Op {
	case OpEQ, OpNE:
		s, ok := p.Value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			cc.problemf("%s: %s on categorical field needs a text value", where, p.Op)
			return nil
		}
		l.values = []string{strings.TrimSpace(s)}
	case OpIn, OpNotIn:
		if len(p.Values) == 0 {
			cc.problemf("%s: %s needs a non-empty values list", where, p.Op)
			return nil
		}
		for _, v := range p.Values {
			s, ok := v.(string)
			if !ok {
				cc.problemf("%s: value %v is not text", where, v)
				return nil
			}
			l.values = append(l.values, strings.TrimSpace(s))
		}
	default:
		cc.problemf("%s: numeric comparator %q on categorical field", where, p.Op)
		return nil
	}
	return l
}

func inferKind(p Predicate) dataset.Kind {
	if _, ok := p.Value.(string); ok {
		return dataset.KindCategorical
	}
	if len(p.Values) > 0 {
		if _, ok := p.Values[0].(string); ok {
			return dataset.KindCategorical
		}
	}
	return dataset.KindNumeric
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
