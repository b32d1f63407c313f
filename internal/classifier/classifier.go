// Package classifier maps well records to damage assessments using a
// compiled rule table.
//
// Classification is a pure function of (record, table, one random draw).
// The random source is always injected; nothing in this package touches
// global random state.
package classifier

import (
	"fmt"
	"math"
	"strings"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/rules"
)

// Source is the random source used for the single selection draw.
// *math/rand/v2.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Policy decides what happens to values outside a field's physical bounds.
type Policy string

const (
	// PolicyClamp replaces the value by the nearest bound and records an anomaly.
	PolicyClamp Policy = "clamp"
	// PolicyReject fails the record with a ValidationError.
	PolicyReject Policy = "reject"
	// PolicyPass keeps the value and records an anomaly.
	PolicyPass Policy = "pass"
)

// ParsePolicy validates a policy name. Empty means clamp.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyClamp, nil
	case PolicyClamp, PolicyReject, PolicyPass:
		return p, nil
	default:
		return "", apperr.Userf("invalid bounds policy %q (expected clamp|reject|pass)", s)
	}
}

// Options configures a classification.
type Options struct {
	// Severity requests the severity pass.
	Severity bool

	// Schema supplies physical bounds. Nil disables bounds checking.
	Schema *dataset.Schema
	Policy Policy
}

// Distribution is the normalised weight vector for one record.
type Distribution struct {
	Names   []string
	Weights []float64 // after multipliers, before normalisation
	Probs   []float64 // sums to 1

	// Signal is false when no adjustment fired for any damage type.
	Signal bool

	// fired[i] holds the indices of the rules that fired for candidate i.
	fired [][]int
}

// Prob returns the probability of a damage type, or 0 when unknown.
func (d Distribution) Prob(name string) float64 {
	for i, n := range d.Names {
		if n == name {
			return d.Probs[i]
		}
	}
	return 0
}

// BaseShares returns the normalised base weights of c, the distribution a
// record would get if nothing fired and no floor applied.
func BaseShares(c *rules.Compiled) []float64 {
	out := make([]float64, len(c.Candidates))
	total := 0.0
	for i, cand := range c.Candidates {
		out[i] = cand.BaseWeight
		total += cand.BaseWeight
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// Weigh scores every damage type for rec. Each candidate starts from its base
// weight and is multiplied by every adjustment that fires. Weights are then
// normalised. When nothing fires at all the sentinel gets at least the
// configured no-signal floor and the other candidates share the remainder.
func Weigh(rec dataset.Record, c *rules.Compiled) Distribution {
	n := len(c.Candidates)
	d := Distribution{
		Names:   c.Names(),
		Weights: make([]float64, n),
		Probs:   make([]float64, n),
		fired:   make([][]int, n),
	}
	total := 0.0
	for i, cand := range c.Candidates {
		w := cand.BaseWeight
		for j, rule := range cand.Rules {
			if rule.Fires(rec) {
				w *= rule.Multiplier
				d.fired[i] = append(d.fired[i], j)
				d.Signal = true
			}
		}
		d.Weights[i] = w
		total += w
	}
	if total <= 0 || math.IsInf(total, 0) || math.IsNaN(total) {
		// Only reachable when every firing candidate underflows; fall back to the sentinel.
		d.Probs[c.SentinelIndex()] = 1
		return d
	}
	for i, w := range d.Weights {
		d.Probs[i] = w / total
	}

	if !d.Signal {
		s := c.SentinelIndex()
		share := d.Probs[s]
		target := math.Max(share, c.NoSignalFloor)
		if target > share {
			rest := 1 - share
			for i := range d.Probs {
				if i == s {
					continue
				}
				if rest > 0 {
					d.Probs[i] = d.Probs[i] * (1 - target) / rest
				} else {
					d.Probs[i] = 0
				}
			}
			d.Probs[s] = target
		}
	}
	return d
}

// Sample draws one index from the distribution using a single u in [0, 1).
func (d Distribution) Sample(u float64) int {
	cum := 0.0
	last := -1
	for i, p := range d.Probs {
		if p <= 0 {
			continue
		}
		cum += p
		last = i
		if u < cum {
			return i
		}
	}
	// Rounding can leave cum slightly below 1.
	return last
}

// Classify assigns a damage type to rec. The only randomness is one
// rng.Float64 draw against the weight distribution, so the same record,
// table and seed always give the same label.
//
// With PolicyReject, a value outside its physical bounds returns a
// *apperr.ValidationError and no assessment.
func Classify(rec dataset.Record, c *rules.Compiled, rng Source, opts Options) (dataset.Assessment, error) {
	rec, anomalies, err := CheckBounds(rec, opts.Schema, opts.Policy)
	if err != nil {
		logger.Logf(rec.ID(), "rejected: %v", err)
		return dataset.Assessment{RecordID: rec.ID()}, err
	}

	d := Weigh(rec, c)
	win := d.Sample(rng.Float64())
	if win < 0 {
		win = c.SentinelIndex()
	}

	out := dataset.Assessment{
		RecordID:   rec.ID(),
		DamageType: c.Candidates[win].Name,
		Anomalies:  anomalies,
	}
	for i, idx := range d.fired {
		for _, j := range idx {
			out.Matched = append(out.Matched, c.Candidates[i].Name+"/"+c.Candidates[i].Rules[j].Name)
		}
	}
	if opts.Severity {
		out.Severity, out.HasSeverity = severity(rec, c, d, win)
	}
	logger.Logf(rec.ID(), "damage=%s p=%.3f signal=%t", out.DamageType, d.Probs[win], d.Signal)
	return out, nil
}

// severity is the weighted sum of the normalised drivers of the rules that
// fired for the winner, scaled to the bound and clamped to [0, bound].
func severity(rec dataset.Record, c *rules.Compiled, d Distribution, win int) (float64, bool) {
	if win == c.SentinelIndex() {
		return 0, true
	}
	cand := c.Candidates[win]
	sum, has := 0.0, false
	for _, j := range d.fired[win] {
		if drv := cand.Rules[j].Driver; drv != nil {
			sum += drv.Score(rec)
			has = true
		}
	}
	if !has {
		return 0, false
	}
	return clamp(sum*c.SeverityBound, 0, c.SeverityBound), true
}

// CheckBounds applies the bounds policy to every numeric field of rec that
// has declared physical bounds. Fields are checked in schema order.
func CheckBounds(rec dataset.Record, s *dataset.Schema, p Policy) (dataset.Record, []string, error) {
	if s == nil {
		return rec, nil, nil
	}
	if p == "" {
		p = PolicyClamp
	}
	var anomalies []string
	for _, f := range s.Fields {
		if f.Kind != dataset.KindNumeric {
			continue
		}
		lo, hi, ok := f.HardBounds()
		if !ok {
			continue
		}
		v, present := rec.Number(f.Name)
		if !present || (v >= lo && v <= hi) {
			continue
		}
		switch p {
		case PolicyReject:
			return rec, nil, &apperr.ValidationError{RecordID: rec.ID(), Field: f.Name, Value: v, Min: lo, Max: hi}
		case PolicyPass:
			anomalies = append(anomalies, fmt.Sprintf("%s=%g outside [%g, %g]", f.Name, v, lo, hi))
		default:
			cv := clamp(v, lo, hi)
			anomalies = append(anomalies, fmt.Sprintf("%s=%g clamped to %g", f.Name, v, cv))
			rec = rec.WithNumber(f.Name, cv)
		}
	}
	return rec, anomalies, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
