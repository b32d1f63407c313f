package preprocess

import (
	"fmt"
	"strings"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

// Combination is an operationally impossible (formation, fluid, completion)
// triple. Matching is case-insensitive and a pattern matches any value that
// contains it, so "liner" matches "Slotted Liner".
type Combination struct {
	Formation  string `yaml:"formation" json:"formation"`
	Fluid      string `yaml:"fluid" json:"fluid"`
	Completion string `yaml:"completion" json:"completion"`
}

func (c Combination) String() string {
	return fmt.Sprintf("(%s, %s, %s)", c.Formation, c.Fluid, c.Completion)
}

// DefaultCombinations is the catalog of invalid triples.
func DefaultCombinations() []Combination {
	return []Combination{
		{"shale", "acid", "open hole"},
		{"shale", "oil-based", "open hole"},
		{"shale", "acid", "perforated"},
		{"shale", "brine", "open hole"},
		{"carbonate", "oil-based", "liner"},
		{"mixed", "acid", "open hole"},
		{"mixed", "oil-based", "open hole"},
		{"sandstone", "acid", "open hole"},
		{"sandstone", "brine", "open hole"},
		{"dolomite", "water-based", "open hole"},
	}
}

// CombinationFields names the columns holding each part of the triple.
type CombinationFields struct {
	Formation  string
	Fluid      string
	Completion string
}

// DefaultCombinationFields matches the default schema.
var DefaultCombinationFields = CombinationFields{Formation: "formation", Fluid: "fluid_type", Completion: "completion_type"}

// Action is the recommended response to a share of invalid rows.
type Action string

const (
	ActionIgnore      Action = "ignore"
	ActionRemove      Action = "remove"
	ActionInvestigate Action = "investigate"
	ActionAudit       Action = "audit"
)

// DecideCombinationAction maps the percentage of invalid rows to an action:
// under 1% ignore, under 5% remove, under 10% investigate, otherwise audit.
func DecideCombinationAction(percent float64) Action {
	switch {
	case percent < 1:
		return ActionIgnore
	case percent < 5:
		return ActionRemove
	case percent < 10:
		return ActionInvestigate
	default:
		return ActionAudit
	}
}

// CombinationReport lists the rows holding an invalid triple.
type CombinationReport struct {
	Rows    []int
	Matches map[int]Combination
	Percent float64
	Action  Action
}

// InvalidCombinations flags rows whose triple matches one of combos.
// Rows missing any of the three fields are never flagged.
func InvalidCombinations(t *dataset.Table, combos []Combination, f CombinationFields) (CombinationReport, error) {
	if f == (CombinationFields{}) {
		f = DefaultCombinationFields
	}
	for _, col := range []string{f.Formation, f.Fluid, f.Completion} {
		if !t.HasColumn(col) {
			return CombinationReport{}, apperr.Userf("invalid combination check needs column %q", col)
		}
	}
	rep := CombinationReport{Matches: map[int]Combination{}}
	for i, r := range t.Records {
		form, ok1 := r.Category(f.Formation)
		fluid, ok2 := r.Category(f.Fluid)
		comp, ok3 := r.Category(f.Completion)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		for _, c := range combos {
			if matches(form, c.Formation) && matches(fluid, c.Fluid) && matches(comp, c.Completion) {
				rep.Rows = append(rep.Rows, i)
				rep.Matches[i] = c
				logger.Logf(r.ID(), "invalid combination %s", c)
				break
			}
		}
	}
	if t.Len() > 0 {
		rep.Percent = 100 * float64(len(rep.Rows)) / float64(t.Len())
	}
	rep.Action = DecideCombinationAction(rep.Percent)
	return rep, nil
}

func matches(value, pattern string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(value)), strings.ToLower(strings.TrimSpace(pattern)))
}

// Dedupe drops records whose id was already seen, keeping the first.
// Records without an id are kept.
func Dedupe(t *dataset.Table) (*dataset.Table, int) {
	seen := map[string]bool{}
	drop := map[int]bool{}
	for i, r := range t.Records {
		id := r.ID()
		if id == "" {
			continue
		}
		if seen[id] {
			drop[i] = true
			continue
		}
		seen[id] = true
	}
	if len(drop) > 0 {
		logf("dedupe: dropped %d duplicate record(s)", len(drop))
	}
	return t.Drop(drop), len(drop)
}
