// Package generator produces synthetic well records from the ranges declared
// in a schema, then injects missing values and gaussian noise.
package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

// DefaultWells are the API numbers of the Haynesville sample wells.
var DefaultWells = []string{
	"40100050", "40131881", "40134068", "40181715", "36535068",
	"36500362", "36530944", "18332094", "18331921", "18387931",
}

const (
	DefaultRecordsPerWell = 1000
	DefaultMissingPercent = 5.0
	DefaultNoiseStd       = 0.1
)

// Options configures Generate.
type Options struct {
	Wells          []string
	RecordsPerWell int
	Seed           uint64
	Schema         *dataset.Schema

	// MissingPercent is the share of numeric cells blanked, in [0, 100].
	MissingPercent float64
	// NoiseStd is the standard deviation of the additive gaussian noise.
	// Zero disables noise.
	NoiseStd float64

	OnProgress ProgressCallback
}

// Generate builds a table with RecordsPerWell records for each well. Every
// well draws from its own PCG stream seeded from (Seed, well index), so a
// well's records do not depend on the other wells.
func Generate(ctx context.Context, opts Options) (*dataset.Table, error) {
	if len(opts.Wells) == 0 {
		opts.Wells = DefaultWells
	}
	if opts.RecordsPerWell <= 0 {
		opts.RecordsPerWell = DefaultRecordsPerWell
	}
	if opts.MissingPercent < 0 || opts.MissingPercent > 100 || math.IsNaN(opts.MissingPercent) {
		return nil, apperr.Userf("missing percent must be in [0, 100], got %g", opts.MissingPercent)
	}
	if opts.NoiseStd < 0 || math.IsNaN(opts.NoiseStd) {
		return nil, apperr.Userf("noise std must be >= 0, got %g", opts.NoiseStd)
	}
	if opts.Schema == nil {
		s, err := dataset.DefaultSchema()
		if err != nil {
			return nil, err
		}
		opts.Schema = s
	}
	progress := opts.OnProgress
	if progress == nil {
		progress = func(ProgressEvent) {}
	}

	fields, err := samplers(opts.Schema)
	if err != nil {
		return nil, err
	}

	records := make([]dataset.Record, 0, len(opts.Wells)*opts.RecordsPerWell)
	for wi, well := range opts.Wells {
		well = strings.TrimSpace(well)
		if well == "" {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		progress(ProgressEvent{Type: EventWellStart, Well: well, Index: wi, Total: len(opts.Wells)})
		logf(well, "generating %d record(s)", opts.RecordsPerWell)

		rng := rand.New(rand.NewPCG(opts.Seed, uint64(wi)))
		for i := 0; i < opts.RecordsPerWell; i++ {
			if i%4096 == 0 && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			records = append(records, drawRecord(rng, well, i, fields, opts))
		}

		progress(ProgressEvent{Type: EventWellComplete, Well: well, Index: wi, Total: len(opts.Wells), Records: opts.RecordsPerWell})
	}

	t := dataset.NewTable(opts.Schema.IDField, opts.Schema.Columns(), records)
	progress(ProgressEvent{Type: EventNoiseComplete, Records: t.Len(), Message: fmt.Sprintf("missing=%g%% noise=%g", opts.MissingPercent, opts.NoiseStd)})
	return t, nil
}

type sampler struct {
	spec dataset.FieldSpec
	lo   float64
	hi   float64
	cdf  []float64
}

func samplers(s *dataset.Schema) ([]sampler, error) {
	var out []sampler
	var problems []string
	for _, f := range s.Fields {
		sm := sampler{spec: f}
		switch f.Kind {
		case dataset.KindNumeric:
			if len(f.Range) == 2 {
				sm.lo, sm.hi = f.Range[0], f.Range[1]
			} else {
				lo, hi, _ := f.HardBounds()
				if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
					problems = append(problems, fmt.Sprintf("field %q has no range to draw from", f.Name))
					continue
				}
				sm.lo, sm.hi = lo, hi
			}
		case dataset.KindCategorical:
			if len(f.Categories) > 0 {
				sm.cdf = cumulative(f.Weights, len(f.Categories))
			}
		}
		out = append(out, sm)
	}
	if len(problems) > 0 {
		return nil, &apperr.ConfigurationError{Source: "schema", Problems: problems}
	}
	return out, nil
}

// cumulative returns the normalised cumulative weights, uniform when
// weights are absent or sum to zero.
func cumulative(weights []float64, n int) []float64 {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	cdf := make([]float64, n)
	acc := 0.0
	for i := range cdf {
		w := 1.0 / float64(n)
		if len(weights) == n && total > 0 {
			w = math.Max(weights[i], 0) / total
		}
		acc += w
		cdf[i] = acc
	}
	cdf[n-1] = 1
	return cdf
}

func drawRecord(rng *rand.Rand, well string, i int, fields []sampler, opts Options) dataset.Record {
	num := map[string]float64{}
	cat := map[string]string{}
	for _, f := range fields {
		switch f.spec.Kind {
		case dataset.KindNumeric:
			v := f.lo + rng.Float64()*(f.hi-f.lo)
			if opts.MissingPercent > 0 && rng.Float64()*100 < opts.MissingPercent {
				continue
			}
			if opts.NoiseStd > 0 {
				v += rng.NormFloat64() * opts.NoiseStd
			}
			num[f.spec.Name] = v
		case dataset.KindCategorical:
			if f.cdf == nil {
				cat[f.spec.Name] = well
				continue
			}
			u := rng.Float64()
			for j, c := range f.cdf {
				if u < c || j == len(f.cdf)-1 {
					cat[f.spec.Name] = f.spec.Categories[j]
					break
				}
			}
		}
	}
	return dataset.NewRecord(RecordID(well, i), num, cat)
}

// RecordID formats the id of the i-th record of a well.
func RecordID(well string, i int) string {
	return fmt.Sprintf("%s-%07d", well, i)
}
