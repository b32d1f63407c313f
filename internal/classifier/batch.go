package classifier

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/rules"
)

// Annotation column names.
const (
	ColumnDamageType = "damage_type"
	ColumnSeverity   = "damage_severity"
	ColumnAnomaly    = "anomaly"
)

// ProgressCallback is called after each classified row. It may be called
// from several goroutines at once.
type ProgressCallback func(done, total int)

// BatchOptions configures ClassifyBatch.
type BatchOptions struct {
	Options

	// Seed is the run seed. Row i draws from PCG(Seed, i).
	Seed uint64

	// Workers bounds the number of goroutines. <= 0 means GOMAXPROCS.
	Workers int

	OnProgress ProgressCallback
}

// Result is the outcome for one row. Err is set (and Assessment holds only
// the record id) when the row was rejected by the bounds policy.
type Result struct {
	Index      int
	Assessment dataset.Assessment
	Err        error
}

// RowSource returns the deterministic random source of row i for seed.
func RowSource(seed uint64, i int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(i)))
}

// ClassifyBatch classifies every record of t in parallel. Each row owns a
// random stream derived from the seed and its index, so results do not
// depend on the worker count or scheduling. Per-row validation failures are
// recorded on the row; only cancellation aborts the batch.
func ClassifyBatch(ctx context.Context, t *dataset.Table, c *rules.Compiled, opts BatchOptions) ([]Result, error) {
	n := t.Len()
	results := make([]Result, n)
	if n == 0 {
		return results, nil
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	progress := opts.OnProgress
	if progress == nil {
		progress = func(int, int) {} // no-op
	}

	jobs := make(chan int)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				a, err := Classify(t.Records[i], c, RowSource(opts.Seed, i), opts.Options)
				results[i] = Result{Index: i, Assessment: a, Err: err}
				progress(int(done.Add(1)), n)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logf("classified %d rows with %d workers (seed %d)", n, workers, opts.Seed)
	return results, nil
}

// Annotate returns a copy of t with damage_type, damage_severity and anomaly
// columns. Rejected rows get an empty damage type and the validation error
// in the anomaly column.
func Annotate(t *dataset.Table, results []Result) (*dataset.Table, error) {
	types := make([]string, t.Len())
	sev := make([]float64, t.Len())
	anomaly := make([]string, t.Len())
	hasSeverity := false
	for i := range sev {
		sev[i] = math.NaN()
	}
	for _, r := range results {
		if r.Index < 0 || r.Index >= t.Len() {
			continue
		}
		if r.Err != nil {
			anomaly[r.Index] = "rejected: " + r.Err.Error()
			continue
		}
		types[r.Index] = r.Assessment.DamageType
		if r.Assessment.HasSeverity {
			sev[r.Index] = r.Assessment.Severity
			hasSeverity = true
		}
		anomaly[r.Index] = strings.Join(r.Assessment.Anomalies, "; ")
	}

	out, err := t.WithCategoricalColumn(ColumnDamageType, types)
	if err != nil {
		return nil, err
	}
	if hasSeverity {
		if out, err = out.WithNumericColumn(ColumnSeverity, sev); err != nil {
			return nil, err
		}
	}
	return out.WithCategoricalColumn(ColumnAnomaly, anomaly)
}

// Summary aggregates batch results for reporting.
type Summary struct {
	Rows      int
	Rejected  int
	Anomalous int
	Counts    map[string]int

	// MeanSeverity is the average over rows that have a severity.
	MeanSeverity float64
}

// LabelCount is one damage type with its row count.
type LabelCount struct {
	Label string
	Count int
}

// Sorted returns the label counts ordered by descending count, then label.
func (s Summary) Sorted() []LabelCount {
	out := make([]LabelCount, 0, len(s.Counts))
	for k, v := range s.Counts {
		out = append(out, LabelCount{Label: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func Summarize(results []Result) Summary {
	s := Summary{Rows: len(results), Counts: map[string]int{}}
	sevSum, sevN := 0.0, 0
	for _, r := range results {
		if r.Err != nil {
			s.Rejected++
			continue
		}
		s.Counts[r.Assessment.DamageType]++
		if len(r.Assessment.Anomalies) > 0 {
			s.Anomalous++
		}
		if r.Assessment.HasSeverity {
			sevSum += r.Assessment.Severity
			sevN++
		}
	}
	if sevN > 0 {
		s.MeanSeverity = sevSum / float64(sevN)
	}
	return s
}
