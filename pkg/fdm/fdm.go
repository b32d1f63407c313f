// Package fdm is the public entry point for embedding formation damage
// classification in other programs. It wires the schema, the rule table and
// the batch classifier the same way the fdm-cli classify command does.
package fdm

import (
	"context"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/classifier"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/rules"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/tableio"
)

type (
	Table      = dataset.Table
	Schema     = dataset.Schema
	Assessment = dataset.Assessment
	Summary    = classifier.Summary
)

// Options configures a Classifier. Empty paths select the embedded defaults.
type Options struct {
	SchemaPath string
	RulesPath  string

	Seed         uint64
	Workers      int
	Severity     bool
	BoundsPolicy string

	OnProgress func(done, total int)
}

// Classifier holds a compiled rule table and its schema. It is safe for
// concurrent use.
type Classifier struct {
	schema   *dataset.Schema
	compiled *rules.Compiled
	opts     classifier.BatchOptions
}

// New loads and compiles the configuration. Every configuration problem is
// reported here, before any record is touched.
func New(opts Options) (*Classifier, error) {
	policy, err := classifier.ParsePolicy(opts.BoundsPolicy)
	if err != nil {
		return nil, err
	}
	schema, err := dataset.DefaultSchema()
	if opts.SchemaPath != "" {
		schema, err = dataset.LoadSchema(opts.SchemaPath)
	}
	if err != nil {
		return nil, err
	}
	table, source, err := rules.Load(opts.RulesPath)
	if err != nil {
		return nil, err
	}
	compiled, err := rules.Compile(table, schema, source)
	if err != nil {
		return nil, err
	}
	return &Classifier{
		schema:   schema,
		compiled: compiled,
		opts: classifier.BatchOptions{
			Options:    classifier.Options{Severity: opts.Severity, Schema: schema, Policy: policy},
			Seed:       opts.Seed,
			Workers:    opts.Workers,
			OnProgress: opts.OnProgress,
		},
	}, nil
}

// Schema returns the schema records are read and checked with.
func (c *Classifier) Schema() *Schema { return c.schema }

// DamageTypes lists the damage types of the rule table, sentinel included.
func (c *Classifier) DamageTypes() []string { return c.compiled.Names() }

// Warnings lists non-fatal rule table problems.
func (c *Classifier) Warnings() []string { return c.compiled.Warnings }

// ClassifyTable returns t with damage_type, damage_severity (when requested)
// and anomaly columns, plus the run summary.
func (c *Classifier) ClassifyTable(ctx context.Context, t *Table) (*Table, Summary, error) {
	results, err := classifier.ClassifyBatch(ctx, t, c.compiled, c.opts)
	if err != nil {
		return nil, Summary{}, err
	}
	out, err := classifier.Annotate(t, results)
	if err != nil {
		return nil, Summary{}, err
	}
	return out, classifier.Summarize(results), nil
}

// ClassifyFile reads input, classifies it and writes output. Formats follow
// the file extensions (csv, xlsx, json).
func (c *Classifier) ClassifyFile(ctx context.Context, input, output string) (Summary, error) {
	t, err := tableio.Read(input, "", c.schema)
	if err != nil {
		return Summary{}, err
	}
	out, sum, err := c.ClassifyTable(ctx, t)
	if err != nil {
		return Summary{}, err
	}
	if err := tableio.Write(out, output, ""); err != nil {
		return Summary{}, err
	}
	return sum, nil
}
