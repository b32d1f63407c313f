package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/classifier"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/practicality"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/rules"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/store"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/tableio"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

// DefaultSeed is used when no --seed is configured.
const DefaultSeed = 42

var (
	classifyInput        string
	classifyFormat       string
	classifyOutput       string
	classifyOutputFormat string
	classifySchema       string
	classifyRules        string
	classifySeed         uint64
	classifyWorkers      int
	classifySeverity     bool
	classifyBoundsPolicy string
	classifyHistoryDB    string
	classifyNoHistory    bool
	classifyPracticality bool
	classifyPracRules    string
	classifyYes          bool
	classifyLogLevel     string
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Assign a formation damage type to every record",
	Long:  "Reads well records (csv, xlsx or json), classifies each one against the rule table and writes the annotated table. Every run is recorded in the local history database.",
	RunE:  runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	level, err := resolveLogLevel("classify")
	if err != nil {
		return err
	}
	wireLogging(level, cmd.ErrOrStderr())

	policy, err := classifier.ParsePolicy(viper.GetString("classify.bounds-policy"))
	if err != nil {
		return err
	}
	input := viper.GetString("classify.input")
	if strings.TrimSpace(input) == "" {
		return apperr.User("--input is required")
	}
	output := viper.GetString("classify.output")
	if output == "" {
		output = defaultOutputPath(input, "classified")
	}
	outputFormat := viper.GetString("classify.output-format")
	if _, err := tableio.ResolveFormat(output, outputFormat); err != nil {
		return err
	}
	if err := confirmOverwrite(output, viper.GetBool("classify.yes")); err != nil {
		return err
	}

	seed := viper.GetUint64("classify.seed")

	c := ui.NewClassifyUI(cmd.OutOrStdout(), level == levelQuiet)
	started := time.Now()
	c.StartWorkflow()

	// Configuration problems abort before any row is read.
	c.Start(ui.StepLoadRules, "compiling rule table")
	schema, err := loadSchema(viper.GetString("classify.schema"))
	if err != nil {
		c.Fail(ui.StepLoadRules, err)
		return err
	}
	table, source, err := rules.Load(viper.GetString("classify.rules"))
	if err != nil {
		c.Fail(ui.StepLoadRules, err)
		return err
	}
	compiled, err := rules.Compile(table, schema, source)
	if err != nil {
		c.Fail(ui.StepLoadRules, err)
		return err
	}
	c.Complete(ui.StepLoadRules, fmt.Sprintf("%d damage types, %d rules", len(compiled.Names()), compiled.RuleCount()))

	var prac *practicality.Rules
	if viper.GetBool("classify.practicality") {
		if prac, err = practicality.Load(viper.GetString("classify.practicality-rules")); err != nil {
			c.Finish()
			return err
		}
	}

	c.Start(ui.StepReadInput, input)
	data, err := tableio.Read(input, viper.GetString("classify.format"), schema)
	if err != nil {
		c.Fail(ui.StepReadInput, err)
		return err
	}
	c.Complete(ui.StepReadInput, fmt.Sprintf("%d records", data.Len()))

	c.Start(ui.StepClassify, "")
	ctx := commandContext(cmd)
	results, err := classifier.ClassifyBatch(ctx, data, compiled, classifier.BatchOptions{
		Options: classifier.Options{
			Severity: viper.GetBool("classify.severity"),
			Schema:   schema,
			Policy:   policy,
		},
		Seed:       seed,
		Workers:    viper.GetInt("classify.workers"),
		OnProgress: c.Progress,
	})
	if err != nil {
		c.Fail(ui.StepClassify, err)
		return err
	}
	sum := classifier.Summarize(results)
	c.Complete(ui.StepClassify, fmt.Sprintf("%d rows, %d rejected", sum.Rows, sum.Rejected))

	c.Start(ui.StepWriteOutput, output)
	annotated, err := classifier.Annotate(data, results)
	if err != nil {
		c.Fail(ui.StepWriteOutput, err)
		return err
	}
	var pracSum practicality.Summary
	if prac != nil {
		if annotated, pracSum, err = prac.LabelTable(annotated, classifier.ColumnDamageType); err != nil {
			c.Fail(ui.StepWriteOutput, err)
			return err
		}
	}
	if err := tableio.Write(annotated, output, outputFormat); err != nil {
		c.Fail(ui.StepWriteOutput, err)
		return err
	}
	c.Complete(ui.StepWriteOutput, output)
	c.Finish()

	runID := ""
	if !viper.GetBool("classify.no-history") {
		run, err := recordRun(ctx, viper.GetString("classify.history-db"), store.Run{
			StartedAt: started,
			RuleTable: compiled.Source,
			Seed:      seed,
			Rows:      sum.Rows,
			Input:     input,
		}, results)
		if err != nil {
			// The classified table is already written; history is best effort.
			fmt.Fprintf(cmd.ErrOrStderr(), "%s could not record run: %v\n", ui.GetWarnMark(), err)
		} else {
			runID = run.ID
		}
	}

	for _, w := range compiled.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", ui.GetWarnMark(), w)
	}

	c.PrintSummary(ui.ClassificationReport{
		Input:        input,
		Output:       output,
		RuleTable:    compiled.Source,
		RunID:        runID,
		Seed:         seed,
		Rows:         sum.Rows,
		Rejected:     sum.Rejected,
		Anomalous:    sum.Anomalous,
		Counts:       labelCounts(sum.Sorted()),
		MeanSeverity: sum.MeanSeverity,
		HasSeverity:  viper.GetBool("classify.severity"),
		Duration:     time.Since(started),
	})
	if prac != nil {
		c.PrintPracticality(practicalityReport(pracSum))
	}
	return nil
}

func recordRun(ctx context.Context, path string, run store.Run, results []classifier.Result) (store.Run, error) {
	st, err := store.Open(historyPath(path))
	if err != nil {
		return store.Run{}, err
	}
	defer st.Close()
	return st.SaveRun(ctx, run, store.RowsFromResults(results))
}

// historyPath falls back to ~/.fdm-cli/history.db.
func historyPath(path string) string {
	if strings.TrimSpace(path) != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".fdm-cli", "history.db")
	}
	return filepath.Join(home, ".fdm-cli", "history.db")
}

// defaultOutputPath derives "<name>_<suffix><ext>" next to the input.
func defaultOutputPath(input, suffix string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_" + suffix + ext
}

func labelCounts(in []classifier.LabelCount) []ui.LabelCount {
	out := make([]ui.LabelCount, len(in))
	for i, lc := range in {
		out[i] = ui.LabelCount{Label: lc.Label, Count: lc.Count}
	}
	return out
}

func practicalityReport(s practicality.Summary) ui.PracticalityReport {
	r := ui.PracticalityReport{Rows: s.Rows, Practical: s.Practical}
	for dt, n := range s.ByType {
		r.ByType = append(r.ByType, ui.LabelCount{Label: dt, Count: n})
	}
	sort.Slice(r.ByType, func(i, j int) bool {
		if r.ByType[i].Count != r.ByType[j].Count {
			return r.ByType[i].Count > r.ByType[j].Count
		}
		return r.ByType[i].Label < r.ByType[j].Label
	})
	return r
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyInput, "input", "i", "", "Path to the input table (required)")
	classifyCmd.Flags().StringVarP(&classifyFormat, "format", "f", "", "Input format: csv|xlsx|json|auto")
	classifyCmd.Flags().StringVarP(&classifyOutput, "output", "o", "", "Output path (default <input>_classified.<ext>)")
	classifyCmd.Flags().StringVar(&classifyOutputFormat, "output-format", "", "Output format: csv|xlsx|json|auto")
	classifyCmd.Flags().StringVar(&classifySchema, "schema", "", "Field schema YAML (default embedded)")
	classifyCmd.Flags().StringVar(&classifyRules, "rules", "", "Rule table YAML or JSON (default embedded)")
	classifyCmd.Flags().Uint64Var(&classifySeed, "seed", DefaultSeed, "Run seed; the same seed and input give the same output")
	classifyCmd.Flags().IntVar(&classifyWorkers, "workers", 0, "Number of workers (default GOMAXPROCS)")
	classifyCmd.Flags().BoolVar(&classifySeverity, "severity", false, "Also compute damage severity")
	classifyCmd.Flags().StringVar(&classifyBoundsPolicy, "bounds-policy", "", "Out of bounds values: clamp|reject|pass")
	classifyCmd.Flags().StringVar(&classifyHistoryDB, "history-db", "", "History database (default ~/.fdm-cli/history.db)")
	classifyCmd.Flags().BoolVar(&classifyNoHistory, "no-history", false, "Do not record this run")
	classifyCmd.Flags().BoolVar(&classifyPracticality, "practicality", false, "Add damage_practicality labels")
	classifyCmd.Flags().StringVar(&classifyPracRules, "practicality-rules", "", "Practicality windows YAML (default embedded)")
	classifyCmd.Flags().BoolVarP(&classifyYes, "yes", "y", false, "Overwrite the output without asking")
	classifyCmd.Flags().StringVar(&classifyLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	for _, name := range []string{
		"input", "format", "output", "output-format", "schema", "rules", "seed", "workers",
		"severity", "bounds-policy", "history-db", "no-history", "practicality",
		"practicality-rules", "yes", "log-level",
	} {
		viper.BindPFlag("classify."+name, classifyCmd.Flags().Lookup(name))
	}
}
