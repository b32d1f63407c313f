package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/preprocess"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

var (
	cleanInput         string
	cleanFormat        string
	cleanSchema        string
	cleanOutput        string
	cleanOutputFormat  string
	cleanImpute        string
	cleanImputeColumns []string
	cleanCategorical   bool
	cleanNormalize     string
	cleanNormColumns   []string
	cleanParamsOut     string
	cleanDedupe        bool
	cleanInvalidCombos string
	cleanYes           bool
	cleanLogLevel      string
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Deduplicate, impute and normalise a table",
	Long:  "Runs the cleaning steps in order: drop duplicate record ids, handle invalid formation/fluid/completion combinations, impute missing values and optionally normalise numeric columns.",
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	level, err := resolveLogLevel("clean")
	if err != nil {
		return err
	}
	wireLogging(level, cmd.ErrOrStderr())

	output := viper.GetString("clean.output")
	if output == "" {
		return apperr.User("--output is required")
	}
	opts, err := imputeOptions()
	if err != nil {
		return err
	}
	scaling := strings.TrimSpace(viper.GetString("clean.normalize"))
	var method preprocess.Scaling
	if scaling != "" && scaling != "none" {
		if method, err = preprocess.ParseScaling(scaling); err != nil {
			return err
		}
	}
	combos := strings.ToLower(strings.TrimSpace(viper.GetString("clean.invalid-combinations")))
	switch combos {
	case "":
		combos = "auto"
	case "auto", "keep", "remove", "skip":
	default:
		return apperr.Userf("invalid --invalid-combinations %q (expected auto|keep|remove|skip)", combos)
	}

	schema, err := loadSchema(viper.GetString("clean.schema"))
	if err != nil {
		return err
	}
	t, err := readTable("clean", schema)
	if err != nil {
		return err
	}
	rep := ui.CleanReport{RowsIn: t.Len(), InvalidAction: "skipped"}

	if viper.GetBool("clean.dedupe") {
		t, rep.Duplicates = preprocess.Dedupe(t)
	}

	if combos != "skip" {
		cr, err := preprocess.InvalidCombinations(t, preprocess.DefaultCombinations(), preprocess.CombinationFields{})
		switch {
		case apperr.IsUser(err):
			// Tables without the three categorical columns cannot hold invalid triples.
			rep.Diagnostics = append(rep.Diagnostics, err.Error())
		case err != nil:
			return err
		default:
			rep.InvalidRows = len(cr.Rows)
			rep.InvalidPercent = cr.Percent
			rep.InvalidAction = string(cr.Action)
			if combos == "remove" || (combos == "auto" && cr.Action == preprocess.ActionRemove) {
				drop := make(map[int]bool, len(cr.Rows))
				for _, i := range cr.Rows {
					drop[i] = true
				}
				t = t.Drop(drop)
				rep.Removed = len(drop)
			}
		}
	}

	t, ir := preprocess.Impute(t, opts)
	rep.Imputed = ir.History
	rep.Diagnostics = append(rep.Diagnostics, errorStrings(ir.Diagnostics)...)

	if method != "" {
		var params preprocess.Params
		var diags []error
		t, params, diags = preprocess.Normalize(t, method, splitList(viper.GetStringSlice("clean.normalize-columns")))
		rep.Diagnostics = append(rep.Diagnostics, errorStrings(diags)...)
		for col, cp := range params {
			rep.Scaled = append(rep.Scaled, fmt.Sprintf("%s (%s)", col, cp.Method))
		}
		sort.Strings(rep.Scaled)
		if path := viper.GetString("clean.params-out"); path != "" {
			if err := preprocess.SaveParams(path, params); err != nil {
				return err
			}
			rep.ParamsPath = path
		}
	}

	if err := writeTable(t, output, viper.GetString("clean.output-format"), viper.GetBool("clean.yes")); err != nil {
		return err
	}
	rep.RowsOut = t.Len()
	ui.NewCleanUI(cmd.OutOrStdout(), level == levelQuiet).PrintClean(rep)
	return nil
}

// imputeOptions reads the default strategy and column=strategy overrides.
func imputeOptions() (preprocess.ImputeOptions, error) {
	def, err := preprocess.ParseStrategy(viper.GetString("clean.impute"))
	if err != nil {
		return preprocess.ImputeOptions{}, err
	}
	opts := preprocess.ImputeOptions{
		Default:     def,
		PerColumn:   map[string]preprocess.Strategy{},
		Categorical: viper.GetBool("clean.categorical"),
	}
	for _, entry := range splitList(viper.GetStringSlice("clean.impute-column")) {
		col, name, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(col) == "" {
			return preprocess.ImputeOptions{}, apperr.Userf("invalid --impute-column %q (expected column=mean|median)", entry)
		}
		s, err := preprocess.ParseStrategy(name)
		if err != nil {
			return preprocess.ImputeOptions{}, err
		}
		opts.PerColumn[strings.TrimSpace(col)] = s
	}
	return opts, nil
}

func init() {
	cleanCmd.Flags().StringVarP(&cleanInput, "input", "i", "", "Path to the input table (required)")
	cleanCmd.Flags().StringVarP(&cleanFormat, "format", "f", "", "Input format: csv|xlsx|json|auto")
	cleanCmd.Flags().StringVar(&cleanSchema, "schema", "", "Field schema YAML (default embedded)")
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "Output path (required)")
	cleanCmd.Flags().StringVar(&cleanOutputFormat, "output-format", "", "Output format: csv|xlsx|json|auto")
	cleanCmd.Flags().StringVar(&cleanImpute, "impute", "median", "Numeric imputation: mean|median")
	cleanCmd.Flags().StringSliceVar(&cleanImputeColumns, "impute-column", nil, "Per column strategy, e.g. ph=mean")
	cleanCmd.Flags().BoolVar(&cleanCategorical, "categorical", true, "Fill categorical columns with their mode")
	cleanCmd.Flags().StringVar(&cleanNormalize, "normalize", "", "Scale numeric columns: minmax|zscore|none")
	cleanCmd.Flags().StringSliceVar(&cleanNormColumns, "normalize-columns", nil, "Columns to scale (default all numeric)")
	cleanCmd.Flags().StringVar(&cleanParamsOut, "params-out", "", "Write scaling parameters as JSON")
	cleanCmd.Flags().BoolVar(&cleanDedupe, "dedupe", true, "Drop rows with a repeated record id")
	cleanCmd.Flags().StringVar(&cleanInvalidCombos, "invalid-combinations", "auto", "Invalid combination rows: auto|keep|remove|skip")
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Overwrite the output without asking")
	cleanCmd.Flags().StringVar(&cleanLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	for _, name := range []string{
		"input", "format", "schema", "output", "output-format", "impute", "impute-column",
		"categorical", "normalize", "normalize-columns", "params-out", "dedupe",
		"invalid-combinations", "yes", "log-level",
	} {
		viper.BindPFlag("clean."+name, cleanCmd.Flags().Lookup(name))
	}
}
