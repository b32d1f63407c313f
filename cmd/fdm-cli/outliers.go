package cmd

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/outlier"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

var (
	outliersInput        string
	outliersFormat       string
	outliersSchema       string
	outliersMethod       string
	outliersMultiplier   float64
	outliersThreshold    float64
	outliersColumns      []string
	outliersApply        string
	outliersOutput       string
	outliersOutputFormat string
	outliersYes          bool
	outliersLogLevel     string
)

var outliersCmd = &cobra.Command{
	Use:   "outliers",
	Short: "Detect numeric outliers with IQR or z-score bounds",
	Long:  "Reports per column outlier bounds and flagged rows. With --apply clip|remove the bounds are enforced and the result is written to --output.",
	RunE:  runOutliers,
}

func runOutliers(cmd *cobra.Command, args []string) error {
	level, err := resolveLogLevel("outliers")
	if err != nil {
		return err
	}
	wireLogging(level, cmd.ErrOrStderr())

	method, err := outlier.ParseMethod(viper.GetString("outliers.method"))
	if err != nil {
		return err
	}
	apply := strings.TrimSpace(viper.GetString("outliers.apply"))
	var policy outlier.Policy
	if apply != "" {
		if policy, err = outlier.ParsePolicy(apply); err != nil {
			return err
		}
		if viper.GetString("outliers.output") == "" {
			return apperr.User("--apply needs --output")
		}
	}

	schema, err := loadSchema(viper.GetString("outliers.schema"))
	if err != nil {
		return err
	}
	t, err := readTable("outliers", schema)
	if err != nil {
		return err
	}

	rep := outlier.DetectTable(t, outlier.Options{
		Method:     method,
		Multiplier: viper.GetFloat64("outliers.multiplier"),
		Threshold:  viper.GetFloat64("outliers.threshold"),
		Columns:    splitList(viper.GetStringSlice("outliers.columns")),
	})
	view := outlierReport(rep, method)

	if policy != "" {
		cleaned, st, err := outlier.Apply(t, rep.Bounds, policy)
		if err != nil {
			return err
		}
		if err := writeTable(cleaned, viper.GetString("outliers.output"), viper.GetString("outliers.output-format"), viper.GetBool("outliers.yes")); err != nil {
			return err
		}
		view.Policy = string(policy)
		view.Clipped = st.Clipped
		view.Removed = st.Removed
	}

	ui.NewCleanUI(cmd.OutOrStdout(), level == levelQuiet).PrintOutliers(view)
	return nil
}

func outlierReport(rep outlier.Report, method outlier.Method) ui.OutlierReport {
	view := ui.OutlierReport{
		Method:      string(method),
		Rows:        rep.Rows,
		Flagged:     len(rep.Flagged),
		Diagnostics: errorStrings(rep.Diagnostics()),
	}
	counts := rep.ColumnCounts()
	cols := make([]string, 0, len(rep.Bounds))
	for col := range rep.Bounds {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		b := rep.Bounds[col]
		view.Columns = append(view.Columns, ui.OutlierColumn{Name: col, Lower: b.Lower, Upper: b.Upper, Flagged: counts[col]})
	}
	return view
}

func init() {
	outliersCmd.Flags().StringVarP(&outliersInput, "input", "i", "", "Path to the input table (required)")
	outliersCmd.Flags().StringVarP(&outliersFormat, "format", "f", "", "Input format: csv|xlsx|json|auto")
	outliersCmd.Flags().StringVar(&outliersSchema, "schema", "", "Field schema YAML (default embedded)")
	outliersCmd.Flags().StringVar(&outliersMethod, "method", "iqr", "Detection method: iqr|zscore|both")
	outliersCmd.Flags().Float64Var(&outliersMultiplier, "multiplier", outlier.DefaultMultiplier, "IQR multiplier")
	outliersCmd.Flags().Float64Var(&outliersThreshold, "threshold", outlier.DefaultThreshold, "Z-score threshold")
	outliersCmd.Flags().StringSliceVar(&outliersColumns, "columns", nil, "Columns to scan (default all numeric)")
	outliersCmd.Flags().StringVar(&outliersApply, "apply", "", "Enforce the bounds: clip|remove")
	outliersCmd.Flags().StringVarP(&outliersOutput, "output", "o", "", "Output path when --apply is set")
	outliersCmd.Flags().StringVar(&outliersOutputFormat, "output-format", "", "Output format: csv|xlsx|json|auto")
	outliersCmd.Flags().BoolVarP(&outliersYes, "yes", "y", false, "Overwrite the output without asking")
	outliersCmd.Flags().StringVar(&outliersLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	for _, name := range []string{
		"input", "format", "schema", "method", "multiplier", "threshold", "columns",
		"apply", "output", "output-format", "yes", "log-level",
	} {
		viper.BindPFlag("outliers."+name, outliersCmd.Flags().Lookup(name))
	}
}
