package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/quality"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

var (
	qualityInput        string
	qualityFormat       string
	qualitySchema       string
	qualityPlainSummary bool
	qualityLogLevel     string
)

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Compute the completeness score of a table",
	Long:  "Reads a table and scores it against the field schema: missing values, values outside physical bounds and unknown categories per column.",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := resolveLogLevel("quality")
		if err != nil {
			return err
		}
		wireLogging(level, cmd.ErrOrStderr())

		schema, err := loadSchema(viper.GetString("quality.schema"))
		if err != nil {
			return err
		}
		plain := viper.GetBool("quality.plain-summary")
		var spin *ui.SimpleSpinner
		if level != levelQuiet && !plain {
			spin = ui.NewSimpleSpinner(cmd.ErrOrStderr(), "Reading "+viper.GetString("quality.input"))
			spin.Start()
		}
		t, err := readTable("quality", schema)
		if spin != nil {
			if err != nil {
				spin.Stop(false, err.Error())
			} else {
				spin.Stop(true, fmt.Sprintf("Read %d records", t.Len()))
			}
		}
		if err != nil {
			return err
		}

		res := quality.Check(t, schema)
		quality.PrintReport(res)

		if plain {
			fmt.Fprintf(cmd.OutOrStdout(), "Rows: %d | Score: %.1f%% | Cells: %d/%d\n", res.Rows, res.Score*100, res.Passed, res.Total)
			for _, c := range res.Incomplete() {
				fmt.Fprintf(cmd.OutOrStdout(), "Column: %s | Score: %.1f%% | Missing: %d\n", c.Name, c.Score(res.Rows)*100, c.Missing)
			}
			return nil
		}

		ui.NewQualityUI(cmd.OutOrStdout(), level == levelQuiet).PrintReport(qualityReport(viper.GetString("quality.input"), res))
		return nil
	},
}

func qualityReport(source string, res quality.Report) ui.QualityReport {
	r := ui.QualityReport{
		Source:         source,
		Score:          res.Score,
		Passed:         res.Passed,
		Total:          res.Total,
		Rows:           res.Rows,
		MissingColumns: res.MissingColumns,
	}
	for _, c := range res.Columns {
		r.Columns = append(r.Columns, ui.QualityColumn{
			Name:              c.Name,
			Missing:           c.Missing,
			BelowHard:         c.BelowHard,
			AboveHard:         c.AboveHard,
			UnknownCategories: c.UnknownCategories,
		})
	}
	return r
}

func init() {
	qualityCmd.Flags().StringVarP(&qualityInput, "input", "i", "", "Path to the input table (required)")
	qualityCmd.Flags().StringVarP(&qualityFormat, "format", "f", "", "Input format: csv|xlsx|json|auto")
	qualityCmd.Flags().StringVar(&qualitySchema, "schema", "", "Field schema YAML (default embedded)")
	qualityCmd.Flags().BoolVar(&qualityPlainSummary, "plain-summary", false, "Print a plain summary (no styling)")
	qualityCmd.Flags().StringVar(&qualityLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	viper.BindPFlag("quality.input", qualityCmd.Flags().Lookup("input"))
	viper.BindPFlag("quality.format", qualityCmd.Flags().Lookup("format"))
	viper.BindPFlag("quality.schema", qualityCmd.Flags().Lookup("schema"))
	viper.BindPFlag("quality.plain-summary", qualityCmd.Flags().Lookup("plain-summary"))
	viper.BindPFlag("quality.log-level", qualityCmd.Flags().Lookup("log-level"))
}
