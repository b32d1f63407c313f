package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/validator"
)

var (
	validateInput        string
	validateFormat       string
	validateSchema       string
	validateStrict       bool
	validateMinScore     float64
	validateMaxIssues    int
	validatePlainSummary bool
	validateLogLevel     string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a table against the field schema",
	Long:  "Checks column kinds, duplicate record ids, unknown categories and physical bounds. In strict mode bound and category problems are errors and --min-score is enforced.",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := resolveLogLevel("validate")
		if err != nil {
			return err
		}
		wireLogging(level, cmd.ErrOrStderr())

		schema, err := loadSchema(viper.GetString("validate.schema"))
		if err != nil {
			return err
		}
		t, err := readTable("validate", schema)
		if err != nil {
			return fmt.Errorf("failed to read table: %w", err)
		}

		result := validator.Validate(t, schema, validator.ValidationOptions{
			StrictMode:           viper.GetBool("validate.strict"),
			MinCompletenessScore: viper.GetFloat64("validate.min-score"),
			MaxIssues:            viper.GetInt("validate.max-issues"),
		})
		validator.PrintReport(result)

		if viper.GetBool("validate.plain-summary") {
			fmt.Fprintln(cmd.OutOrStdout(), validator.FormatSummary(result))
		} else {
			ui.NewValidationUI(cmd.OutOrStdout(), level == levelQuiet).PrintReport(ui.ValidationReport{
				Source:            viper.GetString("validate.input"),
				Valid:             result.Valid,
				Errors:            result.Errors,
				Warnings:          result.Warnings,
				CompletenessScore: result.CompletenessScore,
				MissingColumns:    result.MissingColumns,
			})
		}

		if !result.Valid {
			return fmt.Errorf("validation failed")
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateInput, "input", "i", "", "Path to the input table (required)")
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "", "Input format: csv|xlsx|json|auto")
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Field schema YAML (default embedded)")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Treat bound and category problems as errors")
	validateCmd.Flags().Float64Var(&validateMinScore, "min-score", 0.0, "Minimum completeness score (0.0-1.0, strict mode)")
	validateCmd.Flags().IntVar(&validateMaxIssues, "max-issues", 20, "Maximum messages kept per problem kind")
	validateCmd.Flags().BoolVar(&validatePlainSummary, "plain-summary", false, "Print a single-line plain summary (no styling)")
	validateCmd.Flags().StringVar(&validateLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	for _, name := range []string{
		"input", "format", "schema", "strict", "min-score", "max-issues", "plain-summary", "log-level",
	} {
		viper.BindPFlag("validate."+name, validateCmd.Flags().Lookup(name))
	}
}
