package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/classifier"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/practicality"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

var (
	pracInput        string
	pracFormat       string
	pracSchema       string
	pracRules        string
	pracTypeColumn   string
	pracOutput       string
	pracOutputFormat string
	pracYes          bool
	pracLogLevel     string
)

var practicalityCmd = &cobra.Command{
	Use:   "practicality",
	Short: "Label classified records as Practical or Non-Practical",
	Long:  "Checks each classified record against the operating windows of its damage type and adds a damage_practicality column.",
	RunE:  runPracticality,
}

func runPracticality(cmd *cobra.Command, args []string) error {
	level, err := resolveLogLevel("practicality")
	if err != nil {
		return err
	}
	wireLogging(level, cmd.ErrOrStderr())

	output := viper.GetString("practicality.output")
	if output == "" {
		return apperr.User("--output is required")
	}
	rules, err := practicality.Load(viper.GetString("practicality.rules"))
	if err != nil {
		return err
	}
	schema, err := loadSchema(viper.GetString("practicality.schema"))
	if err != nil {
		return err
	}
	t, err := readTable("practicality", schema)
	if err != nil {
		return err
	}

	labeled, sum, err := rules.LabelTable(t, viper.GetString("practicality.type-column"))
	if err != nil {
		return err
	}
	if err := writeTable(labeled, output, viper.GetString("practicality.output-format"), viper.GetBool("practicality.yes")); err != nil {
		return err
	}
	ui.NewClassifyUI(cmd.OutOrStdout(), level == levelQuiet).PrintPracticality(practicalityReport(sum))
	return nil
}

func init() {
	practicalityCmd.Flags().StringVarP(&pracInput, "input", "i", "", "Path to a classified table (required)")
	practicalityCmd.Flags().StringVarP(&pracFormat, "format", "f", "", "Input format: csv|xlsx|json|auto")
	practicalityCmd.Flags().StringVar(&pracSchema, "schema", "", "Field schema YAML (default embedded)")
	practicalityCmd.Flags().StringVar(&pracRules, "rules", "", "Practicality windows YAML (default embedded)")
	practicalityCmd.Flags().StringVar(&pracTypeColumn, "type-column", classifier.ColumnDamageType, "Column holding the damage type")
	practicalityCmd.Flags().StringVarP(&pracOutput, "output", "o", "", "Output path (required)")
	practicalityCmd.Flags().StringVar(&pracOutputFormat, "output-format", "", "Output format: csv|xlsx|json|auto")
	practicalityCmd.Flags().BoolVarP(&pracYes, "yes", "y", false, "Overwrite the output without asking")
	practicalityCmd.Flags().StringVar(&pracLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	for _, name := range []string{
		"input", "format", "schema", "rules", "type-column", "output", "output-format", "yes", "log-level",
	} {
		viper.BindPFlag("practicality."+name, practicalityCmd.Flags().Lookup(name))
	}
}
