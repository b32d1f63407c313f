package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/rules"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

var (
	rulesPath     string
	rulesSchema   string
	rulesLogLevel string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and check rule tables",
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Compile a rule table and report problems",
	Long:  "Compiles the rule table against the field schema. Every structural problem is reported at once; warnings (fields unknown to the schema) do not fail the check.",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := resolveLogLevel("rules")
		if err != nil {
			return err
		}
		wireLogging(level, cmd.ErrOrStderr())

		schema, err := loadSchema(viper.GetString("rules.schema"))
		if err != nil {
			return err
		}
		table, source, err := rules.Load(viper.GetString("rules.path"))
		if err != nil {
			return err
		}
		compiled, err := rules.Compile(table, schema, source)
		if err != nil {
			return err
		}
		if level == levelQuiet {
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.FormatStatus("success", fmt.Sprintf("%s compiled", compiled.Source)))
		fmt.Fprintln(out, ui.FormatKeyValue("Damage types", fmt.Sprintf("%d", len(compiled.Names()))))
		fmt.Fprintln(out, ui.FormatKeyValue("Rules", fmt.Sprintf("%d", compiled.RuleCount())))
		fmt.Fprintln(out, ui.FormatKeyValue("Sentinel", compiled.Sentinel))
		fmt.Fprintln(out, ui.FormatKeyValue("Fields", strings.Join(compiled.Fields(), ", ")))
		for _, w := range compiled.Warnings {
			fmt.Fprintln(out, ui.FormatStatus("warning", w))
		}
		return nil
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a rule table as YAML",
	Long:  "Prints the rule table (the embedded default when --rules is not set). The output is a valid starting point for a custom table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, _, err := rules.Load(viper.GetString("rules.path"))
		if err != nil {
			return err
		}
		data, err := rules.Marshal(table)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Rule table YAML or JSON (default embedded)")
	rulesCmd.PersistentFlags().StringVar(&rulesSchema, "schema", "", "Field schema YAML (default embedded)")
	rulesCmd.PersistentFlags().StringVar(&rulesLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	viper.BindPFlag("rules.path", rulesCmd.PersistentFlags().Lookup("rules"))
	viper.BindPFlag("rules.schema", rulesCmd.PersistentFlags().Lookup("schema"))
	viper.BindPFlag("rules.log-level", rulesCmd.PersistentFlags().Lookup("log-level"))

	rulesCmd.AddCommand(rulesCheckCmd, rulesShowCmd)
}
