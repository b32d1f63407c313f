package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/generator"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/tableio"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

var (
	generateOutput         string
	generateOutputFormat   string
	generateSchema         string
	generateWells          []string
	generateRecordsPerWell int
	generateSeed           uint64
	generateMissingPercent float64
	generateNoiseStd       float64
	generateYes            bool
	generateLogLevel       string
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic well dataset",
	Long:  "Generates synthetic well records within the schema ranges, with gaussian noise and a share of missing values. The same seed always produces the same table.",
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	level, err := resolveLogLevel("generate")
	if err != nil {
		return err
	}
	quiet := level == levelQuiet
	wireLogging(level, cmd.ErrOrStderr())

	output := viper.GetString("generate.output")
	if output == "" {
		output = filepath.Join("dist", "synthetic_wells.csv")
	}
	outputFormat := viper.GetString("generate.format")
	format, err := tableio.ResolveFormat(output, outputFormat)
	if err != nil {
		return err
	}
	if err := confirmOverwrite(output, viper.GetBool("generate.yes")); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return err
	}

	schema, err := loadSchema(viper.GetString("generate.schema"))
	if err != nil {
		return err
	}
	wells := splitList(viper.GetStringSlice("generate.wells"))
	if len(wells) == 0 {
		wells = generator.DefaultWells
	}
	seed := viper.GetUint64("generate.seed")

	genUI := ui.NewGenerateUI(cmd.OutOrStdout(), quiet)
	perWell := viper.GetInt("generate.records-per-well")
	genUI.StartProgress(wells, perWell)

	t, err := generator.Generate(commandContext(cmd), generator.Options{
		Wells:          wells,
		RecordsPerWell: perWell,
		Seed:           seed,
		Schema:         schema,
		MissingPercent: viper.GetFloat64("generate.missing-percent"),
		NoiseStd:       viper.GetFloat64("generate.noise-std"),
		OnProgress: func(ev generator.ProgressEvent) {
			switch ev.Type {
			case generator.EventWellStart:
				genUI.StartWell(ev.Index)
			case generator.EventWellComplete:
				genUI.CompleteWell(ev.Index, ev.Records)
			case generator.EventNoiseComplete:
				genUI.NoteNoise(ev.Message)
			}
		},
	})
	if err != nil {
		genUI.FinishProgress(err)
		return err
	}

	genUI.StartWriting(output)
	if err := tableio.Write(t, output, string(format)); err != nil {
		genUI.FinishProgress(err)
		return err
	}
	genUI.CompleteWriting()
	genUI.FinishProgress(nil)

	genUI.PrintSummary(t.Len(), len(wells), output, string(format), seed)
	return nil
}

func init() {
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output path (default dist/synthetic_wells.csv)")
	generateCmd.Flags().StringVarP(&generateOutputFormat, "format", "f", "", "Output format: csv|xlsx|json|auto")
	generateCmd.Flags().StringVar(&generateSchema, "schema", "", "Field schema YAML (default embedded)")
	generateCmd.Flags().StringSliceVar(&generateWells, "wells", nil, "Well identifiers (default the ten sample wells)")
	generateCmd.Flags().IntVar(&generateRecordsPerWell, "records-per-well", generator.DefaultRecordsPerWell, "Records generated per well")
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", DefaultSeed, "Random seed")
	generateCmd.Flags().Float64Var(&generateMissingPercent, "missing-percent", generator.DefaultMissingPercent, "Share of numeric cells left empty (0-100)")
	generateCmd.Flags().Float64Var(&generateNoiseStd, "noise-std", generator.DefaultNoiseStd, "Standard deviation of the added gaussian noise")
	generateCmd.Flags().BoolVarP(&generateYes, "yes", "y", false, "Overwrite the output without asking")
	generateCmd.Flags().StringVar(&generateLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	for _, name := range []string{
		"output", "format", "schema", "wells", "records-per-well", "seed",
		"missing-percent", "noise-std", "yes", "log-level",
	} {
		viper.BindPFlag("generate."+name, generateCmd.Flags().Lookup(name))
	}
}
