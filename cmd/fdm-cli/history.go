package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/store"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

var (
	historyDB       string
	historyLimit    int
	historyLogLevel string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse recorded classification runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(commandContext(cmd), viper.GetInt("history.limit"))
		if err != nil {
			return err
		}
		ui.PrintRuns(cmd.OutOrStdout(), runItems(runs))
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id...]",
	Short: "Show the damage type distribution of runs",
	Long:  "Shows the stored damage type distribution of each given run. Without run ids an interactive selector lists the recent runs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := commandContext(cmd)

		var selected []ui.RunItem
		if len(args) == 0 {
			runs, err := st.ListRuns(ctx, viper.GetInt("history.limit"))
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				ui.PrintRuns(cmd.OutOrStdout(), nil)
				return nil
			}
			if selected, err = ui.RunRunSelector(runItems(runs)); err != nil {
				return err
			}
		} else {
			for _, id := range args {
				run, err := st.GetRun(ctx, id)
				if err != nil {
					return err
				}
				selected = append(selected, runItem(run))
			}
		}

		for _, run := range selected {
			counts, err := st.Distribution(ctx, run.ID)
			if err != nil {
				return fmt.Errorf("run %s: %w", run.ID, err)
			}
			rows := make([]ui.DistributionRow, len(counts))
			for i, c := range counts {
				rows[i] = ui.DistributionRow{DamageType: c.DamageType, Rows: c.Rows, MeanSeverity: c.MeanSeverity, HasSeverity: c.HasSeverity}
			}
			ui.PrintRunDistribution(cmd.OutOrStdout(), run, rows)
		}
		return nil
	},
}

func openHistory(cmd *cobra.Command) (*store.Store, error) {
	level, err := resolveLogLevel("history")
	if err != nil {
		return nil, err
	}
	wireLogging(level, cmd.ErrOrStderr())
	return store.Open(historyPath(viper.GetString("history.db")))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runItem(r store.Run) ui.RunItem {
	return ui.RunItem{ID: r.ID, StartedAt: r.StartedAt, RuleTable: r.RuleTable, Seed: r.Seed, Rows: r.Rows, Input: r.Input}
}

func runItems(runs []store.Run) []ui.RunItem {
	out := make([]ui.RunItem, len(runs))
	for i, r := range runs {
		out[i] = runItem(r)
	}
	return out
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyDB, "history-db", "", "History database (default ~/.fdm-cli/history.db)")
	historyCmd.PersistentFlags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs listed")
	historyCmd.PersistentFlags().StringVar(&historyLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	viper.BindPFlag("history.db", historyCmd.PersistentFlags().Lookup("history-db"))
	viper.BindPFlag("history.limit", historyCmd.PersistentFlags().Lookup("limit"))
	viper.BindPFlag("history.log-level", historyCmd.PersistentFlags().Lookup("log-level"))

	historyCmd.AddCommand(historyListCmd, historyShowCmd)
}
