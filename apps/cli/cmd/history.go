package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/servicecall/packages/core/config"
	"github.com/spf13/cobra"
)

// DefaultHistoryDB is used when neither --db nor the config names a database
const DefaultHistoryDB = "servicecall.db"

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded dispatch outcomes",
	Long: `List the most recent outcomes recorded with send --history or
bench --history, newest first.

Examples:
  servicecall history
  servicecall history --db calls.db --limit 50
  servicecall history --summary -o json`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

var (
	historyDBFlag      string
	historyLimitFlag   int
	historySummaryFlag bool
)

func init() {
	historyCmd.Flags().StringVar(&historyDBFlag, "db", getEnvString("SERVICECALL_HISTORY", ""), "History database, defaults to the config file or "+DefaultHistoryDB+" (env: SERVICECALL_HISTORY)")
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "l", getEnvInt("SERVICECALL_HISTORY_LIMIT", 20), "Number of entries to show (env: SERVICECALL_HISTORY_LIMIT)")
	historyCmd.Flags().BoolVar(&historySummaryFlag, "summary", false, "Also print outcome counts for the whole database")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(&config.Config{History: historyDBFlag})
	if err != nil {
		return err
	}
	if cfg.History == "" {
		cfg.History = DefaultHistoryDB
	}
	formatter, err := newFormatter(cmd, cfg)
	if err != nil {
		return err
	}

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	entries, err := store.Recent(ctx, historyLimitFlag)
	if err != nil {
		return err
	}
	formatter.FormatHistory(entries)

	if historySummaryFlag {
		sum, err := store.Summarize(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\n%d total: %d success, %d failure, %d cancelled\n",
			sum.Total, sum.Success, sum.Failure, sum.Cancelled)
	}
	return nil
}
