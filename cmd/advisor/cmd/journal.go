package cmd

import (
	"fmt"

	"github.com/rustyeddy/advisor/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the deal journal",
	Long: `Query and display deal records from a SQLite journal.

Subcommands:
  runs   - List the runs recorded in the journal
  deals  - List deals, optionally for one run
  deal   - Show one deal by ID

Examples:
  advisor journal runs
  advisor journal deals 01HS...
  advisor journal deal 01HS...`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalDealsCmd = &cobra.Command{
	Use:   "deals [run-id]",
	Short: "List deals with a summary",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournalDeals,
}

var journalDealCmd = &cobra.Command{
	Use:   "deal <deal-id>",
	Short: "Show one deal",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDeal,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalDealsCmd)
	journalCmd.AddCommand(journalDealCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./deals.db", "path to SQLite journal DB")
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	for _, r := range runs {
		fmt.Fprintln(cmd.OutOrStdout(), r)
	}
	return nil
}

func runJournalDeals(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	var runID string
	if len(args) == 1 {
		runID = args[0]
	}
	deals, err := j.ListDeals(runID)
	if err != nil {
		return fmt.Errorf("list deals: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatDealsOrg(deals))
	return nil
}

func runJournalDeal(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	d, err := j.GetDeal(args[0])
	if err != nil {
		return fmt.Errorf("get deal: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatDealOrg(d))
	return nil
}
