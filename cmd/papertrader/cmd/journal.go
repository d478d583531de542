package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"papertrader/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display trade records from a SQLite journal.

Subcommands:
  trade  - Get details of a specific trade by ID
  today  - List trades closed today
  day    - List trades closed on a specific day

Examples:
  papertrader journal trade <trade-id>
  papertrader journal today
  papertrader journal day 2026-08-31`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades closed today",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./papertrader.sqlite", "path to SQLite journal DB")
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Println(journal.FormatTradeOrg(rec))
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	loc := time.Local
	return listDay(time.Now().In(loc).Format("2006-01-02"))
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	return listDay(args[0])
}

func listDay(day string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(time.Local, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	if len(recs) == 0 {
		fmt.Printf("No trades closed on %s\n", day)
		return nil
	}

	fmt.Println(journal.FormatTradesOrg(recs))
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}
