package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/itsJohnCnstn/httpcall/packages/config"
	"github.com/itsJohnCnstn/httpcall/packages/history"
)

var (
	historyLimitFlag   int
	historyClearFlag   bool
	historyDBPathFlag  string
	historyConfigFlag  string
	historyNoColorFlag bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously recorded exchanges",
	Long: `List exchanges recorded by earlier send/get/post invocations,
newest first.

Examples:
  httpcall history
  httpcall history --limit 10
  httpcall history --clear`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "Maximum number of entries to show")
	historyCmd.Flags().BoolVar(&historyClearFlag, "clear", false, "Delete all recorded entries")
	historyCmd.Flags().StringVar(&historyDBPathFlag, "db", "", "Path to the history database")
	historyCmd.Flags().StringVar(&historyConfigFlag, "config", "", "Path to config file")
	historyCmd.Flags().BoolVar(&historyNoColorFlag, "no-color", false, "Disable colored output")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(historyConfigFlag)
	if err != nil {
		return err
	}

	path := historyDBPathFlag
	if path == "" {
		path = cfg.HistoryDB
	}
	if path == "" {
		path = defaultHistoryPath()
	}
	if path == "" {
		return fmt.Errorf("cannot resolve a history database path, pass --db")
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if historyClearFlag {
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
		return nil
	}

	entries, err := store.List(historyLimitFlag)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No exchanges recorded yet")
		return nil
	}

	color.NoColor = historyNoColorFlag || cfg.GetNoColor()
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	dim := color.New(color.Faint)

	out := cmd.OutOrStdout()
	for _, e := range entries {
		dim.Fprintf(out, "%s  ", e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "%-6s %s  ", e.Method, e.URL)

		switch {
		case e.Error != "":
			red.Fprintf(out, "error: %s", e.Error)
		case e.StatusCode >= 500:
			red.Fprintf(out, "%d", e.StatusCode)
		case e.StatusCode >= 400:
			yellow.Fprintf(out, "%d", e.StatusCode)
		default:
			green.Fprintf(out, "%d", e.StatusCode)
		}
		fmt.Fprintf(out, "  %dms\n", e.DurationMs)
	}

	return nil
}
