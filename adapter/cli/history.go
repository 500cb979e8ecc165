package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historyLoads   bool
	historySummary bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent calls from the journal",
	Long: `Show recent calls recorded in the journal.

Examples:
  astro history             # Last 20 calls
  astro history --limit 100
  astro history --loads     # Kernel loads
  astro history --summary   # Outcome counts`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireApp()
		if err != nil {
			return err
		}
		if a.Journal == nil {
			return errors.New("journal disabled (set ASTRO_JOURNAL_PATH)")
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		switch {
		case historySummary:
			counts, err := a.Journal.OutcomeCounts(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(out, counts)
			}
			keys := make([]string, 0, len(counts))
			for k := range counts {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "%-18s %d\n", k, counts[k])
			}

		case historyLoads:
			loads, err := a.Journal.RecentLoads(ctx, historyLimit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(out, loads)
			}
			for _, l := range loads {
				fmt.Fprintf(out, "%s  %-7s %d file(s) %s\n",
					l.At.Format(time.RFC3339), l.Status, len(l.Paths), l.Error)
				if verbose {
					for _, p := range l.Paths {
						fmt.Fprintf(out, "    %s\n", p)
					}
				}
			}

		default:
			calls, err := a.Journal.RecentCalls(ctx, historyLimit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(out, calls)
			}
			if len(calls) == 0 {
				fmt.Fprintln(out, "No calls recorded.")
				return nil
			}
			fmt.Fprintf(out, "%-20s %-26s %-6s %-10s %s\n", "TIME", "OPERATION", "STATUS", "DURATION", "MESSAGE")
			fmt.Fprintln(out, strings.Repeat("-", 80))
			for _, c := range calls {
				status := string(c.Status)
				if c.Cached {
					status += "*"
				}
				fmt.Fprintf(out, "%-20s %-26s %-6s %-10s %s\n",
					c.At.Format("2006-01-02 15:04:05"), fmt.Sprintf("%s/%d", c.Operation, c.Arity),
					status, c.Duration.Round(time.Microsecond), c.Message)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries")
	historyCmd.Flags().BoolVar(&historyLoads, "loads", false, "show kernel loads")
	historyCmd.Flags().BoolVar(&historySummary, "summary", false, "show outcome counts")
	rootCmd.AddCommand(historyCmd)
}
