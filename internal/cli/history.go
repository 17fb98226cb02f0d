package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"gradepipe/internal/flags"
	"gradepipe/internal/history"

	"github.com/spf13/cobra"
)

var (
	historyDB    string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent grading runs",
	Long: `Show recent grading runs recorded in the local history database.

Runs are recorded by "gradepipe run" unless --no-history was given.

Examples:
  gradepipe history
  gradepipe history --limit 5
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(historyDB)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Recent(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tEVENT\tACTOR\tREPO\tSCORE\tOUTCOME")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
				r.StartedAt.Local().Format(time.DateTime),
				r.EventKind, r.Actor, r.Repo, r.Total, r.MaxScore, r.Outcome)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyDB, flags.FlagDB, history.DefaultPath, "Path of the run-history database")
	historyCmd.Flags().IntVar(&historyLimit, flags.FlagLimit, 20, "Maximum number of runs to show")
}
