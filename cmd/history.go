package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past harvest runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := appFrom(cmd).Runs.ListRuns(limit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 {
			cmd.Println("No runs yet. Start one with 'jobharvest harvest --search_term <term>'")
			return nil
		}

		cmd.Println(titleStyle.Render("Harvest History"))
		for _, run := range runs {
			status := mutedStyle.Render("unfinished")
			if run.FinishedAt != nil {
				status = valueStyle.Render(run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String())
			}
			cmd.Printf("\n%s %s\n", labelStyle.Render(run.StartedAt.Local().Format("Jan 2, 2006 15:04")), run.QuerySpec)
			cmd.Printf("   %s %d  %s %d  %s %d  %s %d\n",
				labelStyle.Render("Searches:"), run.Queries,
				labelStyle.Render("Accepted:"), run.Accepted,
				labelStyle.Render("New:"), run.NewJobs,
				labelStyle.Render("Duplicates:"), run.Duplicates)
			cmd.Printf("   %s %s  %s\n", labelStyle.Render("Took:"), status, mutedStyle.Render(run.ID))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int("limit", 10, "number of runs to show (0 for all)")
}
