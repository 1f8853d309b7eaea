package cmd

import (
	"fmt"

	"github.com/khrees2412/jobharvest/internal/database"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "View statistics about harvested jobs",
	Long:  "Break down every job recorded in the run history by application platform and job type",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := appFrom(cmd).Runs.GetStats()
		if err != nil {
			return fmt.Errorf("error fetching stats: %w", err)
		}
		if stats.TotalJobs == 0 {
			cmd.Println("No jobs harvested yet. Start with 'jobharvest harvest --search_term <term>'")
			return nil
		}

		cmd.Println(titleStyle.Render("Harvest Statistics"))

		cmd.Printf("%s\n", labelStyle.Render("Overview"))
		cmd.Printf("  Runs: %d\n", stats.TotalRuns)
		cmd.Printf("  Jobs: %d\n", stats.TotalJobs)

		printBreakdown(cmd, "By Platform", stats.ByPlatform, stats.TotalJobs)
		printBreakdown(cmd, "By Job Type", stats.ByJobType, stats.TotalJobs)
		return nil
	},
}

func printBreakdown(cmd *cobra.Command, title string, counts []database.Count, total int) {
	cmd.Printf("\n%s\n", labelStyle.Render(title))
	for _, c := range counts {
		percentage := float64(c.Count) / float64(total) * 100
		cmd.Printf("  %s: %d (%.1f%%)\n", c.Key, c.Count, percentage)
	}
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
