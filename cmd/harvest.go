package cmd

import (
	"fmt"

	"github.com/khrees2412/jobharvest/internal/harvest"
	"github.com/khrees2412/jobharvest/internal/logger"
	"github.com/khrees2412/jobharvest/internal/query"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Search Google Jobs and save new listings",
	Example: `  jobharvest harvest --search_term "golang developer"
  jobharvest harvest --search_term "engineer (go OR rust) (remote OR hybrid)" --limit 20
  jobharvest harvest --search_term "nurse" --is_today --city_state "New York,NY"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		spec, _ := cmd.Flags().GetString("search_term")

		queries, err := query.Expand(spec)
		if err != nil {
			return fmt.Errorf("invalid search term: %w", err)
		}
		if len(queries) == 0 {
			return harvest.ErrNoQueries
		}
		a.Logger.Info("Expanded search term", logger.Strings("queries", queries))

		chrome, err := a.StartBrowser(cmd.Context())
		if err != nil {
			return err
		}
		defer chrome.Close()

		st := a.Store("")
		orch := harvest.New(chrome, st, a.HarvestOptions(spec), a.Logger, harvest.WithRecorder(a.Runs))
		summary, err := orch.Run(cmd.Context(), queries)
		if summary != nil {
			printSummary(cmd, summary, st.Path())
		}
		return err
	},
}

func printSummary(cmd *cobra.Command, s *harvest.Summary, path string) {
	cmd.Println(titleStyle.Render("Harvest Summary"))
	for _, res := range s.Results {
		cmd.Printf("%s %s\n", labelStyle.Render(res.Query+":"),
			valueStyle.Render(fmt.Sprintf("%d jobs, %d duplicates, %d failed cards (%s)",
				len(res.Records), res.Duplicates, res.Failures, res.State)))
	}
	cmd.Println()
	cmd.Printf("%s %d\n", labelStyle.Render("Accepted:"), s.Accepted)
	cmd.Printf("%s %d\n", labelStyle.Render("Duplicates:"), s.Duplicates)
	cmd.Printf("%s %d\n", labelStyle.Render("Failed cards:"), s.Failures)
	if s.StoreErr != nil {
		cmd.Printf("%s %v\n", errorStyle.Render("Save failed:"), s.StoreErr)
	} else {
		cmd.Printf("%s %s (%d total, %d existing)\n", labelStyle.Render("Saved to:"), path,
			s.Store.TotalJobs, s.Store.ExistingJobs)
	}
	if s.RunID != "" {
		cmd.Println(mutedStyle.Render("run " + s.RunID))
	}
}

func init() {
	rootCmd.AddCommand(harvestCmd)

	flags := harvestCmd.Flags()
	flags.String("search_term", "", `job term to search for; "a (b OR c)" expands to several searches`)
	flags.Int("limit", 50, "maximum number of jobs to scrape per search")
	flags.Bool("is_today", false, "only scrape jobs posted today")
	flags.String("city_state", "", `restrict to a city, formatted "City,ST" (e.g. "New York,NY")`)
	flags.String("output", "", "JSON file to append new jobs to")
	flags.Bool("headless", false, "run the browser without a window")
	_ = harvestCmd.MarkFlagRequired("search_term")

	_ = viper.BindPFlag("limit", flags.Lookup("limit"))
	_ = viper.BindPFlag("is_today", flags.Lookup("is_today"))
	_ = viper.BindPFlag("city_state", flags.Lookup("city_state"))
	_ = viper.BindPFlag("output_file", flags.Lookup("output"))
	_ = viper.BindPFlag("headless", flags.Lookup("headless"))
}
