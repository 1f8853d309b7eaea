package cmd

import (
	"fmt"
	"strings"

	"github.com/khrees2412/jobharvest/internal/app"
	"github.com/khrees2412/jobharvest/internal/matcher"
	"github.com/khrees2412/jobharvest/pkg/models"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Browse harvested jobs",
	Long:  "List, filter and view the jobs saved in the output file",
}

var listJobsCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved jobs",
	Example: `  jobharvest jobs list --platform LinkedIn
  jobharvest jobs list --match "go kubernetes" --min-score 0.5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		platform, _ := cmd.Flags().GetString("platform")
		term, _ := cmd.Flags().GetString("search-term")
		match, _ := cmd.Flags().GetString("match")
		minScore, _ := cmd.Flags().GetFloat64("min-score")

		st := appFrom(cmd).Store(file)
		records := st.Load()
		if len(records) == 0 {
			cmd.Printf("No jobs in %s. Harvest some with 'jobharvest harvest --search_term <term>'\n", st.Path())
			return nil
		}

		var matches []matcher.Match
		if keywords := matcher.Keywords(match); len(keywords) > 0 {
			matches = matcher.Rank(records, keywords, minScore)
		} else {
			for i, rec := range records {
				matches = append(matches, matcher.Match{Index: i, Record: rec})
			}
		}

		shown := 0
		cmd.Println(titleStyle.Render("Saved Jobs"))
		for _, m := range matches {
			job := m.Record
			if platform != "" && !strings.EqualFold(job.Platform(), platform) {
				continue
			}
			if term != "" && !strings.EqualFold(job.SearchTerm, term) {
				continue
			}
			shown++
			cmd.Printf("\n%s. %s\n", labelStyle.Render(fmt.Sprintf("%d", m.Index+1)), job.JobTitle)
			cmd.Printf("   %s %s\n", labelStyle.Render("Publisher:"), job.Publisher)
			cmd.Printf("   %s %s\n", labelStyle.Render("Platform:"), job.Platform())
			if job.Salary != models.NotSpecified {
				cmd.Printf("   %s %s\n", labelStyle.Render("Salary:"), job.Salary)
			}
			if m.Score > 0 {
				cmd.Printf("   %s %.0f%%\n", labelStyle.Render("Match:"), m.Score*100)
			}
		}
		cmd.Println(mutedStyle.Render(fmt.Sprintf("\n%d of %d jobs", shown, len(records))))
		return nil
	},
}

var showJobCmd = &cobra.Command{
	Use:   "show <number>",
	Short: "Show details of a specific job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var n int
		if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil {
			return fmt.Errorf("%w: job number must be a number", app.ErrInvalidArgument)
		}

		file, _ := cmd.Flags().GetString("file")
		records := appFrom(cmd).Store(file).Load()
		if n < 1 || n > len(records) {
			return fmt.Errorf("%w: job %d not found (have %d)", app.ErrInvalidArgument, n, len(records))
		}
		job := records[n-1]

		cmd.Println(titleStyle.Render(job.JobTitle))
		cmd.Printf("%s %s\n", labelStyle.Render("Publisher:"), job.Publisher)
		cmd.Printf("%s %s\n", labelStyle.Render("Posted:"), job.TimePosted)
		cmd.Printf("%s %s\n", labelStyle.Render("Salary:"), job.Salary)
		cmd.Printf("%s %s\n", labelStyle.Render("Type:"), job.JobType)
		cmd.Printf("%s %s\n", labelStyle.Render("Education:"), job.Education)
		if len(job.Benefits) > 0 {
			cmd.Printf("%s %s\n", labelStyle.Render("Benefits:"), strings.Join(job.Benefits, ", "))
		}
		cmd.Printf("%s %s (%s)\n", labelStyle.Render("Search:"), titleCase(job.SearchTerm), job.ScrapeTime)

		for _, link := range job.ApplicationLinks {
			cmd.Printf("%s %s\n", labelStyle.Render("Apply on "+link.Platform+":"), link.URL)
		}

		cmd.Println(labelStyle.Render("\nDescription:"))
		cmd.Println(job.Description)
		return nil
	},
}

// titleCase converts a string to title case using proper locale-aware capitalization
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(listJobsCmd)
	jobsCmd.AddCommand(showJobCmd)

	jobsCmd.PersistentFlags().String("file", "", "JSON file to read (defaults to output_file)")

	listJobsCmd.Flags().String("platform", "", "only jobs whose first application link is on this platform")
	listJobsCmd.Flags().String("search-term", "", "only jobs found by this search")
	listJobsCmd.Flags().String("match", "", "rank jobs by these keywords")
	listJobsCmd.Flags().Float64("min-score", 0.3, "minimum match score with --match")
}
