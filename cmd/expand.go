package cmd

import (
	"fmt"
	"strings"

	"github.com/khrees2412/jobharvest/internal/query"
	"github.com/spf13/cobra"
)

var expandCmd = &cobra.Command{
	Use:   "expand <search term>",
	Short: "Show the searches a search term expands to, without running them",
	Example: `  jobharvest expand "engineer (go OR rust) (remote OR hybrid)"
  jobharvest expand '"data analyst" OR "data scientist"'`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipApp: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := args[0]
		groups, err := query.Groups(spec)
		if err != nil {
			return err
		}
		queries, err := query.Expand(spec)
		if err != nil {
			return err
		}

		if len(groups) > 0 {
			cmd.Println(titleStyle.Render("Groups"))
			for _, g := range groups {
				alts := g.Alternatives()
				if !g.HasOR() {
					cmd.Printf("%s %s\n", labelStyle.Render(g.Text), mutedStyle.Render("kept as written"))
					continue
				}
				cmd.Printf("%s %s\n", labelStyle.Render(g.Text), valueStyle.Render(strings.Join(alts, " | ")))
			}
		}

		cmd.Println(titleStyle.Render(fmt.Sprintf("%d searches", len(queries))))
		for i, q := range queries {
			cmd.Printf("%s %s\n", labelStyle.Render(fmt.Sprintf("%d.", i+1)), q)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(expandCmd)
}
