package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/khrees2412/jobharvest/internal/app"
	"github.com/spf13/cobra"
)

// skipApp marks commands that run without config, logger or database.
const skipApp = "skip-app"

var rootCmd = &cobra.Command{
	Use:   "jobharvest",
	Short: "Harvest job listings from Google Jobs into a deduplicated JSON file",
	Long: `jobharvest drives a browser through Google Jobs results, classifies each
listing's details and appends new listings to a JSON document. A query such as
"engineer (go OR rust) (remote OR hybrid)" expands into one search per combination.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipApp] == "true" {
			return nil
		}

		// Initialize app with all dependencies
		application, err := app.NewApp(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}

		// Store app in command context
		cmd.SetContext(app.WithApp(cmd.Context(), application))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if a := app.FromContext(cmd.Context()); a != nil {
			return a.Close()
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	// Interrupts cancel the running harvest; what was collected is still saved
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		stop()
		os.Exit(1)
	}
}

// appFrom returns the App set up by the root command.
func appFrom(cmd *cobra.Command) *app.App {
	return app.FromContext(cmd.Context())
}
