package cmd

import (
	"fmt"
	"strings"

	"github.com/khrees2412/jobharvest/internal/app"
	"github.com/khrees2412/jobharvest/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  "View and update configuration settings",
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(titleStyle.Render("Configuration"))
		cmd.Printf("%s %s\n", labelStyle.Render("Config File:"), config.GetConfigPath())
		for _, key := range config.Keys {
			cmd.Printf("%s %s\n", labelStyle.Render(key+":"), valueStyle.Render(config.Get(key)))
		}

		sel := config.AppConfig.Selectors
		cmd.Println(titleStyle.Render("Selectors"))
		cmd.Printf("%s %s\n", labelStyle.Render("container:"), sel.Container)
		cmd.Printf("%s %s\n", labelStyle.Render("card:"), sel.Card)
		cmd.Printf("%s %s\n", labelStyle.Render("detail_panel:"), sel.DetailPanel)
		cmd.Printf("%s %s\n", labelStyle.Render("search_box:"), strings.Join(sel.SearchBox, " | "))
	},
}

var setConfigCmd = &cobra.Command{
	Use:   "set",
	Short: "Update a configuration value",
	Example: `  jobharvest config set --key limit --value 100
  jobharvest config set --key headless --value true
  jobharvest config set --key scroll_delay_max --value 6s
  jobharvest config set --key output_file --value jobs/all.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		value, _ := cmd.Flags().GetString("value")

		if key == "" || value == "" {
			return fmt.Errorf("%w: both --key and --value are required", app.ErrInvalidArgument)
		}

		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("error updating config: %w (keys: %s)", err, strings.Join(config.Keys, ", "))
		}
		cmd.Printf("✓ Configuration updated: %s\n", key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(setConfigCmd)

	// Flags for set command
	setConfigCmd.Flags().String("key", "", "Configuration key")
	setConfigCmd.Flags().String("value", "", "Configuration value")
}
