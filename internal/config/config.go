package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/khrees2412/jobharvest/internal/logger"
	"github.com/khrees2412/jobharvest/internal/scraper"
	"github.com/spf13/viper"
)

const (
	dirName   = ".jobharvest"
	fileName  = "config.yaml"
	envPrefix = "JOBHARVEST"
)

// Config holds the application configuration
type Config struct {
	OutputFile   string `mapstructure:"output_file"`
	DatabasePath string `mapstructure:"database_path"`

	// Search
	Limit     int    `mapstructure:"limit"`
	IsToday   bool   `mapstructure:"is_today"`
	CityState string `mapstructure:"city_state"`

	// Browser
	Headless  bool   `mapstructure:"headless"`
	UserAgent string `mapstructure:"user_agent"`

	// Pacing between queries and after each search
	SearchDelayMin  time.Duration `mapstructure:"search_delay_min"`
	SearchDelayMax  time.Duration `mapstructure:"search_delay_max"`
	ResultsTimeout  time.Duration `mapstructure:"results_timeout"`
	ResultsAttempts int           `mapstructure:"results_attempts"`

	Timing    scraper.Timing    `mapstructure:",squash"`
	Log       logger.Config     `mapstructure:",squash"`
	Selectors scraper.Selectors `mapstructure:"selectors"`
}

var AppConfig *Config

// Keys are the scalar settings `config set` accepts.
var Keys = []string{
	"output_file", "database_path",
	"limit", "is_today", "city_state",
	"headless", "user_agent",
	"click_delay", "scroll_delay_min", "scroll_delay_max",
	"search_delay_min", "search_delay_max", "error_retry_delay",
	"container_timeout", "detail_timeout", "results_timeout", "results_attempts",
	"max_scrolls", "log_level", "log_format",
}

// Initialize loads or creates the configuration file, then layers .env and
// JOBHARVEST_* environment overrides on top.
func Initialize() error {
	configDir, err := Dir()
	if err != nil {
		return err
	}
	configFile := filepath.Join(configDir, fileName)

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create default config if it doesn't exist
	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		if err := createDefaultConfig(configFile); err != nil {
			return err
		}
	}

	// a missing .env is normal
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	viper.SetConfigFile(configFile)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(configDir)

	// Read config
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	// Unmarshal into struct
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Selectors = cfg.Selectors.Merge(scraper.DefaultSelectors())
	AppConfig = cfg
	return nil
}

func setDefaults(configDir string) {
	timing := scraper.DefaultTiming()
	sel := scraper.DefaultSelectors()

	viper.SetDefault("output_file", "job_scrape_master.json")
	viper.SetDefault("database_path", filepath.Join(configDir, "jobharvest.db"))
	viper.SetDefault("limit", 50)
	viper.SetDefault("is_today", false)
	viper.SetDefault("city_state", "")
	viper.SetDefault("headless", false)
	viper.SetDefault("user_agent", "")
	viper.SetDefault("search_delay_min", 3*time.Second)
	viper.SetDefault("search_delay_max", 6*time.Second)
	viper.SetDefault("results_timeout", 10*time.Second)
	viper.SetDefault("results_attempts", 3)
	viper.SetDefault("click_delay", timing.ClickDelay)
	viper.SetDefault("scroll_delay_min", timing.ScrollDelayMin)
	viper.SetDefault("scroll_delay_max", timing.ScrollDelayMax)
	viper.SetDefault("error_retry_delay", timing.ErrorRetryDelay)
	viper.SetDefault("container_timeout", timing.ContainerTimeout)
	viper.SetDefault("detail_timeout", timing.DetailTimeout)
	viper.SetDefault("max_scrolls", timing.MaxScrolls)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "console")

	viper.SetDefault("selectors.container", sel.Container)
	viper.SetDefault("selectors.card", sel.Card)
	viper.SetDefault("selectors.detail_panel", sel.DetailPanel)
	viper.SetDefault("selectors.title", sel.Title)
	viper.SetDefault("selectors.publisher", sel.Publisher)
	viper.SetDefault("selectors.description", sel.Description)
	viper.SetDefault("selectors.details_container", sel.DetailsContainer)
	viper.SetDefault("selectors.detail_item", sel.DetailItem)
	viper.SetDefault("selectors.detail_text", sel.DetailText)
	viper.SetDefault("selectors.apply_link", sel.ApplyLink)
	viper.SetDefault("selectors.results", sel.Results)
	viper.SetDefault("selectors.search_box", sel.SearchBox)
	viper.SetDefault("selectors.consent_buttons", sel.ConsentButtons)
}

// createDefaultConfig creates a default config file
func createDefaultConfig(path string) error {
	defaultConfig := `# jobharvest configuration
# Every key can be overridden with a JOBHARVEST_<KEY> environment variable.

output_file: job_scrape_master.json
limit: 50
is_today: false
# "City,ST", e.g. "New York,NY"
city_state: ""

headless: false

click_delay: 1s
scroll_delay_min: 2s
scroll_delay_max: 4s
search_delay_min: 3s
search_delay_max: 6s
error_retry_delay: 2s
container_timeout: 20s
detail_timeout: 10s
results_timeout: 10s
results_attempts: 3
max_scrolls: 50

log_level: info
log_format: console

# Page selectors; only set the ones that need overriding.
# selectors:
#   card: div.EimVGf
`
	return os.WriteFile(path, []byte(defaultConfig), 0644)
}

// Set updates a configuration value
func Set(key, value string) error {
	if !slices.Contains(Keys, key) {
		return fmt.Errorf("unknown key %q", key)
	}
	viper.Set(key, value)
	return viper.WriteConfig()
}

// Get retrieves a configuration value
func Get(key string) string {
	return viper.GetString(key)
}

// Dir returns the directory holding the config file and default database.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, dirName), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	dir, _ := Dir()
	return filepath.Join(dir, fileName)
}
