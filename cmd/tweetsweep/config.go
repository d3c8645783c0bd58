package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tweetsweep/pkg/config"
	"tweetsweep/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage tweetsweep configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (TWEETSWEEP_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.tweetsweep.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after all sources are applied.

API secrets are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# tweetsweep configuration file
#
# Every option can also be set with an environment variable prefixed with
# TWEETSWEEP_, for example TWEETSWEEP_CONSUMER_KEY or TWEETSWEEP_LOG_LEVEL.

# Twitter API credentials (OAuth 1.0a). Leave empty to use credentials.txt
# or an account stored with 'tweetsweep auth login'.
twitter:
  consumer_key: ""
  consumer_secret: ""
  access_token_key: ""
  access_token_secret: ""
  api_base_url: "https://api.twitter.com/1.1"
  user_agent: "tweetsweep/1.0"
  # Legacy INI file with a [TWITTER-TOOL] section
  credentials_file: "credentials.txt"

# Archive folders are created inside this directory
archive:
  base_directory: "."

# Media download throttle
rate_limit:
  media_per_second: 4
  media_burst: 4

# Retries for failed GET requests (5xx and network errors)
retry:
  enabled: true
  max_attempts: 3
  base_delay: 1s
  max_delay: 30s

download:
  timeout: 30s
  # Items requested per page, 1-200
  page_size: 200

# Prometheus metrics, e.g. ":9090". Empty disables the listener.
metrics:
  address: ""

logging:
  # debug, info, warn, error
  level: "info"
  # Optional log file; logs go to stdout when empty
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".tweetsweep.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Add your API credentials, or run 'tweetsweep auth login'")
	fmt.Println("2. Run 'tweetsweep config validate' to check the configuration")
	fmt.Println("3. Start with 'tweetsweep run --liked --archive'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return err
	}

	display := *cfg
	display.Twitter.ConsumerKey = mask(display.Twitter.ConsumerKey)
	display.Twitter.ConsumerSecret = mask(display.Twitter.ConsumerSecret)
	display.Twitter.AccessTokenKey = mask(display.Twitter.AccessTokenKey)
	display.Twitter.AccessTokenSecret = mask(display.Twitter.AccessTokenSecret)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return err
	}

	var warnings []string
	if !cfg.Twitter.HasCredentials() {
		if _, err := os.Stat(cfg.Twitter.CredentialsFile); err != nil {
			warnings = append(warnings, "no API credentials in config or "+cfg.Twitter.CredentialsFile+"; a stored account will be needed")
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Archive directory: %s\n", cfg.Archive.BaseDirectory)
	fmt.Printf("  Page size: %d\n", cfg.Download.PageSize)
	fmt.Printf("  Media rate: %.1f/s (burst %d)\n", cfg.RateLimit.MediaPerSecond, cfg.RateLimit.MediaBurst)
	fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}
