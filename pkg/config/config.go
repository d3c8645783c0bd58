package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for tweetsweep
type Config struct {
	// Twitter API credentials and endpoint
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// Where archive entries are written
	Archive ArchiveConfig `yaml:"archive" json:"archive"`

	// Client side throttling of media downloads
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry policy for idempotent API reads
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TwitterConfig holds the OAuth 1.0a credentials and API location
type TwitterConfig struct {
	ConsumerKey       string `yaml:"consumer_key" json:"consumer_key"`
	ConsumerSecret    string `yaml:"consumer_secret" json:"consumer_secret"`
	AccessTokenKey    string `yaml:"access_token_key" json:"access_token_key"`
	AccessTokenSecret string `yaml:"access_token_secret" json:"access_token_secret"`
	APIBaseURL        string `yaml:"api_base_url" json:"api_base_url"`
	UserAgent         string `yaml:"user_agent" json:"user_agent"`
	// CredentialsFile is the legacy INI file with a TWITTER-TOOL section
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
}

// HasCredentials reports whether all four OAuth secrets are present
func (t TwitterConfig) HasCredentials() bool {
	return t.ConsumerKey != "" && t.ConsumerSecret != "" &&
		t.AccessTokenKey != "" && t.AccessTokenSecret != ""
}

// ArchiveConfig holds archive directory configuration
type ArchiveConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
}

// RateLimitConfig holds media download throttling. A zero rate disables it.
type RateLimitConfig struct {
	MediaPerSecond float64 `yaml:"media_per_second" json:"media_per_second"`
	MediaBurst     int     `yaml:"media_burst" json:"media_burst"`
}

// RetryConfig controls retries of rate limit queries and page fetches
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// DownloadConfig holds request settings
type DownloadConfig struct {
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	PageSize int           `yaml:"page_size" json:"page_size"`
}

// MetricsConfig holds the optional Prometheus listener address
type MetricsConfig struct {
	Address string `yaml:"address" json:"address"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			APIBaseURL:      "https://api.twitter.com/1.1",
			UserAgent:       "tweetsweep/1.0",
			CredentialsFile: "credentials.txt",
		},
		Archive: ArchiveConfig{
			BaseDirectory: ".",
		},
		RateLimit: RateLimitConfig{
			MediaPerSecond: 4,
			MediaBurst:     4,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    30 * time.Second,
		},
		Download: DownloadConfig{
			Timeout:  30 * time.Second,
			PageSize: 200,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	setString("TWEETSWEEP_CONSUMER_KEY", &c.Twitter.ConsumerKey)
	setString("TWEETSWEEP_CONSUMER_SECRET", &c.Twitter.ConsumerSecret)
	setString("TWEETSWEEP_ACCESS_TOKEN_KEY", &c.Twitter.AccessTokenKey)
	setString("TWEETSWEEP_ACCESS_TOKEN_SECRET", &c.Twitter.AccessTokenSecret)
	setString("TWEETSWEEP_API_BASE_URL", &c.Twitter.APIBaseURL)
	setString("TWEETSWEEP_USER_AGENT", &c.Twitter.UserAgent)
	setString("TWEETSWEEP_CREDENTIALS_FILE", &c.Twitter.CredentialsFile)
	setString("TWEETSWEEP_ARCHIVE_DIR", &c.Archive.BaseDirectory)
	setString("TWEETSWEEP_METRICS_ADDR", &c.Metrics.Address)
	setString("TWEETSWEEP_LOG_LEVEL", &c.Logging.Level)
	setString("TWEETSWEEP_LOG_FILE", &c.Logging.File)

	if v := os.Getenv("TWEETSWEEP_MEDIA_PER_SECOND"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("TWEETSWEEP_MEDIA_PER_SECOND: %w", err))
		} else {
			c.RateLimit.MediaPerSecond = rate
		}
	}

	if v := os.Getenv("TWEETSWEEP_RETRY_ATTEMPTS"); v != "" {
		attempts, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TWEETSWEEP_RETRY_ATTEMPTS: %w", err))
		} else {
			c.Retry.MaxAttempts = attempts
		}
	}

	if v := os.Getenv("TWEETSWEEP_DOWNLOAD_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TWEETSWEEP_DOWNLOAD_TIMEOUT: %w", err))
		} else {
			c.Download.Timeout = timeout
		}
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".tweetsweep.yaml",
		".tweetsweep.yml",
		filepath.Join(home, ".config", "tweetsweep", "config.yaml"),
		filepath.Join(home, ".config", "tweetsweep", "config.yml"),
		filepath.Join(home, ".tweetsweep.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are not checked
// here because they may still be resolved from a credential store.
func (c *Config) Validate() error {
	var errs []error

	if c.Twitter.APIBaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}

	if c.Archive.BaseDirectory == "" {
		errs = append(errs, errors.New("archive base directory is required"))
	}

	if c.RateLimit.MediaPerSecond < 0 {
		errs = append(errs, errors.New("media per second cannot be negative"))
	}
	if c.RateLimit.MediaPerSecond > 0 && c.RateLimit.MediaBurst <= 0 {
		errs = append(errs, errors.New("media burst must be positive when throttling is enabled"))
	}

	if c.Retry.Enabled {
		if c.Retry.MaxAttempts <= 0 {
			errs = append(errs, errors.New("retry max attempts must be positive"))
		}
		if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
			errs = append(errs, errors.New("retry delays must satisfy 0 <= base_delay <= max_delay"))
		}
	}

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.PageSize <= 0 || c.Download.PageSize > 200 {
		errs = append(errs, errors.New("page size must be between 1 and 200"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only non-zero values override.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Archive.BaseDirectory = output
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if addr, ok := flags["metrics-addr"].(string); ok && addr != "" {
		c.Metrics.Address = addr
	}
	if baseURL, ok := flags["api-base-url"].(string); ok && baseURL != "" {
		c.Twitter.APIBaseURL = baseURL
	}
	if rate, ok := flags["media-rate"].(float64); ok && rate > 0 {
		c.RateLimit.MediaPerSecond = rate
	}
	if credFile, ok := flags["credentials-file"].(string); ok && credFile != "" {
		c.Twitter.CredentialsFile = credFile
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tweetsweep.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
