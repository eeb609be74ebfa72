// ABOUTME: Configuration loading and parsing for passbridge
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete passbridge configuration
type Config struct {
	Apple    AppleConfig    `yaml:"apple"`
	Google   GoogleConfig   `yaml:"google"`
	Profiles ProfilesConfig `yaml:"profiles"`
	Render   RenderConfig   `yaml:"render"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AppleConfig holds the Apple Wallet signing identity.
type AppleConfig struct {
	TeamID             string `yaml:"team_id"`
	PassTypeIdentifier string `yaml:"pass_type_identifier"`
	OrganizationName   string `yaml:"organization_name"`
	CertificatePath    string `yaml:"certificate_path"` // PKCS#12 bundle
	CertificatePass    string `yaml:"certificate_pass"`
	WWDRPath           string `yaml:"wwdr_path"` // Apple WWDR intermediate cert (PEM or DER)
}

// GoogleConfig holds the Google Wallet issuer identity.
type GoogleConfig struct {
	IssuerID           string `yaml:"issuer_id"`
	ServiceAccountPath string `yaml:"service_account_path"` // absent = unsigned save URLs
	APIBaseURL         string `yaml:"api_base_url"`
	CallbackURL        string `yaml:"callback_url"`

	UpsertTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	UpsertTimeoutRaw string `yaml:"upsert_timeout"`
}

// ProfilesConfig points at an optional TOML display-overrides file.
type ProfilesConfig struct {
	OverridesPath string `yaml:"overrides_path"`
}

// RenderConfig holds rendered-artifact cache configuration.
type RenderConfig struct {
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"-"`

	CacheTTLRaw string `yaml:"cache_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration suitable for credential-less demo runs:
// renders degrade gracefully, save URLs come back unsigned.
func Default() *Config {
	cfg := &Config{
		Apple: AppleConfig{
			OrganizationName: "passbridge",
		},
		Google: GoogleConfig{
			IssuerID: "3388000000000000000",
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Google.APIBaseURL == "" {
		c.Google.APIBaseURL = "https://walletobjects.googleapis.com/walletobjects/v1"
	}
	if c.Google.UpsertTimeout == 0 {
		c.Google.UpsertTimeout = 10 * time.Second
	}
	if c.Render.CacheSize == 0 {
		c.Render.CacheSize = 256
	}
	if c.Render.CacheTTL == 0 {
		c.Render.CacheTTL = 5 * time.Minute
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Google.IssuerID == "" {
		return fmt.Errorf("google.issuer_id is required")
	}

	// The Apple identity is optional (renders fail recoverably without it),
	// but a certificate without its companions is a misconfiguration.
	if c.Apple.CertificatePath != "" {
		if c.Apple.TeamID == "" {
			return fmt.Errorf("apple.team_id is required when a certificate is configured")
		}
		if c.Apple.PassTypeIdentifier == "" {
			return fmt.Errorf("apple.pass_type_identifier is required when a certificate is configured")
		}
		if c.Apple.WWDRPath == "" {
			return fmt.Errorf("apple.wwdr_path is required when a certificate is configured")
		}
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Google.UpsertTimeoutRaw != "" {
		cfg.Google.UpsertTimeout, err = time.ParseDuration(cfg.Google.UpsertTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing upsert_timeout %q: %w", cfg.Google.UpsertTimeoutRaw, err)
		}
	}

	if cfg.Render.CacheTTLRaw != "" {
		cfg.Render.CacheTTL, err = time.ParseDuration(cfg.Render.CacheTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing cache_ttl %q: %w", cfg.Render.CacheTTLRaw, err)
		}
	}

	return nil
}
