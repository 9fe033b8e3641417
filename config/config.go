// Package config provides YAML configuration parsing for sourcewatch.
//
// This package enables running sourcewatch as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	base_url: https://api.example.com
//	request_timeout: 10s
//
//	initial_delay: 1500ms
//	flat_attempts: 5
//	backoff_factor: 2.0
//	max_delay: 24s
//	max_attempts: 20
//
//	headers:
//	  Authorization: Bearer ${API_KEY}
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// minInitialDelay is the smallest allowed initial delay for production
// configs. This prevents accidental DoS of the status endpoint with overly
// aggressive polling.
const minInitialDelay = 100 * time.Millisecond

// Config is the root configuration structure for sourcewatch.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML. Zero-valued polling
// fields mean "use the SDK default".
type Config struct {
	// BaseURL is the API base URL status lookups are issued against.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	BaseURL string `yaml:"base_url"`

	// RequestTimeout bounds each individual status lookup. Defaults to 10s.
	RequestTimeout Duration `yaml:"request_timeout"`

	// Headers are custom HTTP headers sent with each lookup.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// InitialDelay is the delay before the second poll attempt.
	// Accepts duration strings like "1500ms", "2s".
	InitialDelay Duration `yaml:"initial_delay"`

	// FlatAttempts is how many attempts are polled at the initial delay
	// before backoff growth starts.
	FlatAttempts int `yaml:"flat_attempts"`

	// BackoffFactor is the per-attempt delay multiplier after the flat
	// phase. Must be at least 1 when set.
	BackoffFactor float64 `yaml:"backoff_factor"`

	// MaxDelay is the ceiling on the delay between attempts.
	MaxDelay Duration `yaml:"max_delay"`

	// MaxAttempts is the hard cap on the poll count before giving up.
	MaxAttempts int `yaml:"max_attempts"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses a configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML data into a validated [Config]. Environment variables
// in the base URL and header values are expanded before validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.BaseURL = expandEnv(cfg.BaseURL)
	for k, v := range cfg.Headers {
		cfg.Headers[k] = expandEnv(v)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// expandEnv substitutes ${VAR} and ${VAR:-default} references with
// environment variable values. Unset variables without a default expand to
// the empty string.
func expandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(groups[1]); ok {
			return value
		}
		return groups[2]
	})
}

// validate checks field constraints and cross-field consistency.
func (c *Config) validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("base_url must have an http:// or https:// scheme")
	}

	if c.RequestTimeout < 0 {
		return errors.New("request_timeout cannot be negative")
	}
	if c.InitialDelay < 0 {
		return errors.New("initial_delay cannot be negative")
	}
	if c.InitialDelay != 0 && c.InitialDelay.Duration() < minInitialDelay {
		return fmt.Errorf("initial_delay must be at least %s", minInitialDelay)
	}
	if c.FlatAttempts < 0 {
		return errors.New("flat_attempts cannot be negative")
	}
	if c.BackoffFactor != 0 && c.BackoffFactor < 1 {
		return errors.New("backoff_factor must be at least 1")
	}
	if c.MaxDelay < 0 {
		return errors.New("max_delay cannot be negative")
	}
	if c.InitialDelay != 0 && c.MaxDelay != 0 && c.MaxDelay < c.InitialDelay {
		return errors.New("max_delay cannot be smaller than initial_delay")
	}
	if c.MaxAttempts < 0 {
		return errors.New("max_attempts cannot be negative")
	}

	return nil
}
