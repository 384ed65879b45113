// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "CAP_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the platform configuration.
type Config struct {
	// Environment selects which override section applies.
	Environment Environment `yaml:"environment" json:"environment"`

	// Platform configures the platform identity and its transport.
	Platform PlatformConfig `yaml:"platform" json:"platform"`

	// Router configures message delivery.
	Router RouterConfig `yaml:"router" json:"router"`

	// State configures the directory snapshot.
	State StateConfig `yaml:"state" json:"state"`

	// Logging configures the process logger.
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty" json:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty" json:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty" json:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per
// environment. Empty fields leave the base value alone.
type ConfigOverrides struct {
	Platform *PlatformConfig `yaml:"platform,omitempty" json:"platform,omitempty"`
	Router   *RouterConfig   `yaml:"router,omitempty" json:"router,omitempty"`
	State    *StateConfig    `yaml:"state,omitempty" json:"state,omitempty"`
	Logging  *LoggingConfig  `yaml:"logging,omitempty" json:"logging,omitempty"`
}

// PlatformConfig configures the platform identity and transport.
type PlatformConfig struct {
	// Name is the platform name. Agent names must end in "@<name>".
	// Default: the host name.
	Name string `yaml:"name" json:"name"`

	// Service is the transport service name the platform listens on.
	// Default: cap.platform
	Service string `yaml:"service" json:"service"`

	// SocketDir holds every platform and agent socket.
	// Default: ${XDG_RUNTIME_DIR:-/tmp}/cap
	SocketDir string `yaml:"socket_dir" json:"socket_dir"`

	// RequestTimeout bounds client calls to the platform.
	// Default: 5s
	RequestTimeout string `yaml:"request_timeout" json:"request_timeout"`
}

// RouterConfig configures message delivery.
type RouterConfig struct {
	// DeliveryTimeout bounds a single one-way delivery to an agent.
	// Default: 2s
	DeliveryTimeout string `yaml:"delivery_timeout" json:"delivery_timeout"`

	// DeliveryRate caps deliveries per second across all agents. Zero
	// means unlimited.
	DeliveryRate float64 `yaml:"delivery_rate" json:"delivery_rate"`

	// DeliveryBurst is the number of deliveries allowed at once when
	// DeliveryRate is set. Default: 32
	DeliveryBurst int `yaml:"delivery_burst" json:"delivery_burst"`

	// Breaker configures the per-agent circuit breakers.
	Breaker BreakerConfig `yaml:"breaker" json:"breaker"`
}

// BreakerConfig configures per-destination circuit breakers.
type BreakerConfig struct {
	// MaxFailures is the consecutive failure count that opens a
	// breaker. Default: 3
	MaxFailures uint32 `yaml:"max_failures" json:"max_failures"`

	// Timeout is how long an open breaker drops deliveries.
	// Default: 30s
	Timeout string `yaml:"timeout" json:"timeout"`

	// Interval clears a closed breaker's counts. Default: 60s
	Interval string `yaml:"interval" json:"interval"`
}

// StateConfig configures the directory snapshot.
type StateConfig struct {
	// File is the snapshot path. Empty disables persistence.
	File string `yaml:"file" json:"file"`

	// Compression is the snapshot payload compression: none, lz4 or
	// zstd. Default: zstd
	Compression string `yaml:"compression" json:"compression"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error. Default: info
	Level string `yaml:"level" json:"level"`

	// Format is auto, text or json. Auto picks text on a terminal and
	// JSON otherwise. Default: auto
	Format string `yaml:"format" json:"format"`
}

// Default returns the default configuration. It is the base the config
// file is loaded over, not a fallback for a missing file.
func Default() *Config {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "localhost"
	}
	return &Config{
		Environment: Development,
		Platform: PlatformConfig{
			Name:           hostname,
			Service:        "cap.platform",
			SocketDir:      "${XDG_RUNTIME_DIR:-/tmp}/cap",
			RequestTimeout: "5s",
		},
		Router: RouterConfig{
			DeliveryTimeout: "2s",
			DeliveryBurst:   32,
			Breaker: BreakerConfig{
				MaxFailures: 3,
				Timeout:     "30s",
				Interval:    "60s",
			},
		},
		State: StateConfig{
			Compression: "zstd",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads the file named by the CAP_CONFIG environment variable.
// There is no discovery: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your platform config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// Resolve loads flagPath when non-empty and otherwise defers to Load.
func Resolve(flagPath string) (*Config, error) {
	if flagPath != "" {
		return LoadFile(flagPath)
	}
	return Load()
}

// LoadFile loads configuration from path. Files ending in .json or
// .jsonc are parsed as JSON with comments and trailing commas allowed;
// anything else is YAML.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return json.Unmarshal(jsonc.ToJSON(data), c)
	default:
		return yaml.Unmarshal(data, c)
	}
}

// applyEnvironmentOverrides applies the section matching Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: quieter, machine-readable logs.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Logging: &LoggingConfig{Format: "json"},
			}
		}
	}
	if overrides == nil {
		return
	}

	if platform := overrides.Platform; platform != nil {
		overrideString(&c.Platform.Name, platform.Name)
		overrideString(&c.Platform.Service, platform.Service)
		overrideString(&c.Platform.SocketDir, platform.SocketDir)
		overrideString(&c.Platform.RequestTimeout, platform.RequestTimeout)
	}
	if router := overrides.Router; router != nil {
		overrideString(&c.Router.DeliveryTimeout, router.DeliveryTimeout)
		if router.DeliveryRate != 0 {
			c.Router.DeliveryRate = router.DeliveryRate
		}
		if router.DeliveryBurst != 0 {
			c.Router.DeliveryBurst = router.DeliveryBurst
		}
		if router.Breaker.MaxFailures != 0 {
			c.Router.Breaker.MaxFailures = router.Breaker.MaxFailures
		}
		overrideString(&c.Router.Breaker.Timeout, router.Breaker.Timeout)
		overrideString(&c.Router.Breaker.Interval, router.Breaker.Interval)
	}
	if state := overrides.State; state != nil {
		overrideString(&c.State.File, state.File)
		overrideString(&c.State.Compression, state.Compression)
	}
	if logging := overrides.Logging; logging != nil {
		overrideString(&c.Logging.Level, logging.Level)
		overrideString(&c.Logging.Format, logging.Format)
	}
}

func overrideString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} in paths.
func (c *Config) expandVariables() {
	c.Platform.SocketDir = expandVars(c.Platform.SocketDir)
	c.State.File = expandVars(c.State.File)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns from the
// process environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains([]Environment{Development, Staging, Production}, c.Environment) {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Platform.Name == "" {
		errs = append(errs, errors.New("platform.name is required"))
	}
	if strings.ContainsAny(c.Platform.Name, "@:") {
		errs = append(errs, fmt.Errorf("platform.name %q must not contain '@' or ':'", c.Platform.Name))
	}
	if c.Platform.Service == "" || strings.Contains(c.Platform.Service, ":") {
		errs = append(errs, fmt.Errorf("platform.service %q must be non-empty and contain no ':'", c.Platform.Service))
	}
	if c.Platform.SocketDir == "" {
		errs = append(errs, errors.New("platform.socket_dir is required"))
	}

	for _, field := range []struct{ name, value string }{
		{"platform.request_timeout", c.Platform.RequestTimeout},
		{"router.delivery_timeout", c.Router.DeliveryTimeout},
		{"router.breaker.timeout", c.Router.Breaker.Timeout},
		{"router.breaker.interval", c.Router.Breaker.Interval},
	} {
		if duration, err := time.ParseDuration(field.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field.name, err))
		} else if duration <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", field.name))
		}
	}
	if c.Router.DeliveryRate < 0 {
		errs = append(errs, errors.New("router.delivery_rate must not be negative"))
	}
	if c.Router.DeliveryRate > 0 && c.Router.DeliveryBurst <= 0 {
		errs = append(errs, errors.New("router.delivery_burst must be positive when delivery_rate is set"))
	}

	if !slices.Contains([]string{"none", "lz4", "zstd"}, c.State.Compression) {
		errs = append(errs, fmt.Errorf("state.compression must be one of: none, lz4, zstd"))
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: debug, info, warn, error"))
	}
	if !slices.Contains([]string{"auto", "text", "json"}, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: auto, text, json"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// RequestTimeout returns the parsed platform request timeout. Call
// only after Validate.
func (c *Config) RequestTimeout() time.Duration {
	return mustDuration(c.Platform.RequestTimeout)
}

// DeliveryTimeout returns the parsed router delivery timeout.
func (c *Config) DeliveryTimeout() time.Duration {
	return mustDuration(c.Router.DeliveryTimeout)
}

// BreakerTimeout returns the parsed open-breaker duration.
func (c *Config) BreakerTimeout() time.Duration {
	return mustDuration(c.Router.Breaker.Timeout)
}

// BreakerInterval returns the parsed breaker count-clearing interval.
func (c *Config) BreakerInterval() time.Duration {
	return mustDuration(c.Router.Breaker.Interval)
}

// EnsurePaths creates the socket directory and the snapshot's parent
// directory.
func (c *Config) EnsurePaths() error {
	paths := []string{c.Platform.SocketDir}
	if c.State.File != "" {
		paths = append(paths, filepath.Dir(c.State.File))
	}
	for _, path := range paths {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}

// mustDuration parses a duration Validate has already accepted.
func mustDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return duration
}

// DefaultSocketDir returns the default socket directory with
// variables expanded, for tools that run without a config file.
func DefaultSocketDir() string {
	return expandVars(Default().Platform.SocketDir)
}
