// Package config holds the settings of one resolver deployment. A Config is loaded once and
// threaded through calls; nothing here is package-level state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"gopkg.in/yaml.v3"

	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EXTRESOLVE_"

// Output formats understood by the CLI.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatText = "text"
)

type Config struct {
	// MaxPasses caps the closure. Zero runs it to convergence.
	MaxPasses int `yaml:"maxPasses"`
	// StrictExclusions turns exclusions that match nothing into configuration errors.
	StrictExclusions bool `yaml:"strictExclusions"`
	// PlatformVersion is checked against platform constraints when the application does
	// not name one.
	PlatformVersion string `yaml:"platformVersion"`

	Output  OutputConfig  `yaml:"output"`
	Publish PublishConfig `yaml:"publish"`
}

type OutputConfig struct {
	Format string `yaml:"format"`
}

type PublishConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"natsURL"`
	Subject string `yaml:"subject"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Output: OutputConfig{Format: FormatYAML},
		Publish: PublishConfig{
			NATSURL: nats.DefaultURL,
			Subject: "bindery.resolution",
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies EXTRESOLVE_* environment
// overrides. A .env file in the working directory is honored when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	if v, ok := get("MAX_PASSES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_PASSES: %w", EnvPrefix, err)
		}
		c.MaxPasses = n
	}
	if v, ok := get("STRICT_EXCLUSIONS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSTRICT_EXCLUSIONS: %w", EnvPrefix, err)
		}
		c.StrictExclusions = b
	}
	if v, ok := get("PLATFORM_VERSION"); ok {
		c.PlatformVersion = v
	}
	if v, ok := get("OUTPUT_FORMAT"); ok {
		c.Output.Format = v
	}
	if v, ok := get("NATS_URL"); ok {
		c.Publish.NATSURL = v
	}
	if v, ok := get("PUBLISH_SUBJECT"); ok {
		c.Publish.Subject = v
	}
	if v, ok := get("PUBLISH"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sPUBLISH: %w", EnvPrefix, err)
		}
		c.Publish.Enabled = b
	}
	return nil
}

// Validate rejects settings no component can honor.
func (c *Config) Validate() error {
	if c.MaxPasses < 0 {
		return fmt.Errorf("config: maxPasses must not be negative, got %d", c.MaxPasses)
	}
	switch strings.ToLower(c.Output.Format) {
	case FormatYAML, FormatJSON, FormatText:
		c.Output.Format = strings.ToLower(c.Output.Format)
	default:
		return fmt.Errorf("config: invalid output format %q (expected yaml|json|text)", c.Output.Format)
	}
	if c.Publish.Enabled && (c.Publish.NATSURL == "" || c.Publish.Subject == "") {
		return fmt.Errorf("config: publishing needs both natsURL and subject")
	}
	return nil
}

// ResolverOptions returns the per-run resolver options this configuration selects.
func (c *Config) ResolverOptions() resolver.Options {
	return resolver.Options{
		MaxPasses:        c.MaxPasses,
		StrictExclusions: c.StrictExclusions,
	}
}
