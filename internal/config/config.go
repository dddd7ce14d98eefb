// Package config loads herald configuration from a YAML file with
// environment overrides. The resulting value is threaded explicitly
// through constructors; nothing reads configuration ambiently.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/roach88/herald/internal/platform"
)

// DefaultPath is where herald looks for its config when --config is
// not given.
const DefaultPath = ".herald/config.yaml"

// Config is the full application configuration.
type Config struct {
	// ContentPaths are the roots scanned for content items.
	ContentPaths []string `yaml:"content_paths" env:"HERALD_CONTENT_PATHS" env-separator:","`

	// ExcludePatterns are filename globs skipped during discovery.
	ExcludePatterns []string `yaml:"exclude_patterns"`

	// StateDir holds the registry file.
	StateDir string `yaml:"state_dir" env:"HERALD_STATE_DIR" env-default:".herald"`

	Retry Retry `yaml:"retry"`
	LLM   LLM   `yaml:"llm"`

	// Platforms maps platform name to its settings. Presence in this
	// map is what makes a registered platform "configured".
	Platforms map[string]Platform `yaml:"platforms"`
}

// Retry tunes the relay layer.
type Retry struct {
	MaxAttempts int           `yaml:"max_attempts" env:"HERALD_RETRY_MAX_ATTEMPTS" env-default:"3"`
	BaseDelay   time.Duration `yaml:"base_delay" env:"HERALD_RETRY_BASE_DELAY" env-default:"1s"`
	MaxDelay    time.Duration `yaml:"max_delay" env:"HERALD_RETRY_MAX_DELAY" env-default:"30s"`
}

// LLM configures the text-generation collaborator.
type LLM struct {
	APIKey           string  `yaml:"api_key" env:"ANTHROPIC_API_KEY"`
	Model            string  `yaml:"model" env:"HERALD_LLM_MODEL" env-default:"claude-sonnet-4-20250514"`
	Temperature      float64 `yaml:"temperature" env:"HERALD_LLM_TEMPERATURE" env-default:"0.2"`
	RewriteRetries   int     `yaml:"rewrite_retries" env:"HERALD_REWRITE_RETRIES" env-default:"0"`
	TruncateFallback bool    `yaml:"truncate_fallback" env:"HERALD_TRUNCATE_FALLBACK"`
}

// Platform is the per-platform configuration block.
type Platform struct {
	APIKey   string            `yaml:"api_key"`
	Endpoint string            `yaml:"endpoint"`
	Options  map[string]string `yaml:"options"`
}

// Load reads configuration from path, or from DefaultPath when path is
// empty. A missing default file is fine: env vars and defaults apply.
// A missing explicit file is an error.
func Load(path string) (Config, error) {
	var cfg Config

	explicit := path != ""
	if path == "" {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("read config from env: %w", err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

// PlatformSettings converts configured platforms into load settings,
// resolving each API key: the HERALD_<NAME>_API_KEY environment variable
// wins over the config file value.
func (c Config) PlatformSettings() map[string]platform.Settings {
	out := make(map[string]platform.Settings, len(c.Platforms))
	for name, p := range c.Platforms {
		key := p.APIKey
		env := "HERALD_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_API_KEY"
		if v := os.Getenv(env); v != "" {
			key = v
		}
		out[name] = platform.Settings{
			APIKey:   key,
			Endpoint: p.Endpoint,
			Options:  p.Options,
		}
	}
	return out
}
