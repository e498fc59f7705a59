package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kamusis/gfr/internal/fsutil"
)

// AppName names the directory under the user config dir.
const AppName = "gfr"

// FileName is the optional settings file inside Dir().
const FileName = "config.yaml"

// Environment keys. Each is read from the process environment first and
// then from the dotenv file.
const (
	EnvDir         = "GFR_DIR"
	EnvIndexURL    = "GFR_INDEX_URL"
	EnvWorkers     = "GFR_WORKERS"
	EnvLogLevel    = "GFR_LOG_LEVEL"
	EnvColor       = "GFR_COLOR"
	EnvHTTPTimeout = "GFR_HTTP_TIMEOUT"
)

const DefaultHTTPTimeout = 30 * time.Second

// Config is the in-memory representation of <dir>/config.yaml. Zero values
// mean "use the built-in default".
type Config struct {
	IndexURL    string `yaml:"index_url,omitempty"`
	Workers     int    `yaml:"workers,omitempty"`
	LogLevel    string `yaml:"log_level,omitempty"`
	Color       string `yaml:"color,omitempty"`
	HTTPTimeout string `yaml:"http_timeout,omitempty"`

	// Dir is the resolved gfr directory; patterns live here.
	Dir string `yaml:"-"`
}

// DefaultDir returns <user config dir>/gfr.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Dir returns the gfr directory: $GFR_DIR if set, otherwise DefaultDir().
func Dir() (string, error) {
	v, err := GetConfigValue(EnvDir)
	if err != nil {
		return "", err
	}
	if v = strings.TrimSpace(v); v != "" {
		return ExpandPath(v)
	}
	return DefaultDir()
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// Load resolves Dir() and reads its config.yaml.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(dir)
}

// LoadFrom reads dir/config.yaml, applies GFR_* overrides and validates the
// result. A missing file is not an error.
func LoadFrom(dir string) (*Config, error) {
	cfg := &Config{}
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	cfg.Dir = dir

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := []struct {
		key string
		dst *string
	}{
		{EnvIndexURL, &c.IndexURL},
		{EnvLogLevel, &c.LogLevel},
		{EnvColor, &c.Color},
		{EnvHTTPTimeout, &c.HTTPTimeout},
	}
	for _, s := range strs {
		v, err := GetConfigValue(s.key)
		if err != nil {
			return err
		}
		if v != "" {
			*s.dst = v
		}
	}

	v, err := GetConfigValue(EnvWorkers)
	if err != nil {
		return err
	}
	if v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.HTTPTimeout != "" {
		d, err := time.ParseDuration(c.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("invalid http_timeout %q: %w", c.HTTPTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout)
		}
	}
	return nil
}

// Timeout returns the HTTP timeout, defaulting to DefaultHTTPTimeout.
func (c *Config) Timeout() time.Duration {
	if d, err := time.ParseDuration(c.HTTPTimeout); err == nil && d > 0 {
		return d
	}
	return DefaultHTTPTimeout
}

// Path returns the config.yaml location for c.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, FileName)
}

// Save writes c to Path(), creating Dir if needed.
func Save(c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("cannot encode config: %w", err)
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", c.Dir, err)
	}
	header := "# gfr settings. GFR_* environment variables override these values.\n"
	if err := fsutil.WriteFileAtomic(c.Path(), append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", c.Path(), err)
	}
	return nil
}
