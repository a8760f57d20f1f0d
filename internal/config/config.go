// Package config resolves reelfeed settings from .env, an optional YAML file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultOrigin  = "http://localhost:4280"
	defaultAPIPath = "/api"
)

// Config holds the resolved client settings.
type Config struct {
	// Origin is the site origin used for deep links and the identity bridge.
	Origin string `yaml:"origin"`
	// APIURL is the gateway base URL; relative values resolve against Origin.
	APIURL string `yaml:"api_url"`
	// ConfigDir holds the stored principal and the optional config.yaml.
	ConfigDir string `yaml:"-"`
	// RateLimit caps gateway requests per second; zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	// LogLevel is a zerolog level name.
	LogLevel string `yaml:"log_level"`
}

// Load resolves the configuration. A missing .env or YAML file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Origin:    defaultOrigin,
		APIURL:    defaultAPIPath,
		ConfigDir: configDir(),
	}

	path := os.Getenv("REELFEED_CONFIG")
	if path == "" {
		path = filepath.Join(cfg.ConfigDir, "config.yaml")
	}
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}

	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}

	apiURL, err := resolveAPIURL(cfg.Origin, cfg.APIURL)
	if err != nil {
		return nil, err
	}
	cfg.APIURL = apiURL
	cfg.Origin = strings.TrimRight(cfg.Origin, "/")

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	if v := os.Getenv("REELFEED_ORIGIN"); v != "" {
		c.Origin = v
	}
	if v := os.Getenv("REELFEED_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("REELFEED_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return fmt.Errorf("invalid REELFEED_RATE_LIMIT %q: must be a non-negative number", v)
		}
		c.RateLimit = rps
	}
	return nil
}

// configDir returns the configuration directory path.
func configDir() string {
	if dir := os.Getenv("REELFEED_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "reelfeed")
}

func resolveAPIURL(origin, api string) (string, error) {
	base, err := url.Parse(origin)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid origin %q: must be an absolute http(s) URL", origin)
	}
	ref, err := url.Parse(api)
	if err != nil {
		return "", fmt.Errorf("invalid API URL %q: %w", api, err)
	}
	return strings.TrimRight(base.ResolveReference(ref).String(), "/"), nil
}
