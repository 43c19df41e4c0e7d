// Package config handles TOML-based configuration loading and validation.
// The file is parsed as data only; no code in it is ever executed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"reelhound/internal/httputil"
	"reelhound/internal/media"
	"reelhound/internal/quality"
)

const appName = "reelhound"

// MaxConcurrency is the upper bound for per-resolution link workers.
const MaxConcurrency = 16

// Config holds all application configuration.
type Config struct {
	Base        string  `toml:"base"`
	UserAgent   string  `toml:"user_agent"`
	Player      string  `toml:"player"`
	Quality     string  `toml:"quality"`
	Timeout     int     `toml:"timeout"`
	Concurrency int     `toml:"concurrency"`
	RateLimit   float64 `toml:"rate_limit"`
	Retries     int     `toml:"retries"`
	History     bool    `toml:"history"`
	HistoryDB   string  `toml:"history_db"`
	DownloadDir string  `toml:"download_dir"`
	Listen      string  `toml:"listen"`
	LogLevel    string  `toml:"log_level"`
	LogFile     string  `toml:"log_file"`
	LogJSON     bool    `toml:"log_json"`
	Debug       bool    `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Base:        "https://tokuzl.net",
		UserAgent:   httputil.DefaultUserAgent,
		Player:      "mpv",
		Quality:     "1080",
		Timeout:     20,
		Concurrency: 4,
		RateLimit:   8,
		Retries:     1,
		History:     true,
		DownloadDir: "~/Videos/reelhound",
		Listen:      "127.0.0.1:8787",
		LogLevel:    "warn",
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at the XDG location and merges it over defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a specific config file and merges it over defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, iina, celluloid)", c.Player)
	}

	if _, ok := quality.Parse(c.Quality); !ok {
		return fmt.Errorf("unsupported quality %q (valid: 240, 360, 480, 720, 1080, auto)", c.Quality)
	}

	if c.Base == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if err := httputil.ValidateURL(c.BaseURL()); err != nil {
		return fmt.Errorf("base URL: %w", err)
	}

	if c.Concurrency < 1 || c.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency %d out of range 1..%d", c.Concurrency, MaxConcurrency)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries cannot be negative")
	}

	return nil
}

// BaseURL returns the site base with trailing slashes removed.
func (c *Config) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.Base), "/")
}

// RequestTimeout returns the per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// PreferredQuality returns the parsed preferred quality, Unknown if unset.
func (c *Config) PreferredQuality() media.Quality {
	q, _ := quality.Parse(c.Quality)
	return q
}

// ExpandDownloadDir resolves ~ in the download directory path.
func (c *Config) ExpandDownloadDir() (string, error) {
	return expandHome(c.DownloadDir)
}

// HistoryPath returns the history database path, defaulting to the XDG data dir.
func (c *Config) HistoryPath() (string, error) {
	if c.HistoryDB != "" {
		return expandHome(c.HistoryDB)
	}
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, appName, "history.db"), nil
}

func expandHome(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(path)
}
