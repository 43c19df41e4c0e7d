package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelhound/internal/media"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Player != "mpv" {
		t.Errorf("default player = %q, want mpv", cfg.Player)
	}
	if cfg.Quality != "1080" {
		t.Errorf("default quality = %q, want 1080", cfg.Quality)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("default concurrency = %d, want 4", cfg.Concurrency)
	}
	if !cfg.History {
		t.Error("default history should be true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"invalid player", func(c *Config) { c.Player = "notepad" }, true},
		{"invalid quality", func(c *Config) { c.Quality = "4k" }, true},
		{"empty base", func(c *Config) { c.Base = "" }, true},
		{"base without scheme", func(c *Config) { c.Base = "tokuzl.net" }, true},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, true},
		{"too much concurrency", func(c *Config) { c.Concurrency = 17 }, true},
		{"negative timeout", func(c *Config) { c.Timeout = -1 }, true},
		{"negative rate", func(c *Config) { c.RateLimit = -0.5 }, true},
		{"negative retries", func(c *Config) { c.Retries = -1 }, true},
		{"valid vlc", func(c *Config) { c.Player = "vlc" }, false},
		{"valid auto quality", func(c *Config) { c.Quality = "auto" }, false},
		{"valid 720p", func(c *Config) { c.Quality = "720p" }, false},
		{"custom domain", func(c *Config) { c.Base = "https://tokuzilla.example/" }, false},
		{"rate limit disabled", func(c *Config) { c.RateLimit = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromTOML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	appDir := filepath.Join(tmpDir, "reelhound")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		t.Fatal(err)
	}

	content := `
base = "https://mirror.example///"
player = "vlc"
quality = "720"
concurrency = 8
timeout = 5
history = false
`
	if err := os.WriteFile(filepath.Join(appDir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.BaseURL() != "https://mirror.example" {
		t.Errorf("BaseURL() = %q, want https://mirror.example", cfg.BaseURL())
	}
	if cfg.Player != "vlc" {
		t.Errorf("player = %q, want vlc", cfg.Player)
	}
	if cfg.PreferredQuality() != media.Quality720 {
		t.Errorf("quality = %v, want 720p", cfg.PreferredQuality())
	}
	if cfg.Concurrency != 8 {
		t.Errorf("concurrency = %d, want 8", cfg.Concurrency)
	}
	if cfg.RequestTimeout() != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.RequestTimeout())
	}
	if cfg.History {
		t.Error("history should be false")
	}
	// Unset keys keep their defaults.
	if cfg.Listen != "127.0.0.1:8787" {
		t.Errorf("listen = %q, want default", cfg.Listen)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`concurrency = 99`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected validation error")
	}

	if err := os.WriteFile(path, []byte(`player = `), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}
	if cfg.Player != "mpv" {
		t.Errorf("missing file should return defaults, got player = %q", cfg.Player)
	}
}

func TestExpandDownloadDir(t *testing.T) {
	cfg := Default()
	cfg.DownloadDir = "/tmp/test-downloads"

	dir, err := cfg.ExpandDownloadDir()
	if err != nil {
		t.Fatalf("ExpandDownloadDir() error: %v", err)
	}
	if dir != "/tmp/test-downloads" {
		t.Errorf("got %q, want /tmp/test-downloads", dir)
	}
}

func TestHistoryPath(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataDir)

	cfg := Default()
	path, err := cfg.HistoryPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dataDir, "reelhound", "history.db"); path != want {
		t.Errorf("HistoryPath() = %q, want %q", path, want)
	}

	cfg.HistoryDB = "/var/tmp/h.db"
	if path, _ := cfg.HistoryPath(); path != "/var/tmp/h.db" {
		t.Errorf("explicit history_db ignored: %q", path)
	}
}
