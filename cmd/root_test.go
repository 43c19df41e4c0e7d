package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"reelhound/internal/media"
	"reelhound/internal/provider"
)

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		flagConfig, flagBase, flagQuality, flagPlayer, flagOutput = "", "", "", "", ""
		flagConcurrency = 0
		flagDebug = false
		cfg = nil
	})
}

func TestLoadConfigPrecedence(t *testing.T) {
	resetFlags(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := "base = \"https://mirror.example/\"\nplayer = \"vlc\"\nquality = \"480\"\nconcurrency = 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	flagConfig = path
	flagQuality = "720"
	flagConcurrency = 6

	if err := loadConfig(rootCmd, nil); err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	defer closeLogs(rootCmd, nil)

	if cfg.BaseURL() != "https://mirror.example" {
		t.Errorf("base = %q, want file value", cfg.BaseURL())
	}
	if cfg.Player != "vlc" {
		t.Errorf("player = %q, want file value vlc", cfg.Player)
	}
	if cfg.Quality != "720" {
		t.Errorf("quality = %q, flag should win", cfg.Quality)
	}
	if cfg.Concurrency != 6 {
		t.Errorf("concurrency = %d, flag should win", cfg.Concurrency)
	}
}

func TestLoadConfigRejectsBadFlag(t *testing.T) {
	resetFlags(t)
	flagConfig = filepath.Join(t.TempDir(), "missing.toml")
	flagPlayer = "notepad"

	if err := loadConfig(rootCmd, nil); err == nil {
		t.Error("expected validation error for unsupported player")
	}
}

func TestWriteStreamsJSON(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<h1>Gavv 1</h1>"))
	if err != nil {
		t.Fatal(err)
	}
	page := &provider.Page{Doc: doc, URL: "https://tokuzl.net/gavv?ep=1", Title: "Gavv 1"}

	var buf bytes.Buffer
	err = writeStreamsJSON(&buf, page, displayTitle(page), []media.Stream{
		{URL: "https://cdn/1080.m3u8", Label: "StreamWish 1080p - S1", Quality: media.Quality1080},
	})
	if err != nil {
		t.Fatalf("writeStreamsJSON() error: %v", err)
	}

	var out struct {
		Title   string `json:"title"`
		Page    string `json:"page"`
		Streams []struct {
			URL     string `json:"url"`
			Quality string `json:"quality"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if out.Title != "Gavv 1" || out.Page != page.URL {
		t.Errorf("out = %+v", out)
	}
	if len(out.Streams) != 1 || out.Streams[0].Quality != "1080p" {
		t.Errorf("streams = %+v", out.Streams)
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	if !strings.Contains(buf.String(), "reelhound dev") {
		t.Errorf("version output = %q", buf.String())
	}
}
