// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"reelhound/internal/config"
	"reelhound/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagConfig      string
	flagBase        string
	flagDownload    bool
	flagOutput      string
	flagQuality     string
	flagPlayer      string
	flagConcurrency int
	flagSelect      bool
	flagJSON        bool
	flagDebug       bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

// logCloser releases the rotating log file opened by loadConfig.
var logCloser io.Closer

var rootCmd = &cobra.Command{
	Use:   "reelhound [query]",
	Short: "Resolve and stream tokusatsu episodes from the terminal",
	Long: `Reelhound searches the configured site, turns an episode page into a ranked
list of playable streams, and plays them with mpv/vlc or downloads them with ffmpeg.`,
	Args:               cobra.ArbitraryArgs,
	PersistentPreRunE:  loadConfig,
	PersistentPostRunE: closeLogs,
	RunE:               searchRun,
	SilenceUsage:       true,
}

// Execute runs the root command. An interrupt cancels in-flight requests.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: $XDG_CONFIG_HOME/reelhound/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&flagBase, "base", "b", "", "Site base URL (custom domain override)")
	rootCmd.PersistentFlags().BoolVarP(&flagDownload, "download", "d", false, "Download with ffmpeg instead of playing")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Download directory (default from config download_dir)")
	rootCmd.PersistentFlags().StringVarP(&flagQuality, "quality", "q", "", "Preferred quality: 240 | 360 | 480 | 720 | 1080 | auto")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Media player: mpv | vlc | iina | celluloid")
	rootCmd.PersistentFlags().IntVar(&flagConcurrency, "concurrency", 0, "Server links resolved in parallel (1-16)")
	rootCmd.PersistentFlags().BoolVarP(&flagSelect, "select", "s", false, "Pick the stream from a list instead of by quality")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output streams as JSON instead of playing")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(popularCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagBase != "" {
		cfg.Base = flagBase
	}
	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagQuality != "" {
		cfg.Quality = flagQuality
	}
	if flagOutput != "" {
		cfg.DownloadDir = flagOutput
	}
	if flagConcurrency != 0 {
		cfg.Concurrency = flagConcurrency
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCloser = logging.Setup(logging.Options{
		Level: cfg.LogLevel,
		Debug: cfg.Debug,
		JSON:  cfg.LogJSON,
		File:  cfg.LogFile,
	})
	logrus.WithField("base", cfg.BaseURL()).Debug("configuration loaded")

	return nil
}

func closeLogs(cmd *cobra.Command, args []string) error {
	if logCloser != nil {
		return logCloser.Close()
	}
	return nil
}
