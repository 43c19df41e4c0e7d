package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reelhound/internal/ui"
)

var flagPlay bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <episode-url>",
	Short: "List the playable streams of an episode page",
	Long: `Resolve fetches an episode page, discovers its server links, and prints the
ranked, deduplicated streams. Relative URLs are taken against the configured base.`,
	Args: cobra.ExactArgs(1),
	RunE: resolveRun,
}

func init() {
	resolveCmd.Flags().BoolVarP(&flagPlay, "play", "p", false, "Play (or download) the best stream instead of listing")
}

func resolveRun(cmd *cobra.Command, args []string) error {
	a := newApp(cfg)
	if flagPlay || flagDownload {
		return a.playEpisode(cmd.Context(), args[0], "")
	}

	page, streams, err := a.resolvePage(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if flagJSON {
		return writeStreamsJSON(os.Stdout, page, displayTitle(page), streams)
	}
	fmt.Print(ui.RenderStreams(displayTitle(page), streams))
	return nil
}
