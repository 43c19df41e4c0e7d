package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"reelhound/internal/history"
	"reelhound/internal/media"
	"reelhound/internal/ui"
)

var flagRemove bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Replay an episode from history",
	Args:  cobra.NoArgs,
	RunE:  historyRun,
}

func init() {
	historyCmd.Flags().BoolVar(&flagRemove, "remove", false, "Remove the selected entry instead of playing it")
}

func historyRun(cmd *cobra.Command, args []string) error {
	a := newApp(cfg)
	store, err := a.openHistory(cmd.Context())
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), 0)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No history entries found.")
		return nil
	}

	idx, err := ui.Select("History", history.FormatForDisplay(entries))
	if err != nil {
		return err
	}
	selected := entries[idx]

	if flagRemove {
		_, err := removeEntry(cmd.Context(), store, selected, ui.Confirm)
		return err
	}

	a.log.WithField("url", selected.EpisodeURL).Debug("replaying from history")

	// Stream URLs expire; the page is resolved again.
	return a.playEpisode(cmd.Context(), selected.EpisodeURL, selected.Title)
}

// removeEntry deletes e once confirm agrees. It reports whether anything was removed.
func removeEntry(ctx context.Context, store *history.Store, e media.HistoryEntry, confirm func(string) (bool, error)) (bool, error) {
	ok, err := confirm(fmt.Sprintf("Remove %s?", displayEntry(e)))
	if err != nil || !ok {
		return false, err
	}
	if err := store.Remove(ctx, e.EpisodeURL); err != nil {
		return false, err
	}
	return true, nil
}

func displayEntry(e media.HistoryEntry) string {
	if e.Title != "" {
		return e.Title
	}
	return e.EpisodeURL
}
