package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelhound/internal/media"
	"reelhound/internal/provider"
	"reelhound/internal/ui"
)

// searchRun is the default command: reelhound <query>
func searchRun(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	if query == "" {
		var err error
		query, err = ui.Input("Search")
		if err != nil {
			return fmt.Errorf("no search query provided")
		}
	}

	a := newApp(cfg)
	a.log.WithField("query", query).Debug("searching")

	results, err := a.site.Search(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return a.pickSeries(cmd.Context(), "Select", results)
}

// pickSeries lets the user choose a series and continues with its episodes.
func (a *app) pickSeries(ctx context.Context, prompt string, results []media.SearchResult) error {
	items := make([]string, len(results))
	for i, r := range results {
		items[i] = r.Title
	}

	idx, err := ui.Select(prompt, items)
	if err != nil {
		return err
	}
	return a.pickEpisode(ctx, results[idx])
}

// pickEpisode lists a series' episodes for selection. A page without an
// episode list (a movie or special) is resolved directly.
func (a *app) pickEpisode(ctx context.Context, series media.SearchResult) error {
	episodes, err := a.site.Episodes(ctx, series.URL)
	if errors.Is(err, provider.ErrNoResults) {
		a.log.WithField("url", series.URL).Debug("no episode list, resolving page itself")
		return a.playEpisode(ctx, series.URL, series.Title)
	}
	if err != nil {
		return err
	}

	items := make([]string, len(episodes))
	for i, ep := range episodes {
		items[i] = ep.Name
	}
	idx, err := ui.Select("Episode", items)
	if err != nil {
		return err
	}

	ep := episodes[idx]
	return a.playEpisode(ctx, ep.URL, fmt.Sprintf("%s - %s", series.Title, ep.Name))
}
