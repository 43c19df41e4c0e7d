package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"reelhound/internal/config"
	"reelhound/internal/download"
	"reelhound/internal/history"
	"reelhound/internal/httputil"
	"reelhound/internal/media"
	"reelhound/internal/metrics"
	"reelhound/internal/player"
	"reelhound/internal/provider"
	"reelhound/internal/resolver"
	"reelhound/internal/ui"
)

// app wires the fetcher, catalog, and resolution pipeline from one config.
type app struct {
	cfg      *config.Config
	site     *provider.Site
	resolver *resolver.Resolver
	metrics  *metrics.Metrics
	headers  http.Header
	log      logrus.FieldLogger
}

func newApp(c *config.Config) *app {
	base := c.BaseURL()
	fetcher := httputil.NewFetcher(httputil.Options{
		Timeout:   c.RequestTimeout(),
		RateLimit: c.RateLimit,
		Retries:   uint(c.Retries),
		UserAgent: c.UserAgent,
	})
	headers := httputil.BrowserHeaders(fetcher.UserAgent(), base+"/")
	m := metrics.New()
	log := logrus.StandardLogger()

	return &app{
		cfg:  c,
		site: provider.NewSite(base, fetcher, headers),
		resolver: resolver.NewDefault(fetcher, base, resolver.Options{
			Concurrency: c.Concurrency,
			Logger:      log,
			Metrics:     m,
		}),
		metrics: m,
		headers: headers,
		log:     log,
	}
}

// resolvePage fetches an episode page and runs the pipeline on it.
func (a *app) resolvePage(ctx context.Context, pageURL string) (*provider.Page, []media.Stream, error) {
	page, err := a.site.Page(ctx, pageURL)
	a.metrics.ObserveFetch(err)
	if err != nil {
		return nil, nil, err
	}

	var streams []media.Stream
	err = ui.Spin(ctx, "Resolving "+displayTitle(page), func(ctx context.Context) error {
		streams = a.resolver.Resolve(ctx, resolver.Request{
			Doc:     page.Doc,
			PageURL: page.URL,
			BaseURL: a.cfg.BaseURL(),
			Headers: a.headers,
		})
		return ctx.Err()
	})
	if err != nil {
		return nil, nil, err
	}
	return page, streams, nil
}

// playEpisode resolves an episode page and plays, downloads, or prints the result.
func (a *app) playEpisode(ctx context.Context, pageURL, title string) error {
	page, streams, err := a.resolvePage(ctx, pageURL)
	if err != nil {
		return err
	}
	if title == "" {
		title = displayTitle(page)
	}

	if flagJSON {
		return writeStreamsJSON(os.Stdout, page, title, streams)
	}

	stream, err := a.chooseStream(title, streams)
	if err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{
		"stream":  stream.URL,
		"quality": stream.Quality,
	}).Debug("stream selected")

	if flagDownload {
		dir, err := a.cfg.ExpandDownloadDir()
		if err != nil {
			return fmt.Errorf("resolving download dir: %w", err)
		}
		outputPath, err := download.Download(ctx, stream, title, dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Downloaded: %s\n", outputPath)
	} else {
		p := player.New(a.cfg.Player)
		if !p.Available() {
			return fmt.Errorf("player %q not found in PATH", a.cfg.Player)
		}
		if err := p.Play(ctx, stream, title); err != nil {
			return fmt.Errorf("playback failed: %w", err)
		}
	}

	a.record(ctx, media.HistoryEntry{
		EpisodeURL: page.URL,
		Title:      title,
		StreamURL:  stream.URL,
		Server:     stream.Label,
		Quality:    stream.Quality,
	})
	return nil
}

// chooseStream picks by preferred quality, or lets the user pick with --select.
func (a *app) chooseStream(title string, streams []media.Stream) (media.Stream, error) {
	if flagSelect {
		idx, err := ui.Select("Stream", ui.StreamItems(streams))
		if err != nil {
			return media.Stream{}, err
		}
		if !streams[idx].Playable() {
			return media.Stream{}, fmt.Errorf("%w: %s", media.ErrNoPlayableStream, streams[idx].Label)
		}
		return streams[idx], nil
	}

	stream, err := resolver.Pick(streams, a.cfg.PreferredQuality())
	if errors.Is(err, media.ErrNoPlayableStream) {
		fmt.Fprint(os.Stderr, ui.RenderStreams(title, streams))
	}
	return stream, err
}

func (a *app) record(ctx context.Context, e media.HistoryEntry) {
	if !a.cfg.History {
		return
	}
	store, err := a.openHistory(ctx)
	if err != nil {
		a.log.WithError(err).Warn("history unavailable")
		return
	}
	defer store.Close()

	if err := store.Record(ctx, e); err != nil {
		a.log.WithError(err).Warn("saving history failed")
	}
}

func (a *app) openHistory(ctx context.Context) (*history.Store, error) {
	path, err := a.cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(ctx, path)
}

type streamsOutput struct {
	Title   string         `json:"title"`
	Page    string         `json:"page"`
	Streams []media.Stream `json:"streams"`
}

func writeStreamsJSON(w io.Writer, page *provider.Page, title string, streams []media.Stream) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(streamsOutput{Title: title, Page: page.URL, Streams: streams})
}

func displayTitle(page *provider.Page) string {
	if page.Title != "" {
		return page.Title
	}
	return page.URL
}
