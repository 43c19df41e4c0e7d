// Package resolver turns a fetched episode page into a ranked, deduplicated
// list of playable streams.
package resolver

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"reelhound/internal/dereference"
	"reelhound/internal/discovery"
	"reelhound/internal/extract"
	"reelhound/internal/httputil"
	"reelhound/internal/media"
	"reelhound/internal/metrics"
	"reelhound/internal/quality"
)

// NoSourcesLabel labels the synthetic stream returned when nothing was found.
const NoSourcesLabel = "No working sources found"

const maxConcurrency = 16

// Request is one page to resolve. BaseURL and Headers come from the caller's
// configuration; nothing is read from global state.
type Request struct {
	Doc     *goquery.Document
	PageURL string
	BaseURL string
	Headers http.Header
}

// Options tunes a Resolver.
type Options struct {
	Concurrency int // link workers per resolution; 1 resolves sequentially
	Logger      logrus.FieldLogger
	Metrics     *metrics.Metrics
}

// Resolver runs discovery, dereferencing, and host extraction for each page.
type Resolver struct {
	chain       *discovery.Chain
	deref       *dereference.Dereferencer
	table       *extract.Table
	concurrency int
	log         logrus.FieldLogger
	metrics     *metrics.Metrics
}

// New assembles a Resolver from its parts.
func New(chain *discovery.Chain, deref *dereference.Dereferencer, table *extract.Table, opts Options) *Resolver {
	r := &Resolver{
		chain:       chain,
		deref:       deref,
		table:       table,
		concurrency: opts.Concurrency,
		log:         opts.Logger,
		metrics:     opts.Metrics,
	}
	if r.concurrency < 1 {
		r.concurrency = 1
	}
	if r.concurrency > maxConcurrency {
		r.concurrency = maxConcurrency
	}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}
	return r
}

// Fetcher is what the default wiring needs from the HTTP layer.
type Fetcher interface {
	httputil.Getter
	httputil.Redirector
}

// NewDefault wires the standard discovery chain, dereferencer, and host table
// around one fetcher. baseURL supplies the referrer domain sent to hosts.
func NewDefault(f Fetcher, baseURL string, opts Options) *Resolver {
	table := extract.DefaultTable(extract.Config{
		Getter:     f,
		Redirector: f,
		Referrer:   httputil.Hostname(baseURL),
	})
	return New(discovery.DefaultChain(), dereference.New(f, dereference.Options{}), table, opts)
}

// Resolve returns the streams for req. The result is never empty: when no
// link produced anything a single synthetic placeholder is returned.
func (r *Resolver) Resolve(ctx context.Context, req Request) []media.Stream {
	start := time.Now()
	log := r.log.WithFields(logrus.Fields{
		"run": uuid.NewString(),
		"url": req.PageURL,
	})

	found := r.chain.Discover(req.Doc)
	if len(found.Links) == 0 {
		log.WithError(media.ErrDiscoveryEmpty).Info("no server links on page")
		r.metrics.ObserveResolution("no_sources", time.Since(start))
		return []media.Stream{noSources(req.PageURL)}
	}
	log.WithFields(logrus.Fields{
		"strategy": found.Strategy,
		"links":    len(found.Links),
	}).Debug("discovered server links")

	// One slot per link keeps discovery order regardless of completion order.
	slots := make([][]media.Stream, len(found.Links))
	p := pool.New().WithMaxGoroutines(min(r.concurrency, len(found.Links)))
	for i, link := range found.Links {
		p.Go(func() {
			slots[i] = r.resolveLink(ctx, log.WithField("server", link.Label), req, link)
		})
	}
	p.Wait()

	streams := finalize(lo.Flatten(slots), req.PageURL)
	result := summarize(streams)
	r.metrics.ObserveResolution(result, time.Since(start))
	log.WithFields(logrus.Fields{
		"streams": len(streams),
		"outcome": result,
	}).Info("resolved page")

	return streams
}

// resolveLink handles one server link. It never panics and never returns an
// error: failures become a placeholder stream.
func (r *Resolver) resolveLink(ctx context.Context, log logrus.FieldLogger, req Request, link media.ServerLink) (out []media.Stream) {
	candidate := httputil.Normalize(link.URL, req.BaseURL)

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("%w: panic: %v", media.ErrHostExtractionFailed, rec)
			log.WithError(err).Error("extractor panicked")
			out = []media.Stream{placeholder(link, candidate, err)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return []media.Stream{placeholder(link, candidate, err)}
	}

	if httputil.IsMediaURL(candidate) {
		return []media.Stream{directStream(link, candidate, req)}
	}

	target, kind, err := r.deref.Resolve(ctx, candidate, req.BaseURL, req.Headers)
	if err != nil {
		log.WithError(err).WithField("url", candidate).Warn("dereference failed")
		return []media.Stream{placeholder(link, candidate, err)}
	}
	if kind != dereference.None {
		log.WithFields(logrus.Fields{"from": candidate, "to": target, "kind": kind}).Debug("dereferenced")
		if httputil.IsMediaURL(target) {
			return []media.Stream{directStream(link, target, req)}
		}
	}

	ext := r.table.Dispatch(target)
	outcome := ext.Extract(ctx, target, req.Headers, link.Label)
	r.metrics.ObserveExtraction(ext.Name(), outcome.Kind.String())

	entry := log.WithFields(logrus.Fields{
		"extractor": ext.Name(),
		"url":       target,
		"outcome":   outcome.Kind,
	})

	switch outcome.Kind {
	case media.OutcomeStreams:
		entry.WithField("streams", len(outcome.Streams)).Debug("extracted")
		return outcome.Streams
	case media.OutcomeFailed:
		entry.WithError(outcome.Err).Warn("extraction failed")
		return []media.Stream{placeholder(link, target, outcome.Err)}
	default:
		entry.Debug("no streams")
		return nil
	}
}

// finalize dedupes by playback URL keeping the first occurrence, substitutes the
// synthetic placeholder for an empty result, and ranks by quality, stable on ties.
func finalize(streams []media.Stream, pageURL string) []media.Stream {
	streams = lo.UniqBy(streams, func(s media.Stream) string { return s.URL })
	if len(streams) == 0 {
		return []media.Stream{noSources(pageURL)}
	}
	sort.SliceStable(streams, func(i, j int) bool {
		return streams[i].Quality > streams[j].Quality
	})
	return streams
}

func summarize(streams []media.Stream) string {
	switch {
	case lo.SomeBy(streams, media.Stream.Playable):
		return "playable"
	case len(streams) == 1 && streams[0].Label == NoSourcesLabel:
		return "no_sources"
	default:
		return "placeholder_only"
	}
}

func directStream(link media.ServerLink, u string, req Request) media.Stream {
	q := quality.Classify(u)
	h := http.Header{}
	if req.BaseURL != "" {
		h.Set("Referer", req.BaseURL+"/")
	}
	if ua := req.Headers.Get("User-Agent"); ua != "" {
		h.Set("User-Agent", ua)
	}
	return media.Stream{
		URL:     u,
		Label:   fmt.Sprintf("Direct %s - %s", q, link.Label),
		Quality: q,
		Source:  req.PageURL,
		Headers: h,
	}
}

func placeholder(link media.ServerLink, u string, err error) media.Stream {
	return media.Stream{
		URL:         u,
		Label:       fmt.Sprintf("%s (failed: %v)", link.Label, err),
		Quality:     media.QualityUnknown,
		Source:      u,
		Placeholder: true,
	}
}

func noSources(pageURL string) media.Stream {
	return media.Stream{
		Label:       NoSourcesLabel,
		Quality:     media.QualityUnknown,
		Source:      pageURL,
		Placeholder: true,
	}
}

// Pick returns the first playable stream of the preferred quality, or the
// first playable stream when none matches.
func Pick(streams []media.Stream, preferred media.Quality) (media.Stream, error) {
	playable := lo.Filter(streams, func(s media.Stream, _ int) bool { return s.Playable() })
	if len(playable) == 0 {
		return media.Stream{}, media.ErrNoPlayableStream
	}
	if s, ok := lo.Find(playable, func(s media.Stream) bool { return s.Quality == preferred }); ok {
		return s, nil
	}
	return playable[0], nil
}
