package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"reelhound/internal/httputil"
	"reelhound/internal/media"
)

// Site implements Catalog for the configured content site.
type Site struct {
	base    string // e.g. "https://tokuzl.net", no trailing slash
	getter  httputil.Getter
	headers http.Header
}

// NewSite creates a catalog for base, fetching through g with the given headers.
func NewSite(base string, g httputil.Getter, headers http.Header) *Site {
	return &Site{
		base:    strings.TrimRight(base, "/"),
		getter:  g,
		headers: headers,
	}
}

// BaseURL returns the site root without a trailing slash.
func (s *Site) BaseURL() string {
	return s.base
}

// Search returns matching series for a query. Only the first page is read.
func (s *Site) Search(ctx context.Context, query string) ([]media.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}

	doc, err := s.fetchDocument(ctx, httputil.SearchURL(s.base, query))
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w", query, err)
	}

	results := parseCatalog(doc, s.base)
	if len(results) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoResults, query)
	}
	return results, nil
}

// Latest returns the series listed on the home page.
func (s *Site) Latest(ctx context.Context) ([]media.SearchResult, error) {
	return s.listing(ctx, s.base+"/", "latest")
}

// Popular returns the first page of the paged listing.
func (s *Site) Popular(ctx context.Context) ([]media.SearchResult, error) {
	return s.listing(ctx, s.base+"/page/1", "popular")
}

func (s *Site) listing(ctx context.Context, pageURL, name string) ([]media.SearchResult, error) {
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", name, err)
	}

	results := parseCatalog(doc, s.base)
	if len(results) == 0 {
		return nil, fmt.Errorf("%w in %s listing", ErrNoResults, name)
	}
	return results, nil
}

// Details returns metadata for a series page.
func (s *Site) Details(ctx context.Context, seriesURL string) (*media.Details, error) {
	doc, err := s.fetchDocument(ctx, s.absolute(seriesURL))
	if err != nil {
		return nil, fmt.Errorf("getting details: %w", err)
	}
	return parseDetails(doc), nil
}

// Episodes returns the episode list of a series page.
func (s *Site) Episodes(ctx context.Context, seriesURL string) ([]media.Episode, error) {
	doc, err := s.fetchDocument(ctx, s.absolute(seriesURL))
	if err != nil {
		return nil, fmt.Errorf("getting episodes: %w", err)
	}

	episodes := parseEpisodes(doc, s.base)
	if len(episodes) == 0 {
		return nil, fmt.Errorf("%w: no episodes on %s", ErrNoResults, seriesURL)
	}
	return episodes, nil
}

// Page fetches and parses an episode page.
func (s *Site) Page(ctx context.Context, episodeURL string) (*Page, error) {
	target := s.absolute(episodeURL)
	doc, resp, err := httputil.Document(ctx, s.getter, target, s.headers)
	if err != nil {
		return nil, fmt.Errorf("fetching episode page: %w", err)
	}
	return &Page{Doc: doc, URL: resp.URL, Title: pageTitle(doc)}, nil
}

func (s *Site) absolute(u string) string {
	return httputil.Normalize(u, s.base)
}

func (s *Site) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	doc, _, err := httputil.Document(ctx, s.getter, pageURL, s.headers)
	return doc, err
}
