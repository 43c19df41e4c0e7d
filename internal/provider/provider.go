// Package provider implements the catalog side of the content site: search,
// listings, series details, episode lists, and episode page fetching.
package provider

import (
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"

	"reelhound/internal/media"
)

// ErrNoResults is returned when a listing or search yields nothing.
var ErrNoResults = errors.New("no results")

// Catalog is the interface the CLI and API use to browse the site.
type Catalog interface {
	// Search returns series matching a query.
	Search(ctx context.Context, query string) ([]media.SearchResult, error)

	// Latest returns the most recently updated series from the home page.
	Latest(ctx context.Context) ([]media.SearchResult, error)

	// Popular returns the first page of the popular listing.
	Popular(ctx context.Context) ([]media.SearchResult, error)

	// Details returns metadata for a series page.
	Details(ctx context.Context, seriesURL string) (*media.Details, error)

	// Episodes returns the episode list of a series page.
	Episodes(ctx context.Context, seriesURL string) ([]media.Episode, error)

	// Page fetches an episode page for resolution.
	Page(ctx context.Context, episodeURL string) (*Page, error)
}

// Page is a fetched, parsed episode page.
type Page struct {
	Doc   *goquery.Document
	URL   string // final URL after redirects
	Title string
}
