// Package dereference follows internal embed pages and URL shorteners to the
// third-party embed URL they point at.
package dereference

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"reelhound/internal/httputil"
	"reelhound/internal/media"
)

var (
	// DefaultMarkers identify same-site embed pages.
	DefaultMarkers = []string{"/embed", "embed.php", "/player/", "/iframe"}

	// DefaultShorteners are hosts that only redirect elsewhere.
	DefaultShorteners = []string{"short.icu", "bit.ly", "tinyurl.com", "shorturl.at", "cutt.ly"}
)

// Kind describes which rule, if any, applied to a candidate.
type Kind int

const (
	None Kind = iota
	Embed
	Shortener
)

func (k Kind) String() string {
	switch k {
	case Embed:
		return "embed"
	case Shortener:
		return "shortener"
	default:
		return "none"
	}
}

// Options configures a Dereferencer. Nil slices use the defaults.
type Options struct {
	Markers    []string
	Shorteners []string
}

// Fetcher reads embed pages and follows shortener redirects.
type Fetcher interface {
	httputil.Getter
	httputil.Redirector
}

// Dereferencer applies at most one hop of embed or shortener resolution.
type Dereferencer struct {
	fetcher    Fetcher
	markers    []string
	shorteners []string
}

// New creates a Dereferencer that fetches through f.
func New(f Fetcher, opts Options) *Dereferencer {
	d := &Dereferencer{
		fetcher:    f,
		markers:    opts.Markers,
		shorteners: opts.Shorteners,
	}
	if d.markers == nil {
		d.markers = DefaultMarkers
	}
	if d.shorteners == nil {
		d.shorteners = DefaultShorteners
	}
	return d
}

// Classify reports which rule applies to candidate relative to the site base.
func (d *Dereferencer) Classify(candidate, base string) Kind {
	if d.isShortener(candidate) {
		return Shortener
	}
	if httputil.SameSite(candidate, base) {
		lower := strings.ToLower(candidate)
		for _, m := range d.markers {
			if strings.Contains(lower, m) {
				return Embed
			}
		}
	}
	return None
}

func (d *Dereferencer) isShortener(candidate string) bool {
	host := httputil.Hostname(candidate)
	if host == "" {
		return false
	}
	for _, s := range d.shorteners {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}

// Resolve returns the URL candidate ultimately points at. Candidates no rule
// applies to are returned unchanged without any request. Failures wrap
// media.ErrDereferenceFailed.
func (d *Dereferencer) Resolve(ctx context.Context, candidate, base string, header http.Header) (string, Kind, error) {
	switch kind := d.Classify(candidate, base); kind {
	case Embed:
		target, err := d.nestedIframe(ctx, candidate, base, header)
		return target, kind, err
	case Shortener:
		target, err := d.followRedirects(ctx, candidate, header)
		return target, kind, err
	default:
		return candidate, kind, nil
	}
}

func (d *Dereferencer) nestedIframe(ctx context.Context, candidate, base string, header http.Header) (string, error) {
	doc, _, err := httputil.Document(ctx, d.fetcher, candidate, header)
	if err != nil {
		return "", fmt.Errorf("%w: fetching embed page: %w", media.ErrDereferenceFailed, err)
	}

	iframe := doc.Find("iframe[src], iframe[data-src]").First()
	src := strings.TrimSpace(iframe.AttrOr("src", ""))
	if src == "" || strings.EqualFold(src, "about:blank") {
		src = strings.TrimSpace(iframe.AttrOr("data-src", ""))
	}
	if src == "" {
		return "", fmt.Errorf("%w: no nested iframe in %s", media.ErrDereferenceFailed, candidate)
	}

	return httputil.Normalize(src, base), nil
}

func (d *Dereferencer) followRedirects(ctx context.Context, candidate string, header http.Header) (string, error) {
	final, err := d.fetcher.FinalURL(ctx, candidate, header)
	if err != nil {
		return "", fmt.Errorf("%w: following shortener: %w", media.ErrDereferenceFailed, err)
	}
	if final == "" || final == candidate {
		return "", fmt.Errorf("%w: shortener %s did not redirect", media.ErrDereferenceFailed, candidate)
	}
	return final, nil
}
