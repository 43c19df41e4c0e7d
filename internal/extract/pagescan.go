package extract

import (
	"context"
	"net/http"
	"regexp"

	"github.com/samber/lo"

	"reelhound/internal/httputil"
	"reelhound/internal/media"
	"reelhound/internal/quality"
)

var (
	// playerSetupPattern matches jwplayer-style `file: "..."` or `src="..."` media entries.
	playerSetupPattern = regexp.MustCompile(`(?i)\b(?:file|src|source)\s*[:=]\s*["']([^"']+\.(?:m3u8|mp4|mkv)[^"']*)["']`)

	// sourceTagPattern matches <source src="..."> elements.
	sourceTagPattern = regexp.MustCompile(`(?i)<source[^>]+src=["']([^"']+)["']`)

	// absoluteMediaPattern matches any absolute .m3u8 or .mp4 URL.
	absoluteMediaPattern = regexp.MustCompile(`(?i)https?://[^\s"'<>]+\.(?:m3u8|mp4)[^\s"'<>]*`)
)

// PageScan fetches a host's embed page and scans its markup for media URLs.
// It handles hosts whose players embed the stream URL in plain text.
type PageScan struct {
	Host   string
	Getter httputil.Getter
}

func (p *PageScan) Name() string { return p.Host }

func (p *PageScan) Extract(ctx context.Context, embedURL string, header http.Header, label string) media.Outcome {
	resp, err := p.Getter.Get(ctx, embedURL, header)
	if err != nil {
		return hostFailure(p.Host, err)
	}

	base := httputil.Origin(resp.URL)
	if base == "" {
		base = httputil.Origin(embedURL)
	}

	var streams []media.Stream
	for _, u := range scanMediaURLs(resp.Text(), base) {
		q := quality.Classify(u)
		streams = append(streams, media.Stream{
			URL:     u,
			Label:   streamLabel(p.Host, q.String(), label),
			Quality: q,
			Source:  embedURL,
			Headers: playbackHeaders(embedURL, header),
		})
	}
	return media.Found(streams...)
}

// scanMediaURLs returns the absolute media URLs found in page text in order of discovery.
func scanMediaURLs(page, base string) []string {
	text := httputil.TrimJSEscapes(page)

	var found []string
	for _, m := range playerSetupPattern.FindAllStringSubmatch(text, -1) {
		found = append(found, m[1])
	}
	for _, m := range sourceTagPattern.FindAllStringSubmatch(text, -1) {
		if httputil.IsMediaURL(m[1]) {
			found = append(found, m[1])
		}
	}
	found = append(found, absoluteMediaPattern.FindAllString(text, -1)...)

	return lo.Uniq(lo.Map(found, func(u string, _ int) string {
		return httputil.Normalize(u, base)
	}))
}

// Direct treats the embed URL itself as the stream. Used for plain object
// storage links.
type Direct struct {
	Host string
}

func (d Direct) Name() string { return d.Host }

func (d Direct) Extract(_ context.Context, embedURL string, header http.Header, label string) media.Outcome {
	q := quality.Classify(embedURL)
	return media.Found(media.Stream{
		URL:     embedURL,
		Label:   streamLabel(d.Host, q.String(), label),
		Quality: q,
		Source:  embedURL,
		Headers: playbackHeaders(embedURL, header),
	})
}
