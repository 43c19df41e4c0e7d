package provider

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"

	"reelhound/internal/httputil"
	"reelhound/internal/media"
)

const (
	catalogItemSelector     = "div.col-sm-3.col-xs-6.item"
	catalogFallbackSelector = "article.post-item, .anime-item, ul.list-episode-item li"
	episodeSelector         = "ul.pagination.post-tape a, ul.list-episode-item-2.all-episode li a, .episode-list li a"
)

var (
	epParamPattern   = regexp.MustCompile(`(?i)[?&]ep=(\d+(?:\.\d+)?)`)
	episodeWordRegex = regexp.MustCompile(`(?i)episode\s*(\d+(?:\.\d+)?)`)
	epWordRegex      = regexp.MustCompile(`(?i)\bep\.?\s*(\d+(?:\.\d+)?)`)
	firstNumberRegex = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// parseCatalog extracts series cards from a listing or search page.
// Uses DOM parsing rather than regex on raw HTML.
func parseCatalog(doc *goquery.Document, base string) []media.SearchResult {
	items := doc.Find(catalogItemSelector)
	if items.Length() == 0 {
		items = doc.Find(catalogFallbackSelector)
	}

	var results []media.SearchResult
	items.Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a").First()
		if goquery.NodeName(s) == "a" {
			link = s
		}
		href := strings.TrimSpace(link.AttrOr("href", ""))
		if href == "" {
			return
		}

		title := strings.TrimSpace(link.AttrOr("title", ""))
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}
		if title == "" {
			return
		}

		img := s.Find("img").First()
		thumb := strings.TrimSpace(img.AttrOr("src", ""))
		if thumb == "" {
			thumb = strings.TrimSpace(img.AttrOr("data-src", ""))
		}
		if thumb != "" {
			thumb = httputil.Normalize(thumb, base)
		}

		results = append(results, media.SearchResult{
			Title:     title,
			URL:       httputil.Normalize(href, base),
			Thumbnail: thumb,
		})
	})

	return lo.UniqBy(results, func(r media.SearchResult) string { return r.URL })
}

// parseEpisodes extracts the episode list from a series page.
func parseEpisodes(doc *goquery.Document, base string) []media.Episode {
	var episodes []media.Episode

	doc.Find(episodeSelector).Each(func(i int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || href == "#" {
			return
		}
		text := strings.TrimSpace(s.Text())
		num := episodeNumber(text, href, i)

		name := text
		if name == "" || firstNumberRegex.FindString(name) == name {
			name = fmt.Sprintf("Episode %s", strconv.FormatFloat(num, 'f', -1, 64))
		}

		episodes = append(episodes, media.Episode{
			Number: num,
			Name:   name,
			URL:    httputil.Normalize(href, base),
		})
	})

	return lo.UniqBy(episodes, func(e media.Episode) string { return e.URL })
}

// episodeNumber reads the number from ep=N, "Episode N", "EP N", or the first
// number in the link text, falling back to the 1-based position.
func episodeNumber(text, href string, index int) float64 {
	candidates := []string{
		submatch(epParamPattern, href),
		submatch(episodeWordRegex, text),
		submatch(epWordRegex, text),
		firstNumberRegex.FindString(text),
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if n, err := strconv.ParseFloat(c, 64); err == nil {
			return n
		}
	}
	return float64(index + 1)
}

func submatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}

// parseDetails extracts series metadata.
func parseDetails(doc *goquery.Document) *media.Details {
	d := &media.Details{
		Title:     pageTitle(doc),
		Thumbnail: strings.TrimSpace(doc.Find(`meta[property="og:image"]`).AttrOr("content", "")),
	}

	d.Description = strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	if d.Description == "" {
		d.Description = strings.TrimSpace(doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))
	}

	return d
}

func pageTitle(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("h1").First().Text())
}
