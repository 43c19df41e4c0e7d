package discovery

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"

	"reelhound/internal/httputil"
	"reelhound/internal/media"
)

// Matcher selects elements for a list strategy. Tests replace it to observe calls.
type Matcher func(doc *goquery.Document, selector string) *goquery.Selection

func findAll(doc *goquery.Document, selector string) *goquery.Selection {
	return doc.Find(selector)
}

// ListStrategy reads one server link per element matched by Selector.
type ListStrategy struct {
	ID       string
	Selector string
	Match    Matcher
	Entry    func(s *goquery.Selection) (label, rawURL string)
}

func (l ListStrategy) Name() string { return l.ID }

func (l ListStrategy) Discover(doc *goquery.Document) []media.ServerLink {
	match := l.Match
	if match == nil {
		match = findAll
	}

	var links []media.ServerLink
	match(doc, l.Selector).Each(func(_ int, s *goquery.Selection) {
		label, raw := l.Entry(s)
		links = append(links, media.ServerLink{Label: label, URL: raw})
	})
	return links
}

// ServerList reads ".muti_link" items carrying a label and a data-video URL.
func ServerList() ListStrategy {
	return ListStrategy{
		ID:       "server-list",
		Selector: ".muti_link li, ul.muti_link li",
		Entry: func(s *goquery.Selection) (string, string) {
			label := ownText(s)
			if label == "" {
				label = strings.TrimSpace(s.Text())
			}
			return label, s.AttrOr("data-video", "")
		},
	}
}

// altAttrs are checked in order, on the item first and then on its first link.
var altAttrs = []string{"data-video", "data-link"}

// AltServerList reads the alternative list markups used by mirror templates.
func AltServerList() ListStrategy {
	return ListStrategy{
		ID:       "alt-server-list",
		Selector: ".server-list li, ul.list-server-items li, .anime_muti_link li",
		Entry: func(s *goquery.Selection) (string, string) {
			a := s.Find("a").First()

			label := strings.TrimSpace(a.Text())
			if label == "" {
				label = ownText(s)
			}
			if label == "" {
				label = "Server"
			}

			for _, el := range []*goquery.Selection{s, a} {
				for _, attr := range altAttrs {
					if v := strings.TrimSpace(el.AttrOr(attr, "")); v != "" {
						return label, v
					}
				}
			}
			return label, ""
		},
	}
}

// Iframes reads iframe src or data-src attributes.
func Iframes() ListStrategy {
	return ListStrategy{
		ID:       "iframe",
		Selector: "iframe[src], iframe[data-src]",
		Entry: func(s *goquery.Selection) (string, string) {
			src := iframeSource(s)
			label := strings.TrimSpace(s.AttrOr("title", ""))
			if label == "" {
				label = "Standard Server"
			}
			return label, src
		},
	}
}

// iframeSource prefers src unless it is empty or a lazy-load about:blank stub.
func iframeSource(s *goquery.Selection) string {
	src := strings.TrimSpace(s.AttrOr("src", ""))
	if src == "" || strings.EqualFold(src, "about:blank") {
		src = strings.TrimSpace(s.AttrOr("data-src", ""))
	}
	return src
}

var (
	// providerURLPattern matches absolute URLs on hosts the dispatch table knows.
	providerURLPattern = regexp.MustCompile(`(?i)https?://[^\s"'<>]*(?:p2pplay|streamwish|filemoon|dood|streamtape|mixdrop|vidhide|mp4upload)[^\s"'<>]*`)

	// mediaURLPattern matches absolute .m3u8 or .mp4 URLs.
	mediaURLPattern = regexp.MustCompile(`(?i)https?://[^\s"'<>]+\.(?:m3u8|mp4)[^\s"'<>]*`)
)

type scriptScan struct{}

// ScriptScan is the last-resort strategy: it scans inline scripts for known
// provider URLs and direct media URLs.
func ScriptScan() Strategy {
	return scriptScan{}
}

func (scriptScan) Name() string { return "script-scan" }

func (scriptScan) Discover(doc *goquery.Document) []media.ServerLink {
	var found []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, external := s.Attr("src"); external {
			return
		}
		text := httputil.TrimJSEscapes(s.Text())
		found = append(found, providerURLPattern.FindAllString(text, -1)...)
		found = append(found, mediaURLPattern.FindAllString(text, -1)...)
	})

	found = lo.Uniq(found)
	links := make([]media.ServerLink, len(found))
	for i, u := range found {
		links[i] = media.ServerLink{Label: fmt.Sprintf("Script Source %d", i+1), URL: u}
	}
	return links
}
