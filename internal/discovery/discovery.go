// Package discovery finds candidate server links on an episode page.
//
// Strategies run in a fixed order and the chain stops at the first one that
// yields a usable link, so specific markup always wins over generic fallbacks.
package discovery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"reelhound/internal/media"
)

// Strategy extracts server links from a parsed page. Links are returned in
// document order; blank labels or URLs are dropped by the chain.
type Strategy interface {
	Name() string
	Discover(doc *goquery.Document) []media.ServerLink
}

// Result is the outcome of running a Chain against one page.
type Result struct {
	Strategy string // name of the strategy that matched, empty when none did
	Links    []media.ServerLink
}

// Chain runs strategies in order until one yields links.
type Chain struct {
	strategies []Strategy
}

// NewChain creates a chain from strategies in priority order.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// DefaultChain returns the standard four-step chain.
func DefaultChain() *Chain {
	return NewChain(
		ServerList(),
		AltServerList(),
		Iframes(),
		ScriptScan(),
	)
}

// Strategies returns the names of the configured strategies in order.
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Discover returns the links found by the first productive strategy.
// A page with no matching markup yields an empty Result, never an error.
func (c *Chain) Discover(doc *goquery.Document) Result {
	if doc == nil {
		return Result{}
	}
	for _, s := range c.strategies {
		links := collapse(s.Discover(doc))
		if len(links) > 0 {
			return Result{Strategy: s.Name(), Links: links}
		}
	}
	return Result{}
}

// collapse applies the label-keyed mapping rules: blank entries are dropped and
// a repeated label keeps the position of its first occurrence with the URL of
// its last.
func collapse(links []media.ServerLink) []media.ServerLink {
	var out []media.ServerLink
	index := make(map[string]int)
	for _, l := range links {
		label := strings.TrimSpace(l.Label)
		raw := strings.TrimSpace(l.URL)
		if label == "" || raw == "" {
			continue
		}
		if i, ok := index[label]; ok {
			out[i].URL = raw
			continue
		}
		index[label] = len(out)
		out = append(out, media.ServerLink{Label: label, URL: raw})
	}
	return out
}

// ownText returns the text of s's direct text-node children only.
func ownText(s *goquery.Selection) string {
	return strings.TrimSpace(s.Contents().FilterFunction(func(_ int, c *goquery.Selection) bool {
		return goquery.NodeName(c) == "#text"
	}).Text())
}
