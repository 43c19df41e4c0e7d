// Package extract resolves third-party embed URLs into playable streams.
//
// A Table maps URLs to extractors through an ordered list of rules; the first
// matching rule wins and unmatched URLs go to a generic fallback.
package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"reelhound/internal/httputil"
	"reelhound/internal/media"
)

// Extractor resolves an embed URL. label is the discovered server label and is
// used only to build stream labels.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, embedURL string, header http.Header, label string) media.Outcome
}

// Rule binds a set of case-insensitive domain fragments to an extractor.
type Rule struct {
	Name      string
	Fragments []string
	Extractor Extractor
}

// Matches reports whether any fragment occurs in rawURL.
func (r Rule) Matches(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, f := range r.Fragments {
		if strings.Contains(lower, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// Table is an ordered set of rules with a fallback extractor.
type Table struct {
	rules    []Rule
	fallback Extractor
}

// NewTable creates a table. Rules are evaluated in the order given.
func NewTable(fallback Extractor, rules ...Rule) *Table {
	return &Table{rules: rules, fallback: fallback}
}

// Register appends a rule. Rules registered earlier take precedence.
func (t *Table) Register(r Rule) {
	t.rules = append(t.rules, r)
}

// Rules returns a copy of the rules in evaluation order.
func (t *Table) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

// Dispatch returns the extractor for rawURL.
func (t *Table) Dispatch(rawURL string) Extractor {
	for _, r := range t.rules {
		if r.Matches(rawURL) {
			return r.Extractor
		}
	}
	return t.fallback
}

// Config holds what the default extractors need besides a fetcher.
type Config struct {
	Getter     httputil.Getter
	Redirector httputil.Redirector
	P2PAPIBase string // defaults to DefaultP2PAPIBase
	Referrer   string // content-site domain sent to hosts that check it
}

// DefaultTable returns the table of known hosts and their mirrors.
func DefaultTable(cfg Config) *Table {
	scan := func(host string) Extractor {
		return &PageScan{Host: host, Getter: cfg.Getter}
	}

	return NewTable(
		&Generic{Redirector: cfg.Redirector},
		Rule{Name: "streamwish", Fragments: []string{"streamwish", "strwish", "wishfast", "awish", "streamplay"}, Extractor: scan("StreamWish")},
		Rule{Name: "vidhide", Fragments: []string{"vidhide", "vidhidevip", "vidspeeds"}, Extractor: scan("VidHide")},
		Rule{Name: "streamtape", Fragments: []string{"streamtape", "strtape", "stape"}, Extractor: scan("StreamTape")},
		Rule{Name: "mixdrop", Fragments: []string{"mixdrop", "mixdrp"}, Extractor: scan("MixDrop")},
		Rule{Name: "filemoon", Fragments: []string{"filemoon", "moonplayer"}, Extractor: scan("FileMoon")},
		Rule{Name: "dood", Fragments: []string{"dood", "doodstream", "ds2play", "ds2video"}, Extractor: scan("Dood")},
		Rule{Name: "mp4upload", Fragments: []string{"mp4upload"}, Extractor: scan("Mp4Upload")},
		Rule{Name: "streamlare", Fragments: []string{"streamlare", "slwatch"}, Extractor: scan("Streamlare")},
		Rule{Name: "gcs", Fragments: []string{"storage.googleapis.com"}, Extractor: Direct{Host: "Google Storage"}},
		Rule{Name: "p2pplay", Fragments: []string{"p2pplay"}, Extractor: NewP2P(cfg.Getter, cfg.P2PAPIBase, cfg.Referrer)},
	)
}

// streamLabel formats "<Host> <quality> - <server label>".
func streamLabel(host, qualityText, server string) string {
	label := host
	if qualityText != "" {
		label += " " + qualityText
	}
	if server != "" {
		label += " - " + server
	}
	return label
}

// playbackHeaders returns the headers a player needs to fetch a stream served
// from an embed at embedURL.
func playbackHeaders(embedURL string, header http.Header) http.Header {
	h := http.Header{}
	if origin := httputil.Origin(embedURL); origin != "" {
		h.Set("Referer", origin+"/")
	}
	if ua := header.Get("User-Agent"); ua != "" {
		h.Set("User-Agent", ua)
	}
	return h
}

func hostFailure(host string, err error) media.Outcome {
	return media.Failed(fmt.Errorf("%w: %s: %w", media.ErrHostExtractionFailed, host, err))
}
