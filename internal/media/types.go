// Package media defines shared types for the reelhound application.
package media

import (
	"net/http"
	"time"
)

// Quality is a coarse stream quality tag. Higher values rank first.
type Quality int

const (
	QualityUnknown Quality = iota
	QualityAuto
	Quality240
	Quality360
	Quality480
	Quality720
	Quality1080
)

func (q Quality) String() string {
	switch q {
	case Quality1080:
		return "1080p"
	case Quality720:
		return "720p"
	case Quality480:
		return "480p"
	case Quality360:
		return "360p"
	case Quality240:
		return "240p"
	case QualityAuto:
		return "Auto"
	default:
		return "Unknown"
	}
}

// MarshalText renders the quality as its display string in JSON output.
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// ServerLink is a candidate server discovered on an episode page.
// Label is for display and tie-breaking only; routing looks at URL.
type ServerLink struct {
	Label string
	URL   string // raw, possibly relative
}

// Stream is a resolved, directly playable stream (or a placeholder reporting a failure).
type Stream struct {
	URL         string      `json:"url"`     // playback URL, the dedup key
	Label       string      `json:"label"`   // display label
	Quality     Quality     `json:"quality"` // coarse quality tag
	Source      string      `json:"source"`  // embed/server URL the stream came from
	Headers     http.Header `json:"headers,omitempty"`
	Placeholder bool        `json:"placeholder,omitempty"`
}

// Playable reports whether the stream points at real media rather than a diagnostic.
func (s Stream) Playable() bool {
	return !s.Placeholder && s.URL != ""
}

// SearchResult is a series entry from the site catalog.
type SearchResult struct {
	Title     string `json:"title"`
	URL       string `json:"url"` // absolute series URL
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Episode is a single episode link of a series.
type Episode struct {
	Number float64 `json:"number"`
	Name   string  `json:"name"`
	URL    string  `json:"url"` // absolute episode page URL
}

// Details is the metadata shown for a series page.
type Details struct {
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Description string `json:"description,omitempty"`
}

// HistoryEntry is a recorded resolution of an episode page.
type HistoryEntry struct {
	EpisodeURL string
	Title      string
	StreamURL  string
	Server     string
	Quality    Quality
	ResolvedAt time.Time
}
