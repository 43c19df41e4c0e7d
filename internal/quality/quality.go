// Package quality maps stream URLs and labels to coarse quality tags.
package quality

import (
	"strings"

	"reelhound/internal/media"
)

// rules are checked in order; the first matching fragment decides the tag.
var rules = []struct {
	fragments []string
	tag       media.Quality
}{
	{[]string{"1080", "fullhd"}, media.Quality1080},
	{[]string{"720", "hd"}, media.Quality720},
	{[]string{"480"}, media.Quality480},
	{[]string{"360"}, media.Quality360},
	{[]string{"240"}, media.Quality240},
	{[]string{"master", "index"}, media.QualityAuto},
}

// Classify returns the quality tag implied by a URL or string.
func Classify(s string) media.Quality {
	lower := strings.ToLower(s)
	for _, r := range rules {
		for _, f := range r.fragments {
			if strings.Contains(lower, f) {
				return r.tag
			}
		}
	}
	return media.QualityUnknown
}

// FromLabel parses a player-supplied label such as "720p", "HD" or "auto".
func FromLabel(label string) media.Quality {
	lower := strings.ToLower(strings.TrimSpace(label))
	if lower == "auto" || lower == "default" || lower == "adaptive" {
		return media.QualityAuto
	}
	return Classify(lower)
}

// Parse converts a configured preference ("1080", "720p", "auto") into a tag.
func Parse(pref string) (media.Quality, bool) {
	q := FromLabel(pref)
	return q, q != media.QualityUnknown
}
