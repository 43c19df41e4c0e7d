package httputil

import (
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// mediaExtensions are file extensions that identify a directly playable stream.
var mediaExtensions = map[string]bool{
	".mp4":  true,
	".m3u8": true,
	".mkv":  true,
}

// Normalize converts a relative or scheme-less link into an absolute URL against base.
// Absolute http(s) links are returned unchanged, "//host/x" gets an https scheme,
// anything else is joined to base after trimming one leading slash.
func Normalize(raw, base string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case len(raw) >= 4 && strings.EqualFold(raw[:4], "http"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	default:
		return strings.TrimRight(base, "/") + "/" + strings.TrimPrefix(raw, "/")
	}
}

// IsMediaURL reports whether the URL path ends in a known media extension.
func IsMediaURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return mediaExtensions[strings.ToLower(path.Ext(u.Path))]
}

// Hostname returns the lower-cased host of raw without port, or "" if unparsable.
func Hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Origin returns scheme://host of raw, or "" if unparsable.
func Origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// SameSite reports whether a and b share a host or a registrable domain,
// so "www.site.net" and "site.net" count as the same site.
func SameSite(a, b string) bool {
	ha, hb := Hostname(a), Hostname(b)
	if ha == "" || hb == "" {
		return false
	}
	if ha == hb {
		return true
	}
	ra, errA := publicsuffix.EffectiveTLDPlusOne(ha)
	rb, errB := publicsuffix.EffectiveTLDPlusOne(hb)
	if errA != nil || errB != nil {
		return false
	}
	return ra == rb
}

// TrimJSEscapes undoes the escapes commonly found in inline scripts and JSON blobs
// so URL regexes can match them.
func TrimJSEscapes(s string) string {
	return strings.NewReplacer(
		`\/`, "/",
		`\u0026`, "&",
		`\u002F`, "/",
		`\u002f`, "/",
		`\u003A`, ":",
		`\u003a`, ":",
		"&amp;", "&",
	).Replace(s)
}
