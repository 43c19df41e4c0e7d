package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"reelhound/internal/httputil"
	"reelhound/internal/media"
	"reelhound/internal/quality"
)

const (
	// DefaultP2PAPIBase is the P2PPlay API host.
	DefaultP2PAPIBase = "https://t1.p2pplay.pro"

	// DefaultReferrer is the content-site domain P2PPlay expects in r=.
	DefaultReferrer = "tokuzl.net"
)

var (
	p2pM3U8Pattern = regexp.MustCompile(`(?i)https?://[^\s"'<>]+\.m3u8[^\s"'<>]*`)
	p2pMP4Pattern  = regexp.MustCompile(`(?i)https?://[^\s"'<>]+\.mp4[^\s"'<>]*`)
	anyURLPattern  = regexp.MustCompile(`https?://[^\s"'<>]+`)

	likelyVideoWords = []string{"video", "stream", "cdn", "cloud", "storage", "bucket"}
)

// P2P resolves P2PPlay embeds through the provider's video API.
// Every internal failure yields an Empty outcome.
type P2P struct {
	getter   httputil.Getter
	apiBase  string
	referrer string
}

// NewP2P creates a P2P extractor. Empty apiBase or referrer use the defaults.
func NewP2P(g httputil.Getter, apiBase, referrer string) *P2P {
	if apiBase == "" {
		apiBase = DefaultP2PAPIBase
	}
	if referrer == "" {
		referrer = DefaultReferrer
	}
	return &P2P{getter: g, apiBase: strings.TrimRight(apiBase, "/"), referrer: referrer}
}

func (p *P2P) Name() string { return "P2P" }

func (p *P2P) Extract(ctx context.Context, embedURL string, header http.Header, label string) media.Outcome {
	id := videoID(embedURL)
	if id == "" {
		id = p.idFromPage(ctx, embedURL, header)
	}
	if id == "" {
		return media.Empty()
	}

	referrer := p.referrerDomain(header)
	apiURL := fmt.Sprintf("%s/api/v1/video?id=%s&w=1920&h=1080&r=%s",
		p.apiBase, url.QueryEscape(id), url.QueryEscape(referrer))

	h := http.Header{}
	h.Set("Accept", "*/*")
	h.Set("Referer", "https://"+referrer+"/")
	h.Set("Origin", "https://"+referrer)
	if ua := header.Get("User-Agent"); ua != "" {
		h.Set("User-Agent", ua)
	}

	resp, err := p.getter.Get(ctx, apiURL, h)
	if err != nil {
		return media.Empty()
	}

	raw, ok := decodeBase64(resp.Text()).Get()
	if !ok {
		return media.Empty()
	}

	playback := http.Header{}
	playback.Set("Referer", "https://"+referrer+"/")
	if ua := header.Get("User-Agent"); ua != "" {
		playback.Set("User-Agent", ua)
	}

	var streams []media.Stream
	for _, c := range decodeCandidates(raw) {
		text := c.qualityText
		if text == "" {
			text = c.quality.String()
		}
		streams = append(streams, media.Stream{
			URL:     c.url,
			Label:   streamLabel("P2P", text, label),
			Quality: c.quality,
			Source:  embedURL,
			Headers: playback.Clone(),
		})
	}
	return media.Found(streams...)
}

// idFromPage fetches an episode or embed page and reads the id from its player iframe.
func (p *P2P) idFromPage(ctx context.Context, pageURL string, header http.Header) string {
	doc, _, err := httputil.Document(ctx, p.getter, pageURL, header)
	if err != nil {
		return ""
	}
	iframe := doc.Find(`iframe[src*="p2pplay"]`).First()
	if iframe.Length() == 0 {
		iframe = doc.Find("iframe#frame").First()
	}
	return videoID(iframe.AttrOr("src", ""))
}

func (p *P2P) referrerDomain(header http.Header) string {
	if host := httputil.Hostname(header.Get("Referer")); host != "" {
		return strings.TrimPrefix(host, "www.")
	}
	return p.referrer
}

// videoID returns the id after '#' or in the id= query parameter.
func videoID(embedURL string) string {
	if i := strings.LastIndex(embedURL, "#"); i >= 0 {
		if id := strings.TrimSpace(embedURL[i+1:]); id != "" {
			return id
		}
	}
	if u, err := url.Parse(embedURL); err == nil {
		if id := u.Query().Get("id"); id != "" {
			return id
		}
	}
	return ""
}

// videoResponse is the decoded JSON body of the video API.
type videoResponse struct {
	URL     string        `json:"url,omitempty"`
	File    string        `json:"file,omitempty"`
	Sources []videoSource `json:"sources,omitempty"`
}

type videoSource struct {
	File  string `json:"file"`
	Label string `json:"label,omitempty"`
	Type  string `json:"type,omitempty"`
}

type candidate struct {
	url         string
	quality     media.Quality
	qualityText string
}

// decodeBase64 decodes the trimmed API body, padded or not.
func decodeBase64(body string) mo.Option[string] {
	body = strings.TrimSpace(body)
	if body == "" {
		return mo.None[string]()
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		if b, err := enc.DecodeString(body); err == nil {
			return mo.Some(string(b))
		}
	}
	return mo.None[string]()
}

func parseVideoResponse(raw string) (videoResponse, error) {
	var v videoResponse
	err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v)
	return v, err
}

// decodeStep is one attempt of the best-effort decode ladder.
type decodeStep func(raw string) mo.Option[[]candidate]

var decodeLadder = []decodeStep{decodeJSON, decodeMediaRegex, decodeLikelyVideo}

// decodeCandidates runs the ladder and returns the first non-empty result.
func decodeCandidates(raw string) []candidate {
	for _, step := range decodeLadder {
		if c, ok := step(raw).Get(); ok {
			return lo.UniqBy(c, func(c candidate) string { return c.url })
		}
	}
	return nil
}

func decodeJSON(raw string) mo.Option[[]candidate] {
	v, err := parseVideoResponse(raw)
	if err != nil {
		return mo.None[[]candidate]()
	}

	var out []candidate
	for _, u := range []string{v.URL, v.File} {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, candidate{url: u, quality: quality.Classify(u)})
		}
	}
	for _, s := range v.Sources {
		file := strings.TrimSpace(s.File)
		if file == "" {
			continue
		}
		c := candidate{url: file, quality: quality.Classify(file)}
		if label := strings.TrimSpace(s.Label); label != "" {
			c.qualityText = label
			if q := quality.FromLabel(label); q != media.QualityUnknown {
				c.quality = q
			}
		}
		out = append(out, c)
	}
	return someIfAny(out)
}

// decodeMediaRegex keeps every .m3u8 match followed by every .mp4 match.
func decodeMediaRegex(raw string) mo.Option[[]candidate] {
	text := httputil.TrimJSEscapes(raw)
	var out []candidate
	for _, pattern := range []*regexp.Regexp{p2pM3U8Pattern, p2pMP4Pattern} {
		for _, u := range pattern.FindAllString(text, -1) {
			out = append(out, candidate{url: u, quality: quality.Classify(u)})
		}
	}
	return someIfAny(out)
}

// decodeLikelyVideo keeps any absolute URL that looks like it serves video.
func decodeLikelyVideo(raw string) mo.Option[[]candidate] {
	text := httputil.TrimJSEscapes(raw)
	var out []candidate
	for _, u := range anyURLPattern.FindAllString(text, -1) {
		lower := strings.ToLower(u)
		if lo.SomeBy(likelyVideoWords, func(w string) bool { return strings.Contains(lower, w) }) {
			out = append(out, candidate{url: u, quality: media.QualityAuto})
		}
	}
	return someIfAny(out)
}

func someIfAny(c []candidate) mo.Option[[]candidate] {
	if len(c) == 0 {
		return mo.None[[]candidate]()
	}
	return mo.Some(c)
}
