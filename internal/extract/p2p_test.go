package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"reelhound/internal/httputil"
	"reelhound/internal/media"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		url, want string
	}{
		{"https://t1.p2pplay.pro/#auj9k", "auj9k"},
		{"https://t1.p2pplay.pro/embed?id=xyz&autoplay=1", "xyz"},
		{"https://t1.p2pplay.pro/#", ""},
		{"https://t1.p2pplay.pro/embed", ""},
	}
	for _, tt := range tests {
		if got := videoID(tt.url); got != tt.want {
			t.Errorf("videoID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	original := videoResponse{
		URL:  "https://cdn.p2p.net/v/master.m3u8",
		File: "https://cdn.p2p.net/v/720/video.mp4",
		Sources: []videoSource{
			{File: "https://cdn.p2p.net/v/1080/index.m3u8", Label: "1080p", Type: "hls"},
			{File: "https://cdn.p2p.net/v/360/video.mp4"},
		},
	}
	payload, err := json.Marshal(original)
	if err != nil {
		t.Fatal(err)
	}

	raw, ok := decodeBase64("  " + base64.StdEncoding.EncodeToString(payload) + "\n").Get()
	if !ok {
		t.Fatal("decodeBase64 failed")
	}
	got, err := parseVideoResponse(raw)
	if err != nil {
		t.Fatalf("parseVideoResponse: %v", err)
	}
	if !reflect.DeepEqual(got, original) {
		t.Errorf("round trip = %+v, want %+v", got, original)
	}
}

func TestDecodeBase64Unpadded(t *testing.T) {
	enc := base64.RawStdEncoding.EncodeToString([]byte("hello!!"))
	if got, ok := decodeBase64(enc).Get(); !ok || got != "hello!!" {
		t.Errorf("decodeBase64(%q) = %q, %v", enc, got, ok)
	}
	if _, ok := decodeBase64("%%% not base64 %%%").Get(); ok {
		t.Error("expected malformed input to fail")
	}
}

func TestDecodeCandidatesLadder(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []candidate
	}{
		{
			name: "json fields",
			raw:  `{"url":"https://c/v/master.m3u8","sources":[{"file":"https://c/v/a.mp4","label":"720p"},{"file":""}]}`,
			want: []candidate{
				{url: "https://c/v/master.m3u8", quality: media.QualityAuto},
				{url: "https://c/v/a.mp4", quality: media.Quality720, qualityText: "720p"},
			},
		},
		{
			name: "regex keeps m3u8 before mp4",
			raw:  `player("https://c/v/480/a.mp4"); hls = 'https://c/v/1080/b.m3u8?t=1';`,
			want: []candidate{
				{url: "https://c/v/1080/b.m3u8?t=1", quality: media.Quality1080},
				{url: "https://c/v/480/a.mp4", quality: media.Quality480},
			},
		},
		{
			name: "json without media falls through to regex",
			raw:  `{"status":"ok","note":"https://c/v/360/x.m3u8"}`,
			want: []candidate{
				{url: "https://c/v/360/x.m3u8", quality: media.Quality360},
			},
		},
		{
			name: "broad pass",
			raw:  `go to https://example.org/about or https://bucket.files.net/obj/ep1?sig=2`,
			want: []candidate{
				{url: "https://bucket.files.net/obj/ep1?sig=2", quality: media.QualityAuto},
			},
		},
		{
			name: "nothing",
			raw:  `nothing to see`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeCandidates(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("decodeCandidates = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestP2PExtract(t *testing.T) {
	var (
		mu   sync.Mutex
		seen *http.Request
	)
	body := map[string]string{
		"auj9k":  base64.StdEncoding.EncodeToString([]byte(`{"sources":[{"file":"https://cdn.p2p.net/1080/index.m3u8","label":"1080p"},{"file":"https://cdn.p2p.net/720/index.m3u8","label":"720p"}]}`)),
		"pageid": base64.StdEncoding.EncodeToString([]byte(`source: https://cdn.p2p.net/v/480/video.mp4`)),
		"broken": "!!not base64!!",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/video", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = r.Clone(context.Background())
		mu.Unlock()
		b, ok := body[r.URL.Query().Get("id")]
		if !ok {
			http.Error(w, "unknown", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(b))
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><iframe id="frame" src="https://t1.p2pplay.pro/#pageid"></iframe></body></html>`))
	})
	mux.HandleFunc("/noframe", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewP2P(newFetcher(), srv.URL, "")
	h := httputil.BrowserHeaders("agent", "https://www.tokuzl.net/kamen-rider/ep-1")

	out := p.Extract(context.Background(), "https://t1.p2pplay.pro/#auj9k", h, "P2P Server")
	if out.Kind != media.OutcomeStreams || len(out.Streams) != 2 {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Streams[0].Label != "P2P 1080p - P2P Server" || out.Streams[0].Quality != media.Quality1080 {
		t.Errorf("stream[0] = %+v", out.Streams[0])
	}
	if out.Streams[0].Headers.Get("Referer") != "https://tokuzl.net/" {
		t.Errorf("playback referer = %q", out.Streams[0].Headers.Get("Referer"))
	}

	mu.Lock()
	q := seen.URL.Query()
	if q.Get("id") != "auj9k" || q.Get("w") != "1920" || q.Get("h") != "1080" || q.Get("r") != "tokuzl.net" {
		t.Errorf("api query = %s", seen.URL.RawQuery)
	}
	if seen.Header.Get("Accept") != "*/*" || seen.Header.Get("Referer") != "https://tokuzl.net/" || seen.Header.Get("Origin") != "https://tokuzl.net" {
		t.Errorf("api headers = %v", seen.Header)
	}
	mu.Unlock()

	out = p.Extract(context.Background(), srv.URL+"/watch", h, "P2P Server")
	if out.Kind != media.OutcomeStreams || out.Streams[0].URL != "https://cdn.p2p.net/v/480/video.mp4" {
		t.Errorf("id from page: %+v", out)
	}

	for _, embed := range []string{
		"https://t1.p2pplay.pro/#broken",
		"https://t1.p2pplay.pro/#missing",
		srv.URL + "/noframe",
	} {
		if out := p.Extract(context.Background(), embed, h, "P2P Server"); out.Kind != media.OutcomeEmpty {
			t.Errorf("%s: kind = %v, want empty", embed, out.Kind)
		}
	}
}
