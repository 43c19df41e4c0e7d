package httputil

import "testing"

func TestNormalize(t *testing.T) {
	const base = "https://tokuzl.net"
	tests := []struct {
		name, raw, want string
	}{
		{"absolute https", "https://host/x", "https://host/x"},
		{"absolute http", "http://host/x", "http://host/x"},
		{"upper-case scheme", "HTTPS://host/x", "HTTPS://host/x"},
		{"scheme-relative", "//cdn.host/e/1", "https://cdn.host/e/1"},
		{"root-relative", "/embed/7", "https://tokuzl.net/embed/7"},
		{"relative", "embed/7", "https://tokuzl.net/embed/7"},
		{"whitespace", "  /embed/7 \n", "https://tokuzl.net/embed/7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, base)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if again := Normalize(got, base); again != got {
				t.Errorf("Normalize not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeBaseTrailingSlash(t *testing.T) {
	if got := Normalize("/a", "https://site.net/"); got != "https://site.net/a" {
		t.Errorf("got %q", got)
	}
}

func TestIsMediaURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn/x/master.m3u8", true},
		{"https://cdn/x/video.MP4", true},
		{"https://cdn/x/video.mkv?token=1", true},
		{"https://cdn/x/video.mp4.html", false},
		{"https://cdn/embed/abc", false},
		{"https://cdn/x?file=video.mp4", false},
	}
	for _, tt := range tests {
		if got := IsMediaURL(tt.url); got != tt.want {
			t.Errorf("IsMediaURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestSameSite(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"https://tokuzl.net/a", "https://tokuzl.net/b", true},
		{"https://www.tokuzl.net/a", "https://tokuzl.net/b", true},
		{"https://player.tokuzl.net/embed/1", "https://tokuzl.net/", true},
		{"https://streamwish.to/e/1", "https://tokuzl.net/", false},
		{"https://a.github.io/", "https://b.github.io/", false},
		{"not a url", "https://tokuzl.net/", false},
	}
	for _, tt := range tests {
		if got := SameSite(tt.a, tt.b); got != tt.want {
			t.Errorf("SameSite(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestOriginAndHostname(t *testing.T) {
	if got := Origin("https://Player.Host.com:8443/e/1?x=2"); got != "https://Player.Host.com:8443" {
		t.Errorf("Origin = %q", got)
	}
	if got := Hostname("https://Player.Host.com:8443/e/1"); got != "player.host.com" {
		t.Errorf("Hostname = %q", got)
	}
	if got := Origin("/relative"); got != "" {
		t.Errorf("Origin(relative) = %q, want empty", got)
	}
}

func TestTrimJSEscapes(t *testing.T) {
	in := `https:\/\/cdn.host\/v\/index.m3u8?a=1&amp;b=2`
	want := "https://cdn.host/v/index.m3u8?a=1&b=2"
	if got := TrimJSEscapes(in); got != want {
		t.Errorf("TrimJSEscapes = %q, want %q", got, want)
	}
}
