package httputil

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

func newTestFetcher(retries uint) *Fetcher {
	return NewFetcher(Options{
		Client:  &http.Client{},
		Timeout: 2 * time.Second,
		Retries: retries,
		Backoff: time.Millisecond,
	})
}

func TestFetcherDecodesBrotli(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		_, _ = bw.Write([]byte("<html><body>hello</body></html>"))
		_ = bw.Close()
		w.Header().Set("Content-Encoding", "br")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	resp, err := newTestFetcher(0).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Text() != "<html><body>hello</body></html>" {
		t.Errorf("body = %q", resp.Text())
	}
}

func TestFetcherConvertsCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte{'c', 'a', 'f', 0xe9})
	}))
	defer srv.Close()

	resp, err := newTestFetcher(0).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Text() != "café" {
		t.Errorf("body = %q, want café", resp.Text())
	}
}

func TestFetcherRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := newTestFetcher(2).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Text() != "ok" {
		t.Errorf("body = %q", resp.Text())
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestFetcherDoesNotRetryNotFound(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestFetcher(3).Get(context.Background(), srv.URL, nil)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 StatusError", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestFetcherHeadersAndRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
	})
	mux.HandleFunc("/direct", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("Referer") + "|" + r.Header.Get("User-Agent")))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := BrowserHeaders("test-agent", "https://tokuzl.net/")
	resp, err := newTestFetcher(0).Get(context.Background(), srv.URL+"/start", h)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.URL != srv.URL+"/final" {
		t.Errorf("final URL = %q", resp.URL)
	}
	if resp.Text() != "test-agent" {
		t.Errorf("user agent after redirect = %q", resp.Text())
	}

	resp, err = newTestFetcher(0).Get(context.Background(), srv.URL+"/direct", h)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Text() != "https://tokuzl.net/|test-agent" {
		t.Errorf("headers seen = %q", resp.Text())
	}
}

func TestFetcherRejectsBadScheme(t *testing.T) {
	if _, err := newTestFetcher(0).Get(context.Background(), "ftp://host/x", nil); err == nil {
		t.Error("expected error for ftp URL")
	}
}

func TestDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><iframe src="/embed/1"></iframe></body></html>`))
	}))
	defer srv.Close()

	doc, _, err := Document(context.Background(), newTestFetcher(0), srv.URL, nil)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if src := doc.Find("iframe").AttrOr("src", ""); src != "/embed/1" {
		t.Errorf("iframe src = %q", src)
	}
}

func TestFetcherFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/go", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/media/video.mp4", http.StatusFound)
	})
	mux.HandleFunc("/media/video.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write(make([]byte, 1024))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	final, err := newTestFetcher(0).FinalURL(context.Background(), srv.URL+"/go", nil)
	if err != nil {
		t.Fatalf("FinalURL: %v", err)
	}
	if final != srv.URL+"/media/video.mp4" {
		t.Errorf("final = %q", final)
	}
	if !IsMediaURL(final) {
		t.Errorf("expected %q to be a media URL", final)
	}
}

func TestFetcherFinalURLIgnoresFinalStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/go", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/cdn/ep1.m3u8", http.StatusFound)
	})
	mux.HandleFunc("/cdn/ep1.m3u8", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "referer required", http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := newTestFetcher(0)
	final, err := f.FinalURL(context.Background(), srv.URL+"/go", nil)
	if err != nil {
		t.Fatalf("FinalURL: %v", err)
	}
	if final != srv.URL+"/cdn/ep1.m3u8" {
		t.Errorf("final = %q", final)
	}

	var se *StatusError
	if _, err := f.Get(context.Background(), srv.URL+"/go", nil); !errors.As(err, &se) || se.Code != http.StatusForbidden {
		t.Errorf("Get err = %v, want 403 StatusError", err)
	}
}

func TestClientStopsRedirectLoops(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer srv.Close()

	f := NewFetcher(Options{Timeout: 2 * time.Second})
	if _, err := f.FinalURL(context.Background(), srv.URL+"/loop", nil); err == nil {
		t.Fatal("expected redirect loop error")
	}
	if got := hits.Load(); got != maxRedirects {
		t.Errorf("requests = %d, want %d", got, maxRedirects)
	}
}
