// Package httputil provides a hardened HTTP fetcher, URL normalisation and input sanitisation.
package httputil

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"github.com/avast/retry-go/v4"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent is sent when the caller supplies none.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	DefaultTimeout = 20 * time.Second

	maxBodySize = 10 * 1024 * 1024

	maxRedirects = 10
)

// NewClient creates a hardened HTTP client with secure defaults.
// Timeouts are applied per request by the Fetcher, not here.
func NewClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          32,
			MaxIdleConnsPerHost:   8,
			IdleConnTimeout:       30 * time.Second,
			ResponseHeaderTimeout: 20 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// Getter fetches a URL. *Fetcher implements it; tests substitute fakes.
type Getter interface {
	Get(ctx context.Context, rawURL string, header http.Header) (*Response, error)
}

// Response is a fully read HTTP response.
type Response struct {
	URL    string // final URL after redirects
	Status int
	Header http.Header
	Body   []byte
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

// Options configures a Fetcher.
type Options struct {
	Client    *http.Client
	Timeout   time.Duration // per request
	RateLimit float64       // requests per second, 0 disables
	Retries   uint          // extra attempts on transient failures
	Backoff   time.Duration
	UserAgent string
}

// Fetcher performs rate-limited GET requests with per-request timeouts and retries.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	limiter   *rate.Limiter
	retries   uint
	backoff   time.Duration
	userAgent string
}

// NewFetcher creates a Fetcher from options, filling in defaults.
func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		client:    opts.Client,
		timeout:   opts.Timeout,
		retries:   opts.Retries,
		backoff:   opts.Backoff,
		userAgent: opts.UserAgent,
	}
	if f.client == nil {
		f.client = NewClient()
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.backoff <= 0 {
		f.backoff = 300 * time.Millisecond
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return f
}

// UserAgent returns the User-Agent sent when a request carries none.
func (f *Fetcher) UserAgent() string {
	return f.userAgent
}

// Redirector reports where a URL ends up after following redirects.
type Redirector interface {
	FinalURL(ctx context.Context, rawURL string, header http.Header) (string, error)
}

// Get fetches rawURL, following redirects. Headers in header override the defaults.
func (f *Fetcher) Get(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	var resp *Response
	err := f.retry(ctx, rawURL, func() error {
		return f.send(ctx, rawURL, header, func(hr *http.Response) error {
			if err := checkStatus(rawURL, hr); err != nil {
				return err
			}
			body, err := readBody(hr)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}
			resp = &Response{
				URL:    hr.Request.URL.String(),
				Status: hr.StatusCode,
				Header: hr.Header,
				Body:   body,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// FinalURL follows redirects from rawURL and returns the last URL requested,
// whatever status that last hop answers with. The response body is never
// read, so it is safe to call on media files.
func (f *Fetcher) FinalURL(ctx context.Context, rawURL string, header http.Header) (string, error) {
	var final string
	err := f.retry(ctx, rawURL, func() error {
		return f.send(ctx, rawURL, header, func(hr *http.Response) error {
			final = hr.Request.URL.String()
			return nil
		})
	})
	return final, err
}

func (f *Fetcher) retry(ctx context.Context, rawURL string, attempt func() error) error {
	if err := ValidateURL(rawURL); err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	return retry.Do(
		attempt,
		retry.Context(ctx),
		retry.Attempts(f.retries+1),
		retry.Delay(f.backoff),
		retry.RetryIf(transient),
		retry.LastErrorOnly(true),
	)
}

// send performs one rate-limited request and hands the response to handle
// before the per-request timeout is released.
func (f *Fetcher) send(ctx context.Context, rawURL string, header http.Header, handle func(*http.Response) error) error {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, br")
	for k, vs := range header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return handle(resp)
}

// checkStatus turns a non-2xx response into a *StatusError.
func checkStatus(rawURL string, hr *http.Response) error {
	if hr.StatusCode >= 200 && hr.StatusCode <= 299 {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(hr.Body, 64*1024))
	return &StatusError{URL: rawURL, Code: hr.StatusCode}
}

// readBody undoes content encoding and converts HTML to UTF-8.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body

	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		r = brotli.NewReader(r)
	case "gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	if ct := resp.Header.Get("Content-Type"); strings.Contains(strings.ToLower(ct), "text/html") {
		if cr, err := charset.NewReader(r, ct); err == nil {
			r = cr
		}
	}

	return io.ReadAll(io.LimitReader(r, maxBodySize))
}

// transient reports whether a failed attempt is worth retrying.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

// Document fetches rawURL and parses it as HTML.
func Document(ctx context.Context, g Getter, rawURL string, header http.Header) (*goquery.Document, *Response, error) {
	resp, err := g.Get(ctx, rawURL, header)
	if err != nil {
		return nil, nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Text()))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing HTML: %w", err)
	}

	return doc, resp, nil
}

// BrowserHeaders builds the header set handed to the pipeline by the calling layer.
func BrowserHeaders(userAgent, referer string) http.Header {
	h := http.Header{}
	if userAgent != "" {
		h.Set("User-Agent", userAgent)
	}
	if referer != "" {
		h.Set("Referer", referer)
	}
	return h
}
