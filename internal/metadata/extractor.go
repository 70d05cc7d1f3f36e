package metadata

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tabsverse/tabsverse-server/internal/domain"
	"github.com/tabsverse/tabsverse-server/internal/errors"
	"github.com/tabsverse/tabsverse-server/internal/ratelimit"
)

// DefaultUserAgent identifies metadata fetches to the sites being read.
const DefaultUserAgent = "Tabsverse/1.0 (+https://tabsverse.app)"

// Options tunes fetching.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	HostRPS      float64 // outbound requests per second to a single host
	HostBurst    int
	// AllowPrivateNetworks permits links that resolve to loopback or
	// internal addresses. Off in production.
	AllowPrivateNetworks bool
}

// DefaultOptions returns a 10 second timeout, a 2MB body cap, and one
// request per second to any host with a burst of 3.
func DefaultOptions() Options {
	return Options{
		Timeout:      10 * time.Second,
		UserAgent:    DefaultUserAgent,
		MaxBodyBytes: 2 << 20,
		HostRPS:      1,
		HostBurst:    3,
	}
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithCache serves and stores fetched results through c.
func WithCache(c *Cache) Option {
	return func(e *Extractor) { e.cache = c }
}

// WithRenderer enables the headless browser fallback for pages whose static
// HTML has no title.
func WithRenderer(r Renderer) Option {
	return func(e *Extractor) { e.renderer = r }
}

// WithHTTPClient replaces the HTTP client and its address guard. Its
// Timeout is overwritten.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) { e.fetcher.client = c }
}

// Extractor turns a link into tab metadata. It degrades rather than fails:
// the only error Extract returns is for a malformed URL.
type Extractor struct {
	opts     Options
	fetcher  *fetcher
	cache    *Cache
	renderer Renderer
	logger   *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(opts Options, logger *slog.Logger, options ...Option) *Extractor {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.HostBurst <= 0 {
		opts.HostBurst = 1
	}

	e := &Extractor{
		opts: opts,
		fetcher: &fetcher{
			client:    &http.Client{Transport: newTransport(opts.AllowPrivateNetworks)},
			limiter:   ratelimit.New(opts.HostRPS, opts.HostBurst),
			userAgent: opts.UserAgent,
			maxBody:   opts.MaxBodyBytes,
		},
		logger: logger,
	}
	for _, o := range options {
		o(e)
	}
	e.fetcher.client.Timeout = opts.Timeout
	return e
}

// Close stops the outbound limiter. The cache and renderer are owned by the caller.
func (e *Extractor) Close() {
	e.fetcher.limiter.Stop()
}

// ParseURL accepts absolute http(s) URLs with a host.
func ParseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, errors.InvalidURL(raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.InvalidURL(raw, nil)
	}
	if u.Hostname() == "" || strings.ContainsAny(u.Host, " \t") {
		return nil, errors.InvalidURL(raw, nil)
	}
	u.Fragment = ""
	return u, nil
}

// Extract classifies rawURL, fetches it, and reads whatever metadata the
// response offers. Fetch failures produce a fallback result built from the
// URL alone.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*domain.URLMetadata, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	key := u.String()

	if e.cache != nil {
		if m, ok := e.cache.Get(key); ok {
			e.logger.Debug("metadata cache hit", "url", key)
			return m, nil
		}
	}

	cls := Classify(u)
	result := fallbackResult(u, cls)

	fetchCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	resp, err := e.fetcher.fetch(fetchCtx, u)
	if err != nil {
		e.logger.Debug("metadata fetch failed, using fallback", "url", key, "error", err)
		return result, nil
	}

	result.Fetched = true
	result.Source = domain.SourceHTML
	result.FaviconURL = strPtr(defaultFavicon(resp.URL))

	if !resp.isHTML() {
		cls = refineByContentType(cls, resp.MediaType)
		result.ResourceType = cls.ResourceType
		result.Confidence = cls.Confidence
	} else {
		e.applyHTML(fetchCtx, result, resp)
	}

	if e.cache != nil {
		if err := e.cache.Set(key, result); err != nil {
			e.logger.Warn("metadata cache write failed", "url", key, "error", err)
		}
	}
	return result, nil
}

func (e *Extractor) applyHTML(ctx context.Context, result *domain.URLMetadata, resp *response) {
	p, err := parsePage(bytes.NewReader(resp.Body))
	if err != nil {
		e.logger.Debug("html parse failed", "url", result.URL, "error", err)
		return
	}

	if p.Title() == "" && e.renderer != nil {
		if rendered := e.render(ctx, result.URL); rendered != nil {
			p = rendered
			result.Source = domain.SourceBrowser
		}
	}

	base := p.base(resp.URL)
	if title := p.Title(); title != "" {
		result.Title = title
	}
	if desc := p.Description(); desc != "" {
		result.Description = strPtr(desc)
	}
	if img := resolveURL(base, p.Image()); img != "" {
		result.ThumbnailURL = strPtr(img)
	}
	if icon := resolveURL(base, p.Favicon()); icon != "" {
		result.FaviconURL = strPtr(icon)
	}
	result.Language = p.Language()
}

type renderResult struct {
	html string
	err  error
}

// render runs the browser fallback within what is left of ctx, returning
// nil when it fails, runs out of time, or also finds no title.
func (e *Extractor) render(ctx context.Context, rawURL string) *page {
	done := make(chan renderResult, 1)
	go func() {
		html, err := e.renderer.Render(ctx, rawURL)
		done <- renderResult{html: html, err: err}
	}()

	var res renderResult
	select {
	case res = <-done:
	case <-ctx.Done():
		e.logger.Warn("browser render abandoned", "url", rawURL, "error", ctx.Err())
		return nil
	}
	if res.err != nil {
		e.logger.Warn("browser render failed", "url", rawURL, "error", res.err)
		return nil
	}
	p, err := parsePage(strings.NewReader(res.html))
	if err != nil || p.Title() == "" {
		return nil
	}
	return p
}

// fallbackResult is what is known about u without fetching it.
func fallbackResult(u *url.URL, cls Classification) *domain.URLMetadata {
	return &domain.URLMetadata{
		URL:          u.String(),
		Domain:       normalizeHost(u.Hostname()),
		Title:        titleFromDomain(u.Hostname()),
		ResourceType: cls.ResourceType,
		Confidence:   cls.Confidence,
		Tags:         cls.Tags,
		FaviconURL:   strPtr(defaultFavicon(u)),
		Source:       domain.SourceFallback,
	}
}

func defaultFavicon(u *url.URL) string {
	return u.Scheme + "://" + u.Host + "/favicon.ico"
}

func strPtr(s string) *string {
	return &s
}
