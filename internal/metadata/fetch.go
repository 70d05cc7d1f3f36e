package metadata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html/charset"

	"github.com/tabsverse/tabsverse-server/internal/ratelimit"
)

const acceptHeader = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"

// response is what a fetch learned about the target.
type response struct {
	// URL is the final URL after redirects.
	URL       *url.URL
	MediaType string
	// Body is the UTF-8 decoded document, set only for HTML responses.
	Body []byte
}

func (r *response) isHTML() bool {
	return r.MediaType == "text/html" || r.MediaType == "application/xhtml+xml"
}

// fetcher issues one rate-limited GET per call. It never retries.
type fetcher struct {
	client    *http.Client
	limiter   *ratelimit.KeyedRateLimiter
	userAgent string
	maxBody   int64
}

func (f *fetcher) fetch(ctx context.Context, u *url.URL) (*response, error) {
	if err := f.limiter.Wait(ctx, u.Host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	out := &response{URL: resp.Request.URL}
	contentType := resp.Header.Get("Content-Type")

	limited := io.LimitReader(resp.Body, f.maxBody)
	if contentType == "" {
		// Sniff from the first bytes, then keep them in front of the rest.
		head := make([]byte, 3072)
		n, _ := io.ReadFull(limited, head)
		head = head[:n]
		contentType = mimetype.Detect(head).String()
		limited = io.MultiReader(bytes.NewReader(head), limited)
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	out.MediaType = mediaType

	if !out.isHTML() {
		return out, nil
	}

	decoded, err := charset.NewReader(limited, contentType)
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}
	out.Body, err = io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return out, nil
}
