package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Renderer returns the rendered HTML of a page, for sites whose static
// markup is an empty shell filled in by scripts.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (string, error)
}

const renderTimeout = 20 * time.Second

// RodRenderer renders pages in a shared headless Chromium. The browser is
// launched on first use. Requests the page makes to non-public addresses
// are failed unless allowPrivate is set.
type RodRenderer struct {
	binPath      string
	allowPrivate bool
	logger       *slog.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewRodRenderer creates a renderer. An empty binPath looks for an installed
// browser and lets rod download one when none is found.
func NewRodRenderer(binPath string, allowPrivate bool, logger *slog.Logger) *RodRenderer {
	return &RodRenderer{
		binPath:      binPath,
		allowPrivate: allowPrivate,
		logger:       logger.With("component", "renderer"),
	}
}

func (r *RodRenderer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().Headless(true)
	if r.binPath != "" {
		l = l.Bin(r.binPath)
	} else if path, ok := launcher.LookPath(); ok {
		l = l.Bin(path)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	r.logger.Info("Headless browser started")
	r.launcher = l
	r.browser = browser
	return browser, nil
}

// Render loads rawURL, waits for the load event, and returns the DOM as HTML.
func (r *RodRenderer) Render(ctx context.Context, rawURL string) (string, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if !r.allowPrivate {
		if err := checkPublicHost(ctx, target.Hostname()); err != nil {
			return "", err
		}
	}

	browser, err := r.connect()
	if err != nil {
		return "", err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			r.logger.Debug("closing page failed", "url", rawURL, "error", closeErr)
		}
	}()

	pageCtx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()
	page = page.Context(pageCtx)

	if !r.allowPrivate {
		router := page.HijackRequests()
		if err := router.Add("*", "", r.guardRequest); err != nil {
			return "", fmt.Errorf("intercept requests: %w", err)
		}
		go router.Run()
		defer func() { _ = router.Stop() }() //nolint:errcheck // Page is closed next
	}

	if err := page.Navigate(rawURL); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("render timed out: %w", pageCtx.Err())
		}
		return "", fmt.Errorf("wait for load: %w", err)
	}

	return page.HTML()
}

// guardRequest fails subresource and redirect requests to internal hosts.
func (r *RodRenderer) guardRequest(h *rod.Hijack) {
	u := h.Request.URL()
	if u.Scheme == "http" || u.Scheme == "https" {
		if err := checkPublicHost(h.Request.Req().Context(), u.Hostname()); err != nil {
			r.logger.Debug("blocked browser request", "url", u.String(), "error", err)
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
	}
	h.ContinueRequest(&proto.FetchContinueRequest{})
}

// Close shuts the browser down if it was started.
func (r *RodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.launcher.Kill()
	r.browser = nil
	r.launcher = nil
	return err
}
