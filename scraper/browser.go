// Package scraper drives a headless browser and turns rendered pages into
// the content handed to an extraction strategy.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"venue-crawler/utils"
)

var ErrUnknownEngine = errors.New("scraper: unknown browser engine")

// BrowserConfig dictates how the browser is launched and how long a page
// may take to render.
type BrowserConfig struct {
	Engine      string // "chromedp" or "rod"
	BrowserType string // only chromium-family browsers are supported
	Headless    bool
	ChromeBin   string
	UserAgent   string
	PageTimeout time.Duration
	PageWait    time.Duration
	Verbose     bool
}

// Renderer loads a URL in a browser tab bound to a session and returns the
// rendered document HTML. Tabs are reused per session so cookies and
// client-side state carry over between pages.
type Renderer interface {
	Render(ctx context.Context, sessionID, url string) (string, error)
	Close() error
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// OpenBrowser launches the configured engine. Launch failures are retried
// with retry; a browser that never comes up is fatal for the run.
func OpenBrowser(ctx context.Context, cfg BrowserConfig, logger *utils.Logger, retry *utils.RetryConfig) (Renderer, error) {
	switch strings.ToLower(cfg.BrowserType) {
	case "", "chromium", "chrome":
	default:
		return nil, fmt.Errorf("scraper: unsupported browser type %q (supported: chromium)", cfg.BrowserType)
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 60 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	var launch func(BrowserConfig, *utils.Logger) (Renderer, error)
	switch strings.ToLower(cfg.Engine) {
	case "", "chromedp":
		launch = func(c BrowserConfig, l *utils.Logger) (Renderer, error) { return NewChromeRenderer(c, l) }
	case "rod":
		launch = func(c BrowserConfig, l *utils.Logger) (Renderer, error) { return NewRodRenderer(c, l) }
	default:
		return nil, fmt.Errorf("%w: %q (supported: chromedp, rod)", ErrUnknownEngine, cfg.Engine)
	}

	var r Renderer
	err := retry.Do(ctx, "launch-browser", func() error {
		var err error
		r, err = launch(cfg, logger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// waitFor sleeps for d unless ctx ends first.
func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
