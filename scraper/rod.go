package scraper

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"venue-crawler/utils"
)

// RodRenderer renders pages with go-rod, one stealth-patched page per
// session.
type RodRenderer struct {
	cfg    BrowserConfig
	logger *utils.Logger

	launcher *launcher.Launcher
	browser  *rod.Browser
	sessions map[string]*rod.Page
}

// NewRodRenderer launches a local Chrome through the rod launcher.
func NewRodRenderer(cfg BrowserConfig, logger *utils.Logger) (*RodRenderer, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("no-sandbox")
	if bin := findChromeBinary(cfg.ChromeBin); bin != "" {
		logger.Info("[scraper] Using browser binary: %s", bin)
		l = l.Bin(bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("rod: launch: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("rod: connect: %w", err)
	}

	return &RodRenderer{
		cfg:      cfg,
		logger:   logger,
		launcher: l,
		browser:  b,
		sessions: make(map[string]*rod.Page),
	}, nil
}

func (r *RodRenderer) page(sessionID string) (*rod.Page, error) {
	if p, ok := r.sessions[sessionID]; ok {
		return p, nil
	}

	p, err := stealth.Page(r.browser)
	if err != nil {
		return nil, fmt.Errorf("rod: create tab: %w", err)
	}
	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.cfg.UserAgent}); err != nil {
		r.logger.Warn("[scraper] rod: set user agent: %v", err)
	}

	r.sessions[sessionID] = p
	r.logger.Debug("[scraper] Opened tab for session %s", sessionID)
	return p, nil
}

func (r *RodRenderer) Render(ctx context.Context, sessionID, url string) (string, error) {
	p, err := r.page(sessionID)
	if err != nil {
		return "", err
	}

	navCtx, cancel := context.WithTimeout(ctx, r.cfg.PageTimeout)
	defer cancel()

	page := p.Context(navCtx)
	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("rod: navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("rod: wait load %s: %w", url, err)
	}
	if err := waitFor(navCtx, r.cfg.PageWait); err != nil {
		return "", fmt.Errorf("rod: render %s: %w", url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("rod: get html %s: %w", url, err)
	}
	return html, nil
}

// Close closes every session page, the browser and the launched process.
func (r *RodRenderer) Close() error {
	for id, p := range r.sessions {
		_ = p.Close()
		delete(r.sessions, id)
	}
	err := r.browser.Close()
	r.launcher.Cleanup()
	return err
}
