package scraper

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"venue-crawler/utils"
)

// ChromeRenderer renders pages with chromedp, one tab per session.
type ChromeRenderer struct {
	cfg    BrowserConfig
	logger *utils.Logger

	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	sessions      map[string]*chromeTab
}

type chromeTab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewChromeRenderer starts a Chrome process and returns once it is ready.
func NewChromeRenderer(cfg BrowserConfig, logger *utils.Logger) (*ChromeRenderer, error) {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("[scraper] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	logf := func(string, ...interface{}) {}
	if cfg.Verbose {
		logf = func(format string, args ...interface{}) { logger.Debug("[chromedp] "+format, args...) }
	}
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(logf))

	// An empty Run starts the browser so launch errors surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("chromedp: start browser: %w", err)
	}

	return &ChromeRenderer{
		cfg:           cfg,
		logger:        logger,
		cancelAlloc:   cancelAlloc,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		sessions:      make(map[string]*chromeTab),
	}, nil
}

func (r *ChromeRenderer) tab(sessionID string) (*chromeTab, error) {
	if t, ok := r.sessions[sessionID]; ok {
		return t, nil
	}

	ctx, cancel := chromedp.NewContext(r.browserCtx)
	// Allocate the tab on its own context; running it first under a
	// timeout context would close the tab when that timeout is released.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("chromedp: open tab: %w", err)
	}

	t := &chromeTab{ctx: ctx, cancel: cancel}
	r.sessions[sessionID] = t
	r.logger.Debug("[scraper] Opened tab for session %s", sessionID)
	return t, nil
}

func (r *ChromeRenderer) Render(ctx context.Context, sessionID, url string) (string, error) {
	t, err := r.tab(sessionID)
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(t.ctx, r.cfg.PageTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err = chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error { return waitFor(ctx, r.cfg.PageWait) }),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp: render %s: %w", url, err)
	}
	return html, nil
}

// Close closes every session tab and shuts the browser down.
func (r *ChromeRenderer) Close() error {
	for id, t := range r.sessions {
		t.cancel()
		delete(r.sessions, id)
	}
	err := chromedp.Cancel(r.browserCtx)
	r.cancelBrowser()
	r.cancelAlloc()
	return err
}
