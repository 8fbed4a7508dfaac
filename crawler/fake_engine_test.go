package crawler

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"venue-crawler/models"
)

// fakePage scripts one page of a simulated listing site.
type fakePage struct {
	terminal   bool
	probeErr   error
	nilProbe   bool
	// cleaned, when set, replaces the probe's cleaned HTML.
	cleaned    string
	payload    string
	extractErr error
}

type fakeEngine struct {
	pages     map[int]fakePage
	probed    []int
	extracted []int
	sessions  []string
	// cancel, when set, is called as the given page is extracted.
	cancelOn int
	cancel   context.CancelFunc
}

func pageOf(raw string) int {
	u, err := url.Parse(raw)
	if err != nil {
		return -1
	}
	n, _ := strconv.Atoi(u.Query().Get("page"))
	return n
}

func (f *fakeEngine) Probe(_ context.Context, rawURL, sessionID string) (*models.PageResult, error) {
	n := pageOf(rawURL)
	f.probed = append(f.probed, n)
	f.sessions = append(f.sessions, sessionID)
	p := f.pages[n]
	if p.probeErr != nil {
		return nil, p.probeErr
	}
	if p.nilProbe {
		return nil, nil
	}
	html := "<div>listing page</div>"
	if p.terminal {
		html = "<div><h2>No Results Found</h2></div>"
	}
	if p.cleaned != "" {
		html = p.cleaned
	}
	return &models.PageResult{URL: rawURL, CleanedHTML: html}, nil
}

func (f *fakeEngine) Extract(ctx context.Context, rawURL, _, _ string) (*models.PageResult, error) {
	n := pageOf(rawURL)
	f.extracted = append(f.extracted, n)
	if f.cancel != nil && n == f.cancelOn {
		f.cancel()
		return nil, ctx.Err()
	}
	p := f.pages[n]
	if p.extractErr != nil {
		return nil, p.extractErr
	}
	return &models.PageResult{URL: rawURL, ExtractedContent: p.payload}, nil
}

var errRender = errors.New("render failed")
