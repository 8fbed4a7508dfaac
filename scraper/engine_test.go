package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-crawler/extraction"
	"venue-crawler/models"
	"venue-crawler/utils"
)

const listingPage = `<html><head><title>Venues</title><script>var tracking = 1;</script></head>
<body>
  <nav>Home | About</nav>
  <div class="info-container">
    <h2>The Loft</h2>
    <p>Austin, TX &middot; Up to <b>150</b> guests</p>
  </div>
  <div class="info-container">
    <h2>Garden Room</h2>
    <p>Dallas, TX</p>
  </div>
  <footer>No Results Found? Contact us.</footer>
</body></html>`

type fakeRenderer struct {
	html     string
	err      error
	sessions []string
	urls     []string
}

func (f *fakeRenderer) Render(_ context.Context, sessionID, url string) (string, error) {
	f.sessions = append(f.sessions, sessionID)
	f.urls = append(f.urls, url)
	return f.html, f.err
}

func (f *fakeRenderer) Close() error { return nil }

type fakeStrategy struct {
	got    []extraction.Content
	blocks []models.Candidate
	err    error
}

func (f *fakeStrategy) Extract(_ context.Context, c extraction.Content) ([]models.Candidate, error) {
	f.got = append(f.got, c)
	return f.blocks, f.err
}

func TestEngineProbeReturnsCleanedHTML(t *testing.T) {
	r := &fakeRenderer{html: listingPage}
	e := NewEngine(r, &fakeStrategy{}, utils.NewNopLogger())

	res, err := e.Probe(context.Background(), "https://venues.test/?page=1", "s1")
	require.NoError(t, err)

	assert.Contains(t, res.CleanedHTML, "No Results Found")
	assert.NotContains(t, res.CleanedHTML, "tracking")
	assert.Empty(t, res.ExtractedContent)
	assert.Equal(t, []string{"s1"}, r.sessions)
}

func TestEngineProbeTextDecodesEntities(t *testing.T) {
	r := &fakeRenderer{html: `<html><body><p>We couldn't find any venues &amp; spaces</p></body></html>`}
	e := NewEngine(r, &fakeStrategy{}, utils.NewNopLogger())

	res, err := e.Probe(context.Background(), "https://venues.test/?page=9", "s1")
	require.NoError(t, err)

	assert.Contains(t, res.Text, "We couldn't find")
	assert.Contains(t, res.Text, "venues & spaces")
}

func TestEngineExtractNarrowsToSelector(t *testing.T) {
	r := &fakeRenderer{html: listingPage}
	s := &fakeStrategy{blocks: []models.Candidate{{"name": "The Loft", "error": false}}}
	e := NewEngine(r, s, utils.NewNopLogger())

	res, err := e.Extract(context.Background(), "https://venues.test/?page=1", "div.info-container", "s1")
	require.NoError(t, err)

	require.Len(t, s.got, 1)
	c := s.got[0]
	assert.Contains(t, c.Markdown, "The Loft")
	assert.Contains(t, c.Markdown, "Garden Room")
	assert.NotContains(t, c.Markdown, "Home | About")
	assert.NotContains(t, c.Text, "No Results Found")
	assert.Contains(t, c.Text, "Austin, TX")

	var blocks []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.ExtractedContent), &blocks))
	assert.Equal(t, "The Loft", blocks[0]["name"])
}

func TestEngineExtractSelectorMatchesNothing(t *testing.T) {
	s := &fakeStrategy{}
	e := NewEngine(&fakeRenderer{html: listingPage}, s, utils.NewNopLogger())

	res, err := e.Extract(context.Background(), "https://venues.test/", ".missing", "s1")
	require.NoError(t, err)
	assert.Empty(t, res.ExtractedContent)
	assert.Empty(t, s.got, "strategy must not run on empty content")
}

func TestEngineExtractNoBlocksIsEmptyArray(t *testing.T) {
	e := NewEngine(&fakeRenderer{html: listingPage}, &fakeStrategy{}, utils.NewNopLogger())

	res, err := e.Extract(context.Background(), "https://venues.test/", "div.info-container", "s1")
	require.NoError(t, err)
	assert.Equal(t, "[]", res.ExtractedContent)
}

func TestEngineErrors(t *testing.T) {
	renderErr := errors.New("net::ERR_NAME_NOT_RESOLVED")
	e := NewEngine(&fakeRenderer{err: renderErr}, &fakeStrategy{}, utils.NewNopLogger())

	_, err := e.Probe(context.Background(), "https://venues.test/", "s1")
	assert.ErrorIs(t, err, renderErr)

	strategyErr := errors.New("llm down")
	e = NewEngine(&fakeRenderer{html: listingPage}, &fakeStrategy{err: strategyErr}, utils.NewNopLogger())
	_, err = e.Extract(context.Background(), "https://venues.test/", "div.info-container", "s1")
	assert.ErrorIs(t, err, strategyErr)
}

func TestOpenBrowserRejectsUnknownEngine(t *testing.T) {
	// A retried config error would sleep past the deadline and lose the sentinel.
	retry := &utils.RetryConfig{MaxAttempts: 3, BaseDelay: time.Hour}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := OpenBrowser(ctx, BrowserConfig{Engine: "playwright"}, utils.NewNopLogger(), retry)
	assert.ErrorIs(t, err, ErrUnknownEngine)

	_, err = OpenBrowser(context.Background(), BrowserConfig{BrowserType: "firefox"}, utils.NewNopLogger(), retry)
	assert.Error(t, err)
}
