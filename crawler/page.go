// Package crawler paginates through a listing site one page at a time,
// filtering extracted candidates down to complete, previously unseen sites.
package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"venue-crawler/models"
	"venue-crawler/utils"
)

// DefaultNoResultsMarker is the text a listing page shows past its last page.
const DefaultNoResultsMarker = "No Results Found"

// Engine is the browsing/extraction capability the crawler needs. Both
// calls fetch fresh content within the given session.
type Engine interface {
	Probe(ctx context.Context, url, sessionID string) (*models.PageResult, error)
	Extract(ctx context.Context, url, selector, sessionID string) (*models.PageResult, error)
}

// PageRequest holds the per-run parameters of FetchPage.
type PageRequest struct {
	BaseURL         string
	CSSSelector     string
	SessionID       string
	RequiredKeys    []string
	NoResultsMarker string
}

// PageURL sets the page query parameter on base, keeping any others.
func PageURL(base string, page int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("crawler: parse base url: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchPage fetches one page and returns its accepted candidates, in
// extraction order, plus whether the no-results marker was reached. Every
// per-page failure is logged and reported as an empty, non-terminal page.
// Accepted names are added to seen.
func FetchPage(ctx context.Context, engine Engine, pageNumber int, req PageRequest, seen *utils.NameSet, logger *utils.Logger) ([]models.Candidate, bool) {
	pageURL, err := PageURL(req.BaseURL, pageNumber)
	if err != nil {
		logger.Error("[crawler] Page %d: %v", pageNumber, err)
		return nil, false
	}
	logger.Info("[crawler] Loading page %d...", pageNumber)

	marker := req.NoResultsMarker
	if marker == "" {
		marker = DefaultNoResultsMarker
	}
	if noResults(ctx, engine, pageURL, req.SessionID, marker, logger) {
		return nil, true
	}

	result, err := engine.Extract(ctx, pageURL, req.CSSSelector, req.SessionID)
	if err != nil || result == nil || strings.TrimSpace(result.ExtractedContent) == "" {
		msg := "no extracted content"
		if err != nil {
			msg = err.Error()
		}
		logger.Warn("[crawler] Error fetching page %d: %s", pageNumber, msg)
		return nil, false
	}

	var candidates []models.Candidate
	if err := json.Unmarshal([]byte(result.ExtractedContent), &candidates); err != nil {
		logger.Warn("[crawler] Page %d: malformed extraction payload: %v", pageNumber, err)
		return nil, false
	}
	if len(candidates) == 0 {
		logger.Info("[crawler] No sites found on page %d.", pageNumber)
		return nil, false
	}
	logger.Debug("[crawler] Page %d extracted %d candidates", pageNumber, len(candidates))

	var accepted []models.Candidate
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if v, ok := c["error"]; ok && v == false {
			delete(c, "error")
		}

		if !IsComplete(c, req.RequiredKeys) {
			continue
		}

		name := c.Name()
		if name == "" {
			logger.Debug("[crawler] Page %d: candidate without a name skipped", pageNumber)
			continue
		}
		if IsDuplicate(name, seen) {
			logger.Info("[crawler] Duplicate site '%s' found. Skipping.", name)
			continue
		}

		seen.Add(name)
		accepted = append(accepted, c)
	}

	if len(accepted) == 0 {
		logger.Info("[crawler] No complete sites found on page %d.", pageNumber)
		return nil, false
	}

	logger.Info("[crawler] Extracted %d sites from page %d.", len(accepted), pageNumber)
	return accepted, false
}

// noResults probes the page for the terminal marker. A failed probe is not
// terminal.
func noResults(ctx context.Context, engine Engine, pageURL, sessionID, marker string, logger *utils.Logger) bool {
	result, err := engine.Probe(ctx, pageURL, sessionID)
	if err != nil {
		logger.Warn("[crawler] Error fetching page for '%s' check: %v", marker, err)
		return false
	}
	return result != nil && strings.Contains(pageText(result), marker)
}

// pageText is the probe's visible text. Engines that only fill CleanedHTML
// get it entity-decoded so markers with quotes or ampersands still match.
func pageText(result *models.PageResult) string {
	if result.Text != "" {
		return result.Text
	}
	return html.UnescapeString(result.CleanedHTML)
}
