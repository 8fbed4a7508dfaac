package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"venue-crawler/extraction"
	"venue-crawler/models"
	"venue-crawler/utils"
)

// Engine combines a browser renderer with an extraction strategy. Every
// call renders the page fresh; nothing is cached between calls.
type Engine struct {
	renderer Renderer
	strategy extraction.Strategy
	builder  *ContentBuilder
	logger   *utils.Logger
}

func NewEngine(renderer Renderer, strategy extraction.Strategy, logger *utils.Logger) *Engine {
	return &Engine{
		renderer: renderer,
		strategy: strategy,
		builder:  NewContentBuilder(),
		logger:   logger,
	}
}

// Probe renders the whole page without extraction.
func (e *Engine) Probe(ctx context.Context, url, sessionID string) (*models.PageResult, error) {
	html, err := e.renderer.Render(ctx, sessionID, url)
	if err != nil {
		return nil, err
	}

	content, err := e.builder.Build(url, html, "")
	if err != nil {
		return nil, err
	}

	return &models.PageResult{
		URL:         url,
		CleanedHTML: content.CleanedHTML,
		Markdown:    content.Markdown,
		Text:        content.Text,
	}, nil
}

// Extract renders the page, narrows it to selector and runs the extraction
// strategy. ExtractedContent is left empty when the selector matches
// nothing, and is a JSON array otherwise.
func (e *Engine) Extract(ctx context.Context, url, selector, sessionID string) (*models.PageResult, error) {
	html, err := e.renderer.Render(ctx, sessionID, url)
	if err != nil {
		return nil, err
	}

	content, err := e.builder.Build(url, html, selector)
	if err != nil {
		return nil, err
	}

	result := &models.PageResult{
		URL:         url,
		CleanedHTML: content.CleanedHTML,
		Markdown:    content.Markdown,
	}
	if strings.TrimSpace(content.HTML) == "" {
		e.logger.Debug("[scraper] Selector %q matched nothing on %s", selector, url)
		return result, nil
	}

	blocks, err := e.strategy.Extract(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", url, err)
	}
	if blocks == nil {
		blocks = []models.Candidate{}
	}

	payload, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("extract %s: encode blocks: %w", url, err)
	}
	result.ExtractedContent = string(payload)
	return result, nil
}
