// Package extraction turns rendered page content into candidate records,
// either by structural CSS rules or by asking a language model.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"venue-crawler/models"
)

var (
	ErrUnknownProvider = errors.New("extraction: unknown provider")
	ErrMissingAPIKey   = errors.New("extraction: api key required")
	ErrNoJSON          = errors.New("extraction: no JSON found in response")
)

// InputFormat selects which rendering of the page a strategy reads.
type InputFormat string

const (
	InputMarkdown InputFormat = "markdown"
	InputHTML     InputFormat = "html"
	InputText     InputFormat = "text"
)

// ParseInputFormat validates an input format name; empty means markdown.
func ParseInputFormat(s string) (InputFormat, error) {
	switch f := InputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return InputMarkdown, nil
	case InputMarkdown, InputHTML, InputText:
		return f, nil
	default:
		return "", fmt.Errorf("extraction: unknown input format %q", s)
	}
}

// Content holds the renderings of one page, already narrowed to the
// configured content selector.
type Content struct {
	URL         string
	HTML        string
	CleanedHTML string
	Markdown    string
	Text        string
}

// Input returns the rendering matching f.
func (c Content) Input(f InputFormat) string {
	switch f {
	case InputHTML:
		return c.CleanedHTML
	case InputText:
		return c.Text
	default:
		return c.Markdown
	}
}

// Strategy extracts candidate records from page content.
type Strategy interface {
	Extract(ctx context.Context, content Content) ([]models.Candidate, error)
}
