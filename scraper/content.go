package scraper

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"venue-crawler/extraction"
)

// ContentBuilder narrows rendered HTML to a selector and produces the
// cleaned HTML, markdown and text renderings of it.
type ContentBuilder struct {
	policy      *bluemonday.Policy
	mdConverter *converter.Converter
}

func NewContentBuilder() *ContentBuilder {
	return &ContentBuilder{
		policy: bluemonday.UGCPolicy(),
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Build returns the renderings of rawHTML. With a non-empty selector only
// the matching elements are kept, in document order; a selector matching
// nothing yields empty content.
func (b *ContentBuilder) Build(pageURL, rawHTML, selector string) (extraction.Content, error) {
	selected := rawHTML
	if selector != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
		if err != nil {
			return extraction.Content{}, fmt.Errorf("content: parse html: %w", err)
		}
		var parts []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if h, err := goquery.OuterHtml(s); err == nil {
				parts = append(parts, h)
			}
		})
		selected = strings.Join(parts, "\n")
	}

	content := extraction.Content{URL: pageURL, HTML: selected}
	if strings.TrimSpace(selected) == "" {
		return content, nil
	}

	content.CleanedHTML = b.policy.Sanitize(selected)

	md, err := b.mdConverter.ConvertString(content.CleanedHTML, converter.WithDomain(pageURL))
	if err != nil {
		return content, fmt.Errorf("content: markdown: %w", err)
	}
	content.Markdown = md

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.CleanedHTML))
	if err != nil {
		return content, fmt.Errorf("content: parse cleaned html: %w", err)
	}
	content.Text = collapseLines(doc.Text())

	return content, nil
}

// collapseLines trims each line, collapses inner whitespace and drops blank lines.
func collapseLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
