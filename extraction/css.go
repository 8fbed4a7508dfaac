package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"venue-crawler/models"
)

// CSSField maps one record key to a selector relative to the base element.
type CSSField struct {
	Name     string `yaml:"name"`
	Selector string `yaml:"selector"`
	// Type is "text" (default), "attribute" or "html".
	Type      string `yaml:"type"`
	Attribute string `yaml:"attribute"`
}

// CSSSchema describes structural extraction: every element matching
// BaseSelector yields one record built from Fields.
type CSSSchema struct {
	Name         string     `yaml:"name"`
	BaseSelector string     `yaml:"base_selector"`
	Fields       []CSSField `yaml:"fields"`
}

// Validate reports schema errors before a crawl starts.
func (s CSSSchema) Validate() error {
	if s.BaseSelector == "" {
		return errors.New("css schema: base_selector is required")
	}
	if len(s.Fields) == 0 {
		return errors.New("css schema: at least one field is required")
	}
	for _, f := range s.Fields {
		if f.Name == "" {
			return errors.New("css schema: field without name")
		}
		switch f.Type {
		case "", "text", "html":
		case "attribute":
			if f.Attribute == "" {
				return fmt.Errorf("css schema: field %q: attribute type needs an attribute", f.Name)
			}
		default:
			return fmt.Errorf("css schema: field %q: unknown type %q", f.Name, f.Type)
		}
	}
	return nil
}

// CSSStrategy extracts records with CSS selectors. A field whose selector
// matches nothing is left out of the record, so the completeness filter
// drops records missing required fields.
type CSSStrategy struct {
	schema CSSSchema
}

func NewCSSStrategy(schema CSSSchema) (*CSSStrategy, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &CSSStrategy{schema: schema}, nil
}

func (s *CSSStrategy) Extract(_ context.Context, content Content) ([]models.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.HTML))
	if err != nil {
		return nil, fmt.Errorf("css: parse html: %w", err)
	}

	var out []models.Candidate
	doc.Find(s.schema.BaseSelector).Each(func(_ int, base *goquery.Selection) {
		item := models.Candidate{}
		for _, f := range s.schema.Fields {
			if v, ok := fieldValue(base, f); ok {
				item[f.Name] = v
			}
		}
		if len(item) > 0 {
			out = append(out, item)
		}
	})
	return out, nil
}

func fieldValue(base *goquery.Selection, f CSSField) (string, bool) {
	sel := base
	if f.Selector != "" {
		sel = base.Find(f.Selector)
	}
	if sel.Length() == 0 {
		return "", false
	}
	sel = sel.First()

	switch f.Type {
	case "attribute":
		return sel.Attr(f.Attribute)
	case "html":
		h, err := sel.Html()
		if err != nil {
			return "", false
		}
		return strings.TrimSpace(h), true
	default:
		return strings.Join(strings.Fields(sel.Text()), " "), true
	}
}
