package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const venueListHTML = `
<div id="results">
  <div class="venue">
    <h3>The Loft</h3>
    <span class="loc">Austin, TX</span>
    <span class="rating">4.8</span>
    <a href="/v/loft">details</a>
  </div>
  <div class="venue">
    <h3>Garden   Room</h3>
    <a href="/v/garden">details</a>
  </div>
</div>`

func venueSchema() CSSSchema {
	return CSSSchema{
		BaseSelector: "div.venue",
		Fields: []CSSField{
			{Name: "name", Selector: "h3"},
			{Name: "location", Selector: ".loc"},
			{Name: "rating", Selector: ".rating", Type: "text"},
			{Name: "url", Selector: "a", Type: "attribute", Attribute: "href"},
		},
	}
}

func TestCSSStrategyExtract(t *testing.T) {
	s, err := NewCSSStrategy(venueSchema())
	require.NoError(t, err)

	got, err := s.Extract(context.Background(), Content{HTML: venueListHTML})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "The Loft", got[0]["name"])
	assert.Equal(t, "Austin, TX", got[0]["location"])
	assert.Equal(t, "4.8", got[0]["rating"])
	assert.Equal(t, "/v/loft", got[0]["url"])

	// Missing fields are absent, not empty.
	assert.Equal(t, "Garden Room", got[1]["name"])
	assert.NotContains(t, got[1], "location")
	assert.NotContains(t, got[1], "rating")
}

func TestCSSSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  CSSSchema
		wantErr bool
	}{
		{name: "valid", schema: venueSchema()},
		{name: "no base", schema: CSSSchema{Fields: []CSSField{{Name: "name"}}}, wantErr: true},
		{name: "no fields", schema: CSSSchema{BaseSelector: "div"}, wantErr: true},
		{name: "attribute without name", schema: CSSSchema{BaseSelector: "div", Fields: []CSSField{{Name: "u", Type: "attribute"}}}, wantErr: true},
		{name: "unknown type", schema: CSSSchema{BaseSelector: "div", Fields: []CSSField{{Name: "u", Type: "xpath"}}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
