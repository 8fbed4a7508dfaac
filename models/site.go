package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Site is one accepted venue record. Field order is the CSV column order.
type Site struct {
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Price       string  `json:"price"`
	Capacity    string  `json:"capacity"`
	Rating      float64 `json:"rating"`
	Reviews     int     `json:"reviews"`
	Description string  `json:"description"`
}

// Candidate is an unvalidated mapping produced by the extraction engine.
type Candidate map[string]any

var fieldNames = []string{"name", "location", "price", "capacity", "rating", "reviews", "description"}

// numberRegexp captures the first number in a free-form string ("1,204 reviews", "4.8 ★").
var numberRegexp = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// FieldNames returns the Site field names in declaration order.
func FieldNames() []string {
	out := make([]string, len(fieldNames))
	copy(out, fieldNames)
	return out
}

// Row renders the site as a CSV row in FieldNames order.
func (s Site) Row() []string {
	return []string{
		s.Name,
		s.Location,
		s.Price,
		s.Capacity,
		strconv.FormatFloat(s.Rating, 'f', -1, 64),
		strconv.Itoa(s.Reviews),
		s.Description,
	}
}

// Name returns the candidate's name value as a trimmed string.
func (c Candidate) Name() string {
	return normaliseText(stringValue(c["name"]))
}

// SiteFromCandidate promotes a candidate that passed the completeness and
// duplicate checks. Values that cannot be coerced become zero values.
func SiteFromCandidate(c Candidate) Site {
	return Site{
		Name:        c.Name(),
		Location:    normaliseText(stringValue(c["location"])),
		Price:       normaliseText(stringValue(c["price"])),
		Capacity:    normaliseText(stringValue(c["capacity"])),
		Rating:      floatValue(c["rating"]),
		Reviews:     int(floatValue(c["reviews"])),
		Description: normaliseText(stringValue(c["description"])),
	}
}

// SiteSchema returns the JSON schema describing a Site, as handed to the
// language model.
func SiteSchema() map[string]any {
	str := map[string]any{"type": "string"}
	return map[string]any{
		"title": "Site",
		"type":  "object",
		"properties": map[string]any{
			"name":        str,
			"location":    str,
			"price":       str,
			"capacity":    str,
			"rating":      map[string]any{"type": "number"},
			"reviews":     map[string]any{"type": "integer"},
			"description": str,
		},
		"required": FieldNames(),
	}
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func floatValue(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		match := numberRegexp.FindString(strings.ReplaceAll(t, ",", ""))
		if match == "" {
			return 0
		}
		f, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
