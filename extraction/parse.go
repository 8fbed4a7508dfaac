package extraction

import (
	"encoding/json"
	"strings"

	"venue-crawler/models"
)

// ParseBlocks decodes a model response into candidate records. It accepts a
// bare JSON array, an object wrapping a single array, a single object, or a
// JSON array surrounded by prose or code fences.
func ParseBlocks(response string) ([]models.Candidate, error) {
	response = strings.TrimSpace(response)

	var blocks []models.Candidate
	if err := json.Unmarshal([]byte(response), &blocks); err == nil {
		return dropNil(blocks), nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(response), &obj); err == nil {
		return unwrapObject(obj), nil
	}

	// Prose may hold brackets of its own ("see [1]"), so try each '[' in turn.
	for off := 0; off < len(response); off++ {
		start := strings.IndexByte(response[off:], '[')
		if start == -1 {
			break
		}
		off += start
		// Decode reads exactly one value and ignores whatever trails it.
		dec := json.NewDecoder(strings.NewReader(response[off:]))
		blocks = nil
		if err := dec.Decode(&blocks); err == nil {
			return dropNil(blocks), nil
		}
	}
	return nil, ErrNoJSON
}

// dropNil removes null array elements.
func dropNil(blocks []models.Candidate) []models.Candidate {
	out := blocks[:0]
	for _, b := range blocks {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

func unwrapObject(obj map[string]any) []models.Candidate {
	if len(obj) == 1 {
		for _, v := range obj {
			arr, ok := v.([]any)
			if !ok {
				break
			}
			out := make([]models.Candidate, 0, len(arr))
			for _, item := range arr {
				if m, ok := item.(map[string]any); ok && m != nil {
					out = append(out, models.Candidate(m))
				}
			}
			return out
		}
	}
	return []models.Candidate{obj}
}
