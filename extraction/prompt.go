package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = `You extract structured data from web page content.

You will receive:
1. The URL the content was taken from
2. A JSON schema describing one record
3. Extraction instructions
4. The page content

Return a JSON array where each element is one record matching the schema.
Use exactly the property names from the schema. If a value is not present on
the page, make a best effort from the surrounding text rather than inventing it.
If the content holds no matching records, return [].

Respond ONLY with the JSON array, no explanation or markdown.`

func buildUserPrompt(url string, schema map[string]any, instruction, content string) string {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		schemaJSON = []byte("{}")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n\n", url)
	fmt.Fprintf(&b, "Schema:\n%s\n\n", schemaJSON)
	if instruction != "" {
		fmt.Fprintf(&b, "Instructions: %s\n\n", instruction)
	}
	fmt.Fprintf(&b, "Content:\n<content>\n%s\n</content>", content)
	return b.String()
}

// chunkText splits text on line boundaries so that each chunk stays under
// roughly tokenThreshold tokens, at 0.75 words per token. A single line
// longer than the budget becomes its own chunk.
func chunkText(text string, tokenThreshold int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	budget := int(float64(tokenThreshold) * 0.75)
	if tokenThreshold <= 0 || len(strings.Fields(text)) <= budget {
		return []string{text}
	}

	var chunks []string
	var cur []string
	words := 0
	for _, line := range strings.Split(text, "\n") {
		n := len(strings.Fields(line))
		if words > 0 && words+n > budget {
			chunks = append(chunks, strings.Join(cur, "\n"))
			cur, words = nil, 0
		}
		cur = append(cur, line)
		words += n
	}
	if words > 0 {
		chunks = append(chunks, strings.Join(cur, "\n"))
	}
	return chunks
}
