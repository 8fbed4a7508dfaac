package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-crawler/models"
	"venue-crawler/utils"
)

type fakeProvider struct {
	responses []string
	errs      []error
	prompts   []string
}

func (f *fakeProvider) Complete(_ context.Context, _, prompt string) (*Completion, error) {
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return &Completion{Text: f.responses[i], PromptTokens: 10, CompletionTokens: 5}, nil
}

func TestLLMStrategyTagsBlocks(t *testing.T) {
	p := &fakeProvider{responses: []string{`[{"name":"A"},{"name":"B","error":true}]`}}
	s := NewLLMStrategyWithProvider(LLMConfig{Instruction: "Extract venues."}, p, utils.NewNopLogger())

	got, err := s.Extract(context.Background(), Content{URL: "https://x.test/?page=1", Markdown: "# Venues\nA\nB"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, false, got[0]["error"])
	assert.Equal(t, true, got[1]["error"])

	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], "Extract venues.")
	assert.Contains(t, p.prompts[0], `"reviews"`)
	assert.Contains(t, p.prompts[0], "# Venues")

	assert.Equal(t, Usage{Requests: 1, PromptTokens: 10, CompletionTokens: 5}, s.Usage())
	assert.Equal(t, 15, s.Usage().TotalTokens())
}

func TestLLMStrategySkipsNullBlocks(t *testing.T) {
	p := &fakeProvider{responses: []string{`[{"name":"A"}, null]`}}
	s := NewLLMStrategyWithProvider(LLMConfig{}, p, utils.NewNopLogger())

	var got []models.Candidate
	var err error
	assert.NotPanics(t, func() {
		got, err = s.Extract(context.Background(), Content{Markdown: "A"})
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0]["name"])
	assert.Equal(t, false, got[0]["error"])
}

func TestLLMStrategyChunkFailureYieldsErrorBlock(t *testing.T) {
	p := &fakeProvider{
		responses: []string{"", `[{"name":"B"}]`},
		errs:      []error{errors.New("rate limited"), nil},
	}
	cfg := LLMConfig{ChunkTokenThreshold: 4}
	s := NewLLMStrategyWithProvider(cfg, p, utils.NewNopLogger())

	md := "one two three\nfour five six"
	got, err := s.Extract(context.Background(), Content{Markdown: md})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, true, got[0]["error"])
	assert.Contains(t, got[0]["content"], "rate limited")
	assert.Equal(t, "B", got[1]["name"])
}

func TestLLMStrategyEmptyInputSkipsModel(t *testing.T) {
	p := &fakeProvider{}
	s := NewLLMStrategyWithProvider(LLMConfig{InputFormat: InputText}, p, utils.NewNopLogger())

	got, err := s.Extract(context.Background(), Content{Markdown: "ignored", Text: "  \n "})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, p.prompts)
}

func TestChunkText(t *testing.T) {
	assert.Nil(t, chunkText("   ", 100))
	assert.Equal(t, []string{"a b c"}, chunkText("a b c", 0))
	assert.Equal(t, []string{"a b c"}, chunkText("a b c", 100))

	// Budget of 3 words per chunk (4 tokens * 0.75).
	chunks := chunkText("a b\nc d\ne f g h\ni", 4)
	assert.Equal(t, []string{"a b", "c d", "e f g h", "i"}, chunks)
	assert.Equal(t, "a b\nc d\ne f g h\ni", strings.Join(chunks, "\n"))
}

func TestParseBlocks(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantLen  int
		wantName string
		wantErr  bool
	}{
		{name: "bare array", in: `[{"name":"A"},{"name":"B"}]`, wantLen: 2, wantName: "A"},
		{name: "fenced", in: "```json\n[{\"name\":\"A\"}]\n```", wantLen: 1, wantName: "A"},
		{name: "prose around", in: `Here you go: [{"name":"A"}] Hope that helps [sic]`, wantLen: 1, wantName: "A"},
		{name: "wrapped", in: `{"venues":[{"name":"A"},{"name":"B"}]}`, wantLen: 2, wantName: "A"},
		{name: "single object", in: `{"name":"A","location":"X"}`, wantLen: 1, wantName: "A"},
		{name: "empty array", in: `[]`, wantLen: 0},
		{name: "null elements", in: `[{"name":"A"}, null, {"name":"B"}]`, wantLen: 2, wantName: "A"},
		{name: "null in wrapper", in: `{"venues":[null,{"name":"A"}]}`, wantLen: 1, wantName: "A"},
		{name: "bracket in prose first", in: `see [1] below: [{"name":"A"}]`, wantLen: 1, wantName: "A"},
		{name: "no json", in: `sorry, nothing here`, wantErr: true},
		{name: "only stray brackets", in: `see [1] and [note]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBlocks(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoJSON)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
			if tt.wantName != "" {
				assert.Equal(t, tt.wantName, got[0]["name"])
			}
		})
	}
}

func TestNewProvider(t *testing.T) {
	_, err := NewProvider("mistral/large", "key", 0)
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, err = NewProvider("openai/gpt-4o", "", 0)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	p, err := NewProvider("anthropic/", "key", 0)
	require.NoError(t, err)
	assert.IsType(t, &AnthropicProvider{}, p)

	name, model := SplitProvider("OpenAI/gpt-4o-mini")
	assert.Equal(t, "openai", name)
	assert.Equal(t, "gpt-4o-mini", model)
}

func TestParseInputFormat(t *testing.T) {
	f, err := ParseInputFormat("")
	require.NoError(t, err)
	assert.Equal(t, InputMarkdown, f)

	f, err = ParseInputFormat(" HTML ")
	require.NoError(t, err)
	assert.Equal(t, InputHTML, f)

	_, err = ParseInputFormat("pdf")
	assert.Error(t, err)
}
