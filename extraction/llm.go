package extraction

import (
	"context"
	"fmt"

	"venue-crawler/models"
	"venue-crawler/utils"
)

// LLMConfig configures the language-model-driven strategy.
type LLMConfig struct {
	// Provider is a "provider/model" identifier, e.g. "openai/gpt-4o".
	Provider            string
	APIToken            string
	Schema              map[string]any
	Instruction         string
	InputFormat         InputFormat
	ChunkTokenThreshold int
	MaxTokens           int
}

// Usage accumulates token counts across all model calls of a run.
type Usage struct {
	Requests         int
	PromptTokens     int
	CompletionTokens int
}

func (u Usage) TotalTokens() int { return u.PromptTokens + u.CompletionTokens }

// LLMStrategy extracts records by sending page content, chunk by chunk, to
// a language model along with the record schema and an instruction.
type LLMStrategy struct {
	cfg      LLMConfig
	provider Provider
	logger   *utils.Logger
	usage    Usage
}

// NewLLMStrategy builds the provider named in cfg.Provider.
func NewLLMStrategy(cfg LLMConfig, logger *utils.Logger) (*LLMStrategy, error) {
	p, err := NewProvider(cfg.Provider, cfg.APIToken, cfg.MaxTokens)
	if err != nil {
		return nil, err
	}
	return NewLLMStrategyWithProvider(cfg, p, logger), nil
}

// NewLLMStrategyWithProvider uses an already constructed provider.
func NewLLMStrategyWithProvider(cfg LLMConfig, p Provider, logger *utils.Logger) *LLMStrategy {
	if cfg.InputFormat == "" {
		cfg.InputFormat = InputMarkdown
	}
	if cfg.Schema == nil {
		cfg.Schema = models.SiteSchema()
	}
	return &LLMStrategy{cfg: cfg, provider: p, logger: logger}
}

// Usage returns the token usage so far.
func (s *LLMStrategy) Usage() Usage { return s.usage }

// Extract runs every chunk of the selected input through the model. Each
// returned record is tagged "error": false; a chunk that fails produces a
// single record tagged "error": true carrying the failure message.
func (s *LLMStrategy) Extract(ctx context.Context, content Content) ([]models.Candidate, error) {
	chunks := chunkText(content.Input(s.cfg.InputFormat), s.cfg.ChunkTokenThreshold)
	if len(chunks) == 0 {
		s.logger.Debug("[llm] %s: no %s content to extract from", content.URL, s.cfg.InputFormat)
		return nil, nil
	}

	var out []models.Candidate
	for i, chunk := range chunks {
		prompt := buildUserPrompt(content.URL, s.cfg.Schema, s.cfg.Instruction, chunk)

		comp, err := s.provider.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("[llm] chunk %d/%d of %s failed: %v", i+1, len(chunks), content.URL, err)
			out = append(out, errorBlock(i, err))
			continue
		}

		s.usage.Requests++
		s.usage.PromptTokens += comp.PromptTokens
		s.usage.CompletionTokens += comp.CompletionTokens

		blocks, err := ParseBlocks(comp.Text)
		if err != nil {
			s.logger.Warn("[llm] chunk %d/%d of %s: %v", i+1, len(chunks), content.URL, err)
			out = append(out, errorBlock(i, fmt.Errorf("%w: %.200s", err, comp.Text)))
			continue
		}

		for _, b := range blocks {
			if b == nil {
				continue
			}
			if _, ok := b["error"]; !ok {
				b["error"] = false
			}
			out = append(out, b)
		}
		s.logger.Debug("[llm] chunk %d/%d of %s: %d blocks", i+1, len(chunks), content.URL, len(blocks))
	}

	return out, nil
}

func errorBlock(index int, err error) models.Candidate {
	return models.Candidate{
		"index":   index,
		"error":   true,
		"tags":    []string{"error"},
		"content": err.Error(),
	}
}
