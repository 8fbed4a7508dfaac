package crawler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"venue-crawler/models"
	"venue-crawler/utils"
)

// StopReason records why a run ended.
type StopReason string

const (
	StopTerminal   StopReason = "terminal"
	StopMaxPages   StopReason = "max-pages"
	StopEmptyPages StopReason = "empty-pages"
	StopCancelled  StopReason = "cancelled"
)

// RunState is everything a crawl run accumulates. It is checkpointed after
// every page so an interrupted run can pick up where it stopped.
type RunState struct {
	BaseURL     string        `json:"base_url"`
	SessionID   string        `json:"session_id"`
	NextPage    int           `json:"next_page"`
	EmptyStreak int           `json:"empty_streak"`
	SeenNames   []string      `json:"seen_names"`
	Sites       []models.Site `json:"sites"`
	StopReason  StopReason    `json:"stop_reason,omitempty"`
	Completed   bool          `json:"completed"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Seen *utils.NameSet `json:"-"`
}

// NewRunState starts a run at page 1.
func NewRunState(baseURL, sessionID string) *RunState {
	return &RunState{
		BaseURL:   baseURL,
		SessionID: sessionID,
		NextPage:  1,
		Seen:      utils.NewNameSet(),
	}
}

// Checkpointer persists and restores run state. Load returns nil, nil when
// there is nothing to restore.
type Checkpointer interface {
	Load() (*RunState, error)
	Save(state *RunState) error
}

// FileCheckpointer stores run state as a JSON file, replaced atomically.
type FileCheckpointer struct {
	Path string
}

func (f *FileCheckpointer) Load() (*RunState, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read %q: %w", f.Path, err)
	}

	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("checkpoint: decode %q: %w", f.Path, err)
	}
	if state.NextPage < 1 {
		state.NextPage = 1
	}
	state.Seen = utils.NewNameSet(state.SeenNames...)
	return &state, nil
}

func (f *FileCheckpointer) Save(state *RunState) error {
	if state.Seen != nil {
		state.SeenNames = state.Seen.Names()
	}
	state.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: encode: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("checkpoint: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("checkpoint: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("checkpoint: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("checkpoint: rename: %w", err)
	}
	return nil
}
