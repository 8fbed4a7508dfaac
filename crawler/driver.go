package crawler

import (
	"context"

	"venue-crawler/models"
	"venue-crawler/utils"
)

// DriverConfig bounds a crawl run.
type DriverConfig struct {
	PageRequest

	// MaxPages stops the run after this page number. 0 means no cap.
	MaxPages int
	// MaxEmptyPages stops the run after this many consecutive pages that
	// yielded no accepted sites. 0 disables the check.
	MaxEmptyPages int
	// Resume reloads an unfinished checkpoint instead of starting at page 1.
	Resume bool
}

// Driver fetches pages strictly in sequence, accumulating accepted sites
// until a stop condition is met.
type Driver struct {
	engine     Engine
	cfg        DriverConfig
	checkpoint Checkpointer
	logger     *utils.Logger
}

// NewDriver creates a Driver. checkpoint may be nil.
func NewDriver(engine Engine, cfg DriverConfig, checkpoint Checkpointer, logger *utils.Logger) *Driver {
	if len(cfg.RequiredKeys) == 0 {
		cfg.RequiredKeys = models.FieldNames()
	}
	return &Driver{engine: engine, cfg: cfg, checkpoint: checkpoint, logger: logger}
}

// Run crawls until the no-results marker, a page cap, an empty-page streak
// or cancellation. The returned state always holds everything accepted so
// far; the error is non-nil only when ctx was cancelled.
func (d *Driver) Run(ctx context.Context) (*RunState, error) {
	state := d.initialState()

	for {
		if err := ctx.Err(); err != nil {
			return d.stop(state, StopCancelled), err
		}
		if d.cfg.MaxPages > 0 && state.NextPage > d.cfg.MaxPages {
			d.logger.Info("[crawler] Reached page cap of %d", d.cfg.MaxPages)
			return d.stop(state, StopMaxPages), nil
		}

		page := state.NextPage
		accepted, terminal := FetchPage(ctx, d.engine, page, d.cfg.PageRequest, state.Seen, d.logger)
		if terminal {
			d.logger.Info("[crawler] Page %d reports no results, stopping", page)
			return d.stop(state, StopTerminal), nil
		}
		if len(accepted) == 0 && ctx.Err() != nil {
			// The page was interrupted, not empty: retry it on resume.
			return d.stop(state, StopCancelled), ctx.Err()
		}

		for _, c := range accepted {
			state.Sites = append(state.Sites, models.SiteFromCandidate(c))
		}
		state.NextPage++
		if len(accepted) == 0 {
			state.EmptyStreak++
		} else {
			state.EmptyStreak = 0
		}
		d.save(state)

		d.logger.Info("[crawler] Page %d done, collected %d sites so far", page, len(state.Sites))

		if d.cfg.MaxEmptyPages > 0 && state.EmptyStreak >= d.cfg.MaxEmptyPages {
			d.logger.Warn("[crawler] %d consecutive pages without new sites, stopping", state.EmptyStreak)
			return d.stop(state, StopEmptyPages), nil
		}
	}
}

func (d *Driver) initialState() *RunState {
	fresh := NewRunState(d.cfg.BaseURL, d.cfg.SessionID)
	if !d.cfg.Resume || d.checkpoint == nil {
		return fresh
	}

	state, err := d.checkpoint.Load()
	switch {
	case err != nil:
		d.logger.Warn("[crawler] Could not load checkpoint, starting fresh: %v", err)
		return fresh
	case state == nil:
		d.logger.Info("[crawler] No checkpoint found, starting at page 1")
		return fresh
	case state.Completed:
		d.logger.Info("[crawler] Previous run finished (%s), starting fresh", state.StopReason)
		return fresh
	case state.BaseURL != d.cfg.BaseURL:
		d.logger.Warn("[crawler] Checkpoint is for %s, not %s; starting fresh", state.BaseURL, d.cfg.BaseURL)
		return fresh
	}

	d.logger.Info("[crawler] Resuming at page %d with %d sites already collected",
		state.NextPage, len(state.Sites))
	state.StopReason = ""
	return state
}

func (d *Driver) stop(state *RunState, reason StopReason) *RunState {
	state.StopReason = reason
	state.Completed = reason != StopCancelled
	d.save(state)
	d.logger.Info("[crawler] Crawl stopped (%s) with %d sites", reason, len(state.Sites))
	return state
}

func (d *Driver) save(state *RunState) {
	if d.checkpoint == nil {
		return
	}
	if err := d.checkpoint.Save(state); err != nil {
		d.logger.Warn("[crawler] Checkpoint failed: %v", err)
	}
}
