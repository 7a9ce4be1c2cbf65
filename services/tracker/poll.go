package tracker

import (
	"context"
	"fmt"
	"time"
)

// backoffState is a minimal exponential backoff: it grows the poll
// interval geometrically while nothing changes and collapses back to
// the initial interval the moment any session's status moves, so a
// batch that finishes quickly isn't held to the max interval from a
// slow start.
type backoffState struct {
	initial, max time.Duration
	current      time.Duration
}

func newBackoffState(initial, max time.Duration) *backoffState {
	return &backoffState{initial: initial, max: max, current: initial}
}

func (b *backoffState) reset() {
	b.current = b.initial
}

func (b *backoffState) next() time.Duration {
	interval := b.current
	b.current = time.Duration(float64(b.current) * 1.6)
	if b.current > b.max {
		b.current = b.max
	}
	return interval
}

// drivePolling repeatedly fetches each session's state until every
// session reaches a terminal status or ctx is done.
func (t *Tracker) drivePolling(ctx context.Context) error {
	bo := newBackoffState(t.opts.PollIntervalInit, t.opts.PollIntervalMax)

	for {
		changed, err := t.pollOnce(ctx)
		if err != nil {
			return err
		}
		if t.allTerminal() {
			return nil
		}
		if changed {
			bo.reset()
		}
		interval := bo.next()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (t *Tracker) pollOnce(ctx context.Context) (changed bool, err error) {
	for _, sid := range t.sessionIDs {
		prev := t.sessionStatus(sid)
		state, err := t.transport.GetSession(ctx, sid)
		if err != nil {
			return changed, fmt.Errorf("tracker: poll session %s: %w", sid, err)
		}
		t.recordSession(state)
		if state.Status != prev {
			changed = true
		}
	}
	return changed, nil
}

func (t *Tracker) sessionStatus(sessionID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[sessionID]; ok {
		return s.Status
	}
	return ""
}

func (t *Tracker) allTerminal() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, sid := range t.sessionIDs {
		s, ok := t.sessions[sid]
		if !ok {
			return false
		}
		switch s.Status {
		case "completed", "failed", "canceled":
		default:
			return false
		}
	}
	return true
}
