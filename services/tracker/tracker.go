// Package tracker implements the Execution Tracker (§4.F): it correlates
// a submitted batch with queue/session updates, yields status
// transitions, and maps completed output-node results back to asset
// references.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"workflow-sdk/pkg/clients/eventchannel"
	"workflow-sdk/pkg/clients/transport"
	"workflow-sdk/pkg/workflowerr"
)

// Status is the lifecycle state of one tracked batch (§4.F).
type Status string

const (
	StatusEnqueued   Status = "enqueued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
	StatusTimeout    Status = "timeout"
)

// EventMode selects how the tracker drives itself (§6 "event_mode").
type EventMode string

const (
	ModePolling      EventMode = "polling"
	ModeSubscription EventMode = "subscription"
	ModeAuto         EventMode = "auto"
)

// OutputNode is the information the tracker needs to classify and
// correlate one output or debug node's results (§3 Output-Node
// Descriptor).
type OutputNode struct {
	NodeID     string
	NodeType   string
	OutputType string // the node's declared output kind, e.g. "images"
	Debug      bool
}

// AssetRef is deliberately abstract (design note (c)): a named asset of
// some kind, not necessarily an image — masks/latents can be added
// later without changing the tracker's signature.
type AssetRef struct {
	Name string
	Kind string
}

// Options configures a Tracker's drive behavior.
type Options struct {
	Mode             EventMode
	PollIntervalInit time.Duration
	PollIntervalMax  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModePolling
	}
	if o.PollIntervalInit <= 0 {
		o.PollIntervalInit = 500 * time.Millisecond
	}
	if o.PollIntervalMax <= 0 {
		o.PollIntervalMax = 10 * time.Second
	}
	return o
}

// Tracker tracks one submitted batch through to completion. A single
// Tracker is not safe for concurrent mutation of its own lifecycle
// (Cancel/Wait should be called from one owning goroutine), matching the
// not-thread-safe-for-mutation rule the spec applies to the Workflow
// Handle (§5); the underlying Transport IS safe for concurrent use by
// independent trackers.
type Tracker struct {
	transport transport.Transport
	channel   eventchannel.Channel
	opts      Options

	batchID    string
	sessionIDs []string
	outputs    map[string]OutputNode // by node id

	mu        sync.Mutex
	status    Status
	sessions  map[string]*transport.SessionState
	err       error
	done      chan struct{}
	cancelCtx context.CancelFunc
}

// New constructs a Tracker for a batch that was already enqueued.
// outputNodes keys by node id and includes both output and debug nodes
// so the debug accessor can serve results without a second classification
// pass.
func New(tr transport.Transport, ch eventchannel.Channel, batchID string, sessionIDs []string, outputNodes map[string]OutputNode, opts Options) *Tracker {
	return &Tracker{
		transport:  tr,
		channel:    ch,
		opts:       opts.withDefaults(),
		batchID:    batchID,
		sessionIDs: sessionIDs,
		outputs:    outputNodes,
		status:     StatusEnqueued,
		sessions:   make(map[string]*transport.SessionState, len(sessionIDs)),
		done:       make(chan struct{}),
	}
}

// Start begins driving the tracker toward completion in the background.
// It returns immediately; use Wait to block for a terminal state. Start
// must be called at most once per Tracker.
func (t *Tracker) Start(ctx context.Context) {
	driveCtx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancelCtx = cancel
	t.mu.Unlock()

	go t.drive(driveCtx)
}

func (t *Tracker) drive(ctx context.Context) {
	defer close(t.done)

	mode := t.opts.Mode
	if mode == ModeAuto {
		if t.channel != nil {
			mode = ModeSubscription
		} else {
			mode = ModePolling
		}
	}
	if t.channel == nil {
		mode = ModePolling
	}

	var err error
	switch mode {
	case ModeSubscription:
		err = t.driveSubscription(ctx)
		if err != nil && t.channel != nil {
			slog.Warn("tracker: event channel failed, falling back to polling", "error", err)
			err = t.drivePolling(ctx)
		}
	default:
		err = t.drivePolling(ctx)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusCanceled {
		return
	}
	if err != nil {
		if ctx.Err() != nil {
			t.status = StatusTimeout
			t.err = &workflowerr.TimeoutError{}
		} else {
			t.status = StatusFailed
			t.err = err
		}
		return
	}
	t.status = t.aggregateStatusLocked()
}

// Status returns the tracker's current status.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Wait blocks until the tracker reaches a terminal state or ctx is done,
// whichever comes first, and returns the terminal status.
func (t *Tracker) Wait(ctx context.Context) (Status, error) {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.status, t.err
	case <-ctx.Done():
		return StatusTimeout, &workflowerr.TimeoutError{}
	}
}

// Cancel issues the server cancel for the batch and resolves the tracker
// to Cancelled once acknowledged. The server-side job is not implicitly
// cancelled by a submit_sync timeout — only an explicit Cancel call does
// this (§4.F, §5).
func (t *Tracker) Cancel(ctx context.Context) error {
	if err := t.transport.CancelBatch(ctx, t.batchID); err != nil {
		return fmt.Errorf("tracker: cancel batch %s: %w", t.batchID, err)
	}

	t.mu.Lock()
	t.status = StatusCanceled
	t.err = &workflowerr.CancelledError{}
	cancelFn := t.cancelCtx
	t.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
	}
	return nil
}

func (t *Tracker) aggregateStatusLocked() Status {
	anyFailed, anyCanceled, allCompleted := false, false, true
	for _, sid := range t.sessionIDs {
		s, ok := t.sessions[sid]
		if !ok {
			allCompleted = false
			continue
		}
		switch s.Status {
		case "failed":
			anyFailed = true
		case "canceled":
			anyCanceled = true
		case "completed":
		default:
			allCompleted = false
		}
	}
	switch {
	case anyFailed:
		return StatusFailed
	case anyCanceled:
		return StatusCanceled
	case allCompleted:
		return StatusCompleted
	default:
		return StatusInProgress
	}
}

func (t *Tracker) recordSession(s *transport.SessionState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[s.SessionID] = s
}

// sessionResultsRaw returns the raw results block for a completed
// session, or nil if the session hasn't completed yet.
func (t *Tracker) sessionResultsRaw(sessionID string) json.RawMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[sessionID]
	if !ok {
		return nil
	}
	return s.Results
}
