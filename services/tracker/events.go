package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"workflow-sdk/pkg/clients/eventchannel"
	"workflow-sdk/pkg/clients/transport"
)

type sessionEvent struct {
	sessionID string
	event     eventchannel.Event
}

// driveSubscription subscribes to every session's event stream and
// updates tracker state as events arrive, in delivery order per session
// (§5). It returns once every session reaches a terminal status, or an
// error if a subscription could not be established.
func (t *Tracker) driveSubscription(ctx context.Context) error {
	fanIn := make(chan sessionEvent, 32)
	var wg sync.WaitGroup

	for _, sid := range t.sessionIDs {
		events, err := t.channel.Subscribe(ctx, sid)
		if err != nil {
			return fmt.Errorf("tracker: subscribe session %s: %w", sid, err)
		}
		wg.Add(1)
		go func(sessionID string, events <-chan eventchannel.Event) {
			defer wg.Done()
			for ev := range events {
				select {
				case fanIn <- sessionEvent{sessionID: sessionID, event: ev}:
				case <-ctx.Done():
					return
				}
			}
		}(sid, events)
	}

	go func() {
		wg.Wait()
		close(fanIn)
	}()

	for {
		select {
		case se, ok := <-fanIn:
			if !ok {
				if t.allTerminal() {
					return nil
				}
				return fmt.Errorf("tracker: event streams closed before all sessions reached a terminal state")
			}
			t.applyEvent(se.sessionID, se.event)
			if t.allTerminal() {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (t *Tracker) applyEvent(sessionID string, ev eventchannel.Event) {
	status := t.sessionStatus(sessionID)
	if status == "" {
		status = "enqueued"
	}

	var results json.RawMessage
	var mapping json.RawMessage

	switch ev.Type {
	case eventchannel.EventInvocationStarted:
		status = "in_progress"
	case eventchannel.EventInvocationComplete:
		status = "in_progress"
	case eventchannel.EventSessionComplete:
		status = "completed"
		var payload struct {
			Results               json.RawMessage `json:"results"`
			PreparedSourceMapping json.RawMessage `json:"prepared_source_mapping"`
		}
		if err := json.Unmarshal(ev.Payload, &payload); err == nil {
			results = payload.Results
			mapping = payload.PreparedSourceMapping
		}
	case eventchannel.EventSessionCanceled:
		status = "canceled"
	case eventchannel.EventInvocationError:
		status = "failed"
	}

	t.recordSession(&transport.SessionState{
		SessionID:             sessionID,
		Status:                status,
		Results:               results,
		PreparedSourceMapping: mapping,
	})
}
