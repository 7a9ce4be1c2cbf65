package tracker_test

import (
	"context"
	"encoding/json"
	"testing"

	"workflow-sdk/pkg/clients/eventchannel"
	"workflow-sdk/pkg/clients/transport"
	"workflow-sdk/services/tracker"
)

type fakeChannel struct {
	events chan eventchannel.Event
}

func (c *fakeChannel) Subscribe(ctx context.Context, sessionID string) (<-chan eventchannel.Event, error) {
	return c.events, nil
}

func TestTracker_SubscriptionMode_DrivesToCompletion(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{events: make(chan eventchannel.Event, 4)}
	st := &stubTransport{state: &transport.SessionState{SessionID: "sess-1", Status: "enqueued"}}

	tr := tracker.New(st, ch, "batch", []string{"sess-1"}, nil, tracker.Options{Mode: tracker.ModeSubscription})
	tr.Start(context.Background())

	ch.events <- eventchannel.Event{Type: eventchannel.EventInvocationStarted}
	payload, _ := json.Marshal(map[string]json.RawMessage{
		"results": json.RawMessage(`{"out":{"images":[{"filename":"x.png"}]}}`),
	})
	ch.events <- eventchannel.Event{Type: eventchannel.EventSessionComplete, Payload: payload}
	close(ch.events)

	status, err := tr.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if status != tracker.StatusCompleted {
		t.Fatalf("status = %v, want completed", status)
	}
}
