// Package transport is the HTTP collaborator the Workflow Handle submits
// batches through and polls for status (§6 "Transport collaborator").
// It is deliberately decoupled from the core's domain types — it moves
// opaque JSON payloads — so the core stays testable against a fake.
package transport

import (
	"context"
	"encoding/json"
)

// SessionState is the server's reported state for one session in a batch.
type SessionState struct {
	SessionID             string          `json:"session_id"`
	Status                string          `json:"status"` // enqueued | in_progress | completed | failed | canceled
	Results                json.RawMessage `json:"results,omitempty"`
	PreparedSourceMapping  json.RawMessage `json:"prepared_source_mapping,omitempty"`
	Error                  string          `json:"error,omitempty"`
}

// QueueStatus summarizes the server's queue occupancy.
type QueueStatus struct {
	Pending   int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed int `json:"completed"`
}

// Transport is satisfied by the production HTTP client and by a fake in
// tests (storage.Storage in the teacher repo is the pattern this
// mirrors: an interface the domain layer depends on, never a concrete
// client).
type Transport interface {
	EnqueueBatch(ctx context.Context, workflow, graph json.RawMessage, runs int, priority int) (batchID string, sessionIDs []string, err error)
	GetSession(ctx context.Context, sessionID string) (*SessionState, error)
	CancelBatch(ctx context.Context, batchID string) error
	GetQueueStatus(ctx context.Context) (*QueueStatus, error)
}
