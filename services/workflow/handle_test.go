package workflow_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"workflow-sdk/pkg/clients/transport"
	"workflow-sdk/pkg/workflowerr"
	"workflow-sdk/services/document"
	"workflow-sdk/services/fields"
	"workflow-sdk/services/tracker"
	"workflow-sdk/services/workflow"
)

const handleDoc = `{
	"name": "demo",
	"nodes": {
		"n1": {"type": "int_node", "inputs": {"steps": {"type": "integer", "minimum": 1, "maximum": 100, "value": 5}}},
		"out": {"type": "save_image", "inputs": {}}
	},
	"edges": [],
	"form": {
		"type": "container",
		"children": [
			{"type": "node-field", "nodeId": "n1", "fieldName": "steps", "label": "Steps"}
		]
	}
}`

// fakeTransport is an in-memory stand-in for the Transport collaborator,
// used so Handle/Tracker tests never touch the network (mirrors the
// teacher's storagemock pattern: a hand-rolled fake with overridable
// behavior, not a generated mock).
type fakeTransport struct {
	enqueued   int
	cancelled  []string
	enqueueErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (f *fakeTransport) EnqueueBatch(ctx context.Context, workflow, graph json.RawMessage, runs int, priority int) (string, []string, error) {
	if f.enqueueErr != nil {
		return "", nil, f.enqueueErr
	}
	f.enqueued++
	return "batch-1", []string{"sess-1"}, nil
}

func (f *fakeTransport) GetSession(ctx context.Context, sessionID string) (*transport.SessionState, error) {
	return &transport.SessionState{
		SessionID: sessionID,
		Status:    "completed",
		Results:   json.RawMessage(`{"out":{"images":[{"filename":"out.png"}]}}`),
	}, nil
}

func (f *fakeTransport) CancelBatch(ctx context.Context, batchID string) error {
	f.cancelled = append(f.cancelled, batchID)
	return nil
}

func (f *fakeTransport) GetQueueStatus(ctx context.Context) (*transport.QueueStatus, error) {
	return &transport.QueueStatus{}, nil
}

func newHandle(t *testing.T) (*workflow.Handle, *fakeTransport) {
	t.Helper()
	snap, err := document.Load([]byte(handleDoc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	registry := fields.NewRegistry()
	fields.RegisterBuiltins(registry)

	tr := newFakeTransport()
	h, err := workflow.NewHandle(snap, registry, tr, nil, tracker.Options{})
	if err != nil {
		t.Fatalf("NewHandle: %v", err)
	}
	return h, tr
}

func TestHandle_SetInputValue_TypeMismatch(t *testing.T) {
	t.Parallel()
	h, _ := newHandle(t)

	err := h.SetInputValue(0, "not an integer")
	if err == nil {
		t.Fatal("expected type mismatch error")
	}
	if _, ok := err.(*workflowerr.TypeMismatchError); !ok {
		t.Fatalf("expected *workflowerr.TypeMismatchError, got %T: %v", err, err)
	}
}

func TestHandle_SetInputValue_OutOfBoundsFailsValidation(t *testing.T) {
	t.Parallel()
	h, _ := newHandle(t)

	err := h.SetInputValue(0, 1000)
	if err == nil {
		t.Fatal("expected validation error for out-of-bounds value")
	}
}

func TestHandle_UnknownIndex(t *testing.T) {
	t.Parallel()
	h, _ := newHandle(t)

	_, err := h.GetInputValue(99)
	if _, ok := err.(*workflowerr.UnknownInputIndexError); !ok {
		t.Fatalf("expected UnknownInputIndexError, got %T: %v", err, err)
	}
}

func TestHandle_OutputNodes_ClassifiesDebugTaps(t *testing.T) {
	t.Parallel()
	h, _ := newHandle(t)

	outs := h.OutputNodes()
	if len(outs) != 1 {
		t.Fatalf("expected 1 output-capable node, got %d", len(outs))
	}
	if outs[0].NodeID != "out" {
		t.Fatalf("NodeID = %q, want out", outs[0].NodeID)
	}
	if !outs[0].Debug {
		t.Error("the save_image node is never form-exposed in this document, so it should be classified Debug")
	}
}

func TestHandle_IndexMap_DetectsUnchangedAndMissing(t *testing.T) {
	t.Parallel()
	h, _ := newHandle(t)

	old := h.ExportIndexMap()
	old[5] = workflow.IndexEntry{NodeID: "ghost", FieldName: "f", TypeTag: "string"}

	drift := h.VerifyAgainst(old)
	if len(drift.Unchanged) != 1 {
		t.Errorf("expected 1 unchanged input, got %d", len(drift.Unchanged))
	}
	if len(drift.Missing) != 1 || drift.Missing[0] != 5 {
		t.Errorf("expected the ghost entry to be reported missing, got %+v", drift.Missing)
	}
}

func TestHandle_SubmitSync_ReturnsMappedOutputs(t *testing.T) {
	t.Parallel()
	h, tr := newHandle(t)

	trk, status, outputs, err := h.SubmitSync(context.Background(), 2*time.Second, 1)
	if err != nil {
		t.Fatalf("SubmitSync: %v", err)
	}
	if status != tracker.StatusCompleted {
		t.Fatalf("status = %v, want completed", status)
	}
	if tr.enqueued != 1 {
		t.Fatalf("expected exactly one enqueue call, got %d", tr.enqueued)
	}
	// "out" has no form-exposed board field in handleDoc, so it is a debug
	// tap: its asset is served by DebugOutputs, not by the mapped outputs.
	debug := h.DebugOutputs(trk)
	if len(outputs) != 0 || len(debug["out"]) != 1 || debug["out"][0].Name != "out.png" {
		t.Fatalf("outputs = %+v, debug = %+v, want no mapped outputs and out.png under debug node \"out\"", outputs, debug)
	}
}
