// Package workflow implements the Workflow Handle (§4.D): the single
// object application code holds for one loaded document. It owns the
// ordered Input Descriptor list, lets callers inspect and mutate input
// values by index, and drives submission and execution tracking.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"workflow-sdk/pkg/clients/eventchannel"
	"workflow-sdk/pkg/clients/transport"
	"workflow-sdk/pkg/workflowerr"
	"workflow-sdk/services/discovery"
	"workflow-sdk/services/document"
	"workflow-sdk/services/fields"
	"workflow-sdk/services/submission"
	"workflow-sdk/services/tracker"
)

// Handle is not safe for concurrent mutation (SetInputValue, Submit):
// callers that share a Handle across goroutines must serialize access
// themselves, matching the teacher's single-owner Service/Storage split.
type Handle struct {
	snap        *document.Snapshot
	registry    *fields.Registry
	descriptors []discovery.Descriptor

	transport   transport.Transport
	channel     eventchannel.Channel
	trackerOpts tracker.Options
}

// NewHandle runs discovery over snap and returns a ready-to-use Handle.
// tr is required; ch may be nil, in which case the tracker always polls
// regardless of trackerOpts.Mode.
func NewHandle(snap *document.Snapshot, registry *fields.Registry, tr transport.Transport, ch eventchannel.Channel, trackerOpts tracker.Options) (*Handle, error) {
	if snap == nil {
		return nil, fmt.Errorf("workflow: snapshot is nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("workflow: registry is nil")
	}
	if tr == nil {
		return nil, fmt.Errorf("workflow: transport is nil")
	}
	return &Handle{
		snap:        snap,
		registry:    registry,
		descriptors: discovery.Discover(snap, registry),
		transport:   tr,
		channel:     ch,
		trackerOpts: trackerOpts,
	}, nil
}

// ListInputs returns the ordered Input Descriptor list produced at
// discovery time. The returned slice is owned by the Handle; callers
// must not mutate it.
func (h *Handle) ListInputs() []discovery.Descriptor {
	return h.descriptors
}

func (h *Handle) descriptorAt(index int) (*discovery.Descriptor, error) {
	for i := range h.descriptors {
		if h.descriptors[i].InputIndex == index {
			return &h.descriptors[i], nil
		}
	}
	return nil, &workflowerr.UnknownInputIndexError{Index: index}
}

// GetInputValue returns the Field currently bound to index. Callers
// interact with it only through the Field interface (design note §4.D):
// never type-assert to a concrete kind.
func (h *Handle) GetInputValue(index int) (fields.Field, error) {
	d, err := h.descriptorAt(index)
	if err != nil {
		return nil, err
	}
	return d.Field, nil
}

// SetInputValue assigns a new native Go value to the input at index. The
// value is round-tripped through the field's own wire decoding (FromAPI),
// so a value that doesn't match the field's kind surfaces as a
// TypeMismatchError rather than a generic decode error, and the field is
// re-validated immediately after assignment.
func (h *Handle) SetInputValue(index int, value any) error {
	d, err := h.descriptorAt(index)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("workflow: marshal input %d value: %w", index, err)
	}

	if err := d.Field.FromAPI(raw); err != nil {
		return &workflowerr.TypeMismatchError{Index: index, Expected: d.Field.Kind(), Got: fmt.Sprintf("%T", value)}
	}

	if err := d.Field.Validate(); err != nil {
		return &workflowerr.ValidationError{Failures: map[int][]string{index: {err.Error()}}}
	}
	return nil
}

// ValidateInput checks one input: a required input with no assigned
// value fails, and any value present is run through the field's own
// Validate.
func (h *Handle) ValidateInput(index int) error {
	d, err := h.descriptorAt(index)
	if err != nil {
		return err
	}
	if d.Required && !fields.HasValue(d.Field) {
		return &workflowerr.ValidationError{Failures: map[int][]string{index: {"required input has no value"}}}
	}
	if err := d.Field.Validate(); err != nil {
		return &workflowerr.ValidationError{Failures: map[int][]string{index: {err.Error()}}}
	}
	return nil
}

// ValidateAll runs ValidateInput over every descriptor and aggregates all
// failures into a single ValidationError, rather than stopping at the
// first one.
func (h *Handle) ValidateAll() error {
	failures := make(map[int][]string)
	for _, d := range h.descriptors {
		if d.Required && !fields.HasValue(d.Field) {
			failures[d.InputIndex] = append(failures[d.InputIndex], "required input has no value")
			continue
		}
		if err := d.Field.Validate(); err != nil {
			failures[d.InputIndex] = append(failures[d.InputIndex], err.Error())
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &workflowerr.ValidationError{Failures: failures}
}

// Submit builds the submission envelope from the current input values
// and enqueues it, starting an Execution Tracker that drives itself in
// the background. runs is the batch run count; priority 0 is normal
// queue priority.
func (h *Handle) Submit(ctx context.Context, runs int) (*tracker.Tracker, error) {
	result, err := submission.Build(h.snap, h.descriptors)
	if err != nil {
		return nil, err
	}

	batchID, sessionIDs, err := h.transport.EnqueueBatch(ctx, result.WorkflowCopy, result.Graph, runs, 0)
	if err != nil {
		return nil, &workflowerr.SubmissionError{Err: err}
	}

	outputs := h.OutputNodes()
	byID := make(map[string]tracker.OutputNode, len(outputs))
	for _, o := range outputs {
		byID[o.NodeID] = o
	}

	tr := tracker.New(h.transport, h.channel, batchID, sessionIDs, byID, h.trackerOpts)
	tr.Start(ctx)
	return tr, nil
}

// SubmitSync submits the workflow and blocks until it completes, the
// timeout elapses, or ctx is cancelled. The server-side job is NOT
// implicitly cancelled on timeout; callers that want that must call the
// returned Tracker's Cancel explicitly (§4.F, §5).
func (h *Handle) SubmitSync(ctx context.Context, timeout time.Duration, runs int) (*tracker.Tracker, tracker.Status, map[string][]tracker.AssetRef, error) {
	tr, err := h.Submit(ctx, runs)
	if err != nil {
		return nil, "", nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, err := tr.Wait(waitCtx)
	if err != nil {
		return tr, status, nil, err
	}
	return tr, status, tr.MapOutputs(), nil
}

// outputKinds maps a node type recognized by the registry's output
// capability table to the result-grouping key the server uses for that
// node's produced assets.
var outputKinds = map[string]string{
	"save_image":       "images",
	"l2i":              "images",
	"image_output":     "images",
	"latents_to_image": "images",
}

// destinationFieldKind is the Field kind that marks a form-exposed
// field as a node's asset destination (§3: "notably the target
// board"). A node is only a surfaced output node when one of its own
// destination fields — not merely any field of the node — is exposed.
const destinationFieldKind = "board"

// OutputNodes classifies nodes per the two conditions from §3: a node
// qualifies if (i) its type is registered asset-producing AND (ii) one
// of its destination fields (a board-kind field) is form-exposed. A
// qualifying asset-producing node whose destination is not form-exposed
// is Debug: it was left on the canvas as an inspection tap, never
// surfaced to the form (P7).
func (h *Handle) OutputNodes() []tracker.OutputNode {
	destinationExposed := make(map[string]bool, len(h.descriptors))
	for _, d := range h.descriptors {
		if d.Field.Kind() == destinationFieldKind {
			destinationExposed[d.NodeID] = true
		}
	}

	var out []tracker.OutputNode
	for _, id := range h.snap.NodeKeys {
		node := h.snap.Nodes[id]
		if !h.registry.IsOutputCapable(node.Type) {
			continue
		}
		out = append(out, tracker.OutputNode{
			NodeID:     id,
			NodeType:   node.Type,
			OutputType: outputKinds[node.Type],
			Debug:      !destinationExposed[id],
		})
	}
	return out
}

// MapOutputs is a convenience wrapper so callers that already hold a
// Tracker don't need to import the tracker package themselves.
func (h *Handle) MapOutputs(tr *tracker.Tracker) map[string][]tracker.AssetRef {
	return tr.MapOutputs()
}

// DebugOutputs exposes results for nodes that were classified Debug —
// supplemental to the core spec, grounded in the reference
// comfy_workflows GetModifiableNodes/debug-tap pattern (see design doc).
func (h *Handle) DebugOutputs(tr *tracker.Tracker) map[string][]tracker.AssetRef {
	return tr.DebugOutputs()
}
