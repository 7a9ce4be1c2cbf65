// Package submission implements the Submission Builder (§4.E): it
// deep-copies the Workflow Snapshot, substitutes each input's serialized
// value at its recorded path reference, and extracts the reduced
// execution graph the server's queue endpoint expects.
package submission

import (
	"encoding/json"
	"fmt"

	"workflow-sdk/services/discovery"
	"workflow-sdk/services/document"
)

// guiOnlyNodeTypes never reach the server; they exist only to annotate
// the canvas (mirrors the teacher's form/GUI-only split between
// buildNodeJSONs and executeWorkflow).
var guiOnlyNodeTypes = map[string]bool{
	"notes":   true,
	"divider": true,
}

// Result is the product of a successful Build: the substituted document
// copy and the reduced graph ready for the queue envelope.
type Result struct {
	WorkflowCopy json.RawMessage
	Graph        json.RawMessage
}

// Envelope is the prepend-plus-batch request shape for the server's
// queue endpoint (§6 "Queue request envelope"). Nothing in the SDK sends
// it: HTTPTransport.EnqueueBatch posts a flat {workflow, graph, runs,
// priority} object instead.
type Envelope struct {
	Prepend bool  `json:"prepend"`
	Batch   Batch `json:"batch"`
}

type Batch struct {
	Workflow    json.RawMessage `json:"workflow"`
	Graph       json.RawMessage `json:"graph"`
	Runs        int             `json:"runs"`
	Data        []any           `json:"data"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
}

// Build deep-copies snap, substitutes every descriptor whose Field
// currently holds a value at its precomputed PathRef, and returns both
// the substituted document copy and the reduced execution graph.
//
// Substitution never inserts or removes a key (I4): it resolves down to
// the node's "inputs.<field>" slot and overwrites either that slot
// directly (scalar shape) or its "value" sub-key (object shape,
// {"value": ..., ...} — the common GUI-authored shape). Edge-connected
// inputs still get their literal written (I5, P6): Build does not
// consult Edges at all, only the descriptor list.
func Build(snap *document.Snapshot, descriptors []discovery.Descriptor) (*Result, error) {
	top, err := document.ParseOrderedObject(snap.Source)
	if err != nil {
		return nil, fmt.Errorf("submission: parse document: %w", err)
	}

	nodesRaw, ok := top.Values["nodes"]
	if !ok {
		return nil, fmt.Errorf("submission: document has no nodes section")
	}
	nodesObj, err := document.ParseOrderedObject(nodesRaw)
	if err != nil {
		return nil, fmt.Errorf("submission: parse nodes: %w", err)
	}

	touchedNodes := make(map[string]*document.OrderedObject)

	for _, d := range descriptors {
		apiVal, err := d.Field.ToAPI()
		if err != nil {
			return nil, fmt.Errorf("submission: serialize input %d (%s.%s): %w", d.InputIndex, d.NodeID, d.FieldName, err)
		}
		if apiVal == nil {
			continue // no value set: leave the slot untouched
		}

		nodeObj, ok := touchedNodes[d.PathRef.NodeID]
		if !ok {
			raw, ok := nodesObj.Values[d.PathRef.NodeID]
			if !ok {
				return nil, fmt.Errorf("submission: path_ref references missing node %q", d.PathRef.NodeID)
			}
			parsed, err := document.ParseOrderedObject(raw)
			if err != nil {
				return nil, fmt.Errorf("submission: parse node %q: %w", d.PathRef.NodeID, err)
			}
			nodeObj = parsed
			touchedNodes[d.PathRef.NodeID] = nodeObj
		}

		if err := substituteField(nodeObj, d.PathRef.FieldName, apiVal); err != nil {
			return nil, fmt.Errorf("submission: input %d (%s.%s): %w", d.InputIndex, d.NodeID, d.FieldName, err)
		}
	}

	for nodeID, nodeObj := range touchedNodes {
		raw, err := nodeObj.Marshal()
		if err != nil {
			return nil, fmt.Errorf("submission: marshal node %q: %w", nodeID, err)
		}
		nodesObj.Values[nodeID] = raw
	}

	nodesRawFinal, err := nodesObj.Marshal()
	if err != nil {
		return nil, fmt.Errorf("submission: marshal nodes: %w", err)
	}
	if !top.SetExisting("nodes", nodesRawFinal) {
		return nil, fmt.Errorf("submission: document has no nodes key to update")
	}

	workflowCopy, err := top.Marshal()
	if err != nil {
		return nil, fmt.Errorf("submission: marshal document copy: %w", err)
	}

	graph, err := buildGraph(nodesObj, snap.Edges)
	if err != nil {
		return nil, fmt.Errorf("submission: build execution graph: %w", err)
	}

	return &Result{WorkflowCopy: workflowCopy, Graph: graph}, nil
}

// substituteField overwrites the value-bearing slot for fieldName
// inside a node's inputs object, matching keys and never introducing
// new ones (I4).
func substituteField(nodeObj *document.OrderedObject, fieldName string, apiVal json.RawMessage) error {
	inputsRaw, ok := nodeObj.Values["inputs"]
	if !ok {
		return fmt.Errorf("node has no inputs section")
	}
	inputsObj, err := document.ParseOrderedObject(inputsRaw)
	if err != nil {
		return fmt.Errorf("parse inputs: %w", err)
	}

	fieldRaw, ok := inputsObj.Values[fieldName]
	if !ok {
		return fmt.Errorf("field %q not present in inputs", fieldName)
	}

	if looksLikeObject(fieldRaw) {
		fieldObj, err := document.ParseOrderedObject(fieldRaw)
		if err != nil {
			return fmt.Errorf("parse field %q: %w", fieldName, err)
		}
		if fieldObj.SetExisting("value", apiVal) {
			newRaw, err := fieldObj.Marshal()
			if err != nil {
				return fmt.Errorf("marshal field %q: %w", fieldName, err)
			}
			inputsObj.Values[fieldName] = newRaw
		} else {
			// Object shape without a "value" key: the slot itself is the
			// addressed value; overwrite it directly rather than inventing
			// a new key.
			inputsObj.Values[fieldName] = apiVal
		}
	} else {
		inputsObj.Values[fieldName] = apiVal
	}

	newInputsRaw, err := inputsObj.Marshal()
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}
	nodeObj.Values["inputs"] = newInputsRaw
	return nil
}

func looksLikeObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

// buildGraph strips the form/GUI-only sections and retains nodes keyed
// by id with their post-substitution inputs, plus the edges list, per
// §4.E step 3.
func buildGraph(nodesObj *document.OrderedObject, edges []document.Edge) (json.RawMessage, error) {
	graphNodes := make(map[string]json.RawMessage, len(nodesObj.Keys))
	for _, id := range nodesObj.Keys {
		raw := nodesObj.Values[id]
		var parsed struct {
			Type   string          `json:"type"`
			Inputs json.RawMessage `json:"inputs"`
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("parse node %q for graph: %w", id, err)
		}
		if guiOnlyNodeTypes[parsed.Type] {
			continue
		}
		graphNodes[id] = raw
	}

	return json.Marshal(struct {
		Nodes map[string]json.RawMessage `json:"nodes"`
		Edges []document.Edge            `json:"edges"`
	}{Nodes: graphNodes, Edges: edges})
}

// AssertKeySetsPreserved is the debug-build guard from the design notes:
// it compares the key sets of an object before and after substitution
// and reports any divergence. Exercised by tests, not called in the hot
// path (callers that want the check wire it into their own test suite).
func AssertKeySetsPreserved(before, after *document.OrderedObject) error {
	bs, as := before.KeySet(), after.KeySet()
	if len(bs) != len(as) {
		return fmt.Errorf("submission: key set size changed: %d -> %d", len(bs), len(as))
	}
	for k := range bs {
		if !as[k] {
			return fmt.Errorf("submission: key %q missing after substitution", k)
		}
	}
	for k := range as {
		if !bs[k] {
			return fmt.Errorf("submission: unexpected new key %q after substitution", k)
		}
	}
	return nil
}
