package discovery_test

import (
	"testing"

	"workflow-sdk/services/discovery"
	"workflow-sdk/services/document"
	"workflow-sdk/services/fields"
)

const doc = `{
	"name": "demo",
	"nodes": {
		"n1": {"type": "int_node", "inputs": {"steps": {"type": "integer", "minimum": 1, "value": 5}}},
		"n2": {"type": "string_node", "inputs": {"prompt": {"type": "string", "value": "hi"}}},
		"n3": {"type": "int_node", "inputs": {"ghost": {"type": "integer", "value": 1}}}
	},
	"edges": [],
	"form": {
		"type": "container",
		"children": [
			{"type": "container", "children": [
				{"type": "node-field", "nodeId": "n1", "fieldName": "steps", "label": "Steps"},
				{"type": "node-field", "nodeId": "n2", "fieldName": "prompt", "label": "Prompt"}
			]},
			{"type": "node-field", "nodeId": "missing-node", "fieldName": "x"},
			{"type": "node-field", "nodeId": "n1", "fieldName": "no-such-field"}
		]
	}
}`

func TestDiscover_DepthFirstOrderAndSkipsMalformed(t *testing.T) {
	t.Parallel()

	snap, err := document.Load([]byte(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	registry := fields.NewRegistry()
	fields.RegisterBuiltins(registry)

	descs := discovery.Discover(snap, registry)
	if len(descs) != 2 {
		t.Fatalf("expected 2 descriptors (malformed leaves skipped), got %d", len(descs))
	}

	if descs[0].InputIndex != 0 || descs[0].NodeID != "n1" || descs[0].FieldName != "steps" {
		t.Errorf("descriptor[0] = %+v, want n1.steps at index 0", descs[0])
	}
	if descs[1].InputIndex != 1 || descs[1].NodeID != "n2" || descs[1].FieldName != "prompt" {
		t.Errorf("descriptor[1] = %+v, want n2.prompt at index 1", descs[1])
	}

	if descs[0].Field.Kind() != "integer" {
		t.Errorf("descs[0].Field.Kind() = %q, want integer", descs[0].Field.Kind())
	}
	if descs[0].Required {
		t.Error("n1.steps has no required declaration in its node schema, want Required=false")
	}

	if descs[0].PathRef.NodeID != "n1" || descs[0].PathRef.FieldName != "steps" {
		t.Errorf("PathRef = %+v, want {n1 steps}", descs[0].PathRef)
	}
}

func TestDiscover_EmptyFormYieldsNoDescriptors(t *testing.T) {
	t.Parallel()

	snap, err := document.Load([]byte(`{"name":"x","nodes":{},"edges":[],"form":null}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	registry := fields.NewRegistry()
	fields.RegisterBuiltins(registry)

	if descs := discovery.Discover(snap, registry); len(descs) != 0 {
		t.Fatalf("expected 0 descriptors, got %d", len(descs))
	}
}
