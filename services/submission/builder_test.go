package submission_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflow-sdk/services/discovery"
	"workflow-sdk/services/document"
	"workflow-sdk/services/fields"
	"workflow-sdk/services/submission"
)

const submissionDoc = `{
	"name": "demo",
	"nodes": {
		"n1": {"type": "int_node", "inputs": {"steps": {"type": "integer", "value": 5, "label": "Steps"}}},
		"n2": {"type": "string_node", "inputs": {"prompt": "hello"}},
		"n3": {"type": "notes", "inputs": {}}
	},
	"edges": [{"from": "n1", "to": "n2"}],
	"form": {
		"type": "container",
		"children": [
			{"type": "node-field", "nodeId": "n1", "fieldName": "steps"},
			{"type": "node-field", "nodeId": "n2", "fieldName": "prompt"}
		]
	}
}`

func buildDescriptors(t *testing.T) (*document.Snapshot, []discovery.Descriptor) {
	t.Helper()
	snap, err := document.Load([]byte(submissionDoc))
	require.NoError(t, err)
	registry := fields.NewRegistry()
	fields.RegisterBuiltins(registry)
	return snap, discovery.Discover(snap, registry)
}

func unmarshalNodes(t *testing.T, raw json.RawMessage) map[string]json.RawMessage {
	t.Helper()
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	var nodes map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["nodes"], &nodes))
	return nodes
}

func TestBuild_SubstitutesValueKeyShapeWithoutAddingKeys(t *testing.T) {
	t.Parallel()

	snap, descs := buildDescriptors(t)
	require.NoError(t, descs[0].Field.FromAPI(json.RawMessage(`42`)))

	result, err := submission.Build(snap, descs)
	require.NoError(t, err)

	nodes := unmarshalNodes(t, result.WorkflowCopy)
	var n1 struct {
		Inputs struct {
			Steps struct {
				Value int    `json:"value"`
				Label string `json:"label"`
				Type  string `json:"type"`
			} `json:"steps"`
		} `json:"inputs"`
	}
	require.NoError(t, json.Unmarshal(nodes["n1"], &n1))

	assert.Equal(t, 42, n1.Inputs.Steps.Value)
	assert.Equal(t, "Steps", n1.Inputs.Steps.Label, "substitution must not disturb sibling keys")
}

func TestBuild_SubstitutesScalarShapeDirectly(t *testing.T) {
	t.Parallel()

	snap, descs := buildDescriptors(t)
	require.NoError(t, descs[1].Field.FromAPI(json.RawMessage(`"updated"`)))

	result, err := submission.Build(snap, descs)
	require.NoError(t, err)

	nodes := unmarshalNodes(t, result.WorkflowCopy)
	var n2 struct {
		Inputs struct {
			Prompt string `json:"prompt"`
		} `json:"inputs"`
	}
	require.NoError(t, json.Unmarshal(nodes["n2"], &n2))
	assert.Equal(t, "updated", n2.Inputs.Prompt)
}

func TestBuild_UnsetFieldLeavesSlotUntouched(t *testing.T) {
	t.Parallel()

	snap, descs := buildDescriptors(t)
	// Neither descriptor gets a value assigned.
	result, err := submission.Build(snap, descs)
	require.NoError(t, err)

	nodes := unmarshalNodes(t, result.WorkflowCopy)
	var n2 struct {
		Inputs struct {
			Prompt string `json:"prompt"`
		} `json:"inputs"`
	}
	require.NoError(t, json.Unmarshal(nodes["n2"], &n2))
	assert.Equal(t, "hello", n2.Inputs.Prompt, "original value must be preserved when unset")
}

func TestAssertKeySetsPreserved_DetectsKeyDrift(t *testing.T) {
	t.Parallel()

	before, err := document.ParseOrderedObject(json.RawMessage(`{"a":1,"b":2}`))
	require.NoError(t, err)

	same, err := document.ParseOrderedObject(json.RawMessage(`{"a":9,"b":2}`))
	require.NoError(t, err)
	assert.NoError(t, submission.AssertKeySetsPreserved(before, same))

	dropped, err := document.ParseOrderedObject(json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	assert.Error(t, submission.AssertKeySetsPreserved(before, dropped))

	added, err := document.ParseOrderedObject(json.RawMessage(`{"a":1,"b":2,"c":3}`))
	require.NoError(t, err)
	assert.Error(t, submission.AssertKeySetsPreserved(before, added))
}

func TestBuild_GraphExcludesGUIOnlyNodesAndIncludesEdges(t *testing.T) {
	t.Parallel()

	snap, descs := buildDescriptors(t)
	result, err := submission.Build(snap, descs)
	require.NoError(t, err)

	var graph struct {
		Nodes map[string]json.RawMessage `json:"nodes"`
		Edges []json.RawMessage          `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(result.Graph, &graph))

	assert.NotContains(t, graph.Nodes, "n3", "notes node is GUI-only and must not appear in the execution graph")
	assert.Contains(t, graph.Nodes, "n1")
	assert.Len(t, graph.Edges, 1)
}
