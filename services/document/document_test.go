package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflow-sdk/pkg/workflowerr"
	"workflow-sdk/services/document"
)

const sampleDoc = `{
	"name": "demo",
	"meta": {"author": "me"},
	"nodes": {
		"n1": {"type": "string_node", "inputs": {"text": {"value": "hi"}}}
	},
	"edges": [{"from": "n1", "to": "n2"}],
	"form": {
		"type": "container",
		"children": [
			{"type": "node-field", "nodeId": "n1", "fieldName": "text", "label": "Text"}
		]
	}
}`

func TestLoad_Success(t *testing.T) {
	t.Parallel()

	snap, err := document.Load([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "demo", snap.Meta.Name)
	assert.Contains(t, snap.Nodes, "n1")
	assert.Len(t, snap.Edges, 1)
	require.NotNil(t, snap.Form)
	assert.Len(t, snap.Form.Children, 1)
}

func TestLoad_MissingRequiredSection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"missing nodes", `{"edges":[],"form":{}}`},
		{"missing edges", `{"nodes":{},"form":{}}`},
		{"missing form", `{"nodes":{},"edges":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := document.Load([]byte(tt.doc))
			require.Error(t, err)
			assert.IsType(t, &workflowerr.MalformedWorkflowError{}, err)
		})
	}
}
