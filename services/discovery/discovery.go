// Package discovery implements the depth-first traversal of a Snapshot's
// form tree that produces the ordered list of Input Descriptors (§4.C).
package discovery

import (
	"encoding/json"
	"log/slog"

	"workflow-sdk/services/document"
	"workflow-sdk/services/fields"
)

// PathRef is a precomputed structural locator into the snapshot that
// addresses the single value-bearing object for one input (§3). It is
// resolved verbatim at submit time; no path parsing happens there.
type PathRef struct {
	NodeID    string
	FieldName string
}

// Descriptor is one entry produced by discovery, in depth-first order.
type Descriptor struct {
	InputIndex int
	NodeID     string
	FieldName  string
	Label      string
	Required   bool
	PathRef    PathRef
	Field      fields.Field
}

// fieldSchema is the per-field metadata shape found under a node's flat
// inputs map, e.g. {"steps": {"type": "integer", "required": true, ...}}.
type fieldSchema struct {
	Required bool `json:"required"`
}

// nodeMeta captures the node-level attributes discovery reads straight
// off the node's raw object, independent of its inputs map.
type nodeMeta struct {
	Label string `json:"label"`
}

// Discover walks snap.Form depth-first following each container's
// declared child order, resolving every node-field leaf to an Input
// Descriptor. Malformed leaves (missing identifier, dangling node
// reference, unknown field) are logged and skipped, never fatal (§4.C).
// The document's exposedFields list plays no role here — deliberately
// (§4.C) — and is never consulted.
func Discover(snap *document.Snapshot, registry *fields.Registry) []Descriptor {
	var out []Descriptor
	idx := 0
	var walk func(el document.FormElement)
	walk = func(el document.FormElement) {
		switch el.Kind {
		case document.FormElementNodeField:
			d, ok := resolveLeaf(snap, registry, el, idx)
			if !ok {
				return
			}
			out = append(out, d)
			idx++
		case document.FormElementContainer:
			for _, child := range el.Children {
				walk(child)
			}
		default:
			// Other element kinds are passed through; they contribute
			// no inputs but their children, if any, are still visited
			// so nested node-fields are not silently dropped.
			for _, child := range el.Children {
				walk(child)
			}
		}
	}
	if snap.Form != nil {
		walk(*snap.Form)
	}
	return out
}

func resolveLeaf(snap *document.Snapshot, registry *fields.Registry, el document.FormElement, idx int) (Descriptor, bool) {
	if el.NodeID == "" || el.FieldName == "" {
		slog.Warn("discovery: skipping malformed form leaf", "reason", "missing-identifier", "label", el.Label)
		return Descriptor{}, false
	}

	node, ok := snap.Nodes[el.NodeID]
	if !ok {
		slog.Warn("discovery: skipping form leaf", "reason", "dangling-node", "nodeId", el.NodeID, "field", el.FieldName)
		return Descriptor{}, false
	}

	fieldMeta, ok := fieldMetadata(node.Inputs, el.FieldName)
	if !ok {
		slog.Warn("discovery: skipping form leaf", "reason", "unknown-field", "nodeId", el.NodeID, "field", el.FieldName)
		return Descriptor{}, false
	}

	field, err := registry.Classify(fields.Triple{
		NodeType:  node.Type,
		FieldName: el.FieldName,
		Metadata:  fieldMeta,
	})
	if err != nil {
		slog.Warn("discovery: skipping form leaf", "reason", "classification-failed", "nodeId", el.NodeID, "field", el.FieldName, "error", err)
		return Descriptor{}, false
	}

	label := el.Label
	if label == "" {
		label = nodeLabel(node.RawNode())
	}
	if label == "" {
		label = el.FieldName
	}

	required := fieldRequired(fieldMeta)

	return Descriptor{
		InputIndex: idx,
		NodeID:     el.NodeID,
		FieldName:  el.FieldName,
		Label:      label,
		Required:   required,
		PathRef:    PathRef{NodeID: el.NodeID, FieldName: el.FieldName},
		Field:      field,
	}, true
}

// fieldMetadata looks up the value-bearing slot for fieldName inside a
// node's flat inputs map ({"<field>": {"type": ..., "value": ...}, ...})
// and returns its metadata bytes verbatim.
func fieldMetadata(inputs json.RawMessage, fieldName string) (json.RawMessage, bool) {
	if len(inputs) == 0 {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(inputs, &m); err != nil {
		return nil, false
	}
	raw, ok := m[fieldName]
	return raw, ok
}

// nodeLabel reads the node's own display label off its raw object, used
// as the fallback when the form leaf doesn't declare one (§4.C step 4).
func nodeLabel(rawNode json.RawMessage) string {
	if len(rawNode) == 0 {
		return ""
	}
	var m nodeMeta
	if err := json.Unmarshal(rawNode, &m); err != nil {
		return ""
	}
	return m.Label
}

// fieldRequired reads the field's own "required" flag out of its raw
// metadata (§4.C step 5). Field metadata that isn't a JSON object (a
// bare scalar value with no declared schema) simply has no required
// flag to read, the same graceful fallback metaFieldType uses.
func fieldRequired(meta json.RawMessage) bool {
	if len(meta) == 0 {
		return false
	}
	var fs fieldSchema
	if err := json.Unmarshal(meta, &fs); err != nil {
		return false
	}
	return fs.Required
}

// TypeTag is the stable classification tag recorded in the index map.
func TypeTag(f fields.Field) string { return f.Kind() }
