// Package document loads a workflow document (the server GUI's export
// format) into an in-memory Snapshot. The loader preserves the raw tree
// verbatim; it is the only package allowed to construct a Snapshot.
package document

import (
	"encoding/json"
	"fmt"
	"sort"

	"workflow-sdk/pkg/workflowerr"
)

// Node is an opaque attribute bag for one workflow node. Inputs is kept
// as raw JSON so unknown keys survive round-trips untouched (I1).
type Node struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Inputs   json.RawMessage `json:"inputs"`
	rawNode  json.RawMessage // full node object, preserved for re-serialization
}

// RawNode returns the original node object bytes, unmodified.
func (n Node) RawNode() json.RawMessage { return n.rawNode }

// Edge is an opaque connection between two nodes; the SDK never
// interprets edge fields beyond what the Execution Tracker needs.
type Edge json.RawMessage

// FormElement is one element of the form tree: either a container with
// ordered children, or a node-field leaf. Other kinds are preserved
// verbatim in Raw and contribute no inputs (§3).
type FormElement struct {
	Kind     string          `json:"type"`
	Label    string          `json:"label,omitempty"`
	NodeID   string          `json:"nodeId,omitempty"`
	FieldName string         `json:"fieldName,omitempty"`
	Children []FormElement   `json:"children,omitempty"`
	Raw      json.RawMessage `json:"-"`
}

const (
	FormElementContainer = "container"
	FormElementNodeField = "node-field"
)

// Metadata carries the document's free-form header fields.
type Metadata struct {
	Name    string          `json:"name"`
	Version string          `json:"version,omitempty"`
	Author  string          `json:"author,omitempty"`
	Extra   json.RawMessage `json:"-"`
}

// Snapshot is an immutable, semantic-preserving copy of the source
// document. It is never mutated after Load; submission works against
// per-submission deep copies (see package submission).
type Snapshot struct {
	Nodes    map[string]Node
	NodeKeys []string // node ids in sorted order, for deterministic iteration; submission's key order preservation goes through OrderedObject on the raw source instead
	Edges    []Edge
	Form     *FormElement
	Meta     Metadata

	raw    map[string]json.RawMessage // full top-level key set, for I1 checks
	Source []byte                     // original document bytes, verbatim
}

// Raw returns the original top-level document bytes for key k, or nil
// if the document had no such key.
func (s *Snapshot) Raw(key string) json.RawMessage { return s.raw[key] }

// RawKeys returns the full set of top-level keys the source document had.
func (s *Snapshot) RawKeys() []string {
	keys := make([]string, 0, len(s.raw))
	for k := range s.raw {
		keys = append(keys, k)
	}
	return keys
}

type wireDocument struct {
	Name          string                     `json:"name"`
	Meta          json.RawMessage            `json:"meta"`
	Nodes         map[string]json.RawMessage `json:"nodes"`
	Edges         []json.RawMessage          `json:"edges"`
	Form          json.RawMessage            `json:"form"`
	ExposedFields json.RawMessage            `json:"exposedFields"` // deliberately ignored, see §4.C
}

// Load parses raw workflow document bytes into a Snapshot. It rejects
// documents missing any of the required top-level sections (nodes,
// edges, form) with a MalformedWorkflowError, and otherwise performs no
// mutation beyond assigning each node its parsed Inputs view.
func Load(data []byte) (*Snapshot, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &workflowerr.MalformedWorkflowError{Key: "<root>", Err: err}
	}

	var wire wireDocument
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &workflowerr.MalformedWorkflowError{Key: "<root>", Err: err}
	}

	if _, ok := top["nodes"]; !ok {
		return nil, &workflowerr.MalformedWorkflowError{Key: "nodes"}
	}
	if _, ok := top["edges"]; !ok {
		return nil, &workflowerr.MalformedWorkflowError{Key: "edges"}
	}
	if _, ok := top["form"]; !ok {
		return nil, &workflowerr.MalformedWorkflowError{Key: "form"}
	}

	nodes := make(map[string]Node, len(wire.Nodes))
	keys := make([]string, 0, len(wire.Nodes))
	for id, raw := range wire.Nodes {
		var parsed struct {
			Type   string          `json:"type"`
			Inputs json.RawMessage `json:"inputs"`
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, &workflowerr.MalformedWorkflowError{Key: fmt.Sprintf("nodes.%s", id), Err: err}
		}
		nodes[id] = Node{
			ID:      id,
			Type:    parsed.Type,
			Inputs:  parsed.Inputs,
			rawNode: raw,
		}
		keys = append(keys, id)
	}
	// wire.Nodes is a Go map; its range order is randomized, so node ids
	// are sorted here for deterministic iteration elsewhere in the SDK.
	sort.Strings(keys)

	edges := make([]Edge, 0, len(wire.Edges))
	for _, e := range wire.Edges {
		edges = append(edges, Edge(e))
	}

	form, err := parseForm(wire.Form)
	if err != nil {
		return nil, &workflowerr.MalformedWorkflowError{Key: "form", Err: err}
	}

	meta := Metadata{Name: wire.Name, Extra: wire.Meta}
	if wire.Meta != nil {
		_ = json.Unmarshal(wire.Meta, &meta)
		meta.Extra = wire.Meta
	}

	return &Snapshot{
		Nodes:    nodes,
		NodeKeys: keys,
		Edges:    edges,
		Form:     form,
		Meta:     meta,
		raw:      top,
		Source:   append([]byte(nil), data...),
	}, nil
}

func parseForm(raw json.RawMessage) (*FormElement, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return &FormElement{Kind: FormElementContainer}, nil
	}

	var el struct {
		Type      string            `json:"type"`
		Label     string            `json:"label"`
		NodeID    string            `json:"nodeId"`
		FieldName string            `json:"fieldName"`
		Children  []json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(raw, &el); err != nil {
		return nil, err
	}

	fe := &FormElement{
		Kind:      el.Type,
		Label:     el.Label,
		NodeID:    el.NodeID,
		FieldName: el.FieldName,
		Raw:       raw,
	}
	for _, childRaw := range el.Children {
		child, err := parseForm(childRaw)
		if err != nil {
			return nil, err
		}
		fe.Children = append(fe.Children, *child)
	}
	return fe, nil
}
