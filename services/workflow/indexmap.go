package workflow

import "workflow-sdk/services/discovery"

// IndexEntry identifies one input's position and classification at the
// time an index map was exported (§4.D "export_index_map").
type IndexEntry struct {
	NodeID    string
	FieldName string
	TypeTag   string
}

// IndexMap snapshots InputIndex -> IndexEntry for drift detection across
// document revisions.
type IndexMap map[int]IndexEntry

// ExportIndexMap captures the current descriptor list's index assignment
// for later comparison via VerifyAgainst.
func (h *Handle) ExportIndexMap() IndexMap {
	m := make(IndexMap, len(h.descriptors))
	for _, d := range h.descriptors {
		m[d.InputIndex] = IndexEntry{NodeID: d.NodeID, FieldName: d.FieldName, TypeTag: discovery.TypeTag(d.Field)}
	}
	return m
}

// Drift classifies how this Handle's current index assignment differs
// from a previously exported one, identifying inputs by (node id, field
// name) rather than by index, since discovery order can shift across
// document revisions (P4, P5).
type Drift struct {
	Unchanged []int // same index in both maps
	Moved     []int // present in both, but at a different index now
	Missing   []int // present in old, absent from the current map
	New       []int // present now, absent from old
}

// VerifyAgainst compares old against the Handle's current index map and
// returns the classification. Indices in Moved, Missing, and New refer
// to the CURRENT map's indices, except entries unique to Missing which
// have no current index and are reported by their old index instead.
func (h *Handle) VerifyAgainst(old IndexMap) Drift {
	current := h.ExportIndexMap()

	type key struct{ nodeID, field string }
	oldByKey := make(map[key]int, len(old))
	for idx, e := range old {
		oldByKey[key{e.NodeID, e.FieldName}] = idx
	}

	seen := make(map[key]bool, len(current))
	var drift Drift
	for idx, e := range current {
		k := key{e.NodeID, e.FieldName}
		seen[k] = true
		oldIdx, ok := oldByKey[k]
		switch {
		case !ok:
			drift.New = append(drift.New, idx)
		case oldIdx == idx:
			drift.Unchanged = append(drift.Unchanged, idx)
		default:
			drift.Moved = append(drift.Moved, idx)
		}
	}

	for idx, e := range old {
		k := key{e.NodeID, e.FieldName}
		if !seen[k] {
			drift.Missing = append(drift.Missing, idx)
		}
	}

	return drift
}
