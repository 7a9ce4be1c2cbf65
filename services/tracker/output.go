package tracker

import (
	"encoding/json"
	"log/slog"
)

// rawOutput is one entry the server reports for a node's results, e.g.
// a produced image. Only the fields the tracker needs are decoded;
// anything else in the server's payload is opaque to it.
type rawOutput struct {
	Filename string `json:"filename"`
}

// MapOutputs correlates completed session results back to the caller's
// output-node descriptors, using a three-tier precedence: a direct
// node-id match in the results, then the server's prepared_source_mapping
// (when the submitted graph renumbered nodes), then a best-effort scan by
// declared output type. Results for debug nodes are excluded; use
// DebugOutputs for those.
func (t *Tracker) MapOutputs() map[string][]AssetRef {
	return t.mapOutputs(false)
}

// DebugOutputs returns results for nodes marked Debug — exposed for
// development/inspection workflows that tap intermediate nodes not
// normally surfaced as final outputs.
func (t *Tracker) DebugOutputs() map[string][]AssetRef {
	return t.mapOutputs(true)
}

func (t *Tracker) mapOutputs(debug bool) map[string][]AssetRef {
	out := make(map[string][]AssetRef)

	for _, sid := range t.sessionIDs {
		raw := t.sessionResultsRaw(sid)
		if raw == nil {
			continue
		}

		var byNode map[string]json.RawMessage
		if err := json.Unmarshal(raw, &byNode); err != nil {
			slog.Warn("tracker: malformed session results, skipping", "sessionId", sid, "error", err)
			continue
		}

		mapping := t.preparedSourceMapping(sid)

		for nodeID, node := range t.outputs {
			if node.Debug != debug {
				continue
			}
			refs := t.resolveNodeOutputs(nodeID, node, byNode, mapping)
			if len(refs) > 0 {
				out[nodeID] = append(out[nodeID], refs...)
			}
		}
	}
	return out
}

func (t *Tracker) preparedSourceMapping(sessionID string) map[string]string {
	t.mu.Lock()
	raw := t.sessions[sessionID]
	t.mu.Unlock()
	if raw == nil || raw.PreparedSourceMapping == nil {
		return nil
	}
	var mapping map[string]string
	if err := json.Unmarshal(raw.PreparedSourceMapping, &mapping); err != nil {
		return nil
	}
	return mapping
}

// resolveNodeOutputs implements the precedence: direct id match first,
// then the prepared-source mapping, then a best-effort scan by declared
// output type. The scan is intentionally last-resort: it can misattribute
// results when two output nodes share the same declared type.
func (t *Tracker) resolveNodeOutputs(nodeID string, node OutputNode, byNode map[string]json.RawMessage, mapping map[string]string) []AssetRef {
	if entries, ok := byNode[nodeID]; ok {
		return decodeOutputs(entries, node.OutputType)
	}

	if mapping != nil {
		if submittedID, ok := mapping[nodeID]; ok {
			if entries, ok := byNode[submittedID]; ok {
				return decodeOutputs(entries, node.OutputType)
			}
		}
	}

	for _, entries := range byNode {
		if refs := decodeOutputs(entries, node.OutputType); len(refs) > 0 {
			return refs
		}
	}
	return nil
}

func decodeOutputs(entries json.RawMessage, wantKind string) []AssetRef {
	var grouped map[string][]rawOutput
	if err := json.Unmarshal(entries, &grouped); err != nil {
		return nil
	}

	var refs []AssetRef
	for kind, items := range grouped {
		for _, item := range items {
			refs = append(refs, AssetRef{Name: item.Filename, Kind: kind})
		}
	}
	if wantKind == "" {
		return refs
	}
	filtered := refs[:0:0]
	for _, r := range refs {
		if r.Kind == wantKind {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
