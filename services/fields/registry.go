package fields

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"workflow-sdk/pkg/workflowerr"
)

// Detector is a pure predicate over a classification Triple. It must not
// mutate its argument or retain it.
type Detector func(t Triple) bool

// Constructor yields a fresh Field instance seeded with any constraints
// it can infer from the triple's metadata.
type Constructor func(t Triple) (Field, error)

type rule struct {
	priority    int
	seq         int // registration order, for stable tie-breaking
	kind        string
	detect      Detector
	construct   Constructor
}

// Registry owns the set of recognized field kinds and the classification
// rules that decide which kind applies to a given triple. A Registry is
// process-wide by convention but is never a package-level global here —
// callers construct one explicitly (via NewRegistry or RegisterBuiltins)
// so tests can run independently configured registries side by side.
//
// Registration must be serialized by the caller (typically done once at
// startup); Classify is safe for concurrent use once registration has
// stopped, per the read-mostly contract in §5.
type Registry struct {
	mu     sync.RWMutex
	rules  []rule
	seq    int
	strict bool

	// outputCapable marks node types whose Execute produces an asset,
	// independent of whether any field of theirs is form-exposed
	// (condition i of Output-Node classification, §3).
	outputCapable map[string]bool
}

// NewRegistry returns an empty registry. Use RegisterBuiltins to add the
// built-in kinds, or register a fully custom set for an isolated test.
func NewRegistry() *Registry {
	return &Registry{outputCapable: make(map[string]bool)}
}

// SetStrict toggles strict mode: when true, Classify returns an
// UnresolvedFieldError instead of degrading to the string fallback.
// Off by default (open question (a) in the design notes).
func (r *Registry) SetStrict(strict bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strict = strict
}

// Register adds a classification rule. Detectors are evaluated in
// descending priority, then registration order; the first match wins.
func (r *Registry) Register(priority int, kind string, detect Detector, construct Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.rules = append(r.rules, rule{priority: priority, seq: r.seq, kind: kind, detect: detect, construct: construct})
	sort.SliceStable(r.rules, func(i, j int) bool {
		if r.rules[i].priority != r.rules[j].priority {
			return r.rules[i].priority > r.rules[j].priority
		}
		return r.rules[i].seq < r.rules[j].seq
	})
}

// RegisterOutputCapability marks nodeType as asset-producing for the
// purposes of Output-Node classification (condition i, §3). Extension
// point so third parties can add custom save/export node types without
// editing core discovery code (I6).
func (r *Registry) RegisterOutputCapability(nodeType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputCapable[nodeType] = true
}

// IsOutputCapable reports whether nodeType was registered as
// asset-producing.
func (r *Registry) IsOutputCapable(nodeType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.outputCapable[nodeType]
}

// Classify evaluates detectors in rule order and returns a fresh Field
// from the first match. If no detector matches, it returns a generic
// string-like fallback field flagged "unresolved", unless strict mode
// is set, in which case it returns an UnresolvedFieldError.
func (r *Registry) Classify(t Triple) (Field, error) {
	r.mu.RLock()
	rules := r.rules
	strict := r.strict
	r.mu.RUnlock()

	for _, rl := range rules {
		if rl.detect(t) {
			return rl.construct(t)
		}
	}

	if strict {
		return nil, &workflowerr.UnresolvedFieldError{NodeID: t.NodeType, FieldName: t.FieldName}
	}
	return newStringField(t), nil
}

// Describe previews which kind would be assigned to t without
// constructing a Field, for inspection tooling such as
// `workflowctl inspect`.
func (r *Registry) Describe(t Triple) string {
	r.mu.RLock()
	rules := r.rules
	strict := r.strict
	r.mu.RUnlock()

	for _, rl := range rules {
		if rl.detect(t) {
			return rl.kind
		}
	}
	if strict {
		return unresolvedKind + " (strict: would fail)"
	}
	return unresolvedKind
}

// RegisterBuiltins adds the minimum built-in kind set from §4.A:
// integer, float, boolean, string, enum, model identifier, board
// identifier, image reference, latents reference, color, LoRA
// reference, scheduler name. It also seeds the default output-capable
// node-type table for the server's asset-producing node families.
func RegisterBuiltins(r *Registry) {
	registerIntField(r)
	registerFloatField(r)
	registerBoolField(r)
	registerEnumField(r)
	registerModelField(r)
	registerBoardField(r)
	registerImageField(r)
	registerLatentsField(r)
	registerColorField(r)
	registerLoRAField(r)
	registerSchedulerField(r)
	registerStringField(r)

	for _, nt := range []string{"save_image", "l2i", "image_output", "latents_to_image"} {
		r.RegisterOutputCapability(nt)
	}
}

func metaFieldType(meta json.RawMessage) string {
	if len(meta) == 0 {
		return ""
	}
	var m struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(meta, &m); err != nil {
		return ""
	}
	return m.Type
}

func unmarshalMeta(meta json.RawMessage, v any) error {
	if len(meta) == 0 {
		return nil
	}
	if err := json.Unmarshal(meta, v); err != nil {
		return fmt.Errorf("fields: invalid metadata: %w", err)
	}
	return nil
}
