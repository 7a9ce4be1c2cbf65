// Package fields implements the Field Type Registry: the catalogue of
// recognized semantic input kinds, each with validation rules and
// wire serialization, plus the open-ended classification table that
// decides which kind applies to a given (node-type, field-name) triple.
//
// Adding a new kind means registering a new (detector, constructor)
// pair; no existing discovery or field code changes (I6).
package fields

import (
	"encoding/json"
	"fmt"
)

// Triple is the classification input: everything the registry needs to
// decide which Field kind a form leaf should get.
type Triple struct {
	NodeType  string
	FieldName string
	// Metadata is the node schema's raw declaration for this field
	// (e.g. {"type": "integer", "minimum": 0}), when the document
	// exposes one. May be nil.
	Metadata json.RawMessage
}

// Field is the typed wrapper for a single input's value and validation.
// Its concrete Go type never changes after creation (I3); callers treat
// the ordered Input Descriptor list as the canonical collection and
// operate on Fields by capability, never by concrete type (design note).
type Field interface {
	// Kind is a stable tag identifying the concrete variant, used by the
	// index map (type_tag) for drift detection.
	Kind() string
	// Validate checks the field's current value against its declared
	// constraints. An unset value on a non-required field is always valid.
	Validate() error
	// ToAPI serializes the current value to the opaque JSON form the
	// server expects at the field's value slot. Returns (nil, nil) when
	// no value has been set (submission then leaves the slot untouched).
	ToAPI() (json.RawMessage, error)
	// FromAPI deserializes a server-shaped JSON value into the field,
	// replacing its current value.
	FromAPI(json.RawMessage) error
	// Describe returns a short human-readable summary of the field's
	// kind and constraints, used by inspection tooling.
	Describe() string
}

// requiredChecker is the optional interface through which a Field reports
// whether a value has been assigned to it; HasValue below consults it.
// Fields that do not implement it are treated as always holding a value.
type requiredChecker interface {
	HasValue() bool
}

// HasValue reports whether f currently holds an assigned value, used by
// validate_all (§4.D) to flag required-but-empty inputs. Fields that do
// not implement requiredChecker are treated as always having a value.
func HasValue(f Field) bool {
	if rc, ok := f.(requiredChecker); ok {
		return rc.HasValue()
	}
	return true
}

// unresolvedKind is the tag Registry.Describe reports when no detector
// matches. The fallback Field that Classify constructs in that case is a
// StringField whose Kind() is "string", flagged by its Unresolved field.
const unresolvedKind = "unresolved"

func typeMismatch(kind string, got any) error {
	return fmt.Errorf("fields: value %v is not valid for kind %s", got, kind)
}
