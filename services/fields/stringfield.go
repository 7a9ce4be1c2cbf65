package fields

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// StringField is a free-text input, optionally constrained by a regex.
// It is also the fallback kind the registry constructs when no detector
// matches a triple (flagged via Unresolved).
type StringField struct {
	value      *string
	Pattern    string
	re         *regexp.Regexp
	Unresolved bool
}

func registerStringField(r *Registry) {
	// Lowest priority among built-ins: an explicit "string" declaration
	// still wins over the no-match fallback path in Classify, but any
	// more specific kind (int, enum, model, ...) is tried first.
	r.Register(-1, "string", func(t Triple) bool {
		return metaFieldType(t.Metadata) == "string"
	}, func(t Triple) (Field, error) {
		var meta struct {
			Pattern string `json:"pattern"`
		}
		if err := unmarshalMeta(t.Metadata, &meta); err != nil {
			return nil, err
		}
		f := &StringField{Pattern: meta.Pattern}
		if meta.Pattern != "" {
			re, err := regexp.Compile(meta.Pattern)
			if err != nil {
				return nil, fmt.Errorf("fields: invalid string pattern %q: %w", meta.Pattern, err)
			}
			f.re = re
		}
		return f, nil
	})
}

func newStringField(t Triple) Field {
	return &StringField{Unresolved: true}
}

func (f *StringField) Kind() string   { return "string" }
func (f *StringField) HasValue() bool { return f.value != nil }

func (f *StringField) Set(v string) { f.value = &v }
func (f *StringField) Value() (string, bool) {
	if f.value == nil {
		return "", false
	}
	return *f.value, true
}

func (f *StringField) Validate() error {
	if f.value == nil || f.re == nil {
		return nil
	}
	if !f.re.MatchString(*f.value) {
		return fmt.Errorf("string value %q does not match pattern %q", *f.value, f.Pattern)
	}
	return nil
}

func (f *StringField) ToAPI() (json.RawMessage, error) {
	if f.value == nil {
		return nil, nil
	}
	return json.Marshal(*f.value)
}

func (f *StringField) FromAPI(raw json.RawMessage) error {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return typeMismatch(f.Kind(), string(raw))
	}
	f.value = &v
	return nil
}

func (f *StringField) Describe() string {
	if f.Unresolved {
		return "string(unresolved)"
	}
	if f.Pattern != "" {
		return fmt.Sprintf("string(pattern=%s)", f.Pattern)
	}
	return "string"
}
