package fields

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// IntField is a bounded integer input (e.g. width, height, steps).
type IntField struct {
	value    *int64
	Min, Max *int64
}

func registerIntField(r *Registry) {
	r.Register(0, "integer", func(t Triple) bool {
		return metaFieldType(t.Metadata) == "integer"
	}, func(t Triple) (Field, error) {
		var meta struct {
			Minimum *int64 `json:"minimum"`
			Maximum *int64 `json:"maximum"`
		}
		if err := unmarshalMeta(t.Metadata, &meta); err != nil {
			return nil, err
		}
		return &IntField{Min: meta.Minimum, Max: meta.Maximum}, nil
	})
}

func (f *IntField) Kind() string   { return "integer" }
func (f *IntField) HasValue() bool { return f.value != nil }

func (f *IntField) Set(v int64) { f.value = &v }
func (f *IntField) Value() (int64, bool) {
	if f.value == nil {
		return 0, false
	}
	return *f.value, true
}

func (f *IntField) Validate() error {
	if f.value == nil {
		return nil
	}
	tag := ""
	if f.Min != nil {
		tag += fmt.Sprintf("min=%d", *f.Min)
	}
	if f.Max != nil {
		if tag != "" {
			tag += ","
		}
		tag += fmt.Sprintf("max=%d", *f.Max)
	}
	if tag == "" {
		return nil
	}
	if err := validate.Var(*f.value, tag); err != nil {
		return fmt.Errorf("integer value %d out of bounds: %w", *f.value, err)
	}
	return nil
}

func (f *IntField) ToAPI() (json.RawMessage, error) {
	if f.value == nil {
		return nil, nil
	}
	return json.Marshal(*f.value)
}

func (f *IntField) FromAPI(raw json.RawMessage) error {
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		return typeMismatch(f.Kind(), string(raw))
	}
	f.value = &v
	return nil
}

func (f *IntField) Describe() string {
	return fmt.Sprintf("integer(min=%v, max=%v)", derefInt(f.Min), derefInt(f.Max))
}

func derefInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
