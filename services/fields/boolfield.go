package fields

import "encoding/json"

// BoolField is a boolean toggle input.
type BoolField struct {
	value *bool
}

func registerBoolField(r *Registry) {
	r.Register(0, "boolean", func(t Triple) bool {
		return metaFieldType(t.Metadata) == "boolean"
	}, func(t Triple) (Field, error) {
		return &BoolField{}, nil
	})
}

func (f *BoolField) Kind() string   { return "boolean" }
func (f *BoolField) HasValue() bool { return f.value != nil }

func (f *BoolField) Set(v bool) { f.value = &v }
func (f *BoolField) Value() (bool, bool) {
	if f.value == nil {
		return false, false
	}
	return *f.value, true
}

func (f *BoolField) Validate() error { return nil }

func (f *BoolField) ToAPI() (json.RawMessage, error) {
	if f.value == nil {
		return nil, nil
	}
	return json.Marshal(*f.value)
}

func (f *BoolField) FromAPI(raw json.RawMessage) error {
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return typeMismatch(f.Kind(), string(raw))
	}
	f.value = &v
	return nil
}

func (f *BoolField) Describe() string { return "boolean" }
