package fields

import (
	"encoding/json"
	"fmt"
)

// FloatField is a bounded floating point input (e.g. CFG scale, denoise).
type FloatField struct {
	value    *float64
	Min, Max *float64
}

func registerFloatField(r *Registry) {
	r.Register(0, "float", func(t Triple) bool {
		return metaFieldType(t.Metadata) == "float"
	}, func(t Triple) (Field, error) {
		var meta struct {
			Minimum *float64 `json:"minimum"`
			Maximum *float64 `json:"maximum"`
		}
		if err := unmarshalMeta(t.Metadata, &meta); err != nil {
			return nil, err
		}
		return &FloatField{Min: meta.Minimum, Max: meta.Maximum}, nil
	})
}

func (f *FloatField) Kind() string   { return "float" }
func (f *FloatField) HasValue() bool { return f.value != nil }

func (f *FloatField) Set(v float64) { f.value = &v }
func (f *FloatField) Value() (float64, bool) {
	if f.value == nil {
		return 0, false
	}
	return *f.value, true
}

func (f *FloatField) Validate() error {
	if f.value == nil {
		return nil
	}
	if f.Min != nil && *f.value < *f.Min {
		return fmt.Errorf("float value %v below minimum %v", *f.value, *f.Min)
	}
	if f.Max != nil && *f.value > *f.Max {
		return fmt.Errorf("float value %v above maximum %v", *f.value, *f.Max)
	}
	return nil
}

func (f *FloatField) ToAPI() (json.RawMessage, error) {
	if f.value == nil {
		return nil, nil
	}
	return json.Marshal(*f.value)
}

func (f *FloatField) FromAPI(raw json.RawMessage) error {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return typeMismatch(f.Kind(), string(raw))
	}
	f.value = &v
	return nil
}

func (f *FloatField) Describe() string {
	return fmt.Sprintf("float(min=%v, max=%v)", derefFloat(f.Min), derefFloat(f.Max))
}

func derefFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
