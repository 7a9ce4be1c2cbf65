package fields

import (
	"encoding/json"
	"fmt"
)

// EnumField restricts the value to a closed set of strings.
type EnumField struct {
	value   *string
	Options []string
}

func registerEnumField(r *Registry) {
	r.Register(10, "enum", func(t Triple) bool {
		return metaFieldType(t.Metadata) == "enum"
	}, func(t Triple) (Field, error) {
		var meta struct {
			Options []string `json:"options"`
		}
		if err := unmarshalMeta(t.Metadata, &meta); err != nil {
			return nil, err
		}
		return &EnumField{Options: meta.Options}, nil
	})
}

func (f *EnumField) Kind() string   { return "enum" }
func (f *EnumField) HasValue() bool { return f.value != nil }

func (f *EnumField) Set(v string) { f.value = &v }
func (f *EnumField) Value() (string, bool) {
	if f.value == nil {
		return "", false
	}
	return *f.value, true
}

func (f *EnumField) Validate() error {
	if f.value == nil {
		return nil
	}
	for _, opt := range f.Options {
		if opt == *f.value {
			return nil
		}
	}
	return fmt.Errorf("enum value %q not in allowed set %v", *f.value, f.Options)
}

func (f *EnumField) ToAPI() (json.RawMessage, error) {
	if f.value == nil {
		return nil, nil
	}
	return json.Marshal(*f.value)
}

func (f *EnumField) FromAPI(raw json.RawMessage) error {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return typeMismatch(f.Kind(), string(raw))
	}
	f.value = &v
	return nil
}

func (f *EnumField) Describe() string {
	return fmt.Sprintf("enum(options=%v)", f.Options)
}
