package fields

import (
	"encoding/json"
	"fmt"
)

// ModelIdentifier is the compound value a ModelField carries: enough to
// uniquely address one installed model on the server.
type ModelIdentifier struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Base string `json:"base"`
	Type string `json:"type"`
}

// ModelField references an installed model by compound identifier.
type ModelField struct {
	value       *ModelIdentifier
	AllowedBase []string
}

func registerModelField(r *Registry) {
	r.Register(10, "model", func(t Triple) bool {
		return metaFieldType(t.Metadata) == "model"
	}, func(t Triple) (Field, error) {
		var meta struct {
			Base []string `json:"allowedBase"`
		}
		if err := unmarshalMeta(t.Metadata, &meta); err != nil {
			return nil, err
		}
		return &ModelField{AllowedBase: meta.Base}, nil
	})
}

func (f *ModelField) Kind() string   { return "model" }
func (f *ModelField) HasValue() bool { return f.value != nil }

func (f *ModelField) Set(v ModelIdentifier) { f.value = &v }
func (f *ModelField) Value() (ModelIdentifier, bool) {
	if f.value == nil {
		return ModelIdentifier{}, false
	}
	return *f.value, true
}

func (f *ModelField) Validate() error {
	if f.value == nil {
		return nil
	}
	if f.value.Key == "" {
		return fmt.Errorf("model field: missing key")
	}
	if len(f.AllowedBase) == 0 {
		return nil
	}
	for _, b := range f.AllowedBase {
		if b == f.value.Base {
			return nil
		}
	}
	return fmt.Errorf("model base %q not in allowed set %v", f.value.Base, f.AllowedBase)
}

func (f *ModelField) ToAPI() (json.RawMessage, error) {
	if f.value == nil {
		return nil, nil
	}
	return json.Marshal(*f.value)
}

func (f *ModelField) FromAPI(raw json.RawMessage) error {
	var v ModelIdentifier
	if err := json.Unmarshal(raw, &v); err != nil {
		return typeMismatch(f.Kind(), string(raw))
	}
	f.value = &v
	return nil
}

func (f *ModelField) Describe() string {
	return fmt.Sprintf("model(allowedBase=%v)", f.AllowedBase)
}
