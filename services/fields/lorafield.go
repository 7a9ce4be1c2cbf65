package fields

import "encoding/json"

// LoRARef addresses an installed LoRA model plus its blend weight.
type LoRARef struct {
	Key    string  `json:"key"`
	Weight float64 `json:"weight"`
}

// LoRAField references a LoRA adapter and its blend weight.
type LoRAField struct {
	value *LoRARef
}

func registerLoRAField(r *Registry) {
	r.Register(10, "lora", func(t Triple) bool {
		return metaFieldType(t.Metadata) == "lora"
	}, func(t Triple) (Field, error) {
		return &LoRAField{}, nil
	})
}

func (f *LoRAField) Kind() string   { return "lora" }
func (f *LoRAField) HasValue() bool { return f.value != nil }

func (f *LoRAField) Set(v LoRARef) { f.value = &v }
func (f *LoRAField) Value() (LoRARef, bool) {
	if f.value == nil {
		return LoRARef{}, false
	}
	return *f.value, true
}

func (f *LoRAField) Validate() error { return nil }

func (f *LoRAField) ToAPI() (json.RawMessage, error) {
	if f.value == nil {
		return nil, nil
	}
	return json.Marshal(*f.value)
}

func (f *LoRAField) FromAPI(raw json.RawMessage) error {
	var v LoRARef
	if err := json.Unmarshal(raw, &v); err != nil {
		return typeMismatch(f.Kind(), string(raw))
	}
	f.value = &v
	return nil
}

func (f *LoRAField) Describe() string { return "lora" }
