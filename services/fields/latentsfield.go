package fields

import "encoding/json"

// LatentsRef addresses an intermediate latents tensor held server-side.
type LatentsRef struct {
	Name string `json:"latents_name"`
}

// LatentsField references an in-flight latents tensor by name. Out of
// scope for v1 output extraction (design note (c)), but the type exists
// so the wire shape round-trips losslessly when present in a document.
type LatentsField struct {
	value *LatentsRef
}

func registerLatentsField(r *Registry) {
	r.Register(10, "latents", func(t Triple) bool {
		return metaFieldType(t.Metadata) == "latents"
	}, func(t Triple) (Field, error) {
		return &LatentsField{}, nil
	})
}

func (f *LatentsField) Kind() string   { return "latents" }
func (f *LatentsField) HasValue() bool { return f.value != nil }

func (f *LatentsField) Set(v LatentsRef) { f.value = &v }
func (f *LatentsField) Value() (LatentsRef, bool) {
	if f.value == nil {
		return LatentsRef{}, false
	}
	return *f.value, true
}

func (f *LatentsField) Validate() error { return nil }

func (f *LatentsField) ToAPI() (json.RawMessage, error) {
	if f.value == nil {
		return nil, nil
	}
	return json.Marshal(*f.value)
}

func (f *LatentsField) FromAPI(raw json.RawMessage) error {
	var v LatentsRef
	if err := json.Unmarshal(raw, &v); err != nil {
		return typeMismatch(f.Kind(), string(raw))
	}
	f.value = &v
	return nil
}

func (f *LatentsField) Describe() string { return "latents" }
