package fields

import "encoding/json"

// RGBA is an 8-bit-per-channel color value.
type RGBA struct {
	R, G, B, A uint8
}

// ColorField is an RGBA color input.
type ColorField struct {
	value *RGBA
}

func registerColorField(r *Registry) {
	r.Register(10, "color", func(t Triple) bool {
		return metaFieldType(t.Metadata) == "color"
	}, func(t Triple) (Field, error) {
		return &ColorField{}, nil
	})
}

func (f *ColorField) Kind() string   { return "color" }
func (f *ColorField) HasValue() bool { return f.value != nil }

func (f *ColorField) Set(v RGBA) { f.value = &v }
func (f *ColorField) Value() (RGBA, bool) {
	if f.value == nil {
		return RGBA{}, false
	}
	return *f.value, true
}

func (f *ColorField) Validate() error { return nil }

func (f *ColorField) ToAPI() (json.RawMessage, error) {
	if f.value == nil {
		return nil, nil
	}
	return json.Marshal(map[string]uint8{
		"r": f.value.R, "g": f.value.G, "b": f.value.B, "a": f.value.A,
	})
}

func (f *ColorField) FromAPI(raw json.RawMessage) error {
	var v struct{ R, G, B, A uint8 }
	if err := json.Unmarshal(raw, &v); err != nil {
		return typeMismatch(f.Kind(), string(raw))
	}
	f.value = &RGBA{R: v.R, G: v.G, B: v.B, A: v.A}
	return nil
}

func (f *ColorField) Describe() string { return "color(rgba)" }
