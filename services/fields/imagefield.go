package fields

import "encoding/json"

// ImageRef addresses a previously generated or uploaded image by name.
type ImageRef struct {
	Name string `json:"image_name"`
}

// ImageField references an image asset by name.
type ImageField struct {
	value *ImageRef
}

func registerImageField(r *Registry) {
	r.Register(10, "image", func(t Triple) bool {
		return metaFieldType(t.Metadata) == "image"
	}, func(t Triple) (Field, error) {
		return &ImageField{}, nil
	})
}

func (f *ImageField) Kind() string   { return "image" }
func (f *ImageField) HasValue() bool { return f.value != nil }

func (f *ImageField) Set(v ImageRef) { f.value = &v }
func (f *ImageField) Value() (ImageRef, bool) {
	if f.value == nil {
		return ImageRef{}, false
	}
	return *f.value, true
}

func (f *ImageField) Validate() error { return nil }

func (f *ImageField) ToAPI() (json.RawMessage, error) {
	if f.value == nil {
		return nil, nil
	}
	return json.Marshal(*f.value)
}

func (f *ImageField) FromAPI(raw json.RawMessage) error {
	var v ImageRef
	if err := json.Unmarshal(raw, &v); err != nil {
		return typeMismatch(f.Kind(), string(raw))
	}
	f.value = &v
	return nil
}

func (f *ImageField) Describe() string { return "image" }
