package fields

import "encoding/json"

// BoardField references a target board by id; "none" addresses the
// server's uncategorized board.
type BoardField struct {
	value *string
}

func registerBoardField(r *Registry) {
	r.Register(10, "board", func(t Triple) bool {
		return metaFieldType(t.Metadata) == "board"
	}, func(t Triple) (Field, error) {
		return &BoardField{}, nil
	})
}

func (f *BoardField) Kind() string   { return "board" }
func (f *BoardField) HasValue() bool { return f.value != nil }

func (f *BoardField) Set(v string) { f.value = &v }
func (f *BoardField) Value() (string, bool) {
	if f.value == nil {
		return "", false
	}
	return *f.value, true
}

func (f *BoardField) Validate() error { return nil }

func (f *BoardField) ToAPI() (json.RawMessage, error) {
	if f.value == nil {
		return nil, nil
	}
	return json.Marshal(*f.value)
}

func (f *BoardField) FromAPI(raw json.RawMessage) error {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return typeMismatch(f.Kind(), string(raw))
	}
	f.value = &v
	return nil
}

func (f *BoardField) Describe() string { return "board" }
