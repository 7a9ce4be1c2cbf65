package fields

import (
	"encoding/json"
	"fmt"
)

// SchedulerField names one of the server's registered noise schedulers
// (e.g. "euler", "dpmpp_2m"). Modeled as a closed set like EnumField,
// but kept distinct because the server's scheduler list is versioned
// independently of any one node's metadata.
type SchedulerField struct {
	value   *string
	Allowed []string
}

func registerSchedulerField(r *Registry) {
	r.Register(20, "scheduler", func(t Triple) bool {
		return metaFieldType(t.Metadata) == "scheduler"
	}, func(t Triple) (Field, error) {
		var meta struct {
			Allowed []string `json:"schedulers"`
		}
		if err := unmarshalMeta(t.Metadata, &meta); err != nil {
			return nil, err
		}
		return &SchedulerField{Allowed: meta.Allowed}, nil
	})
}

func (f *SchedulerField) Kind() string   { return "scheduler" }
func (f *SchedulerField) HasValue() bool { return f.value != nil }

func (f *SchedulerField) Set(v string) { f.value = &v }
func (f *SchedulerField) Value() (string, bool) {
	if f.value == nil {
		return "", false
	}
	return *f.value, true
}

func (f *SchedulerField) Validate() error {
	if f.value == nil || len(f.Allowed) == 0 {
		return nil
	}
	for _, a := range f.Allowed {
		if a == *f.value {
			return nil
		}
	}
	return fmt.Errorf("scheduler %q not in allowed set %v", *f.value, f.Allowed)
}

func (f *SchedulerField) ToAPI() (json.RawMessage, error) {
	if f.value == nil {
		return nil, nil
	}
	return json.Marshal(*f.value)
}

func (f *SchedulerField) FromAPI(raw json.RawMessage) error {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return typeMismatch(f.Kind(), string(raw))
	}
	f.value = &v
	return nil
}

func (f *SchedulerField) Describe() string {
	return fmt.Sprintf("scheduler(allowed=%v)", f.Allowed)
}
