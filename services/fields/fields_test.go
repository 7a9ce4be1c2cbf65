package fields_test

import (
	"encoding/json"
	"testing"

	"workflow-sdk/services/fields"
)

func TestIntField_BoundsValidation(t *testing.T) {
	t.Parallel()

	r := fields.NewRegistry()
	fields.RegisterBuiltins(r)

	f, err := r.Classify(fields.Triple{
		NodeType: "n", FieldName: "steps",
		Metadata: json.RawMessage(`{"type":"integer","minimum":1,"maximum":10}`),
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if f.Kind() != "integer" {
		t.Fatalf("Kind() = %q, want integer", f.Kind())
	}

	if err := f.FromAPI(json.RawMessage(`20`)); err != nil {
		t.Fatalf("FromAPI: %v", err)
	}
	if err := f.Validate(); err == nil {
		t.Fatal("expected out-of-bounds value to fail validation")
	}

	if err := f.FromAPI(json.RawMessage(`5`)); err != nil {
		t.Fatalf("FromAPI: %v", err)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("unexpected validation error for in-bounds value: %v", err)
	}
}

func TestIntField_FromAPITypeMismatch(t *testing.T) {
	t.Parallel()

	r := fields.NewRegistry()
	fields.RegisterBuiltins(r)
	f, err := r.Classify(fields.Triple{FieldName: "x", Metadata: json.RawMessage(`{"type":"integer"}`)})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if err := f.FromAPI(json.RawMessage(`"not a number"`)); err == nil {
		t.Fatal("expected type mismatch error")
	}
}

func TestEnumField_RejectsValueOutsideOptions(t *testing.T) {
	t.Parallel()

	r := fields.NewRegistry()
	fields.RegisterBuiltins(r)
	f, err := r.Classify(fields.Triple{
		FieldName: "scheduler",
		Metadata:  json.RawMessage(`{"type":"enum","options":["a","b"]}`),
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if err := f.FromAPI(json.RawMessage(`"c"`)); err != nil {
		t.Fatalf("FromAPI: %v", err)
	}
	if err := f.Validate(); err == nil {
		t.Fatal("expected value outside options to fail validation")
	}
}

func TestStringField_PatternValidation(t *testing.T) {
	t.Parallel()

	r := fields.NewRegistry()
	fields.RegisterBuiltins(r)
	f, err := r.Classify(fields.Triple{
		FieldName: "name",
		Metadata:  json.RawMessage(`{"type":"string","pattern":"^[a-z]+$"}`),
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if err := f.FromAPI(json.RawMessage(`"ABC"`)); err != nil {
		t.Fatalf("FromAPI: %v", err)
	}
	if err := f.Validate(); err == nil {
		t.Fatal("expected pattern mismatch to fail validation")
	}
}

func TestClassify_FallsBackToUnresolvedStringWhenNotStrict(t *testing.T) {
	t.Parallel()

	r := fields.NewRegistry()
	fields.RegisterBuiltins(r)

	f, err := r.Classify(fields.Triple{FieldName: "mystery", Metadata: json.RawMessage(`{"type":"something-unknown"}`)})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if f.Kind() != "string" {
		t.Fatalf("Kind() = %q, want string (fallback)", f.Kind())
	}
}

func TestClassify_StrictModeReturnsUnresolvedFieldError(t *testing.T) {
	t.Parallel()

	r := fields.NewRegistry()
	fields.RegisterBuiltins(r)
	r.SetStrict(true)

	_, err := r.Classify(fields.Triple{NodeType: "n", FieldName: "mystery", Metadata: json.RawMessage(`{"type":"something-unknown"}`)})
	if err == nil {
		t.Fatal("expected an error in strict mode for an unresolved field")
	}
}

func TestClassify_MoreSpecificKindBeatsStringFallback(t *testing.T) {
	t.Parallel()

	r := fields.NewRegistry()
	fields.RegisterBuiltins(r)

	f, err := r.Classify(fields.Triple{FieldName: "x", Metadata: json.RawMessage(`{"type":"boolean"}`)})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if f.Kind() != "boolean" {
		t.Fatalf("Kind() = %q, want boolean", f.Kind())
	}
}

func TestHasValue(t *testing.T) {
	t.Parallel()

	r := fields.NewRegistry()
	fields.RegisterBuiltins(r)
	f, err := r.Classify(fields.Triple{Metadata: json.RawMessage(`{"type":"integer"}`)})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if fields.HasValue(f) {
		t.Fatal("freshly constructed field should report no value")
	}
	if err := f.FromAPI(json.RawMessage(`3`)); err != nil {
		t.Fatalf("FromAPI: %v", err)
	}
	if !fields.HasValue(f) {
		t.Fatal("field with an assigned value should report HasValue true")
	}
}

func TestOutputCapability(t *testing.T) {
	t.Parallel()

	r := fields.NewRegistry()
	fields.RegisterBuiltins(r)
	if !r.IsOutputCapable("save_image") {
		t.Fatal("save_image should be registered output-capable by default")
	}
	if r.IsOutputCapable("string_node") {
		t.Fatal("unrelated node type should not be output-capable")
	}

	r.RegisterOutputCapability("custom_export")
	if !r.IsOutputCapable("custom_export") {
		t.Fatal("RegisterOutputCapability should mark the node type output-capable")
	}
}

func TestDescribe_DoesNotConstructAField(t *testing.T) {
	t.Parallel()

	r := fields.NewRegistry()
	fields.RegisterBuiltins(r)
	kind := r.Describe(fields.Triple{FieldName: "x", Metadata: json.RawMessage(`{"type":"integer"}`)})
	if kind != "integer" {
		t.Fatalf("Describe = %q, want integer", kind)
	}
}
