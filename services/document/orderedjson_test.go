package document_test

import (
	"encoding/json"
	"testing"

	"workflow-sdk/services/document"
)

func TestOrderedObject_PreservesKeyOrderAndLiterals(t *testing.T) {
	t.Parallel()

	src := json.RawMessage(`{"b":1,"a":{"nested":true},"c":[1,2,3],"d":1.500}`)
	obj, err := document.ParseOrderedObject(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	wantKeys := []string{"b", "a", "c", "d"}
	if len(obj.Keys) != len(wantKeys) {
		t.Fatalf("key count = %d, want %d", len(obj.Keys), len(wantKeys))
	}
	for i, k := range wantKeys {
		if obj.Keys[i] != k {
			t.Errorf("key[%d] = %q, want %q", i, obj.Keys[i], k)
		}
	}

	out, err := obj.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// "1.500" must round-trip byte-for-byte: untouched values are never
	// renormalized through a generic unmarshal/marshal cycle.
	if string(out) != string(src) {
		t.Errorf("marshal = %s, want %s", out, src)
	}
}

func TestOrderedObject_SetExistingNeverInsertsKey(t *testing.T) {
	t.Parallel()

	obj, err := document.ParseOrderedObject(json.RawMessage(`{"a":1}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if obj.SetExisting("b", json.RawMessage(`2`)) {
		t.Fatal("SetExisting on a missing key should return false")
	}
	if obj.Has("b") {
		t.Fatal("SetExisting must never insert a new key")
	}

	if !obj.SetExisting("a", json.RawMessage(`99`)) {
		t.Fatal("SetExisting on an existing key should return true")
	}
	out, _ := obj.Marshal()
	if string(out) != `{"a":99}` {
		t.Errorf("marshal = %s, want {\"a\":99}", out)
	}
}

func TestOrderedObject_DuplicateKeyKeepsLastValueOnce(t *testing.T) {
	t.Parallel()

	obj, err := document.ParseOrderedObject(json.RawMessage(`{"a":1,"a":2}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(obj.Keys) != 1 {
		t.Fatalf("expected one key entry for duplicate key, got %d", len(obj.Keys))
	}
	if string(obj.Values["a"]) != "2" {
		t.Errorf("expected last value to win, got %s", obj.Values["a"])
	}
}
