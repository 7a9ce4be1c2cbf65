package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OrderedObject is a JSON object that remembers the order its keys were
// declared in, so a deep copy can be re-serialized with sibling
// ordering intact (§4.B: "preserve sibling ordering where the source
// encodes it"). Values are kept as raw, unparsed JSON so re-marshaling
// an object whose fields were never touched is a byte-for-byte no-op.
type OrderedObject struct {
	Keys   []string
	Values map[string]json.RawMessage
}

// ParseOrderedObject decodes a single JSON object, preserving key order.
func ParseOrderedObject(raw json.RawMessage) (*OrderedObject, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("document: expected JSON object, got %v", tok)
	}

	obj := &OrderedObject{Values: make(map[string]json.RawMessage)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("document: expected string key, got %v", keyTok)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("document: decoding value for key %q: %w", key, err)
		}
		if _, dup := obj.Values[key]; !dup {
			obj.Keys = append(obj.Keys, key)
		}
		obj.Values[key] = val
	}
	return obj, nil
}

// Marshal re-serializes the object in its recorded key order.
func (o *OrderedObject) Marshal() (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(o.Values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Has reports whether key is present.
func (o *OrderedObject) Has(key string) bool {
	_, ok := o.Values[key]
	return ok
}

// SetExisting overwrites key's value. It never inserts a new key (I4);
// it returns false and leaves the object unchanged if key is absent.
func (o *OrderedObject) SetExisting(key string, val json.RawMessage) bool {
	if _, ok := o.Values[key]; !ok {
		return false
	}
	o.Values[key] = val
	return true
}

// KeySet returns the set of keys currently held, for structural
// preservation assertions (P1).
func (o *OrderedObject) KeySet() map[string]bool {
	s := make(map[string]bool, len(o.Keys))
	for _, k := range o.Keys {
		s[k] = true
	}
	return s
}
