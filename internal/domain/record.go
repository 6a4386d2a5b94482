package domain

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Datatype is the storage trait of a collection as reported by the store.
type Datatype string

const (
	// DatatypePlain collections hold opaque payloads (JSON keys) and are overwritten on save.
	DatatypePlain Datatype = "plain"
	// DatatypeMap collections hold field maps (HASH keys) and are merged field by field on save.
	DatatypeMap Datatype = "map"
	// DatatypeOther is reported when the store cannot classify the collection.
	DatatypeOther Datatype = "other"
)

// ParseDatatype maps a backend key type (HASH, JSON) onto a Datatype.
func ParseDatatype(keyType string) Datatype {
	switch keyType {
	case "HASH", "hash":
		return DatatypeMap
	case "JSON", "json":
		return DatatypePlain
	default:
		return DatatypeOther
	}
}

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	// KindPlain is an opaque payload.
	KindPlain ValueKind = iota
	// KindMap is a flat field map.
	KindMap
)

// Value is a record payload: either an opaque blob or a field map.
type Value struct {
	kind   ValueKind
	plain  []byte
	fields map[string]string
}

// PlainValue wraps an opaque payload.
func PlainValue(data []byte) Value {
	return Value{kind: KindPlain, plain: data}
}

// MapValue wraps a field map. The map is copied.
func MapValue(fields map[string]string) Value {
	return Value{kind: KindMap, fields: maps.Clone(fields)}
}

// ParseValue maps a JSON object onto a field map. Nested values are kept
// as their JSON text; anything else is stored as a plain payload.
func ParseValue(data []byte) Value {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return PlainValue(data)
	}

	fields := make(map[string]string, len(obj))
	for k, raw := range obj {
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			fields[k] = str
			continue
		}
		fields[k] = string(raw)
	}
	return Value{kind: KindMap, fields: fields}
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsMap reports whether v holds a field map.
func (v Value) IsMap() bool { return v.kind == KindMap }

// Plain returns the opaque payload (nil for map values).
func (v Value) Plain() []byte { return v.plain }

// Fields returns the field map (nil for plain values).
func (v Value) Fields() map[string]string { return v.fields }

// Bytes renders the value as a JSON payload; map values become JSON objects.
func (v Value) Bytes() ([]byte, error) {
	if v.kind == KindPlain {
		return v.plain, nil
	}
	data, err := json.Marshal(v.fields)
	if err != nil {
		return nil, fmt.Errorf("marshal map value: %w", err)
	}
	return data, nil
}

// MarshalJSON emits plain payloads verbatim when they are valid JSON, as a string otherwise.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindMap {
		return json.Marshal(v.fields)
	}
	if json.Valid(v.plain) {
		return v.plain, nil
	}
	return json.Marshal(string(v.plain))
}

// Record is a store entry resolved from a search hit.
type Record struct {
	Key   string `json:"key"`
	Value Value  `json:"value"`
	Found bool   `json:"found"`
}

// Missing creates a placeholder for a key the store did not return.
func Missing(key string) Record {
	return Record{Key: key}
}
