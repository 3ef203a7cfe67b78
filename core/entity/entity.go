package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"tenant-sync/core/utils"
)

// Timestamp field names.
const (
	FieldUpdatedAt = "updatedAt"
	FieldCreatedAt = "createdAt"
)

// Entity is one replicated record as decoded from JSON.
type Entity map[string]any

// Clone returns a shallow copy of e.
func (e Entity) Clone() Entity {
	out := make(Entity, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// String returns a field as a string, or "" when absent.
func (e Entity) String(field string) string {
	return utils.ToString(e[field])
}

// Timestamp returns updatedAt, falling back to createdAt.
// An entity carrying neither reports the zero time.
func (e Entity) Timestamp() (time.Time, error) {
	for _, field := range []string{FieldUpdatedAt, FieldCreatedAt} {
		v, ok := e[field]
		if !ok || v == nil {
			continue
		}
		t, err := utils.ToTime(v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: %w", field, err)
		}
		return t, nil
	}
	return time.Time{}, nil
}

// Touch stamps updatedAt with t.
func (e Entity) Touch(t time.Time) {
	e[FieldUpdatedAt] = t.UTC().Format(time.RFC3339Nano)
}

// Decode parses a JSON array of entities. Numbers are kept as json.Number.
func Decode(data []byte) ([]Entity, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out []Entity
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode entities: %w", err)
	}
	return out, nil
}

// Encode serializes entities as a JSON array; nil encodes as [].
func Encode(entities []Entity) ([]byte, error) {
	if entities == nil {
		entities = []Entity{}
	}
	data, err := json.Marshal(entities)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entities: %w", err)
	}
	return data, nil
}
