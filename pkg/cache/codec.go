package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

func init() {
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register([]string{})
}

// envelope carries the dynamic type of the cached value through gob.
// Concrete types are registered by the packages that define them.
type envelope struct {
	Value any
}

// Encode serializes a cache value for the durable backends
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(envelope{Value: v}); err != nil {
		return nil, fmt.Errorf("failed to encode cache value of type %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes a blob written by Encode
func Decode(data []byte) (any, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode cache value: %w", err)
	}
	return env.Value, nil
}
