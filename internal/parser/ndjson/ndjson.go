// Package ndjson parses streams of newline-delimited or concatenated JSON
// objects, the layout of both raw datasets.
//
// Each top-level value must be an object or an array of objects; arrays
// are flattened. Objects reach the caller as map[string]json.RawMessage so
// downstream binding can tell a key that is absent from one that is
// present with a JSON null. The map is reused between calls: callers must
// not retain it, or its values, past the callback.
package ndjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// EmitFunc receives one decoded object. A non-nil return stops the stream
// and surfaces from StreamObjects.
type EmitFunc func(obj map[string]json.RawMessage) error

// StreamObjects decodes top-level JSON values from r until EOF and hands
// each object to emit. Decoding is single-threaded; read parallelism
// belongs to the caller, one stream per file.
func StreamObjects(ctx context.Context, r io.Reader, emit EmitFunc) error {
	dec := json.NewDecoder(r)
	obj := make(map[string]json.RawMessage, 16)
	n := 0

	emitRaw := func(raw json.RawMessage) error {
		n++
		if err := ctx.Err(); err != nil {
			return err
		}
		clear(obj)
		if err := json.Unmarshal(raw, &obj); err != nil {
			return fmt.Errorf("record %d: not an object: %w", n, err)
		}
		if err := emit(obj); err != nil {
			return fmt.Errorf("record %d: %w", n, err)
		}
		return nil
	}

	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("record %d: decode: %w", n+1, err)
		}
		if len(raw) > 0 && raw[0] == '[' {
			var elems []json.RawMessage
			if err := json.Unmarshal(raw, &elems); err != nil {
				return fmt.Errorf("record %d: decode array: %w", n+1, err)
			}
			for _, e := range elems {
				if err := emitRaw(e); err != nil {
					return err
				}
			}
			continue
		}
		if err := emitRaw(raw); err != nil {
			return err
		}
	}
}
