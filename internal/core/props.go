package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

type UnserializablePolicy int

const (
	// PropsFail fails the compile when a prop cannot be serialized.
	PropsFail UnserializablePolicy = iota
	// PropsDrop removes top-level props that cannot be serialized.
	PropsDrop
)

type PropsPolicy struct {
	Exclude        []string
	Unserializable UnserializablePolicy
}

type PreparedProps struct {
	Values  map[string]any
	JSON    []byte
	Dropped []string
}

// PrepareProps strips excluded keys and serializes the rest. The input map
// is never modified.
func PrepareProps(props map[string]any, policy PropsPolicy) (PreparedProps, error) {
	values := make(map[string]any, len(props))
	for k, v := range props {
		values[k] = v
	}
	for _, key := range policy.Exclude {
		delete(values, key)
	}

	data, err := marshalProps(values)
	if err == nil {
		return PreparedProps{Values: values, JSON: data}, nil
	}

	if policy.Unserializable != PropsDrop {
		return PreparedProps{}, &CompileError{
			Stage:   StageProps,
			Message: "props are not JSON serializable",
			Err:     err,
		}
	}

	var dropped []string
	for k, v := range values {
		if _, err := marshalProps(v); err != nil {
			dropped = append(dropped, k)
			delete(values, k)
		}
	}
	sort.Strings(dropped)

	data, err = marshalProps(values)
	if err != nil {
		return PreparedProps{}, &CompileError{
			Stage:   StageProps,
			Message: fmt.Sprintf("props are not JSON serializable after dropping %v", dropped),
			Err:     err,
		}
	}

	return PreparedProps{Values: values, JSON: data, Dropped: dropped}, nil
}

// marshalProps encodes with HTML escaping so the result is safe inside a
// script element.
func marshalProps(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
