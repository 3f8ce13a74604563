package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedInput marks payloads the partitioner cannot plan over: input
// that is not a JSON object, or a dataset whose value is neither an object
// nor a list.
var ErrMalformedInput = errors.New("plan: malformed input")

// unitAttrs are the planning-relevant attributes of a dataset object.
type unitAttrs struct {
	RequiresFullscreen bool `json:"requires_fullscreen"`
	Sequence           *int `json:"sequence"`
}

// DecodeUnits enumerates the assignable units of a payload, preserving the
// key encounter order of the JSON object. Object values become one unit;
// list values become one unit per element, keyed "name[i]". Encounter order
// is observable (capacity pressure combines units in encounter order), which
// is why this walks tokens instead of unmarshalling into a map.
func DecodeUnits(payload []byte) ([]Unit, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrMalformedInput)
	}

	var units []Unit
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		key := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: dataset %q: %v", ErrMalformedInput, key, err)
		}

		decoded, err := decodeValue(key, raw)
		if err != nil {
			return nil, err
		}
		units = append(units, decoded...)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	// Nothing may follow the closing brace; the payload is one JSON value,
	// not a stream.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after top-level object", ErrMalformedInput)
	}
	return units, nil
}

// decodeValue turns a single dataset value into its units.
func decodeValue(key string, raw json.RawMessage) ([]Unit, error) {
	switch firstByte(raw) {
	case '{':
		var attrs unitAttrs
		if err := json.Unmarshal(raw, &attrs); err != nil {
			return nil, fmt.Errorf("%w: dataset %q: %v", ErrMalformedInput, key, err)
		}
		return []Unit{{Key: key, Fullscreen: attrs.RequiresFullscreen, Sequence: attrs.Sequence}}, nil

	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, fmt.Errorf("%w: dataset %q: %v", ErrMalformedInput, key, err)
		}
		units := make([]Unit, 0, len(elems))
		for i, elem := range elems {
			u := Unit{Key: fmt.Sprintf("%s[%d]", key, i)}
			// Flags live only on object elements; scalar elements are
			// plain units with no constraints.
			if firstByte(elem) == '{' {
				var attrs unitAttrs
				if err := json.Unmarshal(elem, &attrs); err != nil {
					return nil, fmt.Errorf("%w: dataset %q[%d]: %v", ErrMalformedInput, key, i, err)
				}
				u.Fullscreen = attrs.RequiresFullscreen
				u.Sequence = attrs.Sequence
			}
			units = append(units, u)
		}
		return units, nil

	default:
		return nil, fmt.Errorf("%w: dataset %q: value is neither an object nor a list", ErrMalformedInput, key)
	}
}

// firstByte returns the first non-whitespace byte of raw, or 0.
func firstByte(raw []byte) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
