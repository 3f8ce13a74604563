package plan

import (
	"encoding/json"

	"github.com/vitrine-studio/vitrine/internal/session"
)

// extractorOwner is the session owner name used for promoted metadata keys.
const extractorOwner = "information-architecture"

// ExtractMetadata splits an order payload into metadata and data. Every
// top-level key except "data" is promoted into the session state; the raw
// bytes of "data" are returned for partitioning. When "data" is absent the
// whole object is returned unchanged, and input that is not a JSON object
// passes through untouched with no state writes.
func ExtractMetadata(raw []byte, st *session.State) ([]byte, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return raw, nil
	}

	data, hasData := top["data"]
	for key, val := range top {
		if key == "data" {
			continue
		}
		var v any
		if err := json.Unmarshal(val, &v); err != nil {
			return nil, err
		}
		if err := st.Set(extractorOwner, key, v); err != nil {
			return nil, err
		}
	}

	if !hasData {
		return raw, nil
	}
	return data, nil
}
