package card

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FlexID is a card or case identifier that decodes from either a string or a
// number. Datasets and the frontend use both forms for the same IDs.
type FlexID string

// String returns the identifier as text.
func (f FlexID) String() string { return string(f) }

// UnmarshalJSON accepts "12", 12 and null. Null decodes to the empty ID.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*f = FlexID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.New("id must be a string or number")
		}
		*f = FlexID(n.String())
		return nil
	}
}

// UnmarshalYAML accepts any scalar.
func (f *FlexID) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: id must be a scalar", n.Line)
	}
	*f = FlexID(n.Value)
	return nil
}

// FlexIDStrings converts decoded identifiers to plain strings.
func FlexIDStrings(ids []FlexID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}
