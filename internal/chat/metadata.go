package chat

import (
	"encoding/json"
	"strings"

	"github.com/Stage2Sec/frenzy/internal/errors"
)

// Metadata is the generic shape of a view's working state: a mapping
// from string keys to JSON-representable values. Plugins typically
// decode into their own struct instead.
type Metadata = map[string]any

// DecodeMetadata parses the view's opaque private_metadata field into
// out. An absent or empty field leaves out untouched (the empty-state
// equivalent). Malformed metadata is a *errors.MalformedMetadataError:
// fatal to the step and reported, never silently reset.
func DecodeMetadata(v *View, out any) error {
	if strings.TrimSpace(v.PrivateMetadata) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(v.PrivateMetadata), out); err != nil {
		return &errors.MalformedMetadataError{Err: err}
	}
	return nil
}

// EncodeMetadata serializes in back into the view's private_metadata
// field. Every update cycle encodes exactly once, right before the
// outbound render call.
func EncodeMetadata(v *View, in any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	v.PrivateMetadata = string(data)
	return nil
}
