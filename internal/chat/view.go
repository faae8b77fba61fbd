// Package chat contains the platform-facing core of the bot: typed
// views and interaction events, the metadata codec that smuggles wizard
// state through a view's opaque private_metadata field, the interaction
// router, and the outbound client interface.
package chat

import (
	"encoding/json"

	"github.com/Stage2Sec/frenzy/internal/block"
)

// View is a remote modal view: an ordered block tree plus the opaque
// metadata payload round-tripped through every render.
type View struct {
	ID              string        `json:"id,omitempty"`
	Type            string        `json:"type,omitempty"`
	CallbackID      string        `json:"callback_id,omitempty"`
	Title           *block.Text   `json:"title,omitempty"`
	Close           *block.Text   `json:"close,omitempty"`
	Submit          *block.Text   `json:"submit,omitempty"`
	ClearOnClose    bool          `json:"clear_on_close,omitempty"`
	NotifyOnClose   bool          `json:"notify_on_close,omitempty"`
	PrivateMetadata string        `json:"private_metadata,omitempty"`
	Blocks          []block.Block `json:"blocks"`
	State           *ViewState    `json:"state,omitempty"`
}

// ViewState carries the current values of the view's input elements,
// keyed by block id then action id.
type ViewState struct {
	Values map[string]map[string]InputState `json:"values"`
}

// InputState is the submitted value of a single interactive element.
type InputState struct {
	Value           string          `json:"value,omitempty"`
	SelectedOption  *block.Option   `json:"selected_option,omitempty"`
	SelectedOptions []*block.Option `json:"selected_options,omitempty"`
}

// UnmarshalJSON decodes a view including its polymorphic block tree.
func (v *View) UnmarshalJSON(data []byte) error {
	type viewAlias View
	aux := struct {
		*viewAlias
		Blocks json.RawMessage `json:"blocks"`
	}{viewAlias: (*viewAlias)(v)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Blocks) > 0 {
		blocks, err := block.DecodeBlocks(aux.Blocks)
		if err != nil {
			return err
		}
		v.Blocks = blocks
	}
	return nil
}

func (v *View) input(blockID, actionID string) *InputState {
	if v.State == nil {
		return nil
	}
	blockValues, ok := v.State.Values[blockID]
	if !ok {
		return nil
	}
	input, ok := blockValues[actionID]
	if !ok {
		return nil
	}
	return &input
}

// SelectedOption returns the selected option value of a select element.
// An empty actionID defaults to "selection", the factory default.
func (v *View) SelectedOption(blockID, actionID string) string {
	if actionID == "" {
		actionID = "selection"
	}
	input := v.input(blockID, actionID)
	if input == nil || input.SelectedOption == nil {
		return ""
	}
	return input.SelectedOption.Value
}

// SelectedOptions returns the selected option values of a multi-select
// element. An empty actionID defaults to "selection".
func (v *View) SelectedOptions(blockID, actionID string) []string {
	if actionID == "" {
		actionID = "selection"
	}
	input := v.input(blockID, actionID)
	if input == nil {
		return nil
	}
	values := make([]string, 0, len(input.SelectedOptions))
	for _, o := range input.SelectedOptions {
		values = append(values, o.Value)
	}
	return values
}

// PlainTextValue returns the typed value of a plain text input.
func (v *View) PlainTextValue(blockID, actionID string) string {
	input := v.input(blockID, actionID)
	if input == nil {
		return ""
	}
	return input.Value
}
