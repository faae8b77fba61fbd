package block

import (
	"encoding/json"
	"fmt"
)

// DecodeBlocks parses a JSON block array from an interaction payload
// into typed blocks. Unknown block or element kinds are rejected so
// malformed trees fail at decode time instead of deep inside a handler.
func DecodeBlocks(data []byte) ([]Block, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parsing block array: %w", err)
	}

	blocks := make([]Block, 0, len(raws))
	for i, raw := range raws {
		b, err := decodeBlock(raw)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func decodeBlock(raw json.RawMessage) (Block, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case TypeSection:
		var b Section
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return &b, nil
	case TypeDivider:
		var b Divider
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return &b, nil
	case TypeHeader:
		var b Header
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return &b, nil
	case TypeInput:
		var b Input
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return &b, nil
	case TypeActions:
		var b Actions
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return &b, nil
	default:
		return nil, fmt.Errorf("unknown block type: %q", probe.Type)
	}
}

func decodeElement(raw json.RawMessage) (Element, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case ElementButton:
		var e Button
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return &e, nil
	case ElementStaticSelect:
		var e StaticSelect
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return &e, nil
	case ElementMultiStaticSelect:
		var e MultiStaticSelect
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return &e, nil
	case ElementExternalSelect:
		var e ExternalSelect
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return &e, nil
	case ElementMultiExternalSelect:
		var e MultiExternalSelect
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return &e, nil
	case ElementPlainTextInput:
		var e PlainTextInput
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return &e, nil
	case ElementRadioButtons:
		var e RadioButtons
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return &e, nil
	default:
		return nil, fmt.Errorf("unknown element type: %q", probe.Type)
	}
}

// UnmarshalJSON decodes a section including its polymorphic accessory.
func (s *Section) UnmarshalJSON(data []byte) error {
	var aux struct {
		Type      string          `json:"type"`
		BlockID   string          `json:"block_id"`
		Text      *Text           `json:"text"`
		Fields    []*Text         `json:"fields"`
		Accessory json.RawMessage `json:"accessory"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	s.Type = aux.Type
	s.BlockID = aux.BlockID
	s.Text = aux.Text
	s.Fields = aux.Fields
	if len(aux.Accessory) > 0 {
		el, err := decodeElement(aux.Accessory)
		if err != nil {
			return fmt.Errorf("section accessory: %w", err)
		}
		s.Accessory = el
	}
	return nil
}

// UnmarshalJSON decodes an input block including its polymorphic element.
func (i *Input) UnmarshalJSON(data []byte) error {
	var aux struct {
		Type     string          `json:"type"`
		BlockID  string          `json:"block_id"`
		Label    *Text           `json:"label"`
		Element  json.RawMessage `json:"element"`
		Optional bool            `json:"optional"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	i.Type = aux.Type
	i.BlockID = aux.BlockID
	i.Label = aux.Label
	i.Optional = aux.Optional
	if len(aux.Element) > 0 {
		el, err := decodeElement(aux.Element)
		if err != nil {
			return fmt.Errorf("input element: %w", err)
		}
		i.Element = el
	}
	return nil
}

// UnmarshalJSON decodes an actions block including its polymorphic elements.
func (a *Actions) UnmarshalJSON(data []byte) error {
	var aux struct {
		Type     string            `json:"type"`
		BlockID  string            `json:"block_id"`
		Elements []json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	a.Type = aux.Type
	a.BlockID = aux.BlockID
	a.Elements = make([]Element, 0, len(aux.Elements))
	for idx, raw := range aux.Elements {
		el, err := decodeElement(raw)
		if err != nil {
			return fmt.Errorf("actions element %d: %w", idx, err)
		}
		a.Elements = append(a.Elements, el)
	}
	return nil
}
