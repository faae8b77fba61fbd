package block

import "fmt"

// PlainText builds a plain_text text object.
func PlainText(text string) *Text {
	return &Text{
		Type:  "plain_text",
		Text:  text,
		Emoji: true,
	}
}

// Markdown builds a mrkdwn text object.
func Markdown(text string) *Text {
	return &Text{
		Type: "mrkdwn",
		Text: text,
	}
}

// NewOption builds an option. The value is stringified; a nil value
// becomes the string "null" so selects can carry an explicit
// "no preference" choice (see chat.IsFalsy).
func NewOption(label string, value any) *Option {
	v := "null"
	if value != nil {
		v = fmt.Sprintf("%v", value)
	}
	return &Option{
		Text:  PlainText(label),
		Value: v,
	}
}

// SectionParams configures NewSection.
type SectionParams struct {
	Text      string
	BlockID   string
	Fields    []*Text
	Accessory Element
	Markdown  bool
}

// NewSection builds a section block.
func NewSection(p SectionParams) *Section {
	text := PlainText(p.Text)
	if p.Markdown {
		text = Markdown(p.Text)
	}
	return &Section{
		Type:      TypeSection,
		BlockID:   p.BlockID,
		Text:      text,
		Fields:    p.Fields,
		Accessory: p.Accessory,
	}
}

// NewDivider builds a divider block.
func NewDivider() *Divider {
	return &Divider{Type: TypeDivider}
}

// HeaderParams configures NewHeader.
type HeaderParams struct {
	Text    string
	BlockID string
}

// NewHeader builds a header block.
func NewHeader(p HeaderParams) *Header {
	return &Header{
		Type:    TypeHeader,
		BlockID: p.BlockID,
		Text:    PlainText(p.Text),
	}
}

// InputParams configures NewInput.
type InputParams struct {
	BlockID  string
	Label    string
	Optional bool
	Element  Element
}

// NewInput builds an input block.
func NewInput(p InputParams) *Input {
	return &Input{
		Type:     TypeInput,
		BlockID:  p.BlockID,
		Label:    PlainText(p.Label),
		Element:  p.Element,
		Optional: p.Optional,
	}
}

// ActionsParams configures NewActions.
type ActionsParams struct {
	BlockID  string
	Elements []Element
}

// NewActions builds an actions block.
func NewActions(p ActionsParams) *Actions {
	return &Actions{
		Type:     TypeActions,
		BlockID:  p.BlockID,
		Elements: p.Elements,
	}
}

// ButtonParams configures NewButton.
type ButtonParams struct {
	Text     string
	ActionID string
	Value    string
	Style    string // "primary" or "danger", empty for default
}

// NewButton builds a button element.
func NewButton(p ButtonParams) *Button {
	return &Button{
		Type:   ElementButton,
		Action: p.ActionID,
		Text:   PlainText(p.Text),
		Value:  p.Value,
		Style:  p.Style,
	}
}

// StaticSelectParams configures NewStaticSelect.
type StaticSelectParams struct {
	ActionID      string // defaults to "selection"
	Placeholder   string
	Options       []*Option
	InitialOption *Option
	Multi         bool
}

// NewStaticSelect builds a static select element, multi-choice when
// Multi is set.
func NewStaticSelect(p StaticSelectParams) Element {
	actionID := p.ActionID
	if actionID == "" {
		actionID = "selection"
	}
	var placeholder *Text
	if p.Placeholder != "" {
		placeholder = PlainText(p.Placeholder)
	}

	if p.Multi {
		var initial []*Option
		if p.InitialOption != nil {
			initial = []*Option{p.InitialOption}
		}
		return &MultiStaticSelect{
			Type:           ElementMultiStaticSelect,
			Action:         actionID,
			Placeholder:    placeholder,
			Options:        p.Options,
			InitialOptions: initial,
		}
	}

	return &StaticSelect{
		Type:          ElementStaticSelect,
		Action:        actionID,
		Placeholder:   placeholder,
		Options:       p.Options,
		InitialOption: p.InitialOption,
	}
}

// ExternalSelectParams configures NewExternalSelect.
type ExternalSelectParams struct {
	ActionID       string // defaults to "selection"
	Placeholder    string
	MinQueryLength int
	Multi          bool
}

// NewExternalSelect builds an external (type-ahead) select element.
func NewExternalSelect(p ExternalSelectParams) Element {
	actionID := p.ActionID
	if actionID == "" {
		actionID = "selection"
	}
	var placeholder *Text
	if p.Placeholder != "" {
		placeholder = PlainText(p.Placeholder)
	}

	if p.Multi {
		return &MultiExternalSelect{
			Type:           ElementMultiExternalSelect,
			Action:         actionID,
			Placeholder:    placeholder,
			MinQueryLength: p.MinQueryLength,
		}
	}

	return &ExternalSelect{
		Type:           ElementExternalSelect,
		Action:         actionID,
		Placeholder:    placeholder,
		MinQueryLength: p.MinQueryLength,
	}
}

// NewPlainTextInput builds a plain text input element.
func NewPlainTextInput(actionID string) *PlainTextInput {
	return &PlainTextInput{
		Type:   ElementPlainTextInput,
		Action: actionID,
	}
}

// RadioButtonsParams configures NewRadioButtons.
type RadioButtonsParams struct {
	BlockID  string
	Label    string
	Options  []*Option
	ActionID string // defaults to "radioButtons"
}

// NewRadioButtons builds an input block holding a radio group.
func NewRadioButtons(p RadioButtonsParams) *Input {
	actionID := p.ActionID
	if actionID == "" {
		actionID = "radioButtons"
	}
	return &Input{
		Type:    TypeInput,
		BlockID: p.BlockID,
		Label:   PlainText(p.Label),
		Element: &RadioButtons{
			Type:    ElementRadioButtons,
			Action:  actionID,
			Options: p.Options,
		},
	}
}
