package block

// Element type tags as they appear on the wire.
const (
	ElementButton              = "button"
	ElementStaticSelect        = "static_select"
	ElementMultiStaticSelect   = "multi_static_select"
	ElementExternalSelect      = "external_select"
	ElementMultiExternalSelect = "multi_external_select"
	ElementPlainTextInput      = "plain_text_input"
	ElementRadioButtons        = "radio_buttons"
)

// Element is an interactive control attached to a block. The concrete
// types form a closed set.
type Element interface {
	// ActionID returns the element's action id, empty if unset.
	ActionID() string
	element()
}

// Button is a clickable button element.
type Button struct {
	Type   string `json:"type"`
	Action string `json:"action_id,omitempty"`
	Text   *Text  `json:"text"`
	Value  string `json:"value,omitempty"`
	Style  string `json:"style,omitempty"`
}

func (b *Button) ActionID() string { return b.Action }
func (b *Button) element()         {}

// StaticSelect is a single-choice select with a fixed option list.
type StaticSelect struct {
	Type          string    `json:"type"`
	Action        string    `json:"action_id,omitempty"`
	Placeholder   *Text     `json:"placeholder,omitempty"`
	Options       []*Option `json:"options"`
	InitialOption *Option   `json:"initial_option,omitempty"`
}

func (s *StaticSelect) ActionID() string { return s.Action }
func (s *StaticSelect) element()         {}

// MultiStaticSelect is a multi-choice select with a fixed option list.
type MultiStaticSelect struct {
	Type           string    `json:"type"`
	Action         string    `json:"action_id,omitempty"`
	Placeholder    *Text     `json:"placeholder,omitempty"`
	Options        []*Option `json:"options"`
	InitialOptions []*Option `json:"initial_options,omitempty"`
}

func (s *MultiStaticSelect) ActionID() string { return s.Action }
func (s *MultiStaticSelect) element()         {}

// ExternalSelect is a single-choice select whose options are served by
// the application in response to options requests (type-ahead).
type ExternalSelect struct {
	Type           string `json:"type"`
	Action         string `json:"action_id,omitempty"`
	Placeholder    *Text  `json:"placeholder,omitempty"`
	MinQueryLength int    `json:"min_query_length,omitempty"`
}

func (s *ExternalSelect) ActionID() string { return s.Action }
func (s *ExternalSelect) element()         {}

// MultiExternalSelect is the multi-choice variant of ExternalSelect.
type MultiExternalSelect struct {
	Type           string `json:"type"`
	Action         string `json:"action_id,omitempty"`
	Placeholder    *Text  `json:"placeholder,omitempty"`
	MinQueryLength int    `json:"min_query_length,omitempty"`
}

func (s *MultiExternalSelect) ActionID() string { return s.Action }
func (s *MultiExternalSelect) element()         {}

// PlainTextInput is a free-form text entry element.
type PlainTextInput struct {
	Type   string `json:"type"`
	Action string `json:"action_id,omitempty"`
}

func (p *PlainTextInput) ActionID() string { return p.Action }
func (p *PlainTextInput) element()         {}

// RadioButtons is a single-choice radio group.
type RadioButtons struct {
	Type    string    `json:"type"`
	Action  string    `json:"action_id,omitempty"`
	Options []*Option `json:"options"`
}

func (r *RadioButtons) ActionID() string { return r.Action }
func (r *RadioButtons) element()         {}
