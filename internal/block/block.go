// Package block models the remote UI tree: an ordered sequence of
// typed block nodes with interactive elements, the factory functions
// that build them, and the tree operations handlers use to mutate a
// view between renders. The set of node and element kinds is closed;
// payloads with unknown kinds are rejected when decoded.
package block

// Block type tags as they appear on the wire.
const (
	TypeSection = "section"
	TypeDivider = "divider"
	TypeHeader  = "header"
	TypeInput   = "input"
	TypeActions = "actions"
)

// Block is a single node in a view tree. The concrete types form a
// closed set: Section, Divider, Header, Input and Actions.
type Block interface {
	// ID returns the block id, empty if the block has none.
	ID() string
	block()
}

// Text is a composition text object, either plain_text or mrkdwn.
type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Option is a selectable option for select and radio elements.
type Option struct {
	Text  *Text  `json:"text"`
	Value string `json:"value"`
}

// Section displays text with optional fields and one interactive
// accessory.
type Section struct {
	Type      string  `json:"type"`
	BlockID   string  `json:"block_id,omitempty"`
	Text      *Text   `json:"text,omitempty"`
	Fields    []*Text `json:"fields,omitempty"`
	Accessory Element `json:"accessory,omitempty"`
}

func (s *Section) ID() string { return s.BlockID }
func (s *Section) block()     {}

// Divider is a horizontal rule.
type Divider struct {
	Type string `json:"type"`
}

func (d *Divider) ID() string { return "" }
func (d *Divider) block()     {}

// Header displays prominent plain text.
type Header struct {
	Type    string `json:"type"`
	BlockID string `json:"block_id,omitempty"`
	Text    *Text  `json:"text"`
}

func (h *Header) ID() string { return h.BlockID }
func (h *Header) block()     {}

// Input holds a single labeled interactive element.
type Input struct {
	Type     string  `json:"type"`
	BlockID  string  `json:"block_id,omitempty"`
	Label    *Text   `json:"label"`
	Element  Element `json:"element"`
	Optional bool    `json:"optional,omitempty"`
}

func (i *Input) ID() string { return i.BlockID }
func (i *Input) block()     {}

// Actions holds a row of interactive elements.
type Actions struct {
	Type     string    `json:"type"`
	BlockID  string    `json:"block_id,omitempty"`
	Elements []Element `json:"elements"`
}

func (a *Actions) ID() string { return a.BlockID }
func (a *Actions) block()     {}
