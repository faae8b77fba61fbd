package chat

import (
	"time"

	"github.com/Stage2Sec/frenzy/internal/block"
)

// EventKind tags the variants of the inbound event union.
type EventKind string

const (
	KindBlockAction    EventKind = "block_action"
	KindViewSubmission EventKind = "view_submission"
	KindOptionsRequest EventKind = "options_request"
	KindMessage        EventKind = "message"
)

// Event is the tagged union of inbound platform events. Exactly one of
// the payload fields matching Kind is set.
type Event struct {
	ID   string    `json:"id,omitempty"`
	Time time.Time `json:"time,omitempty"`
	Kind EventKind `json:"kind"`

	BlockAction    *BlockActionEvent    `json:"block_action,omitempty"`
	ViewSubmission *ViewSubmissionEvent `json:"view_submission,omitempty"`
	OptionsRequest *OptionsRequestEvent `json:"options_request,omitempty"`
	Message        *MessageEvent        `json:"message,omitempty"`
}

// Action is one interactive element interaction inside a block action
// event.
type Action struct {
	BlockID         string          `json:"block_id"`
	ActionID        string          `json:"action_id"`
	Value           string          `json:"value,omitempty"`
	SelectedOption  *block.Option   `json:"selected_option,omitempty"`
	SelectedOptions []*block.Option `json:"selected_options,omitempty"`
}

// SelectedValue returns the selected option's value, empty when no
// option is selected.
func (a *Action) SelectedValue() string {
	if a.SelectedOption == nil {
		return ""
	}
	return a.SelectedOption.Value
}

// BlockActionEvent is a user interaction with an element in a message
// or view.
type BlockActionEvent struct {
	TriggerID string    `json:"trigger_id,omitempty"`
	User      string    `json:"user,omitempty"`
	Channel   string    `json:"channel,omitempty"`
	MessageTS string    `json:"message_ts,omitempty"`
	ThreadTS  string    `json:"thread_ts,omitempty"`
	View      *View     `json:"view,omitempty"`
	Actions   []*Action `json:"actions"`
}

// First returns the first action of the event, nil when there is none.
func (e *BlockActionEvent) First() *Action {
	if len(e.Actions) == 0 {
		return nil
	}
	return e.Actions[0]
}

// ViewSubmissionEvent is a user submitting a modal view.
type ViewSubmissionEvent struct {
	User string `json:"user,omitempty"`
	View *View  `json:"view"`
}

// OptionsRequestEvent is a type-ahead query against an external select.
type OptionsRequestEvent struct {
	BlockID  string `json:"block_id"`
	ActionID string `json:"action_id"`
	Value    string `json:"value"` // the typed query
}

// MessageEvent is a plain channel message.
type MessageEvent struct {
	Channel  string  `json:"channel"`
	User     string  `json:"user,omitempty"`
	Text     string  `json:"text,omitempty"`
	TS       string  `json:"ts,omitempty"`
	ThreadTS string  `json:"thread_ts,omitempty"`
	BotID    string  `json:"bot_id,omitempty"`
	Files    []*File `json:"files,omitempty"`
}

// ReplyThread returns the thread timestamp replies should target: the
// message's own thread if it is in one, else the message itself.
func (e *MessageEvent) ReplyThread() string {
	if e.ThreadTS != "" {
		return e.ThreadTS
	}
	return e.TS
}

// File is an attachment on a message event.
type File struct {
	Name       string `json:"name"`
	URLPrivate string `json:"url_private"`
}

// ViewResponse is the synchronous answer to a view submission; pushing
// a new view replaces the acknowledgement.
type ViewResponse struct {
	ResponseAction string `json:"response_action"`
	View           *View  `json:"view,omitempty"`
}

// PushView builds a response that pushes a modal onto the view stack.
func PushView(view *View) *ViewResponse {
	if view.Type == "" {
		view.Type = "modal"
	}
	return &ViewResponse{
		ResponseAction: "push",
		View:           view,
	}
}
