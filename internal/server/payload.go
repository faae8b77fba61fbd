package server

import (
	"encoding/json"
	"fmt"

	"github.com/Stage2Sec/frenzy/internal/chat"
)

// eventEnvelope is the events webhook body.
type eventEnvelope struct {
	Type      string        `json:"type"`
	Challenge string        `json:"challenge,omitempty"`
	Event     *innerMessage `json:"event,omitempty"`
}

type innerMessage struct {
	Type     string       `json:"type"`
	Channel  string       `json:"channel"`
	User     string       `json:"user"`
	Text     string       `json:"text"`
	TS       string       `json:"ts"`
	ThreadTS string       `json:"thread_ts"`
	BotID    string       `json:"bot_id"`
	Files    []*chat.File `json:"files"`
}

// toEvent maps a webhook envelope to a bus event, nil for event types
// the core does not consume.
func (e *eventEnvelope) toEvent() *chat.Event {
	if e.Type != "event_callback" || e.Event == nil || e.Event.Type != "message" {
		return nil
	}
	return &chat.Event{
		Kind: chat.KindMessage,
		Message: &chat.MessageEvent{
			Channel:  e.Event.Channel,
			User:     e.Event.User,
			Text:     e.Event.Text,
			TS:       e.Event.TS,
			ThreadTS: e.Event.ThreadTS,
			BotID:    e.Event.BotID,
			Files:    e.Event.Files,
		},
	}
}

// interactionPayload is the interactivity webhook's decoded "payload"
// field, a union over block_actions, view_submission and
// block_suggestion.
type interactionPayload struct {
	Type      string `json:"type"`
	TriggerID string `json:"trigger_id"`
	User      struct {
		ID string `json:"id"`
	} `json:"user"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
	Message struct {
		TS       string `json:"ts"`
		ThreadTS string `json:"thread_ts"`
	} `json:"message"`
	View    *chat.View     `json:"view"`
	Actions []*chat.Action `json:"actions"`

	// block_suggestion fields
	BlockID  string `json:"block_id"`
	ActionID string `json:"action_id"`
	Value    string `json:"value"`
}

// parseInteraction maps a raw interaction payload to a bus event, nil
// for interaction types the core does not consume.
func parseInteraction(raw []byte) (*chat.Event, error) {
	var payload interactionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parsing interaction payload: %w", err)
	}

	switch payload.Type {
	case "block_actions":
		return &chat.Event{
			Kind: chat.KindBlockAction,
			BlockAction: &chat.BlockActionEvent{
				TriggerID: payload.TriggerID,
				User:      payload.User.ID,
				Channel:   payload.Channel.ID,
				MessageTS: payload.Message.TS,
				ThreadTS:  payload.Message.ThreadTS,
				View:      payload.View,
				Actions:   payload.Actions,
			},
		}, nil

	case "view_submission":
		return &chat.Event{
			Kind: chat.KindViewSubmission,
			ViewSubmission: &chat.ViewSubmissionEvent{
				User: payload.User.ID,
				View: payload.View,
			},
		}, nil

	case "block_suggestion":
		return &chat.Event{
			Kind: chat.KindOptionsRequest,
			OptionsRequest: &chat.OptionsRequestEvent{
				BlockID:  payload.BlockID,
				ActionID: payload.ActionID,
				Value:    payload.Value,
			},
		}, nil

	default:
		return nil, nil
	}
}
