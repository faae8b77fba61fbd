package chat

import (
	"context"

	"github.com/Stage2Sec/frenzy/internal/block"
	"github.com/Stage2Sec/frenzy/internal/logger"
)

// Message is an outbound channel message, or a reference to an
// existing one when TS is set.
type Message struct {
	Channel   string        `json:"channel"`
	Text      string        `json:"text,omitempty"`
	Blocks    []block.Block `json:"blocks,omitempty"`
	ThreadTS  string        `json:"thread_ts,omitempty"`
	TS        string        `json:"ts,omitempty"`
	IconEmoji string        `json:"icon_emoji,omitempty"`
}

// Client is the outbound platform surface the core needs. Failures are
// returned; callers decide whether to log-and-continue (the usual
// policy for render updates) or surface them.
type Client interface {
	// OpenView opens a modal view with a single-use trigger id and
	// returns the opened view, including the platform-assigned view id.
	OpenView(ctx context.Context, triggerID string, view *View) (*View, error)

	// UpdateView re-renders an open view in place, addressed by view.ID.
	UpdateView(ctx context.Context, view *View) error

	// PostMessage posts a message and returns its timestamp.
	PostMessage(ctx context.Context, msg *Message) (string, error)

	// UpdateMessage edits an existing message in place, addressed by
	// msg.Channel and msg.TS.
	UpdateMessage(ctx context.Context, msg *Message) error

	// GetFile downloads an attachment by its private URL.
	GetFile(ctx context.Context, url string) ([]byte, error)
}

// PostError posts a user-facing error notice to a channel. Send
// failures are logged; there is nowhere further to report them.
func PostError(ctx context.Context, client Client, channel, threadTS, message string) {
	_, err := client.PostMessage(ctx, &Message{
		Channel:   channel,
		Text:      message,
		ThreadTS:  threadTS,
		IconEmoji: ":octagonal_sign:",
	})
	if err != nil {
		logger.Error("Failed to post error message to %s: %v", channel, err)
	}
}
