// Package example is a minimal plugin demonstrating the plugin API:
// a dot command that posts a menu and a button that answers in-thread.
package example

import (
	"context"
	"fmt"

	"github.com/Stage2Sec/frenzy/internal/block"
	"github.com/Stage2Sec/frenzy/internal/chat"
	"github.com/Stage2Sec/frenzy/internal/logger"
	"github.com/Stage2Sec/frenzy/internal/plugin"
)

// Plugin is the example plugin.
type Plugin struct{}

// New creates the example plugin.
func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) Name() string        { return "example" }
func (p *Plugin) Description() string { return "Demonstrates the plugin API" }
func (p *Plugin) Version() string     { return "1.0.0" }

// Register implements plugin.Plugin.
func (p *Plugin) Register(ctx context.Context, bot *plugin.Bot) error {
	bot.Router.DotCommand("example", func(ctx context.Context, ev *chat.MessageEvent) {
		_, err := bot.Client.PostMessage(ctx, &chat.Message{
			Channel:  ev.Channel,
			ThreadTS: ev.ReplyThread(),
			Text:     "Example menu",
			Blocks: []block.Block{
				block.NewHeader(block.HeaderParams{Text: "Example"}),
				block.NewActions(block.ActionsParams{
					BlockID: "exampleMenu",
					Elements: []block.Element{
						block.NewButton(block.ButtonParams{
							Text:     "Click Me",
							ActionID: "exampleClickMe",
							Style:    "primary",
						}),
					},
				}),
			},
		})
		if err != nil {
			logger.Error("Error posting example menu: %v", err)
		}
	})

	bot.Router.Action(chat.ActionMatcher{ActionID: chat.ActionID("exampleClickMe")}, func(ctx context.Context, ev *chat.BlockActionEvent) {
		_, err := bot.Client.PostMessage(ctx, &chat.Message{
			Channel:  ev.Channel,
			ThreadTS: ev.ThreadTS,
			Text:     fmt.Sprintf("<@%s> clicked the button", ev.User),
		})
		if err != nil {
			logger.Error("Error answering example click: %v", err)
		}
	})

	return nil
}
