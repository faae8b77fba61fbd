package npk

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/Stage2Sec/frenzy/internal/block"
	"github.com/Stage2Sec/frenzy/internal/chat"
	"github.com/Stage2Sec/frenzy/internal/config"
	"github.com/Stage2Sec/frenzy/internal/logger"
	"github.com/Stage2Sec/frenzy/internal/modal"
	"github.com/Stage2Sec/frenzy/internal/plugin"
)

const helpText = "- *Create and start a campaign.* Click the `Create Campaign` button and fill out the necessary fields\n" +
	"- *Upload a hash file to crack.* Send the `.npk` message with the file attached"

var refreshActionID = regexp.MustCompile(`^campaignStatusRefresh_.*`)

// Plugin is the NPK campaign plugin.
type Plugin struct {
	pricing   PricingClient
	campaigns CampaignClient
	files     FileStore
	interval  time.Duration

	heartbeats *Heartbeat
}

// New builds the plugin with its HTTP API client and S3 file store
// from configuration.
func New(ctx context.Context, cfg *config.Config) (*Plugin, error) {
	files, err := NewS3Store(ctx, cfg)
	if err != nil {
		return nil, err
	}

	api := NewAPIClient(cfg.NpkAPIURL, StaticToken(cfg.NpkAPIToken))
	return &Plugin{
		pricing:   api,
		campaigns: api,
		files:     files,
		interval:  time.Duration(cfg.HeartbeatInterval) * time.Second,
	}, nil
}

func (p *Plugin) Name() string        { return "npk" }
func (p *Plugin) Description() string { return "Create and track NPK hash-cracking campaigns" }
func (p *Plugin) Version() string     { return "1.0.0" }

// Register implements plugin.Plugin.
func (p *Plugin) Register(ctx context.Context, bot *plugin.Bot) error {
	hashTypes, err := p.pricing.HashTypes(ctx)
	if err != nil {
		return fmt.Errorf("loading hash types: %w", err)
	}
	names := make([]string, 0, len(hashTypes))
	for name := range hashTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	options := make([]*block.Option, 0, len(names))
	for _, name := range names {
		options = append(options, block.NewOption(name, hashTypes[name]))
	}
	bot.Options.Store("hashTypes", options)

	p.heartbeats = NewHeartbeat(bot.Client, p.campaigns)

	w := &wizard{
		client:     bot.Client,
		controller: modal.New[campaignState](bot.Client),
		pricing:    p.pricing,
		files:      p.files,
		campaigns:  p.campaigns,
		options:    bot.Options,
		heartbeats: p.heartbeats,
		interval:   p.interval,
	}

	bot.Router.Action(chat.ActionMatcher{ActionID: chat.ActionID("openCampaignModal")}, w.openCampaignModal)
	bot.Router.Action(chat.ActionMatcher{BlockID: "forceRegion"}, w.handleForceRegion)
	bot.Router.Action(chat.ActionMatcher{ActionID: chat.ActionID("selectInstance")}, w.handleSelectInstance)
	bot.Router.Action(chat.ActionMatcher{BlockID: "hashTypes", ActionID: chat.ActionID("selection")}, w.handleHashType)
	bot.Router.Action(chat.ActionMatcher{BlockID: "wordlistAttackToggle"}, w.handleWordlistToggle)
	bot.Router.Action(chat.ActionMatcher{BlockID: "maskConfigToggle"}, w.handleMaskToggle)
	bot.Router.Action(chat.ActionMatcher{BlockID: "instanceCount", ActionID: chat.ActionID("selection")}, w.handleInstanceCount)
	bot.Router.Action(chat.ActionMatcher{BlockID: "instanceDuration", ActionID: chat.ActionID("selection")}, w.handleInstanceDuration)
	bot.Router.Action(chat.ActionMatcher{ActionID: chat.ActionPattern(refreshActionID)}, p.handleStatusRefresh)
	bot.Router.Options("hashTypes", "selection", w.handleHashTypeOptions)
	bot.Router.ViewSubmission("campaign", w.handleSubmit)
	bot.Router.DotCommand("npk", p.makeMenuHandler(bot.Client))

	return nil
}

// Shutdown stops any live status pollers.
func (p *Plugin) Shutdown() {
	if p.heartbeats != nil {
		p.heartbeats.StopAll()
	}
}

// handleStatusRefresh restarts the heartbeat against the clicked
// message for an immediate in-place refresh.
func (p *Plugin) handleStatusRefresh(ctx context.Context, ev *chat.BlockActionEvent) {
	action := ev.First()
	if action == nil {
		return
	}

	var opts HeartbeatOptions
	if err := json.Unmarshal([]byte(action.Value), &opts); err != nil {
		logger.Warn("Ignoring refresh click with unreadable options: %v", err)
		return
	}
	opts.Channel = ev.Channel
	opts.ThreadTS = ev.ThreadTS
	opts.TS = ev.MessageTS
	p.heartbeats.Start(ctx, opts)
}

// makeMenuHandler builds the .npk handler: attached files are uploaded
// as hash files, a bare .npk posts the help menu.
func (p *Plugin) makeMenuHandler(client chat.Client) chat.MessageHandler {
	return func(ctx context.Context, ev *chat.MessageEvent) {
		threadTS := ev.ReplyThread()

		if err := p.handleMenu(ctx, client, ev, threadTS); err != nil {
			logger.Error("Error handling .npk: %v", err)
			chat.PostError(ctx, client, ev.Channel, threadTS, "An unexpected error ocurred")
		}
	}
}

func (p *Plugin) handleMenu(ctx context.Context, client chat.Client, ev *chat.MessageEvent, threadTS string) error {
	if len(ev.Files) > 0 {
		for _, file := range ev.Files {
			contents, err := client.GetFile(ctx, file.URLPrivate)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", file.Name, err)
			}
			if err := p.files.UploadHash(ctx, file.Name, contents); err != nil {
				return err
			}
			if _, err := client.PostMessage(ctx, &chat.Message{
				Channel:   ev.Channel,
				Text:      fmt.Sprintf("<@%s> `%s` uploaded", ev.User, file.Name),
				IconEmoji: ":thumbsup:",
				ThreadTS:  threadTS,
			}); err != nil {
				return err
			}
		}
		return nil
	}

	_, err := client.PostMessage(ctx, &chat.Message{
		Channel:  ev.Channel,
		ThreadTS: threadTS,
		Text:     "Menu",
		Blocks: []block.Block{
			block.NewHeader(block.HeaderParams{Text: "Help"}),
			block.NewSection(block.SectionParams{Text: helpText, Markdown: true}),
			block.NewDivider(),
			block.NewActions(block.ActionsParams{
				BlockID: "npkMenu",
				Elements: []block.Element{
					block.NewButton(block.ButtonParams{
						Text:     "Create Campaign",
						ActionID: "openCampaignModal",
						Style:    "primary",
					}),
				},
			}),
		},
	})
	return err
}
