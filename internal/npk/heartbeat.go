package npk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Stage2Sec/frenzy/internal/block"
	"github.com/Stage2Sec/frenzy/internal/chat"
	"github.com/Stage2Sec/frenzy/internal/logger"
)

// HeartbeatOptions addresses one campaign's status polling. The same
// options ride in the Refresh button's value so a click can restart
// the poller against the clicked message.
type HeartbeatOptions struct {
	CampaignID string        `json:"campaignId"`
	Channel    string        `json:"channel"`
	ThreadTS   string        `json:"threadTs,omitempty"`
	TS         string        `json:"ts,omitempty"`
	Interval   time.Duration `json:"interval"`
}

type pollHandle struct {
	cancel context.CancelFunc
}

// minPollInterval floors the poll interval. Refresh buttons from older
// messages may carry options without one; a zero interval would re-tick
// as fast as status queries return.
const minPollInterval = time.Minute

// Heartbeat polls campaign status on a fixed interval and keeps a
// status message fresh, one poller per campaign id at most.
type Heartbeat struct {
	client    chat.Client
	campaigns CampaignClient

	mu      sync.Mutex
	pollers map[string]*pollHandle
}

// NewHeartbeat creates an empty heartbeat table.
func NewHeartbeat(client chat.Client, campaigns CampaignClient) *Heartbeat {
	return &Heartbeat{
		client:    client,
		campaigns: campaigns,
		pollers:   make(map[string]*pollHandle),
	}
}

// Start begins polling a campaign, cancelling any live poller for the
// same id first. The first tick runs immediately.
func (h *Heartbeat) Start(ctx context.Context, opts HeartbeatOptions) {
	if opts.Interval <= 0 {
		opts.Interval = minPollInterval
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	handle := &pollHandle{cancel: cancel}

	h.mu.Lock()
	if prior, ok := h.pollers[opts.CampaignID]; ok {
		prior.cancel()
	}
	h.pollers[opts.CampaignID] = handle
	h.mu.Unlock()

	logger.Debug("Starting heartbeat for campaign %s (interval %s)", opts.CampaignID, opts.Interval)
	go h.run(runCtx, opts, handle)
}

// StopAll cancels every live poller.
func (h *Heartbeat) StopAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, handle := range h.pollers {
		handle.cancel()
		delete(h.pollers, id)
	}
}

// release drops the table entry if it still belongs to this poller; a
// newer Start for the same id may have replaced it.
func (h *Heartbeat) release(id string, handle *pollHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	handle.cancel()
	if h.pollers[id] == handle {
		delete(h.pollers, id)
	}
}

func (h *Heartbeat) run(ctx context.Context, opts HeartbeatOptions, handle *pollHandle) {
	defer h.release(opts.CampaignID, handle)

	for {
		terminal, notice := h.tick(ctx, &opts)
		if notice != "" {
			chat.PostError(ctx, h.client, opts.Channel, opts.ThreadTS, notice)
		}
		if terminal {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(opts.Interval):
		}
	}
}

// tick performs one status poll. It returns whether polling should
// stop and an optional user-facing notice.
func (h *Heartbeat) tick(ctx context.Context, opts *HeartbeatOptions) (terminal bool, notice string) {
	status, err := h.campaigns.Status(ctx, opts.CampaignID)
	if err != nil {
		if ctx.Err() != nil {
			return true, ""
		}
		logger.Error("Error heartbeating campaign %s: %v", opts.CampaignID, err)
		return true, "An unexpected error occurred while retrieving the campaign's status"
	}
	if status == nil {
		return true, fmt.Sprintf("Campaign `%s` not found", opts.CampaignID)
	}
	if !status.Active || strings.EqualFold(status.Status, "available") {
		return true, fmt.Sprintf("Campaign `%s` hasn't started", opts.CampaignID)
	}

	if err := h.render(ctx, opts, status); err != nil {
		logger.Error("Error heartbeating campaign %s: %v", opts.CampaignID, err)
		return true, "An unexpected error occurred while retrieving the campaign's status"
	}

	if strings.EqualFold(status.Status, "completed") || strings.EqualFold(status.Status, "error") {
		return true, ""
	}
	return false, ""
}

// render posts or updates the status message: header, Refresh button
// carrying the poll options, and the raw status document as a code
// block.
func (h *Heartbeat) render(ctx context.Context, opts *HeartbeatOptions, status *CampaignStatus) error {
	value, err := json.Marshal(opts)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, status.Raw, "", "   "); err != nil {
		return err
	}

	msg := &chat.Message{
		Channel: opts.Channel,
		Text:    "Status",
		Blocks: []block.Block{
			block.NewHeader(block.HeaderParams{Text: "Campaign Status"}),
			block.NewActions(block.ActionsParams{
				BlockID: "campaignStatusRefreshBlock_" + opts.CampaignID,
				Elements: []block.Element{
					block.NewButton(block.ButtonParams{
						Text:     "Refresh",
						ActionID: "campaignStatusRefresh_" + opts.CampaignID,
						Style:    "primary",
						Value:    string(value),
					}),
				},
			}),
			block.NewSection(block.SectionParams{
				BlockID:  "campaignStatus_" + opts.CampaignID,
				Text:     "```" + pretty.String() + "```",
				Markdown: true,
			}),
		},
	}

	if opts.TS != "" {
		msg.TS = opts.TS
		return h.client.UpdateMessage(ctx, msg)
	}

	msg.ThreadTS = opts.ThreadTS
	ts, err := h.client.PostMessage(ctx, msg)
	if err != nil {
		return err
	}
	opts.TS = ts
	return nil
}
