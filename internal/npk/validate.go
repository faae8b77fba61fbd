package npk

import (
	"context"

	"github.com/Stage2Sec/frenzy/internal/block"
	"github.com/Stage2Sec/frenzy/internal/chat"
	"github.com/Stage2Sec/frenzy/internal/logger"
)

// validateCampaign checks a submitted wizard and either returns the
// user-correctable problems or the assembled campaign request.
func validateCampaign(view *chat.View, state *campaignState) ([]string, *CampaignRequest) {
	var problems []string
	if state.HashType == "" {
		problems = append(problems, "Hash type not selected")
	}
	ideal := state.ideal(state.SelectedInstance)
	if state.SelectedInstance == "" || ideal == nil {
		problems = append(problems, "Instance not selected")
	}
	if !state.MaskEnabled && !state.WordlistEnabled {
		problems = append(problems, "Attack type not specified")
	}
	if len(problems) > 0 {
		return problems, nil
	}

	// The availability zone is the region plus a trailing letter
	region := ideal.AZ
	if region != "" {
		region = region[:len(region)-1]
	}

	req := &CampaignRequest{
		HashType:         state.HashType,
		HashFile:         "uploads/" + view.SelectedOption("hashFile", ""),
		Region:           region,
		AvailabilityZone: ideal.AZ,
		PriceTarget:      ideal.Price,
		InstanceType:     ideal.Type,
		InstanceCount:    state.InstanceCount,
		InstanceDuration: state.InstanceDuration,
	}

	if state.MaskEnabled {
		req.Mask = view.PlainTextValue("maskBlock", "mask")
	}
	if state.WordlistEnabled {
		req.DictionaryFile = "wordlist/" + view.SelectedOption("wordlist", "")
		for _, rule := range view.SelectedOptions("rules", "") {
			req.RulesFiles = append(req.RulesFiles, "rules/"+rule)
		}
	}

	return nil, req
}

// handleSubmit validates a submitted wizard. Problems push an error
// modal; a valid submission is acknowledged immediately and the
// campaign is created in a detached task that reports back to the
// originating thread.
func (w *wizard) handleSubmit(ctx context.Context, ev *chat.ViewSubmissionEvent) *chat.ViewResponse {
	var state campaignState
	if err := chat.DecodeMetadata(ev.View, &state); err != nil {
		// Never ack silently: an empty ack closes the modal and throws
		// the wizard state away without telling the user.
		logger.Error("Campaign submission has unreadable metadata: %v", err)
		return chat.PushView(&chat.View{
			Title: block.PlainText("Errors"),
			Close: block.PlainText("OK"),
			Blocks: []block.Block{
				block.NewSection(block.SectionParams{Text: "An unexpected error ocurred"}),
			},
		})
	}

	problems, req := validateCampaign(ev.View, &state)
	if len(problems) > 0 {
		blocks := make([]block.Block, 0, len(problems))
		for _, p := range problems {
			blocks = append(blocks, block.NewSection(block.SectionParams{Text: p}))
		}
		return chat.PushView(&chat.View{
			Title:  block.PlainText("Errors"),
			Close:  block.PlainText("OK"),
			Blocks: blocks,
		})
	}

	origin := state.Message
	taskCtx := context.WithoutCancel(ctx)
	go func() {
		id, err := w.campaigns.Create(taskCtx, req)
		if err != nil {
			logger.Error("Error creating campaign: %v", err)
			chat.PostError(taskCtx, w.client, origin.Channel, origin.ThreadTS, err.Error())
			return
		}

		// Fire and forget; the heartbeat is the durable status surface
		if _, err := w.client.PostMessage(taskCtx, &chat.Message{
			Channel:   origin.Channel,
			Text:      "<@" + origin.User + ">, campaign created",
			IconEmoji: ":thumbsup:",
			ThreadTS:  origin.ThreadTS,
		}); err != nil {
			logger.Error("Error posting campaign created message: %v", err)
		}

		w.heartbeats.Start(taskCtx, HeartbeatOptions{
			CampaignID: id,
			Channel:    origin.Channel,
			ThreadTS:   origin.ThreadTS,
			Interval:   w.interval,
		})
	}()

	return nil
}
