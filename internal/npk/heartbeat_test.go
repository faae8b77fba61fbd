package npk

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Stage2Sec/frenzy/internal/block"
)

func testOptions() HeartbeatOptions {
	return HeartbeatOptions{
		CampaignID: "c1",
		Channel:    "C1",
		ThreadTS:   "111.0",
		Interval:   time.Hour,
	}
}

func TestHeartbeatTick(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown campaign is terminal with a notice", func(t *testing.T) {
		h := NewHeartbeat(newFakeChat(), &fakeCampaigns{})
		opts := testOptions()
		terminal, notice := h.tick(ctx, &opts)
		if !terminal {
			t.Error("Expected a terminal tick")
		}
		if !strings.Contains(notice, "`c1` not found") {
			t.Errorf("Expected a not-found notice, got %q", notice)
		}
	})

	t.Run("inactive campaign hasn't started", func(t *testing.T) {
		campaigns := &fakeCampaigns{statuses: []*CampaignStatus{
			{Active: false, Status: "running", Raw: []byte(`{}`)},
		}}
		h := NewHeartbeat(newFakeChat(), campaigns)
		opts := testOptions()
		terminal, notice := h.tick(ctx, &opts)
		if !terminal || !strings.Contains(notice, "hasn't started") {
			t.Errorf("Expected a hasn't-started notice, got terminal=%v notice=%q", terminal, notice)
		}
	})

	t.Run("available status hasn't started regardless of case", func(t *testing.T) {
		campaigns := &fakeCampaigns{statuses: []*CampaignStatus{runningStatus("AVAILABLE")}}
		h := NewHeartbeat(newFakeChat(), campaigns)
		opts := testOptions()
		terminal, notice := h.tick(ctx, &opts)
		if !terminal || !strings.Contains(notice, "hasn't started") {
			t.Errorf("Expected a hasn't-started notice, got terminal=%v notice=%q", terminal, notice)
		}
	})

	t.Run("running campaign posts the status message and continues", func(t *testing.T) {
		client := newFakeChat()
		h := NewHeartbeat(client, &fakeCampaigns{statuses: []*CampaignStatus{runningStatus("running")}})
		opts := testOptions()

		terminal, notice := h.tick(ctx, &opts)
		if terminal || notice != "" {
			t.Fatalf("Expected a non-terminal tick, got terminal=%v notice=%q", terminal, notice)
		}
		if opts.TS == "" {
			t.Error("Expected the posted timestamp remembered for in-place updates")
		}

		posted := client.postedMessages()
		if len(posted) != 1 {
			t.Fatalf("Expected 1 status message, got %d", len(posted))
		}
		msg := posted[0]
		if msg.ThreadTS != "111.0" {
			t.Errorf("Expected the status in the origin thread, got %q", msg.ThreadTS)
		}

		if _, ok := msg.Blocks[0].(*block.Header); !ok {
			t.Errorf("Expected a header first, got %T", msg.Blocks[0])
		}

		actions, ok := msg.Blocks[1].(*block.Actions)
		if !ok {
			t.Fatalf("Expected the refresh actions block, got %T", msg.Blocks[1])
		}
		button := actions.Elements[0].(*block.Button)
		if button.ActionID() != "campaignStatusRefresh_c1" {
			t.Errorf("Expected the suffixed refresh action id, got %q", button.ActionID())
		}
		var carried HeartbeatOptions
		if err := json.Unmarshal([]byte(button.Value), &carried); err != nil {
			t.Fatalf("Expected the options in the button value, got %v", err)
		}
		if carried.CampaignID != "c1" || carried.Interval != time.Hour {
			t.Errorf("Unexpected carried options: %+v", carried)
		}

		section, ok := msg.Blocks[2].(*block.Section)
		if !ok {
			t.Fatalf("Expected the status section, got %T", msg.Blocks[2])
		}
		if !strings.HasPrefix(section.Text.Text, "```") || !strings.Contains(section.Text.Text, `"status": "running"`) {
			t.Errorf("Expected the status rendered as a code block, got %q", section.Text.Text)
		}
	})

	t.Run("known timestamp updates in place", func(t *testing.T) {
		client := newFakeChat()
		h := NewHeartbeat(client, &fakeCampaigns{statuses: []*CampaignStatus{runningStatus("running")}})
		opts := testOptions()
		opts.TS = "222.0"

		h.tick(ctx, &opts)
		if len(client.postedMessages()) != 0 {
			t.Error("Expected no new message")
		}
		updated := client.updatedMessages()
		if len(updated) != 1 || updated[0].TS != "222.0" {
			t.Errorf("Expected an in-place update of 222.0, got %+v", updated)
		}
	})

	t.Run("completed renders once more and stops silently", func(t *testing.T) {
		client := newFakeChat()
		h := NewHeartbeat(client, &fakeCampaigns{statuses: []*CampaignStatus{runningStatus("Completed")}})
		opts := testOptions()

		terminal, notice := h.tick(ctx, &opts)
		if !terminal || notice != "" {
			t.Errorf("Expected silent terminal tick, got terminal=%v notice=%q", terminal, notice)
		}
		if len(client.postedMessages()) != 1 {
			t.Errorf("Expected the final status rendered, got %d messages", len(client.postedMessages()))
		}
	})

	t.Run("status errors are terminal with a generic notice", func(t *testing.T) {
		h := NewHeartbeat(newFakeChat(), &fakeCampaigns{statusErr: testError("boom")})
		opts := testOptions()
		terminal, notice := h.tick(ctx, &opts)
		if !terminal {
			t.Error("Expected a terminal tick")
		}
		if notice != "An unexpected error occurred while retrieving the campaign's status" {
			t.Errorf("Unexpected notice %q", notice)
		}
	})
}

func TestHeartbeatStart(t *testing.T) {
	waitRendered := func(t *testing.T, client *fakeChat) {
		t.Helper()
		select {
		case <-client.rendered:
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for a render")
		}
	}

	t.Run("restarting replaces the prior poller", func(t *testing.T) {
		client := newFakeChat()
		campaigns := &fakeCampaigns{statuses: []*CampaignStatus{runningStatus("running")}}
		h := NewHeartbeat(client, campaigns)
		defer h.StopAll()

		h.Start(context.Background(), testOptions())
		waitRendered(t, client)

		h.mu.Lock()
		first := h.pollers["c1"]
		h.mu.Unlock()
		if first == nil {
			t.Fatal("Expected a registered poller")
		}

		h.Start(context.Background(), testOptions())
		waitRendered(t, client)

		h.mu.Lock()
		second := h.pollers["c1"]
		count := len(h.pollers)
		h.mu.Unlock()
		if count != 1 {
			t.Errorf("Expected exactly one poller, got %d", count)
		}
		if second == first {
			t.Error("Expected the poller to be replaced")
		}
	})

	t.Run("missing interval falls back to the floor", func(t *testing.T) {
		client := newFakeChat()
		h := NewHeartbeat(client, &fakeCampaigns{statuses: []*CampaignStatus{runningStatus("running")}})
		defer h.StopAll()

		opts := testOptions()
		opts.Interval = 0
		h.Start(context.Background(), opts)
		waitRendered(t, client)

		posted := client.postedMessages()
		if len(posted) != 1 {
			t.Fatalf("Expected 1 status message, got %d", len(posted))
		}
		button := posted[0].Blocks[1].(*block.Actions).Elements[0].(*block.Button)
		var carried HeartbeatOptions
		if err := json.Unmarshal([]byte(button.Value), &carried); err != nil {
			t.Fatal(err)
		}
		if carried.Interval != minPollInterval {
			t.Errorf("Expected the interval clamped to %s, got %s", minPollInterval, carried.Interval)
		}
	})

	t.Run("terminal polls release their entry", func(t *testing.T) {
		client := newFakeChat()
		h := NewHeartbeat(client, &fakeCampaigns{})
		h.Start(context.Background(), testOptions())
		waitRendered(t, client) // the not-found notice

		deadline := time.Now().Add(2 * time.Second)
		for {
			h.mu.Lock()
			remaining := len(h.pollers)
			h.mu.Unlock()
			if remaining == 0 {
				break
			}
			if time.Now().After(deadline) {
				t.Fatalf("Expected the poller released, %d remain", remaining)
			}
			time.Sleep(10 * time.Millisecond)
		}
	})
}
