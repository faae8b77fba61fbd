package npk

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Stage2Sec/frenzy/internal/block"
	"github.com/Stage2Sec/frenzy/internal/chat"
)

func submittedView(t *testing.T, state *campaignState) *chat.View {
	t.Helper()
	view := &chat.View{ID: "V1", CallbackID: "campaign"}
	view.State = &chat.ViewState{Values: map[string]map[string]chat.InputState{
		"hashFile": {"selection": {SelectedOption: block.NewOption("hashes.txt", "hashes.txt")}},
		"maskBlock": {"mask": {Value: "?a?a?a?a"}},
		"wordlist": {"selection": {SelectedOption: block.NewOption("rockyou.txt", "rockyou.txt")}},
		"rules": {"selection": {SelectedOptions: []*block.Option{
			block.NewOption("best64.rule", "best64.rule"),
			block.NewOption("d3ad0ne.rule", "d3ad0ne.rule"),
		}}},
	}}
	if err := chat.EncodeMetadata(view, state); err != nil {
		t.Fatalf("Expected encode to succeed, got %v", err)
	}
	return view
}

func TestValidateCampaign(t *testing.T) {
	t.Run("empty wizard reports every problem", func(t *testing.T) {
		problems, req := validateCampaign(&chat.View{}, &campaignState{})
		if req != nil {
			t.Fatal("Expected no request for an invalid wizard")
		}
		want := []string{"Hash type not selected", "Instance not selected", "Attack type not specified"}
		if len(problems) != len(want) {
			t.Fatalf("Expected %d problems, got %v", len(want), problems)
		}
		for i := range want {
			if problems[i] != want[i] {
				t.Errorf("Problem %d: expected %q, got %q", i, want[i], problems[i])
			}
		}
	})

	t.Run("attack type satisfied by either toggle", func(t *testing.T) {
		state := &campaignState{
			HashType:         "1000",
			SelectedInstance: "g3",
			MaskEnabled:      true,
			IdealG3Instance:  &IdealInstance{Type: "g3.4xlarge", AZ: "us-west-2a", Price: 0.4},
		}
		problems, _ := validateCampaign(submittedView(t, state), state)
		if len(problems) != 0 {
			t.Errorf("Expected no problems, got %v", problems)
		}
	})

	t.Run("valid submission assembles the request", func(t *testing.T) {
		state := &campaignState{
			HashType:         "1000",
			SelectedInstance: "g3",
			WordlistEnabled:  true,
			MaskEnabled:      true,
			InstanceCount:    2,
			InstanceDuration: 4,
			IdealG3Instance:  &IdealInstance{Type: "g3.4xlarge", AZ: "us-west-2a", Price: 0.4},
		}
		problems, req := validateCampaign(submittedView(t, state), state)
		if len(problems) != 0 {
			t.Fatalf("Expected no problems, got %v", problems)
		}

		if req.HashType != "1000" {
			t.Errorf("Unexpected hash type %q", req.HashType)
		}
		if req.HashFile != "uploads/hashes.txt" {
			t.Errorf("Expected the uploads prefix, got %q", req.HashFile)
		}
		if req.Region != "us-west-2" || req.AvailabilityZone != "us-west-2a" {
			t.Errorf("Expected region derived from the az, got %q / %q", req.Region, req.AvailabilityZone)
		}
		if req.InstanceType != "g3.4xlarge" || req.PriceTarget != 0.4 {
			t.Errorf("Expected the ideal placement, got %q at %v", req.InstanceType, req.PriceTarget)
		}
		if req.Mask != "?a?a?a?a" {
			t.Errorf("Expected the mask value, got %q", req.Mask)
		}
		if req.DictionaryFile != "wordlist/rockyou.txt" {
			t.Errorf("Expected the wordlist prefix, got %q", req.DictionaryFile)
		}
		if len(req.RulesFiles) != 2 || req.RulesFiles[0] != "rules/best64.rule" {
			t.Errorf("Expected prefixed rules files, got %v", req.RulesFiles)
		}
	})

	t.Run("empty availability zone degrades to an empty region", func(t *testing.T) {
		state := &campaignState{
			HashType:         "1000",
			SelectedInstance: "g3",
			MaskEnabled:      true,
			IdealG3Instance:  &IdealInstance{Type: "g3.4xlarge", AZ: "", Price: 0.4},
		}
		problems, req := validateCampaign(submittedView(t, state), state)
		if len(problems) != 0 {
			t.Fatalf("Expected no problems, got %v", problems)
		}
		if req.Region != "" || req.AvailabilityZone != "" {
			t.Errorf("Expected empty placement fields, got %q / %q", req.Region, req.AvailabilityZone)
		}
	})

	t.Run("disabled toggles leave their fields empty", func(t *testing.T) {
		state := &campaignState{
			HashType:         "1000",
			SelectedInstance: "g3",
			MaskEnabled:      true,
			IdealG3Instance:  &IdealInstance{Type: "g3.4xlarge", AZ: "us-west-2a", Price: 0.4},
		}
		_, req := validateCampaign(submittedView(t, state), state)
		if req.DictionaryFile != "" || len(req.RulesFiles) != 0 {
			t.Errorf("Expected no wordlist fields, got %q / %v", req.DictionaryFile, req.RulesFiles)
		}
	})
}

func TestHandleSubmit(t *testing.T) {
	t.Run("invalid submission pushes an error modal and creates nothing", func(t *testing.T) {
		campaigns := &fakeCampaigns{createID: "c1"}
		w := testWizard(newFakeChat(), defaultPricing(), defaultFiles(), campaigns)

		view := &chat.View{CallbackID: "campaign"}
		if err := chat.EncodeMetadata(view, &campaignState{}); err != nil {
			t.Fatal(err)
		}

		resp := w.handleSubmit(context.Background(), &chat.ViewSubmissionEvent{User: "U1", View: view})
		if resp == nil {
			t.Fatal("Expected a pushed error modal")
		}
		if resp.ResponseAction != "push" {
			t.Errorf("Expected push, got %q", resp.ResponseAction)
		}
		if resp.View.Title.Text != "Errors" || resp.View.Close.Text != "OK" {
			t.Errorf("Unexpected error modal chrome: %+v", resp.View)
		}
		if len(resp.View.Blocks) != 3 {
			t.Errorf("Expected one section per problem, got %d", len(resp.View.Blocks))
		}
		if len(campaigns.createdRequests()) != 0 {
			t.Error("Expected no campaign creation for an invalid wizard")
		}
	})

	t.Run("unreadable metadata pushes an error modal instead of closing", func(t *testing.T) {
		client := newFakeChat()
		campaigns := &fakeCampaigns{createID: "c1"}
		w := testWizard(client, defaultPricing(), defaultFiles(), campaigns)

		view := &chat.View{CallbackID: "campaign", PrivateMetadata: "{broken"}
		resp := w.handleSubmit(context.Background(), &chat.ViewSubmissionEvent{User: "U1", View: view})
		if resp == nil {
			t.Fatal("Expected a pushed error modal, not a silent acknowledgement")
		}
		if resp.ResponseAction != "push" || resp.View.Title.Text != "Errors" {
			t.Errorf("Unexpected response: %+v", resp)
		}
		if len(resp.View.Blocks) != 1 {
			t.Errorf("Expected a single error section, got %d blocks", len(resp.View.Blocks))
		}
		if len(campaigns.createdRequests()) != 0 {
			t.Error("Expected no campaign creation")
		}
	})

	t.Run("valid submission acknowledges and creates detached", func(t *testing.T) {
		client := newFakeChat()
		campaigns := &fakeCampaigns{
			createID: "c1",
			statuses: []*CampaignStatus{runningStatus("completed")},
		}
		w := testWizard(client, defaultPricing(), defaultFiles(), campaigns)

		state := &campaignState{
			HashType:         "1000",
			SelectedInstance: "g3",
			MaskEnabled:      true,
			InstanceCount:    2,
			InstanceDuration: 4,
			IdealG3Instance:  &IdealInstance{Type: "g3.4xlarge", AZ: "us-west-2a", Price: 0.4},
			Message:          messageRef{Channel: "C1", User: "U1", ThreadTS: "111.0"},
		}

		resp := w.handleSubmit(context.Background(), &chat.ViewSubmissionEvent{User: "U1", View: submittedView(t, state)})
		if resp != nil {
			t.Fatalf("Expected a silent acknowledgement, got %+v", resp)
		}

		deadline := time.After(2 * time.Second)
		for {
			var created, status bool
			for _, msg := range client.postedMessages() {
				if strings.Contains(msg.Text, "campaign created") {
					created = true
					if msg.Channel != "C1" || msg.ThreadTS != "111.0" {
						t.Errorf("Expected the confirmation in the origin thread, got %+v", msg)
					}
				}
				if msg.Text == "Status" {
					status = true
				}
			}
			if created && status {
				break
			}
			select {
			case <-deadline:
				t.Fatalf("Timed out waiting for detached work, posted: %+v", client.postedMessages())
			case <-client.rendered:
			}
		}

		reqs := campaigns.createdRequests()
		if len(reqs) != 1 || reqs[0].HashType != "1000" {
			t.Fatalf("Expected one campaign creation, got %+v", reqs)
		}
	})

	t.Run("create failure reports to the origin thread", func(t *testing.T) {
		client := newFakeChat()
		campaigns := &fakeCampaigns{createErr: testError("npk api is down")}
		w := testWizard(client, defaultPricing(), defaultFiles(), campaigns)

		state := &campaignState{
			HashType:         "1000",
			SelectedInstance: "g3",
			MaskEnabled:      true,
			IdealG3Instance:  &IdealInstance{Type: "g3.4xlarge", AZ: "us-west-2a", Price: 0.4},
			Message:          messageRef{Channel: "C1", User: "U1", ThreadTS: "111.0"},
		}

		if resp := w.handleSubmit(context.Background(), &chat.ViewSubmissionEvent{User: "U1", View: submittedView(t, state)}); resp != nil {
			t.Fatalf("Expected a silent acknowledgement, got %+v", resp)
		}

		select {
		case <-client.rendered:
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for the error report")
		}

		posted := client.postedMessages()
		if len(posted) != 1 {
			t.Fatalf("Expected 1 message, got %d", len(posted))
		}
		if posted[0].IconEmoji != ":octagonal_sign:" {
			t.Errorf("Expected an error notice, got %+v", posted[0])
		}
	})
}

type testError string

func (e testError) Error() string { return string(e) }
