package modal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Stage2Sec/frenzy/internal/block"
	"github.com/Stage2Sec/frenzy/internal/chat"
	"github.com/Stage2Sec/frenzy/internal/errors"
)

type fakeClient struct {
	mu        sync.Mutex
	opened    []*chat.View
	updated   []*chat.View
	updateErr error
	updateCh  chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{updateCh: make(chan struct{}, 10)}
}

func (c *fakeClient) OpenView(ctx context.Context, triggerID string, view *chat.View) (*chat.View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	opened := *view
	opened.ID = fmt.Sprintf("V%d", len(c.opened)+1)
	c.opened = append(c.opened, &opened)
	return &opened, nil
}

func (c *fakeClient) UpdateView(ctx context.Context, view *chat.View) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.updateErr != nil {
		return c.updateErr
	}
	copied := *view
	c.updated = append(c.updated, &copied)
	select {
	case c.updateCh <- struct{}{}:
	default:
	}
	return nil
}

func (c *fakeClient) PostMessage(ctx context.Context, msg *chat.Message) (string, error) {
	return "1.0", nil
}

func (c *fakeClient) UpdateMessage(ctx context.Context, msg *chat.Message) error {
	return nil
}

func (c *fakeClient) GetFile(ctx context.Context, url string) ([]byte, error) {
	return nil, nil
}

type testState struct {
	Step  string `json:"step,omitempty"`
	Count int    `json:"count,omitempty"`
}

func TestOpen(t *testing.T) {
	t.Run("defaults the view type to modal", func(t *testing.T) {
		client := newFakeClient()
		c := New[testState](client)

		opened, err := c.Open(context.Background(), "trigger", &chat.View{})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if opened.Type != "modal" {
			t.Errorf("Expected type modal, got %q", opened.Type)
		}
		if opened.ID == "" {
			t.Error("Expected the opened view to carry the assigned id")
		}
	})
}

func TestUpdate(t *testing.T) {
	t.Run("decodes, mutates, encodes, then sends", func(t *testing.T) {
		client := newFakeClient()
		c := New[testState](client)

		view := &chat.View{ID: "V1"}
		if err := chat.EncodeMetadata(view, &testState{Step: "start", Count: 1}); err != nil {
			t.Fatalf("Expected encode to succeed, got %v", err)
		}

		err := c.Update(context.Background(), view, func(ctx context.Context, view *chat.View, state *testState) error {
			if state.Step != "start" {
				t.Errorf("Expected decoded state, got %+v", state)
			}
			state.Count++
			view.Blocks = append(view.Blocks, block.NewDivider())
			return nil
		})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if len(client.updated) != 1 {
			t.Fatalf("Expected 1 update call, got %d", len(client.updated))
		}
		sent := client.updated[0]
		var final testState
		if err := json.Unmarshal([]byte(sent.PrivateMetadata), &final); err != nil {
			t.Fatalf("Expected re-encoded metadata, got %v", err)
		}
		if final.Count != 2 {
			t.Errorf("Expected the mutation to be encoded, got %+v", final)
		}
		if len(sent.Blocks) != 1 {
			t.Errorf("Expected the block mutation to be sent, got %d blocks", len(sent.Blocks))
		}
	})

	t.Run("mutate errors abort before sending", func(t *testing.T) {
		client := newFakeClient()
		c := New[testState](client)

		err := c.Update(context.Background(), &chat.View{ID: "V1"}, func(ctx context.Context, view *chat.View, state *testState) error {
			return fmt.Errorf("pricing unavailable")
		})
		if err == nil {
			t.Fatal("Expected the mutate error")
		}
		if len(client.updated) != 0 {
			t.Errorf("Expected no update call, got %d", len(client.updated))
		}
	})

	t.Run("malformed metadata aborts before mutating", func(t *testing.T) {
		client := newFakeClient()
		c := New[testState](client)

		mutated := false
		err := c.Update(context.Background(), &chat.View{ID: "V1", PrivateMetadata: "{broken"}, func(ctx context.Context, view *chat.View, state *testState) error {
			mutated = true
			return nil
		})
		if err == nil {
			t.Fatal("Expected a decode error")
		}
		if _, ok := err.(*errors.MalformedMetadataError); !ok {
			t.Errorf("Expected *errors.MalformedMetadataError, got %T", err)
		}
		if mutated {
			t.Error("Expected mutate to not run on malformed metadata")
		}
	})

	t.Run("send failure is a typed remote update error", func(t *testing.T) {
		client := newFakeClient()
		client.updateErr = fmt.Errorf("rate limited")
		c := New[testState](client)

		err := c.Update(context.Background(), &chat.View{ID: "V1"}, nil)
		if err == nil {
			t.Fatal("Expected the send error")
		}
		if _, ok := err.(*errors.RemoteUpdateError); !ok {
			t.Errorf("Expected *errors.RemoteUpdateError, got %T", err)
		}
	})
}

func TestOpenAndLoad(t *testing.T) {
	t.Run("placeholder goes out synchronously, content follows", func(t *testing.T) {
		client := newFakeClient()
		c := New[testState](client)

		placeholder := &chat.View{
			Blocks: []block.Block{
				block.NewSection(block.SectionParams{BlockID: "loading", Text: "Loading..."}),
			},
		}
		opened, err := c.OpenAndLoad(context.Background(), "trigger", placeholder,
			func(ctx context.Context, view *chat.View, state *testState) error {
				state.Step = "loaded"
				view.Blocks = []block.Block{block.NewHeader(block.HeaderParams{Text: "Ready"})}
				return nil
			}, nil)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(client.opened) != 1 {
			t.Fatalf("Expected the placeholder open before setup, got %d opens", len(client.opened))
		}

		select {
		case <-client.updateCh:
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for the content update")
		}

		client.mu.Lock()
		defer client.mu.Unlock()
		if len(client.updated) != 1 {
			t.Fatalf("Expected 1 content update, got %d", len(client.updated))
		}
		if client.updated[0].ID != opened.ID {
			t.Errorf("Expected the update to address the opened view, got %q", client.updated[0].ID)
		}
		if _, ok := client.updated[0].Blocks[0].(*block.Header); !ok {
			t.Errorf("Expected the loaded content, got %T", client.updated[0].Blocks[0])
		}
	})

	t.Run("setup failure reaches onError", func(t *testing.T) {
		client := newFakeClient()
		client.updateErr = fmt.Errorf("gone")
		c := New[testState](client)

		errCh := make(chan error, 1)
		_, err := c.OpenAndLoad(context.Background(), "trigger", &chat.View{}, nil, func(err error) {
			errCh <- err
		})
		if err != nil {
			t.Fatalf("Expected the open to succeed, got %v", err)
		}

		select {
		case err := <-errCh:
			if err == nil {
				t.Error("Expected a setup error")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for onError")
		}
	})
}
