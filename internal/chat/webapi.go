package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultAPIBaseURL = "https://slack.com/api"

// WebAPIClient is the HTTP implementation of Client against the
// platform's web API. Request signing and verification of the inbound
// webhooks is handled elsewhere; outbound calls only need the bearer
// token.
type WebAPIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewWebAPIClient creates a client with the given bot token.
func NewWebAPIClient(token string) *WebAPIClient {
	return &WebAPIClient{
		baseURL: defaultAPIBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type apiResponse struct {
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	TS    string          `json:"ts,omitempty"`
	View  json.RawMessage `json:"view,omitempty"`
}

func (c *WebAPIClient) call(ctx context.Context, method string, payload any) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", method, err)
	}
	if !result.OK {
		return nil, fmt.Errorf("%s failed: %s", method, result.Error)
	}
	return &result, nil
}

// OpenView implements Client.
func (c *WebAPIClient) OpenView(ctx context.Context, triggerID string, view *View) (*View, error) {
	if view.Type == "" {
		view.Type = "modal"
	}
	result, err := c.call(ctx, "views.open", map[string]any{
		"trigger_id": triggerID,
		"view":       view,
	})
	if err != nil {
		return nil, err
	}

	var opened View
	if err := json.Unmarshal(result.View, &opened); err != nil {
		return nil, fmt.Errorf("decoding opened view: %w", err)
	}
	return &opened, nil
}

// UpdateView implements Client.
func (c *WebAPIClient) UpdateView(ctx context.Context, view *View) error {
	_, err := c.call(ctx, "views.update", map[string]any{
		"view_id": view.ID,
		"view": &View{
			Type:            view.Type,
			CallbackID:      view.CallbackID,
			Title:           view.Title,
			Close:           view.Close,
			Submit:          view.Submit,
			ClearOnClose:    view.ClearOnClose,
			NotifyOnClose:   view.NotifyOnClose,
			PrivateMetadata: view.PrivateMetadata,
			Blocks:          view.Blocks,
		},
	})
	return err
}

// PostMessage implements Client.
func (c *WebAPIClient) PostMessage(ctx context.Context, msg *Message) (string, error) {
	result, err := c.call(ctx, "chat.postMessage", msg)
	if err != nil {
		return "", err
	}
	return result.TS, nil
}

// UpdateMessage implements Client.
func (c *WebAPIClient) UpdateMessage(ctx context.Context, msg *Message) error {
	_, err := c.call(ctx, "chat.update", msg)
	return err
}

// GetFile implements Client.
func (c *WebAPIClient) GetFile(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading file: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
