// Package npk is the campaign plugin: a modal wizard for building
// hash-cracking campaigns, backed by the NPK pricing and campaign API
// and the campaign S3 buckets, plus a heartbeat poller that keeps a
// status message fresh until the campaign finishes.
package npk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// IdealInstance is the cheapest spot placement the pricing API found
// for one instance family.
type IdealInstance struct {
	Type  string  `json:"type"`
	AZ    string  `json:"az"`
	Price float64 `json:"price"`
}

// InstancePrices carries the ideal placement per supported family.
type InstancePrices struct {
	IdealG3Instance *IdealInstance `json:"idealG3Instance"`
	IdealP2Instance *IdealInstance `json:"idealP2Instance"`
	IdealP3Instance *IdealInstance `json:"idealP3Instance"`
}

// FamilyPricing is the per-family price and benchmark data for one
// hash type. Hashes and HashPrice are strings because the API reports
// "-" for families without a benchmark.
type FamilyPricing struct {
	Price     float64 `json:"price"`
	Hashes    string  `json:"hashes"`
	HashPrice string  `json:"hashPrice"`
}

// CampaignRequest is the campaign creation payload assembled from a
// submitted wizard.
type CampaignRequest struct {
	HashType         string   `json:"hashType"`
	HashFile         string   `json:"hashFile"`
	Region           string   `json:"region"`
	AvailabilityZone string   `json:"availabilityZone"`
	PriceTarget      float64  `json:"priceTarget"`
	InstanceType     string   `json:"instanceType"`
	InstanceCount    int      `json:"instanceCount"`
	InstanceDuration int      `json:"instanceDuration"`
	Mask             string   `json:"mask,omitempty"`
	DictionaryFile   string   `json:"dictionaryFile,omitempty"`
	RulesFiles       []string `json:"rulesFiles,omitempty"`
}

// CampaignStatus is a campaign status snapshot. Raw holds the full
// status document for verbatim rendering; Active and Status are the
// fields the poller branches on.
type CampaignStatus struct {
	Active bool
	Status string
	Raw    json.RawMessage
}

// PricingClient answers pricing queries for the wizard.
type PricingClient interface {
	// HashTypes returns the supported hash types, display name to
	// hashcat mode value.
	HashTypes(ctx context.Context) (map[string]string, error)

	// InstancePrices returns the ideal placement per family, optionally
	// pinned to a region.
	InstancePrices(ctx context.Context, forceRegion string) (*InstancePrices, error)

	// HashPricing returns per-family price and benchmark data for a
	// hash type, optionally pinned to a region.
	HashPricing(ctx context.Context, hashType, forceRegion string) (map[string]*FamilyPricing, error)
}

// CampaignClient creates campaigns and reports their status.
type CampaignClient interface {
	// Create submits a campaign and returns its id.
	Create(ctx context.Context, req *CampaignRequest) (string, error)

	// Status returns the current status snapshot, nil when the
	// campaign id is unknown.
	Status(ctx context.Context, id string) (*CampaignStatus, error)
}

// TokenProvider supplies the bearer token for API requests. Request
// signing beyond the bearer token is handled upstream.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider returning a fixed token.
type StaticToken string

// Token implements TokenProvider.
func (t StaticToken) Token(ctx context.Context) (string, error) {
	return string(t), nil
}

// APIClient is the HTTP implementation of PricingClient and
// CampaignClient against the NPK API.
type APIClient struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
}

// NewAPIClient creates a client for the NPK API at baseURL.
func NewAPIClient(baseURL string, tokens TokenProvider) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// do performs one API request and returns the response body and status
// code. Non-2xx responses are returned to the caller undecoded so
// endpoints can special-case them (404 on status lookups).
func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, int, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("getting api token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}

// get performs a GET request and decodes a 2xx response into out.
func (c *APIClient) get(ctx context.Context, path string, query url.Values, out any) error {
	data, status, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("GET %s returned %d: %s", path, status, data)
	}
	return json.Unmarshal(data, out)
}

// HashTypes implements PricingClient.
func (c *APIClient) HashTypes(ctx context.Context) (map[string]string, error) {
	var types map[string]string
	if err := c.get(ctx, "/pricing/hash-types", nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// InstancePrices implements PricingClient.
func (c *APIClient) InstancePrices(ctx context.Context, forceRegion string) (*InstancePrices, error) {
	query := url.Values{}
	if forceRegion != "" {
		query.Set("region", forceRegion)
	}
	var prices InstancePrices
	if err := c.get(ctx, "/pricing/instances", query, &prices); err != nil {
		return nil, err
	}
	return &prices, nil
}

// HashPricing implements PricingClient.
func (c *APIClient) HashPricing(ctx context.Context, hashType, forceRegion string) (map[string]*FamilyPricing, error) {
	query := url.Values{}
	if hashType != "" {
		query.Set("hashType", hashType)
	}
	if forceRegion != "" {
		query.Set("region", forceRegion)
	}
	var pricing map[string]*FamilyPricing
	if err := c.get(ctx, "/pricing/hashes", query, &pricing); err != nil {
		return nil, err
	}
	return pricing, nil
}

// Create implements CampaignClient.
func (c *APIClient) Create(ctx context.Context, req *CampaignRequest) (string, error) {
	data, status, err := c.do(ctx, http.MethodPost, "/campaigns", nil, req)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("POST /campaigns returned %d: %s", status, data)
	}

	var result struct {
		CampaignID string `json:"campaignId"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decoding campaign create response: %w", err)
	}
	return result.CampaignID, nil
}

// Status implements CampaignClient. An unknown campaign id returns
// nil, nil.
func (c *APIClient) Status(ctx context.Context, id string) (*CampaignStatus, error) {
	data, status, err := c.do(ctx, http.MethodGet, "/campaigns/"+url.PathEscape(id)+"/status", nil, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("GET /campaigns/%s/status returned %d: %s", id, status, data)
	}

	var envelope struct {
		Active bool   `json:"active"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decoding campaign status: %w", err)
	}
	return &CampaignStatus{
		Active: envelope.Active,
		Status: envelope.Status,
		Raw:    json.RawMessage(data),
	}, nil
}
