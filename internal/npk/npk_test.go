package npk

import (
	"context"
	"fmt"
	"sync"

	"github.com/Stage2Sec/frenzy/internal/chat"
)

// Shared fakes for the wizard, validation and heartbeat tests.

type fakeChat struct {
	mu           sync.Mutex
	posted       []*chat.Message
	updatedMsgs  []*chat.Message
	updatedViews []*chat.View
	rendered     chan struct{}
	nextTS       int
}

func newFakeChat() *fakeChat {
	return &fakeChat{rendered: make(chan struct{}, 100)}
}

func (c *fakeChat) signal() {
	select {
	case c.rendered <- struct{}{}:
	default:
	}
}

func (c *fakeChat) OpenView(ctx context.Context, triggerID string, view *chat.View) (*chat.View, error) {
	opened := *view
	opened.ID = "V1"
	return &opened, nil
}

func (c *fakeChat) UpdateView(ctx context.Context, view *chat.View) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updatedViews = append(c.updatedViews, view)
	c.signal()
	return nil
}

func (c *fakeChat) PostMessage(ctx context.Context, msg *chat.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posted = append(c.posted, msg)
	c.nextTS++
	c.signal()
	return fmt.Sprintf("100%d.0", c.nextTS), nil
}

func (c *fakeChat) UpdateMessage(ctx context.Context, msg *chat.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updatedMsgs = append(c.updatedMsgs, msg)
	c.signal()
	return nil
}

func (c *fakeChat) GetFile(ctx context.Context, url string) ([]byte, error) {
	return []byte("contents of " + url), nil
}

func (c *fakeChat) postedMessages() []*chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*chat.Message(nil), c.posted...)
}

func (c *fakeChat) updatedMessages() []*chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*chat.Message(nil), c.updatedMsgs...)
}

type fakePricing struct {
	hashTypes map[string]string
	prices    map[string]*InstancePrices       // keyed by region, "" for any
	pricing   map[string]*FamilyPricing
	err       error

	mu               sync.Mutex
	hashPricingCalls []string
}

func (p *fakePricing) HashTypes(ctx context.Context) (map[string]string, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.hashTypes, nil
}

func (p *fakePricing) InstancePrices(ctx context.Context, forceRegion string) (*InstancePrices, error) {
	if p.err != nil {
		return nil, p.err
	}
	if prices, ok := p.prices[forceRegion]; ok {
		return prices, nil
	}
	return p.prices[""], nil
}

func (p *fakePricing) HashPricing(ctx context.Context, hashType, forceRegion string) (map[string]*FamilyPricing, error) {
	p.mu.Lock()
	p.hashPricingCalls = append(p.hashPricingCalls, hashType+"|"+forceRegion)
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.pricing, nil
}

type fakeFiles struct {
	byKind map[FileKind][]string
	err    error

	mu       sync.Mutex
	uploaded map[string][]byte
}

func (f *fakeFiles) List(ctx context.Context, kind FileKind, forceRegion string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byKind[kind], nil
}

func (f *fakeFiles) UploadHash(ctx context.Context, name string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploaded == nil {
		f.uploaded = make(map[string][]byte)
	}
	f.uploaded[name] = data
	return nil
}

type fakeCampaigns struct {
	mu        sync.Mutex
	created   []*CampaignRequest
	createID  string
	createErr error
	statuses  []*CampaignStatus
	statusErr error
}

func (c *fakeCampaigns) Create(ctx context.Context, req *CampaignRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return "", c.createErr
	}
	c.created = append(c.created, req)
	return c.createID, nil
}

// Status pops scripted statuses, repeating the last one.
func (c *fakeCampaigns) Status(ctx context.Context, id string) (*CampaignStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.statusErr != nil {
		return nil, c.statusErr
	}
	if len(c.statuses) == 0 {
		return nil, nil
	}
	status := c.statuses[0]
	if len(c.statuses) > 1 {
		c.statuses = c.statuses[1:]
	}
	return status, nil
}

func (c *fakeCampaigns) createdRequests() []*CampaignRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*CampaignRequest(nil), c.created...)
}

func runningStatus(status string) *CampaignStatus {
	return &CampaignStatus{
		Active: true,
		Status: status,
		Raw:    []byte(fmt.Sprintf(`{"active":true,"status":%q}`, status)),
	}
}
