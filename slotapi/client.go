// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Achil7/purchaseWeb-sub000/slotsheet"
)

// Client is the HTTP implementation of slotsheet.Backend, talking to the
// sheet API of the dashboard backend.
type Client struct {
	BaseURL string
	// Token returns the operator bearer token for a request.
	Token  func(ctx context.Context) (string, error)
	HTTP   *http.Client
	logger *slog.Logger
}

var _ slotsheet.Backend = (*Client)(nil)

// NewClient creates a sheet API client.
func NewClient(baseURL string, token func(ctx context.Context) (string, error), logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

// FetchSlots lists the campaign's slots in provisioning order.
func (c *Client) FetchSlots(ctx context.Context, campaignID int64) ([]slotsheet.Slot, error) {
	url := fmt.Sprintf("%s/sheet/slots?campaign_id=%d", c.BaseURL, campaignID)
	var resp SlotsResponse
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch slots: %w", err)
	}
	return resp.Slots, nil
}

// FetchItem loads one item aggregate.
func (c *Client) FetchItem(ctx context.Context, itemID int64) (*slotsheet.Item, error) {
	url := fmt.Sprintf("%s/sheet/items/%d", c.BaseURL, itemID)
	var item slotsheet.Item
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &item); err != nil {
		return nil, fmt.Errorf("fetch item %d: %w", itemID, err)
	}
	return &item, nil
}

// UpdateSlotsBatch sends one batched slot update and returns the per-patch
// statuses.
func (c *Client) UpdateSlotsBatch(ctx context.Context, patches []slotsheet.SlotPatchUpload) (*slotsheet.SlotBatchResult, error) {
	url := c.BaseURL + "/sheet/slots/batch"
	var resp SlotBatchResponse
	if err := c.doJSON(ctx, http.MethodPost, url, &SlotBatchRequest{Patches: patches}, &resp); err != nil {
		return nil, fmt.Errorf("update slots batch: %w", err)
	}
	return &slotsheet.SlotBatchResult{Accepted: resp.Accepted, Statuses: resp.Statuses}, nil
}

// UpdateItem applies a field-level patch to one item.
func (c *Client) UpdateItem(ctx context.Context, itemID int64, fields map[slotsheet.Field]any) error {
	url := fmt.Sprintf("%s/sheet/items/%d", c.BaseURL, itemID)
	if err := c.doJSON(ctx, http.MethodPut, url, &ItemUpdateRequest{Fields: fields}, nil); err != nil {
		return fmt.Errorf("update item %d: %w", itemID, err)
	}
	return nil
}

// DeleteSlots bulk-deletes slots by ID.
func (c *Client) DeleteSlots(ctx context.Context, slotIDs []int64) error {
	url := c.BaseURL + "/sheet/slots/delete"
	if err := c.doJSON(ctx, http.MethodPost, url, &DeleteSlotsRequest{SlotIDs: slotIDs}, nil); err != nil {
		return fmt.Errorf("delete slots: %w", err)
	}
	return nil
}

// DeleteGroup bulk-deletes one group's slots.
func (c *Client) DeleteGroup(ctx context.Context, itemID int64, groupIndex int) error {
	url := c.BaseURL + "/sheet/groups/delete"
	req := &DeleteGroupRequest{ItemID: itemID, GroupIndex: groupIndex}
	if err := c.doJSON(ctx, http.MethodPost, url, req, nil); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

// ProvisionSlots bulk-generates slots for one group.
func (c *Client) ProvisionSlots(ctx context.Context, req *ProvisionRequest) (*ProvisionResponse, error) {
	url := c.BaseURL + "/sheet/slots/provision"
	var resp ProvisionResponse
	if err := c.doJSON(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, fmt.Errorf("provision slots: %w", err)
	}
	return &resp, nil
}

// doJSON performs one authenticated JSON round trip. A nil out discards the
// response body.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewBuffer(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create HTTP request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.Token != nil {
		token, err := c.Token(ctx)
		if err != nil {
			return fmt.Errorf("get bearer token: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		c.logger.Warn("Sheet API call failed", "method", method, "url", url, "status", resp.StatusCode)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
