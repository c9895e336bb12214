// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

// Package slotapi is the persistence collaborator of the slot sheet engine:
// JSON wire models, an HTTP client implementing slotsheet.Backend, and a
// PostgreSQL-backed reference service exposing the batch endpoints the
// engine consumes.
package slotapi

import (
	"github.com/Achil7/purchaseWeb-sub000/slotsheet"
)

// REST/JSON models for HTTP API requests and responses.

// SlotsResponse is the body of GET /sheet/slots.
type SlotsResponse struct {
	Slots []slotsheet.Slot `json:"slots"`
}

// SlotBatchRequest is the body of POST /sheet/slots/batch: the full list of
// field-level slot patches of one commit.
type SlotBatchRequest struct {
	Patches []slotsheet.SlotPatchUpload `json:"patches"`
}

// SlotBatchResponse is the per-patch outcome of a slot batch.
type SlotBatchResponse struct {
	Accepted bool                        `json:"accepted"`
	Statuses []slotsheet.SlotPatchStatus `json:"statuses"`
}

// ItemUpdateRequest is the body of PUT /sheet/items/{itemID}.
type ItemUpdateRequest struct {
	Fields map[slotsheet.Field]any `json:"fields"`
}

// DeleteSlotsRequest is the body of POST /sheet/slots/delete.
type DeleteSlotsRequest struct {
	SlotIDs []int64 `json:"slot_ids"`
}

// DeleteGroupRequest is the body of POST /sheet/groups/delete.
type DeleteGroupRequest struct {
	ItemID     int64 `json:"item_id"`
	GroupIndex int   `json:"group_index"`
}

// ProvisionRequest is the body of POST /sheet/slots/provision: bulk slot
// generation for one group.
type ProvisionRequest struct {
	CampaignID int64 `json:"campaign_id"`
	ItemID     int64 `json:"item_id"`
	GroupIndex int   `json:"group_index"`
	Count      int   `json:"count"`
}

// ProvisionResponse returns the IDs of the generated slots.
type ProvisionResponse struct {
	SlotIDs    []int64 `json:"slot_ids"`
	ShareToken string  `json:"share_token"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusResponse reports service health.
type StatusResponse struct {
	Status  string `json:"status"`
	AppName string `json:"app_name"`
}
