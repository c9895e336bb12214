// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

import (
	"context"
)

// Per-patch status values returned by the slot batch endpoint.
const (
	StatusApplied = "applied"
	StatusInvalid = "invalid"
)

// Structured invalid reasons. Only bad_payload and unknown_field are
// non-recoverable; everything else is kept pending for retry.
const (
	ReasonUnknownField  = "unknown_field"
	ReasonBadPayload    = "bad_payload"
	ReasonNotFound      = "not_found"
	ReasonBatchTooLarge = "batch_too_large"
	ReasonInternalError = "internal_error"
)

// SlotPatchUpload is one entry of the batched slot update call.
type SlotPatchUpload struct {
	SlotID      int64         `json:"slot_id"`
	Fields      map[Field]any `json:"fields,omitempty"`
	BuyerFields map[Field]any `json:"buyer_fields,omitempty"`
}

// SlotPatchStatus is the per-patch result of a slot batch.
type SlotPatchStatus struct {
	SlotID  int64          `json:"slot_id"`
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Invalid map[string]any `json:"invalid,omitempty"`
}

// InvalidReason extracts the structured reason from an invalid status.
func (s *SlotPatchStatus) InvalidReason() string {
	if s.Invalid == nil {
		return ""
	}
	if reason, ok := s.Invalid["reason"].(string); ok {
		return reason
	}
	return ""
}

// SlotBatchResult is the overall outcome of one batched slot update.
type SlotBatchResult struct {
	Accepted bool              `json:"accepted"`
	Statuses []SlotPatchStatus `json:"statuses"`
}

// Backend is the persistence collaborator the engine consumes. The reference
// implementation lives in the slotapi package; tests substitute fakes.
type Backend interface {
	// FetchSlots lists every slot of the campaign, in provisioning order.
	FetchSlots(ctx context.Context, campaignID int64) ([]Slot, error)

	// FetchItem loads one item aggregate.
	FetchItem(ctx context.Context, itemID int64) (*Item, error)

	// UpdateSlotsBatch applies field-level slot patches in one call and
	// reports a per-patch status.
	UpdateSlotsBatch(ctx context.Context, patches []SlotPatchUpload) (*SlotBatchResult, error)

	// UpdateItem applies a field-level patch to a single item aggregate.
	UpdateItem(ctx context.Context, itemID int64, fields map[Field]any) error

	// DeleteSlots bulk-deletes slots by ID.
	DeleteSlots(ctx context.Context, slotIDs []int64) error

	// DeleteGroup bulk-deletes every slot of one (itemID, groupIndex) group.
	DeleteGroup(ctx context.Context, itemID int64, groupIndex int) error
}
