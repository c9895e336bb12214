// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// CommitResult reports the outcome of one commit: how much of each half was
// accepted and which half (if any) failed. The two halves are independent
// sagas, not one transaction; one may succeed while the other fails.
type CommitResult struct {
	SlotsApplied int
	ItemsApplied int

	// SlotErr is the transport/batch-level failure of the slot half, if any.
	SlotErr error
	// ItemErrs maps failed item updates to their errors.
	ItemErrs map[int64]error
}

// Err folds the result into a single error, nil when both halves succeeded.
func (r *CommitResult) Err() error {
	var errs []error
	if r.SlotErr != nil {
		errs = append(errs, fmt.Errorf("slot batch: %w", r.SlotErr))
	}
	for itemID, err := range r.ItemErrs {
		errs = append(errs, fmt.Errorf("item %d: %w", itemID, err))
	}
	return errors.Join(errs...)
}

// Coordinator partitions a pending change set into per-entity-type batches,
// issues them, and reconciles the store from the accepted changes without a
// full reload.
type Coordinator struct {
	backend Backend
	store   *Store
	logger  *slog.Logger
}

// NewCoordinator creates a commit coordinator.
func NewCoordinator(backend Backend, store *Store, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{backend: backend, store: store, logger: logger}
}

// Commit issues the slot batch and the per-item updates concurrently (they
// target independent backend aggregates), waits for both, merges every
// accepted patch back into the store, and returns the subset that must stay
// pending so the user can retry without re-entering accepted data.
func (c *Coordinator) Commit(ctx context.Context, pending *PendingChanges) (*CommitResult, *PendingChanges) {
	result := &CommitResult{ItemErrs: make(map[int64]error)}
	failed := NewPendingChanges()
	if pending == nil || pending.IsEmpty() {
		return result, failed
	}

	var wg sync.WaitGroup
	var (
		batchResult *SlotBatchResult
		batchErr    error
	)

	uploads := buildSlotUploads(pending)
	if len(uploads) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batchResult, batchErr = c.backend.UpdateSlotsBatch(ctx, uploads)
		}()
	}

	itemIDs := sortedItemIDs(pending)
	if len(itemIDs) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// One update call per distinct item; these are independent
			// aggregates and must not be folded into the slot batch.
			for _, itemID := range itemIDs {
				if err := c.backend.UpdateItem(ctx, itemID, pending.ItemPatches[itemID]); err != nil {
					result.ItemErrs[itemID] = err
				}
			}
		}()
	}
	wg.Wait()

	c.reconcileSlots(pending, uploads, batchResult, batchErr, result, failed)
	c.reconcileItems(pending, itemIDs, result, failed)

	return result, failed
}

// reconcileSlots merges accepted slot patches into the store and routes the
// rest into the failed set.
func (c *Coordinator) reconcileSlots(pending *PendingChanges, uploads []SlotPatchUpload,
	res *SlotBatchResult, batchErr error, result *CommitResult, failed *PendingChanges) {

	if len(uploads) == 0 {
		return
	}
	if batchErr != nil {
		result.SlotErr = batchErr
		for slotID, patch := range pending.SlotPatches {
			failed.SlotPatches[slotID] = patch
		}
		c.logger.Warn("Slot batch failed, retaining pending patches",
			"patches", len(pending.SlotPatches), "error", batchErr)
		return
	}

	statusBySlot := make(map[int64]SlotPatchStatus, len(res.Statuses))
	for _, st := range res.Statuses {
		statusBySlot[st.SlotID] = st
	}

	for _, up := range uploads {
		patch := pending.SlotPatches[up.SlotID]
		st, ok := statusBySlot[up.SlotID]
		if !ok {
			// Missing status is a contract violation; keep the patch pending
			// and surface the failure so the shell never reports success for
			// a retained patch.
			failed.SlotPatches[up.SlotID] = patch
			if result.SlotErr == nil {
				result.SlotErr = fmt.Errorf("no status returned for slot %d", up.SlotID)
			}
			c.logger.Warn("No status for uploaded slot patch", "slot_id", up.SlotID)
			continue
		}
		switch st.Status {
		case StatusApplied:
			if err := c.store.MergeSlotPatch(up.SlotID, patch); err != nil {
				c.logger.Warn("Failed to merge accepted slot patch", "slot_id", up.SlotID, "error", err)
			}
			result.SlotsApplied++
		case StatusInvalid:
			if dropInvalidPatch(&st) {
				c.logger.Warn("Dropping non-recoverable slot patch",
					"slot_id", up.SlotID, "reason", st.InvalidReason(), "message", st.Message)
				continue
			}
			failed.SlotPatches[up.SlotID] = patch
			if result.SlotErr == nil {
				result.SlotErr = fmt.Errorf("slot %d rejected: %s", up.SlotID, st.InvalidReason())
			}
		default:
			failed.SlotPatches[up.SlotID] = patch
			if result.SlotErr == nil {
				result.SlotErr = fmt.Errorf("unknown status %q for slot %d", st.Status, up.SlotID)
			}
			c.logger.Warn("Unknown slot patch status", "slot_id", up.SlotID, "status", st.Status)
		}
	}
}

// reconcileItems merges accepted item patches and keeps failed ones pending.
func (c *Coordinator) reconcileItems(pending *PendingChanges, itemIDs []int64,
	result *CommitResult, failed *PendingChanges) {

	for _, itemID := range itemIDs {
		if err, ok := result.ItemErrs[itemID]; ok {
			failed.ItemPatches[itemID] = pending.ItemPatches[itemID]
			c.logger.Warn("Item update failed, retaining pending patch", "item_id", itemID, "error", err)
			continue
		}
		if err := c.store.MergeItemPatch(itemID, pending.ItemPatches[itemID]); err != nil {
			// The backend accepted the update but the store diverged; surface
			// it instead of counting the patch applied. Not re-staged: a
			// reload, not a re-send, resolves the divergence.
			result.ItemErrs[itemID] = err
			c.logger.Warn("Failed to merge accepted item patch", "item_id", itemID, "error", err)
			continue
		}
		result.ItemsApplied++
	}
}

// dropInvalidPatch returns true only for non-recoverable invalid reasons;
// retryable rejections (not_found races, batch limits, transient errors) stay
// pending.
func dropInvalidPatch(st *SlotPatchStatus) bool {
	switch st.InvalidReason() {
	case ReasonBadPayload, ReasonUnknownField:
		return true
	default:
		return false
	}
}

// buildSlotUploads flattens the slot patches into wire form, ordered by slot
// ID so a batch is deterministic for a given change set.
func buildSlotUploads(pending *PendingChanges) []SlotPatchUpload {
	if len(pending.SlotPatches) == 0 {
		return nil
	}
	uploads := make([]SlotPatchUpload, 0, len(pending.SlotPatches))
	for slotID, patch := range pending.SlotPatches {
		if patch.isEmpty() {
			continue
		}
		cp := patch.clone()
		uploads = append(uploads, SlotPatchUpload{
			SlotID:      slotID,
			Fields:      cp.Fields,
			BuyerFields: cp.BuyerFields,
		})
	}
	sort.Slice(uploads, func(i, j int) bool { return uploads[i].SlotID < uploads[j].SlotID })
	return uploads
}

func sortedItemIDs(pending *PendingChanges) []int64 {
	if len(pending.ItemPatches) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(pending.ItemPatches))
	for id := range pending.ItemPatches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
