// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func stagedChanges() *PendingChanges {
	pending := NewPendingChanges()
	pending.SlotPatches[1] = SlotPatch{Fields: map[Field]any{FieldOrderNo: "X-1"}}
	pending.SlotPatches[2] = SlotPatch{BuyerFields: map[Field]any{FieldAmount: int64(3000)}}
	pending.ItemPatches[1] = map[Field]any{FieldTotalTargetCount: int64(45)}
	return pending
}

func TestCommitSuccessMergesStore(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore()
	c := NewCoordinator(backend, store, nil)

	result, failed := c.Commit(context.Background(), stagedChanges())
	require.NoError(t, result.Err())
	require.True(t, failed.IsEmpty())
	require.Equal(t, 2, result.SlotsApplied)
	require.Equal(t, 1, result.ItemsApplied)

	// Accepted patches are merged back without a reload.
	v, _ := store.SlotValue(1, FieldOrderNo)
	require.Equal(t, "X-1", v)
	v, _ = store.SlotValue(2, FieldAmount)
	require.Equal(t, int64(3000), v)
	v, _ = store.ItemValue(1, FieldTotalTargetCount)
	require.Equal(t, int64(45), v)

	// The batch is deterministic: one call, ordered by slot ID.
	require.Len(t, backend.batchCalls, 1)
	require.Equal(t, int64(1), backend.batchCalls[0][0].SlotID)
	require.Equal(t, int64(2), backend.batchCalls[0][1].SlotID)
}

func TestCommitEmptyPending(t *testing.T) {
	backend := newFakeBackend()
	c := NewCoordinator(backend, newTestStore(), nil)

	result, failed := c.Commit(context.Background(), NewPendingChanges())
	require.NoError(t, result.Err())
	require.True(t, failed.IsEmpty())
	require.Empty(t, backend.batchCalls)
}

func TestCommitSlotTransportFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.batchFn = func(context.Context, []SlotPatchUpload) (*SlotBatchResult, error) {
		return nil, fmt.Errorf("connection refused")
	}
	store := newTestStore()
	c := NewCoordinator(backend, store, nil)

	result, failed := c.Commit(context.Background(), stagedChanges())
	require.Error(t, result.Err())
	require.Error(t, result.SlotErr)

	// Every slot patch stays pending; the independent item half still lands.
	require.Len(t, failed.SlotPatches, 2)
	require.Empty(t, failed.ItemPatches)
	require.Equal(t, 1, result.ItemsApplied)

	v, _ := store.SlotValue(1, FieldOrderNo)
	require.Equal(t, "", v)
	v, _ = store.ItemValue(1, FieldTotalTargetCount)
	require.Equal(t, int64(45), v)
}

func TestCommitPartialStatuses(t *testing.T) {
	backend := newFakeBackend()
	backend.batchFn = func(_ context.Context, patches []SlotPatchUpload) (*SlotBatchResult, error) {
		statuses := make([]SlotPatchStatus, len(patches))
		for i, p := range patches {
			switch p.SlotID {
			case 1:
				statuses[i] = SlotPatchStatus{SlotID: p.SlotID, Status: StatusApplied}
			default:
				statuses[i] = SlotPatchStatus{
					SlotID:  p.SlotID,
					Status:  StatusInvalid,
					Message: "slot vanished",
					Invalid: map[string]any{"reason": ReasonNotFound},
				}
			}
		}
		return &SlotBatchResult{Accepted: false, Statuses: statuses}, nil
	}
	store := newTestStore()
	c := NewCoordinator(backend, store, nil)

	result, failed := c.Commit(context.Background(), stagedChanges())
	require.Error(t, result.Err())
	require.Equal(t, 1, result.SlotsApplied)

	// The applied patch is merged, the rejected one stays pending for retry.
	v, _ := store.SlotValue(1, FieldOrderNo)
	require.Equal(t, "X-1", v)
	require.Len(t, failed.SlotPatches, 1)
	require.Contains(t, failed.SlotPatches, int64(2))
}

func TestCommitDropsNonRecoverablePatches(t *testing.T) {
	backend := newFakeBackend()
	backend.batchFn = func(_ context.Context, patches []SlotPatchUpload) (*SlotBatchResult, error) {
		statuses := make([]SlotPatchStatus, len(patches))
		for i, p := range patches {
			statuses[i] = SlotPatchStatus{
				SlotID:  p.SlotID,
				Status:  StatusInvalid,
				Invalid: map[string]any{"reason": ReasonBadPayload},
			}
		}
		return &SlotBatchResult{Accepted: false, Statuses: statuses}, nil
	}
	c := NewCoordinator(backend, newTestStore(), nil)

	pending := NewPendingChanges()
	pending.SlotPatches[1] = SlotPatch{Fields: map[Field]any{FieldNotes: "n"}}
	_, failed := c.Commit(context.Background(), pending)

	// Retrying a malformed patch can never succeed; it is dropped, not
	// re-staged.
	require.True(t, failed.IsEmpty())
}

func TestCommitItemFailureKeepsItemPending(t *testing.T) {
	backend := newFakeBackend()
	backend.itemErrs = map[int64]error{1: fmt.Errorf("boom")}
	store := newTestStore()
	c := NewCoordinator(backend, store, nil)

	result, failed := c.Commit(context.Background(), stagedChanges())
	require.Error(t, result.Err())
	require.Equal(t, 2, result.SlotsApplied)
	require.Zero(t, result.ItemsApplied)

	require.Empty(t, failed.SlotPatches)
	require.Len(t, failed.ItemPatches, 1)
	require.Equal(t, int64(45), failed.ItemPatches[1][FieldTotalTargetCount])

	// The failed item patch is not merged.
	v, _ := store.ItemValue(1, FieldTotalTargetCount)
	require.Equal(t, int64(30), v)
}

func TestCommitMissingStatusKeepsPatchPending(t *testing.T) {
	backend := newFakeBackend()
	backend.batchFn = func(_ context.Context, patches []SlotPatchUpload) (*SlotBatchResult, error) {
		// Respond for the first patch only.
		return &SlotBatchResult{
			Accepted: false,
			Statuses: []SlotPatchStatus{{SlotID: patches[0].SlotID, Status: StatusApplied}},
		}, nil
	}
	c := NewCoordinator(backend, newTestStore(), nil)

	result, failed := c.Commit(context.Background(), stagedChanges())
	require.Len(t, failed.SlotPatches, 1)
	require.Contains(t, failed.SlotPatches, int64(2))

	// A retained patch is never a silent success.
	require.Error(t, result.Err())
	require.Error(t, result.SlotErr)
}

func TestCommitUnknownStatusKeepsPatchPending(t *testing.T) {
	backend := newFakeBackend()
	backend.batchFn = func(_ context.Context, patches []SlotPatchUpload) (*SlotBatchResult, error) {
		statuses := make([]SlotPatchStatus, len(patches))
		for i, p := range patches {
			statuses[i] = SlotPatchStatus{SlotID: p.SlotID, Status: "deferred"}
		}
		return &SlotBatchResult{Accepted: false, Statuses: statuses}, nil
	}
	c := NewCoordinator(backend, newTestStore(), nil)

	result, failed := c.Commit(context.Background(), stagedChanges())
	require.Len(t, failed.SlotPatches, 2)
	require.Error(t, result.Err())
	require.Error(t, result.SlotErr)
	require.Zero(t, result.SlotsApplied)
}

func TestCommitItemMergeFailureSurfaced(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore()
	c := NewCoordinator(backend, store, nil)

	// The backend accepts the update but the item is gone from the store.
	pending := NewPendingChanges()
	pending.ItemPatches[99] = map[Field]any{FieldUnitCost: int64(700)}

	result, failed := c.Commit(context.Background(), pending)
	require.Error(t, result.Err())
	require.Contains(t, result.ItemErrs, int64(99))
	require.Zero(t, result.ItemsApplied)
	// Not re-staged: the backend already applied it.
	require.Empty(t, failed.ItemPatches)
}
