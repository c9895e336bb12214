// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

import (
	"fmt"
	"sync"
)

// Store holds the authoritative in-memory slot and item state for one
// campaign, as last loaded from the persistence service. It is mutated only
// by the commit coordinator's post-success merge and by reload; the projector
// and filter engine operate on snapshots and never touch it.
type Store struct {
	mu    sync.RWMutex
	slots []Slot
	items map[int64]*Item
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{items: make(map[int64]*Item)}
}

// Replace swaps in freshly loaded state, preserving the load order of slots
// (it is the projection tiebreaker).
func (st *Store) Replace(slots []Slot, items []Item) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.slots = make([]Slot, 0, len(slots))
	for i := range slots {
		st.slots = append(st.slots, slots[i].Clone())
	}
	st.items = make(map[int64]*Item, len(items))
	for i := range items {
		it := items[i]
		st.items[it.ItemID] = &it
	}
}

// PutItem adds or replaces a single item aggregate.
func (st *Store) PutItem(it Item) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.items[it.ItemID] = &it
}

// Snapshot returns copies of the slot list and item lookup safe to hand to
// the pure components.
func (st *Store) Snapshot() ([]Slot, map[int64]*Item) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	slots := make([]Slot, 0, len(st.slots))
	for i := range st.slots {
		slots = append(slots, st.slots[i].Clone())
	}
	items := make(map[int64]*Item, len(st.items))
	for id, it := range st.items {
		cp := *it
		items[id] = &cp
	}
	return slots, items
}

// SlotIDs returns the IDs of all slots currently in the store.
func (st *Store) SlotIDs() []int64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := make([]int64, 0, len(st.slots))
	for i := range st.slots {
		ids = append(ids, st.slots[i].SlotID)
	}
	return ids
}

// GroupSlotIDs returns the IDs of every slot currently in the
// (itemID, groupIndex) group, in load order.
func (st *Store) GroupSlotIDs(itemID int64, groupIndex int) []int64 {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var ids []int64
	for i := range st.slots {
		if st.slots[i].ItemID == itemID && st.slots[i].GroupIndex == groupIndex {
			ids = append(ids, st.slots[i].SlotID)
		}
	}
	return ids
}

// SlotValue returns the stored value of a slot-owned or buyer-owned field.
func (st *Store) SlotValue(slotID int64, field Field) (any, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for i := range st.slots {
		if st.slots[i].SlotID == slotID {
			return slotFieldValue(&st.slots[i], field), true
		}
	}
	return nil, false
}

// ItemValue returns the stored value of an item-owned field.
func (st *Store) ItemValue(itemID int64, field Field) (any, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	it, ok := st.items[itemID]
	if !ok {
		return nil, false
	}
	return itemFieldValue(it, field), true
}

// MergeSlotPatch shallow-merges one slot patch into the matching slot: only
// the fields present in the patch are overwritten, buyer fields land on the
// embedded buyer (created on first write), everything else is untouched.
func (st *Store) MergeSlotPatch(slotID int64, patch SlotPatch) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	for i := range st.slots {
		if st.slots[i].SlotID != slotID {
			continue
		}
		for f, v := range patch.Fields {
			if err := applySlotField(&st.slots[i], f, v); err != nil {
				return fmt.Errorf("merge slot %d: %w", slotID, err)
			}
		}
		for f, v := range patch.BuyerFields {
			if err := applyBuyerField(&st.slots[i], f, v); err != nil {
				return fmt.Errorf("merge slot %d buyer: %w", slotID, err)
			}
		}
		return nil
	}
	return fmt.Errorf("merge slot %d: not in store", slotID)
}

// MergeItemPatch shallow-merges one item patch into the referenced item.
func (st *Store) MergeItemPatch(itemID int64, fields map[Field]any) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	it, ok := st.items[itemID]
	if !ok {
		return fmt.Errorf("merge item %d: not in store", itemID)
	}
	for f, v := range fields {
		if err := applyItemField(it, f, v); err != nil {
			return fmt.Errorf("merge item %d: %w", itemID, err)
		}
	}
	return nil
}

// RemoveSlots drops slots by ID, preserving the order of the remainder. Used
// after a bulk deletion is acknowledged by the service.
func (st *Store) RemoveSlots(slotIDs []int64) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	drop := make(map[int64]bool, len(slotIDs))
	for _, id := range slotIDs {
		drop[id] = true
	}
	kept := st.slots[:0]
	removed := 0
	for i := range st.slots {
		if drop[st.slots[i].SlotID] {
			removed++
			continue
		}
		kept = append(kept, st.slots[i])
	}
	st.slots = kept
	return removed
}
