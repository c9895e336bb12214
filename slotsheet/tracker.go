// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

import (
	"log/slog"
)

// SlotPatch is the accumulated uncommitted edit set for one slot. Slot-owned
// and buyer-owned fields are kept apart because the commit step routes them
// to different sides of the slot update.
type SlotPatch struct {
	Fields      map[Field]any `json:"fields,omitempty"`
	BuyerFields map[Field]any `json:"buyer_fields,omitempty"`
}

func (p SlotPatch) isEmpty() bool {
	return len(p.Fields) == 0 && len(p.BuyerFields) == 0
}

func (p SlotPatch) clone() SlotPatch {
	out := SlotPatch{}
	if len(p.Fields) > 0 {
		out.Fields = make(map[Field]any, len(p.Fields))
		for f, v := range p.Fields {
			out.Fields[f] = v
		}
	}
	if len(p.BuyerFields) > 0 {
		out.BuyerFields = make(map[Field]any, len(p.BuyerFields))
		for f, v := range p.BuyerFields {
			out.BuyerFields[f] = v
		}
	}
	return out
}

// PendingChanges is the uncommitted edit set, keyed by target entity. A field
// present in a patch always holds the latest value (last-write-wins within
// the session). Cleared only on successful commit or reload.
type PendingChanges struct {
	SlotPatches map[int64]SlotPatch
	ItemPatches map[int64]map[Field]any
}

// NewPendingChanges returns an empty change set.
func NewPendingChanges() *PendingChanges {
	return &PendingChanges{
		SlotPatches: make(map[int64]SlotPatch),
		ItemPatches: make(map[int64]map[Field]any),
	}
}

// IsEmpty reports whether no entity has pending edits.
func (pc *PendingChanges) IsEmpty() bool {
	return len(pc.SlotPatches) == 0 && len(pc.ItemPatches) == 0
}

// EntityCount counts the distinct entities with pending edits; this is the
// number surfaced to the save affordance.
func (pc *PendingChanges) EntityCount() int {
	return len(pc.SlotPatches) + len(pc.ItemPatches)
}

// Tracker accumulates cell edits keyed by target entity. It consults the
// store for the currently displayed value (no-op guard) and for group
// membership when a header edit fans out.
type Tracker struct {
	store   *Store
	logger  *slog.Logger
	pending *PendingChanges

	// onCount fires whenever the pending entity count changes.
	onCount func(count int)
}

// NewTracker creates a tracker over the given store. onCount may be nil.
func NewTracker(store *Store, logger *slog.Logger, onCount func(count int)) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:   store,
		logger:  logger,
		pending: NewPendingChanges(),
		onCount: onCount,
	}
}

// Pending exposes the current change set (read-only by convention).
func (t *Tracker) Pending() *PendingChanges { return t.pending }

// Record stages one cell edit. The field decides the target entity:
// item-owned fields patch the item, per-group override fields fan out to
// every slot currently in the row's (itemID, groupIndex) group, everything
// else patches the row's slot (buyer fields nested under the same patch).
//
// Recording against a row with no resolvable entity, or an unmapped field, is
// silently dropped: the grid legitimately fires change events for structural
// cells and that must never raise.
func (t *Tracker) Record(kind RowKind, ref EntityRef, field Field, newValue any) {
	if field == FieldNone || !knownField(field) {
		t.logger.Debug("Ignoring edit on unmapped field", "kind", kind.String(), "field", string(field))
		return
	}

	before := t.pending.EntityCount()
	switch {
	case IsItemField(field):
		if ref.ItemID == 0 {
			t.logger.Debug("Ignoring item edit with no item ref", "field", string(field))
			return
		}
		t.recordItem(ref.ItemID, field, newValue)

	case IsGroupField(field):
		if ref.ItemID == 0 {
			t.logger.Debug("Ignoring group edit with no group ref", "field", string(field))
			return
		}
		t.recordGroup(ref.ItemID, ref.GroupIndex, field, newValue)

	default:
		if ref.SlotID == 0 {
			t.logger.Debug("Ignoring slot edit with no slot ref", "field", string(field))
			return
		}
		t.recordSlot(ref.SlotID, field, newValue)
	}

	if after := t.pending.EntityCount(); after != before {
		t.notify(after)
	}
}

func (t *Tracker) recordItem(itemID int64, field Field, newValue any) {
	if cur, ok := t.currentItemValue(itemID, field); ok && valueEqual(cur, newValue) {
		return
	}
	fields := t.pending.ItemPatches[itemID]
	if fields == nil {
		fields = make(map[Field]any)
		t.pending.ItemPatches[itemID] = fields
	}
	fields[field] = newValue
}

// recordGroup fans a header edit out to every member slot. Membership is
// computed at edit time from the live store; slots provisioned afterwards are
// not retroactively patched.
func (t *Tracker) recordGroup(itemID int64, groupIndex int, field Field, newValue any) {
	members := t.store.GroupSlotIDs(itemID, groupIndex)
	if len(members) == 0 {
		t.logger.Debug("Ignoring group edit for empty group",
			"item_id", itemID, "group_index", groupIndex, "field", string(field))
		return
	}

	// The header displays the first member's value; an edit equal to it is a
	// no-op for the whole group.
	if cur, ok := t.currentSlotValue(members[0], field); ok && valueEqual(cur, newValue) {
		return
	}

	for _, slotID := range members {
		t.setSlotField(slotID, field, newValue, false)
	}
}

func (t *Tracker) recordSlot(slotID int64, field Field, newValue any) {
	if cur, ok := t.currentSlotValue(slotID, field); ok && valueEqual(cur, newValue) {
		return
	}
	t.setSlotField(slotID, field, newValue, IsBuyerField(field))
}

func (t *Tracker) setSlotField(slotID int64, field Field, v any, buyer bool) {
	patch := t.pending.SlotPatches[slotID]
	if buyer {
		if patch.BuyerFields == nil {
			patch.BuyerFields = make(map[Field]any)
		}
		patch.BuyerFields[field] = v
	} else {
		if patch.Fields == nil {
			patch.Fields = make(map[Field]any)
		}
		patch.Fields[field] = v
	}
	t.pending.SlotPatches[slotID] = patch
}

// currentSlotValue is the value the cell currently shows: the pending
// override when one exists, otherwise the stored value.
func (t *Tracker) currentSlotValue(slotID int64, field Field) (any, bool) {
	if patch, ok := t.pending.SlotPatches[slotID]; ok {
		if IsBuyerField(field) {
			if v, ok := patch.BuyerFields[field]; ok {
				return v, true
			}
		} else if v, ok := patch.Fields[field]; ok {
			return v, true
		}
	}
	return t.store.SlotValue(slotID, field)
}

func (t *Tracker) currentItemValue(itemID int64, field Field) (any, bool) {
	if fields, ok := t.pending.ItemPatches[itemID]; ok {
		if v, ok := fields[field]; ok {
			return v, true
		}
	}
	return t.store.ItemValue(itemID, field)
}

// Take removes and returns the accumulated change set; edits recorded
// afterwards land in a fresh set. Used at commit start so a mid-flight edit
// can never be silently dropped with a failed batch.
func (t *Tracker) Take() *PendingChanges {
	taken := t.pending
	t.pending = NewPendingChanges()
	if !taken.IsEmpty() {
		t.notify(0)
	}
	return taken
}

// Restore re-stages patches from a failed commit half. Fields the user
// re-edited while the commit was in flight keep their newer value.
func (t *Tracker) Restore(failed *PendingChanges) {
	if failed == nil || failed.IsEmpty() {
		return
	}
	before := t.pending.EntityCount()

	for slotID, patch := range failed.SlotPatches {
		cur := t.pending.SlotPatches[slotID]
		for f, v := range patch.Fields {
			if cur.Fields == nil {
				cur.Fields = make(map[Field]any)
			}
			if _, edited := cur.Fields[f]; !edited {
				cur.Fields[f] = v
			}
		}
		for f, v := range patch.BuyerFields {
			if cur.BuyerFields == nil {
				cur.BuyerFields = make(map[Field]any)
			}
			if _, edited := cur.BuyerFields[f]; !edited {
				cur.BuyerFields[f] = v
			}
		}
		t.pending.SlotPatches[slotID] = cur
	}

	for itemID, fields := range failed.ItemPatches {
		cur := t.pending.ItemPatches[itemID]
		if cur == nil {
			cur = make(map[Field]any)
			t.pending.ItemPatches[itemID] = cur
		}
		for f, v := range fields {
			if _, edited := cur[f]; !edited {
				cur[f] = v
			}
		}
	}

	if after := t.pending.EntityCount(); after != before {
		t.notify(after)
	}
}

// DropSlots discards pending patches for deleted slots.
func (t *Tracker) DropSlots(slotIDs []int64) {
	before := t.pending.EntityCount()
	for _, id := range slotIDs {
		delete(t.pending.SlotPatches, id)
	}
	if after := t.pending.EntityCount(); after != before {
		t.notify(after)
	}
}

// Clear discards all pending edits (reload path).
func (t *Tracker) Clear() {
	if t.pending.IsEmpty() {
		return
	}
	t.pending = NewPendingChanges()
	t.notify(0)
}

func (t *Tracker) notify(count int) {
	if t.onCount != nil {
		t.onCount(count)
	}
}
