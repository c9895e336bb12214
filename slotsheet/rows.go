// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

// RowKind tags one variant of the display-row union.
type RowKind int

const (
	// RowItemSeparator is a pure visual break between items; it carries no
	// entity reference.
	RowItemSeparator RowKind = iota
	// RowGroupHeader aggregates the group's override fields and the item's
	// catalogue fields; one per (itemID, groupIndex).
	RowGroupHeader
	// RowLinkBanner carries the group's sharable token; read-only.
	RowLinkBanner
	// RowDataRow renders one slot and its buyer, if assigned.
	RowDataRow
)

func (k RowKind) String() string {
	switch k {
	case RowItemSeparator:
		return "item_separator"
	case RowGroupHeader:
		return "group_header"
	case RowLinkBanner:
		return "link_banner"
	case RowDataRow:
		return "data_row"
	default:
		return "unknown"
	}
}

// DisplayRow is one derived, non-persisted unit of grid rendering. Which of
// the reference fields are meaningful depends on Kind: separators reference
// nothing, headers and banners reference (ItemID, GroupIndex), data rows
// reference SlotID (and BuyerID when assigned).
type DisplayRow struct {
	Kind       RowKind
	ItemID     int64
	GroupIndex int
	SlotID     int64
	BuyerID    int64
	ShareToken string

	// Slot backs data rows; for group headers it is the first slot of the
	// group, the source of the aggregated override fields.
	Slot *Slot
	// Item backs group headers.
	Item *Item
}

// EntityRef identifies the entities a row resolves edits against.
type EntityRef struct {
	ItemID     int64
	GroupIndex int
	SlotID     int64
	BuyerID    int64
}

// Ref returns the row's entity reference. Structural separators return the
// zero ref, which the change tracker ignores.
func (r *DisplayRow) Ref() EntityRef {
	switch r.Kind {
	case RowGroupHeader, RowLinkBanner:
		return EntityRef{ItemID: r.ItemID, GroupIndex: r.GroupIndex}
	case RowDataRow:
		return EntityRef{ItemID: r.ItemID, GroupIndex: r.GroupIndex, SlotID: r.SlotID, BuyerID: r.BuyerID}
	default:
		return EntityRef{}
	}
}
