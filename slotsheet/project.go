// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

import (
	"log/slog"
	"sort"
)

// Projector derives the ordered display-row list from a slot snapshot. It is
// deterministic for a given input: slots are ordered by (itemID, groupIndex)
// with the snapshot's insertion order as the tiebreaker, so two projections
// of the same store state are identical.
type Projector struct {
	logger *slog.Logger
}

// NewProjector creates a projector. A nil logger falls back to slog.Default.
func NewProjector(logger *slog.Logger) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{logger: logger}
}

// Project turns the slot list into typed display rows. Whenever the item
// changes (except before the first item) an item separator is emitted;
// whenever the (itemID, groupIndex) pair changes a group header and link
// banner are emitted before the group's data rows.
//
// A slot referencing an item missing from the lookup is skipped and logged;
// one malformed record must not blank the whole sheet.
func (p *Projector) Project(slots []Slot, items map[int64]*Item) []DisplayRow {
	ordered := make([]Slot, len(slots))
	copy(ordered, slots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ItemID != ordered[j].ItemID {
			return ordered[i].ItemID < ordered[j].ItemID
		}
		return ordered[i].GroupIndex < ordered[j].GroupIndex
	})

	rows := make([]DisplayRow, 0, len(ordered)*2)
	var (
		haveItem  bool
		curItem   int64
		curGroup  int
		haveGroup bool
	)

	for i := range ordered {
		slot := &ordered[i]
		item, ok := items[slot.ItemID]
		if !ok {
			p.logger.Warn("Skipping slot referencing unknown item",
				"slot_id", slot.SlotID, "item_id", slot.ItemID)
			continue
		}

		if !haveItem || slot.ItemID != curItem {
			if haveItem {
				rows = append(rows, DisplayRow{Kind: RowItemSeparator})
			}
			curItem = slot.ItemID
			haveItem = true
			haveGroup = false
		}

		if !haveGroup || slot.GroupIndex != curGroup {
			curGroup = slot.GroupIndex
			haveGroup = true
			rows = append(rows,
				DisplayRow{
					Kind:       RowGroupHeader,
					ItemID:     slot.ItemID,
					GroupIndex: slot.GroupIndex,
					Slot:       slot,
					Item:       item,
				},
				DisplayRow{
					Kind:       RowLinkBanner,
					ItemID:     slot.ItemID,
					GroupIndex: slot.GroupIndex,
					ShareToken: slot.ShareToken,
				},
			)
		}

		row := DisplayRow{
			Kind:       RowDataRow,
			ItemID:     slot.ItemID,
			GroupIndex: slot.GroupIndex,
			SlotID:     slot.SlotID,
			Slot:       slot,
		}
		if slot.Buyer != nil {
			row.BuyerID = slot.Buyer.BuyerID
		}
		rows = append(rows, row)
	}

	return rows
}
