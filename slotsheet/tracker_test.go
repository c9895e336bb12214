// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackerSingleSlotEdit(t *testing.T) {
	tr := NewTracker(newTestStore(), nil, nil)

	tr.Record(RowDataRow, EntityRef{ItemID: 1, GroupIndex: 0, SlotID: 1}, FieldAmount, int64(2000))

	pending := tr.Pending()
	require.Len(t, pending.SlotPatches, 1)
	require.Empty(t, pending.ItemPatches)
	require.Equal(t, int64(2000), pending.SlotPatches[1].BuyerFields[FieldAmount])
	require.Empty(t, pending.SlotPatches[1].Fields)
	require.Equal(t, 1, pending.EntityCount())
}

func TestTrackerLastWriteWins(t *testing.T) {
	tr := NewTracker(newTestStore(), nil, nil)
	ref := EntityRef{ItemID: 1, GroupIndex: 0, SlotID: 1}

	tr.Record(RowDataRow, ref, FieldOrderNo, "A-1")
	tr.Record(RowDataRow, ref, FieldOrderNo, "A-2")

	pending := tr.Pending()
	require.Equal(t, "A-2", pending.SlotPatches[1].Fields[FieldOrderNo])
	require.Equal(t, 1, pending.EntityCount())
}

func TestTrackerGroupFanOut(t *testing.T) {
	tr := NewTracker(newTestStore(), nil, nil)

	// Keyword edited on the group header fans out to every member slot.
	tr.Record(RowGroupHeader, EntityRef{ItemID: 1, GroupIndex: 0}, FieldKeyword, "foo")

	pending := tr.Pending()
	require.Len(t, pending.SlotPatches, 2)
	require.Equal(t, "foo", pending.SlotPatches[1].Fields[FieldKeyword])
	require.Equal(t, "foo", pending.SlotPatches[2].Fields[FieldKeyword])
	require.Empty(t, pending.ItemPatches)
}

func TestTrackerItemEdit(t *testing.T) {
	tr := NewTracker(newTestStore(), nil, nil)

	tr.Record(RowGroupHeader, EntityRef{ItemID: 1, GroupIndex: 0}, FieldTotalTargetCount, int64(50))

	pending := tr.Pending()
	require.Empty(t, pending.SlotPatches)
	require.Len(t, pending.ItemPatches, 1)
	require.Equal(t, int64(50), pending.ItemPatches[1][FieldTotalTargetCount])
}

func TestTrackerNoOpEditIgnored(t *testing.T) {
	tr := NewTracker(newTestStore(), nil, nil)

	// Writing back the currently displayed value stages nothing.
	tr.Record(RowDataRow, EntityRef{ItemID: 1, GroupIndex: 0, SlotID: 2}, FieldBuyerName, "Kim")
	tr.Record(RowGroupHeader, EntityRef{ItemID: 1, GroupIndex: 0}, FieldDisplayName, "Item One")
	tr.Record(RowGroupHeader, EntityRef{ItemID: 1, GroupIndex: 0}, FieldTotalTargetCount, int64(30))
	// JSON-decoded numbers compare by value, not by type.
	tr.Record(RowGroupHeader, EntityRef{ItemID: 1, GroupIndex: 0}, FieldUnitPrice, float64(1000))

	require.True(t, tr.Pending().IsEmpty())
}

func TestTrackerNoOpAfterPendingEdit(t *testing.T) {
	tr := NewTracker(newTestStore(), nil, nil)
	ref := EntityRef{ItemID: 1, GroupIndex: 0, SlotID: 1}

	tr.Record(RowDataRow, ref, FieldOrderNo, "B-9")
	// The displayed value is now the pending one; repeating it is a no-op,
	// and reverting to the stored value is a real edit.
	tr.Record(RowDataRow, ref, FieldOrderNo, "B-9")
	require.Equal(t, "B-9", tr.Pending().SlotPatches[1].Fields[FieldOrderNo])

	tr.Record(RowDataRow, ref, FieldOrderNo, "")
	require.Equal(t, "", tr.Pending().SlotPatches[1].Fields[FieldOrderNo])
}

func TestTrackerDropsUnresolvableEdits(t *testing.T) {
	tr := NewTracker(newTestStore(), nil, nil)

	tr.Record(RowItemSeparator, EntityRef{}, FieldNone, "x")
	tr.Record(RowDataRow, EntityRef{ItemID: 1, GroupIndex: 0, SlotID: 1}, Field("bogus"), "x")
	tr.Record(RowDataRow, EntityRef{}, FieldBuyerName, "x")
	tr.Record(RowGroupHeader, EntityRef{}, FieldKeyword, "x")
	tr.Record(RowGroupHeader, EntityRef{ItemID: 1, GroupIndex: 9}, FieldKeyword, "x")

	require.True(t, tr.Pending().IsEmpty())
}

func TestTrackerChangeCountNotifications(t *testing.T) {
	var counts []int
	tr := NewTracker(newTestStore(), nil, func(count int) { counts = append(counts, count) })

	ref := EntityRef{ItemID: 1, GroupIndex: 0, SlotID: 1}
	tr.Record(RowDataRow, ref, FieldOrderNo, "C-1")
	// Same entity again: count unchanged, no notification.
	tr.Record(RowDataRow, ref, FieldBuyerName, "Park")
	tr.Record(RowGroupHeader, EntityRef{ItemID: 2, GroupIndex: 0}, FieldKeyword, "bar")

	require.Equal(t, []int{1, 3}, counts)

	tr.Clear()
	require.Equal(t, []int{1, 3, 0}, counts)
}

func TestTrackerTakeAndRestore(t *testing.T) {
	tr := NewTracker(newTestStore(), nil, nil)
	ref := EntityRef{ItemID: 1, GroupIndex: 0, SlotID: 1}

	tr.Record(RowDataRow, ref, FieldOrderNo, "D-1")
	tr.Record(RowDataRow, ref, FieldBuyerName, "Choi")

	taken := tr.Take()
	require.True(t, tr.Pending().IsEmpty())
	require.Equal(t, 1, taken.EntityCount())

	// An edit while the commit is in flight lands in the fresh set.
	tr.Record(RowDataRow, ref, FieldOrderNo, "D-2")

	// The commit failed; restoring must not clobber the newer order number
	// but must bring back the untouched buyer name.
	tr.Restore(taken)
	pending := tr.Pending()
	require.Equal(t, "D-2", pending.SlotPatches[1].Fields[FieldOrderNo])
	require.Equal(t, "Choi", pending.SlotPatches[1].BuyerFields[FieldBuyerName])
}

func TestTrackerRestoreItems(t *testing.T) {
	tr := NewTracker(newTestStore(), nil, nil)
	ref := EntityRef{ItemID: 1, GroupIndex: 0}

	tr.Record(RowGroupHeader, ref, FieldTotalTargetCount, int64(40))
	taken := tr.Take()

	tr.Record(RowGroupHeader, ref, FieldTotalTargetCount, int64(60))
	tr.Restore(taken)

	require.Equal(t, int64(60), tr.Pending().ItemPatches[1][FieldTotalTargetCount])
}

func TestTrackerDropSlots(t *testing.T) {
	tr := NewTracker(newTestStore(), nil, nil)
	tr.Record(RowGroupHeader, EntityRef{ItemID: 1, GroupIndex: 0}, FieldKeyword, "baz")
	require.Equal(t, 2, tr.Pending().EntityCount())

	tr.DropSlots([]int64{1, 2})
	require.True(t, tr.Pending().IsEmpty())
}
