// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

import (
	"context"
	"fmt"
	"sync"
)

// testSlots builds the canonical fixture: item 1 with two groups (slots 1,2
// in group 0 and slot 3 in group 1) and item 2 with one group (slots 4,5).
func testSlots() []Slot {
	return []Slot{
		{SlotID: 1, CampaignID: 7, ItemID: 1, GroupIndex: 0, ShareToken: "tok-1-0", DisplayName: "Item One", UnitPrice: 1000},
		{SlotID: 2, CampaignID: 7, ItemID: 1, GroupIndex: 0, ShareToken: "tok-1-0", DisplayName: "Item One", UnitPrice: 1000,
			Buyer: &Buyer{BuyerID: 21, Name: "Kim", Amount: 1000, ReviewDone: true}},
		{SlotID: 3, CampaignID: 7, ItemID: 1, GroupIndex: 1, ShareToken: "tok-1-1", DisplayName: "Item One B"},
		{SlotID: 4, CampaignID: 7, ItemID: 2, GroupIndex: 0, ShareToken: "tok-2-0", DisplayName: "Item Two",
			Buyer: &Buyer{BuyerID: 22, Name: "Lee", Amount: 2500}},
		{SlotID: 5, CampaignID: 7, ItemID: 2, GroupIndex: 0, ShareToken: "tok-2-0", DisplayName: "Item Two"},
	}
}

func testItems() []Item {
	return []Item{
		{ItemID: 1, CampaignID: 7, Name: "Item One", ProductURL: "https://shop.example/1", TotalTargetCount: 30, DailyTargetCount: 3, UnitCost: 900},
		{ItemID: 2, CampaignID: 7, Name: "Item Two", ProductURL: "https://shop.example/2", TotalTargetCount: 10, DailyTargetCount: 2, UnitCost: 2200, CourierOnly: true},
	}
}

func testItemMap() map[int64]*Item {
	items := testItems()
	out := make(map[int64]*Item, len(items))
	for i := range items {
		out[items[i].ItemID] = &items[i]
	}
	return out
}

func newTestStore() *Store {
	st := NewStore()
	st.Replace(testSlots(), testItems())
	return st
}

// fakeBackend is an in-memory Backend for engine and coordinator tests. The
// function fields override individual calls; unset fields succeed.
type fakeBackend struct {
	mu    sync.Mutex
	slots []Slot
	items map[int64]*Item

	batchFn   func(ctx context.Context, patches []SlotPatchUpload) (*SlotBatchResult, error)
	itemErrs  map[int64]error
	fetchErrs map[int64]error

	batchCalls    [][]SlotPatchUpload
	itemCalls     map[int64][]map[Field]any
	deletedSlots  [][]int64
	deletedGroups []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		slots:     testSlots(),
		items:     testItemMap(),
		itemCalls: make(map[int64][]map[Field]any),
	}
}

func (f *fakeBackend) FetchSlots(_ context.Context, campaignID int64) ([]Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Slot
	for i := range f.slots {
		if f.slots[i].CampaignID == campaignID {
			out = append(out, f.slots[i].Clone())
		}
	}
	return out, nil
}

func (f *fakeBackend) FetchItem(_ context.Context, itemID int64) (*Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fetchErrs[itemID]; ok {
		return nil, err
	}
	it, ok := f.items[itemID]
	if !ok {
		return nil, fmt.Errorf("item %d not found", itemID)
	}
	cp := *it
	return &cp, nil
}

func (f *fakeBackend) UpdateSlotsBatch(ctx context.Context, patches []SlotPatchUpload) (*SlotBatchResult, error) {
	f.mu.Lock()
	f.batchCalls = append(f.batchCalls, patches)
	fn := f.batchFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, patches)
	}
	statuses := make([]SlotPatchStatus, len(patches))
	for i, p := range patches {
		statuses[i] = SlotPatchStatus{SlotID: p.SlotID, Status: StatusApplied}
	}
	return &SlotBatchResult{Accepted: true, Statuses: statuses}, nil
}

func (f *fakeBackend) UpdateItem(_ context.Context, itemID int64, fields map[Field]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemCalls[itemID] = append(f.itemCalls[itemID], fields)
	if err, ok := f.itemErrs[itemID]; ok {
		return err
	}
	return nil
}

func (f *fakeBackend) DeleteSlots(_ context.Context, slotIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedSlots = append(f.deletedSlots, slotIDs)
	return nil
}

func (f *fakeBackend) DeleteGroup(_ context.Context, itemID int64, groupIndex int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedGroups = append(f.deletedGroups, fmt.Sprintf("%d/%d", itemID, groupIndex))
	return nil
}

// rowKinds flattens a projection into its kind sequence for structural
// assertions.
func rowKinds(rows []DisplayRow) []RowKind {
	kinds := make([]RowKind, len(rows))
	for i := range rows {
		kinds[i] = rows[i].Kind
	}
	return kinds
}

// findRow returns the index of the first row matching kind and slot ID
// (slotID 0 matches any).
func findRow(rows []DisplayRow, kind RowKind, slotID int64) int {
	for i := range rows {
		if rows[i].Kind != kind {
			continue
		}
		if slotID == 0 || rows[i].SlotID == slotID {
			return i
		}
	}
	return -1
}
