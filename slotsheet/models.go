// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

// Package slotsheet implements the grouped slot sheet engine behind the
// campaign operations dashboard: it projects a flat list of per-buyer slot
// assignments into a hierarchical grid, tracks cell edits against the three
// backing entities (item, slot, buyer), and commits a minimal batch of
// updates back to the persistence service.
package slotsheet

// Slot is the unit of assignment: one expected purchase/review instance
// inside a group of an item. The per-group override fields live on the slot
// even though they describe the item, because every group of the same item
// may override them independently.
type Slot struct {
	SlotID     int64 `json:"slot_id"`
	CampaignID int64 `json:"campaign_id"`
	ItemID     int64 `json:"item_id"`
	GroupIndex int   `json:"group_index"`

	// Sharable token rendered on the group's link banner.
	ShareToken string `json:"share_token"`

	// Per-group override fields.
	DisplayName    string `json:"display_name"`
	PurchaseOption string `json:"purchase_option"`
	Keyword        string `json:"keyword"`
	UnitPrice      int64  `json:"unit_price"`
	Notes          string `json:"notes"`

	// Slot-own progress fields.
	OrderNo string `json:"order_no"`

	// Buyer is nil while the slot is unassigned.
	Buyer *Buyer `json:"buyer,omitempty"`
}

// Buyer is the embedded sub-record of a slot: the person fulfilling the
// assignment. Review images are attached by an external upload pipeline and
// are read-only in this engine.
type Buyer struct {
	BuyerID        int64    `json:"buyer_id"`
	Name           string   `json:"name"`
	Phone          string   `json:"phone"`
	Address        string   `json:"address"`
	BankName       string   `json:"bank_name"`
	AccountNo      string   `json:"account_no"`
	Amount         int64    `json:"amount"`
	TrackingNo     string   `json:"tracking_no"`
	TrackingStatus string   `json:"tracking_status"`
	ReviewDone     bool     `json:"review_done"`
	ReviewImages   []string `json:"review_images,omitempty"`
}

// Item is the catalogue-level aggregate shared across all groups of an item.
// Edits to these fields from the sheet target the item directly, not any slot.
type Item struct {
	ItemID           int64  `json:"item_id"`
	CampaignID       int64  `json:"campaign_id"`
	Name             string `json:"name"`
	ProductURL       string `json:"product_url"`
	TotalTargetCount int64  `json:"total_target_count"`
	DailyTargetCount int64  `json:"daily_target_count"`
	CourierOnly      bool   `json:"courier_only"`
	UnitCost         int64  `json:"unit_cost"`
	AgencyFee        int64  `json:"agency_fee"`
}

// Clone returns a deep copy of the slot.
func (s *Slot) Clone() Slot {
	out := *s
	if s.Buyer != nil {
		b := *s.Buyer
		if s.Buyer.ReviewImages != nil {
			b.ReviewImages = append([]string(nil), s.Buyer.ReviewImages...)
		}
		out.Buyer = &b
	}
	return out
}
