// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

import (
	"fmt"
	"reflect"
	"strconv"
)

// Field names a single editable cell semantic. Field names are stable wire
// identifiers shared with the persistence service.
type Field string

// FieldNone marks a cell with no backing entity field (not editable).
const FieldNone Field = ""

// Item-owned fields (edits target the item aggregate).
const (
	FieldTotalTargetCount Field = "total_target_count"
	FieldDailyTargetCount Field = "daily_target_count"
	FieldProductURL       Field = "product_url"
	FieldCourierOnly      Field = "courier_only"
	FieldUnitCost         Field = "unit_cost"
	FieldAgencyFee        Field = "agency_fee"
)

// Per-group override fields (slot-owned, fanned out to every slot in the
// group when edited from a group header).
const (
	FieldDisplayName    Field = "display_name"
	FieldPurchaseOption Field = "purchase_option"
	FieldKeyword        Field = "keyword"
	FieldUnitPrice      Field = "unit_price"
	FieldNotes          Field = "notes"
)

// Slot-own data-row fields.
const (
	FieldOrderNo Field = "order_no"
)

// Buyer-owned fields (nested under the slot patch, sent to the buyer side of
// the slot update).
const (
	FieldBuyerName      Field = "buyer_name"
	FieldBuyerPhone     Field = "buyer_phone"
	FieldBuyerAddress   Field = "buyer_address"
	FieldBankName       Field = "bank_name"
	FieldAccountNo      Field = "account_no"
	FieldAmount         Field = "amount"
	FieldTrackingNo     Field = "tracking_no"
	FieldTrackingStatus Field = "tracking_status"
	FieldReviewDone     Field = "review_done"
)

var itemFields = map[Field]bool{
	FieldTotalTargetCount: true,
	FieldDailyTargetCount: true,
	FieldProductURL:       true,
	FieldCourierOnly:      true,
	FieldUnitCost:         true,
	FieldAgencyFee:        true,
}

var groupFields = map[Field]bool{
	FieldDisplayName:    true,
	FieldPurchaseOption: true,
	FieldKeyword:        true,
	FieldUnitPrice:      true,
	FieldNotes:          true,
}

var slotFields = map[Field]bool{
	FieldOrderNo: true,
}

var buyerFields = map[Field]bool{
	FieldBuyerName:      true,
	FieldBuyerPhone:     true,
	FieldBuyerAddress:   true,
	FieldBankName:       true,
	FieldAccountNo:      true,
	FieldAmount:         true,
	FieldTrackingNo:     true,
	FieldTrackingStatus: true,
	FieldReviewDone:     true,
}

// IsItemField reports whether the field targets the item aggregate.
func IsItemField(f Field) bool { return itemFields[f] }

// IsGroupField reports whether the field is a per-group override.
func IsGroupField(f Field) bool { return groupFields[f] }

// IsBuyerField reports whether the field lives on the embedded buyer record.
func IsBuyerField(f Field) bool { return buyerFields[f] }

// IsSlotField reports whether the field is slot-owned (override or data-row).
func IsSlotField(f Field) bool { return groupFields[f] || slotFields[f] }

// knownField reports whether the field belongs to any entity at all.
func knownField(f Field) bool {
	return itemFields[f] || groupFields[f] || slotFields[f] || buyerFields[f]
}

// slotFieldValue returns the current value of a slot-owned or buyer-owned
// field. A nil buyer yields the zero value for buyer fields.
func slotFieldValue(s *Slot, f Field) any {
	switch f {
	case FieldDisplayName:
		return s.DisplayName
	case FieldPurchaseOption:
		return s.PurchaseOption
	case FieldKeyword:
		return s.Keyword
	case FieldUnitPrice:
		return s.UnitPrice
	case FieldNotes:
		return s.Notes
	case FieldOrderNo:
		return s.OrderNo
	}
	if buyerFields[f] {
		b := s.Buyer
		if b == nil {
			b = &Buyer{}
		}
		switch f {
		case FieldBuyerName:
			return b.Name
		case FieldBuyerPhone:
			return b.Phone
		case FieldBuyerAddress:
			return b.Address
		case FieldBankName:
			return b.BankName
		case FieldAccountNo:
			return b.AccountNo
		case FieldAmount:
			return b.Amount
		case FieldTrackingNo:
			return b.TrackingNo
		case FieldTrackingStatus:
			return b.TrackingStatus
		case FieldReviewDone:
			return b.ReviewDone
		}
	}
	return nil
}

// itemFieldValue returns the current value of an item-owned field.
func itemFieldValue(it *Item, f Field) any {
	switch f {
	case FieldTotalTargetCount:
		return it.TotalTargetCount
	case FieldDailyTargetCount:
		return it.DailyTargetCount
	case FieldProductURL:
		return it.ProductURL
	case FieldCourierOnly:
		return it.CourierOnly
	case FieldUnitCost:
		return it.UnitCost
	case FieldAgencyFee:
		return it.AgencyFee
	}
	return nil
}

// applySlotField merges one patched field into a slot. Buyer fields allocate
// the embedded buyer record on first write to an unassigned slot.
func applySlotField(s *Slot, f Field, v any) error {
	switch f {
	case FieldDisplayName:
		s.DisplayName = asString(v)
	case FieldPurchaseOption:
		s.PurchaseOption = asString(v)
	case FieldKeyword:
		s.Keyword = asString(v)
	case FieldUnitPrice:
		n, err := asInt64(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", f, err)
		}
		s.UnitPrice = n
	case FieldNotes:
		s.Notes = asString(v)
	case FieldOrderNo:
		s.OrderNo = asString(v)
	default:
		return fmt.Errorf("not a slot field: %s", f)
	}
	return nil
}

func applyBuyerField(s *Slot, f Field, v any) error {
	if s.Buyer == nil {
		s.Buyer = &Buyer{}
	}
	b := s.Buyer
	switch f {
	case FieldBuyerName:
		b.Name = asString(v)
	case FieldBuyerPhone:
		b.Phone = asString(v)
	case FieldBuyerAddress:
		b.Address = asString(v)
	case FieldBankName:
		b.BankName = asString(v)
	case FieldAccountNo:
		b.AccountNo = asString(v)
	case FieldAmount:
		n, err := asInt64(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", f, err)
		}
		b.Amount = n
	case FieldTrackingNo:
		b.TrackingNo = asString(v)
	case FieldTrackingStatus:
		b.TrackingStatus = asString(v)
	case FieldReviewDone:
		b.ReviewDone = asBool(v)
	default:
		return fmt.Errorf("not a buyer field: %s", f)
	}
	return nil
}

func applyItemField(it *Item, f Field, v any) error {
	switch f {
	case FieldTotalTargetCount:
		n, err := asInt64(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", f, err)
		}
		it.TotalTargetCount = n
	case FieldDailyTargetCount:
		n, err := asInt64(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", f, err)
		}
		it.DailyTargetCount = n
	case FieldProductURL:
		it.ProductURL = asString(v)
	case FieldCourierOnly:
		it.CourierOnly = asBool(v)
	case FieldUnitCost:
		n, err := asInt64(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", f, err)
		}
		it.UnitCost = n
	case FieldAgencyFee:
		n, err := asInt64(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", f, err)
		}
		it.AgencyFee = n
	default:
		return fmt.Errorf("not an item field: %s", f)
	}
	return nil
}

// asString coerces a cell value to its string form.
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		// JSON numbers decode as float64; render integers without a fraction.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// asInt64 coerces a cell value to int64, accepting JSON float64 and numeric
// strings from grid editors.
func asInt64(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		return int64(t), nil
	case string:
		if t == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return false
	}
}

// valueEqual compares two cell values by value, normalizing numeric types so
// a JSON-decoded float64 matches the in-memory int64 it represents.
func valueEqual(a, b any) bool {
	if na, aok := normalizeNumber(a); aok {
		if nb, bok := normalizeNumber(b); bok {
			return na == nb
		}
		return false
	}
	if _, bok := normalizeNumber(b); bok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func normalizeNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}
