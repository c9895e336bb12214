// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

// NumColumns is the fixed width of the grid, shared by all row types.
const NumColumns = 16

// A column index means a different semantic field depending on the row type
// occupying the row. The mapping is constant for the lifetime of the grid and
// derived from row type alone, never from row content.
var headerColumns = [NumColumns]Field{
	0:  FieldDisplayName,
	1:  FieldPurchaseOption,
	2:  FieldKeyword,
	3:  FieldUnitPrice,
	4:  FieldNotes,
	5:  FieldTotalTargetCount,
	6:  FieldDailyTargetCount,
	7:  FieldProductURL,
	8:  FieldCourierOnly,
	9:  FieldUnitCost,
	10: FieldAgencyFee,
}

var dataColumns = [NumColumns]Field{
	0: FieldBuyerName,
	1: FieldBuyerPhone,
	2: FieldBuyerAddress,
	3: FieldBankName,
	4: FieldAccountNo,
	5: FieldAmount,
	6: FieldOrderNo,
	7: FieldTrackingNo,
	8: FieldTrackingStatus,
	9: FieldReviewDone,
}

// FieldFor resolves the semantic field of a column for a row type. Structural
// rows (separators, link banners) map every column to FieldNone.
func FieldFor(kind RowKind, column int) Field {
	if column < 0 || column >= NumColumns {
		return FieldNone
	}
	switch kind {
	case RowGroupHeader:
		return headerColumns[column]
	case RowDataRow:
		return dataColumns[column]
	default:
		return FieldNone
	}
}

// ColumnFor is the inverse of FieldFor; it returns -1 when the field does not
// occupy any column for the row type.
func ColumnFor(kind RowKind, field Field) int {
	if field == FieldNone {
		return -1
	}
	var table *[NumColumns]Field
	switch kind {
	case RowGroupHeader:
		table = &headerColumns
	case RowDataRow:
		table = &dataColumns
	default:
		return -1
	}
	for i, f := range table {
		if f == field {
			return i
		}
	}
	return -1
}

// CellValue returns the displayed value of a cell, or nil for cells with no
// backing field. Group headers read override fields from the group's first
// slot and catalogue fields from the item.
func CellValue(row *DisplayRow, column int) any {
	field := FieldFor(row.Kind, column)
	if field == FieldNone {
		return nil
	}
	switch row.Kind {
	case RowGroupHeader:
		if IsItemField(field) {
			if row.Item == nil {
				return nil
			}
			return itemFieldValue(row.Item, field)
		}
		if row.Slot == nil {
			return nil
		}
		return slotFieldValue(row.Slot, field)
	case RowDataRow:
		if row.Slot == nil {
			return nil
		}
		return slotFieldValue(row.Slot, field)
	default:
		return nil
	}
}
