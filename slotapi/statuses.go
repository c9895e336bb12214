// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotapi

import (
	"github.com/Achil7/purchaseWeb-sub000/slotsheet"
)

// statusApplied creates a status for an accepted slot patch.
func statusApplied(slotID int64) slotsheet.SlotPatchStatus {
	return slotsheet.SlotPatchStatus{
		SlotID: slotID,
		Status: slotsheet.StatusApplied,
	}
}

// statusInvalid creates a status with a structured invalid reason.
func statusInvalid(slotID int64, reason, message string) slotsheet.SlotPatchStatus {
	return slotsheet.SlotPatchStatus{
		SlotID:  slotID,
		Status:  slotsheet.StatusInvalid,
		Message: message,
		Invalid: map[string]any{
			"reason": reason,
		},
	}
}

// statusUnknownField flags a patch carrying a field outside the editable
// allowlist.
func statusUnknownField(slotID int64, field slotsheet.Field) slotsheet.SlotPatchStatus {
	return slotsheet.SlotPatchStatus{
		SlotID:  slotID,
		Status:  slotsheet.StatusInvalid,
		Message: "unknown field " + string(field),
		Invalid: map[string]any{
			"reason": slotsheet.ReasonUnknownField,
			"details": map[string]any{
				"field": string(field),
			},
		},
	}
}
