// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

import (
	"strings"
)

// Predicate names one column filter operator.
type Predicate string

const (
	PredEquals      Predicate = "equals"
	PredContains    Predicate = "contains"
	PredNotContains Predicate = "not_contains"
	PredIsEmpty     Predicate = "is_empty"
	PredIsNotEmpty  Predicate = "is_not_empty"
	PredInSet       Predicate = "in_set"
)

// Condition is one user-specified per-column filter. Value backs the scalar
// predicates, Values backs in_set.
type Condition struct {
	Column    int       `json:"column"`
	Predicate Predicate `json:"predicate"`
	Value     string    `json:"value,omitempty"`
	Values    []string  `json:"values,omitempty"`
}

// ApplyFilters evaluates the conditions against the projected rows and
// returns the visible row indices, or nil when no filter is active (show
// all). Only data rows can match: a data row is visible iff it satisfies
// every condition, and all structural rows are hidden whenever at least one
// condition is active. A condition referencing a column with no data-row
// field, or out of range, is never satisfied.
//
// Pure over the projection snapshot: applying the same condition set twice
// yields the same visible set.
func ApplyFilters(rows []DisplayRow, conditions []Condition) []int {
	if len(conditions) == 0 {
		return nil
	}

	visible := make([]int, 0, len(rows))
	for i := range rows {
		if rows[i].Kind != RowDataRow {
			continue
		}
		if matchesAll(&rows[i], conditions) {
			visible = append(visible, i)
		}
	}
	return visible
}

func matchesAll(row *DisplayRow, conditions []Condition) bool {
	for _, cond := range conditions {
		if !matches(row, cond) {
			return false
		}
	}
	return true
}

func matches(row *DisplayRow, cond Condition) bool {
	field := FieldFor(row.Kind, cond.Column)
	if field == FieldNone {
		return false
	}
	value := asString(CellValue(row, cond.Column))

	switch cond.Predicate {
	case PredEquals:
		return value == cond.Value
	case PredContains:
		return cond.Value != "" && strings.Contains(value, cond.Value)
	case PredNotContains:
		return !strings.Contains(value, cond.Value)
	case PredIsEmpty:
		return value == ""
	case PredIsNotEmpty:
		return value != ""
	case PredInSet:
		for _, want := range cond.Values {
			if value == want {
				return true
			}
		}
		return false
	default:
		return false
	}
}
