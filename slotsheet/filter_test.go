// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func projectFixture(t *testing.T) []DisplayRow {
	t.Helper()
	return NewProjector(nil).Project(testSlots(), testItemMap())
}

func TestApplyFiltersNoConditions(t *testing.T) {
	rows := projectFixture(t)
	require.Nil(t, ApplyFilters(rows, nil))
	require.Nil(t, ApplyFilters(rows, []Condition{}))
}

func TestApplyFiltersHidesStructuralRows(t *testing.T) {
	rows := projectFixture(t)

	// A condition every data row satisfies still hides headers, banners and
	// separators.
	visible := ApplyFilters(rows, []Condition{{Column: 7, Predicate: PredIsEmpty}})
	require.Len(t, visible, 5)
	for _, idx := range visible {
		require.Equal(t, RowDataRow, rows[idx].Kind)
	}
}

func TestApplyFiltersPredicates(t *testing.T) {
	rows := projectFixture(t)

	tests := []struct {
		name      string
		cond      Condition
		wantSlots []int64
	}{
		{"equals buyer name", Condition{Column: 0, Predicate: PredEquals, Value: "Kim"}, []int64{2}},
		{"assigned rows", Condition{Column: 0, Predicate: PredIsNotEmpty}, []int64{2, 4}},
		{"unassigned rows", Condition{Column: 0, Predicate: PredIsEmpty}, []int64{1, 3, 5}},
		{"review done", Condition{Column: 9, Predicate: PredEquals, Value: "true"}, []int64{2}},
		{"contains", Condition{Column: 0, Predicate: PredContains, Value: "i"}, []int64{2}},
		{"not contains", Condition{Column: 0, Predicate: PredNotContains, Value: "i"}, []int64{1, 3, 4, 5}},
		{"in set", Condition{Column: 0, Predicate: PredInSet, Values: []string{"Kim", "Lee"}}, []int64{2, 4}},
		{"amount equals", Condition{Column: 5, Predicate: PredEquals, Value: "2500"}, []int64{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			visible := ApplyFilters(rows, []Condition{tt.cond})
			var slots []int64
			for _, idx := range visible {
				slots = append(slots, rows[idx].SlotID)
			}
			require.Equal(t, tt.wantSlots, slots)
		})
	}
}

func TestApplyFiltersConjunction(t *testing.T) {
	rows := projectFixture(t)

	visible := ApplyFilters(rows, []Condition{
		{Column: 0, Predicate: PredIsNotEmpty},
		{Column: 9, Predicate: PredEquals, Value: "true"},
	})
	require.Len(t, visible, 1)
	require.Equal(t, int64(2), rows[visible[0]].SlotID)
}

func TestApplyFiltersUnmappedColumn(t *testing.T) {
	rows := projectFixture(t)

	// A reserve column has no data-row field; the condition can never be
	// satisfied and empties the sheet rather than erroring.
	require.Empty(t, ApplyFilters(rows, []Condition{{Column: 12, Predicate: PredIsEmpty}}))
	require.Empty(t, ApplyFilters(rows, []Condition{{Column: -1, Predicate: PredIsNotEmpty}}))
}

func TestApplyFiltersPure(t *testing.T) {
	rows := projectFixture(t)
	conds := []Condition{{Column: 0, Predicate: PredIsNotEmpty}}

	first := ApplyFilters(rows, conds)
	second := ApplyFilters(rows, conds)
	require.Equal(t, first, second)
}

func TestApplyFiltersContainsEmptyValue(t *testing.T) {
	rows := projectFixture(t)

	// contains with an empty needle matches nothing rather than everything.
	require.Empty(t, ApplyFilters(rows, []Condition{{Column: 0, Predicate: PredContains, Value: ""}}))
}
