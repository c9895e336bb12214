// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefsStoreRoundTrip(t *testing.T) {
	ps, err := OpenPrefsStore(":memory:")
	require.NoError(t, err)
	defer ps.Close()

	// Unknown campaigns get defaults.
	prefs, err := ps.Load(7)
	require.NoError(t, err)
	require.Len(t, prefs.ColumnWidths, NumColumns)
	require.Equal(t, 120, prefs.ColumnWidths[0])
	require.Empty(t, prefs.Conditions)

	prefs.ColumnWidths[2] = 240
	prefs.Conditions = []Condition{{Column: 9, Predicate: PredEquals, Value: "true"}}
	require.NoError(t, ps.Save(7, prefs))

	loaded, err := ps.Load(7)
	require.NoError(t, err)
	require.Equal(t, 240, loaded.ColumnWidths[2])
	require.Equal(t, prefs.Conditions, loaded.Conditions)

	// Upsert replaces, not appends.
	prefs.Conditions = nil
	require.NoError(t, ps.Save(7, prefs))
	loaded, err = ps.Load(7)
	require.NoError(t, err)
	require.Empty(t, loaded.Conditions)
}

func TestPrefsStorePerCampaign(t *testing.T) {
	ps, err := OpenPrefsStore(":memory:")
	require.NoError(t, err)
	defer ps.Close()

	a := DefaultViewPreferences()
	a.ColumnWidths[0] = 80
	require.NoError(t, ps.Save(1, a))

	b, err := ps.Load(2)
	require.NoError(t, err)
	require.Equal(t, 120, b.ColumnWidths[0])
}
