// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ViewPreferences is the per-campaign view state owned by the dashboard
// shell and injected into the engine: column widths and the persisted filter
// condition set. The engine reads it and never writes it back.
type ViewPreferences struct {
	ColumnWidths []int       `json:"column_widths,omitempty"`
	Conditions   []Condition `json:"conditions,omitempty"`
}

// DefaultViewPreferences returns preferences with a uniform column width and
// no filters.
func DefaultViewPreferences() ViewPreferences {
	widths := make([]int, NumColumns)
	for i := range widths {
		widths[i] = 120
	}
	return ViewPreferences{ColumnWidths: widths}
}

// PrefsStore persists view preferences per campaign in a local SQLite file.
// It is the shell-side store; the engine only sees the value object.
type PrefsStore struct {
	db *sql.DB
}

// OpenPrefsStore opens (and initializes) the preferences database at path.
// Use ":memory:" for an ephemeral store.
func OpenPrefsStore(path string) (*PrefsStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open prefs db: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS view_prefs (
			campaign_id  INTEGER NOT NULL PRIMARY KEY,
			prefs        TEXT NOT NULL,
			updated_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create view_prefs table: %w", err)
	}
	return &PrefsStore{db: db}, nil
}

// Load returns the stored preferences for the campaign, or defaults when
// none are stored yet.
func (ps *PrefsStore) Load(campaignID int64) (ViewPreferences, error) {
	var raw string
	err := ps.db.QueryRow(`SELECT prefs FROM view_prefs WHERE campaign_id = ?`, campaignID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultViewPreferences(), nil
	}
	if err != nil {
		return ViewPreferences{}, fmt.Errorf("load prefs for campaign %d: %w", campaignID, err)
	}
	var prefs ViewPreferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return ViewPreferences{}, fmt.Errorf("decode prefs for campaign %d: %w", campaignID, err)
	}
	return prefs, nil
}

// Save upserts the preferences for the campaign.
func (ps *PrefsStore) Save(campaignID int64, prefs ViewPreferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	_, err = ps.db.Exec(`
		INSERT INTO view_prefs (campaign_id, prefs, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT(campaign_id) DO UPDATE SET
			prefs = excluded.prefs,
			updated_at = excluded.updated_at
	`, campaignID, string(raw))
	if err != nil {
		return fmt.Errorf("save prefs for campaign %d: %w", campaignID, err)
	}
	return nil
}

// Close closes the underlying database.
func (ps *PrefsStore) Close() error {
	return ps.db.Close()
}
