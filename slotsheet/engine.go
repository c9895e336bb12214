// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotsheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrCommitInFlight is returned when a commit is requested while another is
// outstanding; overlapping commits are rejected, never interleaved.
var ErrCommitInFlight = errors.New("commit already in progress")

// Callbacks are the hooks the surrounding dashboard shell observes.
type Callbacks struct {
	// OnChangeCountChanged fires with the pending entity count, for enabling
	// or disabling the save affordance.
	OnChangeCountChanged func(count int)
	// OnCommitResult fires after every commit attempt.
	OnCommitResult func(success bool, err error)
}

// Config configures a sheet engine for one campaign.
type Config struct {
	CampaignID int64
	Backend    Backend
	// Items is the shell-provided snapshot of the campaign's items. Items
	// referenced by slots but missing from the snapshot are fetched
	// individually on load.
	Items     []Item
	Prefs     ViewPreferences
	Callbacks Callbacks
	Logger    *slog.Logger
}

// Engine ties the sheet components together for one campaign: it owns the
// store, re-derives the projection after every store mutation, resolves cell
// edits through the column mapper into the tracker, and coordinates commits
// and reloads. The sheet accepts a campaign ID and an item snapshot and
// re-derives everything internally.
type Engine struct {
	campaignID int64
	backend    Backend
	logger     *slog.Logger
	callbacks  Callbacks
	prefs      ViewPreferences

	store       *Store
	projector   *Projector
	tracker     *Tracker
	coordinator *Coordinator

	// opMu serializes commit and reload. Reload queues behind an outstanding
	// commit so it cannot clobber an in-flight optimistic merge.
	opMu sync.Mutex

	// stateMu guards the derived view state below.
	stateMu    sync.Mutex
	rows       []DisplayRow
	conditions []Condition
	visible    []int
	loaded     bool

	seedItems []Item
}

// NewEngine creates a sheet engine. Call Load before reading rows.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if cfg.CampaignID == 0 {
		return nil, fmt.Errorf("campaign ID is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		campaignID: cfg.CampaignID,
		backend:    cfg.Backend,
		logger:     logger,
		callbacks:  cfg.Callbacks,
		prefs:      cfg.Prefs,
		store:      NewStore(),
		seedItems:  cfg.Items,
	}
	e.projector = NewProjector(logger)
	e.tracker = NewTracker(e.store, logger, cfg.Callbacks.OnChangeCountChanged)
	e.coordinator = NewCoordinator(cfg.Backend, e.store, logger)
	e.conditions = cfg.Prefs.Conditions
	return e, nil
}

// Load fetches the campaign's slots, resolves items missing from the shell
// snapshot, and derives the initial projection. Pending edits are discarded.
func (e *Engine) Load(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	slots, err := e.backend.FetchSlots(ctx, e.campaignID)
	if err != nil {
		return fmt.Errorf("fetch slots for campaign %d: %w", e.campaignID, err)
	}

	known := make(map[int64]bool, len(e.seedItems))
	items := make([]Item, 0, len(e.seedItems))
	for _, it := range e.seedItems {
		known[it.ItemID] = true
		items = append(items, it)
	}
	for i := range slots {
		itemID := slots[i].ItemID
		if known[itemID] {
			continue
		}
		known[itemID] = true
		item, err := e.backend.FetchItem(ctx, itemID)
		if err != nil {
			// The projector will skip the slots; surfaced as a warning, not a
			// load failure.
			e.logger.Warn("Failed to fetch item referenced by slots",
				"item_id", itemID, "error", err)
			continue
		}
		items = append(items, *item)
	}

	e.store.Replace(slots, items)

	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.tracker.Clear()
	e.loaded = true
	e.reprojectLocked()
	return nil
}

// Reload refreshes the store from the backend. It waits for any outstanding
// commit to resolve first.
func (e *Engine) Reload(ctx context.Context) error {
	return e.Load(ctx)
}

// Rows returns the current projection snapshot.
func (e *Engine) Rows() []DisplayRow {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	out := make([]DisplayRow, len(e.rows))
	copy(out, e.rows)
	return out
}

// VisibleRows returns the indices of visible rows, or nil when no filter is
// active and every row is shown.
func (e *Engine) VisibleRows() []int {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.visible == nil {
		return nil
	}
	out := make([]int, len(e.visible))
	copy(out, e.visible)
	return out
}

// EditCell stages an edit of one visible cell. The column mapper resolves the
// target entity and field from the row type; edits landing on structural rows
// or unmapped columns are silently dropped.
func (e *Engine) EditCell(rowIndex, column int, newValue any) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	if rowIndex < 0 || rowIndex >= len(e.rows) {
		e.logger.Debug("Ignoring edit outside projection", "row", rowIndex, "column", column)
		return
	}
	row := &e.rows[rowIndex]
	field := FieldFor(row.Kind, column)
	e.tracker.Record(row.Kind, row.Ref(), field, newValue)
}

// PendingCount returns the number of entities with uncommitted edits.
func (e *Engine) PendingCount() int {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.tracker.Pending().EntityCount()
}

// Commit batches the pending changes and sends them to the backend. Edits
// recorded while the commit is in flight accumulate into a new pending set.
// A second commit while one is outstanding returns ErrCommitInFlight.
func (e *Engine) Commit(ctx context.Context) (*CommitResult, error) {
	if !e.opMu.TryLock() {
		return nil, ErrCommitInFlight
	}
	defer e.opMu.Unlock()

	e.stateMu.Lock()
	pending := e.tracker.Take()
	e.stateMu.Unlock()

	if pending.IsEmpty() {
		return &CommitResult{ItemErrs: map[int64]error{}}, nil
	}

	result, failed := e.coordinator.Commit(ctx, pending)

	e.stateMu.Lock()
	e.tracker.Restore(failed)
	e.reprojectLocked()
	e.stateMu.Unlock()

	err := result.Err()
	if e.callbacks.OnCommitResult != nil {
		e.callbacks.OnCommitResult(err == nil, err)
	}
	return result, err
}

// SetFilters replaces the active condition set and recomputes visibility.
func (e *Engine) SetFilters(conditions []Condition) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.conditions = append([]Condition(nil), conditions...)
	e.visible = ApplyFilters(e.rows, e.conditions)
}

// ClearFilters removes all conditions and restores every row.
func (e *Engine) ClearFilters() {
	e.SetFilters(nil)
}

// Conditions returns the active condition set.
func (e *Engine) Conditions() []Condition {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return append([]Condition(nil), e.conditions...)
}

// DeleteSlots bulk-deletes slots through the backend, drops them from the
// store and from the pending set, and re-derives the view. Deletion is
// outside edit tracking; it does not touch other pending patches.
func (e *Engine) DeleteSlots(ctx context.Context, slotIDs []int64) error {
	if len(slotIDs) == 0 {
		return nil
	}
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if err := e.backend.DeleteSlots(ctx, slotIDs); err != nil {
		return fmt.Errorf("delete slots: %w", err)
	}

	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.store.RemoveSlots(slotIDs)
	e.tracker.DropSlots(slotIDs)
	e.reprojectLocked()
	return nil
}

// DeleteGroup bulk-deletes every slot of one group.
func (e *Engine) DeleteGroup(ctx context.Context, itemID int64, groupIndex int) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	members := e.store.GroupSlotIDs(itemID, groupIndex)
	if len(members) == 0 {
		return nil
	}
	if err := e.backend.DeleteGroup(ctx, itemID, groupIndex); err != nil {
		return fmt.Errorf("delete group %d/%d: %w", itemID, groupIndex, err)
	}

	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.store.RemoveSlots(members)
	e.tracker.DropSlots(members)
	e.reprojectLocked()
	return nil
}

// Prefs returns the injected view preferences. The engine never mutates
// them; persistence belongs to the shell.
func (e *Engine) Prefs() ViewPreferences { return e.prefs }

func (e *Engine) reprojectLocked() {
	slots, items := e.store.Snapshot()
	e.rows = e.projector.Project(slots, items)
	e.visible = ApplyFilters(e.rows, e.conditions)
}
