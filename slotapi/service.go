// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Achil7/purchaseWeb-sub000/slotsheet"
)

// Editable column allowlists: patch fields are mapped to SQL columns through
// these tables and never interpolated from client input.
var slotFieldColumns = map[slotsheet.Field]string{
	slotsheet.FieldDisplayName:    "display_name",
	slotsheet.FieldPurchaseOption: "purchase_option",
	slotsheet.FieldKeyword:        "keyword",
	slotsheet.FieldUnitPrice:      "unit_price",
	slotsheet.FieldNotes:          "notes",
	slotsheet.FieldOrderNo:        "order_no",
}

var buyerFieldColumns = map[slotsheet.Field]string{
	slotsheet.FieldBuyerName:      "buyer_name",
	slotsheet.FieldBuyerPhone:     "buyer_phone",
	slotsheet.FieldBuyerAddress:   "buyer_address",
	slotsheet.FieldBankName:       "bank_name",
	slotsheet.FieldAccountNo:      "account_no",
	slotsheet.FieldAmount:         "amount",
	slotsheet.FieldTrackingNo:     "tracking_no",
	slotsheet.FieldTrackingStatus: "tracking_status",
	slotsheet.FieldReviewDone:     "review_done",
}

var itemFieldColumns = map[slotsheet.Field]string{
	slotsheet.FieldTotalTargetCount: "total_target_count",
	slotsheet.FieldDailyTargetCount: "daily_target_count",
	slotsheet.FieldProductURL:       "product_url",
	slotsheet.FieldCourierOnly:      "courier_only",
	slotsheet.FieldUnitCost:         "unit_cost",
	slotsheet.FieldAgencyFee:        "agency_fee",
}

// ErrItemNotFound is returned when an item update or lookup misses.
var ErrItemNotFound = errors.New("item not found")

// ServiceConfig holds configuration for the sheet persistence service.
type ServiceConfig struct {
	AppName      string
	MaxBatchSize int           // 0 = unlimited
	ItemCacheTTL time.Duration // 0 disables caching
	TxRetries    int           // retries for retryable tx errors, default 2
}

// Service is the PostgreSQL-backed persistence collaborator of the sheet
// engine. It exposes the batch endpoints the engine consumes and owns the
// backing tables.
type Service struct {
	pool   *pgxpool.Pool
	cache  Cache
	logger *slog.Logger
	config *ServiceConfig
}

// NewService creates the service and initializes the schema. cache may be
// nil to disable item caching.
func NewService(ctx context.Context, pool *pgxpool.Pool, cache Cache, config *ServiceConfig, logger *slog.Logger) (*Service, error) {
	if config == nil {
		config = &ServiceConfig{AppName: "slotapi"}
	}
	if config.TxRetries == 0 {
		config.TxRetries = 2
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{pool: pool, cache: cache, logger: logger, config: config}
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return s.initializeSchemaInTx(ctx, tx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize slot service: %w", err)
	}
	return s, nil
}

// Pool returns the underlying connection pool.
func (s *Service) Pool() *pgxpool.Pool { return s.pool }

const slotColumns = `slot_id, campaign_id, item_id, group_index, share_token,
	display_name, purchase_option, keyword, unit_price, notes, order_no,
	buyer_id, buyer_name, buyer_phone, buyer_address, bank_name, account_no,
	amount, tracking_no, tracking_status, review_done`

// ListSlots returns every slot of the campaign in provisioning order, with
// buyers and review images attached.
func (s *Service) ListSlots(ctx context.Context, campaignID int64) ([]slotsheet.Slot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE campaign_id = $1
		ORDER BY slot_id
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	var slots []slotsheet.Slot
	index := make(map[int64]int)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		index[slot.SlotID] = len(slots)
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	if err := s.attachReviewImages(ctx, campaignID, slots, index); err != nil {
		return nil, err
	}
	return slots, nil
}

func scanSlot(rows pgx.Rows) (slotsheet.Slot, error) {
	var (
		slot    slotsheet.Slot
		buyer   slotsheet.Buyer
		buyerID *int64
	)
	err := rows.Scan(
		&slot.SlotID, &slot.CampaignID, &slot.ItemID, &slot.GroupIndex, &slot.ShareToken,
		&slot.DisplayName, &slot.PurchaseOption, &slot.Keyword, &slot.UnitPrice, &slot.Notes, &slot.OrderNo,
		&buyerID, &buyer.Name, &buyer.Phone, &buyer.Address, &buyer.BankName, &buyer.AccountNo,
		&buyer.Amount, &buyer.TrackingNo, &buyer.TrackingStatus, &buyer.ReviewDone,
	)
	if err != nil {
		return slotsheet.Slot{}, fmt.Errorf("scan slot: %w", err)
	}
	if buyerID != nil {
		buyer.BuyerID = *buyerID
		slot.Buyer = &buyer
	}
	return slot, nil
}

func (s *Service) attachReviewImages(ctx context.Context, campaignID int64, slots []slotsheet.Slot, index map[int64]int) error {
	rows, err := s.pool.Query(ctx, `
		SELECT r.slot_id, r.url
		FROM review_images r
		JOIN slots sl ON sl.slot_id = r.slot_id
		WHERE sl.campaign_id = $1
		ORDER BY r.image_id
	`, campaignID)
	if err != nil {
		return fmt.Errorf("query review images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var slotID int64
		var url string
		if err := rows.Scan(&slotID, &url); err != nil {
			return fmt.Errorf("scan review image: %w", err)
		}
		i, ok := index[slotID]
		if !ok || slots[i].Buyer == nil {
			continue
		}
		slots[i].Buyer.ReviewImages = append(slots[i].Buyer.ReviewImages, url)
	}
	return rows.Err()
}

// GetItem loads one item, read-through cached.
func (s *Service) GetItem(ctx context.Context, itemID int64) (*slotsheet.Item, error) {
	cacheKey := fmt.Sprintf("item:%d", itemID)
	if s.cache != nil && s.config.ItemCacheTTL > 0 {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var item slotsheet.Item
			if err := json.Unmarshal(data, &item); err == nil {
				return &item, nil
			}
		}
	}

	var item slotsheet.Item
	err := s.pool.QueryRow(ctx, `
		SELECT item_id, campaign_id, name, product_url, total_target_count,
		       daily_target_count, courier_only, unit_cost, agency_fee
		FROM items WHERE item_id = $1
	`, itemID).Scan(
		&item.ItemID, &item.CampaignID, &item.Name, &item.ProductURL,
		&item.TotalTargetCount, &item.DailyTargetCount, &item.CourierOnly,
		&item.UnitCost, &item.AgencyFee,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query item %d: %w", itemID, err)
	}

	if s.cache != nil && s.config.ItemCacheTTL > 0 {
		if data, err := json.Marshal(&item); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.config.ItemCacheTTL); err != nil {
				s.logger.Debug("Failed to cache item", "item_id", itemID, "error", err)
			}
		}
	}
	return &item, nil
}

// UpdateItem applies a field-level patch to one item and invalidates its
// cache entry.
func (s *Service) UpdateItem(ctx context.Context, itemID int64, fields map[slotsheet.Field]any) error {
	if len(fields) == 0 {
		return nil
	}

	set := make([]string, 0, len(fields)+1)
	args := []any{itemID}
	for field, value := range fields {
		column, ok := itemFieldColumns[field]
		if !ok {
			return fmt.Errorf("unknown item field: %s", field)
		}
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	set = append(set, "updated_at = now()")

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf("UPDATE items SET %s WHERE item_id = $1", strings.Join(set, ", ")),
		args...)
	if err != nil {
		return fmt.Errorf("update item %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, fmt.Sprintf("item:%d", itemID)); err != nil {
			s.logger.Debug("Failed to invalidate item cache", "item_id", itemID, "error", err)
		}
	}
	return nil
}

// ProcessSlotBatch applies a batch of field-level slot patches in one
// transaction and reports a per-patch status. The whole batch is rejected
// when it exceeds the configured size so clients never drop pending changes.
func (s *Service) ProcessSlotBatch(ctx context.Context, req *SlotBatchRequest) (*SlotBatchResponse, error) {
	if len(req.Patches) == 0 {
		return &SlotBatchResponse{Accepted: true, Statuses: []slotsheet.SlotPatchStatus{}}, nil
	}

	if s.config.MaxBatchSize > 0 && len(req.Patches) > s.config.MaxBatchSize {
		statuses := make([]slotsheet.SlotPatchStatus, len(req.Patches))
		msg := fmt.Sprintf("batch too large: patches=%d limit=%d", len(req.Patches), s.config.MaxBatchSize)
		for i, patch := range req.Patches {
			statuses[i] = statusInvalid(patch.SlotID, slotsheet.ReasonBatchTooLarge, msg)
		}
		return &SlotBatchResponse{Accepted: false, Statuses: statuses}, nil
	}

	var statuses []slotsheet.SlotPatchStatus
	attempt := 0
	for {
		statuses = nil
		err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, func(tx pgx.Tx) error {
			_, _ = tx.Exec(ctx, "SET LOCAL lock_timeout = '3s'")
			for _, patch := range req.Patches {
				status, err := s.applySlotPatchInTx(ctx, tx, patch)
				if err != nil {
					return err
				}
				statuses = append(statuses, status)
			}
			return nil
		})
		if err == nil {
			break
		}
		if isRetryableTxError(err) && attempt < s.config.TxRetries {
			attempt++
			s.logger.Warn("Retrying slot batch after retryable tx error", "attempt", attempt, "error", err)
			if serr := sleepContext(ctx, time.Duration(attempt)*100*time.Millisecond); serr != nil {
				return nil, serr
			}
			continue
		}
		return nil, fmt.Errorf("failed to process slot batch: %w", err)
	}

	accepted := true
	for _, st := range statuses {
		if st.Status != slotsheet.StatusApplied {
			accepted = false
			break
		}
	}
	return &SlotBatchResponse{Accepted: accepted, Statuses: statuses}, nil
}

// applySlotPatchInTx applies one slot patch. Unknown fields invalidate the
// patch before any column is written; a buyer field on an unassigned slot
// assigns a fresh buyer ID. A retryable tx error is returned so the whole
// batch transaction retries.
func (s *Service) applySlotPatchInTx(ctx context.Context, tx pgx.Tx, patch slotsheet.SlotPatchUpload) (slotsheet.SlotPatchStatus, error) {
	if len(patch.Fields) == 0 && len(patch.BuyerFields) == 0 {
		return statusInvalid(patch.SlotID, slotsheet.ReasonBadPayload, "empty patch"), nil
	}

	set := make([]string, 0, len(patch.Fields)+len(patch.BuyerFields)+2)
	args := []any{patch.SlotID}

	for field, value := range patch.Fields {
		column, ok := slotFieldColumns[field]
		if !ok {
			return statusUnknownField(patch.SlotID, field), nil
		}
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	for field, value := range patch.BuyerFields {
		column, ok := buyerFieldColumns[field]
		if !ok {
			return statusUnknownField(patch.SlotID, field), nil
		}
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if len(patch.BuyerFields) > 0 {
		set = append(set, "buyer_id = COALESCE(buyer_id, nextval('buyer_id_seq'))")
	}
	set = append(set, "updated_at = now()")

	tag, err := tx.Exec(ctx,
		fmt.Sprintf("UPDATE slots SET %s WHERE slot_id = $1", strings.Join(set, ", ")),
		args...)
	if err != nil {
		if isRetryableTxError(err) {
			return slotsheet.SlotPatchStatus{}, err
		}
		return statusInvalid(patch.SlotID, slotsheet.ReasonInternalError, err.Error()), nil
	}
	if tag.RowsAffected() == 0 {
		return statusInvalid(patch.SlotID, slotsheet.ReasonNotFound, fmt.Sprintf("slot %d not found", patch.SlotID)), nil
	}
	return statusApplied(patch.SlotID), nil
}

// DeleteSlots bulk-deletes slots by ID and returns the number removed.
func (s *Service) DeleteSlots(ctx context.Context, slotIDs []int64) (int64, error) {
	if len(slotIDs) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM slots WHERE slot_id = ANY($1)`, slotIDs)
	if err != nil {
		return 0, fmt.Errorf("delete slots: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteGroup bulk-deletes every slot of one (itemID, groupIndex) group.
func (s *Service) DeleteGroup(ctx context.Context, itemID int64, groupIndex int) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM slots WHERE item_id = $1 AND group_index = $2
	`, itemID, groupIndex)
	if err != nil {
		return 0, fmt.Errorf("delete group %d/%d: %w", itemID, groupIndex, err)
	}
	return tag.RowsAffected(), nil
}

// ProvisionSlots bulk-generates slots for one group. Every slot of the batch
// shares one link-banner token; override fields are seeded from the item.
func (s *Service) ProvisionSlots(ctx context.Context, req *ProvisionRequest) (*ProvisionResponse, error) {
	if req.Count <= 0 {
		return nil, fmt.Errorf("provision count must be positive")
	}

	item, err := s.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("provision slots: %w", err)
	}

	token := uuid.NewString()
	resp := &ProvisionResponse{ShareToken: token}
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// Reuse the group's existing token when slots are added to it later.
		var existing string
		err := tx.QueryRow(ctx, `
			SELECT share_token FROM slots
			WHERE item_id = $1 AND group_index = $2
			ORDER BY slot_id LIMIT 1
		`, req.ItemID, req.GroupIndex).Scan(&existing)
		if err == nil {
			token = existing
			resp.ShareToken = existing
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("query group token: %w", err)
		}

		for i := 0; i < req.Count; i++ {
			var slotID int64
			err := tx.QueryRow(ctx, `
				INSERT INTO slots (campaign_id, item_id, group_index, share_token, display_name)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING slot_id
			`, req.CampaignID, req.ItemID, req.GroupIndex, token, item.Name).Scan(&slotID)
			if err != nil {
				return fmt.Errorf("insert slot: %w", err)
			}
			resp.SlotIDs = append(resp.SlotIDs, slotID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("provision slots: %w", err)
	}
	return resp, nil
}
