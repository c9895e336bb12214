// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotapi

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// initializeSchemaInTx creates the sheet tables if they do not exist yet.
func (s *Service) initializeSchemaInTx(ctx context.Context, tx pgx.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS items (
			item_id             BIGSERIAL PRIMARY KEY,
			campaign_id         BIGINT NOT NULL,
			name                TEXT NOT NULL DEFAULT '',
			product_url         TEXT NOT NULL DEFAULT '',
			total_target_count  BIGINT NOT NULL DEFAULT 0,
			daily_target_count  BIGINT NOT NULL DEFAULT 0,
			courier_only        BOOLEAN NOT NULL DEFAULT FALSE,
			unit_cost           BIGINT NOT NULL DEFAULT 0,
			agency_fee          BIGINT NOT NULL DEFAULT 0,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE SEQUENCE IF NOT EXISTS buyer_id_seq`,

		// Buyer is an embedded sub-record of the slot; the backend has no
		// separate group aggregate either, group overrides live on each slot.
		`CREATE TABLE IF NOT EXISTS slots (
			slot_id          BIGSERIAL PRIMARY KEY,
			campaign_id      BIGINT NOT NULL,
			item_id          BIGINT NOT NULL REFERENCES items(item_id) ON DELETE CASCADE,
			group_index      INT NOT NULL,
			share_token      TEXT NOT NULL,

			display_name     TEXT NOT NULL DEFAULT '',
			purchase_option  TEXT NOT NULL DEFAULT '',
			keyword          TEXT NOT NULL DEFAULT '',
			unit_price       BIGINT NOT NULL DEFAULT 0,
			notes            TEXT NOT NULL DEFAULT '',
			order_no         TEXT NOT NULL DEFAULT '',

			buyer_id         BIGINT,
			buyer_name       TEXT NOT NULL DEFAULT '',
			buyer_phone      TEXT NOT NULL DEFAULT '',
			buyer_address    TEXT NOT NULL DEFAULT '',
			bank_name        TEXT NOT NULL DEFAULT '',
			account_no       TEXT NOT NULL DEFAULT '',
			amount           BIGINT NOT NULL DEFAULT 0,
			tracking_no      TEXT NOT NULL DEFAULT '',
			tracking_status  TEXT NOT NULL DEFAULT '',
			review_done      BOOLEAN NOT NULL DEFAULT FALSE,

			created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_slots_campaign ON slots(campaign_id)`,
		`CREATE INDEX IF NOT EXISTS idx_slots_group ON slots(item_id, group_index)`,

		`CREATE TABLE IF NOT EXISTS review_images (
			image_id    BIGSERIAL PRIMARY KEY,
			slot_id     BIGINT NOT NULL REFERENCES slots(slot_id) ON DELETE CASCADE,
			url         TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_review_images_slot ON review_images(slot_id)`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize sheet schema: %w", err)
		}
	}
	return nil
}
