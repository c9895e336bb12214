// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Achil7/purchaseWeb-sub000/internal/auth"
	"github.com/Achil7/purchaseWeb-sub000/slotsheet"
)

// HTTPSheetHandlers provides HTTP handlers for the sheet API.
type HTTPSheetHandlers struct {
	service       *Service
	authenticator OperatorAuthenticator
	logger        *slog.Logger
}

// NewHTTPSheetHandlers creates a new instance of sheet handlers.
func NewHTTPSheetHandlers(service *Service, authenticator OperatorAuthenticator, logger *slog.Logger) *HTTPSheetHandlers {
	return &HTTPSheetHandlers{
		service:       service,
		authenticator: authenticator,
		logger:        logger,
	}
}

// RegisterRoutes mounts the sheet API on a chi router.
func (h *HTTPSheetHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.HandleHealth)
	r.Group(func(r chi.Router) {
		r.Use(h.requireOperator)
		r.Get("/sheet/slots", h.HandleListSlots)
		r.Get("/sheet/items/{itemID}", h.HandleGetItem)
		r.Put("/sheet/items/{itemID}", h.HandleUpdateItem)
		r.Post("/sheet/slots/batch", h.HandleSlotBatch)
		r.Post("/sheet/slots/delete", h.HandleDeleteSlots)
		r.Post("/sheet/groups/delete", h.HandleDeleteGroup)
		r.Post("/sheet/slots/provision", h.HandleProvision)
	})
}

// requireOperator authenticates the request and stores the operator ID in the
// request context.
func (h *HTTPSheetHandlers) requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := h.authenticator.GetOperatorID(r)
		if err != nil {
			h.writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.SetOperatorID(r.Context(), operatorID)))
	})
}

// HandleListSlots returns every slot of a campaign in provisioning order.
func (h *HTTPSheetHandlers) HandleListSlots(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.ParseInt(r.URL.Query().Get("campaign_id"), 10, 64)
	if err != nil || campaignID <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "campaign_id must be a positive integer")
		return
	}

	slots, err := h.service.ListSlots(r.Context(), campaignID)
	if err != nil {
		h.logger.Error("Failed to list slots", "error", err, "campaign_id", campaignID)
		h.writeError(w, http.StatusInternalServerError, "list_slots_failed", "Failed to list slots")
		return
	}
	if slots == nil {
		slots = []slotsheet.Slot{}
	}
	h.writeJSON(w, &SlotsResponse{Slots: slots})
}

// HandleGetItem returns one item aggregate.
func (h *HTTPSheetHandlers) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil || itemID <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "itemID must be a positive integer")
		return
	}

	item, err := h.service.GetItem(r.Context(), itemID)
	if errors.Is(err, ErrItemNotFound) {
		h.writeError(w, http.StatusNotFound, "item_not_found", "Item not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to get item", "error", err, "item_id", itemID)
		h.writeError(w, http.StatusInternalServerError, "get_item_failed", "Failed to get item")
		return
	}
	h.writeJSON(w, item)
}

// HandleUpdateItem applies a field-level patch to one item.
func (h *HTTPSheetHandlers) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil || itemID <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "itemID must be a positive integer")
		return
	}

	var req ItemUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse item update request")
		return
	}
	for field := range req.Fields {
		if !slotsheet.IsItemField(field) {
			h.writeError(w, http.StatusBadRequest, "unknown_field", "Unknown item field: "+string(field))
			return
		}
	}

	err = h.service.UpdateItem(r.Context(), itemID, req.Fields)
	if errors.Is(err, ErrItemNotFound) {
		h.writeError(w, http.StatusNotFound, "item_not_found", "Item not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to update item", "error", err, "item_id", itemID)
		h.writeError(w, http.StatusInternalServerError, "update_item_failed", "Failed to update item")
		return
	}
	h.writeJSON(w, &StatusResponse{Status: "ok", AppName: h.service.config.AppName})
}

// HandleSlotBatch applies one batched slot update and reports per-patch
// statuses.
func (h *HTTPSheetHandlers) HandleSlotBatch(w http.ResponseWriter, r *http.Request) {
	var req SlotBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse slot batch request")
		return
	}

	operatorID, _ := auth.GetOperatorID(r.Context())
	resp, err := h.service.ProcessSlotBatch(r.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to process slot batch", "error", err, "operator_id", operatorID)
		h.writeError(w, http.StatusInternalServerError, "batch_failed", "Failed to process slot batch")
		return
	}
	h.writeJSON(w, resp)
}

// HandleDeleteSlots bulk-deletes slots by ID.
func (h *HTTPSheetHandlers) HandleDeleteSlots(w http.ResponseWriter, r *http.Request) {
	var req DeleteSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse delete request")
		return
	}
	if len(req.SlotIDs) == 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "slot_ids must not be empty")
		return
	}

	deleted, err := h.service.DeleteSlots(r.Context(), req.SlotIDs)
	if err != nil {
		h.logger.Error("Failed to delete slots", "error", err)
		h.writeError(w, http.StatusInternalServerError, "delete_slots_failed", "Failed to delete slots")
		return
	}
	h.logger.Info("Deleted slots", "requested", len(req.SlotIDs), "deleted", deleted)
	h.writeJSON(w, &StatusResponse{Status: "ok", AppName: h.service.config.AppName})
}

// HandleDeleteGroup bulk-deletes every slot of one group.
func (h *HTTPSheetHandlers) HandleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	var req DeleteGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse delete group request")
		return
	}
	if req.ItemID <= 0 || req.GroupIndex < 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "item_id and group_index are required")
		return
	}

	deleted, err := h.service.DeleteGroup(r.Context(), req.ItemID, req.GroupIndex)
	if err != nil {
		h.logger.Error("Failed to delete group", "error", err,
			"item_id", req.ItemID, "group_index", req.GroupIndex)
		h.writeError(w, http.StatusInternalServerError, "delete_group_failed", "Failed to delete group")
		return
	}
	h.logger.Info("Deleted group", "item_id", req.ItemID, "group_index", req.GroupIndex, "deleted", deleted)
	h.writeJSON(w, &StatusResponse{Status: "ok", AppName: h.service.config.AppName})
}

// HandleProvision bulk-generates slots for one group.
func (h *HTTPSheetHandlers) HandleProvision(w http.ResponseWriter, r *http.Request) {
	var req ProvisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse provision request")
		return
	}
	if req.CampaignID <= 0 || req.ItemID <= 0 || req.Count <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "campaign_id, item_id and count are required")
		return
	}

	resp, err := h.service.ProvisionSlots(r.Context(), &req)
	if errors.Is(err, ErrItemNotFound) {
		h.writeError(w, http.StatusNotFound, "item_not_found", "Item not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to provision slots", "error", err,
			"item_id", req.ItemID, "group_index", req.GroupIndex, "count", req.Count)
		h.writeError(w, http.StatusInternalServerError, "provision_failed", "Failed to provision slots")
		return
	}
	h.writeJSON(w, resp)
}

// HandleHealth reports service health.
func (h *HTTPSheetHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Pool().Ping(r.Context()); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "unhealthy", "Database unreachable")
		return
	}
	h.writeJSON(w, &StatusResponse{Status: "ok", AppName: h.service.config.AppName})
}

func (h *HTTPSheetHandlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError writes a standardized error response
func (h *HTTPSheetHandlers) writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := ErrorResponse{
		Error:   errorCode,
		Message: message,
	}
	json.NewEncoder(w).Encode(errorResponse)

	h.logger.Debug("HTTP error response",
		"status_code", statusCode,
		"error_code", errorCode,
		"message", message)
}
