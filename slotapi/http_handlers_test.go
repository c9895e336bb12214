// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// Auth and request validation run before any database access, so these paths
// are testable without a service behind the handlers.
func newAuthTestRouter(t *testing.T) (*chi.Mux, *JWTAuth) {
	t.Helper()
	auth := NewJWTAuth("handler-test-secret")
	h := NewHTTPSheetHandlers(nil, auth, slog.Default())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, auth
}

func TestHandlersRejectMissingToken(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/sheet/slots?campaign_id=7"},
		{http.MethodGet, "/sheet/items/1"},
		{http.MethodPut, "/sheet/items/1"},
		{http.MethodPost, "/sheet/slots/batch"},
		{http.MethodPost, "/sheet/slots/delete"},
		{http.MethodPost, "/sheet/groups/delete"},
		{http.MethodPost, "/sheet/slots/provision"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "authentication_failed", body.Error)
	}
}

func TestHandlersRejectBadRequests(t *testing.T) {
	r, auth := newAuthTestRouter(t)
	token, err := auth.GenerateToken("op-1", "", time.Hour)
	require.NoError(t, err)

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	// Missing or malformed identifiers fail validation before any lookup.
	require.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/sheet/slots").Code)
	require.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/sheet/slots?campaign_id=abc").Code)
	require.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/sheet/items/abc").Code)
	require.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/sheet/items/0").Code)

	// Empty bodies fail JSON decoding.
	require.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/sheet/slots/batch").Code)
	require.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/sheet/slots/delete").Code)
	require.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/sheet/slots/provision").Code)
}
