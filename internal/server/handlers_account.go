package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/cadence/internal/formatter"
	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/repositories"
	"github.com/desertthunder/cadence/internal/shared"
)

// MaxHistoryLimit caps the limit query parameter of the history endpoint.
const MaxHistoryLimit = 100

type subscriptionRequest struct {
	Level string `json:"level"`
	Days  int    `json:"days,omitempty"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	limit := repositories.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, fmt.Errorf("%w: limit must be a positive integer, got %q", shared.ErrValidation, raw))
			return
		}
		limit = min(n, MaxHistoryLimit)
	}

	entries, err := s.store.History.Recent(r.Context(), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]*formatter.HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		agg, err := formatter.HistoryEntryToResponse(r.Context(), s.store.Songs, e)
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, agg)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	sub, err := s.store.Subscriptions.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if sub == nil {
		writeError(w, fmt.Errorf("subscription for user %d: %w", userID, shared.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, formatter.SubscriptionToResponse(sub, s.store.Now()))
}

func (s *Server) handleSetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req subscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := models.ValidateSubscriptionDays(req.Days); err != nil {
		writeError(w, err)
		return
	}

	var end *time.Time
	if req.Days > 0 {
		t := s.store.Now().AddDate(0, 0, req.Days)
		end = &t
	}

	sub, err := s.store.Subscriptions.Set(r.Context(), userID, req.Level, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formatter.SubscriptionToResponse(sub, s.store.Now()))
}
