package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/farhan/stepmates/internal/apperror"
	"github.com/farhan/stepmates/internal/auth"
	"github.com/farhan/stepmates/internal/service"
)

// ActivityHandler exposes step syncing, the dashboard, and the leaderboard.
type ActivityHandler struct {
	activity *service.ActivityService
	logger   *slog.Logger
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(activity *service.ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activity: activity, logger: logger}
}

// syncRequest uses a pointer for Steps so a missing field is
// distinguishable from an explicit zero.
type syncRequest struct {
	Date  string `json:"date"`
	Steps *int64 `json:"steps"`
}

// HandleSync records a day's step count for the authenticated account.
//
// HTTP: POST /api/activity/sync
// Auth: required
func (h *ActivityHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}
	if req.Steps == nil {
		writeError(w, apperror.ValidationFailed("steps", "steps is required"))
		return
	}

	result, err := h.activity.SyncSteps(r.Context(), accountID, req.Date, *req.Steps)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleDashboard returns the authenticated account's activity snapshot.
//
// HTTP: GET /api/activity/dashboard
// Auth: required
func (h *ActivityHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	snapshot, err := h.activity.Dashboard(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// HandleLeaderboard returns the ranked top-N view.
//
// HTTP: GET /api/activity/leaderboard?limit=10
// Auth: required
func (h *ActivityHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := service.DefaultLeaderboardSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, apperror.ValidationFailed("limit", "limit must be an integer"))
			return
		}
		limit = n
	}

	entries, err := h.activity.Leaderboard(r.Context(), limit)
	if err != nil {
		h.logger.Error("HandleLeaderboard: query failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
