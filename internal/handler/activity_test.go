package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farhan/stepmates/internal/auth"
	"github.com/farhan/stepmates/internal/handler"
	"github.com/farhan/stepmates/internal/model"
)

// authed wraps a handler func behind RequireAuth with the given token.
func authed(e *env, token string, fn http.HandlerFunc, method, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	auth.RequireAuth(e.tokens)(fn).ServeHTTP(rec, req)
	return rec
}

func TestHandleSync(t *testing.T) {
	t.Run("records steps for the day", func(t *testing.T) {
		e := newEnv(t)
		h := handler.NewActivityHandler(e.actSvc, e.logger)
		token := e.registerVerified(t, "farhan", "farhan@example.com", "hunter22")

		body := fmt.Sprintf(`{"date":%q,"steps":4200}`, e.nowDate)
		rec := authed(e, token, h.HandleSync, http.MethodPost, "/api/activity/sync", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Record struct {
				TotalSteps int64            `json:"totalSteps"`
				Streak     int              `json:"streak"`
				Days       map[string]int64 `json:"days"`
			} `json:"record"`
			CaloriesBurned float64 `json:"caloriesBurned"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, int64(4200), resp.Record.TotalSteps)
		assert.Equal(t, 1, resp.Record.Streak)
		assert.Equal(t, int64(4200), resp.Record.Days[e.nowDate])
		assert.InDelta(t, 147.0, resp.CaloriesBurned, 0.001)
	})

	t.Run("missing steps field", func(t *testing.T) {
		e := newEnv(t)
		h := handler.NewActivityHandler(e.actSvc, e.logger)
		token := e.registerVerified(t, "farhan", "farhan@example.com", "hunter22")

		body := fmt.Sprintf(`{"date":%q}`, e.nowDate)
		rec := authed(e, token, h.HandleSync, http.MethodPost, "/api/activity/sync", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "validation_error", resp.Error)
	})

	t.Run("malformed date", func(t *testing.T) {
		e := newEnv(t)
		h := handler.NewActivityHandler(e.actSvc, e.logger)
		token := e.registerVerified(t, "farhan", "farhan@example.com", "hunter22")

		rec := authed(e, token, h.HandleSync, http.MethodPost, "/api/activity/sync",
			`{"date":"01/02/2024","steps":100}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no token", func(t *testing.T) {
		e := newEnv(t)
		h := handler.NewActivityHandler(e.actSvc, e.logger)

		rec := authed(e, "", h.HandleSync, http.MethodPost, "/api/activity/sync",
			fmt.Sprintf(`{"date":%q,"steps":100}`, e.nowDate))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandleDashboard(t *testing.T) {
	t.Run("after a sync", func(t *testing.T) {
		e := newEnv(t)
		h := handler.NewActivityHandler(e.actSvc, e.logger)
		token := e.registerVerified(t, "farhan", "farhan@example.com", "hunter22")

		body := fmt.Sprintf(`{"date":%q,"steps":8000}`, e.nowDate)
		rec := authed(e, token, h.HandleSync, http.MethodPost, "/api/activity/sync", body)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = authed(e, token, h.HandleDashboard, http.MethodGet, "/api/activity/dashboard", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Name       string `json:"name"`
			TodaySteps int64  `json:"todaySteps"`
			DailyGoal  int64  `json:"dailyGoal"`
			Streak     int    `json:"streak"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "farhan", resp.Name)
		assert.Equal(t, int64(8000), resp.TodaySteps)
		assert.Equal(t, int64(model.DefaultDailyGoal), resp.DailyGoal)
		assert.Equal(t, 1, resp.Streak)
	})

	t.Run("before any sync", func(t *testing.T) {
		e := newEnv(t)
		h := handler.NewActivityHandler(e.actSvc, e.logger)
		token := e.registerVerified(t, "farhan", "farhan@example.com", "hunter22")

		rec := authed(e, token, h.HandleDashboard, http.MethodGet, "/api/activity/dashboard", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			TodaySteps int64 `json:"todaySteps"`
			Streak     int   `json:"streak"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Zero(t, resp.TodaySteps)
		assert.Zero(t, resp.Streak)
	})
}

func TestHandleLeaderboard(t *testing.T) {
	t.Run("ranked by total steps", func(t *testing.T) {
		e := newEnv(t)
		h := handler.NewActivityHandler(e.actSvc, e.logger)

		tokens := make(map[string]string)
		for i, name := range []string{"alice", "bob", "carol"} {
			tokens[name] = e.registerVerified(t, name, fmt.Sprintf("%s@example.com", name), "hunter22")
			steps := (i + 1) * 1000
			body := fmt.Sprintf(`{"date":%q,"steps":%d}`, e.nowDate, steps)
			rec := authed(e, tokens[name], h.HandleSync, http.MethodPost, "/api/activity/sync", body)
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := authed(e, tokens["alice"], h.HandleLeaderboard, http.MethodGet, "/api/activity/leaderboard", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var entries []model.LeaderboardEntry
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
		require.Len(t, entries, 3)
		assert.Equal(t, "carol", entries[0].Name)
		assert.Equal(t, int64(3000), entries[0].TotalSteps)
		assert.Equal(t, "alice", entries[2].Name)
	})

	t.Run("limit query parameter", func(t *testing.T) {
		e := newEnv(t)
		h := handler.NewActivityHandler(e.actSvc, e.logger)

		var token string
		for _, name := range []string{"alice", "bob", "carol"} {
			token = e.registerVerified(t, name, fmt.Sprintf("%s@example.com", name), "hunter22")
			body := fmt.Sprintf(`{"date":%q,"steps":1000}`, e.nowDate)
			rec := authed(e, token, h.HandleSync, http.MethodPost, "/api/activity/sync", body)
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := authed(e, token, h.HandleLeaderboard, http.MethodGet, "/api/activity/leaderboard?limit=2", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var entries []model.LeaderboardEntry
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
		assert.Len(t, entries, 2)
	})

	t.Run("non-integer limit", func(t *testing.T) {
		e := newEnv(t)
		h := handler.NewActivityHandler(e.actSvc, e.logger)
		token := e.registerVerified(t, "farhan", "farhan@example.com", "hunter22")

		rec := authed(e, token, h.HandleLeaderboard, http.MethodGet, "/api/activity/leaderboard?limit=ten", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// The token survives until its full lifetime elapses; a freshly issued
// token must carry the 7-day expiry.
func TestSessionLifetime(t *testing.T) {
	e := newEnv(t)
	token := e.registerVerified(t, "farhan", "farhan@example.com", "hunter22")

	claims, err := e.tokens.Validate(token)
	require.NoError(t, err)
	remaining := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, remaining, auth.TokenTTL-time.Minute)
	assert.LessOrEqual(t, remaining, auth.TokenTTL)
}
