package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/farhan/stepmates/internal/apperror"
	"github.com/farhan/stepmates/internal/metrics"
	"github.com/farhan/stepmates/internal/model"
	"github.com/farhan/stepmates/internal/repository"
)

// caloriesPerStepKG converts (steps x body weight in kg) to kcal.
const caloriesPerStepKG = 0.0005

// DefaultLeaderboardSize caps the ranked projection.
const DefaultLeaderboardSize = 10

// peerPercentile is the dashboard's "ahead of peers" figure. It is a
// fixed placeholder, not a computed statistic.
const peerPercentile = 12

// ActivityService maintains each account's step ledger: per-date counts,
// the cumulative total, and streak continuity.
type ActivityService struct {
	accounts   repository.AccountRepository
	activities repository.ActivityRepository
	metrics    metrics.Recorder
	logger     *slog.Logger
	now        func() time.Time
}

// NewActivityService creates an ActivityService.
func NewActivityService(
	accounts repository.AccountRepository,
	activities repository.ActivityRepository,
	rec metrics.Recorder,
	logger *slog.Logger,
) *ActivityService {
	return &ActivityService{
		accounts:   accounts,
		activities: activities,
		metrics:    rec,
		logger:     logger,
		now:        time.Now,
	}
}

// SyncResult is returned by SyncSteps.
type SyncResult struct {
	Record         *model.ActivityRecord `json:"record"`
	CaloriesBurned float64               `json:"caloriesBurned"`
}

// DashboardSnapshot is the per-account view returned by Dashboard.
type DashboardSnapshot struct {
	Name           string  `json:"name"`
	AvatarURL      string  `json:"avatarUrl"`
	TodaySteps     int64   `json:"todaySteps"`
	DailyGoal      int64   `json:"dailyGoal"`
	Streak         int     `json:"streak"`
	CaloriesBurned float64 `json:"caloriesBurned"`
	PercentAhead   int     `json:"percentAhead"`
}

// SyncSteps records a step count for one calendar date.
//
// The date's ledger entry is overwritten with the submitted value, but the
// cumulative total only advances by positive deltas: correcting a day's
// count downward never reduces the total. The streak increments only when
// the gap from the last active date is exactly one day; any other gap
// resets it to 1.
func (s *ActivityService) SyncSteps(ctx context.Context, accountID, date string, steps int64) (*SyncResult, error) {
	if date == "" {
		return nil, apperror.ValidationFailed("date", "date is required")
	}
	day, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return nil, apperror.ValidationFailed("date", "date must be formatted YYYY-MM-DD")
	}
	if steps < 0 {
		return nil, apperror.ValidationFailed("steps", "steps must not be negative")
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "User not found"}
		}
		return nil, fmt.Errorf("service/activity: fetching account %s: %w", accountID, err)
	}

	record, err := s.activities.GetByAccount(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/activity: fetching record for %s: %w", accountID, err)
		}
		// First sync for this account.
		record = model.NewActivityRecord(accountID)
	}

	delta := steps
	if prev, ok := record.Days[date]; ok {
		delta = steps - prev
	}
	record.Days[date] = steps
	if delta > 0 {
		record.TotalSteps += delta
	}

	if date != record.LastActive {
		streak := 1
		if record.LastActive != "" {
			if last, err := time.Parse(model.DateLayout, record.LastActive); err == nil && gapDays(last, day) == 1 {
				streak = record.Streak + 1
			}
		}
		record.Streak = streak
		record.LastActive = date
	}

	if err := s.activities.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("service/activity: saving record for %s: %w", accountID, err)
	}

	s.metrics.RecordStepSync()
	s.logger.Info("steps synced",
		slog.String("accountID", accountID),
		slog.String("date", date),
		slog.Int64("steps", steps),
		slog.Int("streak", record.Streak),
	)

	return &SyncResult{
		Record:         record,
		CaloriesBurned: calories(steps, account.Weight()),
	}, nil
}

// Dashboard returns the account's activity snapshot for the service's own
// current date; clients do not supply "today".
func (s *ActivityService) Dashboard(ctx context.Context, accountID string) (*DashboardSnapshot, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "User not found"}
		}
		return nil, fmt.Errorf("service/activity: fetching account %s: %w", accountID, err)
	}

	record, err := s.activities.GetByAccount(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/activity: fetching record for %s: %w", accountID, err)
		}
		record = model.NewActivityRecord(accountID)
	}

	today := s.now().Format(model.DateLayout)
	todaySteps := record.Days[today]

	name := account.DisplayName
	if name == "" {
		name = account.Username
	}

	return &DashboardSnapshot{
		Name:           name,
		AvatarURL:      account.AvatarURL,
		TodaySteps:     todaySteps,
		DailyGoal:      record.DailyGoal,
		Streak:         record.Streak,
		CaloriesBurned: calories(todaySteps, account.Weight()),
		PercentAhead:   peerPercentile,
	}, nil
}

// Leaderboard returns the top-n accounts by cumulative total steps.
// n values outside (0, DefaultLeaderboardSize] fall back to the default.
func (s *ActivityService) Leaderboard(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	if n <= 0 || n > DefaultLeaderboardSize {
		n = DefaultLeaderboardSize
	}

	entries, err := s.activities.TopByTotalSteps(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("service/activity: querying leaderboard: %w", err)
	}
	return entries, nil
}

// gapDays returns the whole-day difference between two calendar dates.
func gapDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// calories estimates kcal burned, rounded to two decimal places.
func calories(steps int64, weightKG float64) float64 {
	return math.Round(float64(steps)*weightKG*caloriesPerStepKG*100) / 100
}
