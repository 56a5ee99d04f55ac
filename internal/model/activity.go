package model

import "time"

// DateLayout is the calendar-date key format used by the day ledger.
// Dates are calendar days, not instants; clients submit them as "2006-01-02".
const DateLayout = "2006-01-02"

// ActivityRecord tracks one account's step history.
//
// Days maps a calendar date to the step count last submitted for that date.
// A resubmission for an existing date overwrites the ledger entry, but
// TotalSteps only ever advances by positive deltas, so a downward
// correction never reduces the cumulative total.
type ActivityRecord struct {
	ID         string           `json:"id"         db:"id"`
	AccountID  string           `json:"accountId"  db:"account_id"`
	TotalSteps int64            `json:"totalSteps" db:"total_steps"`
	DailyGoal  int64            `json:"dailyGoal"  db:"daily_goal"`
	Streak     int              `json:"streak"     db:"streak"`
	LastActive string           `json:"lastActive" db:"last_active"` // calendar date, may be empty
	Days       map[string]int64 `json:"days"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// DefaultDailyGoal is the step target assigned to a fresh activity record.
const DefaultDailyGoal = 10000

// NewActivityRecord returns a zeroed record for an account first referenced
// by an activity sync.
func NewActivityRecord(accountID string) *ActivityRecord {
	return &ActivityRecord{
		AccountID: accountID,
		DailyGoal: DefaultDailyGoal,
		Days:      make(map[string]int64),
	}
}

// LeaderboardEntry is one row of the ranked top-N projection.
type LeaderboardEntry struct {
	Name       string `json:"name"`
	TotalSteps int64  `json:"totalSteps"`
	DailyGoal  int64  `json:"dailyGoal"`
}
