// Package repository declares the persistence interfaces consumed by the
// service layer. Services depend on these interfaces, never on a concrete
// store, so tests can substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/farhan/stepmates/internal/model"
)

// AccountRepository persists Account records.
type AccountRepository interface {
	// FindByID returns the account with the given ID, or apperror.ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// FindByEmail returns the account with the given email, or apperror.ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*model.Account, error)

	// FindByUsernameOrEmail returns the account matching either identifier.
	// Registration uses it to detect duplicates across both unique keys.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.Account, error)

	// Create inserts a new account, assigning its ID and timestamps.
	Create(ctx context.Context, account *model.Account) error

	// Update rewrites a stored account's mutable fields.
	Update(ctx context.Context, account *model.Account) error
}

// ActivityRepository persists per-account activity records and their day
// ledgers.
type ActivityRepository interface {
	// GetByAccount returns the account's activity record with its day
	// ledger loaded, or apperror.ErrNotFound if none exists yet.
	GetByAccount(ctx context.Context, accountID string) (*model.ActivityRecord, error)

	// Save upserts the record and its day ledger in one transaction.
	Save(ctx context.Context, record *model.ActivityRecord) error

	// TopByTotalSteps returns up to limit leaderboard entries ordered by
	// cumulative total descending, ties broken by insertion order.
	TopByTotalSteps(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}
