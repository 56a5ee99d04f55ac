package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/farhan/stepmates/internal/apperror"
	"github.com/farhan/stepmates/internal/model"
	"github.com/farhan/stepmates/internal/repository"
)

// compile-time check that *DB implements repository.ActivityRepository
var _ repository.ActivityRepository = (*DB)(nil)

// GetByAccount retrieves an account's activity record with its day ledger.
func (db *DB) GetByAccount(ctx context.Context, accountID string) (*model.ActivityRecord, error) {
	var rec model.ActivityRecord

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, account_id, total_steps, daily_goal, streak, last_active,
		        created_at, updated_at
		 FROM activity_records WHERE account_id = ?`,
		accountID,
	).Scan(
		&rec.ID,
		&rec.AccountID,
		&rec.TotalSteps,
		&rec.DailyGoal,
		&rec.Streak,
		&rec.LastActive,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("activity record", accountID)
		}
		return nil, fmt.Errorf("sqlite: querying activity record for %s: %w", accountID, err)
	}

	rec.Days = make(map[string]int64)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT day, steps FROM activity_days WHERE record_id = ?`, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying day ledger for %s: %w", rec.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			day   string
			steps int64
		)
		if err := rows.Scan(&day, &steps); err != nil {
			return nil, fmt.Errorf("sqlite: scanning day ledger row: %w", err)
		}
		rec.Days[day] = steps
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: reading day ledger for %s: %w", rec.ID, err)
	}

	return &rec, nil
}

// Save upserts an activity record and its day ledger in one transaction,
// so a concurrent reader never sees the totals and the ledger disagree.
func (db *DB) Save(ctx context.Context, record *model.ActivityRecord) error {
	now := time.Now()
	if record.ID == "" {
		record.ID = xid.New().String()
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO activity_records
			(id, account_id, total_steps, daily_goal, streak, last_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(account_id) DO UPDATE SET
			total_steps = excluded.total_steps,
			daily_goal  = excluded.daily_goal,
			streak      = excluded.streak,
			last_active = excluded.last_active,
			updated_at  = excluded.updated_at`,
		record.ID,
		record.AccountID,
		record.TotalSteps,
		record.DailyGoal,
		record.Streak,
		record.LastActive,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting activity record for %s: %w", record.AccountID, err)
	}

	// The upsert keeps the original row ID on conflict; read it back so the
	// ledger rows attach to the right record.
	var recordID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM activity_records WHERE account_id = ?`, record.AccountID,
	).Scan(&recordID)
	if err != nil {
		return fmt.Errorf("sqlite: resolving activity record id for %s: %w", record.AccountID, err)
	}
	record.ID = recordID

	for day, steps := range record.Days {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO activity_days (record_id, day, steps)
			 VALUES (?, ?, ?)
			 ON CONFLICT(record_id, day) DO UPDATE SET steps = excluded.steps`,
			recordID, day, steps,
		)
		if err != nil {
			return fmt.Errorf("sqlite: upserting day ledger entry %s: %w", day, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing activity save: %w", err)
	}

	return nil
}

// TopByTotalSteps returns the ranked top-N projection.
//
// Ties break by account creation time then ID, which gives equal totals
// a stable insertion order.
func (db *DB) TopByTotalSteps(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT a.username, r.total_steps, r.daily_goal
		 FROM activity_records r
		 JOIN accounts a ON a.id = r.account_id
		 ORDER BY r.total_steps DESC, r.created_at ASC, r.id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]model.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.Name, &e.TotalSteps, &e.DailyGoal); err != nil {
			return nil, fmt.Errorf("sqlite: scanning leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: reading leaderboard rows: %w", err)
	}

	return entries, nil
}
