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

// compile-time check that *DB implements repository.AccountRepository
var _ repository.AccountRepository = (*DB)(nil)

const accountColumns = `id, username, email, password_hash, verified, code,
	code_expires_at, display_name, avatar_url, weight_kg, created_at, updated_at`

// FindByID retrieves an account by its internal ID.
func (db *DB) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return db.findAccount(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
}

// FindByEmail retrieves an account by email.
func (db *DB) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return db.findAccount(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
}

// FindByUsernameOrEmail retrieves an account matching either unique
// identifier. With both keys UNIQUE at most one row can match each; if the
// two identifiers match different rows, the username match wins.
func (db *DB) FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.Account, error) {
	return db.findAccount(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE username = ? OR email = ?
		 ORDER BY username = ? DESC LIMIT 1`,
		username, email, username)
}

func (db *DB) findAccount(ctx context.Context, query string, args ...any) (*model.Account, error) {
	var (
		a       model.Account
		expires sql.NullTime
	)

	err := db.conn.QueryRowContext(ctx, query, args...).Scan(
		&a.ID,
		&a.Username,
		&a.Email,
		&a.PasswordHash,
		&a.Verified,
		&a.Code,
		&expires,
		&a.DisplayName,
		&a.AvatarURL,
		&a.WeightKG,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("account", "")
		}
		return nil, fmt.Errorf("sqlite: querying account: %w", err)
	}

	if expires.Valid {
		t := expires.Time
		a.CodeExpiresAt = &t
	}

	return &a, nil
}

// Create inserts a new account, assigning its ID and timestamps.
func (db *DB) Create(ctx context.Context, account *model.Account) error {
	now := time.Now()
	account.ID = xid.New().String()
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Verified,
		account.Code,
		nullableTime(account.CodeExpiresAt),
		account.DisplayName,
		account.AvatarURL,
		account.WeightKG,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting account (username=%s): %w", account.Username, err)
	}

	return nil
}

// Update rewrites an account's mutable fields.
func (db *DB) Update(ctx context.Context, account *model.Account) error {
	account.UpdatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE accounts
		 SET password_hash = ?, verified = ?, code = ?, code_expires_at = ?,
		     display_name = ?, avatar_url = ?, weight_kg = ?, updated_at = ?
		 WHERE id = ?`,
		account.PasswordHash,
		account.Verified,
		account.Code,
		nullableTime(account.CodeExpiresAt),
		account.DisplayName,
		account.AvatarURL,
		account.WeightKG,
		account.UpdatedAt,
		account.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating account %s: %w", account.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating account %s: %w", account.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("account", account.ID)
	}

	return nil
}

// nullableTime maps an optional expiry to a driver-friendly value.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
