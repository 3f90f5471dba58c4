package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/passvault/internal/domain/model"
	"github.com/ericfisherdev/passvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccountStore = (*AccountRepo)(nil)

// AccountRepo is the SQLite implementation of the AccountStore port interface.
type AccountRepo struct {
	db  *DB
	now func() time.Time
}

// NewAccountRepo creates a new AccountRepo backed by the given DB.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db, now: time.Now}
}

// FindOrCreate returns the account for principal, inserting it first if it
// does not exist. The upsert and read happen in one statement on the writer,
// so concurrent first saves by the same principal resolve to one account.
func (r *AccountRepo) FindOrCreate(ctx context.Context, principal string) (model.Account, error) {
	const query = `INSERT INTO accounts (principal, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(principal) DO UPDATE SET principal = excluded.principal
		RETURNING id, principal, created_at, updated_at`

	now := formatTime(r.now())
	acct, err := scanAccount(r.db.Writer.QueryRowContext(ctx, query, principal, now, now))
	if err != nil {
		return model.Account{}, fmt.Errorf("find or create account: %w", err)
	}
	return *acct, nil
}

// Find returns the account for principal. Returns nil, nil if none exists.
func (r *AccountRepo) Find(ctx context.Context, principal string) (*model.Account, error) {
	const query = `SELECT id, principal, created_at, updated_at FROM accounts WHERE principal = ?`

	acct, err := scanAccount(r.db.Reader.QueryRowContext(ctx, query, principal))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return acct, nil
}

func scanAccount(row *sql.Row) (*model.Account, error) {
	var acct model.Account
	var createdAt, updatedAt string
	if err := row.Scan(&acct.ID, &acct.Principal, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if acct.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if acct.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &acct, nil
}
