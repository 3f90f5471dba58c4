package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/passvault/internal/domain/model"
	"github.com/ericfisherdev/passvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RecordStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the RecordStore port
// interface. It stores sealed values only; it never sees plaintext or keys.
type CredentialRepo struct {
	db  *DB
	now func() time.Time
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db, now: time.Now}
}

// Create inserts a new credential record. An empty ID is replaced by a fresh
// UUID; timestamps are always set to the current time.
func (r *CredentialRepo) Create(ctx context.Context, record model.CredentialRecord) (model.CredentialRecord, error) {
	const query = `INSERT INTO credentials (id, account_id, label, ciphertext, iv, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := r.now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	_, err := r.db.Writer.ExecContext(ctx, query,
		record.ID, record.AccountID, record.Label, record.Ciphertext, record.IV,
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return model.CredentialRecord{}, fmt.Errorf("create credential %q: %w", record.Label, err)
	}
	return record, nil
}

// ListByAccount returns all records owned by accountID, oldest first.
func (r *CredentialRepo) ListByAccount(ctx context.Context, accountID int64) ([]model.CredentialRecord, error) {
	const query = `SELECT id, account_id, label, ciphertext, iv, created_at, updated_at
		FROM credentials WHERE account_id = ? ORDER BY created_at, rowid`

	rows, err := r.db.Reader.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var records []model.CredentialRecord
	for rows.Next() {
		rec, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return records, nil
}

// GetOwned returns the record with id if accountID owns it.
func (r *CredentialRepo) GetOwned(ctx context.Context, accountID int64, id string) (*model.CredentialRecord, error) {
	const query = `SELECT id, account_id, label, ciphertext, iv, created_at, updated_at
		FROM credentials WHERE id = ? AND account_id = ?`

	rec, err := scanCredential(r.db.Reader.QueryRowContext(ctx, query, id, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get credential %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %s: %w", id, err)
	}
	return rec, nil
}

// DeleteOwned removes the record with id only if accountID owns it. The
// ownership check and the delete are a single statement.
func (r *CredentialRepo) DeleteOwned(ctx context.Context, accountID int64, id string) error {
	const query = `DELETE FROM credentials WHERE id = ? AND account_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id, accountID)
	if err != nil {
		return fmt.Errorf("delete credential %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete credential %s: %w", id, model.ErrNotFound)
	}

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(s rowScanner) (*model.CredentialRecord, error) {
	var rec model.CredentialRecord
	var createdAt, updatedAt string
	if err := s.Scan(&rec.ID, &rec.AccountID, &rec.Label, &rec.Ciphertext, &rec.IV, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &rec, nil
}
