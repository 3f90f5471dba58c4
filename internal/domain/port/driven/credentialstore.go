package driven

import (
	"context"

	"github.com/ericfisherdev/passvault/internal/domain/model"
)

// RecordStore defines the driven port for encrypted credential record
// persistence. It only ever sees sealed values; encryption happens in the
// application layer through the Cipher port.
type RecordStore interface {
	// Create persists a new record and returns it with ID and timestamps set.
	// A record with an empty ID is assigned a fresh one.
	Create(ctx context.Context, record model.CredentialRecord) (model.CredentialRecord, error)

	// ListByAccount returns all records owned by accountID, oldest first.
	ListByAccount(ctx context.Context, accountID int64) ([]model.CredentialRecord, error)

	// GetOwned returns the record with id if it is owned by accountID.
	// Returns model.ErrNotFound when the record is missing or foreign.
	GetOwned(ctx context.Context, accountID int64, id string) (*model.CredentialRecord, error)

	// DeleteOwned removes the record with id only if it is owned by accountID.
	// Returns model.ErrNotFound when nothing was deleted.
	DeleteOwned(ctx context.Context, accountID int64, id string) error
}
