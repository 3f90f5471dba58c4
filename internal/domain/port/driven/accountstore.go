// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"

	"github.com/ericfisherdev/passvault/internal/domain/model"
)

// AccountStore defines the driven port for principal-to-account resolution.
type AccountStore interface {
	// FindOrCreate returns the account for principal, creating it on first use.
	FindOrCreate(ctx context.Context, principal string) (model.Account, error)

	// Find returns the account for principal, or nil, nil if none exists.
	Find(ctx context.Context, principal string) (*model.Account, error)
}
