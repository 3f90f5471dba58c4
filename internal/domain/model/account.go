package model

import "time"

// Account is the persisted identity of a principal. Principal is the opaque
// identifier supplied by the authentication collaborator and is never
// modified after creation.
type Account struct {
	ID        int64
	Principal string
	CreatedAt time.Time
	UpdatedAt time.Time
}
