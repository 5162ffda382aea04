package session

import (
	"context"
	"errors"
)

// ErrInvalidAccount is returned when a stored session value is not a valid
// account id.
var ErrInvalidAccount = errors.New("invalid account id in session")

// Store resolves session ids issued by the login service to account ids.
type Store interface {
	Lookup(ctx context.Context, sessionID string) (accountID int, ok bool, err error)
}
