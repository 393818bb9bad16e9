package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Load for unknown or expired tokens.
var ErrNotFound = errors.New("session: not found")

// Store persists session state by token. Implementations must be safe for
// concurrent use.
type Store interface {
	Load(ctx context.Context, token string) (State, error)
	Save(ctx context.Context, token string, state State) error
	Destroy(ctx context.Context, token string) error
}
