package sessions

import (
	"context"
	"errors"
)

var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions. Implementations must make Apply atomic with respect to other Apply
// calls on the same session.
type Store interface {
	// Create stores a new session, assigning its ID, and returns the ID.
	Create(ctx context.Context, s *Session) (string, error)

	// Get returns a snapshot of the session or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Apply applies the patch to the stored session and returns the result.
	Apply(ctx context.Context, id string, patch *Patch) (*Session, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}
