package repository

import (
	"context"

	"roster-console/internal/session/domain/model"
)

// Verifier checks a credential pair. It returns errors.ErrInvalidCredentials
// when nothing matches; any other error is treated as a transient failure.
type Verifier interface {
	Verify(ctx context.Context, identifier, secret string) (*model.Identity, error)
}
