package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/food-journal-api/internal/model"
)

// RevocationStore is the persistence behind the blacklist.
type RevocationStore interface {
	Insert(ctx context.Context, t *model.RevokedToken) error
	Exists(ctx context.Context, token string) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RevocationRegistry records logged-out tokens and forgets them once they
// could no longer pass the expiry check anyway.
type RevocationRegistry struct {
	store RevocationStore
	now   func() time.Time
}

func NewRevocationRegistry(store RevocationStore) *RevocationRegistry {
	return &RevocationRegistry{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Revoke blacklists token as of now.  A store failure is returned as-is:
// the token stays usable, so the caller has to know.
func (r *RevocationRegistry) Revoke(ctx context.Context, token string) error {
	if err := r.store.Insert(ctx, &model.RevokedToken{AccessToken: token, CreatedAt: r.now()}); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether token has been blacklisted.
func (r *RevocationRegistry) IsRevoked(ctx context.Context, token string) (bool, error) {
	return r.store.Exists(ctx, token)
}

// PruneOlderThan deletes revocations made more than cutoff ago and returns
// the number removed.  cutoff must be at least the token lifetime or a
// revoked but unexpired token would become usable again.
func (r *RevocationRegistry) PruneOlderThan(ctx context.Context, cutoff time.Duration) (int64, error) {
	n, err := r.store.DeleteOlderThan(ctx, r.now().Add(-cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune revoked tokens: %w", err)
	}
	return n, nil
}
