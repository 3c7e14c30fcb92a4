package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// RevocationList records signed-out token ids in Redis until they expire.
// A nil list revokes nothing.
type RevocationList struct {
	client *redis.Client
	now    func() time.Time
}

// NewRevocationList constructs a Redis backed revocation list.
func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client, now: time.Now}
}

// Revoke marks tokenID as revoked until expiresAt.
func (l *RevocationList) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if l == nil || l.client == nil || tokenID == "" {
		return nil
	}
	ttl := expiresAt.Sub(l.now())
	if ttl <= 0 {
		return nil
	}
	if err := l.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if l == nil || l.client == nil || tokenID == "" {
		return false, nil
	}
	n, err := l.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("auth: check revocation: %w", err)
	}
	return n > 0, nil
}
