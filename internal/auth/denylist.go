package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "auth:revoked:"

// Denylist records revoked token ids in Redis until the token would have expired anyway.
type Denylist struct {
	rdb redis.Cmdable
}

// NewDenylist creates a denylist. A nil client disables revocation.
func NewDenylist(rdb redis.Cmdable) *Denylist {
	return &Denylist{rdb: rdb}
}

// Revoke marks the token id as unusable for ttl.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if d == nil || d.rdb == nil || tokenID == "" || ttl <= 0 {
		return nil
	}
	if err := d.rdb.Set(ctx, denylistPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Revoked reports whether the token id was revoked.
func (d *Denylist) Revoked(ctx context.Context, tokenID string) (bool, error) {
	if d == nil || d.rdb == nil || tokenID == "" {
		return false, nil
	}
	err := d.rdb.Get(ctx, denylistPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return true, nil
}
