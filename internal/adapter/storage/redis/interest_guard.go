package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const interestGuardTTL = 48 * time.Hour

// InterestGuard implements ports.InterestGuard with SET NX on a key per
// account and calendar day.
type InterestGuard struct {
	client goredis.UniversalClient
	prefix string
}

// NewInterestGuard creates a new Redis-backed interest guard.
func NewInterestGuard(client goredis.UniversalClient) *InterestGuard {
	return &InterestGuard{
		client: client,
		prefix: "interest:",
	}
}

func (g *InterestGuard) key(accountID uuid.UUID, day time.Time) string {
	return g.prefix + accountID.String() + ":" + day.UTC().Format("2006-01-02")
}

// Acquire returns true if no interest run has claimed this account and day yet.
func (g *InterestGuard) Acquire(ctx context.Context, accountID uuid.UUID, day time.Time) (bool, error) {
	res, err := g.client.SetArgs(ctx, g.key(accountID, day), 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  interestGuardTTL,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis interest acquire: %w", err)
	}
	return res == "OK", nil
}

// Release drops the claim so a failed run can be retried the same day.
func (g *InterestGuard) Release(ctx context.Context, accountID uuid.UUID, day time.Time) error {
	if err := g.client.Del(ctx, g.key(accountID, day)).Err(); err != nil {
		return fmt.Errorf("redis interest release: %w", err)
	}
	return nil
}
