package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// consumeScript deletes KEYS[1] only when it holds ARGV[1].
var consumeScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// OTPStore implements ports.OTPStore. Codes are single use.
type OTPStore struct {
	client goredis.UniversalClient
	prefix string
}

// NewOTPStore creates a new Redis-backed one-time code store.
func NewOTPStore(client goredis.UniversalClient) *OTPStore {
	return &OTPStore{
		client: client,
		prefix: "otp:",
	}
}

// Save stores code under key, replacing any earlier code for the same key.
func (s *OTPStore) Save(ctx context.Context, key string, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, code, ttl).Err(); err != nil {
		return fmt.Errorf("redis otp save: %w", err)
	}
	return nil
}

// Consume compares and deletes atomically. A wrong code leaves the stored
// one in place.
func (s *OTPStore) Consume(ctx context.Context, key string, code string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.client, []string{s.prefix + key}, code).Int64()
	if err != nil {
		return false, fmt.Errorf("redis otp consume: %w", err)
	}
	return n == 1, nil
}
