package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"retail-banking-core/internal/core/domain"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// StagedStore implements ports.StagedStore. Each operation lives under its
// own key and disappears when its TTL runs out.
type StagedStore struct {
	client goredis.UniversalClient
	prefix string
}

// NewStagedStore creates a new Redis-backed staged operation store.
func NewStagedStore(client goredis.UniversalClient) *StagedStore {
	return &StagedStore{
		client: client,
		prefix: "staged:",
	}
}

func (s *StagedStore) key(token uuid.UUID) string {
	return s.prefix + token.String()
}

func (s *StagedStore) Save(ctx context.Context, op *domain.StagedOperation, ttl time.Duration) error {
	payload, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal staged operation: %w", err)
	}
	if err := s.client.Set(ctx, s.key(op.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis staged save: %w", err)
	}
	return nil
}

func (s *StagedStore) Get(ctx context.Context, token uuid.UUID) (*domain.StagedOperation, error) {
	val, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis staged get: %w", err)
	}
	return decodeStaged(val)
}

// UpdateState overwrites the stored operation only if the key still exists,
// keeping whatever TTL it has left.
func (s *StagedStore) UpdateState(ctx context.Context, op *domain.StagedOperation) (bool, error) {
	payload, err := json.Marshal(op)
	if err != nil {
		return false, fmt.Errorf("marshal staged operation: %w", err)
	}
	res, err := s.client.SetArgs(ctx, s.key(op.Token), payload, goredis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis staged update: %w", err)
	}
	return res == "OK", nil
}

// Take reads and deletes in one GETDEL so two commits of the same token
// cannot both succeed.
func (s *StagedStore) Take(ctx context.Context, token uuid.UUID) (*domain.StagedOperation, error) {
	val, err := s.client.GetDel(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis staged take: %w", err)
	}
	return decodeStaged(val)
}

func (s *StagedStore) Delete(ctx context.Context, token uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("redis staged delete: %w", err)
	}
	return nil
}

func decodeStaged(val []byte) (*domain.StagedOperation, error) {
	op := &domain.StagedOperation{}
	if err := json.Unmarshal(val, op); err != nil {
		return nil, fmt.Errorf("unmarshal staged operation: %w", err)
	}
	return op, nil
}
