package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/quantonganh/newsletter"
)

const keyPrefix = "newsletter:pending:"

// PendingStore keeps pending signups in redis with a per-key TTL
type PendingStore struct {
	client *goredis.Client
}

// NewPendingStore returns a store using client
func NewPendingStore(client *goredis.Client) *PendingStore {
	return &PendingStore{
		client: client,
	}
}

// Put stores p under token until p.ExpiresAt
func (s *PendingStore) Put(ctx context.Context, token string, p *newsletter.PendingSignup) error {
	ttl := time.Until(p.ExpiresAt)
	if ttl <= 0 {
		return &newsletter.Error{Code: newsletter.ErrInvalid, Op: "redis.Put", Message: "pending signup already expired"}
	}

	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "json.Marshal")
	}

	if err := s.client.Set(ctx, keyPrefix+token, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to store pending signup")
	}

	return nil
}

// Get returns the record stored under token
func (s *PendingStore) Get(ctx context.Context, token string) (*newsletter.PendingSignup, error) {
	data, err := s.client.Get(ctx, keyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, &newsletter.Error{Code: newsletter.ErrNotFound, Op: "redis.Get", Message: "pending signup not found"}
		}
		return nil, errors.Wrap(err, "failed to get pending signup")
	}

	var p newsletter.PendingSignup
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "json.Unmarshal")
	}
	if p.Expired(time.Now()) {
		return nil, &newsletter.Error{Code: newsletter.ErrNotFound, Op: "redis.Get", Message: "pending signup expired"}
	}

	return &p, nil
}

// Delete removes the record stored under token
func (s *PendingStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return errors.Wrap(err, "failed to delete pending signup")
	}
	return nil
}
