package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"chargeamps/internal/models"
)

// CredentialStore caches bearer credentials in redis so that separate CLI
// runs reuse one token until it expires.
type CredentialStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewCredentialStore returns redis-backed store.
func NewCredentialStore(client *redis.Client) *CredentialStore {
	return &CredentialStore{client: client, now: time.Now}
}

func (s *CredentialStore) key(account string) string {
	return fmt.Sprintf("chargeamps:credential:%s", account)
}

// Save caches cred until its expiry. Credentials without a future expiry are not stored.
func (s *CredentialStore) Save(ctx context.Context, account string, cred models.Credential) error {
	ttl := cred.TTL(s.now())
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(account), data, ttl).Err()
}

// Load returns the cached credential; ok is false when nothing is cached.
func (s *CredentialStore) Load(ctx context.Context, account string) (models.Credential, bool, error) {
	result, err := s.client.Get(ctx, s.key(account)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Credential{}, false, nil
	}
	if err != nil {
		return models.Credential{}, false, err
	}
	var cred models.Credential
	if err := json.Unmarshal(result, &cred); err != nil {
		return models.Credential{}, false, err
	}
	return cred, true, nil
}

// Delete removes the cached credential.
func (s *CredentialStore) Delete(ctx context.Context, account string) error {
	return s.client.Del(ctx, s.key(account)).Err()
}
