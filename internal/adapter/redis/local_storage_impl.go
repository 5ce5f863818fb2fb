package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/user/scamshield-agent/internal/repository"
)

const storagePrefix = "scamshield:storage:"

// LocalStorageImpl provides a concrete implementation for the LocalStorage interface using Redis strings.
type LocalStorageImpl struct {
	client *redis.Client
}

// NewLocalStorage creates a new instance of LocalStorageImpl.
func NewLocalStorage(client *redis.Client) *LocalStorageImpl {
	return &LocalStorageImpl{client: client}
}

// generateKey namespaces a storage key so the agent can share a Redis database.
func (r *LocalStorageImpl) generateKey(key string) string {
	return storagePrefix + key
}

// Get returns the value under key, or repository.ErrNotFound when the key does not exist.
func (r *LocalStorageImpl) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.generateKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	return val, err
}

// Set stores value without expiry; the API key carries its own creation time.
func (r *LocalStorageImpl) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.generateKey(key), value, 0).Err()
}

// Delete removes key. DEL on a missing key is a no-op.
func (r *LocalStorageImpl) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.generateKey(key)).Err()
}

// Ping checks the connection.
func (r *LocalStorageImpl) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
