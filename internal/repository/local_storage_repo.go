package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by LocalStorage when a key has never been written.
var ErrNotFound = errors.New("key not found")

// Fixed local storage keys.
const (
	KeyAPIKey         = "scamshield_api_key"
	KeyClientID       = "scamshield_client_id"
	KeyAutoDetection  = "autoDetectionEnabled"
	KeyTargetLanguage = "targetLanguage"
	KeyHistory        = "analysisHistory"
)

// LocalStorage is the durable key/value area that survives agent restarts.
type LocalStorage interface {
	// Get returns the raw value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
