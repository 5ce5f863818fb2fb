package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/internal/repository"
)

const keyDescription = "ScamShield browser extension"

// GetOrCreateAPIKey returns the stored key while it is younger than the key
// TTL, and otherwise mints and stores a new one.
func (c *Client) GetOrCreateAPIKey(ctx context.Context) (string, error) {
	return c.apiKey(ctx, c.failover.current())
}

func (c *Client) apiKey(ctx context.Context, base string) (string, error) {
	if key, ok := c.storedKey(ctx); ok {
		return key, nil
	}
	// The flight is shared, so it must not die with whichever caller started it.
	ch := c.mint.DoChan(repository.KeyAPIKey, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
		defer cancel()
		if key, ok := c.storedKey(fctx); ok {
			return key, nil
		}
		return c.mintKey(fctx, base)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &TimeoutError{Endpoint: EndpointAPIKey}
		}
		return "", ctx.Err()
	}
}

func (c *Client) storedKey(ctx context.Context) (string, bool) {
	raw, err := c.storage.Get(ctx, repository.KeyAPIKey)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			c.logger.Warn("reading stored api key", zap.Error(err))
		}
		return "", false
	}
	var k entity.APIKey
	if err := json.Unmarshal(raw, &k); err != nil || k.Key == "" {
		return "", false
	}
	if k.Expired(c.now(), c.cfg.KeyTTL) {
		c.logger.Info("stored api key expired")
		return "", false
	}
	return k.Key, true
}

func (c *Client) mintKey(ctx context.Context, base string) (string, error) {
	clientID, err := c.clientID(ctx)
	if err != nil {
		return "", err
	}
	env, err := c.post(ctx, base, EndpointAPIKey, "", &apiKeyRequest{
		ClientID:    clientID,
		ClientType:  c.cfg.ClientType,
		Description: keyDescription,
	})
	if err != nil {
		return "", fmt.Errorf("issue api key: %w", err)
	}
	var resp apiKeyResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil || resp.APIKey == "" {
		return "", &MalformedResponseError{Endpoint: EndpointAPIKey, Reason: "missing api_key"}
	}

	raw, err := json.Marshal(entity.APIKey{Key: resp.APIKey, CreatedAt: c.now().UnixMilli()})
	if err != nil {
		return "", err
	}
	if err := c.storage.Set(ctx, repository.KeyAPIKey, raw); err != nil {
		return "", fmt.Errorf("store api key: %w", err)
	}
	c.logger.Info("issued new api key", zap.String("client_id", clientID))
	return resp.APIKey, nil
}

// clientID returns the installation id, creating it on first use.
func (c *Client) clientID(ctx context.Context) (string, error) {
	raw, err := c.storage.Get(ctx, repository.KeyClientID)
	if err == nil && len(raw) > 0 {
		return string(raw), nil
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("read client id: %w", err)
	}
	id := uuid.NewString()
	if err := c.storage.Set(ctx, repository.KeyClientID, []byte(id)); err != nil {
		return "", fmt.Errorf("store client id: %w", err)
	}
	return id, nil
}

func (c *Client) discardKey(ctx context.Context) {
	if err := c.storage.Delete(context.WithoutCancel(ctx), repository.KeyAPIKey); err != nil {
		c.logger.Warn("discarding rejected api key", zap.Error(err))
		return
	}
	c.logger.Info("discarded rejected api key")
}
