package redis

import (
	"context"
	"errors"
	"time"
)

// DeliveryGuard marks webhook deliveries as seen so redeliveries are skipped.
type DeliveryGuard struct {
	client   *Client
	provider string
	ttl      time.Duration
}

// NewDeliveryGuard scopes guard keys to the payment provider.
func NewDeliveryGuard(client *Client, provider string, ttl time.Duration) (*DeliveryGuard, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &DeliveryGuard{client: client, provider: provider, ttl: ttl}, nil
}

// Claim returns true when the delivery has not been seen before.
func (g *DeliveryGuard) Claim(ctx context.Context, eventID string) (bool, error) {
	return g.client.SetNX(ctx, g.client.WebhookEventKey(g.provider, eventID), time.Now().UTC().Format(time.RFC3339), g.ttl)
}

// Release forgets a delivery so the gateway's retry is processed again.
func (g *DeliveryGuard) Release(ctx context.Context, eventID string) error {
	return g.client.Del(ctx, g.client.WebhookEventKey(g.provider, eventID))
}
