package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Key patterns for Redis sector state.
func stateKey(sectorID string) string { return "sector:" + sectorID + ":state" }
func plansKey(sectorID string) string { return "sector:" + sectorID + ":plans" }

// SetSectorState stores the live sector snapshot JSON.
func (c *Client) SetSectorState(ctx context.Context, sectorID string, state json.RawMessage) error {
	return c.rdb.Set(ctx, stateKey(sectorID), []byte(state), 0).Err()
}

// GetSectorState retrieves the live sector snapshot JSON.
func (c *Client) GetSectorState(ctx context.Context, sectorID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, stateKey(sectorID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sector state: %w", err)
	}
	return json.RawMessage(data), nil
}

// SetPlan stores a faction's strategic plan in the sector's plan hash.
func (c *Client) SetPlan(ctx context.Context, sectorID, factionID string, plan json.RawMessage) error {
	return c.rdb.HSet(ctx, plansKey(sectorID), factionID, []byte(plan)).Err()
}

// GetPlan retrieves a faction's strategic plan.
func (c *Client) GetPlan(ctx context.Context, sectorID, factionID string) (json.RawMessage, error) {
	data, err := c.rdb.HGet(ctx, plansKey(sectorID), factionID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return json.RawMessage(data), nil
}

// ListPlans returns every stored plan in the sector keyed by faction id.
func (c *Client) ListPlans(ctx context.Context, sectorID string) (map[string]json.RawMessage, error) {
	all, err := c.rdb.HGetAll(ctx, plansKey(sectorID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	result := make(map[string]json.RawMessage, len(all))
	for factionID, data := range all {
		result[factionID] = json.RawMessage(data)
	}
	return result, nil
}

// DeleteSectorData removes all Redis data for a sector.
func (c *Client) DeleteSectorData(ctx context.Context, sectorID string) error {
	return c.rdb.Del(ctx, stateKey(sectorID), plansKey(sectorID)).Err()
}
