package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/freeeve/faction-ai/internal/ai"
	"github.com/freeeve/faction-ai/internal/repository"
)

// cachePlanStore keeps one sector's plans in the sector cache as JSON.
type cachePlanStore struct {
	cache    repository.SectorCache
	sectorID string
}

func (p cachePlanStore) GetPlan(ctx context.Context, factionID string) (*ai.AIStrategicPlan, error) {
	raw, err := p.cache.GetPlan(ctx, p.sectorID, factionID)
	if err != nil || raw == nil {
		return nil, err
	}
	var plan ai.AIStrategicPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan for %s: %w", factionID, err)
	}
	return &plan, nil
}

func (p cachePlanStore) SetPlan(ctx context.Context, plan *ai.AIStrategicPlan) error {
	raw, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	return p.cache.SetPlan(ctx, p.sectorID, plan.FactionID, raw)
}

func (p cachePlanStore) all(ctx context.Context) ([]*ai.AIStrategicPlan, error) {
	raws, err := p.cache.ListPlans(ctx, p.sectorID)
	if err != nil {
		return nil, err
	}
	out := make([]*ai.AIStrategicPlan, 0, len(raws))
	for factionID, raw := range raws {
		var plan ai.AIStrategicPlan
		if err := json.Unmarshal(raw, &plan); err != nil {
			return nil, fmt.Errorf("unmarshal plan for %s: %w", factionID, err)
		}
		out = append(out, &plan)
	}
	return out, nil
}
