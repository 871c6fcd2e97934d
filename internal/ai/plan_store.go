package ai

import (
	"context"
	"sort"
	"sync"
)

// MemoryPlanStore is an in-process PlanStore.
type MemoryPlanStore struct {
	mu    sync.RWMutex
	plans map[string]*AIStrategicPlan
}

func NewMemoryPlanStore() *MemoryPlanStore {
	return &MemoryPlanStore{plans: make(map[string]*AIStrategicPlan)}
}

func (s *MemoryPlanStore) GetPlan(_ context.Context, factionID string) (*AIStrategicPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plans[factionID], nil
}

func (s *MemoryPlanStore) SetPlan(_ context.Context, plan *AIStrategicPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.FactionID] = plan
	return nil
}

// Plans returns every stored plan ordered by faction id.
func (s *MemoryPlanStore) Plans() []*AIStrategicPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*AIStrategicPlan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FactionID < out[j].FactionID })
	return out
}
