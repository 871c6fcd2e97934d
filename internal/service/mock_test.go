package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/freeeve/faction-ai/internal/model"
	"github.com/freeeve/faction-ai/internal/repository"
)

type mockSectorRepo struct {
	mu      sync.Mutex
	sectors map[string]*model.Sector
}

func newMockSectorRepo() *mockSectorRepo {
	return &mockSectorRepo{sectors: make(map[string]*model.Sector)}
}

func (m *mockSectorRepo) Create(_ context.Context, name, playerFactionID, difficulty string, turn int) (*model.Sector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	s := &model.Sector{
		ID:              fmt.Sprintf("sector-%d", len(m.sectors)+1),
		Name:            name,
		Turn:            turn,
		PlayerFactionID: playerFactionID,
		Difficulty:      difficulty,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.sectors[s.ID] = s
	cp := *s
	return &cp, nil
}

func (m *mockSectorRepo) FindByID(_ context.Context, id string) (*model.Sector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sectors[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockSectorRepo) List(_ context.Context) ([]model.Sector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Sector
	for _, s := range m.sectors {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSectorRepo) SetTurn(_ context.Context, id string, turn int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sectors[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Turn = turn
	return nil
}

type mockTurnRepo struct {
	mu           sync.Mutex
	turns        []*model.Turn
	factionTurns []model.FactionTurn
}

func newMockTurnRepo() *mockTurnRepo {
	return &mockTurnRepo{}
}

func (m *mockTurnRepo) CreateTurn(_ context.Context, sectorID string, turn int) (*model.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &model.Turn{
		ID:        fmt.Sprintf("turn-%d", len(m.turns)+1),
		SectorID:  sectorID,
		Turn:      turn,
		StartedAt: time.Now(),
	}
	m.turns = append(m.turns, t)
	cp := *t
	return &cp, nil
}

func (m *mockTurnRepo) ResolveTurn(_ context.Context, turnID string, failed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.turns {
		if t.ID == turnID {
			now := time.Now()
			t.Failed = failed
			t.ResolvedAt = &now
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockTurnRepo) SaveFactionTurns(_ context.Context, turns []model.FactionTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factionTurns = append(m.factionTurns, turns...)
	return nil
}

func (m *mockTurnRepo) ListTurns(_ context.Context, sectorID string) ([]model.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Turn
	for i := len(m.turns) - 1; i >= 0; i-- {
		if m.turns[i].SectorID == sectorID {
			out = append(out, *m.turns[i])
		}
	}
	return out, nil
}

func (m *mockTurnRepo) FactionTurns(_ context.Context, turnID string) ([]model.FactionTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.FactionTurn
	for _, ft := range m.factionTurns {
		if ft.TurnID == turnID {
			out = append(out, ft)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FactionID < out[j].FactionID })
	return out, nil
}

type mockCache struct {
	mu     sync.Mutex
	states map[string]json.RawMessage
	plans  map[string]map[string]json.RawMessage
}

func newMockCache() *mockCache {
	return &mockCache{
		states: make(map[string]json.RawMessage),
		plans:  make(map[string]map[string]json.RawMessage),
	}
}

func (m *mockCache) SetSectorState(_ context.Context, sectorID string, state json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[sectorID] = state
	return nil
}

func (m *mockCache) GetSectorState(_ context.Context, sectorID string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[sectorID], nil
}

func (m *mockCache) SetPlan(_ context.Context, sectorID, factionID string, plan json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.plans[sectorID] == nil {
		m.plans[sectorID] = make(map[string]json.RawMessage)
	}
	m.plans[sectorID][factionID] = plan
	return nil
}

func (m *mockCache) GetPlan(_ context.Context, sectorID, factionID string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plans[sectorID][factionID], nil
}

func (m *mockCache) ListPlans(_ context.Context, sectorID string) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]json.RawMessage, len(m.plans[sectorID]))
	for k, v := range m.plans[sectorID] {
		out[k] = v
	}
	return out, nil
}

func (m *mockCache) DeleteSectorData(_ context.Context, sectorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, sectorID)
	delete(m.plans, sectorID)
	return nil
}

type sentEvent struct {
	sectorID  string
	eventType string
	data      any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
}

func (b *recordingBroadcaster) BroadcastSectorEvent(sectorID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{sectorID: sectorID, eventType: eventType, data: data})
}

func (b *recordingBroadcaster) count(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.eventType == eventType {
			n++
		}
	}
	return n
}
