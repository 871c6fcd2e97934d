package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/faction-ai/internal/ai"
	"github.com/freeeve/faction-ai/pkg/sector"
)

// SectorState is the live sector for one AI batch. It applies dispatcher
// effects in place so each faction sees what earlier factions did.
type SectorState struct {
	mu      sync.Mutex
	snap    sector.Snapshot
	catalog sector.Catalog
	failed  map[string]error
	newID   func() string
}

var _ ai.GameState = (*SectorState)(nil)
var _ ai.Dispatcher = (*SectorState)(nil)

// NewSectorState copies snap into a mutable state.
func NewSectorState(snap sector.Snapshot, catalog sector.Catalog) *SectorState {
	return &SectorState{
		snap:    snap.Clone(),
		catalog: catalog,
		failed:  make(map[string]error),
		newID:   uuid.NewString,
	}
}

// Snapshot returns a copy of the current state.
func (s *SectorState) Snapshot(_ context.Context) (sector.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone(), nil
}

// MarkTurnFailed records a faction whose turn failed this batch.
func (s *SectorState) MarkTurnFailed(_ context.Context, factionID string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[factionID] = err
	return nil
}

// Failed returns the factions marked failed, keyed by id.
func (s *SectorState) Failed() map[string]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]error, len(s.failed))
	for k, v := range s.failed {
		out[k] = v
	}
	return out
}

func (s *SectorState) faction(id string) (*sector.Faction, error) {
	f := s.snap.Faction(id)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ai.ErrNoFaction, id)
	}
	return f, nil
}

func (s *SectorState) asset(factionID, assetID string) (*sector.Faction, *sector.Asset, error) {
	f, err := s.faction(factionID)
	if err != nil {
		return nil, nil, err
	}
	a := f.Asset(assetID)
	if a == nil {
		return nil, nil, fmt.Errorf("%w: asset %s not owned by %s", ai.ErrInvalidAction, assetID, factionID)
	}
	return f, a, nil
}

func (s *SectorState) hasSystem(id string) bool {
	for _, sys := range s.snap.Systems {
		if sys.ID == id {
			return true
		}
	}
	return false
}

// MoveAsset relocates an asset to another system.
func (s *SectorState) MoveAsset(_ context.Context, factionID, assetID, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, a, err := s.asset(factionID, assetID)
	if err != nil {
		return err
	}
	if !s.hasSystem(to) {
		return fmt.Errorf("%w: unknown system %s", ai.ErrInvalidAction, to)
	}
	a.Location = to
	return nil
}

// RepairAsset heals an asset up to its maximum and charges the faction.
func (s *SectorState) RepairAsset(_ context.Context, factionID, assetID string, hpHealed, cost int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, a, err := s.asset(factionID, assetID)
	if err != nil {
		return err
	}
	if cost > f.FacCreds {
		return fmt.Errorf("repair %s: need %d creds, have %d", assetID, cost, f.FacCreds)
	}
	a.HP = min(a.MaxHP, a.HP+hpHealed)
	f.FacCreds -= cost
	return nil
}

// AddAsset buys a new asset at full health.
func (s *SectorState) AddAsset(_ context.Context, factionID, definitionID, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.faction(factionID)
	if err != nil {
		return err
	}
	def, ok := s.catalog.Lookup(definitionID)
	if !ok {
		return fmt.Errorf("%w: unknown definition %s", ai.ErrInvalidAction, definitionID)
	}
	if !s.hasSystem(location) {
		return fmt.Errorf("%w: unknown system %s", ai.ErrInvalidAction, location)
	}
	if def.Cost > f.FacCreds {
		return fmt.Errorf("buy %s: need %d creds, have %d", definitionID, def.Cost, f.FacCreds)
	}
	f.FacCreds -= def.Cost
	f.Assets = append(f.Assets, sector.Asset{
		ID:           s.newID(),
		DefinitionID: def.ID,
		HP:           def.HP,
		MaxHP:        def.HP,
		Location:     location,
		Stealthed:    def.Stealth,
	})
	return nil
}

// InflictDamage damages an asset and removes it once destroyed.
func (s *SectorState) InflictDamage(_ context.Context, factionID, assetID string, damage int, sourceFactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, a, err := s.asset(factionID, assetID)
	if err != nil {
		return err
	}
	if damage <= 0 {
		return nil
	}
	a.HP -= damage
	if a.HP > 0 {
		return nil
	}

	kept := f.Assets[:0]
	for _, x := range f.Assets {
		if x.ID != assetID {
			kept = append(kept, x)
		}
	}
	f.Assets = kept
	log.Debug().Str("factionId", factionID).Str("assetId", assetID).Str("source", sourceFactionID).Msg("Asset destroyed")
	return nil
}

// SetGoal replaces a faction's goal.
func (s *SectorState) SetGoal(_ context.Context, factionID string, goal sector.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.faction(factionID)
	if err != nil {
		return err
	}
	f.Goal = &goal
	return nil
}

// AdvanceTurn moves the sector to the next turn and pays each surviving
// faction its income.
func (s *SectorState) AdvanceTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Turn++
	for i := range s.snap.Factions {
		f := &s.snap.Factions[i]
		if !f.Eliminated {
			f.FacCreds += f.Income()
		}
	}
	return s.snap.Turn
}

var (
	_ ai.Dispatcher = (*SectorState)(nil)
	_ ai.GameState  = (*SectorState)(nil)
)
