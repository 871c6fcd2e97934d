package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/freeeve/faction-ai/pkg/sector"
)

func testCatalog() sector.MapCatalog {
	return sector.NewMapCatalog(
		sector.AssetDefinition{
			ID: "militia", Name: "Militia Unit", Category: sector.Force, Rating: 1, Cost: 3, HP: 4,
			Attack:        &sector.AttackPattern{Attacker: sector.Force, Defender: sector.Force, Damage: "1d6"},
			Counterattack: "1d4",
		},
		sector.AssetDefinition{
			ID: "strike_fleet", Name: "Strike Fleet", Category: sector.Force, Rating: 6, Cost: 12, HP: 8,
			Attack:        &sector.AttackPattern{Attacker: sector.Force, Defender: sector.Force, Damage: "2d6"},
			Counterattack: "1d6",
		},
		sector.AssetDefinition{
			ID: "informers", Name: "Informers", Category: sector.Cunning, Rating: 1, Cost: 2, HP: 3, Stealth: true,
		},
		sector.AssetDefinition{
			ID: "bank", Name: "Bank", Category: sector.Wealth, Rating: 1, Cost: 4, HP: 5,
		},
	)
}

// lineSystems lays systems s1..sN along one hex row, each adjacent to the next.
func lineSystems(n int) []sector.System {
	out := make([]sector.System, n)
	for i := range out {
		out[i] = sector.System{
			ID:        fmt.Sprintf("s%d", i+1),
			Name:      fmt.Sprintf("System %d", i+1),
			Hex:       sector.Hex{Q: i, R: 0},
			Resources: 3,
		}
	}
	return out
}

func asset(id, def, loc string, hp, maxHP int) sector.Asset {
	return sector.Asset{ID: id, DefinitionID: def, Location: loc, HP: hp, MaxHP: maxHP}
}

// stubOdds returns fixed win probabilities and parses damage normally.
type stubOdds struct {
	win float64
}

func (s stubOdds) WinProbability(sector.Attribute, int, sector.Attribute, int) float64 { return s.win }
func (stubOdds) ExpectedDamage(expr string) float64 { return sector.Odds{}.ExpectedDamage(expr) }

// recordingDispatcher records every mutation and can fail selected ones.
type recordingDispatcher struct {
	mu     sync.Mutex
	calls  []string
	failOn map[string]error
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{failOn: make(map[string]error)}
}

func (d *recordingDispatcher) record(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, key)
	return d.failOn[key]
}

func (d *recordingDispatcher) MoveAsset(_ context.Context, factionID, assetID, to string) error {
	return d.record(fmt.Sprintf("move:%s:%s", assetID, to))
}

func (d *recordingDispatcher) RepairAsset(_ context.Context, factionID, assetID string, hpHealed, cost int) error {
	return d.record(fmt.Sprintf("repair:%s", assetID))
}

func (d *recordingDispatcher) AddAsset(_ context.Context, factionID, definitionID, location string) error {
	return d.record(fmt.Sprintf("add:%s:%s", definitionID, location))
}

func (d *recordingDispatcher) InflictDamage(_ context.Context, factionID, assetID string, damage int, sourceFactionID string) error {
	return d.record(fmt.Sprintf("damage:%s", assetID))
}

func (d *recordingDispatcher) SetGoal(_ context.Context, factionID string, goal sector.Goal) error {
	return d.record(fmt.Sprintf("goal:%s", factionID))
}

// liveDispatcher applies damage to its own snapshot and reports it back,
// the way a host state does.
type liveDispatcher struct {
	*recordingDispatcher
	snap sector.Snapshot
}

func (d *liveDispatcher) InflictDamage(ctx context.Context, factionID, assetID string, damage int, sourceFactionID string) error {
	if err := d.recordingDispatcher.InflictDamage(ctx, factionID, assetID, damage, sourceFactionID); err != nil {
		return err
	}
	f := d.snap.Faction(factionID)
	if f == nil {
		return ErrInvalidAction
	}
	for i := range f.Assets {
		if f.Assets[i].ID == assetID {
			f.Assets[i].HP -= damage
			if f.Assets[i].HP <= 0 {
				f.Assets = append(f.Assets[:i], f.Assets[i+1:]...)
			}
			return nil
		}
	}
	return ErrInvalidAction
}

func (d *liveDispatcher) Snapshot(context.Context) (sector.Snapshot, error) {
	return d.snap.Clone(), nil
}

// fixedSource always yields zero, so every die lands on 1.
type fixedSource struct{}

func (fixedSource) Int63() int64 { return 0 }
func (fixedSource) Seed(int64) {}

// expectedCall maps a queued effect to the dispatcher call it should make,
// or "" for effects with no mutation.
func expectedCall(e Effect) string {
	switch e := e.(type) {
	case MoveEffect:
		return fmt.Sprintf("move:%s:%s", e.AssetID, e.To)
	case RepairEffect:
		return fmt.Sprintf("repair:%s", e.AssetID)
	case PurchaseEffect:
		return fmt.Sprintf("add:%s:%s", e.DefinitionID, e.Location)
	case ExpandEffect:
		if e.From == e.To {
			return ""
		}
		return fmt.Sprintf("move:%s:%s", e.AssetID, e.To)
	}
	return ""
}

// fakeState is a GameState over a fixed snapshot.
type fakeState struct {
	snap        sector.Snapshot
	snapshotErr error
	failed      map[string]error
}

func (s *fakeState) Snapshot(context.Context) (sector.Snapshot, error) {
	if s.snapshotErr != nil {
		return sector.Snapshot{}, s.snapshotErr
	}
	return s.snap.Clone(), nil
}

func (s *fakeState) MarkTurnFailed(_ context.Context, factionID string, err error) error {
	if s.failed == nil {
		s.failed = make(map[string]error)
	}
	s.failed[factionID] = err
	return nil
}

type failingPlanStore struct{}

func (failingPlanStore) GetPlan(context.Context, string) (*AIStrategicPlan, error) {
	return nil, errors.New("store offline")
}

func (failingPlanStore) SetPlan(context.Context, *AIStrategicPlan) error {
	return errors.New("store offline")
}

// recordingSleeper never sleeps but remembers the requested delays.
type recordingSleeper struct {
	delays []time.Duration
}

func (s *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func seeded() *rand.Rand {
	return rand.New(rand.NewSource(42))
}
