package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/freeeve/faction-ai/pkg/sector"
)

var (
	// ErrInvalidAction marks an action whose attacker, target or definition
	// could not be resolved.
	ErrInvalidAction = errors.New("invalid action reference")
	// ErrNoFaction is returned when a turn is requested for an unknown faction.
	ErrNoFaction = errors.New("faction not found")
)

// CombatOdds is the low-level odds arithmetic. sector.Odds is the default.
type CombatOdds interface {
	WinProbability(attackerAttr sector.Attribute, attackerValue int, defenderAttr sector.Attribute, defenderValue int) float64
	ExpectedDamage(expr string) float64
}

// Dispatcher applies state mutations on behalf of the orchestrator. Return
// values are logged but never consulted for decisions.
type Dispatcher interface {
	MoveAsset(ctx context.Context, factionID, assetID, to string) error
	RepairAsset(ctx context.Context, factionID, assetID string, hpHealed, cost int) error
	AddAsset(ctx context.Context, factionID, definitionID, location string) error
	InflictDamage(ctx context.Context, factionID, assetID string, damage int, sourceFactionID string) error
	SetGoal(ctx context.Context, factionID string, goal sector.Goal) error
}

// PlanStore persists one strategic plan per faction. GetPlan returns nil, nil
// when the faction has no plan.
type PlanStore interface {
	GetPlan(ctx context.Context, factionID string) (*AIStrategicPlan, error)
	SetPlan(ctx context.Context, plan *AIStrategicPlan) error
}

// StateReader reports the current host state. A Dispatcher that also
// implements it lets attacks resolve against live state.
type StateReader interface {
	Snapshot(ctx context.Context) (sector.Snapshot, error)
}

// GameState is the host state the batch driver reads between faction turns
// and marks when a faction's turn fails.
type GameState interface {
	StateReader
	MarkTurnFailed(ctx context.Context, factionID string, err error) error
}

// PhaseError records which phase of a faction's turn failed.
type PhaseError struct {
	Phase     Phase
	FactionID string
	Err       error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase for faction %s: %v", e.Phase, e.FactionID, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }
