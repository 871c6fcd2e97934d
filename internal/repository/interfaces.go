package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/freeeve/faction-ai/internal/model"
)

// ErrNotFound is returned by mutations that target a missing row.
var ErrNotFound = errors.New("not found")

// SectorRepository defines sector data operations.
type SectorRepository interface {
	Create(ctx context.Context, name, playerFactionID, difficulty string, turn int) (*model.Sector, error)
	FindByID(ctx context.Context, id string) (*model.Sector, error)
	List(ctx context.Context) ([]model.Sector, error)
	SetTurn(ctx context.Context, id string, turn int) error
}

// TurnRepository records AI batch runs and their per-faction outcomes.
type TurnRepository interface {
	CreateTurn(ctx context.Context, sectorID string, turn int) (*model.Turn, error)
	ResolveTurn(ctx context.Context, turnID string, failed int) error
	SaveFactionTurns(ctx context.Context, turns []model.FactionTurn) error
	ListTurns(ctx context.Context, sectorID string) ([]model.Turn, error)
	FactionTurns(ctx context.Context, turnID string) ([]model.FactionTurn, error)
}

// SectorCache holds live sector state and per-faction strategic plans as
// JSON blobs. Getters return nil, nil when nothing is stored.
type SectorCache interface {
	SetSectorState(ctx context.Context, sectorID string, state json.RawMessage) error
	GetSectorState(ctx context.Context, sectorID string) (json.RawMessage, error)
	SetPlan(ctx context.Context, sectorID, factionID string, plan json.RawMessage) error
	GetPlan(ctx context.Context, sectorID, factionID string) (json.RawMessage, error)
	ListPlans(ctx context.Context, sectorID string) (map[string]json.RawMessage, error)
	DeleteSectorData(ctx context.Context, sectorID string) error
}
