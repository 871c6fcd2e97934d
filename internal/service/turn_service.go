package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/freeeve/faction-ai/internal/ai"
	"github.com/freeeve/faction-ai/internal/logger"
	"github.com/freeeve/faction-ai/internal/metrics"
	"github.com/freeeve/faction-ai/internal/model"
	"github.com/freeeve/faction-ai/internal/repository"
	"github.com/freeeve/faction-ai/pkg/sector"
)

var (
	ErrSectorNotFound = errors.New("sector not found")
	ErrStateMissing   = errors.New("sector state missing from cache")
	ErrPlanNotFound   = errors.New("plan not found")
	ErrBatchRunning   = errors.New("an AI batch is already running for this sector")
)

// Plan confidence feedback applied after each faction's turn.
const (
	confidencePerSuccess = 2.0
	confidencePerFailure = -10.0
)

// Settings tunes the controllers a TurnService builds. A zero Replan uses
// ai.DefaultReplanPolicy.
type Settings struct {
	Controller ai.ControllerConfig
	Replan     ai.ReplanPolicy
	// Options are appended to every controller, after the service's own.
	Options []ai.Option
}

// TurnService runs AI turn batches against persisted sectors.
type TurnService struct {
	sectors     repository.SectorRepository
	turns       repository.TurnRepository
	cache       repository.SectorCache
	broadcaster Broadcaster
	catalog     sector.Catalog
	settings    Settings

	// sectorLocks serializes batches and turn advances per sector.
	sectorLocks sync.Map
}

// NewTurnService creates a TurnService.
func NewTurnService(
	sectors repository.SectorRepository,
	turns repository.TurnRepository,
	cache repository.SectorCache,
	broadcaster Broadcaster,
	catalog sector.Catalog,
	settings Settings,
) *TurnService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	if catalog == nil {
		catalog = sector.DefaultCatalog()
	}
	if settings.Replan == (ai.ReplanPolicy{}) {
		settings.Replan = ai.DefaultReplanPolicy()
	}
	return &TurnService{
		sectors:     sectors,
		turns:       turns,
		cache:       cache,
		broadcaster: broadcaster,
		catalog:     catalog,
		settings:    settings,
	}
}

func (s *TurnService) sectorLock(sectorID string) *sync.Mutex {
	v, _ := s.sectorLocks.LoadOrStore(sectorID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// SectorView is a sector row together with its live state.
type SectorView struct {
	Sector model.Sector    `json:"sector"`
	State  sector.Snapshot `json:"state"`
}

// TurnReport is the outcome of one AI batch.
type TurnReport struct {
	TurnID  string          `json:"turn_id"`
	Summary ai.BatchSummary `json:"summary"`
}

// CreateSector validates a starting snapshot, persists the sector and seeds
// the cache with its state.
func (s *TurnService) CreateSector(ctx context.Context, name, difficulty string, snap sector.Snapshot) (*model.Sector, error) {
	if err := snap.Validate(s.catalog); err != nil {
		return nil, err
	}
	d := ai.ParseDifficulty(difficulty)
	sec, err := s.sectors.Create(ctx, name, snap.PlayerFactionID, string(d), snap.Turn)
	if err != nil {
		return nil, fmt.Errorf("create sector: %w", err)
	}
	snap.SectorID = sec.ID
	if err := s.saveState(ctx, &snap); err != nil {
		return nil, err
	}

	l := logger.FromContext(logger.WithSector(ctx, sec.ID))
	l.Info().Str("difficulty", string(d)).Int("factions", len(snap.Factions)).Msg("Sector created")
	s.broadcaster.BroadcastSectorEvent(sec.ID, EventSectorCreated, sec)
	return sec, nil
}

// ListSectors returns the most recently updated sectors.
func (s *TurnService) ListSectors(ctx context.Context) ([]model.Sector, error) {
	return s.sectors.List(ctx)
}

// GetSector returns a sector and its live state.
func (s *TurnService) GetSector(ctx context.Context, sectorID string) (*SectorView, error) {
	sec, snap, err := s.load(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	return &SectorView{Sector: *sec, State: *snap}, nil
}

func (s *TurnService) load(ctx context.Context, sectorID string) (*model.Sector, *sector.Snapshot, error) {
	sec, err := s.sectors.FindByID(ctx, sectorID)
	if err != nil {
		return nil, nil, fmt.Errorf("find sector: %w", err)
	}
	if sec == nil {
		return nil, nil, ErrSectorNotFound
	}
	raw, err := s.cache.GetSectorState(ctx, sectorID)
	if err != nil {
		return nil, nil, fmt.Errorf("get sector state: %w", err)
	}
	if raw == nil {
		return nil, nil, ErrStateMissing
	}
	var snap sector.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, nil, fmt.Errorf("unmarshal sector state: %w", err)
	}
	snap.SectorID = sec.ID
	return sec, &snap, nil
}

func (s *TurnService) saveState(ctx context.Context, snap *sector.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal sector state: %w", err)
	}
	if err := s.cache.SetSectorState(ctx, snap.SectorID, raw); err != nil {
		return fmt.Errorf("set sector state: %w", err)
	}
	return nil
}

// StartAITurns begins a batch in the background and returns once it has
// been accepted. The batch outlives ctx's cancellation.
func (s *TurnService) StartAITurns(ctx context.Context, sectorID string) error {
	sec, err := s.sectors.FindByID(ctx, sectorID)
	if err != nil {
		return fmt.Errorf("find sector: %w", err)
	}
	if sec == nil {
		return ErrSectorNotFound
	}
	mu := s.sectorLock(sectorID)
	if !mu.TryLock() {
		return ErrBatchRunning
	}
	go func() {
		defer mu.Unlock()
		bctx := logger.WithSector(context.WithoutCancel(ctx), sectorID)
		if _, err := s.runLocked(bctx, sectorID); err != nil {
			l := logger.FromContext(bctx)
			l.Error().Err(err).Msg("Background AI batch failed")
		}
	}()
	return nil
}

// RunAITurns runs every AI faction's turn for the sector and records the
// outcome. It fails fast with ErrBatchRunning if a batch is in progress.
func (s *TurnService) RunAITurns(ctx context.Context, sectorID string) (*TurnReport, error) {
	mu := s.sectorLock(sectorID)
	if !mu.TryLock() {
		return nil, ErrBatchRunning
	}
	defer mu.Unlock()
	return s.runLocked(ctx, sectorID)
}

func (s *TurnService) runLocked(ctx context.Context, sectorID string) (*TurnReport, error) {
	ctx = logger.WithSector(ctx, sectorID)
	start := time.Now()
	defer func() { metrics.BatchDuration.Observe(time.Since(start).Seconds()) }()

	sec, snap, err := s.load(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	turn, err := s.turns.CreateTurn(ctx, sectorID, snap.Turn)
	if err != nil {
		return nil, fmt.Errorf("create turn: %w", err)
	}

	state := NewSectorState(*snap, s.catalog)
	plans := cachePlanStore{cache: s.cache, sectorID: sectorID}
	ctrl := s.controller(sec, state, plans)

	summary, batchErr := ctrl.RunBatch(ctx, state)

	// Effects already applied are kept even when the batch was cut short.
	ctx = context.WithoutCancel(ctx)
	final, _ := state.Snapshot(ctx)
	if err := s.saveState(ctx, &final); err != nil {
		return nil, err
	}
	s.feedback(ctx, plans, summary.Results)

	records := make([]model.FactionTurn, 0, len(summary.Results))
	for _, r := range summary.Results {
		records = append(records, model.FactionTurn{
			TurnID:           turn.ID,
			FactionID:        r.FactionID,
			Goal:             string(r.Goal),
			GoalChanged:      r.GoalChanged,
			Replanned:        r.Replanned,
			Economy:          string(r.Economy),
			ActionType:       string(r.ActionType),
			ActionsCompleted: r.ActionsCompleted,
			ActionsFailed:    r.ActionsFailed,
			Error:            r.Error,
		})
	}
	if err := s.turns.SaveFactionTurns(ctx, records); err != nil {
		return nil, fmt.Errorf("save faction turns: %w", err)
	}
	if err := s.turns.ResolveTurn(ctx, turn.ID, len(summary.Failed)); err != nil {
		return nil, fmt.Errorf("resolve turn: %w", err)
	}

	report := &TurnReport{TurnID: turn.ID, Summary: summary}
	if batchErr != nil {
		return report, fmt.Errorf("run batch: %w", batchErr)
	}
	l := logger.ForTurn(ctx, snap.Turn)
	l.Info().Int("factions", len(summary.Results)).Int("failed", len(summary.Failed)).
		Dur("took", time.Since(start)).Msg("AI turns recorded")
	return report, nil
}

// controller builds a fresh controller per batch; controllers are not safe
// for concurrent use.
func (s *TurnService) controller(sec *model.Sector, state *SectorState, plans ai.PlanStore) *ai.Controller {
	cfg := s.settings.Controller
	if sec.Difficulty != "" {
		cfg.Difficulty = ai.ParseDifficulty(sec.Difficulty)
	}
	relay := statusRelay{broadcaster: s.broadcaster, sectorID: sec.ID}
	opts := []ai.Option{
		ai.WithRand(rand.New(rand.NewSource(time.Now().UnixNano()))),
		ai.WithObserver(relay),
		ai.WithBatchObserver(relay),
		ai.WithReplanner(s.settings.Replan),
	}
	opts = append(opts, s.settings.Options...)
	return ai.NewController(cfg, s.catalog, state, plans, opts...)
}

// feedback nudges each faction's plan confidence by how its actions went.
func (s *TurnService) feedback(ctx context.Context, plans cachePlanStore, results []ai.FactionTurn) {
	for _, r := range results {
		if r.Error != "" || r.ActionsCompleted == 0 {
			continue
		}
		plan, err := plans.GetPlan(ctx, r.FactionID)
		if err != nil || plan == nil {
			continue
		}
		ok := r.ActionsCompleted - r.ActionsFailed
		ai.AdjustPlanConfidence(plan, confidencePerSuccess*float64(ok)+confidencePerFailure*float64(r.ActionsFailed))
		if err := plans.SetPlan(ctx, plan); err != nil {
			l := logger.ForFaction(logger.FromContext(ctx), r.FactionID)
			l.Warn().Err(err).Msg("Failed to store plan confidence feedback")
		}
	}
}

// AdvanceTurn moves the sector one game turn forward: income is paid and
// every stored plan is advanced exactly once.
func (s *TurnService) AdvanceTurn(ctx context.Context, sectorID string) (int, error) {
	mu := s.sectorLock(sectorID)
	if !mu.TryLock() {
		return 0, ErrBatchRunning
	}
	defer mu.Unlock()

	_, snap, err := s.load(ctx, sectorID)
	if err != nil {
		return 0, err
	}
	state := NewSectorState(*snap, s.catalog)
	turn := state.AdvanceTurn()

	store := cachePlanStore{cache: s.cache, sectorID: sectorID}
	plans, err := store.all(ctx)
	if err != nil {
		return 0, fmt.Errorf("list plans: %w", err)
	}
	ai.AdvancePlans(plans)
	for _, p := range plans {
		if err := store.SetPlan(ctx, p); err != nil {
			return 0, fmt.Errorf("store advanced plan: %w", err)
		}
	}

	next, _ := state.Snapshot(ctx)
	if err := s.saveState(ctx, &next); err != nil {
		return 0, err
	}
	if err := s.sectors.SetTurn(ctx, sectorID, turn); err != nil {
		return 0, fmt.Errorf("set sector turn: %w", err)
	}

	l := logger.ForTurn(logger.WithSector(ctx, sectorID), turn)
	l.Info().Int("plans", len(plans)).Msg("Sector turn advanced")
	s.broadcaster.BroadcastSectorEvent(sectorID, EventTurnAdvanced, map[string]int{"turn": turn})
	return turn, nil
}

// GetPlan returns a faction's current strategic plan.
func (s *TurnService) GetPlan(ctx context.Context, sectorID, factionID string) (*ai.AIStrategicPlan, error) {
	plan, err := cachePlanStore{cache: s.cache, sectorID: sectorID}.GetPlan(ctx, factionID)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

// ListTurns returns the sector's AI batch history, newest first.
func (s *TurnService) ListTurns(ctx context.Context, sectorID string) ([]model.Turn, error) {
	return s.turns.ListTurns(ctx, sectorID)
}

// FactionTurns returns the per-faction outcomes of one batch.
func (s *TurnService) FactionTurns(ctx context.Context, turnID string) ([]model.FactionTurn, error) {
	return s.turns.FactionTurns(ctx, turnID)
}
