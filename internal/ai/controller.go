package ai

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/faction-ai/internal/metrics"
	"github.com/freeeve/faction-ai/pkg/sector"
)

// ControllerConfig tunes turn execution.
type ControllerConfig struct {
	BaseActionDelay   time.Duration
	DelayVariance     time.Duration
	MaxActionsPerTurn int
	EnableLogging     bool
	Difficulty        Difficulty
}

// DefaultControllerConfig returns the stock pacing: 800ms ± 300ms per action,
// at most three scored actions a turn, logging on, normal difficulty.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		BaseActionDelay:   800 * time.Millisecond,
		DelayVariance:     300 * time.Millisecond,
		MaxActionsPerTurn: 3,
		EnableLogging:     true,
		Difficulty:        DifficultyNormal,
	}
}

// Sleeper waits d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithRand sets the source for decision noise. Dice and action delays get
// their own sources seeded from r.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rand = r }
}

// WithSleeper replaces the delay between queued actions.
func WithSleeper(s Sleeper) Option {
	return func(c *Controller) { c.sleep = s }
}

// WithObserver receives per-phase and per-action status updates.
func WithObserver(o StatusObserver) Option {
	return func(c *Controller) { c.observer = o }
}

// WithBatchObserver receives batch start and finish events.
func WithBatchObserver(o BatchObserver) Option {
	return func(c *Controller) { c.batch = o }
}

// WithOdds replaces the default combat odds.
func WithOdds(o CombatOdds) Option {
	return func(c *Controller) { c.odds = o }
}

// WithReplanner replaces the default replanning policy.
func WithReplanner(r Replanner) Option {
	return func(c *Controller) { c.replanner = r }
}

// Controller runs AI faction turns. It is not safe for concurrent use; run
// one batch at a time per Controller.
type Controller struct {
	cfg        ControllerConfig
	catalog    sector.Catalog
	odds       CombatOdds
	dispatcher Dispatcher
	plans      PlanStore
	observer   StatusObserver
	batch      BatchObserver
	replanner  Replanner
	rand       *rand.Rand
	dice       *rand.Rand
	delays     *rand.Rand
	sleep      Sleeper

	influence InfluenceMapService
	threats   ThreatAssessment
	goals     GoalSelectionService
	economy   AIEconomyManager
	scorer    UtilityScorer
	scaler    DifficultyScaler
	planner   AIStrategicPlanner
}

// NewController wires the pipeline components around the host boundaries.
func NewController(cfg ControllerConfig, catalog sector.Catalog, dispatcher Dispatcher, plans PlanStore, opts ...Option) *Controller {
	def := DefaultControllerConfig()
	if cfg.MaxActionsPerTurn <= 0 {
		cfg.MaxActionsPerTurn = def.MaxActionsPerTurn
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = def.Difficulty
	}
	c := &Controller{
		cfg:        cfg,
		catalog:    catalog,
		odds:       sector.Odds{},
		dispatcher: dispatcher,
		plans:      plans,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rand == nil {
		c.rand = newRand(0)
	}
	c.dice = newRand(c.rand.Int63())
	c.delays = newRand(c.rand.Int63())

	c.threats = ThreatAssessment{Catalog: catalog, Odds: c.odds}
	c.economy = AIEconomyManager{Catalog: catalog, Odds: c.odds}
	c.scorer = UtilityScorer{Catalog: catalog, Odds: c.odds, Influence: c.influence, Threats: c.threats}
	c.scaler = DifficultyScaler{Catalog: catalog, Odds: c.odds, Rand: c.rand}
	c.planner = AIStrategicPlanner{Catalog: catalog, Odds: c.odds, Influence: c.influence, Economy: c.economy, Policy: c.replanner}
	return c
}

// Config returns the controller's configuration.
func (c *Controller) Config() ControllerConfig { return c.cfg }

func (c *Controller) info() *zerolog.Event {
	if !c.cfg.EnableLogging {
		return nil
	}
	return log.Info()
}

func (c *Controller) debug() *zerolog.Event {
	if !c.cfg.EnableLogging {
		return nil
	}
	return log.Debug()
}

func (c *Controller) emit(s AITurnStatus) {
	if c.observer != nil {
		c.observer.OnStatus(s)
	}
}

// TurnPlanResult is everything decided for one faction's turn, including the
// action queue ExecuteTurn will drain.
type TurnPlanResult struct {
	FactionID       string                   `json:"faction_id"`
	FactionName     string                   `json:"faction_name"`
	Turn            int                      `json:"turn"`
	Difficulty      Difficulty               `json:"difficulty"`
	Influence       *InfluenceMap            `json:"influence"`
	Threat          *SectorThreatOverview    `json:"threat"`
	Goals           GoalEvaluation           `json:"goals"`
	GoalChanged     bool                     `json:"goal_changed"`
	NewGoal         *sector.Goal             `json:"new_goal,omitempty"`
	Plan            *AIStrategicPlan         `json:"plan"`
	PlanEvaluation  *PlanEvaluation          `json:"plan_evaluation,omitempty"`
	Replanned       bool                     `json:"replanned"`
	Economic        EconomicPlan             `json:"economic"`
	EconomyDecision EconomyDecision          `json:"economy_decision"`
	Scoring         DifficultyAdjustedResult `json:"scoring"`
	ActionType      ActionType               `json:"action_type,omitempty"`
	ActionQueue     []QueuedAction           `json:"action_queue"`

	snapshot *sector.Snapshot
}

// ExecutionResult summarizes a drained action queue.
type ExecutionResult struct {
	ActionsCompleted int      `json:"actions_completed"`
	ActionsFailed    int      `json:"actions_failed"`
	Outcomes         []string `json:"outcomes"`
}

// PlanTurn runs every decision phase for one faction and builds its action
// queue. The only mutations it requests are the goal commit and the plan
// store write.
func (c *Controller) PlanTurn(ctx context.Context, snap *sector.Snapshot, factionID string) (*TurnPlanResult, error) {
	phase := PhaseIdle
	return c.planTurn(ctx, snap, factionID, &phase)
}

func (c *Controller) planTurn(ctx context.Context, snap *sector.Snapshot, factionID string, phase *Phase) (*TurnPlanResult, error) {
	f := snap.Faction(factionID)
	if f == nil {
		return nil, &PhaseError{Phase: PhaseAnalysis, FactionID: factionID, Err: ErrNoFaction}
	}
	res := &TurnPlanResult{
		FactionID:   f.ID,
		FactionName: f.Name,
		Turn:        snap.Turn,
		Difficulty:  c.cfg.Difficulty,
		snapshot:    snap,
	}
	enter := func(p Phase) time.Time {
		*phase = p
		c.emit(AITurnStatus{FactionID: f.ID, FactionName: f.Name, Phase: p})
		return time.Now()
	}
	done := func(p Phase, start time.Time) {
		metrics.PhaseDuration.WithLabelValues(string(p)).Observe(time.Since(start).Seconds())
	}
	fail := func(err error) error {
		return &PhaseError{Phase: *phase, FactionID: f.ID, Err: err}
	}

	// analysis
	start := enter(PhaseAnalysis)
	if len(snap.Systems) == 0 {
		res.Influence = EmptyInfluenceMap(f.ID)
		res.Threat = EmptyThreatOverview(f.ID)
	} else {
		res.Influence = c.influence.Build(f.ID, snap.Factions, snap.Systems)
		res.Threat = c.threats.Assess(f.ID, snap.Factions, snap.Systems)
	}
	done(PhaseAnalysis, start)
	c.debug().Str("factionId", f.ID).Float64("threat", res.Threat.OverallLevel).
		Str("posture", string(res.Threat.Posture)).Int("contested", len(res.Influence.Contested)).Msg("Analysis complete")

	// goal
	start = enter(PhaseGoal)
	res.Goals = c.goals.EvaluateGoals(f, snap.Factions, snap.Systems, res.Threat, res.Influence)
	if res.Goals.Recommended != nil && c.goals.ShouldChangeGoal(f, res.Goals) {
		g := c.goals.CreateGoalInstance(res.Goals.Recommended.Type, f, snap.Turn, res.Goals.Intent.TargetFactionID)
		if err := c.dispatcher.SetGoal(ctx, f.ID, g); err != nil {
			return nil, fail(fmt.Errorf("set goal: %w", err))
		}
		res.GoalChanged = true
		res.NewGoal = &g
		c.info().Str("factionId", f.ID).Str("goal", string(g.Type)).Msg("Faction goal changed")
	}
	done(PhaseGoal, start)

	// planning
	start = enter(PhasePlanning)
	existing, err := c.plans.GetPlan(ctx, f.ID)
	if err != nil {
		return nil, fail(fmt.Errorf("get plan: %w", err))
	}
	pc, err := BuildPlanningContext(snap, f.ID, c.cfg.Difficulty, res.Influence, res.Threat, res.Goals.Intent)
	if err != nil {
		return nil, fail(err)
	}
	replan := true
	if existing != nil {
		ev := c.planner.EvaluatePlan(existing, pc)
		res.PlanEvaluation = &ev
		replan = c.planner.ShouldReplan(existing, snap.Turn, ev)
	}
	if replan {
		res.Plan = c.planner.GenerateStrategicPlan(pc)
		res.Replanned = true
		metrics.Replans.WithLabelValues("generated").Inc()
	} else {
		existing.LastUpdatedTurn = snap.Turn
		res.Plan = existing
		metrics.Replans.WithLabelValues("carried").Inc()
	}
	if err := c.plans.SetPlan(ctx, res.Plan); err != nil {
		return nil, fail(fmt.Errorf("set plan: %w", err))
	}
	done(PhasePlanning, start)
	c.debug().Str("factionId", f.ID).Bool("replanned", res.Replanned).
		Float64("confidence", res.Plan.OverallConfidence).Msg(res.Plan.Summary)

	// economy
	start = enter(PhaseEconomy)
	res.Economic = c.economy.GenerateEconomicPlan(f, snap.Systems, res.Threat, res.Goals.Intent)
	res.EconomyDecision = c.economy.GetEconomyAction(res.Economic)
	done(PhaseEconomy, start)

	// scoring
	start = enter(PhaseScoring)
	base := c.scorer.ScoreAllActions(ScoringContext{
		Faction:   f,
		Factions:  snap.Factions,
		Systems:   snap.Systems,
		Influence: res.Influence,
		Threat:    res.Threat,
		Intent:    res.Goals.Intent,
	})
	res.Scoring = c.scaler.ApplyDifficultyScaling(base, f, snap.Factions, c.cfg.Difficulty)
	for _, ev := range res.Scoring.Evaluations {
		metrics.MinimaxVerdicts.WithLabelValues(string(c.cfg.Difficulty), string(ev.Recommendation)).Inc()
		if ev.Invalid {
			log.Warn().Str("factionId", f.ID).Str("actionId", ev.ActionID).Str("reason", ev.Reason).Msg("Invalid attack candidate")
		}
	}
	done(PhaseScoring, start)

	res.ActionType, res.ActionQueue = c.buildQueue(f, res)
	c.info().Str("factionId", f.ID).Str("economy", string(res.EconomyDecision)).
		Str("actionType", string(res.ActionType)).Int("queued", len(res.ActionQueue)).Msg("Turn planned")
	return res, nil
}

// buildQueue enqueues the economic action first, then up to
// MaxActionsPerTurn of the best actions of the single recommended type, one
// per asset.
func (c *Controller) buildQueue(f *sector.Faction, res *TurnPlanResult) (ActionType, []QueuedAction) {
	var q []QueuedAction
	switch res.EconomyDecision {
	case EconomyRepair:
		for _, r := range res.Economic.Repairs {
			q = append(q, QueuedAction{
				ID:          uuid.NewString(),
				Type:        PlannedRepair,
				Description: fmt.Sprintf("%s repairs %s (+%d hp, %d creds)", f.Name, r.AssetID, r.DamageHealed, r.Cost),
				Effect:      RepairEffect{FactionID: f.ID, AssetID: r.AssetID, HPHealed: r.DamageHealed, Cost: r.Cost},
				Delay:       actionDelay(c.cfg, c.delays),
			})
		}
	case EconomyPurchase:
		p := res.Economic.Purchase
		q = append(q, QueuedAction{
			ID:          uuid.NewString(),
			Type:        PlannedPurchase,
			Description: fmt.Sprintf("%s buys %s at %s (%d creds)", f.Name, p.Name, p.Location, p.Cost),
			Effect:      PurchaseEffect{FactionID: f.ID, DefinitionID: p.DefinitionID, Location: p.Location},
			Delay:       actionDelay(c.cfg, c.delays),
		})
	}

	at, ok := c.scorer.GetRecommendedActionType(res.Scoring.AdjustedActions)
	if !ok {
		return "", q
	}
	used := make(map[string]bool)
	n := 0
	for _, sa := range res.Scoring.AdjustedActions {
		if n >= c.cfg.MaxActionsPerTurn {
			break
		}
		a := sa.Action
		if sa.Invalid || a.Type != at || used[a.AssetID] {
			continue
		}
		used[a.AssetID] = true
		n++
		qa := QueuedAction{ID: uuid.NewString(), Type: PlannedActionType(a.Type), Delay: actionDelay(c.cfg, c.delays)}
		switch a.Type {
		case ActionMove:
			qa.Description = fmt.Sprintf("%s moves %s to %s", f.Name, a.AssetID, a.TargetSystemID)
			qa.Effect = MoveEffect{FactionID: f.ID, AssetID: a.AssetID, To: a.TargetSystemID}
		case ActionAttack:
			qa.Description = fmt.Sprintf("%s attacks %s with %s", f.Name, a.TargetAssetID, a.AssetID)
			qa.Effect = AttackEffect{FactionID: f.ID, AssetID: a.AssetID, TargetFactionID: a.TargetFactionID, TargetAssetID: a.TargetAssetID}
		case ActionExpand:
			qa.Description = fmt.Sprintf("%s expands into %s with %s", f.Name, a.TargetSystemID, a.AssetID)
			qa.Effect = ExpandEffect{FactionID: f.ID, AssetID: a.AssetID, From: a.FromSystemID, To: a.TargetSystemID}
		case ActionDefend:
			qa.Description = fmt.Sprintf("%s holds %s with %s", f.Name, a.TargetSystemID, a.AssetID)
			qa.Effect = DefendEffect{FactionID: f.ID, AssetID: a.AssetID, SystemID: a.TargetSystemID}
			qa.Delay /= 2
		}
		q = append(q, qa)
	}
	return at, q
}

// ExecuteTurn drains the plan's action queue in order. A failing effect is
// logged and skipped; cancellation is checked between actions.
func (c *Controller) ExecuteTurn(ctx context.Context, res *TurnPlanResult) (ExecutionResult, error) {
	var out ExecutionResult
	if res == nil {
		return out, nil
	}
	runner := newEffectRunner(c.dispatcher, c.catalog, c.dice, res.snapshot)
	start := time.Now()
	defer func() {
		metrics.PhaseDuration.WithLabelValues(string(PhaseExecution)).Observe(time.Since(start).Seconds())
	}()

	total := len(res.ActionQueue)
	for i, qa := range res.ActionQueue {
		if err := ctx.Err(); err != nil {
			return out, &PhaseError{Phase: PhaseExecution, FactionID: res.FactionID, Err: err}
		}
		desc := qa.Description
		c.emit(AITurnStatus{
			FactionID:        res.FactionID,
			FactionName:      res.FactionName,
			Phase:            PhaseExecution,
			Progress:         float64(i+1) / float64(total) * 100,
			CurrentAction:    &desc,
			ActionsCompleted: i,
			TotalActions:     total,
		})
		if err := c.sleep(ctx, qa.Delay); err != nil {
			return out, &PhaseError{Phase: PhaseExecution, FactionID: res.FactionID, Err: err}
		}

		outcome, err := runner.applyEffect(ctx, qa.Effect)
		out.ActionsCompleted++
		if err != nil {
			out.ActionsFailed++
			metrics.ActionsTotal.WithLabelValues(string(qa.Type), "error").Inc()
			log.Error().Err(err).Str("factionId", res.FactionID).Str("actionType", string(qa.Type)).
				Str("action", qa.Description).Msg("Queued action failed")
			continue
		}
		metrics.ActionsTotal.WithLabelValues(string(qa.Type), "ok").Inc()
		out.Outcomes = append(out.Outcomes, outcome)
		c.debug().Str("factionId", res.FactionID).Str("actionType", string(qa.Type)).Msg(outcome)
	}

	c.emit(AITurnStatus{
		FactionID:        res.FactionID,
		FactionName:      res.FactionName,
		Phase:            PhaseComplete,
		Progress:         100,
		ActionsCompleted: out.ActionsCompleted,
		TotalActions:     total,
		Complete:         true,
	})
	return out, nil
}

// RunTurn plans and executes one faction's turn. Panics are recovered and
// reported as a PhaseError for the phase that was running.
func (c *Controller) RunTurn(ctx context.Context, snap *sector.Snapshot, factionID string) (ft FactionTurn, err error) {
	ft.FactionID = factionID
	phase := PhaseIdle
	defer func() {
		if r := recover(); r != nil {
			err = &PhaseError{Phase: phase, FactionID: factionID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	res, err := c.planTurn(ctx, snap, factionID, &phase)
	if err != nil {
		return ft, err
	}
	ft.GoalChanged = res.GoalChanged
	ft.Goal = res.Goals.Intent.GoalType
	ft.Replanned = res.Replanned
	ft.Economy = res.EconomyDecision
	ft.ActionType = res.ActionType

	phase = PhaseExecution
	exec, err := c.ExecuteTurn(ctx, res)
	ft.ActionsCompleted = exec.ActionsCompleted
	ft.ActionsFailed = exec.ActionsFailed
	return ft, err
}

// RunBatch runs every AI faction's turn one after another, re-reading state
// between factions so effects compound. A failed faction is marked and the
// batch moves on.
func (c *Controller) RunBatch(ctx context.Context, state GameState) (BatchSummary, error) {
	snap, err := state.Snapshot(ctx)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("snapshot: %w", err)
	}
	ids := snap.AIFactions()
	summary := BatchSummary{SectorID: snap.SectorID, Turn: snap.Turn, Failed: map[string]string{}}

	metrics.BatchesInFlight.Inc()
	defer metrics.BatchesInFlight.Dec()
	if c.batch != nil {
		c.batch.OnBatchStart(snap.SectorID, snap.Turn, ids)
	}
	c.info().Str("sectorId", snap.SectorID).Int("turn", snap.Turn).Int("factions", len(ids)).Msg("Starting AI turn batch")

	var batchErr error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			batchErr = err
			break
		}
		ft, err := c.runIsolated(ctx, state, id)
		if err != nil {
			ft.Error = err.Error()
			summary.Failed[id] = err.Error()
			metrics.TurnsTotal.WithLabelValues("failed").Inc()
			log.Error().Err(err).Str("sectorId", snap.SectorID).Str("factionId", id).Msg("AI faction turn failed")
			if merr := state.MarkTurnFailed(ctx, id, err); merr != nil {
				log.Error().Err(merr).Str("factionId", id).Msg("Failed to mark faction turn failed")
			}
			c.emit(AITurnStatus{FactionID: id, Phase: PhaseFailed, Complete: true, Error: err.Error()})
		} else {
			metrics.TurnsTotal.WithLabelValues("ok").Inc()
		}
		summary.Results = append(summary.Results, ft)
	}

	if c.batch != nil {
		c.batch.OnBatchFinish(summary)
	}
	c.info().Str("sectorId", snap.SectorID).Int("turn", snap.Turn).Int("failed", len(summary.Failed)).Msg("AI turn batch finished")
	return summary, batchErr
}

func (c *Controller) runIsolated(ctx context.Context, state GameState, factionID string) (FactionTurn, error) {
	snap, err := state.Snapshot(ctx)
	if err != nil {
		return FactionTurn{FactionID: factionID}, &PhaseError{Phase: PhaseAnalysis, FactionID: factionID, Err: err}
	}
	return c.RunTurn(ctx, &snap, factionID)
}
