package ai

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/freeeve/faction-ai/pkg/sector"
)

// ObjectiveType is what a strategic objective aims at.
type ObjectiveType string

const (
	ObjectiveConquer       ObjectiveType = "conquer"
	ObjectiveExpand        ObjectiveType = "expand"
	ObjectiveEconomy       ObjectiveType = "economy"
	ObjectiveDefend        ObjectiveType = "defend"
	ObjectiveEspionage     ObjectiveType = "espionage"
	ObjectiveRepair        ObjectiveType = "repair"
	ObjectiveOpportunistic ObjectiveType = "opportunistic"
)

// Priority is a tier used for objectives, planned actions and contingencies.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// PlannedActionType extends ActionType with the economic action kinds.
type PlannedActionType string

const (
	PlannedMove     PlannedActionType = PlannedActionType(ActionMove)
	PlannedAttack   PlannedActionType = PlannedActionType(ActionAttack)
	PlannedDefend   PlannedActionType = PlannedActionType(ActionDefend)
	PlannedExpand   PlannedActionType = PlannedActionType(ActionExpand)
	PlannedPurchase PlannedActionType = "purchase"
	PlannedRepair   PlannedActionType = "repair"
	PlannedSave     PlannedActionType = "save"
)

// StrategicObjective is one thing the plan works toward.
type StrategicObjective struct {
	ID              string        `json:"id"`
	Type            ObjectiveType `json:"type"`
	Description     string        `json:"description"`
	TargetSystemID  string        `json:"target_system_id,omitempty"`
	TargetFactionID string        `json:"target_faction_id,omitempty"`
	Progress        float64       `json:"progress"`
	EstimatedTurns  int           `json:"estimated_turns"`
	Priority        Priority      `json:"priority"`
}

// PlannedAction is a scheduled step inside a TurnPlan.
type PlannedAction struct {
	ID              string            `json:"id"`
	Type            PlannedActionType `json:"type"`
	Description     string            `json:"description"`
	AssetID         string            `json:"asset_id,omitempty"`
	DefinitionID    string            `json:"definition_id,omitempty"`
	TargetSystemID  string            `json:"target_system_id,omitempty"`
	TargetFactionID string            `json:"target_faction_id,omitempty"`
	Priority        Priority          `json:"priority"`
	Confidence      float64           `json:"confidence"`
	ExpectedOutcome string            `json:"expected_outcome"`
	DependsOn       []string          `json:"depends_on,omitempty"`
	Cost            int               `json:"cost"`
}

// TurnPlan is the schedule for one turn. Turn is relative to now (0 = this turn).
type TurnPlan struct {
	Turn        int             `json:"turn"`
	Actions     []PlannedAction `json:"actions"`
	CredsBefore int             `json:"creds_before"`
	CredsAfter  int             `json:"creds_after"`
	Expenses    int             `json:"expenses"`
	Rationale   string          `json:"rationale"`
}

// PlanContingency is an alternative course taken when Condition holds.
// Condition is an expr-lang expression over ContingencyEnv.
type PlanContingency struct {
	ID           string          `json:"id"`
	Condition    string          `json:"condition"`
	Description  string          `json:"description"`
	Alternatives []PlannedAction `json:"alternatives,omitempty"`
	Priority     Priority        `json:"priority"`
}

// ResourceBudget projects the faction's treasury over the plan.
type ResourceBudget struct {
	Current         int  `json:"current"`
	IncomePerTurn   int  `json:"income_per_turn"`
	PlannedExpenses int  `json:"planned_expenses"`
	SavingsGoal     *int `json:"savings_goal,omitempty"`
}

// PlanBaseline records the situation the plan was made in.
type PlanBaseline struct {
	AssetCount  int     `json:"asset_count"`
	ThreatLevel float64 `json:"threat_level"`
	FacCreds    int     `json:"fac_creds"`
}

// AIStrategicPlan is a faction's persisted multi-turn plan.
type AIStrategicPlan struct {
	ID                string               `json:"id"`
	FactionID         string               `json:"faction_id"`
	GoalType          sector.GoalType      `json:"goal_type,omitempty"`
	Difficulty        Difficulty           `json:"difficulty"`
	CreatedTurn       int                  `json:"created_turn"`
	LastUpdatedTurn   int                  `json:"last_updated_turn"`
	Horizon           int                  `json:"horizon"`
	OverallConfidence float64              `json:"overall_confidence"`
	Primary           StrategicObjective   `json:"primary_objective"`
	Secondary         []StrategicObjective `json:"secondary_objectives,omitempty"`
	TurnPlans         []TurnPlan           `json:"turn_plans"`
	Contingencies     []PlanContingency    `json:"contingencies,omitempty"`
	Budget            ResourceBudget       `json:"budget"`
	Baseline          PlanBaseline         `json:"baseline"`
	Summary           string               `json:"summary"`
	Reasoning         []string             `json:"reasoning,omitempty"`
	Threats           []string             `json:"threats,omitempty"`
	Opportunities     []string             `json:"opportunities,omitempty"`
}

// PlanRecommendation is EvaluatePlan's verdict.
type PlanRecommendation string

const (
	PlanContinue PlanRecommendation = "continue"
	PlanAdjust   PlanRecommendation = "adjust"
	PlanReplan   PlanRecommendation = "replan"
)

// PlanEvaluation is how an existing plan holds up against the current turn.
type PlanEvaluation struct {
	Blockers        []string           `json:"blockers,omitempty"`
	Events          []string           `json:"events,omitempty"`
	Triggered       []PlanContingency  `json:"triggered,omitempty"`
	ConfidenceDelta float64            `json:"confidence_delta"`
	Recommendation  PlanRecommendation `json:"recommendation"`
}

// PlanningContext is the read-only input to planning.
type PlanningContext struct {
	Faction    *sector.Faction
	Enemies    []sector.Faction
	Factions   []sector.Faction
	Systems    []sector.System
	Turn       int
	Difficulty Difficulty
	Influence  *InfluenceMap
	Threat     *SectorThreatOverview
	Intent     StrategicIntent
}

// BuildPlanningContext assembles planning input from the turn's snapshot and
// the analysis and goal phase outputs.
func BuildPlanningContext(snap *sector.Snapshot, factionID string, difficulty Difficulty, im *InfluenceMap, threat *SectorThreatOverview, intent StrategicIntent) (PlanningContext, error) {
	f := snap.Faction(factionID)
	if f == nil {
		return PlanningContext{}, fmt.Errorf("planning context for %s: %w", factionID, ErrNoFaction)
	}
	if im == nil {
		im = EmptyInfluenceMap(factionID)
	}
	if threat == nil {
		threat = EmptyThreatOverview(factionID)
	}
	pc := PlanningContext{
		Faction:    f,
		Factions:   snap.Factions,
		Systems:    snap.Systems,
		Turn:       snap.Turn,
		Difficulty: difficulty,
		Influence:  im,
		Threat:     threat,
		Intent:     intent,
	}
	for _, other := range snap.Factions {
		if other.ID != factionID && !other.Eliminated {
			pc.Enemies = append(pc.Enemies, other)
		}
	}
	return pc, nil
}

// Replanner decides whether a stored plan must be regenerated.
type Replanner interface {
	ShouldReplan(plan *AIStrategicPlan, currentTurn int, eval PlanEvaluation) bool
}

// ReplanPolicy regenerates plans that are too old, too blocked or too
// unconfident.
type ReplanPolicy struct {
	MaxPlanAge    int
	MaxBlockers   int
	MinConfidence float64
}

// DefaultReplanPolicy returns the stock thresholds.
func DefaultReplanPolicy() ReplanPolicy {
	return ReplanPolicy{MaxPlanAge: 5, MaxBlockers: 2, MinConfidence: 25}
}

func (p ReplanPolicy) ShouldReplan(plan *AIStrategicPlan, currentTurn int, eval PlanEvaluation) bool {
	if plan == nil || len(plan.TurnPlans) == 0 {
		return true
	}
	if eval.Recommendation == PlanReplan {
		return true
	}
	if p.MaxPlanAge > 0 && currentTurn-plan.CreatedTurn >= p.MaxPlanAge {
		return true
	}
	if p.MaxBlockers > 0 && len(eval.Blockers) >= p.MaxBlockers {
		return true
	}
	return plan.OverallConfidence+eval.ConfidenceDelta < p.MinConfidence
}

// AIStrategicPlanner builds and maintains multi-turn plans.
type AIStrategicPlanner struct {
	Catalog   sector.Catalog
	Odds      CombatOdds
	Influence InfluenceMapService
	Economy   AIEconomyManager
	Policy    Replanner
}

// ShouldReplan consults the planner's policy, DefaultReplanPolicy if unset.
func (p AIStrategicPlanner) ShouldReplan(plan *AIStrategicPlan, currentTurn int, eval PlanEvaluation) bool {
	policy := p.Policy
	if policy == nil {
		policy = DefaultReplanPolicy()
	}
	return policy.ShouldReplan(plan, currentTurn, eval)
}

var objectiveForFocus = map[Focus]ObjectiveType{
	FocusAggression: ObjectiveConquer,
	FocusExpansion:  ObjectiveExpand,
	FocusEconomy:    ObjectiveEconomy,
	FocusDefense:    ObjectiveDefend,
	FocusEspionage:  ObjectiveEspionage,
}

// GenerateStrategicPlan builds a fresh plan for the context's faction.
func (p AIStrategicPlanner) GenerateStrategicPlan(pc PlanningContext) *AIStrategicPlan {
	f := pc.Faction
	horizon := max(1, ConfigFor(pc.Difficulty).PlanHorizon)
	plan := &AIStrategicPlan{
		ID:              uuid.NewString(),
		FactionID:       f.ID,
		GoalType:        pc.Intent.GoalType,
		Difficulty:      pc.Difficulty,
		CreatedTurn:     pc.Turn,
		LastUpdatedTurn: pc.Turn,
		Horizon:         horizon,
		Budget: ResourceBudget{
			Current:       f.FacCreds,
			IncomePerTurn: f.Income(),
		},
		Baseline: PlanBaseline{
			ThreatLevel: pc.Threat.OverallLevel,
			FacCreds:    f.FacCreds,
		},
	}
	for _, a := range f.Assets {
		if a.HP > 0 {
			plan.Baseline.AssetCount++
		}
	}

	plan.Primary = p.primaryObjective(pc)
	plan.Reasoning = append(plan.Reasoning, fmt.Sprintf("focus %s selects %s objective: %s",
		pc.Intent.PrimaryFocus, plan.Primary.Type, plan.Primary.Description))
	plan.Secondary = p.secondaryObjectives(pc, plan.Primary)
	for _, o := range plan.Secondary {
		plan.Reasoning = append(plan.Reasoning, "secondary: "+o.Description)
	}

	if plan.Primary.Type == ObjectiveEconomy {
		if goal, ok := p.savingsGoal(f); ok {
			plan.Budget.SavingsGoal = &goal
			plan.Reasoning = append(plan.Reasoning, fmt.Sprintf("saving toward %d creds", goal))
		}
	}

	plan.TurnPlans = p.scheduleTurns(pc, plan)
	for _, tp := range plan.TurnPlans {
		plan.Budget.PlannedExpenses += tp.Expenses
	}
	plan.Contingencies = contingenciesFor(pc, plan)
	plan.Threats, plan.Opportunities = p.situation(pc)
	plan.OverallConfidence = p.initialConfidence(pc, plan)
	plan.Summary = fmt.Sprintf("%s over %d turn(s), confidence %.0f%%", plan.Primary.Description, horizon, plan.OverallConfidence)
	return plan
}

func (p AIStrategicPlanner) primaryObjective(pc PlanningContext) StrategicObjective {
	f := pc.Faction
	typ, ok := objectiveForFocus[pc.Intent.PrimaryFocus]
	if !ok {
		typ = ObjectiveDefend
	}
	o := StrategicObjective{ID: uuid.NewString(), Type: typ, Priority: PriorityHigh}

	switch typ {
	case ObjectiveConquer, ObjectiveEspionage:
		target := p.targetFaction(pc)
		if target == nil {
			o.Type = ObjectiveDefend
			o.TargetSystemID = defendTarget(pc)
			o.Description = "hold position, no enemy to strike"
			o.EstimatedTurns = 1
			break
		}
		o.TargetFactionID = target.ID
		o.TargetSystemID = enemyFocusSystem(pc, target)
		verb := "strike"
		if typ == ObjectiveEspionage {
			verb = "infiltrate"
		}
		o.Description = fmt.Sprintf("%s %s at %s", verb, target.Name, o.TargetSystemID)
		o.EstimatedTurns = 1 + travelTurns(f, o.TargetSystemID, pc.Systems)
	case ObjectiveExpand:
		if sys, _ := p.Influence.BestExpansionTarget(f, pc.Systems, pc.Influence); sys != nil {
			o.TargetSystemID = sys.ID
			o.Description = fmt.Sprintf("expand into %s", sys.Name)
			o.EstimatedTurns = max(1, travelTurns(f, sys.ID, pc.Systems))
		} else {
			o.Description = "consolidate held systems"
			o.EstimatedTurns = 1
		}
	case ObjectiveEconomy:
		o.Description = "grow the treasury"
		o.EstimatedTurns = 1
		if goal, ok := p.savingsGoal(f); ok {
			if income := f.Income(); income > 0 {
				o.EstimatedTurns = max(1, (goal-f.FacCreds+income-1)/income)
			}
		}
	case ObjectiveDefend:
		o.TargetSystemID = defendTarget(pc)
		o.Description = fmt.Sprintf("fortify %s", o.TargetSystemID)
		o.EstimatedTurns = 1
	}
	if pc.Threat.Posture == PostureDefensive && o.Type == ObjectiveDefend {
		o.Priority = PriorityCritical
	}
	if g := f.Goal; g != nil && g.Type == pc.Intent.GoalType && g.Target > 0 {
		o.Progress = clamp(float64(g.Progress)*100/float64(g.Target), 0, 100)
	}
	return o
}

// targetFaction prefers the intent's target, then the strongest visible enemy.
func (p AIStrategicPlanner) targetFaction(pc PlanningContext) *sector.Faction {
	if id := pc.Intent.TargetFactionID; id != "" {
		for i := range pc.Enemies {
			if pc.Enemies[i].ID == id {
				return &pc.Enemies[i]
			}
		}
	}
	var best *sector.Faction
	for i := range pc.Enemies {
		e := &pc.Enemies[i]
		if best == nil || factionStrength(e) > factionStrength(best) ||
			(factionStrength(e) == factionStrength(best) && e.ID < best.ID) {
			best = e
		}
	}
	return best
}

func enemyFocusSystem(pc PlanningContext, target *sector.Faction) string {
	if pt := pc.Threat.PrimaryThreat; pt != nil && pt.FactionID == target.ID && pt.SystemID != "" {
		return pt.SystemID
	}
	if locs := target.Locations(); len(locs) > 0 {
		return locs[0]
	}
	return target.Homeworld
}

func defendTarget(pc PlanningContext) string {
	if s := pc.Threat.MostThreatened(); s != "" {
		return s
	}
	if pc.Faction.Homeworld != "" {
		return pc.Faction.Homeworld
	}
	if locs := pc.Faction.Locations(); len(locs) > 0 {
		return locs[0]
	}
	return ""
}

// travelTurns is the hex distance from the faction's closest asset to target.
func travelTurns(f *sector.Faction, target string, systems []sector.System) int {
	_, d := nearestAsset(f, target, systems)
	if d < 0 {
		return 0
	}
	return d
}

// nearestAsset returns the live asset closest to target and its distance,
// or -1 when none can be placed on the map.
func nearestAsset(f *sector.Faction, target string, systems []sector.System) (*sector.Asset, int) {
	idx := sector.SystemIndex(systems)
	t, ok := idx[target]
	if !ok {
		return nil, -1
	}
	var best *sector.Asset
	bestD := -1
	for i := range f.Assets {
		a := &f.Assets[i]
		s, ok := idx[a.Location]
		if !ok || a.HP <= 0 {
			continue
		}
		d := sector.Distance(s.Hex, t.Hex)
		if best == nil || d < bestD || (d == bestD && a.ID < best.ID) {
			best, bestD = a, d
		}
	}
	return best, bestD
}

// stepToward returns the adjacent system closest to target.
func stepToward(from, target string, systems []sector.System) string {
	idx := sector.SystemIndex(systems)
	t, ok := idx[target]
	if !ok {
		return ""
	}
	best, bestD := "", -1
	for _, adj := range sector.Adjacent(from, systems) {
		d := sector.Distance(adj.Hex, t.Hex)
		if bestD < 0 || d < bestD || (d == bestD && adj.ID < best) {
			best, bestD = adj.ID, d
		}
	}
	return best
}

func (p AIStrategicPlanner) secondaryObjectives(pc PlanningContext, primary StrategicObjective) []StrategicObjective {
	var out []StrategicObjective
	if pc.Threat.Posture == PostureDefensive && primary.Type != ObjectiveDefend {
		sys := defendTarget(pc)
		out = append(out, StrategicObjective{
			ID: uuid.NewString(), Type: ObjectiveDefend, Priority: PriorityHigh,
			TargetSystemID: sys, EstimatedTurns: 1,
			Description: fmt.Sprintf("shore up %s", sys),
		})
	}
	damaged := 0
	for _, a := range pc.Faction.Assets {
		if a.HP > 0 && a.Damaged() {
			damaged++
		}
	}
	if damaged > 0 {
		out = append(out, StrategicObjective{
			ID: uuid.NewString(), Type: ObjectiveRepair, Priority: PriorityMedium,
			EstimatedTurns: 1, Description: fmt.Sprintf("repair %d damaged asset(s)", damaged),
		})
	}
	if primary.Type != ObjectiveExpand {
		if sys, v := p.Influence.BestExpansionTarget(pc.Faction, pc.Systems, pc.Influence); sys != nil && v >= 50 {
			out = append(out, StrategicObjective{
				ID: uuid.NewString(), Type: ObjectiveOpportunistic, Priority: PriorityLow,
				TargetSystemID: sys.ID, EstimatedTurns: max(1, travelTurns(pc.Faction, sys.ID, pc.Systems)),
				Description: fmt.Sprintf("opportunistic claim on %s", sys.Name),
			})
		}
	}
	return out
}

// savingsGoal is the cost of the cheapest asset the faction is rated for but
// cannot yet afford.
func (p AIStrategicPlanner) savingsGoal(f *sector.Faction) (int, bool) {
	if p.Catalog == nil {
		return 0, false
	}
	goal := 0
	for _, def := range p.Catalog.All() {
		if def.Cost <= f.FacCreds || f.Rating(def.Category) < def.Rating {
			continue
		}
		if goal == 0 || def.Cost < goal {
			goal = def.Cost
		}
	}
	return goal, goal > 0
}

func (p AIStrategicPlanner) scheduleTurns(pc PlanningContext, plan *AIStrategicPlan) []TurnPlan {
	f := pc.Faction
	creds := f.FacCreds
	income := f.Income()
	baseConf := ConfidenceBase(pc.Difficulty)

	// a working position for the acting asset, advanced turn by turn
	var mover *sector.Asset
	pos := ""
	if plan.Primary.TargetSystemID != "" {
		mover, _ = nearestAsset(f, plan.Primary.TargetSystemID, pc.Systems)
		if mover != nil {
			pos = mover.Location
		}
	}

	out := make([]TurnPlan, 0, plan.Horizon)
	var prev string
	for t := 0; t < plan.Horizon; t++ {
		tp := TurnPlan{Turn: t, CredsBefore: creds}
		conf := clamp(baseConf-10*float64(t), 5, 100)

		if t == 0 {
			econ := p.Economy.GenerateEconomicPlan(f, pc.Systems, pc.Threat, pc.Intent)
			switch p.Economy.GetEconomyAction(econ) {
			case EconomyRepair:
				for _, r := range econ.Repairs {
					tp.Actions = append(tp.Actions, PlannedAction{
						ID: uuid.NewString(), Type: PlannedRepair, AssetID: r.AssetID, DefinitionID: r.DefinitionID,
						Description: fmt.Sprintf("repair %s (+%d hp)", r.AssetID, r.DamageHealed),
						Priority: PriorityHigh, Confidence: 95, Cost: r.Cost,
						ExpectedOutcome: fmt.Sprintf("%s restored to %d hp", r.AssetID, r.HPBefore+r.DamageHealed),
					})
					tp.Expenses += r.Cost
				}
			case EconomyPurchase:
				pr := econ.Purchase
				tp.Actions = append(tp.Actions, PlannedAction{
					ID: uuid.NewString(), Type: PlannedPurchase, DefinitionID: pr.DefinitionID,
					TargetSystemID: pr.Location, Description: fmt.Sprintf("buy %s at %s", pr.Name, pr.Location),
					Priority: PriorityMedium, Confidence: 90, Cost: pr.Cost,
					ExpectedOutcome: fmt.Sprintf("new %s deployed", pr.Name),
				})
				tp.Expenses += pr.Cost
			}
		} else if g := plan.Budget.SavingsGoal; g != nil && creds < *g {
			tp.Actions = append(tp.Actions, PlannedAction{
				ID: uuid.NewString(), Type: PlannedSave, Description: fmt.Sprintf("save toward %d creds", *g),
				Priority: PriorityMedium, Confidence: conf, ExpectedOutcome: fmt.Sprintf("%d creds banked", creds+income),
			})
		}

		if step := objectiveStep(pc, plan.Primary, mover, &pos, t, conf); step != nil {
			if prev != "" {
				step.DependsOn = []string{prev}
			}
			prev = step.ID
			tp.Actions = append(tp.Actions, *step)
		}

		creds = max(0, creds-tp.Expenses) + income
		tp.CredsAfter = creds
		tp.Rationale = turnRationale(plan.Primary, t, tp)
		out = append(out, tp)
	}
	return out
}

// objectiveStep is the primary objective's scheduled action for turn t. pos
// tracks where the acting asset is projected to be.
func objectiveStep(pc PlanningContext, o StrategicObjective, mover *sector.Asset, pos *string, t int, conf float64) *PlannedAction {
	pa := &PlannedAction{ID: uuid.NewString(), Priority: o.Priority, Confidence: conf}
	switch o.Type {
	case ObjectiveEconomy:
		return nil
	case ObjectiveDefend:
		pa.Type = PlannedDefend
		pa.TargetSystemID = o.TargetSystemID
		pa.Description = fmt.Sprintf("hold %s", o.TargetSystemID)
		pa.ExpectedOutcome = "threat contained"
		return pa
	}
	if mover == nil || o.TargetSystemID == "" {
		return nil
	}
	pa.AssetID = mover.ID
	pa.DefinitionID = mover.DefinitionID
	pa.TargetFactionID = o.TargetFactionID

	if *pos != o.TargetSystemID {
		next := stepToward(*pos, o.TargetSystemID, pc.Systems)
		if next == "" {
			return nil
		}
		pa.TargetSystemID = next
		if o.Type == ObjectiveExpand && next == o.TargetSystemID {
			pa.Type = PlannedExpand
			pa.Description = fmt.Sprintf("expand %s into %s", mover.ID, next)
			pa.ExpectedOutcome = fmt.Sprintf("presence in %s", next)
		} else {
			pa.Type = PlannedMove
			pa.Description = fmt.Sprintf("move %s to %s", mover.ID, next)
			pa.ExpectedOutcome = fmt.Sprintf("%s closer to %s", mover.ID, o.TargetSystemID)
		}
		*pos = next
		return pa
	}

	pa.TargetSystemID = o.TargetSystemID
	switch o.Type {
	case ObjectiveConquer, ObjectiveEspionage:
		pa.Type = PlannedAttack
		pa.Description = fmt.Sprintf("%s strikes %s at %s", mover.ID, o.TargetFactionID, o.TargetSystemID)
		pa.ExpectedOutcome = "enemy assets damaged"
	default:
		pa.Type = PlannedExpand
		pa.Description = fmt.Sprintf("claim %s", o.TargetSystemID)
		pa.ExpectedOutcome = fmt.Sprintf("control of %s", o.TargetSystemID)
	}
	if t > 0 {
		pa.Confidence = max(5, pa.Confidence-5)
	}
	return pa
}

func turnRationale(o StrategicObjective, t int, tp TurnPlan) string {
	if len(tp.Actions) == 0 {
		return fmt.Sprintf("turn +%d: no scheduled action toward %s", t, o.Type)
	}
	return fmt.Sprintf("turn +%d: %d action(s) toward %s, creds %d -> %d", t, len(tp.Actions), o.Type, tp.CredsBefore, tp.CredsAfter)
}

// ConfidenceBase is the starting confidence for planned actions.
func ConfidenceBase(d Difficulty) float64 {
	switch d {
	case DifficultyEasy:
		return 60
	case DifficultyHard:
		return 75
	case DifficultyExpert:
		return 80
	}
	return 70
}

func contingenciesFor(pc PlanningContext, plan *AIStrategicPlan) []PlanContingency {
	defendAt := defendTarget(pc)
	out := []PlanContingency{
		{
			ID: uuid.NewString(), Condition: "ThreatLevel >= 60", Priority: PriorityCritical,
			Description: "sector threat spikes: fall back and defend",
			Alternatives: []PlannedAction{{
				ID: uuid.NewString(), Type: PlannedDefend, TargetSystemID: defendAt,
				Description: fmt.Sprintf("hold %s", defendAt), Priority: PriorityCritical, Confidence: 70,
			}},
		},
		{
			ID: uuid.NewString(), Condition: "AssetsLost > 0", Priority: PriorityHigh,
			Description: "assets lost since planning: replace losses before pressing on",
			Alternatives: []PlannedAction{{
				ID: uuid.NewString(), Type: PlannedPurchase, Description: "buy a replacement asset",
				Priority: PriorityHigh, Confidence: 60,
			}},
		},
		{
			ID: uuid.NewString(), Condition: "FacCreds < PlannedExpenses", Priority: PriorityMedium,
			Description: "treasury short of this turn's spending: save instead",
			Alternatives: []PlannedAction{{
				ID: uuid.NewString(), Type: PlannedSave, Description: "defer spending",
				Priority: PriorityMedium, Confidence: 80,
			}},
		},
	}
	if pc.Faction.Homeworld != "" {
		out = append(out, PlanContingency{
			ID: uuid.NewString(), Condition: "HomeworldThreat > 40", Priority: PriorityCritical,
			Description: "homeworld under threat: recall to defend it",
			Alternatives: []PlannedAction{{
				ID: uuid.NewString(), Type: PlannedDefend, TargetSystemID: pc.Faction.Homeworld,
				Description: fmt.Sprintf("defend homeworld %s", pc.Faction.Homeworld), Priority: PriorityCritical, Confidence: 75,
			}},
		})
	}
	if plan.Primary.TargetFactionID != "" {
		out = append(out, PlanContingency{
			ID: uuid.NewString(), Condition: "TargetEliminated", Priority: PriorityMedium,
			Description: fmt.Sprintf("%s eliminated: pick a new objective", plan.Primary.TargetFactionID),
		})
	}
	return out
}

func (p AIStrategicPlanner) situation(pc PlanningContext) (threats, opportunities []string) {
	if pt := pc.Threat.PrimaryThreat; pt != nil {
		threats = append(threats, fmt.Sprintf("%s is the primary threat (level %.0f near %s)", pt.FactionID, pt.Level, pt.SystemID))
	}
	ids := make([]string, 0, len(pc.Threat.Systems))
	for id, st := range pc.Threat.Systems {
		if st.Level >= pressuredPostureLevel {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		threats = append(threats, fmt.Sprintf("%s threatened (level %.0f)", id, pc.Threat.Systems[id].Level))
	}

	type cand struct {
		sys   sector.System
		value float64
	}
	var cands []cand
	for _, s := range pc.Systems {
		c := pc.Influence.Control(s.ID)
		if c != ControlUnoccupied && c != ControlContested {
			continue
		}
		cands = append(cands, cand{s, p.Influence.StrategicValue(s, pc.Influence, pc.Faction, pc.Systems)})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].value != cands[j].value {
			return cands[i].value > cands[j].value
		}
		return cands[i].sys.ID < cands[j].sys.ID
	})
	for i := 0; i < len(cands) && i < 3; i++ {
		opportunities = append(opportunities, fmt.Sprintf("%s open (value %.0f)", cands[i].sys.Name, cands[i].value))
	}
	return threats, opportunities
}

func (p AIStrategicPlanner) initialConfidence(pc PlanningContext, plan *AIStrategicPlan) float64 {
	c := ConfidenceBase(pc.Difficulty)
	c -= pc.Threat.OverallLevel * 0.3
	if plan.Primary.EstimatedTurns > plan.Horizon {
		c -= 10
	}
	if plan.Primary.TargetSystemID == "" && plan.Primary.Type != ObjectiveEconomy {
		c -= 15
	}
	if pc.Intent.PrimaryFocus != "" && objectiveForFocus[pc.Intent.PrimaryFocus] != plan.Primary.Type {
		c -= 10
	}
	return clamp(c, 0, 100)
}

// EvaluatePlan checks an existing plan against the current situation.
func (p AIStrategicPlanner) EvaluatePlan(plan *AIStrategicPlan, pc PlanningContext) PlanEvaluation {
	var ev PlanEvaluation
	if plan == nil {
		ev.Recommendation = PlanReplan
		ev.Blockers = append(ev.Blockers, "no plan")
		return ev
	}
	f := pc.Faction

	if id := plan.Primary.TargetFactionID; id != "" {
		if t := factionByID(pc.Factions, id); t == nil || t.Eliminated {
			ev.Blockers = append(ev.Blockers, fmt.Sprintf("target faction %s gone", id))
		}
	}
	if id := plan.Primary.TargetSystemID; id != "" {
		if _, ok := sector.SystemIndex(pc.Systems)[id]; !ok {
			ev.Blockers = append(ev.Blockers, fmt.Sprintf("target system %s unknown", id))
		}
	}
	if plan.GoalType != "" && pc.Intent.GoalType != "" && plan.GoalType != pc.Intent.GoalType {
		ev.Blockers = append(ev.Blockers, fmt.Sprintf("goal changed from %s to %s", plan.GoalType, pc.Intent.GoalType))
	}
	if len(plan.TurnPlans) > 0 {
		missing := map[string]bool{}
		for _, a := range plan.TurnPlans[0].Actions {
			if a.AssetID == "" || missing[a.AssetID] {
				continue
			}
			if as := f.Asset(a.AssetID); as == nil || as.HP <= 0 {
				missing[a.AssetID] = true
				ev.Blockers = append(ev.Blockers, fmt.Sprintf("planned asset %s lost", a.AssetID))
			}
		}
	}

	if d := pc.Threat.OverallLevel - plan.Baseline.ThreatLevel; d >= 25 {
		ev.Events = append(ev.Events, fmt.Sprintf("threat rose by %.0f", d))
	}
	if f.FacCreds < plan.Baseline.FacCreds/2 {
		ev.Events = append(ev.Events, fmt.Sprintf("treasury fell to %d", f.FacCreds))
	}

	env := contingencyEnv(plan, pc)
	for _, c := range plan.Contingencies {
		hit, err := c.Triggered(env)
		if err != nil {
			ev.Events = append(ev.Events, err.Error())
			continue
		}
		if hit {
			ev.Triggered = append(ev.Triggered, c)
		}
	}

	ev.ConfidenceDelta = -15*float64(len(ev.Blockers)) - 5*float64(len(ev.Events)) - 10*float64(len(ev.Triggered))
	switch {
	case len(ev.Blockers) > 0 && hasCritical(ev.Triggered):
		ev.Recommendation = PlanReplan
	case len(ev.Blockers) >= 2:
		ev.Recommendation = PlanReplan
	case len(ev.Blockers) > 0 || len(ev.Events) > 0 || len(ev.Triggered) > 0:
		ev.Recommendation = PlanAdjust
	default:
		ev.Recommendation = PlanContinue
		ev.ConfidenceDelta = 5
	}
	return ev
}

func hasCritical(cs []PlanContingency) bool {
	for _, c := range cs {
		if c.Priority == PriorityCritical {
			return true
		}
	}
	return false
}

// AdjustPlanConfidence shifts the plan's confidence, keeping it in [0,100].
func AdjustPlanConfidence(plan *AIStrategicPlan, adjustment float64) {
	if plan == nil {
		return
	}
	if math.IsNaN(adjustment) {
		adjustment = 0
	}
	plan.OverallConfidence = clamp(plan.OverallConfidence+adjustment, 0, 100)
}

// AdvancePlan moves a plan one game turn forward: the turn-0 schedule is
// dropped and every later turn index is decremented.
func AdvancePlan(plan *AIStrategicPlan) {
	if plan == nil {
		return
	}
	kept := plan.TurnPlans[:0]
	for _, tp := range plan.TurnPlans {
		if tp.Turn <= 0 {
			continue
		}
		tp.Turn--
		kept = append(kept, tp)
	}
	plan.TurnPlans = kept
}

// AdvancePlans advances every plan once. Call it exactly once per game turn.
func AdvancePlans(plans []*AIStrategicPlan) {
	for _, p := range plans {
		AdvancePlan(p)
	}
}
