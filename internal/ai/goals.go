package ai

import (
	"fmt"
	"sort"

	"github.com/freeeve/faction-ai/pkg/sector"
)

// Focus is the broad strategic emphasis derived from a goal.
type Focus string

const (
	FocusAggression Focus = "aggression"
	FocusExpansion  Focus = "expansion"
	FocusEconomy    Focus = "economy"
	FocusDefense    Focus = "defense"
	FocusEspionage  Focus = "espionage"
)

// StrategicIntent is the turn's goal-derived weighting, consumed by the
// economy, scoring and planning phases.
type StrategicIntent struct {
	GoalType        sector.GoalType `json:"goal_type,omitempty"`
	PrimaryFocus    Focus           `json:"primary_focus"`
	Aggression      float64         `json:"aggression"`
	Expansion       float64         `json:"expansion"`
	Economy         float64         `json:"economy"`
	Defense         float64         `json:"defense"`
	TargetFactionID string          `json:"target_faction_id,omitempty"`
}

// DefaultIntent is a neutral intent with every weight at 1.
func DefaultIntent() StrategicIntent {
	return StrategicIntent{PrimaryFocus: FocusDefense, Aggression: 1, Expansion: 1, Economy: 1, Defense: 1}
}

// Weight returns the intent weighting that applies to an action type.
func (in StrategicIntent) Weight(t ActionType) float64 {
	switch t {
	case ActionAttack:
		return in.Aggression
	case ActionExpand:
		return in.Expansion
	case ActionMove:
		return (in.Expansion + in.Aggression) / 2
	case ActionDefend:
		return in.Defense
	}
	return 1
}

var goalFocus = map[sector.GoalType]Focus{
	sector.GoalMilitaryConquest:    FocusAggression,
	sector.GoalBloodTheEnemy:       FocusAggression,
	sector.GoalDestroyTheFoe:       FocusAggression,
	sector.GoalCommercialExpansion: FocusEconomy,
	sector.GoalWealthOfWorlds:      FocusEconomy,
	sector.GoalExpandInfluence:     FocusExpansion,
	sector.GoalIntelligenceCoup:    FocusEspionage,
	sector.GoalPeaceableKingdom:    FocusDefense,
}

// focusWeights are aggression, expansion, economy, defense.
var focusWeights = map[Focus][4]float64{
	FocusAggression: {1.5, 0.9, 0.8, 0.8},
	FocusExpansion:  {0.8, 1.5, 1.0, 0.9},
	FocusEconomy:    {0.7, 1.0, 1.5, 1.0},
	FocusDefense:    {0.6, 0.8, 1.1, 1.5},
	FocusEspionage:  {1.2, 1.0, 0.9, 1.0},
}

// goalTags lists faction tags that favor each focus.
var goalTags = map[Focus][]string{
	FocusAggression: {"warlike", "militaristic", "fanatical"},
	FocusEconomy:    {"mercantile", "plutocratic", "imperialists"},
	FocusEspionage:  {"secretive", "deep rooted", "machiavellian"},
	FocusExpansion:  {"colonists", "expansionist", "pilgrims"},
	FocusDefense:    {"isolationist", "pacifist", "planetary government"},
}

// GoalScore is one candidate goal's evaluation.
type GoalScore struct {
	Type     sector.GoalType `json:"type"`
	Score    float64         `json:"score"`
	Feasible bool            `json:"feasible"`
	Reasons  []string        `json:"reasons,omitempty"`
}

// GoalEvaluation is the result of scoring every candidate goal.
type GoalEvaluation struct {
	Scores       []GoalScore     `json:"scores"`
	Recommended  *GoalScore      `json:"recommended,omitempty"`
	CurrentScore float64         `json:"current_score"`
	Intent       StrategicIntent `json:"intent"`
}

// Score returns the evaluation entry for a goal type.
func (e *GoalEvaluation) Score(t sector.GoalType) (GoalScore, bool) {
	for _, s := range e.Scores {
		if s.Type == t {
			return s, true
		}
	}
	return GoalScore{}, false
}

const defaultGoalInertia = 15.0

// GoalSelectionService picks the faction's strategic goal. It has no side
// effects; the orchestrator commits goal changes.
type GoalSelectionService struct {
	// Inertia is the margin a new goal must beat the current one by.
	Inertia float64
}

// EvaluateGoals scores every goal type against the faction's ratings, tags
// and situation, and derives the turn's intent from the goal the faction
// will pursue.
func (s GoalSelectionService) EvaluateGoals(faction *sector.Faction, factions []sector.Faction, systems []sector.System, threat *SectorThreatOverview, im *InfluenceMap) GoalEvaluation {
	if threat == nil {
		threat = EmptyThreatOverview(faction.ID)
	}
	visibleEnemies := 0
	for _, f := range factions {
		if f.ID == faction.ID || f.Eliminated {
			continue
		}
		for _, a := range f.Assets {
			if !a.Stealthed {
				visibleEnemies++
			}
		}
	}
	openSystems := 0
	if im != nil {
		openSystems = len(im.Unoccupied) + len(im.Contested)
	}
	own := factionStrength(faction)

	var eval GoalEvaluation
	for _, gt := range sector.AllGoalTypes() {
		focus := goalFocus[gt]
		gs := GoalScore{Type: gt, Score: 30, Feasible: true}

		switch gt {
		case sector.GoalMilitaryConquest, sector.GoalBloodTheEnemy, sector.GoalDestroyTheFoe:
			gs.Score += float64(faction.Force) * 4
		case sector.GoalCommercialExpansion, sector.GoalWealthOfWorlds:
			gs.Score += float64(faction.Wealth) * 4
		case sector.GoalIntelligenceCoup:
			gs.Score += float64(faction.Cunning) * 4
		case sector.GoalExpandInfluence:
			gs.Score += float64(faction.Force+faction.Cunning+faction.Wealth) * 1.5
		case sector.GoalPeaceableKingdom:
			gs.Score += 10
		}

		for _, tag := range goalTags[focus] {
			if faction.HasTag(tag) {
				gs.Score += 15
				gs.Reasons = append(gs.Reasons, "tag "+tag)
			}
		}

		switch focus {
		case FocusAggression, FocusEspionage:
			if visibleEnemies == 0 {
				gs.Feasible = false
				gs.Reasons = append(gs.Reasons, "no visible enemies")
			}
			if threat.OverallLevel >= defensivePostureLevel {
				gs.Score -= 10
			}
			if threat.PrimaryThreat != nil && own > threat.PrimaryThreat.Strength && focus == FocusAggression {
				gs.Score += 10
				gs.Reasons = append(gs.Reasons, "stronger than primary threat")
			}
		case FocusExpansion:
			if openSystems == 0 {
				gs.Feasible = false
				gs.Reasons = append(gs.Reasons, "no open systems")
			} else {
				gs.Score += min(20, 5*float64(openSystems))
			}
		case FocusDefense:
			if threat.OverallLevel >= defensivePostureLevel {
				gs.Score += 25
				gs.Reasons = append(gs.Reasons, "under heavy threat")
			}
		case FocusEconomy:
			if faction.FacCreds < 5 {
				gs.Score += 10
				gs.Reasons = append(gs.Reasons, "treasury low")
			}
		}

		if !gs.Feasible {
			gs.Score = 0
		}
		gs.Score = clamp(gs.Score, 0, 100)
		eval.Scores = append(eval.Scores, gs)
	}

	sort.SliceStable(eval.Scores, func(i, j int) bool { return eval.Scores[i].Score > eval.Scores[j].Score })
	for i := range eval.Scores {
		if eval.Scores[i].Feasible {
			rec := eval.Scores[i]
			eval.Recommended = &rec
			break
		}
	}

	pursued := eval.Recommended
	if faction.Goal != nil {
		if cur, ok := eval.Score(faction.Goal.Type); ok {
			eval.CurrentScore = cur.Score
			if !s.ShouldChangeGoal(faction, eval) {
				pursued = &cur
			}
		}
	}
	eval.Intent = deriveIntent(pursued, threat)
	return eval
}

func deriveIntent(goal *GoalScore, threat *SectorThreatOverview) StrategicIntent {
	in := DefaultIntent()
	if goal != nil {
		in.GoalType = goal.Type
		in.PrimaryFocus = goalFocus[goal.Type]
		w := focusWeights[in.PrimaryFocus]
		in.Aggression, in.Expansion, in.Economy, in.Defense = w[0], w[1], w[2], w[3]
	}
	switch threat.Posture {
	case PostureDefensive:
		in.Defense += 0.3
		in.Aggression = max(0.1, in.Aggression-0.2)
	case PostureAggressive:
		in.Aggression += 0.2
	}
	if threat.PrimaryThreat != nil {
		in.TargetFactionID = threat.PrimaryThreat.FactionID
	}
	return in
}

// ShouldChangeGoal applies goal inertia: switch only when the faction has no
// goal, its goal is complete or infeasible, or the recommended goal beats
// the current one by more than the inertia margin.
func (s GoalSelectionService) ShouldChangeGoal(faction *sector.Faction, eval GoalEvaluation) bool {
	if eval.Recommended == nil {
		return false
	}
	if faction.Goal == nil || faction.Goal.Complete() {
		return true
	}
	if faction.Goal.Type == eval.Recommended.Type {
		return false
	}
	cur, ok := eval.Score(faction.Goal.Type)
	if !ok || !cur.Feasible {
		return true
	}
	inertia := s.Inertia
	if inertia <= 0 {
		inertia = defaultGoalInertia
	}
	return eval.Recommended.Score >= cur.Score+inertia
}

// CreateGoalInstance materializes a goal for the faction starting this turn.
func (GoalSelectionService) CreateGoalInstance(gt sector.GoalType, faction *sector.Faction, turn int, targetFactionID string) sector.Goal {
	g := sector.Goal{Type: gt, StartedTurn: turn}
	switch gt {
	case sector.GoalMilitaryConquest:
		g.Target = max(1, faction.Force/2)
	case sector.GoalCommercialExpansion:
		g.Target = max(1, faction.Wealth/2)
	case sector.GoalIntelligenceCoup:
		g.Target = max(1, faction.Cunning/2)
	case sector.GoalExpandInfluence:
		g.Target = 2
	case sector.GoalBloodTheEnemy:
		g.Target = max(1, faction.Force+faction.Cunning+faction.Wealth)
	case sector.GoalPeaceableKingdom:
		g.Target = 4
	case sector.GoalDestroyTheFoe:
		g.Target = 1
	case sector.GoalWealthOfWorlds:
		g.Target = max(4, faction.Wealth*4)
	}
	if goalFocus[gt] == FocusAggression || gt == sector.GoalIntelligenceCoup {
		g.TargetFaction = targetFactionID
	}
	return g
}

func (g GoalScore) String() string {
	return fmt.Sprintf("%s(%.0f)", g.Type, g.Score)
}
