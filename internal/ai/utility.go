package ai

import (
	"fmt"
	"sort"

	"github.com/freeeve/faction-ai/pkg/sector"
)

// ActionType is the kind of turn action a faction can take with an asset.
type ActionType string

const (
	ActionMove   ActionType = "move"
	ActionAttack ActionType = "attack"
	ActionDefend ActionType = "defend"
	ActionExpand ActionType = "expand"
)

// actionTypeOrder breaks ties between action types with equal top scores.
var actionTypeOrder = []ActionType{ActionAttack, ActionExpand, ActionMove, ActionDefend}

// PotentialAction is a candidate action for one asset.
type PotentialAction struct {
	ID              string     `json:"id"`
	Type            ActionType `json:"type"`
	FactionID       string     `json:"faction_id"`
	AssetID         string     `json:"asset_id"`
	DefinitionID    string     `json:"definition_id,omitempty"`
	FromSystemID    string     `json:"from_system_id,omitempty"`
	TargetSystemID  string     `json:"target_system_id,omitempty"`
	TargetFactionID string     `json:"target_faction_id,omitempty"`
	TargetAssetID   string     `json:"target_asset_id,omitempty"`
}

// ScoredAction pairs a candidate with its utility.
type ScoredAction struct {
	Action        PotentialAction    `json:"action"`
	Score         float64            `json:"score"`
	Rationale     string             `json:"rationale"`
	Invalid       bool               `json:"invalid,omitempty"`
	InvalidReason string             `json:"invalid_reason,omitempty"`
	Minimax       *MinimaxEvaluation `json:"minimax,omitempty"`
}

// ScoringResult holds every scored action, best first.
type ScoringResult struct {
	Actions    []ScoredAction `json:"actions"`
	BestAction *ScoredAction  `json:"best_action,omitempty"`
}

// ScoringContext is the read-only input to the scoring phase.
type ScoringContext struct {
	Faction   *sector.Faction
	Factions  []sector.Faction
	Systems   []sector.System
	Influence *InfluenceMap
	Threat    *SectorThreatOverview
	Intent    StrategicIntent
}

// UtilityScorer enumerates and scores candidate actions.
type UtilityScorer struct {
	Catalog   sector.Catalog
	Odds      CombatOdds
	Influence InfluenceMapService
	Threats   ThreatAssessment
}

// GenerateAllActions lists every legal candidate: moves to adjacent systems,
// attacks on visible enemy assets sharing a system, expansion into adjacent
// unoccupied or contested systems, and defense in place for every asset.
func (u UtilityScorer) GenerateAllActions(sc ScoringContext) []PotentialAction {
	f := sc.Faction
	if f == nil {
		return nil
	}
	var out []PotentialAction
	for _, a := range f.Assets {
		if a.HP <= 0 {
			continue
		}
		base := PotentialAction{FactionID: f.ID, AssetID: a.ID, DefinitionID: a.DefinitionID, FromSystemID: a.Location}

		for _, adj := range sector.Adjacent(a.Location, sc.Systems) {
			mv := base
			mv.Type = ActionMove
			mv.TargetSystemID = adj.ID
			out = append(out, withID(mv))

			if c := sc.Influence.Control(adj.ID); c == ControlUnoccupied || c == ControlContested {
				ex := base
				ex.Type = ActionExpand
				ex.TargetSystemID = adj.ID
				out = append(out, withID(ex))
			}
		}
		if sc.Influence.Control(a.Location) == ControlContested {
			ex := base
			ex.Type = ActionExpand
			ex.TargetSystemID = a.Location
			out = append(out, withID(ex))
		}

		if def, ok := lookup(u.Catalog, a.DefinitionID); ok && def.CanAttack() {
			for _, enemy := range sc.Factions {
				if enemy.ID == f.ID || enemy.Eliminated {
					continue
				}
				for _, target := range enemy.Assets {
					if target.Location != a.Location || target.Stealthed || target.HP <= 0 {
						continue
					}
					at := base
					at.Type = ActionAttack
					at.TargetSystemID = a.Location
					at.TargetFactionID = enemy.ID
					at.TargetAssetID = target.ID
					out = append(out, withID(at))
				}
			}
		}

		df := base
		df.Type = ActionDefend
		df.TargetSystemID = a.Location
		out = append(out, withID(df))
	}
	return out
}

func withID(a PotentialAction) PotentialAction {
	a.ID = fmt.Sprintf("%s:%s:%s", a.Type, a.AssetID, a.TargetSystemID)
	if a.TargetAssetID != "" {
		a.ID += ":" + a.TargetAssetID
	}
	return a
}

// ScoreAction combines strategic value, threat mitigation or exposure and
// intent alignment into one utility score (never negative).
func (u UtilityScorer) ScoreAction(a PotentialAction, sc ScoringContext) ScoredAction {
	o := odds(u.Odds)
	threat := sc.Threat
	if threat == nil {
		threat = EmptyThreatOverview(sc.Faction.ID)
	}
	idx := sector.SystemIndex(sc.Systems)
	value := func(id string) float64 {
		s, ok := idx[id]
		if !ok {
			return 0
		}
		return u.Influence.StrategicValue(s, sc.Influence, sc.Faction, sc.Systems)
	}

	var score float64
	var why string
	switch a.Type {
	case ActionAttack:
		score = 20
		attacker := sc.Faction.Asset(a.AssetID)
		def, _ := lookup(u.Catalog, a.DefinitionID)
		enemy := factionByID(sc.Factions, a.TargetFactionID)
		winP := 0.0
		if attacker != nil && def.CanAttack() && enemy != nil {
			winP = o.WinProbability(def.Attack.Attacker, sc.Faction.Rating(def.Attack.Attacker), def.Attack.Defender, enemy.Rating(def.Attack.Defender))
			score += winP*40 + o.ExpectedDamage(def.Attack.Damage)*3
		}
		if enemy != nil {
			if target := enemy.Asset(a.TargetAssetID); target != nil {
				if tdef, ok := lookup(u.Catalog, target.DefinitionID); ok {
					score += min(10, float64(tdef.Cost))
				}
			}
		}
		score += threat.Level(a.TargetSystemID) * 0.1
		if a.TargetFactionID != "" && a.TargetFactionID == sc.Intent.TargetFactionID {
			score += 10
		}
		why = fmt.Sprintf("attack %s (win %.0f%%)", a.TargetAssetID, winP*100)
	case ActionMove:
		score = 10 + value(a.TargetSystemID)*0.3 + (threat.Level(a.FromSystemID)-threat.Level(a.TargetSystemID))*0.2
		if asset := sc.Faction.Asset(a.AssetID); asset != nil && threat.Level(a.TargetSystemID) < threat.Level(a.FromSystemID) &&
			u.Threats.ShouldRetreat(sc.Faction, *asset, threat) {
			score += 25
			why = fmt.Sprintf("retreat to %s", a.TargetSystemID)
		} else {
			why = fmt.Sprintf("move to %s (value %.0f)", a.TargetSystemID, value(a.TargetSystemID))
		}
	case ActionExpand:
		v := value(a.TargetSystemID)
		score = 15 + v*0.5 - threat.Level(a.TargetSystemID)*0.2
		why = fmt.Sprintf("expand into %s (value %.0f)", a.TargetSystemID, v)
	case ActionDefend:
		score = 5 + threat.Level(a.TargetSystemID)*0.5
		if a.TargetSystemID == sc.Faction.Homeworld {
			score += 5
		}
		why = fmt.Sprintf("hold %s (threat %.0f)", a.TargetSystemID, threat.Level(a.TargetSystemID))
	}

	score *= sc.Intent.Weight(a.Type)
	switch threat.Posture {
	case PostureAggressive:
		if a.Type == ActionAttack {
			score *= 1.2
		}
	case PostureDefensive:
		switch a.Type {
		case ActionAttack:
			score *= 0.8
		case ActionDefend:
			score *= 1.3
		}
	}
	return ScoredAction{Action: a, Score: max(0, score), Rationale: why}
}

// ScoreAllActions scores every candidate and returns them best first.
func (u UtilityScorer) ScoreAllActions(sc ScoringContext) ScoringResult {
	var res ScoringResult
	for _, a := range u.GenerateAllActions(sc) {
		res.Actions = append(res.Actions, u.ScoreAction(a, sc))
	}
	sortScored(res.Actions)
	if len(res.Actions) > 0 {
		best := res.Actions[0]
		res.BestAction = &best
	}
	return res
}

// GetRecommendedActionType returns the action type whose best valid action
// scores highest. A faction commits to one action type per turn.
func (UtilityScorer) GetRecommendedActionType(actions []ScoredAction) (ActionType, bool) {
	top := make(map[ActionType]float64)
	for _, a := range actions {
		if a.Invalid {
			continue
		}
		if s, ok := top[a.Action.Type]; !ok || a.Score > s {
			top[a.Action.Type] = a.Score
		}
	}
	var best ActionType
	found := false
	for _, t := range actionTypeOrder {
		s, ok := top[t]
		if !ok {
			continue
		}
		if !found || s > top[best] {
			best, found = t, true
		}
	}
	return best, found
}

// sortScored orders actions by descending score, then id.
func sortScored(actions []ScoredAction) {
	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].Score != actions[j].Score {
			return actions[i].Score > actions[j].Score
		}
		return actions[i].Action.ID < actions[j].Action.ID
	})
}

func factionByID(factions []sector.Faction, id string) *sector.Faction {
	for i := range factions {
		if factions[i].ID == id {
			return &factions[i]
		}
	}
	return nil
}
