package ai

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/freeeve/faction-ai/pkg/sector"
)

// Difficulty selects how much the AI's choices are degraded or sharpened.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// ParseDifficulty maps a level name to a Difficulty. "medium" is an alias
// for normal; unknown names fall back to normal.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy
	case "hard":
		return DifficultyHard
	case "expert":
		return DifficultyExpert
	default:
		return DifficultyNormal
	}
}

// DifficultyConfig tunes one difficulty level.
type DifficultyConfig struct {
	NoiseRange        float64 `json:"noise_range"`
	UseMinimax        bool    `json:"use_minimax"`
	MinWinProbability float64 `json:"min_win_probability"`
	DamageWeight      float64 `json:"damage_weight"`
	SurvivalWeight    float64 `json:"survival_weight"`
	PlanHorizon       int     `json:"plan_horizon"`
}

var difficultyConfigs = map[Difficulty]DifficultyConfig{
	DifficultyEasy:   {NoiseRange: 30, DamageWeight: 1, SurvivalWeight: 1, PlanHorizon: 1},
	DifficultyNormal: {DamageWeight: 1, SurvivalWeight: 1, PlanHorizon: 2},
	DifficultyHard:   {UseMinimax: true, MinWinProbability: 0.40, DamageWeight: 1, SurvivalWeight: 1, PlanHorizon: 3},
	DifficultyExpert: {UseMinimax: true, MinWinProbability: 0.50, DamageWeight: 1.2, SurvivalWeight: 1.5, PlanHorizon: 4},
}

// ConfigFor returns the tuning for a difficulty.
func ConfigFor(d Difficulty) DifficultyConfig {
	if c, ok := difficultyConfigs[d]; ok {
		return c
	}
	return difficultyConfigs[DifficultyNormal]
}

const (
	deathSeverity     = 5.0
	riskyNetValue     = -10.0
	avoidAdjustment   = -50.0
	riskyAdjustment   = -25.0
	maxAttackBonus    = 30.0
	retreatRiskRatio  = 0.5
	unknownAssetValue = 1
)

// Recommendation is the combat predictor's verdict on an attack.
type Recommendation string

const (
	RecommendAttack  Recommendation = "attack"
	RecommendRisky   Recommendation = "risky"
	RecommendAvoid   Recommendation = "avoid"
	RecommendInvalid Recommendation = "invalid"
)

// MinimaxEvaluation is a one-ply expected-value prediction for an attack.
type MinimaxEvaluation struct {
	ActionID            string         `json:"action_id"`
	WinProbability      float64        `json:"win_probability"`
	ExpectedDamageDealt float64        `json:"expected_damage_dealt"`
	ExpectedDamageTaken float64        `json:"expected_damage_taken"`
	DeathProbability    float64        `json:"death_probability"`
	DeathPenalty        float64        `json:"death_penalty"`
	NetExpectedValue    float64        `json:"net_expected_value"`
	Recommendation      Recommendation `json:"recommendation"`
	Adjustment          float64        `json:"adjustment"`
	Invalid             bool           `json:"invalid,omitempty"`
	Reason              string         `json:"reason,omitempty"`
}

// DifficultyAdjustedResult is the scored action list after adjustment.
type DifficultyAdjustedResult struct {
	Difficulty      Difficulty          `json:"difficulty"`
	AdjustedActions []ScoredAction      `json:"adjusted_actions"`
	BestAction      *ScoredAction       `json:"best_action,omitempty"`
	Evaluations     []MinimaxEvaluation `json:"evaluations,omitempty"`
}

// DifficultyScaler post-processes scored actions. It holds no turn state.
type DifficultyScaler struct {
	Catalog sector.Catalog
	Odds    CombatOdds
	Rand    *rand.Rand
}

// ApplyDifficultyScaling adds noise on easy, passes normal through, and on
// hard/expert re-evaluates every attack with PredictCombatOutcome. The
// result is sorted by descending score with the top action as BestAction.
// The input result is not modified.
func (d DifficultyScaler) ApplyDifficultyScaling(base ScoringResult, faction *sector.Faction, factions []sector.Faction, difficulty Difficulty) DifficultyAdjustedResult {
	cfg := ConfigFor(difficulty)
	out := DifficultyAdjustedResult{
		Difficulty:      difficulty,
		AdjustedActions: append([]ScoredAction(nil), base.Actions...),
	}

	switch {
	case cfg.NoiseRange > 0:
		r := d.Rand
		if r == nil {
			r = newRand(0)
		}
		for i := range out.AdjustedActions {
			out.AdjustedActions[i].Score = addNoise(out.AdjustedActions[i].Score, cfg.NoiseRange, r)
		}
	case cfg.UseMinimax:
		for i := range out.AdjustedActions {
			sa := &out.AdjustedActions[i]
			if sa.Action.Type != ActionAttack {
				continue
			}
			ev := d.PredictCombatOutcome(sa.Action, faction, factions, cfg)
			if ev.Invalid {
				sa.Score = 0
				sa.Invalid = true
				sa.InvalidReason = ev.Reason
			} else {
				sa.Score = max(0, sa.Score+ev.Adjustment)
				sa.Rationale = fmt.Sprintf("%s; minimax %s (ev %.1f)", sa.Rationale, ev.Recommendation, ev.NetExpectedValue)
			}
			evCopy := ev
			sa.Minimax = &evCopy
			out.Evaluations = append(out.Evaluations, ev)
		}
	}

	sortScored(out.AdjustedActions)
	if len(out.AdjustedActions) > 0 {
		best := out.AdjustedActions[0]
		out.BestAction = &best
	}
	return out
}

// addNoise perturbs a score uniformly within ±noiseRange, floored at zero.
func addNoise(score, noiseRange float64, r *rand.Rand) float64 {
	return max(0, score+uniform(r, noiseRange))
}

// PredictCombatOutcome evaluates one attack. Unresolvable attacker, target or
// definitions produce an Invalid evaluation rather than an error.
func (d DifficultyScaler) PredictCombatOutcome(a PotentialAction, faction *sector.Faction, factions []sector.Faction, cfg DifficultyConfig) MinimaxEvaluation {
	ev := MinimaxEvaluation{ActionID: a.ID}
	invalid := func(format string, args ...any) MinimaxEvaluation {
		ev.Invalid = true
		ev.Recommendation = RecommendInvalid
		ev.Reason = fmt.Errorf("%w: "+format, append([]any{ErrInvalidAction}, args...)...).Error()
		return ev
	}

	if faction == nil {
		return invalid("attacking faction missing")
	}
	attacker := faction.Asset(a.AssetID)
	if attacker == nil {
		return invalid("attacker %s not found", a.AssetID)
	}
	adef, ok := lookup(d.Catalog, attacker.DefinitionID)
	if !ok || !adef.CanAttack() {
		return invalid("attacker definition %s not found or cannot attack", attacker.DefinitionID)
	}
	defender := factionByID(factions, a.TargetFactionID)
	if defender == nil {
		return invalid("target faction %s not found", a.TargetFactionID)
	}
	target := defender.Asset(a.TargetAssetID)
	if target == nil {
		return invalid("target %s not found", a.TargetAssetID)
	}
	tdef, ok := lookup(d.Catalog, target.DefinitionID)
	if !ok {
		return invalid("target definition %s not found", target.DefinitionID)
	}

	o := odds(d.Odds)
	atk := adef.Attack
	ev.WinProbability = o.WinProbability(atk.Attacker, faction.Rating(atk.Attacker), atk.Defender, defender.Rating(atk.Defender))
	ev.ExpectedDamageDealt = o.ExpectedDamage(atk.Damage)
	counter := o.ExpectedDamage(tdef.Counterattack)
	ev.ExpectedDamageTaken = counter * (1 - ev.WinProbability)
	if counter > 0 && float64(attacker.HP) <= counter {
		ev.DeathProbability = 1 - ev.WinProbability
	}
	ev.DeathPenalty = ev.DeathProbability * float64(adef.Cost) * deathSeverity
	ev.NetExpectedValue = ev.ExpectedDamageDealt*ev.WinProbability*cfg.DamageWeight -
		ev.ExpectedDamageTaken*cfg.SurvivalWeight - ev.DeathPenalty

	switch {
	case ev.WinProbability < cfg.MinWinProbability:
		ev.Recommendation = RecommendAvoid
		ev.Adjustment = avoidAdjustment
	case ev.NetExpectedValue < riskyNetValue:
		ev.Recommendation = RecommendRisky
		ev.Adjustment = riskyAdjustment
	default:
		ev.Recommendation = RecommendAttack
		ev.Adjustment = math.Min(maxAttackBonus, ev.NetExpectedValue*2)
	}
	return ev
}

// AssetRisk is one asset's chance of being destroyed where it stands.
type AssetRisk struct {
	AssetID          string  `json:"asset_id"`
	Location         string  `json:"location"`
	DeathProbability float64 `json:"death_probability"`
	ValueAtRisk      float64 `json:"value_at_risk"`
}

// RetreatAnalysis summarizes whether a faction's exposed assets should pull back.
type RetreatAnalysis struct {
	Applicable    bool        `json:"applicable"`
	ShouldRetreat bool        `json:"should_retreat"`
	RiskRatio     float64     `json:"risk_ratio"`
	AtRisk        []AssetRisk `json:"at_risk,omitempty"`
}

// AnalyzeRetreatNecessity weighs, per asset under fire, the cost-weighted
// chance of losing it to every visible enemy attacker in its system, and
// recommends retreat when that exceeds half the faction's asset value.
// It only applies on hard and expert.
func (d DifficultyScaler) AnalyzeRetreatNecessity(faction *sector.Faction, factions []sector.Faction, difficulty Difficulty) RetreatAnalysis {
	if !ConfigFor(difficulty).UseMinimax || faction == nil {
		return RetreatAnalysis{}
	}
	res := RetreatAnalysis{Applicable: true}
	o := odds(d.Odds)

	total, risk := 0.0, 0.0
	for _, a := range faction.Assets {
		if a.HP <= 0 {
			continue
		}
		cost := float64(unknownAssetValue)
		if def, ok := lookup(d.Catalog, a.DefinitionID); ok && def.Cost > 0 {
			cost = float64(def.Cost)
		}
		total += cost

		survive := 1.0
		threatened := false
		for _, enemy := range factions {
			if enemy.ID == faction.ID || enemy.Eliminated {
				continue
			}
			for _, e := range enemy.Assets {
				if e.Location != a.Location || e.Stealthed || e.HP <= 0 {
					continue
				}
				edef, ok := lookup(d.Catalog, e.DefinitionID)
				if !ok || !edef.CanAttack() {
					continue
				}
				threatened = true
				atk := edef.Attack
				pWin := o.WinProbability(atk.Attacker, enemy.Rating(atk.Attacker), atk.Defender, faction.Rating(atk.Defender))
				dmg := o.ExpectedDamage(atk.Damage)
				survive *= 1 - pWin*math.Min(1, dmg/float64(a.HP))
			}
		}
		if !threatened {
			continue
		}
		pDeath := 1 - survive
		risk += pDeath * cost
		res.AtRisk = append(res.AtRisk, AssetRisk{
			AssetID:          a.ID,
			Location:         a.Location,
			DeathProbability: pDeath,
			ValueAtRisk:      pDeath * cost,
		})
	}
	if total > 0 {
		res.RiskRatio = risk / total
	}
	res.ShouldRetreat = res.RiskRatio > retreatRiskRatio
	return res
}
