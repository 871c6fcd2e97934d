package ai

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/freeeve/faction-ai/pkg/sector"
)

func attackFixture() ([]sector.Faction, ScoringResult) {
	factions := []sector.Faction{
		{ID: "f1", Force: 3, Assets: []sector.Asset{asset("a1", "militia", "s1", 4, 4)}},
		{ID: "f2", Force: 3, Assets: []sector.Asset{asset("b1", "militia", "s1", 4, 4)}},
	}
	attack := PotentialAction{
		ID: "attack:a1:s1:b1", Type: ActionAttack, FactionID: "f1", AssetID: "a1", DefinitionID: "militia",
		FromSystemID: "s1", TargetSystemID: "s1", TargetFactionID: "f2", TargetAssetID: "b1",
	}
	base := ScoringResult{Actions: []ScoredAction{
		{Action: attack, Score: 60, Rationale: "attack b1"},
		{Action: PotentialAction{ID: "defend:a1:s1", Type: ActionDefend, FactionID: "f1", AssetID: "a1", TargetSystemID: "s1"}, Score: 30},
	}}
	return factions, base
}

func TestParseDifficulty(t *testing.T) {
	tests := map[string]Difficulty{
		"easy":   DifficultyEasy,
		"medium": DifficultyNormal,
		"normal": DifficultyNormal,
		"HARD":   DifficultyHard,
		"expert": DifficultyExpert,
		"bogus":  DifficultyNormal,
	}
	for in, want := range tests {
		if got := ParseDifficulty(in); got != want {
			t.Errorf("%q: expected %s, got %s", in, want, got)
		}
	}
}

func TestApplyDifficultyScaling_SortedForAllDifficulties(t *testing.T) {
	factions, base := attackFixture()
	for _, d := range []Difficulty{DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyExpert} {
		s := DifficultyScaler{Catalog: testCatalog(), Rand: seeded()}
		res := s.ApplyDifficultyScaling(base, &factions[0], factions, d)
		if len(res.AdjustedActions) != len(base.Actions) {
			t.Fatalf("%s: expected %d actions, got %d", d, len(base.Actions), len(res.AdjustedActions))
		}
		for i := 1; i < len(res.AdjustedActions); i++ {
			if res.AdjustedActions[i].Score > res.AdjustedActions[i-1].Score {
				t.Errorf("%s: not sorted at %d", d, i)
			}
		}
		if res.BestAction == nil || res.BestAction.Action.ID != res.AdjustedActions[0].Action.ID {
			t.Errorf("%s: expected best action to be the first element", d)
		}

		empty := s.ApplyDifficultyScaling(ScoringResult{}, &factions[0], factions, d)
		if empty.BestAction != nil {
			t.Errorf("%s: expected nil best action for empty input", d)
		}
	}
	if base.Actions[0].Score != 60 {
		t.Error("expected input result to be left untouched")
	}
}

func TestApplyDifficultyScaling_NormalPassThrough(t *testing.T) {
	factions, base := attackFixture()
	res := DifficultyScaler{Catalog: testCatalog()}.ApplyDifficultyScaling(base, &factions[0], factions, DifficultyNormal)
	if res.AdjustedActions[0].Score != 60 || res.AdjustedActions[1].Score != 30 {
		t.Errorf("expected unchanged scores, got %.2f and %.2f", res.AdjustedActions[0].Score, res.AdjustedActions[1].Score)
	}
	if len(res.Evaluations) != 0 {
		t.Errorf("expected no evaluations on normal, got %d", len(res.Evaluations))
	}
}

func TestAddNoise_BoundsAndMean(t *testing.T) {
	r := seeded()
	const n = 5000
	sum := 0.0
	for i := 0; i < n; i++ {
		v := addNoise(50, 30, r)
		if v < 20 || v > 80 {
			t.Fatalf("noise out of bounds: %.2f", v)
		}
		sum += v
	}
	if mean := sum / n; math.Abs(mean-50) > 2 {
		t.Errorf("expected mean near 50, got %.2f", mean)
	}
	for i := 0; i < 100; i++ {
		if v := addNoise(5, 30, r); v < 0 {
			t.Fatalf("expected noise floored at 0, got %.2f", v)
		}
	}
}

func TestPredictCombatOutcome_ThresholdIsExclusiveBelow(t *testing.T) {
	factions, base := attackFixture()
	cfg := ConfigFor(DifficultyHard)

	at := DifficultyScaler{Catalog: testCatalog(), Odds: stubOdds{win: 0.40}}
	if ev := at.PredictCombatOutcome(base.Actions[0].Action, &factions[0], factions, cfg); ev.Recommendation == RecommendAvoid {
		t.Errorf("expected win probability at threshold not to be avoided, got %s", ev.Recommendation)
	}

	below := DifficultyScaler{Catalog: testCatalog(), Odds: stubOdds{win: 0.3999}}
	if ev := below.PredictCombatOutcome(base.Actions[0].Action, &factions[0], factions, cfg); ev.Recommendation != RecommendAvoid {
		t.Errorf("expected avoid just below threshold, got %s", ev.Recommendation)
	}
}

func TestApplyDifficultyScaling_ExpertAvoidsLowOdds(t *testing.T) {
	factions, base := attackFixture()
	s := DifficultyScaler{Catalog: testCatalog(), Odds: stubOdds{win: 0.35}}
	res := s.ApplyDifficultyScaling(base, &factions[0], factions, DifficultyExpert)

	if len(res.Evaluations) != 1 {
		t.Fatalf("expected 1 evaluation, got %d", len(res.Evaluations))
	}
	ev := res.Evaluations[0]
	if ev.Recommendation != RecommendAvoid {
		t.Errorf("expected avoid, got %s", ev.Recommendation)
	}
	if ev.Adjustment != -50 {
		t.Errorf("expected adjustment -50, got %.2f", ev.Adjustment)
	}
	for _, a := range res.AdjustedActions {
		if a.Action.Type == ActionAttack && a.Score != 10 {
			t.Errorf("expected adjusted score max(0, 60-50) = 10, got %.2f", a.Score)
		}
	}
	if res.BestAction.Action.Type != ActionDefend {
		t.Errorf("expected defend to become best, got %s", res.BestAction.Action.Type)
	}
}

func TestPredictCombatOutcome_Values(t *testing.T) {
	factions, base := attackFixture()
	cfg := ConfigFor(DifficultyHard)
	s := DifficultyScaler{Catalog: testCatalog(), Odds: stubOdds{win: 0.6}}
	ev := s.PredictCombatOutcome(base.Actions[0].Action, &factions[0], factions, cfg)

	// dealt E[1d6]=3.5, taken E[1d4]*(1-0.6)=1.0, attacker hp 4 > 2.5 so no death risk
	if math.Abs(ev.ExpectedDamageDealt-3.5) > 1e-9 {
		t.Errorf("expected dealt 3.5, got %.3f", ev.ExpectedDamageDealt)
	}
	if math.Abs(ev.ExpectedDamageTaken-1.0) > 1e-9 {
		t.Errorf("expected taken 1.0, got %.3f", ev.ExpectedDamageTaken)
	}
	if ev.DeathProbability != 0 || ev.DeathPenalty != 0 {
		t.Errorf("expected no death risk, got %.3f / %.3f", ev.DeathProbability, ev.DeathPenalty)
	}
	if want := 3.5*0.6 - 1.0; math.Abs(ev.NetExpectedValue-want) > 1e-9 {
		t.Errorf("expected net %.3f, got %.3f", want, ev.NetExpectedValue)
	}
	if ev.Recommendation != RecommendAttack {
		t.Errorf("expected attack, got %s", ev.Recommendation)
	}
	if want := math.Min(30, ev.NetExpectedValue*2); ev.Adjustment != want {
		t.Errorf("expected bonus %.3f, got %.3f", want, ev.Adjustment)
	}
}

func TestPredictCombatOutcome_DeathPenalty(t *testing.T) {
	factions, base := attackFixture()
	factions[0].Assets[0].HP = 2
	s := DifficultyScaler{Catalog: testCatalog(), Odds: stubOdds{win: 0.5}}
	ev := s.PredictCombatOutcome(base.Actions[0].Action, &factions[0], factions, ConfigFor(DifficultyHard))

	// hp 2 <= E[1d4] 2.5: death probability 0.5, penalty 0.5 * cost 3 * 5
	if ev.DeathProbability != 0.5 {
		t.Errorf("expected death probability 0.5, got %.3f", ev.DeathProbability)
	}
	if math.Abs(ev.DeathPenalty-7.5) > 1e-9 {
		t.Errorf("expected death penalty 7.5, got %.3f", ev.DeathPenalty)
	}
}

func TestApplyDifficultyScaling_InvalidReferences(t *testing.T) {
	factions, base := attackFixture()
	base.Actions[0].Action.TargetAssetID = "ghost"

	for _, d := range []Difficulty{DifficultyHard, DifficultyExpert} {
		res := DifficultyScaler{Catalog: testCatalog()}.ApplyDifficultyScaling(base, &factions[0], factions, d)
		var found *ScoredAction
		for i := range res.AdjustedActions {
			if res.AdjustedActions[i].Action.Type == ActionAttack {
				found = &res.AdjustedActions[i]
			}
		}
		if found == nil {
			t.Fatalf("%s: expected invalid attack to stay in the list", d)
		}
		if !found.Invalid || found.Score != 0 {
			t.Errorf("%s: expected invalid with score 0, got invalid=%v score=%.2f", d, found.Invalid, found.Score)
		}
		if !strings.Contains(found.InvalidReason, ErrInvalidAction.Error()) {
			t.Errorf("%s: expected reason to mention invalid action, got %q", d, found.InvalidReason)
		}
		if len(res.Evaluations) != 1 || !res.Evaluations[0].Invalid {
			t.Errorf("%s: expected one invalid evaluation in diagnostics", d)
		}
	}

	_, base = attackFixture()
	base.Actions[0].Action.AssetID = "ghost"
	res := DifficultyScaler{Catalog: testCatalog()}.ApplyDifficultyScaling(base, &factions[0], factions, DifficultyHard)
	if !res.Evaluations[0].Invalid {
		t.Error("expected missing attacker to be invalid")
	}

	_, base = attackFixture()
	res = DifficultyScaler{Catalog: sector.NewMapCatalog()}.ApplyDifficultyScaling(base, &factions[0], factions, DifficultyHard)
	if !res.Evaluations[0].Invalid {
		t.Error("expected missing definitions to be invalid")
	}
}

func TestAnalyzeRetreatNecessity(t *testing.T) {
	factions := []sector.Faction{
		{ID: "f1", Force: 1, Assets: []sector.Asset{
			asset("a1", "militia", "s1", 1, 4),
			asset("a2", "bank", "s2", 5, 5),
		}},
		{ID: "f2", Force: 8, Assets: []sector.Asset{
			asset("b1", "strike_fleet", "s1", 8, 8),
			asset("b2", "strike_fleet", "s2", 8, 8),
		}},
	}
	s := DifficultyScaler{Catalog: testCatalog(), Odds: stubOdds{win: 0.9}}

	if res := s.AnalyzeRetreatNecessity(&factions[0], factions, DifficultyNormal); res.Applicable {
		t.Error("expected retreat analysis not to apply on normal")
	}

	res := s.AnalyzeRetreatNecessity(&factions[0], factions, DifficultyHard)
	if !res.Applicable {
		t.Fatal("expected analysis on hard")
	}
	if len(res.AtRisk) != 2 {
		t.Fatalf("expected 2 assets at risk, got %d", len(res.AtRisk))
	}
	if !res.ShouldRetreat || res.RiskRatio <= 0.5 {
		t.Errorf("expected retreat with ratio > 0.5, got %v (%.2f)", res.ShouldRetreat, res.RiskRatio)
	}

	factions[1].Assets = nil
	res = s.AnalyzeRetreatNecessity(&factions[0], factions, DifficultyExpert)
	if res.ShouldRetreat || res.RiskRatio != 0 {
		t.Errorf("expected no retreat without threats, got %.2f", res.RiskRatio)
	}
}

func TestPhaseError_Unwrap(t *testing.T) {
	err := error(&PhaseError{Phase: PhaseGoal, FactionID: "f1", Err: ErrNoFaction})
	if !errors.Is(err, ErrNoFaction) {
		t.Error("expected PhaseError to unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "goal") {
		t.Errorf("expected phase in message, got %q", err.Error())
	}
}
