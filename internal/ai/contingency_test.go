package ai

import "testing"

func TestPlanContingency_Triggered(t *testing.T) {
	env := ContingencyEnv{ThreatLevel: 72, FacCreds: 3, PlannedExpenses: 5, AssetsLost: 0, Posture: "defensive"}
	tests := []struct {
		cond string
		want bool
	}{
		{"ThreatLevel >= 60", true},
		{"AssetsLost > 0", false},
		{"FacCreds < PlannedExpenses", true},
		{`Posture == "defensive" && ThreatLevel > 80`, false},
		{"TargetEliminated || DamagedAssets > 1", false},
	}
	for _, tt := range tests {
		got, err := PlanContingency{Condition: tt.cond}.Triggered(env)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.cond, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: expected %v, got %v", tt.cond, tt.want, got)
		}
	}
}

func TestValidateCondition_Rejects(t *testing.T) {
	for _, cond := range []string{"UnknownField > 1", "ThreatLevel +", "FacCreds + 1"} {
		if err := ValidateCondition(cond); err == nil {
			t.Errorf("%q: expected a compile error", cond)
		}
		if _, err := (PlanContingency{Condition: cond}).Triggered(ContingencyEnv{}); err == nil {
			t.Errorf("%q: expected Triggered to surface the error", cond)
		}
	}
}

func TestContingencyEnv(t *testing.T) {
	snap := planningFixture()
	snap.Turn = 7
	snap.Factions[0].Assets = append(snap.Factions[0].Assets, asset("a2", "militia", "s1", 2, 4))
	pc := planningContext(t, snap, DifficultyNormal)

	plan := &AIStrategicPlan{
		CreatedTurn: 4,
		Baseline:    PlanBaseline{AssetCount: 3},
		Primary:     StrategicObjective{TargetFactionID: "f2"},
		TurnPlans:   []TurnPlan{{Turn: 0, Expenses: 6}},
	}
	env := contingencyEnv(plan, pc)
	if env.PlanAge != 3 {
		t.Errorf("expected plan age 3, got %d", env.PlanAge)
	}
	if env.AssetCount != 2 || env.AssetsLost != 1 || env.DamagedAssets != 1 {
		t.Errorf("unexpected asset counters %+v", env)
	}
	if env.PlannedExpenses != 6 || env.FacCreds != 10 {
		t.Errorf("expected expenses 6 and creds 10, got %d and %d", env.PlannedExpenses, env.FacCreds)
	}
	if env.TargetEliminated {
		t.Error("expected f2 alive")
	}

	snap.Factions = snap.Factions[:1]
	pc = planningContext(t, snap, DifficultyNormal)
	if !contingencyEnv(plan, pc).TargetEliminated {
		t.Error("expected missing target to count as eliminated")
	}
}
