package ai

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ContingencyEnv is the environment contingency conditions are evaluated in.
// Conditions are expr-lang boolean expressions over these fields, e.g.
// "ThreatLevel >= 60 && HomeworldThreat > 0".
type ContingencyEnv struct {
	Turn             int
	PlanAge          int
	ThreatLevel      float64
	HomeworldThreat  float64
	FacCreds         int
	PlannedExpenses  int
	AssetCount       int
	AssetsLost       int
	DamagedAssets    int
	TargetEliminated bool
	Posture          string
}

var programs sync.Map // condition source -> *vm.Program

func compileCondition(src string) (*vm.Program, error) {
	if p, ok := programs.Load(src); ok {
		return p.(*vm.Program), nil
	}
	prog, err := expr.Compile(src, expr.Env(ContingencyEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile contingency %q: %w", src, err)
	}
	programs.Store(src, prog)
	return prog, nil
}

// ValidateCondition reports whether a contingency condition compiles.
func ValidateCondition(src string) error {
	_, err := compileCondition(src)
	return err
}

// Triggered evaluates the contingency's condition against env.
func (c PlanContingency) Triggered(env ContingencyEnv) (bool, error) {
	prog, err := compileCondition(c.Condition)
	if err != nil {
		return false, err
	}
	result, err := vm.Run(prog, env)
	if err != nil {
		return false, fmt.Errorf("run contingency %q: %w", c.Condition, err)
	}
	match, ok := result.(bool)
	return ok && match, nil
}

// contingencyEnv builds the evaluation environment for a plan in context.
func contingencyEnv(plan *AIStrategicPlan, pc PlanningContext) ContingencyEnv {
	env := ContingencyEnv{
		Turn:    pc.Turn,
		PlanAge: pc.Turn - plan.CreatedTurn,
	}
	if pc.Threat != nil {
		env.ThreatLevel = pc.Threat.OverallLevel
		env.Posture = string(pc.Threat.Posture)
	}
	if f := pc.Faction; f != nil {
		env.FacCreds = f.FacCreds
		env.HomeworldThreat = pc.Threat.Level(f.Homeworld)
		for _, a := range f.Assets {
			if a.HP <= 0 {
				continue
			}
			env.AssetCount++
			if a.Damaged() {
				env.DamagedAssets++
			}
		}
	}
	env.AssetsLost = max(0, plan.Baseline.AssetCount-env.AssetCount)
	if len(plan.TurnPlans) > 0 {
		env.PlannedExpenses = plan.TurnPlans[0].Expenses
	}
	if id := plan.Primary.TargetFactionID; id != "" {
		t := factionByID(pc.Factions, id)
		env.TargetEliminated = t == nil || t.Eliminated
	}
	return env
}
