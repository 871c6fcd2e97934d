package sector

import "math/rand"

// checkDie is the die each side rolls in an opposed attribute check.
const checkDie = 10

// Odds is the default combat-odds arithmetic: each side rolls 1d10 and adds
// its attribute; the attacker succeeds only on a strictly greater total.
type Odds struct{}

// WinProbability returns the chance the attacker's check beats the defender's.
// The attribute names do not change the arithmetic; only the values do.
func (Odds) WinProbability(_ Attribute, attackerValue int, _ Attribute, defenderValue int) float64 {
	wins := 0
	for a := 1; a <= checkDie; a++ {
		for d := 1; d <= checkDie; d++ {
			if a+attackerValue > d+defenderValue {
				wins++
			}
		}
	}
	return float64(wins) / float64(checkDie*checkDie)
}

// ExpectedDamage returns the mean of a damage expression. Unparseable
// expressions count as zero damage.
func (Odds) ExpectedDamage(expr string) float64 {
	d, err := ParseDice(expr)
	if err != nil {
		return 0
	}
	return d.Expected()
}

// CheckResult is the outcome of one rolled opposed check.
type CheckResult struct {
	AttackerRoll int
	DefenderRoll int
	Success      bool
	Tie          bool
}

// RollCheck resolves one opposed check with the given random source.
func RollCheck(r *rand.Rand, attackerValue, defenderValue int) CheckResult {
	a := r.Intn(checkDie) + 1 + attackerValue
	d := r.Intn(checkDie) + 1 + defenderValue
	return CheckResult{AttackerRoll: a, DefenderRoll: d, Success: a > d, Tie: a == d}
}
