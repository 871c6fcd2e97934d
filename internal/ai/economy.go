package ai

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/freeeve/faction-ai/pkg/sector"
)

// EconomyDecision is the single economic action a faction takes this turn.
type EconomyDecision string

const (
	EconomyRepair   EconomyDecision = "repair"
	EconomyPurchase EconomyDecision = "purchase"
	EconomyNone     EconomyDecision = "none"
)

// RepairDecision heals one asset.
type RepairDecision struct {
	AssetID      string `json:"asset_id"`
	DefinitionID string `json:"definition_id"`
	HPBefore     int    `json:"hp_before"`
	DamageHealed int    `json:"damage_healed"`
	Cost         int    `json:"cost"`
}

// PurchaseRecommendation is an asset to buy and where to deploy it.
type PurchaseRecommendation struct {
	DefinitionID string  `json:"definition_id"`
	Name         string  `json:"name"`
	Location     string  `json:"location"`
	Cost         int     `json:"cost"`
	Score        float64 `json:"score"`
}

// EconomicPlan is the economy phase's output.
type EconomicPlan struct {
	Repairs   []RepairDecision        `json:"repairs"`
	Purchase  *PurchaseRecommendation `json:"purchase,omitempty"`
	Budget    int                     `json:"budget"`
	Reserve   int                     `json:"reserve"`
	Rationale string                  `json:"rationale"`
}

// RepairCost returns the total cost of the plan's repairs.
func (p EconomicPlan) RepairCost() int {
	total := 0
	for _, r := range p.Repairs {
		total += r.Cost
	}
	return total
}

const (
	defaultReserveFraction = 0.25
	minReserve             = 1
)

// AIEconomyManager decides repairs and purchases under a reserve policy.
type AIEconomyManager struct {
	Catalog sector.Catalog
	Odds    CombatOdds
	// ReserveFraction of the balance is never spent; at least minReserve is
	// always kept, so the whole balance is never spent.
	ReserveFraction float64
}

// GenerateEconomicPlan orders repairs most-critical first (cheapest on ties)
// and recommends at most one affordable purchase the faction is rated for.
func (m AIEconomyManager) GenerateEconomicPlan(faction *sector.Faction, systems []sector.System, threat *SectorThreatOverview, intent StrategicIntent) EconomicPlan {
	if threat == nil {
		threat = EmptyThreatOverview(faction.ID)
	}
	frac := m.ReserveFraction
	if frac <= 0 {
		frac = defaultReserveFraction
	}
	switch {
	case threat.Posture == PostureDefensive:
		frac *= 0.6
	case intent.PrimaryFocus == FocusEconomy:
		frac *= 1.6
	}

	plan := EconomicPlan{}
	if faction.FacCreds > 0 {
		plan.Reserve = max(minReserve, int(math.Ceil(float64(faction.FacCreds)*frac)))
		plan.Budget = max(0, faction.FacCreds-plan.Reserve)
	}
	var why []string

	// Repairs
	type candidate struct {
		asset sector.Asset
		ratio float64
		heal  int
		cost  int
	}
	var damaged []candidate
	for _, a := range faction.Assets {
		if !a.Damaged() || a.HP <= 0 {
			continue
		}
		attr := sector.Force
		if def, ok := lookup(m.Catalog, a.DefinitionID); ok {
			attr = def.Category
		}
		heal := min(a.MaxHP-a.HP, max(1, faction.Rating(attr)))
		damaged = append(damaged, candidate{
			asset: a,
			ratio: float64(a.HP) / float64(max(1, a.MaxHP)),
			heal:  heal,
			cost:  max(1, (heal+1)/2),
		})
	}
	sort.SliceStable(damaged, func(i, j int) bool {
		if damaged[i].ratio != damaged[j].ratio {
			return damaged[i].ratio < damaged[j].ratio
		}
		if damaged[i].cost != damaged[j].cost {
			return damaged[i].cost < damaged[j].cost
		}
		return damaged[i].asset.ID < damaged[j].asset.ID
	})
	remaining := plan.Budget
	for _, c := range damaged {
		if c.cost > remaining {
			continue
		}
		remaining -= c.cost
		plan.Repairs = append(plan.Repairs, RepairDecision{
			AssetID:      c.asset.ID,
			DefinitionID: c.asset.DefinitionID,
			HPBefore:     c.asset.HP,
			DamageHealed: c.heal,
			Cost:         c.cost,
		})
	}
	if len(plan.Repairs) > 0 {
		why = append(why, fmt.Sprintf("repair %d damaged asset(s) for %d", len(plan.Repairs), plan.RepairCost()))
	} else if len(damaged) > 0 {
		why = append(why, "repairs needed but unaffordable within reserve")
	}

	// Purchase
	if p := m.recommendPurchase(faction, systems, threat, intent, remaining); p != nil {
		plan.Purchase = p
		why = append(why, fmt.Sprintf("buy %s at %s for %d", p.Name, p.Location, p.Cost))
	}

	if len(why) == 0 {
		why = append(why, "nothing to repair or buy")
	}
	plan.Rationale = fmt.Sprintf("%s (balance %d, reserve %d)", strings.Join(why, "; "), faction.FacCreds, plan.Reserve)
	return plan
}

func (m AIEconomyManager) recommendPurchase(faction *sector.Faction, systems []sector.System, threat *SectorThreatOverview, intent StrategicIntent, budget int) *PurchaseRecommendation {
	if budget <= 0 || m.Catalog == nil {
		return nil
	}
	loc := deploymentLocation(faction, systems, threat)
	if loc == "" {
		return nil
	}
	o := odds(m.Odds)

	var best *PurchaseRecommendation
	for _, def := range m.Catalog.All() {
		if def.Cost <= 0 || def.Cost > budget || faction.Rating(def.Category) < def.Rating {
			continue
		}
		score := intent.Defense * (float64(def.HP) + 2*o.ExpectedDamage(def.Counterattack))
		if def.CanAttack() {
			score += intent.Aggression * 3 * o.ExpectedDamage(def.Attack.Damage)
		}
		if def.Category == sector.Wealth {
			score += intent.Economy * 5
		}
		if def.Stealth {
			score += intent.Expansion * 3
		}
		if threat.Posture == PostureDefensive {
			score += float64(def.HP)
		}
		score /= math.Sqrt(float64(def.Cost))
		if best == nil || score > best.Score || (score == best.Score && def.ID < best.DefinitionID) {
			best = &PurchaseRecommendation{
				DefinitionID: def.ID,
				Name:         def.Name,
				Location:     loc,
				Cost:         def.Cost,
				Score:        score,
			}
		}
	}
	return best
}

// deploymentLocation picks where a new asset should appear: the most
// threatened held system under a defensive posture, otherwise the
// homeworld, otherwise the first system the faction occupies.
func deploymentLocation(faction *sector.Faction, systems []sector.System, threat *SectorThreatOverview) string {
	idx := sector.SystemIndex(systems)
	held := faction.Locations()
	if faction.Homeworld != "" {
		held = append([]string{faction.Homeworld}, held...)
	}
	if threat.Posture == PostureDefensive {
		best, bestLevel := "", -1.0
		for _, loc := range held {
			if _, ok := idx[loc]; ok && threat.Level(loc) > bestLevel {
				best, bestLevel = loc, threat.Level(loc)
			}
		}
		if best != "" {
			return best
		}
	}
	for _, loc := range held {
		if _, ok := idx[loc]; ok {
			return loc
		}
	}
	return ""
}

// GetEconomyAction reduces a plan to the one economic action for this turn.
// Repairs take precedence over purchases.
func (AIEconomyManager) GetEconomyAction(plan EconomicPlan) EconomyDecision {
	switch {
	case len(plan.Repairs) > 0:
		return EconomyRepair
	case plan.Purchase != nil:
		return EconomyPurchase
	}
	return EconomyNone
}
