package ai

import (
	"math"
	"sort"

	"github.com/freeeve/faction-ai/pkg/sector"
)

// Posture is the defensive stance recommended by threat assessment.
type Posture string

const (
	PostureBalanced   Posture = "balanced"
	PostureDefensive  Posture = "defensive"
	PostureAggressive Posture = "aggressive"
)

// SystemThreat is the threat enemy assets pose to the faction in one system.
type SystemThreat struct {
	SystemID    string   `json:"system_id"`
	Level       float64  `json:"level"` // 0-100
	EnemyAssets int      `json:"enemy_assets"`
	AttackPower float64  `json:"attack_power"`
	Exposure    float64  `json:"exposure"`
	Factions    []string `json:"factions,omitempty"`
}

// ThreatSource is the enemy faction posing the greatest threat.
type ThreatSource struct {
	FactionID  string  `json:"faction_id"`
	SystemID   string  `json:"system_id"`
	Level      float64 `json:"level"`
	AssetCount int     `json:"asset_count"`
	Strength   float64 `json:"strength"`
}

// SectorThreatOverview is one faction's threat picture for the turn.
type SectorThreatOverview struct {
	FactionID     string                  `json:"faction_id"`
	Systems       map[string]SystemThreat `json:"systems"`
	PrimaryThreat *ThreatSource           `json:"primary_threat,omitempty"`
	OverallLevel  float64                 `json:"overall_level"`
	Posture       Posture                 `json:"posture"`
}

// EmptyThreatOverview is the all-zero fallback used when there are no systems.
func EmptyThreatOverview(factionID string) *SectorThreatOverview {
	return &SectorThreatOverview{
		FactionID: factionID,
		Systems:   map[string]SystemThreat{},
		Posture:   PostureBalanced,
	}
}

// Level returns the threat level in a system, zero when unknown.
func (o *SectorThreatOverview) Level(systemID string) float64 {
	if o == nil {
		return 0
	}
	return o.Systems[systemID].Level
}

// MostThreatened returns the system with the highest threat level, or "".
func (o *SectorThreatOverview) MostThreatened() string {
	if o == nil {
		return ""
	}
	best, bestLevel := "", 0.0
	for id, st := range o.Systems {
		if st.Level > bestLevel || (st.Level == bestLevel && st.Level > 0 && id < best) {
			best, bestLevel = id, st.Level
		}
	}
	return best
}

const (
	threatScale            = 5.0
	defensivePostureLevel  = 60.0
	pressuredPostureLevel  = 35.0
	aggressivePostureLevel = 20.0
)

// ThreatAssessment scores enemy pressure on a faction.
type ThreatAssessment struct {
	Catalog sector.Catalog
	Odds    CombatOdds
}

// Assess builds the threat overview for factionID. With no systems it
// returns the all-zero overview with a balanced posture.
func (t ThreatAssessment) Assess(factionID string, factions []sector.Faction, systems []sector.System) *SectorThreatOverview {
	out := EmptyThreatOverview(factionID)
	if len(systems) == 0 {
		return out
	}

	var self *sector.Faction
	for i := range factions {
		if factions[i].ID == factionID {
			self = &factions[i]
		}
	}

	idx := sector.SystemIndex(systems)
	presence := make(map[string]bool)
	if self != nil {
		for _, loc := range self.Locations() {
			presence[loc] = true
		}
		if self.Homeworld != "" {
			presence[self.Homeworld] = true
		}
	}

	// per-faction contribution, for picking the primary threat
	type contribution struct {
		total    float64
		assets   int
		bySystem map[string]float64
	}
	byFaction := make(map[string]*contribution)

	for _, sys := range systems {
		exposure := exposureAt(sys, presence, idx)
		st := SystemThreat{SystemID: sys.ID, Exposure: exposure}
		power := make(map[string]float64)
		for _, f := range factions {
			if f.ID == factionID || f.Eliminated {
				continue
			}
			for _, a := range f.Assets {
				if a.Location != sys.ID || a.Stealthed || a.HP <= 0 {
					continue
				}
				p := t.assetThreat(a, &f)
				power[f.ID] += p
				st.AttackPower += p
				st.EnemyAssets++
			}
		}
		st.Level = math.Min(100, st.AttackPower*threatScale*exposure)
		for fid, p := range power {
			st.Factions = append(st.Factions, fid)
			c := byFaction[fid]
			if c == nil {
				c = &contribution{bySystem: make(map[string]float64)}
				byFaction[fid] = c
			}
			share := 0.0
			if st.AttackPower > 0 {
				share = st.Level * p / st.AttackPower
			}
			c.total += share
			c.bySystem[sys.ID] += share
		}
		sort.Strings(st.Factions)
		out.Systems[sys.ID] = st
	}

	var levels []float64
	for _, st := range out.Systems {
		if st.Level > 0 {
			levels = append(levels, st.Level)
		}
	}
	if len(levels) > 0 {
		peak, sum := 0.0, 0.0
		for _, l := range levels {
			peak = math.Max(peak, l)
			sum += l
		}
		out.OverallLevel = math.Min(100, 0.6*peak+0.4*sum/float64(len(levels)))
	}

	fids := make([]string, 0, len(byFaction))
	for fid := range byFaction {
		fids = append(fids, fid)
	}
	sort.Strings(fids)
	for _, fid := range fids {
		c := byFaction[fid]
		if c.total <= 0 {
			continue
		}
		if out.PrimaryThreat != nil && c.total <= out.PrimaryThreat.Level {
			continue
		}
		src := &ThreatSource{FactionID: fid, Level: c.total}
		bestSys := -1.0
		for sid, v := range c.bySystem {
			if v > bestSys || (v == bestSys && sid < src.SystemID) {
				bestSys, src.SystemID = v, sid
			}
		}
		for i := range factions {
			if factions[i].ID == fid {
				src.Strength = factionStrength(&factions[i])
				for _, a := range factions[i].Assets {
					if !a.Stealthed {
						src.AssetCount++
					}
				}
			}
		}
		out.PrimaryThreat = src
	}

	out.Posture = recommendPosture(self, out)
	return out
}

func exposureAt(sys sector.System, presence map[string]bool, idx map[string]sector.System) float64 {
	if presence[sys.ID] {
		return 1
	}
	for loc := range presence {
		if s, ok := idx[loc]; ok && sector.Distance(s.Hex, sys.Hex) == 1 {
			return 0.5
		}
	}
	return 0.25
}

// assetThreat is an enemy asset's capacity to hurt the faction.
func (t ThreatAssessment) assetThreat(a sector.Asset, owner *sector.Faction) float64 {
	def, ok := lookup(t.Catalog, a.DefinitionID)
	if !ok || !def.CanAttack() {
		return 0.5
	}
	dmg := odds(t.Odds).ExpectedDamage(def.Attack.Damage)
	return 2 + dmg*(1+float64(owner.Rating(def.Attack.Attacker))/4)
}

func recommendPosture(self *sector.Faction, o *SectorThreatOverview) Posture {
	if o.PrimaryThreat == nil {
		return PostureBalanced
	}
	own := 0.0
	if self != nil {
		own = factionStrength(self)
	}
	switch {
	case o.OverallLevel >= defensivePostureLevel:
		return PostureDefensive
	case o.OverallLevel >= pressuredPostureLevel && own < o.PrimaryThreat.Strength:
		return PostureDefensive
	case o.OverallLevel < aggressivePostureLevel && own >= o.PrimaryThreat.Strength:
		return PostureAggressive
	}
	return PostureBalanced
}

// factionStrength is a coarse measure of a faction's fighting weight.
func factionStrength(f *sector.Faction) float64 {
	s := float64(2 * (f.Force + f.Cunning + f.Wealth))
	for _, a := range f.Assets {
		s += float64(max(a.HP, 0))
	}
	return s
}

// DefensiveStrength sums what the faction can bring to bear in one system:
// asset hit points, doubled expected counterattack damage, and half the
// faction's own hit points at its homeworld.
func (t ThreatAssessment) DefensiveStrength(faction *sector.Faction, systemID string) float64 {
	if faction == nil {
		return 0
	}
	s := 0.0
	for _, a := range faction.AssetsAt(systemID) {
		s += float64(max(a.HP, 0))
		if def, ok := lookup(t.Catalog, a.DefinitionID); ok && def.Counterattack != "" {
			s += 2 * odds(t.Odds).ExpectedDamage(def.Counterattack)
		}
	}
	if faction.Homeworld == systemID {
		s += float64(faction.HP) / 2
	}
	return s
}

// ShouldRetreat is a quick heuristic: pull an asset out of a system whose
// threat is overwhelming, or heavy while the asset is badly hurt.
func (t ThreatAssessment) ShouldRetreat(faction *sector.Faction, asset sector.Asset, o *SectorThreatOverview) bool {
	level := o.Level(asset.Location)
	if level <= 0 {
		return false
	}
	hurt := asset.MaxHP > 0 && float64(asset.HP)/float64(asset.MaxHP) < 0.5
	if level >= 70 && t.DefensiveStrength(faction, asset.Location) < o.Systems[asset.Location].AttackPower*2 {
		return true
	}
	return level >= 40 && hurt
}

func lookup(c sector.Catalog, id string) (*sector.AssetDefinition, bool) {
	if c == nil {
		return nil, false
	}
	return c.Lookup(id)
}

func odds(o CombatOdds) CombatOdds {
	if o == nil {
		return sector.Odds{}
	}
	return o
}
