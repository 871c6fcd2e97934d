package ai

import (
	"math"
	"sort"

	"github.com/freeeve/faction-ai/pkg/sector"
)

// Control classifies who holds a hex.
type Control string

const (
	ControlFriendly   Control = "friendly"
	ControlEnemy      Control = "enemy"
	ControlContested  Control = "contested"
	ControlUnoccupied Control = "unoccupied"
)

const (
	influenceRadius = 2
	// homeworldPresence is the presence a Base of Influence adds to its system.
	homeworldPresence = 2.0
)

// HexInfluence is the control accounting for one system's hex.
// Presence counts assets physically in the hex; Reach is influence
// spilling over from assets up to influenceRadius hexes away.
type HexInfluence struct {
	Hex              sector.Hex `json:"hex"`
	SystemID         string     `json:"system_id"`
	FriendlyPresence float64    `json:"friendly_presence"`
	EnemyPresence    float64    `json:"enemy_presence"`
	FriendlyReach    float64    `json:"friendly_reach"`
	EnemyReach       float64    `json:"enemy_reach"`
	Control          Control    `json:"control"`
}

// InfluenceMap is one faction's snapshot of sector control. It is rebuilt
// every analysis phase and never persisted.
type InfluenceMap struct {
	FactionID  string                  `json:"faction_id"`
	Cells      map[string]HexInfluence `json:"cells"` // keyed by system id
	Friendly   []sector.Hex            `json:"friendly"`
	Enemy      []sector.Hex            `json:"enemy"`
	Contested  []sector.Hex            `json:"contested"`
	Unoccupied []sector.Hex            `json:"unoccupied"`
}

// EmptyInfluenceMap is the fallback used when there are no systems.
func EmptyInfluenceMap(factionID string) *InfluenceMap {
	return &InfluenceMap{
		FactionID:  factionID,
		Cells:      map[string]HexInfluence{},
		Friendly:   []sector.Hex{},
		Enemy:      []sector.Hex{},
		Contested:  []sector.Hex{},
		Unoccupied: []sector.Hex{},
	}
}

// Control returns the classification of a system, unoccupied when unknown.
func (m *InfluenceMap) Control(systemID string) Control {
	if m == nil {
		return ControlUnoccupied
	}
	if c, ok := m.Cells[systemID]; ok {
		return c.Control
	}
	return ControlUnoccupied
}

// Empty reports whether the map classifies no hexes at all.
func (m *InfluenceMap) Empty() bool {
	return m == nil || len(m.Cells) == 0
}

// InfluenceMapService computes spatial control for a faction.
type InfluenceMapService struct{}

// Build classifies every system hex from the point of view of factionID.
// Stealthed enemy assets are invisible to it.
func (InfluenceMapService) Build(factionID string, factions []sector.Faction, systems []sector.System) *InfluenceMap {
	im := EmptyInfluenceMap(factionID)
	if len(systems) == 0 {
		return im
	}

	for _, sys := range systems {
		im.Cells[sys.ID] = HexInfluence{Hex: sys.Hex, SystemID: sys.ID}
	}
	idx := sector.SystemIndex(systems)

	for _, f := range factions {
		if f.Eliminated {
			continue
		}
		friendly := f.ID == factionID
		if f.Homeworld != "" {
			if cell, ok := im.Cells[f.Homeworld]; ok {
				addPresence(&cell, friendly, homeworldPresence)
				im.Cells[f.Homeworld] = cell
			}
		}
		for _, a := range f.Assets {
			origin, ok := idx[a.Location]
			if !ok || a.HP <= 0 || (a.Stealthed && !friendly) {
				continue
			}
			weight := assetWeight(a)
			for _, sys := range systems {
				d := sector.Distance(origin.Hex, sys.Hex)
				if d > influenceRadius {
					continue
				}
				cell := im.Cells[sys.ID]
				if d == 0 {
					addPresence(&cell, friendly, weight)
				} else if friendly {
					cell.FriendlyReach += weight / float64(1+d)
				} else {
					cell.EnemyReach += weight / float64(1+d)
				}
				im.Cells[sys.ID] = cell
			}
		}
	}

	ids := make([]string, 0, len(systems))
	for _, sys := range systems {
		ids = append(ids, sys.ID)
	}
	sort.Strings(ids)
	for _, id := range ids {
		cell := im.Cells[id]
		cell.Control = classify(cell.FriendlyPresence, cell.EnemyPresence)
		im.Cells[id] = cell
		switch cell.Control {
		case ControlFriendly:
			im.Friendly = append(im.Friendly, cell.Hex)
		case ControlEnemy:
			im.Enemy = append(im.Enemy, cell.Hex)
		case ControlContested:
			im.Contested = append(im.Contested, cell.Hex)
		default:
			im.Unoccupied = append(im.Unoccupied, cell.Hex)
		}
	}
	return im
}

func addPresence(cell *HexInfluence, friendly bool, w float64) {
	if friendly {
		cell.FriendlyPresence += w
	} else {
		cell.EnemyPresence += w
	}
}

// assetWeight scales an asset's presence by its remaining health.
func assetWeight(a sector.Asset) float64 {
	if a.MaxHP <= 0 {
		return 1
	}
	return 1 + float64(a.HP)/float64(a.MaxHP)
}

// classify applies a 2:1 dominance rule; anything closer is contested.
func classify(friendly, enemy float64) Control {
	switch {
	case friendly == 0 && enemy == 0:
		return ControlUnoccupied
	case enemy == 0 || friendly >= 2*enemy:
		return ControlFriendly
	case friendly == 0 || enemy >= 2*friendly:
		return ControlEnemy
	default:
		return ControlContested
	}
}

// StrategicValue scores a system 0-100 for the faction from its resources,
// current control, proximity to the faction's assets and spillover reach.
func (InfluenceMapService) StrategicValue(sys sector.System, im *InfluenceMap, faction *sector.Faction, systems []sector.System) float64 {
	v := float64(sys.Resources) * 5

	switch im.Control(sys.ID) {
	case ControlUnoccupied:
		v += 20
	case ControlContested:
		v += 15
	case ControlEnemy:
		v += 5
	}

	if faction != nil {
		idx := sector.SystemIndex(systems)
		nearest := -1
		for _, loc := range faction.Locations() {
			s, ok := idx[loc]
			if !ok {
				continue
			}
			if d := sector.Distance(s.Hex, sys.Hex); nearest < 0 || d < nearest {
				nearest = d
			}
		}
		if nearest >= 0 {
			v += 20 / float64(1+nearest)
		}
		if sys.Homeworld && sys.ID != faction.Homeworld && im.Control(sys.ID) != ControlFriendly {
			v += 10
		}
	}

	if im != nil {
		if cell, ok := im.Cells[sys.ID]; ok {
			v += math.Min(10, cell.FriendlyReach*2)
			v -= math.Min(10, cell.EnemyReach*2)
		}
	}
	return clamp(v, 0, 100)
}

// BestExpansionTarget returns the unoccupied or contested system with the
// highest strategic value, or nil when there is none.
func (s InfluenceMapService) BestExpansionTarget(faction *sector.Faction, systems []sector.System, im *InfluenceMap) (*sector.System, float64) {
	var best *sector.System
	bestScore := -1.0
	for i := range systems {
		sys := systems[i]
		c := im.Control(sys.ID)
		if c != ControlUnoccupied && c != ControlContested {
			continue
		}
		score := s.StrategicValue(sys, im, faction, systems)
		if score > bestScore || (score == bestScore && best != nil && sys.ID < best.ID) {
			best = &systems[i]
			bestScore = score
		}
	}
	if best == nil {
		return nil, 0
	}
	return best, bestScore
}

// clamp bounds v to [lo, hi]; NaN becomes lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
