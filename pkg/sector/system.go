package sector

import (
	"errors"
	"fmt"
)

// ErrInvalidSnapshot marks a snapshot with dangling or duplicate references.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// System is a star system occupying one hex of the sector map.
type System struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Hex  Hex    `json:"hex"`
	// Resources is the system's economic worth on a 0-10 scale.
	Resources int  `json:"resources"`
	TechLevel int  `json:"tech_level"`
	Homeworld bool `json:"homeworld,omitempty"`
}

// Snapshot is the read-only view of the sector handed to each AI phase.
type Snapshot struct {
	SectorID        string    `json:"sector_id"`
	Turn            int       `json:"turn"`
	PlayerFactionID string    `json:"player_faction_id,omitempty"`
	Factions        []Faction `json:"factions"`
	Systems         []System  `json:"systems"`
}

// Faction returns the faction with the given id, or nil.
func (s *Snapshot) Faction(id string) *Faction {
	for i := range s.Factions {
		if s.Factions[i].ID == id {
			return &s.Factions[i]
		}
	}
	return nil
}

// AIFactions returns the ids of factions not controlled by the player, in
// roster order. Eliminated factions are skipped.
func (s *Snapshot) AIFactions() []string {
	var ids []string
	for _, f := range s.Factions {
		if f.Eliminated {
			continue
		}
		if s.PlayerFactionID != "" && f.ID == s.PlayerFactionID {
			continue
		}
		ids = append(ids, f.ID)
	}
	return ids
}

// Clone returns a deep copy so callers can mutate it freely.
func (s *Snapshot) Clone() Snapshot {
	out := Snapshot{
		SectorID:        s.SectorID,
		Turn:            s.Turn,
		PlayerFactionID: s.PlayerFactionID,
		Factions:        make([]Faction, len(s.Factions)),
		Systems:         append([]System(nil), s.Systems...),
	}
	for i, f := range s.Factions {
		f.Assets = append([]Asset(nil), f.Assets...)
		f.Tags = append([]string(nil), f.Tags...)
		if f.Goal != nil {
			g := *f.Goal
			f.Goal = &g
		}
		out.Factions[i] = f
	}
	return out
}

// SystemIndex maps system ids to systems.
func SystemIndex(systems []System) map[string]System {
	idx := make(map[string]System, len(systems))
	for _, s := range systems {
		idx[s.ID] = s
	}
	return idx
}

// Adjacent returns the systems one hex away from the given system.
func Adjacent(systemID string, systems []System) []System {
	idx := SystemIndex(systems)
	origin, ok := idx[systemID]
	if !ok {
		return nil
	}
	var out []System
	for _, s := range systems {
		if s.ID != systemID && Distance(origin.Hex, s.Hex) == 1 {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that ids are unique and every reference resolves: asset
// locations and homeworlds to systems, asset definitions to the catalog, and
// the player faction to a roster entry.
func (s *Snapshot) Validate(c Catalog) error {
	if len(s.Systems) == 0 {
		return fmt.Errorf("%w: no systems", ErrInvalidSnapshot)
	}
	if len(s.Factions) == 0 {
		return fmt.Errorf("%w: no factions", ErrInvalidSnapshot)
	}
	systems := make(map[string]bool, len(s.Systems))
	for _, sys := range s.Systems {
		if sys.ID == "" || systems[sys.ID] {
			return fmt.Errorf("%w: duplicate or empty system id %q", ErrInvalidSnapshot, sys.ID)
		}
		systems[sys.ID] = true
	}

	factions := make(map[string]bool, len(s.Factions))
	assets := make(map[string]bool)
	for _, f := range s.Factions {
		if f.ID == "" || factions[f.ID] {
			return fmt.Errorf("%w: duplicate or empty faction id %q", ErrInvalidSnapshot, f.ID)
		}
		factions[f.ID] = true
		if f.Homeworld != "" && !systems[f.Homeworld] {
			return fmt.Errorf("%w: faction %s homeworld %q unknown", ErrInvalidSnapshot, f.ID, f.Homeworld)
		}
		for _, a := range f.Assets {
			if a.ID == "" || assets[a.ID] {
				return fmt.Errorf("%w: duplicate or empty asset id %q", ErrInvalidSnapshot, a.ID)
			}
			assets[a.ID] = true
			if !systems[a.Location] {
				return fmt.Errorf("%w: asset %s location %q unknown", ErrInvalidSnapshot, a.ID, a.Location)
			}
			if c != nil {
				if _, ok := c.Lookup(a.DefinitionID); !ok {
					return fmt.Errorf("%w: asset %s definition %q unknown", ErrInvalidSnapshot, a.ID, a.DefinitionID)
				}
			}
		}
	}
	if s.PlayerFactionID != "" && !factions[s.PlayerFactionID] {
		return fmt.Errorf("%w: player faction %q not in roster", ErrInvalidSnapshot, s.PlayerFactionID)
	}
	return nil
}
