package sector

import "strings"

// Attribute is one of the three faction ratings an asset can be tested against.
type Attribute string

const (
	Force   Attribute = "force"
	Cunning Attribute = "cunning"
	Wealth  Attribute = "wealth"
)

// AllAttributes returns the faction attributes in canonical order.
func AllAttributes() []Attribute {
	return []Attribute{Force, Cunning, Wealth}
}

// GoalType identifies a faction's strategic goal.
type GoalType string

const (
	GoalMilitaryConquest    GoalType = "military_conquest"
	GoalCommercialExpansion GoalType = "commercial_expansion"
	GoalIntelligenceCoup    GoalType = "intelligence_coup"
	GoalExpandInfluence     GoalType = "expand_influence"
	GoalBloodTheEnemy       GoalType = "blood_the_enemy"
	GoalPeaceableKingdom    GoalType = "peaceable_kingdom"
	GoalDestroyTheFoe       GoalType = "destroy_the_foe"
	GoalWealthOfWorlds      GoalType = "wealth_of_worlds"
)

// AllGoalTypes returns every goal a faction may pursue.
func AllGoalTypes() []GoalType {
	return []GoalType{
		GoalMilitaryConquest, GoalCommercialExpansion, GoalIntelligenceCoup,
		GoalExpandInfluence, GoalBloodTheEnemy, GoalPeaceableKingdom,
		GoalDestroyTheFoe, GoalWealthOfWorlds,
	}
}

// Goal is a faction's active goal with its progress toward completion.
type Goal struct {
	Type          GoalType `json:"type"`
	Progress      int      `json:"progress"`
	Target        int      `json:"target"`
	StartedTurn   int      `json:"started_turn"`
	TargetFaction string   `json:"target_faction,omitempty"`
}

// Complete reports whether the goal's target has been reached.
func (g *Goal) Complete() bool {
	return g != nil && g.Target > 0 && g.Progress >= g.Target
}

// Asset is a faction-owned instance of an AssetDefinition.
type Asset struct {
	ID           string `json:"id"`
	DefinitionID string `json:"definition_id"`
	HP           int    `json:"hp"`
	MaxHP        int    `json:"max_hp"`
	Location     string `json:"location"`
	Stealthed    bool   `json:"stealthed,omitempty"`
}

// Damaged reports whether the asset is below its maximum hit points.
func (a Asset) Damaged() bool {
	return a.HP < a.MaxHP
}

// Faction is a power competing for control of the sector.
type Faction struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Force      int      `json:"force"`
	Cunning    int      `json:"cunning"`
	Wealth     int      `json:"wealth"`
	HP         int      `json:"hp"`
	MaxHP      int      `json:"max_hp"`
	FacCreds   int      `json:"fac_creds"`
	Goal       *Goal    `json:"goal,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Homeworld  string   `json:"homeworld,omitempty"`
	Assets     []Asset  `json:"assets"`
	Eliminated bool     `json:"eliminated,omitempty"`
}

// Rating returns the faction's value for the given attribute.
func (f *Faction) Rating(attr Attribute) int {
	switch attr {
	case Force:
		return f.Force
	case Cunning:
		return f.Cunning
	case Wealth:
		return f.Wealth
	}
	return 0
}

// Income returns the FacCreds the faction earns at the start of each turn.
func (f *Faction) Income() int {
	return (f.Wealth+1)/2 + (f.Force+f.Cunning)/4
}

// HasTag reports whether the faction carries the tag, case-insensitively.
func (f *Faction) HasTag(tag string) bool {
	for _, t := range f.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Asset returns the faction's asset with the given id, or nil.
func (f *Faction) Asset(id string) *Asset {
	for i := range f.Assets {
		if f.Assets[i].ID == id {
			return &f.Assets[i]
		}
	}
	return nil
}

// AssetsAt returns the faction's assets located in the given system.
func (f *Faction) AssetsAt(systemID string) []Asset {
	var out []Asset
	for _, a := range f.Assets {
		if a.Location == systemID {
			out = append(out, a)
		}
	}
	return out
}

// Locations returns the distinct systems where the faction has assets,
// in first-seen order.
func (f *Faction) Locations() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range f.Assets {
		if a.Location == "" || seen[a.Location] {
			continue
		}
		seen[a.Location] = true
		out = append(out, a.Location)
	}
	return out
}
