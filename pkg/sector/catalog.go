package sector

import "sort"

// AttackPattern describes an asset's attack: which attribute it tests
// against which defender attribute, and the damage dealt on success.
type AttackPattern struct {
	Attacker Attribute `json:"attacker"`
	Defender Attribute `json:"defender"`
	Damage   string    `json:"damage"`
}

// AssetDefinition is the shared, read-only template for an asset type.
type AssetDefinition struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Category Attribute `json:"category"`
	// Rating is the minimum category attribute needed to buy the asset.
	Rating        int            `json:"rating"`
	Cost          int            `json:"cost"`
	HP            int            `json:"hp"`
	Attack        *AttackPattern `json:"attack,omitempty"`
	Counterattack string         `json:"counterattack,omitempty"`
	Stealth       bool           `json:"stealth,omitempty"`
}

// CanAttack reports whether the definition carries an attack pattern.
func (d *AssetDefinition) CanAttack() bool {
	return d != nil && d.Attack != nil && d.Attack.Damage != ""
}

// Catalog resolves asset definitions by id.
type Catalog interface {
	Lookup(definitionID string) (*AssetDefinition, bool)
	All() []AssetDefinition
}

// MapCatalog is an in-memory Catalog.
type MapCatalog map[string]AssetDefinition

// NewMapCatalog indexes the given definitions by id.
func NewMapCatalog(defs ...AssetDefinition) MapCatalog {
	c := make(MapCatalog, len(defs))
	for _, d := range defs {
		c[d.ID] = d
	}
	return c
}

func (c MapCatalog) Lookup(definitionID string) (*AssetDefinition, bool) {
	d, ok := c[definitionID]
	if !ok {
		return nil, false
	}
	return &d, true
}

// All returns every definition sorted by id.
func (c MapCatalog) All() []AssetDefinition {
	out := make([]AssetDefinition, 0, len(c))
	for _, d := range c {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
