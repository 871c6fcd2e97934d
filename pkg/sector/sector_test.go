package sector

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b Hex
		want int
	}{
		{Hex{0, 0}, Hex{0, 0}, 0},
		{Hex{0, 0}, Hex{1, 0}, 1},
		{Hex{0, 0}, Hex{1, -1}, 1},
		{Hex{0, 0}, Hex{2, -1}, 2},
		{Hex{-2, 1}, Hex{2, -1}, 4},
	}
	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%v, %v): expected %d, got %d", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestNeighborsAreAdjacent(t *testing.T) {
	origin := Hex{3, -2}
	for _, n := range origin.Neighbors() {
		if d := Distance(origin, n); d != 1 {
			t.Errorf("neighbor %v at distance %d", n, d)
		}
	}
}

func TestParseDice(t *testing.T) {
	tests := []struct {
		in       string
		want     Dice
		expected float64
	}{
		{"1d6", Dice{1, 6, 0}, 3.5},
		{"2d4+1", Dice{2, 4, 1}, 6},
		{"1d10-2", Dice{1, 10, -2}, 3.5},
		{"d8", Dice{1, 8, 0}, 4.5},
		{"3", Dice{0, 0, 3}, 3},
		{"", Dice{}, 0},
		{"None", Dice{}, 0},
	}
	for _, tt := range tests {
		got, err := ParseDice(tt.in)
		if err != nil {
			t.Fatalf("ParseDice(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseDice(%q): expected %+v, got %+v", tt.in, tt.want, got)
		}
		if e := got.Expected(); math.Abs(e-tt.expected) > 1e-9 {
			t.Errorf("Expected(%q): expected %.2f, got %.2f", tt.in, tt.expected, e)
		}
	}
}

func TestParseDice_Invalid(t *testing.T) {
	for _, in := range []string{"xd6", "1d", "1d0", "1d6+x", "abc", "101d6", "99999999d6", "1d1001"} {
		if _, err := ParseDice(in); err == nil {
			t.Errorf("ParseDice(%q): expected error", in)
		}
	}
}

func TestParseDice_Bounds(t *testing.T) {
	d, err := ParseDice("100d1000")
	if err != nil {
		t.Fatalf("ParseDice at the bounds: %v", err)
	}
	if d.Count != MaxDiceCount || d.Sides != MaxDiceSides {
		t.Errorf("expected %dd%d, got %s", MaxDiceCount, MaxDiceSides, d)
	}
}

func TestDiceRoll_InRange(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	d := Dice{Count: 2, Sides: 6, Modifier: -3}
	for range 500 {
		v := d.Roll(r)
		if v < 0 || v > 9 {
			t.Fatalf("roll out of range: %d", v)
		}
	}
}

func TestWinProbability(t *testing.T) {
	var o Odds
	if p := o.WinProbability(Force, 5, Force, 5); math.Abs(p-0.45) > 1e-9 {
		t.Errorf("equal ratings: expected 0.45, got %.3f", p)
	}
	if p := o.WinProbability(Force, 20, Force, 0); p != 1 {
		t.Errorf("overwhelming attacker: expected 1, got %.3f", p)
	}
	if p := o.WinProbability(Force, 0, Force, 20); p != 0 {
		t.Errorf("overwhelming defender: expected 0, got %.3f", p)
	}
	lo := o.WinProbability(Cunning, 2, Force, 4)
	hi := o.WinProbability(Cunning, 4, Force, 2)
	if lo >= hi {
		t.Errorf("higher attacker rating should win more often: %.2f vs %.2f", lo, hi)
	}
}

func TestExpectedDamage_Unparseable(t *testing.T) {
	if d := (Odds{}).ExpectedDamage("garbage"); d != 0 {
		t.Errorf("expected 0, got %.2f", d)
	}
}

func TestFactionIncome(t *testing.T) {
	f := Faction{Force: 5, Cunning: 3, Wealth: 2}
	if got := f.Income(); got != 3 {
		t.Errorf("expected income 3, got %d", got)
	}
}

func TestSnapshotAIFactions(t *testing.T) {
	s := Snapshot{
		PlayerFactionID: "p",
		Factions:        []Faction{{ID: "a"}, {ID: "p"}, {ID: "b", Eliminated: true}, {ID: "c"}},
	}
	got := s.AIFactions()
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("expected [a c], got %v", got)
	}

	s.PlayerFactionID = ""
	if got := s.AIFactions(); len(got) != 3 {
		t.Errorf("without a player faction every live faction is AI-controlled, got %v", got)
	}
}

func TestSnapshotClone_Independent(t *testing.T) {
	s := Snapshot{Factions: []Faction{{ID: "a", Assets: []Asset{{ID: "x", HP: 4}}, Goal: &Goal{Type: GoalWealthOfWorlds}}}}
	c := s.Clone()
	c.Factions[0].Assets[0].HP = 1
	c.Factions[0].Goal.Progress = 9
	if s.Factions[0].Assets[0].HP != 4 || s.Factions[0].Goal.Progress != 0 {
		t.Error("clone shares state with the original")
	}
}

func TestAdjacent(t *testing.T) {
	systems := []System{
		{ID: "a", Hex: Hex{0, 0}},
		{ID: "b", Hex: Hex{1, 0}},
		{ID: "c", Hex: Hex{3, 0}},
	}
	adj := Adjacent("a", systems)
	if len(adj) != 1 || adj[0].ID != "b" {
		t.Errorf("expected [b], got %v", adj)
	}
	if Adjacent("missing", systems) != nil {
		t.Error("expected nil for unknown system")
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	all := c.All()
	if len(all) != 13 {
		t.Fatalf("expected 13 definitions, got %d", len(all))
	}
	for _, d := range all {
		if d.HP <= 0 || d.Cost <= 0 || d.Rating <= 0 {
			t.Errorf("%s: expected positive hp, cost and rating", d.ID)
		}
		if d.Attack != nil {
			if _, err := ParseDice(d.Attack.Damage); err != nil {
				t.Errorf("%s: bad attack dice: %v", d.ID, err)
			}
		}
		if d.Counterattack != "" {
			if _, err := ParseDice(d.Counterattack); err != nil {
				t.Errorf("%s: bad counterattack dice: %v", d.ID, err)
			}
		}
	}
	def, ok := c.Lookup("gunship")
	if !ok || !def.CanAttack() {
		t.Fatal("expected gunship with an attack")
	}
	if _, ok := c.Lookup("nope"); ok {
		t.Fatal("expected unknown id to miss")
	}
}

func validSnapshot() Snapshot {
	return Snapshot{
		Systems: []System{{ID: "s1", Hex: Hex{Q: 0, R: 0}}, {ID: "s2", Hex: Hex{Q: 1, R: 0}}},
		Factions: []Faction{
			{ID: "f1", Homeworld: "s1", Assets: []Asset{{ID: "a1", DefinitionID: "militia", Location: "s1", HP: 4, MaxHP: 4}}},
			{ID: "p", Assets: []Asset{{ID: "b1", DefinitionID: "bank", Location: "s2", HP: 5, MaxHP: 5}}},
		},
		PlayerFactionID: "p",
	}
}

func TestSnapshotValidate(t *testing.T) {
	c := DefaultCatalog()
	snap := validSnapshot()
	if err := snap.Validate(c); err != nil {
		t.Fatalf("expected valid snapshot, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"no systems", func(s *Snapshot) { s.Systems = nil }},
		{"no factions", func(s *Snapshot) { s.Factions = nil }},
		{"duplicate system", func(s *Snapshot) { s.Systems[1].ID = "s1" }},
		{"duplicate faction", func(s *Snapshot) { s.Factions[1].ID = "f1" }},
		{"unknown homeworld", func(s *Snapshot) { s.Factions[0].Homeworld = "s9" }},
		{"duplicate asset", func(s *Snapshot) { s.Factions[1].Assets[0].ID = "a1" }},
		{"unknown location", func(s *Snapshot) { s.Factions[0].Assets[0].Location = "s9" }},
		{"unknown definition", func(s *Snapshot) { s.Factions[0].Assets[0].DefinitionID = "death_star" }},
		{"unknown player", func(s *Snapshot) { s.PlayerFactionID = "ghost" }},
	}
	for _, tt := range tests {
		s := validSnapshot()
		tt.mutate(&s)
		err := s.Validate(c)
		if !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("%s: expected ErrInvalidSnapshot, got %v", tt.name, err)
		}
	}
}
