package ai

import (
	"math"
	"testing"

	"github.com/freeeve/faction-ai/pkg/sector"
)

func threatFixture() []sector.Faction {
	return []sector.Faction{
		{ID: "f1", Force: 1, Cunning: 1, Wealth: 1, HP: 10, MaxHP: 10, Homeworld: "s1",
			Assets: []sector.Asset{asset("a1", "militia", "s1", 4, 4)}},
		{ID: "f2", Force: 4, Cunning: 2, Wealth: 2,
			Assets: []sector.Asset{asset("b1", "militia", "s1", 4, 4)}},
	}
}

func TestThreatAssessment_Assess_NoSystems(t *testing.T) {
	o := ThreatAssessment{Catalog: testCatalog()}.Assess("f1", threatFixture(), nil)
	if o.OverallLevel != 0 {
		t.Errorf("expected 0 overall, got %.1f", o.OverallLevel)
	}
	if o.Posture != PostureBalanced {
		t.Errorf("expected balanced, got %s", o.Posture)
	}
	if o.PrimaryThreat != nil {
		t.Error("expected no primary threat")
	}
	if o.Systems == nil {
		t.Error("expected non-nil systems map")
	}
}

func TestThreatAssessment_Assess_EnemyInHeldSystem(t *testing.T) {
	o := ThreatAssessment{Catalog: testCatalog()}.Assess("f1", threatFixture(), lineSystems(3))

	// militia: 2 + E[1d6] * (1 + force/4) = 2 + 3.5*2 = 9; level = 9 * 5 * exposure 1
	if got := o.Level("s1"); math.Abs(got-45) > 1e-9 {
		t.Errorf("expected s1 level 45, got %.2f", got)
	}
	if got := o.Level("s2"); got != 0 {
		t.Errorf("expected s2 level 0, got %.2f", got)
	}
	if math.Abs(o.OverallLevel-45) > 1e-9 {
		t.Errorf("expected overall 45, got %.2f", o.OverallLevel)
	}
	if o.PrimaryThreat == nil || o.PrimaryThreat.FactionID != "f2" || o.PrimaryThreat.SystemID != "s1" {
		t.Fatalf("expected f2 at s1 as primary threat, got %+v", o.PrimaryThreat)
	}
	if o.Posture != PostureDefensive {
		t.Errorf("expected defensive posture when weaker and pressured, got %s", o.Posture)
	}
	if o.MostThreatened() != "s1" {
		t.Errorf("expected s1 most threatened, got %q", o.MostThreatened())
	}
}

func TestThreatAssessment_Assess_AdjacentExposure(t *testing.T) {
	factions := threatFixture()
	factions[1].Assets[0].Location = "s2"
	o := ThreatAssessment{Catalog: testCatalog()}.Assess("f1", factions, lineSystems(3))
	if got := o.Level("s2"); math.Abs(got-22.5) > 1e-9 {
		t.Errorf("expected adjacent level 22.5, got %.2f", got)
	}
}

func TestThreatAssessment_Assess_IgnoresStealthed(t *testing.T) {
	factions := threatFixture()
	factions[1].Assets[0].Stealthed = true
	o := ThreatAssessment{Catalog: testCatalog()}.Assess("f1", factions, lineSystems(3))
	if o.OverallLevel != 0 || o.PrimaryThreat != nil {
		t.Errorf("expected stealthed assets to be invisible, got level %.1f", o.OverallLevel)
	}
	if o.Posture != PostureBalanced {
		t.Errorf("expected balanced, got %s", o.Posture)
	}
}

func TestThreatAssessment_DefensiveStrength(t *testing.T) {
	factions := threatFixture()
	ta := ThreatAssessment{Catalog: testCatalog()}
	// hp 4 + 2*E[1d4] + homeworld 10/2
	if got := ta.DefensiveStrength(&factions[0], "s1"); math.Abs(got-14) > 1e-9 {
		t.Errorf("expected 14, got %.2f", got)
	}
	if got := ta.DefensiveStrength(&factions[0], "s2"); got != 0 {
		t.Errorf("expected 0 away from assets, got %.2f", got)
	}
	if got := ta.DefensiveStrength(nil, "s1"); got != 0 {
		t.Errorf("expected 0 for nil faction, got %.2f", got)
	}
}

func TestThreatAssessment_ShouldRetreat(t *testing.T) {
	factions := threatFixture()
	ta := ThreatAssessment{Catalog: testCatalog()}
	o := ta.Assess("f1", factions, lineSystems(3))

	healthy := factions[0].Assets[0]
	if ta.ShouldRetreat(&factions[0], healthy, o) {
		t.Error("expected healthy asset to hold under moderate threat")
	}
	hurt := healthy
	hurt.HP = 1
	if !ta.ShouldRetreat(&factions[0], hurt, o) {
		t.Error("expected badly hurt asset to retreat")
	}
	safe := healthy
	safe.Location = "s3"
	if ta.ShouldRetreat(&factions[0], safe, o) {
		t.Error("expected no retreat where there is no threat")
	}
}
