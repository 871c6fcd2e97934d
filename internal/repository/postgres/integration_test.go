//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/freeeve/faction-ai/internal/model"
	"github.com/freeeve/faction-ai/internal/repository"
	"github.com/freeeve/faction-ai/internal/testutil"
)

var testDB *sql.DB

func setup(t *testing.T) {
	t.Helper()
	if testDB == nil {
		testDB = testutil.SetupDB(t)
	}
	testutil.CleanupDB(t, testDB)
}

func createTestSector(t *testing.T, repo *SectorRepo, name string) *model.Sector {
	t.Helper()
	s, err := repo.Create(context.Background(), name, "player", "hard", 1)
	if err != nil {
		t.Fatalf("create test sector: %v", err)
	}
	return s
}

// --- SectorRepo Tests ---

func TestSectorCreateAndFind(t *testing.T) {
	setup(t)
	repo := NewSectorRepo(testDB)
	ctx := context.Background()

	s := createTestSector(t, repo, "Outer Rim")
	if s.ID == "" {
		t.Fatal("expected non-empty ID")
	}
	if s.Turn != 1 || s.Difficulty != "hard" || s.PlayerFactionID != "player" {
		t.Fatalf("unexpected sector: %+v", s)
	}

	found, err := repo.FindByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil || found.Name != "Outer Rim" {
		t.Fatalf("expected Outer Rim, got %+v", found)
	}
}

func TestSectorNoPlayer(t *testing.T) {
	setup(t)
	repo := NewSectorRepo(testDB)

	s, err := repo.Create(context.Background(), "Sim", "", "normal", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	found, _ := repo.FindByID(context.Background(), s.ID)
	if found.PlayerFactionID != "" {
		t.Fatalf("expected empty player faction, got %s", found.PlayerFactionID)
	}
}

func TestSectorFindByIDNotFound(t *testing.T) {
	setup(t)
	repo := NewSectorRepo(testDB)

	s, err := repo.FindByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if s != nil {
		t.Fatal("expected nil for missing sector")
	}
}

func TestSectorSetTurnAndList(t *testing.T) {
	setup(t)
	repo := NewSectorRepo(testDB)
	ctx := context.Background()

	a := createTestSector(t, repo, "A")
	createTestSector(t, repo, "B")

	if err := repo.SetTurn(ctx, a.ID, 5); err != nil {
		t.Fatalf("set turn: %v", err)
	}
	found, _ := repo.FindByID(ctx, a.ID)
	if found.Turn != 5 {
		t.Fatalf("expected turn 5, got %d", found.Turn)
	}

	sectors, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sectors) != 2 {
		t.Fatalf("expected 2 sectors, got %d", len(sectors))
	}
	if sectors[0].ID != a.ID {
		t.Fatalf("expected most recently updated sector first, got %s", sectors[0].Name)
	}

	err = repo.SetTurn(ctx, "00000000-0000-0000-0000-000000000000", 2)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- TurnRepo Tests ---

func TestTurnLifecycle(t *testing.T) {
	setup(t)
	sectors := NewSectorRepo(testDB)
	repo := NewTurnRepo(testDB)
	ctx := context.Background()

	s := createTestSector(t, sectors, "Turns")
	turn, err := repo.CreateTurn(ctx, s.ID, 1)
	if err != nil {
		t.Fatalf("create turn: %v", err)
	}
	if turn.ResolvedAt != nil {
		t.Fatal("expected unresolved turn")
	}

	err = repo.SaveFactionTurns(ctx, []model.FactionTurn{
		{TurnID: turn.ID, FactionID: "f1", Goal: "military_conquest", GoalChanged: true, Economy: "buy_asset", ActionType: "attack", ActionsCompleted: 2},
		{TurnID: turn.ID, FactionID: "f2", Economy: "none", ActionsFailed: 1, Error: "goal phase failed"},
	})
	if err != nil {
		t.Fatalf("save faction turns: %v", err)
	}
	if err := repo.ResolveTurn(ctx, turn.ID, 1); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	turns, err := repo.ListTurns(ctx, s.ID)
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(turns) != 1 || turns[0].Failed != 1 || turns[0].ResolvedAt == nil {
		t.Fatalf("unexpected turns: %+v", turns)
	}

	fts, err := repo.FactionTurns(ctx, turn.ID)
	if err != nil {
		t.Fatalf("faction turns: %v", err)
	}
	if len(fts) != 2 {
		t.Fatalf("expected 2 faction turns, got %d", len(fts))
	}
	byFaction := map[string]model.FactionTurn{}
	for _, ft := range fts {
		byFaction[ft.FactionID] = ft
	}
	if f1 := byFaction["f1"]; f1.Goal != "military_conquest" || !f1.GoalChanged || f1.ActionsCompleted != 2 {
		t.Fatalf("unexpected f1 outcome: %+v", f1)
	}
	if f2 := byFaction["f2"]; f2.Goal != "" || f2.Error != "goal phase failed" {
		t.Fatalf("unexpected f2 outcome: %+v", f2)
	}
}

func TestResolveTurnNotFound(t *testing.T) {
	setup(t)
	repo := NewTurnRepo(testDB)

	err := repo.ResolveTurn(context.Background(), "00000000-0000-0000-0000-000000000000", 0)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
