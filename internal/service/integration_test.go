//go:build integration

package service

import (
	"context"
	"database/sql"
	"math/rand"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"github.com/freeeve/faction-ai/internal/ai"
	"github.com/freeeve/faction-ai/internal/repository/postgres"
	redisrepo "github.com/freeeve/faction-ai/internal/repository/redis"
	"github.com/freeeve/faction-ai/internal/testutil"
)

// integrationEnv holds shared test infrastructure.
type integrationEnv struct {
	db    *sql.DB
	rdb   *goredis.Client
	svc   *TurnService
	turns *postgres.TurnRepo
}

var ienv *integrationEnv

func setupIntegration(t *testing.T) *integrationEnv {
	t.Helper()
	if ienv == nil {
		db := testutil.SetupDB(t)
		rdb := testutil.SetupRedis(t)
		cfg := ai.DefaultControllerConfig()
		cfg.EnableLogging = false
		turns := postgres.NewTurnRepo(db)
		ienv = &integrationEnv{
			db:    db,
			rdb:   rdb,
			turns: turns,
			svc: NewTurnService(postgres.NewSectorRepo(db), turns, redisrepo.NewClientFromPool(rdb), nil, nil, Settings{
				Controller: cfg,
				Options:    []ai.Option{ai.WithSleeper(noSleep), ai.WithRand(rand.New(rand.NewSource(11)))},
			}),
		}
	}
	testutil.CleanupDB(t, ienv.db)
	testutil.CleanupRedis(t, ienv.rdb)
	return ienv
}

func TestIntegrationSectorLifecycle(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	sec, err := env.svc.CreateSector(ctx, "Integration", "hard", testSnapshot())
	if err != nil {
		t.Fatalf("create sector: %v", err)
	}

	for i := 0; i < 3; i++ {
		report, err := env.svc.RunAITurns(ctx, sec.ID)
		if err != nil {
			t.Fatalf("turn %d: run ai turns: %v", i, err)
		}
		if len(report.Summary.Results) != 2 {
			t.Fatalf("turn %d: expected 2 results, got %d", i, len(report.Summary.Results))
		}
		if _, err := env.svc.AdvanceTurn(ctx, sec.ID); err != nil {
			t.Fatalf("turn %d: advance: %v", i, err)
		}
	}

	view, err := env.svc.GetSector(ctx, sec.ID)
	if err != nil {
		t.Fatalf("get sector: %v", err)
	}
	if view.Sector.Turn != 4 || view.State.Turn != 4 {
		t.Errorf("expected turn 4 in row and state, got %d and %d", view.Sector.Turn, view.State.Turn)
	}

	turns, err := env.svc.ListTurns(ctx, sec.ID)
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected 3 turn records, got %d", len(turns))
	}
	for _, turn := range turns {
		if turn.ResolvedAt == nil {
			t.Errorf("turn %d unresolved", turn.Turn)
		}
		fts, err := env.turns.FactionTurns(ctx, turn.ID)
		if err != nil {
			t.Fatalf("faction turns: %v", err)
		}
		if len(fts) != 2 {
			t.Errorf("turn %d: expected 2 faction turns, got %d", turn.Turn, len(fts))
		}
	}

	plan, err := env.svc.GetPlan(ctx, sec.ID, "f1")
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if plan.Difficulty != ai.DifficultyHard {
		t.Errorf("expected plan built on hard, got %s", plan.Difficulty)
	}
}
