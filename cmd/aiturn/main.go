package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/faction-ai/internal/ai"
	"github.com/freeeve/faction-ai/internal/config"
	"github.com/freeeve/faction-ai/internal/repository/sqlite"
	"github.com/freeeve/faction-ai/internal/service"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}

	var (
		scenarioPath string
		turns        int
		dbPath       string
		difficulty   string
		seed         int64
		fast         bool
		jsonOut      bool
	)

	flag.StringVar(&scenarioPath, "scenario", "", "Scenario JSON file (required)")
	flag.IntVar(&turns, "n", 1, "Number of turns to run")
	flag.StringVar(&dbPath, "db", cfg.SQLitePath, "SQLite database path")
	flag.StringVar(&difficulty, "difficulty", "", "Override the scenario difficulty")
	flag.Int64Var(&seed, "seed", 0, "Random seed (0 = time based)")
	flag.BoolVar(&fast, "fast", false, "Skip the delay between AI actions")
	flag.BoolVar(&jsonOut, "json", false, "Output batch summaries as JSON")
	flag.Parse()

	if scenarioPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	sc, err := loadScenario(scenarioPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Scenario load failed")
	}
	if difficulty != "" {
		sc.Difficulty = difficulty
	}
	if sc.Difficulty == "" {
		sc.Difficulty = cfg.Difficulty
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", dbPath).Msg("SQLite open failed")
	}
	defer store.Close()

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	opts := []ai.Option{ai.WithRand(rand.New(rand.NewSource(seed)))}
	if fast {
		opts = append(opts, ai.WithSleeper(func(context.Context, time.Duration) error { return nil }))
	}

	out := &consoleBroadcaster{w: os.Stdout, quiet: jsonOut}
	svc := service.NewTurnService(store, store, store, out, sc.catalog(), service.Settings{
		Controller: cfg.ControllerConfig(sc.Difficulty),
		Replan:     cfg.ReplanPolicy(),
		Options:    opts,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sec, err := svc.CreateSector(ctx, sc.Name, sc.Difficulty, sc.State)
	if err != nil {
		log.Fatal().Err(err).Msg("Sector create failed")
	}
	log.Info().Str("sectorId", sec.ID).Str("difficulty", sec.Difficulty).Int64("seed", seed).Int("turns", turns).Msg("Running scenario")

	for range turns {
		if ctx.Err() != nil {
			break
		}
		report, err := svc.RunAITurns(ctx, sec.ID)
		if err != nil {
			log.Fatal().Err(err).Msg("AI batch failed")
		}
		if jsonOut {
			json.NewEncoder(os.Stdout).Encode(report)
		}
		if _, err := svc.AdvanceTurn(ctx, sec.ID); err != nil {
			log.Fatal().Err(err).Msg("Turn advance failed")
		}
	}

	view, err := svc.GetSector(context.WithoutCancel(ctx), sec.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("Sector reload failed")
	}
	if !jsonOut {
		printRetreatReport(os.Stdout, view, ai.ParseDifficulty(sec.Difficulty))
	}
	fmt.Fprintf(os.Stderr, "sector %s at turn %d (db %s)\n", sec.ID, view.State.Turn, dbPath)
}
