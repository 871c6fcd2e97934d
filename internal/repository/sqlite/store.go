// Package sqlite provides a single-file store for offline simulations. It
// implements the sector, turn and cache repositories on one database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/freeeve/faction-ai/internal/model"
	"github.com/freeeve/faction-ai/internal/repository"
)

// Store wraps a SQLite connection.
type Store struct {
	conn *sqlx.DB
	now  func() time.Time
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows a single writer.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sectors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		turn INTEGER NOT NULL DEFAULT 0,
		player_faction_id TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		sector_id TEXT NOT NULL REFERENCES sectors(id) ON DELETE CASCADE,
		turn INTEGER NOT NULL,
		failed INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMP NOT NULL,
		resolved_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS faction_turns (
		id TEXT PRIMARY KEY,
		turn_id TEXT NOT NULL REFERENCES turns(id) ON DELETE CASCADE,
		faction_id TEXT NOT NULL,
		goal TEXT NOT NULL DEFAULT '',
		goal_changed INTEGER NOT NULL DEFAULT 0,
		replanned INTEGER NOT NULL DEFAULT 0,
		economy TEXT NOT NULL,
		action_type TEXT NOT NULL DEFAULT '',
		actions_completed INTEGER NOT NULL DEFAULT 0,
		actions_failed INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sector_state (
		sector_id TEXT PRIMARY KEY,
		state TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plans (
		sector_id TEXT NOT NULL,
		faction_id TEXT NOT NULL,
		plan TEXT NOT NULL,
		PRIMARY KEY (sector_id, faction_id)
	);

	CREATE INDEX IF NOT EXISTS idx_turns_sector ON turns(sector_id);
	CREATE INDEX IF NOT EXISTS idx_faction_turns_turn ON faction_turns(turn_id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// --- sectors ---

// Create inserts a new sector.
func (s *Store) Create(ctx context.Context, name, playerFactionID, difficulty string, turn int) (*model.Sector, error) {
	now := s.now()
	sec := &model.Sector{
		ID:              uuid.NewString(),
		Name:            name,
		Turn:            turn,
		PlayerFactionID: playerFactionID,
		Difficulty:      difficulty,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	_, err := s.conn.NamedExecContext(ctx,
		`INSERT INTO sectors (id, name, turn, player_faction_id, difficulty, created_at, updated_at)
		 VALUES (:id, :name, :turn, :player_faction_id, :difficulty, :created_at, :updated_at)`, sec)
	if err != nil {
		return nil, fmt.Errorf("create sector: %w", err)
	}
	return sec, nil
}

// FindByID returns a sector by ID, or nil if it does not exist.
func (s *Store) FindByID(ctx context.Context, id string) (*model.Sector, error) {
	var sec model.Sector
	err := s.conn.GetContext(ctx, &sec, "SELECT * FROM sectors WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find sector: %w", err)
	}
	return &sec, nil
}

// List returns the most recently updated sectors.
func (s *Store) List(ctx context.Context) ([]model.Sector, error) {
	var sectors []model.Sector
	err := s.conn.SelectContext(ctx, &sectors, "SELECT * FROM sectors ORDER BY updated_at DESC LIMIT 100")
	if err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	return sectors, nil
}

// SetTurn records the sector's current game turn.
func (s *Store) SetTurn(ctx context.Context, id string, turn int) error {
	res, err := s.conn.ExecContext(ctx,
		"UPDATE sectors SET turn = ?, updated_at = ? WHERE id = ?", turn, s.now(), id)
	if err != nil {
		return fmt.Errorf("set sector turn: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set sector turn %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// --- turns ---

// CreateTurn opens a turn record for an AI batch.
func (s *Store) CreateTurn(ctx context.Context, sectorID string, turn int) (*model.Turn, error) {
	t := &model.Turn{ID: uuid.NewString(), SectorID: sectorID, Turn: turn, StartedAt: s.now()}
	_, err := s.conn.ExecContext(ctx,
		"INSERT INTO turns (id, sector_id, turn, failed, started_at) VALUES (?, ?, ?, 0, ?)",
		t.ID, t.SectorID, t.Turn, t.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("create turn: %w", err)
	}
	return t, nil
}

// ResolveTurn closes a turn record with the number of failed factions.
func (s *Store) ResolveTurn(ctx context.Context, turnID string, failed int) error {
	res, err := s.conn.ExecContext(ctx,
		"UPDATE turns SET failed = ?, resolved_at = ? WHERE id = ?", failed, s.now(), turnID)
	if err != nil {
		return fmt.Errorf("resolve turn: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("resolve turn %s: %w", turnID, repository.ErrNotFound)
	}
	return nil
}

// SaveFactionTurns inserts a batch of faction outcomes.
func (s *Store) SaveFactionTurns(ctx context.Context, turns []model.FactionTurn) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx,
		`INSERT INTO faction_turns (id, turn_id, faction_id, goal, goal_changed, replanned, economy, action_type,
		                            actions_completed, actions_failed, error, created_at)
		 VALUES (:id, :turn_id, :faction_id, :goal, :goal_changed, :replanned, :economy, :action_type,
		         :actions_completed, :actions_failed, :error, :created_at)`)
	if err != nil {
		return fmt.Errorf("prepare insert faction turn: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	for _, ft := range turns {
		if ft.ID == "" {
			ft.ID = uuid.NewString()
		}
		if ft.CreatedAt.IsZero() {
			ft.CreatedAt = now
		}
		if _, err := stmt.ExecContext(ctx, ft); err != nil {
			return fmt.Errorf("insert faction turn: %w", err)
		}
	}
	return tx.Commit()
}

// ListTurns returns all turns for a sector, newest first.
func (s *Store) ListTurns(ctx context.Context, sectorID string) ([]model.Turn, error) {
	var turns []model.Turn
	err := s.conn.SelectContext(ctx, &turns,
		"SELECT * FROM turns WHERE sector_id = ? ORDER BY turn DESC, started_at DESC", sectorID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	return turns, nil
}

// FactionTurns returns the per-faction outcomes of a turn.
func (s *Store) FactionTurns(ctx context.Context, turnID string) ([]model.FactionTurn, error) {
	var out []model.FactionTurn
	err := s.conn.SelectContext(ctx, &out,
		"SELECT * FROM faction_turns WHERE turn_id = ? ORDER BY faction_id", turnID)
	if err != nil {
		return nil, fmt.Errorf("faction turns: %w", err)
	}
	return out, nil
}

// --- cache ---

// SetSectorState stores the serialized sector snapshot.
func (s *Store) SetSectorState(ctx context.Context, sectorID string, state json.RawMessage) error {
	_, err := s.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO sector_state (sector_id, state) VALUES (?, ?)", sectorID, string(state))
	if err != nil {
		return fmt.Errorf("set sector state: %w", err)
	}
	return nil
}

// GetSectorState returns the serialized sector snapshot, or nil if none is stored.
func (s *Store) GetSectorState(ctx context.Context, sectorID string) (json.RawMessage, error) {
	var state string
	err := s.conn.GetContext(ctx, &state, "SELECT state FROM sector_state WHERE sector_id = ?", sectorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sector state: %w", err)
	}
	return json.RawMessage(state), nil
}

// SetPlan stores a faction's strategic plan.
func (s *Store) SetPlan(ctx context.Context, sectorID, factionID string, plan json.RawMessage) error {
	_, err := s.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO plans (sector_id, faction_id, plan) VALUES (?, ?, ?)",
		sectorID, factionID, string(plan))
	if err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	return nil
}

// GetPlan returns a faction's plan, or nil if none is stored.
func (s *Store) GetPlan(ctx context.Context, sectorID, factionID string) (json.RawMessage, error) {
	var plan string
	err := s.conn.GetContext(ctx, &plan,
		"SELECT plan FROM plans WHERE sector_id = ? AND faction_id = ?", sectorID, factionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return json.RawMessage(plan), nil
}

// ListPlans returns every stored plan in a sector keyed by faction.
func (s *Store) ListPlans(ctx context.Context, sectorID string) (map[string]json.RawMessage, error) {
	rows, err := s.conn.QueryxContext(ctx, "SELECT faction_id, plan FROM plans WHERE sector_id = ?", sectorID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := make(map[string]json.RawMessage)
	for rows.Next() {
		var factionID, plan string
		if err := rows.Scan(&factionID, &plan); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans[factionID] = json.RawMessage(plan)
	}
	return plans, rows.Err()
}

// DeleteSectorData removes cached state and plans for a sector.
func (s *Store) DeleteSectorData(ctx context.Context, sectorID string) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sector_state WHERE sector_id = ?", sectorID); err != nil {
		return fmt.Errorf("delete sector state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM plans WHERE sector_id = ?", sectorID); err != nil {
		return fmt.Errorf("delete plans: %w", err)
	}
	return tx.Commit()
}

var (
	_ repository.SectorRepository = (*Store)(nil)
	_ repository.TurnRepository   = (*Store)(nil)
	_ repository.SectorCache      = (*Store)(nil)
)
