package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/faction-ai/internal/model"
	"github.com/freeeve/faction-ai/internal/repository"
)

// SectorRepo handles sector database operations.
type SectorRepo struct {
	db *sql.DB
}

// NewSectorRepo creates a SectorRepo.
func NewSectorRepo(db *sql.DB) *SectorRepo {
	return &SectorRepo{db: db}
}

// Create inserts a new sector.
func (r *SectorRepo) Create(ctx context.Context, name, playerFactionID, difficulty string, turn int) (*model.Sector, error) {
	var s model.Sector
	var player sql.NullString
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sectors (name, player_faction_id, difficulty, turn)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, turn, player_faction_id, difficulty, created_at, updated_at`,
		name, nullStr(playerFactionID), difficulty, turn,
	).Scan(&s.ID, &s.Name, &s.Turn, &player, &s.Difficulty, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create sector: %w", err)
	}
	s.PlayerFactionID = player.String
	return &s, nil
}

// FindByID returns a sector by ID, or nil if it does not exist.
func (r *SectorRepo) FindByID(ctx context.Context, id string) (*model.Sector, error) {
	var s model.Sector
	var player sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, turn, player_faction_id, difficulty, created_at, updated_at
		 FROM sectors WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Turn, &player, &s.Difficulty, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find sector: %w", err)
	}
	s.PlayerFactionID = player.String
	return &s, nil
}

// List returns the most recently updated sectors.
func (r *SectorRepo) List(ctx context.Context) ([]model.Sector, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, turn, player_faction_id, difficulty, created_at, updated_at
		 FROM sectors ORDER BY updated_at DESC LIMIT 100`)
	if err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	defer rows.Close()

	var sectors []model.Sector
	for rows.Next() {
		var s model.Sector
		var player sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.Turn, &player, &s.Difficulty, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sector: %w", err)
		}
		s.PlayerFactionID = player.String
		sectors = append(sectors, s)
	}
	return sectors, rows.Err()
}

// SetTurn records the sector's current game turn.
func (r *SectorRepo) SetTurn(ctx context.Context, id string, turn int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sectors SET turn = $1, updated_at = now() WHERE id = $2`, turn, id)
	if err != nil {
		return fmt.Errorf("set sector turn: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set sector turn %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
