package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/faction-ai/internal/model"
	"github.com/freeeve/faction-ai/internal/repository"
)

// TurnRepo handles AI turn history.
type TurnRepo struct {
	db *sql.DB
}

// NewTurnRepo creates a TurnRepo.
func NewTurnRepo(db *sql.DB) *TurnRepo {
	return &TurnRepo{db: db}
}

// CreateTurn opens a turn record for an AI batch.
func (r *TurnRepo) CreateTurn(ctx context.Context, sectorID string, turn int) (*model.Turn, error) {
	var t model.Turn
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO turns (sector_id, turn)
		 VALUES ($1, $2)
		 RETURNING id, sector_id, turn, failed, started_at`,
		sectorID, turn,
	).Scan(&t.ID, &t.SectorID, &t.Turn, &t.Failed, &t.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("create turn: %w", err)
	}
	return &t, nil
}

// ResolveTurn closes a turn record with the number of failed factions.
func (r *TurnRepo) ResolveTurn(ctx context.Context, turnID string, failed int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE turns SET failed = $1, resolved_at = now() WHERE id = $2`, failed, turnID)
	if err != nil {
		return fmt.Errorf("resolve turn: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("resolve turn %s: %w", turnID, repository.ErrNotFound)
	}
	return nil
}

// SaveFactionTurns inserts a batch of faction outcomes.
func (r *TurnRepo) SaveFactionTurns(ctx context.Context, turns []model.FactionTurn) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO faction_turns (turn_id, faction_id, goal, goal_changed, replanned, economy, action_type,
		                            actions_completed, actions_failed, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return fmt.Errorf("prepare insert faction turn: %w", err)
	}
	defer stmt.Close()

	for _, ft := range turns {
		_, err := stmt.ExecContext(ctx, ft.TurnID, ft.FactionID, nullStr(ft.Goal), ft.GoalChanged, ft.Replanned,
			ft.Economy, nullStr(ft.ActionType), ft.ActionsCompleted, ft.ActionsFailed, nullStr(ft.Error))
		if err != nil {
			return fmt.Errorf("insert faction turn: %w", err)
		}
	}
	return tx.Commit()
}

// ListTurns returns all turns for a sector, newest first.
func (r *TurnRepo) ListTurns(ctx context.Context, sectorID string) ([]model.Turn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sector_id, turn, failed, started_at, resolved_at
		 FROM turns WHERE sector_id = $1
		 ORDER BY started_at DESC`, sectorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		var t model.Turn
		if err := rows.Scan(&t.ID, &t.SectorID, &t.Turn, &t.Failed, &t.StartedAt, &t.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// FactionTurns returns the per-faction outcomes of a turn.
func (r *TurnRepo) FactionTurns(ctx context.Context, turnID string) ([]model.FactionTurn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, turn_id, faction_id, goal, goal_changed, replanned, economy, action_type,
		        actions_completed, actions_failed, error, created_at
		 FROM faction_turns WHERE turn_id = $1 ORDER BY created_at, faction_id`, turnID,
	)
	if err != nil {
		return nil, fmt.Errorf("faction turns: %w", err)
	}
	defer rows.Close()

	var out []model.FactionTurn
	for rows.Next() {
		var ft model.FactionTurn
		var goal, actionType, errMsg sql.NullString
		if err := rows.Scan(&ft.ID, &ft.TurnID, &ft.FactionID, &goal, &ft.GoalChanged, &ft.Replanned, &ft.Economy,
			&actionType, &ft.ActionsCompleted, &ft.ActionsFailed, &errMsg, &ft.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan faction turn: %w", err)
		}
		ft.Goal = goal.String
		ft.ActionType = actionType.String
		ft.Error = errMsg.String
		out = append(out, ft)
	}
	return out, rows.Err()
}
