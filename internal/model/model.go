package model

import "time"

// Sector is a persisted sector: one shared map played by several factions.
type Sector struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Turn            int       `json:"turn" db:"turn"`
	PlayerFactionID string    `json:"player_faction_id,omitempty" db:"player_faction_id"`
	Difficulty      string    `json:"difficulty" db:"difficulty"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Turn is one AI batch run against a sector.
type Turn struct {
	ID         string     `json:"id" db:"id"`
	SectorID   string     `json:"sector_id" db:"sector_id"`
	Turn       int        `json:"turn" db:"turn"`
	Failed     int        `json:"failed" db:"failed"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
}

// FactionTurn records what one AI faction did during a Turn.
type FactionTurn struct {
	ID               string    `json:"id" db:"id"`
	TurnID           string    `json:"turn_id" db:"turn_id"`
	FactionID        string    `json:"faction_id" db:"faction_id"`
	Goal             string    `json:"goal,omitempty" db:"goal"`
	GoalChanged      bool      `json:"goal_changed" db:"goal_changed"`
	Replanned        bool      `json:"replanned" db:"replanned"`
	Economy          string    `json:"economy" db:"economy"`
	ActionType       string    `json:"action_type,omitempty" db:"action_type"`
	ActionsCompleted int       `json:"actions_completed" db:"actions_completed"`
	ActionsFailed    int       `json:"actions_failed" db:"actions_failed"`
	Error            string    `json:"error,omitempty" db:"error"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
