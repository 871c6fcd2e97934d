package ai

import "github.com/freeeve/faction-ai/pkg/sector"

// Phase is a state of the per-faction turn machine.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseAnalysis  Phase = "analysis"
	PhaseGoal      Phase = "goal"
	PhasePlanning  Phase = "planning"
	PhaseEconomy   Phase = "economy"
	PhaseScoring   Phase = "scoring"
	PhaseExecution Phase = "execution"
	PhaseComplete  Phase = "complete"
	PhaseFailed    Phase = "error"
)

// AITurnStatus is a progress report for one faction's turn.
type AITurnStatus struct {
	FactionID        string  `json:"faction_id"`
	FactionName      string  `json:"faction_name"`
	Phase            Phase   `json:"phase"`
	Progress         float64 `json:"progress"`
	CurrentAction    *string `json:"current_action"`
	ActionsCompleted int     `json:"actions_completed"`
	TotalActions     int     `json:"total_actions"`
	Complete         bool    `json:"complete"`
	Error            string  `json:"error,omitempty"`
}

// StatusObserver receives turn progress. Observers must not block for long;
// the turn waits on them.
type StatusObserver interface {
	OnStatus(status AITurnStatus)
}

// StatusFunc adapts a function to StatusObserver.
type StatusFunc func(AITurnStatus)

func (f StatusFunc) OnStatus(s AITurnStatus) { f(s) }

// BatchSummary is reported once all AI factions have taken their turn.
type BatchSummary struct {
	SectorID string            `json:"sector_id"`
	Turn     int               `json:"turn"`
	Results  []FactionTurn     `json:"results"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// FactionTurn is the outcome of one faction's turn within a batch.
type FactionTurn struct {
	FactionID        string          `json:"faction_id"`
	Goal             sector.GoalType `json:"goal,omitempty"`
	GoalChanged      bool            `json:"goal_changed"`
	Replanned        bool            `json:"replanned"`
	Economy          EconomyDecision `json:"economy"`
	ActionType       ActionType      `json:"action_type,omitempty"`
	ActionsCompleted int             `json:"actions_completed"`
	ActionsFailed    int             `json:"actions_failed"`
	Error            string          `json:"error,omitempty"`
}

// BatchObserver is told when a batch of AI turns starts and finishes.
type BatchObserver interface {
	OnBatchStart(sectorID string, turn int, factionIDs []string)
	OnBatchFinish(summary BatchSummary)
}
