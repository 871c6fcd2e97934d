package service

import "github.com/freeeve/faction-ai/internal/ai"

// statusRelay forwards controller progress to a sector's subscribers.
type statusRelay struct {
	broadcaster Broadcaster
	sectorID    string
}

func (r statusRelay) OnStatus(s ai.AITurnStatus) {
	r.broadcaster.BroadcastSectorEvent(r.sectorID, EventAIStatus, s)
}

func (r statusRelay) OnBatchStart(sectorID string, turn int, factionIDs []string) {
	r.broadcaster.BroadcastSectorEvent(r.sectorID, EventBatchStarted, map[string]any{
		"sector_id":   sectorID,
		"turn":        turn,
		"faction_ids": factionIDs,
	})
}

func (r statusRelay) OnBatchFinish(summary ai.BatchSummary) {
	r.broadcaster.BroadcastSectorEvent(r.sectorID, EventBatchFinished, summary)
}
