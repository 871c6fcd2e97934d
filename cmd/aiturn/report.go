package main

import (
	"fmt"
	"io"

	"github.com/freeeve/faction-ai/internal/ai"
	"github.com/freeeve/faction-ai/internal/service"
)

// consoleBroadcaster prints batch progress as it happens.
type consoleBroadcaster struct {
	w     io.Writer
	quiet bool
}

func (b *consoleBroadcaster) BroadcastSectorEvent(sectorID string, eventType string, data any) {
	if b.quiet {
		return
	}
	switch ev := data.(type) {
	case ai.AITurnStatus:
		if ev.CurrentAction != nil {
			fmt.Fprintf(b.w, "  %-16s %-10s %d/%d %s\n", ev.FactionName, ev.Phase, ev.ActionsCompleted, ev.TotalActions, *ev.CurrentAction)
		}
		if ev.Error != "" {
			fmt.Fprintf(b.w, "  %-16s failed: %s\n", ev.FactionName, ev.Error)
		}
	case ai.BatchSummary:
		fmt.Fprintf(b.w, "turn %d: %d factions, %d failed\n", ev.Turn, len(ev.Results), len(ev.Failed))
		for _, r := range ev.Results {
			fmt.Fprintf(b.w, "  %-16s goal=%s economy=%s actions=%d\n", r.FactionID, r.Goal, r.Economy, r.ActionsCompleted)
		}
	default:
		if eventType == service.EventTurnAdvanced {
			fmt.Fprintf(b.w, "advanced %v\n", data)
		}
	}
}

// printRetreatReport lists AI factions whose exposed assets should pull back.
// Only hard and expert analyse retreats.
func printRetreatReport(w io.Writer, view *service.SectorView, d ai.Difficulty) {
	var scaler ai.DifficultyScaler
	for i := range view.State.Factions {
		f := &view.State.Factions[i]
		if f.ID == view.State.PlayerFactionID || f.Eliminated {
			continue
		}
		ra := scaler.AnalyzeRetreatNecessity(f, view.State.Factions, d)
		if !ra.Applicable {
			return
		}
		fmt.Fprintf(w, "%-16s risk=%.2f retreat=%v\n", f.Name, ra.RiskRatio, ra.ShouldRetreat)
		for _, r := range ra.AtRisk {
			fmt.Fprintf(w, "  %s at %s: p(death)=%.2f value=%.1f\n", r.AssetID, r.Location, r.DeathProbability, r.ValueAtRisk)
		}
	}
}
