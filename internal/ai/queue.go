package ai

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/freeeve/faction-ai/pkg/sector"
)

// Effect is a queued state mutation. Effects carry data only; applyEffect
// interprets them against a Dispatcher.
type Effect interface {
	effectType() PlannedActionType
}

type MoveEffect struct {
	FactionID string `json:"faction_id"`
	AssetID   string `json:"asset_id"`
	To        string `json:"to"`
}

type RepairEffect struct {
	FactionID string `json:"faction_id"`
	AssetID   string `json:"asset_id"`
	HPHealed  int    `json:"hp_healed"`
	Cost      int    `json:"cost"`
}

type PurchaseEffect struct {
	FactionID    string `json:"faction_id"`
	DefinitionID string `json:"definition_id"`
	Location     string `json:"location"`
}

// AttackEffect is resolved with a rolled opposed check when applied.
type AttackEffect struct {
	FactionID       string `json:"faction_id"`
	AssetID         string `json:"asset_id"`
	TargetFactionID string `json:"target_faction_id"`
	TargetAssetID   string `json:"target_asset_id"`
}

// DefendEffect has no state change; the asset holds position.
type DefendEffect struct {
	FactionID string `json:"faction_id"`
	AssetID   string `json:"asset_id"`
	SystemID  string `json:"system_id"`
}

// ExpandEffect moves the asset into the target system if it is not there yet.
type ExpandEffect struct {
	FactionID string `json:"faction_id"`
	AssetID   string `json:"asset_id"`
	From      string `json:"from"`
	To        string `json:"to"`
}

func (MoveEffect) effectType() PlannedActionType { return PlannedMove }
func (RepairEffect) effectType() PlannedActionType { return PlannedRepair }
func (PurchaseEffect) effectType() PlannedActionType { return PlannedPurchase }
func (AttackEffect) effectType() PlannedActionType { return PlannedAttack }
func (DefendEffect) effectType() PlannedActionType { return PlannedDefend }
func (ExpandEffect) effectType() PlannedActionType { return PlannedExpand }

// QueuedAction is one step of a faction's turn, applied after Delay.
type QueuedAction struct {
	ID          string            `json:"id"`
	Type        PlannedActionType `json:"type"`
	Description string            `json:"description"`
	Effect      Effect            `json:"effect"`
	Delay       time.Duration     `json:"delay"`
}

const minActionDelay = 200 * time.Millisecond

// actionDelay is max(200ms, base ± uniform(variance)).
func actionDelay(cfg ControllerConfig, r *rand.Rand) time.Duration {
	jitter := time.Duration(uniform(r, float64(cfg.DelayVariance)))
	return max(minActionDelay, cfg.BaseActionDelay+jitter)
}

// effectRunner applies effects for one faction's turn. Attacks are
// validated against the turn-start snapshot and resolved against current
// state: live when the dispatcher can report it, otherwise a working copy
// that tracks the damage this runner has dealt.
type effectRunner struct {
	dispatcher Dispatcher
	catalog    sector.Catalog
	rand       *rand.Rand
	snapshot   *sector.Snapshot

	live    StateReader
	working *sector.Snapshot
}

func newEffectRunner(d Dispatcher, catalog sector.Catalog, r *rand.Rand, snap *sector.Snapshot) *effectRunner {
	if snap == nil {
		snap = &sector.Snapshot{}
	}
	er := &effectRunner{dispatcher: d, catalog: catalog, rand: r, snapshot: snap}
	if sr, ok := d.(StateReader); ok {
		er.live = sr
	}
	return er
}

// current returns the state an attack resolves against.
func (er *effectRunner) current(ctx context.Context) (*sector.Snapshot, error) {
	if er.live != nil {
		snap, err := er.live.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return &snap, nil
	}
	if er.working == nil {
		w := er.snapshot.Clone()
		er.working = &w
	}
	return er.working, nil
}

// damage inflicts n and mirrors it into the working copy.
func (er *effectRunner) damage(ctx context.Context, factionID, assetID string, n int, source string) error {
	if err := er.dispatcher.InflictDamage(ctx, factionID, assetID, n, source); err != nil {
		return err
	}
	if er.live != nil || er.working == nil || n <= 0 {
		return nil
	}
	f := er.working.Faction(factionID)
	if f == nil {
		return nil
	}
	for i := range f.Assets {
		if f.Assets[i].ID != assetID {
			continue
		}
		f.Assets[i].HP -= n
		if f.Assets[i].HP <= 0 {
			f.Assets = append(f.Assets[:i], f.Assets[i+1:]...)
		}
		break
	}
	return nil
}

// applyEffect performs one effect and returns a short outcome description.
func (er *effectRunner) applyEffect(ctx context.Context, e Effect) (string, error) {
	d := er.dispatcher
	switch e := e.(type) {
	case MoveEffect:
		if err := d.MoveAsset(ctx, e.FactionID, e.AssetID, e.To); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s moved to %s", e.AssetID, e.To), nil
	case RepairEffect:
		if err := d.RepairAsset(ctx, e.FactionID, e.AssetID, e.HPHealed, e.Cost); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s repaired %d hp for %d", e.AssetID, e.HPHealed, e.Cost), nil
	case PurchaseEffect:
		if err := d.AddAsset(ctx, e.FactionID, e.DefinitionID, e.Location); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s deployed at %s", e.DefinitionID, e.Location), nil
	case AttackEffect:
		return er.resolveAttack(ctx, e)
	case DefendEffect:
		return fmt.Sprintf("%s holds %s", e.AssetID, e.SystemID), nil
	case ExpandEffect:
		if e.From == e.To {
			return fmt.Sprintf("%s claims %s", e.AssetID, e.To), nil
		}
		if err := d.MoveAsset(ctx, e.FactionID, e.AssetID, e.To); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s expanded into %s", e.AssetID, e.To), nil
	}
	return "", fmt.Errorf("unknown effect %T", e)
}

// resolveAttack rolls the attacker's check. Only a strictly greater total
// damages the target; a loss or a tie lets the target counterattack. An
// attack whose attacker or target was destroyed earlier in the turn is
// skipped.
func (er *effectRunner) resolveAttack(ctx context.Context, e AttackEffect) (string, error) {
	planned := er.snapshot
	if a, t := planned.Faction(e.FactionID), planned.Faction(e.TargetFactionID); a == nil || t == nil {
		return "", fmt.Errorf("%w: attack %s -> %s", ErrInvalidAction, e.FactionID, e.TargetFactionID)
	} else if a.Asset(e.AssetID) == nil || t.Asset(e.TargetAssetID) == nil {
		return "", fmt.Errorf("%w: attack %s -> %s", ErrInvalidAction, e.AssetID, e.TargetAssetID)
	}

	snap, err := er.current(ctx)
	if err != nil {
		return "", fmt.Errorf("read state: %w", err)
	}
	attacker := snap.Faction(e.FactionID)
	defender := snap.Faction(e.TargetFactionID)
	var asset, target *sector.Asset
	if attacker != nil && defender != nil {
		asset = attacker.Asset(e.AssetID)
		target = defender.Asset(e.TargetAssetID)
	}
	if asset == nil || target == nil {
		return fmt.Sprintf("%s attack on %s skipped: no longer in play", e.AssetID, e.TargetAssetID), nil
	}

	adef, ok := lookup(er.catalog, asset.DefinitionID)
	if !ok || !adef.CanAttack() {
		return "", fmt.Errorf("%w: %s cannot attack", ErrInvalidAction, asset.DefinitionID)
	}
	tdef, _ := lookup(er.catalog, target.DefinitionID)

	atk := adef.Attack
	check := sector.RollCheck(er.rand, attacker.Rating(atk.Attacker), defender.Rating(atk.Defender))
	outcome := fmt.Sprintf("%s attacks %s (%d vs %d)", e.AssetID, e.TargetAssetID, check.AttackerRoll, check.DefenderRoll)

	if check.Success {
		dmg, err := sector.ParseDice(atk.Damage)
		if err != nil {
			return "", fmt.Errorf("attack damage %q: %w", atk.Damage, err)
		}
		n := dmg.Roll(er.rand)
		if err := er.damage(ctx, e.TargetFactionID, e.TargetAssetID, n, e.FactionID); err != nil {
			return "", err
		}
		return outcome + fmt.Sprintf(": %d damage dealt", n), nil
	}
	if tdef != nil && tdef.Counterattack != "" {
		dmg, err := sector.ParseDice(tdef.Counterattack)
		if err != nil {
			return "", fmt.Errorf("counterattack damage %q: %w", tdef.Counterattack, err)
		}
		n := dmg.Roll(er.rand)
		if err := er.damage(ctx, e.FactionID, e.AssetID, n, e.TargetFactionID); err != nil {
			return "", err
		}
		outcome += fmt.Sprintf(": %d damage taken", n)
	}
	return outcome, nil
}
