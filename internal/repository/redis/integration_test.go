//go:build integration

package redis

import (
	"context"
	"encoding/json"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"github.com/freeeve/faction-ai/internal/testutil"
)

var testRDB *goredis.Client

func setup(t *testing.T) *Client {
	t.Helper()
	if testRDB == nil {
		testRDB = testutil.SetupRedis(t)
	}
	testutil.CleanupRedis(t, testRDB)
	return &Client{rdb: testRDB}
}

func TestSectorStateRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	sectorID := "test-sector-1"

	state := json.RawMessage(`{"sector_id":"test-sector-1","turn":3,"factions":[{"id":"f1","fac_creds":12}]}`)
	if err := c.SetSectorState(ctx, sectorID, state); err != nil {
		t.Fatalf("set sector state: %v", err)
	}

	got, err := c.GetSectorState(ctx, sectorID)
	if err != nil {
		t.Fatalf("get sector state: %v", err)
	}
	var fetched map[string]any
	if err := json.Unmarshal(got, &fetched); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if fetched["turn"].(float64) != 3 {
		t.Fatalf("state round-trip failed: %s", string(got))
	}
}

func TestSectorStateNotFound(t *testing.T) {
	c := setup(t)
	got, err := c.GetSectorState(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("get missing state: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing sector state")
	}
}

func TestPlansSetGetList(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	sectorID := "test-sector-2"

	c.SetPlan(ctx, sectorID, "f1", json.RawMessage(`{"faction_id":"f1","horizon":2}`))
	c.SetPlan(ctx, sectorID, "f2", json.RawMessage(`{"faction_id":"f2","horizon":3}`))
	c.SetPlan(ctx, "other-sector", "f9", json.RawMessage(`{"faction_id":"f9"}`))

	got, err := c.GetPlan(ctx, sectorID, "f2")
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if string(got) != `{"faction_id":"f2","horizon":3}` {
		t.Errorf("expected f2 plan, got %s", got)
	}

	missing, err := c.GetPlan(ctx, sectorID, "f3")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing plan, got %s, %v", missing, err)
	}

	all, err := c.ListPlans(ctx, sectorID)
	if err != nil {
		t.Fatalf("list plans: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 plans in sector, got %d", len(all))
	}
	if _, ok := all["f9"]; ok {
		t.Error("expected plans from another sector to be excluded")
	}
}

func TestDeleteSectorData(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	sectorID := "test-sector-3"

	c.SetSectorState(ctx, sectorID, json.RawMessage(`{"turn":1}`))
	c.SetPlan(ctx, sectorID, "f1", json.RawMessage(`{}`))

	if err := c.DeleteSectorData(ctx, sectorID); err != nil {
		t.Fatalf("delete sector data: %v", err)
	}
	if state, _ := c.GetSectorState(ctx, sectorID); state != nil {
		t.Error("expected state deleted")
	}
	if plans, _ := c.ListPlans(ctx, sectorID); len(plans) != 0 {
		t.Errorf("expected plans deleted, got %d", len(plans))
	}
}
