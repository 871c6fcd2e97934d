package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/freeeve/faction-ai/pkg/sector"
)

// scenario is a sector setup loaded from disk. Catalog entries extend or
// replace the default asset definitions by id.
type scenario struct {
	Name       string                   `json:"name"`
	Difficulty string                   `json:"difficulty"`
	State      sector.Snapshot          `json:"state"`
	Catalog    []sector.AssetDefinition `json:"catalog,omitempty"`
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return &sc, nil
}

func (sc *scenario) catalog() sector.MapCatalog {
	c := sector.DefaultCatalog()
	for _, d := range sc.Catalog {
		c[d.ID] = d
	}
	return c
}
