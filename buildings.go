package main

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed buildings.yaml
var defaultCatalogYAML []byte

// Building is a purchasable entity that either produces coins over time
// (BaseCps) or boosts the manual click yield (ClickValue). Current price and
// output are never stored; they are derived from the base values, the owned
// count and the upgrade level (see economy.go).
type Building struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Icon        string  `yaml:"icon" json:"icon"`
	BasePrice   int     `yaml:"base_price" json:"basePrice"`
	BaseCps     float64 `yaml:"base_cps" json:"baseCps"`
	ClickValue  float64 `yaml:"click_value" json:"clickValue,omitempty"`

	// UnlockRequirement names the building that must be owned at least once
	// before this one becomes purchasable. Empty means always unlocked.
	UnlockRequirement string `yaml:"unlock_requirement" json:"unlockRequirement,omitempty"`

	// Runtime state, mutated only by a successful purchase, upgrade, or a
	// prestige reset.
	Owned        int `yaml:"-" json:"owned"`
	UpgradeLevel int `yaml:"-" json:"upgradeLevel"`
}

type buildingCatalogFile struct {
	Buildings []Building `yaml:"buildings"`
}

// LoadCatalog reads the building catalog from path, or falls back to the
// embedded default catalog when path is empty.
func LoadCatalog(path string) ([]Building, error) {
	raw := defaultCatalogYAML
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		raw = data
	}

	var file buildingCatalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	if len(file.Buildings) == 0 {
		return nil, fmt.Errorf("building catalog is empty")
	}

	seen := make(map[string]bool, len(file.Buildings))
	for _, b := range file.Buildings {
		if b.ID == "" {
			return nil, fmt.Errorf("building catalog entry missing id")
		}
		if seen[b.ID] {
			return nil, fmt.Errorf("duplicate building id %q", b.ID)
		}
		if b.BasePrice <= 0 {
			return nil, fmt.Errorf("building %q: base_price must be positive", b.ID)
		}
		seen[b.ID] = true
	}
	for _, b := range file.Buildings {
		if b.UnlockRequirement != "" && !seen[b.UnlockRequirement] {
			return nil, fmt.Errorf("building %q: unknown unlock_requirement %q", b.ID, b.UnlockRequirement)
		}
	}

	return file.Buildings, nil
}

// FindBuilding returns a pointer into the slice, or nil if the id is unknown.
func FindBuilding(buildings []Building, id string) *Building {
	for i := range buildings {
		if buildings[i].ID == id {
			return &buildings[i]
		}
	}
	return nil
}

// CloneCatalog deep-copies a catalog so every session owns its snapshot.
func CloneCatalog(buildings []Building) []Building {
	out := make([]Building, len(buildings))
	copy(out, buildings)
	return out
}
