package main

import "testing"

func gateCatalog(coinMakerOwned, goldMineOwned int) []Building {
	return []Building{
		{ID: "coin_maker", Name: "Coin Maker", BasePrice: 10, Owned: coinMakerOwned},
		{ID: "gold_mine", Name: "Gold Mine", BasePrice: 100, Owned: goldMineOwned, UnlockRequirement: "coin_maker"},
	}
}

func TestBuildingDisplayStateTruthTable(t *testing.T) {
	tests := []struct {
		name           string
		coinMakerOwned int
		goldMineOwned  int
		want           DisplayState
	}{
		{"requirement unmet", 0, 0, StateSilhouette},
		{"requirement met, not yet bought", 1, 0, StateNext},
		{"requirement met, bought", 1, 1, StateUnlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := gateCatalog(tt.coinMakerOwned, tt.goldMineOwned)
			goldMine := *FindBuilding(catalog, "gold_mine")
			if got := BuildingDisplayState(goldMine, catalog); got != tt.want {
				t.Fatalf("state = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildingDisplayStateNoRequirement(t *testing.T) {
	catalog := gateCatalog(0, 0)
	coinMaker := *FindBuilding(catalog, "coin_maker")
	if got := BuildingDisplayState(coinMaker, catalog); got != StateUnlocked {
		t.Fatalf("requirement-free building = %v, want unlocked", got)
	}
}

func TestBuildingDisplayStateDanglingRequirement(t *testing.T) {
	catalog := []Building{
		{ID: "orphan", BasePrice: 10, UnlockRequirement: "does_not_exist"},
	}
	if got := BuildingDisplayState(catalog[0], catalog); got != StateSilhouette {
		t.Fatalf("dangling requirement = %v, want silhouette", got)
	}
}

func TestPurchasable(t *testing.T) {
	if Purchasable(StateSilhouette) {
		t.Errorf("silhouette must not be purchasable")
	}
	if !Purchasable(StateNext) {
		t.Errorf("next must be purchasable")
	}
	if !Purchasable(StateUnlocked) {
		t.Errorf("unlocked must be purchasable")
	}
}

func TestUnlockRequirementText(t *testing.T) {
	catalog := gateCatalog(0, 0)

	goldMine := *FindBuilding(catalog, "gold_mine")
	if got := UnlockRequirementText(goldMine, catalog); got != "own one Coin Maker to unlock" {
		t.Fatalf("requirement text = %q", got)
	}

	coinMaker := *FindBuilding(catalog, "coin_maker")
	if got := UnlockRequirementText(coinMaker, catalog); got != "" {
		t.Fatalf("requirement-free text = %q, want empty", got)
	}
}
