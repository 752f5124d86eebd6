package main

import "fmt"

// DisplayState classifies a building's visibility and purchasability.
//
// The truth table, evaluated against the full catalog:
//
//	no requirement                          -> StateUnlocked
//	requirement owned, building owned       -> StateUnlocked
//	requirement owned, building not owned   -> StateNext
//	requirement not owned (or unknown id)   -> StateSilhouette
//
// StateNext marks the first-in-line building: its prerequisite is satisfied
// but it has never been bought. Both StateUnlocked and StateNext are
// purchasable; StateSilhouette is not.
type DisplayState int

const (
	StateSilhouette DisplayState = iota
	StateNext
	StateUnlocked
)

func (s DisplayState) String() string {
	switch s {
	case StateUnlocked:
		return "unlocked"
	case StateNext:
		return "next"
	default:
		return "silhouette"
	}
}

// BuildingDisplayState classifies one building against the catalog it
// belongs to.
func BuildingDisplayState(b Building, buildings []Building) DisplayState {
	if b.UnlockRequirement == "" {
		return StateUnlocked
	}
	required := FindBuilding(buildings, b.UnlockRequirement)
	if required == nil || required.Owned == 0 {
		return StateSilhouette
	}
	if b.Owned > 0 {
		return StateUnlocked
	}
	return StateNext
}

// Purchasable reports whether a purchase attempt should even be considered.
func Purchasable(s DisplayState) bool {
	return s != StateSilhouette
}

// UnlockRequirementText renders the prerequisite as a display line, empty
// when the building has no requirement.
func UnlockRequirementText(b Building, buildings []Building) string {
	if b.UnlockRequirement == "" {
		return ""
	}
	required := FindBuilding(buildings, b.UnlockRequirement)
	if required == nil {
		return "unlock requirement unknown"
	}
	return fmt.Sprintf("own one %s to unlock", required.Name)
}
