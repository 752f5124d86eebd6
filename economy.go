package main

import "math"

/* ======================
   Pricing & Production
   ====================== */

const (
	// Each purchase raises the next price by 15%. One global curve, no
	// per-building tuning.
	priceGrowthFactor = 1.15

	// Ceiling for the prestige price discount. Item counts are unbounded,
	// so the raw discount can exceed 100%; the pricing contract clamps it
	// here so prices stay positive.
	maxPriceDiscount = 0.95

	// Every manual click yields at least one coin.
	baseClickYield = 1.0

	// Upgrade levels run 0..maxUpgradeLevel. Level n multiplies base
	// production by n+1.
	maxUpgradeLevel = 2
)

// BuildingPrice returns the current purchase price: the base price compounded
// by 15% per unit owned, reduced by the prestige discount and floored to an
// integer. The discount is clamped to [0, maxPriceDiscount]; callers never
// need to pre-validate it. Affordability is the caller's problem.
func BuildingPrice(b Building, priceDiscount float64) int {
	if priceDiscount < 0 {
		priceDiscount = 0
	}
	if priceDiscount > maxPriceDiscount {
		priceDiscount = maxPriceDiscount
	}
	raw := float64(b.BasePrice) * math.Pow(priceGrowthFactor, float64(b.Owned)) * (1 - priceDiscount)
	return int(math.Floor(raw))
}

// BuildingCps returns the building's coins-per-second contribution:
// base rate times owned count, times the upgrade factor (level+1), times the
// global prestige production multiplier. Zero when nothing is owned.
func BuildingCps(b Building, productionMultiplier float64) float64 {
	upgradeFactor := float64(b.UpgradeLevel + 1)
	return b.BaseCps * float64(b.Owned) * upgradeFactor * productionMultiplier
}

// TotalCps sums BuildingCps over the whole catalog.
func TotalCps(buildings []Building, productionMultiplier float64) float64 {
	total := 0.0
	for _, b := range buildings {
		total += BuildingCps(b, productionMultiplier)
	}
	return total
}

// TotalClickValue returns the manual click yield before prestige bonuses:
// the irreducible base yield plus every owned click booster.
func TotalClickValue(buildings []Building) float64 {
	total := baseClickYield
	for _, b := range buildings {
		if b.ClickValue > 0 {
			total += b.ClickValue * float64(b.Owned)
		}
	}
	return total
}

// UpgradePrice returns the cost of the next efficiency upgrade, or -1 when
// the building is already at maxUpgradeLevel. Upgrades cost ten times the
// base price, scaled by the level being bought.
func UpgradePrice(b Building) int {
	if b.UpgradeLevel >= maxUpgradeLevel {
		return -1
	}
	return b.BasePrice * 10 * (b.UpgradeLevel + 1)
}

// CanUpgrade reports whether an upgrade purchase is even on the table:
// at least one unit owned and not yet maxed out.
func CanUpgrade(b Building) bool {
	return b.Owned > 0 && b.UpgradeLevel < maxUpgradeLevel
}
