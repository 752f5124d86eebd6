package main

import "math"

/* ======================
   Prestige
   ====================== */

const (
	// Prestige opens up once the lifetime-earned total reaches this.
	prestigeUnlockThreshold = 500

	// One prestige point per hundred lifetime coins.
	prestigeCoinsPerPoint = 100
)

const (
	PrestigeItemClickPower      = "click_power"
	PrestigeItemProductionBoost = "production_boost"
	PrestigeItemPriceReduction  = "price_reduction"
)

// PrestigeState holds the per-player permanent counters. Points go up on a
// prestige execution and down on shop purchases; item counts only go up and
// have no cap.
type PrestigeState struct {
	PrestigePoints       int64 `json:"prestigePoints"`
	ClickPowerItems      int64 `json:"clickPowerItems"`
	ProductionBoostItems int64 `json:"productionBoostItems"`
	PriceReductionItems  int64 `json:"priceReductionItems"`
}

// PrestigeEffect is the bonus vector derived from PrestigeState. It is
// recomputed on every read and never persisted.
type PrestigeEffect struct {
	ClickBonus           float64 `json:"clickBonus"`
	ProductionMultiplier float64 `json:"productionMultiplier"`
	PriceDiscount        float64 `json:"priceDiscount"`
}

// PrestigeItem is a fixed shop entry.
type PrestigeItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Cost        int64  `json:"cost"`
	Effect      string `json:"effect"`
}

var prestigeItems = []PrestigeItem{
	{
		ID:          PrestigeItemClickPower,
		Name:        "Click Power",
		Description: "+100 coins per manual click",
		Icon:        "🖱️",
		Cost:        1,
		Effect:      "+100 click reward",
	},
	{
		ID:          PrestigeItemProductionBoost,
		Name:        "Production Boost",
		Description: "+100% production from every building",
		Icon:        "🏭",
		Cost:        2,
		Effect:      "+100% production",
	},
	{
		ID:          PrestigeItemPriceReduction,
		Name:        "Price Reduction",
		Description: "-50% building prices",
		Icon:        "💰",
		Cost:        3,
		Effect:      "-50% purchase price",
	},
}

// PrestigeItems returns a copy of the shop catalog.
func PrestigeItems() []PrestigeItem {
	return append([]PrestigeItem{}, prestigeItems...)
}

// PrestigeItemCost looks up the point cost for an item type. The second
// return is false for unknown types.
func PrestigeItemCost(itemType string) (int64, bool) {
	for _, item := range prestigeItems {
		if item.ID == itemType {
			return item.Cost, true
		}
	}
	return 0, false
}

// CanPrestige reports prestige eligibility for a lifetime-earned total.
func CanPrestige(lifetimeCoins float64) bool {
	return lifetimeCoins >= prestigeUnlockThreshold
}

// PrestigePointYield converts a lifetime-earned total into the cumulative
// point yield. The award for one execution is the yield delta against the
// previous lifetime total, computed by the store.
func PrestigePointYield(lifetimeCoins float64) int64 {
	return int64(math.Floor(lifetimeCoins / prestigeCoinsPerPoint))
}

// CalculatePrestigeEffect derives the bonus vector from the item counts.
// The price discount comes out raw here; the pricing engine clamps it to
// maxPriceDiscount at the single point of use.
func CalculatePrestigeEffect(state PrestigeState) PrestigeEffect {
	return PrestigeEffect{
		ClickBonus:           float64(state.ClickPowerItems) * 100,
		ProductionMultiplier: 1 + float64(state.ProductionBoostItems)*1.0,
		PriceDiscount:        float64(state.PriceReductionItems) * 0.5,
	}
}
