package main

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPlayerNotFound  = errors.New("store: player not found")
	ErrUnknownItemType = errors.New("store: unknown prestige item type")
)

// Number of entries the leaderboard returns.
const leaderboardLimit = 10

// PlayerRecord is the persisted snapshot of one player. Buildings is sparse:
// ids with zero owned are omitted.
type PlayerRecord struct {
	ID                   string         `json:"id"`
	Username             string         `json:"username"`
	Coins                int64          `json:"coins"`
	Buildings            map[string]int `json:"buildings"`
	LifetimeCoins        int64          `json:"lifetimeCoins"`
	PrestigePoints       int64          `json:"prestigePoints"`
	ClickPowerItems      int64          `json:"clickPowerItems"`
	ProductionBoostItems int64          `json:"productionBoostItems"`
	PriceReductionItems  int64          `json:"priceReductionItems"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

// PrestigeResult reports the outcome of a server-side prestige execution.
type PrestigeResult struct {
	Success       bool  `json:"success"`
	PointsAwarded int64 `json:"pointsAwarded"`
}

// GameStore is the persistence and leaderboard collaborator. The session
// controller only ever talks to this interface; main decides whether the
// implementation is Postgres or in-memory and injects it.
type GameStore interface {
	// GetOrCreatePlayer is an idempotent lookup-or-insert keyed by username.
	GetOrCreatePlayer(ctx context.Context, username string) (*PlayerRecord, error)

	// LoadPlayer returns nil (no error) when the id is unknown.
	LoadPlayer(ctx context.Context, playerID string) (*PlayerRecord, error)

	// SaveGameData upserts the spendable balance and the sparse building
	// snapshot. Returns false when the player does not exist.
	SaveGameData(ctx context.Context, playerID string, coins int64, buildings map[string]int) (bool, error)

	// Leaderboard returns up to leaderboardLimit records, descending by
	// coins.
	Leaderboard(ctx context.Context) ([]PlayerRecord, error)

	// PlayerRank returns the 1-based rank by coins, or -1 when the player
	// is absent.
	PlayerRank(ctx context.Context, playerID string) (int, error)

	// ExecutePrestige folds the submitted balance into the lifetime-earned
	// total, awards the point-yield delta, and resets coins and buildings.
	ExecutePrestige(ctx context.Context, playerID string, currentCoins int64) (PrestigeResult, error)

	// BuyPrestigeItem debits the item cost and increments the matching
	// counter. Returns false on insufficient points or missing player.
	BuyPrestigeItem(ctx context.Context, playerID string, itemType string) (bool, error)
}

// SparseBuildingSnapshot flattens session buildings into the persisted form.
func SparseBuildingSnapshot(buildings []Building) map[string]int {
	snapshot := make(map[string]int)
	for _, b := range buildings {
		if b.Owned > 0 {
			snapshot[b.ID] = b.Owned
		}
	}
	return snapshot
}
