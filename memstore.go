package main

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory GameStore. It backs local development runs
// without a database and doubles as the test fake; the session controller
// cannot tell it apart from Postgres.
type MemoryStore struct {
	mu      sync.RWMutex
	players map[string]*PlayerRecord
	byName  map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players: make(map[string]*PlayerRecord),
		byName:  make(map[string]string),
	}
}

// Seed inserts records directly, minting ids for any that lack one.
// Used by dev mode to pre-populate the leaderboard.
func (m *MemoryStore) Seed(records ...PlayerRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.Buildings == nil {
			rec.Buildings = map[string]int{}
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		clone := rec
		m.players[rec.ID] = &clone
		m.byName[rec.Username] = rec.ID
	}
}

func (m *MemoryStore) GetOrCreatePlayer(ctx context.Context, username string) (*PlayerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byName[username]; ok {
		return clonePlayerRecord(m.players[id]), nil
	}

	now := time.Now().UTC()
	rec := &PlayerRecord{
		ID:        uuid.NewString(),
		Username:  username,
		Buildings: map[string]int{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.players[rec.ID] = rec
	m.byName[username] = rec.ID
	return clonePlayerRecord(rec), nil
}

func (m *MemoryStore) LoadPlayer(ctx context.Context, playerID string) (*PlayerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.players[playerID]
	if !ok {
		return nil, nil
	}
	return clonePlayerRecord(rec), nil
}

func (m *MemoryStore) SaveGameData(ctx context.Context, playerID string, coins int64, buildings map[string]int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.players[playerID]
	if !ok {
		return false, nil
	}

	snapshot := make(map[string]int, len(buildings))
	for id, owned := range buildings {
		if owned > 0 {
			snapshot[id] = owned
		}
	}
	rec.Coins = coins
	rec.Buildings = snapshot
	rec.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MemoryStore) Leaderboard(ctx context.Context) ([]PlayerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]PlayerRecord, 0, len(m.players))
	for _, rec := range m.players {
		out = append(out, *clonePlayerRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Coins != out[j].Coins {
			return out[i].Coins > out[j].Coins
		}
		return out[i].Username < out[j].Username
	})
	if len(out) > leaderboardLimit {
		out = out[:leaderboardLimit]
	}
	return out, nil
}

func (m *MemoryStore) PlayerRank(ctx context.Context, playerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.players[playerID]
	if !ok {
		return -1, nil
	}

	rank := 1
	for _, other := range m.players {
		if other.Coins > rec.Coins {
			rank++
		}
	}
	return rank, nil
}

func (m *MemoryStore) ExecutePrestige(ctx context.Context, playerID string, currentCoins int64) (PrestigeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.players[playerID]
	if !ok {
		return PrestigeResult{}, nil
	}
	if currentCoins < 0 {
		currentCoins = 0
	}

	// Lifetime-earned is the basis for the yield: the award is the delta
	// between the cumulative yields before and after folding the submitted
	// balance in. Shop spending never re-awards points this way.
	oldLifetime := rec.LifetimeCoins
	newLifetime := oldLifetime + currentCoins
	awarded := newLifetime/prestigeCoinsPerPoint - oldLifetime/prestigeCoinsPerPoint

	rec.Coins = 0
	rec.Buildings = map[string]int{}
	rec.LifetimeCoins = newLifetime
	rec.PrestigePoints += awarded
	rec.UpdatedAt = time.Now().UTC()

	return PrestigeResult{Success: true, PointsAwarded: awarded}, nil
}

func (m *MemoryStore) BuyPrestigeItem(ctx context.Context, playerID string, itemType string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.players[playerID]
	if !ok {
		return false, nil
	}

	cost, ok := PrestigeItemCost(itemType)
	if !ok {
		return false, ErrUnknownItemType
	}
	if rec.PrestigePoints < cost {
		return false, nil
	}

	rec.PrestigePoints -= cost
	switch itemType {
	case PrestigeItemClickPower:
		rec.ClickPowerItems++
	case PrestigeItemProductionBoost:
		rec.ProductionBoostItems++
	case PrestigeItemPriceReduction:
		rec.PriceReductionItems++
	}
	rec.UpdatedAt = time.Now().UTC()
	return true, nil
}

func clonePlayerRecord(rec *PlayerRecord) *PlayerRecord {
	clone := *rec
	clone.Buildings = make(map[string]int, len(rec.Buildings))
	for id, owned := range rec.Buildings {
		clone.Buildings[id] = owned
	}
	return &clone
}
