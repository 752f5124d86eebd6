package main

import (
	"context"
	"log"
	"math"
	"sync"
	"time"
)

// Refusal codes surfaced to the client. Refusals are results, not errors:
// the action simply does not execute.
const (
	ReasonUnknownBuilding    = "UNKNOWN_BUILDING"
	ReasonBuildingLocked     = "BUILDING_LOCKED"
	ReasonInsufficientCoins  = "INSUFFICIENT_COINS"
	ReasonUpgradeUnavailable = "UPGRADE_UNAVAILABLE"
	ReasonPrestigeLocked     = "PRESTIGE_LOCKED"
	ReasonInFlight           = "TRANSACTION_IN_FLIGHT"
	ReasonInsufficientPoints = "INSUFFICIENT_POINTS"
	ReasonUnknownItem        = "UNKNOWN_ITEM"
	ReasonStoreError         = "STORE_ERROR"
)

const saveTimeout = 10 * time.Second

// Session is the game loop controller for one player. It owns the in-memory
// state exclusively: every mutation to coins, buildings and prestige state
// happens under mu, so ticks, clicks and purchases never interleave
// non-atomically. Store calls run off-lock and never block the simulation.
type Session struct {
	store        GameStore
	playerID     string
	username     string
	tickInterval time.Duration

	mu sync.Mutex

	// Spendable balance, and the lifetime-earned counter that only ever
	// grows. Eligibility and point yield are judged on the latter.
	coins         float64
	lifetimeCoins float64

	buildings   []Building
	prestige    PrestigeState
	totalClicks int64
	startedAt   time.Time

	saveInFlight     bool
	prestigeInFlight bool
	notice           string

	tickStop chan struct{}
	closed   bool
}

// NewSession restores a session from a persisted record. The lifetime
// counter starts at the stored lifetime total plus the unspent balance: the
// store only folds the balance into the lifetime column at prestige time.
func NewSession(store GameStore, rec *PlayerRecord, catalog []Building, tickInterval time.Duration) *Session {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}

	buildings := CloneCatalog(catalog)
	for i := range buildings {
		buildings[i].Owned = rec.Buildings[buildings[i].ID]
	}

	s := &Session{
		store:         store,
		playerID:      rec.ID,
		username:      rec.Username,
		tickInterval:  tickInterval,
		coins:         float64(rec.Coins),
		lifetimeCoins: float64(rec.LifetimeCoins + rec.Coins),
		buildings:     buildings,
		prestige: PrestigeState{
			PrestigePoints:       rec.PrestigePoints,
			ClickPowerItems:      rec.ClickPowerItems,
			ProductionBoostItems: rec.ProductionBoostItems,
			PriceReductionItems:  rec.PriceReductionItems,
		},
		startedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.ensureTickerLocked()
	s.mu.Unlock()
	return s
}

func (s *Session) PlayerID() string { return s.playerID }
func (s *Session) Username() string { return s.username }

/* ======================
   Views
   ====================== */

type BuildingView struct {
	Building
	Price        int    `json:"price"`
	UpgradePrice int    `json:"upgradePrice"`
	State        string `json:"state"`
	UnlockHint   string `json:"unlockHint,omitempty"`
}

type SessionView struct {
	PlayerID           string         `json:"playerId"`
	Username           string         `json:"username"`
	Coins              float64        `json:"coins"`
	LifetimeCoins      float64        `json:"lifetimeCoins"`
	CoinsPerSecond     float64        `json:"coinsPerSecond"`
	ClickValue         float64        `json:"clickValue"`
	TotalClicks        int64          `json:"totalClicks"`
	PlayTimeSeconds    int64          `json:"playTimeSeconds"`
	Buildings          []BuildingView `json:"buildings"`
	Prestige           PrestigeState  `json:"prestige"`
	PrestigeEffect     PrestigeEffect `json:"prestigeEffect"`
	CanPrestige        bool           `json:"canPrestige"`
	PrestigePointYield int64          `json:"prestigePointYield"`
	Notice             string         `json:"notice,omitempty"`
}

// Snapshot renders the full session state for the API. The transient notice
// (for example a failed save) is cleared once read.
func (s *Session) Snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	effect := CalculatePrestigeEffect(s.prestige)
	views := make([]BuildingView, 0, len(s.buildings))
	for _, b := range s.buildings {
		state := BuildingDisplayState(b, s.buildings)
		view := BuildingView{
			Building:     b,
			Price:        BuildingPrice(b, effect.PriceDiscount),
			UpgradePrice: UpgradePrice(b),
			State:        state.String(),
		}
		if state == StateSilhouette {
			view.UnlockHint = UnlockRequirementText(b, s.buildings)
		}
		views = append(views, view)
	}

	view := SessionView{
		PlayerID:           s.playerID,
		Username:           s.username,
		Coins:              s.coins,
		LifetimeCoins:      s.lifetimeCoins,
		CoinsPerSecond:     TotalCps(s.buildings, effect.ProductionMultiplier),
		ClickValue:         TotalClickValue(s.buildings) + effect.ClickBonus,
		TotalClicks:        s.totalClicks,
		PlayTimeSeconds:    int64(time.Since(s.startedAt).Seconds()),
		Buildings:          views,
		Prestige:           s.prestige,
		PrestigeEffect:     effect,
		CanPrestige:        CanPrestige(s.lifetimeCoins),
		PrestigePointYield: PrestigePointYield(s.lifetimeCoins),
		Notice:             s.notice,
	}
	s.notice = ""
	return view
}

/* ======================
   Actions
   ====================== */

type ClickResult struct {
	Gained float64 `json:"gained"`
	Coins  float64 `json:"coins"`
}

// Click adds the manual click yield plus the prestige click bonus. No
// debounce: the unlimited-click contract is deliberate.
func (s *Session) Click() ClickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	effect := CalculatePrestigeEffect(s.prestige)
	gained := TotalClickValue(s.buildings) + effect.ClickBonus
	s.coins += gained
	s.lifetimeCoins += gained
	s.totalClicks++
	return ClickResult{Gained: gained, Coins: s.coins}
}

type BuyResult struct {
	OK        bool    `json:"ok"`
	Reason    string  `json:"reason,omitempty"`
	PricePaid int     `json:"pricePaid,omitempty"`
	Coins     float64 `json:"coins"`
	Owned     int     `json:"owned,omitempty"`
}

// BuyBuilding authorizes, debits and increments in one critical section,
// then fires an asynchronous save of the new snapshot.
func (s *Session) BuyBuilding(buildingID string) BuyResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := FindBuilding(s.buildings, buildingID)
	if b == nil {
		return BuyResult{Reason: ReasonUnknownBuilding, Coins: s.coins}
	}
	if !Purchasable(BuildingDisplayState(*b, s.buildings)) {
		return BuyResult{Reason: ReasonBuildingLocked, Coins: s.coins}
	}

	effect := CalculatePrestigeEffect(s.prestige)
	price := BuildingPrice(*b, effect.PriceDiscount)
	if s.coins < float64(price) {
		return BuyResult{Reason: ReasonInsufficientCoins, Coins: s.coins}
	}

	s.coins -= float64(price)
	b.Owned++
	s.ensureTickerLocked()
	s.scheduleSaveLocked()

	return BuyResult{OK: true, PricePaid: price, Coins: s.coins, Owned: b.Owned}
}

// UpgradeBuilding buys the next efficiency level for an owned building.
func (s *Session) UpgradeBuilding(buildingID string) BuyResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := FindBuilding(s.buildings, buildingID)
	if b == nil {
		return BuyResult{Reason: ReasonUnknownBuilding, Coins: s.coins}
	}
	if !CanUpgrade(*b) {
		return BuyResult{Reason: ReasonUpgradeUnavailable, Coins: s.coins}
	}

	price := UpgradePrice(*b)
	if price < 0 || s.coins < float64(price) {
		return BuyResult{Reason: ReasonInsufficientCoins, Coins: s.coins}
	}

	s.coins -= float64(price)
	b.UpgradeLevel++
	s.ensureTickerLocked()
	s.scheduleSaveLocked()

	return BuyResult{OK: true, PricePaid: price, Coins: s.coins, Owned: b.Owned}
}

// Save triggers an explicit snapshot push. Returns false when a save is
// already in flight; overlapping saves are dropped, not queued.
func (s *Session) Save() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleSaveLocked()
}

// scheduleSaveLocked snapshots the state under the lock and pushes it from a
// goroutine, so store latency never blocks ticks or clicks. A failed save
// only leaves a transient notice; local state stays authoritative.
func (s *Session) scheduleSaveLocked() bool {
	if s.saveInFlight {
		return false
	}
	s.saveInFlight = true

	coins := int64(math.Floor(s.coins))
	snapshot := SparseBuildingSnapshot(s.buildings)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()

		ok, err := s.store.SaveGameData(ctx, s.playerID, coins, snapshot)

		s.mu.Lock()
		s.saveInFlight = false
		if err != nil || !ok {
			s.notice = "save failed"
			log.Println("session: save failed for", s.username, "err:", err)
		}
		s.mu.Unlock()
	}()
	return true
}

type PrestigeOutcome struct {
	OK             bool   `json:"ok"`
	Reason         string `json:"reason,omitempty"`
	PointsAwarded  int64  `json:"pointsAwarded"`
	PrestigePoints int64  `json:"prestigePoints"`
}

// ExecutePrestige runs the reset transaction. Eligibility is judged on the
// local lifetime-earned counter; the awarded point total is the store's
// authoritative recompute, reconciled back into the session on success.
func (s *Session) ExecutePrestige(ctx context.Context) PrestigeOutcome {
	s.mu.Lock()
	if s.prestigeInFlight {
		s.mu.Unlock()
		return PrestigeOutcome{Reason: ReasonInFlight}
	}
	if !CanPrestige(s.lifetimeCoins) {
		s.mu.Unlock()
		return PrestigeOutcome{Reason: ReasonPrestigeLocked}
	}
	s.prestigeInFlight = true
	currentCoins := int64(math.Floor(s.coins))
	s.mu.Unlock()

	result, err := s.store.ExecutePrestige(ctx, s.playerID, currentCoins)

	var refreshed *PlayerRecord
	if err == nil && result.Success {
		// Reconcile the optimistic local estimate with what the store
		// actually awarded.
		refreshed, _ = s.store.LoadPlayer(ctx, s.playerID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prestigeInFlight = false

	if err != nil || !result.Success {
		s.notice = "prestige failed"
		if err != nil {
			log.Println("session: prestige failed for", s.username, "err:", err)
		}
		return PrestigeOutcome{Reason: ReasonStoreError}
	}

	s.coins = 0
	for i := range s.buildings {
		s.buildings[i].Owned = 0
		s.buildings[i].UpgradeLevel = 0
	}
	if refreshed != nil {
		s.prestige.PrestigePoints = refreshed.PrestigePoints
		s.prestige.ClickPowerItems = refreshed.ClickPowerItems
		s.prestige.ProductionBoostItems = refreshed.ProductionBoostItems
		s.prestige.PriceReductionItems = refreshed.PriceReductionItems
		s.lifetimeCoins = float64(refreshed.LifetimeCoins)
	} else {
		s.prestige.PrestigePoints += result.PointsAwarded
	}
	s.stopTickerLocked()

	return PrestigeOutcome{
		OK:             true,
		PointsAwarded:  result.PointsAwarded,
		PrestigePoints: s.prestige.PrestigePoints,
	}
}

// BuyPrestigeItem debits points through the store and mirrors the result
// locally. Shares the single-flight guard with ExecutePrestige.
func (s *Session) BuyPrestigeItem(ctx context.Context, itemType string) PrestigeOutcome {
	cost, known := PrestigeItemCost(itemType)
	if !known {
		return PrestigeOutcome{Reason: ReasonUnknownItem}
	}

	s.mu.Lock()
	if s.prestigeInFlight {
		s.mu.Unlock()
		return PrestigeOutcome{Reason: ReasonInFlight}
	}
	if s.prestige.PrestigePoints < cost {
		s.mu.Unlock()
		return PrestigeOutcome{Reason: ReasonInsufficientPoints, PrestigePoints: s.prestige.PrestigePoints}
	}
	s.prestigeInFlight = true
	s.mu.Unlock()

	ok, err := s.store.BuyPrestigeItem(ctx, s.playerID, itemType)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prestigeInFlight = false

	if err != nil || !ok {
		s.notice = "prestige shop purchase failed"
		if err != nil {
			log.Println("session: prestige item purchase failed for", s.username, "err:", err)
		}
		return PrestigeOutcome{Reason: ReasonStoreError, PrestigePoints: s.prestige.PrestigePoints}
	}

	s.prestige.PrestigePoints -= cost
	switch itemType {
	case PrestigeItemClickPower:
		s.prestige.ClickPowerItems++
	case PrestigeItemProductionBoost:
		s.prestige.ProductionBoostItems++
	case PrestigeItemPriceReduction:
		s.prestige.PriceReductionItems++
	}
	s.ensureTickerLocked()

	return PrestigeOutcome{OK: true, PrestigePoints: s.prestige.PrestigePoints}
}

// Close stops the ticker and pushes a final synchronous snapshot.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTickerLocked()
	coins := int64(math.Floor(s.coins))
	snapshot := SparseBuildingSnapshot(s.buildings)
	s.mu.Unlock()

	if _, err := s.store.SaveGameData(ctx, s.playerID, coins, snapshot); err != nil {
		log.Println("session: final save failed for", s.username, "err:", err)
	}
}
