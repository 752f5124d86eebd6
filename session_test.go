package main

import (
	"context"
	"math"
	"testing"
	"time"
)

func testCatalog(t *testing.T) []Building {
	t.Helper()
	catalog, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("default catalog failed to load: %v", err)
	}
	return catalog
}

// newTestSession seeds the store with one player and attaches a session with
// a tick interval long enough that the wall-clock ticker never fires during
// the test; accrual is driven by calling tick directly.
func newTestSession(t *testing.T, store GameStore, rec PlayerRecord) *Session {
	t.Helper()
	if rec.ID == "" {
		rec.ID = "player-1"
	}
	if rec.Username == "" {
		rec.Username = "tester"
	}
	if rec.Buildings == nil {
		rec.Buildings = map[string]int{}
	}
	if mem, ok := store.(*MemoryStore); ok {
		mem.Seed(rec)
	}
	return NewSession(store, &rec, testCatalog(t), time.Hour)
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPurchaseRefusedWhenBroke(t *testing.T) {
	s := newTestSession(t, NewMemoryStore(), PlayerRecord{})

	result := s.BuyBuilding("coin_maker")
	if result.OK {
		t.Fatalf("purchase with zero coins must be refused")
	}
	if result.Reason != ReasonInsufficientCoins {
		t.Fatalf("reason = %q, want %q", result.Reason, ReasonInsufficientCoins)
	}
	if view := s.Snapshot(); view.Coins != 0 || FindBuilding(s.buildings, "coin_maker").Owned != 0 {
		t.Fatalf("refused purchase must not change state")
	}
}

func TestPurchaseDebitsAndIncrements(t *testing.T) {
	s := newTestSession(t, NewMemoryStore(), PlayerRecord{Coins: 10})

	result := s.BuyBuilding("coin_maker")
	if !result.OK {
		t.Fatalf("purchase refused: %q", result.Reason)
	}
	if result.PricePaid != 10 {
		t.Fatalf("price paid = %d, want 10", result.PricePaid)
	}
	if result.Coins != 0 || result.Owned != 1 {
		t.Fatalf("after purchase coins=%v owned=%d, want 0 and 1", result.Coins, result.Owned)
	}
}

func TestPurchaseRefusedWhenLocked(t *testing.T) {
	s := newTestSession(t, NewMemoryStore(), PlayerRecord{Coins: 1000})

	result := s.BuyBuilding("gold_mine")
	if result.OK || result.Reason != ReasonBuildingLocked {
		t.Fatalf("silhouette purchase = %+v, want BUILDING_LOCKED refusal", result)
	}

	// Owning the prerequisite makes it purchasable (state "next").
	if r := s.BuyBuilding("coin_maker"); !r.OK {
		t.Fatalf("prerequisite purchase refused: %q", r.Reason)
	}
	result = s.BuyBuilding("gold_mine")
	if !result.OK {
		t.Fatalf("next-state purchase refused: %q", result.Reason)
	}
}

func TestPurchaseUnknownBuilding(t *testing.T) {
	s := newTestSession(t, NewMemoryStore(), PlayerRecord{Coins: 100})
	if result := s.BuyBuilding("moon_base"); result.OK || result.Reason != ReasonUnknownBuilding {
		t.Fatalf("unknown building = %+v", result)
	}
}

func TestClickYield(t *testing.T) {
	s := newTestSession(t, NewMemoryStore(), PlayerRecord{})

	if result := s.Click(); result.Gained != 1 || result.Coins != 1 {
		t.Fatalf("bare click = %+v, want gain 1", result)
	}

	// Click boosters and the prestige click bonus both stack on the base.
	s.mu.Lock()
	FindBuilding(s.buildings, "click_enhancer").Owned = 2
	s.prestige.ClickPowerItems = 1
	s.mu.Unlock()

	if result := s.Click(); result.Gained != 103 {
		t.Fatalf("boosted click gained %v, want 1+2+100 = 103", result.Gained)
	}
}

func TestTickAccrualExact(t *testing.T) {
	// Two gold mines at 1 cps each: a steady rate of 2 per tick.
	s := newTestSession(t, NewMemoryStore(), PlayerRecord{
		Buildings: map[string]int{"gold_mine": 2},
	})

	s.mu.Lock()
	stop := s.tickStop
	s.mu.Unlock()

	before := s.Snapshot().Coins
	for i := 0; i < 5; i++ {
		if !s.tick(stop) {
			t.Fatalf("tick %d retired unexpectedly", i)
		}
	}
	after := s.Snapshot().Coins

	if diff := after - before; math.Abs(diff-10) > 1e-9 {
		t.Fatalf("5 ticks at rate 2 accrued %v, want exactly 10", diff)
	}
}

func TestTickerLifecycle(t *testing.T) {
	s := newTestSession(t, NewMemoryStore(), PlayerRecord{Coins: 10})

	s.mu.Lock()
	running := s.tickStop != nil
	s.mu.Unlock()
	if running {
		t.Fatalf("ticker must not run with zero production")
	}

	if r := s.BuyBuilding("coin_maker"); !r.OK {
		t.Fatalf("purchase refused: %q", r.Reason)
	}
	s.mu.Lock()
	running = s.tickStop != nil
	s.mu.Unlock()
	if !running {
		t.Fatalf("ticker must start once production is positive")
	}
}

func TestPrestigeRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	s := newTestSession(t, store, PlayerRecord{
		Coins:     500,
		Buildings: map[string]int{"coin_maker": 3, "gold_mine": 1},
	})

	outcome := s.ExecutePrestige(context.Background())
	if !outcome.OK {
		t.Fatalf("prestige refused: %q", outcome.Reason)
	}
	if outcome.PointsAwarded != 5 {
		t.Fatalf("points awarded = %d, want floor(500/100) = 5", outcome.PointsAwarded)
	}

	view := s.Snapshot()
	if view.Coins != 0 {
		t.Errorf("coins after prestige = %v, want 0", view.Coins)
	}
	for _, b := range view.Buildings {
		if b.Owned != 0 {
			t.Errorf("building %s owned = %d after prestige, want 0", b.ID, b.Owned)
		}
	}
	if view.Prestige.PrestigePoints != 5 {
		t.Errorf("prestige points = %d, want 5", view.Prestige.PrestigePoints)
	}
	if view.CoinsPerSecond != 0 {
		t.Errorf("cps after prestige = %v, want 0", view.CoinsPerSecond)
	}

	// Lifetime already banked: an immediate second prestige stays eligible
	// but awards nothing.
	outcome = s.ExecutePrestige(context.Background())
	if !outcome.OK || outcome.PointsAwarded != 0 {
		t.Fatalf("second prestige = %+v, want success with 0 points", outcome)
	}
	if got := s.Snapshot().Prestige.PrestigePoints; got != 5 {
		t.Fatalf("points after second prestige = %d, want 5", got)
	}
}

func TestPrestigeRefusedBeforeThreshold(t *testing.T) {
	s := newTestSession(t, NewMemoryStore(), PlayerRecord{Coins: 499})
	if outcome := s.ExecutePrestige(context.Background()); outcome.OK || outcome.Reason != ReasonPrestigeLocked {
		t.Fatalf("under-threshold prestige = %+v", outcome)
	}
}

func TestBuyPrestigeItem(t *testing.T) {
	store := NewMemoryStore()
	s := newTestSession(t, store, PlayerRecord{PrestigePoints: 3})

	outcome := s.BuyPrestigeItem(context.Background(), PrestigeItemProductionBoost)
	if !outcome.OK {
		t.Fatalf("shop purchase refused: %q", outcome.Reason)
	}
	if outcome.PrestigePoints != 1 {
		t.Fatalf("points after purchase = %d, want 1", outcome.PrestigePoints)
	}

	view := s.Snapshot()
	if view.Prestige.ProductionBoostItems != 1 {
		t.Fatalf("item count = %d, want 1", view.Prestige.ProductionBoostItems)
	}
	if view.PrestigeEffect.ProductionMultiplier != 2 {
		t.Fatalf("production multiplier = %v, want 2", view.PrestigeEffect.ProductionMultiplier)
	}

	// 1 point left; price_reduction costs 3.
	outcome = s.BuyPrestigeItem(context.Background(), PrestigeItemPriceReduction)
	if outcome.OK || outcome.Reason != ReasonInsufficientPoints {
		t.Fatalf("unaffordable item = %+v", outcome)
	}

	if outcome := s.BuyPrestigeItem(context.Background(), "free_coins"); outcome.OK || outcome.Reason != ReasonUnknownItem {
		t.Fatalf("unknown item = %+v", outcome)
	}

	rec, _ := store.LoadPlayer(context.Background(), s.PlayerID())
	if rec.PrestigePoints != 1 || rec.ProductionBoostItems != 1 {
		t.Fatalf("store out of sync: %+v", rec)
	}
}

func TestPurchaseTriggersSave(t *testing.T) {
	store := NewMemoryStore()
	s := newTestSession(t, store, PlayerRecord{Coins: 10})

	if r := s.BuyBuilding("coin_maker"); !r.OK {
		t.Fatalf("purchase refused: %q", r.Reason)
	}

	waitUntil(t, "async save to land", func() bool {
		rec, err := store.LoadPlayer(context.Background(), s.PlayerID())
		return err == nil && rec != nil && rec.Buildings["coin_maker"] == 1 && rec.Coins == 0
	})
}

/* ======================
   Slow-store fakes
   ====================== */

// stallingStore delays SaveGameData until released, to expose the
// single-flight behavior.
type stallingStore struct {
	*MemoryStore
	release chan struct{}
}

func (s *stallingStore) SaveGameData(ctx context.Context, playerID string, coins int64, buildings map[string]int) (bool, error) {
	<-s.release
	return s.MemoryStore.SaveGameData(ctx, playerID, coins, buildings)
}

func TestOverlappingSavesDropped(t *testing.T) {
	store := &stallingStore{MemoryStore: NewMemoryStore(), release: make(chan struct{})}
	store.Seed(PlayerRecord{ID: "player-1", Username: "tester"})
	rec, _ := store.LoadPlayer(context.Background(), "player-1")
	s := NewSession(store, rec, testCatalog(t), time.Hour)

	if !s.Save() {
		t.Fatalf("first save must be accepted")
	}
	if s.Save() {
		t.Fatalf("overlapping save must be dropped, not queued")
	}

	close(store.release)
	waitUntil(t, "in-flight save to clear", func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return !s.saveInFlight
	})

	if !s.Save() {
		t.Fatalf("save must be accepted again once the previous one lands")
	}
}

// failingStore rejects every save to verify local state survives
// collaborator failures.
type failingStore struct {
	*MemoryStore
}

func (s *failingStore) SaveGameData(ctx context.Context, playerID string, coins int64, buildings map[string]int) (bool, error) {
	return false, context.DeadlineExceeded
}

func TestFailedSaveLeavesStateIntact(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore()}
	store.Seed(PlayerRecord{ID: "player-1", Username: "tester", Coins: 10})
	rec, _ := store.LoadPlayer(context.Background(), "player-1")
	s := NewSession(store, rec, testCatalog(t), time.Hour)

	if r := s.BuyBuilding("coin_maker"); !r.OK {
		t.Fatalf("purchase refused: %q", r.Reason)
	}

	waitUntil(t, "failed save to surface a notice", func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.notice != ""
	})

	view := s.Snapshot()
	if view.Notice != "save failed" {
		t.Fatalf("notice = %q, want transient save-failed notice", view.Notice)
	}
	if FindBuilding(s.buildings, "coin_maker").Owned != 1 {
		t.Fatalf("local state must stay authoritative after a failed save")
	}
	if s.Snapshot().Notice != "" {
		t.Fatalf("notice must clear once read")
	}
}
