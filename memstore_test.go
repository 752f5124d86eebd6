package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMemoryStoreGetOrCreateIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.GetOrCreatePlayer(ctx, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID == "" {
		t.Fatalf("new player must get an id")
	}

	second, err := store.GetOrCreatePlayer(ctx, "alice")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("same username resolved to two ids: %s vs %s", first.ID, second.ID)
	}
}

func TestMemoryStoreLoadUnknownPlayer(t *testing.T) {
	store := NewMemoryStore()
	rec, err := store.LoadPlayer(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Fatalf("unknown player must load as nil, got %+v", rec)
	}
}

func TestMemoryStoreSaveGameData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Seed(PlayerRecord{ID: "p1", Username: "alice"})

	ok, err := store.SaveGameData(ctx, "p1", 42, map[string]int{
		"coin_maker": 3,
		"gold_mine":  0, // zero counts are pruned from the snapshot
	})
	if err != nil || !ok {
		t.Fatalf("save = (%v, %v)", ok, err)
	}

	rec, _ := store.LoadPlayer(ctx, "p1")
	if rec.Coins != 42 {
		t.Errorf("coins = %d, want 42", rec.Coins)
	}
	if rec.Buildings["coin_maker"] != 3 {
		t.Errorf("coin_maker = %d, want 3", rec.Buildings["coin_maker"])
	}
	if _, ok := rec.Buildings["gold_mine"]; ok {
		t.Errorf("zero-count building must not be stored")
	}

	if ok, err := store.SaveGameData(ctx, "missing", 1, nil); ok || err != nil {
		t.Errorf("save for unknown player = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestMemoryStoreLeaderboard(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// 12 players; only the top 10 by coins come back, ties broken by name.
	for i := 0; i < 12; i++ {
		store.Seed(PlayerRecord{
			Username: fmt.Sprintf("player-%02d", i),
			Coins:    int64(i * 100),
		})
	}
	store.Seed(PlayerRecord{Username: "aaa-tied", Coins: 1100})

	records, err := store.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(records) != leaderboardLimit {
		t.Fatalf("leaderboard size = %d, want %d", len(records), leaderboardLimit)
	}
	if records[0].Username != "aaa-tied" {
		t.Errorf("tie at 1100 must break by username, got %q first", records[0].Username)
	}
	for i := 1; i < len(records); i++ {
		if records[i].Coins > records[i-1].Coins {
			t.Fatalf("leaderboard not sorted at index %d", i)
		}
	}
}

func TestMemoryStorePlayerRank(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Seed(
		PlayerRecord{ID: "top", Username: "top", Coins: 1000},
		PlayerRecord{ID: "mid", Username: "mid", Coins: 500},
		PlayerRecord{ID: "low", Username: "low", Coins: 10},
	)

	tests := []struct {
		playerID string
		want     int
	}{
		{"top", 1},
		{"mid", 2},
		{"low", 3},
		{"ghost", -1},
	}
	for _, tt := range tests {
		rank, err := store.PlayerRank(ctx, tt.playerID)
		if err != nil {
			t.Fatalf("rank(%s): %v", tt.playerID, err)
		}
		if rank != tt.want {
			t.Errorf("rank(%s) = %d, want %d", tt.playerID, rank, tt.want)
		}
	}
}

func TestMemoryStoreExecutePrestige(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Seed(PlayerRecord{
		ID:        "p1",
		Username:  "alice",
		Coins:     550,
		Buildings: map[string]int{"coin_maker": 4},
	})

	result, err := store.ExecutePrestige(ctx, "p1", 550)
	if err != nil {
		t.Fatalf("prestige: %v", err)
	}
	if !result.Success || result.PointsAwarded != 5 {
		t.Fatalf("result = %+v, want success with floor(550/100) = 5 points", result)
	}

	rec, _ := store.LoadPlayer(ctx, "p1")
	if rec.Coins != 0 || len(rec.Buildings) != 0 {
		t.Errorf("prestige must reset coins and buildings, got %+v", rec)
	}
	if rec.LifetimeCoins != 550 {
		t.Errorf("lifetime = %d, want balance folded in as 550", rec.LifetimeCoins)
	}
	if rec.PrestigePoints != 5 {
		t.Errorf("points = %d, want 5", rec.PrestigePoints)
	}

	// The award is the delta of cumulative yields: 550 already banked means
	// another 60 only crosses one boundary (610/100 - 550/100 = 1).
	result, err = store.ExecutePrestige(ctx, "p1", 60)
	if err != nil || !result.Success {
		t.Fatalf("second prestige = (%+v, %v)", result, err)
	}
	if result.PointsAwarded != 1 {
		t.Fatalf("second award = %d, want 1", result.PointsAwarded)
	}

	if result, err := store.ExecutePrestige(ctx, "ghost", 500); err != nil || result.Success {
		t.Fatalf("prestige for unknown player = (%+v, %v), want silent failure", result, err)
	}
}

func TestMemoryStoreBuyPrestigeItem(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Seed(PlayerRecord{ID: "p1", Username: "alice", PrestigePoints: 3})

	ok, err := store.BuyPrestigeItem(ctx, "p1", PrestigeItemPriceReduction)
	if err != nil || !ok {
		t.Fatalf("affordable purchase = (%v, %v)", ok, err)
	}
	rec, _ := store.LoadPlayer(ctx, "p1")
	if rec.PrestigePoints != 0 || rec.PriceReductionItems != 1 {
		t.Fatalf("after purchase: %+v", rec)
	}

	if ok, err := store.BuyPrestigeItem(ctx, "p1", PrestigeItemClickPower); ok || err != nil {
		t.Errorf("broke purchase = (%v, %v), want (false, nil)", ok, err)
	}

	if _, err := store.BuyPrestigeItem(ctx, "p1", "free_coins"); !errors.Is(err, ErrUnknownItemType) {
		t.Errorf("unknown item err = %v, want ErrUnknownItemType", err)
	}
}
