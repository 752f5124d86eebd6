package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := LoadConfig()

	catalog, err := LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatal("catalog load failed: ", err)
	}
	log.Println("Catalog: loaded", len(catalog), "buildings")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("store init failed: ", err)
	}

	hub := NewHub()
	sessions := NewSessionManager(store, catalog, cfg.TickInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler)
	mux.HandleFunc("/api/player", playerHandler(sessions))
	mux.HandleFunc("/api/state", stateHandler(sessions))
	mux.HandleFunc("/api/click", clickHandler(sessions))
	mux.HandleFunc("/api/buy", buyHandler(sessions, hub))
	mux.HandleFunc("/api/upgrade", upgradeHandler(sessions, hub))
	mux.HandleFunc("/api/save", saveHandler(sessions, hub))
	mux.HandleFunc("/api/prestige", prestigeHandler(sessions, hub))
	mux.HandleFunc("/api/prestige/buy", prestigeBuyHandler(sessions, hub))
	mux.HandleFunc("/api/prestige/shop", prestigeShopHandler())
	mux.HandleFunc("/api/leaderboard", leaderboardHandler(store))
	mux.HandleFunc("/api/rank", rankHandler(store))
	mux.HandleFunc("/ws", hub.ServeWs)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		err := hub.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		log.Println("Listening on :" + cfg.Port)
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		sessions.CloseAll(shutdownCtx)
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatal(err)
	}
}

// openStore picks the persistence backend at the composition root. The rest
// of the program only ever sees the GameStore interface.
func openStore(ctx context.Context, cfg Config) (GameStore, error) {
	if cfg.DatabaseURL == "" {
		log.Println("Store: no DATABASE_URL, using in-memory store")
		store := NewMemoryStore()
		if cfg.SeedDevData {
			seedDevPlayers(store)
		}
		return store, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	log.Println("Store: connected to Postgres")
	return store, nil
}

// seedDevPlayers fills the local leaderboard so dev mode doesn't start on an
// empty screen.
func seedDevPlayers(store *MemoryStore) {
	store.Seed(
		PlayerRecord{
			Username:             "TopPlayer",
			Coins:                50000,
			Buildings:            map[string]int{"coin_maker": 5, "gold_mine": 3, "bank": 1},
			LifetimeCoins:        1500,
			PrestigePoints:       10,
			ClickPowerItems:      3,
			ProductionBoostItems: 2,
			PriceReductionItems:  2,
		},
		PlayerRecord{
			Username:        "TestPlayer1",
			Coins:           15000,
			Buildings:       map[string]int{"coin_maker": 3, "gold_mine": 2},
			LifetimeCoins:   800,
			PrestigePoints:  5,
			ClickPowerItems: 2,
		},
		PlayerRecord{
			Username:            "TestPlayer2",
			Coins:               8500,
			Buildings:           map[string]int{"coin_maker": 2},
			LifetimeCoins:       300,
			PrestigePoints:      2,
			ClickPowerItems:     1,
			PriceReductionItems: 1,
		},
	)
	log.Println("Store: seeded dev players")
}
