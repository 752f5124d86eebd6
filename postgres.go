package main

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
)

// PostgresStore is the durable GameStore. All state lives in one players
// table; the building snapshot is a sparse JSONB map of id -> owned count.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			player_id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			coins BIGINT NOT NULL DEFAULT 0,
			buildings JSONB NOT NULL DEFAULT '{}'::jsonb,
			lifetime_coins BIGINT NOT NULL DEFAULT 0,
			prestige_points BIGINT NOT NULL DEFAULT 0,
			click_power_items BIGINT NOT NULL DEFAULT 0,
			production_boost_items BIGINT NOT NULL DEFAULT 0,
			price_reduction_items BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	// Columns added after the first deploy; keep old databases working.
	for _, stmt := range []string{
		`ALTER TABLE players ADD COLUMN IF NOT EXISTS lifetime_coins BIGINT NOT NULL DEFAULT 0;`,
		`ALTER TABLE players ADD COLUMN IF NOT EXISTS prestige_points BIGINT NOT NULL DEFAULT 0;`,
		`ALTER TABLE players ADD COLUMN IF NOT EXISTS click_power_items BIGINT NOT NULL DEFAULT 0;`,
		`ALTER TABLE players ADD COLUMN IF NOT EXISTS production_boost_items BIGINT NOT NULL DEFAULT 0;`,
		`ALTER TABLE players ADD COLUMN IF NOT EXISTS price_reduction_items BIGINT NOT NULL DEFAULT 0;`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	_, err = s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_players_coins ON players (coins DESC);
	`)
	return err
}

const playerColumns = `
	player_id, username, coins, buildings, lifetime_coins,
	prestige_points, click_power_items, production_boost_items,
	price_reduction_items, created_at, updated_at
`

func (s *PostgresStore) GetOrCreatePlayer(ctx context.Context, username string) (*PlayerRecord, error) {
	rec, err := s.playerByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO players (player_id, username, coins, buildings, created_at, updated_at)
		VALUES ($1, $2, 0, '{}'::jsonb, NOW(), NOW())
		ON CONFLICT (username) DO NOTHING
	`, uuid.NewString(), username)
	if err != nil {
		return nil, err
	}

	// Re-select rather than trusting the insert: a concurrent creator may
	// have won the conflict.
	rec, err = s.playerByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrPlayerNotFound
	}
	return rec, nil
}

func (s *PostgresStore) LoadPlayer(ctx context.Context, playerID string) (*PlayerRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE player_id = $1
	`, playerID)
	return scanPlayerRecord(row)
}

func (s *PostgresStore) playerByUsername(ctx context.Context, username string) (*PlayerRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE username = $1
	`, username)
	return scanPlayerRecord(row)
}

func (s *PostgresStore) SaveGameData(ctx context.Context, playerID string, coins int64, buildings map[string]int) (bool, error) {
	snapshot := make(map[string]int, len(buildings))
	for id, owned := range buildings {
		if owned > 0 {
			snapshot[id] = owned
		}
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return false, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE players
		SET coins = $2,
			buildings = $3,
			updated_at = NOW()
		WHERE player_id = $1
	`, playerID, coins, payload)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *PostgresStore) Leaderboard(ctx context.Context) ([]PlayerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+playerColumns+`
		FROM players
		ORDER BY coins DESC, username ASC
		LIMIT $1
	`, leaderboardLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []PlayerRecord{}
	for rows.Next() {
		rec, err := scanPlayerRecord(rows)
		if err != nil {
			continue
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) PlayerRank(ctx context.Context, playerID string) (int, error) {
	var coins int64
	err := s.db.QueryRowContext(ctx, `
		SELECT coins
		FROM players
		WHERE player_id = $1
	`, playerID).Scan(&coins)
	if err == sql.ErrNoRows {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}

	var ahead int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM players
		WHERE coins > $1
	`, coins).Scan(&ahead)
	if err != nil {
		return -1, err
	}
	return ahead + 1, nil
}

func (s *PostgresStore) ExecutePrestige(ctx context.Context, playerID string, currentCoins int64) (PrestigeResult, error) {
	if currentCoins < 0 {
		currentCoins = 0
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PrestigeResult{}, err
	}
	defer tx.Rollback()

	var oldLifetime int64
	err = tx.QueryRowContext(ctx, `
		SELECT lifetime_coins
		FROM players
		WHERE player_id = $1
		FOR UPDATE
	`, playerID).Scan(&oldLifetime)
	if err == sql.ErrNoRows {
		return PrestigeResult{}, nil
	}
	if err != nil {
		return PrestigeResult{}, err
	}

	newLifetime := oldLifetime + currentCoins
	awarded := newLifetime/prestigeCoinsPerPoint - oldLifetime/prestigeCoinsPerPoint

	_, err = tx.ExecContext(ctx, `
		UPDATE players
		SET coins = 0,
			buildings = '{}'::jsonb,
			lifetime_coins = $2,
			prestige_points = prestige_points + $3,
			updated_at = NOW()
		WHERE player_id = $1
	`, playerID, newLifetime, awarded)
	if err != nil {
		return PrestigeResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return PrestigeResult{}, err
	}
	return PrestigeResult{Success: true, PointsAwarded: awarded}, nil
}

func (s *PostgresStore) BuyPrestigeItem(ctx context.Context, playerID string, itemType string) (bool, error) {
	cost, ok := PrestigeItemCost(itemType)
	if !ok {
		return false, ErrUnknownItemType
	}

	var column string
	switch itemType {
	case PrestigeItemClickPower:
		column = "click_power_items"
	case PrestigeItemProductionBoost:
		column = "production_boost_items"
	case PrestigeItemPriceReduction:
		column = "price_reduction_items"
	}

	// Single conditional update: the WHERE clause is the funds check.
	result, err := s.db.ExecContext(ctx, `
		UPDATE players
		SET prestige_points = prestige_points - $2,
			`+column+` = `+column+` + 1,
			updated_at = NOW()
		WHERE player_id = $1 AND prestige_points >= $2
	`, playerID, cost)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlayerRecord(row rowScanner) (*PlayerRecord, error) {
	var rec PlayerRecord
	var buildings []byte
	err := row.Scan(
		&rec.ID,
		&rec.Username,
		&rec.Coins,
		&buildings,
		&rec.LifetimeCoins,
		&rec.PrestigePoints,
		&rec.ClickPowerItems,
		&rec.ProductionBoostItems,
		&rec.PriceReductionItems,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.Buildings = map[string]int{}
	if len(buildings) > 0 {
		if err := json.Unmarshal(buildings, &rec.Buildings); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}
