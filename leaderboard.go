package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	PlayerID       string `json:"playerId"`
	Username       string `json:"username"`
	Coins          int64  `json:"coins"`
	PrestigePoints int64  `json:"prestigePoints"`
	UpdatedAt      string `json:"updatedAt"`
}

type LeaderboardResponse struct {
	OK      bool               `json:"ok"`
	Error   string             `json:"error,omitempty"`
	Results []LeaderboardEntry `json:"results"`
}

func leaderboardHandler(store GameStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		records, err := store.Leaderboard(r.Context())
		if err != nil {
			log.Println("leaderboard query failed:", err)
			json.NewEncoder(w).Encode(LeaderboardResponse{Error: "INTERNAL_ERROR", Results: []LeaderboardEntry{}})
			return
		}

		results := make([]LeaderboardEntry, 0, len(records))
		for i, rec := range records {
			results = append(results, LeaderboardEntry{
				Rank:           i + 1,
				PlayerID:       rec.ID,
				Username:       rec.Username,
				Coins:          rec.Coins,
				PrestigePoints: rec.PrestigePoints,
				UpdatedAt:      rec.UpdatedAt.UTC().Format(time.RFC3339),
			})
		}
		json.NewEncoder(w).Encode(LeaderboardResponse{OK: true, Results: results})
	}
}

func rankHandler(store GameStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		playerID := r.URL.Query().Get("playerId")
		if playerID == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(SimpleResponse{Error: "MISSING_PLAYER_ID"})
			return
		}

		rank, err := store.PlayerRank(r.Context(), playerID)
		if err != nil {
			log.Println("rank query failed:", err)
			json.NewEncoder(w).Encode(SimpleResponse{Error: "INTERNAL_ERROR"})
			return
		}

		// rank is -1 when the player has no row; the client renders a
		// placeholder for that.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":   true,
			"rank": rank,
		})
	}
}
