package main

import (
	"encoding/json"
	"log"
	"net/http"
)

/* ======================
   Request / Response Types
   ====================== */

type SimpleResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type PlayerActionRequest struct {
	PlayerID   string `json:"playerId"`
	BuildingID string `json:"buildingId,omitempty"`
	ItemType   string `json:"itemType,omitempty"`
}

type PlayerResponse struct {
	OK    bool        `json:"ok"`
	Error string      `json:"error,omitempty"`
	State SessionView `json:"state"`
}

type ClickResponse struct {
	OK     bool    `json:"ok"`
	Gained float64 `json:"gained"`
	Coins  float64 `json:"coins"`
}

type BuyResponse struct {
	OK        bool    `json:"ok"`
	Error     string  `json:"error,omitempty"`
	PricePaid int     `json:"pricePaid,omitempty"`
	Coins     float64 `json:"coins"`
	Owned     int     `json:"owned,omitempty"`
}

type PrestigeResponse struct {
	OK             bool   `json:"ok"`
	Error          string `json:"error,omitempty"`
	PointsAwarded  int64  `json:"pointsAwarded,omitempty"`
	PrestigePoints int64  `json:"prestigePoints"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// playerHandler is the login/bootstrap endpoint: looks the player up or
// creates it, attaches a live session, and returns the full state.
func playerHandler(sm *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if !isValidUsername(username) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(SimpleResponse{Error: "INVALID_USERNAME"})
			return
		}

		session, err := sm.Attach(r.Context(), username)
		if err != nil {
			log.Println("player attach failed:", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(SimpleResponse{Error: "INTERNAL_ERROR"})
			return
		}

		json.NewEncoder(w).Encode(PlayerResponse{OK: true, State: session.Snapshot()})
	}
}

func stateHandler(sm *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sm.Get(r.URL.Query().Get("playerId"))
		if session == nil {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(SimpleResponse{Error: "NO_SESSION"})
			return
		}
		json.NewEncoder(w).Encode(PlayerResponse{OK: true, State: session.Snapshot()})
	}
}

// sessionAction decodes the shared request shape and resolves the session.
func sessionAction(sm *SessionManager, w http.ResponseWriter, r *http.Request) (*Session, *PlayerActionRequest) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return nil, nil
	}
	var req PlayerActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(SimpleResponse{Error: "BAD_REQUEST"})
		return nil, nil
	}
	session := sm.Get(req.PlayerID)
	if session == nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(SimpleResponse{Error: "NO_SESSION"})
		return nil, nil
	}
	return session, &req
}

func clickHandler(sm *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessionAction(sm, w, r)
		if session == nil {
			return
		}
		result := session.Click()
		json.NewEncoder(w).Encode(ClickResponse{OK: true, Gained: result.Gained, Coins: result.Coins})
	}
}

func buyHandler(sm *SessionManager, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, req := sessionAction(sm, w, r)
		if session == nil {
			return
		}
		result := session.BuyBuilding(req.BuildingID)
		if result.OK {
			hub.NotifyPlayerUpdated(session.PlayerID(), "purchase")
		}
		json.NewEncoder(w).Encode(BuyResponse{
			OK:        result.OK,
			Error:     result.Reason,
			PricePaid: result.PricePaid,
			Coins:     result.Coins,
			Owned:     result.Owned,
		})
	}
}

func upgradeHandler(sm *SessionManager, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, req := sessionAction(sm, w, r)
		if session == nil {
			return
		}
		result := session.UpgradeBuilding(req.BuildingID)
		if result.OK {
			hub.NotifyPlayerUpdated(session.PlayerID(), "upgrade")
		}
		json.NewEncoder(w).Encode(BuyResponse{
			OK:        result.OK,
			Error:     result.Reason,
			PricePaid: result.PricePaid,
			Coins:     result.Coins,
			Owned:     result.Owned,
		})
	}
}

func saveHandler(sm *SessionManager, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessionAction(sm, w, r)
		if session == nil {
			return
		}
		if !session.Save() {
			json.NewEncoder(w).Encode(SimpleResponse{Error: "SAVE_IN_FLIGHT"})
			return
		}
		hub.NotifyPlayerUpdated(session.PlayerID(), "save")
		json.NewEncoder(w).Encode(SimpleResponse{OK: true})
	}
}

func prestigeHandler(sm *SessionManager, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessionAction(sm, w, r)
		if session == nil {
			return
		}
		outcome := session.ExecutePrestige(r.Context())
		if outcome.OK {
			hub.NotifyPlayerUpdated(session.PlayerID(), "prestige")
		}
		json.NewEncoder(w).Encode(PrestigeResponse{
			OK:             outcome.OK,
			Error:          outcome.Reason,
			PointsAwarded:  outcome.PointsAwarded,
			PrestigePoints: outcome.PrestigePoints,
		})
	}
}

func prestigeBuyHandler(sm *SessionManager, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, req := sessionAction(sm, w, r)
		if session == nil {
			return
		}
		outcome := session.BuyPrestigeItem(r.Context(), req.ItemType)
		if outcome.OK {
			hub.NotifyPlayerUpdated(session.PlayerID(), "prestige_shop")
		}
		json.NewEncoder(w).Encode(PrestigeResponse{
			OK:             outcome.OK,
			Error:          outcome.Reason,
			PrestigePoints: outcome.PrestigePoints,
		})
	}
}

func prestigeShopHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":    true,
			"items": PrestigeItems(),
		})
	}
}
