package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Headless players that exercise the whole game loop over the HTTP API:
// login, click bursts, greedy building purchases, the occasional save, and a
// prestige as soon as it opens up. Useful for soaking the server and for
// keeping a dev leaderboard alive.

type BotState struct {
	Username string
	PlayerID string
	Actions  int
}

type botSessionView struct {
	PlayerID       string  `json:"playerId"`
	Coins          float64 `json:"coins"`
	CanPrestige    bool    `json:"canPrestige"`
	CoinsPerSecond float64 `json:"coinsPerSecond"`
	Buildings      []struct {
		ID    string `json:"id"`
		Price int    `json:"price"`
		State string `json:"state"`
	} `json:"buildings"`
}

type botPlayerResponse struct {
	OK    bool           `json:"ok"`
	Error string         `json:"error,omitempty"`
	State botSessionView `json:"state"`
}

type botActionResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func main() {
	baseURL := strings.TrimSpace(os.Getenv("API_BASE_URL"))
	if baseURL == "" {
		logError("API_BASE_URL is required")
		os.Exit(1)
	}

	botCount := parseEnvInt("BOT_COUNT", 3)
	maxActions := parseEnvInt("BOT_MAX_ACTIONS_PER_RUN", 20)
	minDelay := parseEnvInt("BOT_DELAY_MIN_MS", 200)
	maxDelay := parseEnvInt("BOT_DELAY_MAX_MS", 1500)
	clickBurst := parseEnvInt("BOT_CLICK_BURST", 10)

	client := &http.Client{Timeout: 15 * time.Second}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	bots := make([]*BotState, 0, botCount)
	for i := 0; i < botCount; i++ {
		bots = append(bots, &BotState{Username: fmt.Sprintf("bot-%02d", i+1)})
	}

	for _, bot := range bots {
		state, err := login(client, baseURL, bot.Username)
		if err != nil {
			logError(fmt.Sprintf("%s: login failed: %v", bot.Username, err))
			continue
		}
		bot.PlayerID = state.PlayerID
		logInfo(fmt.Sprintf("%s: attached as %s", bot.Username, bot.PlayerID))
	}

	for done := false; !done; {
		done = true
		for _, bot := range bots {
			if bot.PlayerID == "" || bot.Actions >= maxActions {
				continue
			}
			done = false
			bot.Actions++

			if err := runAction(client, baseURL, bot, rng, clickBurst); err != nil {
				logError(fmt.Sprintf("%s: action failed: %v", bot.Username, err))
			}

			delay := minDelay
			if maxDelay > minDelay {
				delay += rng.Intn(maxDelay - minDelay)
			}
			time.Sleep(time.Duration(delay) * time.Millisecond)
		}
	}

	logInfo("run complete")
}

func runAction(client *http.Client, baseURL string, bot *BotState, rng *rand.Rand, clickBurst int) error {
	burst := 1 + rng.Intn(clickBurst)
	for i := 0; i < burst; i++ {
		if err := postAction(client, baseURL+"/api/click", bot.PlayerID, nil); err != nil {
			return err
		}
	}

	state, err := fetchState(client, baseURL, bot.PlayerID)
	if err != nil {
		return err
	}

	if state.CanPrestige && rng.Float64() < 0.1 {
		logInfo(fmt.Sprintf("%s: prestiging", bot.Username))
		return postAction(client, baseURL+"/api/prestige", bot.PlayerID, nil)
	}

	// Greedy: buy the cheapest purchasable building we can afford.
	bestID := ""
	bestPrice := 0
	for _, b := range state.Buildings {
		if b.State == "silhouette" {
			continue
		}
		if float64(b.Price) > state.Coins {
			continue
		}
		if bestID == "" || b.Price < bestPrice {
			bestID = b.ID
			bestPrice = b.Price
		}
	}
	if bestID != "" {
		return postAction(client, baseURL+"/api/buy", bot.PlayerID, map[string]string{"buildingId": bestID})
	}

	if rng.Float64() < 0.2 {
		return postAction(client, baseURL+"/api/save", bot.PlayerID, nil)
	}
	return nil
}

func login(client *http.Client, baseURL, username string) (*botSessionView, error) {
	resp, err := client.Get(baseURL + "/api/player?username=" + username)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded botPlayerResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if !decoded.OK {
		return nil, fmt.Errorf("server said %q", decoded.Error)
	}
	return &decoded.State, nil
}

func fetchState(client *http.Client, baseURL, playerID string) (*botSessionView, error) {
	resp, err := client.Get(baseURL + "/api/state?playerId=" + playerID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded botPlayerResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if !decoded.OK {
		return nil, fmt.Errorf("server said %q", decoded.Error)
	}
	return &decoded.State, nil
}

func postAction(client *http.Client, url, playerID string, extra map[string]string) error {
	payload := map[string]string{"playerId": playerID}
	for k, v := range extra {
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var decoded botActionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return err
	}
	// Refusals (insufficient coins, locked building) are normal play; only
	// transport-level failures bubble up as errors.
	return nil
}

func parseEnvInt(name string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(name))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func logInfo(msg string)  { log.Println("[bot-runner]", msg) }
func logError(msg string) { log.Println("[bot-runner] ERROR:", msg) }
