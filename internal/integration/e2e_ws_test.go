package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"

	"ludo_arena/internal/config"
	httpserver "ludo_arena/internal/http"
	"ludo_arena/internal/service"
)

func applyMigrationsToPool(t *testing.T, dbp *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := dbp.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func TestE2E_WS_Match(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	os.Setenv("JWT_SECRET", "test-secret")

	dbp, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer dbp.Close()

	applyMigrationsToPool(t, dbp)

	service.InitJWT()

	cfg := &config.Config{
		SettleDelay:     50 * time.Millisecond,
		AutoSkipDelay:   50 * time.Millisecond,
		RoomIdleTimeout: time.Hour,
		APIRateLimit:    1000,
		APIRateWindow:   time.Minute,
		AuthRateLimit:   1000,
		AuthRateWindow:  time.Minute,
		ActionRateLimit: 1000,
	}

	// start server with real routes
	gin.SetMode(gin.TestMode)
	r := gin.Default()
	identities := service.NewIdentityRegistry()
	httpserver.RegisterRoutes(r, dbp, identities, cfg)
	ts := httptest.NewServer(r)
	defer ts.Close()

	// issue two anonymous identities through the REST surface
	login := func(name string) (string, string) {
		resp, err := http.Post(ts.URL+"/api/v1/auth/anonymous", "application/json", bytes.NewReader(nil))
		if err != nil {
			t.Fatalf("login %s: %v", name, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("login %s: status %d", name, resp.StatusCode)
		}
		var body struct {
			Token    string `json:"token"`
			Identity struct {
				ID string `json:"id"`
			} `json:"identity"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode login %s: %v", name, err)
		}
		return body.Token, body.Identity.ID
	}

	tokenA, idA := login("A")
	tokenB, idB := login("B")

	// authenticated REST works with the issued token
	req, _ := http.NewRequest("GET", ts.URL+"/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenA)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("me request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: status %d", resp.StatusCode)
	}

	// connect two websocket clients
	d := websocket.DefaultDialer
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token="
	connA, _, err := d.Dial(wsURL+tokenA, nil)
	if err != nil {
		t.Fatalf("dial A: %v", err)
	}
	defer connA.Close()

	connB, _, err := d.Dial(wsURL+tokenB, nil)
	if err != nil {
		t.Fatalf("dial B: %v", err)
	}
	defer connB.Close()

	// start a single reader goroutine per connection to avoid concurrent ReadMessage calls
	startReader := func(conn *websocket.Conn) chan []byte {
		out := make(chan []byte, 32)
		go func() {
			defer close(out)
			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					return
				}
				out <- msg
			}
		}()
		return out
	}

	chA := startReader(connA)
	chB := startReader(connB)

	waitFor := func(ch chan []byte, eventType string, tmo time.Duration) json.RawMessage {
		deadline := time.Now().Add(tmo)
		for time.Now().Before(deadline) {
			select {
			case m, ok := <-ch:
				if !ok {
					return nil
				}
				var obj struct {
					Type    string          `json:"type"`
					Payload json.RawMessage `json:"payload"`
				}
				_ = json.Unmarshal(m, &obj)
				if obj.Type == eventType {
					return obj.Payload
				}
			case <-time.After(25 * time.Millisecond):
			}
		}
		return nil
	}

	// handshake carries the connection id for signaling
	if waitFor(chA, "ready", 2*time.Second) == nil {
		t.Fatalf("A did not receive ready")
	}
	if waitFor(chB, "ready", 2*time.Second) == nil {
		t.Fatalf("B did not receive ready")
	}

	find := []byte(`{"type":"find_game","payload":{"player_count":2}}`)
	if err := connA.WriteMessage(websocket.TextMessage, find); err != nil {
		t.Fatalf("write A: %v", err)
	}
	if err := connB.WriteMessage(websocket.TextMessage, find); err != nil {
		t.Fatalf("write B: %v", err)
	}

	foundA := waitFor(chA, "game_found", 3*time.Second)
	if foundA == nil {
		t.Fatalf("A did not receive game_found")
	}
	if waitFor(chB, "game_found", 3*time.Second) == nil {
		t.Fatalf("B did not receive game_found")
	}

	var found struct {
		RoomID string `json:"room_id"`
	}
	if err := json.Unmarshal(foundA, &found); err != nil || found.RoomID == "" {
		t.Fatalf("bad game_found payload: %s", string(foundA))
	}

	if waitFor(chA, "game_started", 3*time.Second) == nil {
		t.Fatalf("A did not receive game_started")
	}

	// first turn goes to the first player matched
	turn := waitFor(chA, "turn_changed", 3*time.Second)
	if turn == nil {
		t.Fatalf("A did not receive turn_changed")
	}
	var tc struct {
		PlayerID string `json:"player_id"`
	}
	_ = json.Unmarshal(turn, &tc)

	roller := connA
	rollerCh := chA
	if tc.PlayerID == idB {
		roller = connB
		rollerCh = chB
	} else if tc.PlayerID != idA {
		t.Fatalf("turn belongs to neither player: %s", tc.PlayerID)
	}

	rollMsg := []byte(`{"type":"roll_dice","payload":{"room_id":"` + found.RoomID + `"}}`)
	if err := roller.WriteMessage(websocket.TextMessage, rollMsg); err != nil {
		t.Fatalf("write roll: %v", err)
	}

	rolled := waitFor(rollerCh, "dice_rolled", 3*time.Second)
	if rolled == nil {
		t.Fatalf("roller did not receive dice_rolled")
	}
	var dr struct {
		Value int `json:"value"`
	}
	_ = json.Unmarshal(rolled, &dr)
	if dr.Value < 1 || dr.Value > 6 {
		t.Fatalf("dice value out of range: %d", dr.Value)
	}
}
