package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// Manual smoke check against a running server: issues two anonymous
// identities over REST, matches them into a two player room and plays
// a handful of turns by rolling and trying every piece in order.

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type smokePlayer struct {
	name   string
	id     string
	conn   *websocket.Conn
	roomID string
}

func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	base := fmt.Sprintf("http://127.0.0.1:%s", port)

	a := login(base, "A")
	b := login(base, "B")

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	dial := func(p *smokePlayer, token string) {
		url := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, token)
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			log.Fatalf("dial %s: %v", p.name, err)
		}
		p.conn = conn
	}
	dial(a.player, a.token)
	dial(b.player, b.token)
	defer a.player.conn.Close()
	defer b.player.conn.Close()

	find := []byte(`{"type":"find_game","payload":{"player_count":2}}`)
	send(a.player, find)
	send(b.player, find)

	waitFor(a.player, "game_started")
	waitFor(b.player, "game_started")
	log.Printf("room %s started", a.player.roomID)

	// each player reacts to its own turn for a few rounds
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		step(a.player)
		step(b.player)
	}

	log.Println("smoke test finished")
}

type loginResult struct {
	player *smokePlayer
	token  string
}

func login(base, name string) loginResult {
	resp, err := http.Post(base+"/api/v1/auth/anonymous", "application/json", bytes.NewReader(nil))
	if err != nil {
		log.Fatalf("login %s: %v", name, err)
	}
	defer resp.Body.Close()

	var body struct {
		Token    string `json:"token"`
		Identity struct {
			ID string `json:"id"`
		} `json:"identity"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Fatalf("decode login %s: %v", name, err)
	}
	return loginResult{
		player: &smokePlayer{name: name, id: body.Identity.ID},
		token:  body.Token,
	}
}

func send(p *smokePlayer, msg []byte) {
	if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		log.Fatalf("write %s: %v", p.name, err)
	}
}

func waitFor(p *smokePlayer, eventType string) {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		msg, ok := read(p, 500*time.Millisecond)
		if !ok {
			continue
		}
		if msg.Type == "game_found" {
			var pl struct {
				RoomID string `json:"room_id"`
			}
			_ = json.Unmarshal(msg.Payload, &pl)
			p.roomID = pl.RoomID
		}
		if msg.Type == eventType {
			return
		}
	}
	log.Fatalf("%s never saw %s", p.name, eventType)
}

func read(p *smokePlayer, wait time.Duration) (message, bool) {
	p.conn.SetReadDeadline(time.Now().Add(wait))
	_, raw, err := p.conn.ReadMessage()
	if err != nil {
		return message{}, false
	}
	var msg message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return message{}, false
	}
	return msg, true
}

// step drains one event and answers: roll when the turn comes around,
// try pieces 0..3 after a roll lands.
func step(p *smokePlayer) {
	msg, ok := read(p, 300*time.Millisecond)
	if !ok {
		return
	}
	log.Printf("%s got %s: %s", p.name, msg.Type, string(msg.Payload))

	switch msg.Type {
	case "turn_changed", "extra_turn":
		var pl struct {
			PlayerID string `json:"player_id"`
		}
		_ = json.Unmarshal(msg.Payload, &pl)
		if pl.PlayerID == p.id {
			send(p, []byte(fmt.Sprintf(`{"type":"roll_dice","payload":{"room_id":"%s"}}`, p.roomID)))
		}
	case "dice_rolled":
		var pl struct {
			PlayerID string `json:"player_id"`
		}
		_ = json.Unmarshal(msg.Payload, &pl)
		if pl.PlayerID == p.id {
			for i := 0; i < 4; i++ {
				send(p, []byte(fmt.Sprintf(`{"type":"move_piece","payload":{"room_id":"%s","piece_index":%d}}`, p.roomID, i)))
			}
		}
	case "game_ended":
		log.Printf("%s: game over", p.name)
	}
}
