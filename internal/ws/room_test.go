package ws

import (
	"encoding/json"
	"testing"
	"time"

	"ludo_arena/internal/ludo"
)

func stubClient(id string) *Client {
	return &Client{
		IdentityID:  id,
		DisplayName: id,
		Avatar:      "🐱",
		ConnID:      "conn-" + id,
		Send:        make(chan []byte, 64),
		Done:        make(chan struct{}),
	}
}

func newTestRoom(t *testing.T, ids ...string) (*Room, []*Client) {
	t.Helper()
	seats := make([]ludo.Seat, len(ids))
	clients := make([]*Client, len(ids))
	for i, id := range ids {
		seats[i] = ludo.Seat{IdentityID: id, DisplayName: id}
		clients[i] = stubClient(id)
	}
	game, err := ludo.NewGame("room-t", seats)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	game.Start()

	// Long settle delay: the game is started by hand, so the timer must
	// never interleave its own start broadcast with a scripted action.
	r := newRoom("room-t", game, nil, time.Hour, 20*time.Millisecond)
	for i, id := range ids {
		r.subs[id] = clients[i]
	}
	return r, clients
}

// nextEvent pops the next queued event from a client, failing on timeout.
func nextEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw := <-c.Send:
		var ev struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatalf("bad event %s: %v", raw, err)
		}
		return Event{Type: ev.Type, Payload: ev.Payload}
	case <-time.After(time.Second):
		t.Fatal("no event within 1s")
		return Event{}
	}
}

func expectEvent(t *testing.T, c *Client, wantType string) json.RawMessage {
	t.Helper()
	ev := nextEvent(t, c)
	if ev.Type != wantType {
		t.Fatalf("event type = %s; want %s", ev.Type, wantType)
	}
	raw, _ := ev.Payload.(json.RawMessage)
	return raw
}

func expectNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("unexpected event: %s", raw)
	default:
	}
}

func TestRoomStartAnnouncesFirstTurn(t *testing.T) {
	r, clients := newTestRoom(t, "alice", "bob")
	r.game.Status = ludo.StatusForming

	r.handle(roomAction{kind: actStart})

	for _, c := range clients {
		expectEvent(t, c, MsgGameStarted)
		raw := expectEvent(t, c, MsgTurnChanged)
		var p TurnChangedPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if p.PlayerID != "alice" {
			t.Fatalf("first turn = %s; want alice", p.PlayerID)
		}
	}
	if r.game.Status != ludo.StatusActive {
		t.Fatalf("status = %s; want active", r.game.Status)
	}
}

func TestRollBroadcastAndOutOfTurnError(t *testing.T) {
	r, clients := newTestRoom(t, "alice", "bob")
	alice, bob := clients[0], clients[1]
	r.roll = func() int { return 6 }

	// Bob rolling out of turn: error to Bob only, nothing broadcast.
	r.handle(roomAction{kind: actRoll, c: bob})
	expectEvent(t, bob, MsgError)
	expectNoEvent(t, alice)

	r.handle(roomAction{kind: actRoll, c: alice})
	for _, c := range clients {
		raw := expectEvent(t, c, MsgDiceRolled)
		var p DiceRolledPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if p.PlayerID != "alice" || p.Value != 6 {
			t.Fatalf("dice_rolled = %+v", p)
		}
	}
}

func TestMoveBroadcastsAndExtraTurn(t *testing.T) {
	r, clients := newTestRoom(t, "alice", "bob")
	alice := clients[0]
	r.roll = func() int { return 6 }

	r.handle(roomAction{kind: actRoll, c: alice})
	r.handle(roomAction{kind: actMove, c: alice, pieceIndex: 0})

	for _, c := range clients {
		expectEvent(t, c, MsgDiceRolled)
		raw := expectEvent(t, c, MsgPieceMoved)
		var mv PieceMovedPayload
		if err := json.Unmarshal(raw, &mv); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if mv.To != ludo.Track(0) {
			t.Fatalf("piece landed at %v; want entry cell 0", mv.To)
		}
		expectEvent(t, c, MsgExtraTurn)
	}
	if r.game.CurrentPlayer().IdentityID != "alice" {
		t.Fatal("six must keep the turn with alice")
	}
}

func TestCaptureEventSeparateFromMove(t *testing.T) {
	r, clients := newTestRoom(t, "alice", "bob")
	alice := clients[0]

	r.game.Players[0].Pieces[0].Pos = ludo.Track(10)
	r.game.Players[1].Pieces[2].Pos = ludo.Track(14)
	r.roll = func() int { return 4 }

	r.handle(roomAction{kind: actRoll, c: alice})
	r.handle(roomAction{kind: actMove, c: alice, pieceIndex: 0})

	for _, c := range clients {
		expectEvent(t, c, MsgDiceRolled)
		expectEvent(t, c, MsgPieceMoved)
		raw := expectEvent(t, c, MsgPieceCaptured)
		var cp PieceCapturedPayload
		if err := json.Unmarshal(raw, &cp); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if cp.CapturedPlayer != "bob" || cp.PieceIndex != 2 {
			t.Fatalf("piece_captured = %+v", cp)
		}
		expectEvent(t, c, MsgTurnChanged)
	}
}

func TestAutoSkipFiresAndAdvancesTurn(t *testing.T) {
	r, clients := newTestRoom(t, "alice", "bob")
	alice := clients[0]
	r.roll = func() int { return 3 } // all pieces based, no legal move

	go r.Run()
	defer r.Stop()

	r.Post(roomAction{kind: actRoll, c: alice})

	for _, c := range clients {
		expectEvent(t, c, MsgDiceRolled)
	}
	// The skip arrives only after the delay.
	raw := expectEvent(t, alice, MsgTurnChanged)
	var p TurnChangedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.PlayerID != "bob" || !p.AutoSkipped {
		t.Fatalf("turn_changed = %+v; want auto-skip to bob", p)
	}
}

func TestStaleAutoSkipTokenDropped(t *testing.T) {
	r, clients := newTestRoom(t, "alice", "bob")

	r.turnToken = 7
	r.handle(roomAction{kind: actAutoSkip, token: 6})

	expectNoEvent(t, clients[0])
	expectNoEvent(t, clients[1])
	if r.game.CurrentPlayer().IdentityID != "alice" {
		t.Fatal("stale skip advanced the turn")
	}
}

func TestThreeSixesForfeitBroadcast(t *testing.T) {
	r, clients := newTestRoom(t, "alice", "bob")
	alice := clients[0]
	r.roll = func() int { return 6 }

	for i := 0; i < 2; i++ {
		r.handle(roomAction{kind: actRoll, c: alice})
		r.handle(roomAction{kind: actMove, c: alice, pieceIndex: 0})
	}
	r.handle(roomAction{kind: actRoll, c: alice})

	bob := clients[1]
	expectEvent(t, bob, MsgDiceRolled)
	expectEvent(t, bob, MsgPieceMoved)
	expectEvent(t, bob, MsgExtraTurn)
	expectEvent(t, bob, MsgDiceRolled)
	expectEvent(t, bob, MsgPieceMoved)
	expectEvent(t, bob, MsgExtraTurn)

	raw := expectEvent(t, bob, MsgDiceRolled)
	var d DiceRolledPayload
	if err := json.Unmarshal(raw, &d); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if !d.ThreeSixes {
		t.Fatal("third six not flagged")
	}
	raw = expectEvent(t, bob, MsgTurnChanged)
	var tc TurnChangedPayload
	if err := json.Unmarshal(raw, &tc); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if tc.PlayerID != "bob" {
		t.Fatalf("turn went to %s; want bob", tc.PlayerID)
	}
}

func TestWinAndGameEnded(t *testing.T) {
	r, clients := newTestRoom(t, "alice", "bob")
	alice := clients[0]

	p := r.game.Players[0]
	for i := range p.Pieces {
		p.Pieces[i].Pos = ludo.Done()
	}
	p.Pieces[0].Pos = ludo.Home(3)
	r.roll = func() int { return 2 }

	r.handle(roomAction{kind: actRoll, c: alice})
	r.handle(roomAction{kind: actMove, c: alice, pieceIndex: 0})

	for _, c := range clients {
		expectEvent(t, c, MsgDiceRolled)
		expectEvent(t, c, MsgPieceMoved)
		raw := expectEvent(t, c, MsgPlayerWon)
		var won PlayerWonPayload
		if err := json.Unmarshal(raw, &won); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if won.PlayerID != "alice" || won.Rank != 1 {
			t.Fatalf("player_won = %+v", won)
		}
		raw = expectEvent(t, c, MsgGameEnded)
		var end GameEndedPayload
		if err := json.Unmarshal(raw, &end); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if len(end.Standings) != 2 || end.Standings[0].PlayerID != "alice" {
			t.Fatalf("standings = %+v", end.Standings)
		}
	}
	if r.game.Status != ludo.StatusCompleted {
		t.Fatalf("status = %s; want completed", r.game.Status)
	}
}

func TestChatBroadcastWithLog(t *testing.T) {
	r, clients := newTestRoom(t, "alice", "bob")

	r.handle(roomAction{kind: actChat, c: clients[1], text: "good luck"})

	for _, c := range clients {
		raw := expectEvent(t, c, MsgChatMessage)
		var p ChatMessagePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if p.IdentityID != "bob" || p.Text != "good luck" {
			t.Fatalf("chat_message = %+v", p)
		}
	}
	if len(r.chatLog) != 1 {
		t.Fatalf("chat log length = %d", len(r.chatLog))
	}
}

func TestVideoJoinLeaveNotifications(t *testing.T) {
	r, clients := newTestRoom(t, "alice", "bob")
	alice, bob := clients[0], clients[1]

	r.handle(roomAction{kind: actVideoJoin, c: alice})
	expectNoEvent(t, alice) // joiner is not echoed
	raw := expectEvent(t, bob, MsgVideoPeerJoin)
	var p VideoPeerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.ConnID != alice.ConnID {
		t.Fatalf("peer conn = %s; want %s", p.ConnID, alice.ConnID)
	}

	r.handle(roomAction{kind: actVideoLeave, c: alice})
	expectEvent(t, bob, MsgVideoPeerLeave)

	// Leaving twice is silent.
	r.handle(roomAction{kind: actVideoLeave, c: alice})
	expectNoEvent(t, bob)
}

func TestDisconnectKeepsSeat(t *testing.T) {
	r, clients := newTestRoom(t, "alice", "bob")

	r.handle(roomAction{kind: actLeave, c: clients[1]})

	if _, still := r.subs["bob"]; still {
		t.Fatal("bob still subscribed")
	}
	if r.game.PlayerByID("bob") == nil {
		t.Fatal("bob's seat must survive the disconnect")
	}
}

func TestRejoinRestoresSubscriptionWithSnapshot(t *testing.T) {
	r, clients := newTestRoom(t, "alice", "bob")

	r.handle(roomAction{kind: actLeave, c: clients[1]})

	fresh := stubClient("bob")
	fresh.ConnID = "conn-bob-2"
	r.handle(roomAction{kind: actRejoin, c: fresh})

	raw := expectEvent(t, fresh, MsgGameFound)
	var pl GameFoundPayload
	if err := json.Unmarshal(raw, &pl); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if pl.RoomID != r.ID {
		t.Fatalf("snapshot room = %s; want %s", pl.RoomID, r.ID)
	}
	expectNoEvent(t, clients[0])

	// A late disconnect of the old connection must not evict the new one.
	r.handle(roomAction{kind: actLeave, c: clients[1]})
	if r.subs["bob"] != fresh {
		t.Fatal("stale disconnect evicted the rejoined connection")
	}
}
