package ws

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ludo_arena/internal/domain"
	"ludo_arena/internal/logger"
	"ludo_arena/internal/ludo"
)

type roomActionKind int

const (
	actStart roomActionKind = iota
	actRoll
	actMove
	actChat
	actAutoSkip
	actLeave
	actRejoin
	actVideoJoin
	actVideoLeave
)

type roomAction struct {
	kind       roomActionKind
	c          *Client
	pieceIndex int
	text       string
	token      int
}

// Room owns one game. All mutation happens on the Run goroutine, which
// consumes the action channel in arrival order; the hub only routes. Timers
// post back into the same channel so they obey the same serialization.
type Room struct {
	ID   string
	hub  *Hub
	game *ludo.Game

	actions chan roomAction
	stop    chan struct{}
	stopped sync.Once

	subs    map[string]*Client // identityID -> connection
	video   map[string]*Client // connID -> video session member
	chatLog []ChatMessagePayload

	// turnToken invalidates a scheduled auto-skip once any later accepted
	// action has moved the game on.
	turnToken int
	skipTimer *time.Timer

	settleDelay   time.Duration
	autoSkipDelay time.Duration

	// roll is swappable so tests can script the dice.
	roll func() int

	createdAt    time.Time
	lastActivity atomic.Int64
}

func newRoom(id string, game *ludo.Game, hub *Hub, settleDelay, autoSkipDelay time.Duration) *Room {
	r := &Room{
		ID:            id,
		hub:           hub,
		game:          game,
		actions:       make(chan roomAction, 64),
		stop:          make(chan struct{}),
		subs:          make(map[string]*Client),
		video:         make(map[string]*Client),
		settleDelay:   settleDelay,
		autoSkipDelay: autoSkipDelay,
		roll:          ludo.RollDie,
		createdAt:     time.Now(),
	}
	r.touch()
	return r
}

// Post hands an action to the room loop. Posting to a stopped room drops
// the action; the caller resynchronizes from the next broadcast anyway.
func (r *Room) Post(a roomAction) {
	select {
	case r.actions <- a:
	case <-r.stop:
	default:
		logger.Warn("room: action channel full, dropping", "room", r.ID, "kind", int(a.kind))
	}
}

// Stop shuts the loop down. Idempotent.
func (r *Room) Stop() {
	r.stopped.Do(func() { close(r.stop) })
}

func (r *Room) Run() {
	logger.Info("room: starting", "room", r.ID, "players", len(r.game.Players))

	// Settle delay lets every matched client finish subscribing before the
	// first turn is announced.
	settle := time.AfterFunc(r.settleDelay, func() {
		r.Post(roomAction{kind: actStart})
	})
	defer settle.Stop()

	for {
		select {
		case a := <-r.actions:
			r.touch()
			r.handle(a)
			if len(r.subs) == 0 {
				logger.Info("room: empty, shutting down", "room", r.ID)
				r.Stop()
			}
		case <-r.stop:
			r.stopSkipTimer()
			if r.hub != nil {
				r.hub.forget(r)
			}
			return
		}
	}
}

func (r *Room) handle(a roomAction) {
	switch a.kind {
	case actStart:
		r.game.Start()
		r.broadcast(Event{Type: MsgGameStarted, Payload: GameFoundPayload{RoomID: r.ID, Game: r.game}})
		r.broadcast(Event{Type: MsgTurnChanged, Payload: TurnChangedPayload{
			PlayerID: r.game.CurrentPlayer().IdentityID,
		}})

	case actRoll:
		r.handleRoll(a.c)

	case actMove:
		r.handleMove(a.c, a.pieceIndex)

	case actAutoSkip:
		// A move that raced the timer wins: the token moved on.
		if a.token != r.turnToken {
			return
		}
		next := r.game.SkipTurn()
		r.turnToken++
		r.broadcast(Event{Type: MsgTurnChanged, Payload: TurnChangedPayload{
			PlayerID:    next,
			AutoSkipped: true,
		}})

	case actChat:
		msg := ChatMessagePayload{
			IdentityID:  a.c.IdentityID,
			DisplayName: a.c.DisplayName,
			Text:        a.text,
			Timestamp:   time.Now(),
		}
		r.chatLog = append(r.chatLog, msg)
		r.broadcast(Event{Type: MsgChatMessage, Payload: msg})

	case actVideoJoin:
		r.video[a.c.ConnID] = a.c
		r.broadcastExcept(a.c, Event{Type: MsgVideoPeerJoin, Payload: VideoPeerPayload{
			ConnID:     a.c.ConnID,
			IdentityID: a.c.IdentityID,
		}})

	case actVideoLeave:
		r.dropVideoPeer(a.c)

	case actRejoin:
		r.subs[a.c.IdentityID] = a.c
		// Snapshot goes to the returning client only; everyone else is
		// already in sync.
		a.c.SendEvent(Event{Type: MsgGameFound, Payload: GameFoundPayload{RoomID: r.ID, Game: r.game}})

	case actLeave:
		// A stale disconnect must not evict a connection that already
		// rejoined.
		if r.subs[a.c.IdentityID] == a.c {
			delete(r.subs, a.c.IdentityID)
		}
		r.dropVideoPeer(a.c)
		// The player's seat survives a dropped connection; they simply
		// cannot act until the room is collected.
	}
}

func (r *Room) handleRoll(c *Client) {
	res, err := r.game.Roll(c.IdentityID, r.roll())
	if err != nil {
		r.sendError(c, err)
		return
	}

	r.turnToken++
	r.stopSkipTimer()
	DiceRolls.Inc()

	r.broadcast(Event{Type: MsgDiceRolled, Payload: DiceRolledPayload{
		PlayerID:   res.PlayerID,
		Value:      res.Value,
		ThreeSixes: res.ThreeSixesForfeit,
	}})

	if res.ThreeSixesForfeit {
		r.broadcast(Event{Type: MsgTurnChanged, Payload: TurnChangedPayload{PlayerID: res.NextPlayerID}})
		return
	}

	if res.NoLegalMove {
		token := r.turnToken
		r.skipTimer = time.AfterFunc(r.autoSkipDelay, func() {
			r.Post(roomAction{kind: actAutoSkip, token: token})
		})
	}
}

func (r *Room) handleMove(c *Client, pieceIndex int) {
	res, err := r.game.Move(c.IdentityID, pieceIndex)
	if err != nil {
		r.sendError(c, err)
		return
	}

	r.turnToken++
	r.stopSkipTimer()

	r.broadcast(Event{Type: MsgPieceMoved, Payload: PieceMovedPayload{
		PlayerID:   res.PlayerID,
		PieceIndex: res.PieceIndex,
		From:       res.From,
		To:         res.To,
	}})

	for _, cap := range res.Captures {
		Captures.Inc()
		r.broadcast(Event{Type: MsgPieceCaptured, Payload: PieceCapturedPayload{
			CapturingPlayer: res.PlayerID,
			CapturedPlayer:  cap.PlayerID,
			PieceIndex:      cap.PieceIndex,
		}})
	}

	if res.Won {
		r.broadcast(Event{Type: MsgPlayerWon, Payload: PlayerWonPayload{
			PlayerID: res.PlayerID,
			Rank:     res.Rank,
		}})
	}

	switch {
	case res.GameOver:
		GamesCompleted.Inc()
		r.broadcast(Event{Type: MsgGameEnded, Payload: GameEndedPayload{Standings: res.Standings}})
		r.recordResult()
	case res.ExtraTurn:
		r.broadcast(Event{Type: MsgExtraTurn, Payload: ExtraTurnPayload{PlayerID: res.PlayerID}})
	default:
		r.broadcast(Event{Type: MsgTurnChanged, Payload: TurnChangedPayload{PlayerID: res.NextPlayerID}})
	}
}

func (r *Room) dropVideoPeer(c *Client) {
	if _, ok := r.video[c.ConnID]; !ok {
		return
	}
	delete(r.video, c.ConnID)
	r.broadcastExcept(c, Event{Type: MsgVideoPeerLeave, Payload: VideoPeerPayload{
		ConnID:     c.ConnID,
		IdentityID: c.IdentityID,
	}})
}

func (r *Room) stopSkipTimer() {
	if r.skipTimer != nil {
		r.skipTimer.Stop()
		r.skipTimer = nil
	}
}

// sendError reports a rejected request to the offending caller only; it is
// never broadcast and never mutates state.
func (r *Room) sendError(c *Client, err error) {
	c.SendEvent(Event{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}})
}

func (r *Room) broadcast(ev Event) {
	for _, c := range r.subs {
		c.SendEvent(ev)
	}
}

func (r *Room) broadcastExcept(skip *Client, ev Event) {
	for _, c := range r.subs {
		if c != skip {
			c.SendEvent(ev)
		}
	}
}

func (r *Room) touch() {
	r.lastActivity.Store(time.Now().UnixNano())
}

func (r *Room) idleSince() time.Time {
	return time.Unix(0, r.lastActivity.Load())
}

// recordResult persists one history row per player and bumps the identity
// counters. The game state is already committed; persistence failures only
// log.
func (r *Room) recordResult() {
	if r.hub == nil {
		return
	}

	for _, p := range r.game.Players {
		won := p.FinishRank == 1
		if r.hub.identities != nil {
			r.hub.identities.RecordGame(p.IdentityID, won)
		}

		if r.hub.matches == nil {
			continue
		}
		rec := &domain.MatchRecord{
			IdentityID:  p.IdentityID,
			DisplayName: p.DisplayName,
			RoomID:      r.ID,
			PlayerCount: len(r.game.Players),
			FinishRank:  p.FinishRank,
			Result:      domain.MatchResultLose,
		}
		if won {
			rec.Result = domain.MatchResultWin
		}
		go func(rec *domain.MatchRecord) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.hub.matches.Create(ctx, rec); err != nil {
				logger.Error("room: match history write failed", "room", r.ID, "error", err)
			}
		}(rec)
	}
}
