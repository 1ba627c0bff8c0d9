package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"ludo_arena/internal/logger"
	"ludo_arena/internal/ludo"
	"ludo_arena/internal/repository"
	"ludo_arena/internal/service"

	"github.com/google/uuid"
)

var (
	errRoomNotFound  = errors.New("room not found")
	errNotRoomMember = errors.New("not a member of this room")
	errBadPartySize  = errors.New("party size must be 2 or 4")
	errPeerNotFound  = errors.New("peer connection not found")
	errBadPayload    = errors.New("malformed payload")
)

// HubConfig carries the room timing knobs down from config.
type HubConfig struct {
	SettleDelay   time.Duration
	AutoSkipDelay time.Duration
	IdleTimeout   time.Duration
}

// Hub is the process-wide registry: live rooms, connected clients and the
// matchmaking queue. It owns no game state; it routes actions to the room
// actors and runs matchmaking under its own lock.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	userRoom map[string]string  // identityID -> roomID
	conns    map[string]*Client // connID -> client, signaling address space
	queue    *WaitQueue

	identities *service.IdentityRegistry
	matches    *repository.MatchRepository
	cfg        HubConfig
}

func NewHub(identities *service.IdentityRegistry, matches *repository.MatchRepository, cfg HubConfig) *Hub {
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 3 * time.Second
	}
	if cfg.AutoSkipDelay == 0 {
		cfg.AutoSkipDelay = 2 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = time.Hour
	}
	return &Hub{
		rooms:      make(map[string]*Room),
		userRoom:   make(map[string]string),
		conns:      make(map[string]*Client),
		queue:      NewWaitQueue(),
		identities: identities,
		matches:    matches,
		cfg:        cfg,
	}
}

// Register adds a fresh connection to the signaling address space. An
// identity that still has a live room is put back into it.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.conns[c.ConnID] = c
	room := h.rooms[h.userRoom[c.IdentityID]]
	h.mu.Unlock()

	if room != nil {
		room.Post(roomAction{kind: actRejoin, c: c})
	}
	if h.identities != nil {
		h.identities.SetOnline(c.IdentityID, true)
	}
	logger.Info("hub: client connected", "identity", c.IdentityID, "conn", c.ConnID)
}

// OnDisconnect removes the queue entry immediately; an in-room player keeps
// their seat but can no longer act.
func (h *Hub) OnDisconnect(c *Client) {
	h.mu.Lock()
	h.queue.Remove(c.IdentityID)
	QueueDepth.Set(float64(h.queue.Len()))
	delete(h.conns, c.ConnID)
	room := h.rooms[h.userRoom[c.IdentityID]]
	h.mu.Unlock()

	if room != nil {
		room.Post(roomAction{kind: actLeave, c: c})
	}
	if h.identities != nil {
		h.identities.SetOnline(c.IdentityID, false)
	}
	logger.Info("hub: client disconnected", "identity", c.IdentityID, "conn", c.ConnID)
}

// Route dispatches one inbound message. Malformed or out-of-place requests
// degrade to a caller-only error event, never a broadcast and never a panic.
func (h *Hub) Route(c *Client, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.sendError(c, errBadPayload)
		return
	}

	switch msg.Type {
	case MsgFindGame:
		var p FindGamePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			h.sendError(c, errBadPayload)
			return
		}
		h.findGame(c, p.PlayerCount)

	case MsgCancelFind:
		h.mu.Lock()
		h.queue.Remove(c.IdentityID)
		QueueDepth.Set(float64(h.queue.Len()))
		h.mu.Unlock()

	case MsgRollDice, MsgMovePiece, MsgChat, MsgVideoJoin, MsgVideoLeave:
		var p RoomActionPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			h.sendError(c, errBadPayload)
			return
		}
		room, err := h.memberRoom(c, p.RoomID)
		if err != nil {
			h.sendError(c, err)
			return
		}
		room.Post(roomAction{kind: actionKind(msg.Type), c: c, pieceIndex: p.PieceIndex, text: p.Text})

	case MsgOffer, MsgAnswer, MsgIceCandidate:
		h.relaySignal(c, msg.Type, msg.Payload)

	default:
		h.sendError(c, errors.New("unknown message type: "+msg.Type))
	}
}

func actionKind(msgType string) roomActionKind {
	switch msgType {
	case MsgRollDice:
		return actRoll
	case MsgMovePiece:
		return actMove
	case MsgChat:
		return actChat
	case MsgVideoJoin:
		return actVideoJoin
	default:
		return actVideoLeave
	}
}

// memberRoom resolves a room action to the caller's live room.
func (h *Hub) memberRoom(c *Client, roomID string) (*Room, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[roomID]
	if !ok {
		return nil, errRoomNotFound
	}
	if h.userRoom[c.IdentityID] != roomID {
		return nil, errNotRoomMember
	}
	return room, nil
}

func (h *Hub) findGame(c *Client, partySize int) {
	if partySize != 2 && partySize != 4 {
		h.sendError(c, errBadPartySize)
		return
	}

	h.mu.Lock()
	group := h.queue.Enqueue(&WaitingEntry{
		IdentityID: c.IdentityID,
		Client:     c,
		PartySize:  partySize,
		EnqueuedAt: time.Now(),
	})
	QueueDepth.Set(float64(h.queue.Len()))
	if group == nil {
		h.mu.Unlock()
		logger.Info("hub: queued", "identity", c.IdentityID, "party_size", partySize)
		return
	}

	room := h.createRoomLocked(group)
	h.mu.Unlock()

	if room == nil {
		return
	}

	found := Event{Type: MsgGameFound, Payload: GameFoundPayload{RoomID: room.ID, Game: room.game}}
	for _, e := range group {
		e.Client.SendEvent(found)
	}
	go room.Run()
}

// createRoomLocked seats the matched group in FIFO order. Caller holds h.mu.
func (h *Hub) createRoomLocked(group []*WaitingEntry) *Room {
	seats := make([]ludo.Seat, len(group))
	for i, e := range group {
		seats[i] = ludo.Seat{
			IdentityID:  e.IdentityID,
			DisplayName: e.Client.DisplayName,
			Avatar:      e.Client.Avatar,
		}
	}

	id := uuid.NewString()
	game, err := ludo.NewGame(id, seats)
	if err != nil {
		logger.Error("hub: room creation failed", "error", err)
		for _, e := range group {
			h.sendError(e.Client, err)
		}
		return nil
	}

	room := newRoom(id, game, h, h.cfg.SettleDelay, h.cfg.AutoSkipDelay)
	for _, e := range group {
		room.subs[e.IdentityID] = e.Client
		h.userRoom[e.IdentityID] = id
	}
	h.rooms[id] = room
	ActiveRooms.Set(float64(len(h.rooms)))

	logger.Info("hub: room formed", "room", id, "players", len(group))
	return room
}

// relaySignal forwards an opaque negotiation payload to one recipient
// connection. The data is never inspected.
func (h *Hub) relaySignal(c *Client, msgType string, raw json.RawMessage) {
	var p SignalPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.To == "" {
		h.sendError(c, errBadPayload)
		return
	}

	h.mu.RLock()
	peer, ok := h.conns[p.To]
	h.mu.RUnlock()

	if !ok {
		h.sendError(c, errPeerNotFound)
		return
	}
	peer.SendEvent(Event{Type: msgType, Payload: SignalForwardPayload{From: c.ConnID, Data: p.Data}})
}

// forget removes a stopped room from the registry.
func (h *Hub) forget(r *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.rooms, r.ID)
	for id, roomID := range h.userRoom {
		if roomID == r.ID {
			delete(h.userRoom, id)
		}
	}
	ActiveRooms.Set(float64(len(h.rooms)))
	logger.Info("hub: room removed", "room", r.ID)
}

// StartCleanup sweeps idle rooms. Completed or abandoned rooms are kept for
// a while so late chat still works, then collected.
func (h *Hub) StartCleanup() {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			h.cleanupStaleRooms()
		}
	}()
}

func (h *Hub) cleanupStaleRooms() {
	now := time.Now()

	h.mu.RLock()
	var stale []*Room
	for _, room := range h.rooms {
		if now.Sub(room.idleSince()) > h.cfg.IdleTimeout {
			stale = append(stale, room)
		}
	}
	h.mu.RUnlock()

	for _, room := range stale {
		logger.Info("hub: collecting idle room", "room", room.ID)
		room.Stop()
	}
}

func (h *Hub) sendError(c *Client, err error) {
	c.SendEvent(Event{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}})
}
