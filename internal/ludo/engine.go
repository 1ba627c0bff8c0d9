package ludo

import (
	"errors"
	"time"
)

var (
	ErrNotActive      = errors.New("game is not active")
	ErrCompleted      = errors.New("game already completed")
	ErrNotInGame      = errors.New("player is not in this game")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrAlreadyRolled  = errors.New("dice already rolled, move a piece")
	ErrNoPendingRoll  = errors.New("roll the dice first")
	ErrNoSuchPiece    = errors.New("no such piece")
	ErrIllegalMove    = errors.New("piece cannot move on this roll")
	ErrOvershoot      = errors.New("move would overshoot the home stretch")
	ErrBadPlayerCount = errors.New("a game needs 2 to 4 players")
)

// Status is the room lifecycle phase.
type Status string

const (
	StatusForming   Status = "forming"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

type Piece struct {
	Index int           `json:"index"`
	Pos   TrackPosition `json:"position"`
}

type Player struct {
	IdentityID  string                 `json:"identity_id"`
	DisplayName string                 `json:"display_name"`
	Avatar      string                 `json:"avatar"`
	Color       Color                  `json:"-"`
	ColorName   string                 `json:"color"`
	Pieces      [PiecesPerPlayer]Piece `json:"pieces"`
	HasWon      bool                   `json:"has_won"`
	FinishRank  int                    `json:"finish_rank,omitempty"` // 1-based, 0 until won
}

// Seat holds what the game needs to know about a joining identity.
type Seat struct {
	IdentityID  string
	DisplayName string
	Avatar      string
}

// Game is the authoritative state of one room. It is a plain state machine
// with no locking of its own: the owning room actor is the single caller.
type Game struct {
	RoomID           string    `json:"room_id"`
	Status           Status    `json:"status"`
	Players          []*Player `json:"players"`
	CurrentTurn      int       `json:"current_turn"`
	PendingRoll      int       `json:"pending_roll,omitempty"` // 0 between turns
	ConsecutiveSixes int       `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewGame seats players in join order; seat index is the color index.
func NewGame(roomID string, seats []Seat) (*Game, error) {
	if len(seats) < MinPlayers || len(seats) > MaxPlayers {
		return nil, ErrBadPlayerCount
	}

	players := make([]*Player, len(seats))
	for i, s := range seats {
		p := &Player{
			IdentityID:  s.IdentityID,
			DisplayName: s.DisplayName,
			Avatar:      s.Avatar,
			Color:       Color(i),
			ColorName:   Color(i).String(),
		}
		for j := range p.Pieces {
			p.Pieces[j] = Piece{Index: j, Pos: Base()}
		}
		players[i] = p
	}

	return &Game{
		RoomID:    roomID,
		Status:    StatusForming,
		Players:   players,
		CreatedAt: time.Now(),
	}, nil
}

// Start flips a forming game to active. Idempotent.
func (g *Game) Start() {
	if g.Status == StatusForming {
		g.Status = StatusActive
	}
}

// CurrentPlayer returns the player whose turn it is.
func (g *Game) CurrentPlayer() *Player {
	return g.Players[g.CurrentTurn]
}

// PlayerByID finds a seated player, nil if the identity is not in the game.
func (g *Game) PlayerByID(identityID string) *Player {
	for _, p := range g.Players {
		if p.IdentityID == identityID {
			return p
		}
	}
	return nil
}

// ComputeDestination walks a piece by roll steps. It is pure: the returned
// position is where the piece would end up, ErrIllegalMove for a based piece
// without a six, ErrOvershoot for a home move past the last step.
func ComputeDestination(c Color, pos TrackPosition, roll int) (TrackPosition, error) {
	switch pos.Kind {
	case AtBase:
		if roll != DiceMax {
			return pos, ErrIllegalMove
		}
		return Track(c.EntryCell()), nil

	case OnTrack:
		// Steps remaining on the loop before this color's home entry. A
		// piece can never be past its own home entry, so this is exact.
		toHome := (c.HomeEntryCell() - pos.Cell + TrackCells) % TrackCells
		if roll > toHome {
			excess := roll - toHome
			if excess > HomeSteps {
				return pos, ErrOvershoot
			}
			if excess == HomeSteps {
				return Done(), nil
			}
			return Home(excess - 1), nil
		}
		return Track((pos.Cell + roll) % TrackCells), nil

	case OnHome:
		step := pos.Cell + roll
		if step > HomeSteps-1 {
			return pos, ErrOvershoot
		}
		if step == HomeSteps-1 {
			return Done(), nil
		}
		return Home(step), nil

	default: // Finished
		return pos, ErrIllegalMove
	}
}

// HasLegalMove reports whether any piece has a non-overshoot, non-immobile
// destination for the roll. It must share ComputeDestination with actual
// move validation so "can I move" and "is this move legal" cannot diverge.
func HasLegalMove(p *Player, roll int) bool {
	for i := range p.Pieces {
		if _, err := ComputeDestination(p.Color, p.Pieces[i].Pos, roll); err == nil {
			return true
		}
	}
	return false
}

// Capture records one opposing piece sent back to base.
type Capture struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	PieceIndex int    `json:"piece_index"`
}

// applyCapture sends every opposing piece on the landed cell back to base.
// Safe cells and same-color stacks are exempt. Called exactly once per
// completed track landing.
func (g *Game) applyCapture(moving Color, cell int) []Capture {
	if IsSafeCell(cell) {
		return nil
	}

	var captured []Capture
	for _, p := range g.Players {
		if p.Color == moving {
			continue
		}
		for i := range p.Pieces {
			if p.Pieces[i].Pos.Kind == OnTrack && p.Pieces[i].Pos.Cell == cell {
				p.Pieces[i].Pos = Base()
				captured = append(captured, Capture{
					PlayerID:   p.IdentityID,
					PlayerName: p.DisplayName,
					PieceIndex: i,
				})
			}
		}
	}
	return captured
}

// CheckWin reports whether all four pieces are finished.
func CheckWin(p *Player) bool {
	for i := range p.Pieces {
		if p.Pieces[i].Pos.Kind != Finished {
			return false
		}
	}
	return true
}

// NextTurnIndex rotates from the current turn, skipping players who have
// already won. Must not be called on a completed game.
func (g *Game) NextTurnIndex() int {
	next := (g.CurrentTurn + 1) % len(g.Players)
	for g.Players[next].HasWon {
		next = (next + 1) % len(g.Players)
	}
	return next
}

func (g *Game) activeCount() int {
	n := 0
	for _, p := range g.Players {
		if !p.HasWon {
			n++
		}
	}
	return n
}

// RollResult is what one accepted dice roll did to the game.
type RollResult struct {
	PlayerID          string
	Value             int
	ThreeSixesForfeit bool
	// NoLegalMove means the turn must be auto-advanced after a short delay;
	// the roll stays pending until then.
	NoLegalMove  bool
	NextPlayerID string // set when the forfeit already advanced the turn
}

// Roll draws the die for the identified caller. The caller must hold the
// turn and must not have an unconsumed roll.
func (g *Game) Roll(identityID string, value int) (*RollResult, error) {
	if g.Status == StatusCompleted {
		return nil, ErrCompleted
	}
	if g.Status != StatusActive {
		return nil, ErrNotActive
	}
	p := g.PlayerByID(identityID)
	if p == nil {
		return nil, ErrNotInGame
	}
	if g.CurrentPlayer() != p {
		return nil, ErrNotYourTurn
	}
	if g.PendingRoll != 0 {
		return nil, ErrAlreadyRolled
	}

	res := &RollResult{PlayerID: p.IdentityID, Value: value}
	g.PendingRoll = value

	if value == DiceMax {
		g.ConsecutiveSixes++
		if g.ConsecutiveSixes >= MaxConsecutiveSixes {
			// Third six forfeits on the spot: the roll is reported but no
			// piece may use it.
			g.ConsecutiveSixes = 0
			g.PendingRoll = 0
			g.CurrentTurn = g.NextTurnIndex()
			res.ThreeSixesForfeit = true
			res.NextPlayerID = g.CurrentPlayer().IdentityID
			return res, nil
		}
	} else {
		g.ConsecutiveSixes = 0
	}

	if !HasLegalMove(p, value) {
		res.NoLegalMove = true
	}
	return res, nil
}

// SkipTurn drops an unusable pending roll and advances the turn. The room
// actor calls this when the auto-skip timer fires.
func (g *Game) SkipTurn() string {
	g.PendingRoll = 0
	g.ConsecutiveSixes = 0
	g.CurrentTurn = g.NextTurnIndex()
	return g.CurrentPlayer().IdentityID
}

// Standing is one row of the final ranking.
type Standing struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Rank        int    `json:"rank"`
}

// MoveResult is what one accepted piece move did to the game.
type MoveResult struct {
	PlayerID     string
	PieceIndex   int
	From, To     TrackPosition
	Roll         int
	Captures     []Capture
	Won          bool
	Rank         int
	ExtraTurn    bool
	GameOver     bool
	Standings    []Standing
	NextPlayerID string // empty on extra turn or game over
}

// Move applies the pending roll to one of the caller's pieces.
func (g *Game) Move(identityID string, pieceIndex int) (*MoveResult, error) {
	if g.Status == StatusCompleted {
		return nil, ErrCompleted
	}
	if g.Status != StatusActive {
		return nil, ErrNotActive
	}
	p := g.PlayerByID(identityID)
	if p == nil {
		return nil, ErrNotInGame
	}
	if g.CurrentPlayer() != p {
		return nil, ErrNotYourTurn
	}
	if g.PendingRoll == 0 {
		return nil, ErrNoPendingRoll
	}
	if pieceIndex < 0 || pieceIndex >= PiecesPerPlayer {
		return nil, ErrNoSuchPiece
	}

	roll := g.PendingRoll
	piece := &p.Pieces[pieceIndex]
	dest, err := ComputeDestination(p.Color, piece.Pos, roll)
	if err != nil {
		// Rejected moves leave the pending roll in place: the player may
		// retry with another piece.
		return nil, err
	}

	res := &MoveResult{
		PlayerID:   p.IdentityID,
		PieceIndex: pieceIndex,
		From:       piece.Pos,
		To:         dest,
		Roll:       roll,
	}
	piece.Pos = dest

	if dest.Kind == OnTrack {
		res.Captures = g.applyCapture(p.Color, dest.Cell)
	}

	if CheckWin(p) {
		p.HasWon = true
		rank := 0
		for _, other := range g.Players {
			if other.HasWon {
				rank++
			}
		}
		p.FinishRank = rank
		res.Won = true
		res.Rank = rank

		if g.activeCount() <= 1 {
			g.Status = StatusCompleted
			g.PendingRoll = 0
			res.GameOver = true
			res.Standings = g.Standings()
			return res, nil
		}
	}

	g.PendingRoll = 0
	if roll == DiceMax && !p.HasWon {
		res.ExtraTurn = true
		return res, nil
	}
	g.ConsecutiveSixes = 0
	g.CurrentTurn = g.NextTurnIndex()
	res.NextPlayerID = g.CurrentPlayer().IdentityID
	return res, nil
}

// Standings ranks winners by finish order, then everyone still on the board
// in seat order with no rank.
func (g *Game) Standings() []Standing {
	out := make([]Standing, 0, len(g.Players))
	for rank := 1; rank <= len(g.Players); rank++ {
		for _, p := range g.Players {
			if p.HasWon && p.FinishRank == rank {
				out = append(out, Standing{PlayerID: p.IdentityID, DisplayName: p.DisplayName, Rank: rank})
			}
		}
	}
	for _, p := range g.Players {
		if !p.HasWon {
			out = append(out, Standing{PlayerID: p.IdentityID, DisplayName: p.DisplayName})
		}
	}
	return out
}
