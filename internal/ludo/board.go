package ludo

// Board geometry. All track cells are absolute indices into the shared
// 52-cell loop; per-color numbers are derived from the color index, never
// stored relative.
const (
	TrackCells      = 52
	HomeSteps       = 6 // home stretch indices 0..5, landing on 5 finishes
	PiecesPerPlayer = 4

	MinPlayers = 2
	MaxPlayers = 4

	DiceMin = 1
	DiceMax = 6

	// Rolling a third six in a row forfeits the turn.
	MaxConsecutiveSixes = 3
)

// Color identifies a player's set of pieces. Colors are assigned by join
// order, so the Color value doubles as the player index at room creation.
type Color int

const (
	Red Color = iota
	Blue
	Green
	Yellow
)

var colorNames = [...]string{"red", "blue", "green", "yellow"}

func (c Color) String() string {
	if c < Red || c > Yellow {
		return "unknown"
	}
	return colorNames[c]
}

// EntryCell is the absolute cell a color's pieces enter the loop on.
func (c Color) EntryCell() int {
	return int(c) * 13
}

// HomeEntryCell is the last absolute cell before the color's home stretch.
// Passing or landing on it diverts the piece off the loop.
func (c Color) HomeEntryCell() int {
	return (c.EntryCell() + 50) % TrackCells
}

var safeCells = map[int]bool{
	0: true, 8: true, 13: true, 21: true,
	26: true, 34: true, 39: true, 47: true,
}

// IsSafeCell reports whether pieces on the given absolute cell are immune
// to capture.
func IsSafeCell(cell int) bool {
	return safeCells[cell]
}
