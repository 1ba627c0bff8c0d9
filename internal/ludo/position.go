package ludo

import (
	"encoding/json"
	"fmt"
)

// PositionKind tags the four states a piece can be in. A piece only ever
// moves forward through base → track → home → finished; capture is the one
// transition back (track → base).
type PositionKind int

const (
	AtBase PositionKind = iota
	OnTrack
	OnHome
	Finished
)

func (k PositionKind) String() string {
	switch k {
	case AtBase:
		return "base"
	case OnTrack:
		return "track"
	case OnHome:
		return "home"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// TrackPosition is a closed tagged value: Cell is an absolute loop index for
// OnTrack, a 0..5 step index for OnHome, and meaningless otherwise.
type TrackPosition struct {
	Kind PositionKind
	Cell int
}

func Base() TrackPosition {
	return TrackPosition{Kind: AtBase}
}

func Track(cell int) TrackPosition {
	if cell < 0 || cell >= TrackCells {
		panic(fmt.Sprintf("ludo: track cell %d out of range", cell))
	}
	return TrackPosition{Kind: OnTrack, Cell: cell}
}

func Home(step int) TrackPosition {
	if step < 0 || step >= HomeSteps {
		panic(fmt.Sprintf("ludo: home step %d out of range", step))
	}
	return TrackPosition{Kind: OnHome, Cell: step}
}

func Done() TrackPosition {
	return TrackPosition{Kind: Finished}
}

func (p TrackPosition) String() string {
	switch p.Kind {
	case OnTrack, OnHome:
		return fmt.Sprintf("%s(%d)", p.Kind, p.Cell)
	default:
		return p.Kind.String()
	}
}

// MarshalJSON emits {"state":"track","cell":17} with cell omitted for base
// and finished pieces.
func (p TrackPosition) MarshalJSON() ([]byte, error) {
	if p.Kind == OnTrack || p.Kind == OnHome {
		return []byte(fmt.Sprintf(`{"state":%q,"cell":%d}`, p.Kind.String(), p.Cell)), nil
	}
	return []byte(fmt.Sprintf(`{"state":%q}`, p.Kind.String())), nil
}

// UnmarshalJSON validates the tagged value instead of trusting the wire.
func (p *TrackPosition) UnmarshalJSON(data []byte) error {
	var aux struct {
		State string `json:"state"`
		Cell  int    `json:"cell"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch aux.State {
	case "base":
		*p = Base()
	case "track":
		if aux.Cell < 0 || aux.Cell >= TrackCells {
			return fmt.Errorf("ludo: track cell %d out of range", aux.Cell)
		}
		*p = Track(aux.Cell)
	case "home":
		if aux.Cell < 0 || aux.Cell >= HomeSteps {
			return fmt.Errorf("ludo: home step %d out of range", aux.Cell)
		}
		*p = Home(aux.Cell)
	case "finished":
		*p = Done()
	default:
		return fmt.Errorf("ludo: unknown position state %q", aux.State)
	}
	return nil
}
