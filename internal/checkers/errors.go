package checkers

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds  = errors.New("square out of bounds")
	ErrLightSquare  = errors.New("piece on light square")
	ErrNoPiece      = errors.New("no piece on source square")
	ErrOccupied     = errors.New("destination occupied")
	ErrNoVictim     = errors.New("no piece to capture")
	ErrCorruptBoard = errors.New("board invariant violated")
)

// Reason explains why a pick was rejected. Rejections are ordinary game
// flow; they are returned inside PickResult, never as the error value.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonEmptySource
	ReasonWrongColorTurn
	ReasonOccupiedDestination
	ReasonNotDiagonal
	ReasonSameRow
	ReasonNotForward
	ReasonIllegalDistance
	ReasonMustCapture
	ReasonChainPieceRequired
	ReasonGameOver
)

var reasonNames = [...]string{
	ReasonNone:                "none",
	ReasonEmptySource:         "empty_source",
	ReasonWrongColorTurn:      "wrong_color_turn",
	ReasonOccupiedDestination: "occupied_destination",
	ReasonNotDiagonal:         "not_diagonal",
	ReasonSameRow:             "same_row",
	ReasonNotForward:          "not_forward",
	ReasonIllegalDistance:     "illegal_distance",
	ReasonMustCapture:         "must_capture",
	ReasonChainPieceRequired:  "chain_piece_required",
	ReasonGameOver:            "game_over",
}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("reason(%d)", uint8(r))
}

func (r Reason) Error() string { return "checkers: " + r.String() }

func (r Reason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Reason) UnmarshalText(b []byte) error {
	for i, name := range reasonNames {
		if name == string(b) {
			*r = Reason(i)
			return nil
		}
	}
	return fmt.Errorf("unknown reason %q", string(b))
}

// Reasons lists every rejection reason, ReasonNone excluded.
func Reasons() []Reason {
	out := make([]Reason, 0, len(reasonNames)-1)
	for i := 1; i < len(reasonNames); i++ {
		out = append(out, Reason(i))
	}
	return out
}
