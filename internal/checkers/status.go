package checkers

import "fmt"

// EndCause says how a finished game ended.
type EndCause uint8

const (
	EndNone EndCause = iota
	EndNoPieces
	EndNoMoves
)

func (e EndCause) String() string {
	switch e {
	case EndNone:
		return "none"
	case EndNoPieces:
		return "no_pieces"
	case EndNoMoves:
		return "no_moves"
	default:
		return fmt.Sprintf("end(%d)", uint8(e))
	}
}

func (e EndCause) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

func (e *EndCause) UnmarshalText(b []byte) error {
	for _, c := range []EndCause{EndNone, EndNoPieces, EndNoMoves} {
		if c.String() == string(b) {
			*e = c
			return nil
		}
	}
	return fmt.Errorf("unknown end cause %q", string(b))
}

// GameStatus is the aggregate view of a board from the perspective of the
// side to move.
type GameStatus struct {
	BlackCount       int      `json:"black_count"`
	RedCount         int      `json:"red_count"`
	BlackMustCapture bool     `json:"black_must_capture"`
	RedMustCapture   bool     `json:"red_must_capture"`
	BlackMovable     int      `json:"black_movable"`
	RedMovable       int      `json:"red_movable"`
	Winner           Color    `json:"winner"`
	EndCause         EndCause `json:"end_cause"`
}

// ComputeStatus scans the board once. The game is over when a side has no
// pieces left or when active has no piece that can move; the winner is the
// other side.
func ComputeStatus(b *Board, active Color) GameStatus {
	var s GameStatus
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			sq := Square{Row: r, Col: c}
			st := b.cells[r][c]
			if st == Empty {
				continue
			}
			capture := CaptureAvailable(b, sq)
			movable := MoveAvailable(b, sq)
			switch st.Color() {
			case Black:
				s.BlackCount++
				s.BlackMustCapture = s.BlackMustCapture || capture
				if movable {
					s.BlackMovable++
				}
			case Red:
				s.RedCount++
				s.RedMustCapture = s.RedMustCapture || capture
				if movable {
					s.RedMovable++
				}
			}
		}
	}

	switch {
	case s.BlackCount == 0:
		s.Winner, s.EndCause = Red, EndNoPieces
	case s.RedCount == 0:
		s.Winner, s.EndCause = Black, EndNoPieces
	case active != NoColor && s.Movable(active) == 0:
		s.Winner, s.EndCause = active.Opponent(), EndNoMoves
	}
	return s
}

// Over reports whether the game has a winner.
func (s GameStatus) Over() bool { return s.Winner != NoColor }

func (s GameStatus) Count(c Color) int {
	switch c {
	case Black:
		return s.BlackCount
	case Red:
		return s.RedCount
	}
	return 0
}

func (s GameStatus) MustCapture(c Color) bool {
	switch c {
	case Black:
		return s.BlackMustCapture
	case Red:
		return s.RedMustCapture
	}
	return false
}

func (s GameStatus) Movable(c Color) int {
	switch c {
	case Black:
		return s.BlackMovable
	case Red:
		return s.RedMovable
	}
	return 0
}
