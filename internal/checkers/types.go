package checkers

import (
	"fmt"
	"strings"
)

// Size is the number of rows and columns on the board.
const Size = 8

// SquareStatus is the occupant of one square.
type SquareStatus uint8

const (
	Empty SquareStatus = iota
	BlackMan
	BlackKing
	RedMan
	RedKing
)

var statusNames = [...]string{
	Empty:     "empty",
	BlackMan:  "black_man",
	BlackKing: "black_king",
	RedMan:    "red_man",
	RedKing:   "red_king",
}

var statusSymbols = [...]byte{
	Empty:     '.',
	BlackMan:  'b',
	BlackKing: 'B',
	RedMan:    'r',
	RedKing:   'R',
}

func (s SquareStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Symbol returns the single-character form used by ParseBoard and Board.String.
func (s SquareStatus) Symbol() byte {
	if int(s) < len(statusSymbols) {
		return statusSymbols[s]
	}
	return '?'
}

func (s SquareStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *SquareStatus) UnmarshalText(b []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range statusNames {
		if n == v {
			*s = SquareStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown square status %q", v)
}

// Color reports the side owning the occupant, NoColor for an empty square.
func (s SquareStatus) Color() Color {
	switch s {
	case BlackMan, BlackKing:
		return Black
	case RedMan, RedKing:
		return Red
	default:
		return NoColor
	}
}

func (s SquareStatus) IsMan() bool  { return s == BlackMan || s == RedMan }
func (s SquareStatus) IsKing() bool { return s == BlackKing || s == RedKing }

// rowSteps lists the row directions the occupant may travel in.
func (s SquareStatus) rowSteps() []int {
	switch s {
	case BlackMan:
		return []int{1}
	case RedMan:
		return []int{-1}
	case BlackKing, RedKing:
		return []int{1, -1}
	default:
		return nil
	}
}

// Color identifies a side. NoColor doubles as "no winner".
type Color uint8

const (
	NoColor Color = iota
	Black
	Red
)

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case Red:
		return "red"
	default:
		return "none"
	}
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "black":
		*c = Black
	case "red":
		*c = Red
	case "none", "":
		*c = NoColor
	default:
		return fmt.Errorf("unknown color %q", string(b))
	}
	return nil
}

// Opponent returns the other side; NoColor stays NoColor.
func (c Color) Opponent() Color {
	switch c {
	case Black:
		return Red
	case Red:
		return Black
	default:
		return NoColor
	}
}

// forward is the row direction a man of this color travels.
func (c Color) forward() int {
	if c == Red {
		return -1
	}
	return 1
}

// promotionRow is the far row on which a man of this color is crowned.
func (c Color) promotionRow() int {
	if c == Red {
		return 0
	}
	return Size - 1
}

// Square addresses a board cell. Row 0 is Black's home row.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s Square) InBounds() bool {
	return s.Row >= 0 && s.Row < Size && s.Col >= 0 && s.Col < Size
}

// Dark reports whether the square is playable.
func (s Square) Dark() bool { return (s.Row+s.Col)%2 == 1 }

func (s Square) Offset(dr, dc int) Square { return Square{Row: s.Row + dr, Col: s.Col + dc} }

func (s Square) String() string { return fmt.Sprintf("(%d,%d)", s.Row, s.Col) }

// Phase is the turn engine's position within a pick cycle.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseSourcePicked
	PhaseResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSourcePicked:
		return "source_picked"
	case PhaseResolved:
		return "resolved"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	for _, c := range []Phase{PhaseIdle, PhaseSourcePicked, PhaseResolved} {
		if c.String() == string(b) {
			*p = c
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(b))
}

// Move is a validated source/destination pair.
type Move struct {
	From    Square `json:"from"`
	To      Square `json:"to"`
	Capture bool   `json:"capture"`
}

// Midpoint is the jumped square of a capture.
func (m Move) Midpoint() Square {
	return Square{Row: (m.From.Row + m.To.Row) / 2, Col: (m.From.Col + m.To.Col) / 2}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
