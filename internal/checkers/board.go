package checkers

import (
	"fmt"
	"strings"
)

const piecesPerSide = 12

// Board is the 8x8 grid plus live piece counters. Every mutator keeps the
// counters equal to the occupants and crowns a man on arrival at its far row.
type Board struct {
	cells      [Size][Size]SquareStatus
	blackCount int
	redCount   int
}

// NewBoard returns a board in the starting layout.
func NewBoard() *Board {
	b := &Board{}
	b.Reset()
	return b
}

// NewEmptyBoard returns a board with no pieces, for building positions with Set.
func NewEmptyBoard() *Board { return &Board{} }

// Reset restores the starting layout: Black men on the dark squares of rows
// 0-2, Red men on rows 5-7.
func (b *Board) Reset() {
	b.cells = [Size][Size]SquareStatus{}
	b.blackCount, b.redCount = 0, 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			sq := Square{Row: r, Col: c}
			if !sq.Dark() {
				continue
			}
			switch {
			case r <= 2:
				b.cells[r][c] = BlackMan
				b.blackCount++
			case r >= 5:
				b.cells[r][c] = RedMan
				b.redCount++
			}
		}
	}
}

// Clone returns an independent copy.
func (b *Board) Clone() *Board {
	cp := *b
	return &cp
}

// Get returns the occupant of sq.
func (b *Board) Get(sq Square) (SquareStatus, error) {
	if !sq.InBounds() {
		return Empty, fmt.Errorf("get %s: %w", sq, ErrOutOfBounds)
	}
	return b.cells[sq.Row][sq.Col], nil
}

// at is Get for callers that treat off-board squares as empty.
func (b *Board) at(sq Square) SquareStatus {
	if !sq.InBounds() {
		return Empty
	}
	return b.cells[sq.Row][sq.Col]
}

// Set replaces the occupant of sq, adjusting counters and applying promotion.
func (b *Board) Set(sq Square, st SquareStatus) error {
	if !sq.InBounds() {
		return fmt.Errorf("set %s: %w", sq, ErrOutOfBounds)
	}
	if st != Empty && !sq.Dark() {
		return fmt.Errorf("set %s: %w", sq, ErrLightSquare)
	}
	if st > RedKing {
		return fmt.Errorf("set %s: invalid status %d", sq, uint8(st))
	}
	b.adjust(b.cells[sq.Row][sq.Col], -1)
	b.cells[sq.Row][sq.Col] = st
	b.adjust(st, 1)
	b.promote(sq)
	return nil
}

// ApplyMove relocates the piece on from to to. For a capture the midpoint is
// cleared and the opposing counter drops by one. Legality is the caller's
// concern; only structural faults are reported. The returned flag is true when
// the moving man was crowned on arrival.
func (b *Board) ApplyMove(from, to Square, capture bool) (bool, error) {
	if !from.InBounds() || !to.InBounds() {
		return false, fmt.Errorf("move %s->%s: %w", from, to, ErrOutOfBounds)
	}
	piece := b.cells[from.Row][from.Col]
	if piece == Empty {
		return false, fmt.Errorf("move %s->%s: %w", from, to, ErrNoPiece)
	}
	if !to.Dark() {
		return false, fmt.Errorf("move %s->%s: %w", from, to, ErrLightSquare)
	}
	if b.cells[to.Row][to.Col] != Empty {
		return false, fmt.Errorf("move %s->%s: %w", from, to, ErrOccupied)
	}
	var mid Square
	if capture {
		if abs(to.Row-from.Row) != 2 || abs(to.Col-from.Col) != 2 {
			return false, fmt.Errorf("capture %s->%s: not a jump: %w", from, to, ErrNoVictim)
		}
		mid = Move{From: from, To: to}.Midpoint()
		if b.cells[mid.Row][mid.Col] == Empty {
			return false, fmt.Errorf("capture %s->%s: %w", from, to, ErrNoVictim)
		}
	}

	b.cells[from.Row][from.Col] = Empty
	b.cells[to.Row][to.Col] = piece
	if capture {
		b.adjust(b.cells[mid.Row][mid.Col], -1)
		b.cells[mid.Row][mid.Col] = Empty
	}
	return b.promote(to), nil
}

// Count returns the live piece count for c.
func (b *Board) Count(c Color) int {
	switch c {
	case Black:
		return b.blackCount
	case Red:
		return b.redCount
	default:
		return 0
	}
}

// Cells returns a value copy of the grid.
func (b *Board) Cells() [Size][Size]SquareStatus { return b.cells }

// Verify checks the board invariants.
func (b *Board) Verify() error {
	black, red := 0, 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			sq := Square{Row: r, Col: c}
			st := b.cells[r][c]
			if st == Empty {
				continue
			}
			if !sq.Dark() {
				return fmt.Errorf("%w: %s on light square %s", ErrCorruptBoard, st, sq)
			}
			if st.IsMan() && r == st.Color().promotionRow() {
				return fmt.Errorf("%w: uncrowned %s on %s", ErrCorruptBoard, st, sq)
			}
			switch st.Color() {
			case Black:
				black++
			case Red:
				red++
			}
		}
	}
	if black != b.blackCount || red != b.redCount {
		return fmt.Errorf("%w: counters black=%d red=%d, occupants black=%d red=%d",
			ErrCorruptBoard, b.blackCount, b.redCount, black, red)
	}
	if black > piecesPerSide || red > piecesPerSide {
		return fmt.Errorf("%w: more than %d pieces per side", ErrCorruptBoard, piecesPerSide)
	}
	return nil
}

func (b *Board) adjust(st SquareStatus, delta int) {
	switch st.Color() {
	case Black:
		b.blackCount += delta
	case Red:
		b.redCount += delta
	}
}

func (b *Board) promote(sq Square) bool {
	st := b.cells[sq.Row][sq.Col]
	switch {
	case st == BlackMan && sq.Row == Black.promotionRow():
		b.cells[sq.Row][sq.Col] = BlackKing
		return true
	case st == RedMan && sq.Row == Red.promotionRow():
		b.cells[sq.Row][sq.Col] = RedKing
		return true
	}
	return false
}

// String renders row 0 first, one symbol per square.
func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			sb.WriteByte(b.cells[r][c].Symbol())
		}
		if r < Size-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// ParseBoard builds a board from eight rows of symbols ('.', 'b', 'B', 'r',
// 'R'), row 0 first. Whitespace inside a row is ignored.
func ParseBoard(rows ...string) (*Board, error) {
	if len(rows) != Size {
		return nil, fmt.Errorf("parse board: want %d rows, got %d", Size, len(rows))
	}
	b := NewEmptyBoard()
	for r, line := range rows {
		line = strings.Join(strings.Fields(line), "")
		if len(line) != Size {
			return nil, fmt.Errorf("parse board: row %d has %d squares", r, len(line))
		}
		for c := 0; c < Size; c++ {
			st, ok := symbolStatus(line[c])
			if !ok {
				return nil, fmt.Errorf("parse board: row %d col %d: unknown symbol %q", r, c, line[c])
			}
			if err := b.Set(Square{Row: r, Col: c}, st); err != nil {
				return nil, fmt.Errorf("parse board: %w", err)
			}
		}
	}
	return b, nil
}

func symbolStatus(ch byte) (SquareStatus, bool) {
	for i, s := range statusSymbols {
		if s == ch {
			return SquareStatus(i), true
		}
	}
	return Empty, false
}
