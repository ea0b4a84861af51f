package checkers

// Square rules are pure predicates over a board. Men step and jump forward
// only (Black toward row 7, Red toward row 0); kings use both row directions.
// Only men can be jumped.

var colSteps = [...]int{-1, 1}

// CaptureAvailable reports whether the piece on sq has at least one jump.
func CaptureAvailable(b *Board, sq Square) bool {
	st := b.at(sq)
	for _, dr := range st.rowSteps() {
		for _, dc := range colSteps {
			if canJump(b, sq, dr, dc, st.Color()) {
				return true
			}
		}
	}
	return false
}

// MoveAvailable reports whether the piece on sq can step or jump.
func MoveAvailable(b *Board, sq Square) bool {
	st := b.at(sq)
	for _, dr := range st.rowSteps() {
		for _, dc := range colSteps {
			to := sq.Offset(dr, dc)
			if to.InBounds() && b.at(to) == Empty {
				return true
			}
		}
	}
	return CaptureAvailable(b, sq)
}

// ColorCanCapture reports whether any piece of c has a jump.
func ColorCanCapture(b *Board, c Color) bool {
	return anyPiece(b, c, CaptureAvailable)
}

// ColorCanMove reports whether any piece of c can step or jump.
func ColorCanMove(b *Board, c Color) bool {
	return anyPiece(b, c, MoveAvailable)
}

func anyPiece(b *Board, c Color, pred func(*Board, Square) bool) bool {
	for r := 0; r < Size; r++ {
		for col := 0; col < Size; col++ {
			sq := Square{Row: r, Col: col}
			if b.cells[r][col].Color() == c && pred(b, sq) {
				return true
			}
		}
	}
	return false
}

// ValidateSource checks that sq holds a piece of the side to move.
func ValidateSource(b *Board, sq Square, active Color) Reason {
	st := b.at(sq)
	if st == Empty {
		return ReasonEmptySource
	}
	if st.Color() != active {
		return ReasonWrongColorTurn
	}
	return ReasonNone
}

// ValidateDestination checks a destination for the piece on from. Checks run
// in a fixed order and the first failure wins.
func ValidateDestination(b *Board, from, to Square) Reason {
	if b.at(to) != Empty {
		return ReasonOccupiedDestination
	}
	if !to.Dark() {
		return ReasonNotDiagonal
	}
	dr := to.Row - from.Row
	if dr == 0 {
		return ReasonSameRow
	}
	piece := b.at(from)
	if piece.IsMan() && sign(dr) != piece.Color().forward() {
		return ReasonNotForward
	}
	if abs(dr) == 1 && abs(to.Col-from.Col) == 1 {
		return ReasonNone
	}
	if IsCapture(b, from, to) {
		return ReasonNone
	}
	return ReasonIllegalDistance
}

// IsCapture reports whether from->to is a legal jump for the piece on from:
// a two-square diagonal in a permitted direction over an opposing man onto an
// empty square.
func IsCapture(b *Board, from, to Square) bool {
	dr, dc := to.Row-from.Row, to.Col-from.Col
	if abs(dr) != 2 || abs(dc) != 2 {
		return false
	}
	st := b.at(from)
	for _, step := range st.rowSteps() {
		if step == dr/2 {
			return canJump(b, from, dr/2, dc/2, st.Color())
		}
	}
	return false
}

func canJump(b *Board, from Square, dr, dc int, c Color) bool {
	land := from.Offset(2*dr, 2*dc)
	if !land.InBounds() || b.at(land) != Empty {
		return false
	}
	victim := b.at(from.Offset(dr, dc))
	return victim.IsMan() && victim.Color() == c.Opponent()
}
