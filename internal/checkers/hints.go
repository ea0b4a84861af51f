package checkers

// Hint is the derived availability of one square's occupant.
type Hint struct {
	Capturable bool `json:"capturable"`
	Movable    bool `json:"movable"`
}

// Hints is recomputed from the board on demand and never stored.
type Hints struct {
	Squares     [Size][Size]Hint `json:"squares"`
	MustCapture bool             `json:"must_capture"`
	// Selectable lists the squares active may legally pick as a source.
	Selectable []Square `json:"selectable"`
}

func ComputeHints(b *Board, active Color) Hints {
	var h Hints
	var movers, capturers []Square
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			sq := Square{Row: r, Col: c}
			if b.cells[r][c] == Empty {
				continue
			}
			hint := Hint{Capturable: CaptureAvailable(b, sq), Movable: MoveAvailable(b, sq)}
			h.Squares[r][c] = hint
			if b.cells[r][c].Color() != active {
				continue
			}
			if hint.Capturable {
				capturers = append(capturers, sq)
			}
			if hint.Movable {
				movers = append(movers, sq)
			}
		}
	}
	h.MustCapture = len(capturers) > 0
	if h.MustCapture {
		h.Selectable = capturers
	} else {
		h.Selectable = movers
	}
	return h
}
