package checkers

import "fmt"

// TurnState is everything the turn engine remembers between picks.
type TurnState struct {
	Active       Color  `json:"active"`
	Selected     Square `json:"selected"`
	HasSelection bool   `json:"has_selection"`
	Phase        Phase  `json:"phase"`
	// ChainInProgress is set after a capture whose landing piece can jump
	// again. Until the chain ends only ChainSquare may move, and only by a
	// capture.
	ChainInProgress bool   `json:"chain_in_progress"`
	ChainSquare     Square `json:"chain_square"`
	Winner          Color  `json:"winner"`
	Moves           int    `json:"moves"`
}

// NewTurn is the state at the start of a game.
func NewTurn() TurnState {
	return TurnState{Active: Black, Phase: PhaseIdle}
}

// Outcome classifies an accepted or rejected pick.
type Outcome uint8

const (
	OutcomeRejected Outcome = iota
	OutcomeSelected
	OutcomeMoved
	OutcomeCaptured
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "rejected"
	case OutcomeSelected:
		return "selected"
	case OutcomeMoved:
		return "moved"
	case OutcomeCaptured:
		return "captured"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	for _, c := range []Outcome{OutcomeRejected, OutcomeSelected, OutcomeMoved, OutcomeCaptured} {
		if c.String() == string(b) {
			*o = c
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", string(b))
}

// SquareChange is one square whose occupant changed during a commit.
type SquareChange struct {
	Square Square       `json:"square"`
	Status SquareStatus `json:"status"`
}

// PickResult tells the shell what a pick did and what to redraw.
type PickResult struct {
	Accepted       bool           `json:"accepted"`
	Reason         Reason         `json:"reason"`
	Outcome        Outcome        `json:"outcome"`
	Square         Square         `json:"square"`
	Move           *Move          `json:"move,omitempty"`
	Promoted       bool           `json:"promoted"`
	ChainContinues bool           `json:"chain_continues"`
	Delta          []SquareChange `json:"delta,omitempty"`
	Phase          Phase          `json:"phase"`
	Active         Color          `json:"active"`
	Winner         Color          `json:"winner"`
	Status         GameStatus     `json:"status"`
}

// Transition applies one pick to (b, ts) and returns the next turn state.
// b is mutated only when a move commits. Rule rejections come back in the
// result; the error is reserved for out-of-range squares and board faults.
func Transition(b *Board, ts TurnState, sq Square) (TurnState, PickResult, error) {
	if !sq.InBounds() {
		return ts, PickResult{}, fmt.Errorf("pick %s: %w", sq, ErrOutOfBounds)
	}
	switch ts.Phase {
	case PhaseIdle:
		return pickSource(b, ts, sq)
	case PhaseSourcePicked:
		return pickDestination(b, ts, sq)
	default:
		return ts, reject(b, ts, sq, ReasonGameOver), nil
	}
}

func pickSource(b *Board, ts TurnState, sq Square) (TurnState, PickResult, error) {
	reason := ValidateSource(b, sq, ts.Active)
	if reason == ReasonNone && ts.ChainInProgress && sq != ts.ChainSquare {
		reason = ReasonChainPieceRequired
	}
	if reason != ReasonNone {
		ts = dropSelection(ts)
		return ts, reject(b, ts, sq, reason), nil
	}
	ts.Selected = sq
	ts.HasSelection = true
	ts.Phase = PhaseSourcePicked
	res := result(b, ts, sq)
	res.Accepted = true
	res.Outcome = OutcomeSelected
	return ts, res, nil
}

func pickDestination(b *Board, ts TurnState, sq Square) (TurnState, PickResult, error) {
	from := ts.Selected
	if reason := ValidateDestination(b, from, sq); reason != ReasonNone {
		ts = dropSelection(ts)
		return ts, reject(b, ts, sq, reason), nil
	}
	capture := IsCapture(b, from, sq)
	if !capture && (ts.ChainInProgress || ColorCanCapture(b, ts.Active)) {
		ts = dropSelection(ts)
		return ts, reject(b, ts, sq, ReasonMustCapture), nil
	}

	mv := Move{From: from, To: sq, Capture: capture}
	promoted, err := b.ApplyMove(from, sq, capture)
	if err != nil {
		return ts, PickResult{}, fmt.Errorf("commit: %w", err)
	}
	if err := b.Verify(); err != nil {
		return ts, PickResult{}, fmt.Errorf("commit %s->%s: %w", from, sq, err)
	}
	ts.Moves++

	delta := []SquareChange{
		{Square: from, Status: Empty},
		{Square: sq, Status: b.at(sq)},
	}
	if capture {
		delta = append(delta, SquareChange{Square: mv.Midpoint(), Status: Empty})
	}

	chain := capture && CaptureAvailable(b, sq)
	if chain {
		ts.Selected = sq
		ts.HasSelection = true
		ts.Phase = PhaseSourcePicked
		ts.ChainInProgress = true
		ts.ChainSquare = sq
	} else {
		ts = dropSelection(ts)
		ts.ChainInProgress = false
		ts.ChainSquare = Square{}
		ts.Active = ts.Active.Opponent()
	}

	status := ComputeStatus(b, ts.Active)
	if status.Over() {
		ts = dropSelection(ts)
		ts.ChainInProgress = false
		ts.ChainSquare = Square{}
		ts.Phase = PhaseResolved
		ts.Winner = status.Winner
		chain = false
	}

	res := PickResult{
		Accepted:       true,
		Outcome:        OutcomeMoved,
		Square:         sq,
		Move:           &mv,
		Promoted:       promoted,
		ChainContinues: chain,
		Delta:          delta,
		Phase:          ts.Phase,
		Active:         ts.Active,
		Winner:         ts.Winner,
		Status:         status,
	}
	if capture {
		res.Outcome = OutcomeCaptured
	}
	return ts, res, nil
}

// dropSelection returns to Idle. A pending chain stays locked.
func dropSelection(ts TurnState) TurnState {
	ts.Selected = Square{}
	ts.HasSelection = false
	if ts.Phase != PhaseResolved {
		ts.Phase = PhaseIdle
	}
	return ts
}

func reject(b *Board, ts TurnState, sq Square, reason Reason) PickResult {
	res := result(b, ts, sq)
	res.Reason = reason
	res.Outcome = OutcomeRejected
	return res
}

func result(b *Board, ts TurnState, sq Square) PickResult {
	return PickResult{
		Square: sq,
		Phase:  ts.Phase,
		Active: ts.Active,
		Winner: ts.Winner,
		Status: ComputeStatus(b, ts.Active),
	}
}
