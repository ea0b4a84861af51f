package checkers

// Engine owns one board and one turn state. It is not safe for concurrent
// use; callers serialise picks the way a UI event loop does.
type Engine struct {
	board *Board
	turn  TurnState
}

// Snapshot is a read-only copy of the engine's state for rendering.
type Snapshot struct {
	Cells           [Size][Size]SquareStatus `json:"cells"`
	BlackCount      int                      `json:"black_count"`
	RedCount        int                      `json:"red_count"`
	Active          Color                    `json:"active"`
	Phase           Phase                    `json:"phase"`
	Selected        *Square                  `json:"selected,omitempty"`
	ChainInProgress bool                     `json:"chain_in_progress"`
	Winner          Color                    `json:"winner"`
	Moves           int                      `json:"moves"`
}

// NewEngine returns an engine with a fresh game set up.
func NewEngine() *Engine {
	e := &Engine{}
	e.NewGame()
	return e
}

// NewEngineFromBoard starts play from an arbitrary position with active to
// move. The board is copied. A position that is already decided starts in
// the resolved phase.
func NewEngineFromBoard(b *Board, active Color) (*Engine, error) {
	if err := b.Verify(); err != nil {
		return nil, err
	}
	if active == NoColor {
		active = Black
	}
	e := &Engine{board: b.Clone(), turn: TurnState{Active: active, Phase: PhaseIdle}}
	if st := ComputeStatus(e.board, active); st.Over() {
		e.turn.Phase = PhaseResolved
		e.turn.Winner = st.Winner
	}
	return e, nil
}

// NewGame resets the board to the starting layout with Black to move.
func (e *Engine) NewGame() Snapshot {
	if e.board == nil {
		e.board = NewBoard()
	} else {
		e.board.Reset()
	}
	e.turn = NewTurn()
	return e.Snapshot()
}

// PickSquare feeds one square pick into the turn engine.
func (e *Engine) PickSquare(row, col int) (PickResult, error) {
	next, res, err := Transition(e.board, e.turn, Square{Row: row, Col: col})
	if err != nil {
		return res, err
	}
	e.turn = next
	return res, nil
}

func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Cells:           e.board.Cells(),
		BlackCount:      e.board.Count(Black),
		RedCount:        e.board.Count(Red),
		Active:          e.turn.Active,
		Phase:           e.turn.Phase,
		ChainInProgress: e.turn.ChainInProgress,
		Winner:          e.turn.Winner,
		Moves:           e.turn.Moves,
	}
	if e.turn.HasSelection {
		sel := e.turn.Selected
		s.Selected = &sel
	}
	return s
}

func (e *Engine) Status() GameStatus { return ComputeStatus(e.board, e.turn.Active) }

func (e *Engine) Turn() TurnState { return e.turn }

// Board returns a copy of the current board.
func (e *Engine) Board() *Board { return e.board.Clone() }

// Hints projects per-square capture and move availability for the side to move.
func (e *Engine) Hints() Hints {
	h := ComputeHints(e.board, e.turn.Active)
	if e.turn.ChainInProgress {
		h.Selectable = []Square{e.turn.ChainSquare}
	}
	if e.turn.Phase == PhaseResolved {
		h.Selectable = nil
	}
	return h
}
