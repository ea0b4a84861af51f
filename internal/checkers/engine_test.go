package checkers

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pick(t *testing.T, e *Engine, row, col int) PickResult {
	t.Helper()
	res, err := e.PickSquare(row, col)
	require.NoError(t, err)
	return res
}

func engineFrom(t *testing.T, active Color, rows ...string) *Engine {
	t.Helper()
	e, err := NewEngineFromBoard(mustBoard(t, rows...), active)
	require.NoError(t, err)
	return e
}

func TestNewGameIdempotent(t *testing.T) {
	e := NewEngine()
	first := e.NewGame()
	pick(t, e, 2, 1)
	pick(t, e, 3, 0)
	second := e.NewGame()
	third := e.NewGame()

	assert.Equal(t, first, second)
	assert.Equal(t, second, third)
	assert.Equal(t, mustBoard(t, initialLayout...).Cells(), first.Cells)
	assert.Equal(t, Black, first.Active)
	assert.Equal(t, PhaseIdle, first.Phase)
	assert.Nil(t, first.Selected)
}

// Scenario A: opening step.
func TestOpeningStep(t *testing.T) {
	e := NewEngine()

	res := pick(t, e, 2, 1)
	assert.True(t, res.Accepted)
	assert.Equal(t, OutcomeSelected, res.Outcome)
	assert.Equal(t, PhaseSourcePicked, res.Phase)

	res = pick(t, e, 3, 0)
	assert.True(t, res.Accepted)
	assert.Equal(t, OutcomeMoved, res.Outcome)
	assert.Equal(t, Red, res.Active)
	assert.Equal(t, PhaseIdle, res.Phase)
	require.NotNil(t, res.Move)
	assert.False(t, res.Move.Capture)
	assert.ElementsMatch(t, []SquareChange{
		{Square: Square{2, 1}, Status: Empty},
		{Square: Square{3, 0}, Status: BlackMan},
	}, res.Delta)

	snap := e.Snapshot()
	assert.Equal(t, BlackMan, snap.Cells[3][0])
	assert.Equal(t, Empty, snap.Cells[2][1])
	assert.Equal(t, 12, snap.RedCount)
	assert.Equal(t, 1, snap.Moves)
}

// Scenario B: single capture.
func TestSingleCapture(t *testing.T) {
	e := engineFrom(t, Black,
		"........",
		"........",
		".b......",
		"..r.....",
		"........",
		"........",
		".....r..",
		"........",
	)
	pick(t, e, 2, 1)
	res := pick(t, e, 4, 3)

	assert.True(t, res.Accepted)
	assert.Equal(t, OutcomeCaptured, res.Outcome)
	assert.False(t, res.ChainContinues)
	assert.Equal(t, Red, res.Active)
	assert.Contains(t, res.Delta, SquareChange{Square: Square{3, 2}, Status: Empty})

	snap := e.Snapshot()
	assert.Equal(t, Empty, snap.Cells[3][2])
	assert.Equal(t, BlackMan, snap.Cells[4][3])
	assert.Equal(t, 1, snap.RedCount)
	assert.Equal(t, 1, e.Status().RedCount)
}

// Scenario C: crowning and backward play.
func TestPromotionThenBackwardMove(t *testing.T) {
	e := engineFrom(t, Black,
		"........",
		"........",
		"........",
		"........",
		"........",
		"......r.",
		".b......",
		"........",
	)
	pick(t, e, 6, 1)
	res := pick(t, e, 7, 2)
	assert.True(t, res.Promoted)
	assert.Contains(t, res.Delta, SquareChange{Square: Square{7, 2}, Status: BlackKing})
	assert.Equal(t, BlackKing, e.Snapshot().Cells[7][2])

	pick(t, e, 5, 6)
	res = pick(t, e, 4, 5)
	require.True(t, res.Accepted)

	pick(t, e, 7, 2)
	res = pick(t, e, 6, 3)
	assert.True(t, res.Accepted, "king moves toward row 0: %s", res.Reason)
	assert.False(t, res.Promoted)
	assert.Equal(t, BlackKing, e.Snapshot().Cells[6][3])
}

func TestKingCapturesBackward(t *testing.T) {
	e := engineFrom(t, Black,
		"........",
		"........",
		"........",
		"........",
		"........",
		"....r...",
		"...B....",
		"r.......",
	)
	pick(t, e, 6, 3)
	res := pick(t, e, 4, 5)
	assert.Equal(t, OutcomeCaptured, res.Outcome)
	assert.Equal(t, 1, e.Snapshot().RedCount)
}

// Scenario D: empty first pick.
func TestEmptySourceRejected(t *testing.T) {
	e := NewEngine()
	res := pick(t, e, 3, 0)
	assert.False(t, res.Accepted)
	assert.Equal(t, ReasonEmptySource, res.Reason)
	assert.Equal(t, PhaseIdle, res.Phase)
	assert.Equal(t, PhaseIdle, e.Turn().Phase)
}

// Scenario E: a man next to an opposing king has no capture.
func TestManCannotCaptureKing(t *testing.T) {
	b := mustBoard(t,
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		".b......",
		"..R.....",
	)
	assert.False(t, CaptureAvailable(b, Square{6, 1}))

	e := engineFrom(t, Black,
		"........",
		"........",
		"........",
		"........",
		".b......",
		"..R.....",
		"........",
		"........",
	)
	assert.False(t, e.Status().BlackMustCapture)
	pick(t, e, 4, 1)
	res := pick(t, e, 6, 3)
	assert.False(t, res.Accepted)
	assert.Equal(t, ReasonIllegalDistance, res.Reason)
}

func TestRejectionsPerReason(t *testing.T) {
	tests := []struct {
		name  string
		picks [][2]int
		want  Reason
	}{
		{"wrong color", [][2]int{{5, 0}}, ReasonWrongColorTurn},
		{"occupied", [][2]int{{2, 1}, {1, 0}}, ReasonOccupiedDestination},
		{"light square", [][2]int{{2, 1}, {3, 1}}, ReasonNotDiagonal},
		{"reselect own piece", [][2]int{{2, 1}, {2, 1}}, ReasonOccupiedDestination},
		{"too far", [][2]int{{2, 1}, {4, 3}}, ReasonIllegalDistance},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEngine()
			var res PickResult
			for _, p := range tc.picks {
				res = pick(t, e, p[0], p[1])
			}
			assert.False(t, res.Accepted)
			assert.Equal(t, OutcomeRejected, res.Outcome)
			assert.Equal(t, tc.want, res.Reason)
			assert.Equal(t, PhaseIdle, e.Turn().Phase)
			assert.False(t, e.Turn().HasSelection)
			assert.Equal(t, Black, e.Turn().Active)
			assert.Equal(t, NewBoard().Cells(), e.Snapshot().Cells)
		})
	}
}

func TestSameRowAndBackwardRejected(t *testing.T) {
	e := engineFrom(t, Black,
		"........",
		"........",
		".b......",
		"........",
		"........",
		"........",
		".....r..",
		"........",
	)
	pick(t, e, 2, 1)
	res := pick(t, e, 2, 3)
	assert.Equal(t, ReasonSameRow, res.Reason)

	pick(t, e, 2, 1)
	res = pick(t, e, 1, 2)
	assert.Equal(t, ReasonNotForward, res.Reason)
}

func TestMandatoryCapture(t *testing.T) {
	e := engineFrom(t, Black,
		".......b",
		"........",
		".b......",
		"..r.....",
		"........",
		"....r...",
		"........",
		"r.......",
	)
	require.True(t, e.Status().BlackMustCapture)
	assert.True(t, e.Hints().MustCapture)
	assert.Equal(t, []Square{{2, 1}}, e.Hints().Selectable)

	pick(t, e, 0, 7)
	res := pick(t, e, 1, 6)
	assert.Equal(t, ReasonMustCapture, res.Reason)
	assert.Equal(t, PhaseIdle, e.Turn().Phase)

	pick(t, e, 2, 1)
	res = pick(t, e, 3, 0)
	assert.Equal(t, ReasonMustCapture, res.Reason)
	assert.Equal(t, Black, e.Turn().Active)
}

func TestCaptureChain(t *testing.T) {
	e := engineFrom(t, Black,
		".......b",
		"........",
		".b......",
		"..r.....",
		"........",
		"....r...",
		"........",
		"r.......",
	)

	pick(t, e, 2, 1)
	res := pick(t, e, 4, 3)
	require.Equal(t, OutcomeCaptured, res.Outcome)
	assert.True(t, res.ChainContinues)
	assert.Equal(t, Black, res.Active)
	assert.Equal(t, PhaseSourcePicked, res.Phase)
	turn := e.Turn()
	assert.True(t, turn.ChainInProgress)
	assert.Equal(t, Square{4, 3}, turn.Selected)
	assert.Equal(t, []Square{{4, 3}}, e.Hints().Selectable)

	// A failed destination drops the selection but keeps the chain lock.
	res = pick(t, e, 0, 7)
	assert.Equal(t, ReasonOccupiedDestination, res.Reason)
	assert.Equal(t, PhaseIdle, e.Turn().Phase)
	assert.True(t, e.Turn().ChainInProgress)

	res = pick(t, e, 0, 7)
	assert.Equal(t, ReasonChainPieceRequired, res.Reason)

	pick(t, e, 4, 3)
	res = pick(t, e, 5, 2)
	assert.Equal(t, ReasonMustCapture, res.Reason)
	assert.Equal(t, Black, e.Turn().Active)

	pick(t, e, 4, 3)
	res = pick(t, e, 6, 5)
	assert.Equal(t, OutcomeCaptured, res.Outcome)
	assert.False(t, res.ChainContinues)
	assert.Equal(t, Red, res.Active)
	assert.False(t, e.Turn().ChainInProgress)
	assert.Equal(t, 1, e.Snapshot().RedCount)
	assert.Equal(t, 2, e.Snapshot().Moves)
}

func TestKingJumpChainAfterCrowning(t *testing.T) {
	e := engineFrom(t, Black,
		"........",
		"........",
		"........",
		"........",
		"........",
		"b.......",
		".r.r....",
		"........",
	)
	pick(t, e, 5, 0)
	res := pick(t, e, 7, 2)
	require.Equal(t, OutcomeCaptured, res.Outcome)
	assert.True(t, res.Promoted)
	assert.True(t, res.ChainContinues, "new king jumps (6,3) backward")
	assert.Equal(t, Black, res.Active)

	res = pick(t, e, 5, 4)
	assert.Equal(t, OutcomeCaptured, res.Outcome)
	assert.Equal(t, PhaseResolved, res.Phase)
	assert.Equal(t, Black, res.Winner)
	assert.Equal(t, EndNoPieces, res.Status.EndCause)
}

func TestEndByNoPieces(t *testing.T) {
	e := engineFrom(t, Black,
		"........",
		"........",
		".b......",
		"..r.....",
		"........",
		"........",
		"........",
		"........",
	)
	pick(t, e, 2, 1)
	res := pick(t, e, 4, 3)

	assert.Equal(t, PhaseResolved, res.Phase)
	assert.Equal(t, Black, res.Winner)
	assert.Equal(t, EndNoPieces, res.Status.EndCause)

	res = pick(t, e, 4, 3)
	assert.False(t, res.Accepted)
	assert.Equal(t, ReasonGameOver, res.Reason)
	assert.Empty(t, e.Hints().Selectable)
}

func TestEndByNoMoves(t *testing.T) {
	e := engineFrom(t, Black,
		"........",
		"........",
		"...b....",
		"........",
		"........",
		"..b.....",
		".b......",
		"r.......",
	)
	require.Equal(t, PhaseIdle, e.Turn().Phase)

	pick(t, e, 2, 3)
	res := pick(t, e, 3, 4)
	assert.True(t, res.Accepted)
	assert.Equal(t, PhaseResolved, res.Phase)
	assert.Equal(t, Black, res.Winner)
	assert.Equal(t, EndNoMoves, res.Status.EndCause)
	assert.Equal(t, Red, res.Active)

	res = pick(t, e, 7, 0)
	assert.Equal(t, ReasonGameOver, res.Reason)
}

func TestDecidedPositionStartsResolved(t *testing.T) {
	e := engineFrom(t, Red,
		"........",
		"........",
		"........",
		"........",
		"........",
		"..b.....",
		".b......",
		"r.......",
	)
	assert.Equal(t, PhaseResolved, e.Turn().Phase)
	assert.Equal(t, Black, e.Turn().Winner)
}

func TestOutOfBoundsIsFault(t *testing.T) {
	e := NewEngine()
	_, err := e.PickSquare(8, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = e.PickSquare(0, -1)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	assert.Equal(t, NewTurn(), e.Turn())
}

// Random self-play: invariants hold after every pick and kings never revert.
func TestRandomPlayInvariants(t *testing.T) {
	offsets := [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}, {2, 2}, {2, -2}, {-2, 2}, {-2, -2}}
	for seed := uint64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(int64(seed)))
		e := NewEngine()
		kings := map[Square]bool{}
		for step := 0; step < 600 && e.Turn().Phase != PhaseResolved; step++ {
			var sq Square
			switch {
			case e.Turn().Phase == PhaseSourcePicked:
				from := e.Turn().Selected
				o := offsets[rng.Intn(len(offsets))]
				sq = from.Offset(o[0], o[1])
			case rng.Intn(10) == 0:
				sq = Square{rng.Intn(Size), rng.Intn(Size)}
			default:
				sel := e.Hints().Selectable
				require.NotEmpty(t, sel, "seed %d step %d", seed, step)
				sq = sel[rng.Intn(len(sel))]
			}
			if !sq.InBounds() {
				_, err := e.PickSquare(sq.Row, sq.Col)
				require.ErrorIs(t, err, ErrOutOfBounds)
				continue
			}
			res, err := e.PickSquare(sq.Row, sq.Col)
			require.NoError(t, err)

			b := e.Board()
			require.NoError(t, b.Verify(), "seed %d step %d", seed, step)
			status := e.Status()
			require.Equal(t, b.Count(Black), status.BlackCount)
			require.Equal(t, b.Count(Red), status.RedCount)

			if res.Move != nil {
				if kings[res.Move.From] || res.Promoted {
					delete(kings, res.Move.From)
					kings[res.Move.To] = true
				}
			}
			for k := range kings {
				st, _ := b.Get(k)
				require.True(t, st.IsKing(), "seed %d step %d: king on %s lost", seed, step, k)
			}
		}
	}
}
