package table

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/checkers-engine/internal/checkers"
	"github.com/park285/checkers-engine/internal/ledger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(t *testing.T, opts Options) (*Registry, ledger.Recorder, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	opts.Now = clock.Now
	rec := ledger.NewMemory()
	return NewRegistry(rec, opts), rec, clock
}

// oneJumpFromWin has Black to move and one capture away from taking Red's last piece.
func oneJumpFromWin(t *testing.T) *checkers.Board {
	t.Helper()
	b, err := checkers.ParseBoard(
		"........",
		"........",
		".b......",
		"..r.....",
		"........",
		"........",
		"........",
		"........",
	)
	require.NoError(t, err)
	return b
}

func TestCreateAndGet(t *testing.T) {
	reg, _, _ := newTestRegistry(t, Options{})
	ctx := context.Background()

	st, err := reg.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, st.TableID)
	assert.NotEmpty(t, st.GameID)
	assert.Equal(t, 12, st.Snapshot.BlackCount)
	assert.Equal(t, checkers.Black, st.Snapshot.Active)
	assert.Nil(t, st.Pick)

	got, err := reg.Get(ctx, " "+st.TableID+" ")
	require.NoError(t, err)
	assert.Equal(t, st.GameID, got.GameID)
	assert.Equal(t, []string{st.TableID}, reg.IDs())

	_, err = reg.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestMaxTables(t *testing.T) {
	reg, _, _ := newTestRegistry(t, Options{MaxTables: 2})
	ctx := context.Background()
	_, err := reg.Create(ctx)
	require.NoError(t, err)
	second, err := reg.Create(ctx)
	require.NoError(t, err)

	_, err = reg.Create(ctx)
	assert.ErrorIs(t, err, ErrTooManyTables)

	require.NoError(t, reg.Remove(ctx, second.TableID))
	_, err = reg.Create(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, reg.Len())
}

func TestPickReportsMover(t *testing.T) {
	reg, _, _ := newTestRegistry(t, Options{})
	ctx := context.Background()
	st, err := reg.Create(ctx)
	require.NoError(t, err)

	sel, err := reg.Pick(ctx, st.TableID, 2, 1)
	require.NoError(t, err)
	require.NotNil(t, sel.Pick)
	assert.Equal(t, checkers.OutcomeSelected, sel.Pick.Outcome)
	assert.Equal(t, checkers.Black, sel.Mover)

	moved, err := reg.Pick(ctx, st.TableID, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, checkers.OutcomeMoved, moved.Pick.Outcome)
	assert.Equal(t, checkers.Black, moved.Mover)
	assert.Equal(t, checkers.Red, moved.Snapshot.Active)

	rej, err := reg.Pick(ctx, st.TableID, 3, 0)
	require.NoError(t, err)
	assert.False(t, rej.Pick.Accepted)
	assert.Equal(t, checkers.ReasonWrongColorTurn, rej.Pick.Reason)
	assert.Equal(t, checkers.Red, rej.Mover)

	_, err = reg.Pick(ctx, st.TableID, 8, 0)
	assert.True(t, errors.Is(err, checkers.ErrOutOfBounds))

	_, err = reg.Pick(ctx, "nope", 0, 1)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestFinishedGameRecordedOnce(t *testing.T) {
	reg, rec, clock := newTestRegistry(t, Options{})
	ctx := context.Background()

	st, err := reg.CreateFrom(ctx, oneJumpFromWin(t), checkers.Black)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = reg.Pick(ctx, st.TableID, 2, 1)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	done, err := reg.Pick(ctx, st.TableID, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, checkers.Black, done.Pick.Winner)
	assert.Equal(t, checkers.PhaseResolved, done.Snapshot.Phase)

	// picks after the end are rejected and never re-record
	after, err := reg.Pick(ctx, st.TableID, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, checkers.ReasonGameOver, after.Pick.Reason)

	results, err := rec.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, st.GameID, r.GameID)
	assert.Equal(t, st.TableID, r.TableID)
	assert.Equal(t, checkers.Black, r.Winner)
	assert.Equal(t, checkers.EndNoPieces, r.EndCause)
	assert.Equal(t, 1, r.BlackCount)
	assert.Equal(t, 0, r.RedCount)
	assert.Equal(t, 2*time.Minute, r.Duration())

	tally, err := reg.Ledger().Tally(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.Tally{Games: 1, Black: 1}, tally)
}

func TestResetStartsNewGame(t *testing.T) {
	reg, rec, _ := newTestRegistry(t, Options{})
	ctx := context.Background()

	st, err := reg.CreateFrom(ctx, oneJumpFromWin(t), checkers.Black)
	require.NoError(t, err)
	_, err = reg.Pick(ctx, st.TableID, 2, 1)
	require.NoError(t, err)
	_, err = reg.Pick(ctx, st.TableID, 4, 3)
	require.NoError(t, err)

	fresh, err := reg.Reset(ctx, st.TableID)
	require.NoError(t, err)
	assert.Equal(t, st.TableID, fresh.TableID)
	assert.NotEqual(t, st.GameID, fresh.GameID)
	assert.Equal(t, checkers.PhaseIdle, fresh.Snapshot.Phase)
	assert.Equal(t, 12, fresh.Snapshot.RedCount)
	assert.Zero(t, fresh.Snapshot.Moves)

	tally, err := rec.Tally(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Games)

	_, err = reg.Reset(ctx, "missing")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestCreateFromDecidedPosition(t *testing.T) {
	reg, _, _ := newTestRegistry(t, Options{})
	ctx := context.Background()

	decided, err := checkers.ParseBoard(
		"........",
		"b.......",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
	)
	require.NoError(t, err)
	st, err := reg.CreateFrom(ctx, decided, checkers.Red)
	require.NoError(t, err)
	assert.Equal(t, checkers.PhaseResolved, st.Snapshot.Phase)
	assert.Equal(t, checkers.Black, st.Snapshot.Winner)
	assert.Empty(t, st.Hints.Selectable)
}

func TestSweepDropsIdleTables(t *testing.T) {
	reg, _, clock := newTestRegistry(t, Options{IdleTTL: 10 * time.Minute})
	ctx := context.Background()

	idle, err := reg.Create(ctx)
	require.NoError(t, err)
	clock.Advance(8 * time.Minute)
	busy, err := reg.Create(ctx)
	require.NoError(t, err)
	clock.Advance(4 * time.Minute)
	_, err = reg.Pick(ctx, busy.TableID, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, reg.Sweep(clock.Now()))
	_, err = reg.Get(ctx, idle.TableID)
	assert.ErrorIs(t, err, ErrTableNotFound)
	_, err = reg.Get(ctx, busy.TableID)
	assert.NoError(t, err)

	noTTL, _, _ := newTestRegistry(t, Options{})
	_, err = noTTL.Create(ctx)
	require.NoError(t, err)
	assert.Zero(t, noTTL.Sweep(time.Now().Add(24*time.Hour)))
}

func TestConcurrentPicksAcrossTables(t *testing.T) {
	reg, _, _ := newTestRegistry(t, Options{})
	ctx := context.Background()

	ids := make([]string, 8)
	for i := range ids {
		st, err := reg.Create(ctx)
		require.NoError(t, err)
		ids[i] = st.TableID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_, _ = reg.Pick(ctx, id, 2, 1)
				_, _ = reg.Get(ctx, id)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		st, err := reg.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 12, st.Snapshot.BlackCount)
	}
}
