package table

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/checkers-engine/internal/checkers"
	"github.com/park285/checkers-engine/internal/ledger"
	"github.com/park285/checkers-engine/internal/obslog"
)

var (
	ErrTableNotFound = errf("table not found")
	ErrTooManyTables = errf("too many open tables")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error { return staticErr(s) }

// State is a consistent copy of one table taken under its lock.
type State struct {
	TableID  string
	GameID   string
	Snapshot checkers.Snapshot
	Status   checkers.GameStatus
	Hints    checkers.Hints
	// Pick and Mover are set only for states returned by Registry.Pick.
	Pick  *checkers.PickResult
	Mover checkers.Color
}

type Options struct {
	MaxTables int
	IdleTTL   time.Duration
	Now       func() time.Time
}

type table struct {
	mu sync.Mutex

	id        string
	gameID    string
	engine    *checkers.Engine
	startedAt time.Time
	lastPick  time.Time
	recorded  bool
}

// Registry holds open tables. Each table has its own lock so picks on
// different tables never contend.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*table

	rec  ledger.Recorder
	opts Options
}

func NewRegistry(rec ledger.Recorder, opts Options) *Registry {
	if rec == nil {
		rec = ledger.NewMemory()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{tables: make(map[string]*table), rec: rec, opts: opts}
}

// Create opens a table with a fresh game.
func (r *Registry) Create(ctx context.Context) (State, error) {
	return r.open(checkers.NewEngine())
}

// CreateFrom opens a table playing from position b with active to move.
func (r *Registry) CreateFrom(ctx context.Context, b *checkers.Board, active checkers.Color) (State, error) {
	e, err := checkers.NewEngineFromBoard(b, active)
	if err != nil {
		return State{}, err
	}
	return r.open(e)
}

func (r *Registry) open(e *checkers.Engine) (State, error) {
	now := r.opts.Now()
	t := &table{
		id:        uuid.NewString(),
		gameID:    uuid.NewString(),
		engine:    e,
		startedAt: now,
		lastPick:  now,
	}

	r.mu.Lock()
	if r.opts.MaxTables > 0 && len(r.tables) >= r.opts.MaxTables {
		r.mu.Unlock()
		return State{}, ErrTooManyTables
	}
	r.tables[t.id] = t
	open := len(r.tables)
	r.mu.Unlock()

	obslog.L().Info("table_create", zap.String("table_id", t.id), zap.String("game_id", t.gameID), zap.Int("open", open))
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state(), nil
}

func (r *Registry) Get(ctx context.Context, id string) (State, error) {
	t, err := r.lookup(id)
	if err != nil {
		return State{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state(), nil
}

// Pick forwards one square pick to the table's engine. When the pick ends
// the game the result goes to the ledger exactly once; a ledger failure is
// logged and does not fail the pick.
func (r *Registry) Pick(ctx context.Context, id string, row, col int) (State, error) {
	t, err := r.lookup(id)
	if err != nil {
		return State{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	mover := t.engine.Turn().Active
	res, err := t.engine.PickSquare(row, col)
	if err != nil {
		return State{}, err
	}
	t.lastPick = r.opts.Now()

	obslog.L().Debug("table_pick",
		zap.String("table_id", t.id),
		zap.Int("row", row), zap.Int("col", col),
		zap.Stringer("outcome", res.Outcome),
		zap.Stringer("reason", res.Reason),
	)

	if res.Accepted && res.Winner != checkers.NoColor && !t.recorded {
		t.recorded = true
		r.finish(ctx, t, res.Status)
	}

	st := t.state()
	st.Pick = &res
	st.Mover = mover
	return st, nil
}

func (r *Registry) finish(ctx context.Context, t *table, status checkers.GameStatus) {
	snap := t.engine.Snapshot()
	result := &ledger.Result{
		GameID:     t.gameID,
		TableID:    t.id,
		Winner:     status.Winner,
		EndCause:   status.EndCause,
		BlackCount: snap.BlackCount,
		RedCount:   snap.RedCount,
		Moves:      snap.Moves,
		StartedAt:  t.startedAt,
		EndedAt:    t.lastPick,
	}
	obslog.L().Info("table_finish",
		zap.String("table_id", t.id),
		zap.String("game_id", t.gameID),
		zap.Stringer("winner", status.Winner),
		zap.Stringer("end_cause", status.EndCause),
		zap.Int("moves", snap.Moves),
	)
	if err := r.rec.Record(ctx, result); err != nil {
		obslog.L().Error("ledger_record_error", zap.String("game_id", t.gameID), zap.Error(err))
	}
}

// Reset starts a new game on an existing table under a new game ID.
func (r *Registry) Reset(ctx context.Context, id string) (State, error) {
	t, err := r.lookup(id)
	if err != nil {
		return State{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := r.opts.Now()
	t.engine.NewGame()
	t.gameID = uuid.NewString()
	t.startedAt = now
	t.lastPick = now
	t.recorded = false
	obslog.L().Info("table_reset", zap.String("table_id", t.id), zap.String("game_id", t.gameID))
	return t.state(), nil
}

func (r *Registry) Remove(ctx context.Context, id string) error {
	key := strings.TrimSpace(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[key]; !ok {
		return ErrTableNotFound
	}
	delete(r.tables, key)
	obslog.L().Info("table_remove", zap.String("table_id", key))
	return nil
}

// Sweep drops tables with no pick for longer than IdleTTL and returns how
// many were dropped.
func (r *Registry) Sweep(now time.Time) int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-r.opts.IdleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, t := range r.tables {
		t.mu.Lock()
		idle := t.lastPick.Before(cutoff)
		t.mu.Unlock()
		if idle {
			delete(r.tables, id)
			n++
		}
	}
	if n > 0 {
		obslog.L().Info("table_sweep", zap.Int("removed", n), zap.Int("open", len(r.tables)))
	}
	return n
}

// IDs lists open tables in lexical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.tables))
	for id := range r.tables {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tables)
}

func (r *Registry) Ledger() ledger.Recorder { return r.rec }

func (r *Registry) lookup(id string) (*table, error) {
	r.mu.RLock()
	t, ok := r.tables[strings.TrimSpace(id)]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrTableNotFound
	}
	return t, nil
}

func (t *table) state() State {
	return State{
		TableID:  t.id,
		GameID:   t.gameID,
		Snapshot: t.engine.Snapshot(),
		Status:   t.engine.Status(),
		Hints:    t.engine.Hints(),
	}
}
