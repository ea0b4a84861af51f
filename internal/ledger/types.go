package ledger

import (
	"context"
	"time"

	"github.com/park285/checkers-engine/internal/checkers"
)

// Result is the outcome of one finished game. Board state and moves are not
// kept, only the final tallies.
type Result struct {
	GameID     string            `json:"game_id"`
	TableID    string            `json:"table_id"`
	Winner     checkers.Color    `json:"winner"`
	EndCause   checkers.EndCause `json:"end_cause"`
	BlackCount int               `json:"black_count"`
	RedCount   int               `json:"red_count"`
	Moves      int               `json:"moves"`
	StartedAt  time.Time         `json:"started_at"`
	EndedAt    time.Time         `json:"ended_at"`
}

// Duration is the wall time between the first and the last pick.
func (r *Result) Duration() time.Duration {
	if r == nil || r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Tally counts wins per side.
type Tally struct {
	Games int `json:"games"`
	Black int `json:"black"`
	Red   int `json:"red"`
}

// Recorder stores finished-game results.
type Recorder interface {
	// Record stores r once; recording the same GameID again fails with ErrDuplicateResult.
	Record(ctx context.Context, r *Result) error
	// Recent returns up to limit results, newest first.
	Recent(ctx context.Context, limit int) ([]*Result, error)
	Tally(ctx context.Context) (Tally, error)
	Close() error
}

var (
	ErrDuplicateResult = errf("result already recorded")
	ErrInvalidResult   = errf("invalid result")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error { return staticErr(s) }

func validate(r *Result) error {
	if r == nil || r.GameID == "" || r.Winner == checkers.NoColor {
		return ErrInvalidResult
	}
	return nil
}

const defaultRecentLimit = 20

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	return limit
}
