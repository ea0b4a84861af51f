package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/checkers-engine/internal/checkers"
)

const schema = `
CREATE TABLE IF NOT EXISTS checkers_results (
	game_id     TEXT PRIMARY KEY,
	table_id    TEXT NOT NULL,
	winner      TEXT NOT NULL,
	end_cause   TEXT NOT NULL,
	black_count INTEGER NOT NULL,
	red_count   INTEGER NOT NULL,
	moves       INTEGER NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	ended_at    TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS checkers_results_ended_at_idx ON checkers_results (ended_at DESC);`

type Postgres struct {
	db *sql.DB
}

func NewPostgres(databaseURL string) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Postgres) Record(ctx context.Context, r *Result) error {
	if err := validate(r); err != nil {
		return err
	}
	const query = `
		INSERT INTO checkers_results (
			game_id, table_id, winner, end_cause,
			black_count, red_count, moves,
			started_at, ended_at, duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (game_id) DO NOTHING
		RETURNING game_id`

	var id string
	err := p.db.QueryRowContext(ctx, query,
		r.GameID, r.TableID, r.Winner.String(), r.EndCause.String(),
		r.BlackCount, r.RedCount, r.Moves,
		r.StartedAt, r.EndedAt, r.Duration().Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDuplicateResult
	}
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (p *Postgres) Recent(ctx context.Context, limit int) ([]*Result, error) {
	const query = `
		SELECT game_id, table_id, winner, end_cause,
			black_count, red_count, moves, started_at, ended_at
		FROM checkers_results
		ORDER BY ended_at DESC
		LIMIT $1`

	rows, err := p.db.QueryContext(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	out := []*Result{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) Tally(ctx context.Context) (Tally, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE winner = $1),
			COUNT(*) FILTER (WHERE winner = $2)
		FROM checkers_results`

	var t Tally
	err := p.db.QueryRowContext(ctx, query, checkers.Black.String(), checkers.Red.String()).
		Scan(&t.Games, &t.Black, &t.Red)
	if err != nil {
		return Tally{}, fmt.Errorf("tally results: %w", err)
	}
	return t, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(s scanner) (*Result, error) {
	var (
		r                Result
		winner, endCause string
	)
	if err := s.Scan(&r.GameID, &r.TableID, &winner, &endCause,
		&r.BlackCount, &r.RedCount, &r.Moves, &r.StartedAt, &r.EndedAt); err != nil {
		return nil, fmt.Errorf("scan result: %w", err)
	}
	if err := r.Winner.UnmarshalText([]byte(winner)); err != nil {
		return nil, err
	}
	if err := r.EndCause.UnmarshalText([]byte(endCause)); err != nil {
		return nil, err
	}
	return &r, nil
}
