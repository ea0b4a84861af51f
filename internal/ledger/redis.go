package ledger

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/url"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/park285/checkers-engine/internal/checkers"
)

const (
    defaultResultTTL = 30 * 24 * time.Hour
    recentKeep       = 500
)

// Redis keeps each result as JSON under its own key with a TTL, a capped list
// of recent game IDs, and a hash of win counters.
type Redis struct {
    rdb  *redis.Client
    ttl  time.Duration
    keep int64
}

func NewRedis(redisURL string, ttl time.Duration) (*Redis, error) {
    if strings.TrimSpace(redisURL) == "" {
        return nil, fmt.Errorf("REDIS_URL required for redis ledger")
    }
    opts, err := parseRedisURL(redisURL)
    if err != nil { return nil, err }
    rdb := redis.NewClient(opts)
    if err := rdb.Ping(context.Background()).Err(); err != nil {
        _ = rdb.Close()
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    if ttl <= 0 { ttl = defaultResultTTL }
    return &Redis{rdb: rdb, ttl: ttl, keep: recentKeep}, nil
}

func (s *Redis) Close() error {
    if s == nil || s.rdb == nil { return nil }
    return s.rdb.Close()
}

func resultKey(id string) string { return "checkers:result:" + strings.TrimSpace(id) }
func recentKey() string          { return "checkers:results:recent" }
func tallyKey() string           { return "checkers:tally" }

// Record writes the result, the recent-list entry and the counters in one
// transaction. WATCH on the result key makes a concurrent duplicate lose.
func (s *Redis) Record(ctx context.Context, r *Result) error {
    if err := validate(r); err != nil { return err }
    key := resultKey(r.GameID)
    raw, err := json.Marshal(r)
    if err != nil { return fmt.Errorf("marshal result: %w", err) }

    err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
        n, err := tx.Exists(ctx, key).Result()
        if err != nil { return err }
        if n > 0 { return ErrDuplicateResult }

        pipe := tx.TxPipeline()
        pipe.Set(ctx, key, raw, s.ttl)
        pipe.LPush(ctx, recentKey(), r.GameID)
        pipe.LTrim(ctx, recentKey(), 0, s.keep-1)
        pipe.HIncrBy(ctx, tallyKey(), "games", 1)
        pipe.HIncrBy(ctx, tallyKey(), r.Winner.String(), 1)
        _, err = pipe.Exec(ctx)
        return err
    }, key)
    if errors.Is(err, redis.TxFailedErr) {
        // another writer recorded the same game between WATCH and EXEC
        return ErrDuplicateResult
    }
    return err
}

func (s *Redis) Recent(ctx context.Context, limit int) ([]*Result, error) {
    limit = clampLimit(limit)
    ids, err := s.rdb.LRange(ctx, recentKey(), 0, int64(limit)-1).Result()
    if err != nil { return nil, err }
    if len(ids) == 0 { return []*Result{}, nil }
    keys := make([]string, len(ids))
    for i, id := range ids { keys[i] = resultKey(id) }
    vals, err := s.rdb.MGet(ctx, keys...).Result()
    if err != nil { return nil, err }
    out := make([]*Result, 0, len(vals))
    for _, v := range vals {
        str, ok := v.(string)
        if !ok { continue } // expired
        var r Result
        if err := json.Unmarshal([]byte(str), &r); err != nil { return nil, fmt.Errorf("decode result: %w", err) }
        out = append(out, &r)
    }
    return out, nil
}

func (s *Redis) Tally(ctx context.Context) (Tally, error) {
    m, err := s.rdb.HGetAll(ctx, tallyKey()).Result()
    if err != nil { return Tally{}, err }
    atoi := func(k string) int { n, _ := strconv.Atoi(m[k]); return n }
    return Tally{
        Games: atoi("games"),
        Black: atoi(checkers.Black.String()),
        Red:   atoi(checkers.Red.String()),
    }, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
    u, err := url.Parse(raw)
    if err != nil { return nil, err }
    if u.Scheme != "redis" && u.Scheme != "rediss" { return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme) }
    db := 0
    if p := strings.TrimPrefix(u.Path, "/"); p != "" { if n, err := strconv.Atoi(p); err == nil { db = n } }
    pass, _ := u.User.Password()
    return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
