package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/checkers-engine/internal/checkers"
)

// memory is the in-process recorder used when no external store is configured.
type memory struct {
	mu sync.RWMutex

	seq   int64
	byID  map[string]*memEntry
	tally Tally
}

type memEntry struct {
	seq    int64
	result Result
}

func NewMemory() Recorder {
	return &memory{byID: make(map[string]*memEntry)}
}

func (m *memory) Record(ctx context.Context, r *Result) error {
	if err := validate(r); err != nil {
		return err
	}
	key := strings.TrimSpace(r.GameID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[key]; exists {
		return ErrDuplicateResult
	}
	m.seq++
	m.byID[key] = &memEntry{seq: m.seq, result: *r}
	m.tally.Games++
	switch r.Winner {
	case checkers.Black:
		m.tally.Black++
	case checkers.Red:
		m.tally.Red++
	}
	return nil
}

func (m *memory) Recent(ctx context.Context, limit int) ([]*Result, error) {
	limit = clampLimit(limit)
	m.mu.RLock()
	items := make([]*memEntry, 0, len(m.byID))
	for _, e := range m.byID {
		items = append(items, e)
	}
	m.mu.RUnlock()

	// EndedAt desc, insertion order desc on ties
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i].result.EndedAt, items[j].result.EndedAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return items[i].seq > items[j].seq
	})
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]*Result, 0, len(items))
	for _, e := range items {
		cp := e.result
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memory) Tally(ctx context.Context) (Tally, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tally, nil
}

func (m *memory) Close() error { return nil }
