package ledger

import (
	"sort"
	"sync"
)

// Store persists the full, sorted ledger.
type Store interface {
	Save(rows []Row) error
}

// Ledger is the in-memory set of trade rows keyed by Key. Rows are never
// replaced or removed; the store always receives the complete sorted set.
type Ledger struct {
	mu    sync.Mutex
	rows  map[Key]Row
	store Store
	dirty bool
}

func New(store Store) *Ledger {
	return &Ledger{
		rows:  map[Key]Row{},
		store: store,
	}
}

// Merge adds rows with unseen keys and saves the ledger if anything was
// added. A failed save leaves the ledger dirty so the next Merge saves again.
func (l *Ledger) Merge(rows []Row) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	changed := false
	for _, row := range rows {
		if _, ok := l.rows[row.key]; ok {
			continue
		}
		l.rows[row.key] = row
		changed = true
	}

	if !changed && !l.dirty {
		return false, nil
	}

	l.dirty = true
	if err := l.store.Save(l.sortedLocked()); err != nil {
		return changed, err
	}
	l.dirty = false
	return true, nil
}

func (l *Ledger) Rows() []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sortedLocked()
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows)
}

func (l *Ledger) sortedLocked() []Row {
	out := make([]Row, 0, len(l.rows))
	for _, row := range l.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].key.Less(out[j].key)
	})
	return out
}
