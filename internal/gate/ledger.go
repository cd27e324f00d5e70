package gate

import (
	"context"
	"sync"

	"progression/internal/events"
	"progression/pkg/domain"
	"progression/pkg/platform/sentinel"
)

// Ledger records which events have been applied.
//
// Commit returns sentinel.ErrConflict when the id is already recorded. A
// ledger that understands the context transaction commits with it.
type Ledger interface {
	Seen(ctx context.Context, id domain.EventID) (bool, error)
	Commit(ctx context.Context, id domain.EventID, name events.Name) error
}

// MemoryLedger is a process-local ledger.
type MemoryLedger struct {
	mu   sync.RWMutex
	seen map[domain.EventID]events.Name
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[domain.EventID]events.Name)}
}

func (l *MemoryLedger) Seen(_ context.Context, id domain.EventID) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.seen[id]
	return ok, nil
}

func (l *MemoryLedger) Commit(_ context.Context, id domain.EventID, name events.Name) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[id]; ok {
		return sentinel.ErrConflict
	}
	l.seen[id] = name
	return nil
}
