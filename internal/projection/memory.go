package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"progression/pkg/platform/sentinel"
)

type record struct {
	version int64
	body    []byte
}

// MemoryStore holds snapshots of every kind as JSON, so readers never share
// memory with the engine.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string]record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string]record)}
}

type memoryRepository[T any] struct {
	store *MemoryStore
	kind  string
}

// NewMemory returns the repository for kind backed by store.
func NewMemory[T any](store *MemoryStore, kind string) Repository[T] {
	return &memoryRepository[T]{store: store, kind: kind}
}

func (r *memoryRepository[T]) Kind() string { return r.kind }

func (r *memoryRepository[T]) Load(_ context.Context, id string) (*T, int64, error) {
	r.store.mu.RLock()
	rec, ok := r.store.records[r.kind][id]
	r.store.mu.RUnlock()
	if !ok {
		return nil, 0, sentinel.ErrNotFound
	}
	var v T
	if err := json.Unmarshal(rec.body, &v); err != nil {
		return nil, 0, fmt.Errorf("decode %s %s: %w", r.kind, id, err)
	}
	return &v, rec.version, nil
}

func (r *memoryRepository[T]) Save(_ context.Context, id string, value *T, expectedVersion int64) (int64, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return 0, fmt.Errorf("encode %s %s: %w", r.kind, id, err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	byID, ok := r.store.records[r.kind]
	if !ok {
		byID = make(map[string]record)
		r.store.records[r.kind] = byID
	}
	current, exists := byID[id]
	switch {
	case expectedVersion == 0 && exists:
		return 0, sentinel.ErrVersionConflict
	case expectedVersion != 0 && (!exists || current.version != expectedVersion):
		return 0, sentinel.ErrVersionConflict
	}
	next := expectedVersion + 1
	byID[id] = record{version: next, body: body}
	return next, nil
}

func (r *memoryRepository[T]) Exists(_ context.Context, id string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	_, ok := r.store.records[r.kind][id]
	return ok, nil
}

func (r *memoryRepository[T]) Find(_ context.Context, filter Filter) ([]T, error) {
	want, err := normalize(filter)
	if err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	ids := make([]string, 0, len(r.store.records[r.kind]))
	for id := range r.store.records[r.kind] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	bodies := make([][]byte, 0, len(ids))
	for _, id := range ids {
		bodies = append(bodies, r.store.records[r.kind][id].body)
	}
	r.store.mu.RUnlock()

	found := []T{}
	for _, body := range bodies {
		var fields map[string]any
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("decode %s: %w", r.kind, err)
		}
		if !matches(fields, want) {
			continue
		}
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", r.kind, err)
		}
		found = append(found, v)
	}
	return found, nil
}

// normalize round-trips the filter through JSON so typed ids compare equal
// to the decoded strings.
func normalize(filter Filter) (map[string]any, error) {
	raw, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}
	return out, nil
}

func matches(fields, want map[string]any) bool {
	for k, v := range want {
		if !reflect.DeepEqual(fields[k], v) {
			return false
		}
	}
	return true
}
