// Package projection stores aggregate snapshots keyed by kind and id with an
// optimistic version. The engine is the only writer.
package projection

import (
	"context"
)

// Filter matches top-level JSON fields by equality.
type Filter map[string]any

// Repository stores snapshots of one aggregate kind.
//
// Load returns sentinel.ErrNotFound when nothing is stored under id. Save
// with expectedVersion 0 creates the snapshot; otherwise the stored version
// must equal expectedVersion. A mismatch returns sentinel.ErrVersionConflict.
type Repository[T any] interface {
	Kind() string
	Load(ctx context.Context, id string) (*T, int64, error)
	Save(ctx context.Context, id string, value *T, expectedVersion int64) (int64, error)
	Exists(ctx context.Context, id string) (bool, error)
	Find(ctx context.Context, filter Filter) ([]T, error)
}
