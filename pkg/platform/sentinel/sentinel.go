package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so the engine can translate them into domain outcomes.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: aggregate does not exist in the store
// - ErrConflict: an aggregate with the same id already exists
// - ErrVersionConflict: optimistic version check failed on save
// - ErrDeferred: a prerequisite aggregate does not exist yet; retry later
// - ErrMalformed: an event cannot be decoded or lacks mandatory ids
// - ErrUnavailable: service or resource temporarily unavailable
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrVersionConflict = errors.New("version conflict")
	ErrDeferred        = errors.New("deferred")
	ErrMalformed       = errors.New("malformed")
	ErrInvalidState    = errors.New("invalid state")
	ErrUnavailable     = errors.New("unavailable")
)
