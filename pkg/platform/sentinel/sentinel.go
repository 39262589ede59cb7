package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and adapters return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrConflict: a uniqueness constraint was violated
// - ErrInvalidState: record in wrong state for the requested mutation
// - ErrRevisionMismatch: optimistic concurrency check failed on update
// - ErrUnavailable: external collaborator temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidState     = errors.New("invalid state")
	ErrRevisionMismatch = errors.New("revision mismatch")
	ErrUnavailable      = errors.New("unavailable")
)
