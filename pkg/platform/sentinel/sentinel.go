package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into
// caller-facing results without string matching.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in the store
// - ErrConflict: uniqueness or validity-window violation
// - ErrUnauthorized: credential missing, unknown, or not yet active
// - ErrUnavailable: broker/store/index call failed for an infrastructure reason
// - ErrInvalidConfig: invalid configuration or input, rejected before any write
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUnavailable   = errors.New("unavailable")
	ErrInvalidConfig = errors.New("invalid config")
)
