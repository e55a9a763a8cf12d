package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrExpired: challenge or session has passed its deadline
// - ErrAlreadyUsed: challenge already consumed by a successful verify
// - ErrLocked: challenge exhausted its attempt budget
// - ErrConflict: concurrent mutation superseded the caller's view
// - ErrUnavailable: upstream service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrAlreadyUsed = errors.New("already used")
	ErrLocked      = errors.New("locked")
	ErrUnavailable = errors.New("unavailable")
)
