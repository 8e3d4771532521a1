package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Draft stores and the backend client
// return these (optionally wrapped) so the synchronizer and wizard can translate
// them into domain errors.
//
//   - ErrNotFound: no record exists (no draft snapshot, no active onboarding session)
//   - ErrConflict: the upstream refused because of existing state
//   - ErrExpired: a persisted snapshot outlived its browser session
//   - ErrInvalidState: the session is in the wrong state for the operation
//   - ErrUnavailable: the dependency could not be reached or is failing fast
//
// For validation failures use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
