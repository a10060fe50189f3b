// Package common defines shared constants and sentinel errors used across
// the FocusKeeper client core. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Remote-call errors. ErrRemoteUnavailable is transient: the operation is
	// safe to enqueue and replay later. The remaining remote errors are
	// permanent domain failures; replaying them would not change the outcome.
	ErrRemoteUnavailable = errors.New("remote backend unavailable")
	ErrNicknameTaken     = errors.New("nickname already taken")
	ErrRequestConflict   = errors.New("friend request state conflict")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")
)
