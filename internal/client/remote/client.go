// Package remote is the thin facade over the remote backend. It exposes one
// call per replayable operation kind plus a liveness probe; everything behind
// it (storage, transactions, server timestamps) belongs to the backend.
package remote

import (
	"context"
	"errors"

	"github.com/avolkovs/focuskeeper/internal/client/models"
	"github.com/avolkovs/focuskeeper/internal/common"
)

// Backend is the remote API surface the sync core replays against. Calls
// return nil on confirmed success, common.ErrRemoteUnavailable (wrapped) on
// transient failures worth replaying, and permanent domain errors (e.g.
// common.ErrNicknameTaken) when a retry would not change the outcome.
type Backend interface {
	// Ping checks backend liveness.
	Ping(ctx context.Context) error

	// FetchAppVersion returns the published version gate.
	FetchAppVersion(ctx context.Context) (*models.AppVersion, error)

	UpsertProfile(ctx context.Context, p models.ProfileUpsertPayload) error
	UpdateProfileImage(ctx context.Context, p models.ProfileUpdateImagePayload) error
	UpdateStreak(ctx context.Context, p models.ProfileUpdateStreakPayload) error
	DeleteProfile(ctx context.Context, userId string) error
	DeleteStatisticsAndFriendships(ctx context.Context, userId string) error

	SendFriendRequest(ctx context.Context, p models.FriendRequestPayload) error
	CancelFriendRequest(ctx context.Context, p models.FriendRequestPayload) error
	AcceptFriendRequest(ctx context.Context, p models.FriendRequestPayload) error
	RejectFriendRequest(ctx context.Context, p models.FriendRequestPayload) error

	// SaveSession and UpdateAggregates are the backend's two-step form. Only
	// SaveSessionAndUpdateAggregates is idempotent under replay (the backend
	// checks the session id before touching aggregates), so the sync core
	// uses the combined form exclusively.
	SaveSession(ctx context.Context, s models.Session) error
	UpdateAggregates(ctx context.Context, s models.Session) error
	SaveSessionAndUpdateAggregates(ctx context.Context, s models.Session) error
}

// IsTransient reports whether err is worth enqueueing and replaying later.
// Permanent domain failures retry to the same outcome, so they are surfaced
// to the caller instead.
func IsTransient(err error) bool {
	return errors.Is(err, common.ErrRemoteUnavailable)
}
