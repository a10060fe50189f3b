package models

import (
	"encoding/json"
	"time"
)

// Operation is the closed set of replayable mutating intents. The outbox
// stores one serialized payload per operation; the sync engine dispatches on
// this tag to decode it.
type Operation string

const (
	OpProfileUpsert                         Operation = "profileUpsert"
	OpProfileUpdateImage                    Operation = "profileUpdateImage"
	OpProfileUpdateStreak                   Operation = "profileUpdateStreak"
	OpProfileDelete                         Operation = "profileDelete"
	OpProfileDeleteStatisticsAndFriendships Operation = "profileDeleteStatisticsAndFriendships"
	OpFriendRequestSend                     Operation = "friendRequestSend"
	OpFriendRequestCancel                   Operation = "friendRequestCancel"
	OpFriendRequestAccept                   Operation = "friendRequestAccept"
	OpFriendRequestReject                   Operation = "friendRequestReject"
	OpTimerSaveSession                      Operation = "timerSaveSession"
)

// PendingOperation is a durable description of one deferred mutating intent,
// with enough payload to retry it verbatim.
type PendingOperation struct {
	Id         string
	EntityType EntityType
	EntityId   string
	Operation  Operation
	Payload    json.RawMessage

	// CreatedAt is the sole ordering key; the outbox is strictly FIFO.
	CreatedAt time.Time

	// RetryCount and LastError are bookkeeping for failed replay attempts.
	// They never cause abandonment.
	RetryCount int
	LastError  string
}

// Payload shapes, one per operation kind. Friend-request transitions share a
// shape since all four carry the same pair of ids; the Operation tag keeps
// them distinct on the wire.

type ProfileUpsertPayload struct {
	UserId   string `json:"userId"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

type ProfileUpdateImagePayload struct {
	UserId      string `json:"userId"`
	ImageBase64 string `json:"imageBase64"`
}

type ProfileUpdateStreakPayload struct {
	UserId string `json:"userId"`
	// Day is the calendar day the streak was extended to, as "yyyyMMdd".
	Day string `json:"day"`
}

type ProfileDeletePayload struct {
	UserId string `json:"userId"`
}

type FriendRequestPayload struct {
	SenderId   string `json:"senderId"`
	ReceiverId string `json:"receiverId"`
}

type SaveSessionPayload struct {
	Session Session `json:"session"`
}
