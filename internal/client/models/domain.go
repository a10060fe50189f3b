package models

import "time"

// Profile is the user's own account data as shown offline.
type Profile struct {
	UserId      string `json:"userId"`
	Name        string `json:"name"`
	Nickname    string `json:"nickname"`
	ImageBase64 string `json:"imageBase64,omitempty"`

	// Streak counts consecutive days with at least one finished session.
	Streak        int    `json:"streak"`
	LastStreakDay string `json:"lastStreakDay,omitempty"`
}

// FriendshipStatus tracks a friend request through its lifecycle.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship is one edge between two users, created by a friend request.
type Friendship struct {
	Id         string           `json:"id"`
	SenderId   string           `json:"senderId"`
	ReceiverId string           `json:"receiverId"`
	Status     FriendshipStatus `json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// Session is one finished, timestamped unit of work.
type Session struct {
	Id              string    `json:"id"`
	UserId          string    `json:"userId"`
	DurationSeconds int64     `json:"durationSeconds"`
	StartedAt       time.Time `json:"startedAt"`
}

// StatisticBucket is a rolling work-time aggregate for one user and one
// time period. AverageDuration is nil for daily buckets, which only keep a
// running total.
type StatisticBucket struct {
	UserId          string   `json:"userId"`
	BucketId        string   `json:"bucketId"`
	TotalDuration   int64    `json:"totalDuration"`
	AverageDuration *float64 `json:"averageDuration,omitempty"`
}

// CacheId is the entity-cache key for the bucket; buckets are persisted
// through the same cache as every other entity type.
func (b StatisticBucket) CacheId() string {
	return b.UserId + "_" + b.BucketId
}

// AppVersion is the backend-published version gate, cached so the check
// still works offline.
type AppVersion struct {
	Minimum string `json:"minimum"`
	Latest  string `json:"latest"`
}
