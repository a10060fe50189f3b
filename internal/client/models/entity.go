package models

import (
	"encoding/json"
	"time"
)

// EntityType is the closed set of domain object kinds held by the entity
// cache. Each type maps to exactly one serializable domain shape.
type EntityType string

const (
	TypeProfile    EntityType = "profile"
	TypeFriendship EntityType = "friendship"
	TypeSession    EntityType = "session"
	TypeStatistic  EntityType = "statistic"
	TypeAppVersion EntityType = "appVersion"
)

// EntityRecord is a locally durable snapshot of a domain object's last known
// state. At most one live record exists per (Id, Type).
type EntityRecord struct {
	// Id is the stable identifier, unique within (Id, Type).
	Id string

	// Type selects the domain shape the payload decodes into.
	Type EntityType

	// Payload is the serialized snapshot; opaque to the cache.
	Payload json.RawMessage

	// UpdatedAt is the time of the last local write.
	UpdatedAt time.Time

	// Dirty is true while this local version has not been confirmed as
	// applied remotely.
	Dirty bool

	// Deleted marks the record as logically deleted. Deleted records are
	// excluded from reads but kept around so the delete itself can sync.
	Deleted bool
}
