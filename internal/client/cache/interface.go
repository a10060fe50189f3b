package cache

import (
	"context"
	"encoding/json"

	"github.com/avolkovs/focuskeeper/internal/client/models"
)

// BatchItem pairs a value with the cache id it is stored under, for batched
// saves.
type BatchItem struct {
	Id    string
	Value any
}

// Store is the local entity cache. It backs best-effort offline UX, not a
// correctness-critical ledger: mutating calls persist durably or roll back
// entirely, and storage errors are swallowed after the rollback, so callers
// never observe a partial write.
type Store interface {
	// Save upserts the serialized snapshot of value, stamps the write time,
	// sets the dirty flag as requested and clears the deleted flag.
	Save(ctx context.Context, id string, typ models.EntityType, value any, markDirty bool)

	// SaveAll is the batched form of Save; the batch is all-or-nothing.
	SaveAll(ctx context.Context, typ models.EntityType, items []BatchItem, markDirty bool)

	// Fetch decodes the snapshot into out and reports whether a live record
	// was found. Records marked deleted, and records whose payload no longer
	// decodes, read as absent.
	Fetch(ctx context.Context, id string, typ models.EntityType, out any) bool

	// FetchAll returns the raw payloads of all live records of a type, in
	// unspecified order.
	FetchAll(ctx context.Context, typ models.EntityType) []json.RawMessage

	// Record returns the stored record with its bookkeeping flags, including
	// soft-deleted ones. Domain reads go through Fetch; this is the
	// inspection surface for sync state.
	Record(ctx context.Context, id string, typ models.EntityType) (*models.EntityRecord, bool)

	// MarkDeleted soft-deletes the record and flags it dirty so the delete
	// itself can sync. Idempotent.
	MarkDeleted(ctx context.Context, id string, typ models.EntityType)

	// MarkClean clears the dirty flag on an existing record. No-op when the
	// record is absent; it never creates one.
	MarkClean(ctx context.Context, id string, typ models.EntityType)
}
