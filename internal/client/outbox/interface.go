package outbox

import (
	"context"

	"github.com/avolkovs/focuskeeper/internal/client/models"
)

// Outbox is the durable, creation-ordered queue of mutating operations not
// yet confirmed by the remote backend. Only the sync engine reads Pending for
// replay; everyone else just enqueues.
type Outbox interface {
	// Enqueue appends a new pending operation. payload may be nil for
	// operations that need no arguments beyond the entity id.
	Enqueue(ctx context.Context, op models.Operation, entityType models.EntityType, entityId string, payload any) error

	// Pending returns all operations, oldest first. Replay order equals
	// enqueue order.
	Pending(ctx context.Context) ([]models.PendingOperation, error)

	// Remove deletes one operation after a confirmed successful replay.
	Remove(ctx context.Context, id string) error

	// RecordFailure increments the retry counter and stores the error text,
	// leaving the operation in place for a later drain.
	RecordFailure(ctx context.Context, id string, cause error) error
}
