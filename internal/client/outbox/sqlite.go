package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/avolkovs/focuskeeper/internal/client/models"
	"github.com/google/uuid"
)

// SQLiteOutbox implements Outbox on the local SQLite database. Mutations are
// serialized through one mutex, same as the entity cache they share the file
// with.
type SQLiteOutbox struct {
	db  *sql.DB
	now func() time.Time

	mu sync.Mutex
}

// NewSQLiteOutbox returns an Outbox bound to db.
func NewSQLiteOutbox(db *sql.DB) *SQLiteOutbox {
	return &SQLiteOutbox{db: db, now: time.Now}
}

func (o *SQLiteOutbox) Enqueue(ctx context.Context, op models.Operation, entityType models.EntityType, entityId string, payload any) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to serialize payload: %w", err)
		}
	}

	query := `INSERT INTO operations (id, entity_type, entity_id, operation, payload, created_at, retry_count, last_error)
			VALUES (?, ?, ?, ?, ?, ?, 0, '')`
	_, err := o.db.ExecContext(ctx, query,
		uuid.NewString(), string(entityType), entityId, string(op), data, o.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to enqueue operation: %w", err)
	}
	return nil
}

func (o *SQLiteOutbox) Pending(ctx context.Context) ([]models.PendingOperation, error) {
	// rowid breaks created_at ties so same-instant enqueues keep insertion order.
	query := `SELECT id, entity_type, entity_id, operation, payload, created_at, retry_count, last_error
			FROM operations ORDER BY created_at, rowid`
	rows, err := o.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select operations: %w", err)
	}
	defer rows.Close()

	var result []models.PendingOperation
	for rows.Next() {
		var (
			item      models.PendingOperation
			payload   []byte
			createdAt int64
		)
		if err := rows.Scan(&item.Id, &item.EntityType, &item.EntityId, &item.Operation,
			&payload, &createdAt, &item.RetryCount, &item.LastError); err != nil {
			return nil, err
		}
		item.Payload = json.RawMessage(payload)
		item.CreatedAt = time.Unix(0, createdAt)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (o *SQLiteOutbox) Remove(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	_, err := o.db.ExecContext(ctx, `DELETE FROM operations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove operation: %w", err)
	}
	return nil
}

func (o *SQLiteOutbox) RecordFailure(ctx context.Context, id string, cause error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	query := `UPDATE operations SET retry_count = retry_count + 1, last_error = ? WHERE id = ?`
	_, err := o.db.ExecContext(ctx, query, cause.Error(), id)
	if err != nil {
		return fmt.Errorf("failed to record operation failure: %w", err)
	}
	return nil
}
