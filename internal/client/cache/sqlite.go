package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/avolkovs/focuskeeper/internal/client/models"
	"github.com/avolkovs/focuskeeper/internal/dbx"
	"github.com/avolkovs/focuskeeper/internal/logging"
)

// SQLiteStore implements Store on the local SQLite database. All mutations
// pass through one mutex so concurrent callers never race on the underlying
// file; reads take a consistent snapshot per query.
type SQLiteStore struct {
	db  *sql.DB
	log logging.Logger
	now func() time.Time

	mu sync.Mutex
}

// NewSQLiteStore returns a Store bound to db.
func NewSQLiteStore(db *sql.DB, log logging.Logger) *SQLiteStore {
	if log == nil {
		log = logging.Nop()
	}
	return &SQLiteStore{db: db, log: log, now: time.Now}
}

func (s *SQLiteStore) Save(ctx context.Context, id string, typ models.EntityType, value any, markDirty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(value)
	if err != nil {
		s.log.Warn(ctx, "cache save skipped, payload not serializable", "id", id, "type", typ, "error", err)
		return
	}

	if err := s.upsert(ctx, s.db, id, typ, payload, markDirty); err != nil {
		s.log.Warn(ctx, "cache save failed", "id", id, "type", typ, "error", err)
	}
}

func (s *SQLiteStore) SaveAll(ctx context.Context, typ models.EntityType, items []BatchItem, markDirty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, item := range items {
			payload, err := json.Marshal(item.Value)
			if err != nil {
				return err
			}
			if err := s.upsert(ctx, tx, item.Id, typ, payload, markDirty); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warn(ctx, "cache batch save rolled back", "type", typ, "count", len(items), "error", err)
	}
}

func (s *SQLiteStore) upsert(ctx context.Context, db dbx.DBTX, id string, typ models.EntityType, payload []byte, markDirty bool) error {
	query := `INSERT INTO entities (id, type, payload, updated_at, dirty, deleted)
			VALUES (?, ?, ?, ?, ?, 0)
			ON CONFLICT(id, type) DO UPDATE SET payload = excluded.payload,
				updated_at = excluded.updated_at,
				dirty = excluded.dirty,
				deleted = 0
	`
	_, err := db.ExecContext(ctx, query, id, string(typ), payload, s.now().UnixNano(), boolToInt(markDirty))
	return err
}

func (s *SQLiteStore) Fetch(ctx context.Context, id string, typ models.EntityType, out any) bool {
	query := `SELECT payload FROM entities WHERE id = ? AND type = ? AND deleted = 0`
	row := s.db.QueryRowContext(ctx, query, id, string(typ))

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Warn(ctx, "cache fetch failed", "id", id, "type", typ, "error", err)
		}
		return false
	}

	// Schema drift makes old payloads undecodable; treat them as absent
	// rather than failing the read.
	if err := json.Unmarshal(payload, out); err != nil {
		s.log.Debug(ctx, "cache payload not decodable, treating as absent", "id", id, "type", typ, "error", err)
		return false
	}
	return true
}

func (s *SQLiteStore) FetchAll(ctx context.Context, typ models.EntityType) []json.RawMessage {
	query := `SELECT payload FROM entities WHERE type = ? AND deleted = 0`
	rows, err := s.db.QueryContext(ctx, query, string(typ))
	if err != nil {
		s.log.Warn(ctx, "cache fetch-all failed", "type", typ, "error", err)
		return nil
	}
	defer rows.Close()

	var result []json.RawMessage
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			s.log.Warn(ctx, "cache fetch-all scan failed", "type", typ, "error", err)
			return nil
		}
		result = append(result, json.RawMessage(payload))
	}
	if err := rows.Err(); err != nil {
		s.log.Warn(ctx, "cache fetch-all failed", "type", typ, "error", err)
		return nil
	}
	return result
}

func (s *SQLiteStore) Record(ctx context.Context, id string, typ models.EntityType) (*models.EntityRecord, bool) {
	query := `SELECT payload, updated_at, dirty, deleted FROM entities WHERE id = ? AND type = ?`
	row := s.db.QueryRowContext(ctx, query, id, string(typ))

	rec := models.EntityRecord{Id: id, Type: typ}
	var updatedAt int64
	var dirty, deleted int
	if err := row.Scan(&rec.Payload, &updatedAt, &dirty, &deleted); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Warn(ctx, "cache record read failed", "id", id, "type", typ, "error", err)
		}
		return nil, false
	}
	rec.UpdatedAt = time.Unix(0, updatedAt)
	rec.Dirty = dirty != 0
	rec.Deleted = deleted != 0
	return &rec, true
}

func (s *SQLiteStore) MarkDeleted(ctx context.Context, id string, typ models.EntityType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `UPDATE entities SET deleted = 1, dirty = 1, updated_at = ? WHERE id = ? AND type = ?`
	if _, err := s.db.ExecContext(ctx, query, s.now().UnixNano(), id, string(typ)); err != nil {
		s.log.Warn(ctx, "cache mark-deleted failed", "id", id, "type", typ, "error", err)
	}
}

func (s *SQLiteStore) MarkClean(ctx context.Context, id string, typ models.EntityType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `UPDATE entities SET dirty = 0 WHERE id = ? AND type = ?`
	if _, err := s.db.ExecContext(ctx, query, id, string(typ)); err != nil {
		s.log.Warn(ctx, "cache mark-clean failed", "id", id, "type", typ, "error", err)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
