package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/avolkovs/focuskeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE operations (
  id TEXT PRIMARY KEY,
  entity_type TEXT NOT NULL,
  entity_id TEXT NOT NULL,
  operation TEXT NOT NULL,
  payload BLOB,
  created_at INTEGER NOT NULL,
  retry_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT NOT NULL DEFAULT ''
);
`)
	require.NoError(t, err)

	return db
}

func TestEnqueue_Pending_KeepsEnqueueOrder(t *testing.T) {
	db := setupDB(t)
	o := NewSQLiteOutbox(db)
	ctx := context.Background()

	// A fixed clock forces created_at ties; rowid must still keep order.
	fixed := time.Unix(1700000000, 0)
	o.now = func() time.Time { return fixed }

	ops := []models.Operation{
		models.OpProfileUpsert,
		models.OpProfileUpdateStreak,
		models.OpTimerSaveSession,
		models.OpFriendRequestSend,
	}
	for _, op := range ops {
		require.NoError(t, o.Enqueue(ctx, op, models.TypeProfile, "u1", models.ProfileUpsertPayload{UserId: "u1"}))
	}

	pending, err := o.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, len(ops))
	for i, op := range ops {
		assert.Equal(t, op, pending[i].Operation)
		assert.Equal(t, 0, pending[i].RetryCount)
	}
}

func TestRemove_UnrelatedIdsKeepOrder(t *testing.T) {
	db := setupDB(t)
	o := NewSQLiteOutbox(db)
	ctx := context.Background()

	require.NoError(t, o.Enqueue(ctx, models.OpProfileUpsert, models.TypeProfile, "a", nil))
	require.NoError(t, o.Enqueue(ctx, models.OpProfileUpdateImage, models.TypeProfile, "b", nil))
	require.NoError(t, o.Enqueue(ctx, models.OpProfileUpdateStreak, models.TypeProfile, "c", nil))

	pending, err := o.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	require.NoError(t, o.Remove(ctx, pending[1].Id))

	pending, err = o.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].EntityId)
	assert.Equal(t, "c", pending[1].EntityId)
}

func TestRecordFailure_IncrementsAndKeeps(t *testing.T) {
	db := setupDB(t)
	o := NewSQLiteOutbox(db)
	ctx := context.Background()

	require.NoError(t, o.Enqueue(ctx, models.OpTimerSaveSession, models.TypeSession, "s1", nil))
	pending, err := o.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, o.RecordFailure(ctx, pending[0].Id, errors.New("backend unavailable")))
	require.NoError(t, o.RecordFailure(ctx, pending[0].Id, errors.New("still down")))

	pending, err = o.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1, "failures must never evict an operation")
	assert.Equal(t, 2, pending[0].RetryCount)
	assert.Equal(t, "still down", pending[0].LastError)
}

func TestEnqueue_PayloadRoundTrip(t *testing.T) {
	db := setupDB(t)
	o := NewSQLiteOutbox(db)
	ctx := context.Background()

	in := models.FriendRequestPayload{SenderId: "u1", ReceiverId: "u2"}
	require.NoError(t, o.Enqueue(ctx, models.OpFriendRequestSend, models.TypeFriendship, "u1_u2", in))

	pending, err := o.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	var out models.FriendRequestPayload
	require.NoError(t, json.Unmarshal(pending[0].Payload, &out))
	assert.Equal(t, in, out)
}
