// Package syncer drains the outbox against the remote backend: one pass at a
// time, oldest operation first, stopping at the first failure.
//
// Operations may depend on earlier ones having been applied (a streak update
// assumes its profile upsert went through), so a failed operation halts the
// pass rather than being skipped. The cost is head-of-line blocking, which is
// accepted: the stalled operation keeps its retry bookkeeping and the next
// trigger tries again.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/avolkovs/focuskeeper/internal/client/cache"
	"github.com/avolkovs/focuskeeper/internal/client/models"
	"github.com/avolkovs/focuskeeper/internal/client/outbox"
	"github.com/avolkovs/focuskeeper/internal/client/remote"
	"github.com/avolkovs/focuskeeper/internal/client/stats"
	"github.com/avolkovs/focuskeeper/internal/logging"
	"github.com/avolkovs/focuskeeper/internal/metrics"
)

// Engine replays pending operations. Drain triggers are process start and
// every offline-to-online transition; overlapping triggers collapse into a
// single pass.
type Engine struct {
	outbox    outbox.Outbox
	backend   remote.Backend
	store     cache.Store
	log       logging.Logger
	collector *metrics.Collector

	draining atomic.Bool
	now      func() time.Time
}

// NewEngine builds an Engine. collector may be nil.
func NewEngine(ob outbox.Outbox, backend remote.Backend, store cache.Store, log logging.Logger, collector *metrics.Collector) *Engine {
	if log == nil {
		log = logging.Nop()
	}
	return &Engine{outbox: ob, backend: backend, store: store, log: log, collector: collector, now: time.Now}
}

// Drain runs one pass over the outbox. A pass already in flight makes this a
// no-op: the in-flight pass will pick up anything enqueued meanwhile on its
// own read, and the next trigger covers the rest. Failures never propagate;
// they live on the stalled operation's retry bookkeeping.
func (e *Engine) Drain(ctx context.Context) {
	if !e.draining.CompareAndSwap(false, true) {
		e.log.Debug(ctx, "drain already in flight, skipping trigger")
		return
	}
	defer e.draining.Store(false)

	if e.collector != nil {
		e.collector.RecordDrain()
	}

	ops, err := e.outbox.Pending(ctx)
	if err != nil {
		e.log.Error(ctx, "drain aborted, cannot read outbox", "error", err)
		return
	}
	e.setPending(len(ops))
	if len(ops) == 0 {
		return
	}

	e.log.Info(ctx, "draining outbox", "pending", len(ops))

	for i, op := range ops {
		if err := e.replay(ctx, op); err != nil {
			if rerr := e.outbox.RecordFailure(ctx, op.Id, err); rerr != nil {
				e.log.Error(ctx, "failed to record replay failure", "id", op.Id, "error", rerr)
			}
			if e.collector != nil {
				e.collector.RecordFailed()
			}
			e.setPending(len(ops) - i)
			e.log.Warn(ctx, "drain halted",
				"operation", op.Operation, "id", op.Id, "retries", op.RetryCount+1, "error", err)
			return
		}

		if err := e.outbox.Remove(ctx, op.Id); err != nil {
			e.log.Error(ctx, "failed to remove replayed operation", "id", op.Id, "error", err)
		}
		e.markReplayedClean(ctx, op)
		if e.collector != nil {
			e.collector.RecordReplayed()
		}
	}

	e.setPending(0)
	e.log.Info(ctx, "drain finished", "replayed", len(ops))
}

// replay decodes the operation's payload by its kind and issues the matching
// backend call. The backend is invoked directly, never through the services
// layer, so a failed replay cannot re-enqueue itself.
func (e *Engine) replay(ctx context.Context, op models.PendingOperation) error {
	switch op.Operation {
	case models.OpProfileUpsert:
		var p models.ProfileUpsertPayload
		if err := decode(op, &p); err != nil {
			return err
		}
		return e.backend.UpsertProfile(ctx, p)

	case models.OpProfileUpdateImage:
		var p models.ProfileUpdateImagePayload
		if err := decode(op, &p); err != nil {
			return err
		}
		return e.backend.UpdateProfileImage(ctx, p)

	case models.OpProfileUpdateStreak:
		var p models.ProfileUpdateStreakPayload
		if err := decode(op, &p); err != nil {
			return err
		}
		return e.backend.UpdateStreak(ctx, p)

	case models.OpProfileDelete:
		var p models.ProfileDeletePayload
		if err := decode(op, &p); err != nil {
			return err
		}
		return e.backend.DeleteProfile(ctx, p.UserId)

	case models.OpProfileDeleteStatisticsAndFriendships:
		var p models.ProfileDeletePayload
		if err := decode(op, &p); err != nil {
			return err
		}
		return e.backend.DeleteStatisticsAndFriendships(ctx, p.UserId)

	case models.OpFriendRequestSend:
		var p models.FriendRequestPayload
		if err := decode(op, &p); err != nil {
			return err
		}
		return e.backend.SendFriendRequest(ctx, p)

	case models.OpFriendRequestCancel:
		var p models.FriendRequestPayload
		if err := decode(op, &p); err != nil {
			return err
		}
		return e.backend.CancelFriendRequest(ctx, p)

	case models.OpFriendRequestAccept:
		var p models.FriendRequestPayload
		if err := decode(op, &p); err != nil {
			return err
		}
		return e.backend.AcceptFriendRequest(ctx, p)

	case models.OpFriendRequestReject:
		var p models.FriendRequestPayload
		if err := decode(op, &p); err != nil {
			return err
		}
		return e.backend.RejectFriendRequest(ctx, p)

	case models.OpTimerSaveSession:
		var p models.SaveSessionPayload
		if err := decode(op, &p); err != nil {
			return err
		}
		// The combined, existence-checked call is the only session-save form
		// that is idempotent under at-least-once replay.
		return e.backend.SaveSessionAndUpdateAggregates(ctx, p.Session)

	default:
		return fmt.Errorf("unknown operation %q", op.Operation)
	}
}

// markReplayedClean clears the dirty flag on whatever the replayed operation
// confirmed. Session saves also cover the statistic buckets the session
// contributed to; the bucket keys are recomputed from the session timestamp,
// the same derivation the write used.
func (e *Engine) markReplayedClean(ctx context.Context, op models.PendingOperation) {
	e.store.MarkClean(ctx, op.EntityId, op.EntityType)

	if op.Operation != models.OpTimerSaveSession {
		return
	}
	var p models.SaveSessionPayload
	if err := json.Unmarshal(op.Payload, &p); err != nil {
		return
	}
	for _, u := range stats.AffectedBuckets(p.Session.StartedAt, e.now()) {
		b := models.StatisticBucket{UserId: p.Session.UserId, BucketId: u.BucketId}
		e.store.MarkClean(ctx, b.CacheId(), models.TypeStatistic)
	}
}

func (e *Engine) setPending(n int) {
	if e.collector != nil {
		e.collector.SetPending(n)
	}
}

func decode(op models.PendingOperation, out any) error {
	if err := json.Unmarshal(op.Payload, out); err != nil {
		return fmt.Errorf("undecodable payload for %s: %w", op.Operation, err)
	}
	return nil
}
