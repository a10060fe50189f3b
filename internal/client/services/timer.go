package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/avolkovs/focuskeeper/internal/client/cache"
	"github.com/avolkovs/focuskeeper/internal/client/models"
	"github.com/avolkovs/focuskeeper/internal/client/outbox"
	"github.com/avolkovs/focuskeeper/internal/client/remote"
	"github.com/avolkovs/focuskeeper/internal/client/stats"
	"github.com/avolkovs/focuskeeper/internal/common"
	"github.com/avolkovs/focuskeeper/internal/logging"
	"github.com/avolkovs/focuskeeper/internal/metrics"
)

type TimerService interface {
	// SaveSession persists a finished work session and folds its duration
	// into the rolling statistics, locally first and then remotely.
	SaveSession(ctx context.Context, userId string, durationSeconds int64, startedAt time.Time) (*models.Session, error)
	Bucket(ctx context.Context, userId, bucketId string) (*models.StatisticBucket, error)
}

type timerService struct {
	store     cache.Store
	outbox    outbox.Outbox
	backend   remote.Backend
	log       logging.Logger
	collector *metrics.Collector
	now       func() time.Time
}

func NewTimerService(store cache.Store, ob outbox.Outbox, backend remote.Backend, log logging.Logger, collector *metrics.Collector) TimerService {
	if log == nil {
		log = logging.Nop()
	}
	return &timerService{store: store, outbox: ob, backend: backend, log: log, collector: collector, now: time.Now}
}

func (s *timerService) SaveSession(ctx context.Context, userId string, durationSeconds int64, startedAt time.Time) (*models.Session, error) {
	sess := models.Session{
		Id:              uuid.NewString(),
		UserId:          userId,
		DurationSeconds: durationSeconds,
		StartedAt:       startedAt,
	}
	s.store.Save(ctx, sess.Id, models.TypeSession, sess, true)

	updates := stats.AffectedBuckets(startedAt, s.now())
	bucketIds := s.applyToBuckets(ctx, userId, durationSeconds, updates)

	err := s.backend.SaveSessionAndUpdateAggregates(ctx, sess)
	if err == nil {
		s.store.MarkClean(ctx, sess.Id, models.TypeSession)
		for _, id := range bucketIds {
			s.store.MarkClean(ctx, id, models.TypeStatistic)
		}
		return &sess, nil
	}

	if !remote.IsTransient(err) {
		return nil, err
	}

	if eerr := s.outbox.Enqueue(ctx, models.OpTimerSaveSession, models.TypeSession, sess.Id,
		models.SaveSessionPayload{Session: sess}); eerr != nil {
		s.log.Error(ctx, "failed to enqueue session save", "session", sess.Id, "error", eerr)
		return &sess, nil
	}
	if s.collector != nil {
		s.collector.RecordEnqueue()
	}
	s.log.Info(ctx, "backend unavailable, session save queued for sync", "session", sess.Id)
	return &sess, nil
}

// applyToBuckets folds the duration into every affected statistic bucket in
// the cache and returns the cache ids it touched. Absent buckets start from
// zero.
func (s *timerService) applyToBuckets(ctx context.Context, userId string, durationSeconds int64, updates []stats.BucketUpdate) []string {
	ids := make([]string, 0, len(updates))
	for _, u := range updates {
		b := models.StatisticBucket{UserId: userId, BucketId: u.BucketId}
		id := b.CacheId()
		s.store.Fetch(ctx, id, models.TypeStatistic, &b)
		b.UserId = userId
		b.BucketId = u.BucketId

		b = stats.Apply(b, durationSeconds, u)
		s.store.Save(ctx, id, models.TypeStatistic, b, true)
		ids = append(ids, id)
	}
	return ids
}

func (s *timerService) Bucket(ctx context.Context, userId, bucketId string) (*models.StatisticBucket, error) {
	b := models.StatisticBucket{UserId: userId, BucketId: bucketId}
	if !s.store.Fetch(ctx, b.CacheId(), models.TypeStatistic, &b) {
		return nil, common.ErrorNotFound
	}
	return &b, nil
}
