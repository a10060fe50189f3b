// Package services is the business layer over the sync core. Every mutating
// call lands in the entity cache first, so the UI sees a consistent offline
// view, and then tries the backend: success marks the cache entry clean, a
// transient failure enqueues the operation for replay and still reports
// local success, and a permanent domain failure surfaces to the caller and
// is never enqueued.
package services

import (
	"context"
	"encoding/json"

	"github.com/avolkovs/focuskeeper/internal/client/cache"
	"github.com/avolkovs/focuskeeper/internal/client/models"
	"github.com/avolkovs/focuskeeper/internal/client/outbox"
	"github.com/avolkovs/focuskeeper/internal/client/remote"
	"github.com/avolkovs/focuskeeper/internal/common"
	"github.com/avolkovs/focuskeeper/internal/logging"
	"github.com/avolkovs/focuskeeper/internal/metrics"
)

type ProfileService interface {
	Get(ctx context.Context, userId string) (*models.Profile, error)
	Upsert(ctx context.Context, p models.Profile) error
	UpdateImage(ctx context.Context, userId, imageBase64 string) error
	UpdateStreak(ctx context.Context, userId, day string) error
	Delete(ctx context.Context, userId string) error
}

type profileService struct {
	store     cache.Store
	outbox    outbox.Outbox
	backend   remote.Backend
	log       logging.Logger
	collector *metrics.Collector
}

func NewProfileService(store cache.Store, ob outbox.Outbox, backend remote.Backend, log logging.Logger, collector *metrics.Collector) ProfileService {
	if log == nil {
		log = logging.Nop()
	}
	return &profileService{store: store, outbox: ob, backend: backend, log: log, collector: collector}
}

func (s *profileService) Get(ctx context.Context, userId string) (*models.Profile, error) {
	var p models.Profile
	if !s.store.Fetch(ctx, userId, models.TypeProfile, &p) {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (s *profileService) Upsert(ctx context.Context, p models.Profile) error {
	s.store.Save(ctx, p.UserId, models.TypeProfile, p, true)

	err := s.backend.UpsertProfile(ctx, models.ProfileUpsertPayload{
		UserId: p.UserId, Name: p.Name, Nickname: p.Nickname,
	})
	return s.settle(ctx, err, p.UserId, models.TypeProfile,
		models.OpProfileUpsert, models.ProfileUpsertPayload{UserId: p.UserId, Name: p.Name, Nickname: p.Nickname})
}

func (s *profileService) UpdateImage(ctx context.Context, userId, imageBase64 string) error {
	var p models.Profile
	if s.store.Fetch(ctx, userId, models.TypeProfile, &p) {
		p.ImageBase64 = imageBase64
		s.store.Save(ctx, userId, models.TypeProfile, p, true)
	}

	err := s.backend.UpdateProfileImage(ctx, models.ProfileUpdateImagePayload{UserId: userId, ImageBase64: imageBase64})
	return s.settle(ctx, err, userId, models.TypeProfile,
		models.OpProfileUpdateImage, models.ProfileUpdateImagePayload{UserId: userId, ImageBase64: imageBase64})
}

func (s *profileService) UpdateStreak(ctx context.Context, userId, day string) error {
	var p models.Profile
	if s.store.Fetch(ctx, userId, models.TypeProfile, &p) && p.LastStreakDay != day {
		p.Streak++
		p.LastStreakDay = day
		s.store.Save(ctx, userId, models.TypeProfile, p, true)
	}

	err := s.backend.UpdateStreak(ctx, models.ProfileUpdateStreakPayload{UserId: userId, Day: day})
	return s.settle(ctx, err, userId, models.TypeProfile,
		models.OpProfileUpdateStreak, models.ProfileUpdateStreakPayload{UserId: userId, Day: day})
}

// Delete wipes the account's local data (profile, friendships, statistics;
// all soft-deleted so the wipe itself can sync) and issues the two remote
// deletions, related data first.
func (s *profileService) Delete(ctx context.Context, userId string) error {
	s.store.MarkDeleted(ctx, userId, models.TypeProfile)
	s.deleteRelatedLocally(ctx, userId)

	err := s.backend.DeleteStatisticsAndFriendships(ctx, userId)
	if serr := s.settle(ctx, err, userId, models.TypeProfile,
		models.OpProfileDeleteStatisticsAndFriendships, models.ProfileDeletePayload{UserId: userId}); serr != nil {
		return serr
	}

	err = s.backend.DeleteProfile(ctx, userId)
	return s.settle(ctx, err, userId, models.TypeProfile,
		models.OpProfileDelete, models.ProfileDeletePayload{UserId: userId})
}

func (s *profileService) deleteRelatedLocally(ctx context.Context, userId string) {
	for _, raw := range s.store.FetchAll(ctx, models.TypeFriendship) {
		var f models.Friendship
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}
		if f.SenderId == userId || f.ReceiverId == userId {
			s.store.MarkDeleted(ctx, f.Id, models.TypeFriendship)
		}
	}
	for _, raw := range s.store.FetchAll(ctx, models.TypeStatistic) {
		var b models.StatisticBucket
		if err := json.Unmarshal(raw, &b); err != nil {
			continue
		}
		if b.UserId == userId {
			s.store.MarkDeleted(ctx, b.CacheId(), models.TypeStatistic)
		}
	}
}

// settle is the enqueue-on-failure tail shared by every mutating call: clean
// on success, enqueue-and-report-success on transient failure, surface
// permanent failures untouched.
func (s *profileService) settle(ctx context.Context, err error, entityId string, typ models.EntityType, op models.Operation, payload any) error {
	return settle(ctx, s.store, s.outbox, s.log, s.collector, err, entityId, typ, op, payload)
}

func settle(ctx context.Context, store cache.Store, ob outbox.Outbox, log logging.Logger, collector *metrics.Collector,
	err error, entityId string, typ models.EntityType, op models.Operation, payload any) error {

	if err == nil {
		store.MarkClean(ctx, entityId, typ)
		return nil
	}

	if !remote.IsTransient(err) {
		return err
	}

	if eerr := ob.Enqueue(ctx, op, typ, entityId, payload); eerr != nil {
		log.Error(ctx, "failed to enqueue operation", "operation", op, "entity", entityId, "error", eerr)
		return nil
	}
	if collector != nil {
		collector.RecordEnqueue()
	}
	log.Info(ctx, "backend unavailable, operation queued for sync", "operation", op, "entity", entityId)
	return nil
}
