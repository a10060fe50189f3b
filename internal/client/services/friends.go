package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avolkovs/focuskeeper/internal/client/cache"
	"github.com/avolkovs/focuskeeper/internal/client/models"
	"github.com/avolkovs/focuskeeper/internal/client/outbox"
	"github.com/avolkovs/focuskeeper/internal/client/remote"
	"github.com/avolkovs/focuskeeper/internal/logging"
	"github.com/avolkovs/focuskeeper/internal/metrics"
)

type FriendService interface {
	List(ctx context.Context, userId string) ([]models.Friendship, error)
	Send(ctx context.Context, senderId, receiverId string) error
	Cancel(ctx context.Context, senderId, receiverId string) error
	Accept(ctx context.Context, senderId, receiverId string) error
	Reject(ctx context.Context, senderId, receiverId string) error
}

type friendService struct {
	store     cache.Store
	outbox    outbox.Outbox
	backend   remote.Backend
	log       logging.Logger
	collector *metrics.Collector
	now       func() time.Time
}

func NewFriendService(store cache.Store, ob outbox.Outbox, backend remote.Backend, log logging.Logger, collector *metrics.Collector) FriendService {
	if log == nil {
		log = logging.Nop()
	}
	return &friendService{store: store, outbox: ob, backend: backend, log: log, collector: collector, now: time.Now}
}

// friendshipId derives the deterministic edge id for a sender/receiver pair,
// so a request and its later transitions land on the same cache entry.
func friendshipId(senderId, receiverId string) string {
	return senderId + "_" + receiverId
}

func (s *friendService) List(ctx context.Context, userId string) ([]models.Friendship, error) {
	var out []models.Friendship
	for _, raw := range s.store.FetchAll(ctx, models.TypeFriendship) {
		var f models.Friendship
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}
		if f.SenderId == userId || f.ReceiverId == userId {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *friendService) Send(ctx context.Context, senderId, receiverId string) error {
	f := models.Friendship{
		Id:         friendshipId(senderId, receiverId),
		SenderId:   senderId,
		ReceiverId: receiverId,
		Status:     models.FriendshipPending,
		CreatedAt:  s.now(),
	}
	s.store.Save(ctx, f.Id, models.TypeFriendship, f, true)

	err := s.backend.SendFriendRequest(ctx, models.FriendRequestPayload{SenderId: senderId, ReceiverId: receiverId})
	return s.settle(ctx, err, f.Id, models.OpFriendRequestSend, senderId, receiverId)
}

func (s *friendService) Cancel(ctx context.Context, senderId, receiverId string) error {
	id := friendshipId(senderId, receiverId)
	s.store.MarkDeleted(ctx, id, models.TypeFriendship)

	err := s.backend.CancelFriendRequest(ctx, models.FriendRequestPayload{SenderId: senderId, ReceiverId: receiverId})
	return s.settle(ctx, err, id, models.OpFriendRequestCancel, senderId, receiverId)
}

func (s *friendService) Accept(ctx context.Context, senderId, receiverId string) error {
	id := friendshipId(senderId, receiverId)
	var f models.Friendship
	if s.store.Fetch(ctx, id, models.TypeFriendship, &f) {
		f.Status = models.FriendshipAccepted
	} else {
		// Accepting a request we never saw locally still has to work; the
		// sender's copy lives on their device.
		f = models.Friendship{
			Id: id, SenderId: senderId, ReceiverId: receiverId,
			Status: models.FriendshipAccepted, CreatedAt: s.now(),
		}
	}
	s.store.Save(ctx, id, models.TypeFriendship, f, true)

	err := s.backend.AcceptFriendRequest(ctx, models.FriendRequestPayload{SenderId: senderId, ReceiverId: receiverId})
	return s.settle(ctx, err, id, models.OpFriendRequestAccept, senderId, receiverId)
}

func (s *friendService) Reject(ctx context.Context, senderId, receiverId string) error {
	id := friendshipId(senderId, receiverId)
	s.store.MarkDeleted(ctx, id, models.TypeFriendship)

	err := s.backend.RejectFriendRequest(ctx, models.FriendRequestPayload{SenderId: senderId, ReceiverId: receiverId})
	return s.settle(ctx, err, id, models.OpFriendRequestReject, senderId, receiverId)
}

func (s *friendService) settle(ctx context.Context, err error, entityId string, op models.Operation, senderId, receiverId string) error {
	return settle(ctx, s.store, s.outbox, s.log, s.collector, err, entityId, models.TypeFriendship,
		op, models.FriendRequestPayload{SenderId: senderId, ReceiverId: receiverId})
}
