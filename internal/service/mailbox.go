package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"lobby/internal/models"
	"lobby/internal/notifications"
	"lobby/internal/observability"
	"lobby/internal/repository"
)

// MailboxService owns the friend-request mailbox: sending, listing, and
// resolving requests. Accepting a request creates the pair's match room.
type MailboxService struct {
	requestRepo repository.RequestRepository
	userRepo    repository.UserRepository
	roomRepo    repository.RoomRepository
	notifier    *notifications.Notifier
	logger      *slog.Logger

	mu        sync.Mutex
	listeners map[uint]map[*Subscription]struct{}
}

// NewMailboxService returns a new MailboxService.
func NewMailboxService(
	requestRepo repository.RequestRepository,
	userRepo repository.UserRepository,
	roomRepo repository.RoomRepository,
	notifier *notifications.Notifier,
	logger *slog.Logger,
) *MailboxService {
	return &MailboxService{
		requestRepo: requestRepo,
		userRepo:    userRepo,
		roomRepo:    roomRepo,
		notifier:    notifier,
		logger:      logger,
		listeners:   make(map[uint]map[*Subscription]struct{}),
	}
}

// Subscription is a cancellable stream of new requests for one recipient.
// Requests arrive at most once each, in creation order. A consumer that falls
// behind the buffer loses events; Dropped reports how many, and a nonzero
// count means the consumer must re-list the mailbox to recover them.
type Subscription struct {
	ch      chan *models.FriendRequest
	cancel  func()
	once    sync.Once
	dropped atomic.Uint64
}

// C returns the delivery channel.
func (s *Subscription) C() <-chan *models.FriendRequest {
	return s.ch
}

// Dropped returns the number of requests the stream could not buffer.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Cancel detaches the subscription and closes the channel. Safe to call more
// than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Send appends a request to the recipient's mailbox. A self-addressed request
// is rejected before any store write.
func (s *MailboxService) Send(ctx context.Context, from, to uint) (*models.FriendRequest, error) {
	span, ctx := observability.NewSpan(ctx, "mailbox.send")
	defer span.End()

	if from == to {
		return nil, models.NewInvalidRequestError("Cannot send a friend request to yourself")
	}

	if _, err := s.userRepo.GetByID(ctx, to); err != nil {
		return nil, err
	}

	existing, err := s.requestRepo.GetPendingBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewInvalidRequestError("Friend request already pending")
	}

	req := &models.FriendRequest{
		FromUserID: from,
		ToUserID:   to,
		Status:     models.RequestPending,
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}
	observability.FriendRequestsSent.Inc()

	full, err := s.requestRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	s.deliver(full)
	if err := s.notifier.FriendRequestReceived(ctx, full); err != nil {
		s.logger.Warn("friend request event publish failed", "request_id", full.ID, "error", err)
	}

	return full, nil
}

// Pending lists the recipient's mailbox in creation order.
func (s *MailboxService) Pending(ctx context.Context, to uint) ([]models.FriendRequest, error) {
	return s.requestRepo.ListPending(ctx, to)
}

// Listen returns a stream of requests arriving for the recipient.
func (s *MailboxService) Listen(to uint) *Subscription {
	sub := &Subscription{ch: make(chan *models.FriendRequest, 32)}
	sub.cancel = func() {
		s.mu.Lock()
		if m, ok := s.listeners[to]; ok {
			delete(m, sub)
			if len(m) == 0 {
				delete(s.listeners, to)
			}
		}
		s.mu.Unlock()
		close(sub.ch)
	}

	s.mu.Lock()
	m, ok := s.listeners[to]
	if !ok {
		m = make(map[*Subscription]struct{})
		s.listeners[to] = m
	}
	m[sub] = struct{}{}
	s.mu.Unlock()

	return sub
}

func (s *MailboxService) deliver(req *models.FriendRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sub := range s.listeners[req.ToUserID] {
		select {
		case sub.ch <- req:
		default:
			// Slow listener; count the gap so the consumer knows to re-list.
			sub.dropped.Add(1)
			s.logger.Warn("mailbox stream overflow", "to_user_id", req.ToUserID, "request_id", req.ID)
		}
	}
}

// resolve loads the request, checks the caller is the addressee, and flips the
// status with a conditional write. A request already archived with the same
// status, or lost to a concurrent writer of the same status, is a no-op
// (already true), so a repeated resolution stays idempotent. Any other
// terminal state is NotFound: from the caller's view that pending request no
// longer exists.
func (s *MailboxService) resolve(
	ctx context.Context, userID, requestID uint, status models.RequestStatus,
) (req *models.FriendRequest, already bool, err error) {
	req, err = s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, false, err
	}

	if req.ToUserID != userID {
		return nil, false, models.NewUnauthorizedError("Only the addressee can resolve a friend request")
	}

	if req.Resolved() {
		if req.Status == status {
			return req, true, nil
		}
		return nil, false, models.NewNotFoundError("FriendRequest", requestID)
	}

	won, err := s.requestRepo.Resolve(ctx, requestID, status)
	if err != nil {
		return nil, false, err
	}
	if !won {
		// Another resolution archived the row first; re-read for the outcome.
		current, err := s.requestRepo.GetByID(ctx, requestID)
		if err != nil {
			return nil, false, err
		}
		if current.Status == status {
			return current, true, nil
		}
		return nil, false, models.NewNotFoundError("FriendRequest", requestID)
	}
	req.Status = status
	observability.FriendRequestsResolved.WithLabelValues(string(status)).Inc()

	return req, false, nil
}

// Accept archives the request and creates one full room holding the pair.
// Neither party may end up in two rooms: a party still waiting in a solo open
// room is withdrawn from it, a party seated in a full room blocks the accept.
// Accepting the same request twice returns the already-created state without a
// second room.
func (s *MailboxService) Accept(ctx context.Context, userID, requestID uint) (*models.MatchRoom, error) {
	pending, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if pending.ToUserID != userID {
		return nil, models.NewUnauthorizedError("Only the addressee can resolve a friend request")
	}

	if !pending.Resolved() {
		pairRoom, err := s.clearSeats(ctx, pending)
		if err != nil {
			return nil, err
		}
		if pairRoom != nil {
			// A concurrent accept already seated the pair.
			return pairRoom, nil
		}
	}

	req, already, err := s.resolve(ctx, userID, requestID, models.RequestAccepted)
	if err != nil {
		return nil, err
	}

	if already {
		room, roomErr := s.roomRepo.ActiveRoomFor(ctx, req.FromUserID)
		if roomErr != nil {
			return nil, roomErr
		}
		if room != nil && room.Has(req.ToUserID) {
			return room, nil
		}
		return nil, models.NewNotFoundError("MatchRoom", requestID)
	}

	to := req.ToUserID
	room := &models.MatchRoom{
		Player1ID: req.FromUserID,
		Player2ID: &to,
		Status:    models.RoomFull,
	}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, err
	}

	if err := s.notifier.FriendRequestAccepted(ctx, req); err != nil {
		s.logger.Warn("accept event publish failed", "request_id", req.ID, "error", err)
	}
	if err := s.notifier.MatchFound(ctx, room); err != nil {
		s.logger.Warn("match event publish failed", "room_id", room.ID, "error", err)
	}

	return room, nil
}

// clearSeats frees both parties of a pending request for the pair room. A solo
// open room is withdrawn, the accept supersedes waiting. A full room holding
// both parties is the pair room itself and is returned as-is; any other full
// room is a conflict.
func (s *MailboxService) clearSeats(ctx context.Context, req *models.FriendRequest) (*models.MatchRoom, error) {
	for _, occupant := range []uint{req.FromUserID, req.ToUserID} {
		room, err := s.roomRepo.ActiveRoomFor(ctx, occupant)
		if err != nil {
			return nil, err
		}
		if room == nil {
			continue
		}
		if room.Has(req.FromUserID) && room.Has(req.ToUserID) {
			return room, nil
		}
		if !room.Open() {
			return nil, models.NewConflictError("A player is already in a room")
		}
		if err := s.roomRepo.Delete(ctx, room.ID); err != nil {
			return nil, err
		}
		s.logger.Info("open room withdrawn by accepted friend request",
			"room_id", room.ID, "user_id", occupant, "request_id", req.ID)
	}
	return nil, nil
}

// Decline archives the request. The sender is told; declining twice is a
// no-op.
func (s *MailboxService) Decline(ctx context.Context, userID, requestID uint) error {
	req, already, err := s.resolve(ctx, userID, requestID, models.RequestDeclined)
	if err != nil {
		return err
	}

	if !already {
		if err := s.notifier.FriendRequestDeclined(ctx, req); err != nil {
			s.logger.Warn("decline event publish failed", "request_id", req.ID, "error", err)
		}
	}

	return nil
}
