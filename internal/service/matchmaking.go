package service

import (
	"context"
	"log/slog"

	"lobby/internal/models"
	"lobby/internal/notifications"
	"lobby/internal/observability"
	"lobby/internal/presence"
	"lobby/internal/repository"
)

// MatchmakingService allocates match rooms: first-fit joining of open rooms,
// room creation when none fit, and withdrawal.
type MatchmakingService struct {
	roomRepo repository.RoomRepository
	presence presence.Store
	notifier *notifications.Notifier
	logger   *slog.Logger
}

// NewMatchmakingService returns a new MatchmakingService.
func NewMatchmakingService(
	roomRepo repository.RoomRepository,
	store presence.Store,
	notifier *notifications.Notifier,
	logger *slog.Logger,
) *MatchmakingService {
	return &MatchmakingService{
		roomRepo: roomRepo,
		presence: store,
		notifier: notifier,
		logger:   logger,
	}
}

// Start places the user in a room: the lowest-id open room someone else owns,
// or a fresh one when every candidate is gone. A user already occupying a room
// gets that room back instead of a second seat. Requires the user to be online
// in the presence store.
func (s *MatchmakingService) Start(ctx context.Context, userID uint) (*models.MatchRoom, error) {
	span, ctx := observability.NewSpan(ctx, "matchmaking.start")
	defer span.End()

	status, err := s.presence.GetPresence(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if status != presence.Online {
		return nil, models.NewValidationError("Must be online to enter matchmaking")
	}

	if existing, err := s.roomRepo.ActiveRoomFor(ctx, userID); err != nil {
		return nil, err
	} else if existing != nil {
		observability.MatchmakingStarts.WithLabelValues("reused").Inc()
		return existing, nil
	}

	open, err := s.roomRepo.ListOpen(ctx)
	if err != nil {
		return nil, err
	}

	for i := range open {
		room := &open[i]
		if room.Player1ID == userID {
			continue
		}

		if joinErr := s.Join(ctx, room.ID, userID); joinErr != nil {
			if appErr, ok := joinErr.(*models.AppError); ok {
				switch appErr.Code {
				case "CONFLICT", "NOT_FOUND":
					// Someone beat us to the seat, or the room was withdrawn
					// after listing; try the next room.
					continue
				}
			}
			return nil, joinErr
		}

		joined, getErr := s.roomRepo.GetByID(ctx, room.ID)
		if getErr != nil {
			return nil, getErr
		}
		observability.MatchmakingStarts.WithLabelValues("joined").Inc()
		return joined, nil
	}

	room, err := s.Create(ctx, userID)
	if err != nil {
		return nil, err
	}
	observability.MatchmakingStarts.WithLabelValues("created").Inc()
	return room, nil
}

// Join fills the room's second seat with a conditional update. Conflict means
// another writer won the seat; the caller re-enters Start.
func (s *MatchmakingService) Join(ctx context.Context, roomID, userID uint) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.Player1ID == userID {
		return models.NewInvalidRequestError("Cannot join your own room")
	}

	won, err := s.roomRepo.FillSeat(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !won {
		observability.MatchmakingConflicts.Inc()
		return models.NewConflictError("Room is already full")
	}

	filled, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if pubErr := s.notifier.MatchFound(ctx, filled); pubErr != nil {
		s.logger.Warn("match event publish failed", "room_id", roomID, "error", pubErr)
	}

	return nil
}

// Create opens a fresh room owned by the user.
func (s *MatchmakingService) Create(ctx context.Context, userID uint) (*models.MatchRoom, error) {
	if existing, err := s.roomRepo.ActiveRoomFor(ctx, userID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("Already in a room")
	}

	room := &models.MatchRoom{
		Player1ID: userID,
		Status:    models.RoomOpen,
	}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// Remove withdraws a room. Only an occupant may remove it; the other occupant,
// if any, is told.
func (s *MatchmakingService) Remove(ctx context.Context, roomID, userID uint) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.Has(userID) {
		return models.NewUnauthorizedError("Only an occupant can remove a room")
	}

	if err := s.roomRepo.Delete(ctx, roomID); err != nil {
		return err
	}

	room.Status = models.RoomClosed
	if pubErr := s.notifier.RoomClosed(ctx, room, userID); pubErr != nil {
		s.logger.Warn("room closed event publish failed", "room_id", roomID, "error", pubErr)
	}

	return nil
}
