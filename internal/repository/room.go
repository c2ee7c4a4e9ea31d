package repository

import (
	"context"
	"errors"

	"lobby/internal/models"
	"lobby/internal/observability"

	"gorm.io/gorm"
)

// RoomRepository defines the interface for matchmaking room data operations
type RoomRepository interface {
	Create(ctx context.Context, room *models.MatchRoom) error
	GetByID(ctx context.Context, id uint) (*models.MatchRoom, error)
	ListOpen(ctx context.Context) ([]models.MatchRoom, error)
	ActiveRoomFor(ctx context.Context, userID uint) (*models.MatchRoom, error)
	FillSeat(ctx context.Context, roomID, userID uint) (bool, error)
	Delete(ctx context.Context, id uint) error
}

// roomRepository implements RoomRepository
type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a new matchmaking room repository
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(ctx context.Context, room *models.MatchRoom) error {
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, id uint) (*models.MatchRoom, error) {
	var room models.MatchRoom
	if err := r.db.WithContext(ctx).Preload("Player1").Preload("Player2").First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("MatchRoom", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &room, nil
}

func (r *roomRepository) ListOpen(ctx context.Context) ([]models.MatchRoom, error) {
	defer observability.TrackQuery("list_open", "match_rooms")()
	var rooms []models.MatchRoom

	// Ascending id is the pool's enumeration order: oldest room first.
	if err := r.db.WithContext(ctx).
		Where("status = ? AND player2_id IS NULL", models.RoomOpen).
		Order("id ASC").
		Find(&rooms).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return rooms, nil
}

func (r *roomRepository) ActiveRoomFor(ctx context.Context, userID uint) (*models.MatchRoom, error) {
	var room models.MatchRoom
	if err := r.db.WithContext(ctx).
		Where("(player1_id = ? OR player2_id = ?) AND status IN ?", userID, userID,
			[]models.RoomStatus{models.RoomOpen, models.RoomFull}).
		First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // User occupies no room
		}
		return nil, models.NewInternalError(err)
	}
	return &room, nil
}

// FillSeat assigns player2 with a conditional update: the write succeeds only
// while the seat is still empty, so exactly one of any set of concurrent
// joiners wins. Returns false when another writer got there first.
func (r *roomRepository) FillSeat(ctx context.Context, roomID, userID uint) (bool, error) {
	defer observability.TrackQuery("fill_seat", "match_rooms")()
	res := r.db.WithContext(ctx).
		Model(&models.MatchRoom{}).
		Where("id = ? AND status = ? AND player2_id IS NULL", roomID, models.RoomOpen).
		Updates(map[string]interface{}{
			"player2_id": userID,
			"status":     models.RoomFull,
		})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *roomRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.MatchRoom{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
