package repository

import (
	"context"
	"errors"

	"lobby/internal/models"

	"gorm.io/gorm"
)

// RequestRepository defines the interface for friend-request mailbox records
type RequestRepository interface {
	Create(ctx context.Context, req *models.FriendRequest) error
	GetByID(ctx context.Context, id uint) (*models.FriendRequest, error)
	ListPending(ctx context.Context, toUserID uint) ([]models.FriendRequest, error)
	GetPendingBetween(ctx context.Context, fromUserID, toUserID uint) (*models.FriendRequest, error)
	Resolve(ctx context.Context, id uint, status models.RequestStatus) (bool, error)
}

// requestRepository implements RequestRepository
type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a new friend-request repository
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *models.FriendRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := r.db.WithContext(ctx).Preload("From").Preload("To").First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("FriendRequest", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *requestRepository) ListPending(ctx context.Context, toUserID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest

	// Creation order; the auto-increment id is the delivery order of the mailbox.
	if err := r.db.WithContext(ctx).
		Where("to_user_id = ? AND status = ?", toUserID, models.RequestPending).
		Order("id ASC").
		Preload("From").
		Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return requests, nil
}

func (r *requestRepository) GetPendingBetween(ctx context.Context, fromUserID, toUserID uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ? AND status = ?", fromUserID, toUserID, models.RequestPending).
		First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // No pending request between the pair
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

// Resolve archives a pending request with a conditional update. The returned
// bool reports whether this writer won the row; a lost write means another
// resolution got there first and the caller re-reads to see the outcome.
func (r *requestRepository) Resolve(ctx context.Context, id uint, status models.RequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", id, models.RequestPending).
		Update("status", status)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}
