package service

import (
	"context"

	"lobby/internal/models"
	"lobby/internal/presence"
	"lobby/internal/repository"
)

// UserService provides user lookup and the online-user roster.
type UserService struct {
	userRepo repository.UserRepository
	presence presence.Store
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository, store presence.Store) *UserService {
	return &UserService{userRepo: userRepo, presence: store}
}

// Get returns one user by id.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.userRepo.List(ctx, limit, offset)
}

// Online returns the users currently marked online in the presence store.
// Identities in the online set with no matching account row are skipped; the
// set can briefly outlive a deleted account.
func (s *UserService) Online(ctx context.Context) ([]models.User, error) {
	ids, err := s.presence.OnlineUserIDs(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		user, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			if appErr, ok := err.(*models.AppError); ok && appErr.Code == "NOT_FOUND" {
				continue
			}
			return nil, err
		}
		users = append(users, *user)
	}

	return users, nil
}
