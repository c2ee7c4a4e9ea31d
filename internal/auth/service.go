package auth

import (
	"context"

	"lobby/internal/models"
	"lobby/internal/repository"
	"lobby/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// Service is the default Provider implementation: bcrypt credentials over the
// user repository.
type Service struct {
	userRepo repository.UserRepository
	broker   *stateBroker
}

// NewService returns a new credential service.
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{
		userRepo: userRepo,
		broker:   newStateBroker(),
	}
}

// SignIn authenticates the credentials and emits a SignedIn state change.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		return nil, newError(CodeMissingEmail, "Email is missing", nil)
	}
	if password == "" {
		return nil, newError(CodeMissingPassword, "Password is missing", nil)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, newError(CodeInvalidEmail, "Email is invalid", err)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, newError(CodeOther, "Login failed", err)
	}
	if user == nil {
		// Unknown account and bad password are indistinguishable to callers.
		return nil, newError(CodeWrongPassword, "Wrong password", nil)
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cmpErr != nil {
		return nil, newError(CodeWrongPassword, "Wrong password", nil)
	}

	s.broker.publish(StateChange{Current: user})
	return user, nil
}

// SignUp creates an account. It does not emit a state change: a fresh account
// signs in explicitly afterwards.
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		return nil, newError(CodeMissingEmail, "Email is missing", nil)
	}
	if password == "" {
		return nil, newError(CodeMissingPassword, "Password is missing", nil)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, newError(CodeInvalidEmail, "Email is invalid", err)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, newError(CodeOther, "Registration failed", err)
	}
	if existing != nil {
		return nil, newError(CodeOther, "Email is already in use", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, newError(CodeOther, "Registration failed", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hashed),
	}
	if createErr := s.userRepo.Create(ctx, user); createErr != nil {
		return nil, newError(CodeOther, "Registration failed", createErr)
	}

	return user, nil
}

// UpdateDisplayName sets the profile display name.
func (s *Service) UpdateDisplayName(ctx context.Context, userID uint, name string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return newError(CodeOther, "Profile update failed", err)
	}

	user.DisplayName = name
	if err := s.userRepo.Update(ctx, user); err != nil {
		return newError(CodeOther, "Profile update failed", err)
	}
	return nil
}

// Delete removes the account. Used as the compensating action when
// registration fails after the account was created.
func (s *Service) Delete(ctx context.Context, userID uint) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return newError(CodeOther, "Account deletion failed", err)
	}
	return nil
}

// SignOut emits a SignedOut state change carrying the previous identity.
func (s *Service) SignOut(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return newError(CodeOther, "Sign out failed", err)
	}

	s.broker.publish(StateChange{Previous: user})
	return nil
}

// Subscribe returns a new listener on the auth-state stream.
func (s *Service) Subscribe() *StateSubscription {
	return s.broker.subscribe()
}
