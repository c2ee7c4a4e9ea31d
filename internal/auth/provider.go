// Package auth implements the credential provider: sign-in/sign-up against
// stored accounts and a subscribable stream of auth-state transitions.
package auth

import (
	"context"

	"lobby/internal/models"
)

// ErrorCode classifies a provider failure the way the presentation layer
// reports it.
type ErrorCode string

const (
	// CodeInvalidEmail indicates a malformed email address.
	CodeInvalidEmail ErrorCode = "invalid_email"
	// CodeWrongPassword indicates the credentials did not match an account.
	CodeWrongPassword ErrorCode = "wrong_password"
	// CodeMissingEmail indicates an empty email field.
	CodeMissingEmail ErrorCode = "missing_email"
	// CodeMissingPassword indicates an empty password field.
	CodeMissingPassword ErrorCode = "missing_password"
	// CodeOther covers every failure outside the known cases.
	CodeOther ErrorCode = "other"
)

// Error is a provider failure mapped onto the known code set. It is always
// surfaced as a failure reason, never a crash.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// StateChange is one observed auth-state transition. Current is nil after a
// sign-out; Previous carries the identity that held the session before the
// transition, when there was one.
type StateChange struct {
	Previous *models.User
	Current  *models.User
}

// Provider is the narrow credential interface the session coordinator calls
// through. The concrete implementation owns account storage; everything else
// in the application treats identity as opaque.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	UpdateDisplayName(ctx context.Context, userID uint, name string) error
	Delete(ctx context.Context, userID uint) error
	SignOut(ctx context.Context, userID uint) error
	Subscribe() *StateSubscription
}
