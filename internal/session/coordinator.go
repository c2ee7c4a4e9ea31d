// Package session owns the auth lifecycle: it drives the credential provider
// through login, registration and logout, and mirrors every observed
// auth-state transition into the presence store.
package session

import (
	"context"
	"log/slog"
	"sync"

	"lobby/internal/auth"
	"lobby/internal/models"
	"lobby/internal/observability"
	"lobby/internal/presence"
	"lobby/internal/validation"
)

// Coordinator tracks which users currently hold a session and reconciles the
// presence store against the provider's auth-state stream. It never lets a
// presence write failure abort the auth operation that triggered it.
type Coordinator struct {
	provider auth.Provider
	presence presence.Store
	logger   *slog.Logger

	mu     sync.Mutex
	active map[uint]struct{}
}

// NewCoordinator returns a coordinator over the given provider and presence
// store.
func NewCoordinator(provider auth.Provider, store presence.Store, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		provider: provider,
		presence: store,
		logger:   logger,
		active:   make(map[uint]struct{}),
	}
}

// Run consumes the provider's auth-state stream until ctx is cancelled.
// Operations driven through Login/Register/Logout apply presence inline, so
// Run only has to pick up transitions originating elsewhere (another node,
// an admin tool).
func (c *Coordinator) Run(ctx context.Context) {
	sub := c.provider.Subscribe()
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-sub.C():
			if !ok {
				return
			}
			c.apply(ctx, change)
		}
	}
}

// apply reconciles one auth-state transition. Duplicate sign-ins and
// sign-outs for an identity already in the target state are no-ops.
func (c *Coordinator) apply(ctx context.Context, change auth.StateChange) {
	if change.Current != nil {
		c.markOnline(ctx, change.Current.ID)
		return
	}
	if change.Previous != nil {
		c.markOffline(ctx, change.Previous.ID)
	}
}

func (c *Coordinator) markOnline(ctx context.Context, userID uint) {
	c.mu.Lock()
	_, already := c.active[userID]
	c.active[userID] = struct{}{}
	c.mu.Unlock()
	if already {
		return
	}

	if err := c.presence.SetPresence(ctx, userID, true); err != nil {
		c.logger.Warn("presence write failed", "user_id", userID, "error", err)
		return
	}
	observability.PresenceWrites.WithLabelValues("online").Inc()
}

func (c *Coordinator) markOffline(ctx context.Context, userID uint) {
	c.mu.Lock()
	_, was := c.active[userID]
	delete(c.active, userID)
	c.mu.Unlock()
	if !was {
		return
	}

	if err := c.presence.SetPresence(ctx, userID, false); err != nil {
		c.logger.Warn("presence write failed", "user_id", userID, "error", err)
		return
	}
	observability.PresenceWrites.WithLabelValues("offline").Inc()
}

// Active reports whether the user currently holds a session on this node.
func (c *Coordinator) Active(userID uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.active[userID]
	return ok
}

// Login validates the fields locally before touching the provider, signs the
// credentials in, and marks the identity online.
func (c *Coordinator) Login(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		return nil, models.NewValidationError("email is required")
	}
	if password == "" {
		return nil, models.NewValidationError("password is required")
	}

	user, err := c.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	c.markOnline(ctx, user.ID)
	return user, nil
}

// Register validates the registration fields, creates the account, then sets
// the display name. If the display-name write fails the freshly created
// account is deleted again so a retry starts from a clean slate.
func (c *Coordinator) Register(ctx context.Context, name, email, password, confirm string) (*models.User, error) {
	if err := validation.ValidateRegistration(name, email, password, confirm); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	user, err := c.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := c.provider.UpdateDisplayName(ctx, user.ID, name); err != nil {
		if delErr := c.provider.Delete(ctx, user.ID); delErr != nil {
			c.logger.Error("rollback of partial registration failed",
				"user_id", user.ID, "error", delErr)
		}
		return nil, err
	}
	user.DisplayName = name

	return user, nil
}

// Logout signs the user out and marks them offline. Logging out an identity
// with no session is a no-op.
func (c *Coordinator) Logout(ctx context.Context, userID uint) error {
	if !c.Active(userID) {
		return nil
	}

	if err := c.provider.SignOut(ctx, userID); err != nil {
		return err
	}

	c.markOffline(ctx, userID)
	return nil
}
