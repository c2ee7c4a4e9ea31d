// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"lobby/internal/auth"
	"lobby/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTTL = 24 * 7 * time.Hour

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		DisplayName     string `json:"display_name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.coordinator.Register(c.Context(),
		req.DisplayName, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		return s.respondAuthError(c, err)
	}

	token, err := s.generateToken(user.ID, user.DisplayName)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.coordinator.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return s.respondAuthError(c, err)
	}

	token, err := s.generateToken(user.ID, user.DisplayName)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /api/auth/logout. The presented token's JTI is revoked
// for the rest of its lifetime and the session is signed out.
func (s *Server) Logout(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if s.redis != nil {
		if jti, exp, ok := s.tokenRevocationClaims(c); ok {
			ttl := time.Until(exp)
			if ttl > 0 {
				if err := s.redis.Set(c.Context(), "blacklist:"+jti, "1", ttl).Err(); err != nil {
					s.logger.Warn("token revocation failed", "error", err)
				}
			}
		}
	}

	if err := s.coordinator.Logout(c.Context(), userID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// respondAuthError maps coordinator failures onto HTTP statuses. Provider
// error codes collapse to 400/401; local validation is always 400.
func (s *Server) respondAuthError(c *fiber.Ctx, err error) error {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		switch authErr.Code {
		case auth.CodeMissingEmail, auth.CodeMissingPassword, auth.CodeInvalidEmail:
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(authErr.Message))
		case auth.CodeWrongPassword:
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid credentials"))
		default:
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError(authErr.Message))
		}
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		status := fiber.StatusInternalServerError
		switch appErr.Code {
		case "VALIDATION_ERROR":
			status = fiber.StatusBadRequest
		case "UNAUTHORIZED":
			status = fiber.StatusUnauthorized
		}
		return models.RespondWithError(c, status, appErr)
	}

	return models.RespondWithError(c, fiber.StatusInternalServerError,
		models.NewInternalError(err))
}

// tokenRevocationClaims pulls the jti and expiry out of the presented token.
// The signature was already verified by AuthRequired.
func (s *Server) tokenRevocationClaims(c *fiber.Ctx) (string, time.Time, bool) {
	authHeader := c.Get("Authorization")
	const prefix = "Bearer "
	if len(authHeader) <= len(prefix) {
		return "", time.Time{}, false
	}

	token, _, err := jwt.NewParser().ParseUnverified(authHeader[len(prefix):], jwt.MapClaims{})
	if err != nil {
		return "", time.Time{}, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", time.Time{}, false
	}

	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return "", time.Time{}, false
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return "", time.Time{}, false
	}

	return jti, time.Unix(int64(exp), 0), true
}

// generateToken creates a JWT for the given user.
func (s *Server) generateToken(userID uint, displayName string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":          strconv.FormatUint(uint64(userID), 10),
		"display_name": displayName,
		"iss":          "lobby-api",
		"aud":          "lobby-client",
		"exp":          now.Add(tokenTTL).Unix(),
		"iat":          now.Unix(),
		"nbf":          now.Unix(),
		"jti":          s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID so individual tokens can be revoked.
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
