package server

import (
	"github.com/gofiber/fiber/v2"
)

// StartMatchmaking handles POST /api/matchmaking/start
func (s *Server) StartMatchmaking(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	room, err := s.matchmaking.Start(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"room": room})
}

// CreateRoom handles POST /api/matchmaking/rooms
func (s *Server) CreateRoom(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	room, err := s.matchmaking.Create(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"room": room})
}

// JoinRoom handles POST /api/matchmaking/rooms/:id/join
func (s *Server) JoinRoom(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.matchmaking.Join(c.Context(), roomID, userID); err != nil {
		return respondServiceError(c, err)
	}

	room, err := s.roomRepo.GetByID(c.Context(), roomID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"room": room})
}

// GetRoom handles GET /api/matchmaking/rooms/:id
func (s *Server) GetRoom(c *fiber.Ctx) error {
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	room, getErr := s.roomRepo.GetByID(c.Context(), roomID)
	if getErr != nil {
		return respondServiceError(c, getErr)
	}

	return c.JSON(fiber.Map{"room": room})
}

// RemoveRoom handles DELETE /api/matchmaking/rooms/:id
func (s *Server) RemoveRoom(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.matchmaking.Remove(c.Context(), roomID, userID); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Room removed"})
}
