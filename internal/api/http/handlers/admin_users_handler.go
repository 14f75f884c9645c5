package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tour-service/internal/api/dto"
	"github.com/spec-kit/tour-service/internal/service"
)

// AdminUsersHandler exposes admin account moderation.
type AdminUsersHandler struct {
	users *service.UserService
}

// NewAdminUsersHandler constructs handler.
func NewAdminUsersHandler(users *service.UserService) *AdminUsersHandler {
	return &AdminUsersHandler{users: users}
}

// ListMalicious GET /users/malicious.
func (h *AdminUsersHandler) ListMalicious(c *fiber.Ctx) error {
	users, err := h.users.ListMalicious(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Block POST /users/:id/block.
func (h *AdminUsersHandler) Block(c *fiber.Ctx) error {
	user, err := h.users.Block(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Unblock POST /users/:id/unblock.
func (h *AdminUsersHandler) Unblock(c *fiber.Ctx) error {
	user, err := h.users.Unblock(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
