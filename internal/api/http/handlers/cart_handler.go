package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tour-service/internal/api/dto"
	"github.com/spec-kit/tour-service/internal/service"
)

// CartHandler exposes the tourist shopping cart.
type CartHandler struct {
	tours *service.TourService
}

// NewCartHandler constructs handler.
func NewCartHandler(tours *service.TourService) *CartHandler {
	return &CartHandler{tours: tours}
}

// Add POST /cart/:tourId.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.tours.AddToCart(c.Context(), principal.User.ID, c.Params("tourId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Remove DELETE /cart/:tourId.
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.tours.RemoveFromCart(c.Context(), principal.User.ID, c.Params("tourId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Get GET /cart.
func (h *CartHandler) Get(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	view, err := h.tours.GetCart(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCartResponse(view)})
}
