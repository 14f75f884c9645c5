package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tour-service/internal/api/dto"
	"github.com/spec-kit/tour-service/internal/auth"
	"github.com/spec-kit/tour-service/internal/domain"
	"github.com/spec-kit/tour-service/internal/repository"
	"github.com/spec-kit/tour-service/internal/service"
	apperrors "github.com/spec-kit/tour-service/pkg/util/errorutil"
)

// ToursHandler covers guide tour management and tourist browsing, purchasing
// and rating.
type ToursHandler struct {
	tours *service.TourService
}

// NewToursHandler constructs handler.
func NewToursHandler(tours *service.TourService) *ToursHandler {
	return &ToursHandler{tours: tours}
}

// CreateTour POST /tours.
func (h *ToursHandler) CreateTour(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTourRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	tour, err := h.tours.CreateTour(c.Context(), principal.User.ID, service.CreateTourInput{
		Name:        req.Name,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		Category:    req.Category,
		Price:       req.Price,
		Date:        req.Date,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTourResponse(tour)})
}

// AddKeyPoint POST /tours/keypoints.
func (h *ToursHandler) AddKeyPoint(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AddKeyPointRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	kp, err := h.tours.AddKeyPoint(c.Context(), principal.User.ID, service.AddKeyPointInput{
		TourID:      req.TourID,
		Name:        req.Name,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.KeyPointResponse{
		ID:          kp.ID,
		Name:        kp.Name,
		Description: kp.Description,
		Latitude:    kp.Latitude,
		Longitude:   kp.Longitude,
		ImageURL:    kp.ImageURL,
	}})
}

// PublishTour POST /tours/:id/publish.
func (h *ToursHandler) PublishTour(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	tour, err := h.tours.PublishTour(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTourResponse(tour)})
}

// CancelTour POST /tours/:id/cancel.
func (h *ToursHandler) CancelTour(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	tour, err := h.tours.CancelTour(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTourResponse(tour)})
}

// ListOwnTours GET /tours.
func (h *ToursHandler) ListOwnTours(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var state *domain.TourState
	if stateStr := c.Query("state"); stateStr != "" {
		s := domain.TourState(stateStr)
		state = &s
	}
	tours, err := h.tours.ListForGuide(c.Context(), principal.User.ID, state)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTourResponses(tours)})
}

// ListPublished GET /tours/published.
func (h *ToursHandler) ListPublished(c *fiber.Ctx) error {
	filter := repository.PublishedTourFilter{}
	if categoryStr := c.Query("category"); categoryStr != "" {
		category := domain.TourCategory(categoryStr)
		filter.Category = &category
	}
	if guideID := c.Query("guide_id"); guideID != "" {
		filter.GuideID = &guideID
	}
	if c.QueryBool("awarded_guides") {
		filter.OnlyAwardedGuides = true
	}
	tours, err := h.tours.ListPublished(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTourResponses(tours)})
}

// ListPurchased GET /tours/purchased.
func (h *ToursHandler) ListPurchased(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	tours, err := h.tours.ListPurchased(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTourResponses(tours)})
}

// Purchase POST /tours/purchase.
func (h *ToursHandler) Purchase(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	purchase, err := h.tours.Purchase(c.Context(), principal.User.ID, service.PurchaseInput{
		TourID:         req.TourID,
		UseBonusPoints: req.UseBonusPoints,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPurchaseResponse(purchase)})
}

// RateTour POST /tours/rate.
func (h *ToursHandler) RateTour(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RateTourRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	rating, err := h.tours.RateTour(c.Context(), principal.User.ID, service.RateTourInput{
		TourID:  req.TourID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.RatingResponse{
		ID:      rating.ID,
		TourID:  rating.TourID,
		Rating:  rating.Rating,
		Comment: rating.Comment,
	}})
}

// MonthlyReport GET /tours/report?year=&month=.
func (h *ToursHandler) MonthlyReport(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	now := time.Now()
	year := queryInt(c, "year", now.Year())
	month := queryInt(c, "month", int(now.Month()))
	if month < 1 || month > 12 {
		return apperrors.NewValidationError("month must be between 1 and 12", nil)
	}

	report, err := h.tours.MonthlyReport(c.Context(), principal.User.ID, year, time.Month(month))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMonthlyReportResponse(report)})
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal, nil
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	val := c.Query(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}
