package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tour-service/internal/api/dto"
	"github.com/spec-kit/tour-service/internal/service"
	apperrors "github.com/spec-kit/tour-service/pkg/util/errorutil"
)

// ProblemsHandler exposes the problem lifecycle endpoints.
type ProblemsHandler struct {
	problems *service.ProblemService
}

// NewProblemsHandler constructs handler.
func NewProblemsHandler(problems *service.ProblemService) *ProblemsHandler {
	return &ProblemsHandler{problems: problems}
}

// Report POST /problems.
func (h *ProblemsHandler) Report(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ReportProblemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	problem, err := h.problems.ReportProblem(c.Context(), principal.User.ID, service.ReportProblemInput{
		TourID:      req.TourID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewProblemResponse(problem)})
}

// UpdateStatus POST /problems/:id/status.
func (h *ProblemsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProblemStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	problem, err := h.problems.UpdateStatus(c.Context(), c.Params("id"), req.Status,
		principal.User.ID, principal.Role, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProblemResponse(problem)})
}

// ListMine GET /problems/mine.
func (h *ProblemsHandler) ListMine(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	listings, err := h.problems.ListForTourist(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProblemListingResponses(listings)})
}

// ListForGuide GET /problems/guide.
func (h *ProblemsHandler) ListForGuide(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	listings, err := h.problems.ListForGuide(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProblemListingResponses(listings)})
}

// ListAll GET /problems.
func (h *ProblemsHandler) ListAll(c *fiber.Ctx) error {
	listings, err := h.problems.ListAll(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProblemListingResponses(listings)})
}

// ListEvents GET /problems/:id/events.
func (h *ProblemsHandler) ListEvents(c *fiber.Ctx) error {
	events, err := h.problems.ListEvents(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProblemEventResponses(events)})
}

// ListAllEvents GET /problems/events.
func (h *ProblemsHandler) ListAllEvents(c *fiber.Ctx) error {
	events, err := h.problems.ListAllEvents(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProblemEventResponses(events)})
}
