package dto

import (
	"time"

	"github.com/spec-kit/tour-service/internal/domain"
	"github.com/spec-kit/tour-service/internal/repository"
)

// ReportProblemRequest payload.
type ReportProblemRequest struct {
	TourID      string `json:"tour_id" validate:"required,uuid4"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
}

// UpdateProblemStatusRequest payload.
type UpdateProblemStatusRequest struct {
	Status  domain.ProblemStatus `json:"status" validate:"required"`
	Comment *string              `json:"comment,omitempty"`
}

// ProblemResponse view.
type ProblemResponse struct {
	ID          string               `json:"id"`
	TourID      string               `json:"tour_id"`
	TouristID   string               `json:"tourist_id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      domain.ProblemStatus `json:"status"`
	TourName    string               `json:"tour_name,omitempty"`
	TouristName string               `json:"tourist_name,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewProblemResponse maps a bare problem.
func NewProblemResponse(problem *domain.TourProblem) ProblemResponse {
	return ProblemResponse{
		ID:          problem.ID,
		TourID:      problem.TourID,
		TouristID:   problem.TouristID,
		Title:       problem.Title,
		Description: problem.Description,
		Status:      problem.Status,
		CreatedAt:   problem.CreatedAt,
		UpdatedAt:   problem.UpdatedAt,
	}
}

// NewProblemListingResponses maps joined problem listings.
func NewProblemListingResponses(listings []repository.ProblemListing) []ProblemResponse {
	out := make([]ProblemResponse, 0, len(listings))
	for i := range listings {
		resp := NewProblemResponse(&listings[i].Problem)
		resp.TourName = listings[i].TourName
		resp.TouristName = listings[i].TouristName
		out = append(out, resp)
	}
	return out
}

// ProblemEventResponse is one audit history entry. Payload holds the variant
// matching Type.
type ProblemEventResponse struct {
	ID         string                  `json:"id"`
	ProblemID  string                  `json:"problem_id"`
	Type       domain.ProblemEventType `json:"type"`
	OccurredAt time.Time               `json:"occurred_at"`
	Payload    any                     `json:"payload"`
}

// NewProblemEventResponses maps decoded events.
func NewProblemEventResponses(events []domain.ProblemEvent) []ProblemEventResponse {
	out := make([]ProblemEventResponse, 0, len(events))
	for _, event := range events {
		resp := ProblemEventResponse{
			ID:         event.ID,
			ProblemID:  event.ProblemID,
			Type:       event.Type,
			OccurredAt: event.OccurredAt,
		}
		switch event.Type {
		case domain.ProblemEventCreated:
			resp.Payload = event.Created
		case domain.ProblemEventStatusChanged:
			resp.Payload = event.StatusChanged
		}
		out = append(out, resp)
	}
	return out
}
