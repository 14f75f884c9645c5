package domain

import "time"

// ProblemEventType discriminates the two stored event variants.
type ProblemEventType string

const (
	ProblemEventCreated       ProblemEventType = "PROBLEM_CREATED"
	ProblemEventStatusChanged ProblemEventType = "PROBLEM_STATUS_CHANGED"
)

// ProblemEvent is one immutable entry in a problem's audit history. Exactly
// one of Created / StatusChanged is set, matching Type.
type ProblemEvent struct {
	ID         string
	ProblemID  string
	Type       ProblemEventType
	OccurredAt time.Time

	Created       *ProblemCreatedPayload
	StatusChanged *ProblemStatusChangedPayload
}

// ProblemCreatedPayload captures the initial report.
type ProblemCreatedPayload struct {
	TouristID   string `json:"tourist_id"`
	TourID      string `json:"tour_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ProblemStatusChangedPayload captures one status transition.
type ProblemStatusChangedPayload struct {
	UserID    string        `json:"user_id"`
	UserRole  UserRole      `json:"user_role"`
	OldStatus ProblemStatus `json:"old_status"`
	NewStatus ProblemStatus `json:"new_status"`
	Comment   *string       `json:"comment,omitempty"`
}

// NewProblemCreatedEvent builds the first event of a problem's history.
func NewProblemCreatedEvent(id, problemID string, occurredAt time.Time, payload ProblemCreatedPayload) ProblemEvent {
	return ProblemEvent{
		ID:         id,
		ProblemID:  problemID,
		Type:       ProblemEventCreated,
		OccurredAt: occurredAt,
		Created:    &payload,
	}
}

// NewProblemStatusChangedEvent builds a transition event.
func NewProblemStatusChangedEvent(id, problemID string, occurredAt time.Time, payload ProblemStatusChangedPayload) ProblemEvent {
	return ProblemEvent{
		ID:            id,
		ProblemID:     problemID,
		Type:          ProblemEventStatusChanged,
		OccurredAt:    occurredAt,
		StatusChanged: &payload,
	}
}
