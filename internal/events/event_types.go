package events

import (
	"time"

	"github.com/spec-kit/tour-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProblemReported      EventType = "problem_reported"
	EventProblemStatusChanged EventType = "problem_status_changed"
	EventTourCancelled        EventType = "tour_cancelled"
	EventTourPurchased        EventType = "tour_purchased"
	EventTourPublished        EventType = "tour_published"
	EventUserRegistered       EventType = "user_registered"
	EventUserBlocked          EventType = "user_blocked"
	EventUserUnblocked        EventType = "user_unblocked"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ProblemReportedPayload payload.
type ProblemReportedPayload struct {
	ProblemID   string `json:"problem_id"`
	TourID      string `json:"tour_id"`
	TourName    string `json:"tour_name"`
	TouristName string `json:"tourist_name"`
	GuideEmail  string `json:"guide_email"`
	GuideName   string `json:"guide_name"`
}

// ProblemStatusChangedPayload payload.
type ProblemStatusChangedPayload struct {
	ProblemID string               `json:"problem_id"`
	OldStatus domain.ProblemStatus `json:"old_status"`
	NewStatus domain.ProblemStatus `json:"new_status"`
	Comment   *string              `json:"comment,omitempty"`
}

// TourCancelledPayload payload; one event per affected purchaser.
type TourCancelledPayload struct {
	TourID         string `json:"tour_id"`
	TourName       string `json:"tour_name"`
	TouristEmail   string `json:"tourist_email"`
	TouristName    string `json:"tourist_name"`
	RefundedPoints int    `json:"refunded_points"`
}

// TourPurchasedPayload payload.
type TourPurchasedPayload struct {
	TourID       string  `json:"tour_id"`
	TourName     string  `json:"tour_name"`
	TouristEmail string  `json:"tourist_email"`
	TouristName  string  `json:"tourist_name"`
	FinalPrice   float64 `json:"final_price"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

// UserBlockStatusPayload payload for block/unblock events.
type UserBlockStatusPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
