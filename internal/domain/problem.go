package domain

import "time"

// ProblemStatus enumerates lifecycle states for tour problems.
type ProblemStatus string

const (
	ProblemStatusPending     ProblemStatus = "PENDING"
	ProblemStatusUnderReview ProblemStatus = "UNDER_REVIEW"
	ProblemStatusResolved    ProblemStatus = "RESOLVED"
	ProblemStatusRejected    ProblemStatus = "REJECTED"
)

// IsTerminal reports whether a status has no outgoing transitions.
// Resolved and Rejected problems stay as historical record forever.
func (s ProblemStatus) IsTerminal() bool {
	return s == ProblemStatusResolved || s == ProblemStatusRejected
}

// Valid reports whether s is one of the four defined statuses.
func (s ProblemStatus) Valid() bool {
	switch s {
	case ProblemStatusPending, ProblemStatusUnderReview, ProblemStatusResolved, ProblemStatusRejected:
		return true
	}
	return false
}

// TourProblem is a complaint a tourist files against a purchased tour.
type TourProblem struct {
	ID          string
	TourID      string
	TouristID   string
	Title       string
	Description string
	Status      ProblemStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// transitionKey identifies a (role, current status) cell of the transition table.
type transitionKey struct {
	role UserRole
	from ProblemStatus
}

// allowedTransitions is the static role-gated transition table. Any (role, from)
// pair missing here allows no transitions at all; in particular terminal
// statuses never appear as a "from" key.
var allowedTransitions = map[transitionKey][]ProblemStatus{
	{RoleGuide, ProblemStatusPending}:     {ProblemStatusResolved, ProblemStatusUnderReview},
	{RoleAdmin, ProblemStatusUnderReview}: {ProblemStatusPending, ProblemStatusRejected, ProblemStatusResolved},
}

// CanTransition reports whether role may move a problem from current to next.
func CanTransition(role UserRole, current, next ProblemStatus) bool {
	for _, candidate := range allowedTransitions[transitionKey{role, current}] {
		if candidate == next {
			return true
		}
	}
	return false
}
