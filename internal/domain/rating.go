package domain

import "time"

// TourRating is a 1-5 score a tourist gives a tour they attended.
type TourRating struct {
	ID        string
	TourID    string
	TouristID string
	Rating    int
	Comment   *string
	RatedAt   time.Time
}
