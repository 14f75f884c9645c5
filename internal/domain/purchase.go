package domain

import "time"

// Purchase records that a tourist bought a tour, including how many bonus
// points were spent and the resulting price.
type Purchase struct {
	ID              string
	TouristID       string
	TourID          string
	PurchaseDate    time.Time
	UsedBonusPoints int
	FinalPrice      float64
}
