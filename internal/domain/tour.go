package domain

import "time"

// TourCategory enumerates the thematic category of a tour.
type TourCategory string

const (
	CategoryNature   TourCategory = "NATURE"
	CategoryArt      TourCategory = "ART"
	CategorySport    TourCategory = "SPORT"
	CategoryShopping TourCategory = "SHOPPING"
	CategoryFood     TourCategory = "FOOD"
)

// MatchesInterest reports whether a tourist interest maps to this category.
func (c TourCategory) MatchesInterest(i Interest) bool {
	return string(c) == string(i)
}

// TourState enumerates lifecycle states for tours.
type TourState string

const (
	TourStateDraft     TourState = "DRAFT"
	TourStatePublished TourState = "PUBLISHED"
	TourStateCancelled TourState = "CANCELLED"
)

// Tour is the aggregate a guide creates, publishes and eventually cancels.
type Tour struct {
	ID          string
	GuideID     string
	Name        string
	Description string
	Difficulty  string
	Category    TourCategory
	Price       float64
	Date        time.Time
	State       TourState
	KeyPoints   []KeyPoint
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// KeyPoint is a stop on a tour's route.
type KeyPoint struct {
	ID          string
	TourID      string
	Name        string
	Description string
	Latitude    float64
	Longitude   float64
	ImageURL    *string
}
