package dto

import (
	"time"

	"github.com/spec-kit/tour-service/internal/domain"
	"github.com/spec-kit/tour-service/internal/service"
)

// CreateTourRequest payload.
type CreateTourRequest struct {
	Name        string              `json:"name" validate:"required"`
	Description string              `json:"description" validate:"required"`
	Difficulty  string              `json:"difficulty" validate:"required"`
	Category    domain.TourCategory `json:"category" validate:"required"`
	Price       float64             `json:"price" validate:"required,gt=0"`
	Date        time.Time           `json:"date" validate:"required"`
}

// AddKeyPointRequest payload.
type AddKeyPointRequest struct {
	TourID      string  `json:"tour_id" validate:"required,uuid4"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// PurchaseRequest payload.
type PurchaseRequest struct {
	TourID         string `json:"tour_id" validate:"required,uuid4"`
	UseBonusPoints int    `json:"use_bonus_points" validate:"gte=0"`
}

// RateTourRequest payload.
type RateTourRequest struct {
	TourID  string  `json:"tour_id" validate:"required,uuid4"`
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty"`
}

// KeyPointResponse view.
type KeyPointResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// TourResponse view.
type TourResponse struct {
	ID          string              `json:"id"`
	GuideID     string              `json:"guide_id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Difficulty  string              `json:"difficulty"`
	Category    domain.TourCategory `json:"category"`
	Price       float64             `json:"price"`
	Date        time.Time           `json:"date"`
	State       domain.TourState    `json:"state"`
	KeyPoints   []KeyPointResponse  `json:"key_points"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewTourResponse maps a domain tour.
func NewTourResponse(tour *domain.Tour) TourResponse {
	keyPoints := make([]KeyPointResponse, 0, len(tour.KeyPoints))
	for _, kp := range tour.KeyPoints {
		keyPoints = append(keyPoints, KeyPointResponse{
			ID:          kp.ID,
			Name:        kp.Name,
			Description: kp.Description,
			Latitude:    kp.Latitude,
			Longitude:   kp.Longitude,
			ImageURL:    kp.ImageURL,
		})
	}
	return TourResponse{
		ID:          tour.ID,
		GuideID:     tour.GuideID,
		Name:        tour.Name,
		Description: tour.Description,
		Difficulty:  tour.Difficulty,
		Category:    tour.Category,
		Price:       tour.Price,
		Date:        tour.Date,
		State:       tour.State,
		KeyPoints:   keyPoints,
		CreatedAt:   tour.CreatedAt,
		UpdatedAt:   tour.UpdatedAt,
	}
}

// NewTourResponses maps a slice of tours.
func NewTourResponses(tours []domain.Tour) []TourResponse {
	out := make([]TourResponse, 0, len(tours))
	for i := range tours {
		out = append(out, NewTourResponse(&tours[i]))
	}
	return out
}

// PurchaseResponse view.
type PurchaseResponse struct {
	ID              string    `json:"id"`
	TourID          string    `json:"tour_id"`
	PurchaseDate    time.Time `json:"purchase_date"`
	UsedBonusPoints int       `json:"used_bonus_points"`
	FinalPrice      float64   `json:"final_price"`
}

// NewPurchaseResponse maps a purchase.
func NewPurchaseResponse(purchase *domain.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:              purchase.ID,
		TourID:          purchase.TourID,
		PurchaseDate:    purchase.PurchaseDate,
		UsedBonusPoints: purchase.UsedBonusPoints,
		FinalPrice:      purchase.FinalPrice,
	}
}

// RatingResponse view.
type RatingResponse struct {
	ID      string  `json:"id"`
	TourID  string  `json:"tour_id"`
	Rating  int     `json:"rating"`
	Comment *string `json:"comment,omitempty"`
}

// CartItemResponse view.
type CartItemResponse struct {
	Tour      TourResponse `json:"tour"`
	GuideName string       `json:"guide_name"`
}

// CartResponse view.
type CartResponse struct {
	Items                []CartItemResponse `json:"items"`
	TotalPrice           float64            `json:"total_price"`
	MaxUsableBonusPoints int                `json:"max_usable_bonus_points"`
}

// NewCartResponse maps the resolved cart.
func NewCartResponse(view *service.CartView) CartResponse {
	items := make([]CartItemResponse, 0, len(view.Items))
	for i := range view.Items {
		items = append(items, CartItemResponse{
			Tour:      NewTourResponse(&view.Items[i].Tour),
			GuideName: view.Items[i].GuideName,
		})
	}
	return CartResponse{
		Items:                items,
		TotalPrice:           view.TotalPrice,
		MaxUsableBonusPoints: view.MaxUsableBonusPoints,
	}
}

// TourSalesResponse view for the monthly report.
type TourSalesResponse struct {
	Tour  TourResponse `json:"tour"`
	Sales int          `json:"sales"`
}

// RatedTourResponse view for the monthly report.
type RatedTourResponse struct {
	Tour          TourResponse `json:"tour"`
	AverageRating float64      `json:"average_rating"`
	RatingsCount  int          `json:"ratings_count"`
}

// MonthlyReportResponse view.
type MonthlyReportResponse struct {
	Year       int                 `json:"year"`
	Month      int                 `json:"month"`
	Sales      []TourSalesResponse `json:"sales"`
	BestRated  *RatedTourResponse  `json:"best_rated,omitempty"`
	WorstRated *RatedTourResponse  `json:"worst_rated,omitempty"`
}

// NewMonthlyReportResponse maps the guide report.
func NewMonthlyReportResponse(report *service.MonthlyReport) MonthlyReportResponse {
	sales := make([]TourSalesResponse, 0, len(report.Sales))
	for i := range report.Sales {
		sales = append(sales, TourSalesResponse{
			Tour:  NewTourResponse(&report.Sales[i].Tour),
			Sales: report.Sales[i].Sales,
		})
	}
	resp := MonthlyReportResponse{
		Year:  report.Year,
		Month: int(report.Month),
		Sales: sales,
	}
	if report.BestRated != nil {
		resp.BestRated = newRatedTourResponse(report.BestRated)
	}
	if report.WorstRated != nil {
		resp.WorstRated = newRatedTourResponse(report.WorstRated)
	}
	return resp
}

func newRatedTourResponse(rated *service.RatedTour) *RatedTourResponse {
	return &RatedTourResponse{
		Tour:          NewTourResponse(&rated.Tour),
		AverageRating: rated.AverageRating,
		RatingsCount:  rated.RatingsCount,
	}
}
