package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tour-service/internal/cart"
	"github.com/spec-kit/tour-service/internal/domain"
	"github.com/spec-kit/tour-service/internal/events"
	"github.com/spec-kit/tour-service/internal/repository"
	apperrors "github.com/spec-kit/tour-service/pkg/util/errorutil"
)

const (
	// cancelWindow is the minimum lead time before a tour's start during
	// which a guide may still cancel it.
	cancelWindow = 24 * time.Hour
	// ratingWindow is how long after a tour takes place it can be rated.
	ratingWindow = 30 * 24 * time.Hour
	// minKeyPointsToPublish is the smallest route that counts as a tour.
	minKeyPointsToPublish = 2
	// maliciousCancelledThreshold is the number of cancelled tours after
	// which a guide is marked malicious.
	maliciousCancelledThreshold = 10
)

// TourService owns the tour lifecycle (draft, publish, cancel), purchases,
// ratings, the shopping cart and guide reporting.
type TourService struct {
	tours      repository.TourRepository
	purchases  repository.PurchaseRepository
	ratings    repository.RatingRepository
	users      repository.UserRepository
	cart       cart.Store
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TourDependencies bundles collaborators for the tour service.
type TourDependencies struct {
	TourRepo     repository.TourRepository
	PurchaseRepo repository.PurchaseRepository
	RatingRepo   repository.RatingRepository
	UserRepo     repository.UserRepository
	Cart         cart.Store
	Dispatcher   events.Dispatcher
}

// NewTourService constructs the service.
func NewTourService(deps TourDependencies) *TourService {
	return &TourService{
		tours:      deps.TourRepo,
		purchases:  deps.PurchaseRepo,
		ratings:    deps.RatingRepo,
		users:      deps.UserRepo,
		cart:       deps.Cart,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// CreateTourInput describes a new draft tour.
type CreateTourInput struct {
	Name        string
	Description string
	Difficulty  string
	Category    domain.TourCategory
	Price       float64
	Date        time.Time
}

// AddKeyPointInput describes a stop appended to a draft tour.
type AddKeyPointInput struct {
	TourID      string
	Name        string
	Description string
	Latitude    float64
	Longitude   float64
	ImageURL    *string
}

// PurchaseInput describes a tour purchase with optional bonus point spending.
type PurchaseInput struct {
	TourID         string
	UseBonusPoints int
}

// RateTourInput describes a tourist's rating of an attended tour.
type RateTourInput struct {
	TourID  string
	Rating  int
	Comment *string
}

// CartItem pairs a carted tour with its guide's display name.
type CartItem struct {
	Tour      domain.Tour `json:"tour"`
	GuideName string      `json:"guide_name"`
}

// CartView is the resolved shopping cart returned to tourists.
type CartView struct {
	Items                []CartItem `json:"items"`
	TotalPrice           float64    `json:"total_price"`
	MaxUsableBonusPoints int        `json:"max_usable_bonus_points"`
}

// TourSales reports how many purchases a tour collected.
type TourSales struct {
	Tour  domain.Tour `json:"tour"`
	Sales int         `json:"sales"`
}

// RatedTour reports a tour's average rating.
type RatedTour struct {
	Tour          domain.Tour `json:"tour"`
	AverageRating float64     `json:"average_rating"`
	RatingsCount  int         `json:"ratings_count"`
}

// MonthlyReport summarises a guide's month: per-tour sales plus the best and
// worst rated tours. Best/Worst are nil when no tour received a rating.
type MonthlyReport struct {
	Year       int         `json:"year"`
	Month      time.Month  `json:"month"`
	Sales      []TourSales `json:"sales"`
	BestRated  *RatedTour  `json:"best_rated,omitempty"`
	WorstRated *RatedTour  `json:"worst_rated,omitempty"`
}

// CreateTour creates a draft tour owned by the guide.
func (s *TourService) CreateTour(ctx context.Context, guideID string, input CreateTourInput) (*domain.Tour, error) {
	if err := validateTourFields(input.Name, input.Description, input.Difficulty, input.Category, input.Price); err != nil {
		return nil, err
	}
	if !input.Date.After(s.now()) {
		return nil, apperrors.NewValidationError("tour date must be in the future", nil)
	}
	tour := &domain.Tour{
		GuideID:     guideID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Difficulty:  strings.TrimSpace(input.Difficulty),
		Category:    input.Category,
		Price:       input.Price,
		Date:        input.Date.UTC(),
		State:       domain.TourStateDraft,
	}
	if err := s.tours.Create(ctx, tour); err != nil {
		return nil, err
	}
	return tour, nil
}

// AddKeyPoint appends a stop to one of the guide's draft tours.
func (s *TourService) AddKeyPoint(ctx context.Context, guideID string, input AddKeyPointInput) (*domain.KeyPoint, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("key point name required", nil)
	}
	tour, err := s.getOwnedTour(ctx, guideID, input.TourID)
	if err != nil {
		return nil, err
	}
	if tour.State != domain.TourStateDraft {
		return nil, apperrors.NewConflict("key points can only be added to draft tours",
			map[string]any{"state": tour.State})
	}
	kp := &domain.KeyPoint{
		TourID:      tour.ID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		ImageURL:    input.ImageURL,
	}
	if err := s.tours.AddKeyPoint(ctx, kp); err != nil {
		return nil, err
	}
	return kp, nil
}

// PublishTour makes a complete draft tour visible to tourists. A publishable
// tour has all fields filled and at least two key points.
func (s *TourService) PublishTour(ctx context.Context, guideID, tourID string) (*domain.Tour, error) {
	tour, err := s.getOwnedTour(ctx, guideID, tourID)
	if err != nil {
		return nil, err
	}
	if tour.State != domain.TourStateDraft {
		return nil, apperrors.NewConflict("only draft tours can be published",
			map[string]any{"state": tour.State})
	}
	if err := validateTourFields(tour.Name, tour.Description, tour.Difficulty, tour.Category, tour.Price); err != nil {
		return nil, err
	}
	if len(tour.KeyPoints) < minKeyPointsToPublish {
		return nil, apperrors.NewValidationError("a tour needs at least two key points to be published",
			map[string]any{"key_points": len(tour.KeyPoints)})
	}

	tour.State = domain.TourStatePublished
	if err := s.tours.Update(ctx, tour); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:    events.EventTourPublished,
		Payload: map[string]any{"tour_id": tour.ID, "tour_name": tour.Name},
	})
	return tour, nil
}

// CancelTour cancels a published tour no later than 24 hours before it
// starts. Every purchaser is refunded the tour price in bonus points and
// notified by email. A guide who cancels their tenth tour is marked
// malicious.
func (s *TourService) CancelTour(ctx context.Context, guideID, tourID string) (*domain.Tour, error) {
	tour, err := s.getOwnedTour(ctx, guideID, tourID)
	if err != nil {
		return nil, err
	}
	if tour.State != domain.TourStatePublished {
		return nil, apperrors.NewConflict("only published tours can be cancelled",
			map[string]any{"state": tour.State})
	}
	if s.now().After(tour.Date.Add(-cancelWindow)) {
		return nil, apperrors.NewConflict("tours can only be cancelled at least 24 hours before they start", nil)
	}

	tour.State = domain.TourStateCancelled
	if err := s.tours.Update(ctx, tour); err != nil {
		return nil, err
	}

	if err := s.refundPurchasers(ctx, tour); err != nil {
		return nil, err
	}
	if err := s.checkAndMarkMaliciousGuide(ctx, guideID); err != nil {
		return nil, err
	}
	return tour, nil
}

// Purchase buys a published tour for the tourist, spending up to the
// requested number of bonus points. The final price never drops below zero
// and the tour is removed from the tourist's cart.
func (s *TourService) Purchase(ctx context.Context, touristID string, input PurchaseInput) (*domain.Purchase, error) {
	if input.UseBonusPoints < 0 {
		return nil, apperrors.NewValidationError("bonus points cannot be negative", nil)
	}
	tour, err := s.getTour(ctx, input.TourID)
	if err != nil {
		return nil, err
	}
	if tour.State != domain.TourStatePublished {
		return nil, apperrors.NewConflict("only published tours can be purchased",
			map[string]any{"state": tour.State})
	}

	already, err := s.purchases.Exists(ctx, touristID, tour.ID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, apperrors.NewConflict("tour already purchased", map[string]any{"tour_id": tour.ID})
	}

	tourist, err := s.users.GetByID(ctx, touristID)
	if err != nil {
		return nil, err
	}

	used := input.UseBonusPoints
	if used > tourist.BonusPoints {
		used = tourist.BonusPoints
	}
	if float64(used) > tour.Price {
		used = int(tour.Price)
	}
	finalPrice := tour.Price - float64(used)

	purchase := &domain.Purchase{
		TouristID:       touristID,
		TourID:          tour.ID,
		PurchaseDate:    s.now().UTC(),
		UsedBonusPoints: used,
		FinalPrice:      finalPrice,
	}
	if err := s.purchases.Create(ctx, purchase); err != nil {
		return nil, err
	}
	if used > 0 {
		tourist.BonusPoints -= used
		if err := s.users.Update(ctx, tourist); err != nil {
			return nil, err
		}
	}
	_ = s.cart.Remove(ctx, touristID, tour.ID)

	s.publish(ctx, events.Event{
		Type: events.EventTourPurchased,
		Payload: events.TourPurchasedPayload{
			TourID:       tour.ID,
			TourName:     tour.Name,
			TouristEmail: tourist.Email,
			TouristName:  tourist.FullName(),
			FinalPrice:   finalPrice,
		},
	})
	return purchase, nil
}

// RateTour records a 1-5 rating for a tour the tourist attended. Ratings are
// accepted only after the tour date, within 30 days of it, once per tourist,
// and low ratings (1-2) must carry a comment.
func (s *TourService) RateTour(ctx context.Context, touristID string, input RateTourInput) (*domain.TourRating, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5",
			map[string]any{"rating": input.Rating})
	}
	if input.Rating <= 2 && (input.Comment == nil || strings.TrimSpace(*input.Comment) == "") {
		return nil, apperrors.NewValidationError("a comment is required for ratings of 1 or 2", nil)
	}

	tour, err := s.getTour(ctx, input.TourID)
	if err != nil {
		return nil, err
	}
	purchased, err := s.purchases.Exists(ctx, touristID, tour.ID)
	if err != nil {
		return nil, err
	}
	if !purchased {
		return nil, apperrors.NewNotAuthorized("you can only rate tours you have purchased")
	}

	now := s.now()
	if now.Before(tour.Date) {
		return nil, apperrors.NewConflict("the tour has not taken place yet", nil)
	}
	if now.After(tour.Date.Add(ratingWindow)) {
		return nil, apperrors.NewConflict("tours can only be rated within 30 days of taking place", nil)
	}

	rated, err := s.ratings.Exists(ctx, touristID, tour.ID)
	if err != nil {
		return nil, err
	}
	if rated {
		return nil, apperrors.NewConflict("tour already rated", map[string]any{"tour_id": tour.ID})
	}

	rating := &domain.TourRating{
		TourID:    tour.ID,
		TouristID: touristID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		RatedAt:   now.UTC(),
	}
	if err := s.ratings.Create(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}

// ListForGuide returns the guide's own tours, optionally filtered by state.
func (s *TourService) ListForGuide(ctx context.Context, guideID string, state *domain.TourState) ([]domain.Tour, error) {
	return s.tours.ListByGuide(ctx, guideID, state)
}

// ListPublished returns the tourist browsing view.
func (s *TourService) ListPublished(ctx context.Context, filter repository.PublishedTourFilter) ([]domain.Tour, error) {
	return s.tours.ListPublished(ctx, filter)
}

// ListPurchased returns the tours the tourist has bought.
func (s *TourService) ListPurchased(ctx context.Context, touristID string) ([]domain.Tour, error) {
	purchases, err := s.purchases.ListByTourist(ctx, touristID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(purchases))
	for _, p := range purchases {
		ids = append(ids, p.TourID)
	}
	return s.tours.ListByIDs(ctx, ids)
}

// AddToCart puts a published, not yet purchased tour into the tourist's cart.
func (s *TourService) AddToCart(ctx context.Context, touristID, tourID string) error {
	tour, err := s.getTour(ctx, tourID)
	if err != nil {
		return err
	}
	if tour.State != domain.TourStatePublished {
		return apperrors.NewConflict("only published tours can be added to the cart",
			map[string]any{"state": tour.State})
	}
	purchased, err := s.purchases.Exists(ctx, touristID, tourID)
	if err != nil {
		return err
	}
	if purchased {
		return apperrors.NewConflict("tour already purchased", map[string]any{"tour_id": tourID})
	}
	return s.cart.Add(ctx, touristID, tourID)
}

// RemoveFromCart drops a tour from the tourist's cart.
func (s *TourService) RemoveFromCart(ctx context.Context, touristID, tourID string) error {
	return s.cart.Remove(ctx, touristID, tourID)
}

// GetCart resolves the tourist's cart into tours with guide names, the total
// price and the bonus points the tourist could spend on it.
func (s *TourService) GetCart(ctx context.Context, touristID string) (*CartView, error) {
	ids, err := s.cart.TourIDs(ctx, touristID)
	if err != nil {
		return nil, err
	}
	tours, err := s.tours.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &CartView{Items: make([]CartItem, 0, len(tours))}
	guideNames := make(map[string]string)
	for _, tour := range tours {
		name, ok := guideNames[tour.GuideID]
		if !ok {
			guide, err := s.users.GetByID(ctx, tour.GuideID)
			if err != nil {
				return nil, err
			}
			name = guide.FullName()
			guideNames[tour.GuideID] = name
		}
		view.Items = append(view.Items, CartItem{Tour: tour, GuideName: name})
		view.TotalPrice += tour.Price
	}

	tourist, err := s.users.GetByID(ctx, touristID)
	if err != nil {
		return nil, err
	}
	view.MaxUsableBonusPoints = tourist.BonusPoints
	if float64(view.MaxUsableBonusPoints) > view.TotalPrice {
		view.MaxUsableBonusPoints = int(view.TotalPrice)
	}
	return view, nil
}

// MonthlyReport builds the guide's report for the given month.
func (s *TourService) MonthlyReport(ctx context.Context, guideID string, year int, month time.Month) (*MonthlyReport, error) {
	monthTours, err := s.tours.ListByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	var tours []domain.Tour
	var ids []string
	for _, tour := range monthTours {
		if tour.GuideID == guideID {
			tours = append(tours, tour)
			ids = append(ids, tour.ID)
		}
	}

	purchases, err := s.purchases.ListByTourIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	salesByTour := make(map[string]int, len(ids))
	for _, p := range purchases {
		salesByTour[p.TourID]++
	}

	ratings, err := s.ratings.ListByTourIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	ratingSum := make(map[string]int)
	ratingCount := make(map[string]int)
	for _, r := range ratings {
		ratingSum[r.TourID] += r.Rating
		ratingCount[r.TourID]++
	}

	report := &MonthlyReport{Year: year, Month: month, Sales: make([]TourSales, 0, len(tours))}
	for _, tour := range tours {
		report.Sales = append(report.Sales, TourSales{Tour: tour, Sales: salesByTour[tour.ID]})
		count := ratingCount[tour.ID]
		if count == 0 {
			continue
		}
		rated := RatedTour{
			Tour:          tour,
			AverageRating: float64(ratingSum[tour.ID]) / float64(count),
			RatingsCount:  count,
		}
		if report.BestRated == nil || rated.AverageRating > report.BestRated.AverageRating {
			entry := rated
			report.BestRated = &entry
		}
		if report.WorstRated == nil || rated.AverageRating < report.WorstRated.AverageRating {
			entry := rated
			report.WorstRated = &entry
		}
	}
	return report, nil
}

func (s *TourService) getTour(ctx context.Context, tourID string) (*domain.Tour, error) {
	tour, err := s.tours.GetByID(ctx, tourID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("tour", map[string]any{"tour_id": tourID})
		}
		return nil, err
	}
	return tour, nil
}

func (s *TourService) getOwnedTour(ctx context.Context, guideID, tourID string) (*domain.Tour, error) {
	tour, err := s.getTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if tour.GuideID != guideID {
		return nil, apperrors.NewNotAuthorized("guides can only manage their own tours")
	}
	return tour, nil
}

// refundPurchasers credits every purchaser of a cancelled tour with bonus
// points equal to the tour price and emits a cancellation event per tourist.
func (s *TourService) refundPurchasers(ctx context.Context, tour *domain.Tour) error {
	purchases, err := s.purchases.ListByTour(ctx, tour.ID)
	if err != nil {
		return err
	}
	refund := int(tour.Price)
	for _, p := range purchases {
		tourist, err := s.users.GetByID(ctx, p.TouristID)
		if err != nil {
			return err
		}
		tourist.BonusPoints += refund
		if err := s.users.Update(ctx, tourist); err != nil {
			return err
		}
		s.publish(ctx, events.Event{
			Type: events.EventTourCancelled,
			Payload: events.TourCancelledPayload{
				TourID:         tour.ID,
				TourName:       tour.Name,
				TouristEmail:   tourist.Email,
				TouristName:    tourist.FullName(),
				RefundedPoints: refund,
			},
		})
	}
	return nil
}

func (s *TourService) checkAndMarkMaliciousGuide(ctx context.Context, guideID string) error {
	count, err := s.tours.CountCancelledByGuide(ctx, guideID)
	if err != nil {
		return err
	}
	if count < maliciousCancelledThreshold {
		return nil
	}
	guide, err := s.users.GetByID(ctx, guideID)
	if err != nil {
		return err
	}
	if guide.IsMalicious {
		return nil
	}
	guide.IsMalicious = true
	return s.users.Update(ctx, guide)
}

func validateTourFields(name, description, difficulty string, category domain.TourCategory, price float64) error {
	details := map[string]any{}
	if strings.TrimSpace(name) == "" {
		details["name"] = "required"
	}
	if strings.TrimSpace(description) == "" {
		details["description"] = "required"
	}
	if strings.TrimSpace(difficulty) == "" {
		details["difficulty"] = "required"
	}
	switch category {
	case domain.CategoryNature, domain.CategoryArt, domain.CategorySport, domain.CategoryShopping, domain.CategoryFood:
	default:
		details["category"] = "unknown category"
	}
	if price <= 0 {
		details["price"] = "must be positive"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("tour is incomplete", details)
	}
	return nil
}

func (s *TourService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
