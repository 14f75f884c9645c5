package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tour-service/internal/domain"
	"github.com/spec-kit/tour-service/internal/events"
	apperrors "github.com/spec-kit/tour-service/pkg/util/errorutil"
)

var testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type tourFixture struct {
	svc       *TourService
	tours     *fakeTourRepo
	purchases *fakePurchaseRepo
	ratings   *fakeRatingRepo
	users     *fakeUserRepo
	cart      *fakeCart
	events    *recordingDispatcher
}

func newTourFixture() *tourFixture {
	f := &tourFixture{
		tours:     &fakeTourRepo{},
		purchases: &fakePurchaseRepo{},
		ratings:   &fakeRatingRepo{},
		users:     &fakeUserRepo{},
		cart:      newFakeCart(),
		events:    &recordingDispatcher{},
	}
	f.svc = NewTourService(TourDependencies{
		TourRepo:     f.tours,
		PurchaseRepo: f.purchases,
		RatingRepo:   f.ratings,
		UserRepo:     f.users,
		Cart:         f.cart,
		Dispatcher:   f.events,
	})
	f.svc.now = func() time.Time { return testNow }
	return f
}

func completeTour(state domain.TourState, keyPoints int) *domain.Tour {
	tour := &domain.Tour{
		ID:          "tour-1",
		GuideID:     "guide-1",
		Name:        "City walk",
		Description: "A walk through the old town",
		Difficulty:  "easy",
		Category:    domain.CategoryArt,
		Price:       60,
		Date:        testNow.Add(72 * time.Hour),
		State:       state,
	}
	for i := 0; i < keyPoints; i++ {
		tour.KeyPoints = append(tour.KeyPoints, domain.KeyPoint{ID: "kp", TourID: tour.ID})
	}
	return tour
}

func TestPublishTourRequiresTwoKeyPoints(t *testing.T) {
	f := newTourFixture()
	f.tours.GetByIDFn = func(ctx context.Context, id string) (*domain.Tour, error) {
		return completeTour(domain.TourStateDraft, 1), nil
	}

	_, err := f.svc.PublishTour(context.Background(), "guide-1", "tour-1")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestPublishTourFlipsStateForCompleteDraft(t *testing.T) {
	f := newTourFixture()
	f.tours.GetByIDFn = func(ctx context.Context, id string) (*domain.Tour, error) {
		return completeTour(domain.TourStateDraft, 2), nil
	}
	var saved *domain.Tour
	f.tours.UpdateFn = func(ctx context.Context, tour *domain.Tour) error {
		saved = tour
		return nil
	}

	tour, err := f.svc.PublishTour(context.Background(), "guide-1", "tour-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TourStatePublished, tour.State)
	require.NotNil(t, saved)
	assert.Equal(t, domain.TourStatePublished, saved.State)
}

func TestPublishTourOwnerOnly(t *testing.T) {
	f := newTourFixture()
	f.tours.GetByIDFn = func(ctx context.Context, id string) (*domain.Tour, error) {
		return completeTour(domain.TourStateDraft, 2), nil
	}

	_, err := f.svc.PublishTour(context.Background(), "guide-2", "tour-1")
	require.Error(t, err)
	assert.Equal(t, "NOT_AUTHORIZED", apperrors.ToDomainError(err).Code)
}

func TestCancelTourTooLateRefused(t *testing.T) {
	f := newTourFixture()
	f.tours.GetByIDFn = func(ctx context.Context, id string) (*domain.Tour, error) {
		tour := completeTour(domain.TourStatePublished, 2)
		tour.Date = testNow.Add(12 * time.Hour)
		return tour, nil
	}

	_, err := f.svc.CancelTour(context.Background(), "guide-1", "tour-1")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestCancelTourRefundsPurchasers(t *testing.T) {
	f := newTourFixture()
	f.tours.GetByIDFn = func(ctx context.Context, id string) (*domain.Tour, error) {
		return completeTour(domain.TourStatePublished, 2), nil
	}
	f.purchases.ListByTourFn = func(ctx context.Context, tourID string) ([]domain.Purchase, error) {
		return []domain.Purchase{
			{TouristID: "tourist-1", TourID: tourID},
			{TouristID: "tourist-2", TourID: tourID},
		}, nil
	}
	balances := map[string]int{"tourist-1": 5, "tourist-2": 0}
	f.users.GetByIDFn = func(ctx context.Context, id string) (*domain.User, error) {
		return &domain.User{ID: id, Email: id + "@example.com", BonusPoints: balances[id], Role: domain.RoleTourist}, nil
	}
	f.users.UpdateFn = func(ctx context.Context, user *domain.User) error {
		balances[user.ID] = user.BonusPoints
		return nil
	}

	tour, err := f.svc.CancelTour(context.Background(), "guide-1", "tour-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TourStateCancelled, tour.State)
	assert.Equal(t, 65, balances["tourist-1"])
	assert.Equal(t, 60, balances["tourist-2"])
	assert.Len(t, f.events.byType(events.EventTourCancelled), 2)
}

func TestCancelTourTenthMarksGuideMalicious(t *testing.T) {
	f := newTourFixture()
	f.tours.GetByIDFn = func(ctx context.Context, id string) (*domain.Tour, error) {
		return completeTour(domain.TourStatePublished, 2), nil
	}
	f.tours.CountCancelledByGuideFn = func(ctx context.Context, guideID string) (int, error) {
		return 10, nil
	}
	var updated *domain.User
	f.users.GetByIDFn = func(ctx context.Context, id string) (*domain.User, error) {
		return &domain.User{ID: id, Role: domain.RoleGuide}, nil
	}
	f.users.UpdateFn = func(ctx context.Context, user *domain.User) error {
		updated = user
		return nil
	}

	_, err := f.svc.CancelTour(context.Background(), "guide-1", "tour-1")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "guide-1", updated.ID)
	assert.True(t, updated.IsMalicious)
}

func TestPurchaseDuplicateRefused(t *testing.T) {
	f := newTourFixture()
	f.tours.GetByIDFn = func(ctx context.Context, id string) (*domain.Tour, error) {
		return completeTour(domain.TourStatePublished, 2), nil
	}
	f.purchases.ExistsFn = func(ctx context.Context, touristID, tourID string) (bool, error) {
		return true, nil
	}

	_, err := f.svc.Purchase(context.Background(), "tourist-1", PurchaseInput{TourID: "tour-1"})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestPurchaseOnlyPublishedTours(t *testing.T) {
	f := newTourFixture()
	f.tours.GetByIDFn = func(ctx context.Context, id string) (*domain.Tour, error) {
		return completeTour(domain.TourStateDraft, 2), nil
	}

	_, err := f.svc.Purchase(context.Background(), "tourist-1", PurchaseInput{TourID: "tour-1"})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestPurchaseClampsBonusPoints(t *testing.T) {
	for _, tc := range []struct {
		name      string
		balance   int
		requested int
		wantUsed  int
		wantPrice float64
	}{
		{"limited by balance", 50, 80, 50, 10},
		{"limited by price", 200, 200, 60, 0},
		{"no points requested", 50, 0, 0, 60},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newTourFixture()
			f.tours.GetByIDFn = func(ctx context.Context, id string) (*domain.Tour, error) {
				return completeTour(domain.TourStatePublished, 2), nil
			}
			tourist := &domain.User{ID: "tourist-1", Email: "bob@example.com", BonusPoints: tc.balance, Role: domain.RoleTourist}
			f.users.GetByIDFn = func(ctx context.Context, id string) (*domain.User, error) {
				return tourist, nil
			}

			purchase, err := f.svc.Purchase(context.Background(), "tourist-1", PurchaseInput{
				TourID:         "tour-1",
				UseBonusPoints: tc.requested,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.wantUsed, purchase.UsedBonusPoints)
			assert.Equal(t, tc.wantPrice, purchase.FinalPrice)
			assert.Equal(t, tc.balance-tc.wantUsed, tourist.BonusPoints)
		})
	}
}

func TestPurchaseRemovesTourFromCart(t *testing.T) {
	f := newTourFixture()
	f.tours.GetByIDFn = func(ctx context.Context, id string) (*domain.Tour, error) {
		return completeTour(domain.TourStatePublished, 2), nil
	}
	f.users.GetByIDFn = func(ctx context.Context, id string) (*domain.User, error) {
		return &domain.User{ID: id, Role: domain.RoleTourist}, nil
	}
	require.NoError(t, f.cart.Add(context.Background(), "tourist-1", "tour-1"))

	_, err := f.svc.Purchase(context.Background(), "tourist-1", PurchaseInput{TourID: "tour-1"})
	require.NoError(t, err)

	ids, err := f.cart.TourIDs(context.Background(), "tourist-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Len(t, f.events.byType(events.EventTourPurchased), 1)
}

func TestRateTourTimingRules(t *testing.T) {
	for _, tc := range []struct {
		name     string
		tourDate time.Time
		wantCode string
	}{
		{"before the tour", testNow.Add(24 * time.Hour), "CONFLICT"},
		{"window expired", testNow.Add(-31 * 24 * time.Hour), "CONFLICT"},
		{"inside window", testNow.Add(-5 * 24 * time.Hour), ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newTourFixture()
			f.tours.GetByIDFn = func(ctx context.Context, id string) (*domain.Tour, error) {
				tour := completeTour(domain.TourStatePublished, 2)
				tour.Date = tc.tourDate
				return tour, nil
			}
			f.purchases.ExistsFn = func(ctx context.Context, touristID, tourID string) (bool, error) {
				return true, nil
			}

			_, err := f.svc.RateTour(context.Background(), "tourist-1", RateTourInput{TourID: "tour-1", Rating: 4})
			if tc.wantCode == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tc.wantCode, apperrors.ToDomainError(err).Code)
			}
		})
	}
}

func TestRateTourLowRatingNeedsComment(t *testing.T) {
	f := newTourFixture()

	_, err := f.svc.RateTour(context.Background(), "tourist-1", RateTourInput{TourID: "tour-1", Rating: 2})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestRateTourOnlyOnce(t *testing.T) {
	f := newTourFixture()
	f.tours.GetByIDFn = func(ctx context.Context, id string) (*domain.Tour, error) {
		tour := completeTour(domain.TourStatePublished, 2)
		tour.Date = testNow.Add(-24 * time.Hour)
		return tour, nil
	}
	f.purchases.ExistsFn = func(ctx context.Context, touristID, tourID string) (bool, error) {
		return true, nil
	}
	f.ratings.ExistsFn = func(ctx context.Context, touristID, tourID string) (bool, error) {
		return true, nil
	}

	_, err := f.svc.RateTour(context.Background(), "tourist-1", RateTourInput{TourID: "tour-1", Rating: 5})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestRateTourRequiresPurchase(t *testing.T) {
	f := newTourFixture()
	f.tours.GetByIDFn = func(ctx context.Context, id string) (*domain.Tour, error) {
		tour := completeTour(domain.TourStatePublished, 2)
		tour.Date = testNow.Add(-24 * time.Hour)
		return tour, nil
	}

	_, err := f.svc.RateTour(context.Background(), "tourist-1", RateTourInput{TourID: "tour-1", Rating: 4})
	require.Error(t, err)
	assert.Equal(t, "NOT_AUTHORIZED", apperrors.ToDomainError(err).Code)
}

func TestGetCartResolvesToursAndBonusCap(t *testing.T) {
	f := newTourFixture()
	require.NoError(t, f.cart.Add(context.Background(), "tourist-1", "tour-1"))
	require.NoError(t, f.cart.Add(context.Background(), "tourist-1", "tour-2"))

	f.tours.ListByIDsFn = func(ctx context.Context, ids []string) ([]domain.Tour, error) {
		return []domain.Tour{
			{ID: "tour-1", GuideID: "guide-1", Name: "City walk", Price: 60},
			{ID: "tour-2", GuideID: "guide-1", Name: "Food tour", Price: 40},
		}, nil
	}
	f.users.GetByIDFn = func(ctx context.Context, id string) (*domain.User, error) {
		if id == "guide-1" {
			return &domain.User{ID: id, FirstName: "Ana", LastName: "Guide"}, nil
		}
		return &domain.User{ID: id, BonusPoints: 250}, nil
	}

	view, err := f.svc.GetCart(context.Background(), "tourist-1")
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, 100.0, view.TotalPrice)
	assert.Equal(t, 100, view.MaxUsableBonusPoints, "capped at the cart total")
	assert.Equal(t, "Ana Guide", view.Items[0].GuideName)
}

func TestAddToCartRequiresPublishedTour(t *testing.T) {
	f := newTourFixture()
	f.tours.GetByIDFn = func(ctx context.Context, id string) (*domain.Tour, error) {
		return completeTour(domain.TourStateDraft, 2), nil
	}

	err := f.svc.AddToCart(context.Background(), "tourist-1", "tour-1")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestMonthlyReportAggregatesSalesAndRatings(t *testing.T) {
	f := newTourFixture()
	f.tours.ListByMonthFn = func(ctx context.Context, year int, month time.Month) ([]domain.Tour, error) {
		return []domain.Tour{
			{ID: "tour-1", GuideID: "guide-1", Name: "City walk"},
			{ID: "tour-2", GuideID: "guide-1", Name: "Food tour"},
			{ID: "tour-3", GuideID: "guide-2", Name: "Someone else's"},
		}, nil
	}
	f.purchases.ListByTourIDsFn = func(ctx context.Context, tourIDs []string) ([]domain.Purchase, error) {
		return []domain.Purchase{
			{TourID: "tour-1"}, {TourID: "tour-1"}, {TourID: "tour-2"},
		}, nil
	}
	f.ratings.ListByTourIDsFn = func(ctx context.Context, tourIDs []string) ([]domain.TourRating, error) {
		return []domain.TourRating{
			{TourID: "tour-1", Rating: 5},
			{TourID: "tour-1", Rating: 4},
			{TourID: "tour-2", Rating: 2},
		}, nil
	}

	report, err := f.svc.MonthlyReport(context.Background(), "guide-1", 2026, time.May)
	require.NoError(t, err)
	require.Len(t, report.Sales, 2, "other guides' tours excluded")
	assert.Equal(t, 2, report.Sales[0].Sales)

	require.NotNil(t, report.BestRated)
	assert.Equal(t, "tour-1", report.BestRated.Tour.ID)
	assert.InDelta(t, 4.5, report.BestRated.AverageRating, 0.001)
	require.NotNil(t, report.WorstRated)
	assert.Equal(t, "tour-2", report.WorstRated.Tour.ID)
}

func TestCreateTourRejectsPastDate(t *testing.T) {
	f := newTourFixture()

	_, err := f.svc.CreateTour(context.Background(), "guide-1", CreateTourInput{
		Name:        "City walk",
		Description: "desc",
		Difficulty:  "easy",
		Category:    domain.CategoryArt,
		Price:       10,
		Date:        testNow.Add(-time.Hour),
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestAddKeyPointOnlyOnDrafts(t *testing.T) {
	f := newTourFixture()
	f.tours.GetByIDFn = func(ctx context.Context, id string) (*domain.Tour, error) {
		return completeTour(domain.TourStatePublished, 2), nil
	}

	_, err := f.svc.AddKeyPoint(context.Background(), "guide-1", AddKeyPointInput{TourID: "tour-1", Name: "Square"})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}
