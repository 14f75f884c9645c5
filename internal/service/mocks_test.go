package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tour-service/internal/domain"
	"github.com/spec-kit/tour-service/internal/events"
	"github.com/spec-kit/tour-service/internal/repository"
)

// Function-field fakes keep each test focused on the behavior under test;
// unset fields fall back to empty results or pgx.ErrNoRows.

func errNotFoundRow() error {
	return pgx.ErrNoRows
}

type fakeUserRepo struct {
	CreateFn        func(ctx context.Context, user *domain.User) error
	UpdateFn        func(ctx context.Context, user *domain.User) error
	GetByIDFn       func(ctx context.Context, id string) (*domain.User, error)
	GetByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	GetByEmailFn    func(ctx context.Context, email string) (*domain.User, error)
	ListByRoleFn    func(ctx context.Context, role domain.UserRole) ([]domain.User, error)
	ListMaliciousFn func(ctx context.Context) ([]domain.User, error)
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, user)
	}
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, user)
	}
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if f.GetByUsernameFn != nil {
		return f.GetByUsernameFn(ctx, username)
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.GetByEmailFn != nil {
		return f.GetByEmailFn(ctx, email)
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	if f.ListByRoleFn != nil {
		return f.ListByRoleFn(ctx, role)
	}
	return nil, nil
}

func (f *fakeUserRepo) ListMalicious(ctx context.Context) ([]domain.User, error) {
	if f.ListMaliciousFn != nil {
		return f.ListMaliciousFn(ctx)
	}
	return nil, nil
}

type fakeTourRepo struct {
	CreateFn                func(ctx context.Context, tour *domain.Tour) error
	UpdateFn                func(ctx context.Context, tour *domain.Tour) error
	GetByIDFn               func(ctx context.Context, id string) (*domain.Tour, error)
	AddKeyPointFn           func(ctx context.Context, kp *domain.KeyPoint) error
	ListByGuideFn           func(ctx context.Context, guideID string, state *domain.TourState) ([]domain.Tour, error)
	ListPublishedFn         func(ctx context.Context, filter repository.PublishedTourFilter) ([]domain.Tour, error)
	ListByIDsFn             func(ctx context.Context, ids []string) ([]domain.Tour, error)
	ListPublishedBetweenFn  func(ctx context.Context, from, to time.Time) ([]domain.Tour, error)
	ListByMonthFn           func(ctx context.Context, year int, month time.Month) ([]domain.Tour, error)
	CountCancelledByGuideFn func(ctx context.Context, guideID string) (int, error)
}

func (f *fakeTourRepo) Create(ctx context.Context, tour *domain.Tour) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, tour)
	}
	tour.ID = "tour-1"
	return nil
}

func (f *fakeTourRepo) Update(ctx context.Context, tour *domain.Tour) error {
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, tour)
	}
	return nil
}

func (f *fakeTourRepo) GetByID(ctx context.Context, id string) (*domain.Tour, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTourRepo) AddKeyPoint(ctx context.Context, kp *domain.KeyPoint) error {
	if f.AddKeyPointFn != nil {
		return f.AddKeyPointFn(ctx, kp)
	}
	return nil
}

func (f *fakeTourRepo) ListByGuide(ctx context.Context, guideID string, state *domain.TourState) ([]domain.Tour, error) {
	if f.ListByGuideFn != nil {
		return f.ListByGuideFn(ctx, guideID, state)
	}
	return nil, nil
}

func (f *fakeTourRepo) ListPublished(ctx context.Context, filter repository.PublishedTourFilter) ([]domain.Tour, error) {
	if f.ListPublishedFn != nil {
		return f.ListPublishedFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakeTourRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Tour, error) {
	if f.ListByIDsFn != nil {
		return f.ListByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (f *fakeTourRepo) ListPublishedBetween(ctx context.Context, from, to time.Time) ([]domain.Tour, error) {
	if f.ListPublishedBetweenFn != nil {
		return f.ListPublishedBetweenFn(ctx, from, to)
	}
	return nil, nil
}

func (f *fakeTourRepo) ListByMonth(ctx context.Context, year int, month time.Month) ([]domain.Tour, error) {
	if f.ListByMonthFn != nil {
		return f.ListByMonthFn(ctx, year, month)
	}
	return nil, nil
}

func (f *fakeTourRepo) CountCancelledByGuide(ctx context.Context, guideID string) (int, error) {
	if f.CountCancelledByGuideFn != nil {
		return f.CountCancelledByGuideFn(ctx, guideID)
	}
	return 0, nil
}

type fakePurchaseRepo struct {
	CreateFn        func(ctx context.Context, purchase *domain.Purchase) error
	ExistsFn        func(ctx context.Context, touristID, tourID string) (bool, error)
	ListByTouristFn func(ctx context.Context, touristID string) ([]domain.Purchase, error)
	ListByTourFn    func(ctx context.Context, tourID string) ([]domain.Purchase, error)
	ListByTourIDsFn func(ctx context.Context, tourIDs []string) ([]domain.Purchase, error)
}

func (f *fakePurchaseRepo) Create(ctx context.Context, purchase *domain.Purchase) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, purchase)
	}
	purchase.ID = "purchase-1"
	return nil
}

func (f *fakePurchaseRepo) Exists(ctx context.Context, touristID, tourID string) (bool, error) {
	if f.ExistsFn != nil {
		return f.ExistsFn(ctx, touristID, tourID)
	}
	return false, nil
}

func (f *fakePurchaseRepo) ListByTourist(ctx context.Context, touristID string) ([]domain.Purchase, error) {
	if f.ListByTouristFn != nil {
		return f.ListByTouristFn(ctx, touristID)
	}
	return nil, nil
}

func (f *fakePurchaseRepo) ListByTour(ctx context.Context, tourID string) ([]domain.Purchase, error) {
	if f.ListByTourFn != nil {
		return f.ListByTourFn(ctx, tourID)
	}
	return nil, nil
}

func (f *fakePurchaseRepo) ListByTourIDs(ctx context.Context, tourIDs []string) ([]domain.Purchase, error) {
	if f.ListByTourIDsFn != nil {
		return f.ListByTourIDsFn(ctx, tourIDs)
	}
	return nil, nil
}

type fakeRatingRepo struct {
	CreateFn        func(ctx context.Context, rating *domain.TourRating) error
	ExistsFn        func(ctx context.Context, touristID, tourID string) (bool, error)
	ListByTourIDsFn func(ctx context.Context, tourIDs []string) ([]domain.TourRating, error)
}

func (f *fakeRatingRepo) Create(ctx context.Context, rating *domain.TourRating) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, rating)
	}
	rating.ID = "rating-1"
	return nil
}

func (f *fakeRatingRepo) Exists(ctx context.Context, touristID, tourID string) (bool, error) {
	if f.ExistsFn != nil {
		return f.ExistsFn(ctx, touristID, tourID)
	}
	return false, nil
}

func (f *fakeRatingRepo) ListByTourIDs(ctx context.Context, tourIDs []string) ([]domain.TourRating, error) {
	if f.ListByTourIDsFn != nil {
		return f.ListByTourIDsFn(ctx, tourIDs)
	}
	return nil, nil
}

type fakeProblemRepo struct {
	CreateFn                 func(ctx context.Context, problem *domain.TourProblem) error
	GetByIDFn                func(ctx context.Context, id string) (*domain.TourProblem, error)
	UpdateStatusFn           func(ctx context.Context, id string, oldStatus, newStatus domain.ProblemStatus, updatedAt time.Time) (bool, error)
	CountRejectedByTouristFn func(ctx context.Context, touristID string) (int, error)
	ListByTouristFn          func(ctx context.Context, touristID string) ([]repository.ProblemListing, error)
	ListByGuideFn            func(ctx context.Context, guideID string) ([]repository.ProblemListing, error)
	ListAllFn                func(ctx context.Context) ([]repository.ProblemListing, error)
}

func (f *fakeProblemRepo) Create(ctx context.Context, problem *domain.TourProblem) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, problem)
	}
	problem.ID = "problem-1"
	return nil
}

func (f *fakeProblemRepo) GetByID(ctx context.Context, id string) (*domain.TourProblem, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeProblemRepo) UpdateStatus(ctx context.Context, id string, oldStatus, newStatus domain.ProblemStatus, updatedAt time.Time) (bool, error) {
	if f.UpdateStatusFn != nil {
		return f.UpdateStatusFn(ctx, id, oldStatus, newStatus, updatedAt)
	}
	return true, nil
}

func (f *fakeProblemRepo) CountRejectedByTourist(ctx context.Context, touristID string) (int, error) {
	if f.CountRejectedByTouristFn != nil {
		return f.CountRejectedByTouristFn(ctx, touristID)
	}
	return 0, nil
}

func (f *fakeProblemRepo) ListByTourist(ctx context.Context, touristID string) ([]repository.ProblemListing, error) {
	if f.ListByTouristFn != nil {
		return f.ListByTouristFn(ctx, touristID)
	}
	return nil, nil
}

func (f *fakeProblemRepo) ListByGuide(ctx context.Context, guideID string) ([]repository.ProblemListing, error) {
	if f.ListByGuideFn != nil {
		return f.ListByGuideFn(ctx, guideID)
	}
	return nil, nil
}

func (f *fakeProblemRepo) ListAll(ctx context.Context) ([]repository.ProblemListing, error) {
	if f.ListAllFn != nil {
		return f.ListAllFn(ctx)
	}
	return nil, nil
}

// fakeEventRepo stores appended records in memory.
type fakeEventRepo struct {
	records  []repository.ProblemEventRecord
	AppendFn func(ctx context.Context, record *repository.ProblemEventRecord) error
}

func (f *fakeEventRepo) Append(ctx context.Context, record *repository.ProblemEventRecord) error {
	if f.AppendFn != nil {
		return f.AppendFn(ctx, record)
	}
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeEventRepo) ListByProblem(ctx context.Context, problemID string) ([]repository.ProblemEventRecord, error) {
	var out []repository.ProblemEventRecord
	for _, record := range f.records {
		if record.ProblemID == problemID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListAll(ctx context.Context) ([]repository.ProblemEventRecord, error) {
	return f.records, nil
}

// fakeCart is an in-memory cart store.
type fakeCart struct {
	items map[string]map[string]bool
}

func newFakeCart() *fakeCart {
	return &fakeCart{items: make(map[string]map[string]bool)}
}

func (f *fakeCart) Add(ctx context.Context, touristID, tourID string) error {
	if f.items[touristID] == nil {
		f.items[touristID] = make(map[string]bool)
	}
	f.items[touristID][tourID] = true
	return nil
}

func (f *fakeCart) Remove(ctx context.Context, touristID, tourID string) error {
	delete(f.items[touristID], tourID)
	return nil
}

func (f *fakeCart) TourIDs(ctx context.Context, touristID string) ([]string, error) {
	var out []string
	for id := range f.items[touristID] {
		out = append(out, id)
	}
	return out, nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, event := range d.published {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}
