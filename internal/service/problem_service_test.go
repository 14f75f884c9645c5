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

func newProblemFixture() (*ProblemService, *fakeProblemRepo, *fakeEventRepo, *fakeUserRepo, *recordingDispatcher) {
	problems := &fakeProblemRepo{}
	eventRepo := &fakeEventRepo{}
	dispatcher := &recordingDispatcher{}

	guide := &domain.User{ID: "guide-1", FirstName: "Ana", LastName: "Guide", Email: "ana@example.com", Role: domain.RoleGuide}
	tourist := &domain.User{ID: "tourist-1", FirstName: "Bob", LastName: "Tour", Email: "bob@example.com", Role: domain.RoleTourist}
	users := &fakeUserRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			switch id {
			case guide.ID:
				u := *guide
				return &u, nil
			case tourist.ID:
				u := *tourist
				return &u, nil
			}
			return nil, errNotFoundRow()
		},
	}
	tours := &fakeTourRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Tour, error) {
			if id != "tour-1" {
				return nil, errNotFoundRow()
			}
			return &domain.Tour{ID: "tour-1", GuideID: "guide-1", Name: "City walk", State: domain.TourStatePublished}, nil
		},
	}
	purchases := &fakePurchaseRepo{
		ExistsFn: func(ctx context.Context, touristID, tourID string) (bool, error) {
			return touristID == "tourist-1" && tourID == "tour-1", nil
		},
	}

	svc := NewProblemService(ProblemDependencies{
		ProblemRepo:  problems,
		TourRepo:     tours,
		PurchaseRepo: purchases,
		UserRepo:     users,
		EventStore:   NewProblemEventStore(eventRepo),
		Dispatcher:   dispatcher,
	})
	return svc, problems, eventRepo, users, dispatcher
}

func TestReportProblemRequiresPurchase(t *testing.T) {
	svc, _, _, _, _ := newProblemFixture()

	_, err := svc.ReportProblem(context.Background(), "tourist-2", ReportProblemInput{
		TourID:      "tour-1",
		Title:       "Late start",
		Description: "Guide was an hour late",
	})
	require.Error(t, err)
	assert.Equal(t, "NOT_AUTHORIZED", apperrors.ToDomainError(err).Code)
}

func TestReportProblemCreatesPendingAndAppendsEvent(t *testing.T) {
	svc, _, eventRepo, _, dispatcher := newProblemFixture()

	problem, err := svc.ReportProblem(context.Background(), "tourist-1", ReportProblemInput{
		TourID:      "tour-1",
		Title:       "Late start",
		Description: "Guide was an hour late",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ProblemStatusPending, problem.Status)

	require.Len(t, eventRepo.records, 1)
	assert.Equal(t, string(domain.ProblemEventCreated), eventRepo.records[0].EventType)
	assert.Equal(t, problem.ID, eventRepo.records[0].ProblemID)

	reported := dispatcher.byType(events.EventProblemReported)
	require.Len(t, reported, 1)
	payload, ok := reported[0].Payload.(events.ProblemReportedPayload)
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", payload.GuideEmail)
}

func TestUpdateStatusTouristForbidden(t *testing.T) {
	svc, problems, _, _, _ := newProblemFixture()
	problems.GetByIDFn = pendingProblem

	_, err := svc.UpdateStatus(context.Background(), "problem-1", domain.ProblemStatusResolved,
		"tourist-1", domain.RoleTourist, nil)
	require.Error(t, err)
	assert.Equal(t, "NOT_AUTHORIZED", apperrors.ToDomainError(err).Code)
}

func TestUpdateStatusGuideResolvesPending(t *testing.T) {
	svc, problems, eventRepo, _, _ := newProblemFixture()
	problems.GetByIDFn = pendingProblem

	updated, err := svc.UpdateStatus(context.Background(), "problem-1", domain.ProblemStatusResolved,
		"guide-1", domain.RoleGuide, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ProblemStatusResolved, updated.Status)

	require.Len(t, eventRepo.records, 1)
	assert.Equal(t, string(domain.ProblemEventStatusChanged), eventRepo.records[0].EventType)
}

func TestUpdateStatusGuideMustOwnTour(t *testing.T) {
	svc, problems, _, _, _ := newProblemFixture()
	problems.GetByIDFn = pendingProblem

	_, err := svc.UpdateStatus(context.Background(), "problem-1", domain.ProblemStatusResolved,
		"guide-2", domain.RoleGuide, nil)
	require.Error(t, err)
	assert.Equal(t, "NOT_AUTHORIZED", apperrors.ToDomainError(err).Code)
}

func TestUpdateStatusRejectsDisallowedTransition(t *testing.T) {
	svc, problems, _, _, _ := newProblemFixture()
	problems.GetByIDFn = pendingProblem

	// Admin may only act on problems under review.
	_, err := svc.UpdateStatus(context.Background(), "problem-1", domain.ProblemStatusRejected,
		"admin-1", domain.RoleAdmin, nil)
	require.Error(t, err)
	assert.Equal(t, "INVALID_TRANSITION", apperrors.ToDomainError(err).Code)
}

func TestUpdateStatusConcurrentWriterLoses(t *testing.T) {
	svc, problems, eventRepo, _, _ := newProblemFixture()
	problems.GetByIDFn = pendingProblem
	problems.UpdateStatusFn = func(ctx context.Context, id string, oldStatus, newStatus domain.ProblemStatus, updatedAt time.Time) (bool, error) {
		return false, nil
	}

	_, err := svc.UpdateStatus(context.Background(), "problem-1", domain.ProblemStatusResolved,
		"guide-1", domain.RoleGuide, nil)
	require.Error(t, err)
	assert.Equal(t, "INVALID_TRANSITION", apperrors.ToDomainError(err).Code)
	assert.Empty(t, eventRepo.records, "no event for a lost CAS")
}

func TestUpdateStatusRejectionMarksMaliciousAtThreshold(t *testing.T) {
	for _, tc := range []struct {
		name      string
		rejected  int
		malicious bool
	}{
		{"below threshold", 9, false},
		{"at threshold", 10, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			svc, problems, _, users, _ := newProblemFixture()
			problems.GetByIDFn = underReviewProblem
			problems.CountRejectedByTouristFn = func(ctx context.Context, touristID string) (int, error) {
				return tc.rejected, nil
			}
			var updated *domain.User
			users.UpdateFn = func(ctx context.Context, user *domain.User) error {
				updated = user
				return nil
			}

			_, err := svc.UpdateStatus(context.Background(), "problem-1", domain.ProblemStatusRejected,
				"admin-1", domain.RoleAdmin, nil)
			require.NoError(t, err)

			if tc.malicious {
				require.NotNil(t, updated)
				assert.True(t, updated.IsMalicious)
			} else {
				assert.Nil(t, updated)
			}
		})
	}
}

func TestUpdateStatusRecordsComment(t *testing.T) {
	svc, problems, eventRepo, _, _ := newProblemFixture()
	problems.GetByIDFn = underReviewProblem

	comment := "needs more info from the tourist"
	_, err := svc.UpdateStatus(context.Background(), "problem-1", domain.ProblemStatusPending,
		"admin-1", domain.RoleAdmin, &comment)
	require.NoError(t, err)

	history, err := svc.ListEvents(context.Background(), "problem-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].StatusChanged)
	require.NotNil(t, history[0].StatusChanged.Comment)
	assert.Equal(t, comment, *history[0].StatusChanged.Comment)
	assert.Len(t, eventRepo.records, 1)
}

func pendingProblem(ctx context.Context, id string) (*domain.TourProblem, error) {
	return problemWithStatus(id, domain.ProblemStatusPending)
}

func underReviewProblem(ctx context.Context, id string) (*domain.TourProblem, error) {
	return problemWithStatus(id, domain.ProblemStatusUnderReview)
}

func problemWithStatus(id string, status domain.ProblemStatus) (*domain.TourProblem, error) {
	if id != "problem-1" {
		return nil, errNotFoundRow()
	}
	return &domain.TourProblem{
		ID:        "problem-1",
		TourID:    "tour-1",
		TouristID: "tourist-1",
		Title:     "Late start",
		Status:    status,
	}, nil
}
