package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tour-service/internal/domain"
	"github.com/spec-kit/tour-service/internal/events"
	"github.com/spec-kit/tour-service/internal/repository"
	apperrors "github.com/spec-kit/tour-service/pkg/util/errorutil"
)

// maliciousRejectedThreshold is the number of rejected problems after which a
// tourist is marked malicious.
const maliciousRejectedThreshold = 10

// ProblemService owns the tour-problem lifecycle: role-gated status
// transitions, the append-only event history and downstream consequences.
type ProblemService struct {
	problems   repository.ProblemRepository
	tours      repository.TourRepository
	purchases  repository.PurchaseRepository
	users      repository.UserRepository
	eventStore *ProblemEventStore
	dispatcher events.Dispatcher
	now        func() time.Time
}

// ProblemDependencies bundles collaborators for the problem service.
type ProblemDependencies struct {
	ProblemRepo  repository.ProblemRepository
	TourRepo     repository.TourRepository
	PurchaseRepo repository.PurchaseRepository
	UserRepo     repository.UserRepository
	EventStore   *ProblemEventStore
	Dispatcher   events.Dispatcher
}

// ReportProblemInput describes a new problem report.
type ReportProblemInput struct {
	TourID      string
	Title       string
	Description string
}

// NewProblemService constructs the service.
func NewProblemService(deps ProblemDependencies) *ProblemService {
	return &ProblemService{
		problems:   deps.ProblemRepo,
		tours:      deps.TourRepo,
		purchases:  deps.PurchaseRepo,
		users:      deps.UserRepo,
		eventStore: deps.EventStore,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// ReportProblem files a new problem against a purchased tour. The problem
// starts Pending and a Created event is appended to its history. The tour's
// guide is notified by email best-effort.
func (s *ProblemService) ReportProblem(ctx context.Context, touristID string, input ReportProblemInput) (*domain.TourProblem, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}

	purchased, err := s.purchases.Exists(ctx, touristID, input.TourID)
	if err != nil {
		return nil, err
	}
	if !purchased {
		return nil, apperrors.NewNotAuthorized("you can only report problems for tours you have purchased")
	}

	tour, err := s.tours.GetByID(ctx, input.TourID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("tour", map[string]any{"tour_id": input.TourID})
		}
		return nil, err
	}

	now := s.now().UTC()
	problem := &domain.TourProblem{
		TourID:      input.TourID,
		TouristID:   touristID,
		Title:       title,
		Description: description,
		Status:      domain.ProblemStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.problems.Create(ctx, problem); err != nil {
		return nil, err
	}

	created := domain.NewProblemCreatedEvent(uuid.NewString(), problem.ID, now, domain.ProblemCreatedPayload{
		TouristID:   touristID,
		TourID:      input.TourID,
		Title:       title,
		Description: description,
	})
	if err := s.eventStore.Append(ctx, created); err != nil {
		return nil, err
	}

	s.notifyGuide(ctx, tour, touristID, problem.ID)
	return problem, nil
}

// UpdateStatus moves a problem through the role-gated transition table:
// Guide may take Pending to Resolved or UnderReview on their own tours,
// Admin may take UnderReview to Pending, Rejected or Resolved. Every applied
// transition is recorded as a StatusChanged event. A tourist whose tenth
// problem is rejected gets marked malicious.
func (s *ProblemService) UpdateStatus(ctx context.Context, problemID string, newStatus domain.ProblemStatus, actorID string, actorRole domain.UserRole, comment *string) (*domain.TourProblem, error) {
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("unknown problem status", map[string]any{"status": newStatus})
	}

	problem, err := s.problems.GetByID(ctx, problemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("problem", map[string]any{"problem_id": problemID})
		}
		return nil, err
	}

	tour, err := s.tours.GetByID(ctx, problem.TourID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("tour", map[string]any{"tour_id": problem.TourID})
		}
		return nil, err
	}

	if actorRole == domain.RoleTourist {
		return nil, apperrors.NewNotAuthorized("tourists cannot change problem status")
	}
	if !domain.CanTransition(actorRole, problem.Status, newStatus) {
		return nil, apperrors.NewInvalidTransition(string(actorRole), string(problem.Status), string(newStatus))
	}
	if actorRole == domain.RoleGuide && tour.GuideID != actorID {
		return nil, apperrors.NewNotAuthorized("guides can only handle problems on their own tours")
	}

	oldStatus := problem.Status
	now := s.now().UTC()
	applied, err := s.problems.UpdateStatus(ctx, problem.ID, oldStatus, newStatus, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		// A concurrent transition committed first; our validation was
		// against a stale status.
		return nil, apperrors.NewInvalidTransition(string(actorRole), string(oldStatus), string(newStatus))
	}
	problem.Status = newStatus
	problem.UpdatedAt = now

	changed := domain.NewProblemStatusChangedEvent(uuid.NewString(), problem.ID, now, domain.ProblemStatusChangedPayload{
		UserID:    actorID,
		UserRole:  actorRole,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Comment:   comment,
	})
	if err := s.eventStore.Append(ctx, changed); err != nil {
		return nil, err
	}

	if newStatus == domain.ProblemStatusRejected {
		if err := s.checkAndMarkMaliciousTourist(ctx, problem.TouristID); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, events.Event{
		Type: events.EventProblemStatusChanged,
		Payload: events.ProblemStatusChangedPayload{
			ProblemID: problem.ID,
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	return problem, nil
}

// ListEvents returns a problem's full event history, oldest first.
func (s *ProblemService) ListEvents(ctx context.Context, problemID string) ([]domain.ProblemEvent, error) {
	return s.eventStore.ListByProblem(ctx, problemID)
}

// ListAllEvents returns the unfiltered audit log.
func (s *ProblemService) ListAllEvents(ctx context.Context) ([]domain.ProblemEvent, error) {
	return s.eventStore.ListAll(ctx)
}

// ListForTourist returns the tourist's own problems with tour names.
func (s *ProblemService) ListForTourist(ctx context.Context, touristID string) ([]repository.ProblemListing, error) {
	return s.problems.ListByTourist(ctx, touristID)
}

// ListForGuide returns problems reported on the guide's tours.
func (s *ProblemService) ListForGuide(ctx context.Context, guideID string) ([]repository.ProblemListing, error) {
	return s.problems.ListByGuide(ctx, guideID)
}

// ListAll returns every problem; admin moderation view.
func (s *ProblemService) ListAll(ctx context.Context) ([]repository.ProblemListing, error) {
	return s.problems.ListAll(ctx)
}

// checkAndMarkMaliciousTourist marks the tourist malicious once their
// rejected-problem count reaches the threshold. Re-marking is a no-op.
func (s *ProblemService) checkAndMarkMaliciousTourist(ctx context.Context, touristID string) error {
	count, err := s.problems.CountRejectedByTourist(ctx, touristID)
	if err != nil {
		return err
	}
	if count < maliciousRejectedThreshold {
		return nil
	}
	user, err := s.users.GetByID(ctx, touristID)
	if err != nil {
		return err
	}
	if user.IsMalicious {
		return nil
	}
	user.IsMalicious = true
	return s.users.Update(ctx, user)
}

func (s *ProblemService) notifyGuide(ctx context.Context, tour *domain.Tour, touristID, problemID string) {
	if s.dispatcher == nil {
		return
	}
	guide, err := s.users.GetByID(ctx, tour.GuideID)
	if err != nil {
		return
	}
	touristName := "A tourist"
	if tourist, err := s.users.GetByID(ctx, touristID); err == nil {
		touristName = tourist.FullName()
	}
	s.publish(ctx, events.Event{
		Type: events.EventProblemReported,
		Payload: events.ProblemReportedPayload{
			ProblemID:   problemID,
			TourID:      tour.ID,
			TourName:    tour.Name,
			TouristName: touristName,
			GuideEmail:  guide.Email,
			GuideName:   guide.FullName(),
		},
	})
}

func (s *ProblemService) publish(ctx context.Context, event events.Event) {
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
