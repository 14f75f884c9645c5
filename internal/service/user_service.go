package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tour-service/internal/auth"
	"github.com/spec-kit/tour-service/internal/domain"
	"github.com/spec-kit/tour-service/internal/events"
	"github.com/spec-kit/tour-service/internal/repository"
	apperrors "github.com/spec-kit/tour-service/pkg/util/errorutil"
)

// awardedGuideThreshold is the number of award points at which a guide earns
// the awarded-guide badge.
const awardedGuideThreshold = 5

// UserService handles accounts: registration, login, moderation and the
// monthly best-guide award.
type UserService struct {
	users      repository.UserRepository
	tours      repository.TourRepository
	purchases  repository.PurchaseRepository
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	bcryptCost int
	now        func() time.Time
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo     repository.UserRepository
	TourRepo     repository.TourRepository
	PurchaseRepo repository.PurchaseRepository
	Tokens       *auth.TokenManager
	Dispatcher   events.Dispatcher
	BcryptCost   int
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		tours:      deps.TourRepo,
		purchases:  deps.PurchaseRepo,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		bcryptCost: deps.BcryptCost,
		now:        time.Now,
	}
}

// RegisterInput describes a new tourist account.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
	Interests []domain.Interest
}

// LoginResult carries the issued token alongside the authenticated user.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// RegisterTourist creates a tourist account. Usernames and emails are unique;
// a welcome email is sent best-effort.
func (s *UserService) RegisterTourist(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if username == "" || input.Password == "" || email == "" {
		return nil, apperrors.NewValidationError("username, password and email are required", nil)
	}
	for _, interest := range input.Interests {
		switch interest {
		case domain.InterestNature, domain.InterestArt, domain.InterestSport, domain.InterestShopping, domain.InterestFood:
		default:
			return nil, apperrors.NewValidationError("unknown interest", map[string]any{"interest": interest})
		}
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("username already taken", map[string]any{"username": username})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		Role:         domain.RoleTourist,
		Interests:    input.Interests,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type: events.EventUserRegistered,
		Payload: events.UserRegisteredPayload{
			UserID:    user.ID,
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
		},
	})
	return user, nil
}

// Login authenticates by username and password and issues a JWT carrying the
// user's role. Blocked accounts are refused.
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if user.IsBlocked {
		return nil, apperrors.NewNotAuthorized("account is blocked")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// GetByID loads a single account.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, err
	}
	return user, nil
}

// ListMalicious returns accounts flagged malicious; the admin moderation view.
func (s *UserService) ListMalicious(ctx context.Context) ([]domain.User, error) {
	return s.users.ListMalicious(ctx)
}

// Block disables an account and notifies its owner. Blocking an already
// blocked account is a no-op.
func (s *UserService) Block(ctx context.Context, userID string) (*domain.User, error) {
	return s.setBlocked(ctx, userID, true)
}

// Unblock reinstates an account and notifies its owner.
func (s *UserService) Unblock(ctx context.Context, userID string) (*domain.User, error) {
	return s.setBlocked(ctx, userID, false)
}

func (s *UserService) setBlocked(ctx context.Context, userID string, blocked bool) (*domain.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked == blocked {
		return user, nil
	}
	user.IsBlocked = blocked
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	eventType := events.EventUserBlocked
	if !blocked {
		eventType = events.EventUserUnblocked
	}
	s.publish(ctx, events.Event{
		Type: eventType,
		Payload: events.UserBlockStatusPayload{
			UserID:   user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	})
	return user, nil
}

// AwardBestGuide grants an award point to the guide with the most sales in
// the given month. A guide reaching five award points becomes an awarded
// guide. Returns the winner, or nil when the month had no sales.
func (s *UserService) AwardBestGuide(ctx context.Context, year int, month time.Month) (*domain.User, error) {
	tours, err := s.tours.ListByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	if len(tours) == 0 {
		return nil, nil
	}

	guideByTour := make(map[string]string, len(tours))
	ids := make([]string, 0, len(tours))
	for _, tour := range tours {
		guideByTour[tour.ID] = tour.GuideID
		ids = append(ids, tour.ID)
	}
	purchases, err := s.purchases.ListByTourIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	salesByGuide := make(map[string]int)
	for _, p := range purchases {
		salesByGuide[guideByTour[p.TourID]]++
	}

	var bestGuideID string
	var bestSales int
	for guideID, sales := range salesByGuide {
		if sales > bestSales || (sales == bestSales && guideID < bestGuideID) {
			bestGuideID = guideID
			bestSales = sales
		}
	}
	if bestGuideID == "" {
		return nil, nil
	}

	guide, err := s.users.GetByID(ctx, bestGuideID)
	if err != nil {
		return nil, err
	}
	guide.AwardPoints++
	if guide.AwardPoints >= awardedGuideThreshold {
		guide.IsAwardedGuide = true
	}
	if err := s.users.Update(ctx, guide); err != nil {
		return nil, err
	}
	return guide, nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
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
