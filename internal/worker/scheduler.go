// Package worker runs the recurring background jobs: tour start reminders,
// recommendations for freshly published tours and the monthly best-guide
// award.
package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/tour-service/internal/config"
	"github.com/spec-kit/tour-service/internal/domain"
	"github.com/spec-kit/tour-service/internal/mail"
	"github.com/spec-kit/tour-service/internal/repository"
	"github.com/spec-kit/tour-service/internal/service"
)

// Scheduler wires the cron jobs. Jobs log their errors and never panic; a
// failed run is simply retried on the next tick.
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.JobsConfig
	tours     repository.TourRepository
	purchases repository.PurchaseRepository
	users     repository.UserRepository
	usersSvc  *service.UserService
	mailer    mail.Mailer
	logger    *zap.Logger
	now       func() time.Time
}

// Dependencies bundles collaborators for the scheduler.
type Dependencies struct {
	Config       config.JobsConfig
	TourRepo     repository.TourRepository
	PurchaseRepo repository.PurchaseRepository
	UserRepo     repository.UserRepository
	UserService  *service.UserService
	Mailer       mail.Mailer
	Logger       *zap.Logger
}

// New builds the scheduler without starting it.
func New(deps Dependencies) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		cfg:       deps.Config,
		tours:     deps.TourRepo,
		purchases: deps.PurchaseRepo,
		users:     deps.UserRepo,
		usersSvc:  deps.UserService,
		mailer:    deps.Mailer,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// Start registers and launches the jobs. Returns without starting when jobs
// are disabled.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("background jobs disabled")
		return nil
	}

	jobs := []struct {
		name string
		spec string
		run  func(context.Context)
	}{
		{"tour_reminders", s.cfg.TourRemindersSpec, s.runTourReminders},
		{"tour_recommendations", s.cfg.RecommendationsSpec, s.runRecommendations},
		{"award_best_guides", s.cfg.AwardBestGuidesSpec, s.runAwardBestGuide},
	}
	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			job.run(ctx)
		}); err != nil {
			return err
		}
		s.logger.Info("scheduled job", zap.String("job", job.name), zap.String("spec", job.spec))
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// runTourReminders emails every purchaser of tours starting in roughly 48
// hours. The job runs hourly and looks at the one-hour slice ending at the
// reminder window, so each tour is reminded once.
func (s *Scheduler) runTourReminders(ctx context.Context) {
	window := time.Duration(s.cfg.ReminderWindowHours) * time.Hour
	now := s.now()
	from := now.Add(window - time.Hour)
	to := now.Add(window)

	tours, err := s.tours.ListPublishedBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("tour reminders: listing tours failed", zap.Error(err))
		return
	}
	for i := range tours {
		tour := &tours[i]
		purchases, err := s.purchases.ListByTour(ctx, tour.ID)
		if err != nil {
			s.logger.Error("tour reminders: listing purchases failed",
				zap.String("tour_id", tour.ID), zap.Error(err))
			continue
		}
		for _, p := range purchases {
			tourist, err := s.users.GetByID(ctx, p.TouristID)
			if err != nil {
				s.logger.Error("tour reminders: loading tourist failed",
					zap.String("tourist_id", p.TouristID), zap.Error(err))
				continue
			}
			if err := s.mailer.Send(tourist.Email, mail.ReminderSubject(tour.Name),
				mail.ReminderBody(tourist.FullName(), tour)); err != nil {
				s.logger.Warn("tour reminders: send failed",
					zap.String("to", tourist.Email), zap.Error(err))
			}
		}
	}
}

// runRecommendations emails tourists about tours published in the last day
// that match one of their interests. Tourists who already bought a tour are
// skipped for that tour.
func (s *Scheduler) runRecommendations(ctx context.Context) {
	tours, err := s.tours.ListPublished(ctx, repository.PublishedTourFilter{})
	if err != nil {
		s.logger.Error("recommendations: listing tours failed", zap.Error(err))
		return
	}
	cutoff := s.now().Add(-24 * time.Hour)
	var fresh []domain.Tour
	for _, tour := range tours {
		if tour.UpdatedAt.After(cutoff) && tour.Date.After(s.now()) {
			fresh = append(fresh, tour)
		}
	}
	if len(fresh) == 0 {
		return
	}

	tourists, err := s.users.ListByRole(ctx, domain.RoleTourist)
	if err != nil {
		s.logger.Error("recommendations: listing tourists failed", zap.Error(err))
		return
	}
	for i := range fresh {
		tour := &fresh[i]
		for _, tourist := range tourists {
			if tourist.IsBlocked || !interestedIn(&tourist, tour.Category) {
				continue
			}
			purchased, err := s.purchases.Exists(ctx, tourist.ID, tour.ID)
			if err != nil {
				s.logger.Error("recommendations: purchase check failed",
					zap.String("tourist_id", tourist.ID), zap.Error(err))
				continue
			}
			if purchased {
				continue
			}
			if err := s.mailer.Send(tourist.Email, mail.RecommendationSubject(tour.Name),
				mail.RecommendationBody(tourist.FullName(), tour)); err != nil {
				s.logger.Warn("recommendations: send failed",
					zap.String("to", tourist.Email), zap.Error(err))
			}
		}
	}
}

// runAwardBestGuide awards the previous month's top-selling guide.
func (s *Scheduler) runAwardBestGuide(ctx context.Context) {
	prev := s.now().AddDate(0, -1, 0)
	winner, err := s.usersSvc.AwardBestGuide(ctx, prev.Year(), prev.Month())
	if err != nil {
		s.logger.Error("award best guide failed", zap.Error(err))
		return
	}
	if winner == nil {
		s.logger.Info("award best guide: no sales last month")
		return
	}
	s.logger.Info("awarded best guide",
		zap.String("guide_id", winner.ID),
		zap.Int("award_points", winner.AwardPoints),
		zap.Bool("is_awarded_guide", winner.IsAwardedGuide))
}

func interestedIn(user *domain.User, category domain.TourCategory) bool {
	for _, interest := range user.Interests {
		if category.MatchesInterest(interest) {
			return true
		}
	}
	return false
}
