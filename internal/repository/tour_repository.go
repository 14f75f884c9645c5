package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tour-service/internal/domain"
)

// PublishedTourFilter captures tourist browsing parameters.
type PublishedTourFilter struct {
	Category          *domain.TourCategory
	GuideID           *string
	OnlyAwardedGuides bool
}

// TourRepository encapsulates tour and key point persistence.
type TourRepository interface {
	Create(ctx context.Context, tour *domain.Tour) error
	Update(ctx context.Context, tour *domain.Tour) error
	GetByID(ctx context.Context, id string) (*domain.Tour, error)
	AddKeyPoint(ctx context.Context, kp *domain.KeyPoint) error
	ListByGuide(ctx context.Context, guideID string, state *domain.TourState) ([]domain.Tour, error)
	ListPublished(ctx context.Context, filter PublishedTourFilter) ([]domain.Tour, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Tour, error)
	ListPublishedBetween(ctx context.Context, from, to time.Time) ([]domain.Tour, error)
	ListByMonth(ctx context.Context, year int, month time.Month) ([]domain.Tour, error)
	CountCancelledByGuide(ctx context.Context, guideID string) (int, error)
}

type tourRepository struct {
	pool *pgxpool.Pool
}

// NewTourRepository instantiates repository.
func NewTourRepository(pool *pgxpool.Pool) TourRepository {
	return &tourRepository{pool: pool}
}

const tourColumns = `id, guide_id, name, description, difficulty, category, price, date, state, created_at, updated_at`

func (r *tourRepository) Create(ctx context.Context, tour *domain.Tour) error {
	const query = `
        INSERT INTO tours (guide_id, name, description, difficulty, category, price, date, state)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		tour.GuideID,
		tour.Name,
		tour.Description,
		tour.Difficulty,
		tour.Category,
		tour.Price,
		tour.Date,
		tour.State,
	).Scan(&tour.ID, &tour.CreatedAt, &tour.UpdatedAt)
}

func (r *tourRepository) Update(ctx context.Context, tour *domain.Tour) error {
	const query = `
        UPDATE tours SET name=$1, description=$2, difficulty=$3, category=$4, price=$5, date=$6,
            state=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		tour.Name,
		tour.Description,
		tour.Difficulty,
		tour.Category,
		tour.Price,
		tour.Date,
		tour.State,
		tour.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *tourRepository) GetByID(ctx context.Context, id string) (*domain.Tour, error) {
	var tour domain.Tour
	if err := r.pool.QueryRow(ctx, `SELECT `+tourColumns+` FROM tours WHERE id=$1`, id).Scan(
		&tour.ID,
		&tour.GuideID,
		&tour.Name,
		&tour.Description,
		&tour.Difficulty,
		&tour.Category,
		&tour.Price,
		&tour.Date,
		&tour.State,
		&tour.CreatedAt,
		&tour.UpdatedAt,
	); err != nil {
		return nil, err
	}
	keyPoints, err := r.listKeyPoints(ctx, []string{tour.ID})
	if err != nil {
		return nil, err
	}
	tour.KeyPoints = keyPoints[tour.ID]
	return &tour, nil
}

func (r *tourRepository) AddKeyPoint(ctx context.Context, kp *domain.KeyPoint) error {
	const query = `
        INSERT INTO key_points (tour_id, name, description, latitude, longitude, image_url)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		kp.TourID,
		kp.Name,
		kp.Description,
		kp.Latitude,
		kp.Longitude,
		kp.ImageURL,
	).Scan(&kp.ID)
}

func (r *tourRepository) ListByGuide(ctx context.Context, guideID string, state *domain.TourState) ([]domain.Tour, error) {
	query := `SELECT ` + tourColumns + ` FROM tours WHERE guide_id=$1`
	args := []any{guideID}
	if state != nil {
		args = append(args, *state)
		query += fmt.Sprintf(" AND state=$%d", len(args))
	}
	query += " ORDER BY date DESC"
	return r.listWithKeyPoints(ctx, query, args...)
}

func (r *tourRepository) ListPublished(ctx context.Context, filter PublishedTourFilter) ([]domain.Tour, error) {
	clauses := []string{"state=$1"}
	args := []any{domain.TourStatePublished}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.GuideID != nil {
		args = append(args, *filter.GuideID)
		clauses = append(clauses, fmt.Sprintf("guide_id=$%d", len(args)))
	}
	if filter.OnlyAwardedGuides {
		clauses = append(clauses, "guide_id IN (SELECT id FROM users WHERE is_awarded_guide)")
	}
	query := `SELECT ` + tourColumns + ` FROM tours WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY date`
	return r.listWithKeyPoints(ctx, query, args...)
}

func (r *tourRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Tour, error) {
	if len(ids) == 0 {
		return []domain.Tour{}, nil
	}
	return r.listWithKeyPoints(ctx, `SELECT `+tourColumns+` FROM tours WHERE id = ANY($1) ORDER BY date DESC`, ids)
}

func (r *tourRepository) ListPublishedBetween(ctx context.Context, from, to time.Time) ([]domain.Tour, error) {
	const query = `SELECT ` + tourColumns + ` FROM tours WHERE state=$1 AND date > $2 AND date <= $3 ORDER BY date`
	return r.listWithKeyPoints(ctx, query, domain.TourStatePublished, from, to)
}

func (r *tourRepository) ListByMonth(ctx context.Context, year int, month time.Month) ([]domain.Tour, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	const query = `SELECT ` + tourColumns + ` FROM tours WHERE date >= $1 AND date < $2 ORDER BY date`
	return r.listWithKeyPoints(ctx, query, start, end)
}

func (r *tourRepository) CountCancelledByGuide(ctx context.Context, guideID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tours WHERE guide_id=$1 AND state=$2`,
		guideID, domain.TourStateCancelled,
	).Scan(&count)
	return count, err
}

func (r *tourRepository) listWithKeyPoints(ctx context.Context, query string, args ...any) ([]domain.Tour, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Tour
	var ids []string
	for rows.Next() {
		var tour domain.Tour
		if err := rows.Scan(
			&tour.ID,
			&tour.GuideID,
			&tour.Name,
			&tour.Description,
			&tour.Difficulty,
			&tour.Category,
			&tour.Price,
			&tour.Date,
			&tour.State,
			&tour.CreatedAt,
			&tour.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, tour)
		ids = append(ids, tour.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	keyPoints, err := r.listKeyPoints(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].KeyPoints = keyPoints[result[i].ID]
	}
	return result, nil
}

func (r *tourRepository) listKeyPoints(ctx context.Context, tourIDs []string) (map[string][]domain.KeyPoint, error) {
	out := make(map[string][]domain.KeyPoint, len(tourIDs))
	if len(tourIDs) == 0 {
		return out, nil
	}
	const query = `
        SELECT id, tour_id, name, description, latitude, longitude, image_url
        FROM key_points WHERE tour_id = ANY($1) ORDER BY id`
	rows, err := r.pool.Query(ctx, query, tourIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var kp domain.KeyPoint
		if err := rows.Scan(
			&kp.ID,
			&kp.TourID,
			&kp.Name,
			&kp.Description,
			&kp.Latitude,
			&kp.Longitude,
			&kp.ImageURL,
		); err != nil {
			return nil, err
		}
		out[kp.TourID] = append(out[kp.TourID], kp)
	}
	return out, rows.Err()
}
