package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tour-service/internal/domain"
)

// RatingRepository stores tour ratings.
type RatingRepository interface {
	Create(ctx context.Context, rating *domain.TourRating) error
	Exists(ctx context.Context, touristID, tourID string) (bool, error)
	ListByTourIDs(ctx context.Context, tourIDs []string) ([]domain.TourRating, error)
}

type ratingRepository struct {
	pool *pgxpool.Pool
}

// NewRatingRepository builds repository.
func NewRatingRepository(pool *pgxpool.Pool) RatingRepository {
	return &ratingRepository{pool: pool}
}

func (r *ratingRepository) Create(ctx context.Context, rating *domain.TourRating) error {
	const query = `
        INSERT INTO tour_ratings (tour_id, tourist_id, rating, comment, rated_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		rating.TourID,
		rating.TouristID,
		rating.Rating,
		rating.Comment,
		rating.RatedAt,
	).Scan(&rating.ID)
}

func (r *ratingRepository) Exists(ctx context.Context, touristID, tourID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM tour_ratings WHERE tourist_id=$1 AND tour_id=$2)`,
		touristID, tourID,
	).Scan(&exists)
	return exists, err
}

func (r *ratingRepository) ListByTourIDs(ctx context.Context, tourIDs []string) ([]domain.TourRating, error) {
	if len(tourIDs) == 0 {
		return []domain.TourRating{}, nil
	}
	const query = `
        SELECT id, tour_id, tourist_id, rating, comment, rated_at
        FROM tour_ratings WHERE tour_id = ANY($1) ORDER BY rated_at`
	rows, err := r.pool.Query(ctx, query, tourIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TourRating
	for rows.Next() {
		var rating domain.TourRating
		if err := rows.Scan(
			&rating.ID,
			&rating.TourID,
			&rating.TouristID,
			&rating.Rating,
			&rating.Comment,
			&rating.RatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, rating)
	}
	return result, rows.Err()
}
