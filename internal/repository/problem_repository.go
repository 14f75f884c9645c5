package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tour-service/internal/domain"
)

// ProblemListing is a problem joined with tour and tourist display names.
type ProblemListing struct {
	Problem     domain.TourProblem
	TourName    string
	TouristName string
}

// ProblemRepository encapsulates tour problem persistence.
type ProblemRepository interface {
	Create(ctx context.Context, problem *domain.TourProblem) error
	GetByID(ctx context.Context, id string) (*domain.TourProblem, error)
	// UpdateStatus performs a compare-and-swap guarded on the old status.
	// It reports false when the row no longer holds oldStatus, which means a
	// concurrent transition won between our read and this write.
	UpdateStatus(ctx context.Context, id string, oldStatus, newStatus domain.ProblemStatus, updatedAt time.Time) (bool, error)
	CountRejectedByTourist(ctx context.Context, touristID string) (int, error)
	ListByTourist(ctx context.Context, touristID string) ([]ProblemListing, error)
	ListByGuide(ctx context.Context, guideID string) ([]ProblemListing, error)
	ListAll(ctx context.Context) ([]ProblemListing, error)
}

type problemRepository struct {
	pool *pgxpool.Pool
}

// NewProblemRepository builds repository.
func NewProblemRepository(pool *pgxpool.Pool) ProblemRepository {
	return &problemRepository{pool: pool}
}

func (r *problemRepository) Create(ctx context.Context, problem *domain.TourProblem) error {
	const query = `
        INSERT INTO tour_problems (tour_id, tourist_id, title, description, status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		problem.TourID,
		problem.TouristID,
		problem.Title,
		problem.Description,
		problem.Status,
		problem.CreatedAt,
		problem.UpdatedAt,
	).Scan(&problem.ID)
}

func (r *problemRepository) GetByID(ctx context.Context, id string) (*domain.TourProblem, error) {
	const query = `
        SELECT id, tour_id, tourist_id, title, description, status, created_at, updated_at
        FROM tour_problems WHERE id=$1`
	var problem domain.TourProblem
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&problem.ID,
		&problem.TourID,
		&problem.TouristID,
		&problem.Title,
		&problem.Description,
		&problem.Status,
		&problem.CreatedAt,
		&problem.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &problem, nil
}

func (r *problemRepository) UpdateStatus(ctx context.Context, id string, oldStatus, newStatus domain.ProblemStatus, updatedAt time.Time) (bool, error) {
	const query = `
        UPDATE tour_problems SET status=$1, updated_at=$2
        WHERE id=$3 AND status=$4`
	cmd, err := r.pool.Exec(ctx, query, newStatus, updatedAt, id, oldStatus)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *problemRepository) CountRejectedByTourist(ctx context.Context, touristID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tour_problems WHERE tourist_id=$1 AND status=$2`,
		touristID, domain.ProblemStatusRejected,
	).Scan(&count)
	return count, err
}

const problemListingQuery = `
        SELECT p.id, p.tour_id, p.tourist_id, p.title, p.description, p.status, p.created_at, p.updated_at,
               t.name, TRIM(u.first_name || ' ' || u.last_name)
        FROM tour_problems p
        JOIN tours t ON t.id = p.tour_id
        JOIN users u ON u.id = p.tourist_id`

func (r *problemRepository) ListByTourist(ctx context.Context, touristID string) ([]ProblemListing, error) {
	rows, err := r.pool.Query(ctx, problemListingQuery+` WHERE p.tourist_id=$1 ORDER BY p.created_at DESC`, touristID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProblemListings(rows)
}

func (r *problemRepository) ListByGuide(ctx context.Context, guideID string) ([]ProblemListing, error) {
	rows, err := r.pool.Query(ctx, problemListingQuery+` WHERE t.guide_id=$1 ORDER BY p.created_at DESC`, guideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProblemListings(rows)
}

func (r *problemRepository) ListAll(ctx context.Context) ([]ProblemListing, error) {
	rows, err := r.pool.Query(ctx, problemListingQuery+` ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProblemListings(rows)
}

func scanProblemListings(rows pgx.Rows) ([]ProblemListing, error) {
	var result []ProblemListing
	for rows.Next() {
		var listing ProblemListing
		if err := rows.Scan(
			&listing.Problem.ID,
			&listing.Problem.TourID,
			&listing.Problem.TouristID,
			&listing.Problem.Title,
			&listing.Problem.Description,
			&listing.Problem.Status,
			&listing.Problem.CreatedAt,
			&listing.Problem.UpdatedAt,
			&listing.TourName,
			&listing.TouristName,
		); err != nil {
			return nil, err
		}
		result = append(result, listing)
	}
	return result, rows.Err()
}
