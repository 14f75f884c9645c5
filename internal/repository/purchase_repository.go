package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tour-service/internal/domain"
)

// PurchaseRepository stores tour purchases.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *domain.Purchase) error
	Exists(ctx context.Context, touristID, tourID string) (bool, error)
	ListByTourist(ctx context.Context, touristID string) ([]domain.Purchase, error)
	ListByTour(ctx context.Context, tourID string) ([]domain.Purchase, error)
	ListByTourIDs(ctx context.Context, tourIDs []string) ([]domain.Purchase, error)
}

type purchaseRepository struct {
	pool *pgxpool.Pool
}

// NewPurchaseRepository builds repository.
func NewPurchaseRepository(pool *pgxpool.Pool) PurchaseRepository {
	return &purchaseRepository{pool: pool}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	const query = `
        INSERT INTO purchases (tourist_id, tour_id, purchase_date, used_bonus_points, final_price)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		purchase.TouristID,
		purchase.TourID,
		purchase.PurchaseDate,
		purchase.UsedBonusPoints,
		purchase.FinalPrice,
	).Scan(&purchase.ID)
}

func (r *purchaseRepository) Exists(ctx context.Context, touristID, tourID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM purchases WHERE tourist_id=$1 AND tour_id=$2)`,
		touristID, tourID,
	).Scan(&exists)
	return exists, err
}

func (r *purchaseRepository) ListByTourist(ctx context.Context, touristID string) ([]domain.Purchase, error) {
	const query = `
        SELECT id, tourist_id, tour_id, purchase_date, used_bonus_points, final_price
        FROM purchases WHERE tourist_id=$1 ORDER BY purchase_date DESC`
	rows, err := r.pool.Query(ctx, query, touristID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPurchases(rows)
}

func (r *purchaseRepository) ListByTour(ctx context.Context, tourID string) ([]domain.Purchase, error) {
	const query = `
        SELECT id, tourist_id, tour_id, purchase_date, used_bonus_points, final_price
        FROM purchases WHERE tour_id=$1 ORDER BY purchase_date`
	rows, err := r.pool.Query(ctx, query, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPurchases(rows)
}

func (r *purchaseRepository) ListByTourIDs(ctx context.Context, tourIDs []string) ([]domain.Purchase, error) {
	if len(tourIDs) == 0 {
		return []domain.Purchase{}, nil
	}
	const query = `
        SELECT id, tourist_id, tour_id, purchase_date, used_bonus_points, final_price
        FROM purchases WHERE tour_id = ANY($1) ORDER BY purchase_date`
	rows, err := r.pool.Query(ctx, query, tourIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPurchases(rows)
}

func scanPurchases(rows pgx.Rows) ([]domain.Purchase, error) {
	var result []domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(
			&p.ID,
			&p.TouristID,
			&p.TourID,
			&p.PurchaseDate,
			&p.UsedBonusPoints,
			&p.FinalPrice,
		); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
