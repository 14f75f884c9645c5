package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProblemEventRecord is the raw stored form of a problem event: a
// discriminator tag plus the serialized variant payload.
type ProblemEventRecord struct {
	ID         string
	ProblemID  string
	EventType  string
	OccurredAt time.Time
	Payload    []byte
}

// ProblemEventRepository stores the append-only problem audit log.
type ProblemEventRepository interface {
	Append(ctx context.Context, record *ProblemEventRecord) error
	ListByProblem(ctx context.Context, problemID string) ([]ProblemEventRecord, error)
	ListAll(ctx context.Context) ([]ProblemEventRecord, error)
}

type problemEventRepository struct {
	pool *pgxpool.Pool
}

// NewProblemEventRepository builds repository.
func NewProblemEventRepository(pool *pgxpool.Pool) ProblemEventRepository {
	return &problemEventRepository{pool: pool}
}

func (r *problemEventRepository) Append(ctx context.Context, record *ProblemEventRecord) error {
	const query = `
        INSERT INTO problem_events (id, problem_id, event_type, occurred_at, payload)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.ProblemID,
		record.EventType,
		record.OccurredAt,
		record.Payload,
	)
	return err
}

func (r *problemEventRepository) ListByProblem(ctx context.Context, problemID string) ([]ProblemEventRecord, error) {
	const query = `
        SELECT id, problem_id, event_type, occurred_at, payload
        FROM problem_events WHERE problem_id=$1 ORDER BY occurred_at ASC`
	rows, err := r.pool.Query(ctx, query, problemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEventRecords(rows)
}

func (r *problemEventRepository) ListAll(ctx context.Context) ([]ProblemEventRecord, error) {
	const query = `
        SELECT id, problem_id, event_type, occurred_at, payload
        FROM problem_events ORDER BY occurred_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEventRecords(rows)
}

func scanEventRecords(rows pgx.Rows) ([]ProblemEventRecord, error) {
	var result []ProblemEventRecord
	for rows.Next() {
		var record ProblemEventRecord
		if err := rows.Scan(
			&record.ID,
			&record.ProblemID,
			&record.EventType,
			&record.OccurredAt,
			&record.Payload,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
