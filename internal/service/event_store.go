package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spec-kit/tour-service/internal/domain"
	"github.com/spec-kit/tour-service/internal/repository"
	apperrors "github.com/spec-kit/tour-service/pkg/util/errorutil"
)

// ProblemEventStore is the append-only audit log for problem lifecycle
// events. It stores each event as a discriminator tag plus a JSON payload and
// performs no business validation.
type ProblemEventStore struct {
	events repository.ProblemEventRepository
}

// NewProblemEventStore builds the store.
func NewProblemEventStore(events repository.ProblemEventRepository) *ProblemEventStore {
	return &ProblemEventStore{events: events}
}

// Append persists one event. Events are immutable once written.
func (s *ProblemEventStore) Append(ctx context.Context, event domain.ProblemEvent) error {
	record, err := encodeEvent(event)
	if err != nil {
		return err
	}
	if err := s.events.Append(ctx, record); err != nil {
		return apperrors.NewStorageUnavailable(err)
	}
	return nil
}

// ListByProblem returns a problem's events ordered by occurrence time.
func (s *ProblemEventStore) ListByProblem(ctx context.Context, problemID string) ([]domain.ProblemEvent, error) {
	records, err := s.events.ListByProblem(ctx, problemID)
	if err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return decodeEvents(records)
}

// ListAll returns every stored event ordered by occurrence time; used for
// admin audit views.
func (s *ProblemEventStore) ListAll(ctx context.Context) ([]domain.ProblemEvent, error) {
	records, err := s.events.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return decodeEvents(records)
}

func encodeEvent(event domain.ProblemEvent) (*repository.ProblemEventRecord, error) {
	var payload any
	switch event.Type {
	case domain.ProblemEventCreated:
		payload = event.Created
	case domain.ProblemEventStatusChanged:
		payload = event.StatusChanged
	default:
		return nil, apperrors.NewInternalError(fmt.Errorf("unknown event type %q", event.Type))
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &repository.ProblemEventRecord{
		ID:         event.ID,
		ProblemID:  event.ProblemID,
		EventType:  string(event.Type),
		OccurredAt: event.OccurredAt,
		Payload:    data,
	}, nil
}

// decodeEvents decodes every record or none: a single corrupt entry fails the
// whole read, because an audit trail with silently missing entries is worse
// than an unavailable one.
func decodeEvents(records []repository.ProblemEventRecord) ([]domain.ProblemEvent, error) {
	result := make([]domain.ProblemEvent, 0, len(records))
	for _, record := range records {
		event, err := decodeEvent(record)
		if err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, nil
}

func decodeEvent(record repository.ProblemEventRecord) (domain.ProblemEvent, error) {
	event := domain.ProblemEvent{
		ID:         record.ID,
		ProblemID:  record.ProblemID,
		Type:       domain.ProblemEventType(record.EventType),
		OccurredAt: record.OccurredAt,
	}
	switch event.Type {
	case domain.ProblemEventCreated:
		var payload domain.ProblemCreatedPayload
		if err := json.Unmarshal(record.Payload, &payload); err != nil {
			return domain.ProblemEvent{}, apperrors.NewCorruptEvent(record.ID, err)
		}
		event.Created = &payload
	case domain.ProblemEventStatusChanged:
		var payload domain.ProblemStatusChangedPayload
		if err := json.Unmarshal(record.Payload, &payload); err != nil {
			return domain.ProblemEvent{}, apperrors.NewCorruptEvent(record.ID, err)
		}
		event.StatusChanged = &payload
	default:
		return domain.ProblemEvent{}, apperrors.NewCorruptEvent(record.ID,
			fmt.Errorf("unknown event type %q", record.EventType))
	}
	return event, nil
}
