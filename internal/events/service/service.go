package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-events/internal/events/db"
	"ms-events/internal/events/validation"
	"ms-events/internal/logger"
	"ms-events/internal/models"
)

// ErrNotFound is the explicit absence signal. Callers branch on it instead
// of string-matching a message.
var ErrNotFound = errors.New("event not found")

// StoreError wraps a failed persistence call. The cause stays available
// for operator logs via Unwrap but is never sent over the API boundary.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

type EventDBLayer interface {
	CreateEvent(ctx context.Context, event models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	GetAllEvents(ctx context.Context) ([]models.Event, error)
	UpdateEvent(ctx context.Context, event models.Event) error
	DeleteEvent(ctx context.Context, id string) error
}

// CacheInvalidator drops cached query results after a mutation has been
// observed to succeed, never speculatively.
type CacheInvalidator interface {
	GetAll(ctx context.Context) ([]models.Event, bool)
	GetByID(ctx context.Context, id string) (*models.Event, bool)
	SetAll(ctx context.Context, events []models.Event)
	SetByID(ctx context.Context, event *models.Event)
	InvalidateAll(ctx context.Context)
	InvalidateByID(ctx context.Context, id string)
}

type KafkaPublisher interface {
	PublishEventCreated(event models.Event) error
	PublishEventUpdated(event models.Event) error
	PublishEventDeleted(event models.Event) error
}

// EventService is the sole component permitted to read or mutate persisted
// event records. Cache and Kafka are optional collaborators; a nil value
// disables the concern.
type EventService struct {
	DB     EventDBLayer
	Cache  CacheInvalidator
	Kafka  KafkaPublisher
	Logger *logger.Logger
}

func NewEventService(db EventDBLayer, cache CacheInvalidator, kafka KafkaPublisher, log *logger.Logger) *EventService {
	return &EventService{DB: db, Cache: cache, Kafka: kafka, Logger: log}
}

// Create assigns the id and both timestamps, persists the defaulted record
// and returns it in full.
func (s *EventService) Create(ctx context.Context, v validation.ValidatedCreate) (*models.Event, error) {
	now := time.Now().UTC()
	network := models.DefaultNFTNetwork

	event := models.Event{
		ID:          uuid.New().String(),
		Title:       v.Title,
		Description: v.Description,
		StartDate:   v.StartDate,
		EndDate:     v.EndDate,
		Location:    v.Location,
		CoverImage:  v.CoverImage,
		Status:      v.Status,
		IsFeatured:  v.IsFeatured,
		NFTNetwork:  &network,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, &StoreError{Op: "create", Cause: err}
	}

	s.invalidateAll(ctx)
	if s.Kafka != nil {
		if err := s.Kafka.PublishEventCreated(event); err != nil {
			s.logWarn(fmt.Sprintf("kafka publish (event created) failed: %v", err))
		}
	}

	return &event, nil
}

func (s *EventService) GetByID(ctx context.Context, id string) (*models.Event, error) {
	if s.Cache != nil {
		if event, ok := s.Cache.GetByID(ctx, id); ok {
			return event, nil
		}
	}

	event, err := s.DB.GetEventByID(ctx, id)
	if errors.Is(err, db.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "get", Cause: err}
	}

	if s.Cache != nil {
		s.Cache.SetByID(ctx, event)
	}
	return event, nil
}

// GetAll returns every record ordered by start date ascending (id as
// tiebreak). Pagination is the caller's concern.
func (s *EventService) GetAll(ctx context.Context) ([]models.Event, error) {
	if s.Cache != nil {
		if events, ok := s.Cache.GetAll(ctx); ok {
			return events, nil
		}
	}

	events, err := s.DB.GetAllEvents(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list", Cause: err}
	}

	if s.Cache != nil {
		s.Cache.SetAll(ctx, events)
	}
	return events, nil
}

// Update merges only the supplied fields into the stored record, always
// refreshing updatedAt. The endDate > startDate rule is re-checked against
// the merged record, closing the single-sided-date gap of the update
// validator.
func (s *EventService) Update(ctx context.Context, id string, v validation.ValidatedUpdate) (*models.Event, error) {
	existing, err := s.DB.GetEventByID(ctx, id)
	if errors.Is(err, db.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "get", Cause: err}
	}

	merged := *existing
	if v.Title != nil {
		merged.Title = *v.Title
	}
	if v.Description != nil {
		merged.Description = *v.Description
	}
	if v.StartDate != nil {
		merged.StartDate = *v.StartDate
	}
	if v.EndDate != nil {
		merged.EndDate = *v.EndDate
	}
	if v.Location != nil {
		merged.Location = *v.Location
	}
	if v.CoverImage != nil {
		merged.CoverImage = v.CoverImage
	}
	if v.Status != nil {
		merged.Status = *v.Status
	}
	if v.IsFeatured != nil {
		merged.IsFeatured = *v.IsFeatured
	}

	if !merged.EndDate.After(merged.StartDate) {
		return nil, &validation.Error{Fields: map[string]string{
			"endDate": "endDate must be after startDate",
		}}
	}

	merged.UpdatedAt = time.Now().UTC()

	if err := s.DB.UpdateEvent(ctx, merged); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "update", Cause: err}
	}

	s.invalidateAll(ctx)
	s.invalidateByID(ctx, id)
	if s.Kafka != nil {
		if err := s.Kafka.PublishEventUpdated(merged); err != nil {
			s.logWarn(fmt.Sprintf("kafka publish (event updated) failed: %v", err))
		}
	}

	return &merged, nil
}

// Remove hard-deletes the row. A second delete of the same id reports
// ErrNotFound; the store cannot tell "already gone" from "never existed".
func (s *EventService) Remove(ctx context.Context, id string) error {
	err := s.DB.DeleteEvent(ctx, id)
	if errors.Is(err, db.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return &StoreError{Op: "delete", Cause: err}
	}

	s.invalidateAll(ctx)
	s.invalidateByID(ctx, id)
	if s.Kafka != nil {
		event := models.Event{ID: id}
		if err := s.Kafka.PublishEventDeleted(event); err != nil {
			s.logWarn(fmt.Sprintf("kafka publish (event deleted) failed: %v", err))
		}
	}
	return nil
}

func (s *EventService) invalidateAll(ctx context.Context) {
	if s.Cache != nil {
		s.Cache.InvalidateAll(ctx)
	}
}

func (s *EventService) invalidateByID(ctx context.Context, id string) {
	if s.Cache != nil {
		s.Cache.InvalidateByID(ctx, id)
	}
}

func (s *EventService) logWarn(message string) {
	if s.Logger != nil {
		s.Logger.Warn("SERVICE", message)
	}
}
