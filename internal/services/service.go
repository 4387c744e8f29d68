package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"alert-registry/internal/logging"
	"alert-registry/internal/models"
	"alert-registry/internal/observability"
)

// Store is the persistence service the alert operations depend on.
type Store interface {
	InsertAlert(ctx context.Context, alert models.Alert) (models.Alert, error)
	GetAlert(ctx context.Context, id int64) (models.Alert, error)
	DeleteAlert(ctx context.Context, id int64) (models.Alert, error)
	ListAlerts(ctx context.Context, q models.ListQuery) ([]models.Alert, error)
	ListAlertsInBox(ctx context.Context, box models.BoundingBox, limit int) ([]models.Alert, error)
	Ping(ctx context.Context) error
}

// Publisher receives alert events after a successful create or delete.
type Publisher interface {
	Queue(ev models.AlertEvent)
}

// Service implements the alert lifecycle on top of a Store.
type Service struct {
	store     Store
	logger    *logging.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	publisher Publisher
}

type Option func(*Service)

// WithClock overrides the clock used to stamp new alerts.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithPublisher registers where alert events are sent.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// New constructs a Service
func New(store Store, logger *logging.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates in, stamps it when no timestamp was given and persists it.
func (s *Service) Create(ctx context.Context, in models.AlertInput) (models.Alert, error) {
	if err := in.Validate(); err != nil {
		s.metrics.ValidationFailures.Inc()
		return models.Alert{}, err
	}

	alert := in.ToAlert()
	if in.Timestamp == nil {
		alert.Timestamp = models.NormalizeTime(s.clock.Now())
	}

	created, err := s.store.InsertAlert(ctx, alert)
	if err != nil {
		return models.Alert{}, s.storageFailure("create alert", err)
	}

	s.metrics.AlertsCreated.Inc()
	s.logger.Infof("Created alert %d (category=%q)", created.ID, created.Category)
	s.publish(models.AlertCreated, created)
	return created, nil
}

// Get returns the alert with the given id.
func (s *Service) Get(ctx context.Context, id int64) (models.Alert, error) {
	alert, err := s.store.GetAlert(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Alert{}, err
		}
		return models.Alert{}, s.storageFailure("get alert", err)
	}
	return alert, nil
}

// Delete removes the alert with the given id and returns it.
func (s *Service) Delete(ctx context.Context, id int64) (models.Alert, error) {
	removed, err := s.store.DeleteAlert(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Alert{}, err
		}
		return models.Alert{}, s.storageFailure("delete alert", err)
	}

	s.metrics.AlertsDeleted.Inc()
	s.logger.Infof("Deleted alert %d", removed.ID)
	s.publish(models.AlertDeleted, removed)
	return removed, nil
}

// List returns a page of alerts, newest first.
func (s *Service) List(ctx context.Context, q models.ListQuery) ([]models.Alert, error) {
	q, err := q.Normalize()
	if err != nil {
		s.metrics.ValidationFailures.Inc()
		return nil, err
	}

	list, err := s.store.ListAlerts(ctx, q)
	if err != nil {
		return nil, s.storageFailure("list alerts", err)
	}
	return list, nil
}

// Nearby returns up to models.NearbyLimit alerts inside the bounding box
// around the query point, newest first.
func (s *Service) Nearby(ctx context.Context, q models.NearbyQuery) ([]models.Alert, error) {
	q, err := q.Normalize()
	if err != nil {
		s.metrics.ValidationFailures.Inc()
		return nil, err
	}

	box := models.BoxAround(q.Latitude, q.Longitude, q.RadiusKM)
	list, err := s.store.ListAlertsInBox(ctx, box, models.NearbyLimit)
	if err != nil {
		return nil, s.storageFailure("nearby alerts", err)
	}
	return list, nil
}

// Ready reports whether the persistence service answers.
func (s *Service) Ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		if !errors.Is(err, models.ErrStorageUnavailable) {
			err = fmt.Errorf("%w: %w", models.ErrStorageUnavailable, err)
		}
		return err
	}
	return nil
}

func (s *Service) storageFailure(op string, err error) error {
	s.metrics.StorageFailures.Inc()
	s.logger.Errorf("Failed to %s: %v", op, err)
	if errors.Is(err, models.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", models.ErrStorageUnavailable, op, err)
}

func (s *Service) publish(typ models.EventType, alert models.Alert) {
	if s.publisher == nil {
		return
	}
	s.publisher.Queue(models.AlertEvent{
		Type:       typ,
		Alert:      alert,
		OccurredAt: s.clock.Now().UTC().Truncate(time.Millisecond),
	})
}
