package services

import (
	"context"
	"sync"
	"time"

	"alert-registry/internal/logging"
	"alert-registry/internal/models"
	"alert-registry/internal/observability"
)

const sinkTimeout = 10 * time.Second

// EventSink delivers alert events somewhere outside the service.
type EventSink interface {
	Name() string
	Publish(ctx context.Context, ev models.AlertEvent) error
}

// Dispatcher fans alert events out to sinks from a bounded queue.
type Dispatcher struct {
	logger  *logging.Logger
	metrics *observability.Metrics
	sinks   []EventSink
	events  chan models.AlertEvent
	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      *sync.WaitGroup
}

// NewDispatcher constructs a Dispatcher. Non-positive sizes fall back to 1.
func NewDispatcher(logger *logging.Logger, metrics *observability.Metrics, queueSize, workers int, sinks ...EventSink) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		logger:  logger,
		metrics: metrics,
		sinks:   sinks,
		events:  make(chan models.AlertEvent, queueSize),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker pool
func (d *Dispatcher) Start(wg *sync.WaitGroup) {
	d.wg = wg
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Stop cancels the workers. Callers wait on the WaitGroup given to Start.
func (d *Dispatcher) Stop() {
	d.cancel()
}

// Queue enqueues an event without blocking. The event is dropped when the
// queue is full.
func (d *Dispatcher) Queue(ev models.AlertEvent) {
	select {
	case d.events <- ev:
		d.logger.Debugf("Queued event %s for alert %d", ev.Type, ev.Alert.ID)
	default:
		d.metrics.EventsDropped.Inc()
		d.logger.Errorf("Queue full, dropping event %s for alert %d", ev.Type, ev.Alert.ID)
	}
}

// worker delivers events until the dispatcher is stopped
func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			d.logger.Infof("Worker %d stopped", id)
			return
		case ev := <-d.events:
			d.deliver(ev)
		}
	}
}

func (d *Dispatcher) deliver(ev models.AlertEvent) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(d.ctx, sinkTimeout)
		err := sink.Publish(ctx, ev)
		cancel()

		if err != nil {
			d.metrics.EventsDelivered.WithLabelValues(sink.Name(), "error").Inc()
			d.logger.Errorf("Sink %s failed for %s alert %d: %v", sink.Name(), ev.Type, ev.Alert.ID, err)
			continue
		}
		d.metrics.EventsDelivered.WithLabelValues(sink.Name(), "success").Inc()
	}
}
