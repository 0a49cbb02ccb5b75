package services

import (
	"context"
	"time"

	"citipulse/models"

	"go.uber.org/zap"
)

// Sink receives the outcome of every committed sensor tick
type Sink interface {
	Name() string
	Publish(ctx context.Context, report models.TickReport) error
}

// Dispatcher fans tick reports out to sinks on its own goroutine so a slow
// broker or webhook never holds up the simulation
type Dispatcher struct {
	sinks   []Sink
	reports chan models.TickReport
	timeout time.Duration
	logger  *zap.Logger
	done    chan struct{}
}

func NewDispatcher(logger *zap.Logger, bufferSize int, sinks ...Sink) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Dispatcher{
		sinks:   sinks,
		reports: make(chan models.TickReport, bufferSize),
		timeout: 10 * time.Second,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Submit queues a report without blocking. It returns false when the queue is full.
func (d *Dispatcher) Submit(report models.TickReport) bool {
	select {
	case d.reports <- report:
		return true
	default:
		d.logger.Warn("Dispatch queue full, dropping tick report",
			zap.Time("tick", report.Timestamp),
			zap.Int("alert_count", len(report.Alerts)))
		return false
	}
}

// Start delivers queued reports until ctx is cancelled
func (d *Dispatcher) Start(ctx context.Context) {
	defer close(d.done)

	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	d.logger.Info("Starting tick dispatcher", zap.Strings("sinks", names))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Tick dispatcher stopped")
			return
		case report := <-d.reports:
			d.deliver(ctx, report)
		}
	}
}

// Done is closed once Start has returned
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) deliver(ctx context.Context, report models.TickReport) {
	for _, sink := range d.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := sink.Publish(sinkCtx, report)
		cancel()
		if err != nil {
			d.logger.Error("Failed to publish tick report",
				zap.String("sink", sink.Name()),
				zap.Time("tick", report.Timestamp),
				zap.Error(err))
		}
	}
}
