package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"citipulse/models"

	"go.uber.org/zap"
)

// BatchStore persists batches of archived readings
type BatchStore interface {
	WriteBatch(ctx context.Context, batch []models.ArchivedReading) error
}

// BatchWriterService buffers readings from tick reports and flushes them to a
// BatchStore when the buffer fills or the batch timeout elapses
type BatchWriterService struct {
	store        BatchStore
	logger       *zap.Logger
	incoming     chan models.ArchivedReading
	buffer       []models.ArchivedReading
	bufferMutex  sync.Mutex
	flushTimer   *time.Timer
	maxBatchSize int
	batchTimeout time.Duration
	retryBackoff time.Duration
	shutdownChan chan bool
}

func NewBatchWriterService(store BatchStore, maxBatchSize int, batchTimeout time.Duration, logger *zap.Logger) *BatchWriterService {
	return &BatchWriterService{
		store:        store,
		logger:       logger,
		incoming:     make(chan models.ArchivedReading, maxBatchSize*2),
		buffer:       make([]models.ArchivedReading, 0, maxBatchSize),
		maxBatchSize: maxBatchSize,
		batchTimeout: batchTimeout,
		retryBackoff: time.Second,
		shutdownChan: make(chan bool, 1),
	}
}

func (bw *BatchWriterService) Name() string { return "firebase" }

// Publish queues the report's readings for the next batch
func (bw *BatchWriterService) Publish(ctx context.Context, report models.TickReport) error {
	ids := make([]int, 0, len(report.Readings))
	for id := range report.Readings {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		select {
		case bw.incoming <- models.NewArchivedReading(id, report.Readings[id]):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Start runs the batching loop until ctx is cancelled, flushing what remains on exit
func (bw *BatchWriterService) Start(ctx context.Context) {
	bw.logger.Info("Starting batch writer service",
		zap.Int("max_batch_size", bw.maxBatchSize),
		zap.Duration("batch_timeout", bw.batchTimeout))

	bw.flushTimer = time.NewTimer(bw.batchTimeout)
	defer bw.flushTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			bw.logger.Info("Batch writer received shutdown signal")
			// the run context is gone; give the final flush its own deadline
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			bw.drainIncoming()
			bw.flushBuffer(flushCtx)
			cancel()
			bw.shutdownChan <- true
			return

		case reading := <-bw.incoming:
			bw.bufferMutex.Lock()
			bw.buffer = append(bw.buffer, reading)
			currentSize := len(bw.buffer)
			bw.bufferMutex.Unlock()

			bw.logger.Debug("Added reading to buffer",
				zap.Int("sensor_id", reading.SensorID),
				zap.Int("buffer_size", currentSize),
				zap.Int("max_batch_size", bw.maxBatchSize))

			if currentSize >= bw.maxBatchSize {
				bw.logger.Info("Buffer full, flushing to archive",
					zap.Int("buffer_size", currentSize))

				if !bw.flushTimer.Stop() {
					select {
					case <-bw.flushTimer.C:
					default:
					}
				}

				bw.flushBuffer(ctx)
				bw.flushTimer.Reset(bw.batchTimeout)
			}

		case <-bw.flushTimer.C:
			if bw.GetBufferSize() > 0 {
				bw.logger.Info("Batch timeout reached, flushing to archive",
					zap.Int("buffer_size", bw.GetBufferSize()))
				bw.flushBuffer(ctx)
			}
			bw.flushTimer.Reset(bw.batchTimeout)
		}
	}
}

func (bw *BatchWriterService) drainIncoming() {
	bw.bufferMutex.Lock()
	defer bw.bufferMutex.Unlock()
	for {
		select {
		case reading := <-bw.incoming:
			bw.buffer = append(bw.buffer, reading)
		default:
			return
		}
	}
}

// flushBuffer writes the current buffer and clears it, retrying with linear backoff
func (bw *BatchWriterService) flushBuffer(ctx context.Context) {
	bw.bufferMutex.Lock()

	if len(bw.buffer) == 0 {
		bw.bufferMutex.Unlock()
		return
	}

	batch := make([]models.ArchivedReading, len(bw.buffer))
	copy(batch, bw.buffer)
	bw.buffer = bw.buffer[:0]

	bw.bufferMutex.Unlock()

	maxRetries := 3
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = bw.store.WriteBatch(ctx, batch)
		if err == nil {
			bw.logger.Info("Successfully flushed batch to archive",
				zap.Int("batch_size", len(batch)))
			return
		}

		bw.logger.Error("Failed to flush batch to archive",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Int("batch_size", len(batch)),
			zap.Error(err))

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * bw.retryBackoff)
		}
	}

	bw.logger.Error("Failed to flush batch after all retries, data lost",
		zap.Int("batch_size", len(batch)),
		zap.Error(err))
}

// WaitForShutdown waits for the batch writer to complete shutdown
func (bw *BatchWriterService) WaitForShutdown(timeout time.Duration) bool {
	select {
	case <-bw.shutdownChan:
		return true
	case <-time.After(timeout):
		return false
	}
}

// GetBufferSize returns the current buffer size
func (bw *BatchWriterService) GetBufferSize() int {
	bw.bufferMutex.Lock()
	defer bw.bufferMutex.Unlock()
	return len(bw.buffer)
}
