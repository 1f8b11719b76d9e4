package archive

import (
	"context"
	"sync"
	"time"

	"bedrock_usage/internal/config"
	"bedrock_usage/internal/utils"
)

// S3Sink buffers snapshots in memory and flushes them to S3 in
// batches, either when the batch fills or on a timer. Enqueue never
// blocks; snapshots are dropped when the buffer is full.
type S3Sink struct {
	writer        batchWriter
	queue         chan Snapshot
	flushSize     int
	flushInterval time.Duration
	logger        *utils.Logger

	wg       sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}

// NewS3Sink creates a sink flushing to the given writer and starts its
// background worker.
func NewS3Sink(writer batchWriter, cfg config.ArchiveConfig) *S3Sink {
	s := &S3Sink{
		writer:        writer,
		queue:         make(chan Snapshot, cfg.BufferSize),
		flushSize:     cfg.FlushSize,
		flushInterval: cfg.FlushInterval,
		logger:        utils.NewLogger("archive"),
		shutdown:      make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Enqueue queues a snapshot for archiving. Drops it when the buffer is
// full so callers never block.
func (s *S3Sink) Enqueue(snapshot Snapshot) {
	select {
	case s.queue <- snapshot:
	default:
		s.logger.Warn("archive buffer full, dropping snapshot", "id", snapshot.ID)
	}
}

func (s *S3Sink) run() {
	defer s.wg.Done()

	batch := make([]Snapshot, 0, s.flushSize)
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case snapshot := <-s.queue:
			batch = append(batch, snapshot)
			if len(batch) >= s.flushSize {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-s.shutdown:
			// drain whatever is queued, then flush once
			for {
				select {
				case snapshot := <-s.queue:
					batch = append(batch, snapshot)
				default:
					if len(batch) > 0 {
						s.flush(batch)
					}
					return
				}
			}
		}
	}
}

func (s *S3Sink) flush(batch []Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.writer.WriteBatch(ctx, batch); err != nil {
		s.logger.Error("failed to flush snapshot batch", "count", len(batch), "error", err)
		return
	}
	s.logger.Debug("flushed snapshot batch", "count", len(batch))
}

// Shutdown stops the worker after draining the queue.
func (s *S3Sink) Shutdown() {
	s.once.Do(func() {
		close(s.shutdown)
	})
	s.wg.Wait()
}
