package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// DB is the subset of *pgxpool.Pool the ledger writes through.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// WriteJob represents a unit of work to execute against the database.
type WriteJob interface {
	Execute(ctx context.Context, db DB) error
}

// WriteJobFunc adapts a function into a WriteJob.
type WriteJobFunc func(ctx context.Context, db DB) error

func (f WriteJobFunc) Execute(ctx context.Context, db DB) error {
	return f(ctx, db)
}

// BatchWriter collects write jobs and flushes them in batches, off the
// render path. A full queue drops jobs rather than blocking the caller.
type BatchWriter struct {
	db        DB
	jobs      chan WriteJob
	batchSize int
	interval  time.Duration
	wg        sync.WaitGroup
	once      sync.Once

	dropped atomic.Int64
	failed  atomic.Int64
}

func NewBatchWriter(db DB, bufferSize, batchSize int, interval time.Duration) *BatchWriter {
	if batchSize < 1 {
		batchSize = 1
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	w := &BatchWriter{
		db:        db,
		jobs:      make(chan WriteJob, max(bufferSize, 0)),
		batchSize: batchSize,
		interval:  interval,
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

// Enqueue queues job and reports whether it was accepted.
func (w *BatchWriter) Enqueue(job WriteJob) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		w.dropped.Add(1)
		log.Warn().Msg("write queue full, dropping job")
		return false
	}
}

func (w *BatchWriter) Dropped() int64 { return w.dropped.Load() }
func (w *BatchWriter) Failed() int64  { return w.failed.Load() }

func (w *BatchWriter) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	batch := make([]WriteJob, 0, w.batchSize)

	for {
		select {
		case job, ok := <-w.jobs:
			if !ok {
				w.flush(batch)
				return
			}
			batch = append(batch, job)
			if len(batch) >= w.batchSize {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (w *BatchWriter) flush(batch []WriteJob) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, job := range batch {
		if err := job.Execute(ctx, w.db); err != nil {
			w.failed.Add(1)
			log.Error().Err(err).Msg("write job failed")
		}
	}
}

// Shutdown flushes queued jobs and stops the writer. Enqueue must not be
// called afterwards.
func (w *BatchWriter) Shutdown() {
	w.once.Do(func() { close(w.jobs) })
	w.wg.Wait()
}
