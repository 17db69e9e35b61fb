package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execJob(sql string) WriteJob {
	return WriteJobFunc(func(ctx context.Context, db DB) error {
		_, err := db.Exec(ctx, sql)
		return err
	})
}

func TestBatchWriter_FlushesOnBatchSize(t *testing.T) {
	db := &fakeDB{}
	w := NewBatchWriter(db, 10, 2, time.Hour)
	defer w.Shutdown()

	require.True(t, w.Enqueue(execJob("a")))
	require.True(t, w.Enqueue(execJob("b")))

	assert.Eventually(t, func() bool { return db.execCount() == 2 }, time.Second, 5*time.Millisecond)
}

func TestBatchWriter_FlushesOnTicker(t *testing.T) {
	db := &fakeDB{}
	w := NewBatchWriter(db, 10, 100, 10*time.Millisecond)
	defer w.Shutdown()

	w.Enqueue(execJob("a"))

	assert.Eventually(t, func() bool { return db.execCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestBatchWriter_FlushesOnShutdown(t *testing.T) {
	db := &fakeDB{}
	w := NewBatchWriter(db, 10, 100, time.Hour)

	for _, s := range []string{"a", "b", "c"} {
		w.Enqueue(execJob(s))
	}
	w.Shutdown()
	w.Shutdown()

	require.Equal(t, 3, db.execCount())
	assert.Equal(t, "a", db.execs[0].sql)
	assert.Equal(t, "c", db.execs[2].sql)
}

func TestBatchWriter_DropsWhenFull(t *testing.T) {
	db := &fakeDB{}
	w := NewBatchWriter(db, 1, 1, time.Hour)

	started := make(chan struct{})
	release := make(chan struct{})
	w.Enqueue(WriteJobFunc(func(ctx context.Context, db DB) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	assert.True(t, w.Enqueue(execJob("queued")))
	assert.False(t, w.Enqueue(execJob("dropped")))
	assert.EqualValues(t, 1, w.Dropped())

	close(release)
	w.Shutdown()
	require.Equal(t, 1, db.execCount())
	assert.Equal(t, "queued", db.execs[0].sql)
}

func TestBatchWriter_FailedJobDoesNotStopBatch(t *testing.T) {
	db := &fakeDB{}
	w := NewBatchWriter(db, 10, 10, time.Hour)

	w.Enqueue(WriteJobFunc(func(context.Context, DB) error { return errors.New("boom") }))
	w.Enqueue(execJob("after"))
	w.Shutdown()

	assert.EqualValues(t, 1, w.Failed())
	assert.Equal(t, 1, db.execCount())
}
