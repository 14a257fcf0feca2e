package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/contacts-extractor/internal/core"
	"github.com/joseph-ayodele/contacts-extractor/internal/entity"
)

type fakeProcessor struct {
	calls   atomic.Int32
	running atomic.Int32
	peak    atomic.Int32
	delay   time.Duration
}

func (f *fakeProcessor) ProcessFile(ctx context.Context, path string) (*core.Result, error) {
	f.calls.Add(1)
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if path == "bad.pdf" {
		return nil, errors.New("boom")
	}
	return &core.Result{SourcePath: path, Contacts: []entity.Contact{entity.NewContact()}}, nil
}

func TestProcessorQueue_ProcessesAllJobs(t *testing.T) {
	proc := &fakeProcessor{delay: 10 * time.Millisecond}

	var mu sync.Mutex
	done := map[string]error{}
	q := NewProcessorQueue(proc, slog.New(slog.DiscardHandler),
		WithWorkers(3),
		WithQueueSize(2),
		WithResultHandler(func(job Job, _ *core.Result, err error) {
			mu.Lock()
			done[job.Path] = err
			mu.Unlock()
		}),
	)

	paths := []string{"a.pdf", "b.pdf", "bad.pdf", "c.zip", "d.txt", "e.png"}
	for _, p := range paths {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: p}))
	}
	q.Shutdown(context.Background())

	assert.Equal(t, int32(len(paths)), proc.calls.Load())
	assert.LessOrEqual(t, proc.peak.Load(), int32(3))
	require.Len(t, done, len(paths))
	assert.Error(t, done["bad.pdf"])
	assert.NoError(t, done["a.pdf"])
	assert.Equal(t, Stats{Processed: 5, Failed: 1, Contacts: 5}, q.Stats())
}

func TestProcessorQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&fakeProcessor{}, nil, WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background()) // idempotent

	err := q.Enqueue(context.Background(), Job{Path: "a.pdf"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestProcessorQueue_JobTimeout(t *testing.T) {
	proc := &fakeProcessor{delay: time.Second}
	var got error
	q := NewProcessorQueue(proc, slog.New(slog.DiscardHandler),
		WithWorkers(1),
		WithProcessTimeout(20*time.Millisecond),
		WithResultHandler(func(_ Job, _ *core.Result, err error) { got = err }),
	)
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "slow.pdf"}))
	q.Shutdown(context.Background())

	assert.ErrorIs(t, got, context.DeadlineExceeded)
}
