// Package history buffers evaluated changes per platform and persists them
// in one batch at the end of each polling cycle.
package history

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/arenawatch/internal/domain"
	"github.com/hamed0406/arenawatch/internal/repo"
)

type Recorder struct {
	store repo.HistoryStore
	log   *zap.Logger

	mu      sync.Mutex
	pending map[domain.Platform][]domain.HistoryRecord
}

func NewRecorder(store repo.HistoryStore, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		store:   store,
		log:     log,
		pending: make(map[domain.Platform][]domain.HistoryRecord),
	}
}

func (r *Recorder) Record(rec domain.HistoryRecord) {
	r.mu.Lock()
	r.pending[rec.Platform] = append(r.pending[rec.Platform], rec)
	r.mu.Unlock()
}

// Pending is the number of buffered, not yet persisted records.
func (r *Recorder) Pending(p domain.Platform) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending[p])
}

// Flush persists the platform's buffer as one batch. On failure the records
// stay buffered, ahead of anything recorded meanwhile, for the next flush.
func (r *Recorder) Flush(ctx context.Context, p domain.Platform) error {
	r.mu.Lock()
	batch := r.pending[p]
	delete(r.pending, p)
	r.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := r.store.AppendHistoryBatch(ctx, p, batch); err != nil {
		r.mu.Lock()
		r.pending[p] = append(batch, r.pending[p]...)
		n := len(r.pending[p])
		r.mu.Unlock()

		r.log.Error("history_flush_error",
			zap.String("platform", p.String()),
			zap.Int("records", len(batch)),
			zap.Int("pending", n),
			zap.Error(err),
		)
		return fmt.Errorf("flush %s history: %w: %v", p, domain.ErrPersistence, err)
	}

	r.log.Debug("history_flushed", zap.String("platform", p.String()), zap.Int("records", len(batch)))
	return nil
}

// FlushAll flushes every platform with buffered records.
func (r *Recorder) FlushAll(ctx context.Context) error {
	var err error
	for _, p := range domain.Platforms {
		err = multierr.Append(err, r.Flush(ctx, p))
	}
	return err
}
