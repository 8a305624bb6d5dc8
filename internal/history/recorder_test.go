package history

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/hamed0406/arenawatch/internal/domain"
	"github.com/hamed0406/arenawatch/internal/repo/memory"
)

type flakyStore struct {
	fail    bool
	batches [][]domain.HistoryRecord
}

func (s *flakyStore) AppendHistoryBatch(_ context.Context, _ domain.Platform, recs []domain.HistoryRecord) error {
	if s.fail {
		return errors.New("connection reset")
	}
	s.batches = append(s.batches, recs)
	return nil
}

func (s *flakyStore) UpCount(context.Context, domain.Platform, int64, int64) (int, int, error) {
	return 0, 0, nil
}

func TestRecorder_FlushPersistsOneBatchAndClears(t *testing.T) {
	store := memory.New(true)
	r := NewRecorder(store, zap.NewNop())

	r.Record(domain.HistoryRecord{AccountID: 1, Platform: domain.PlatformQU, Item: domain.MetricArena})
	r.Record(domain.HistoryRecord{AccountID: 2, Platform: domain.PlatformQU, Item: domain.MetricArena})
	r.Record(domain.HistoryRecord{AccountID: 3, Platform: domain.PlatformTW, Item: domain.MetricArena})

	if err := r.Flush(context.Background(), domain.PlatformQU); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := len(store.History(domain.PlatformQU)); got != 2 {
		t.Fatalf("want 2 persisted, got %d", got)
	}
	if r.Pending(domain.PlatformQU) != 0 || r.Pending(domain.PlatformTW) != 1 {
		t.Fatalf("flush must only clear its platform")
	}
}

func TestRecorder_EmptyFlushIsNoop(t *testing.T) {
	store := &flakyStore{fail: true}
	r := NewRecorder(store, zap.NewNop())
	if err := r.Flush(context.Background(), domain.PlatformB); err != nil {
		t.Fatalf("empty flush must not touch the store: %v", err)
	}
}

func TestRecorder_FailedFlushRetainsRecords(t *testing.T) {
	store := &flakyStore{fail: true}
	r := NewRecorder(store, zap.NewNop())
	r.Record(domain.HistoryRecord{AccountID: 1, Platform: domain.PlatformB})

	err := r.Flush(context.Background(), domain.PlatformB)
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("want ErrPersistence, got %v", err)
	}
	if r.Pending(domain.PlatformB) != 1 {
		t.Fatalf("records must be retained")
	}

	r.Record(domain.HistoryRecord{AccountID: 2, Platform: domain.PlatformB})
	store.fail = false
	if err := r.Flush(context.Background(), domain.PlatformB); err != nil {
		t.Fatalf("retry flush: %v", err)
	}
	if len(store.batches) != 1 || len(store.batches[0]) != 2 {
		t.Fatalf("want one batch of 2, got %+v", store.batches)
	}
	if store.batches[0][0].AccountID != 1 || store.batches[0][1].AccountID != 2 {
		t.Fatalf("retained records must keep their order: %+v", store.batches[0])
	}
}

func TestRecorder_FlushAllCombinesErrors(t *testing.T) {
	store := &flakyStore{fail: true}
	r := NewRecorder(store, zap.NewNop())
	r.Record(domain.HistoryRecord{Platform: domain.PlatformB})
	r.Record(domain.HistoryRecord{Platform: domain.PlatformTW})

	err := r.FlushAll(context.Background())
	if err == nil || !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("want combined persistence error, got %v", err)
	}
	if r.Pending(domain.PlatformB) != 1 || r.Pending(domain.PlatformTW) != 1 {
		t.Fatalf("both buffers must be retained")
	}
}
