package tracker

import (
	"context"
	"time"

	"github.com/hamed0406/arenawatch/internal/domain"
)

// Fetcher retrieves the current state of one subscription's account.
// Errors wrap domain.ErrFetch or domain.ErrParse.
type Fetcher interface {
	Fetch(ctx context.Context, sub domain.Subscription) (*domain.RawState, error)
}

// Pacer is optionally implemented by a Fetcher that knows how long the
// upstream wants the next batch delayed. Zero means no hint.
type Pacer interface {
	BatchDelay() time.Duration
}

// Dispatcher delivers notice text to a subscription's destination and reports
// whether it was sent.
type Dispatcher interface {
	Send(ctx context.Context, sub domain.Subscription, text string) bool
}

// Recorder buffers history records until the end of the cycle.
type Recorder interface {
	Record(rec domain.HistoryRecord)
}
