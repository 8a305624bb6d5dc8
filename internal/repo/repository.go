package repo

import (
	"context"

	"github.com/hamed0406/arenawatch/internal/domain"
)

// Ports (interfaces) — swap in any DB adapter later.
type SubscriptionStore interface {
	// ActiveSubscriptions returns the subscriptions to poll for a platform,
	// in a stable order.
	ActiveSubscriptions(ctx context.Context, p domain.Platform) ([]domain.Subscription, error)
}

type HistoryStore interface {
	// AppendHistoryBatch persists a whole cycle's records; all or nothing.
	AppendHistoryBatch(ctx context.Context, p domain.Platform, recs []domain.HistoryRecord) error
	// UpCount counts ranking improvements recorded since the given epoch second.
	UpCount(ctx context.Context, p domain.Platform, accountID, since int64) (arena, grandArena int, err error)
}

// GroupGate reports whether the platform's notice feature is switched on in a group.
type GroupGate interface {
	IsFeatureEnabledForGroup(ctx context.Context, p domain.Platform, groupID int64) (bool, error)
}

// SubscriptionWriter is the admin side of the subscription store.
type SubscriptionWriter interface {
	UpsertSubscription(ctx context.Context, s domain.Subscription) error
}

// GroupFeatureWriter switches a platform's notice feature per group.
type GroupFeatureWriter interface {
	SetGroupFeature(ctx context.Context, p domain.Platform, groupID int64, enabled bool) error
}
