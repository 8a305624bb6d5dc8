package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/arenawatch/internal/domain"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := New(ctx, dsn, true, zap.NewNop())
	if err != nil {
		t.Fatalf("New store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return store
}

func TestPostgresStore_Subscriptions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	// unique account per run so reruns against the same DB don't collide
	account := time.Now().UTC().UnixNano()
	sub := domain.Subscription{
		AccountID:    account,
		SubscriberID: 42,
		Platform:     domain.PlatformQU,
		GroupID:      777,
		ArenaNotice:  true,
		OnlineNotice: domain.OnlineScheduled,
		Name:         "test",
	}
	if err := store.UpsertSubscription(ctx, sub); err != nil {
		t.Fatalf("UpsertSubscription: %v", err)
	}
	sub.Name = "renamed"
	if err := store.UpsertSubscription(ctx, sub); err != nil {
		t.Fatalf("UpsertSubscription (update): %v", err)
	}

	list, err := store.ActiveSubscriptions(ctx, domain.PlatformQU)
	if err != nil {
		t.Fatalf("ActiveSubscriptions: %v", err)
	}
	var found *domain.Subscription
	for i := range list {
		if list[i].AccountID == account {
			found = &list[i]
		}
	}
	if found == nil {
		t.Fatalf("subscription %d not listed", account)
	}
	if found.Name != "renamed" || found.OnlineNotice != domain.OnlineScheduled || found.GroupID != 777 {
		t.Fatalf("unexpected row: %+v", found)
	}
}

func TestPostgresStore_GroupFeatures(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	group := time.Now().UTC().UnixNano()

	// none yet -> default
	on, err := store.IsFeatureEnabledForGroup(ctx, domain.PlatformB, group)
	if err != nil || !on {
		t.Fatalf("expected default=true, got %v err=%v", on, err)
	}

	if err := store.SetGroupFeature(ctx, domain.PlatformB, group, false); err != nil {
		t.Fatalf("SetGroupFeature: %v", err)
	}
	on, err = store.IsFeatureEnabledForGroup(ctx, domain.PlatformB, group)
	if err != nil || on {
		t.Fatalf("expected disabled, got %v err=%v", on, err)
	}
}

func TestPostgresStore_HistoryBatchAndUpCount(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	account := time.Now().UTC().UnixNano()
	now := time.Now().Unix()

	recs := []domain.HistoryRecord{
		{SubscriberID: 1, AccountID: account, Name: "a", Platform: domain.PlatformTW, Date: now, Before: 100, After: 90, Sent: false, Item: domain.MetricArena},
		{SubscriberID: 2, AccountID: account, Name: "a", Platform: domain.PlatformTW, Date: now, Before: 100, After: 90, Sent: true, Item: domain.MetricArena},
		{SubscriberID: 1, AccountID: account, Name: "a", Platform: domain.PlatformTW, Date: now, Before: 50, After: 60, Sent: true, Item: domain.MetricGrandArena},
	}
	if err := store.AppendHistoryBatch(ctx, domain.PlatformTW, recs); err != nil {
		t.Fatalf("AppendHistoryBatch: %v", err)
	}
	if err := store.AppendHistoryBatch(ctx, domain.PlatformTW, nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}

	arena, grand, err := store.UpCount(ctx, domain.PlatformTW, account, now-60)
	if err != nil {
		t.Fatalf("UpCount: %v", err)
	}
	if arena != 1 || grand != 0 {
		t.Fatalf("want 1/0 ups, got %d/%d", arena, grand)
	}
}
