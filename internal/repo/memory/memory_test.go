package memory

import (
	"context"
	"testing"

	"github.com/hamed0406/arenawatch/internal/domain"
)

func TestMemoryStore_UpsertAndListSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := New(true)

	sub := domain.Subscription{AccountID: 1001, SubscriberID: 42, Platform: domain.PlatformB, Name: "first"}
	if err := s.UpsertSubscription(ctx, sub); err != nil {
		t.Fatalf("UpsertSubscription: %v", err)
	}
	// same key replaces
	sub.Name = "renamed"
	if err := s.UpsertSubscription(ctx, sub); err != nil {
		t.Fatalf("UpsertSubscription: %v", err)
	}
	other := domain.Subscription{AccountID: 1001, SubscriberID: 42, Platform: domain.PlatformQU}
	if err := s.UpsertSubscription(ctx, other); err != nil {
		t.Fatalf("UpsertSubscription: %v", err)
	}

	all, err := s.ActiveSubscriptions(ctx, domain.PlatformB)
	if err != nil {
		t.Fatalf("ActiveSubscriptions: %v", err)
	}
	if len(all) != 1 || all[0].Name != "renamed" {
		t.Fatalf("unexpected subscriptions: %+v", all)
	}
}

func TestMemoryStore_GroupFeatureDefault(t *testing.T) {
	ctx := context.Background()
	s := New(false)

	on, _ := s.IsFeatureEnabledForGroup(ctx, domain.PlatformB, 7)
	if on {
		t.Fatalf("unset group should use default=false")
	}
	_ = s.SetGroupFeature(ctx, domain.PlatformB, 7, true)
	on, _ = s.IsFeatureEnabledForGroup(ctx, domain.PlatformB, 7)
	if !on {
		t.Fatalf("explicit enable should win")
	}
	on, _ = s.IsFeatureEnabledForGroup(ctx, domain.PlatformTW, 7)
	if on {
		t.Fatalf("flag is per platform")
	}
}

func TestMemoryStore_UpCountDedupesSubscribers(t *testing.T) {
	ctx := context.Background()
	s := New(true)

	recs := []domain.HistoryRecord{
		{SubscriberID: 1, AccountID: 9, Date: 100, Before: 50, After: 40, Item: domain.MetricArena},
		{SubscriberID: 2, AccountID: 9, Date: 100, Before: 50, After: 40, Item: domain.MetricArena}, // same change
		{SubscriberID: 1, AccountID: 9, Date: 200, Before: 40, After: 45, Item: domain.MetricArena}, // regression
		{SubscriberID: 1, AccountID: 9, Date: 200, Before: 30, After: 20, Item: domain.MetricGrandArena},
		{SubscriberID: 1, AccountID: 9, Date: 10, Before: 30, After: 20, Item: domain.MetricGrandArena}, // too old
		{SubscriberID: 1, AccountID: 8, Date: 200, Before: 30, After: 20, Item: domain.MetricArena},     // other account
	}
	if err := s.AppendHistoryBatch(ctx, domain.PlatformB, recs); err != nil {
		t.Fatalf("AppendHistoryBatch: %v", err)
	}

	arena, grand, err := s.UpCount(ctx, domain.PlatformB, 9, 50)
	if err != nil {
		t.Fatalf("UpCount: %v", err)
	}
	if arena != 1 || grand != 1 {
		t.Fatalf("want 1/1, got %d/%d", arena, grand)
	}
	if got := len(s.History(domain.PlatformB)); got != len(recs) {
		t.Fatalf("want %d persisted, got %d", len(recs), got)
	}
}
