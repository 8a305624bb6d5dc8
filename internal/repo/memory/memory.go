package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/hamed0406/arenawatch/internal/domain"
)

type groupKey struct {
	platform domain.Platform
	groupID  int64
}

// Store keeps subscriptions, group feature flags and history in process
// memory. Used when no DATABASE_URL is configured and in tests.
type Store struct {
	mu             sync.RWMutex
	subs           map[domain.Platform][]domain.Subscription
	features       map[groupKey]bool
	history        map[domain.Platform][]domain.HistoryRecord
	defaultEnabled bool
}

// New returns an empty store. featureDefault is the answer for groups that
// never had their feature flag set.
func New(featureDefault bool) *Store {
	return &Store{
		subs:           make(map[domain.Platform][]domain.Subscription),
		features:       make(map[groupKey]bool),
		history:        make(map[domain.Platform][]domain.HistoryRecord),
		defaultEnabled: featureDefault,
	}
}

// UpsertSubscription inserts or replaces the subscription with the same key.
func (m *Store) UpsertSubscription(ctx context.Context, s domain.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.subs[s.Platform]
	for i := range list {
		if list[i].Key() == s.Key() {
			list[i] = s
			return nil
		}
	}
	m.subs[s.Platform] = append(list, s)
	return nil
}

func (m *Store) ActiveSubscriptions(ctx context.Context, p domain.Platform) ([]domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.subs[p]), nil
}

func (m *Store) SetGroupFeature(ctx context.Context, p domain.Platform, groupID int64, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.features[groupKey{p, groupID}] = enabled
	return nil
}

func (m *Store) IsFeatureEnabledForGroup(ctx context.Context, p domain.Platform, groupID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.features[groupKey{p, groupID}]; ok {
		return v, nil
	}
	return m.defaultEnabled, nil
}

func (m *Store) AppendHistoryBatch(ctx context.Context, p domain.Platform, recs []domain.HistoryRecord) error {
	if len(recs) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[p] = append(m.history[p], recs...)
	return nil
}

// History returns a copy of everything persisted for a platform.
func (m *Store) History(p domain.Platform) []domain.HistoryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.history[p])
}

// UpCount counts distinct improvements; the same change seen by several
// subscribers of one account is counted once.
func (m *Store) UpCount(ctx context.Context, p domain.Platform, accountID, since int64) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type change struct {
		item                domain.Metric
		date, before, after int64
	}
	seen := make(map[change]struct{})
	var arena, grand int
	for _, r := range m.history[p] {
		if r.AccountID != accountID || r.Date < since || !r.Improved() {
			continue
		}
		c := change{r.Item, r.Date, r.Before, r.After}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		switch r.Item {
		case domain.MetricArena:
			arena++
		case domain.MetricGrandArena:
			grand++
		}
	}
	return arena, grand, nil
}
