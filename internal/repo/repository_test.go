package repo_test

import (
	"testing"

	"github.com/hamed0406/arenawatch/internal/repo"
	"github.com/hamed0406/arenawatch/internal/repo/memory"
	pg "github.com/hamed0406/arenawatch/internal/repo/postgres"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.SubscriptionStore = memory.New(true)
	var _ repo.HistoryStore = memory.New(true)
	var _ repo.GroupGate = memory.New(true)
	var _ repo.SubscriptionWriter = memory.New(true)
	var _ repo.GroupFeatureWriter = memory.New(true)

	// Postgres store types compile against the interfaces, too.
	var _ repo.SubscriptionStore = (*pg.Store)(nil)
	var _ repo.HistoryStore = (*pg.Store)(nil)
	var _ repo.GroupGate = (*pg.Store)(nil)
	var _ repo.SubscriptionWriter = (*pg.Store)(nil)
	var _ repo.GroupFeatureWriter = (*pg.Store)(nil)
}
