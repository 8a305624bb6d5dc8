package tracker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/arenawatch/internal/domain"
	"github.com/hamed0406/arenawatch/internal/policy"
)

// Change is one evaluated difference between the cached and the new observation.
type Change struct {
	Metric domain.Metric `json:"metric"`
	Before int64         `json:"before"`
	After  int64         `json:"after"`
	Notify bool          `json:"notify"` // policy outcome
	Sent   bool          `json:"sent"`   // gateway outcome
}

type Evaluator struct {
	cache    *Cache
	policy   *policy.Policy
	gateway  Dispatcher
	recorder Recorder
	log      *zap.Logger
	now      func() time.Time
}

func NewEvaluator(cache *Cache, pol *policy.Policy, gw Dispatcher, rec Recorder, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{
		cache:    cache,
		policy:   pol,
		gateway:  gw,
		recorder: rec,
		log:      log,
		now:      time.Now,
	}
}

// Evaluate compares obs with the cached observation for sub, updates the
// cache, dispatches the notices the policy allows and records history.
// The first observation of a key only seeds the cache.
func (e *Evaluator) Evaluate(ctx context.Context, sub domain.Subscription, obs domain.Observation) []Change {
	key := sub.Key()

	unlock := e.cache.Lock(key)
	old, ok := e.cache.Get(key)
	if !ok {
		e.cache.Put(key, obs)
		unlock()
		e.log.Debug("tracker_baseline",
			zap.Int64("account_id", sub.AccountID),
			zap.Int64("subscriber_id", sub.SubscriberID),
			zap.String("platform", sub.Platform.String()),
		)
		return nil
	}

	var changes []Change
	next := obs
	if obs.ArenaRank != old.ArenaRank {
		d := e.policy.Ranking(sub, domain.MetricArena, old.ArenaRank, obs.ArenaRank)
		changes = append(changes, Change{Metric: domain.MetricArena, Before: old.ArenaRank, After: obs.ArenaRank, Notify: d.Notify})
	}
	if obs.GrandArenaRank != old.GrandArenaRank {
		d := e.policy.Ranking(sub, domain.MetricGrandArena, old.GrandArenaRank, obs.GrandArenaRank)
		changes = append(changes, Change{Metric: domain.MetricGrandArena, Before: old.GrandArenaRank, After: obs.GrandArenaRank, Notify: d.Notify})
	}
	if obs.LastLogin != old.LastLogin {
		d := e.policy.Online(sub, old.LastLogin, obs.LastLogin)
		if d.Rollback {
			next.LastLogin = old.LastLogin
		}
		changes = append(changes, Change{Metric: domain.MetricOnline, Before: old.LastLogin, After: obs.LastLogin, Notify: d.Notify})
	}
	if len(changes) == 0 {
		unlock()
		return nil
	}
	e.cache.Put(key, next)
	unlock()

	date := e.now().Unix()
	for i := range changes {
		ch := &changes[i]
		if ch.Notify {
			ch.Sent = e.gateway.Send(ctx, sub, noticeText(sub.Name, *ch))
			if ch.Sent {
				e.log.Info("notice_sent",
					zap.Int64("account_id", sub.AccountID),
					zap.Int64("subscriber_id", sub.SubscriberID),
					zap.String("metric", ch.Metric.String()),
					zap.Int64("before", ch.Before),
					zap.Int64("after", ch.After),
				)
			}
		}
		// login changes are only recorded when a notice went out
		if ch.Metric == domain.MetricOnline && !ch.Sent {
			continue
		}
		e.recorder.Record(domain.HistoryRecord{
			SubscriberID: sub.SubscriberID,
			AccountID:    sub.AccountID,
			Name:         sub.Name,
			Platform:     sub.Platform,
			Date:         date,
			Before:       ch.Before,
			After:        ch.After,
			Sent:         ch.Sent,
			Item:         ch.Metric,
		})
	}
	return changes
}

func noticeText(name string, ch Change) string {
	var label string
	switch ch.Metric {
	case domain.MetricOnline:
		return name + " is online!"
	case domain.MetricArena:
		label = "arena"
	default:
		label = "grand arena"
	}
	if ch.After < ch.Before {
		return fmt.Sprintf("%s\n%s: %d->%d [▲%d]", name, label, ch.Before, ch.After, ch.Before-ch.After)
	}
	return fmt.Sprintf("%s\n%s: %d->%d [▽%d]", name, label, ch.Before, ch.After, ch.After-ch.Before)
}
