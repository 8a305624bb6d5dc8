// Package policy decides whether an observed change is worth a notice.
package policy

import (
	"time"

	"github.com/hamed0406/arenawatch/internal/domain"
)

// Window is the daily band for scheduled login notices, evaluated in Zone.
// A login at Hour:m qualifies when FromMinute <= m < ToMinute.
type Window struct {
	Hour       int
	FromMinute int
	ToMinute   int
	Zone       *time.Location
}

// Contains reports whether the epoch second ts falls inside the window.
func (w Window) Contains(ts int64) bool {
	zone := w.Zone
	if zone == nil {
		zone = time.UTC
	}
	t := time.Unix(ts, 0).In(zone)
	return t.Hour() == w.Hour && t.Minute() >= w.FromMinute && t.Minute() < w.ToMinute
}

type Config struct {
	ImmediateMin time.Duration // noise threshold for domain.OnlineImmediate
	DefaultMin   time.Duration // noise threshold for the other enabled tiers
	Window       Window
}

// DefaultConfig is 60s / 600s with the 14:30-14:59 window at UTC+8.
func DefaultConfig() Config {
	return Config{
		ImmediateMin: 60 * time.Second,
		DefaultMin:   10 * time.Minute,
		Window: Window{
			Hour:       14,
			FromMinute: 30,
			ToMinute:   60,
			Zone:       time.FixedZone("UTC+8", 8*3600),
		},
	}
}

// Decision is the outcome for one changed value. Rollback asks the caller to
// keep the previously cached value so short intervals accumulate.
type Decision struct {
	Notify   bool
	Rollback bool
}

type Policy struct {
	cfg Config
}

func New(cfg Config) *Policy {
	return &Policy{cfg: cfg}
}

// Ranking decides for an arena or grand arena change. Lower rank numbers are
// better, so cur > prev is a drop.
func (p *Policy) Ranking(sub domain.Subscription, m domain.Metric, prev, cur int64) Decision {
	var optedIn bool
	switch m {
	case domain.MetricArena:
		optedIn = sub.ArenaNotice
	case domain.MetricGrandArena:
		optedIn = sub.GrandArenaNotice
	}
	return Decision{Notify: optedIn && (sub.UpNotice || cur > prev)}
}

// Online decides for a last-login change.
func (p *Policy) Online(sub domain.Subscription, prev, cur int64) Decision {
	if !sub.OnlineNotice.Enabled() {
		return Decision{}
	}
	if time.Duration(cur-prev)*time.Second < p.threshold(sub.OnlineNotice) {
		return Decision{Rollback: true}
	}
	if sub.OnlineNotice == domain.OnlineScheduled {
		return Decision{Notify: p.cfg.Window.Contains(cur)}
	}
	return Decision{Notify: true}
}

func (p *Policy) threshold(tier domain.OnlineNotice) time.Duration {
	if tier == domain.OnlineImmediate {
		return p.cfg.ImmediateMin
	}
	return p.cfg.DefaultMin
}
