package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Platform is the game server family an account lives on.
type Platform int

const (
	PlatformB  Platform = 0
	PlatformQU Platform = 1
	PlatformTW Platform = 2
)

// Platforms lists every known platform in id order.
var Platforms = []Platform{PlatformB, PlatformQU, PlatformTW}

func (p Platform) String() string {
	switch p {
	case PlatformB:
		return "b"
	case PlatformQU:
		return "qu"
	case PlatformTW:
		return "tw"
	}
	return "platform(" + strconv.Itoa(int(p)) + ")"
}

func (p Platform) Valid() bool {
	return p >= PlatformB && p <= PlatformTW
}

// ParsePlatform accepts a platform name ("b", "qu", "tw") or its numeric id.
func ParsePlatform(s string) (Platform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range Platforms {
		if s == p.String() {
			return p, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Platform(n).Valid() {
		return Platform(n), nil
	}
	return 0, fmt.Errorf("unknown platform %q", s)
}

// OnlineNotice is a subscriber's login notification tier.
type OnlineNotice int

const (
	OnlineOff       OnlineNotice = 0
	OnlineScheduled OnlineNotice = 1 // only inside the daily notice window
	OnlineAlways    OnlineNotice = 2
	OnlineImmediate OnlineNotice = 3 // like OnlineAlways with the shorter noise threshold
)

func (o OnlineNotice) Enabled() bool { return o != OnlineOff }

type Subscription struct {
	AccountID        int64        `json:"account_id"`
	SubscriberID     int64        `json:"subscriber_id"`
	Platform         Platform     `json:"platform"`
	GroupID          int64        `json:"group_id"`
	Private          bool         `json:"private"`
	ArenaNotice      bool         `json:"arena_notice"`
	GrandArenaNotice bool         `json:"grand_arena_notice"`
	UpNotice         bool         `json:"up_notice"`
	OnlineNotice     OnlineNotice `json:"online_notice"`
	Name             string       `json:"name"`
}

func (s Subscription) Key() Key {
	return Key{AccountID: s.AccountID, SubscriberID: s.SubscriberID, Platform: s.Platform}
}

// Key identifies one observation cache entry.
type Key struct {
	AccountID    int64    `json:"account_id"`
	SubscriberID int64    `json:"subscriber_id"`
	Platform     Platform `json:"platform"`
}

// Observation is one fetched snapshot of the tracked values.
type Observation struct {
	ArenaRank      int64 `json:"arena_rank"`
	GrandArenaRank int64 `json:"grand_arena_rank"`
	LastLogin      int64 `json:"last_login"` // epoch seconds
}
