package domain

import "encoding/json"

// RawState is the payload fetched for one account. Only UserInfo's rank and
// login fields feed the tracker; the rest is carried for presentation.
type RawState struct {
	UserInfo  UserInfo        `json:"user_info"`
	QuestInfo json.RawMessage `json:"quest_info,omitempty"`
}

type UserInfo struct {
	UserName          string `json:"user_name"`
	ArenaRank         int64  `json:"arena_rank"`
	GrandArenaRank    int64  `json:"grand_arena_rank"`
	LastLoginTime     int64  `json:"last_login_time"`
	ArenaGroup        int64  `json:"arena_group"`
	GrandArenaGroup   int64  `json:"grand_arena_group"`
	KnightRankTotalXP int64  `json:"princess_knight_rank_total_exp"`
}

func (s *RawState) Observation() Observation {
	return Observation{
		ArenaRank:      s.UserInfo.ArenaRank,
		GrandArenaRank: s.UserInfo.GrandArenaRank,
		LastLogin:      s.UserInfo.LastLoginTime,
	}
}
