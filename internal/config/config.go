package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/arenawatch/internal/domain"
)

// NoticeWindow is the daily band in which scheduled-tier login notices go out:
// Hour:FromMinute up to (not including) Hour:ToMinute, at UTCOffsetHours.
type NoticeWindow struct {
	Hour           int
	FromMinute     int
	ToMinute       int
	UTCOffsetHours int
}

type Config struct {
	Addr          string   // status API bind address; empty disables the API
	LogDir        string   // logs directory
	LogLevel      string   // debug, info, warn, error
	DatabaseURL   string   // empty means use the in-memory store
	PublicAPIKeys []string // read access to the status API
	AdminAPIKeys  []string
	PublicRPM     int
	PublicBurst   int
	AdminRPM      int
	AdminBurst    int
	AllowOrigins  []string // CORS; empty allows all

	Platforms        []domain.Platform
	MinPollInterval  time.Duration                     // cooldown when the fetcher gives no pacing hint
	PlatformMinPoll  map[domain.Platform]time.Duration // per-platform override of MinPollInterval
	CooldownExtra    time.Duration                     // always added after a cycle
	CooldownExtraMax time.Duration
	FetchTimeout     time.Duration
	MaxConcurrent    int
	FetchRPS         float64
	FetchBurst       int

	GameAPIBase     string
	BotAPIBase      string // OneBot HTTP API; empty logs notices instead of sending
	BotAccessToken  string
	BotSendAttempts int

	OnlineImmediateMin  time.Duration // noise threshold for the immediate online tier
	OnlineDefaultMin    time.Duration // noise threshold for the other online tiers
	NoticeWindow        NoticeWindow
	GroupFeatureDefault bool
}

func FromEnv() Config {
	cfg := Config{
		Addr:          os.Getenv("API_ADDR"),
		LogDir:        envOr("LOG_DIR", "logs"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		PublicAPIKeys: envList("PUBLIC_API_KEYS"),
		AdminAPIKeys:  envList("ADMIN_API_KEYS"),
		PublicRPM:     envInt("PUBLIC_RPM", 120),
		PublicBurst:   envInt("PUBLIC_BURST", 60),
		AdminRPM:      envInt("ADMIN_RPM", 60),
		AdminBurst:    envInt("ADMIN_BURST", 30),
		AllowOrigins:  envList("API_ALLOW_ORIGINS"),

		MinPollInterval:  envMillis("POLL_MIN_INTERVAL_MS", 30*time.Second),
		PlatformMinPoll:  make(map[domain.Platform]time.Duration),
		CooldownExtra:    envMillis("COOLDOWN_EXTRA_MS", time.Second),
		CooldownExtraMax: envMillis("COOLDOWN_EXTRA_MAX_MS", 10*time.Second),
		FetchTimeout:     envMillis("FETCH_TIMEOUT_MS", 10*time.Second),
		MaxConcurrent:    envInt("MAX_CONCURRENT_FETCHES", 4),
		FetchRPS:         envFloat("FETCH_RPS", 5),
		FetchBurst:       envInt("FETCH_BURST", 5),

		GameAPIBase:     envOr("GAME_API_BASE", "http://127.0.0.1:8090"),
		BotAPIBase:      os.Getenv("BOT_API_BASE"),
		BotAccessToken:  os.Getenv("BOT_ACCESS_TOKEN"),
		BotSendAttempts: envInt("BOT_SEND_ATTEMPTS", 3),

		OnlineImmediateMin: time.Duration(envInt("ONLINE_IMMEDIATE_MIN_SECONDS", 60)) * time.Second,
		OnlineDefaultMin:   time.Duration(envInt("ONLINE_DEFAULT_MIN_SECONDS", 600)) * time.Second,
		NoticeWindow: NoticeWindow{
			Hour:           envInt("SCHEDULED_NOTICE_HOUR", 14),
			FromMinute:     envInt("SCHEDULED_NOTICE_FROM_MINUTE", 30),
			ToMinute:       envInt("SCHEDULED_NOTICE_TO_MINUTE", 60),
			UTCOffsetHours: envInt("SCHEDULED_NOTICE_UTC_OFFSET", 8),
		},
		GroupFeatureDefault: envBool("GROUP_FEATURE_DEFAULT", true),
	}

	for _, name := range envListOr("PLATFORMS", []string{"b", "qu", "tw"}) {
		if p, err := domain.ParsePlatform(name); err == nil {
			cfg.Platforms = append(cfg.Platforms, p)
		}
	}
	for _, p := range domain.Platforms {
		key := "POLL_MIN_INTERVAL_" + strings.ToUpper(p.String()) + "_MS"
		if d := envMillis(key, 0); d > 0 {
			cfg.PlatformMinPoll[p] = d
		}
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	return cfg
}

// MinPollFor returns the platform's minimum cooldown.
func (c Config) MinPollFor(p domain.Platform) time.Duration {
	if d, ok := c.PlatformMinPoll[p]; ok {
		return d
	}
	return c.MinPollInterval
}

// ExtraDelay is the fixed delay added to every cooldown, capped.
func (c Config) ExtraDelay() time.Duration {
	if c.CooldownExtraMax > 0 && c.CooldownExtra > c.CooldownExtraMax {
		return c.CooldownExtraMax
	}
	return c.CooldownExtra
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func envMillis(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return fallback
}

func envList(key string) []string {
	return envListOr(key, nil)
}

func envListOr(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
