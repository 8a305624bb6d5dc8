package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hamed0406/arenawatch/internal/config"
	"github.com/hamed0406/arenawatch/internal/domain"
)

func validConfig() config.Config {
	return config.Config{
		Platforms:          []domain.Platform{domain.PlatformB},
		GameAPIBase:        "http://127.0.0.1:8090",
		OnlineImmediateMin: 60,
		OnlineDefaultMin:   600,
		NoticeWindow:       config.NoticeWindow{Hour: 14, FromMinute: 30, ToMinute: 60, UTCOffsetHours: 8},
	}
}

func TestPreflight_WarnsButPasses(t *testing.T) {
	var out bytes.Buffer
	if err := preflight(validConfig(), &out); err != nil {
		t.Fatalf("preflight: %v", err)
	}
	for _, want := range []string{"PLATFORMS=b", "BOT_API_BASE empty", "DATABASE_URL empty", "API_ADDR empty"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestPreflight_Failures(t *testing.T) {
	cases := map[string]func(*config.Config){
		"no platforms":   func(c *config.Config) { c.Platforms = nil },
		"relative game":  func(c *config.Config) { c.GameAPIBase = "localhost" },
		"bad bot url":    func(c *config.Config) { c.BotAPIBase = "::bot" },
		"inverse window": func(c *config.Config) { c.NoticeWindow.FromMinute = 60 },
		"bad hour":       func(c *config.Config) { c.NoticeWindow.Hour = 24 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			if err := preflight(cfg, &bytes.Buffer{}); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestPreflight_APIKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Addr = ":8080"
	var out bytes.Buffer
	if err := preflight(cfg, &out); err != nil {
		t.Fatalf("preflight: %v", err)
	}
	if !strings.Contains(out.String(), "admin routes are open") {
		t.Fatalf("expected admin key warning:\n%s", out.String())
	}
}
