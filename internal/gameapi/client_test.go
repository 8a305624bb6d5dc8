package gameapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/arenawatch/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 1000, 10, zap.NewNop())
}

func TestFetch_DecodesProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/profile" || r.URL.Query().Get("viewer_id") != "1234567890123" || r.URL.Query().Get("platform") != "tw" {
			t.Errorf("unexpected request %s", r.URL)
		}
		_, _ = w.Write([]byte(`{"user_info":{"user_name":"Kyaru","arena_rank":15,"grand_arena_rank":40,"last_login_time":1700000000},"quest_info":{}}`))
	})

	st, err := c.Fetch(context.Background(), domain.Subscription{AccountID: 1234567890123, Platform: domain.PlatformTW})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if st.UserInfo.UserName != "Kyaru" || st.Observation().ArenaRank != 15 {
		t.Fatalf("unexpected state: %+v", st.UserInfo)
	}
	if d := c.BatchDelay(); d != 0 {
		t.Fatalf("no pacing hint expected, got %v", d)
	}
}

func TestFetch_ErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		h    http.HandlerFunc
		want error
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) }, domain.ErrFetch},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"user_info":`)) }, domain.ErrParse},
		{"empty user info", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"user_info":{}}`)) }, domain.ErrParse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.h)
			_, err := c.Fetch(context.Background(), domain.Subscription{AccountID: 1})
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestFetch_ThrottleBecomesBatchDelay(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Fetch(context.Background(), domain.Subscription{AccountID: 1})
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("want ErrFetch, got %v", err)
	}
	if d := c.BatchDelay(); d != 7*time.Second {
		t.Fatalf("want 7s, got %v", d)
	}
	if d := c.BatchDelay(); d != 0 {
		t.Fatalf("BatchDelay must reset, got %v", d)
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Fetch(ctx, domain.Subscription{AccountID: 1}); !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("want ErrFetch on cancelled ctx, got %v", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-1", 0},
		{"soon", 0},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
	}
	for _, c := range cases {
		if got := parseRetryAfter(c.in, now); got != c.want {
			t.Fatalf("parseRetryAfter(%q)=%v want %v", c.in, got, c.want)
		}
	}
}
