// Package gameapi fetches account profiles from the game query service.
package gameapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hamed0406/arenawatch/internal/domain"
)

// Client is a paced HTTP JSON client for GET {base}/profile.
// It implements tracker.Fetcher and tracker.Pacer.
type Client struct {
	base       string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger

	mu         sync.Mutex
	retryAfter time.Duration // longest Retry-After seen since the last BatchDelay
}

func NewClient(base string, rps float64, burst int, log *zap.Logger) *Client {
	if rps <= 0 {
		rps = 5
	}
	if burst < 1 {
		burst = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		log:        log,
	}
}

func (c *Client) Fetch(ctx context.Context, sub domain.Subscription) (*domain.RawState, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w: %v", domain.ErrFetch, err)
	}

	params := url.Values{}
	params.Set("platform", sub.Platform.String())
	params.Set("viewer_id", strconv.FormatInt(sub.AccountID, 10))
	u := c.base + "/profile?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w: %v", domain.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile %d: %w: %v", sub.AccountID, domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read profile %d: %w: %v", sub.AccountID, domain.ErrFetch, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		wait := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		c.noteRetryAfter(wait)
		c.log.Warn("gameapi_throttled",
			zap.Int64("account_id", sub.AccountID),
			zap.Duration("retry_after", wait),
		)
		return nil, fmt.Errorf("profile %d: throttled: %w", sub.AccountID, domain.ErrFetch)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile %d returned %d: %s: %w", sub.AccountID, resp.StatusCode, truncate(body, 200), domain.ErrFetch)
	}

	var st domain.RawState
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("decode profile %d: %w: %v", sub.AccountID, domain.ErrParse, err)
	}
	if st.UserInfo.LastLoginTime == 0 && st.UserInfo.ArenaRank == 0 && st.UserInfo.GrandArenaRank == 0 {
		return nil, fmt.Errorf("profile %d: empty user_info: %w", sub.AccountID, domain.ErrParse)
	}

	c.log.Debug("gameapi_fetched",
		zap.Int64("account_id", sub.AccountID),
		zap.String("platform", sub.Platform.String()),
		zap.Duration("latency", time.Since(start)),
	)
	return &st, nil
}

// BatchDelay returns the longest Retry-After seen since the previous call and
// resets it. Zero means the upstream asked for nothing.
func (c *Client) BatchDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.retryAfter
	c.retryAfter = 0
	return d
}

func (c *Client) noteRetryAfter(d time.Duration) {
	c.mu.Lock()
	if d > c.retryAfter {
		c.retryAfter = d
	}
	c.mu.Unlock()
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
