package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"

	"github.com/hamed0406/arenawatch/internal/domain"
)

// OneBot sends through a OneBot v11 HTTP API (send_private_msg / send_group_msg).
// Network errors and 5xx replies are retried; rejected requests are not.
type OneBot struct {
	Base     string
	Token    string
	Attempts uint
	Delay    time.Duration // first retry delay, doubled per attempt
	Client   *http.Client
	Logger   *zap.Logger
}

func NewOneBot(base, token string, attempts int, logger *zap.Logger) *OneBot {
	if base == "" {
		return nil
	}
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OneBot{
		Base:     strings.TrimRight(base, "/"),
		Token:    token,
		Attempts: uint(attempts),
		Delay:    500 * time.Millisecond,
		Client:   &http.Client{Timeout: 10 * time.Second},
		Logger:   logger,
	}
}

type onebotReply struct {
	Status  string `json:"status"`
	RetCode int    `json:"retcode"`
	Message string `json:"message"`
}

func (o *OneBot) SendDirect(ctx context.Context, userID int64, text string) error {
	return o.call(ctx, "send_private_msg", map[string]any{"user_id": userID, "message": text})
}

func (o *OneBot) SendGroup(ctx context.Context, groupID int64, text string) error {
	return o.call(ctx, "send_group_msg", map[string]any{"group_id": groupID, "message": text})
}

func (o *OneBot) call(ctx context.Context, action string, params map[string]any) error {
	if o == nil || o.Base == "" {
		return fmt.Errorf("onebot disabled: %w", domain.ErrDispatch)
	}
	delay := o.Delay
	if delay <= 0 {
		delay = time.Millisecond
	}
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode %s: %w", action, err)
	}

	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Base+"/"+action, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")
			if o.Token != "" {
				req.Header.Set("Authorization", "Bearer "+o.Token)
			}

			resp, err := o.Client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return fmt.Errorf("onebot %s: HTTP %d", action, resp.StatusCode)
			}
			if resp.StatusCode/100 != 2 {
				return retry.Unrecoverable(fmt.Errorf("onebot %s: HTTP %d", action, resp.StatusCode))
			}

			var reply onebotReply
			if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
				return retry.Unrecoverable(fmt.Errorf("onebot %s: decode reply: %w", action, err))
			}
			if reply.RetCode != 0 || (reply.Status != "" && reply.Status != "ok" && reply.Status != "async") {
				return retry.Unrecoverable(fmt.Errorf("onebot %s: retcode %d %s", action, reply.RetCode, reply.Message))
			}
			return nil
		},
		retry.Attempts(o.Attempts),
		retry.Delay(delay),
		retry.MaxDelay(5*time.Second),
		retry.MaxJitter(delay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			o.Logger.Info("onebot_retry", zap.String("action", action), zap.Uint("attempt", n), zap.Error(err))
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDispatch, err)
	}
	return nil
}
