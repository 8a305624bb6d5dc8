package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/arenawatch/internal/domain"
	"github.com/hamed0406/arenawatch/internal/repo"
)

// Gateway routes a subscription's notice to a direct message or its group.
// It never retries; a failed or refused send reports false.
type Gateway struct {
	transport Transport
	gate      repo.GroupGate
	log       *zap.Logger
}

func NewGateway(t Transport, gate repo.GroupGate, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{transport: t, gate: gate, log: log}
}

func (g *Gateway) Send(ctx context.Context, sub domain.Subscription, text string) bool {
	if sub.Private {
		if err := g.transport.SendDirect(ctx, sub.SubscriberID, text); err != nil {
			g.log.Warn("notice_send_error",
				zap.Int64("subscriber_id", sub.SubscriberID),
				zap.Int64("account_id", sub.AccountID),
				zap.Error(err),
			)
			return false
		}
		return true
	}

	enabled, err := g.gate.IsFeatureEnabledForGroup(ctx, sub.Platform, sub.GroupID)
	if err != nil {
		// an unknown gate state counts as disabled
		g.log.Warn("notice_gate_error", zap.Int64("group_id", sub.GroupID), zap.Error(err))
		return false
	}
	if !enabled {
		g.log.Info("notice_group_disabled",
			zap.Int64("group_id", sub.GroupID),
			zap.String("platform", sub.Platform.String()),
		)
		return false
	}

	if err := g.transport.SendGroup(ctx, sub.GroupID, text+mention(sub.SubscriberID)); err != nil {
		g.log.Warn("notice_send_error",
			zap.Int64("group_id", sub.GroupID),
			zap.Int64("subscriber_id", sub.SubscriberID),
			zap.Int64("account_id", sub.AccountID),
			zap.Error(err),
		)
		return false
	}
	return true
}

func mention(userID int64) string {
	return fmt.Sprintf("[CQ:at,qq=%d]", userID)
}
