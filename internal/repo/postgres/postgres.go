package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/arenawatch/internal/domain"
	"github.com/hamed0406/arenawatch/internal/repo"
)

var _ repo.SubscriptionStore = (*Store)(nil)
var _ repo.HistoryStore = (*Store)(nil)
var _ repo.GroupGate = (*Store)(nil)

type Store struct {
	pool           *pgxpool.Pool
	log            *zap.Logger
	defaultEnabled bool
}

// New connects and pings. featureDefault answers the group gate for groups
// without a row in group_features.
func New(ctx context.Context, dsn string, featureDefault bool, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log, defaultEnabled: featureDefault}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Migrate creates the tables if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ---- SubscriptionStore ----

func (s *Store) ActiveSubscriptions(ctx context.Context, p domain.Platform) ([]domain.Subscription, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT account_id, subscriber_id, platform, group_id, private,
		        arena_notice, grand_arena_notice, up_notice, online_notice, name
		   FROM subscriptions
		  WHERE platform = $1
		  ORDER BY id`, int(p))
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []domain.Subscription
	for rows.Next() {
		var (
			sub      domain.Subscription
			platform int
			online   int
		)
		if err := rows.Scan(&sub.AccountID, &sub.SubscriberID, &platform, &sub.GroupID, &sub.Private,
			&sub.ArenaNotice, &sub.GrandArenaNotice, &sub.UpNotice, &online, &sub.Name); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		sub.Platform = domain.Platform(platform)
		sub.OnlineNotice = domain.OnlineNotice(online)
		out = append(out, sub)
	}
	return out, rows.Err()
}

// UpsertSubscription inserts a subscription or updates the one with the same key.
func (s *Store) UpsertSubscription(ctx context.Context, sub domain.Subscription) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (account_id, subscriber_id, platform, group_id, private,
		                           arena_notice, grand_arena_notice, up_notice, online_notice, name)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (account_id, subscriber_id, platform)
		DO UPDATE SET group_id=EXCLUDED.group_id, private=EXCLUDED.private,
		              arena_notice=EXCLUDED.arena_notice, grand_arena_notice=EXCLUDED.grand_arena_notice,
		              up_notice=EXCLUDED.up_notice, online_notice=EXCLUDED.online_notice, name=EXCLUDED.name`,
		sub.AccountID, sub.SubscriberID, int(sub.Platform), sub.GroupID, sub.Private,
		sub.ArenaNotice, sub.GrandArenaNotice, sub.UpNotice, int(sub.OnlineNotice), sub.Name)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// ---- GroupGate ----

func (s *Store) IsFeatureEnabledForGroup(ctx context.Context, p domain.Platform, groupID int64) (bool, error) {
	var enabled bool
	err := s.pool.QueryRow(ctx,
		`SELECT enabled FROM group_features WHERE platform=$1 AND group_id=$2`,
		int(p), groupID).Scan(&enabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.defaultEnabled, nil
		}
		return false, fmt.Errorf("group feature: %w", err)
	}
	return enabled, nil
}

func (s *Store) SetGroupFeature(ctx context.Context, p domain.Platform, groupID int64, enabled bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO group_features (platform, group_id, enabled)
		VALUES ($1,$2,$3)
		ON CONFLICT (platform, group_id)
		DO UPDATE SET enabled=EXCLUDED.enabled`,
		int(p), groupID, enabled)
	return err
}
