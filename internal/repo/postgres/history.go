package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/arenawatch/internal/domain"
)

var historyColumns = []string{
	"subscriber_id", "account_id", "name", "platform", "date", "before", "after", "is_send", "item",
}

// AppendHistoryBatch copies the batch inside one transaction.
func (s *Store) AppendHistoryBatch(ctx context.Context, p domain.Platform, recs []domain.HistoryRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"arena_history"}, historyColumns,
		pgx.CopyFromSlice(len(recs), func(i int) ([]any, error) {
			r := recs[i]
			return []any{r.SubscriberID, r.AccountID, r.Name, int(p), r.Date, r.Before, r.After, r.Sent, int(r.Item)}, nil
		}))
	if err != nil {
		return fmt.Errorf("copy history: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	s.log.Debug("history_batch_stored",
		zap.String("platform", p.String()),
		zap.Int64("rows", n),
	)
	return nil
}

// UpCount counts distinct ranking improvements for an account since the
// given epoch second. Several subscribers watching one account produce one
// row each for the same change, hence DISTINCT.
func (s *Store) UpCount(ctx context.Context, p domain.Platform, accountID, since int64) (int, int, error) {
	var arena, grand int
	err := s.pool.QueryRow(ctx, `
		SELECT
		  COUNT(DISTINCT (date, before, after)) FILTER (WHERE item = $4),
		  COUNT(DISTINCT (date, before, after)) FILTER (WHERE item = $5)
		  FROM arena_history
		 WHERE platform = $1 AND account_id = $2 AND date >= $3 AND after < before`,
		int(p), accountID, since, int(domain.MetricArena), int(domain.MetricGrandArena),
	).Scan(&arena, &grand)
	if err != nil {
		return 0, 0, fmt.Errorf("up count: %w", err)
	}
	return arena, grand, nil
}
