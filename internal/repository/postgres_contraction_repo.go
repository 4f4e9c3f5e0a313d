package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/vetracker/internal/model"
)

// PostgresContractionRepo はPostgreSQLを使用した陣痛記録リポジトリ。
// 単独呼び出しの参照系は一時的な障害に対して再試行する。
type PostgresContractionRepo struct {
	db *sql.DB
}

// NewPostgresContractionRepo はPostgresContractionRepoを生成する。
func NewPostgresContractionRepo(db *sql.DB) *PostgresContractionRepo {
	return &PostgresContractionRepo{db: db}
}

// Append は陣痛記録を追加し、採番したIDを返す。
func (r *PostgresContractionRepo) Append(ctx context.Context, c *model.Contraction) (string, error) {
	return (&ledger{q: r.db}).Append(ctx, c)
}

// MostRecentBefore はinstantより前に終了した最新の記録を返す。
func (r *PostgresContractionRepo) MostRecentBefore(ctx context.Context, userID string, instant time.Time) (*model.Contraction, error) {
	return withReadRetry(ctx, func(ctx context.Context) (*model.Contraction, error) {
		return (&ledger{q: r.db}).MostRecentBefore(ctx, userID, instant)
	})
}

// LatestN は開始時刻の降順で最大n件の記録を返す。
func (r *PostgresContractionRepo) LatestN(ctx context.Context, userID string, n int) ([]*model.Contraction, error) {
	return withReadRetry(ctx, func(ctx context.Context) ([]*model.Contraction, error) {
		return (&ledger{q: r.db}).LatestN(ctx, userID, n)
	})
}

// WithIdentityLock は利用者単位のアドバイザリロックを取得したトランザクション内でfnを実行する。
// ロックはトランザクション終了時に自動的に解放される。
func (r *PostgresContractionRepo) WithIdentityLock(ctx context.Context, userID string, fn func(ctx context.Context, l ContractionLedger) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
		return fmt.Errorf("failed to acquire identity lock: %w", err)
	}

	if err := fn(ctx, &ledger{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ledger は *sql.DB または *sql.Tx に束縛された台帳の実装。
type ledger struct {
	q dbtx
}

const contractionColumns = `id, user_id, started_at, stopped_at, duration_seconds, interval_seconds, created_at`

func (l *ledger) Append(ctx context.Context, c *model.Contraction) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	var interval sql.NullInt64
	if c.IntervalSeconds != nil {
		interval = sql.NullInt64{Int64: int64(*c.IntervalSeconds), Valid: true}
	}

	_, err := l.q.ExecContext(ctx,
		`INSERT INTO contractions (`+contractionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.UserID, c.StartedAt, c.StoppedAt, c.DurationSeconds, interval, c.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert contraction: %w", err)
	}
	return c.ID, nil
}

func (l *ledger) MostRecentBefore(ctx context.Context, userID string, instant time.Time) (*model.Contraction, error) {
	rows, err := l.q.QueryContext(ctx,
		`SELECT `+contractionColumns+`
		 FROM contractions
		 WHERE user_id = $1 AND stopped_at < $2
		 ORDER BY stopped_at DESC, created_at DESC, id DESC
		 LIMIT 1`,
		userID, instant,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query previous contraction: %w", err)
	}
	list, err := scanContractions(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (l *ledger) LatestN(ctx context.Context, userID string, n int) ([]*model.Contraction, error) {
	rows, err := l.q.QueryContext(ctx,
		`SELECT `+contractionColumns+`
		 FROM contractions
		 WHERE user_id = $1
		 ORDER BY started_at DESC, created_at DESC, id DESC
		 LIMIT $2`,
		userID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest contractions: %w", err)
	}
	return scanContractions(rows)
}

func scanContractions(rows *sql.Rows) ([]*model.Contraction, error) {
	defer rows.Close()

	var list []*model.Contraction
	for rows.Next() {
		c := &model.Contraction{}
		var interval sql.NullInt64
		if err := rows.Scan(&c.ID, &c.UserID, &c.StartedAt, &c.StoppedAt, &c.DurationSeconds, &interval, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contraction: %w", err)
		}
		if interval.Valid {
			v := int(interval.Int64)
			c.IntervalSeconds = &v
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contractions: %w", err)
	}
	return list, nil
}

// compile-time interface check
var (
	_ ContractionRepository = (*PostgresContractionRepo)(nil)
	_ ContractionLedger     = (*ledger)(nil)
)
