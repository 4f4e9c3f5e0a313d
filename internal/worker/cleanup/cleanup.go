// Package cleanup は保持期間を過ぎた監査ログの削除ジョブを提供する。
// serveとは別プロセスの cleanup コマンドから1回ずつ実行する。
// セッションの失効処理は認可時に行うため、ここでは扱わない。陣痛記録とノートは削除しない。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRetentionDays は監査ログのデフォルト保持日数。
const DefaultRetentionDays = 365

// AuditPruner は古い監査ログを削除するインターフェース。
// repository.AuditRepository の部分集合として定義する。
type AuditPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupJob は保持期間を超過した監査ログの削除ジョブ。
// 冪等な削除処理を保証する。
type CleanupJob struct {
	audits        AuditPruner
	logger        *slog.Logger
	RetentionDays int // 監査ログの保持日数（デフォルト: 365）
	now           func() time.Time
}

// NewCleanupJob は新しいCleanupJobを生成する。
// retentionDaysが0以下の場合はデフォルトの365日を使用する。
func NewCleanupJob(audits AuditPruner, logger *slog.Logger, retentionDays int) *CleanupJob {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupJob{
		audits:        audits,
		logger:        logger,
		RetentionDays: retentionDays,
		now:           time.Now,
	}
}

// Run は保持期間を超過した監査ログを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()
	cutoff := start.AddDate(0, 0, -j.RetentionDays)

	deleted, err := j.audits.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("監査ログのクリーンアップに失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("監査ログのクリーンアップに失敗: %w", err)
	}

	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("deleted_audit_logs", deleted),
		slog.Int("retention_days", j.RetentionDays),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}
