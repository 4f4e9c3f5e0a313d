// Package audit は監査ログの記録を提供する。
// 記録は呼び出し元から見てfire-and-forgetであり、失敗は本処理を中断しない。
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/vetracker/internal/metrics"
	"github.com/hitoshi/vetracker/internal/model"
	"github.com/hitoshi/vetracker/internal/repository"
)

// Recorder は監査ログを記録するインターフェース。
type Recorder interface {
	Record(ctx context.Context, userID string, action model.AuditAction, details string)
}

// Service は監査ログをリポジトリへ書き込むRecorderの実装。
type Service struct {
	repo    repository.AuditRepository
	metrics metrics.MetricsCollector
	now     func() time.Time
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(repo repository.AuditRepository, collector metrics.MetricsCollector) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		repo:    repo,
		metrics: collector,
		now:     time.Now,
	}
}

// Record は監査ログを1件書き込む。
// 書き込みに失敗した場合はログとメトリクスに残し、エラーは返さない。
func (s *Service) Record(ctx context.Context, userID string, action model.AuditAction, details string) {
	entry := &model.AuditEntry{
		UserID:    userID,
		Action:    action,
		Details:   details,
		CreatedAt: s.now(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.metrics.RecordAuditFailure()
		slog.Error("failed to write audit log",
			slog.String("action", string(action)),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// Nop は何も記録しないRecorder。
type Nop struct{}

// Record は何もしない。
func (Nop) Record(context.Context, string, model.AuditAction, string) {}

var (
	_ Recorder = (*Service)(nil)
	_ Recorder = Nop{}
)
