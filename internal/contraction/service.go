package contraction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/vetracker/internal/audit"
	"github.com/hitoshi/vetracker/internal/metrics"
	"github.com/hitoshi/vetracker/internal/model"
	"github.com/hitoshi/vetracker/internal/repository"
)

const (
	// RecordedMessage は警告がない場合の応答メッセージ。
	RecordedMessage = "Contraction recorded."

	// DefaultClusterWindow は集中判定に用いる記録数の既定値。
	DefaultClusterWindow = 3
	// DefaultClusterThreshold は集中判定の間隔しきい値の既定値。
	DefaultClusterThreshold = 180 * time.Second

	// DefaultListLimit は一覧取得件数の既定値。
	DefaultListLimit = 20
	// MaxListLimit は一覧取得件数の上限。
	MaxListLimit = 100
)

// Authorizer はトークンから利用者IDを解決するインターフェース。
type Authorizer interface {
	Authorize(ctx context.Context, token string) (string, bool)
}

// NoteWriter はシステム警告をノートとして書き込むインターフェース。
type NoteWriter interface {
	AddSystemNote(ctx context.Context, userID string, at time.Time, kind model.NoteKind, body string) error
}

// Config は登録サービスの設定。
type Config struct {
	ClusterWindow    int
	ClusterThreshold time.Duration
}

// RegisterInput は陣痛登録リクエストの入力値。
type RegisterInput struct {
	StartTimestamp string
	StopTimestamp  string
	Duration       string
}

// RegisterResult は陣痛登録の結果。
type RegisterResult struct {
	Contraction *model.Contraction
	Warning     bool
	Message     string
}

// Service は陣痛登録のサービス層。
// 認可、入力検証、台帳への追記、間隔の解析、警告の記録を順に行う。
type Service struct {
	ledger  repository.ContractionRepository
	auth    Authorizer
	notes   NoteWriter
	audit   audit.Recorder
	metrics metrics.MetricsCollector
	config  Config
	now     func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	ledger repository.ContractionRepository,
	auth Authorizer,
	notes NoteWriter,
	recorder audit.Recorder,
	collector metrics.MetricsCollector,
	config Config,
) *Service {
	if config.ClusterWindow < 2 {
		config.ClusterWindow = DefaultClusterWindow
	}
	if config.ClusterThreshold <= 0 {
		config.ClusterThreshold = DefaultClusterThreshold
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		ledger:  ledger,
		auth:    auth,
		notes:   notes,
		audit:   recorder,
		metrics: collector,
		config:  config,
		now:     time.Now,
	}
}

// WarningMessage は集中判定が陽性の場合の警告文を返す。
func (s *Service) WarningMessage() string {
	return fmt.Sprintf("Warning: %d contractions less than %s apart. Contact the maternity ward.",
		s.config.ClusterWindow, humanizeThreshold(s.config.ClusterThreshold))
}

// Register はトークンの利用者に陣痛を1件登録する。
func (s *Service) Register(ctx context.Context, token string, in RegisterInput) (*RegisterResult, error) {
	return s.RegisterFrom(ctx, token, func(dst *RegisterInput) error {
		*dst = in
		return nil
	})
}

// RegisterFrom は認可に成功した後でのみdecodeを呼び出して入力値を得て、陣痛を1件登録する。
// decodeが返したエラーはそのまま返す。
// 直前の記録の参照と追記、直近の記録の取得は利用者単位で直列化する。
// 警告ノートの書き込みは失敗しても登録結果を変えない。
func (s *Service) RegisterFrom(ctx context.Context, token string, decode func(*RegisterInput) error) (*RegisterResult, error) {
	userID, ok := s.auth.Authorize(ctx, token)
	if !ok {
		return nil, model.NewUnauthorizedError()
	}

	var in RegisterInput
	if err := decode(&in); err != nil {
		return nil, err
	}

	c, err := s.validate(userID, in)
	if err != nil {
		return nil, err
	}

	var latest []*model.Contraction
	err = s.ledger.WithIdentityLock(ctx, userID, func(ctx context.Context, l repository.ContractionLedger) error {
		prev, err := l.MostRecentBefore(ctx, userID, c.StartedAt)
		if err != nil {
			return err
		}
		c.IntervalSeconds = Gap(c.StartedAt, prev)

		if _, err := l.Append(ctx, c); err != nil {
			return err
		}

		latest, err = l.LatestN(ctx, userID, s.config.ClusterWindow)
		return err
	})
	if err != nil {
		slog.Error("failed to record contraction",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewDependencyError()
	}

	s.metrics.RecordContractionRecorded()
	s.audit.Record(ctx, userID, model.AuditActionContractionRecorded, contractionDetails(c))

	cluster := CheckClustering(latest, s.config.ClusterWindow, s.config.ClusterThreshold)
	if !cluster.Triggered {
		return &RegisterResult{Contraction: c, Message: RecordedMessage}, nil
	}

	message := s.WarningMessage()
	s.metrics.RecordClusteringWarning()
	if err := s.notes.AddSystemNote(ctx, userID, c.StoppedAt, model.NoteKindWarning, message); err != nil {
		slog.Warn("failed to persist clustering warning note",
			slog.String("user_id", userID),
			slog.String("contraction_id", c.ID),
			slog.String("error", err.Error()),
		)
	}
	s.audit.Record(ctx, userID, model.AuditActionClusteringWarning, fmt.Sprintf("intervals=%v", cluster.Intervals))

	return &RegisterResult{Contraction: c, Warning: true, Message: message}, nil
}

// ListRecent はトークンの利用者の直近の記録を開始時刻の降順で返す。
// limitが0の場合は既定値を用いる。
func (s *Service) ListRecent(ctx context.Context, token string, limit int) ([]*model.Contraction, error) {
	userID, ok := s.auth.Authorize(ctx, token)
	if !ok {
		return nil, model.NewUnauthorizedError()
	}

	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, model.NewInvalidLimitError(limit)
	}

	list, err := s.ledger.LatestN(ctx, userID, limit)
	if err != nil {
		slog.Error("failed to list contractions",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewDependencyError()
	}
	return list, nil
}

// validate は入力値を解析して未保存の記録を組み立てる。
// 継続時間はクライアントの値を採用し、開始・終了の差と一致しない場合は警告ログのみ残す。
func (s *Service) validate(userID string, in RegisterInput) (*model.Contraction, error) {
	if in.StartTimestamp == "" {
		return nil, model.NewMissingFieldError("start_timestamp")
	}
	if in.StopTimestamp == "" {
		return nil, model.NewMissingFieldError("stop_timestamp")
	}
	if in.Duration == "" {
		return nil, model.NewMissingFieldError("duration")
	}

	start, err := ParseTimestamp(in.StartTimestamp)
	if err != nil {
		return nil, model.NewInvalidTimestampError("start_timestamp")
	}
	stop, err := ParseTimestamp(in.StopTimestamp)
	if err != nil {
		return nil, model.NewInvalidTimestampError("stop_timestamp")
	}
	duration, err := ParseDuration(in.Duration)
	if err != nil {
		return nil, model.NewInvalidDurationError()
	}

	if elapsed := int(stop.Sub(start) / time.Second); elapsed != duration {
		slog.Warn("reported duration differs from stop minus start",
			slog.String("user_id", userID),
			slog.Int("duration_seconds", duration),
			slog.Int("elapsed_seconds", elapsed),
		)
	}

	return &model.Contraction{
		ID:              uuid.New().String(),
		UserID:          userID,
		StartedAt:       start,
		StoppedAt:       stop,
		DurationSeconds: duration,
		CreatedAt:       s.now(),
	}, nil
}

func contractionDetails(c *model.Contraction) string {
	interval := "none"
	if c.IntervalSeconds != nil {
		interval = fmt.Sprintf("%d", *c.IntervalSeconds)
	}
	return strings.Join([]string{
		"start=" + c.StartedAt.Format(TimestampLayout),
		"stop=" + c.StoppedAt.Format(TimestampLayout),
		fmt.Sprintf("duration=%d", c.DurationSeconds),
		"interval=" + interval,
	}, ", ")
}

// humanizeThreshold はしきい値を警告文用に整形する。
func humanizeThreshold(d time.Duration) string {
	if d == time.Minute {
		return "1 minute"
	}
	if d%time.Minute == 0 {
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
	return fmt.Sprintf("%d seconds", int(d/time.Second))
}
