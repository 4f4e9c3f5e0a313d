// Package auth はPINによるログインとトークンセッションの管理を提供する。
//
// セッションの有効期限切れは認可のたびに同期的に削除する（purge-on-read）。
// バックグラウンドでの掃除は行わない。
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/vetracker/internal/audit"
	"github.com/hitoshi/vetracker/internal/metrics"
	"github.com/hitoshi/vetracker/internal/model"
	"github.com/hitoshi/vetracker/internal/repository"
	"github.com/hitoshi/vetracker/internal/security"
)

const (
	// tokenBytes はトークンの乱数バイト数（256bit）。
	tokenBytes = 32
	// maxIssueAttempts はダイジェスト衝突時の再発行の上限。
	maxIssueAttempts = 3
	// DefaultSessionTTL はセッションの既定の有効期間。
	DefaultSessionTTL = 2 * time.Hour
)

// errTokenCollision は再発行の上限に達した場合のエラー。
var errTokenCollision = errors.New("session token collision")

// PinVerifier はPINの照合を行うインターフェース。
type PinVerifier interface {
	Verify(hash, pin string) (bool, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionTTL time.Duration    // セッション有効期間（0の場合は2時間）
	Now        func() time.Time // 現在時刻（テスト用に差し替え可能）
}

// LoginResult はログイン成功時に返す発行済みトークン。
type LoginResult struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	protector   security.SecretProtector
	pins        PinVerifier
	audit       audit.Recorder
	metrics     metrics.MetricsCollector
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	protector security.SecretProtector,
	pins PinVerifier,
	recorder audit.Recorder,
	collector metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	if config.SessionTTL <= 0 {
		config.SessionTTL = DefaultSessionTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		protector:   protector,
		pins:        pins,
		audit:       recorder,
		metrics:     collector,
		config:      config,
	}
}

// Login はシークレットとPINの組を照合し、新しいセッションを発行する。
// どちらが誤っているかは区別せず、一律に認証エラーを返す。
func (s *Service) Login(ctx context.Context, secret, pin string) (*LoginResult, error) {
	if secret == "" || pin == "" {
		s.metrics.RecordLogin(false)
		return nil, model.NewAuthenticationError()
	}

	user, err := s.userRepo.FindBySecretIndex(ctx, s.protector.Index(secret))
	if err != nil {
		slog.Error("failed to look up user for login", slog.String("error", err.Error()))
		return nil, model.NewDependencyError()
	}
	if user == nil {
		s.metrics.RecordLogin(false)
		return nil, model.NewAuthenticationError()
	}

	ok, err := s.pins.Verify(user.PinHash, pin)
	if err != nil {
		slog.Error("failed to verify pin",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
	if !ok {
		s.metrics.RecordLogin(false)
		s.audit.Record(ctx, user.ID, model.AuditActionLogin, "failed")
		return nil, model.NewAuthenticationError()
	}

	s.purgeExpired(ctx, s.config.Now())

	token, expiresAt, err := s.Issue(ctx, user.ID)
	if err != nil {
		slog.Error("failed to issue session",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewDependencyError()
	}

	s.metrics.RecordLogin(true)
	s.audit.Record(ctx, user.ID, model.AuditActionLogin, "succeeded")
	slog.Info("user logged in", slog.String("user_id", user.ID))

	return &LoginResult{UserID: user.ID, Token: token, ExpiresAt: expiresAt}, nil
}

// Issue は指定利用者のセッションを発行し、トークンと有効期限を返す。
// ストアにはトークンのSHA-256ダイジェストのみを保存する。
// ダイジェストが衝突した場合は新しいトークンで再試行する。
func (s *Service) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		token, err := generateToken()
		if err != nil {
			return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
		}

		now := s.config.Now()
		session := &model.Session{
			ID:        tokenDigest(token),
			UserID:    userID,
			ExpiresAt: now.Add(s.config.SessionTTL),
			CreatedAt: now,
		}

		err = s.sessionRepo.Create(ctx, session)
		if err == nil {
			return token, session.ExpiresAt, nil
		}
		if !repository.IsUniqueViolation(err) {
			return "", time.Time{}, fmt.Errorf("failed to save session: %w", err)
		}
		slog.Warn("session token collision, regenerating", slog.Int("attempt", attempt+1))
	}
	return "", time.Time{}, errTokenCollision
}

// Authorize はトークンが有効なセッションに対応する場合に利用者IDを返す。
// 判定の前に失効済みセッションをすべて削除する。
// 欠落・形式不正・失効・ストア障害のいずれもfalseとなり、エラーは返さない。
func (s *Service) Authorize(ctx context.Context, token string) (string, bool) {
	if !wellFormedToken(token) {
		return "", false
	}

	now := s.config.Now()
	if err := s.purgeExpired(ctx, now); err != nil {
		return "", false
	}

	session, err := s.sessionRepo.FindByID(ctx, tokenDigest(token))
	if err != nil {
		slog.Error("failed to find session", slog.String("error", err.Error()))
		return "", false
	}
	if session == nil || session.IsExpired(now) {
		return "", false
	}

	return session.UserID, true
}

// Logout はトークンのセッションを破棄し、削除が発生したかを返す。
func (s *Service) Logout(ctx context.Context, token string) (bool, error) {
	if !wellFormedToken(token) {
		return false, nil
	}

	digest := tokenDigest(token)
	session, err := s.sessionRepo.FindByID(ctx, digest)
	if err != nil {
		slog.Error("failed to find session for logout", slog.String("error", err.Error()))
		return false, model.NewDependencyError()
	}

	deleted, err := s.sessionRepo.DeleteByID(ctx, digest)
	if err != nil {
		slog.Error("failed to delete session", slog.String("error", err.Error()))
		return false, model.NewDependencyError()
	}

	if deleted && session != nil {
		s.audit.Record(ctx, session.UserID, model.AuditActionLogout, "")
		slog.Info("user logged out", slog.String("user_id", session.UserID))
	}
	return deleted, nil
}

// purgeExpired は失効済みセッションを削除する。失敗はログに残して返す。
func (s *Service) purgeExpired(ctx context.Context, now time.Time) error {
	purged, err := s.sessionRepo.DeleteExpired(ctx, now)
	if err != nil {
		slog.Error("failed to purge expired sessions", slog.String("error", err.Error()))
		return err
	}
	if purged > 0 {
		s.metrics.RecordSessionsPurged(purged)
		slog.Debug("expired sessions purged", slog.Int64("count", purged))
	}
	return nil
}

// generateToken は暗号的に安全なトークンを生成する。
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// tokenDigest はトークンの保存用ダイジェストを返す。
func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// wellFormedToken はトークンが発行形式（64桁の16進小文字）かを返す。
func wellFormedToken(token string) bool {
	if len(token) != tokenBytes*2 {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
