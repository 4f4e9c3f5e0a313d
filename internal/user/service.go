// Package user は利用者登録のドメインロジックを提供する。
package user

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/vetracker/internal/audit"
	"github.com/hitoshi/vetracker/internal/model"
	"github.com/hitoshi/vetracker/internal/repository"
	"github.com/hitoshi/vetracker/internal/security"
)

// PinHasher はPINのハッシュ化インターフェース。
type PinHasher interface {
	Hash(pin string) (string, error)
}

// Service は利用者登録のサービス層。
type Service struct {
	userRepo  repository.UserRepository
	protector security.SecretProtector
	pins      PinHasher
	audit     audit.Recorder
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	protector security.SecretProtector,
	pins PinHasher,
	recorder audit.Recorder,
) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		userRepo:  userRepo,
		protector: protector,
		pins:      pins,
		audit:     recorder,
		now:       time.Now,
	}
}

// Register は新しい利用者を登録し、作成した利用者を返す。
// 同じシークレットの利用者が既に存在する場合はConflictエラーを返す。
// 同時登録による一意制約違反もConflictとして扱う。
func (s *Service) Register(ctx context.Context, secret, name, pin string) (*model.User, error) {
	secret = strings.TrimSpace(secret)
	name = strings.TrimSpace(name)

	if secret == "" {
		return nil, model.NewMissingFieldError("identifier_secret")
	}
	if name == "" {
		return nil, model.NewMissingFieldError("name")
	}
	if !security.ValidPin(pin) {
		return nil, model.NewInvalidPinError()
	}

	index := s.protector.Index(secret)

	existing, err := s.userRepo.FindBySecretIndex(ctx, index)
	if err != nil {
		slog.Error("failed to look up user for registration", slog.String("error", err.Error()))
		return nil, model.NewDependencyError()
	}
	if existing != nil {
		return nil, model.NewConflictError()
	}

	pinHash, err := s.pins.Hash(pin)
	if err != nil {
		slog.Error("failed to hash pin", slog.String("error", err.Error()))
		return nil, model.NewDependencyError()
	}

	sealed, err := s.protector.Seal(secret)
	if err != nil {
		slog.Error("failed to seal identity secret", slog.String("error", err.Error()))
		return nil, model.NewDependencyError()
	}

	user := &model.User{
		ID:               uuid.New().String(),
		SecretIndex:      index,
		SecretCiphertext: sealed,
		Name:             name,
		PinHash:          pinHash,
		CreatedAt:        s.now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewConflictError()
		}
		slog.Error("failed to create user", slog.String("error", err.Error()))
		return nil, model.NewDependencyError()
	}

	s.audit.Record(ctx, user.ID, model.AuditActionUserCreated, "")
	slog.Info("user registered", slog.String("user_id", user.ID))

	return user, nil
}
