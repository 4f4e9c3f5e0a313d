// Package note は臨床ノート（利用者のメモとシステム警告）の記録を提供する。
package note

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/vetracker/internal/audit"
	"github.com/hitoshi/vetracker/internal/model"
	"github.com/hitoshi/vetracker/internal/repository"
	"github.com/hitoshi/vetracker/internal/security"
)

const maxKindLength = 32

// Authorizer はトークンから利用者IDを解決するインターフェース。
type Authorizer interface {
	Authorize(ctx context.Context, token string) (string, bool)
}

// Service は臨床ノートのサービス層。
type Service struct {
	repo      repository.NoteRepository
	auth      Authorizer
	sanitizer security.NoteSanitizer
	audit     audit.Recorder
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.NoteRepository,
	auth Authorizer,
	sanitizer security.NoteSanitizer,
	recorder audit.Recorder,
) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		repo:      repo,
		auth:      auth,
		sanitizer: sanitizer,
		audit:     recorder,
		now:       time.Now,
	}
}

// Input はノート追加の入力値。
type Input struct {
	Kind string
	Body string
}

// Add はトークンの利用者にノートを追加する。
func (s *Service) Add(ctx context.Context, token, kind, body string) (*model.Note, error) {
	return s.AddFrom(ctx, token, func(dst *Input) error {
		*dst = Input{Kind: kind, Body: body}
		return nil
	})
}

// AddFrom は認可に成功した後でのみdecodeを呼び出して入力値を得て、ノートを追加する。
// kindが空の場合は通常のノートとして扱い、本文はサニタイズ後に空であれば検証エラーとする。
func (s *Service) AddFrom(ctx context.Context, token string, decode func(*Input) error) (*model.Note, error) {
	userID, ok := s.auth.Authorize(ctx, token)
	if !ok {
		return nil, model.NewUnauthorizedError()
	}

	var in Input
	if err := decode(&in); err != nil {
		return nil, err
	}

	kind := strings.TrimSpace(in.Kind)
	if kind == "" {
		kind = string(model.NoteKindNote)
	}
	if utf8.RuneCountInString(kind) > maxKindLength {
		return nil, model.NewInvalidNoteKindError()
	}

	body := s.sanitizer.Sanitize(in.Body)
	if body == "" {
		return nil, model.NewMissingFieldError("description")
	}

	n := &model.Note{
		ID:        uuid.New().String(),
		UserID:    userID,
		NotedAt:   localNow(s.now()),
		Kind:      model.NoteKind(kind),
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		slog.Error("failed to add note",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewDependencyError()
	}

	s.audit.Record(ctx, userID, model.AuditActionNoteAdded, kind)
	return n, nil
}

// AddSystemNote はシステムが生成したノートを指定利用者に追加する。
// 認可は呼び出し元で済んでいることを前提とする。
func (s *Service) AddSystemNote(ctx context.Context, userID string, at time.Time, kind model.NoteKind, body string) error {
	n := &model.Note{
		ID:        uuid.New().String(),
		UserID:    userID,
		NotedAt:   at,
		Kind:      kind,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to add system note: %w", err)
	}
	return nil
}

// localNow は現在時刻をタイムゾーンを持たないローカル時刻として表現する。
// ノートの時刻列は陣痛記録と同じくローカル時刻で保存する。
func localNow(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
