package note

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/vetracker/internal/model"
	"github.com/hitoshi/vetracker/internal/repository"
	"github.com/hitoshi/vetracker/internal/security"
)

type mockNoteRepo struct {
	notes    []*model.Note
	createFn func(ctx context.Context, n *model.Note) error
}

func (m *mockNoteRepo) Create(ctx context.Context, n *model.Note) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, n); err != nil {
			return err
		}
	}
	m.notes = append(m.notes, n)
	return nil
}

var _ repository.NoteRepository = (*mockNoteRepo)(nil)

type mockAuthorizer struct {
	tokens map[string]string
}

func (m *mockAuthorizer) Authorize(_ context.Context, token string) (string, bool) {
	userID, ok := m.tokens[token]
	return userID, ok
}

type mockRecorder struct {
	details []string
}

func (m *mockRecorder) Record(_ context.Context, _ string, _ model.AuditAction, details string) {
	m.details = append(m.details, details)
}

func newTestService(repo *mockNoteRepo, rec *mockRecorder) *Service {
	auth := &mockAuthorizer{tokens: map[string]string{"valid-token": "user-1"}}
	svc := NewService(repo, auth, security.NewNoteSanitizer(), rec)
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestAdd_DefaultsKindToNote(t *testing.T) {
	repo := &mockNoteRepo{}
	rec := &mockRecorder{}
	svc := newTestService(repo, rec)

	n, err := svc.Add(context.Background(), "valid-token", "", "Vandet er gået")
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if n.Kind != model.NoteKindNote {
		t.Errorf("Kind = %q, want %q", n.Kind, model.NoteKindNote)
	}
	if n.UserID != "user-1" || n.Body != "Vandet er gået" {
		t.Errorf("note = %+v", n)
	}
	if len(repo.notes) != 1 {
		t.Errorf("notes = %d, want 1", len(repo.notes))
	}
	if len(rec.details) != 1 || rec.details[0] != "note" {
		t.Errorf("監査ログ = %v", rec.details)
	}
}

func TestAdd_KeepsCustomKind(t *testing.T) {
	repo := &mockNoteRepo{}
	svc := newTestService(repo, &mockRecorder{})

	n, err := svc.Add(context.Background(), "valid-token", "Blødning", "lidt")
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if n.Kind != "Blødning" {
		t.Errorf("Kind = %q", n.Kind)
	}
}

func TestAdd_SanitizesBody(t *testing.T) {
	repo := &mockNoteRepo{}
	svc := newTestService(repo, &mockRecorder{})

	n, err := svc.Add(context.Background(), "valid-token", "", `<script>alert(1)</script>ondt i ryggen`)
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if strings.Contains(n.Body, "<script") {
		t.Errorf("Body = %q", n.Body)
	}
}

func TestAdd_Failures(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		kind     string
		body     string
		wantCode string
	}{
		{"不明なトークン", "bad-token", "", "text", model.ErrCodeUnauthorized},
		{"本文欠落", "valid-token", "", "", model.ErrCodeMissingField},
		{"タグのみの本文", "valid-token", "", "<b></b>", model.ErrCodeMissingField},
		{"種別が長すぎる", "valid-token", strings.Repeat("x", 33), "text", model.ErrCodeInvalidNoteKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockNoteRepo{}
			svc := newTestService(repo, &mockRecorder{})

			_, err := svc.Add(context.Background(), tt.token, tt.kind, tt.body)
			if !model.IsAPIErrorCode(err, tt.wantCode) {
				t.Fatalf("error = %v, want %s", err, tt.wantCode)
			}
			if len(repo.notes) != 0 {
				t.Error("失敗時にノートが作成されています")
			}
		})
	}
}

func TestAddFrom_DecodesOnlyAfterAuthorization(t *testing.T) {
	repo := &mockNoteRepo{}
	svc := newTestService(repo, &mockRecorder{})

	decoded := false
	_, err := svc.AddFrom(context.Background(), "bad-token", func(in *Input) error {
		decoded = true
		return model.NewInvalidRequestError()
	})
	if !model.IsAPIErrorCode(err, model.ErrCodeUnauthorized) {
		t.Fatalf("error = %v, want UNAUTHORIZED", err)
	}
	if decoded {
		t.Error("認可前にリクエストボディが読み取られています")
	}
	if len(repo.notes) != 0 {
		t.Error("ノートが作成されています")
	}
}

func TestAdd_StoreFailureIsDependencyError(t *testing.T) {
	repo := &mockNoteRepo{
		createFn: func(context.Context, *model.Note) error { return errors.New("connection reset") },
	}
	svc := newTestService(repo, &mockRecorder{})

	_, err := svc.Add(context.Background(), "valid-token", "", "text")
	if !model.IsAPIErrorCode(err, model.ErrCodeDependencyUnavailable) {
		t.Fatalf("error = %v, want DEPENDENCY_UNAVAILABLE", err)
	}
}

func TestAddSystemNote_WritesWarning(t *testing.T) {
	repo := &mockNoteRepo{}
	svc := newTestService(repo, &mockRecorder{})
	at := time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC)

	if err := svc.AddSystemNote(context.Background(), "user-1", at, model.NoteKindWarning, "Warning"); err != nil {
		t.Fatalf("AddSystemNote() error: %v", err)
	}
	if len(repo.notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(repo.notes))
	}
	n := repo.notes[0]
	if n.Kind != model.NoteKindWarning || !n.NotedAt.Equal(at) || n.UserID != "user-1" {
		t.Errorf("note = %+v", n)
	}
}

func TestAddSystemNote_ReturnsStoreError(t *testing.T) {
	repo := &mockNoteRepo{
		createFn: func(context.Context, *model.Note) error { return errors.New("connection reset") },
	}
	svc := newTestService(repo, &mockRecorder{})

	if err := svc.AddSystemNote(context.Background(), "user-1", time.Now(), model.NoteKindWarning, "w"); err == nil {
		t.Error("エラーを返すべき")
	}
}
