package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/vetracker/internal/auth"
	"github.com/hitoshi/vetracker/internal/contraction"
	"github.com/hitoshi/vetracker/internal/middleware"
	"github.com/hitoshi/vetracker/internal/model"
	"github.com/hitoshi/vetracker/internal/note"
	"github.com/hitoshi/vetracker/internal/user"
)

// --- モック定義 ---

type mockUserService struct {
	registerFn func(ctx context.Context, secret, name, pin string) (*model.User, error)
}

func (m *mockUserService) Register(ctx context.Context, secret, name, pin string) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, secret, name, pin)
	}
	return &model.User{ID: "user-1", Name: name}, nil
}

type mockAuthService struct {
	loginFn  func(ctx context.Context, secret, pin string) (*auth.LoginResult, error)
	logoutFn func(ctx context.Context, token string) (bool, error)
}

func (m *mockAuthService) Login(ctx context.Context, secret, pin string) (*auth.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, secret, pin)
	}
	return nil, model.NewAuthenticationError()
}

func (m *mockAuthService) Logout(ctx context.Context, token string) (bool, error) {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return false, nil
}

type mockContractionService struct {
	authorizeFn  func(token string) bool
	registerFn   func(ctx context.Context, token string, in contraction.RegisterInput) (*contraction.RegisterResult, error)
	listRecentFn func(ctx context.Context, token string, limit int) ([]*model.Contraction, error)
}

// RegisterFrom は実サービスと同じく、認可の後にボディを復元し、成功した場合のみregisterFnを呼ぶ。
func (m *mockContractionService) RegisterFrom(ctx context.Context, token string, decode func(*contraction.RegisterInput) error) (*contraction.RegisterResult, error) {
	if m.authorizeFn != nil && !m.authorizeFn(token) {
		return nil, model.NewUnauthorizedError()
	}
	var in contraction.RegisterInput
	if err := decode(&in); err != nil {
		return nil, err
	}
	if m.registerFn != nil {
		return m.registerFn(ctx, token, in)
	}
	return nil, model.NewUnauthorizedError()
}

func (m *mockContractionService) ListRecent(ctx context.Context, token string, limit int) ([]*model.Contraction, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, token, limit)
	}
	return nil, nil
}

type mockNoteService struct {
	authorizeFn func(token string) bool
	addFn       func(ctx context.Context, token, kind, body string) (*model.Note, error)
}

func (m *mockNoteService) AddFrom(ctx context.Context, token string, decode func(*note.Input) error) (*model.Note, error) {
	if m.authorizeFn != nil && !m.authorizeFn(token) {
		return nil, model.NewUnauthorizedError()
	}
	var in note.Input
	if err := decode(&in); err != nil {
		return nil, err
	}
	kind, body := in.Kind, in.Body
	if m.addFn != nil {
		return m.addFn(ctx, token, kind, body)
	}
	return &model.Note{ID: "note-1", Kind: model.NoteKind(kind), Body: body}, nil
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

// コンパイル時にインターフェースの実装を検証する
var (
	_ UserServiceInterface        = (*mockUserService)(nil)
	_ AuthServiceInterface        = (*mockAuthService)(nil)
	_ ContractionServiceInterface = (*mockContractionService)(nil)
	_ NoteServiceInterface        = (*mockNoteService)(nil)
	_ HealthChecker               = (*mockHealthChecker)(nil)
	_ AuthServiceInterface        = (*auth.Service)(nil)
	_ ContractionServiceInterface = (*contraction.Service)(nil)
	_ UserServiceInterface        = (*user.Service)(nil)
	_ NoteServiceInterface        = (*note.Service)(nil)
)

// --- ヘルパー ---

// jsonRequest はJSONボディ付きのリクエストを生成する。
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withToken はテスト用にBearerトークンミドルウェアを通過した状態のコンテキストを作る。
func withToken(r *http.Request, token string) *http.Request {
	return r.WithContext(middleware.ContextWithToken(r.Context(), token))
}

// decodeError はエラーレスポンスをデコードする。
func decodeError(t *testing.T, resp *http.Response) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body
}
