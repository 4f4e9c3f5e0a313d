package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hitoshi/vetracker/internal/contraction"
	"github.com/hitoshi/vetracker/internal/middleware"
	"github.com/hitoshi/vetracker/internal/model"
	"github.com/hitoshi/vetracker/internal/note"
	"github.com/hitoshi/vetracker/internal/security"
)

// stubAuthorizer は validToken のみを認可し、呼び出し回数を数える。
type stubAuthorizer struct {
	validToken string
	calls      atomic.Int32
}

func (a *stubAuthorizer) Authorize(ctx context.Context, token string) (string, bool) {
	a.calls.Add(1)
	if token != a.validToken {
		return "", false
	}
	return "user-1", true
}

// createRouterWithRealServices は実際の陣痛サービスとノートサービスを載せたルーターを構築する。
// 台帳とノートの保存先は持たないため、検証を通過する入力は送らないこと。
func createRouterWithRealServices(t *testing.T, authz *stubAuthorizer) http.Handler {
	t.Helper()

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		Logger:             slog.New(slog.NewJSONHandler(io.Discard, nil)),
		CORSAllowedOrigin:  "http://localhost:3000",
		RateLimiter:        rl,
		UserService:        &mockUserService{},
		AuthService:        &mockAuthService{},
		ContractionService: contraction.NewService(nil, authz, nil, nil, nil, contraction.Config{}),
		NoteService:        note.NewService(nil, authz, security.NewNoteSanitizer(), nil),
	})
}

func TestRouter_InvalidTokenIsRejectedBeforeBodyIsRead(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{"contraction with partial body", "/api/contractions", `{"start_timestamp":"2024-01-01 10:00:00"}`},
		{"contraction with trailing slash", "/api/contractions/", `{"start_timestamp":"2024-01-01 10:00:00"}`},
		{"contraction with malformed json", "/api/contractions", `{"start_timestamp":`},
		{"contraction with empty body", "/api/contractions", ``},
		{"note without description", "/api/notes", `{"type":"note"}`},
		{"note with malformed json", "/api/notes", `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authz := &stubAuthorizer{validToken: "valid-token"}
			router := createRouterWithRealServices(t, authz)

			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer expired-token")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			resp := w.Result()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
			}
			if body := decodeError(t, resp); body.Code != model.ErrCodeUnauthorized {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
			}
			if got := authz.calls.Load(); got != 1 {
				t.Errorf("Authorize called %d times, want 1", got)
			}
		})
	}
}

func TestRouter_ValidTokenWithPartialBody_Returns400(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		body      string
		wantCode  string
		wantField string
	}{
		{"contraction missing stop", "/api/contractions", `{"start_timestamp":"2024-01-01 10:00:00"}`, model.ErrCodeMissingField, "stop_timestamp"},
		{"contraction malformed json", "/api/contractions", `{"start_timestamp":`, model.ErrCodeInvalidRequest, ""},
		{"note missing description", "/api/notes", `{"type":"note"}`, model.ErrCodeMissingField, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authz := &stubAuthorizer{validToken: "valid-token"}
			router := createRouterWithRealServices(t, authz)

			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer valid-token")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			resp := w.Result()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
			body := decodeError(t, resp)
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if tt.wantField != "" && !strings.Contains(body.Message, tt.wantField) {
				t.Errorf("message = %q, want it to name %q", body.Message, tt.wantField)
			}
		})
	}
}
