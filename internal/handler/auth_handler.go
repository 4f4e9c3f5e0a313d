// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/vetracker/internal/auth"
	"github.com/hitoshi/vetracker/internal/middleware"
	"github.com/hitoshi/vetracker/internal/model"
)

// LoggedOutMessage はログアウト成功時のメッセージ。
const LoggedOutMessage = "Logged out."

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, secret, pin string) (*auth.LoginResult, error)
	Logout(ctx context.Context, token string) (bool, error)
}

// AuthHandler はログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	IdentifierSecret string `json:"identifier_secret" validate:"required"`
	Pin              string `json:"pin" validate:"required"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login は資格情報を検証し、ベアラートークンを発行する。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		// 欠落項目を区別せずログイン失敗として扱う
		if apiErr.Code == model.ErrCodeMissingField {
			apiErr = model.NewAuthenticationError()
		}
		handleServiceError(w, apiErr)
		return
	}

	result, err := h.service.Login(r.Context(), req.IdentifierSecret, req.Pin)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}

// Logout はトークンのセッションを破棄する。
// POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.TokenFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	deleted, err := h.service.Logout(r.Context(), token)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !deleted {
		handleServiceError(w, model.NewSessionNotFoundError())
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: LoggedOutMessage})
}
