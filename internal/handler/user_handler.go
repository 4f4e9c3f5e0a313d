package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/vetracker/internal/model"
)

// UserCreatedMessage は利用者登録成功時のメッセージ。
const UserCreatedMessage = "User created."

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Register は識別用シークレット・氏名・PINで利用者を登録する。
	// 同じシークレットが登録済みの場合はconflictのAPIErrorを返す。
	Register(ctx context.Context, secret, name, pin string) (*model.User, error)
}

// UserHandler は利用者登録のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// registerUserRequest は利用者登録リクエストのボディ。
type registerUserRequest struct {
	IdentifierSecret string `json:"identifier_secret" validate:"required"`
	Name             string `json:"name" validate:"required,max=200"`
	Pin              string `json:"pin" validate:"required,numeric,min=4,max=8"`
}

// Register は利用者を登録する。
// POST /api/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	if _, err := h.service.Register(r.Context(), req.IdentifierSecret, req.Name, req.Pin); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: UserCreatedMessage})
}
