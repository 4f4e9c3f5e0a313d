package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/vetracker/internal/middleware"
	"github.com/hitoshi/vetracker/internal/model"
	"github.com/hitoshi/vetracker/internal/note"
)

// NoteSavedMessage はノート保存成功時のメッセージ。
const NoteSavedMessage = "Note saved."

// NoteServiceInterface はノートハンドラーが必要とするサービスインターフェース。
type NoteServiceInterface interface {
	AddFrom(ctx context.Context, token string, decode func(*note.Input) error) (*model.Note, error)
}

// NoteHandler は臨床ノートのHTTPハンドラー。
type NoteHandler struct {
	service NoteServiceInterface
}

// NewNoteHandler はNoteHandlerを生成する。
func NewNoteHandler(service NoteServiceInterface) *NoteHandler {
	return &NoteHandler{
		service: service,
	}
}

// addNoteRequest はノート追加リクエストのボディ。typeは省略可能。
type addNoteRequest struct {
	Type        string `json:"type"`
	Description string `json:"description" validate:"required"`
}

// Add はノートを保存する。
// POST /api/notes
func (h *NoteHandler) Add(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.TokenFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	_, err = h.service.AddFrom(r.Context(), token, func(in *note.Input) error {
		var req addNoteRequest
		if apiErr := decodeJSON(w, r, &req); apiErr != nil {
			return apiErr
		}
		*in = note.Input{Kind: req.Type, Body: req.Description}
		return nil
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: NoteSavedMessage})
}
