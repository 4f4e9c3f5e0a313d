package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/vetracker/internal/contraction"
	"github.com/hitoshi/vetracker/internal/middleware"
	"github.com/hitoshi/vetracker/internal/model"
)

// ContractionServiceInterface は陣痛ハンドラーが必要とするサービスインターフェース。
type ContractionServiceInterface interface {
	RegisterFrom(ctx context.Context, token string, decode func(*contraction.RegisterInput) error) (*contraction.RegisterResult, error)
	ListRecent(ctx context.Context, token string, limit int) ([]*model.Contraction, error)
}

// ContractionHandler は陣痛記録のHTTPハンドラー。
type ContractionHandler struct {
	service ContractionServiceInterface
}

// NewContractionHandler はContractionHandlerを生成する。
func NewContractionHandler(service ContractionServiceInterface) *ContractionHandler {
	return &ContractionHandler{
		service: service,
	}
}

// registerContractionRequest は陣痛登録リクエストのボディ。
// 形式の検証はサービス層で行う。ボディは認可の後でのみ読み取る。
type registerContractionRequest struct {
	StartTimestamp string `json:"start_timestamp" validate:"required"`
	StopTimestamp  string `json:"stop_timestamp" validate:"required"`
	Duration       string `json:"duration" validate:"required"`
}

// contractionResponse は陣痛記録のAPIレスポンス。
type contractionResponse struct {
	ID              string    `json:"id"`
	StartTimestamp  string    `json:"start_timestamp"`
	StopTimestamp   string    `json:"stop_timestamp"`
	Duration        string    `json:"duration"`
	DurationSeconds int       `json:"duration_seconds"`
	IntervalSeconds *int      `json:"interval_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

// registerContractionResponse は陣痛登録のレスポンス。
type registerContractionResponse struct {
	Message     string              `json:"message"`
	Warning     bool                `json:"warning"`
	Contraction contractionResponse `json:"contraction"`
}

// listContractionsResponse は陣痛記録一覧のレスポンス。新しい順に並ぶ。
type listContractionsResponse struct {
	Contractions []contractionResponse `json:"contractions"`
}

func toContractionResponse(c *model.Contraction) contractionResponse {
	return contractionResponse{
		ID:              c.ID,
		StartTimestamp:  c.StartedAt.Format(contraction.TimestampLayout),
		StopTimestamp:   c.StoppedAt.Format(contraction.TimestampLayout),
		Duration:        contraction.FormatDuration(c.DurationSeconds),
		DurationSeconds: c.DurationSeconds,
		IntervalSeconds: c.IntervalSeconds,
		CreatedAt:       c.CreatedAt,
	}
}

// Register は陣痛を1件登録する。警告が出た場合は message に警告文が入る。
// POST /api/contractions
func (h *ContractionHandler) Register(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.TokenFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	result, err := h.service.RegisterFrom(r.Context(), token, func(in *contraction.RegisterInput) error {
		var req registerContractionRequest
		if apiErr := decodeJSON(w, r, &req); apiErr != nil {
			return apiErr
		}
		*in = contraction.RegisterInput{
			StartTimestamp: req.StartTimestamp,
			StopTimestamp:  req.StopTimestamp,
			Duration:       req.Duration,
		}
		return nil
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerContractionResponse{
		Message:     result.Message,
		Warning:     result.Warning,
		Contraction: toContractionResponse(result.Contraction),
	})
}

// List は利用者の直近の陣痛記録を返す。
// GET /api/contractions?limit=N
func (h *ContractionHandler) List(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.TokenFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit == 0 {
			handleServiceError(w, model.NewInvalidLimitError(limit))
			return
		}
	}

	list, err := h.service.ListRecent(r.Context(), token, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := listContractionsResponse{Contractions: make([]contractionResponse, 0, len(list))}
	for _, c := range list {
		resp.Contractions = append(resp.Contractions, toContractionResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}
