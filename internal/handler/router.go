package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/vetracker/internal/metrics"
	"github.com/hitoshi/vetracker/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 運用エンドポイント
	Health         HealthChecker
	MetricsHandler http.Handler

	// サービス
	UserService        UserServiceInterface
	AuthService        AuthServiceInterface
	ContractionService ContractionServiceInterface
	NoteService        NoteServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS → RateLimit(General) → BearerToken
//
// /health と /metrics はレート制限とトークン検証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Not found."})
	})

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	contractionHandler := NewContractionHandler(deps.ContractionService)
	noteHandler := NewNoteHandler(deps.NoteService)

	// --- 運用エンドポイント ---
	if deps.Health != nil {
		r.Get("/health", NewHealthHandler(deps.Health))
	}
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// --- トークン不要のルート ---
		// ログインと登録はPIN・シークレットの総当たり対策として専用のレート制限を追加する
		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.LoginMiddleware())
			}
			r.Post("/users", userHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// --- トークンが必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewBearerTokenMiddleware())

			r.Post("/logout", authHandler.Logout)

			r.Route("/contractions", func(r chi.Router) {
				r.Post("/", contractionHandler.Register)
				r.Get("/", contractionHandler.List)
			})

			r.Post("/notes", noteHandler.Add)
		})
	})

	return r
}
