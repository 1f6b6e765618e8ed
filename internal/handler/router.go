package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/oralarith/internal/metrics"
	"github.com/hitoshi/oralarith/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionValidator  middleware.SessionValidator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler // nilの場合は/metricsを公開しない

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// クイズ
	QuizService QuizServiceInterface

	// ユーザー
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RealIP → Logging → SecurityHeaders → CORS → (RateLimit(Auth) | Session → RateLimit(General))
//
// /auth はセッション不要、/quiz と /user はセッション必須。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// 未対応メソッドはtype不一致と同じく400で返す
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeUnknownType(w)
	})

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	quizHandler := NewQuizHandler(deps.QuizService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証不要のルート ---
	r.With(deps.RateLimiter.AuthMiddleware()).Post("/auth", authHandler.Handle)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionValidator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/quiz", quizHandler.Handle)
		r.Get("/user", userHandler.Handle)
		r.Post("/user", userHandler.Handle)
	})

	return r
}

// NewOpsRouter はワーカープロセス向けに/healthと/metrics（metricsHandlerがnilでない場合）だけを公開するルーターを返す。
func NewOpsRouter(checker HealthChecker, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware())

	r.Get("/health", NewHealthHandler(checker))
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}
	return r
}
