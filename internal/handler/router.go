package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/caresync/internal/middleware"
)

// CareServiceInterface は統一データサービスがハンドラーへ提供する全操作。
type CareServiceInterface interface {
	UserServiceInterface
	ElderlyServiceInterface
	TaskServiceInterface
	ChangeSubscriber
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// データサービス
	CareService CareServiceInterface

	// リクエストログの出力先。nilの場合はslog.Default()を使う
	Logger *slog.Logger

	// メトリクス（nil許容）
	LoginRecorder LoginRecorder
	HTTPRecorder  middleware.HTTPRecorder

	// /metrics のハンドラー（nil許容）
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Logging → Recovery → SecurityHeaders → CORS → Session → RateLimit(General) → CSRF
//
// Loggingを最外側に置くことで、panic時にRecoveryが返す500も
// ログとメトリクスに記録される。
// 認証ルート（/auth/*）はセッションミドルウェアの外に配置し、
// ログイン・サインアップにはIP単位のレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	requestLogger := deps.Logger
	if requestLogger == nil {
		requestLogger = slog.Default()
	}
	r.Use(middleware.NewLoggingMiddleware(requestLogger, deps.HTTPRecorder))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.LoginRecorder)
	userHandler := NewUserHandler(deps.CareService)
	elderlyHandler := NewElderlyHandler(deps.CareService)
	taskHandler := NewTaskHandler(deps.CareService)
	eventsHandler := NewEventsHandler(deps.CareService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	r.Route("/auth", func(r chi.Router) {
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/signup", authHandler.Signup)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General) → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// 変更通知ストリーム
		r.Get("/api/events", eventsHandler.Stream)

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/role", userHandler.UpdateRole)
				r.Delete("/", userHandler.Delete)
			})
		})

		// 被介護者プロフィール管理
		r.Route("/api/elderly", func(r chi.Router) {
			r.Get("/", elderlyHandler.ListProfiles)
			r.Post("/", elderlyHandler.CreateProfile)
			r.Delete("/{id}", elderlyHandler.DeleteProfile)
		})

		// タスク管理
		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/assign", taskHandler.Assign)
				r.Patch("/status", taskHandler.UpdateStatus)
				r.Delete("/", taskHandler.Delete)
			})
		})
	})

	return r
}
