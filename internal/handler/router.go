package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/linkman/internal/metrics"
	"github.com/hitoshi/linkman/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// 横断的関心事
	Logger          *slog.Logger
	Metrics         metrics.MetricsCollector
	MetricsGatherer prometheus.Gatherer // nilの場合は/metricsを公開しない
	HealthChecker   HealthChecker

	// ミドルウェア依存
	SessionResolver   middleware.SessionResolver
	Guard             *middleware.AccessGuard // nilの場合はAuthConfigのパスから生成する
	RateLimiter       *middleware.RateLimiter
	Flash             FlashMessenger
	CORSAllowedOrigin string
	CSRF              middleware.CSRFConfig
	HSTS              bool

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ユーザー
	UserService UserServiceInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS → Session → CSRF → (RateLimit) → (AccessGuard)
//
// /health と /metrics はセッション解決の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	authConfig := deps.AuthConfig.withDefaults()
	guard := deps.Guard
	if guard == nil {
		guard = middleware.NewAccessGuard(authConfig.SignInPath, authConfig.HomePath)
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTS))
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// --- セッション不要のルート ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Flash, authConfig)
	pageHandler := NewPageHandler(deps.Flash)
	userHandler := NewUserHandler(deps.UserService, authConfig)

	// --- セッションを解決するルート ---
	// 解決結果に関わらずリクエストは通し、可否はAccessGuardが判定する
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionResolver))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF))

		r.Get("/auth/me", authHandler.Me)
		r.Get("/logout", authHandler.Logout)
		r.Post("/logout", authHandler.Logout)

		// OAuthフロー
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.SignInMiddleware())
			r.Get("/auth/google", authHandler.GoogleLogin)
			r.Get("/auth/google/callback", authHandler.GoogleCallback)
		})

		// 匿名ユーザー専用
		r.Group(func(r chi.Router) {
			r.Use(guard.Anonymous())
			r.Get(authConfig.SignInPath, pageHandler.SignIn)
			r.Get(authConfig.SignUpPath, pageHandler.SignUp)

			// パスワード総当たり対策としてIP単位で制限する
			r.With(deps.RateLimiter.SignInMiddleware()).Post(authConfig.SignInPath, authHandler.SignIn)
			r.With(deps.RateLimiter.SignInMiddleware()).Post(authConfig.SignUpPath, authHandler.SignUp)
		})

		// 認証済みユーザー専用ページ
		r.Group(func(r chi.Router) {
			r.Use(guard.Authenticated())
			r.Get(authConfig.HomePath, pageHandler.Links)
		})

		// 認証済みユーザー専用API
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.GeneralMiddleware())
			r.Use(guard.AuthenticatedAPI())
			r.Delete("/api/users/me", userHandler.Withdraw)
		})
	})

	return r
}
