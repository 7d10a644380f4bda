package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/caresync/internal/auth"
	"github.com/hitoshi/caresync/internal/care"
	"github.com/hitoshi/caresync/internal/config"
	"github.com/hitoshi/caresync/internal/database"
	"github.com/hitoshi/caresync/internal/handler"
	"github.com/hitoshi/caresync/internal/localstore"
	"github.com/hitoshi/caresync/internal/logger"
	"github.com/hitoshi/caresync/internal/metrics"
	"github.com/hitoshi/caresync/internal/middleware"
	"github.com/hitoshi/caresync/internal/notify"
	"github.com/hitoshi/caresync/internal/repository"
	"github.com/hitoshi/caresync/internal/security"
	"github.com/hitoshi/caresync/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.Bool("remote_mode", cfg.IsRemote()),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// dataBackend は動作モードごとに異なる依存一式。
// モードの分岐は起動時のこの1箇所だけで行い、以降のコードは
// インターフェース越しにどちらのモードかを意識しない。
type dataBackend struct {
	userRepo    repository.UserRepository
	elderlyRepo repository.ElderlyRepository
	taskRepo    repository.TaskRepository
	sessionRepo repository.SessionRepository
	notifier    notify.Notifier
	db          *sql.DB // リモートモードのみ。ローカルモードではnil
	close       func() error
}

// newRemoteBackend はPostgreSQLをデータソースとするバックエンドを構築する。
// 変更通知はデータベーストリガー経由のLISTEN/NOTIFYで受信する。
func newRemoteBackend(cfg *config.Config) (*dataBackend, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	listener, err := notify.NewPgListener(cfg.DatabaseURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to start change listener: %w", err)
	}

	return &dataBackend{
		userRepo:    repository.NewPostgresUserRepo(db),
		elderlyRepo: repository.NewPostgresElderlyRepo(db),
		taskRepo:    repository.NewPostgresTaskRepo(db),
		sessionRepo: repository.NewPostgresSessionRepo(db),
		notifier:    listener,
		db:          db,
		close: func() error {
			listener.Close()
			return db.Close()
		},
	}, nil
}

// newLocalBackend はSQLiteファイルをデータソースとするバックエンドを構築する。
// 変更通知はプロセス内Hubで配送され、初回起動時にはデモデータを投入する。
func newLocalBackend(cfg *config.Config) (*dataBackend, error) {
	store, err := localstore.Open(cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	if err := repository.SeedLocalStore(store, time.Now()); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to seed local store: %w", err)
	}

	slog.Info("local store opened", slog.String("path", cfg.LocalDBPath))

	hub := notify.NewHub()

	return &dataBackend{
		userRepo:    repository.NewLocalUserRepo(store, hub),
		elderlyRepo: repository.NewLocalElderlyRepo(store, hub),
		taskRepo:    repository.NewLocalTaskRepo(store, hub),
		sessionRepo: repository.NewLocalSessionRepo(store),
		notifier:    hub,
		close:       store.Close,
	}, nil
}

// runServe はAPIサーバーモードで起動する。
// 設定に応じてローカル/リモートのバックエンドを構築し、全依存関係を
// ワイヤリングしてHTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. バックエンドの構築（モード分岐はここだけ）
	var backend *dataBackend
	var err error
	if cfg.IsRemote() {
		backend, err = newRemoteBackend(cfg)
	} else {
		backend, err = newLocalBackend(cfg)
	}
	if err != nil {
		return err
	}
	defer backend.close()

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	if setter, ok := backend.notifier.(notify.RecorderSetter); ok {
		setter.SetRecorder(collector)
	}

	// 3. ドメインサービスの初期化
	sanitizer := security.NewContentSanitizer()
	authService := auth.NewService(backend.userRepo, backend.sessionRepo)
	careService := care.NewService(
		backend.userRepo, backend.elderlyRepo, backend.taskRepo,
		backend.notifier, sanitizer, collector,
	)

	// 4. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのレートはreq/min単位なのでreq/secに変換する
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.LoginRate = rate.Limit(float64(cfg.RateLimitLogin) / 60.0)
	rateLimiterCfg.LoginBurst = cfg.RateLimitLogin

	deps := &handler.RouterDeps{
		SessionFinder:     backend.sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			BaseURL:       cfg.BaseURL,
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		CareService:    careService,
		Logger:         slog.Default(),
		LoginRecorder:  collector,
		HTTPRecorder:   collector,
		MetricsHandler: metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// 5. バックグラウンドジョブの起動
	// 期限切れセッションの掃除はリモートスキーマに対してのみ行う
	jobCtx, jobCancel := context.WithCancel(context.Background())
	defer jobCancel()
	if backend.db != nil {
		cleanupJob := cleanup.NewSessionCleanupJob(backend.db, slog.Default(), cfg.SessionMaxAge)
		go cleanupJob.Start(jobCtx)
	}

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		// SSEストリームを切断しないよう、書き込みタイムアウトは設けない
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。リモートモード専用。
func runMigrate(cfg *config.Config) error {
	if !cfg.IsRemote() {
		return fmt.Errorf("migrate command requires DATABASE_URL (local mode has no migrations)")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
