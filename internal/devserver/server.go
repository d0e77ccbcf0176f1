package devserver

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/braillesync/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "modernc.org/sqlite"
)

// BasePath はAPIエンドポイントを公開するパス。クライアントのベースURLはこれで終わる。
const BasePath = "/api/v1"

// Config は開発用サーバーの設定。
type Config struct {
	// Port はリッスンポート。
	Port string
	// JWTSecret はアクセストークンの署名鍵。
	JWTSecret string
	// DBPath はSQLiteファイルのパス。":memory:" も指定できる。
	DBPath string
	// FrontendURL はCORSで許可するオリジン。
	FrontendURL string
	// TokenTTL はアクセストークンの有効期間。0以下なら既定値を使う。
	TokenTTL time.Duration
}

// ConfigFromEnv は環境変数から設定を読み込む。
func ConfigFromEnv() Config {
	return Config{
		Port:        getEnvOr("PORT", "8080"),
		JWTSecret:   getEnvOr("JWT_SECRET", "dev-secret-key"),
		DBPath:      getEnvOr("DB_PATH", "braillesync-dev.db"),
		FrontendURL: getEnvOr("FRONTEND_URL", "http://localhost:3000"),
	}
}

// Server は開発用スタブサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// store はユーザーと翻訳履歴の保存先。
	store *store
	// db はSQLiteデータベース接続。
	db *sql.DB
	// tokens はアクセストークンの発行・検証を行う。
	tokens *middleware.TokenIssuer
	// registry はメトリクスの登録先。
	registry *prometheus.Registry
	// translations は入力種別ごとの翻訳件数。
	translations *prometheus.CounterVec
	// logger はログ出力先。
	logger *slog.Logger
	// now は現在時刻を返す。
	now func() time.Time
}

// Open はcfg.DBPathのSQLiteを開いてServerを生成する。
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("データベースディレクトリの作成に失敗: %w", err)
		}
	}
	sqlDB, err := sql.Open("sqlite", cfg.DBPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	s, err := New(ctx, sqlDB, cfg, logger)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// New は接続済みのdbを使ってServerを生成する。スキーマはここで適用する。
func New(ctx context.Context, db *sql.DB, cfg Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := newStore(ctx, db)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics, err := middleware.NewHTTPMetrics(registry, "braillesync_devserver")
	if err != nil {
		return nil, fmt.Errorf("メトリクスの登録に失敗: %w", err)
	}
	translations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "braillesync_devserver",
		Name:      "translations_total",
		Help:      "Translations stored, by input type.",
	}, []string{"input_type"})
	if err := registry.Register(translations); err != nil {
		return nil, fmt.Errorf("メトリクスの登録に失敗: %w", err)
	}

	setupValidator()

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(httpMetrics.Handler())
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))

	s := &Server{
		router:       router,
		port:         cfg.Port,
		store:        st,
		db:           db,
		tokens:       middleware.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		registry:     registry,
		translations: translations,
		logger:       logger,
		now:          time.Now,
	}
	s.setupRoutes()

	return s, nil
}

// Handler はHTTPハンドラを返す。httptestでの利用を想定している。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Close はデータベース接続を閉じる。
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	api := s.router.Group(BasePath)

	// 認証不要
	api.POST("/auth/register", s.handleRegister())
	api.POST("/auth/login", s.handleLogin())

	authed := api.Group("")
	authed.Use(middleware.JWTAuth(s.tokens))
	{
		authed.GET("/auth/me", s.handleGetMe())
		authed.PUT("/auth/me", s.handleUpdateMe())

		authed.POST("/translate/text", s.handleTranslateText())
		authed.POST("/translate/image", s.handleTranslateImage())
		authed.POST("/translate/file", s.handleTranslateFile())
		authed.POST("/translate/braille-to-text", s.handleTranslateBraille())

		authed.GET("/history", s.handleListHistory())
		authed.GET("/history/:id", s.handleGetHistory())
		authed.GET("/history/:id/download/:format", s.handleDownload())
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "devserver"})
	})
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
