// Package cli はbraillesyncコマンドのサブコマンドを定義する。
package cli

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/nao1215/braillesync/internal/auth"
	"github.com/nao1215/braillesync/internal/config"
	"github.com/nao1215/braillesync/internal/session"
	"github.com/nao1215/braillesync/pkg/httpclient"
	"github.com/nao1215/braillesync/pkg/model"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// globalOptions は全サブコマンド共通のフラグ。
type globalOptions struct {
	configPath string
	apiURL     string
	sessionDB  string
	ephemeral  bool
	jsonOut    bool
	verbose    bool
}

// App はコマンドの入出力と共通フラグを保持する。
type App struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	opts   globalOptions
	// version はversionサブコマンドで表示する。
	version string
}

// Execute はargsでコマンドを実行し、終了コードを返す。
func Execute(ctx context.Context, version string, args []string, in io.Reader, out, errOut io.Writer) int {
	app := &App{in: in, out: out, errOut: errOut, version: version}
	root := app.NewRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(errOut, "エラー:", err)
		return 1
	}
	return 0
}

// NewRootCmd はコマンドツリーを組み立てる。
func (a *App) NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "braillesync",
		Short:         "BrailleSync APIのコマンドラインクライアント",
		Long:          "braillesync はBrailleSyncの点字翻訳サービスにログインし、翻訳と履歴の参照を行います。",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.opts.configPath, "config", "c", "", "設定ファイルのパス（既定: ~/.config/braillesync/config.yaml）")
	pf.StringVar(&a.opts.apiURL, "api-url", "", "APIのベースURL")
	pf.StringVar(&a.opts.sessionDB, "session-db", "", "トークンを保存するSQLiteファイル")
	pf.BoolVar(&a.opts.ephemeral, "ephemeral", false, "トークンを保存しない")
	pf.BoolVar(&a.opts.jsonOut, "json", false, "結果をJSONで出力する")
	pf.BoolVarP(&a.opts.verbose, "verbose", "v", false, "デバッグログを出力する")

	root.AddCommand(
		a.newRegisterCmd(),
		a.newLoginCmd(),
		a.newLogoutCmd(),
		a.newStatusCmd(),
		a.newWhoamiCmd(),
		a.newProfileCmd(),
		a.newTranslateCmd(),
		a.newHistoryCmd(),
		a.newVersionCmd(),
	)
	return root
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "バージョンを表示する",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "braillesync version %s\n", a.version)
		},
	}
}

// runtime は1回のコマンド実行で使うクライアント一式。
type runtime struct {
	cfg     *config.Config
	api     *httpclient.Client
	manager *auth.Manager
	slot    session.Slot
	logger  *slog.Logger
	closers []func() error
}

// Close は開いた接続をすべて閉じる。
func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

// loadConfig は設定を読み込み、フラグで上書きして検証する。
func (a *App) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return nil, err
	}
	if a.opts.apiURL != "" {
		cfg.API.BaseURL = a.opts.apiURL
	}
	if a.opts.sessionDB != "" {
		cfg.Session.Backend = config.BackendSQLite
		cfg.Session.DBPath = a.opts.sessionDB
	}
	if a.opts.ephemeral {
		cfg.Session.Backend = config.BackendMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定が不正です: %w", err)
	}
	return cfg, nil
}

// openSlot は設定に応じたトークンの永続化先を開く。
func openSlot(ctx context.Context, cfg config.SessionConfig) (session.Slot, func() error, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return session.NewRedisSlot(client, cfg.RedisPrefix, cfg.RedisTTL), client.Close, nil
	case config.BackendMemory:
		return session.NewMemorySlot(), func() error { return nil }, nil
	default:
		slot, err := session.OpenSQLiteSlot(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return slot, slot.Close, nil
	}
}

// open は設定を読み込み、APIクライアントとセッション管理を組み立てる。
func (a *App) open(ctx context.Context) (*runtime, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if a.opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))

	slot, closeSlot, err := openSlot(ctx, cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("セッションの保存先を開けません: %w", err)
	}

	opts := []httpclient.Option{
		httpclient.WithTimeout(cfg.API.Timeout),
		httpclient.WithLogger(logger),
	}
	if cfg.API.CAFile != "" {
		hc, err := newTLSClient(cfg.API.CAFile)
		if err != nil {
			_ = closeSlot()
			return nil, err
		}
		opts = append(opts, httpclient.WithHTTPClient(hc))
	}

	store := session.NewStore()
	api := httpclient.New(cfg.API.BaseURL, append(opts, httpclient.WithTokenStore(store))...)
	logger.Debug("設定を読み込みました",
		slog.String("base_url", cfg.API.BaseURL),
		slog.String("session_backend", cfg.Session.Backend),
		slog.String("ca_file", cfg.API.CAFile),
	)

	return &runtime{
		cfg:     cfg,
		api:     api,
		manager: auth.NewManager(api, store, slot, loginHint{w: a.errOut}, logger),
		slot:    slot,
		logger:  logger,
		closers: []func() error{closeSlot},
	}, nil
}

// newTLSClient はcaFileの証明書をシステムの証明書に加えて信頼するHTTPクライアントを返す。
func newTLSClient(caFile string) (*http.Client, error) {
	pem, err := os.ReadFile(caFile) //nolint:gosec // 設定で指定されたパス
	if err != nil {
		return nil, fmt.Errorf("CA証明書の読み込みに失敗: %w", err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("CA証明書 %s に有効なPEMが含まれていません", caFile)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	return &http.Client{Transport: transport}, nil
}

// withRuntime はruntimeを開いてfnを実行し、終了後に閉じる。
func (a *App) withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) (err error) {
	ctx := cmd.Context()
	rt, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, rt)
}

// errNotLoggedIn はログインが必要なコマンドを未ログインで実行したときのエラー。
var errNotLoggedIn = errors.New("ログインしていません。braillesync login を実行してください")

// requireUser は保存されたトークンを検証し、ログイン中のユーザーを返す。
func requireUser(ctx context.Context, rt *runtime) (*model.User, error) {
	user, err := rt.manager.RequireAuthenticated(ctx)
	if errors.Is(err, auth.ErrNotAuthenticated) {
		return nil, errNotLoggedIn
	}
	return user, err
}
