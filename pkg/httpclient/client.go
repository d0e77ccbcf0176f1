package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout はリクエスト全体のタイムアウトの既定値。
const DefaultTimeout = 30 * time.Second

// TokenStore はクライアントが参照するセッショントークンの保管場所。
// 401を受け取るとClearが呼ばれる。
type TokenStore interface {
	// Get は現在のトークンを返す。保持していなければfalseを返す。
	Get() (string, bool)
	// Clear はトークンを破棄する。
	Clear()
}

// UnauthorizedHandler は401を受け取りトークンを破棄した直後に呼ばれる。
type UnauthorizedHandler func(ctx context.Context)

// Client はBrailleSync APIへのHTTPクライアント。
// UIからリモートサービスへの通信はすべてこのクライアントを経由する。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先APIのベースURL（例: "https://api.braillesync.example.com/api/v1"）。
	baseURL string
	// tokens はBearerトークンの保管場所。nilの場合は認証ヘッダーを付与しない。
	tokens TokenStore
	// onUnauthorized は401受信時の通知先。
	onUnauthorized UnauthorizedHandler
	// logger は失敗したリクエストの診断ログ出力先。
	logger *slog.Logger
	// timeout はWithTimeoutで指定された値。0は未指定。
	timeout time.Duration
}

// Option はClientの設定を変更する。
type Option func(*Client)

// WithTokenStore はBearerトークンの保管場所を設定する。
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) {
		c.tokens = store
	}
}

// WithHTTPClient は内部で使用するHTTPクライアントを差し替える。
// 渡したクライアントは複製して使うため、呼び出し側の値は変更されない。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout はリクエストのタイムアウトを設定する。
// WithHTTPClientとの指定順序に関係なく適用される。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger は診断ログの出力先を設定する。
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New は新しいAPIクライアントを生成する。
// タイムアウトはWithTimeout、WithHTTPClientで渡したクライアントの値、DefaultTimeoutの順に決まる。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := &http.Client{Timeout: DefaultTimeout}
	if c.httpClient != nil {
		cloned := *c.httpClient
		hc = &cloned
	}
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	c.httpClient = hc
	return c
}

// BaseURL は接続先APIのベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// OnUnauthorized は401受信時に呼ばれるハンドラを登録する。
// リクエストを発行する前に呼び出すこと。
func (c *Client) OnUnauthorized(h UnauthorizedHandler) {
	c.onUnauthorized = h
}

// RequestOptions は1回のリクエストの指定。
type RequestOptions struct {
	// Method はHTTPメソッド。空の場合はGET。
	Method string
	// Header は追加のリクエストヘッダー。Content-Typeを上書きできる。
	Header http.Header
	// Body はJSONにシリアライズして送信する値。nilの場合はボディなし。
	Body any
	// SkipAuth がtrueの場合はトークンがあってもAuthorizationヘッダーを付与しない。
	SkipAuth bool
}

// Request は baseURL+path にJSONリクエストを送信し、レスポンスのペイロードを返す。
//
// 401の場合はトークンを破棄してKindUnauthorizedの*APIErrorを返す。
// レスポンスボディがJSONとして解釈できない場合はペイロードをnilとして扱う。
// 2xx以外の場合はKindRequestFailedの*APIErrorを返す。
// 通信エラーは分類せずにそのまま返す。
func (c *Client) Request(ctx context.Context, path string, opts RequestOptions) (json.RawMessage, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		jsonBody, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, values := range opts.Header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	if !opts.SkipAuth && c.tokens != nil {
		if token, ok := c.tokens.Get(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	return c.handleResponse(ctx, resp, endpoint)
}

// handleResponse はステータスに応じてレスポンスを分類する。
func (c *Client) handleResponse(ctx context.Context, resp *http.Response, endpoint string) (json.RawMessage, error) {
	if resp.StatusCode == http.StatusUnauthorized {
		// 残りのボディは読み捨てて接続を再利用可能にする
		_, _ = io.Copy(io.Discard, resp.Body)
		if c.tokens != nil {
			c.tokens.Clear()
		}
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return nil, &APIError{
			Kind:     KindUnauthorized,
			Status:   resp.StatusCode,
			Message:  SessionExpiredMessage,
			Endpoint: endpoint,
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗: %w", err)
	}
	payload := decodePayload(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := parseErrorBody(payload).text(resp.StatusCode)
		c.logger.ErrorContext(ctx, "[BrailleSync API Error]",
			slog.Int("status", resp.StatusCode),
			slog.String("message", message),
			slog.String("endpoint", endpoint),
		)
		return nil, &APIError{
			Kind:     KindRequestFailed,
			Status:   resp.StatusCode,
			Message:  message,
			Endpoint: endpoint,
		}
	}

	return payload, nil
}

// decodePayload は有効なJSONであればそのまま返し、それ以外はnilを返す。
func decodePayload(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil
	}
	return json.RawMessage(trimmed)
}

// PostJSON は指定パスにJSONボディでPOSTリクエストを送信する。
// レスポンスのペイロードをresultにデシリアライズする。resultがnilの場合は破棄する。
func (c *Client) PostJSON(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, path, RequestOptions{Method: http.MethodPost, Body: body}, result)
}

// PutJSON は指定パスにJSONボディでPUTリクエストを送信する。
func (c *Client) PutJSON(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, path, RequestOptions{Method: http.MethodPut, Body: body}, result)
}

// GetJSON は指定パスにGETリクエストを送信する。
func (c *Client) GetJSON(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, path, RequestOptions{}, result)
}

// doJSON はRequestを実行し、ペイロードをresultにデシリアライズする。
// 空のペイロードはresultを変更しない。
func (c *Client) doJSON(ctx context.Context, path string, opts RequestOptions, result any) error {
	payload, err := c.Request(ctx, path, opts)
	if err != nil {
		return err
	}
	if result == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, result); err != nil {
		return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
	}
	return nil
}

// Download はアセットのURLから内容を取得してwに書き込み、書き込んだバイト数を返す。
//
// 相対URLはベースURLを基準に解決する。Authorizationヘッダーは接続先が
// ベースURLと同じスキーム・ホストの場合だけ付与する。
// 401と2xx以外の扱いはRequestと同じ。
func (c *Client) Download(ctx context.Context, assetURL string, w io.Writer) (int64, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return 0, fmt.Errorf("ベースURLの解析に失敗: %w", err)
	}
	ref, err := url.Parse(assetURL)
	if err != nil {
		return 0, fmt.Errorf("アセットURLの解析に失敗: %w", err)
	}
	target := base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	if c.tokens != nil && target.Scheme == base.Scheme && target.Host == base.Host {
		if token, ok := c.tokens.Get(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, err := c.handleResponse(ctx, resp, target.String())
		return 0, err
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("アセットの書き込みに失敗: %w", err)
	}
	return n, nil
}
