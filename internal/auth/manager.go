package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/braillesync/internal/session"
	"github.com/nao1215/braillesync/pkg/httpclient"
	"github.com/nao1215/braillesync/pkg/model"
)

// ErrNotAuthenticated はトークンを保持していない状態で認証が必要な操作をしたことを表す。
var ErrNotAuthenticated = errors.New("ログインしていません")

// Navigator はログイン画面への遷移を担当するUI側の窓口。
type Navigator interface {
	// RedirectToLogin はログイン画面に遷移させる。
	RedirectToLogin(ctx context.Context)
}

// NavigatorFunc は関数をNavigatorとして扱うためのアダプタ。
type NavigatorFunc func(ctx context.Context)

// RedirectToLogin はf(ctx)を呼び出す。
func (f NavigatorFunc) RedirectToLogin(ctx context.Context) {
	f(ctx)
}

// Manager はセッションのライフサイクルを管理する。
// Unauthenticated → (ログイン/登録成功) → Authenticated →
// (ログアウト / 401 / 初期化時の検証失敗) → Unauthenticated の遷移のみを持つ。
type Manager struct {
	// api はBrailleSync APIクライアント。
	api *httpclient.Client
	// store はメモリ上のトークン。
	store *session.Store
	// slot はトークンの永続化先。
	slot session.Slot
	// nav はログイン画面への遷移先。
	nav Navigator
	// logger はログ出力先。
	logger *slog.Logger
}

// NewManager は新しいManagerを生成し、apiの401通知を受け取るよう登録する。
// apiはstoreをTokenStoreとして生成されている必要がある。
func NewManager(api *httpclient.Client, store *session.Store, slot session.Slot, nav Navigator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if nav == nil {
		nav = NavigatorFunc(func(context.Context) {})
	}
	m := &Manager{
		api:    api,
		store:  store,
		slot:   slot,
		nav:    nav,
		logger: logger,
	}
	api.OnUnauthorized(m.handleUnauthorized)
	return m
}

// Initialize は永続化されたトークンを読み込み、現在のユーザー取得で検証する。
//
// トークンがなければ (nil, nil) を返す。
// 検証に失敗した場合は理由を問わずトークンを無効とみなし、スロットと
// ストアの両方を空にして (nil, nil) を返す。スロットの読み書きに失敗した
// 場合のみエラーを返す。
func (m *Manager) Initialize(ctx context.Context) (*model.User, error) {
	token, err := m.slot.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("保存されたトークンの読み込みに失敗: %w", err)
	}
	if token == "" {
		return nil, nil
	}

	m.store.Set(token)
	user, err := m.api.Me(ctx)
	if err != nil {
		m.logger.DebugContext(ctx, "保存されたトークンの検証に失敗しました", slog.String("error", err.Error()))
		m.store.Clear()
		if rmErr := m.slot.Remove(ctx); rmErr != nil {
			return nil, fmt.Errorf("無効なトークンの削除に失敗: %w", rmErr)
		}
		return nil, nil
	}
	return user, nil
}

// Login はログインし、レスポンスにトークンがあればスロットとストアに保存する。
func (m *Manager) Login(ctx context.Context, email, password string) (*model.User, error) {
	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := m.establish(ctx, resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Register はユーザー登録し、レスポンスにトークンがあればスロットとストアに保存する。
func (m *Manager) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	resp, err := m.api.Register(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	if err := m.establish(ctx, resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// establish はレスポンスのトークンを永続化してからメモリに反映する。
func (m *Manager) establish(ctx context.Context, resp *model.AuthResponse) error {
	if resp.AccessToken == "" {
		return nil
	}
	if err := m.slot.Save(ctx, resp.AccessToken); err != nil {
		return fmt.Errorf("トークンの保存に失敗: %w", err)
	}
	m.store.Set(resp.AccessToken)
	return nil
}

// Logout はスロットとストアを空にしてログイン画面に遷移させる。
// 未ログインの状態で呼んでも遷移は行う。
func (m *Manager) Logout(ctx context.Context) error {
	m.store.Clear()
	err := m.slot.Remove(ctx)
	m.nav.RedirectToLogin(ctx)
	if err != nil {
		return fmt.Errorf("トークンの削除に失敗: %w", err)
	}
	return nil
}

// IsAuthenticated はストアがトークンを保持していればtrueを返す。
// リモートサービスへの再検証は行わない。
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.store.Get()
	return ok
}

// Token は現在のトークンを返す。
func (m *Manager) Token() (string, bool) {
	return m.store.Get()
}

// RequireAuthenticated は永続化されたトークンを検証し、有効なユーザーを返す。
// 有効なトークンがなければErrNotAuthenticatedを返す。
func (m *Manager) RequireAuthenticated(ctx context.Context) (*model.User, error) {
	user, err := m.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}

// handleUnauthorized はAPIクライアントが401を受け取ったときに呼ばれる。
// ストアはクライアント側で破棄済みのため、スロットを削除して遷移させる。
func (m *Manager) handleUnauthorized(ctx context.Context) {
	if err := m.slot.Remove(ctx); err != nil {
		m.logger.WarnContext(ctx, "期限切れトークンの削除に失敗しました", slog.String("error", err.Error()))
	}
	m.nav.RedirectToLogin(ctx)
}
