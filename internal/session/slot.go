package session

import (
	"context"
	"sync"
)

// StorageKey はトークンを永続化するスロットの固定キー。
const StorageKey = "braillesync_token"

// Slot はトークン1つ分の永続的なキーバリュー領域。
type Slot interface {
	// Load は保存されたトークンを返す。空の場合は空文字列とnilを返す。
	Load(ctx context.Context) (string, error)
	// Save はトークンを保存する。既存の値は上書きされる。
	Save(ctx context.Context, token string) error
	// Remove はトークンを削除する。空の場合は何もしない。
	Remove(ctx context.Context) error
}

// MemorySlot はプロセス内だけで値を保持するSlot。
// テストや --ephemeral 実行で使用する。
type MemorySlot struct {
	mu    sync.Mutex
	token string
}

// NewMemorySlot は空のMemorySlotを生成する。
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

// Load は保持しているトークンを返す。
func (m *MemorySlot) Load(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

// Save はトークンを保持する。
func (m *MemorySlot) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Remove は保持しているトークンを破棄する。
func (m *MemorySlot) Remove(_ context.Context) error {
	return m.Save(context.Background(), "")
}
