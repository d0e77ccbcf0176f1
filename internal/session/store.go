package session

import "sync"

// Store は実行中のクライアントが保持するBearerトークンの唯一の保管場所。
// 永続化はSlotが担い、Storeはメモリ上の値のみを扱う。
// ゼロ値は空のセッションとして使用できる。
type Store struct {
	mu    sync.RWMutex
	token string
}

// NewStore は空のセッションストアを生成する。
func NewStore() *Store {
	return &Store{}
}

// Get は現在のトークンを返す。保持していなければfalseを返す。
func (s *Store) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Set はトークンを置き換える。空文字列はClearと同じ。
func (s *Store) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Clear はトークンを破棄する。何度呼んでもよい。
func (s *Store) Clear() {
	s.Set("")
}
