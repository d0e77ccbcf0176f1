package session

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/braillesync/pkg/migration"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteSlot はSQLiteのkvテーブルにトークンを保存するSlot。
// CLIの既定の永続化先。
type SQLiteSlot struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
	// key はトークンを保存する行のキー。
	key string
}

// DefaultDBPath は既定のデータベースパス（~/.local/share/braillesync/session.db）を返す。
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "braillesync", "session.db"), nil
}

// OpenSQLiteSlot はdbPathのSQLiteデータベースを開き（なければ作成し）、スキーマを適用する。
func OpenSQLiteSlot(ctx context.Context, dbPath string) (*SQLiteSlot, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, fmt.Errorf("データベースディレクトリの作成に失敗: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// 単一のトークンしか扱わないため接続は1本で足りる。:memory: の共有にも必要
	db.SetMaxOpenConns(1)

	slot, err := NewSQLiteSlot(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return slot, nil
}

// NewSQLiteSlot は既存のDB接続からSQLiteSlotを生成する。スキーマは自動で適用される。
func NewSQLiteSlot(ctx context.Context, db *sql.DB) (*SQLiteSlot, error) {
	if _, err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &SQLiteSlot{db: db, key: StorageKey}, nil
}

// Load は保存されたトークンを返す。行がなければ空文字列を返す。
func (s *SQLiteSlot) Load(ctx context.Context) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", s.key).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("トークンの読み込みに失敗: %w", err)
	}
	return token, nil
}

// Save はトークンを保存する。
func (s *SQLiteSlot) Save(ctx context.Context, token string) error {
	if token == "" {
		return s.Remove(ctx)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, token,
	)
	if err != nil {
		return fmt.Errorf("トークンの保存に失敗: %w", err)
	}
	return nil
}

// Remove はトークンを削除する。
func (s *SQLiteSlot) Remove(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", s.key); err != nil {
		return fmt.Errorf("トークンの削除に失敗: %w", err)
	}
	return nil
}

// Close はデータベース接続を閉じる。
func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}
