package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSlot はRedisの1キーにトークンを保存するSlot。
// 複数の端末で同じセッションを共有する場合に使用する。
type RedisSlot struct {
	// client はRedisクライアント。
	client redis.UniversalClient
	// key はトークンを保存するキー。
	key string
	// ttl は保存時に設定する有効期限。0の場合は期限なし。
	ttl time.Duration
}

// NewRedisSlot は新しいRedisSlotを生成する。
// prefixが空でなければ "<prefix>:braillesync_token" をキーとして使う。
func NewRedisSlot(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisSlot {
	key := StorageKey
	if prefix != "" {
		key = prefix + ":" + StorageKey
	}
	return &RedisSlot{client: client, key: key, ttl: ttl}
}

// Load は保存されたトークンを返す。キーがなければ空文字列を返す。
func (r *RedisSlot) Load(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("トークンの読み込みに失敗: %w", err)
	}
	return token, nil
}

// Save はトークンを保存する。
func (r *RedisSlot) Save(ctx context.Context, token string) error {
	if token == "" {
		return r.Remove(ctx)
	}
	if err := r.client.Set(ctx, r.key, token, r.ttl).Err(); err != nil {
		return fmt.Errorf("トークンの保存に失敗: %w", err)
	}
	return nil
}

// Remove はトークンを削除する。
func (r *RedisSlot) Remove(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("トークンの削除に失敗: %w", err)
	}
	return nil
}
