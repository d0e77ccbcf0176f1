package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/braillesync/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envMap はmapを環境変数の代わりに使う。
func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

// writeConfig は一時ディレクトリに設定ファイルを書き出してパスを返す。
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestDefaultConfig は既定値を検証する。
func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, BackendSQLite, cfg.Session.Backend)
	assert.Equal(t, "en", cfg.Defaults.Language)
	assert.Equal(t, model.Grade1, cfg.Defaults.BrailleGrade)
}

// TestLoad は設定ファイルと環境変数の読み込みを検証する。
func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("ファイルが存在しない場合は既定値を返すこと", func(t *testing.T) {
		t.Parallel()

		cfg, err := load(filepath.Join(t.TempDir(), "missing.yaml"), envMap(nil))
		require.NoError(t, err)
		assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	})

	t.Run("YAMLの値で上書きされること", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
api:
  base_url: http://localhost:8080/api/v1
  timeout: 5s
  ca_file: /etc/braillesync/ca.pem
session:
  backend: redis
  redis_addr: localhost:6379
  redis_prefix: alice
  redis_ttl: 24h
defaults:
  language: ja
  braille_grade: 2
`)
		cfg, err := load(path, envMap(nil))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/api/v1", cfg.API.BaseURL)
		assert.Equal(t, 5*time.Second, cfg.API.Timeout)
		assert.Equal(t, "/etc/braillesync/ca.pem", cfg.API.CAFile)
		assert.Equal(t, BackendRedis, cfg.Session.Backend)
		assert.Equal(t, "localhost:6379", cfg.Session.RedisAddr)
		assert.Equal(t, "alice", cfg.Session.RedisPrefix)
		assert.Equal(t, 24*time.Hour, cfg.Session.RedisTTL)
		assert.Equal(t, "ja", cfg.Defaults.Language)
		assert.Equal(t, model.Grade2, cfg.Defaults.BrailleGrade)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("YAMLに無い項目は既定値のままであること", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "defaults:\n  language: fr\n")
		cfg, err := load(path, envMap(nil))
		require.NoError(t, err)
		assert.Equal(t, "fr", cfg.Defaults.Language)
		assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
		assert.Equal(t, model.Grade1, cfg.Defaults.BrailleGrade)
	})

	t.Run("不正なYAMLはエラーになること", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "api: [unclosed")
		_, err := load(path, envMap(nil))
		assert.Error(t, err)
	})

	t.Run("環境変数がファイルより優先されること", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "api:\n  base_url: http://from-file/api/v1\n")
		cfg, err := load(path, envMap(map[string]string{
			"BRAILLESYNC_API_BASE_URL": "http://from-env/api/v1",
			"NEXT_PUBLIC_API_BASE_URL": "http://from-next/api/v1",
			"BRAILLESYNC_TIMEOUT":      "2s",
			"BRAILLESYNC_SESSION_DB":   "/tmp/s.db",
			"BRAILLESYNC_CA_FILE":      "/tmp/ca.pem",
		}))
		require.NoError(t, err)
		assert.Equal(t, "http://from-env/api/v1", cfg.API.BaseURL)
		assert.Equal(t, 2*time.Second, cfg.API.Timeout)
		assert.Equal(t, "/tmp/s.db", cfg.Session.DBPath)
		assert.Equal(t, "/tmp/ca.pem", cfg.API.CAFile)
	})

	t.Run("NEXT_PUBLIC_API_BASE_URLも受け付けること", func(t *testing.T) {
		t.Parallel()

		cfg, err := load(filepath.Join(t.TempDir(), "none.yaml"), envMap(map[string]string{
			"NEXT_PUBLIC_API_BASE_URL": "http://from-next/api/v1",
		}))
		require.NoError(t, err)
		assert.Equal(t, "http://from-next/api/v1", cfg.API.BaseURL)
	})

	t.Run("BRAILLESYNC_REDIS_ADDRでredisに切り替わること", func(t *testing.T) {
		t.Parallel()

		cfg, err := load(filepath.Join(t.TempDir(), "none.yaml"), envMap(map[string]string{
			"BRAILLESYNC_REDIS_ADDR": "cache:6379",
		}))
		require.NoError(t, err)
		assert.Equal(t, BackendRedis, cfg.Session.Backend)
		assert.Equal(t, "cache:6379", cfg.Session.RedisAddr)
	})

	t.Run("不正なBRAILLESYNC_TIMEOUTはエラーになること", func(t *testing.T) {
		t.Parallel()

		_, err := load(filepath.Join(t.TempDir(), "none.yaml"), envMap(map[string]string{
			"BRAILLESYNC_TIMEOUT": "soon",
		}))
		assert.Error(t, err)
	})
}

// TestValidate は設定値の検証を確認する。
func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "既定値は有効であること", mutate: func(*Config) {}},
		{name: "memoryバックエンドは追加設定なしで有効であること", mutate: func(c *Config) { c.Session.Backend = BackendMemory }},
		{name: "スキームの無いURLは無効であること", mutate: func(c *Config) { c.API.BaseURL = "api.example.com/v1" }, wantErr: true},
		{name: "http以外のスキームは無効であること", mutate: func(c *Config) { c.API.BaseURL = "ftp://example.com" }, wantErr: true},
		{name: "0のタイムアウトは無効であること", mutate: func(c *Config) { c.API.Timeout = 0 }, wantErr: true},
		{name: "不明なバックエンドは無効であること", mutate: func(c *Config) { c.Session.Backend = "etcd" }, wantErr: true},
		{name: "sqliteでパスが空なら無効であること", mutate: func(c *Config) { c.Session.DBPath = "" }, wantErr: true},
		{name: "redisで接続先が空なら無効であること", mutate: func(c *Config) { c.Session.Backend = BackendRedis }, wantErr: true},
		{
			name: "負のredis_ttlは無効であること",
			mutate: func(c *Config) {
				c.Session.Backend = BackendRedis
				c.Session.RedisAddr = "localhost:6379"
				c.Session.RedisTTL = -time.Second
			},
			wantErr: true,
		},
		{name: "グレード3は無効であること", mutate: func(c *Config) { c.Defaults.BrailleGrade = 3 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			cfg.Session.DBPath = "/tmp/session.db"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
