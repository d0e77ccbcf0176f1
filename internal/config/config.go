// Package config はbraillesync CLIの設定を読み込む。
//
// 設定の優先順位（低い順）:
//  1. 既定値
//  2. 設定ファイル（--config、なければ ~/.config/braillesync/config.yaml）
//  3. 環境変数（BRAILLESYNC_API_BASE_URL, NEXT_PUBLIC_API_BASE_URL, BRAILLESYNC_TIMEOUT,
//     BRAILLESYNC_CA_FILE, BRAILLESYNC_SESSION_DB, BRAILLESYNC_REDIS_ADDR）
//  4. コマンドラインフラグ（呼び出し側で上書きする）
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/braillesync/internal/session"
	"github.com/nao1215/braillesync/pkg/model"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL はリモートサービスの既定のベースURL。
const DefaultBaseURL = "https://api.braillesync.example.com/api/v1"

// セッションの永続化先。
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// APIConfig はリモートサービスへの接続設定。
type APIConfig struct {
	// BaseURL はエンドポイントのパスを連結する基点。
	BaseURL string `yaml:"base_url"`
	// Timeout は1リクエストあたりの上限時間。
	Timeout time.Duration `yaml:"timeout"`
	// CAFile は追加で信頼するCA証明書（PEM）のパス。空ならシステムの証明書のみ使う。
	CAFile string `yaml:"ca_file"`
}

// SessionConfig はトークンの永続化先の設定。
type SessionConfig struct {
	// Backend は sqlite / redis / memory のいずれか。
	Backend string `yaml:"backend"`
	// DBPath はsqlite使用時のデータベースファイル。
	DBPath string `yaml:"db_path"`
	// RedisAddr はredis使用時の接続先（host:port）。
	RedisAddr string `yaml:"redis_addr"`
	// RedisPrefix はredisキーの接頭辞。
	RedisPrefix string `yaml:"redis_prefix"`
	// RedisTTL はredisに保存するトークンの有効期限。0は期限なし。
	RedisTTL time.Duration `yaml:"redis_ttl"`
}

// DefaultsConfig は翻訳時の既定値。
type DefaultsConfig struct {
	// Language は翻訳時の既定言語。
	Language string `yaml:"language"`
	// BrailleGrade は翻訳時の既定グレード。
	BrailleGrade model.BrailleGrade `yaml:"braille_grade"`
}

// Config はbraillesync CLIの設定全体。
type Config struct {
	API      APIConfig      `yaml:"api"`
	Session  SessionConfig  `yaml:"session"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// DefaultConfig は既定の設定を返す。
func DefaultConfig() *Config {
	dbPath, _ := session.DefaultDBPath()
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			Backend: BackendSQLite,
			DBPath:  dbPath,
		},
		Defaults: DefaultsConfig{
			Language:     "en",
			BrailleGrade: model.Grade1,
		},
	}
}

// DefaultPath は既定の設定ファイルのパスを返す。
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "braillesync", "config.yaml")
}

// Load は設定ファイルと環境変数から設定を読み込む。
// configPathが空の場合はDefaultPathを使う。ファイルが存在しなくてもエラーにしない。
func Load(configPath string) (*Config, error) {
	return load(configPath, os.Getenv)
}

func load(configPath string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		configPath = DefaultPath()
	}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("設定ファイル %s の解析に失敗: %w", configPath, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("設定ファイル %s の読み込みに失敗: %w", configPath, err)
		}
	}

	if err := applyEnvOverrides(cfg, getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides は環境変数の値で設定を上書きする。
func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	// BRAILLESYNC_API_BASE_URL を優先する
	if v := getenv("NEXT_PUBLIC_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := getenv("BRAILLESYNC_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := getenv("BRAILLESYNC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BRAILLESYNC_TIMEOUT の解析に失敗: %w", err)
		}
		cfg.API.Timeout = d
	}
	if v := getenv("BRAILLESYNC_CA_FILE"); v != "" {
		cfg.API.CAFile = v
	}
	if v := getenv("BRAILLESYNC_SESSION_DB"); v != "" {
		cfg.Session.DBPath = v
	}
	if v := getenv("BRAILLESYNC_REDIS_ADDR"); v != "" {
		cfg.Session.RedisAddr = v
		cfg.Session.Backend = BackendRedis
	}
	return nil
}

// Validate は設定値の整合性を検証する。
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url が不正です: %q", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url のスキームはhttpまたはhttpsである必要があります: %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout は正の値である必要があります: %s", c.API.Timeout)
	}

	switch c.Session.Backend {
	case BackendSQLite:
		if c.Session.DBPath == "" {
			return errors.New("session.db_path が指定されていません")
		}
	case BackendRedis:
		if c.Session.RedisAddr == "" {
			return errors.New("session.redis_addr が指定されていません")
		}
		if c.Session.RedisTTL < 0 {
			return fmt.Errorf("session.redis_ttl は0以上である必要があります: %s", c.Session.RedisTTL)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("不明な session.backend です: %q", c.Session.Backend)
	}

	if !c.Defaults.BrailleGrade.Valid() {
		return fmt.Errorf("defaults.braille_grade は1または2である必要があります: %d", c.Defaults.BrailleGrade)
	}
	return nil
}
