// BrailleSync APIの開発用スタブサーバーのエントリポイント。
// クライアントの動作確認用で、点字変換やOCRは行わない。
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/nao1215/braillesync/internal/devserver"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := devserver.ConfigFromEnv()

	server, err := devserver.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("開発用サーバーの初期化に失敗", "error", err)
		os.Exit(1)
	}

	logger.Info("開発用サーバーを起動します", "addr", ":"+cfg.Port, "base_path", devserver.BasePath)
	if err := server.Run(); err != nil {
		_ = server.Close()
		logger.Error("開発用サーバーの起動に失敗", "error", err)
		os.Exit(1)
	}
}
