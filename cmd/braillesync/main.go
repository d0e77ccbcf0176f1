// braillesync コマンドのエントリポイント。
// BrailleSync APIへのログインと翻訳・履歴参照を行う。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/braillesync/internal/cli"
)

// version はビルド時に -ldflags で埋め込む。
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, version, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
