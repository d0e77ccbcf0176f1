package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nao1215/braillesync/pkg/model"
	"github.com/spf13/cobra"
)

// ダウンロードできる形式。
const (
	formatBRF = "brf"
	formatTXT = "txt"
)

func (a *App) newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "翻訳履歴を参照する",
	}
	cmd.AddCommand(a.newHistoryListCmd(), a.newHistoryShowCmd(), a.newHistoryDownloadCmd())
	return cmd
}

func (a *App) newHistoryListCmd() *cobra.Command {
	var (
		filter model.HistoryFilter
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "翻訳履歴の一覧を表示する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit は0以上を指定してください: %d", limit)
			}
			if err := filter.Validate(); err != nil {
				return err
			}
			return a.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				if _, err := requireUser(ctx, rt); err != nil {
					return err
				}
				items, err := rt.api.History(ctx, filter)
				if err != nil {
					return err
				}
				// 一覧は新しい順に返る
				if limit > 0 && len(items) > limit {
					items = items[:limit]
				}
				return a.printHistory(items)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&filter.DateFrom, "from", "", "開始日（YYYY-MM-DD）")
	f.StringVar(&filter.DateTo, "to", "", "終了日（YYYY-MM-DD）")
	f.StringVar((*string)(&filter.Type), "type", "", "入力種別（text, image, file, audio, braille）")
	f.IntVarP(&limit, "limit", "n", 0, "表示する最大件数（0は全件）")
	return cmd
}

func (a *App) newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "翻訳履歴を1件表示する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				if _, err := requireUser(ctx, rt); err != nil {
					return err
				}
				t, err := rt.api.HistoryItem(ctx, args[0])
				if err != nil {
					return err
				}
				return a.printTranslation(t)
			})
		},
	}
}

func (a *App) newHistoryDownloadCmd() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "翻訳結果をBRFまたはテキストファイルとして保存する",
		Long:  "翻訳結果をダウンロードします。-o - を指定すると標準出力に書き出します。",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatBRF && format != formatTXT {
				return fmt.Errorf("--format は brf または txt を指定してください: %q", format)
			}
			id := args[0]
			return a.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				if _, err := requireUser(ctx, rt); err != nil {
					return err
				}
				t, err := rt.api.HistoryItem(ctx, id)
				if err != nil {
					return err
				}
				assetURL := t.Assets()[format]
				if assetURL == "" {
					return fmt.Errorf("この翻訳には%s形式の出力がありません", format)
				}

				if output == "-" {
					_, err := rt.api.Download(ctx, assetURL, a.out)
					return err
				}
				path := output
				if path == "" {
					path = id + "." + format
				}
				n, err := downloadToFile(ctx, rt, assetURL, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s に保存しました（%dバイト）\n", path, n)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", formatBRF, "保存する形式（brf または txt）")
	f.StringVarP(&output, "output", "o", "", "保存先のパス（既定: <id>.<format>）")
	return cmd
}

// downloadToFile はassetURLの内容をpathに書き出す。失敗した場合は書きかけのファイルを消す。
func downloadToFile(ctx context.Context, rt *runtime, assetURL, path string) (n int64, err error) {
	f, err := os.Create(path) //nolint:gosec // 保存先は利用者が指定する
	if err != nil {
		return 0, fmt.Errorf("保存先を作成できません: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return rt.api.Download(ctx, assetURL, f)
}
