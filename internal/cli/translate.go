package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nao1215/braillesync/pkg/model"
	"github.com/spf13/cobra"
)

// translateOptions は翻訳コマンド共通のフラグ。
type translateOptions struct {
	language string
	grade    int
}

func (o *translateOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.language, "language", "l", "", "翻訳の言語（既定: プロフィールまたは設定ファイルの値）")
	cmd.Flags().IntVarP(&o.grade, "grade", "g", 0, "点字のグレード 1 または 2（既定: プロフィールまたは設定ファイルの値）")
}

// resolve はフラグ、プロフィール、設定ファイルの順で言語とグレードを決める。
func (o *translateOptions) resolve(cmd *cobra.Command, user *model.User, rt *runtime) (string, model.BrailleGrade, error) {
	language := rt.cfg.Defaults.Language
	if user.DefaultLanguage != "" {
		language = user.DefaultLanguage
	}
	if cmd.Flags().Changed("language") {
		language = o.language
	}

	grade := rt.cfg.Defaults.BrailleGrade
	if user.DefaultBrailleGrade.Valid() {
		grade = user.DefaultBrailleGrade
	}
	if cmd.Flags().Changed("grade") {
		grade = model.BrailleGrade(o.grade)
	}
	if !grade.Valid() {
		return "", 0, fmt.Errorf("グレードは1または2を指定してください: %d", grade)
	}
	return language, grade, nil
}

func (a *App) newTranslateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "テキスト・画像・ファイル・点字を翻訳する",
	}
	cmd.AddCommand(
		a.newTranslateTextCmd(),
		a.newTranslateDataCmd("image", "画像を点字に翻訳する", true),
		a.newTranslateDataCmd("file", "ドキュメントファイルを点字に翻訳する", false),
		a.newTranslateBrailleCmd(),
	)
	return cmd
}

func (a *App) newTranslateTextCmd() *cobra.Command {
	var (
		opts      translateOptions
		summarize bool
	)
	cmd := &cobra.Command{
		Use:   "text <content>",
		Short: "テキストを点字に翻訳する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				user, err := requireUser(ctx, rt)
				if err != nil {
					return err
				}
				language, grade, err := opts.resolve(cmd, user, rt)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("summarize") {
					summarize = user.EnableSummarization
				}
				t, err := rt.api.TranslateText(ctx, args[0], language, grade, summarize)
				if err != nil {
					return err
				}
				return a.printTranslation(t)
			})
		},
	}
	opts.bind(cmd)
	cmd.Flags().BoolVar(&summarize, "summarize", false, "要約も要求する（既定: プロフィールの値）")
	return cmd
}

// newTranslateDataCmd は画像・ファイルをdata URLとして送るコマンドを返す。
// imageOnlyの場合は画像以外のファイルを送信前に拒否する。
func (a *App) newTranslateDataCmd(name, short string, imageOnly bool) *cobra.Command {
	var opts translateOptions
	cmd := &cobra.Command{
		Use:   name + " <path>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, mediaType, err := readDataURL(args[0])
			if err != nil {
				return err
			}
			if imageOnly && !strings.HasPrefix(mediaType, "image/") {
				return fmt.Errorf("画像ファイルではありません: %s (%s)", args[0], mediaType)
			}
			return a.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				user, err := requireUser(ctx, rt)
				if err != nil {
					return err
				}
				language, grade, err := opts.resolve(cmd, user, rt)
				if err != nil {
					return err
				}
				rt.logger.Debug("ファイルを送信します", "path", args[0], "mime", mediaType)

				var t *model.Translation
				if imageOnly {
					t, err = rt.api.TranslateImage(ctx, data, language, grade)
				} else {
					t, err = rt.api.TranslateFile(ctx, data, language, grade)
				}
				if err != nil {
					return err
				}
				return a.printTranslation(t)
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func (a *App) newTranslateBrailleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "braille <content>",
		Short: "点字をテキストに翻訳する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				if _, err := requireUser(ctx, rt); err != nil {
					return err
				}
				t, err := rt.api.TranslateBrailleToText(ctx, args[0])
				if err != nil {
					return err
				}
				return a.printTranslation(t)
			})
		},
	}
}

// readDataURL はファイルを読み込み、"data:<mime>;base64,..." 形式の文字列と
// 内容から判定したMIMEタイプ（パラメータを除く）を返す。
func readDataURL(path string) (string, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("ファイルの読み込みに失敗: %w", err)
	}
	if len(raw) == 0 {
		return "", "", fmt.Errorf("ファイルが空です: %s", path)
	}
	mediaType, _, _ := strings.Cut(mimetype.Detect(raw).String(), ";")
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(raw), mediaType, nil
}
