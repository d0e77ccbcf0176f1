package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/braillesync/pkg/model"
	"github.com/spf13/cobra"
)

func (a *App) newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "プロフィールを管理する",
	}
	cmd.AddCommand(a.newProfileUpdateCmd())
	return cmd
}

func (a *App) newProfileUpdateCmd() *cobra.Command {
	var (
		name         string
		email        string
		language     string
		grade        int
		summarize    bool
		highContrast bool
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "指定した項目だけプロフィールを更新する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			var update model.ProfileUpdate
			if flags.Changed("name") {
				update.Name = &name
			}
			if flags.Changed("email") {
				update.Email = &email
			}
			if flags.Changed("language") {
				update.DefaultLanguage = &language
			}
			if flags.Changed("grade") {
				g := model.BrailleGrade(grade)
				if !g.Valid() {
					return fmt.Errorf("グレードは1または2を指定してください: %d", grade)
				}
				update.DefaultBrailleGrade = &g
			}
			if flags.Changed("summarize") {
				update.EnableSummarization = &summarize
			}
			if flags.Changed("high-contrast") {
				update.EnableHighContrast = &highContrast
			}
			if update.Empty() {
				return errors.New("更新する項目を1つ以上指定してください")
			}

			return a.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				if _, err := requireUser(ctx, rt); err != nil {
					return err
				}
				user, err := rt.api.UpdateProfile(ctx, update)
				if err != nil {
					return err
				}
				return a.printUser(user, "プロフィールを更新しました")
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "表示名")
	f.StringVar(&email, "email", "", "メールアドレス")
	f.StringVar(&language, "language", "", "翻訳時の既定言語")
	f.IntVar(&grade, "grade", 0, "翻訳時の既定グレード（1 または 2）")
	f.BoolVar(&summarize, "summarize", false, "テキスト翻訳時に要約を要求する")
	f.BoolVar(&highContrast, "high-contrast", false, "ハイコントラスト表示")
	return cmd
}
