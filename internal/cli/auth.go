package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/braillesync/pkg/model"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// loginHint はセッション切れの際に再ログインを促すNavigator。
type loginHint struct {
	w io.Writer
}

// RedirectToLogin は再ログインの案内を出力する。
func (h loginHint) RedirectToLogin(context.Context) {
	fmt.Fprintln(h.w, "ログアウトしました。再度利用するには braillesync login を実行してください。")
}

// credentialOptions はregister/loginで共通のフラグ。
type credentialOptions struct {
	email         string
	passwordStdin bool
}

func (o *credentialOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.email, "email", "", "メールアドレス")
	cmd.Flags().BoolVar(&o.passwordStdin, "password-stdin", false, "パスワードを標準入力の1行目から読み込む")
	_ = cmd.MarkFlagRequired("email")
}

// readPassword はパスワードを読み込む。
// --password-stdin指定時は入力の1行目を使い、それ以外は端末からエコーなしで読み込む。
func (a *App) readPassword(passwordStdin bool) (string, error) {
	if passwordStdin {
		line, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("パスワードの読み込みに失敗: %w", err)
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return "", errors.New("パスワードが空です")
		}
		return password, nil
	}

	f, ok := a.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", errors.New("端末から実行するか --password-stdin を指定してください")
	}
	fmt.Fprint(a.errOut, "パスワード: ")
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(a.errOut)
	if err != nil {
		return "", fmt.Errorf("パスワードの読み込みに失敗: %w", err)
	}
	if len(b) == 0 {
		return "", errors.New("パスワードが空です")
	}
	return string(b), nil
}

func (a *App) newRegisterCmd() *cobra.Command {
	var (
		creds credentialOptions
		name  string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "ユーザー登録してログインする",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := a.readPassword(creds.passwordStdin)
			if err != nil {
				return err
			}
			return a.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				user, err := rt.manager.Register(ctx, creds.email, password, name)
				if err != nil {
					return err
				}
				return a.printUser(user, "登録しました")
			})
		},
	}
	creds.bind(cmd)
	cmd.Flags().StringVar(&name, "name", "", "表示名")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *App) newLoginCmd() *cobra.Command {
	var creds credentialOptions
	cmd := &cobra.Command{
		Use:   "login",
		Short: "ログインする",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := a.readPassword(creds.passwordStdin)
			if err != nil {
				return err
			}
			return a.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				user, err := rt.manager.Login(ctx, creds.email, password)
				if err != nil {
					return err
				}
				return a.printUser(user, "ログインしました")
			})
		},
	}
	creds.bind(cmd)
	return cmd
}

func (a *App) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "保存されたトークンを破棄する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				return rt.manager.Logout(ctx)
			})
		},
	}
}

// statusResult はstatusコマンドのJSON出力。
type statusResult struct {
	LoggedIn bool   `json:"loggedIn"`
	Backend  string `json:"backend"`
}

func (a *App) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "トークンを保持しているかを表示する（通信しない）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				token, err := rt.slot.Load(ctx)
				if err != nil {
					return err
				}
				res := statusResult{LoggedIn: token != "", Backend: rt.cfg.Session.Backend}
				return a.print(res, func(w io.Writer) {
					if res.LoggedIn {
						fmt.Fprintf(w, "トークンを保持しています（保存先: %s）\n", res.Backend)
						return
					}
					fmt.Fprintln(w, "ログインしていません")
				})
			})
		},
	}
}

func (a *App) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "保存されたトークンを検証してユーザーを表示する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				user, err := requireUser(ctx, rt)
				if err != nil {
					return err
				}
				return a.printUser(user, "")
			})
		},
	}
}

// printUser はユーザー情報を出力する。headerが空でなければ先頭に表示する。
func (a *App) printUser(user *model.User, header string) error {
	return a.print(user, func(w io.Writer) {
		if header != "" {
			fmt.Fprintln(w, header)
		}
		fmt.Fprintf(w, "ID:     %s\n", user.ID)
		fmt.Fprintf(w, "名前:   %s\n", user.Name)
		fmt.Fprintf(w, "メール: %s\n", user.Email)
		if user.DefaultLanguage != "" {
			fmt.Fprintf(w, "既定の言語: %s\n", user.DefaultLanguage)
		}
		if user.DefaultBrailleGrade != 0 {
			fmt.Fprintf(w, "既定のグレード: %d\n", user.DefaultBrailleGrade)
		}
	})
}
