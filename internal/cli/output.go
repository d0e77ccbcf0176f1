package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/nao1215/braillesync/pkg/model"
)

// print は--json指定時はvをJSONで、それ以外はtextで出力する。
func (a *App) print(v any, text func(w io.Writer)) error {
	if a.opts.jsonOut {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(a.out)
	return nil
}

// printTranslation は翻訳結果を出力する。
func (a *App) printTranslation(t *model.Translation) error {
	return a.print(t, func(w io.Writer) {
		fmt.Fprintf(w, "ID:       %s\n", t.ID)
		fmt.Fprintf(w, "種別:     %s\n", t.InputType)
		if t.Language != "" {
			fmt.Fprintf(w, "言語:     %s\n", t.Language)
		}
		fmt.Fprintf(w, "グレード: %d\n", t.BrailleGrade)
		fmt.Fprintf(w, "作成日時: %s\n", t.CreatedAt)
		if t.InputText != "" {
			fmt.Fprintf(w, "入力:\n%s\n", t.InputText)
		}
		if t.OutputBraille != "" {
			fmt.Fprintf(w, "点字:\n%s\n", t.OutputBraille)
		}
		if t.Summary != "" {
			fmt.Fprintf(w, "要約:\n%s\n", t.Summary)
		}

		assets := t.Assets()
		names := make([]string, 0, len(assets))
		for name := range assets {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%s: %s\n", name, assets[name])
		}
	})
}

// printHistory は翻訳履歴を表形式で出力する。
func (a *App) printHistory(items []model.Translation) error {
	return a.print(items, func(w io.Writer) {
		if len(items) == 0 {
			fmt.Fprintln(w, "履歴はありません")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\t種別\t言語\tグレード\t作成日時\t入力")
		for _, t := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
				t.ID, t.InputType, t.Language, t.BrailleGrade, t.CreatedAt, truncate(t.InputText, 40))
		}
		_ = tw.Flush()
	})
}

// truncate はsを1行にまとめ、maxルーン以内に切り詰める。
func truncate(s string, maxRunes int) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes-1]) + "…"
}
