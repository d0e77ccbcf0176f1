package httpclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/nao1215/braillesync/pkg/model"
)

// 以下はエンドポイントごとの薄いラッパー。
// 失敗時の扱いはすべてRequestに従い、独自の判定は持たない。

// registerRequest はユーザー登録リクエストのJSON構造。
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// textTranslationRequest はテキスト翻訳リクエストのJSON構造。
type textTranslationRequest struct {
	Content      string             `json:"content"`
	Language     string             `json:"language"`
	BrailleGrade model.BrailleGrade `json:"brailleGrade"`
	Summarize    bool               `json:"summarize,omitempty"`
}

// imageTranslationRequest は画像翻訳リクエストのJSON構造。
type imageTranslationRequest struct {
	ImageData    string             `json:"imageData"`
	Language     string             `json:"language"`
	BrailleGrade model.BrailleGrade `json:"brailleGrade"`
}

// fileTranslationRequest はファイル翻訳リクエストのJSON構造。
type fileTranslationRequest struct {
	FileData     string             `json:"fileData"`
	Language     string             `json:"language"`
	BrailleGrade model.BrailleGrade `json:"brailleGrade"`
}

// brailleTranslationRequest は点字からテキストへの翻訳リクエストのJSON構造。
type brailleTranslationRequest struct {
	Content string `json:"content"`
}

// Register は新しいユーザーを登録する。認証ヘッダーは付与しない。
func (c *Client) Register(ctx context.Context, email, password, name string) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.doJSON(ctx, "/auth/register", RequestOptions{
		Method:   http.MethodPost,
		SkipAuth: true,
		Body:     registerRequest{Email: email, Password: password, Name: name},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login はメールアドレスとパスワードでログインする。認証ヘッダーは付与しない。
func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.doJSON(ctx, "/auth/login", RequestOptions{
		Method:   http.MethodPost,
		SkipAuth: true,
		Body:     loginRequest{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me は現在のユーザーを取得する。
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.GetJSON(ctx, "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile はプロフィールを更新する。
func (c *Client) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.User, error) {
	var user model.User
	if err := c.PutJSON(ctx, "/auth/me", update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// TranslateText はテキストを点字に翻訳する。
func (c *Client) TranslateText(ctx context.Context, content, language string, grade model.BrailleGrade, summarize bool) (*model.Translation, error) {
	return c.translate(ctx, "/translate/text", textTranslationRequest{
		Content:      content,
		Language:     language,
		BrailleGrade: grade,
		Summarize:    summarize,
	})
}

// TranslateImage はbase64エンコードされた画像を点字に翻訳する。
func (c *Client) TranslateImage(ctx context.Context, imageData, language string, grade model.BrailleGrade) (*model.Translation, error) {
	return c.translate(ctx, "/translate/image", imageTranslationRequest{
		ImageData:    imageData,
		Language:     language,
		BrailleGrade: grade,
	})
}

// TranslateFile はbase64エンコードされたファイルを点字に翻訳する。
func (c *Client) TranslateFile(ctx context.Context, fileData, language string, grade model.BrailleGrade) (*model.Translation, error) {
	return c.translate(ctx, "/translate/file", fileTranslationRequest{
		FileData:     fileData,
		Language:     language,
		BrailleGrade: grade,
	})
}

// TranslateBrailleToText は点字をテキストに翻訳する。
func (c *Client) TranslateBrailleToText(ctx context.Context, brailleContent string) (*model.Translation, error) {
	return c.translate(ctx, "/translate/braille-to-text", brailleTranslationRequest{
		Content: brailleContent,
	})
}

// translate は翻訳エンドポイントへのPOSTの共通処理。
func (c *Client) translate(ctx context.Context, path string, body any) (*model.Translation, error) {
	var t model.Translation
	if err := c.PostJSON(ctx, path, body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// History は翻訳履歴を取得する。空のフィルタ項目はクエリに含めない。
func (c *Client) History(ctx context.Context, filter model.HistoryFilter) ([]model.Translation, error) {
	var items []model.Translation
	if err := c.GetJSON(ctx, HistoryPath(filter), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// HistoryItem は翻訳履歴を1件取得する。
func (c *Client) HistoryItem(ctx context.Context, id string) (*model.Translation, error) {
	var t model.Translation
	if err := c.GetJSON(ctx, "/history/"+url.PathEscape(id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// HistoryPath はフィルタから履歴一覧のパスを組み立てる。
// クエリは type, dateFrom, dateTo の順に追加する。
// url.Values.Encodeはキーをソートしてしまうため自前で連結する。
func HistoryPath(filter model.HistoryFilter) string {
	var params []string
	appendParam := func(key, value string) {
		if value != "" {
			params = append(params, url.QueryEscape(key)+"="+url.QueryEscape(value))
		}
	}
	appendParam("type", string(filter.Type))
	appendParam("dateFrom", filter.DateFrom)
	appendParam("dateTo", filter.DateTo)

	if len(params) == 0 {
		return "/history"
	}
	return "/history?" + strings.Join(params, "&")
}
