package devserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/braillesync/pkg/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testJWTSecret はテスト用のJWT署名秘密鍵。
const testJWTSecret = "test-secret-key"

// pngHeader はmimetypeがimage/pngと判定する最小のバイト列。
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// newTestServer はインメモリSQLiteを使うテスト用サーバーを生成する。
func newTestServer(t *testing.T) *Server {
	t.Helper()

	return newTestServerWithLogger(t, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newTestServerWithLogger はloggerにログを出力するテスト用サーバーを生成する。
func newTestServerWithLogger(t *testing.T, logger *slog.Logger) *Server {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDB接続に失敗: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	s, err := New(context.Background(), sqlDB, Config{
		JWTSecret:   testJWTSecret,
		FrontendURL: "http://localhost:3000",
	}, logger)
	if err != nil {
		t.Fatalf("New()でエラーが発生: %v", err)
	}
	return s
}

// do はルーターに直接リクエストを送る。tokenが空なら認証ヘッダーを付けない。
func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("リクエストボディのエンコードに失敗: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, BasePath+path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// decode はレスポンスボディをvにデコードする。
func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("レスポンスのパースに失敗: %v (body=%s)", err, w.Body.String())
	}
}

// registerUser はユーザーを登録してトークンとユーザーを返す。
func registerUser(t *testing.T, s *Server, email string) (string, model.User) {
	t.Helper()

	w := do(t, s, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "secret-pw", "name": "テストユーザー",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("ユーザー登録に失敗: status=%d body=%s", w.Code, w.Body.String())
	}
	var resp model.AuthResponse
	decode(t, w, &resp)
	return resp.AccessToken, resp.User
}

// TestHandleRegister はユーザー登録ハンドラのテスト。
func TestHandleRegister(t *testing.T) {
	t.Parallel()

	t.Run("登録に成功するとトークンとユーザーが返ること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		token, user := registerUser(t, s, "alice@example.com")

		if token == "" {
			t.Error("accessTokenが空")
		}
		if user.ID == "" {
			t.Error("idが空")
		}
		if user.Email != "alice@example.com" {
			t.Errorf("email: got %q, want %q", user.Email, "alice@example.com")
		}

		claims, err := s.tokens.Parse(token)
		if err != nil {
			t.Fatalf("発行されたトークンの検証に失敗: %v", err)
		}
		if claims.Subject != user.ID {
			t.Errorf("sub: got %q, want %q", claims.Subject, user.ID)
		}
	})

	t.Run("同じメールアドレスでの登録は409を返すこと", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		registerUser(t, s, "dup@example.com")

		w := do(t, s, http.MethodPost, "/auth/register", "", map[string]string{
			"email": "dup@example.com", "password": "other", "name": "別人",
		})
		if w.Code != http.StatusConflict {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusConflict)
		}
	})

	missingTests := []struct {
		name        string
		body        map[string]string
		wantMessage string
	}{
		{name: "パスワードが無い場合は400とmessageを返すこと", body: map[string]string{"email": "x@example.com", "name": "x"}, wantMessage: "Password is required"},
		{name: "メールアドレスが無い場合は400とmessageを返すこと", body: map[string]string{"password": "pw", "name": "x"}, wantMessage: "Email is required"},
		{name: "空白だけの名前は400とmessageを返すこと", body: map[string]string{"email": "x@example.com", "password": "pw", "name": "   "}, wantMessage: "Name is required"},
	}
	for _, tt := range missingTests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t)
			w := do(t, s, http.MethodPost, "/auth/register", "", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
			}

			var body map[string]string
			decode(t, w, &body)
			if body["message"] != tt.wantMessage {
				t.Errorf("message: got %q, want %q", body["message"], tt.wantMessage)
			}
		})
	}

	t.Run("JSONでないボディは400を返すこと", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		req := httptest.NewRequest(http.MethodPost, BasePath+"/auth/register", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		var body map[string]string
		decode(t, w, &body)
		if w.Code != http.StatusBadRequest || body["message"] != "Invalid request body" {
			t.Errorf("got %d %q", w.Code, body["message"])
		}
	})
}

// TestHandleLogin はログインハンドラのテスト。
func TestHandleLogin(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	_, registered := registerUser(t, s, "bob@example.com")

	tests := []struct {
		name       string
		email      string
		password   string
		wantStatus int
	}{
		{name: "正しい資格情報でトークンを返すこと", email: "bob@example.com", password: "secret-pw", wantStatus: http.StatusOK},
		{name: "パスワードが誤っている場合は400を返すこと", email: "bob@example.com", password: "wrong", wantStatus: http.StatusBadRequest},
		{name: "存在しないユーザーの場合は400を返すこと", email: "nobody@example.com", password: "secret-pw", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := do(t, s, http.MethodPost, "/auth/login", "", map[string]string{
				"email": tt.email, "password": tt.password,
			})
			if w.Code != tt.wantStatus {
				t.Fatalf("ステータスコード: got %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				var body map[string]string
				decode(t, w, &body)
				if body["message"] != "Invalid email or password" {
					t.Errorf("message: got %q", body["message"])
				}
				return
			}

			var resp model.AuthResponse
			decode(t, w, &resp)
			if resp.AccessToken == "" {
				t.Error("accessTokenが空")
			}
			if resp.User.ID != registered.ID {
				t.Errorf("user.id: got %q, want %q", resp.User.ID, registered.ID)
			}
		})
	}
}

// TestHandleMe はユーザー情報の取得と更新のテスト。
func TestHandleMe(t *testing.T) {
	t.Parallel()

	t.Run("認証済みユーザーの情報を返すこと", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		token, user := registerUser(t, s, "me@example.com")

		w := do(t, s, http.MethodGet, "/auth/me", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		var got model.User
		decode(t, w, &got)
		if got.ID != user.ID || got.Name != "テストユーザー" {
			t.Errorf("user: got %+v", got)
		}
	})

	t.Run("認証ヘッダーが無い場合は401とerrorを返すこと", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		w := do(t, s, http.MethodGet, "/auth/me", "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusUnauthorized)
		}
		var body map[string]string
		decode(t, w, &body)
		if body["error"] == "" {
			t.Error("errorフィールドが空")
		}
	})

	t.Run("指定した項目のみ更新されること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		token, _ := registerUser(t, s, "upd@example.com")

		w := do(t, s, http.MethodPut, "/auth/me", token, map[string]any{
			"defaultLanguage":     "ja",
			"defaultBrailleGrade": 2,
			"enableHighContrast":  true,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
		}

		var got model.User
		decode(t, do(t, s, http.MethodGet, "/auth/me", token, nil), &got)
		if got.DefaultLanguage != "ja" || got.DefaultBrailleGrade != model.Grade2 || !got.EnableHighContrast {
			t.Errorf("更新後のユーザー: got %+v", got)
		}
		if got.Name != "テストユーザー" || got.Email != "upd@example.com" {
			t.Errorf("未指定の項目が変更された: got %+v", got)
		}
	})

	t.Run("不正な更新内容は400を返すこと", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		token, _ := registerUser(t, s, "bad@example.com")

		for _, body := range []map[string]any{
			{},
			{"defaultBrailleGrade": 3},
			{"name": "  "},
		} {
			w := do(t, s, http.MethodPut, "/auth/me", token, body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("body=%v: ステータスコード got %d, want %d", body, w.Code, http.StatusBadRequest)
			}
		}
	})

	t.Run("更新時にトークン発行時のメールアドレスを記録すること", func(t *testing.T) {
		t.Parallel()

		var logs bytes.Buffer
		s := newTestServerWithLogger(t, slog.New(slog.NewTextHandler(&logs, nil)))
		token, user := registerUser(t, s, "before@example.com")

		w := do(t, s, http.MethodPut, "/auth/me", token, map[string]any{"email": "after@example.com"})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
		}

		var line string
		for _, l := range strings.Split(logs.String(), "\n") {
			if strings.Contains(l, "プロフィールを更新しました") {
				line = l
			}
		}
		for _, want := range []string{"user_id=" + user.ID, "token_email=before@example.com", "email=after@example.com"} {
			if !strings.Contains(line, want) {
				t.Errorf("ログに%qが含まれない: %q", want, line)
			}
		}
	})

	t.Run("他のユーザーのメールアドレスへの変更は409を返すこと", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		registerUser(t, s, "taken@example.com")
		token, _ := registerUser(t, s, "mine@example.com")

		w := do(t, s, http.MethodPut, "/auth/me", token, map[string]any{"email": "taken@example.com"})
		if w.Code != http.StatusConflict {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusConflict)
		}
	})
}

// TestHandleTranslate は翻訳エンドポイントのテスト。
func TestHandleTranslate(t *testing.T) {
	t.Parallel()

	pngURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)

	tests := []struct {
		name          string
		path          string
		body          map[string]any
		wantStatus    int
		wantInputType model.InputType
		wantInputText string
		wantMessage   string
		wantAssets    bool
	}{
		{
			name:          "テキストが入力のまま出力されること",
			path:          "/translate/text",
			body:          map[string]any{"content": "hello", "language": "en", "brailleGrade": 1},
			wantStatus:    http.StatusOK,
			wantInputType: model.InputTypeText,
			wantInputText: "hello",
			wantAssets:    true,
		},
		{
			name:          "画像のMIMEタイプとサイズが記録されること",
			path:          "/translate/image",
			body:          map[string]any{"imageData": pngURL, "language": "en", "brailleGrade": 2},
			wantStatus:    http.StatusOK,
			wantInputType: model.InputTypeImage,
			wantInputText: "image/png (16 bytes)",
		},
		{
			name:          "記載と異なるMIMEタイプは両方記録されること",
			path:          "/translate/file",
			body:          map[string]any{"fileData": strings.Replace(pngURL, "image/png", "application/pdf", 1), "language": "en", "brailleGrade": 1},
			wantStatus:    http.StatusOK,
			wantInputType: model.InputTypeFile,
			wantInputText: "image/png (declared application/pdf, 16 bytes)",
		},
		{
			name:          "点字からの逆変換は言語とグレードを要求しないこと",
			path:          "/translate/braille-to-text",
			body:          map[string]any{"content": "⠓⠑⠇⠇⠕"},
			wantStatus:    http.StatusOK,
			wantInputType: model.InputTypeBraille,
			wantInputText: "⠓⠑⠇⠇⠕",
			wantAssets:    true,
		},
		{
			name:       "グレードが1と2以外の場合は400を返すこと",
			path:       "/translate/text",
			body:        map[string]any{"content": "hello", "language": "en", "brailleGrade": 3},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Braille grade must be 1 or 2",
		},
		{
			name:        "グレードが無い場合は400を返すこと",
			path:        "/translate/image",
			body:        map[string]any{"imageData": pngURL, "language": "en"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Braille grade is required",
		},
		{
			name:        "言語が無い場合は400を返すこと",
			path:        "/translate/text",
			body:        map[string]any{"content": "hello", "brailleGrade": 1},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Language is required",
		},
		{
			name:        "空白だけの言語は400を返すこと",
			path:        "/translate/file",
			body:        map[string]any{"fileData": pngURL, "language": "  ", "brailleGrade": 1},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Language is required",
		},
		{
			name:        "テキストが無い場合は400を返すこと",
			path:        "/translate/text",
			body:        map[string]any{"language": "en", "brailleGrade": 1},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Content is required",
		},
		{
			name:        "画像が無い場合は400を返すこと",
			path:        "/translate/image",
			body:        map[string]any{"language": "en", "brailleGrade": 1},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Image data is required",
		},
		{
			name:        "点字が無い場合は400を返すこと",
			path:        "/translate/braille-to-text",
			body:        map[string]any{},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Content is required",
		},
		{
			name:        "data URLでない画像は400を返すこと",
			path:        "/translate/image",
			body:        map[string]any{"imageData": "not-a-data-url", "language": "en", "brailleGrade": 1},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid data URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t)
			token, user := registerUser(t, s, "tr@example.com")

			w := do(t, s, http.MethodPost, tt.path, token, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("ステータスコード: got %d, want %d (body=%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				var body map[string]string
				decode(t, w, &body)
				if body["message"] != tt.wantMessage {
					t.Errorf("message: got %q, want %q", body["message"], tt.wantMessage)
				}
				return
			}

			var got model.Translation
			decode(t, w, &got)
			if got.ID == "" || got.UserID != user.ID {
				t.Errorf("id/userId: got %q/%q", got.ID, got.UserID)
			}
			if got.InputType != tt.wantInputType {
				t.Errorf("inputType: got %q, want %q", got.InputType, tt.wantInputType)
			}
			if got.InputText != tt.wantInputText {
				t.Errorf("inputText: got %q, want %q", got.InputText, tt.wantInputText)
			}
			if hasAssets := got.BrfURL != "" && got.TxtURL != ""; hasAssets != tt.wantAssets {
				t.Errorf("brfUrl/txtUrl: got %q/%q, wantAssets %v", got.BrfURL, got.TxtURL, tt.wantAssets)
			}
			if n := testutil.ToFloat64(s.translations.WithLabelValues(string(tt.wantInputType))); n != 1 {
				t.Errorf("translations_total{input_type=%q} = %v, want 1", tt.wantInputType, n)
			}
		})
	}
}

// TestHandleDownload は翻訳結果のダウンロードのテスト。
func TestHandleDownload(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	token, _ := registerUser(t, s, "dl@example.com")
	otherToken, _ := registerUser(t, s, "other@example.com")

	w := do(t, s, http.MethodPost, "/translate/text", token, map[string]any{"content": "hello", "language": "en", "brailleGrade": 1})
	var text model.Translation
	decode(t, w, &text)

	pngURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
	w = do(t, s, http.MethodPost, "/translate/image", token, map[string]any{"imageData": pngURL, "language": "en", "brailleGrade": 1})
	var image model.Translation
	decode(t, w, &image)

	if want := BasePath + "/history/" + text.ID + "/download/brf"; text.BrfURL != want {
		t.Fatalf("brfUrl: got %q, want %q", text.BrfURL, want)
	}

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
		wantBody   string
	}{
		{name: "BRFは点字出力を返すこと", path: "/history/" + text.ID + "/download/brf", token: token, wantStatus: http.StatusOK, wantBody: "hello"},
		{name: "TXTは入力テキストを返すこと", path: "/history/" + text.ID + "/download/txt", token: token, wantStatus: http.StatusOK, wantBody: "hello"},
		{name: "不明な形式は404を返すこと", path: "/history/" + text.ID + "/download/pdf", token: token, wantStatus: http.StatusNotFound},
		{name: "出力の無い翻訳は404を返すこと", path: "/history/" + image.ID + "/download/brf", token: token, wantStatus: http.StatusNotFound},
		{name: "他のユーザーの翻訳は404を返すこと", path: "/history/" + text.ID + "/download/brf", token: otherToken, wantStatus: http.StatusNotFound},
		{name: "トークンが無い場合は401を返すこと", path: "/history/" + text.ID + "/download/brf", wantStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := do(t, s, http.MethodGet, tt.path, tt.token, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("ステータスコード: got %d, want %d (body=%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("body: got %q, want %q", w.Body.String(), tt.wantBody)
			}
			if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, text.ID) {
				t.Errorf("Content-Disposition: got %q", got)
			}
		})
	}
}

// TestHandleHistory は翻訳履歴のテスト。
func TestHandleHistory(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	token, _ := registerUser(t, s, "hist@example.com")
	otherToken, _ := registerUser(t, s, "other@example.com")

	seed := []struct {
		at   time.Time
		path string
		body map[string]any
	}{
		{at: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), path: "/translate/text", body: map[string]any{"content": "a", "language": "en", "brailleGrade": 1}},
		{at: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), path: "/translate/braille-to-text", body: map[string]any{"content": "⠃"}},
		{at: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC), path: "/translate/text", body: map[string]any{"content": "c", "language": "en", "brailleGrade": 2}},
	}
	var ids []string
	for _, sd := range seed {
		s.now = func() time.Time { return sd.at }
		w := do(t, s, http.MethodPost, sd.path, token, sd.body)
		if w.Code != http.StatusOK {
			t.Fatalf("履歴の作成に失敗: status=%d body=%s", w.Code, w.Body.String())
		}
		var tr model.Translation
		decode(t, w, &tr)
		ids = append(ids, tr.ID)
	}

	t.Run("絞り込み条件に応じた履歴が新しい順に返ること", func(t *testing.T) {
		tests := []struct {
			query string
			want  []string
		}{
			{query: "", want: []string{ids[2], ids[1], ids[0]}},
			{query: "?type=text", want: []string{ids[2], ids[0]}},
			{query: "?dateFrom=2024-01-15", want: []string{ids[2], ids[1]}},
			{query: "?dateFrom=2024-01-01&dateTo=2024-01-15", want: []string{ids[1], ids[0]}},
			{query: "?type=text&dateTo=2024-01-31", want: []string{ids[0]}},
		}
		for _, tt := range tests {
			w := do(t, s, http.MethodGet, "/history"+tt.query, token, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("%s: ステータスコード got %d", tt.query, w.Code)
			}
			var items []model.Translation
			decode(t, w, &items)

			var got []string
			for _, it := range items {
				got = append(got, it.ID)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("%s: got %v, want %v", tt.query, got, tt.want)
			}
		}
	})

	t.Run("他のユーザーの履歴は見えないこと", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/history", otherToken, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d", w.Code)
		}
		if strings.TrimSpace(w.Body.String()) != "[]" {
			t.Errorf("body: got %s, want []", w.Body.String())
		}

		w = do(t, s, http.MethodGet, "/history/"+ids[0], otherToken, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("存在しない履歴は404とerrorを返すこと", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/history/missing", token, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusNotFound)
		}
		var body map[string]string
		decode(t, w, &body)
		if body["error"] != "Translation not found" {
			t.Errorf("error: got %q", body["error"])
		}
	})

	t.Run("1件取得できること", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/history/"+ids[1], token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d", w.Code)
		}
		var got model.Translation
		decode(t, w, &got)
		if got.InputType != model.InputTypeBraille || got.CreatedAt != "2024-01-15T09:00:00Z" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("不正な絞り込み条件は400を返すこと", func(t *testing.T) {
		for _, q := range []string{"?dateFrom=2024/01/01", "?type=video"} {
			w := do(t, s, http.MethodGet, "/history"+q, token, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("%s: ステータスコード got %d, want %d", q, w.Code, http.StatusBadRequest)
			}
		}
	})
}

// TestHealthAndMetrics はヘルスチェックとメトリクスのテスト。
func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	token, _ := registerUser(t, s, "m@example.com")
	do(t, s, http.MethodPost, "/translate/text", token, map[string]any{"content": "x", "language": "en", "brailleGrade": 1})

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("/health ステータスコード: got %d", w.Code)
	}

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics ステータスコード: got %d", w.Code)
	}
	for _, want := range []string{
		`braillesync_devserver_translations_total{input_type="text"} 1`,
		`braillesync_devserver_http_requests_total{method="POST",route="/api/v1/auth/register",status="201"} 1`,
	} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("/metrics に %q が含まれていない", want)
		}
	}
}
