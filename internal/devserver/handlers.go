package devserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nao1215/braillesync/pkg/middleware"
	"github.com/nao1215/braillesync/pkg/model"
	"golang.org/x/crypto/bcrypt"
)

// registerRequest はユーザー登録リクエストのJSON構造。
type registerRequest struct {
	Email    string `json:"email" binding:"required,notblank"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required,notblank"`
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// textTranslateRequest はテキスト翻訳リクエストのJSON構造。
type textTranslateRequest struct {
	Content      string             `json:"content" binding:"required"`
	Language     string             `json:"language" binding:"required,notblank"`
	BrailleGrade model.BrailleGrade `json:"brailleGrade" binding:"required,oneof=1 2"`
	Summarize    bool               `json:"summarize"`
}

// imageTranslateRequest は画像翻訳リクエストのJSON構造。
type imageTranslateRequest struct {
	ImageData    string             `json:"imageData" binding:"required"`
	Language     string             `json:"language" binding:"required,notblank"`
	BrailleGrade model.BrailleGrade `json:"brailleGrade" binding:"required,oneof=1 2"`
}

// fileTranslateRequest はファイル翻訳リクエストのJSON構造。
type fileTranslateRequest struct {
	FileData     string             `json:"fileData" binding:"required"`
	Language     string             `json:"language" binding:"required,notblank"`
	BrailleGrade model.BrailleGrade `json:"brailleGrade" binding:"required,oneof=1 2"`
}

// brailleTranslateRequest は点字からテキストへの翻訳リクエストのJSON構造。
type brailleTranslateRequest struct {
	Content string `json:"content" binding:"required"`
}

// badRequest は400と {"message": msg} を返す。
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

// internalError はエラーをログに出力して500を返す。
func (s *Server) internalError(c *gin.Context, msg string, err error) {
	s.logger.ErrorContext(c.Request.Context(), msg, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}

// timestamp は保存用の時刻文字列を返す。
func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// issueAuthResponse はユーザーにトークンを発行してレスポンスを返す。
func (s *Server) issueAuthResponse(c *gin.Context, status int, user model.User) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.internalError(c, "トークン生成に失敗しました", err)
		return
	}
	c.JSON(status, model.AuthResponse{AccessToken: token, User: user})
}

// handleRegister はユーザーを登録してトークンを返すハンドラを返す。
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if !bindJSON(c, &req) {
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		req.Name = strings.TrimSpace(req.Name)

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.internalError(c, "パスワードのハッシュ化に失敗しました", err)
			return
		}

		user := model.User{
			ID:        uuid.New().String(),
			Name:      req.Name,
			Email:     req.Email,
			CreatedAt: s.timestamp(),
		}
		if err := s.store.createUser(c.Request.Context(), user, string(hash)); err != nil {
			if errors.Is(err, errEmailTaken) {
				c.JSON(http.StatusConflict, gin.H{"message": "Email already registered"})
				return
			}
			s.internalError(c, "ユーザー作成に失敗しました", err)
			return
		}

		s.issueAuthResponse(c, http.StatusCreated, user)
	}
}

// handleLogin は資格情報を検証してトークンを返すハンドラを返す。
// 資格情報の誤りは400で返す。401はトークン失効専用とする。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !bindJSON(c, &req) {
			return
		}

		user, hash, err := s.store.userByEmail(c.Request.Context(), strings.TrimSpace(req.Email))
		if errors.Is(err, errNotFound) {
			badRequest(c, "Invalid email or password")
			return
		}
		if err != nil {
			s.internalError(c, "ユーザー取得に失敗しました", err)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			badRequest(c, "Invalid email or password")
			return
		}

		s.issueAuthResponse(c, http.StatusOK, user)
	}
}

// currentUser はトークンのユーザーを取得する。
// ユーザーが削除されている場合は401を返してfalseを返す。
func (s *Server) currentUser(c *gin.Context) (model.User, bool) {
	user, err := s.store.userByID(c.Request.Context(), middleware.GetUserID(c))
	if errors.Is(err, errNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User no longer exists"})
		return model.User{}, false
	}
	if err != nil {
		s.internalError(c, "ユーザー取得に失敗しました", err)
		return model.User{}, false
	}
	return user, true
}

// handleGetMe は認証済みユーザーの情報を返すハンドラを返す。
func (s *Server) handleGetMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := s.currentUser(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// handleUpdateMe は指定された項目のみプロフィールを更新するハンドラを返す。
func (s *Server) handleUpdateMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		var update model.ProfileUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
		if update.Empty() {
			badRequest(c, "No fields to update")
			return
		}
		if update.DefaultBrailleGrade != nil && !update.DefaultBrailleGrade.Valid() {
			badRequest(c, "Braille grade must be 1 or 2")
			return
		}

		user, ok := s.currentUser(c)
		if !ok {
			return
		}
		applyProfileUpdate(&user, update)
		if user.Email == "" || user.Name == "" {
			badRequest(c, "Email and name must not be empty")
			return
		}

		if err := s.store.updateUser(c.Request.Context(), user); err != nil {
			if errors.Is(err, errEmailTaken) {
				c.JSON(http.StatusConflict, gin.H{"message": "Email already registered"})
				return
			}
			s.internalError(c, "ユーザー更新に失敗しました", err)
			return
		}
		// トークンのメールアドレスは発行時点の値のため、変更後と異なる場合がある
		s.logger.InfoContext(c.Request.Context(), "プロフィールを更新しました",
			slog.String("user_id", user.ID),
			slog.String("token_email", middleware.GetEmail(c)),
			slog.String("email", user.Email),
		)
		c.JSON(http.StatusOK, user)
	}
}

// applyProfileUpdate はnilでない項目をuserに反映する。
func applyProfileUpdate(user *model.User, u model.ProfileUpdate) {
	if u.Name != nil {
		user.Name = strings.TrimSpace(*u.Name)
	}
	if u.Email != nil {
		user.Email = strings.TrimSpace(*u.Email)
	}
	if u.DefaultLanguage != nil {
		user.DefaultLanguage = *u.DefaultLanguage
	}
	if u.DefaultBrailleGrade != nil {
		user.DefaultBrailleGrade = *u.DefaultBrailleGrade
	}
	if u.EnableSummarization != nil {
		user.EnableSummarization = *u.EnableSummarization
	}
	if u.EnableHighContrast != nil {
		user.EnableHighContrast = *u.EnableHighContrast
	}
}

// saveTranslation は翻訳履歴を保存してレスポンスを返す。
func (s *Server) saveTranslation(c *gin.Context, t model.Translation) {
	t.ID = uuid.New().String()
	t.UserID = middleware.GetUserID(c)
	t.CreatedAt = s.timestamp()

	if err := s.store.createTranslation(c.Request.Context(), t); err != nil {
		s.internalError(c, "翻訳履歴の保存に失敗しました", err)
		return
	}
	s.translations.WithLabelValues(string(t.InputType)).Inc()
	c.JSON(http.StatusOK, withAssets(t))
}

// handleTranslateText はテキストを受け取りそのまま出力とするハンドラを返す。
// 点字変換と要約は行わない。
func (s *Server) handleTranslateText() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req textTranslateRequest
		if !bindJSON(c, &req) {
			return
		}
		s.saveTranslation(c, model.Translation{
			InputType:     model.InputTypeText,
			InputText:     req.Content,
			OutputBraille: req.Content,
			Language:      strings.TrimSpace(req.Language),
			BrailleGrade:  req.BrailleGrade,
		})
	}
}

// handleTranslateImage は画像のdata URLを受け取るハンドラを返す。OCRは行わない。
func (s *Server) handleTranslateImage() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req imageTranslateRequest
		if !bindJSON(c, &req) {
			return
		}
		s.saveDataURL(c, model.InputTypeImage, req.ImageData, req.Language, req.BrailleGrade)
	}
}

// handleTranslateFile はドキュメントのdata URLを受け取るハンドラを返す。
func (s *Server) handleTranslateFile() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req fileTranslateRequest
		if !bindJSON(c, &req) {
			return
		}
		s.saveDataURL(c, model.InputTypeFile, req.FileData, req.Language, req.BrailleGrade)
	}
}

// saveDataURL は画像・ファイル翻訳の共通処理。
// 内容のMIMEタイプとサイズを履歴に記録する。
func (s *Server) saveDataURL(c *gin.Context, inputType model.InputType, raw, language string, grade model.BrailleGrade) {
	data, err := parseDataURL(raw)
	if err != nil {
		badRequest(c, "Invalid data URL")
		return
	}
	s.saveTranslation(c, model.Translation{
		InputType:    inputType,
		InputText:    data.describe(),
		Language:     strings.TrimSpace(language),
		BrailleGrade: grade,
	})
}

// handleTranslateBraille は点字を受け取りそのまま出力とするハンドラを返す。
func (s *Server) handleTranslateBraille() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req brailleTranslateRequest
		if !bindJSON(c, &req) {
			return
		}
		s.saveTranslation(c, model.Translation{
			InputType:     model.InputTypeBraille,
			InputText:     req.Content,
			OutputBraille: req.Content,
			BrailleGrade:  model.Grade1,
		})
	}
}

// handleListHistory は翻訳履歴の一覧を返すハンドラを返す。
func (s *Server) handleListHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := model.HistoryFilter{
			Type:     model.InputType(c.Query("type")),
			DateFrom: c.Query("dateFrom"),
			DateTo:   c.Query("dateTo"),
		}
		if err := filter.Validate(); err != nil {
			badRequest(c, err.Error())
			return
		}

		items, err := s.store.listTranslations(c.Request.Context(), middleware.GetUserID(c), filter)
		if err != nil {
			s.internalError(c, "翻訳履歴の取得に失敗しました", err)
			return
		}
		for i := range items {
			items[i] = withAssets(items[i])
		}
		c.JSON(http.StatusOK, items)
	}
}

// handleGetHistory は翻訳履歴を1件返すハンドラを返す。
func (s *Server) handleGetHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := s.store.translationByID(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
		if errors.Is(err, errNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Translation not found"})
			return
		}
		if err != nil {
			s.internalError(c, "翻訳履歴の取得に失敗しました", err)
			return
		}
		c.JSON(http.StatusOK, withAssets(item))
	}
}
