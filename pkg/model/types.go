package model

import (
	"fmt"
	"regexp"
)

// InputType は翻訳の入力種別を表す。
type InputType string

const (
	// InputTypeText はテキスト入力を表す。
	InputTypeText InputType = "text"
	// InputTypeImage は画像入力（OCR対象）を表す。
	InputTypeImage InputType = "image"
	// InputTypeFile はドキュメントファイル入力を表す。
	InputTypeFile InputType = "file"
	// InputTypeAudio は音声入力を表す。
	InputTypeAudio InputType = "audio"
	// InputTypeBraille は点字からテキストへの逆変換入力を表す。
	InputTypeBraille InputType = "braille"
)

// Valid は既知の入力種別であればtrueを返す。
func (t InputType) Valid() bool {
	switch t {
	case InputTypeText, InputTypeImage, InputTypeFile, InputTypeAudio, InputTypeBraille:
		return true
	}
	return false
}

// BrailleGrade は点字のグレードを表す。
// 1が非縮約点字、2が縮約点字。値はリモートサービスにそのまま渡す。
type BrailleGrade int

const (
	// Grade1 は非縮約点字。
	Grade1 BrailleGrade = 1
	// Grade2 は縮約点字。
	Grade2 BrailleGrade = 2
)

// Valid はグレードが1または2であればtrueを返す。
func (g BrailleGrade) Valid() bool {
	return g == Grade1 || g == Grade2
}

// User は認証済みユーザーのプロフィールを表す。
type User struct {
	// ID はユーザーの一意識別子。
	ID string `json:"id"`
	// Name は表示名。
	Name string `json:"name"`
	// Email はメールアドレス。
	Email string `json:"email"`
	// DefaultLanguage は翻訳時の既定言語。
	DefaultLanguage string `json:"defaultLanguage,omitempty"`
	// DefaultBrailleGrade は翻訳時の既定グレード。
	DefaultBrailleGrade BrailleGrade `json:"defaultBrailleGrade,omitempty"`
	// EnableSummarization はテキスト翻訳時に要約を要求するかどうか。
	EnableSummarization bool `json:"enableSummarization,omitempty"`
	// EnableHighContrast はハイコントラスト表示の設定。
	EnableHighContrast bool `json:"enableHighContrast,omitempty"`
	// CreatedAt は登録日時。
	CreatedAt string `json:"createdAt"`
}

// AuthResponse はログイン・ユーザー登録のレスポンス。
type AuthResponse struct {
	// AccessToken はBearerトークン。空の場合はセッションを確立しない。
	AccessToken string `json:"accessToken"`
	// User はログインしたユーザー。
	User User `json:"user"`
}

// ProfileUpdate はプロフィール更新リクエスト。
// nilのフィールドは送信しない。
type ProfileUpdate struct {
	Name                *string       `json:"name,omitempty"`
	Email               *string       `json:"email,omitempty"`
	DefaultLanguage     *string       `json:"defaultLanguage,omitempty"`
	DefaultBrailleGrade *BrailleGrade `json:"defaultBrailleGrade,omitempty"`
	EnableSummarization *bool         `json:"enableSummarization,omitempty"`
	EnableHighContrast  *bool         `json:"enableHighContrast,omitempty"`
}

// Empty は更新対象のフィールドが1つもなければtrueを返す。
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Email == nil && p.DefaultLanguage == nil &&
		p.DefaultBrailleGrade == nil && p.EnableSummarization == nil && p.EnableHighContrast == nil
}

// Translation はリモートサービスが返す翻訳レコード。
// クライアントは内容を検証せずにそのまま扱う。
type Translation struct {
	ID            string       `json:"id"`
	UserID        string       `json:"userId"`
	InputType     InputType    `json:"inputType"`
	InputText     string       `json:"inputText,omitempty"`
	OutputBraille string       `json:"outputBraille,omitempty"`
	Summary       string       `json:"summary,omitempty"`
	Language      string       `json:"language"`
	BrailleGrade  BrailleGrade `json:"brailleGrade"`
	AudioURL      string       `json:"audioUrl,omitempty"`
	FileURL       string       `json:"fileUrl,omitempty"`
	BrfURL        string       `json:"brfUrl,omitempty"`
	TxtURL        string       `json:"txtUrl,omitempty"`
	CreatedAt     string       `json:"createdAt"`
}

// Assets はダウンロード可能なアセットのURLを名前付きで返す。
// 空のURLは含めない。
func (t Translation) Assets() map[string]string {
	assets := make(map[string]string, 4)
	for name, url := range map[string]string{
		"audio": t.AudioURL,
		"file":  t.FileURL,
		"brf":   t.BrfURL,
		"txt":   t.TxtURL,
	} {
		if url != "" {
			assets[name] = url
		}
	}
	return assets
}

// HistoryFilter は履歴一覧の絞り込み条件。空のフィールドは無視される。
type HistoryFilter struct {
	// DateFrom は開始日（YYYY-MM-DD）。
	DateFrom string `json:"dateFrom,omitempty"`
	// DateTo は終了日（YYYY-MM-DD）。
	DateTo string `json:"dateTo,omitempty"`
	// Type は入力種別。
	Type InputType `json:"type,omitempty"`
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Validate は絞り込み条件の形式を検証する。
func (f HistoryFilter) Validate() error {
	if f.DateFrom != "" && !datePattern.MatchString(f.DateFrom) {
		return fmt.Errorf("dateFromの形式が不正です（YYYY-MM-DD）: %q", f.DateFrom)
	}
	if f.DateTo != "" && !datePattern.MatchString(f.DateTo) {
		return fmt.Errorf("dateToの形式が不正です（YYYY-MM-DD）: %q", f.DateTo)
	}
	if f.Type != "" && !f.Type.Valid() {
		return fmt.Errorf("不明な入力種別です: %q", f.Type)
	}
	return nil
}
