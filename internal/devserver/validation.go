package devserver

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// fieldLabels はJSONフィールド名とエラーメッセージ上の表示名の対応。
var fieldLabels = map[string]string{
	"email":        "Email",
	"password":     "Password",
	"name":         "Name",
	"language":     "Language",
	"brailleGrade": "Braille grade",
	"content":      "Content",
	"imageData":    "Image data",
	"fileData":     "File data",
}

var registerValidatorOnce sync.Once

// setupValidator はginのバリデータにnotblankタグとJSON名での項目名解決を登録する。
func setupValidator() {
	registerValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindJSON はボディをreqに読み込み、失敗した場合は400を返してfalseを返す。
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, validationMessage(err))
		return false
	}
	return true
}

// validationMessage はバインドのエラーを利用者向けのメッセージに変換する。
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required"
	case "oneof":
		return label + " must be " + strings.ReplaceAll(fe.Param(), " ", " or ")
	default:
		return label + " is invalid"
	}
}
