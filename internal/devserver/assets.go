package devserver

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/braillesync/pkg/middleware"
	"github.com/nao1215/braillesync/pkg/model"
)

// ダウンロード形式。
const (
	formatBRF = "brf"
	formatTXT = "txt"
)

// assetPath は翻訳結果のダウンロードパスを返す。ベースURLのホストからの絶対パス。
func assetPath(id, format string) string {
	return BasePath + "/history/" + url.PathEscape(id) + "/download/" + format
}

// withAssets は点字出力を持つ翻訳にBRF・TXTのダウンロードURLを設定する。
// 画像・ファイルは出力を生成しないため設定しない。
func withAssets(t model.Translation) model.Translation {
	if t.OutputBraille == "" {
		return t
	}
	t.BrfURL = assetPath(t.ID, formatBRF)
	t.TxtURL = assetPath(t.ID, formatTXT)
	return t
}

// handleDownload は翻訳結果をBRFまたはTXTとして返すハンドラを返す。
// BRFは点字出力、TXTは入力テキストをそのまま返す。
func (s *Server) handleDownload() gin.HandlerFunc {
	return func(c *gin.Context) {
		format := c.Param("format")
		if format != formatBRF && format != formatTXT {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown download format"})
			return
		}

		item, err := s.store.translationByID(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
		if errors.Is(err, errNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Translation not found"})
			return
		}
		if err != nil {
			s.internalError(c, "翻訳履歴の取得に失敗しました", err)
			return
		}
		if item.OutputBraille == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "No downloadable output"})
			return
		}

		body := item.OutputBraille
		if format == formatTXT {
			body = item.InputText
		}
		c.Header("Content-Disposition", `attachment; filename="`+item.ID+"."+format+`"`)
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
	}
}
