package devserver

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// errInvalidDataURL はdata URLとして解釈できない入力を表す。
var errInvalidDataURL = errors.New("invalid data URL")

// dataURL はbase64形式のdata URLを分解したもの。
type dataURL struct {
	// declared はURLに記載されたMIMEタイプ。
	declared string
	// detected は内容から判定したMIMEタイプ。
	detected string
	// size はデコード後のバイト数。
	size int
}

// parseDataURL は "data:<mime>;base64,<payload>" を分解する。
func parseDataURL(s string) (dataURL, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return dataURL{}, errInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return dataURL{}, errInvalidDataURL
	}
	declared, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return dataURL{}, errInvalidDataURL
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(raw) == 0 {
		return dataURL{}, errInvalidDataURL
	}
	return dataURL{
		declared: declared,
		detected: mimetype.Detect(raw).String(),
		size:     len(raw),
	}, nil
}

// describe は翻訳履歴のinputTextに残す概要を返す。
// 記載と判定結果が異なる場合は両方を残す。
func (d dataURL) describe() string {
	if d.declared != "" && d.declared != d.detected {
		return fmt.Sprintf("%s (declared %s, %d bytes)", d.detected, d.declared, d.size)
	}
	return fmt.Sprintf("%s (%d bytes)", d.detected, d.size)
}
