package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SessionExpiredMessage は401応答時に返すエラーメッセージ。
const SessionExpiredMessage = "Session expired. Please log in again."

// ErrorKind はAPIエラーの分類。
type ErrorKind int

const (
	// KindUnauthorized はHTTP 401による認証切れを表す。
	KindUnauthorized ErrorKind = iota + 1
	// KindRequestFailed は401以外の非2xxステータスを表す。
	KindRequestFailed
)

// String はエラー分類の名前を返す。
func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "Unauthorized"
	case KindRequestFailed:
		return "RequestFailed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ErrUnauthorized は分類がKindUnauthorizedの*APIErrorにerrors.Isで一致する。
var ErrUnauthorized = errors.New("unauthorized")

// APIError はリモートサービスが成功以外のステータスを返したことを表す。
// 通信エラーはこの型にはならない。
type APIError struct {
	// Kind はエラーの分類。
	Kind ErrorKind
	// Status はHTTPステータスコード。
	Status int
	// Message は利用者向けのメッセージ。
	Message string
	// Endpoint はリクエスト先のURL。
	Endpoint string
}

// Error はメッセージをそのまま返す。
func (e *APIError) Error() string {
	return e.Message
}

// Is はKindUnauthorizedのときErrUnauthorizedと一致させる。
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Kind == KindUnauthorized
}

// IsUnauthorized はerrが認証切れによる失敗であればtrueを返す。
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// StatusCode はerrが*APIErrorであればそのステータスコードを返す。
// それ以外は0を返す。
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// errorBody はエラーレスポンスのボディ。
// message と error はどちらも省略可能で、文字列以外の値は無視する。
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// text はmessage、error、ステータス由来の既定文言の順にメッセージを決める。
func (b errorBody) text(status int) string {
	if s := rawString(b.Message); s != "" {
		return s
	}
	if s := rawString(b.Error); s != "" {
		return s
	}
	return fmt.Sprintf("API error: %d", status)
}

// rawString はJSON文字列であれば中身を返す。それ以外は空文字列。
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// parseErrorBody はペイロードからエラーボディを取り出す。
// オブジェクト以外のペイロードは空のボディとして扱う。
func parseErrorBody(payload json.RawMessage) errorBody {
	var body errorBody
	if len(payload) == 0 {
		return body
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return errorBody{}
	}
	return body
}
