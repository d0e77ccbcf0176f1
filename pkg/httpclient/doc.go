// Package httpclient はBrailleSync APIと通信するHTTPクライアントを提供する。
//
// UIからリモートサービスへの通信はすべてこのパッケージを経由する。
// Bearerトークンの付与、JSONレスポンスのデコード、失敗の分類
// （Unauthorized / RequestFailed）を一箇所にまとめる。
// 401を受け取るとトークンを破棄し、登録されたハンドラに通知する。
// 画面遷移はハンドラ側（セッション管理）の責務とする。
package httpclient
