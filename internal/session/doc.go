// Package session はクライアントのセッショントークンを保持する。
//
// Storeはメモリ上のトークンの唯一の保管場所で、httpclient.TokenStoreを満たす。
// Slotは固定キー（braillesync_token）で1つのトークンを永続化する領域で、
// SQLite・Redis・メモリの実装を持つ。
// トークンの有効期限はローカルでは管理せず、リモートサービスの判定のみに従う。
package session
