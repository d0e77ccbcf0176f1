// Package devserver はBrailleSync APIのローカル用スタブサーバーを提供する。
//
// 認証・プロフィール・翻訳・履歴の各エンドポイントを /api/v1 以下に公開し、
// ユーザーと翻訳履歴をSQLiteに保存する。翻訳は入力をそのまま返すだけで、
// 点字変換やOCRは行わない。クライアントの結合テストと手元での動作確認に使う。
package devserver
