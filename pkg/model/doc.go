// Package model はBrailleSync APIとやり取りするデータ構造を定義する。
//
// ユーザー、認証レスポンス、翻訳レコード、履歴の絞り込み条件など、
// クライアントとリモートサービスの間で交換されるJSONの形を表す。
// 翻訳レコードの中身はクライアント側では解釈しない。
package model
