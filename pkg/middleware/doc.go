// Package middleware は開発用サーバーで使用するGinミドルウェアを提供する。
//
// アクセストークンの発行と検証、パニックリカバリ、CORS、
// リクエストログとPrometheusメトリクスの記録を含む。
package middleware
