// Package dto はauthフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

// LoginRequest は/admin/loginエンドポイントのリクエストボディを表します。
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// TokenResponse はログイン成功時のレスポンスです。
type TokenResponse struct {
	Token string `json:"token"`
}
