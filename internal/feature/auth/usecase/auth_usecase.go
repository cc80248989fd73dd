// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"smg_backend/internal/feature/auth/domain"
)

// dummyHash は設定が無い場合でも bcrypt 比較を実行するためのハッシュです。
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// JWTGenerator はJWTトークン生成のインターフェースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（platform/jwt）ではなくコンシューマー（usecase）が定義します。
type JWTGenerator interface {
	// GenerateToken は指定された subject と role の署名済みJWTトークンを生成します。
	GenerateToken(subject, role string) (string, error)
}

// authUsecase は管理者ログインを実装します。
type authUsecase struct {
	passwordHash string
	role         string
	jwtGenerator JWTGenerator
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
// passwordHash は bcrypt ハッシュです。空の場合ログインは常に失敗します。
func NewAuthUsecase(passwordHash, role string, jwtGenerator JWTGenerator) *authUsecase {
	return &authUsecase{
		passwordHash: passwordHash,
		role:         role,
		jwtGenerator: jwtGenerator,
	}
}

// Login は管理者パスワードを検証し、成功時にJWTトークンを返します。
// タイミング攻撃を防止するため、ハッシュ未設定でもbcrypt比較を実行します。
func (u *authUsecase) Login(ctx context.Context, password string) (string, error) {
	hash := u.passwordHash
	if hash == "" {
		hash = dummyHash
	}

	// 第1引数はハッシュ化パスワード、第2引数は平文パスワード
	compareErr := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	if u.passwordHash == "" {
		return "", domain.ErrLoginDisabled
	}
	if compareErr != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := u.jwtGenerator.GenerateToken("admin", u.role)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}
