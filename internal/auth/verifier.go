// Package auth は認証・認可機能を提供します。
package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/secret-word/internal/session"
	"github.com/yourusername/secret-word/internal/users"
)

var (
	// ErrNoSuchUser は該当するユーザーが存在しない場合に返されます。
	ErrNoSuchUser = errors.New("no such user")
	// ErrBadCredentials はパスワードが一致しない場合に返されます。
	ErrBadCredentials = errors.New("bad credentials")
)

// dummyHash はユーザー不在時にも bcrypt 比較を一度行うためのハッシュです。
// 失敗理由（ユーザー不在かパスワード不一致か）が応答時間から判別できないようにします。
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Verifier は提示された資格情報をユーザーストアと照合します。読み取り専用です。
type Verifier struct {
	repo users.Repository
}

// NewVerifier は Verifier を作成します。
func NewVerifier(repo users.Repository) *Verifier {
	return &Verifier{repo: repo}
}

// Verify はメールアドレスとパスワードを検証し、成功時は最小限の Subject を返します。
// パスワードハッシュは決して返しません。
func (v *Verifier) Verify(ctx context.Context, email, password string) (*session.Subject, error) {
	user, err := v.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, ErrNoSuchUser
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}

	return &session.Subject{Email: user.Email, Name: user.Name}, nil
}

// HashPassword はパスワードを bcrypt でハッシュ化します。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
