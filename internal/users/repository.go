package users

import (
	"context"
	"errors"
)

var (
	// ErrNotFound は指定したメールアドレスのユーザーが存在しない場合に返されます。
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail は既に登録済みのメールアドレスで作成を試みた場合に返されます。
	ErrDuplicateEmail = errors.New("email already registered")
)

// Repository はユーザーストアの操作を定義します。
// メールアドレスの一意性はストア側で原子的に保証します。
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
