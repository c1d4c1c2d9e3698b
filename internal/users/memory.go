package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository はテスト用のインメモリ実装です。
// 一意性チェックと挿入はロック内で行い、Postgres 実装と同じ原子性を保ちます。
type MemoryRepository struct {
	mu    sync.Mutex
	users map[string]*User
}

// NewMemoryRepository は MemoryRepository を作成します。
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[string]*User),
	}
}

// Create はユーザーを作成します。
func (r *MemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := NormalizeEmail(user.Email)
	if _, ok := r.users[email]; ok {
		return nil, ErrDuplicateEmail
	}

	stored := *user
	stored.Email = email
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.users[email] = &stored

	result := stored
	return &result, nil
}

// GetByEmail はメールアドレスでユーザーを検索します。
func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	result := *user
	return &result, nil
}

// Count は保存されているユーザー数を返します。
func (r *MemoryRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
