package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "sess:"
)

// Store はセッション状態を Redis に保存します。
// セッションの永続化はこの Store だけが担い、内容の変更は Manager 経由で行います。
type Store struct {
	rdb     *redis.Client
	ttl     time.Duration
	timeout time.Duration
}

// NewStore は Store を作成します。
func NewStore(rdb *redis.Client, ttl, timeout time.Duration) *Store {
	return &Store{
		rdb:     rdb,
		ttl:     ttl,
		timeout: timeout,
	}
}

// TTL はセッションの有効期限を返します。
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get はセッションを取得します。存在しない・期限切れの場合は nil を返します。
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session id is required")
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("session store get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session store decode: %w", err)
	}
	// Redis の TTL に加えてレコード自身の期限も検査する
	if !sess.ExpiresAt.IsZero() && !time.Now().UTC().Before(sess.ExpiresAt) {
		return nil, nil
	}
	return &sess, nil
}

// Save はセッションを保存します。保存のたびに有効期限を更新します。
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("session is nil")
	}
	if sess.ID == "" {
		return fmt.Errorf("session id is required")
	}
	now := time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.ExpiresAt = now.Add(s.ttl)

	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session store encode: %w", err)
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.rdb.Set(ctx, sessionKey(sess.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store save: %w", err)
	}
	return nil
}

// Delete はセッションを削除します。存在しない ID を指定しても成功扱いです。
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("session store delete: %w", err)
	}
	return nil
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}
