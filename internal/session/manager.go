package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCookieName はセッショントークンを運ぶクッキーの名前です。
const SessionCookieName = "sw_session"

// Manager はセッションの発行・解決・更新・破棄を担います。
// Store はコンストラクタで明示的に注入します。
type Manager struct {
	store        *Store
	secureCookie bool
	logger       *log.Logger
}

// NewManager は Manager を作成します。secureCookie は本番環境でのみ true にします。
func NewManager(store *Store, secureCookie bool, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		store:        store,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// Resolve はトークンからセッションを解決します。
// トークンが空・未知・期限切れの場合は新しい匿名セッションを発行して永続化し、
// 二番目の戻り値で新規発行されたことを通知します（呼び出し側がクッキーを付与します）。
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, bool, error) {
	if token != "" {
		sess, err := m.store.Get(ctx, token)
		if err != nil {
			return nil, false, err
		}
		if sess != nil {
			// 有効期限を更新して書き戻す
			if err := m.store.Save(ctx, sess); err != nil {
				return nil, false, err
			}
			return sess, false, nil
		}
	}

	sess, err := m.create(ctx)
	if err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// Login はセッションに認証済みユーザーを紐づけます。
// セッション固定化攻撃への対策として、セッション ID を再発行します。
func (m *Manager) Login(ctx context.Context, sess *Session, subject *Subject) error {
	oldID := sess.ID

	newID, err := generateToken()
	if err != nil {
		return err
	}
	sess.ID = newID
	sess.Subject = subject

	if err := m.store.Save(ctx, sess); err != nil {
		sess.ID = oldID
		sess.Subject = nil
		return err
	}
	// 旧レコードの削除失敗は致命的ではない（TTL でいずれ消える）
	if err := m.store.Delete(ctx, oldID); err != nil {
		m.logger.Printf("failed to delete old session record: %v", err)
	}
	return nil
}

// Logout はセッションをストアから破棄します。
// 削除に失敗してもログに残すだけで、処理はそのまま進めます。
func (m *Manager) Logout(ctx context.Context, sess *Session) {
	if err := m.store.Delete(ctx, sess.ID); err != nil {
		m.logger.Printf("failed to destroy session %s: %v", sess.ID, err)
	}
	sess.Subject = nil
}

// Save はセッションの変更内容をレスポンス送出前に同期的に書き込みます。
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	return m.store.Save(ctx, sess)
}

// WriteCookie はセッショントークンをレスポンスのクッキーに載せます。
// HttpOnly は常時、Secure は本番環境のみ、SameSite は Strict です。
func (m *Manager) WriteCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.store.TTL().Seconds()),
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie はクライアント側のセッショントークンを破棄します。
func (m *Manager) ClearCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (m *Manager) create(ctx context.Context) (*Session, error) {
	id, err := generateToken()
	if err != nil {
		return nil, err
	}
	sess := &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
