package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/secret-word/internal/session"
)

// Decision は認証ゲートの判定結果です。
type Decision int

const (
	// Deny は保護対象のハンドラーを実行させない判定です。
	Deny Decision = iota
	// Allow は保護対象のハンドラーの実行を許可する判定です。
	Allow
)

// LogonPath は未認証アクセスのリダイレクト先です。
const LogonPath = "/sessions/logon"

// Guard はセッション状態から認可判定を行う純粋関数です。
// セッションを一切変更せず、何度呼んでも同じ結果を返します。
func Guard(sess *session.Session) Decision {
	if sess != nil && sess.Authenticated() {
		return Allow
	}
	return Deny
}

// RequireLogin は保護ルート用のミドルウェアを返します。
// Deny の場合はログインページへリダイレクトし、後続のハンドラーは実行されません。
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Guard(session.FromContext(c)) != Allow {
			c.Redirect(http.StatusSeeOther, LogonPath)
			c.Abort()
			return
		}
		c.Next()
	}
}
