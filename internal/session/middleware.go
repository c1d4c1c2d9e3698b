package session

import (
	"github.com/gin-gonic/gin"
)

// ContextSessionKey は、ハンドラー間で現在のセッションを共有するためのキーです。
const ContextSessionKey = "session.current"

// Middleware はリクエストごとにセッションを解決してコンテキストに載せるミドルウェアを返します。
// 新規セッションが発行された場合はクッキーも付与します。
// ストア障害時はエラーを記録して後段の処理を中断します（トップレベルのエラーハンドラーが応答します）。
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil {
			token = ""
		}

		sess, isNew, err := m.Resolve(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if isNew {
			m.WriteCookie(c, sess.ID)
		}

		c.Set(ContextSessionKey, sess)
		c.Next()
	}
}

// FromContext はミドルウェアが載せたセッションを取り出します。
func FromContext(c *gin.Context) *Session {
	v, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil
	}
	sess, ok := v.(*Session)
	if !ok {
		return nil
	}
	return sess
}
