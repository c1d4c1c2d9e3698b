// Package web はページ描画と周辺のHTTPハンドラーを提供します。
package web

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/secret-word/internal/session"
)

// Renderer はフラッシュメッセージとログイン中ユーザーを添えてテンプレートを描画します。
type Renderer struct {
	sessions *session.Manager
	logger   *log.Logger
}

// NewRenderer は Renderer を作成します。
func NewRenderer(sessions *session.Manager, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.Default()
	}
	return &Renderer{
		sessions: sessions,
		logger:   logger,
	}
}

// HTML はテンプレートを描画します。描画のたびにフラッシュキューを排出し、
// 排出後の状態をレスポンス送出前にストアへ書き戻します。
// 同じメッセージが次のリクエストで再び表示されることはありません。
func (r *Renderer) HTML(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	sess := session.FromContext(c)
	if sess != nil {
		entries := sess.DrainFlash()
		if len(entries) > 0 {
			if err := r.sessions.Save(c.Request.Context(), sess); err != nil {
				_ = c.Error(err)
				c.Abort()
				return
			}
		}

		var errs, info []string
		for _, entry := range entries {
			switch entry.Category {
			case session.FlashError:
				errs = append(errs, entry.Text)
			default:
				info = append(info, entry.Text)
			}
		}
		data["Errors"] = errs
		data["Info"] = info
		if sess.Subject != nil {
			data["User"] = sess.Subject
		}
	}

	c.HTML(status, name, data)
}
