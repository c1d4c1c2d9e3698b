package web

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/secret-word/internal/session"
)

const (
	secretWordKey     = "secretWord"
	defaultSecretWord = "syzygy"
)

// Handlers はページ描画まわりのハンドラー群です。
type Handlers struct {
	sessions *session.Manager
	render   *Renderer
	logger   *log.Logger
}

// NewHandlers は Handlers を作成します。
func NewHandlers(sessions *session.Manager, render *Renderer, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	return &Handlers{
		sessions: sessions,
		render:   render,
		logger:   logger,
	}
}

// Home は GET / のハンドラーです。
func (h *Handlers) Home(c *gin.Context) {
	h.render.HTML(c, http.StatusOK, "index.html", gin.H{})
}

// SecretWordShow は GET /secretWord のハンドラーです。認証ゲートの内側にあります。
func (h *Handlers) SecretWordShow(c *gin.Context) {
	sess := session.FromContext(c)

	word := sess.Value(secretWordKey)
	if word == "" {
		word = defaultSecretWord
		sess.SetValue(secretWordKey, word)
		if err := h.sessions.Save(c.Request.Context(), sess); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
	}

	h.render.HTML(c, http.StatusOK, "secret_word.html", gin.H{
		"SecretWord": word,
	})
}

// SecretWordUpdate は POST /secretWord のハンドラーです。
// 結果はフラッシュメッセージとして次のリクエストの描画に渡されます。
func (h *Handlers) SecretWordUpdate(c *gin.Context) {
	sess := session.FromContext(c)
	word := strings.TrimSpace(c.PostForm("secretWord"))

	if strings.HasPrefix(strings.ToUpper(word), "P") {
		sess.PushFlash(session.FlashError, "That word won't work!")
		sess.PushFlash(session.FlashError, "You can't use words that start with P.")
	} else {
		sess.SetValue(secretWordKey, word)
		sess.PushFlash(session.FlashInfo, "That is a nice word.")
	}

	if err := h.sessions.Save(c.Request.Context(), sess); err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.Redirect(http.StatusSeeOther, "/secretWord")
}

// NotFound は未定義ルートへの応答を返します。
func (h *Handlers) NotFound(c *gin.Context) {
	c.String(http.StatusNotFound, "That page (%s) was not found.", c.Request.URL.Path)
}

// ErrorHandler は後段で記録されたエラーを一律の 500 応答に変換するミドルウェアを返します。
// 内部の詳細はサーバーログにのみ残し、クライアントには渡しません。
func (h *Handlers) ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		for _, e := range c.Errors {
			h.logger.Printf("request failed: %s %s: %v", c.Request.Method, c.Request.URL.Path, e.Err)
		}
		if c.Writer.Written() {
			return
		}
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{})
	}
}
