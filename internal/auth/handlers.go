package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/secret-word/internal/session"
	"github.com/yourusername/secret-word/internal/users"
	"github.com/yourusername/secret-word/internal/web"
)

// 失敗理由（ユーザー不在かパスワード不一致か）は利用者には区別させません。
const badCredentialsMessage = "Incorrect email or password."

// Handlers は登録・ログイン・ログアウトのハンドラー群です。
type Handlers struct {
	repo     users.Repository
	verifier *Verifier
	sessions *session.Manager
	render   *web.Renderer
	logger   *log.Logger
}

// NewHandlers は Handlers を作成します。
func NewHandlers(repo users.Repository, sessions *session.Manager, render *web.Renderer, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	return &Handlers{
		repo:     repo,
		verifier: NewVerifier(repo),
		sessions: sessions,
		render:   render,
		logger:   logger,
	}
}

// RegisterShow は GET /sessions/register のハンドラーです。
func (h *Handlers) RegisterShow(c *gin.Context) {
	h.render.HTML(c, http.StatusOK, "register.html", gin.H{})
}

// Register は POST /sessions/register のハンドラーです。
// 確認用パスワードが一致しない場合はストアに触れずにフォームを再描画します。
// 登録が成功しても自動ログインはしません。
func (h *Handlers) Register(c *gin.Context) {
	sess := session.FromContext(c)

	name := strings.TrimSpace(c.PostForm("name"))
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	confirmation := c.PostForm("password1")

	if password != confirmation {
		sess.PushFlash(session.FlashError, "The passwords entered do not match.")
		h.render.HTML(c, http.StatusOK, "register.html", gin.H{})
		return
	}

	if messages := validateRegistration(name, email, password); len(messages) > 0 {
		for _, m := range messages {
			sess.PushFlash(session.FlashError, m)
		}
		h.render.HTML(c, http.StatusOK, "register.html", gin.H{})
		return
	}

	hash, err := HashPassword(password)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}

	_, err = h.repo.Create(c.Request.Context(), &users.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			sess.PushFlash(session.FlashError, "That email address is already registered.")
			h.render.HTML(c, http.StatusOK, "register.html", gin.H{})
			return
		}
		_ = c.Error(err)
		c.Abort()
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// LogonShow は GET /sessions/logon のハンドラーです。
// 既にログイン済みの場合はフォームを出さずホームへ戻します。
func (h *Handlers) LogonShow(c *gin.Context) {
	if Guard(session.FromContext(c)) == Allow {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	h.render.HTML(c, http.StatusOK, "logon.html", gin.H{})
}

// Logon は POST /sessions/logon のハンドラーです。
// 失敗時はリダイレクトせず、フラッシュメッセージを載せたままフォームを再描画します。
func (h *Handlers) Logon(c *gin.Context) {
	sess := session.FromContext(c)

	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	subject, err := h.verifier.Verify(c.Request.Context(), email, password)
	if err != nil {
		if errors.Is(err, ErrNoSuchUser) || errors.Is(err, ErrBadCredentials) {
			sess.PushFlash(session.FlashError, badCredentialsMessage)
			h.render.HTML(c, http.StatusOK, "logon.html", gin.H{})
			return
		}
		_ = c.Error(err)
		c.Abort()
		return
	}

	if err := h.sessions.Login(c.Request.Context(), sess, subject); err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	h.sessions.WriteCookie(c, sess.ID)

	c.Redirect(http.StatusSeeOther, "/secretWord")
}

// Logoff は POST /sessions/logoff のハンドラーです。
// ストア側の削除に失敗してもホームへのリダイレクトは行います。
func (h *Handlers) Logoff(c *gin.Context) {
	sess := session.FromContext(c)
	h.sessions.Logout(c.Request.Context(), sess)
	h.sessions.ClearCookie(c)
	c.Redirect(http.StatusSeeOther, "/")
}

func validateRegistration(name, email, password string) []string {
	var messages []string
	if name == "" {
		messages = append(messages, "Please provide a name.")
	}
	if email == "" || !strings.Contains(email, "@") {
		messages = append(messages, "Please provide a valid email address.")
	}
	if password == "" {
		messages = append(messages, "Please provide a password.")
	}
	return messages
}
