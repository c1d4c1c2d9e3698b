package auth

import (
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/secret-word/internal/session"
	"github.com/yourusername/secret-word/internal/users"
	"github.com/yourusername/secret-word/internal/web"
)

const testTemplates = `
{{define "index.html"}}index{{range .Errors}}[{{.}}]{{end}}{{range .Info}}({{.}}){{end}}{{if .User}}user={{.User.Email}}{{end}}{{end}}
{{define "register.html"}}register{{range .Errors}}[{{.}}]{{end}}{{end}}
{{define "logon.html"}}logon{{range .Errors}}[{{.}}]{{end}}{{end}}
{{define "secret_word.html"}}secret={{.SecretWord}}{{range .Errors}}[{{.}}]{{end}}{{range .Info}}({{.}}){{end}}{{end}}
{{define "error.html"}}error page{{end}}
`

type testApp struct {
	router *gin.Engine
	repo   *users.MemoryRepository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewStore(client, time.Hour, time.Second)
	manager := session.NewManager(store, false, nil)
	repo := users.NewMemoryRepository()

	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.New("t").Parse(testTemplates)))

	renderer := web.NewRenderer(manager, nil)
	webHandlers := web.NewHandlers(manager, renderer, nil)
	authHandlers := NewHandlers(repo, manager, renderer, nil)

	router.Use(webHandlers.ErrorHandler())
	router.Use(manager.Middleware())

	router.GET("/", webHandlers.Home)
	sessionRoutes := router.Group("/sessions")
	{
		sessionRoutes.GET("/register", authHandlers.RegisterShow)
		sessionRoutes.POST("/register", authHandlers.Register)
		sessionRoutes.GET("/logon", authHandlers.LogonShow)
		sessionRoutes.POST("/logon", authHandlers.Logon)
		sessionRoutes.POST("/logoff", authHandlers.Logoff)
	}
	protected := router.Group("/secretWord")
	protected.Use(RequireLogin())
	{
		protected.GET("", webHandlers.SecretWordShow)
		protected.POST("", webHandlers.SecretWordUpdate)
	}
	router.NoRoute(webHandlers.NotFound)

	return &testApp{router: router, repo: repo}
}

func (a *testApp) do(t *testing.T, method, path string, form url.Values, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.SessionCookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// sessionCookie はレスポンスが最後に設定したセッショントークンを返します。
// ログイン時は匿名用と再発行後の二つのクッキーが載るため、後の方が有効です。
func sessionCookie(rec *httptest.ResponseRecorder) string {
	value := ""
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.SessionCookieName {
			value = c.Value
		}
	}
	return value
}

func registerForm(name, email, password, confirmation string) url.Values {
	return url.Values{
		"name":      {name},
		"email":     {email},
		"password":  {password},
		"password1": {confirmation},
	}
}

func logonForm(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

func TestRegisterSuccess(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/sessions/register", registerForm("Alice", "a@x.com", "pw1", "pw1"), "")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect home, got %q", loc)
	}
	if app.repo.Count() != 1 {
		t.Fatalf("expected one record, got %d", app.repo.Count())
	}

	// 登録だけではログイン状態にならない
	cookie := sessionCookie(rec)
	got := app.do(t, http.MethodGet, "/secretWord", nil, cookie)
	if got.Code != http.StatusSeeOther || got.Header().Get("Location") != LogonPath {
		t.Fatalf("registration must not authenticate the session: %d %q", got.Code, got.Header().Get("Location"))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app := newTestApp(t)

	first := app.do(t, http.MethodPost, "/sessions/register", registerForm("Alice", "a@x.com", "pw1", "pw1"), "")
	if first.Code != http.StatusSeeOther {
		t.Fatalf("first registration failed: %d", first.Code)
	}

	second := app.do(t, http.MethodPost, "/sessions/register", registerForm("Alice2", "a@x.com", "pw2", "pw2"), "")
	if second.Code != http.StatusOK {
		t.Fatalf("expected inline re-render, got %d", second.Code)
	}
	if !strings.Contains(second.Body.String(), "That email address is already registered.") {
		t.Fatalf("missing duplicate message: %s", second.Body.String())
	}
	if app.repo.Count() != 1 {
		t.Fatalf("duplicate must not create a record, got %d", app.repo.Count())
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/sessions/register", registerForm("Alice", "a@x.com", "pw1", "other"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected inline re-render, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "The passwords entered do not match.") {
		t.Fatalf("missing mismatch message: %s", rec.Body.String())
	}
	if app.repo.Count() != 0 {
		t.Fatal("mismatch must not touch the store")
	}
}

func TestRegisterFieldValidation(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/sessions/register", registerForm("", "not-an-email", "", ""), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected inline re-render, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Please provide a name.",
		"Please provide a valid email address.",
		"Please provide a password.",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing field message %q: %s", want, body)
		}
	}
	if app.repo.Count() != 0 {
		t.Fatal("invalid input must not create a record")
	}
}

func TestLogonFailureRendersInline(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodPost, "/sessions/register", registerForm("Alice", "a@x.com", "pw1", "pw1"), "")

	rec := app.do(t, http.MethodPost, "/sessions/logon", logonForm("a@x.com", "wrong"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("failed logon must re-render, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Incorrect email or password.") {
		t.Fatalf("missing failure message: %s", rec.Body.String())
	}

	// セッションは未認証のまま
	cookie := sessionCookie(rec)
	got := app.do(t, http.MethodGet, "/secretWord", nil, cookie)
	if got.Code != http.StatusSeeOther || got.Header().Get("Location") != LogonPath {
		t.Fatalf("failed logon must not authenticate: %d %q", got.Code, got.Header().Get("Location"))
	}

	// メッセージは同一レスポンスで消費済みで、次の描画には現れない
	again := app.do(t, http.MethodGet, "/sessions/logon", nil, cookie)
	if strings.Contains(again.Body.String(), "Incorrect email or password.") {
		t.Fatalf("flash must not survive past the render: %s", again.Body.String())
	}
}

func TestUnknownUserAndWrongPasswordLookAlike(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodPost, "/sessions/register", registerForm("Alice", "a@x.com", "pw1", "pw1"), "")

	wrongPassword := app.do(t, http.MethodPost, "/sessions/logon", logonForm("a@x.com", "wrong"), "")
	unknownUser := app.do(t, http.MethodPost, "/sessions/logon", logonForm("nobody@x.com", "wrong"), "")

	if wrongPassword.Code != unknownUser.Code {
		t.Fatalf("status codes differ: %d vs %d", wrongPassword.Code, unknownUser.Code)
	}
	if wrongPassword.Body.String() != unknownUser.Body.String() {
		t.Fatalf("response bodies differ:\n%s\n---\n%s", wrongPassword.Body.String(), unknownUser.Body.String())
	}
}

func logon(t *testing.T, app *testApp) string {
	t.Helper()
	app.do(t, http.MethodPost, "/sessions/register", registerForm("Alice", "a@x.com", "pw1", "pw1"), "")
	rec := app.do(t, http.MethodPost, "/sessions/logon", logonForm("a@x.com", "pw1"), "")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/secretWord" {
		t.Fatalf("logon failed: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	cookie := sessionCookie(rec)
	if cookie == "" {
		t.Fatal("logon must issue a session cookie")
	}
	return cookie
}

func TestLogonSuccess(t *testing.T) {
	app := newTestApp(t)
	cookie := logon(t, app)

	rec := app.do(t, http.MethodGet, "/secretWord", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("protected route must allow the authenticated session, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "secret=syzygy") {
		t.Fatalf("missing default secret word: %s", rec.Body.String())
	}

	// ホームにはログイン中ユーザーが表示される
	home := app.do(t, http.MethodGet, "/", nil, cookie)
	if !strings.Contains(home.Body.String(), "user=a@x.com") {
		t.Fatalf("home must show the subject: %s", home.Body.String())
	}
}

func TestLogonShowRedirectsWhenAuthenticated(t *testing.T) {
	app := newTestApp(t)
	cookie := logon(t, app)

	rec := app.do(t, http.MethodGet, "/sessions/logon", nil, cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("authenticated logon page must redirect home: %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestLogoffDestroysSession(t *testing.T) {
	app := newTestApp(t)
	cookie := logon(t, app)

	rec := app.do(t, http.MethodPost, "/sessions/logoff", nil, cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("logoff must redirect home: %d %q", rec.Code, rec.Header().Get("Location"))
	}

	// 旧トークンでの保護ルートアクセスはログインページへ
	got := app.do(t, http.MethodGet, "/secretWord", nil, cookie)
	if got.Code != http.StatusSeeOther || got.Header().Get("Location") != LogonPath {
		t.Fatalf("old token must resolve anonymous: %d %q", got.Code, got.Header().Get("Location"))
	}
}

func TestGuardRedirectsAnonymousSilently(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/secretWord", nil, "")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != LogonPath {
		t.Fatalf("anonymous access must redirect to logon: %d %q", rec.Code, rec.Header().Get("Location"))
	}

	// リダイレクト後のログインページにフラッシュは出ない
	follow := app.do(t, http.MethodGet, LogonPath, nil, sessionCookie(rec))
	if strings.Contains(follow.Body.String(), "[") {
		t.Fatalf("denial must not leave a flash message: %s", follow.Body.String())
	}
}

func TestSecretWordFlashAcrossRedirect(t *testing.T) {
	app := newTestApp(t)
	cookie := logon(t, app)

	// 却下される単語: リダイレクト先の次の描画でだけメッセージが見える
	rec := app.do(t, http.MethodPost, "/secretWord", url.Values{"secretWord": {"Pineapple"}}, cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/secretWord" {
		t.Fatalf("update must redirect back: %d %q", rec.Code, rec.Header().Get("Location"))
	}

	first := app.do(t, http.MethodGet, "/secretWord", nil, cookie)
	body := first.Body.String()
	if !strings.Contains(body, "That word won't work!") ||
		!strings.Contains(body, "You can't use words that start with P.") {
		t.Fatalf("missing rejection flashes: %s", body)
	}
	if !strings.Contains(body, "secret=syzygy") {
		t.Fatalf("rejected word must not replace the secret: %s", body)
	}

	second := app.do(t, http.MethodGet, "/secretWord", nil, cookie)
	if strings.Contains(second.Body.String(), "That word won't work!") {
		t.Fatalf("flash must be gone on the request after next: %s", second.Body.String())
	}

	// 受理される単語は保存され、infoフラッシュが一度だけ出る
	app.do(t, http.MethodPost, "/secretWord", url.Values{"secretWord": {"tangerine"}}, cookie)
	accepted := app.do(t, http.MethodGet, "/secretWord", nil, cookie)
	if !strings.Contains(accepted.Body.String(), "secret=tangerine") {
		t.Fatalf("accepted word must be stored: %s", accepted.Body.String())
	}
	if !strings.Contains(accepted.Body.String(), "(That is a nice word.)") {
		t.Fatalf("missing info flash: %s", accepted.Body.String())
	}
}

func TestNotFound(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/nope", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "That page (/nope) was not found.") {
		t.Fatalf("unexpected 404 body: %s", rec.Body.String())
	}
}
