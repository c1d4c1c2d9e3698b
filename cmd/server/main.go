// Package main はWebサーバーのエントリーポイントです。
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/secret-word/internal/auth"
	"github.com/yourusername/secret-word/internal/config"
	"github.com/yourusername/secret-word/internal/session"
	"github.com/yourusername/secret-word/internal/users"
	"github.com/yourusername/secret-word/internal/web"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()
	router.LoadHTMLGlob("web/templates/*.html")

	// ユーザーストアの初期化（マイグレーション込み）
	repo, err := users.NewPostgresRepository(context.Background(), cfg.DatabaseURL, cfg.StoreTimeout())
	if err != nil {
		log.Fatalf("Failed to set up user store: %v", err)
	}
	defer repo.Close()

	// セッションストアとマネージャーの初期化
	sessionManager, err := setupSessions(cfg)
	if err != nil {
		log.Fatalf("Failed to set up session store: %v", err)
	}

	// ルーティングの設定
	setupRoutes(router, repo, sessionManager)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "secret-word",
		"version": "0.1.0",
	})
}

// setupRoutes はページと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, repo users.Repository, sessionManager *session.Manager) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	renderer := web.NewRenderer(sessionManager, log.Default())
	webHandlers := web.NewHandlers(sessionManager, renderer, log.Default())
	authHandlers := auth.NewHandlers(repo, sessionManager, renderer, log.Default())

	// エラーハンドラーを最初に、セッション解決をその内側に積む
	router.Use(webHandlers.ErrorHandler())
	router.Use(sessionManager.Middleware())

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
	protected.Use(auth.RequireLogin())
	{
		protected.GET("", webHandlers.SecretWordShow)
		protected.POST("", webHandlers.SecretWordUpdate)
	}

	router.NoRoute(webHandlers.NotFound)
}
