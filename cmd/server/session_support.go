package main

import (
	"log"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/secret-word/internal/config"
	"github.com/yourusername/secret-word/internal/session"
)

func setupSessions(cfg *config.Config) (*session.Manager, error) {
	opt, err := redis.ParseURL(cfg.SessionRedisURL)
	if err != nil {
		return nil, err
	}

	redisClient := redis.NewClient(opt)
	store := session.NewStore(redisClient, cfg.SessionTTL(), cfg.StoreTimeout())

	secureCookie := cfg.GinMode == gin.ReleaseMode
	return session.NewManager(store, secureCookie, log.Default()), nil
}
