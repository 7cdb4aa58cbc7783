package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vietlingo/cache"
	"vietlingo/config"
	"vietlingo/curriculum"
	"vietlingo/database"
	"vietlingo/events"
	"vietlingo/logger"
	"vietlingo/middleware"
	"vietlingo/ocr"
	"vietlingo/services"
)

// buildServices connects every backing service named by cfg and installs services.App.
// The returned func releases them.
func buildServices(ctx context.Context, cfg *config.Config) (*services.Services, func(context.Context), error) {
	cur, err := curriculum.Default()
	if err != nil {
		return nil, nil, err
	}

	loc, err := time.LoadLocation(cfg.StreakTimezone)
	if err != nil {
		return nil, nil, fmt.Errorf("STREAK_TIMEZONE: %w", err)
	}

	policy, err := services.PolicyByName(cfg.UnlockPolicy)
	if err != nil {
		return nil, nil, err
	}

	store, err := database.ConnectDb(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := events.NewPublisher(cfg.RabbitMQURL, events.DefaultExchange)
	if err != nil {
		logger.Log.Warn("event publishing disabled", zap.Error(err))
		publisher = events.Nop{}
	}

	var (
		leaderboardCache cache.Cache = cache.NewMemory()
		closeCache                   = func() error { return nil }
	)
	cacheTTL := time.Duration(cfg.LeaderboardCacheSeconds) * time.Second
	if cfg.RedisURL != "" && cacheTTL > 0 {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisURL, "vietlingo:")
		if err != nil {
			logger.Log.Warn("redis unavailable, caching in memory", zap.Error(err))
		} else {
			leaderboardCache, closeCache = redisCache, redisCache.Close
		}
	}

	svc := services.New(services.Deps{
		Store:      store,
		Curriculum: cur,
		OCR:        ocr.NewClient(cfg.OCRServiceURL, time.Duration(cfg.OCRTimeoutSeconds)*time.Second),
		IssueToken: middleware.GenerateJWT,
		SaltRound:  cfg.SaltRound,
	},
		services.WithLocation(loc),
		services.WithPublisher(publisher),
		services.WithLeaderboardCache(leaderboardCache, cacheTTL),
		services.WithUnlockPolicy(policy),
	)
	services.App = svc

	cleanup := func(ctx context.Context) {
		if err := closeCache(); err != nil {
			logger.Log.Warn("close cache", zap.Error(err))
		}
		if err := svc.Close(ctx); err != nil {
			logger.Log.Warn("close services", zap.Error(err))
		}
	}
	return svc, cleanup, nil
}
