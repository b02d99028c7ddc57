package app

import (
	"context"
	"fmt"
	"log/slog"

	httpapp "gallery_api/internal/app/http"
	"gallery_api/internal/config"
	"gallery_api/internal/lib/logger/sl"
	"gallery_api/internal/notification"
	"gallery_api/internal/repository"
	gallery "gallery_api/internal/services/gallery_service"
	moderation "gallery_api/internal/services/moderation_service"
	"gallery_api/internal/storage/postgresql"
	redisapp "gallery_api/internal/storage/redis"
	httprouters "gallery_api/internal/transport/http"
)

type App struct {
	log        *slog.Logger
	HTTPServer *httpapp.Server
	storage    *postgresql.Storage
	redis      *redisapp.Client
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.New"

	mode, err := repository.ParseWriteMode(cfg.Store.WriteMode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Postgres.Migrate {
		version, err := postgresql.Migrate(cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("migrations applied", slog.Uint64("version", uint64(version)))
	}

	storage, err := postgresql.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	health := []httprouters.HealthChecker{storage}

	var (
		galleryRepo repository.GalleryRepository = repository.NewGalleryRepo(storage.Pool())
		dedup       *notification.Deduplicator
		redisClient *redisapp.Client
	)

	if cfg.Redis.RedisAddr != "" {
		redisClient = redisapp.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)
		health = append(health, redisClient)

		if cfg.Redis.CacheTTL > 0 {
			galleryRepo = repository.NewCachedGalleryRepo(log, galleryRepo, redisClient, cfg.Redis.CacheTTL)
		}
		dedup = notification.NewDeduplicator(repository.NewRedisMessageRepo(redisClient), cfg.Redis.DedupTTL)
	} else {
		log.Warn("redis is not configured, gallery cache and message dedup are disabled")
	}

	snsClient, err := notification.NewSNSClient(ctx, cfg.SNS.Region, cfg.SNS.Profile)
	if err != nil {
		storage.Stop()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	verifier := notification.NewVerifier(log, cfg.SNS.Region, cfg.SNS.TopicARNs, cfg.SNS.CertCacheTTL)
	confirmer := notification.NewSNSConfirmer(log, snsClient)

	galleryService := gallery.NewGalleryService(log, galleryRepo, mode)
	moderationService := moderation.NewModerationService(log, galleryRepo, mode)

	listener := notification.NewListener(log, verifier, confirmer, moderationService, dedup)

	routers := httprouters.NewRouter(log, galleryService, listener, health...)

	server := httpapp.New(log, cfg.JWT.Secret, cfg.HTTP.Host, cfg.HTTP.Port, cfg.HTTP.Timeout, routers)
	server.BuildRouters()

	log.Info("application initialized", slog.String("write_mode", string(mode)))

	return &App{
		log:        log,
		HTTPServer: server,
		storage:    storage,
		redis:      redisClient,
	}, nil
}

// Stop shuts down the HTTP server, then the stores.
func (a *App) Stop() {
	if err := a.HTTPServer.Stop(); err != nil {
		a.log.Error("failed to stop http server", sl.Err(err))
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("failed to close redis", sl.Err(err))
		}
	}

	a.storage.Stop()
}
