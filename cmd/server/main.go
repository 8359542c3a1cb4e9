package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imagehost/backend/internal/api"
	"github.com/imagehost/backend/internal/auth"
	"github.com/imagehost/backend/internal/cache"
	"github.com/imagehost/backend/internal/config"
	"github.com/imagehost/backend/internal/db"
	"github.com/imagehost/backend/internal/health"
	"github.com/imagehost/backend/internal/logger"
	"github.com/imagehost/backend/internal/metrics"
	"github.com/imagehost/backend/internal/middleware"
	"github.com/imagehost/backend/internal/storage"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()

	appLog := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), "")
	logger.SetDefault(appLog)

	database, err := db.New(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// The cache is best effort; the server runs without it.
	var redisCache *cache.Cache
	if c, err := cache.New(cfg.RedisAddr); err != nil {
		appLog.Warn(context.Background(), "redis unavailable, serving uncached",
			map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
	} else {
		redisCache = c
		defer redisCache.Close()
	}

	browse, err := storage.New(&storage.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := browse.EnsureBucket(startupCtx); err != nil {
		cancel()
		log.Fatalf("Failed to ensure bucket: %v", err)
	}
	cancel()

	imageStore, err := storage.NewS3ImageStore(cfg)
	if err != nil {
		log.Fatalf("Failed to create image store: %v", err)
	}

	userRepo := db.NewUserRepository(database)
	postRepo := db.NewPostRepository(database)
	voteRepo := db.NewVoteRepository(database)
	commentRepo := db.NewCommentRepository(database)
	followRepo := db.NewFollowRepository(database)
	albumRepo := db.NewAlbumRepository(database)
	tagRepo := db.NewTagRepository(database)

	hasher := auth.NewBcryptHasher()
	tokens := auth.NewTokenIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := auth.NewService(userRepo, hasher, tokens)
	authHandlers := auth.NewHandlers(authService, cfg.RefreshTokenTTL, cfg.IsProduction())

	checkerCfg := &health.CheckerConfig{
		DB:           database.DB,
		StorageCheck: browse.Ping,
		Version:      version,
	}
	if redisCache != nil {
		checkerCfg.Redis = redisCache.Client()
	}
	healthHandler := health.NewHandler(health.NewChecker(checkerCfg))

	m := metrics.Default()

	router := api.NewRouter(&api.RouterConfig{
		Tokens:   tokens,
		Auth:     authHandlers,
		Posts:    api.NewPostHandlers(postRepo, voteRepo, tagRepo, redisCache, browse),
		Comments: api.NewCommentHandlers(commentRepo, postRepo),
		Users:    api.NewUserHandlers(userRepo, postRepo, albumRepo, followRepo),
		Albums:   api.NewAlbumHandlers(albumRepo, postRepo),
		Tags:     api.NewTagHandlers(tagRepo, postRepo, redisCache),
		Search:   api.NewSearchHandlers(postRepo, userRepo),
		Upload:   api.NewUploadHandlers(imageStore, postRepo, tagRepo, redisCache, m),
		Health:   healthHandler,
		Metrics:  m,
	})

	handler := middleware.Chain(router,
		middleware.RequestID,
		middleware.Logging(appLog),
		metrics.MetricsMiddleware(m),
		middleware.CORS([]string{cfg.FrontendURL}),
		middleware.Recoverer(appLog),
		middleware.Gzip,
	)

	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		appLog.Info(context.Background(), "server starting", map[string]interface{}{
			"addr":        cfg.ServerAddr,
			"environment": cfg.Environment,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	appLog.Info(context.Background(), "shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error(context.Background(), "shutdown failed", err, nil)
	}
}
