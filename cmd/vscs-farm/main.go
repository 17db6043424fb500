package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"vscsfarm/internal/common/cache"
	"vscsfarm/internal/common/container"
	"vscsfarm/internal/farm/controller"
	"vscsfarm/internal/farm/middleware"
	"vscsfarm/internal/farm/repository"
	"vscsfarm/internal/farm/service"
	"vscsfarm/internal/platform"
	"vscsfarm/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/farm.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath, os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	runtime, err := container.NewCLIRuntime(appCfg.Runtime.Command, appCfg.Runtime.Timeout)
	if err != nil {
		logger.Error(ctx, "init container runtime failed", zap.Error(err))
		return
	}

	decoder, err := service.NewTokenDecoder(appCfg.Auth.Mode, appCfg.Auth.Secret, appCfg.Auth.Issuer)
	if err != nil {
		logger.Error(ctx, "init token decoder failed", zap.Error(err))
		return
	}

	titleCache, err := buildTitleCache(appCfg.Cache)
	if err != nil {
		logger.Error(ctx, "init title cache failed", zap.Error(err))
		return
	}
	if titleCache != nil {
		defer func() { _ = titleCache.Close() }()
	}
	var titleRepo repository.TitleCacheRepository
	if titleCache != nil {
		titleRepo = repository.NewTitleCacheRepository(titleCache, appCfg.Cache.TTL)
	}
	titles := service.NewPlatformTitles(platform.New(appCfg.Farm.APIRoot, appCfg.Platform.Timeout, nil), titleRepo)
	sessions := service.NewSessionService(appCfg.serviceConfig(), runtime, titles)

	logger.Info(ctx, "vscs farm configuration",
		zap.String("addr", appCfg.Server.Addr),
		zap.String("image", appCfg.Farm.Image),
		zap.String("container_url", appCfg.Farm.ContainerURL),
		zap.String("api_root", appCfg.Farm.APIRoot),
		zap.String("auth_mode", appCfg.Auth.Mode),
		zap.Bool("suppress_errors", appCfg.Runtime.SuppressErrors),
	)
	if appCfg.Runtime.SuppressErrors {
		logger.Warn(ctx, "runtime failures are suppressed; container state may diverge from responses")
	}

	httpServer := buildHTTPServer(appCfg, sessions, decoder)

	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(ctx, "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "farm http server started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error(ctx, "http server shutdown failed", zap.Error(err))
	}
}

// buildTitleCache returns nil when caching is disabled.
func buildTitleCache(cfg *CacheConfig) (cache.Cache, error) {
	if cfg.Redis.Addr != "" {
		return cache.NewRedisCacheWithConfig(&cfg.Redis)
	}
	if cfg.Size > 0 {
		return cache.NewLRUCache(cfg.Size, cfg.TTL), nil
	}
	return nil, nil
}

func buildHTTPServer(cfg *AppConfig, sessions *service.SessionService, decoder service.TokenDecoder) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceMiddleware())
	router.Use(middleware.RequestLogger())

	controller.RegisterRoutes(router, controller.NewSessionController(sessions), middleware.AccessTokenMiddleware(decoder))

	return &http.Server{
		Addr:           cfg.Server.Addr,
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
}
