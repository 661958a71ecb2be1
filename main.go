package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindcareplus/mindcare/client/handlers"
	"github.com/mindcareplus/mindcare/client/internal/api"
	"github.com/mindcareplus/mindcare/client/internal/config"
	"github.com/mindcareplus/mindcare/client/internal/router"
	"github.com/mindcareplus/mindcare/client/internal/session"
	"github.com/mindcareplus/mindcare/client/internal/storage"
	"github.com/mindcareplus/mindcare/client/pkg/logger"
	"github.com/mindcareplus/mindcare/client/pkg/metrics"
	"github.com/mindcareplus/mindcare/client/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	if cfg.LogDir != "" {
		if err := logger.ToDir(cfg.LogDir); err != nil {
			logger.Warnf("file logging disabled: %v", err)
		}
	}
	logger.Infof("config loaded: api=%s storage=%s", cfg.API.BaseURL, cfg.Storage.Backend)

	ctx := context.Background()
	st, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to open %s storage: %v", cfg.Storage.Backend, err)
	}
	if c, ok := st.(storage.Closer); ok {
		defer func() { _ = c.Close(context.Background()) }()
	}

	// login/register/me go through their own client with no credential source
	authClient := api.NewClient(api.Options{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.AuthTimeout}, nil)
	store := session.NewStore(st, authClient)
	store.Hydrate(ctx)
	client := api.NewClient(api.Options{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}, store)

	table, err := router.NewTable(router.DefaultRoutes())
	if err != nil {
		logger.Fatalf("route table: %v", err)
	}
	nav, err := router.NewNavigator(table, store)
	if err != nil {
		logger.Fatalf("navigator: %v", err)
	}

	r := gin.New()
	r.Use(middleware.LocalOnly(middleware.OriginPolicy{
		AllowedOrigins: cfg.Shell.AllowedOrigins,
		Hosts:          []string{cfg.Shell.Host},
	}))
	r.Use(gin.Logger(), gin.Recovery())

	limit := func(action string) gin.HandlerFunc {
		return middleware.ActionRateLimit(action, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	if rs, ok := st.(*storage.RedisStorage); ok {
		logger.Infof("using Redis-backed action rate limiter")
		limit = func(action string) gin.HandlerFunc {
			return middleware.RedisActionRateLimit(rs.Client(), cfg.Storage.Prefix, action, cfg.RateLimit.RPS, cfg.RateLimit.Burst, time.Second)
		}
	}

	handlers.RegisterOps(r, st, startTime)
	handlers.RegisterSwagger(r)
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	shell := handlers.NewShellHandler(store, nav)
	shell.RegisterActions(r, limit)
	handlers.NewDataHandler(client, store).Register(r)
	// pages last: the navigation guard also owns NoRoute
	shell.RegisterPages(r)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	go func() {
		logger.Infof("Starting MindCare+ shell on http://%s (authenticated=%v)", cfg.Addr(), store.IsAuthenticated())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}
