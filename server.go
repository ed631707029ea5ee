package main

import (
	"context"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	"github.com/CodeAndHammer/eventdle/internal/catalog"
	"github.com/CodeAndHammer/eventdle/internal/codec"
	constants "github.com/CodeAndHammer/eventdle/internal/constants"
	handlers "github.com/CodeAndHammer/eventdle/internal/handlers"
	models "github.com/CodeAndHammer/eventdle/internal/models"
	util "github.com/CodeAndHammer/eventdle/internal/util"
)

type serverConfig struct {
	Port        string
	CatalogPath string
	StaticDir   string
}

func isProductionEnv() bool {
	return os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"
}

// obfuscationKey returns OBFUSCATION_KEY when set, otherwise a snapshot of now.
func obfuscationKey() *big.Int {
	if key, ok := util.GetEnvBigInt("OBFUSCATION_KEY"); ok {
		util.LogInfo("Using obfuscation key from OBFUSCATION_KEY")
		return key
	}
	return codec.KeyFromTime(time.Now())
}

func newApp(cat *catalog.Catalog, key *big.Int, staticDir string) *models.App {
	return &models.App{
		Catalog:        cat,
		Codec:          codec.NewCodec(key),
		LimiterMap:     make(map[string]*models.RateLimiterEntry),
		IsProduction:   isProductionEnv(),
		StartTime:      time.Now(),
		StaticDir:      staticDir,
		StaticCacheAge: util.GetEnvDuration("STATIC_CACHE_AGE", constants.DefaultStaticCacheAge),
		RateLimitRPS:   util.GetEnvInt("RATE_LIMIT_RPS", constants.DefaultRateLimitRPS),
		RateLimitBurst: util.GetEnvInt("RATE_LIMIT_BURST", constants.DefaultRateLimitBurst),
		RateLimiterTTL: util.GetEnvDuration("RATE_LIMITER_TTL", constants.DefaultLimiterTTL),
		CORSOrigins:    parseOrigins(util.GetEnv("CORS_ORIGINS", "*")),
	}
}

// parseOrigins splits a comma-separated origin list. A "*" anywhere allows
// every origin; entries without an http(s) scheme are dropped.
func parseOrigins(raw string) []string {
	origins := lo.Compact(lo.Map(strings.Split(raw, ","), func(o string, _ int) string {
		return strings.TrimSpace(o)
	}))
	if lo.Contains(origins, "*") {
		return []string{"*"}
	}
	return lo.Filter(origins, func(o string, _ int) bool {
		if strings.HasPrefix(o, "http://") || strings.HasPrefix(o, "https://") {
			return true
		}
		util.LogWarn("Ignoring CORS origin without scheme: %q", o)
		return false
	})
}

func newRouter(app *models.App) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(accessLogMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(corsMiddleware(app.CORSOrigins))

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(func(c *gin.Context) {
		applyCacheHeaders(app, c)
	})

	if util.DirExists(app.StaticDir) {
		util.LogInfo("Serving static assets from %s", app.StaticDir)
		router.Static(constants.RouteStatic, app.StaticDir)
	} else {
		util.LogWarn("Static directory %s not found, serving API only", app.StaticDir)
	}

	with := func(h func(*models.App, *gin.Context)) gin.HandlerFunc {
		return func(c *gin.Context) { h(app, c) }
	}

	router.GET(constants.RouteHome, with(handlers.HomeHandler))
	router.GET(constants.RouteGetEvent, rateLimitMiddleware(app), with(handlers.GetEventHandler))
	router.POST(constants.RouteCheck, rateLimitMiddleware(app), with(handlers.CheckHandler))
	router.GET(constants.RouteHealthz, with(handlers.HealthzHandler))

	return router
}

func startServer(router *gin.Engine, port string) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		util.LogInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			util.LogWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	util.LogInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		util.LogFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	util.LogInfo("Server shutdown complete")
}

func applyCacheHeaders(app *models.App, c *gin.Context) {
	if app.IsProduction && strings.HasPrefix(c.Request.URL.Path, constants.RouteStatic+"/") {
		cachecontrol.New(cachecontrol.Config{
			Public: true,
			MaxAge: cachecontrol.Duration(app.StaticCacheAge),
		})(c)
		c.Header("Vary", "Accept-Encoding")
		return
	}
	cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})(c)
}

func startCleanupRoutine(app *models.App) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			cleanupStaleRateLimiters(app)
		}
	}()

	util.LogInfo("Started cleanup routine for rate limiters")
}

func cleanupStaleRateLimiters(app *models.App) {
	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()

	cutoffTime := time.Now().Add(-app.RateLimiterTTL)
	removedCount := 0

	for key, entry := range app.LimiterMap {
		if entry.LastAccessTime.Before(cutoffTime) {
			delete(app.LimiterMap, key)
			removedCount++
		}
	}

	if len(app.LimiterMap) > 50000 {
		util.LogInfo("Rate limiter map too large (%d entries), performing emergency cleanup", len(app.LimiterMap))

		type limiterInfo struct {
			key        string
			lastAccess time.Time
		}

		limiters := make([]limiterInfo, 0, len(app.LimiterMap))
		for key, entry := range app.LimiterMap {
			limiters = append(limiters, limiterInfo{key: key, lastAccess: entry.LastAccessTime})
		}

		sort.Slice(limiters, func(i, j int) bool {
			return limiters[i].lastAccess.Before(limiters[j].lastAccess)
		})

		entriesToRemove := len(limiters) / 2
		for i := 0; i < entriesToRemove; i++ {
			delete(app.LimiterMap, limiters[i].key)
			removedCount++
		}

		util.LogInfo("Removed %d oldest rate limiters", entriesToRemove)
	}

	if removedCount > 0 {
		util.LogInfo("Cleaned up %d stale rate limiters", removedCount)
	}
}

func runServer(cfg serverConfig) error {
	isProduction := isProductionEnv()
	if isProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	util.LogInfo("Starting Eventdle in %s mode", map[bool]string{true: "production", false: "development"}[isProduction])

	util.LogInfo("Loading event catalog from %s", cfg.CatalogPath)
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	util.LogInfo("Loaded %d questions with %d events", cat.QuestionCount(), cat.EventCount())

	app := newApp(cat, obfuscationKey(), cfg.StaticDir)
	router := newRouter(app)

	startCleanupRoutine(app)
	startServer(router, cfg.Port)
	return nil
}
